package inference

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lakeflow/internal/domain"
)

func TestClassifyColumn(t *testing.T) {
	tests := []struct {
		name   string
		values []string
		want   domain.ColumnType
	}{
		{
			name:   "all integers",
			values: []string{"1", "42", "-7", "0"},
			want:   domain.TypeInteger,
		},
		{
			name:   "integers with nulls",
			values: []string{"1", "", "NULL", "3"},
			want:   domain.TypeInteger,
		},
		{
			name:   "zero fraction decimals are integers",
			values: []string{"1.0", "2.0", "3.0"},
			want:   domain.TypeInteger,
		},
		{
			name:   "floats",
			values: []string{"1.5", "2.0", "-0.25"},
			want:   domain.TypeFloat,
		},
		{
			name:   "mixed ints and floats",
			values: []string{"1", "2.5", "3"},
			want:   domain.TypeFloat,
		},
		{
			name:   "iso dates",
			values: []string{"2024-01-15", "2024-02-20", "2024-03-25"},
			want:   domain.TypeDate,
		},
		{
			name:   "us slash dates",
			values: []string{"01/15/2024", "02/20/2024"},
			want:   domain.TypeDate,
		},
		{
			name:   "dates above threshold",
			values: []string{"2024-01-15", "2024-02-20", "2024-03-25", "2024-04-01", "oops"},
			want:   domain.TypeDate,
		},
		{
			name:   "dates below threshold",
			values: []string{"2024-01-15", "oops", "nope", "2024-02-20"},
			want:   domain.TypeString,
		},
		{
			name:   "all timestamps parse as dates",
			values: []string{"2024-01-15T10:00:00Z", "2024-02-01T09:30:00Z"},
			want:   domain.TypeDate,
		},
		{
			name:   "timestamps with one bad value stay text",
			values: []string{"2024-01-15T10:00:00Z", "2024-02-01T09:30:00Z", "2024-03-01T08:00:00Z", "2024-04-01T07:00:00Z", "garbage"},
			want:   domain.TypeString,
		},
		{
			name:   "datetime values via general parser",
			values: []string{"2024-01-15 10:00:00", "2024-01-16 11:30:00"},
			want:   domain.TypeDate,
		},
		{
			name:   "json objects",
			values: []string{`{"user_id": 1}`, `{"user_id": 2, "amount": 9.5}`},
			want:   domain.TypeVariant,
		},
		{
			name:   "json arrays",
			values: []string{`[1,2,3]`, `["a","b"]`},
			want:   domain.TypeVariant,
		},
		{
			name:   "malformed json falls back",
			values: []string{`{"a": 1}`, `{broken`, `also broken`, `{nope`},
			want:   domain.TypeString,
		},
		{
			name:   "json wins over string majority",
			values: []string{`{"a":1}`, `{"a":2}`, `{"a":3}`, `{"a":4}`, "text"},
			want:   domain.TypeVariant,
		},
		{
			name:   "plain strings",
			values: []string{"alice", "bob", "carol"},
			want:   domain.TypeString,
		},
		{
			name:   "all null",
			values: []string{"", "NULL", "null", ""},
			want:   domain.TypeString,
		},
		{
			name:   "empty sample",
			values: nil,
			want:   domain.TypeString,
		},
		{
			name:   "numeric strings with leading zeros still integer",
			values: []string{"007", "042"},
			want:   domain.TypeInteger,
		},
		{
			name:   "mixed numbers and text",
			values: []string{"1", "two", "3"},
			want:   domain.TypeString,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyColumn(tt.values))
		})
	}
}

func TestInferSchema(t *testing.T) {
	headers := []string{"id", " event_type ", "amount", "created_at", "payload"}
	rows := [][]string{
		{"1", "signup", "9.99", "2024-01-15", `{"user_id": 10}`},
		{"2", "purchase", "25.00", "2024-01-16", `{"user_id": 11, "amount": 25}`},
		{"3", "signup", "", "2024-01-17", `{"user_id": 12}`},
	}

	schema, err := InferSchema(headers, rows)
	require.NoError(t, err)
	require.Equal(t, 5, schema.Len())

	assert.Equal(t, []string{"ID", "EVENT_TYPE", "AMOUNT", "CREATED_AT", "PAYLOAD"}, schema.Names())

	typ, ok := schema.TypeOf("ID")
	require.True(t, ok)
	assert.Equal(t, domain.TypeInteger, typ)

	typ, _ = schema.TypeOf("EVENT_TYPE")
	assert.Equal(t, domain.TypeString, typ)
	typ, _ = schema.TypeOf("AMOUNT")
	assert.Equal(t, domain.TypeFloat, typ)
	typ, _ = schema.TypeOf("CREATED_AT")
	assert.Equal(t, domain.TypeDate, typ)
	typ, _ = schema.TypeOf("PAYLOAD")
	assert.Equal(t, domain.TypeVariant, typ)
}

func TestInferSchema_ShortRows(t *testing.T) {
	headers := []string{"a", "b"}
	rows := [][]string{
		{"1", "2"},
		{"3"},
	}

	schema, err := InferSchema(headers, rows)
	require.NoError(t, err)

	typ, _ := schema.TypeOf("A")
	assert.Equal(t, domain.TypeInteger, typ)
	typ, _ = schema.TypeOf("B")
	assert.Equal(t, domain.TypeInteger, typ)
}

func TestInferSchema_NoHeaders(t *testing.T) {
	_, err := InferSchema(nil, nil)
	assert.Error(t, err)
}

func TestInferSchema_EmptyColumnName(t *testing.T) {
	_, err := InferSchema([]string{"a", "  "}, nil)
	assert.Error(t, err)
}

func TestReadSample(t *testing.T) {
	csvData := "id,name\n1,alice\n2,bob\n3,carol\n"
	headers, rows, err := ReadSample(strings.NewReader(csvData), 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "name"}, headers)
	assert.Len(t, rows, 2)
}

func TestReadSample_Empty(t *testing.T) {
	_, _, err := ReadSample(strings.NewReader(""), 10)
	assert.Error(t, err)
}

func TestReadSample_RaggedRows(t *testing.T) {
	csvData := "a,b,c\n1,2\n1,2,3,4\n"
	_, rows, err := ReadSample(strings.NewReader(csvData), 10)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestInferFromCSV(t *testing.T) {
	csvData := "id,score\n1,9.5\n2,8.25\n"
	schema, err := InferFromCSV(strings.NewReader(csvData), 0)
	require.NoError(t, err)

	typ, _ := schema.TypeOf("SCORE")
	assert.Equal(t, domain.TypeFloat, typ)
}
