package ddl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lakeflow/internal/domain"
)

func TestCreateView_FlattensVariantColumns(t *testing.T) {
	got, err := CreateView("GERMANY_EVENTS", "PARENT_EVENTS", eventSchema(),
		DefaultFlattenFields(), []Filter{{Column: "COUNTRY", Value: "DE"}})
	require.NoError(t, err)

	assert.Contains(t, got, `CREATE OR REPLACE VIEW "GERMANY_EVENTS" AS SELECT`)
	assert.Contains(t, got, `json_extract_string("PAYLOAD", '$.user_id') AS "USER_ID"`)
	assert.Contains(t, got, `TRY_CAST(json_extract_string("PAYLOAD", '$.session_duration') AS INTEGER) AS "SESSION_DURATION"`)
	assert.Contains(t, got, `TRY_CAST(json_extract_string("PAYLOAD", '$.amount') AS DOUBLE) AS "AMOUNT"`)
	assert.Contains(t, got, `FROM "PARENT_EVENTS" WHERE "COUNTRY" = 'DE'`)
}

func TestCreateView_NoVariantColumns(t *testing.T) {
	s := domain.NewColumnSchema()
	s.Add("ID", domain.TypeInteger)
	s.Add("NAME", domain.TypeString)

	got, err := CreateView("V", "T", s, DefaultFlattenFields(), nil)
	require.NoError(t, err)
	assert.Equal(t, `CREATE OR REPLACE VIEW "V" AS SELECT "ID", "NAME" FROM "T"`, got)
}

func TestCreateView_NoFields(t *testing.T) {
	got, err := CreateView("V", "PARENT_EVENTS", eventSchema(), nil, nil)
	require.NoError(t, err)
	assert.NotContains(t, got, "json_extract_string")
	assert.Contains(t, got, `"PAYLOAD"`)
}

func TestCreateView_MultipleFilters(t *testing.T) {
	got, err := CreateView("V", "T", eventSchema(), nil,
		[]Filter{{Column: "country", Value: "DE"}, {Column: "EVENT_TYPE", Value: "signup"}})
	require.NoError(t, err)
	assert.Contains(t, got, `WHERE "COUNTRY" = 'DE' AND "EVENT_TYPE" = 'signup'`)
}

func TestCreateView_EscapesFilterValue(t *testing.T) {
	got, err := CreateView("V", "T", eventSchema(), nil,
		[]Filter{{Column: "NAME", Value: "O'Brien"}})
	require.NoError(t, err)
	assert.Contains(t, got, `'O''Brien'`)
}

func TestCreateView_BadFilterColumn(t *testing.T) {
	_, err := CreateView("V", "T", eventSchema(), nil,
		[]Filter{{Column: "x; DROP", Value: "DE"}})
	assert.Error(t, err)
}

func TestCreateView_ComparisonFilter(t *testing.T) {
	got, err := CreateView("V", "T", eventSchema(), nil,
		[]Filter{{Column: "AMOUNT", Op: ">", Value: "100"}})
	require.NoError(t, err)
	assert.Contains(t, got, `WHERE "AMOUNT" > 100`)
}

func TestCreateView_JSONPathFilter(t *testing.T) {
	got, err := CreateView("V", "T", eventSchema(), nil,
		[]Filter{{Column: "PAYLOAD", Path: "session_duration", Op: ">=", Value: "60"}})
	require.NoError(t, err)
	assert.Contains(t, got,
		`WHERE TRY_CAST(json_extract_string("PAYLOAD", '$.session_duration') AS DOUBLE) >= 60`)
}

func TestCreateView_JSONPathTextFilter(t *testing.T) {
	got, err := CreateView("V", "T", eventSchema(), nil,
		[]Filter{{Column: "PAYLOAD", Path: "user_id", Value: "u1"}})
	require.NoError(t, err)
	assert.Contains(t, got, `WHERE json_extract_string("PAYLOAD", '$.user_id') = 'u1'`)
}

func TestCreateView_BadFilterOperator(t *testing.T) {
	_, err := CreateView("V", "T", eventSchema(), nil,
		[]Filter{{Column: "AMOUNT", Op: "LIKE", Value: "x"}})
	assert.Error(t, err)
}

func TestCreateView_BadFilterPath(t *testing.T) {
	_, err := CreateView("V", "T", eventSchema(), nil,
		[]Filter{{Column: "PAYLOAD", Path: "a'; DROP", Value: "x"}})
	assert.Error(t, err)
}

func TestParseFilter(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    Filter
		wantErr bool
	}{
		{
			name: "equality",
			raw:  "COUNTRY=DE",
			want: Filter{Column: "COUNTRY", Op: "=", Value: "DE"},
		},
		{
			name: "quoted value",
			raw:  "country='DE'",
			want: Filter{Column: "country", Op: "=", Value: "DE"},
		},
		{
			name: "greater than with spaces",
			raw:  "AMOUNT > 100",
			want: Filter{Column: "AMOUNT", Op: ">", Value: "100"},
		},
		{
			name: "compound operator",
			raw:  "AMOUNT >= 9.5",
			want: Filter{Column: "AMOUNT", Op: ">=", Value: "9.5"},
		},
		{
			name: "not equal",
			raw:  "EVENT_TYPE != signup",
			want: Filter{Column: "EVENT_TYPE", Op: "!=", Value: "signup"},
		},
		{
			name: "json path attribute",
			raw:  "PAYLOAD:amount > 100",
			want: Filter{Column: "PAYLOAD", Path: "amount", Op: ">", Value: "100"},
		},
		{
			name:    "no operator",
			raw:     "COUNTRY",
			wantErr: true,
		},
		{
			name:    "missing value",
			raw:     "COUNTRY=",
			wantErr: true,
		},
		{
			name:    "missing column",
			raw:     "=DE",
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFilter(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDropView(t *testing.T) {
	got, err := DropView("GERMANY_EVENTS")
	require.NoError(t, err)
	assert.Equal(t, `DROP VIEW IF EXISTS "GERMANY_EVENTS"`, got)
}
