package ddl

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateIdentifier(t *testing.T) {
	tests := []struct {
		name    string
		ident   string
		wantErr bool
	}{
		{"simple", "events", false},
		{"underscore prefix", "_staging", false},
		{"mixed case with digits", "Parent_Events_2", false},
		{"empty", "", true},
		{"leading digit", "1table", true},
		{"semicolon", "t;DROP TABLE x", true},
		{"space", "my table", true},
		{"quote", `ta"ble`, true},
		{"too long", strings.Repeat("a", 129), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateIdentifier(tt.ident)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestQuoteIdentifier(t *testing.T) {
	assert.Equal(t, `"events"`, QuoteIdentifier("events"))
	assert.Equal(t, `"we""ird"`, QuoteIdentifier(`we"ird`))
}

func TestQuoteLiteral(t *testing.T) {
	assert.Equal(t, "'plain'", QuoteLiteral("plain"))
	assert.Equal(t, "'it''s'", QuoteLiteral("it's"))
}
