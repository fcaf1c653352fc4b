// Package inference derives a typed column schema from sampled CSV data.
//
// Classification looks at a bounded sample of values per column and picks
// the most specific type the data supports, falling back to STRING when
// nothing stronger fits. A column qualifies for VARIANT when at least 80%
// of its non-null values are JSON documents, and for DATE when at least
// 80% match a fixed date pattern or the whole non-null set parses under a
// general date parser; numeric types require every non-null value to
// parse.
package inference

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"lakeflow/internal/domain"
)

// matchThreshold is the fraction of non-null values that must match for
// the VARIANT and DATE classifications.
const matchThreshold = 0.8

var datePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`), // 2024-01-31
	regexp.MustCompile(`^\d{2}/\d{2}/\d{4}$`), // 01/31/2024
	regexp.MustCompile(`^\d{2}-\d{2}-\d{4}$`), // 31-01-2024
}

var dateLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	"02-01-2006",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// isNull reports whether a raw CSV value represents a missing value.
func isNull(v string) bool {
	switch strings.TrimSpace(v) {
	case "", "NULL", "null":
		return true
	}
	return false
}

// isJSONValue reports whether v parses as a JSON object or array. Bare
// scalars are excluded so plain numbers and quoted strings do not get
// classified as VARIANT.
func isJSONValue(v string) bool {
	s := strings.TrimSpace(v)
	if len(s) < 2 {
		return false
	}
	if s[0] != '{' && s[0] != '[' {
		return false
	}
	return json.Valid([]byte(s))
}

// matchesDatePattern reports whether v matches one of the fixed date
// patterns. Only these count toward the 80% date threshold.
func matchesDatePattern(v string) bool {
	s := strings.TrimSpace(v)
	for _, re := range datePatterns {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}

// parsesAsDate reports whether v parses under any known layout. The
// general-parser branch requires every non-null value to pass.
func parsesAsDate(v string) bool {
	s := strings.TrimSpace(v)
	for _, layout := range dateLayouts {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}

// isIntegerValue reports whether v is numeric with a zero fractional
// part, so "1.0" counts as an integer alongside "1".
func isIntegerValue(v string) bool {
	s := strings.TrimSpace(v)
	if !isFloatValue(s) {
		return false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return false
	}
	return f == math.Trunc(f)
}

func isFloatValue(v string) bool {
	s := strings.TrimSpace(v)
	if _, err := strconv.ParseFloat(s, 64); err != nil {
		return false
	}
	// Reject hex/inf/nan forms that ParseFloat accepts but SQL will not.
	for _, r := range s {
		if (r < '0' || r > '9') && r != '.' && r != '-' && r != '+' && r != 'e' && r != 'E' {
			return false
		}
	}
	return true
}

// ClassifyColumn inspects the sampled values of one column and returns
// the inferred type. All-null columns classify as STRING.
func ClassifyColumn(values []string) domain.ColumnType {
	var nonNull []string
	for _, v := range values {
		if !isNull(v) {
			nonNull = append(nonNull, v)
		}
	}
	if len(nonNull) == 0 {
		return domain.TypeString
	}

	jsonHits, patternHits := 0, 0
	allDates, allInt, allFloat := true, true, true
	for _, v := range nonNull {
		if isJSONValue(v) {
			jsonHits++
		}
		if matchesDatePattern(v) {
			patternHits++
		}
		if !parsesAsDate(v) {
			allDates = false
		}
		if !isIntegerValue(v) {
			allInt = false
		}
		if !isFloatValue(v) {
			allFloat = false
		}
	}

	total := float64(len(nonNull))
	switch {
	case float64(jsonHits)/total >= matchThreshold:
		return domain.TypeVariant
	case float64(patternHits)/total >= matchThreshold || allDates:
		return domain.TypeDate
	case allInt:
		return domain.TypeInteger
	case allFloat:
		return domain.TypeFloat
	default:
		return domain.TypeString
	}
}

// InferSchema classifies each column of the sampled rows and returns the
// resulting schema. Header names are normalized; rows shorter than the
// header contribute nulls for the missing columns.
func InferSchema(headers []string, rows [][]string) (*domain.ColumnSchema, error) {
	if len(headers) == 0 {
		return nil, domain.ErrValidation("csv has no header row")
	}

	schema := domain.NewColumnSchema()
	for i, header := range headers {
		name := domain.NormalizeColumnName(header)
		if name == "" {
			return nil, domain.ErrValidation("column %d has an empty name", i+1)
		}
		values := make([]string, 0, len(rows))
		for _, row := range rows {
			if i < len(row) {
				values = append(values, row[i])
			} else {
				values = append(values, "")
			}
		}
		schema.Add(name, ClassifyColumn(values))
	}
	return schema, nil
}
