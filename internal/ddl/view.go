package ddl

import (
	"fmt"
	"regexp"
	"strings"

	"lakeflow/internal/domain"
)

// FlattenField describes one attribute pulled out of a JSON column and
// exposed as a typed view column.
type FlattenField struct {
	Path string            // attribute name inside the JSON document
	As   string            // output column name
	Type domain.ColumnType // target type; TypeString stays text
}

// Filter restricts a view to rows where a column, or an attribute
// extracted from a JSON column, compares against a value. An empty Op
// means equality. Multiple filters combine with AND.
type Filter struct {
	Column string
	Path   string // optional attribute inside a JSON column
	Op     string // =, !=, <>, <, <=, >, >=
	Value  string
}

var filterOps = map[string]bool{
	"=": true, "!=": true, "<>": true,
	"<": true, "<=": true, ">": true, ">=": true,
}

// numericLiteralRe matches values safe to inline as numeric literals.
var numericLiteralRe = regexp.MustCompile(`^-?\d+(\.\d+)?$`)

// jsonPathRe constrains JSON attribute names the same way identifiers
// are constrained.
var jsonPathRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// ParseFilter parses a predicate of the form COLUMN OP VALUE, e.g.
// "COUNTRY=DE", "AMOUNT > 100", or "PAYLOAD:amount >= 9.5" where the
// colon addresses an attribute inside a JSON column. Surrounding quotes
// on the value are stripped.
func ParseFilter(raw string) (Filter, error) {
	ops := []string{"<=", ">=", "!=", "<>", "=", "<", ">"}
	for i := 0; i < len(raw); i++ {
		for _, op := range ops {
			if !strings.HasPrefix(raw[i:], op) {
				continue
			}
			column := strings.TrimSpace(raw[:i])
			value := strings.TrimSpace(raw[i+len(op):])
			if column == "" || value == "" {
				return Filter{}, fmt.Errorf("invalid filter %q: expected COLUMN OP VALUE", raw)
			}
			f := Filter{Column: column, Op: op, Value: stripValueQuotes(value)}
			if col, path, ok := strings.Cut(column, ":"); ok {
				f.Column = strings.TrimSpace(col)
				f.Path = strings.TrimSpace(path)
			}
			return f, nil
		}
	}
	return Filter{}, fmt.Errorf("invalid filter %q: no comparison operator found", raw)
}

func stripValueQuotes(s string) string {
	if len(s) >= 2 {
		if (s[0] == '\'' && s[len(s)-1] == '\'') || (s[0] == '"' && s[len(s)-1] == '"') {
			return s[1 : len(s)-1]
		}
	}
	return s
}

// predicate renders one filter as SQL. JSON-path filters extract the
// attribute with json_extract_string; when the value is numeric the
// extracted text is cast so the comparison is numeric, not lexical.
func (f Filter) predicate() (string, error) {
	col := domain.NormalizeColumnName(f.Column)
	if err := ValidateIdentifier(col); err != nil {
		return "", fmt.Errorf("invalid filter column: %w", err)
	}
	op := f.Op
	if op == "" {
		op = "="
	}
	if !filterOps[op] {
		return "", fmt.Errorf("unsupported filter operator %q", f.Op)
	}

	numeric := numericLiteralRe.MatchString(f.Value)
	expr := QuoteIdentifier(col)
	if f.Path != "" {
		if !jsonPathRe.MatchString(f.Path) {
			return "", fmt.Errorf("invalid filter path %q", f.Path)
		}
		expr = fmt.Sprintf("json_extract_string(%s, %s)", expr, QuoteLiteral("$."+f.Path))
		if numeric {
			expr = fmt.Sprintf("TRY_CAST(%s AS DOUBLE)", expr)
		}
	}

	value := QuoteLiteral(f.Value)
	if numeric {
		value = f.Value
	}
	return fmt.Sprintf("%s %s %s", expr, op, value), nil
}

// DefaultFlattenFields are the attributes most event payloads carry.
// Used when the caller does not specify its own field list.
func DefaultFlattenFields() []FlattenField {
	return []FlattenField{
		{Path: "user_id", As: "USER_ID", Type: domain.TypeString},
		{Path: "session_duration", As: "SESSION_DURATION", Type: domain.TypeInteger},
		{Path: "amount", As: "AMOUNT", Type: domain.TypeFloat},
	}
}

// CreateView returns a CREATE OR REPLACE VIEW statement over the parent
// table. Every base column is projected as-is; for each JSON column,
// flatten fields are extracted with json_extract_string and cast to their
// target type. Filters narrow the view with equality predicates.
func CreateView(name, table string, schema *domain.ColumnSchema, fields []FlattenField, filters []Filter) (string, error) {
	if err := ValidateIdentifier(name); err != nil {
		return "", fmt.Errorf("invalid view name: %w", err)
	}
	if err := ValidateIdentifier(table); err != nil {
		return "", fmt.Errorf("invalid table name: %w", err)
	}
	if err := validateColumns(schema); err != nil {
		return "", err
	}

	var selectCols []string
	for _, c := range schema.Columns() {
		selectCols = append(selectCols, QuoteIdentifier(c.Name))
	}
	for _, c := range schema.Columns() {
		if c.Type != domain.TypeVariant {
			continue
		}
		for _, f := range fields {
			col, err := flattenColumn(c.Name, f)
			if err != nil {
				return "", err
			}
			selectCols = append(selectCols, col)
		}
	}

	stmt := fmt.Sprintf("CREATE OR REPLACE VIEW %s AS SELECT %s FROM %s",
		QuoteIdentifier(name), strings.Join(selectCols, ", "), QuoteIdentifier(table))

	if len(filters) > 0 {
		var preds []string
		for _, f := range filters {
			pred, err := f.predicate()
			if err != nil {
				return "", err
			}
			preds = append(preds, pred)
		}
		stmt += " WHERE " + strings.Join(preds, " AND ")
	}
	return stmt, nil
}

func flattenColumn(source string, f FlattenField) (string, error) {
	if err := ValidateIdentifier(f.As); err != nil {
		return "", fmt.Errorf("invalid flatten column name: %w", err)
	}
	if f.Path == "" {
		return "", fmt.Errorf("flatten path is required")
	}
	extract := fmt.Sprintf("json_extract_string(%s, %s)",
		QuoteIdentifier(source), QuoteLiteral("$."+f.Path))
	switch f.Type {
	case domain.TypeInteger, domain.TypeFloat, domain.TypeDate:
		extract = fmt.Sprintf("TRY_CAST(%s AS %s)", extract, SQLType(f.Type))
	}
	return fmt.Sprintf("%s AS %s", extract, QuoteIdentifier(f.As)), nil
}

// DropView returns a DROP VIEW IF EXISTS statement.
func DropView(name string) (string, error) {
	if err := ValidateIdentifier(name); err != nil {
		return "", fmt.Errorf("invalid view name: %w", err)
	}
	return "DROP VIEW IF EXISTS " + QuoteIdentifier(name), nil
}

// ListViews returns a statement listing view names in the main schema.
func ListViews() string {
	return "SELECT view_name FROM duckdb_views() WHERE NOT internal ORDER BY view_name"
}
