package parser

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	pg_query "github.com/pganalyze/pg_query_go/v6"

	"github.com/pthm/relnorm/pkg/schema"
)

// parseDDLPostgres parses text with the PostgreSQL parser and converts the
// first CREATE TABLE statement.
//
// PostgreSQL folds unquoted identifiers to lower case. Column names are read
// back from the source text at the position the parser reports, so attributes
// keep the spelling the user wrote and match dependencies written the same way.
func parseDDLPostgres(text string, o options) (*Table, error) {
	result, err := pg_query.Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parse SQL: %w", err)
	}

	for _, raw := range result.GetStmts() {
		create := raw.GetStmt().GetCreateStmt()
		if create == nil {
			continue
		}

		var (
			columns []Column
			pk      []schema.Attribute
		)
		// folded name -> attribute as written, for table-level key lists
		spelled := make(map[string]schema.Attribute)

		for _, elt := range create.GetTableElts() {
			if col := elt.GetColumnDef(); col != nil {
				name := o.attribute(identAt(text, int(col.GetLocation()), col.GetColname()))
				spelled[col.GetColname()] = name
				columns = append(columns, Column{Name: name, Type: typeName(col.GetTypeName())})

				for _, c := range col.GetConstraints() {
					if c.GetConstraint().GetContype() == pg_query.ConstrType_CONSTR_PRIMARY {
						pk = append(pk, name)
					}
				}
				continue
			}

			c := elt.GetConstraint()
			if c == nil || c.GetContype() != pg_query.ConstrType_CONSTR_PRIMARY {
				continue
			}
			for _, k := range c.GetKeys() {
				folded := k.GetString_().GetSval()
				if name, ok := spelled[folded]; ok {
					pk = append(pk, name)
				} else {
					pk = append(pk, o.attribute(folded))
				}
			}
		}

		return newTable(create.GetRelation().GetRelname(), columns, pk)
	}

	return nil, errors.New("no CREATE TABLE statement")
}

// typeName renders a column type such as "varchar(255)".
func typeName(tn *pg_query.TypeName) string {
	names := tn.GetNames()
	if len(names) == 0 {
		return ""
	}
	name := names[len(names)-1].GetString_().GetSval()

	var mods []string
	for _, m := range tn.GetTypmods() {
		if c := m.GetAConst(); c != nil && c.GetIval() != nil {
			mods = append(mods, strconv.Itoa(int(c.GetIval().GetIval())))
		}
	}
	if len(mods) > 0 {
		name += "(" + strings.Join(mods, ",") + ")"
	}
	return name
}

// identAt returns the identifier that starts at byte offset loc of text,
// without quotes. It returns fallback when loc is out of range.
func identAt(text string, loc int, fallback string) string {
	if loc < 0 || loc >= len(text) {
		return fallback
	}
	rest := text[loc:]
	if rest[0] == '"' {
		if end := strings.IndexByte(rest[1:], '"'); end >= 0 {
			return rest[1 : end+1]
		}
		return fallback
	}
	end := strings.IndexFunc(rest, func(r rune) bool { return !isIdentRune(r) })
	if end == 0 {
		return fallback
	}
	if end < 0 {
		end = len(rest)
	}
	return rest[:end]
}

func isIdentRune(r rune) bool {
	return r == '_' || r == '$' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// constraintKeywords start table-level constraints rather than columns.
var constraintKeywords = map[string]bool{
	"PRIMARY":    true,
	"CONSTRAINT": true,
	"UNIQUE":     true,
	"FOREIGN":    true,
	"CHECK":      true,
	"EXCLUDE":    true,
}

// parseDDLLenient extracts columns from text that is not valid PostgreSQL.
// The column list runs from the first "(" to the last ")" and the first word
// of each comma-separated entry is the column name. Commas inside
// parentheses, as in DECIMAL(10,2), do not split entries.
func parseDDLLenient(text string, o options) (*Table, error) {
	flat := strings.Join(strings.Fields(text), " ")

	open := strings.IndexByte(flat, '(')
	end := strings.LastIndexByte(flat, ')')
	if open < 0 || end < open {
		return nil, fmt.Errorf("%w: missing column list parentheses", ErrInvalidDDL)
	}

	var (
		columns []Column
		pk      []schema.Attribute
	)
	for _, entry := range splitTopLevel(flat[open+1:end], ',') {
		fields := strings.Fields(entry)
		if len(fields) == 0 {
			continue
		}
		upper := strings.ToUpper(entry)
		first := strings.ToUpper(fields[0])

		if constraintKeywords[first] {
			if strings.Contains(upper, "PRIMARY KEY") {
				for _, name := range keyList(entry) {
					pk = append(pk, o.attribute(name))
				}
			}
			continue
		}

		col := Column{Name: o.attribute(trimIdent(fields[0]))}
		if len(fields) > 1 && !constraintKeywords[strings.ToUpper(fields[1])] {
			col.Type = fields[1]
		}
		columns = append(columns, col)
		if strings.Contains(upper, "PRIMARY KEY") {
			pk = append(pk, col.Name)
		}
	}

	return newTable(tableName(flat[:open]), columns, pk)
}

// tableName takes the word after TABLE (and an optional IF NOT EXISTS).
func tableName(header string) string {
	fields := strings.Fields(header)
	for i, f := range fields {
		if !strings.EqualFold(f, "TABLE") {
			continue
		}
		rest := fields[i+1:]
		if len(rest) >= 3 && strings.EqualFold(rest[0], "IF") && strings.EqualFold(rest[1], "NOT") && strings.EqualFold(rest[2], "EXISTS") {
			rest = rest[3:]
		}
		if len(rest) > 0 {
			return trimIdent(rest[0])
		}
	}
	return ""
}

// keyList returns the names inside the first parenthesized list of entry.
func keyList(entry string) []string {
	open := strings.IndexByte(entry, '(')
	end := strings.IndexByte(entry, ')')
	if open < 0 || end < open {
		return nil
	}
	var names []string
	for _, part := range strings.Split(entry[open+1:end], ",") {
		if name := trimIdent(strings.TrimSpace(part)); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// splitTopLevel splits s on sep, ignoring separators nested in parentheses.
func splitTopLevel(s string, sep byte) []string {
	var (
		parts []string
		depth int
		start int
	)
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			if depth > 0 {
				depth--
			}
		case sep:
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, s[start:])
}

func trimIdent(s string) string {
	return strings.Trim(s, "\"`[]")
}
