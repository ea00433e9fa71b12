package parser_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm/relnorm/pkg/parser"
	"github.com/pthm/relnorm/pkg/schema"
)

func columnNames(t *parser.Table) []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = string(c.Name)
	}
	return names
}

func TestParseDDL_Postgres(t *testing.T) {
	table, err := parser.ParseDDL(`
CREATE TABLE orders (
    order_id INT PRIMARY KEY,
    Customer VARCHAR(255) NOT NULL,
    total DECIMAL(10,2)
);`)
	require.NoError(t, err)

	assert.False(t, table.Lenient)
	assert.Equal(t, "orders", table.Name)
	assert.Equal(t, []string{"order_id", "Customer", "total"}, columnNames(table))
	assert.Equal(t, "varchar(255)", table.Columns[1].Type)
	assert.Equal(t, []string{"Customer", "order_id", "total"}, table.Attributes.Strings())
	assert.Equal(t, []string{"order_id"}, table.PrimaryKey.Strings())
}

func TestParseDDL_TableConstraintKeepsSpelling(t *testing.T) {
	table, err := parser.ParseDDL(`CREATE TABLE IF NOT EXISTS enrolment (
    Student TEXT,
    Course TEXT,
    Grade TEXT,
    CONSTRAINT enrolment_course_fk FOREIGN KEY (Course) REFERENCES course (id),
    PRIMARY KEY (Student, Course)
)`)
	require.NoError(t, err)

	assert.False(t, table.Lenient)
	assert.Equal(t, []string{"Student", "Course", "Grade"}, columnNames(table))
	assert.Equal(t, []string{"Course", "Student"}, table.PrimaryKey.Strings())
}

func TestParseDDL_QuotedIdentifier(t *testing.T) {
	table, err := parser.ParseDDL(`CREATE TABLE "Things" ("ThingId" int, name text)`)
	require.NoError(t, err)
	assert.Equal(t, "Things", table.Name)
	assert.Equal(t, []string{"ThingId", "name"}, columnNames(table))
}

func TestParseDDL_LenientFallback(t *testing.T) {
	table, err := parser.ParseDDL(`CREATE TABLE R (
    A,
    B DECIMAL(10,2),
    C PRIMARY KEY,
    CONSTRAINT r_a UNIQUE (A)
)`)
	require.NoError(t, err)

	assert.True(t, table.Lenient)
	assert.Equal(t, "R", table.Name)
	assert.Equal(t, []string{"A", "B", "C"}, columnNames(table))
	assert.Equal(t, "DECIMAL(10,2)", table.Columns[1].Type)
	assert.Empty(t, table.Columns[2].Type)
	assert.Equal(t, []string{"C"}, table.PrimaryKey.Strings())
}

func TestParseDDL_LenientPrimaryKeyList(t *testing.T) {
	table, err := parser.ParseDDL("CREATE TABLE R (A, B, C, PRIMARY KEY (A, `B`))")
	require.NoError(t, err)
	assert.True(t, table.Lenient)
	assert.Equal(t, []string{"A", "B"}, table.PrimaryKey.Strings())
}

func TestParseDDL_Strict(t *testing.T) {
	_, err := parser.ParseDDL("CREATE TABLE R (A, B)", parser.WithStrict())
	require.Error(t, err)
	assert.True(t, parser.IsInvalidDDLErr(err))
}

func TestParseDDL_Invalid(t *testing.T) {
	tests := []struct {
		name string
		ddl  string
	}{
		{name: "no parentheses", ddl: "CREATE TABLE R"},
		{name: "empty column list", ddl: "CREATE TABLE R ()"},
		{name: "empty input", ddl: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parser.ParseDDL(tt.ddl)
			require.Error(t, err)
			assert.True(t, parser.IsInvalidDDLErr(err))
		})
	}
}

func TestParseDDL_UpperCase(t *testing.T) {
	table, err := parser.ParseDDL("CREATE TABLE t (id int PRIMARY KEY, name text)", parser.WithUpperCase())
	require.NoError(t, err)
	assert.Equal(t, []string{"ID", "NAME"}, table.Attributes.Strings())
	assert.Equal(t, []string{"ID"}, table.PrimaryKey.Strings())
}

func TestParseDDLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schema.sql")
	require.NoError(t, os.WriteFile(path, []byte("CREATE TABLE t (a int, b int);"), 0o600))

	table, err := parser.ParseDDLFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, table.Attributes.Strings())

	_, err = parser.ParseDDLFile(filepath.Join(t.TempDir(), "missing.sql"))
	assert.Error(t, err)
}

func TestParseDependencies(t *testing.T) {
	list, err := parser.ParseDependencyString(`A->B
# comments and blank lines are ignored

 A, B -> C ,D
not a dependency
END
C->D`)
	require.NoError(t, err)

	require.Len(t, list.Dependencies, 2)
	assert.Equal(t, "A->B", list.Dependencies[0].String())
	assert.Equal(t, "A,B->C,D", list.Dependencies[1].String())

	require.Len(t, list.Skipped, 1)
	assert.Equal(t, parser.SkippedLine{Line: 5, Text: "not a dependency", Reason: parser.SkipNoArrow}, list.Skipped[0])
}

func TestParseDependencies_NoTerminator(t *testing.T) {
	list, err := parser.ParseDependencyString("A->B\nEND\nC->D", parser.WithTerminator(""))
	require.NoError(t, err)
	require.Len(t, list.Dependencies, 2)
	assert.Equal(t, "C->D", list.Dependencies[1].String())
}

func TestParseDependencies_EmptySides(t *testing.T) {
	list, err := parser.ParseDependencyString("->B\nA->\n , ->C")
	require.NoError(t, err)
	require.Len(t, list.Dependencies, 3)

	assert.True(t, list.Dependencies[0].LHS.IsEmpty())
	assert.Equal(t, schema.NewAttributeSet("B"), list.Dependencies[0].RHS)
	assert.True(t, list.Dependencies[1].RHS.IsEmpty())
	assert.True(t, list.Dependencies[2].LHS.IsEmpty())
}

func TestParseDependencies_UpperCase(t *testing.T) {
	list, err := parser.ParseDependencyString("a->b", parser.WithUpperCase())
	require.NoError(t, err)
	assert.Equal(t, "A->B", list.Dependencies[0].String())
}
