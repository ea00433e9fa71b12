// Package main provides the relnorm CLI.
//
// relnorm reads a CREATE TABLE statement and a list of functional
// dependencies, finds the minimal candidate keys and decomposes the table
// into third normal form:
//   - analyze: keys, decomposition and DDL in one report
//   - closure: attribute closure of a set of columns
//   - keys: minimal candidate keys
//   - decompose: the decomposed relations as CREATE TABLE statements
//   - doctor: check the inputs (and optionally the database) for problems
//   - migrate: create the decomposed tables in PostgreSQL
//
// Usage:
//
//	relnorm analyze --ddl schema.sql --fds deps.txt
//
// Without --ddl and --fds, input is read from stdin: the DDL up to a line
// reading END, then one dependency per line up to END or EOF. On a terminal
// an interactive form is shown instead.
package main

func main() {
	Execute()
}
