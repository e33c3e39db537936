// Package report exports ranked catalogs for spreadsheets.
package report

import "strings"

// formulaPrefixes start a cell that spreadsheets would evaluate.
const formulaPrefixes = "=+-@|%\t\r\n"

// EscapeCSVCell neutralises formula injection by quoting cells that begin
// with a formula or control character.
func EscapeCSVCell(value string) string {
	if value != "" && strings.ContainsRune(formulaPrefixes, rune(value[0])) {
		return "'" + value
	}
	return value
}

// EscapeCSVRow escapes all cells in a row
func EscapeCSVRow(row []string) []string {
	escaped := make([]string, len(row))
	for i, cell := range row {
		escaped[i] = EscapeCSVCell(cell)
	}
	return escaped
}
