package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// maxCellWidth caps individual cells so one long title cannot blow out
// the whole table.
const maxCellWidth = 50

// Column describes one table column. Right-aligned columns pad on the
// left, which reads better for numeric ids.
type Column struct {
	Name  string
	Right bool
}

// Table accumulates rows and renders them with aligned columns. Widths
// are measured on visible characters, so styled cells line up with
// plain ones.
type Table struct {
	columns []Column
	rows    [][]string
}

// NewTable returns an empty table with the given columns.
func NewTable(columns ...Column) *Table {
	return &Table{columns: columns}
}

// Row appends one row. Cells beyond the column count are dropped and
// missing cells render empty.
func (t *Table) Row(cells ...string) {
	row := make([]string, len(t.columns))
	for i := range row {
		if i < len(cells) {
			row[i] = flattenCell(cells[i])
		}
	}
	t.rows = append(t.rows, row)
}

// String renders the header and all rows, columns separated by two
// spaces.
func (t *Table) String() string {
	widths := make([]int, len(t.columns))
	header := make([]string, len(t.columns))
	for i, col := range t.columns {
		header[i] = col.Name
		widths[i] = lipgloss.Width(col.Name)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			if w := lipgloss.Width(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	var out strings.Builder
	t.writeRow(&out, header, widths)
	for _, row := range t.rows {
		t.writeRow(&out, row, widths)
	}
	return out.String()
}

func (t *Table) writeRow(out *strings.Builder, row []string, widths []int) {
	for i, cell := range row {
		pad := widths[i] - lipgloss.Width(cell)
		if t.columns[i].Right {
			out.WriteString(strings.Repeat(" ", pad))
			out.WriteString(cell)
			pad = 0
		} else {
			out.WriteString(cell)
		}
		if i == len(row)-1 {
			break
		}
		out.WriteString(strings.Repeat(" ", pad+2))
	}
	out.WriteByte('\n')
}

// TruncateCell caps a cell at the width list columns use, preserving
// escape sequences while counting only visible characters.
func TruncateCell(value string) string {
	value = flattenCell(value)
	if lipgloss.Width(value) <= maxCellWidth {
		return value
	}
	return ansi.Truncate(value, maxCellWidth, "...")
}

// flattenCell folds newlines and tabs into spaces so a cell stays on
// one table row.
func flattenCell(value string) string {
	return strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ", "\t", " ").Replace(value)
}
