package utils

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// TableFormatter renders box-drawn tables for CLI listings. Widths are
// measured in terminal cells, so styled or non-ASCII cells line up.
type TableFormatter struct {
	headers []string
	rows    [][]string
	widths  []int
	right   map[int]bool
}

// NewTableFormatter creates a new table formatter with headers
func NewTableFormatter(headers []string) *TableFormatter {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	return &TableFormatter{
		headers: headers,
		widths:  widths,
		right:   map[int]bool{},
	}
}

// AlignRight right-aligns the given columns, typically quantities.
func (t *TableFormatter) AlignRight(cols ...int) *TableFormatter {
	for _, c := range cols {
		t.right[c] = true
	}
	return t
}

// AddRow adds a row. Missing cells are blank and extra cells are dropped.
func (t *TableFormatter) AddRow(row []string) {
	cells := make([]string, len(t.headers))
	copy(cells, row)
	t.rows = append(t.rows, cells)
	for i, cell := range cells {
		if w := lipgloss.Width(cell); w > t.widths[i] {
			t.widths[i] = w
		}
	}
}

// Len returns the number of data rows.
func (t *TableFormatter) Len() int {
	return len(t.rows)
}

// String returns the formatted table
func (t *TableFormatter) String() string {
	var sb strings.Builder

	t.writeBorder(&sb, "┌", "┬", "┐")
	t.writeRow(&sb, t.headers)
	t.writeBorder(&sb, "├", "┼", "┤")
	for _, row := range t.rows {
		t.writeRow(&sb, row)
	}
	t.writeBorder(&sb, "└", "┴", "┘")

	return sb.String()
}

func (t *TableFormatter) writeRow(sb *strings.Builder, cells []string) {
	sb.WriteString("│")
	for i, cell := range cells {
		pad := strings.Repeat(" ", t.widths[i]-lipgloss.Width(cell))
		sb.WriteString(" ")
		if t.right[i] {
			sb.WriteString(pad + cell)
		} else {
			sb.WriteString(cell + pad)
		}
		sb.WriteString(" │")
	}
	sb.WriteString("\n")
}

func (t *TableFormatter) writeBorder(sb *strings.Builder, left, middle, right string) {
	sb.WriteString(left)
	for i, w := range t.widths {
		sb.WriteString(strings.Repeat("─", w+2))
		if i < len(t.widths)-1 {
			sb.WriteString(middle)
		}
	}
	sb.WriteString(right)
	sb.WriteString("\n")
}
