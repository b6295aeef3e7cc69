package cmd

import (
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
)

// table renders left-aligned columns measured in terminal cells, so type
// names with wide characters still line up.
type table struct {
	header []string
	rows   [][]string
	// maxWidth truncates cells wider than this; zero disables truncation.
	maxWidth int
}

func (t *table) add(cells ...string) {
	t.rows = append(t.rows, cells)
}

func (t *table) cell(s string) string {
	if t.maxWidth > 0 && runewidth.StringWidth(s) > t.maxWidth {
		return runewidth.Truncate(s, t.maxWidth, "…")
	}
	return s
}

func (t *table) render(w io.Writer) error {
	widths := make([]int, len(t.header))
	all := append([][]string{t.header}, t.rows...)
	for _, row := range all {
		for i, c := range row {
			if i < len(widths) {
				widths[i] = max(widths[i], runewidth.StringWidth(t.cell(c)))
			}
		}
	}

	var b strings.Builder
	for _, row := range all {
		for i, c := range row {
			if i >= len(widths) {
				break
			}
			c = t.cell(c)
			if i == len(row)-1 {
				b.WriteString(c)
				break
			}
			b.WriteString(runewidth.FillRight(c, widths[i]))
			b.WriteString("  ")
		}
		b.WriteByte('\n')
	}
	_, err := io.WriteString(w, b.String())
	return err
}
