package export

import (
	"io"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/xen0bit/dashchart/pkg/chart"
	"github.com/xen0bit/dashchart/pkg/render/common"
)

// MaxCellWidth caps the display width of a text table column.
const MaxCellWidth = 40

// WriteTable prints res as an aligned text table. Widths are measured in
// terminal cells so wide characters line up.
func WriteTable(w io.Writer, res *chart.QueryResult) error {
	columns := res.ColumnNames()
	if len(columns) == 0 {
		_, err := io.WriteString(w, "(no rows)\n")
		return err
	}

	cells := make([][]string, 0, len(res.Rows)+1)
	cells = append(cells, columns)
	for _, row := range res.Rows {
		line := make([]string, len(columns))
		for i, col := range columns {
			v, _ := row.Get(col)
			line[i] = cellText(common.FormatValue(v))
		}
		cells = append(cells, line)
	}

	widths := make([]int, len(columns))
	for _, line := range cells {
		for i, c := range line {
			widths[i] = max(widths[i], runewidth.StringWidth(c))
		}
	}

	var b strings.Builder
	for n, line := range cells {
		writeLine(&b, line, widths)
		if n == 0 {
			sep := make([]string, len(widths))
			for i, wd := range widths {
				sep[i] = strings.Repeat("-", wd)
			}
			writeLine(&b, sep, widths)
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func writeLine(b *strings.Builder, line []string, widths []int) {
	for i, c := range line {
		if i > 0 {
			b.WriteString("  ")
		}
		if i == len(line)-1 {
			b.WriteString(c)
			continue
		}
		b.WriteString(runewidth.FillRight(c, widths[i]))
	}
	b.WriteByte('\n')
}

func cellText(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if runewidth.StringWidth(s) > MaxCellWidth {
		s = runewidth.Truncate(s, MaxCellWidth, "...")
	}
	return s
}

// Summary is the one-line text form of an artifact that has no table.
func Summary(art *chart.Artifact) string {
	switch art.Kind {
	case chart.KindMarkup:
		if art.Text != "" {
			return art.Text
		}
		return runewidth.Truncate(art.Markup, 2*MaxCellWidth, "...")
	case chart.KindMap:
		if art.Map == nil {
			return "map"
		}
		return "map: " + pluralize(len(art.Map.Markers), "marker")
	default:
		return string(art.Library) + " spec"
	}
}

func pluralize(n int, word string) string {
	s := strconv.Itoa(n) + " " + word
	if n != 1 {
		s += "s"
	}
	return s
}
