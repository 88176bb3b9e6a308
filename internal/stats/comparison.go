package stats

import (
	"sort"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// ComparisonRow pairs the baseline and local search coverage of one
// instance. A missing side is reported as "-".
type ComparisonRow struct {
	Instance            string
	Baseline            float64
	HasBaseline         bool
	LocalSearch         float64
	HasLocalSearch      bool
	BaselineGenerations int
	LocalGenerations    int
}

func (r ComparisonRow) Delta() (float64, bool) {
	if !r.HasBaseline || !r.HasLocalSearch {
		return 0, false
	}
	return r.LocalSearch - r.Baseline, true
}

// BuildComparison groups index entries by label, keeping the newest entry
// per mode. Entries are expected newest first, as ListRunIndex returns them.
func BuildComparison(entries []RunIndexEntry) []ComparisonRow {
	rows := make(map[string]*ComparisonRow)
	order := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Label
		if name == "" {
			name = entry.Instance
		}
		row, ok := rows[name]
		if !ok {
			row = &ComparisonRow{Instance: name}
			rows[name] = row
			order = append(order, name)
		}
		switch {
		case entry.LocalSearch && !row.HasLocalSearch:
			row.LocalSearch = entry.FinalCoverage
			row.LocalGenerations = entry.Executed
			row.HasLocalSearch = true
		case !entry.LocalSearch && !row.HasBaseline:
			row.Baseline = entry.FinalCoverage
			row.BaselineGenerations = entry.Executed
			row.HasBaseline = true
		}
	}
	sort.Strings(order)

	out := make([]ComparisonRow, 0, len(order))
	for _, name := range order {
		out = append(out, *rows[name])
	}
	return out
}

var (
	comparisonHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")).Padding(0, 1)
	comparisonCellStyle   = lipgloss.NewStyle().Padding(0, 1)
	comparisonGainStyle   = comparisonCellStyle.Foreground(lipgloss.Color("42"))
	comparisonLossStyle   = comparisonCellStyle.Foreground(lipgloss.Color("196"))
)

// RenderComparison renders the baseline versus local search table.
func RenderComparison(rows []ComparisonRow) string {
	deltas := make([]float64, len(rows))
	data := make([][]string, 0, len(rows))
	for i, row := range rows {
		delta, ok := row.Delta()
		deltas[i] = delta
		data = append(data, []string{
			row.Instance,
			percentCell(row.Baseline, row.HasBaseline),
			percentCell(row.LocalSearch, row.HasLocalSearch),
			deltaCell(delta, ok),
		})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("Instance", "Baseline", "Local search", "Delta").
		Rows(data...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return comparisonHeaderStyle
			}
			if col == 3 && row >= 0 && row < len(deltas) {
				switch {
				case deltas[row] > 0:
					return comparisonGainStyle
				case deltas[row] < 0:
					return comparisonLossStyle
				}
			}
			return comparisonCellStyle
		})
	return t.String()
}

func percentCell(value float64, ok bool) string {
	if !ok {
		return "-"
	}
	return strconv.FormatFloat(value, 'f', 2, 64) + "%"
}

func deltaCell(value float64, ok bool) string {
	if !ok {
		return "-"
	}
	sign := ""
	if value > 0 {
		sign = "+"
	}
	return sign + strconv.FormatFloat(value, 'f', 2, 64)
}
