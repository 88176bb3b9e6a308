package stats

import (
	"fmt"
	"io"
	"strings"
	"text/template"

	"dategen/internal/model"
)

type Report struct {
	Title          string
	GeneratedAtUTC string
	Runs           []ReportRun
}

type ReportRun struct {
	RunID         string
	Label         string
	LocalSearch   bool
	State         string
	Generations   int
	FinalCoverage float64
	PlotFile      string
	Cases         []model.CaseRecord
}

func (r ReportRun) Mode() string {
	if r.LocalSearch {
		return "local search"
	}
	return "baseline"
}

var reportTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"pct":        func(v float64) string { return fmt.Sprintf("%.2f%%", v) },
	"categories": func(c []string) string { return strings.Join(c, categorySeparator+" ") },
	"cell":       func(s string) string { return strings.ReplaceAll(s, "|", `\|`) },
}).Parse(`# {{.Title}}
{{if .GeneratedAtUTC}}
Generated {{.GeneratedAtUTC}}.
{{end}}
## Coverage

| Instance | Mode | State | Generations | Coverage |
|---|---|---|---|---|
{{range .Runs}}| {{cell .Label}} | {{.Mode}} | {{.State}} | {{.Generations}} | {{pct .FinalCoverage}} |
{{end}}{{range .Runs}}
## {{.Label}} ({{.Mode}})

Run ` + "`{{.RunID}}`" + ` finished {{.State}} after {{.Generations}} generations at {{pct .FinalCoverage}} coverage.
{{if .PlotFile}}
![coverage]({{.PlotFile}})
{{end}}{{if .Cases}}
| Date | Format | Validity | Categories |
|---|---|---|---|
{{range .Cases}}| {{.Date}} | {{.Format}} | {{.Validity}} | {{cell (categories .Categories)}} |
{{end}}{{else}}
No cases harvested.
{{end}}{{end}}`))

// WriteReport renders a Markdown summary of a suite.
func WriteReport(w io.Writer, report Report) error {
	if report.Title == "" {
		report.Title = "Date test generation report"
	}
	return reportTemplate.Execute(w, report)
}
