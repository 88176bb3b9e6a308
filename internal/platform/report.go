package platform

import (
	"fmt"
	"os"
	"path/filepath"

	"dategen/internal/stats"
)

// Comparison pairs the baseline and local search outcomes per instance.
func Comparison(outcomes []RunOutcome) []stats.ComparisonRow {
	entries := make([]stats.RunIndexEntry, 0, len(outcomes))
	// BuildComparison keeps the first entry it sees per mode.
	for i := len(outcomes) - 1; i >= 0; i-- {
		record := outcomes[i].Record
		entries = append(entries, stats.RunIndexEntry{
			RunID:         record.ID,
			Instance:      record.Instance,
			Label:         record.Label,
			LocalSearch:   record.LocalSearch,
			Executed:      record.GenerationsExecuted,
			FinalCoverage: record.FinalCoverage,
		})
	}
	return stats.BuildComparison(entries)
}

func SuiteReport(outcomes []RunOutcome, generatedAtUTC string) stats.Report {
	report := stats.Report{GeneratedAtUTC: generatedAtUTC}
	for _, outcome := range outcomes {
		run := stats.ReportRun{
			RunID:         outcome.Record.ID,
			Label:         outcome.Record.Label,
			LocalSearch:   outcome.Record.LocalSearch,
			State:         outcome.Record.State,
			Generations:   outcome.Record.GenerationsExecuted,
			FinalCoverage: outcome.Record.FinalCoverage,
			Cases:         outcome.Cases,
		}
		if outcome.PlotPath != "" {
			run.PlotFile = filepath.ToSlash(filepath.Join(outcome.Record.ID, filepath.Base(outcome.PlotPath)))
		}
		report.Runs = append(report.Runs, run)
	}
	return report
}

// WriteSuiteReport writes report.md into the artifacts directory and
// returns its path.
func (p *Polis) WriteSuiteReport(outcomes []RunOutcome) (string, error) {
	if p.config.ArtifactsDir == "" {
		return "", fmt.Errorf("artifacts dir is required for reports")
	}
	path := filepath.Join(p.config.ArtifactsDir, "report.md")
	file, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	report := SuiteReport(outcomes, p.config.Now().UTC().Format("2006-01-02T15:04:05Z"))
	if err := stats.WriteReport(file, report); err != nil {
		return "", err
	}
	return path, nil
}
