package platform

import (
	"context"
	"os"
	"strings"
	"testing"
)

func TestComparisonAndSuiteReport(t *testing.T) {
	dir := t.TempDir()
	p := newTestPolis(t, Config{ArtifactsDir: dir, Plots: true})
	outcomes, err := p.RunSuite(context.Background(), []Job{
		smallJob("instance3", false, 7),
		smallJob("instance3", true, 8),
	}, 2)
	if err != nil {
		t.Fatalf("suite: %v", err)
	}

	rows := Comparison(outcomes)
	if len(rows) != 1 || !rows[0].HasBaseline || !rows[0].HasLocalSearch {
		t.Fatalf("unexpected comparison: %+v", rows)
	}
	if rows[0].LocalSearch != outcomes[1].Record.FinalCoverage {
		t.Fatalf("local search coverage %f != %f", rows[0].LocalSearch, outcomes[1].Record.FinalCoverage)
	}

	path, err := p.WriteSuiteReport(outcomes)
	if err != nil {
		t.Fatalf("write report: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	report := string(data)
	if !strings.Contains(report, "## Instance 3 (local search)") {
		t.Fatalf("report missing local search section:\n%s", report)
	}
	if !strings.Contains(report, outcomes[0].Record.ID+"/coverage_plot_instance_3_baseline.png") {
		t.Fatalf("report missing plot link:\n%s", report)
	}
}

func TestWriteSuiteReportRequiresArtifactsDir(t *testing.T) {
	if _, err := newTestPolis(t, Config{}).WriteSuiteReport(nil); err == nil {
		t.Fatal("expected missing artifacts dir error")
	}
}
