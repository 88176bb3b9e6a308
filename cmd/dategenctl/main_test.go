package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"dategen/internal/model"
)

func runCLI(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	base := []string{"--store", "memory", "--artifacts-dir", filepath.Join(dir, "artifacts"), "--exports-dir", filepath.Join(dir, "exports"), "--log-level", "error"}
	err := run(context.Background(), append(append([]string{}, args[:1]...), append(base, args[1:]...)...), &stdout, &stderr)
	return stdout.String(), err
}

func TestRunRunsCasesAndExport(t *testing.T) {
	dir := t.TempDir()

	out, err := runCLI(t, dir, "run", "--instance", "instance1", "--population", "10", "--generations", "3", "--seed", "9", "--plots=false")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out, "instance=instance1") {
		t.Fatalf("unexpected run output: %s", out)
	}

	out, err = runCLI(t, dir, "runs")
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	if !strings.Contains(out, "instance1") || !strings.Contains(out, "RUN ID") {
		t.Fatalf("unexpected runs output: %s", out)
	}

	out, err = runCLI(t, dir, "cases", "--latest", "--format", "json")
	if err != nil {
		t.Fatalf("cases: %v", err)
	}
	var cases []model.CaseRecord
	if err := json.Unmarshal([]byte(out), &cases); err != nil {
		t.Fatalf("decode cases: %v\n%s", err, out)
	}
	if len(cases) != 11 {
		t.Fatalf("expected 11 harvested cases, got %d", len(cases))
	}

	out, err = runCLI(t, dir, "cases", "--latest")
	if err != nil {
		t.Fatalf("cases csv: %v", err)
	}
	if !strings.HasPrefix(out, "Instance,Date,Format,Validity,Categories") {
		t.Fatalf("unexpected csv output: %s", out)
	}

	csvPath := filepath.Join(dir, "cases.csv")
	out, err = runCLI(t, dir, "export", "--latest", "--csv", csvPath)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if !strings.Contains(out, "exported run_id=") {
		t.Fatalf("unexpected export output: %s", out)
	}
	if _, err := os.Stat(csvPath); err != nil {
		t.Fatalf("expected csv export: %v", err)
	}
}

func TestSuiteFromConfigWritesMetrics(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "suite.yaml")
	config := `seed: 3
workers: 2
report: true
runs:
  - instance: instance3
    population: 8
    generations: 2
  - instance: instance3
    local_search: true
    population: 8
    generations: 2
`
	if err := os.WriteFile(configPath, []byte(config), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	metricsPath := filepath.Join(dir, "dategen.prom")

	out, err := runCLI(t, dir, "suite", "--config", configPath, "--metrics-out", metricsPath, "--plots=false")
	if err != nil {
		t.Fatalf("suite: %v", err)
	}
	if strings.Count(out, "Instance: Instance 3") != 2 {
		t.Fatalf("expected two suite lines: %s", out)
	}
	if !strings.Contains(out, "report: ") {
		t.Fatalf("expected report path: %s", out)
	}
	data, err := os.ReadFile(metricsPath)
	if err != nil {
		t.Fatalf("read metrics: %v", err)
	}
	if !strings.Contains(string(data), "dategen_runs_total") {
		t.Fatalf("expected run counter in metrics:\n%s", data)
	}

	out, err = runCLI(t, dir, "compare")
	if err != nil {
		t.Fatalf("compare: %v", err)
	}
	if !strings.Contains(out, "Instance 3") {
		t.Fatalf("unexpected compare output: %s", out)
	}
}

func TestInstancesCommand(t *testing.T) {
	out, err := runCLI(t, t.TempDir(), "instances")
	if err != nil {
		t.Fatalf("instances: %v", err)
	}
	for _, name := range []string{"original", "instance1", "instance2", "instance3", "instance4"} {
		if !strings.Contains(out, name+" (") {
			t.Fatalf("missing %s in:\n%s", name, out)
		}
	}
}

func TestCommandErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := runCLI(t, dir, "run", "--instance", "nope", "--plots=false"); err == nil {
		t.Fatal("expected unknown instance error")
	}
	if _, err := runCLI(t, dir, "run", "--mutation-rate", "1.5", "--plots=false"); err == nil {
		t.Fatal("expected mutation rate error")
	}
	if _, err := runCLI(t, dir, "cases"); err == nil {
		t.Fatal("expected missing run id error")
	}
	if _, err := runCLI(t, dir, "instances", "--log-format", "xml"); err == nil {
		t.Fatal("expected log format error")
	}
	if err := run(context.Background(), []string{"bogus"}, &bytes.Buffer{}, &bytes.Buffer{}); err == nil {
		t.Fatal("expected unknown command error")
	}
}
