package dategen

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dategen/internal/stats"
)

func newTestClient(t *testing.T) (*Client, string) {
	t.Helper()
	base := t.TempDir()
	client, err := New(Options{
		StoreKind:    "memory",
		ArtifactsDir: filepath.Join(base, "artifacts"),
		ExportsDir:   filepath.Join(base, "exports"),
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = client.Close()
	})
	return client, base
}

func TestClientRunCasesAndExport(t *testing.T) {
	client, base := newTestClient(t)
	ctx := context.Background()

	summary, err := client.Run(ctx, RunRequest{Instance: "instance1", Population: 10, Generations: 3, Seed: 42})
	require.NoError(t, err)
	assert.Equal(t, "instance1", summary.Instance)
	assert.Equal(t, "Instance 1", summary.Label)
	assert.NotEmpty(t, summary.RunID)
	assert.Len(t, summary.CoverageTrace, summary.Generations)
	assert.Len(t, summary.Cases, 11)

	runs, err := client.Runs(ctx, RunsRequest{})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, summary.RunID, runs[0].RunID)

	cases, err := client.Cases(ctx, CasesRequest{Latest: true})
	require.NoError(t, err)
	assert.Equal(t, summary.Cases, cases)

	history, err := client.CoverageHistory(ctx, CoverageHistoryRequest{RunID: summary.RunID})
	require.NoError(t, err)
	assert.Equal(t, summary.CoverageTrace, history)

	csvPath := filepath.Join(base, "out", "cases.csv")
	xlsxPath := filepath.Join(base, "out", "cases.xlsx")
	exported, err := client.Export(ctx, ExportRequest{Latest: true, CSVPath: csvPath, XLSXPath: xlsxPath})
	require.NoError(t, err)
	assert.Equal(t, summary.RunID, exported.RunID)
	for _, path := range []string{filepath.Join(exported.Directory, "config.json"), csvPath, xlsxPath} {
		_, err := os.Stat(path)
		assert.NoError(t, err, path)
	}
}

func TestClientDefaultsToOriginal(t *testing.T) {
	client, _ := newTestClient(t)
	summary, err := client.Run(context.Background(), RunRequest{Population: 8, Generations: 2, Seed: 1})
	require.NoError(t, err)
	assert.Equal(t, "original", summary.Instance)
}

func TestClientCasesFallBackToArtifacts(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()
	summary, err := client.Run(ctx, RunRequest{Instance: "instance3", Population: 8, Generations: 2, Seed: 3})
	require.NoError(t, err)

	// A second client over the same artifacts sees the run through its files.
	other, err := New(Options{StoreKind: "memory", ArtifactsDir: client.artifactsDir})
	require.NoError(t, err)
	cases, err := other.Cases(ctx, CasesRequest{RunID: summary.RunID})
	require.NoError(t, err)
	assert.Len(t, cases, len(summary.Cases))

	_, err = other.Cases(ctx, CasesRequest{RunID: "missing"})
	require.Error(t, err)
}

func TestClientSuite(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()
	summary, err := client.Suite(ctx, SuiteRequest{
		Jobs: []RunRequest{
			{Instance: "instance2", Population: 10, Generations: 3, Seed: 5},
			{Instance: "instance2", LocalSearch: true, Population: 10, Generations: 3, Seed: 6},
		},
		Workers: 2,
		Report:  true,
	})
	require.NoError(t, err)
	require.Len(t, summary.Runs, 2)
	assert.False(t, summary.Runs[0].LocalSearch)
	assert.True(t, summary.Runs[1].LocalSearch)
	require.Len(t, summary.Comparison, 1)
	assert.Contains(t, summary.Table, "Instance 2")
	_, err = os.Stat(summary.ReportPath)
	assert.NoError(t, err)

	rows, table, err := client.Compare(ctx)
	require.NoError(t, err)
	assert.Equal(t, summary.Comparison, rows)
	assert.Equal(t, stats.RenderComparison(rows), table)

	filtered, err := client.Runs(ctx, RunsRequest{Instance: "INSTANCE2", Limit: 1})
	require.NoError(t, err)
	assert.Len(t, filtered, 1)
}

func TestClientRunIDSelection(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	_, err := client.Cases(ctx, CasesRequest{RunID: "x", Latest: true})
	require.Error(t, err)
	_, err = client.Export(ctx, ExportRequest{})
	require.Error(t, err)
	_, err = client.CoverageHistory(ctx, CoverageHistoryRequest{Latest: true})
	require.Error(t, err)
}

func TestClientInstances(t *testing.T) {
	client, _ := newTestClient(t)
	items, err := client.Instances()
	require.NoError(t, err)
	require.Len(t, items, 5)
	assert.Equal(t, "instance1", items[0].Name)
	assert.Equal(t, "original", items[4].Name)
	assert.Len(t, items[4].Categories, 8)
	assert.True(t, items[3].Formatted)
	assert.Equal(t, 50, items[4].Defaults.PopulationSize)
}

func TestNewRejectsUnknownStore(t *testing.T) {
	_, err := New(Options{StoreKind: "nope"})
	require.Error(t, err)
}

func TestClientRunZeroLocalSearchIterations(t *testing.T) {
	client, _ := newTestClient(t)
	zero := 0
	summary, err := client.Run(context.Background(), RunRequest{
		Instance:              "instance1",
		LocalSearch:           true,
		LocalSearchIterations: &zero,
		Population:            10,
		Generations:           3,
		Seed:                  8,
	})
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(summary.CoverageTrace), 2)
	n := len(summary.CoverageTrace)
	assert.Equal(t, summary.CoverageTrace[n-2], summary.CoverageTrace[n-1])
}
