package stats

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"dategen/internal/model"
)

const runIndexFile = "run_index.json"

const (
	configFile          = "config.json"
	coverageHistoryFile = "coverage_history.json"
	diagnosticsFile     = "generation_diagnostics.json"
	casesFile           = "cases.json"
	populationFile      = "final_population.json"
	coverageSeriesFile  = "coverage_series.csv"
	casesCSVFile        = "cases.csv"
	casesXLSXFile       = "cases.xlsx"
)

type RunConfig struct {
	RunID                 string  `json:"run_id"`
	Instance              string  `json:"instance"`
	Label                 string  `json:"label,omitempty"`
	PopulationSize        int     `json:"population_size"`
	Generations           int     `json:"generations"`
	MutationRate          float64 `json:"mutation_rate"`
	LocalSearch           bool    `json:"local_search"`
	LocalSearchIterations int     `json:"local_search_iterations,omitempty"`
	ForceFullGenerations  bool    `json:"force_full_generations"`
	ConvergenceThreshold  float64 `json:"convergence_threshold"`
	ValidMin              int     `json:"valid_min"`
	InvalidMin            int     `json:"invalid_min"`
	BoundaryMin           int     `json:"boundary_min"`
	Seed                  int64   `json:"seed"`
}

type RunArtifacts struct {
	Config                RunConfig                     `json:"config"`
	CoverageHistory       []float64                     `json:"coverage_history"`
	GenerationDiagnostics []model.GenerationDiagnostics `json:"generation_diagnostics,omitempty"`
	FinalCoverage         float64                       `json:"final_coverage"`
	State                 string                        `json:"state"`
	Cases                 []model.CaseRecord            `json:"cases"`
	FinalPopulation       []model.CaseRecord            `json:"final_population"`
}

type RunIndexEntry struct {
	RunID          string  `json:"run_id"`
	Instance       string  `json:"instance"`
	Label          string  `json:"label,omitempty"`
	LocalSearch    bool    `json:"local_search"`
	PopulationSize int     `json:"population_size"`
	Generations    int     `json:"generations"`
	Executed       int     `json:"generations_executed"`
	Seed           int64   `json:"seed"`
	State          string  `json:"state"`
	FinalCoverage  float64 `json:"final_coverage"`
	CreatedAtUTC   string  `json:"created_at_utc"`
}

type coverageHistory struct {
	CoverageByGeneration []float64 `json:"coverage_by_generation"`
	FinalCoverage        float64   `json:"final_coverage"`
	State                string    `json:"state"`
}

// WriteRunArtifacts lays out one run under baseDir/<run id> and returns the
// run directory.
func WriteRunArtifacts(baseDir string, artifacts RunArtifacts) (string, error) {
	if artifacts.Config.RunID == "" {
		return "", fmt.Errorf("run id is required")
	}

	runDir := filepath.Join(baseDir, artifacts.Config.RunID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return "", err
	}

	if err := writeJSON(filepath.Join(runDir, configFile), artifacts.Config); err != nil {
		return "", err
	}
	history := coverageHistory{
		CoverageByGeneration: artifacts.CoverageHistory,
		FinalCoverage:        artifacts.FinalCoverage,
		State:                artifacts.State,
	}
	if err := writeJSON(filepath.Join(runDir, coverageHistoryFile), history); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, diagnosticsFile), artifacts.GenerationDiagnostics); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, casesFile), nonNilCases(artifacts.Cases)); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, populationFile), nonNilCases(artifacts.FinalPopulation)); err != nil {
		return "", err
	}
	if err := WriteCoverageSeries(runDir, artifacts.CoverageHistory); err != nil {
		return "", err
	}
	if err := writeCasesCSVFile(filepath.Join(runDir, casesCSVFile), artifacts.Cases); err != nil {
		return "", err
	}

	return runDir, nil
}

func AppendRunIndex(baseDir string, entry RunIndexEntry) error {
	if entry.RunID == "" {
		return fmt.Errorf("run id is required")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return err
	}

	index, err := ListRunIndex(baseDir)
	if err != nil {
		return err
	}

	for i := range index {
		if index[i].RunID == entry.RunID {
			index[i] = entry
			return writeJSON(filepath.Join(baseDir, runIndexFile), index)
		}
	}

	index = append(index, entry)
	return writeJSON(filepath.Join(baseDir, runIndexFile), index)
}

// ListRunIndex returns indexed runs newest first.
func ListRunIndex(baseDir string) ([]RunIndexEntry, error) {
	data, err := os.ReadFile(filepath.Join(baseDir, runIndexFile))
	if err != nil {
		if os.IsNotExist(err) {
			return []RunIndexEntry{}, nil
		}
		return nil, err
	}

	var entries []RunIndexEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}

	type indexedEntry struct {
		entry RunIndexEntry
		idx   int
	}
	indexed := make([]indexedEntry, len(entries))
	for i := range entries {
		indexed[i] = indexedEntry{entry: entries[i], idx: i}
	}
	sort.Slice(indexed, func(i, j int) bool {
		if indexed[i].entry.CreatedAtUTC == indexed[j].entry.CreatedAtUTC {
			// Later appends win ties.
			return indexed[i].idx > indexed[j].idx
		}
		return indexed[i].entry.CreatedAtUTC > indexed[j].entry.CreatedAtUTC
	})

	sorted := make([]RunIndexEntry, 0, len(indexed))
	for _, item := range indexed {
		sorted = append(sorted, item.entry)
	}
	return sorted, nil
}

// ExportRunArtifacts copies a run directory into outDir. Plots and
// spreadsheets are copied when present.
func ExportRunArtifacts(baseDir, runID, outDir string) (string, error) {
	if runID == "" {
		return "", fmt.Errorf("run id is required")
	}

	src := filepath.Join(baseDir, runID)
	if _, err := os.Stat(src); err != nil {
		return "", err
	}

	dst := filepath.Join(outDir, runID)
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return "", err
	}

	required := []string{configFile, coverageHistoryFile, diagnosticsFile, casesFile, populationFile, coverageSeriesFile}
	for _, file := range required {
		if err := copyFile(filepath.Join(src, file), filepath.Join(dst, file)); err != nil {
			return "", err
		}
	}

	optional := []string{casesCSVFile, casesXLSXFile}
	plots, err := filepath.Glob(filepath.Join(src, "*.png"))
	if err != nil {
		return "", err
	}
	for _, plot := range plots {
		optional = append(optional, filepath.Base(plot))
	}
	for _, file := range optional {
		err := copyFile(filepath.Join(src, file), filepath.Join(dst, file))
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return "", err
		}
	}

	return dst, nil
}

func ReadRunConfig(baseDir, runID string) (RunConfig, bool, error) {
	var cfg RunConfig
	ok, err := readJSON(filepath.Join(baseDir, runID, configFile), &cfg)
	if err != nil || !ok {
		return RunConfig{}, ok, err
	}
	return cfg, true, nil
}

func ReadCoverageHistory(baseDir, runID string) ([]float64, bool, error) {
	var history coverageHistory
	ok, err := readJSON(filepath.Join(baseDir, runID, coverageHistoryFile), &history)
	if err != nil || !ok {
		return nil, ok, err
	}
	return history.CoverageByGeneration, true, nil
}

func ReadCases(baseDir, runID string) ([]model.CaseRecord, bool, error) {
	var cases []model.CaseRecord
	ok, err := readJSON(filepath.Join(baseDir, runID, casesFile), &cases)
	if err != nil || !ok {
		return nil, ok, err
	}
	return cases, true, nil
}

func WriteCoverageSeries(runDir string, coverage []float64) error {
	file, err := os.Create(filepath.Join(runDir, coverageSeriesFile))
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write([]string{"generation", "coverage_percent"}); err != nil {
		return err
	}
	for i, value := range coverage {
		if err := writer.Write([]string{
			strconv.Itoa(i + 1),
			strconv.FormatFloat(value, 'f', -1, 64),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func ReadCoverageSeries(baseDir, runID string) ([]float64, bool, error) {
	file, err := os.Open(filepath.Join(baseDir, runID, coverageSeriesFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return []float64{}, true, nil
		}
		return nil, false, err
	}
	if len(header) < 2 {
		return nil, false, fmt.Errorf("coverage series header must have at least 2 columns")
	}

	series := make([]float64, 0, 128)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, false, err
		}
		if len(record) < 2 {
			return nil, false, fmt.Errorf("coverage series row must have at least 2 columns")
		}
		value, err := strconv.ParseFloat(strings.TrimSpace(record[1]), 64)
		if err != nil {
			return nil, false, err
		}
		series = append(series, value)
	}
	return series, true, nil
}

func readJSON(path string, out any) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, err
	}
	return true, nil
}

func writeJSON(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}

func nonNilCases(cases []model.CaseRecord) []model.CaseRecord {
	if cases == nil {
		return []model.CaseRecord{}
	}
	return cases
}
