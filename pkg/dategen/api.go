package dategen

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"dategen/internal/evo"
	"dategen/internal/harvest"
	"dategen/internal/instance"
	"dategen/internal/model"
	"dategen/internal/platform"
	"dategen/internal/stats"
	"dategen/internal/storage"
)

const (
	defaultArtifactsDir = "artifacts"
	defaultExportsDir   = "exports"
	defaultSQLitePath   = "dategen.db"
	defaultBadgerPath   = "dategen.badger"
	defaultRunsLimit    = 20
)

type Options struct {
	StoreKind    string
	DBPath       string
	ArtifactsDir string
	ExportsDir   string
	Plots        bool
	Spreadsheets bool
	Observer     evo.Observer
	Logger       *slog.Logger
}

type Client struct {
	store storage.Store
	polis *platform.Polis

	artifactsDir string
	exportsDir   string
	plots        bool
	spreadsheets bool
	observer     evo.Observer
	logger       *slog.Logger
}

type Quota struct {
	Valid    int
	Invalid  int
	Boundary int
}

// RunRequest overrides an instance's defaults. Zero values and nil pointers
// keep them.
type RunRequest struct {
	Instance              string
	LocalSearch           bool
	LocalSearchIterations *int
	Population            int
	Generations           int
	MutationRate          *float64
	ForceFullGenerations  *bool
	ConvergenceThreshold  float64
	Quota                 *Quota
	Seed                  int64
}

type RunSummary struct {
	RunID         string
	Instance      string
	Label         string
	LocalSearch   bool
	State         string
	Generations   int
	CoverageTrace []float64
	FinalCoverage float64
	Cases         []model.CaseRecord
	Shortfall     int
	ArtifactsDir  string
	PlotPath      string
}

type SuiteRequest struct {
	// Jobs defaults to every instance with and without local search.
	Jobs    []RunRequest
	Seed    int64
	Workers int
	Report  bool
}

type SuiteSummary struct {
	Runs       []RunSummary
	Comparison []stats.ComparisonRow
	Table      string
	ReportPath string
}

type RunsRequest struct {
	Limit    int
	Instance string
}

type RunItem struct {
	RunID         string
	CreatedAtUTC  string
	Instance      string
	Label         string
	LocalSearch   bool
	Seed          int64
	Population    int
	Generations   int
	Executed      int
	State         string
	FinalCoverage float64
}

type CasesRequest struct {
	RunID  string
	Latest bool
}

type CoverageHistoryRequest struct {
	RunID  string
	Latest bool
}

type ExportRequest struct {
	RunID  string
	Latest bool
	OutDir string
	// CSVPath additionally writes the run's cases as CSV.
	CSVPath string
	// XLSXPath additionally writes the run's cases as a spreadsheet.
	XLSXPath string
}

type ExportSummary struct {
	RunID     string
	Directory string
}

type InstanceItem struct {
	Name        string
	Label       string
	Description string
	Formatted   bool
	Categories  []string
	Defaults    instance.Params
}

func New(opts Options) (*Client, error) {
	storeKind := opts.StoreKind
	if storeKind == "" {
		storeKind = storage.DefaultStoreKind()
	}
	dbPath := opts.DBPath
	if dbPath == "" {
		switch storeKind {
		case "sqlite":
			dbPath = defaultSQLitePath
		case "badger":
			dbPath = defaultBadgerPath
		}
	}
	artifactsDir := opts.ArtifactsDir
	if artifactsDir == "" {
		artifactsDir = defaultArtifactsDir
	}
	exportsDir := opts.ExportsDir
	if exportsDir == "" {
		exportsDir = defaultExportsDir
	}

	store, err := storage.NewStore(storeKind, dbPath)
	if err != nil {
		return nil, err
	}

	return &Client{
		store:        store,
		artifactsDir: artifactsDir,
		exportsDir:   exportsDir,
		plots:        opts.Plots,
		spreadsheets: opts.Spreadsheets,
		observer:     opts.Observer,
		logger:       opts.Logger,
	}, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

func (c *Client) Init(ctx context.Context) error {
	_, err := c.ensurePolis(ctx)
	return err
}

func (c *Client) Run(ctx context.Context, req RunRequest) (RunSummary, error) {
	if strings.TrimSpace(req.Instance) == "" {
		req.Instance = "original"
	}
	p, err := c.ensurePolis(ctx)
	if err != nil {
		return RunSummary{}, err
	}
	outcome, err := p.RunInstance(ctx, toJob(req))
	if err != nil {
		return RunSummary{}, err
	}
	return toSummary(outcome), nil
}

func (c *Client) Suite(ctx context.Context, req SuiteRequest) (SuiteSummary, error) {
	p, err := c.ensurePolis(ctx)
	if err != nil {
		return SuiteSummary{}, err
	}

	var jobs []platform.Job
	if len(req.Jobs) == 0 {
		jobs = platform.DefaultSuite(req.Seed)
	} else {
		jobs = make([]platform.Job, 0, len(req.Jobs))
		for _, job := range req.Jobs {
			jobs = append(jobs, toJob(job))
		}
	}

	outcomes, err := p.RunSuite(ctx, jobs, req.Workers)
	if err != nil {
		return SuiteSummary{}, err
	}

	summary := SuiteSummary{
		Runs:       make([]RunSummary, 0, len(outcomes)),
		Comparison: platform.Comparison(outcomes),
	}
	for _, outcome := range outcomes {
		summary.Runs = append(summary.Runs, toSummary(outcome))
	}
	summary.Table = stats.RenderComparison(summary.Comparison)
	if req.Report {
		path, err := p.WriteSuiteReport(outcomes)
		if err != nil {
			return SuiteSummary{}, err
		}
		summary.ReportPath = path
	}
	return summary, nil
}

// Runs lists indexed runs newest first.
func (c *Client) Runs(_ context.Context, req RunsRequest) ([]RunItem, error) {
	if req.Limit <= 0 {
		req.Limit = defaultRunsLimit
	}

	entries, err := stats.ListRunIndex(c.artifactsDir)
	if err != nil {
		return nil, err
	}

	out := make([]RunItem, 0, min(len(entries), req.Limit))
	for _, e := range entries {
		if len(out) == req.Limit {
			break
		}
		if req.Instance != "" && !strings.EqualFold(e.Instance, req.Instance) {
			continue
		}
		out = append(out, RunItem{
			RunID:         e.RunID,
			CreatedAtUTC:  e.CreatedAtUTC,
			Instance:      e.Instance,
			Label:         e.Label,
			LocalSearch:   e.LocalSearch,
			Seed:          e.Seed,
			Population:    e.PopulationSize,
			Generations:   e.Generations,
			Executed:      e.Executed,
			State:         e.State,
			FinalCoverage: e.FinalCoverage,
		})
	}
	return out, nil
}

// Compare renders the newest baseline and local search coverage per
// instance from the run index.
func (c *Client) Compare(_ context.Context) ([]stats.ComparisonRow, string, error) {
	entries, err := stats.ListRunIndex(c.artifactsDir)
	if err != nil {
		return nil, "", err
	}
	rows := stats.BuildComparison(entries)
	return rows, stats.RenderComparison(rows), nil
}

// Cases reads harvested cases from the store, falling back to the run's
// artifacts when the store does not hold the run.
func (c *Client) Cases(ctx context.Context, req CasesRequest) ([]model.CaseRecord, error) {
	runID, err := c.resolveRunID(req.RunID, req.Latest, "cases")
	if err != nil {
		return nil, err
	}
	if _, err := c.ensurePolis(ctx); err != nil {
		return nil, err
	}
	cases, ok, err := c.store.GetCases(ctx, runID)
	if err != nil {
		return nil, err
	}
	if ok {
		return cases, nil
	}
	cases, ok, err = stats.ReadCases(c.artifactsDir, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("cases not found for run id: %s", runID)
	}
	return cases, nil
}

func (c *Client) CoverageHistory(ctx context.Context, req CoverageHistoryRequest) ([]float64, error) {
	runID, err := c.resolveRunID(req.RunID, req.Latest, "coverage history")
	if err != nil {
		return nil, err
	}
	if _, err := c.ensurePolis(ctx); err != nil {
		return nil, err
	}
	history, ok, err := c.store.GetCoverageHistory(ctx, runID)
	if err != nil {
		return nil, err
	}
	if ok {
		return history, nil
	}
	history, ok, err = stats.ReadCoverageHistory(c.artifactsDir, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("coverage history not found for run id: %s", runID)
	}
	return history, nil
}

func (c *Client) Export(ctx context.Context, req ExportRequest) (ExportSummary, error) {
	runID, err := c.resolveRunID(req.RunID, req.Latest, "export")
	if err != nil {
		return ExportSummary{}, err
	}
	if req.OutDir == "" {
		req.OutDir = c.exportsDir
	}

	exportedDir, err := stats.ExportRunArtifacts(c.artifactsDir, runID, req.OutDir)
	if err != nil {
		return ExportSummary{}, err
	}
	if req.CSVPath != "" || req.XLSXPath != "" {
		cases, err := c.Cases(ctx, CasesRequest{RunID: runID})
		if err != nil {
			return ExportSummary{}, err
		}
		if req.CSVPath != "" {
			if err := writeCasesCSV(req.CSVPath, cases); err != nil {
				return ExportSummary{}, err
			}
		}
		if req.XLSXPath != "" {
			if err := stats.WriteCasesXLSX(req.XLSXPath, cases); err != nil {
				return ExportSummary{}, err
			}
		}
	}
	return ExportSummary{RunID: runID, Directory: filepath.Clean(exportedDir)}, nil
}

func (c *Client) Instances() ([]InstanceItem, error) {
	names := instance.Names()
	out := make([]InstanceItem, 0, len(names))
	for _, name := range names {
		inst, err := instance.Resolve(name)
		if err != nil {
			return nil, err
		}
		out = append(out, InstanceItem{
			Name:        inst.Name,
			Label:       inst.Label,
			Description: inst.Description,
			Formatted:   inst.Formatted,
			Categories:  inst.Rules.Names(),
			Defaults:    inst.Defaults,
		})
	}
	return out, nil
}

func (c *Client) resolveRunID(runID string, latest bool, op string) (string, error) {
	if runID != "" && latest {
		return "", errors.New("use either run id or latest")
	}
	if latest {
		entries, err := stats.ListRunIndex(c.artifactsDir)
		if err != nil {
			return "", err
		}
		if len(entries) == 0 {
			return "", errors.New("no runs available")
		}
		return entries[0].RunID, nil
	}
	if runID == "" {
		return "", fmt.Errorf("%s requires run id or latest", op)
	}
	return runID, nil
}

func (c *Client) ensurePolis(ctx context.Context) (*platform.Polis, error) {
	if c.polis != nil {
		return c.polis, nil
	}
	p := platform.NewPolis(platform.Config{
		Store:        c.store,
		ArtifactsDir: c.artifactsDir,
		Plots:        c.plots,
		Spreadsheets: c.spreadsheets,
		Observer:     c.observer,
		Logger:       c.logger,
		Now:          time.Now,
	})
	if err := p.Init(ctx); err != nil {
		return nil, err
	}
	c.polis = p
	return c.polis, nil
}

func toJob(req RunRequest) platform.Job {
	job := platform.Job{
		Instance:              req.Instance,
		LocalSearch:           req.LocalSearch,
		LocalSearchIterations: req.LocalSearchIterations,
		PopulationSize:        req.Population,
		Generations:           req.Generations,
		MutationRate:          req.MutationRate,
		ForceFullGenerations:  req.ForceFullGenerations,
		ConvergenceThreshold:  req.ConvergenceThreshold,
		Seed:                  req.Seed,
	}
	if req.Quota != nil {
		job.Quota = &harvest.Quota{Valid: req.Quota.Valid, Invalid: req.Quota.Invalid, Boundary: req.Quota.Boundary}
	}
	return job
}

func toSummary(outcome platform.RunOutcome) RunSummary {
	return RunSummary{
		RunID:         outcome.Record.ID,
		Instance:      outcome.Record.Instance,
		Label:         outcome.Record.Label,
		LocalSearch:   outcome.Record.LocalSearch,
		State:         outcome.Record.State,
		Generations:   outcome.Record.GenerationsExecuted,
		CoverageTrace: append([]float64(nil), outcome.Result.CoverageTrace...),
		FinalCoverage: outcome.Record.FinalCoverage,
		Cases:         outcome.Cases,
		Shortfall:     outcome.Harvest.Shortfall.Total(),
		ArtifactsDir:  outcome.RunDir,
		PlotPath:      outcome.PlotPath,
	}
}
