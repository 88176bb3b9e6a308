package platform

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"dategen/internal/candidate"
	"dategen/internal/evo"
	"dategen/internal/harvest"
	"dategen/internal/instance"
	"dategen/internal/logging"
	"dategen/internal/model"
	"dategen/internal/stats"
	"dategen/internal/storage"
)

type Config struct {
	Store storage.Store
	// ArtifactsDir receives per-run artifact directories and the run index.
	// Empty disables artifact output.
	ArtifactsDir string
	// Plots renders a coverage chart into each run directory.
	Plots bool
	// Spreadsheets writes cases.xlsx next to cases.csv.
	Spreadsheets bool
	Observer     evo.Observer
	Logger       *slog.Logger
	Now          func() time.Time
	NewRunID     func() string
}

// Job selects an instance and overrides its defaults. Zero values and nil
// pointers keep the defaults.
type Job struct {
	RunID                 string
	Instance              string
	LocalSearch           bool
	LocalSearchIterations *int
	PopulationSize        int
	Generations           int
	MutationRate          *float64
	ForceFullGenerations  *bool
	ConvergenceThreshold  float64
	Quota                 *harvest.Quota
	Seed                  int64
}

type RunOutcome struct {
	Record   model.RunRecord
	Instance instance.Instance
	Result   evo.RunResult
	Harvest  harvest.Result
	Cases    []model.CaseRecord
	// RunDir and PlotPath are empty when artifacts are disabled.
	RunDir   string
	PlotPath string
}

type Polis struct {
	store  storage.Store
	config Config
	log    *slog.Logger

	mu      sync.RWMutex
	started bool

	// indexMu serializes run index rewrites across concurrent jobs.
	indexMu sync.Mutex
}

func NewPolis(cfg Config) *Polis {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.NewRunID == nil {
		cfg.NewRunID = uuid.NewString
	}
	return &Polis{
		store:  cfg.Store,
		config: cfg,
		log:    logging.OrDiscard(cfg.Logger),
	}
}

func (p *Polis) Init(ctx context.Context) error {
	if p.store == nil {
		return fmt.Errorf("store is required")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return nil
	}
	if err := p.store.Init(ctx); err != nil {
		return err
	}
	if p.config.ArtifactsDir != "" {
		if err := os.MkdirAll(p.config.ArtifactsDir, 0o755); err != nil {
			return fmt.Errorf("create artifacts dir: %w", err)
		}
	}
	p.started = true
	return nil
}

func (p *Polis) Started() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.started
}

func (p *Polis) Store() storage.Store {
	return p.store
}

func (p *Polis) ArtifactsDir() string {
	return p.config.ArtifactsDir
}

// RunInstance evolves one instance, harvests its cases and persists the run.
func (p *Polis) RunInstance(ctx context.Context, job Job) (RunOutcome, error) {
	if !p.Started() {
		return RunOutcome{}, fmt.Errorf("polis is not initialized")
	}
	inst, err := instance.Resolve(job.Instance)
	if err != nil {
		return RunOutcome{}, err
	}

	cfg := p.monitorConfig(inst, job)
	rng := rand.New(rand.NewSource(job.Seed))
	cfg.Rand = rng

	monitor, err := evo.NewPopulationMonitor(cfg)
	if err != nil {
		return RunOutcome{}, fmt.Errorf("instance %s: %w", inst.Name, err)
	}
	result, err := monitor.Run(ctx)
	if err != nil {
		return RunOutcome{}, err
	}

	quota := quotaFor(inst, job)
	harvester := harvest.Harvester{Space: cfg.Space, Formatted: inst.Formatted}
	harvested := harvester.Harvest(rng, result.Population, result.Fitness, quota)
	if shortfall := harvested.Shortfall.Total(); shortfall > 0 {
		p.log.Warn("harvest fell short of quota", "instance", inst.Name, "missing", shortfall)
	}

	runID := job.RunID
	if runID == "" {
		runID = p.config.NewRunID()
	}
	record := model.RunRecord{
		VersionedRecord:      storage.Versioned(),
		ID:                   runID,
		Instance:             inst.Name,
		Label:                inst.Label,
		PopulationSize:       cfg.PopulationSize,
		GenerationBudget:     cfg.Generations,
		GenerationsExecuted:  result.Generations,
		MutationRate:         cfg.MutationRate,
		LocalSearch:          cfg.LocalSearch,
		LocalSearchIters:     localSearchIterations(cfg),
		ForceFullGenerations: cfg.ForceFullGenerations,
		Seed:                 job.Seed,
		State:                string(result.State),
		FinalCoverage:        result.FinalCoverage(),
		CreatedAtUTC:         p.config.Now().UTC().Format(time.RFC3339Nano),
	}
	outcome := RunOutcome{
		Record:   record,
		Instance: inst,
		Result:   result,
		Harvest:  harvested,
		Cases:    candidate.Snapshots(inst.Label, harvested.Cases()),
	}

	if err := p.persist(ctx, outcome); err != nil {
		return RunOutcome{}, err
	}
	if p.config.ArtifactsDir != "" {
		if err := p.writeArtifacts(&outcome, cfg, quota); err != nil {
			return RunOutcome{}, err
		}
	}

	p.log.Info("run complete",
		"run_id", runID,
		"instance", inst.Name,
		"local_search", cfg.LocalSearch,
		"state", result.State,
		"coverage", record.FinalCoverage,
		"cases", len(outcome.Cases),
	)
	return outcome, nil
}

// RunSuite runs jobs on up to workers goroutines. Outcomes keep job order;
// the first failure cancels the jobs not yet started.
func (p *Polis) RunSuite(ctx context.Context, jobs []Job, workers int) ([]RunOutcome, error) {
	if workers <= 0 {
		workers = 1
	}
	outcomes := make([]RunOutcome, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, job := range jobs {
		g.Go(func() error {
			outcome, err := p.RunInstance(gctx, job)
			if err != nil {
				return fmt.Errorf("job %d (%s): %w", i, job.Instance, err)
			}
			outcomes[i] = outcome
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outcomes, nil
}

// DefaultSuite is every registered instance run once without and once with
// local search. Seeds are seed, seed+1, ... in job order.
func DefaultSuite(seed int64) []Job {
	order := []string{"original", "instance1", "instance2", "instance3", "instance4"}
	jobs := make([]Job, 0, 2*len(order))
	for _, name := range order {
		for _, localSearch := range []bool{false, true} {
			jobs = append(jobs, Job{
				Instance:    name,
				LocalSearch: localSearch,
				Seed:        seed + int64(len(jobs)),
			})
		}
	}
	return jobs
}

func (p *Polis) monitorConfig(inst instance.Instance, job Job) evo.MonitorConfig {
	fill := evo.PlainFill
	if inst.Formatted {
		fill = evo.FormattedFill
	}
	cfg := evo.MonitorConfig{
		Instance:              inst.Name,
		Space:                 inst.Space(),
		Initializer:           evo.Initializer{Seeds: inst.Seeds, Fill: fill},
		PopulationSize:        inst.Defaults.PopulationSize,
		Generations:           inst.Defaults.Generations,
		MutationRate:          evo.DefaultMutationRate,
		LocalSearch:           job.LocalSearch,
		LocalSearchIterations: evo.DefaultRefineIterations,
		ForceFullGenerations:  inst.Defaults.ForceFullGenerations,
		ConvergenceThreshold:  job.ConvergenceThreshold,
		Seed:                  job.Seed,
		Observer:              p.config.Observer,
		Logger:                p.log,
	}
	if job.PopulationSize > 0 {
		cfg.PopulationSize = job.PopulationSize
	}
	if job.Generations > 0 {
		cfg.Generations = job.Generations
	}
	if job.MutationRate != nil {
		cfg.MutationRate = *job.MutationRate
	}
	if job.LocalSearchIterations != nil {
		cfg.LocalSearchIterations = *job.LocalSearchIterations
	}
	if job.ForceFullGenerations != nil {
		cfg.ForceFullGenerations = *job.ForceFullGenerations
	}
	return cfg
}

func quotaFor(inst instance.Instance, job Job) harvest.Quota {
	if job.Quota != nil {
		return *job.Quota
	}
	return harvest.Quota{
		Valid:    inst.Defaults.ValidMin,
		Invalid:  inst.Defaults.InvalidMin,
		Boundary: inst.Defaults.BoundaryMin,
	}
}

func localSearchIterations(cfg evo.MonitorConfig) int {
	if !cfg.LocalSearch {
		return 0
	}
	return cfg.LocalSearchIterations
}

func (p *Polis) persist(ctx context.Context, outcome RunOutcome) error {
	runID := outcome.Record.ID
	if err := p.store.SaveRun(ctx, outcome.Record); err != nil {
		return fmt.Errorf("save run %s: %w", runID, err)
	}
	if err := p.store.SaveCoverageHistory(ctx, runID, outcome.Result.CoverageTrace); err != nil {
		return fmt.Errorf("save coverage history %s: %w", runID, err)
	}
	if err := p.store.SaveGenerationDiagnostics(ctx, runID, outcome.Result.Diagnostics); err != nil {
		return fmt.Errorf("save diagnostics %s: %w", runID, err)
	}
	if err := p.store.SaveCases(ctx, runID, outcome.Cases); err != nil {
		return fmt.Errorf("save cases %s: %w", runID, err)
	}
	snapshot := model.PopulationSnapshot{
		VersionedRecord: storage.Versioned(),
		RunID:           runID,
		Generation:      outcome.Result.Generations,
		Members:         candidate.Snapshots(outcome.Instance.Label, outcome.Result.Population),
	}
	if err := p.store.SavePopulation(ctx, snapshot); err != nil {
		return fmt.Errorf("save population %s: %w", runID, err)
	}
	return nil
}

func (p *Polis) writeArtifacts(outcome *RunOutcome, cfg evo.MonitorConfig, quota harvest.Quota) error {
	record := outcome.Record
	runDir, err := stats.WriteRunArtifacts(p.config.ArtifactsDir, stats.RunArtifacts{
		Config: stats.RunConfig{
			RunID:                 record.ID,
			Instance:              record.Instance,
			Label:                 record.Label,
			PopulationSize:        record.PopulationSize,
			Generations:           record.GenerationBudget,
			MutationRate:          record.MutationRate,
			LocalSearch:           record.LocalSearch,
			LocalSearchIterations: record.LocalSearchIters,
			ForceFullGenerations:  record.ForceFullGenerations,
			ConvergenceThreshold:  convergenceThreshold(cfg),
			ValidMin:              quota.Valid,
			InvalidMin:            quota.Invalid,
			BoundaryMin:           quota.Boundary,
			Seed:                  record.Seed,
		},
		CoverageHistory:       outcome.Result.CoverageTrace,
		GenerationDiagnostics: outcome.Result.Diagnostics,
		FinalCoverage:         record.FinalCoverage,
		State:                 record.State,
		Cases:                 outcome.Cases,
		FinalPopulation:       candidate.Snapshots(outcome.Instance.Label, outcome.Result.Population),
	})
	if err != nil {
		return fmt.Errorf("write artifacts %s: %w", record.ID, err)
	}
	outcome.RunDir = runDir

	if p.config.Plots {
		plotPath := filepath.Join(runDir, stats.PlotFileName(record.Label, record.LocalSearch))
		if err := stats.PlotCoverage(outcome.Result.CoverageTrace, record.Label, record.LocalSearch, plotPath); err != nil {
			return fmt.Errorf("plot coverage %s: %w", record.ID, err)
		}
		outcome.PlotPath = plotPath
	}
	if p.config.Spreadsheets {
		if err := stats.WriteCasesXLSX(filepath.Join(runDir, "cases.xlsx"), outcome.Cases); err != nil {
			return fmt.Errorf("write spreadsheet %s: %w", record.ID, err)
		}
	}

	p.indexMu.Lock()
	defer p.indexMu.Unlock()
	return stats.AppendRunIndex(p.config.ArtifactsDir, stats.RunIndexEntry{
		RunID:          record.ID,
		Instance:       record.Instance,
		Label:          record.Label,
		LocalSearch:    record.LocalSearch,
		PopulationSize: record.PopulationSize,
		Generations:    record.GenerationBudget,
		Executed:       record.GenerationsExecuted,
		Seed:           record.Seed,
		State:          record.State,
		FinalCoverage:  record.FinalCoverage,
		CreatedAtUTC:   record.CreatedAtUTC,
	})
}

func convergenceThreshold(cfg evo.MonitorConfig) float64 {
	if cfg.ConvergenceThreshold == 0 {
		return evo.DefaultConvergenceThreshold
	}
	return cfg.ConvergenceThreshold
}
