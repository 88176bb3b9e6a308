package evo

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand"

	"dategen/internal/candidate"
	"dategen/internal/logging"
	"dategen/internal/model"
)

const DefaultConvergenceThreshold = 95.0

type RunState string

const (
	StateRunning   RunState = "running"
	StateConverged RunState = "converged"
	StateExhausted RunState = "exhausted"
)

// Observer receives progress from a running monitor. Calls happen on the
// monitor's goroutine.
type Observer interface {
	ObserveGeneration(instance string, diag model.GenerationDiagnostics)
	ObserveRefinement(instance string, result RefineResult)
	ObserveRun(instance string, result RunResult)
}

type RunResult struct {
	Population    []candidate.Candidate
	Fitness       []float64
	CoverageTrace []float64
	State         RunState
	Generations   int
	Diagnostics   []model.GenerationDiagnostics
	Refinement    *RefineResult
}

// FinalCoverage is the last trace entry.
func (r RunResult) FinalCoverage() float64 {
	if len(r.CoverageTrace) == 0 {
		return 0
	}
	return r.CoverageTrace[len(r.CoverageTrace)-1]
}

type MonitorConfig struct {
	Instance    string
	Space       *candidate.Space
	Initializer Initializer
	// Mutation defaults to DefaultMutationPool at MutationRate.
	Mutation       Operator
	Selector       Selector
	PopulationSize int
	Generations    int
	MutationRate   float64
	LocalSearch    bool
	// LocalSearchIterations is used as given; zero runs no trials.
	LocalSearchIterations int
	ForceFullGenerations  bool
	ConvergenceThreshold  float64
	Seed                  int64
	// Rand overrides the Seed-derived source.
	Rand     *rand.Rand
	Observer Observer
	Logger   *slog.Logger
}

func (cfg MonitorConfig) Validate() error {
	if cfg.Space == nil {
		return fmt.Errorf("candidate space is required")
	}
	if cfg.Space.Rules == nil || cfg.Space.Rules.Len() == 0 {
		return fmt.Errorf("rule set must not be empty")
	}
	if cfg.Space.Validate == nil {
		return fmt.Errorf("validator is required")
	}
	if cfg.PopulationSize < 2 {
		return fmt.Errorf("population size must be >= 2")
	}
	if cfg.Generations < 1 {
		return fmt.Errorf("generations must be > 0")
	}
	if math.IsNaN(cfg.MutationRate) || cfg.MutationRate < 0 || cfg.MutationRate > 1 {
		return fmt.Errorf("mutation rate must be in [0, 1]")
	}
	if cfg.LocalSearchIterations < 0 {
		return fmt.Errorf("local search iterations must be >= 0")
	}
	if cfg.ConvergenceThreshold < 0 || cfg.ConvergenceThreshold > 100 {
		return fmt.Errorf("convergence threshold must be in [0, 100]")
	}
	if cfg.Initializer.Fill == nil && len(cfg.Initializer.Seeds) < cfg.PopulationSize {
		return fmt.Errorf("initializer fill is required when seeds do not cover the population")
	}
	return nil
}

type PopulationMonitor struct {
	cfg MonitorConfig
	rng *rand.Rand
	log *slog.Logger
}

func NewPopulationMonitor(cfg MonitorConfig) (*PopulationMonitor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Mutation == nil {
		cfg.Mutation = Mutator{Rate: cfg.MutationRate, Pool: DefaultMutationPool}
	}
	if cfg.Selector == nil {
		cfg.Selector = TruncationSelector{}
	}
	if cfg.ConvergenceThreshold == 0 {
		cfg.ConvergenceThreshold = DefaultConvergenceThreshold
	}
	rng := cfg.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(cfg.Seed))
	}
	logger := logging.OrDiscard(cfg.Logger)
	if cfg.Instance != "" {
		logger = logger.With("instance", cfg.Instance)
	}
	return &PopulationMonitor{cfg: cfg, rng: rng, log: logger}, nil
}

// Run executes the generation loop to a terminal state, then the optional
// local search. The context is only checked before the run starts.
func (m *PopulationMonitor) Run(ctx context.Context) (RunResult, error) {
	if err := ctx.Err(); err != nil {
		return RunResult{}, err
	}

	rules := m.cfg.Space.Rules
	size := m.cfg.PopulationSize
	population := m.cfg.Initializer.Population(m.rng, m.cfg.Space, size)
	eval := Evaluate(population, rules)

	trace := make([]float64, 0, m.cfg.Generations+1)
	diagnostics := make([]model.GenerationDiagnostics, 0, m.cfg.Generations)
	state := StateRunning
	generation := 0

	for state == StateRunning {
		generation++
		parents, err := m.cfg.Selector.Select(population, eval.Fitness, size/2)
		if err != nil {
			return RunResult{}, fmt.Errorf("generation %d: select: %w", generation, err)
		}
		if len(parents) == 0 {
			return RunResult{}, fmt.Errorf("generation %d: selector %s returned no parents", generation, m.cfg.Selector.Name())
		}

		next := make([]candidate.Candidate, 0, size)
		next = append(next, parents...)
		for len(next) < size {
			p1, p2 := m.pickParents(parents)
			child := Crossover(m.rng, p1, p2)
			next = append(next, m.cfg.Mutation.Apply(m.rng, child))
		}
		population = next
		eval = Evaluate(population, rules)
		trace = append(trace, eval.Coverage)

		diag := summarizeGeneration(generation, population, eval)
		diagnostics = append(diagnostics, diag)
		if m.cfg.Observer != nil {
			m.cfg.Observer.ObserveGeneration(m.cfg.Instance, diag)
		}
		m.log.Debug("generation complete",
			"generation", generation,
			"coverage", eval.Coverage,
			"redundancy", eval.Redundancy,
			"best_fitness", diag.BestFitness,
		)

		switch {
		case eval.Coverage >= m.cfg.ConvergenceThreshold && !m.cfg.ForceFullGenerations:
			state = StateConverged
		case generation >= m.cfg.Generations:
			state = StateExhausted
		}
	}
	m.log.Info(fmt.Sprintf("terminated at generation %d with %.2f%% coverage", generation, eval.Coverage),
		"state", string(state),
	)

	result := RunResult{
		State:       state,
		Generations: generation,
		Diagnostics: diagnostics,
	}
	if m.cfg.LocalSearch {
		refiner := Refiner{
			Iterations: m.cfg.LocalSearchIterations,
			Bounds:     DefaultBounds,
			Logger:     m.log,
		}
		refined := refiner.Refine(m.rng, population)
		population = refined.Population
		eval = Evaluate(population, rules)
		trace = append(trace, refined.Coverage)
		result.Refinement = &refined
		if m.cfg.Observer != nil {
			m.cfg.Observer.ObserveRefinement(m.cfg.Instance, refined)
		}
	}

	result.Population = population
	result.Fitness = eval.Fitness
	result.CoverageTrace = trace
	if m.cfg.Observer != nil {
		m.cfg.Observer.ObserveRun(m.cfg.Instance, result)
	}
	return result, nil
}

// pickParents samples two distinct parents. A single survivor is paired
// with itself.
func (m *PopulationMonitor) pickParents(parents []candidate.Candidate) (candidate.Candidate, candidate.Candidate) {
	if len(parents) < 2 {
		return parents[0], parents[0]
	}
	i := m.rng.Intn(len(parents))
	j := m.rng.Intn(len(parents) - 1)
	if j >= i {
		j++
	}
	return parents[i], parents[j]
}

func summarizeGeneration(generation int, population []candidate.Candidate, eval Evaluation) model.GenerationDiagnostics {
	diag := model.GenerationDiagnostics{
		Generation: generation,
		Coverage:   eval.Coverage,
		Redundancy: eval.Redundancy,
	}
	if len(eval.Fitness) == 0 {
		return diag
	}

	total := 0.0
	best := eval.Fitness[0]
	minFitness := eval.Fitness[0]
	for _, f := range eval.Fitness {
		total += f
		if f > best {
			best = f
		}
		if f < minFitness {
			minFitness = f
		}
	}
	distinct := make(map[string]struct{}, len(population))
	for _, c := range population {
		distinct[c.Key()] = struct{}{}
		if c.IsValid() {
			diag.ValidCount++
		}
	}
	diag.BestFitness = best
	diag.MeanFitness = total / float64(len(eval.Fitness))
	diag.MinFitness = minFitness
	diag.Distinct = len(distinct)
	return diag
}
