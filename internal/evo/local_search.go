package evo

import (
	"log/slog"
	"math/rand"

	"dategen/internal/candidate"
	"dategen/internal/logging"
)

const DefaultRefineIterations = 5

var (
	dayMonthSteps = []int{-1, 0, 1}
	yearSteps     = []int{-1, 0, 1, -100, 100}
)

// GeneBounds clamps refined genes. The ceilings sit above calendar limits so
// invalid categories stay reachable.
type GeneBounds struct {
	Day   IntRange
	Month IntRange
	Year  IntRange
}

var DefaultBounds = GeneBounds{
	Day:   IntRange{Min: 1, Max: 40},
	Month: IntRange{Min: 1, Max: 15},
	Year:  IntRange{Min: 0, Max: 9999},
}

func (b GeneBounds) Clamp(g candidate.Genes) candidate.Genes {
	g.Day = b.Day.Clamp(g.Day)
	g.Month = b.Month.Clamp(g.Month)
	g.Year = b.Year.Clamp(g.Year)
	return g
}

// Refiner hill-climbs each position of a population once, biased toward the
// categories the population is missing. Iterations is the number of trials
// per position; zero leaves the population unchanged.
type Refiner struct {
	Iterations int
	Bounds     GeneBounds
	Logger     *slog.Logger
}

type RefineResult struct {
	Population      []candidate.Candidate
	InitialCoverage float64
	Coverage        float64
	Accepted        int
}

// Refine processes positions in index order. Every trial perturbs the
// position's incoming candidate; an accepted neighbor replaces it and the
// gap state is updated before the next trial. A neighbor is kept when it
// covers more categories, or when it raises fitness at its position without
// losing any.
func (r Refiner) Refine(rng *rand.Rand, population []candidate.Candidate) RefineResult {
	refined := append([]candidate.Candidate(nil), population...)
	if len(refined) == 0 {
		return RefineResult{Population: refined}
	}
	space := refined[0].Space()
	if space == nil || space.Rules == nil {
		return RefineResult{Population: refined}
	}
	rules := space.Rules
	bounds := r.Bounds
	if bounds == (GeneBounds{}) {
		bounds = DefaultBounds
	}

	covered := CoveredSet(refined)
	missing := Missing(rules, covered)
	initial := coveragePercent(len(covered), rules.Len())
	accepted := 0

	scratch := make([]candidate.Candidate, len(refined))
	for i := range refined {
		current := refined[i]
		bestFitness := Evaluate(refined, rules).Fitness[i]

		for step := 0; step < r.Iterations; step++ {
			g := current.Genes()
			g.Day += dayMonthSteps[rng.Intn(len(dayMonthSteps))]
			g.Month += dayMonthSteps[rng.Intn(len(dayMonthSteps))]
			g.Year += yearSteps[rng.Intn(len(yearSteps))]
			if g.Formatted() {
				g.Format = candidate.Layouts[rng.Intn(len(candidate.Layouts))]
			}
			g = rules.ApplyGaps(rng, g, missing)
			neighbor := space.Build(bounds.Clamp(g))

			copy(scratch, refined)
			scratch[i] = neighbor
			eval := Evaluate(scratch, rules)
			gained := len(eval.Covered) > len(covered)
			kept := len(eval.Covered) == len(covered)
			if !gained && !(kept && eval.Fitness[i] > bestFitness) {
				continue
			}
			refined[i] = neighbor
			bestFitness = eval.Fitness[i]
			covered = CoveredSet(refined)
			missing = Missing(rules, covered)
			accepted++
		}
	}

	result := RefineResult{
		Population:      refined,
		InitialCoverage: initial,
		Coverage:        coveragePercent(len(covered), rules.Len()),
		Accepted:        accepted,
	}
	logging.OrDiscard(r.Logger).Info("local search finished",
		"coverage", result.Coverage,
		"initial_coverage", result.InitialCoverage,
		"accepted", result.Accepted,
	)
	return result
}
