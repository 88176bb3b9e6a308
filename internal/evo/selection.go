package evo

import (
	"fmt"
	"sort"

	"dategen/internal/candidate"
)

// Scored pairs a candidate with its fitness from one evaluation.
type Scored struct {
	Candidate candidate.Candidate
	Fitness   float64
}

// Selector chooses the parents that survive into the next generation.
type Selector interface {
	Name() string
	Select(population []candidate.Candidate, fitness []float64, k int) ([]candidate.Candidate, error)
}

// TruncationSelector keeps the k best-ranked candidates.
type TruncationSelector struct{}

func (TruncationSelector) Name() string {
	return "truncation"
}

func (TruncationSelector) Select(population []candidate.Candidate, fitness []float64, k int) ([]candidate.Candidate, error) {
	if len(population) != len(fitness) {
		return nil, fmt.Errorf("fitness mismatch: got=%d want=%d", len(fitness), len(population))
	}
	if k < 0 {
		return nil, fmt.Errorf("invalid selection size: %d", k)
	}
	return Select(population, fitness, k), nil
}

// Rank orders candidates by fitness descending. Equal fitness keeps
// population order.
func Rank(population []candidate.Candidate, fitness []float64) []Scored {
	n := len(population)
	if len(fitness) < n {
		n = len(fitness)
	}
	ranked := make([]Scored, n)
	for i := 0; i < n; i++ {
		ranked[i] = Scored{Candidate: population[i], Fitness: fitness[i]}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Fitness > ranked[j].Fitness
	})
	return ranked
}

// Select returns the first min(k, n) ranked candidates.
func Select(population []candidate.Candidate, fitness []float64, k int) []candidate.Candidate {
	ranked := Rank(population, fitness)
	if k > len(ranked) {
		k = len(ranked)
	}
	if k < 0 {
		k = 0
	}
	out := make([]candidate.Candidate, 0, k)
	for _, item := range ranked[:k] {
		out = append(out, item.Candidate)
	}
	return out
}
