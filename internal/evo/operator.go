package evo

import (
	"math/rand"

	"dategen/internal/candidate"
)

const DefaultMutationRate = 0.15

// Operator rewrites one candidate into a new one.
type Operator interface {
	Name() string
	Apply(rng *rand.Rand, c candidate.Candidate) candidate.Candidate
}

// IntRange is an inclusive integer interval.
type IntRange struct {
	Min int
	Max int
}

func (r IntRange) Draw(rng *rand.Rand) int {
	if r.Max <= r.Min {
		return r.Min
	}
	return r.Min + rng.Intn(r.Max-r.Min+1)
}

func (r IntRange) Clamp(v int) int {
	if v < r.Min {
		return r.Min
	}
	if v > r.Max {
		return r.Max
	}
	return v
}

// GenePool is an edge-case biased draw: each fixed value and the uniform
// range are equally likely.
type GenePool struct {
	Fixed []int
	Range IntRange
}

func (p GenePool) Draw(rng *rand.Rand) int {
	i := rng.Intn(len(p.Fixed) + 1)
	if i == len(p.Fixed) {
		return p.Range.Draw(rng)
	}
	return p.Fixed[i]
}

type MutationPool struct {
	Day     GenePool
	Month   GenePool
	Year    GenePool
	Formats []candidate.Format
}

var DefaultMutationPool = MutationPool{
	Day:     GenePool{Fixed: []int{1, 28, 29, 30, 31}, Range: IntRange{Min: 32, Max: 40}},
	Month:   GenePool{Fixed: []int{1, 2, 4, 6, 9, 11, 12}, Range: IntRange{Min: 13, Max: 15}},
	Year:    GenePool{Fixed: []int{0, 9999, 2020, 2021}, Range: IntRange{Min: 0, Max: 9999}},
	Formats: candidate.Layouts,
}

// Mutator redraws each gene independently with probability Rate.
type Mutator struct {
	Rate float64
	Pool MutationPool
}

func (Mutator) Name() string {
	return "edge_case_mutation"
}

func (m Mutator) Apply(rng *rand.Rand, c candidate.Candidate) candidate.Candidate {
	g := c.Genes()
	if m.Rate > 0 {
		if m.hit(rng) {
			g.Day = m.Pool.Day.Draw(rng)
		}
		if m.hit(rng) {
			g.Month = m.Pool.Month.Draw(rng)
		}
		if m.hit(rng) {
			g.Year = m.Pool.Year.Draw(rng)
		}
		if g.Formatted() && len(m.Pool.Formats) > 0 && m.hit(rng) {
			g.Format = m.Pool.Formats[rng.Intn(len(m.Pool.Formats))]
		}
	}
	return c.Space().Build(g)
}

func (m Mutator) hit(rng *rand.Rand) bool {
	if m.Rate >= 1 {
		return true
	}
	return rng.Float64() < m.Rate
}

// Mutate applies DefaultMutationPool at the given rate. A rate of zero
// consumes no randomness.
func Mutate(rng *rand.Rand, c candidate.Candidate, rate float64) candidate.Candidate {
	return Mutator{Rate: rate, Pool: DefaultMutationPool}.Apply(rng, c)
}

// Crossover picks every gene from either parent with equal probability and
// builds the child against p1's space. The layout only comes from formatted
// parents.
func Crossover(rng *rand.Rand, p1, p2 candidate.Candidate) candidate.Candidate {
	a, b := p1.Genes(), p2.Genes()
	child := candidate.Genes{
		Day:   pickInt(rng, a.Day, b.Day),
		Month: pickInt(rng, a.Month, b.Month),
		Year:  pickInt(rng, a.Year, b.Year),
	}
	switch {
	case a.Formatted() && b.Formatted():
		child.Format = a.Format
		if rng.Intn(2) == 1 {
			child.Format = b.Format
		}
	case a.Formatted():
		child.Format = a.Format
	case b.Formatted():
		child.Format = b.Format
	}
	return p1.Space().Build(child)
}

func pickInt(rng *rand.Rand, a, b int) int {
	if rng.Intn(2) == 0 {
		return a
	}
	return b
}
