package harvest

import (
	"math/rand"
	"strings"

	"dategen/internal/candidate"
	"dategen/internal/evo"
)

const (
	DefaultBoundaryPrefix  = "Boundary"
	DefaultMaxFillAttempts = 10000
)

// Quota is the number of cases wanted per bucket.
type Quota struct {
	Valid    int `json:"valid"`
	Invalid  int `json:"invalid"`
	Boundary int `json:"boundary"`
}

func (q Quota) Total() int {
	return q.Valid + q.Invalid + q.Boundary
}

type Result struct {
	Valid    []candidate.Candidate
	Invalid  []candidate.Candidate
	Boundary []candidate.Candidate
	// Shortfall counts the cases a capped top-up could not produce.
	Shortfall Quota
}

// Cases lists the buckets in export order.
func (r Result) Cases() []candidate.Candidate {
	out := make([]candidate.Candidate, 0, len(r.Valid)+len(r.Invalid)+len(r.Boundary))
	out = append(out, r.Valid...)
	out = append(out, r.Invalid...)
	out = append(out, r.Boundary...)
	return out
}

// Harvester picks a final test suite out of an evolved population.
type Harvester struct {
	Space           *candidate.Space
	Formatted       bool
	BoundaryPrefix  string
	MaxFillAttempts int
}

// Harvest walks the population best first, skipping duplicates, and fills
// the valid and invalid buckets by validity and the boundary bucket by
// category prefix. A case can land in the boundary bucket as well as one of
// the others. Buckets still short are topped up from random generators.
func (h Harvester) Harvest(rng *rand.Rand, population []candidate.Candidate, fitness []float64, quota Quota) Result {
	prefix := h.BoundaryPrefix
	if prefix == "" {
		prefix = DefaultBoundaryPrefix
	}
	attempts := h.MaxFillAttempts
	if attempts <= 0 {
		attempts = DefaultMaxFillAttempts
	}

	var result Result
	seen := make(map[string]struct{}, len(population))
	for _, scored := range evo.Rank(population, fitness) {
		c := scored.Candidate
		if _, dup := seen[c.Key()]; dup {
			continue
		}
		seen[c.Key()] = struct{}{}
		if c.IsValid() && len(result.Valid) < quota.Valid {
			result.Valid = append(result.Valid, c)
		} else if !c.IsValid() && len(result.Invalid) < quota.Invalid {
			result.Invalid = append(result.Invalid, c)
		}
		if hasPrefixedCategory(c, prefix) && len(result.Boundary) < quota.Boundary {
			result.Boundary = append(result.Boundary, c)
		}
	}

	result.Valid, result.Shortfall.Valid = h.topUp(rng, result.Valid, quota.Valid, attempts, seen, h.validGenes, func(c candidate.Candidate) bool {
		return c.IsValid()
	})
	result.Invalid, result.Shortfall.Invalid = h.topUp(rng, result.Invalid, quota.Invalid, attempts, seen, h.invalidGenes, func(c candidate.Candidate) bool {
		return !c.IsValid()
	})
	result.Boundary, result.Shortfall.Boundary = h.topUp(rng, result.Boundary, quota.Boundary, attempts, seen, h.boundaryGenes, func(candidate.Candidate) bool {
		return true
	})
	return result
}

func (h Harvester) topUp(
	rng *rand.Rand,
	bucket []candidate.Candidate,
	want int,
	attempts int,
	seen map[string]struct{},
	draw func(*rand.Rand) candidate.Genes,
	accept func(candidate.Candidate) bool,
) ([]candidate.Candidate, int) {
	for i := 0; len(bucket) < want && i < attempts; i++ {
		c := h.Space.Build(draw(rng))
		if _, dup := seen[c.Key()]; dup || !accept(c) {
			continue
		}
		seen[c.Key()] = struct{}{}
		bucket = append(bucket, c)
	}
	shortfall := want - len(bucket)
	if shortfall < 0 {
		shortfall = 0
	}
	return bucket, shortfall
}

func (h Harvester) validGenes(rng *rand.Rand) candidate.Genes {
	return h.withFormat(rng, candidate.Genes{
		Day:   evo.IntRange{Min: 1, Max: 28}.Draw(rng),
		Month: evo.IntRange{Min: 1, Max: 12}.Draw(rng),
		Year:  evo.IntRange{Min: 1, Max: 9998}.Draw(rng),
	})
}

func (h Harvester) invalidGenes(rng *rand.Rand) candidate.Genes {
	return h.withFormat(rng, candidate.Genes{
		Day:   evo.IntRange{Min: 32, Max: 40}.Draw(rng),
		Month: evo.IntRange{Min: 1, Max: 15}.Draw(rng),
		Year:  evo.IntRange{Min: 0, Max: 9999}.Draw(rng),
	})
}

func (h Harvester) boundaryGenes(rng *rand.Rand) candidate.Genes {
	year := 0
	if rng.Intn(2) == 1 {
		year = 9999
	}
	return h.withFormat(rng, candidate.Genes{
		Day:   evo.IntRange{Min: 1, Max: 31}.Draw(rng),
		Month: evo.IntRange{Min: 1, Max: 12}.Draw(rng),
		Year:  year,
	})
}

func (h Harvester) withFormat(rng *rand.Rand, g candidate.Genes) candidate.Genes {
	if h.Formatted {
		g.Format = candidate.Layouts[rng.Intn(len(candidate.Layouts))]
	}
	return g
}

func hasPrefixedCategory(c candidate.Candidate, prefix string) bool {
	for _, cat := range c.Categories() {
		if strings.HasPrefix(cat, prefix) {
			return true
		}
	}
	return false
}
