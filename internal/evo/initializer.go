package evo

import (
	"math/rand"

	"dategen/internal/candidate"
)

// FillFunc draws the genes of one randomized initial candidate.
type FillFunc func(rng *rand.Rand) candidate.Genes

// Initializer builds a starting population from fixed seeds followed by a
// randomized fill.
type Initializer struct {
	Seeds []candidate.Genes
	Fill  FillFunc
}

// Population returns exactly size candidates. Seeds come first in their
// stable order; a size below the seed count keeps the leading seeds.
func (in Initializer) Population(rng *rand.Rand, space *candidate.Space, size int) []candidate.Candidate {
	if size <= 0 {
		return nil
	}
	population := make([]candidate.Candidate, 0, size)
	for _, g := range in.Seeds {
		if len(population) == size {
			break
		}
		population = append(population, space.Build(g))
	}
	for len(population) < size {
		population = append(population, space.Build(in.Fill(rng)))
	}
	return population
}

// PlainFill draws day and month past their calendar limits and biases the
// year toward its boundaries.
func PlainFill(rng *rand.Rand) candidate.Genes {
	day := IntRange{Min: 1, Max: 40}.Draw(rng)
	month := IntRange{Min: 1, Max: 15}.Draw(rng)
	year := GenePool{Fixed: []int{0, 9999}, Range: IntRange{Min: 0, Max: 9999}}.Draw(rng)
	return candidate.Genes{Day: day, Month: month, Year: year}
}

// FormattedFill draws a uniform year and a random layout.
func FormattedFill(rng *rand.Rand) candidate.Genes {
	return candidate.Genes{
		Day:    IntRange{Min: 1, Max: 40}.Draw(rng),
		Month:  IntRange{Min: 1, Max: 15}.Draw(rng),
		Year:   IntRange{Min: 0, Max: 9999}.Draw(rng),
		Format: candidate.Layouts[rng.Intn(len(candidate.Layouts))],
	}
}
