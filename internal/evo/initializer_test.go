package evo

import (
	"math/rand"
	"testing"

	"dategen/internal/candidate"
	"dategen/internal/instance"
)

func TestInitializerSeedsComeFirstInOrder(t *testing.T) {
	space := instance.Original.Space()
	init := Initializer{Seeds: instance.PlainSeeds, Fill: PlainFill}
	rng := rand.New(rand.NewSource(1))

	population := init.Population(rng, space, 8)
	if len(population) != 8 {
		t.Fatalf("expected 8 candidates, got %d", len(population))
	}
	for i, seed := range instance.PlainSeeds {
		if population[i].Genes() != seed {
			t.Fatalf("seed %d out of order: got %+v want %+v", i, population[i].Genes(), seed)
		}
	}

	larger := init.Population(rng, space, 20)
	if len(larger) != 20 {
		t.Fatalf("expected 20 candidates, got %d", len(larger))
	}
	for i, seed := range instance.PlainSeeds {
		if larger[i].Genes() != seed {
			t.Fatalf("seed %d out of order in larger population", i)
		}
	}
}

func TestInitializerTruncatesSeedsBelowSeedCount(t *testing.T) {
	init := Initializer{Seeds: instance.PlainSeeds, Fill: PlainFill}
	population := init.Population(rand.New(rand.NewSource(1)), instance.Original.Space(), 3)
	if len(population) != 3 {
		t.Fatalf("expected 3 candidates, got %d", len(population))
	}
	if population[2].Genes() != instance.PlainSeeds[2] {
		t.Fatalf("expected leading seeds, got %+v", population[2].Genes())
	}
	if got := init.Population(nil, instance.Original.Space(), 0); got != nil {
		t.Fatalf("expected nil population for size 0, got %d", len(got))
	}
}

func TestPlainFillRanges(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	boundaryYears := 0
	for i := 0; i < 300; i++ {
		g := PlainFill(rng)
		if g.Day < 1 || g.Day > 40 || g.Month < 1 || g.Month > 15 || g.Year < 0 || g.Year > 9999 {
			t.Fatalf("fill outside range: %+v", g)
		}
		if g.Formatted() {
			t.Fatalf("plain fill produced a format: %+v", g)
		}
		if g.Year == 0 || g.Year == 9999 {
			boundaryYears++
		}
	}
	if boundaryYears < 50 {
		t.Fatalf("expected boundary year bias, got %d of 300", boundaryYears)
	}
}

func TestFormattedFillDrawsLayouts(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	seen := map[candidate.Format]bool{}
	for i := 0; i < 100; i++ {
		g := FormattedFill(rng)
		if !g.Formatted() {
			t.Fatalf("formatted fill produced a plain candidate: %+v", g)
		}
		seen[g.Format] = true
	}
	if len(seen) != len(candidate.Layouts) {
		t.Fatalf("expected every layout, got %v", seen)
	}
}
