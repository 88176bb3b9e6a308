package evo

import (
	"reflect"
	"testing"

	"dategen/internal/candidate"
)

func TestSelectOrdersByFitnessWithStableTies(t *testing.T) {
	space := twoCategorySpace(t)
	population := build(space,
		candidate.Genes{Day: 1, Month: 1, Year: 1},
		candidate.Genes{Day: 2, Month: 1, Year: 1},
		candidate.Genes{Day: 3, Month: 1, Year: 1},
		candidate.Genes{Day: 4, Month: 1, Year: 1},
	)
	fitness := []float64{0.5, 1.0, 0.5, 0.25}

	got := keys(Select(population, fitness, 3))
	want := keys([]candidate.Candidate{population[1], population[0], population[2]})
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected selection order: got %v want %v", got, want)
	}
}

func TestSelectClampsK(t *testing.T) {
	space := twoCategorySpace(t)
	population := build(space,
		candidate.Genes{Day: 1, Month: 1, Year: 1},
		candidate.Genes{Day: 2, Month: 1, Year: 1},
	)
	fitness := []float64{0, 1}

	if got := Select(population, fitness, 10); len(got) != 2 {
		t.Fatalf("expected min(k, n) candidates, got %d", len(got))
	}
	if got := Select(population, fitness, 0); len(got) != 0 {
		t.Fatalf("expected empty selection, got %d", len(got))
	}
}

func TestTruncationSelectorValidatesInputs(t *testing.T) {
	space := twoCategorySpace(t)
	population := build(space, candidate.Genes{Day: 1, Month: 1, Year: 1})

	selector := TruncationSelector{}
	if selector.Name() != "truncation" {
		t.Fatalf("unexpected selector name: %s", selector.Name())
	}
	if _, err := selector.Select(population, []float64{1, 2}, 1); err == nil {
		t.Fatal("expected fitness mismatch error")
	}
	if _, err := selector.Select(population, []float64{1}, -1); err == nil {
		t.Fatal("expected invalid size error")
	}
	selected, err := selector.Select(population, []float64{1}, 1)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if !candidate.Equal(selected[0], population[0]) {
		t.Fatal("expected the only candidate to be selected unchanged")
	}
}

func TestRankKeepsFitnessPairs(t *testing.T) {
	space := twoCategorySpace(t)
	population := build(space,
		candidate.Genes{Day: 32, Month: 1, Year: 1},
		candidate.Genes{Day: 2, Month: 1, Year: 1},
	)
	ranked := Rank(population, []float64{0.1, 0.9})
	if ranked[0].Fitness != 0.9 || ranked[0].Candidate.Day() != 2 {
		t.Fatalf("unexpected ranking: %+v", ranked)
	}
}
