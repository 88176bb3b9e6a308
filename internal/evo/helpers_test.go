package evo

import (
	"testing"

	"dategen/internal/candidate"
)

// twoCategorySpace has one category for days past 31 and one for months
// past 12.
func twoCategorySpace(t *testing.T) *candidate.Space {
	t.Helper()
	rules, err := candidate.NewRuleSet(
		candidate.Rule{Name: "A", Predicate: func(g candidate.Genes) bool { return g.Day > 31 }},
		candidate.Rule{Name: "B", Predicate: func(g candidate.Genes) bool { return g.Month > 12 }},
	)
	if err != nil {
		t.Fatalf("new rule set: %v", err)
	}
	return &candidate.Space{Rules: rules, Validate: acceptCalendarRange}
}

func acceptCalendarRange(date string, _ candidate.Format) bool {
	return len(date) == 10
}

func build(space *candidate.Space, genes ...candidate.Genes) []candidate.Candidate {
	out := make([]candidate.Candidate, 0, len(genes))
	for _, g := range genes {
		out = append(out, space.Build(g))
	}
	return out
}

func keys(population []candidate.Candidate) []string {
	out := make([]string, 0, len(population))
	for _, c := range population {
		out = append(out, c.Key())
	}
	return out
}
