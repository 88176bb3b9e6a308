package evo

import (
	"dategen/internal/candidate"
)

// Evaluation is the result of one evaluator pass over a population. Fitness
// is positionally aligned with the evaluated population.
type Evaluation struct {
	Fitness    []float64
	Redundancy int
	Covered    []string
	Coverage   float64
}

// Evaluate scores a population in two passes. The first walks the
// population in order counting category memberships already discovered by
// earlier candidates. The second scores each candidate by the categories no
// other candidate covers, dampened by the population-wide redundancy.
func Evaluate(population []candidate.Candidate, rules *candidate.RuleSet) Evaluation {
	covered := make(map[string]struct{})
	redundancy := 0
	for _, c := range population {
		cats := c.Categories()
		fresh := 0
		for _, cat := range cats {
			if _, ok := covered[cat]; !ok {
				covered[cat] = struct{}{}
				fresh++
			}
		}
		shared := 0
		for _, cat := range cats {
			if _, ok := covered[cat]; ok {
				shared++
			}
		}
		redundancy += shared - fresh
	}

	denominator := float64(1 + redundancy)
	fitness := make([]float64, len(population))
	for i, c := range population {
		unique := float64(uniqueCount(c.Categories(), covered))
		if denominator <= 0 {
			fitness[i] = unique
			continue
		}
		fitness[i] = unique / denominator
	}

	return Evaluation{
		Fitness:    fitness,
		Redundancy: redundancy,
		Covered:    orderedCovered(rules, covered),
		Coverage:   Coverage(population, rules),
	}
}

// uniqueCount returns |cats − (covered − cats)|.
func uniqueCount(cats []string, covered map[string]struct{}) int {
	own := make(map[string]struct{}, len(cats))
	for _, cat := range cats {
		own[cat] = struct{}{}
	}
	others := make(map[string]struct{}, len(covered))
	for cat := range covered {
		if _, ok := own[cat]; !ok {
			others[cat] = struct{}{}
		}
	}
	count := 0
	for cat := range own {
		if _, ok := others[cat]; !ok {
			count++
		}
	}
	return count
}

// Coverage is the percentage of rule-set categories touched by at least one
// candidate. An empty rule-set reports zero.
func Coverage(population []candidate.Candidate, rules *candidate.RuleSet) float64 {
	if rules == nil || rules.Len() == 0 {
		return 0
	}
	return coveragePercent(len(CoveredSet(population)), rules.Len())
}

// CoveredSet is the union of categories over a population.
func CoveredSet(population []candidate.Candidate) map[string]struct{} {
	covered := make(map[string]struct{})
	for _, c := range population {
		for _, cat := range c.Categories() {
			covered[cat] = struct{}{}
		}
	}
	return covered
}

// Missing lists the rule-set categories absent from covered.
func Missing(rules *candidate.RuleSet, covered map[string]struct{}) map[string]struct{} {
	missing := make(map[string]struct{})
	if rules == nil {
		return missing
	}
	for _, name := range rules.Names() {
		if _, ok := covered[name]; !ok {
			missing[name] = struct{}{}
		}
	}
	return missing
}

func coveragePercent(covered, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(covered) / float64(total) * 100
}

func orderedCovered(rules *candidate.RuleSet, covered map[string]struct{}) []string {
	if rules == nil {
		return nil
	}
	out := make([]string, 0, len(covered))
	for _, name := range rules.Names() {
		if _, ok := covered[name]; ok {
			out = append(out, name)
		}
	}
	return out
}
