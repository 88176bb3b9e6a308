package candidate

import (
	"fmt"
	"math/rand"
	"strings"
)

// Predicate classifies a gene set into a named category.
type Predicate func(Genes) bool

// Validator is the routine under test. The format is FormatNone for the
// plain variant.
type Validator func(date string, format Format) bool

// GeneOverride rewrites perturbed genes toward an uncovered category.
type GeneOverride func(rng *rand.Rand, genes Genes) Genes

type Rule struct {
	Name      string
	Predicate Predicate
}

// GapHint biases local search toward a category gap. It fires when any of
// its trigger categories is missing from the population.
type GapHint struct {
	Tag      string
	Triggers []string
	Override GeneOverride
}

// RuleSet is an ordered, read-only mapping from category name to predicate.
// It must not change for the duration of a run.
type RuleSet struct {
	names []string
	preds map[string]Predicate
	gaps  []GapHint
}

func NewRuleSet(rules ...Rule) (*RuleSet, error) {
	rs := &RuleSet{
		names: make([]string, 0, len(rules)),
		preds: make(map[string]Predicate, len(rules)),
	}
	for i, rule := range rules {
		name := strings.TrimSpace(rule.Name)
		if name == "" {
			return nil, fmt.Errorf("rule name is required at index %d", i)
		}
		if rule.Predicate == nil {
			return nil, fmt.Errorf("rule %q has no predicate", name)
		}
		if _, exists := rs.preds[name]; exists {
			return nil, fmt.Errorf("duplicate rule name: %s", name)
		}
		rs.names = append(rs.names, name)
		rs.preds[name] = rule.Predicate
	}
	return rs, nil
}

// MustRuleSet is NewRuleSet for package-level instance tables.
func MustRuleSet(rules ...Rule) *RuleSet {
	rs, err := NewRuleSet(rules...)
	if err != nil {
		panic(err)
	}
	return rs
}

// WithGaps returns a copy of the rule-set carrying the given gap hints in
// application order.
func (rs *RuleSet) WithGaps(hints ...GapHint) *RuleSet {
	out := &RuleSet{
		names: rs.names,
		preds: rs.preds,
		gaps:  append(append([]GapHint(nil), rs.gaps...), hints...),
	}
	return out
}

func (rs *RuleSet) Len() int {
	return len(rs.names)
}

func (rs *RuleSet) Names() []string {
	return append([]string(nil), rs.names...)
}

func (rs *RuleSet) Has(name string) bool {
	_, ok := rs.preds[name]
	return ok
}

func (rs *RuleSet) Gaps() []GapHint {
	return append([]GapHint(nil), rs.gaps...)
}

// Classify returns the names of every category whose predicate holds, in
// rule-set order.
func (rs *RuleSet) Classify(g Genes) []string {
	out := make([]string, 0, 2)
	for _, name := range rs.names {
		if rs.preds[name](g) {
			out = append(out, name)
		}
	}
	return out
}

// ApplyGaps runs every hint whose trigger is in missing, in order.
func (rs *RuleSet) ApplyGaps(rng *rand.Rand, g Genes, missing map[string]struct{}) Genes {
	if len(missing) == 0 {
		return g
	}
	for _, hint := range rs.gaps {
		if hint.Override == nil || !hint.triggeredBy(missing) {
			continue
		}
		g = hint.Override(rng, g)
	}
	return g
}

func (h GapHint) triggeredBy(missing map[string]struct{}) bool {
	for _, trigger := range h.Triggers {
		if _, ok := missing[trigger]; ok {
			return true
		}
	}
	return false
}
