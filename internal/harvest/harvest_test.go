package harvest

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dategen/internal/candidate"
	"dategen/internal/evo"
	"dategen/internal/instance"
)

func harvester(inst instance.Instance) Harvester {
	return Harvester{Space: inst.Space(), Formatted: inst.Formatted}
}

func TestHarvestFillsBucketsFromPopulationBestFirst(t *testing.T) {
	space := instance.Original.Space()
	population := []candidate.Candidate{
		space.Build(candidate.Genes{Day: 5, Month: 5, Year: 2000}),
		space.Build(candidate.Genes{Day: 1, Month: 1, Year: 0}),
		space.Build(candidate.Genes{Day: 32, Month: 5, Year: 2023}),
		space.Build(candidate.Genes{Day: 32, Month: 5, Year: 2023}),
	}
	fitness := []float64{0, 1, 0.5, 0.5}

	result := harvester(instance.Original).Harvest(rand.New(rand.NewSource(1)), population, fitness, Quota{Valid: 1, Invalid: 1, Boundary: 1})
	require.Len(t, result.Valid, 1)
	require.Len(t, result.Invalid, 1)
	require.Len(t, result.Boundary, 1)

	assert.Equal(t, "01/01/0000", result.Valid[0].CanonicalString())
	assert.Equal(t, "32/05/2023", result.Invalid[0].CanonicalString())
	assert.Equal(t, "01/01/0000", result.Boundary[0].CanonicalString())
	assert.Equal(t, Quota{}, result.Shortfall)
	assert.Len(t, result.Cases(), 3)
}

func TestHarvestTopsUpWithoutDuplicates(t *testing.T) {
	space := instance.Original.Space()
	population := []candidate.Candidate{space.Build(candidate.Genes{Day: 10, Month: 10, Year: 2010})}

	quota := Quota{Valid: 10, Invalid: 10, Boundary: 5}
	result := harvester(instance.Original).Harvest(rand.New(rand.NewSource(2)), population, []float64{0}, quota)
	require.Len(t, result.Valid, 10)
	require.Len(t, result.Invalid, 10)
	require.Len(t, result.Boundary, 5)

	seen := map[string]bool{}
	for _, c := range append(append([]candidate.Candidate{}, result.Valid...), result.Invalid...) {
		require.False(t, seen[c.Key()], "duplicate case %s", c.Key())
		seen[c.Key()] = true
	}
	for _, c := range result.Valid {
		assert.True(t, c.IsValid(), c.String())
	}
	for _, c := range result.Invalid {
		assert.False(t, c.IsValid(), c.String())
	}
	for _, c := range result.Boundary {
		assert.Contains(t, []int{0, 9999}, c.Year())
	}
}

func TestHarvestFormattedInstanceDrawsLayouts(t *testing.T) {
	space := instance.Formats.Space()
	population := []candidate.Candidate{space.Build(candidate.Genes{Day: 15, Month: 5, Year: 2023, Format: candidate.FormatYMD})}

	result := harvester(instance.Formats).Harvest(rand.New(rand.NewSource(3)), population, []float64{1}, Quota{Valid: 10, Invalid: 10})
	require.Len(t, result.Valid, 10)
	require.Len(t, result.Invalid, 10)
	for _, c := range result.Cases() {
		assert.True(t, c.Genes().Formatted(), c.String())
	}
}

func TestHarvestReportsShortfallWhenTopUpIsImpossible(t *testing.T) {
	rules := candidate.MustRuleSet(candidate.Rule{Name: "Never", Predicate: func(candidate.Genes) bool { return false }})
	space := &candidate.Space{Rules: rules, Validate: func(string, candidate.Format) bool { return false }}

	h := Harvester{Space: space, MaxFillAttempts: 50}
	result := h.Harvest(rand.New(rand.NewSource(4)), nil, nil, Quota{Valid: 3, Invalid: 2})
	assert.Empty(t, result.Valid)
	assert.Len(t, result.Invalid, 2)
	assert.Equal(t, 3, result.Shortfall.Valid)
	assert.Equal(t, 5, Quota{Valid: 3, Invalid: 2}.Total())
}

func TestHarvestAfterRun(t *testing.T) {
	inst := instance.LeapYears
	monitor, err := evo.NewPopulationMonitor(evo.MonitorConfig{
		Space:          inst.Space(),
		Initializer:    evo.Initializer{Seeds: inst.Seeds, Fill: evo.PlainFill},
		PopulationSize: 30,
		Generations:    5,
		MutationRate:   evo.DefaultMutationRate,
		Seed:           8,
	})
	require.NoError(t, err)
	run, err := monitor.Run(t.Context())
	require.NoError(t, err)

	quota := Quota{Valid: inst.Defaults.ValidMin, Invalid: inst.Defaults.InvalidMin, Boundary: inst.Defaults.BoundaryMin}
	result := harvester(inst).Harvest(rand.New(rand.NewSource(8)), run.Population, run.Fitness, quota)
	assert.Len(t, result.Cases(), quota.Total())
	for _, c := range result.Boundary {
		found := false
		for _, cat := range c.Categories() {
			found = found || strings.HasPrefix(cat, DefaultBoundaryPrefix)
		}
		if !found {
			assert.Contains(t, []int{0, 9999}, c.Year())
		}
	}
}
