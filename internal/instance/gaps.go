package instance

import (
	"math/rand"

	"dategen/internal/candidate"
)

// Gap tags name the overrides local search applies for a missing category.
const (
	GapInvalidMonth = "invalid_month"
	GapInvalidDay   = "invalid_day"
	GapMinYear      = "boundary_min_year"
	GapMaxYear      = "boundary_max_year"
	GapInvalidFeb29 = "invalid_feb29"
	GapLeapYear     = "valid_leap_year"
	GapAmbiguous    = "ambiguous"
)

// nonLeapYears are the years the invalid Feb 29 override picks from.
var nonLeapYears = []int{1900, 2021}

func InvalidMonthHint(triggers ...string) candidate.GapHint {
	return candidate.GapHint{Tag: GapInvalidMonth, Triggers: triggers, Override: func(rng *rand.Rand, g candidate.Genes) candidate.Genes {
		g.Month = 13 + rng.Intn(3)
		return g
	}}
}

func InvalidDayHint(triggers ...string) candidate.GapHint {
	return candidate.GapHint{Tag: GapInvalidDay, Triggers: triggers, Override: func(rng *rand.Rand, g candidate.Genes) candidate.Genes {
		g.Day = 32 + rng.Intn(9)
		return g
	}}
}

func MinYearHint(triggers ...string) candidate.GapHint {
	return candidate.GapHint{Tag: GapMinYear, Triggers: triggers, Override: func(_ *rand.Rand, g candidate.Genes) candidate.Genes {
		g.Year = 0
		return g
	}}
}

func MaxYearHint(triggers ...string) candidate.GapHint {
	return candidate.GapHint{Tag: GapMaxYear, Triggers: triggers, Override: func(_ *rand.Rand, g candidate.Genes) candidate.Genes {
		g.Year = 9999
		return g
	}}
}

func InvalidFeb29Hint(triggers ...string) candidate.GapHint {
	return candidate.GapHint{Tag: GapInvalidFeb29, Triggers: triggers, Override: func(rng *rand.Rand, g candidate.Genes) candidate.Genes {
		g.Month = 2
		g.Day = 29
		g.Year = nonLeapYears[rng.Intn(len(nonLeapYears))]
		return g
	}}
}

func LeapYearHint(triggers ...string) candidate.GapHint {
	return candidate.GapHint{Tag: GapLeapYear, Triggers: triggers, Override: func(_ *rand.Rand, g candidate.Genes) candidate.Genes {
		g.Month = 2
		g.Day = 29
		g.Year = 2020
		return g
	}}
}

// AmbiguousHint draws a day and month that read both ways in a day-first or
// month-first layout.
func AmbiguousHint(triggers ...string) candidate.GapHint {
	return candidate.GapHint{Tag: GapAmbiguous, Triggers: triggers, Override: func(rng *rand.Rand, g candidate.Genes) candidate.Genes {
		g.Day = 1 + rng.Intn(12)
		g.Month = 1 + rng.Intn(12)
		if rng.Intn(2) == 0 {
			g.Format = candidate.FormatDMY
		} else {
			g.Format = candidate.FormatMDY
		}
		return g
	}}
}
