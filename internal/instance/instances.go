package instance

import "dategen/internal/candidate"

// Category names shared across instances.
const (
	CatValidLeapYear      = "Valid Leap Year"
	CatValid30DayMonth    = "Valid 30-Day Month"
	CatValid31DayMonth    = "Valid 31-Day Month"
	CatInvalidDayOver31   = "Invalid Day > 31"
	CatInvalidMonth       = "Invalid Month > 12"
	CatInvalidFeb29       = "Invalid Feb 29 Non-Leap"
	CatBoundaryMinYear    = "Boundary Min Year"
	CatBoundaryMaxYear    = "Boundary Max Year"
	CatInvalid30DayMonth  = "Invalid 30-Day Month"
	CatBoundary31Day      = "Boundary 31-Day Month"
	CatValidNonLeapFeb    = "Valid Non-Leap Feb"
	CatInvalidFeb29In1900 = "Invalid Feb 29 1900"
	CatInvalidFeb30       = "Invalid Feb 30"
	CatInvalidApr31       = "Invalid Apr 31"
	CatInvalidJun31       = "Invalid Jun 31"
	CatInvalidSep31       = "Invalid Sep 31"
	CatInvalidNov31       = "Invalid Nov 31"
	CatValidDMY           = "Valid DD/MM/YYYY"
	CatValidMDY           = "Valid MM/DD/YYYY"
	CatValidYMD           = "Valid YYYY/MM/DD"
	CatInvalidAmbiguous   = "Invalid Ambiguous"
)

// BoundaryPrefix marks categories harvested into the boundary bucket.
const BoundaryPrefix = "Boundary"

// PlainSeeds is the fixed seed subset of every single-layout instance.
var PlainSeeds = []candidate.Genes{
	{Day: 29, Month: 2, Year: 2020},
	{Day: 30, Month: 4, Year: 2023},
	{Day: 31, Month: 12, Year: 9999},
	{Day: 32, Month: 5, Year: 2023},
	{Day: 15, Month: 13, Year: 2023},
	{Day: 29, Month: 2, Year: 2021},
	{Day: 1, Month: 1, Year: 0},
	{Day: 1, Month: 1, Year: 9999},
}

// FormattedSeeds is the fixed seed subset of the format-variation instance.
var FormattedSeeds = []candidate.Genes{
	{Day: 15, Month: 5, Year: 2023, Format: candidate.FormatDMY},
	{Day: 5, Month: 15, Year: 2023, Format: candidate.FormatMDY},
	{Day: 15, Month: 5, Year: 2023, Format: candidate.FormatYMD},
	{Day: 5, Month: 6, Year: 2023, Format: candidate.FormatDMY},
}

func thirtyDayMonth(m int) bool {
	return m == 4 || m == 6 || m == 9 || m == 11
}

func thirtyOneDayMonth(m int) bool {
	switch m {
	case 1, 3, 5, 7, 8, 10, 12:
		return true
	}
	return false
}

func leapFeb29(g candidate.Genes) bool {
	return g.Month == 2 && g.Day == 29 && IsLeapYear(g.Year)
}

func nonLeapFeb29(g candidate.Genes) bool {
	return g.Month == 2 && g.Day == 29 && !IsLeapYear(g.Year)
}

func dayFirstOrMonthFirst(f candidate.Format) bool {
	return f == candidate.FormatDMY || f == candidate.FormatMDY
}

func inCalendarRange(g candidate.Genes) bool {
	return g.Day <= 31 && g.Month <= 12
}

var Original = Instance{
	Name:        "original",
	Label:       "Original",
	Description: "Full date validation with leap years and year boundaries",
	Validate:    ValidateDayFirst,
	Seeds:       PlainSeeds,
	Rules: candidate.MustRuleSet(
		candidate.Rule{Name: CatValidLeapYear, Predicate: leapFeb29},
		candidate.Rule{Name: CatValid30DayMonth, Predicate: func(g candidate.Genes) bool { return thirtyDayMonth(g.Month) && g.Day == 30 }},
		candidate.Rule{Name: CatValid31DayMonth, Predicate: func(g candidate.Genes) bool { return thirtyOneDayMonth(g.Month) && g.Day == 31 }},
		candidate.Rule{Name: CatInvalidDayOver31, Predicate: func(g candidate.Genes) bool { return g.Day > 31 }},
		candidate.Rule{Name: CatInvalidMonth, Predicate: func(g candidate.Genes) bool { return g.Month > 12 }},
		candidate.Rule{Name: CatInvalidFeb29, Predicate: nonLeapFeb29},
		candidate.Rule{Name: CatBoundaryMinYear, Predicate: func(g candidate.Genes) bool { return g.Year == 0 }},
		candidate.Rule{Name: CatBoundaryMaxYear, Predicate: func(g candidate.Genes) bool { return g.Year == 9999 }},
	).WithGaps(
		InvalidMonthHint(CatInvalidMonth),
		InvalidDayHint(CatInvalidDayOver31),
		MinYearHint(CatBoundaryMinYear),
		MaxYearHint(CatBoundaryMaxYear),
		InvalidFeb29Hint(CatInvalidFeb29),
		LeapYearHint(CatValidLeapYear),
	),
	Defaults: Params{
		PopulationSize:       50,
		Generations:          100,
		ValidMin:             10,
		InvalidMin:           10,
		BoundaryMin:          5,
		ForceFullGenerations: true,
	},
}

var Basic = Instance{
	Name:        "instance1",
	Label:       "Instance 1",
	Description: "Basic date validation without leap-year rules",
	Validate:    ValidateBasic,
	Seeds:       PlainSeeds,
	Rules: candidate.MustRuleSet(
		candidate.Rule{Name: CatValid30DayMonth, Predicate: func(g candidate.Genes) bool { return thirtyDayMonth(g.Month) && g.Day == 30 }},
		candidate.Rule{Name: CatInvalidDayOver31, Predicate: func(g candidate.Genes) bool { return g.Day > 31 }},
		candidate.Rule{Name: CatInvalidMonth, Predicate: func(g candidate.Genes) bool { return g.Month > 12 }},
		candidate.Rule{Name: CatInvalid30DayMonth, Predicate: func(g candidate.Genes) bool { return thirtyDayMonth(g.Month) && g.Day > 30 }},
		candidate.Rule{Name: CatBoundary31Day, Predicate: func(g candidate.Genes) bool { return g.Day == 31 && g.Month == 1 && g.Year == 2023 }},
	).WithGaps(
		InvalidMonthHint(CatInvalidMonth),
		InvalidDayHint(CatInvalidDayOver31),
	),
	Defaults: Params{
		PopulationSize: 30,
		Generations:    70,
		ValidMin:       5,
		InvalidMin:     5,
		BoundaryMin:    1,
	},
}

var LeapYears = Instance{
	Name:        "instance2",
	Label:       "Instance 2",
	Description: "Advanced leap years and year boundaries",
	Validate:    ValidateDayFirst,
	Seeds:       PlainSeeds,
	Rules: candidate.MustRuleSet(
		candidate.Rule{Name: CatValidLeapYear, Predicate: leapFeb29},
		candidate.Rule{Name: CatValidNonLeapFeb, Predicate: func(g candidate.Genes) bool { return g.Month == 2 && g.Day == 28 && g.Year == 1900 }},
		candidate.Rule{Name: CatInvalidFeb29, Predicate: nonLeapFeb29},
		candidate.Rule{Name: CatInvalidFeb29In1900, Predicate: func(g candidate.Genes) bool { return g.Month == 2 && g.Day == 29 && g.Year == 1900 }},
		candidate.Rule{Name: CatBoundaryMinYear, Predicate: func(g candidate.Genes) bool { return g.Year == 0 }},
		candidate.Rule{Name: CatBoundaryMaxYear, Predicate: func(g candidate.Genes) bool { return g.Year == 9999 }},
	).WithGaps(
		MinYearHint(CatBoundaryMinYear),
		MaxYearHint(CatBoundaryMaxYear),
		InvalidFeb29Hint(CatInvalidFeb29, CatInvalidFeb29In1900),
		LeapYearHint(CatValidLeapYear),
	),
	Defaults: Params{
		PopulationSize: 50,
		Generations:    100,
		ValidMin:       10,
		InvalidMin:     10,
		BoundaryMin:    2,
	},
}

// MonthDay has no gap hints: none of its categories has a known override.
var MonthDay = Instance{
	Name:        "instance3",
	Label:       "Instance 3",
	Description: "Complex month-day combinations",
	Validate:    ValidateDayFirst,
	Seeds:       PlainSeeds,
	Rules: candidate.MustRuleSet(
		candidate.Rule{Name: CatInvalidFeb30, Predicate: func(g candidate.Genes) bool { return g.Month == 2 && g.Day == 30 }},
		candidate.Rule{Name: CatInvalidApr31, Predicate: func(g candidate.Genes) bool { return g.Month == 4 && g.Day == 31 }},
		candidate.Rule{Name: CatInvalidJun31, Predicate: func(g candidate.Genes) bool { return g.Month == 6 && g.Day == 31 }},
		candidate.Rule{Name: CatInvalidSep31, Predicate: func(g candidate.Genes) bool { return g.Month == 9 && g.Day == 31 }},
		candidate.Rule{Name: CatInvalidNov31, Predicate: func(g candidate.Genes) bool { return g.Month == 11 && g.Day == 31 }},
	),
	Defaults: Params{
		PopulationSize: 40,
		Generations:    80,
		ValidMin:       0,
		InvalidMin:     10,
		BoundaryMin:    0,
	},
}

var Formats = Instance{
	Name:        "instance4",
	Label:       "Instance 4",
	Description: "Format variations across day-first, month-first and year-first layouts",
	Validate:    ValidateFormatted,
	Formatted:   true,
	Seeds:       FormattedSeeds,
	Rules: candidate.MustRuleSet(
		candidate.Rule{Name: CatValidDMY, Predicate: func(g candidate.Genes) bool { return g.Format == candidate.FormatDMY && inCalendarRange(g) }},
		candidate.Rule{Name: CatValidMDY, Predicate: func(g candidate.Genes) bool { return g.Format == candidate.FormatMDY && inCalendarRange(g) }},
		candidate.Rule{Name: CatValidYMD, Predicate: func(g candidate.Genes) bool { return g.Format == candidate.FormatYMD && inCalendarRange(g) }},
		candidate.Rule{Name: CatInvalidAmbiguous, Predicate: func(g candidate.Genes) bool {
			return g.Day <= 12 && g.Month <= 12 && dayFirstOrMonthFirst(g.Format)
		}},
	).WithGaps(
		AmbiguousHint(CatInvalidAmbiguous),
	),
	Defaults: Params{
		PopulationSize:       50,
		Generations:          100,
		ValidMin:             10,
		InvalidMin:           10,
		ForceFullGenerations: true,
	},
}
