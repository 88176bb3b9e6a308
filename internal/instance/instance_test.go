package instance

import (
	"errors"
	"math/rand"
	"reflect"
	"testing"

	"dategen/internal/candidate"
)

func TestIsValidDate(t *testing.T) {
	cases := map[string]bool{
		"29/02/2020": true,
		"29/02/2021": false,
		"29/02/1900": false,
		"29/02/2000": true,
		"31/04/2023": false,
		"30/04/2023": true,
		"31/12/9999": true,
		"01/01/0000": true,
		"32/05/2023": false,
		"15/13/2023": false,
		"1/1/2023":   false,
		"00/01/2023": false,
	}
	for date, want := range cases {
		if got := IsValidDate(date); got != want {
			t.Fatalf("IsValidDate(%s) = %v, want %v", date, got, want)
		}
	}
}

func TestValidateBasicIgnoresLeapYears(t *testing.T) {
	if !ValidateBasic("29/02/2021", candidate.FormatNone) {
		t.Fatal("basic validator should accept Feb 29 in any year")
	}
	if !ValidateBasic("31/02/2021", candidate.FormatNone) {
		t.Fatal("basic validator should accept Feb 31")
	}
	if ValidateBasic("31/06/2021", candidate.FormatNone) {
		t.Fatal("basic validator should still reject 31 in a 30-day month")
	}
}

func TestValidateFormatted(t *testing.T) {
	cases := []struct {
		genes candidate.Genes
		want  bool
	}{
		{candidate.Genes{Day: 15, Month: 5, Year: 2023, Format: candidate.FormatDMY}, true},
		{candidate.Genes{Day: 15, Month: 5, Year: 2023, Format: candidate.FormatMDY}, true},
		{candidate.Genes{Day: 15, Month: 5, Year: 2023, Format: candidate.FormatYMD}, true},
		{candidate.Genes{Day: 5, Month: 15, Year: 2023, Format: candidate.FormatMDY}, false},
		{candidate.Genes{Day: 29, Month: 2, Year: 2021, Format: candidate.FormatYMD}, false},
		{candidate.Genes{Day: 29, Month: 2, Year: 2024, Format: candidate.FormatYMD}, true},
	}
	for _, tc := range cases {
		if got := ValidateFormatted(tc.genes.Canonical(), tc.genes.Format); got != tc.want {
			t.Fatalf("ValidateFormatted(%s, %s) = %v, want %v", tc.genes.Canonical(), tc.genes.Format, got, tc.want)
		}
	}
	if ValidateFormatted("2023/05/15", candidate.FormatDMY) {
		t.Fatal("layout mismatch should be rejected")
	}
	if ValidateFormatted("15/05/2023", candidate.FormatNone) {
		t.Fatal("missing layout should be rejected")
	}
}

func TestIsLeapYear(t *testing.T) {
	for year, want := range map[int]bool{2020: true, 2021: false, 1900: false, 2000: true, 0: true} {
		if IsLeapYear(year) != want {
			t.Fatalf("IsLeapYear(%d) != %v", year, want)
		}
	}
}

func TestOriginalSeedsCoverEveryCategory(t *testing.T) {
	space := Original.Space()
	covered := map[string]struct{}{}
	for _, g := range Original.Seeds {
		for _, cat := range space.Build(g).Categories() {
			covered[cat] = struct{}{}
		}
	}
	if len(covered) != Original.Rules.Len() {
		t.Fatalf("seeds cover %d of %d categories: %v", len(covered), Original.Rules.Len(), covered)
	}
}

func TestSeedCategories(t *testing.T) {
	space := Original.Space()
	c := space.Build(candidate.Genes{Day: 31, Month: 12, Year: 9999})
	want := []string{CatValid31DayMonth, CatBoundaryMaxYear}
	if !reflect.DeepEqual(c.Categories(), want) {
		t.Fatalf("unexpected categories: %v", c.Categories())
	}
	if !c.IsValid() {
		t.Fatal("expected 31/12/9999 to be valid")
	}

	leap := LeapYears.Space().Build(candidate.Genes{Day: 29, Month: 2, Year: 1900})
	if !reflect.DeepEqual(leap.Categories(), []string{CatInvalidFeb29, CatInvalidFeb29In1900}) {
		t.Fatalf("unexpected leap categories: %v", leap.Categories())
	}

	ambiguous := Formats.Space().Build(candidate.Genes{Day: 5, Month: 6, Year: 2023, Format: candidate.FormatDMY})
	if !reflect.DeepEqual(ambiguous.Categories(), []string{CatValidDMY, CatInvalidAmbiguous}) {
		t.Fatalf("unexpected format categories: %v", ambiguous.Categories())
	}
}

func TestGapHintsOverrideGenes(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	base := candidate.Genes{Day: 10, Month: 10, Year: 1500}

	for i := 0; i < 50; i++ {
		if g := InvalidMonthHint().Override(rng, base); g.Month < 13 || g.Month > 15 || g.Day != 10 {
			t.Fatalf("invalid month override: %+v", g)
		}
		if g := InvalidDayHint().Override(rng, base); g.Day < 32 || g.Day > 40 || g.Month != 10 {
			t.Fatalf("invalid day override: %+v", g)
		}
		if g := InvalidFeb29Hint().Override(rng, base); g.Day != 29 || g.Month != 2 || IsLeapYear(g.Year) {
			t.Fatalf("invalid Feb 29 override: %+v", g)
		}
		g := AmbiguousHint().Override(rng, base)
		if g.Day > 12 || g.Month > 12 || (g.Format != candidate.FormatDMY && g.Format != candidate.FormatMDY) {
			t.Fatalf("ambiguous override: %+v", g)
		}
	}
	if g := MinYearHint().Override(rng, base); g.Year != 0 {
		t.Fatalf("min year override: %+v", g)
	}
	if g := MaxYearHint().Override(rng, base); g.Year != 9999 {
		t.Fatalf("max year override: %+v", g)
	}
	if g := LeapYearHint().Override(rng, base); g != (candidate.Genes{Day: 29, Month: 2, Year: 2020}) {
		t.Fatalf("leap year override: %+v", g)
	}
}

func TestOriginalGapOrderLetsLeapYearWin(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	missing := map[string]struct{}{}
	for _, name := range Original.Rules.Names() {
		missing[name] = struct{}{}
	}
	g := Original.Rules.ApplyGaps(rng, candidate.Genes{Day: 5, Month: 5, Year: 2000}, missing)
	if g != (candidate.Genes{Day: 29, Month: 2, Year: 2020}) {
		t.Fatalf("expected leap year override last, got %+v", g)
	}
}

func TestResolve(t *testing.T) {
	inst, err := Resolve(" Instance4 ")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if inst.Label != "Instance 4" || !inst.Formatted {
		t.Fatalf("unexpected instance: %+v", inst)
	}
	if _, err := Resolve("instance9"); !errors.Is(err, ErrUnknownInstance) {
		t.Fatalf("expected ErrUnknownInstance, got %v", err)
	}
}

func TestNamesSorted(t *testing.T) {
	want := []string{"instance1", "instance2", "instance3", "instance4", "original"}
	if got := Names(); !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected names: %v", got)
	}
}

func TestRegisterValidation(t *testing.T) {
	if err := Register(Instance{}); err == nil {
		t.Fatal("expected missing name error")
	}
	if err := Register(Instance{Name: "empty"}); err == nil {
		t.Fatal("expected missing rule set error")
	}
	rules := candidate.MustRuleSet(candidate.Rule{Name: "x", Predicate: func(candidate.Genes) bool { return true }})
	if err := Register(Instance{Name: "novalidator", Rules: rules}); err == nil {
		t.Fatal("expected missing validator error")
	}
	if err := Register(Instance{Name: "ORIGINAL", Rules: rules, Validate: ValidateDayFirst}); err == nil {
		t.Fatal("expected duplicate registration error")
	}
}

func TestDefaultsMatchDocumentedRuns(t *testing.T) {
	if Original.Defaults.PopulationSize != 50 || !Original.Defaults.ForceFullGenerations {
		t.Fatalf("unexpected original defaults: %+v", Original.Defaults)
	}
	if Basic.Defaults.Generations != 70 || Basic.Defaults.BoundaryMin != 1 {
		t.Fatalf("unexpected basic defaults: %+v", Basic.Defaults)
	}
	if MonthDay.Defaults.ValidMin != 0 || MonthDay.Defaults.InvalidMin != 10 {
		t.Fatalf("unexpected month-day defaults: %+v", MonthDay.Defaults)
	}
}
