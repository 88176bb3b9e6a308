package candidate

import (
	"math/rand"
	"reflect"
	"testing"
)

func testSpace(t *testing.T) *Space {
	t.Helper()
	rules, err := NewRuleSet(
		Rule{Name: "A", Predicate: func(g Genes) bool { return g.Day > 31 }},
		Rule{Name: "B", Predicate: func(g Genes) bool { return g.Month > 12 }},
		Rule{Name: "Ambiguous", Predicate: func(g Genes) bool {
			return g.Day <= 12 && g.Month <= 12 && (g.Format == FormatDMY || g.Format == FormatMDY)
		}},
	)
	if err != nil {
		t.Fatalf("new rule set: %v", err)
	}
	validate := func(date string, _ Format) bool { return date == "01/01/2000" }
	return &Space{Rules: rules, Validate: validate}
}

func TestBuildDerivesCanonicalValidityAndCategories(t *testing.T) {
	space := testSpace(t)

	c := space.Build(Genes{Day: 32, Month: 13, Year: 7})
	if c.CanonicalString() != "32/13/0007" {
		t.Fatalf("unexpected canonical string: %s", c.CanonicalString())
	}
	if c.IsValid() {
		t.Fatal("expected invalid candidate")
	}
	if got := c.Categories(); !reflect.DeepEqual(got, []string{"A", "B"}) {
		t.Fatalf("unexpected categories: %v", got)
	}

	valid := space.Build(Genes{Day: 1, Month: 1, Year: 2000})
	if !valid.IsValid() {
		t.Fatal("expected validator to accept 01/01/2000")
	}
	if valid.CategoryCount() != 0 {
		t.Fatalf("expected no categories, got %v", valid.Categories())
	}
}

func TestCanonicalFollowsLayout(t *testing.T) {
	cases := []struct {
		format Format
		want   string
	}{
		{FormatNone, "05/06/2023"},
		{FormatDMY, "05/06/2023"},
		{FormatMDY, "06/05/2023"},
		{FormatYMD, "2023/06/05"},
	}
	for _, tc := range cases {
		got := Genes{Day: 5, Month: 6, Year: 2023, Format: tc.format}.Canonical()
		if got != tc.want {
			t.Fatalf("format %q: got %s want %s", tc.format, got, tc.want)
		}
	}
}

func TestGenesAreNotClamped(t *testing.T) {
	space := testSpace(t)
	c := space.Build(Genes{Day: -3, Month: 0, Year: 12345})
	if c.Day() != -3 || c.Month() != 0 || c.Year() != 12345 {
		t.Fatalf("genes were altered: %+v", c.Genes())
	}
	if c.CanonicalString() != "-3/00/12345" {
		t.Fatalf("unexpected canonical string: %s", c.CanonicalString())
	}
}

func TestEqualUsesCanonicalStringAndFormat(t *testing.T) {
	space := testSpace(t)

	dmy := space.Build(Genes{Day: 5, Month: 6, Year: 2023, Format: FormatDMY})
	mdy := space.Build(Genes{Day: 6, Month: 5, Year: 2023, Format: FormatMDY})
	if dmy.CanonicalString() != mdy.CanonicalString() {
		t.Fatal("expected identical canonical strings")
	}
	if Equal(dmy, mdy) {
		t.Fatal("expected different formats to compare unequal")
	}

	plainA := space.Build(Genes{Day: 5, Month: 6, Year: 2023})
	plainB := space.Build(Genes{Day: 5, Month: 6, Year: 2023})
	if !Equal(plainA, plainB) {
		t.Fatal("expected equal candidates for identical genes")
	}
	if plainA.Key() != plainB.Key() {
		t.Fatal("expected identical keys")
	}
}

func TestCategoriesAreCopiedOnRead(t *testing.T) {
	space := testSpace(t)
	c := space.Build(Genes{Day: 40, Month: 1, Year: 1})
	cats := c.Categories()
	cats[0] = "mutated"
	if c.Categories()[0] != "A" {
		t.Fatal("candidate categories were mutated through accessor")
	}
}

func TestSnapshotDefaultsPlainFormat(t *testing.T) {
	space := testSpace(t)

	plain := space.Build(Genes{Day: 32, Month: 1, Year: 2000}).Snapshot("Original")
	if plain.Format != string(FormatDMY) {
		t.Fatalf("expected default layout, got %q", plain.Format)
	}
	if plain.Instance != "Original" || plain.Date != "32/01/2000" || plain.Validity() != "Invalid" {
		t.Fatalf("unexpected snapshot: %+v", plain)
	}

	formatted := space.Build(Genes{Day: 5, Month: 6, Year: 2023, Format: FormatYMD}).Snapshot("Instance 4")
	if formatted.Format != string(FormatYMD) || formatted.Date != "2023/06/05" {
		t.Fatalf("unexpected formatted snapshot: %+v", formatted)
	}
}

func TestStringRendering(t *testing.T) {
	space := testSpace(t)
	if got := space.Build(Genes{Day: 1, Month: 1, Year: 2000}).String(); got != "01/01/2000 (Valid: General)" {
		t.Fatalf("unexpected string: %s", got)
	}
	if got := space.Build(Genes{Day: 5, Month: 6, Year: 2023, Format: FormatMDY}).String(); got != "06/05/2023 (MM/DD/YYYY) (Invalid: Ambiguous)" {
		t.Fatalf("unexpected string: %s", got)
	}
}

func TestNewRuleSetRejectsDuplicatesAndEmpty(t *testing.T) {
	always := func(Genes) bool { return true }
	if _, err := NewRuleSet(Rule{Name: "A", Predicate: always}, Rule{Name: "A", Predicate: always}); err == nil {
		t.Fatal("expected duplicate name error")
	}
	if _, err := NewRuleSet(Rule{Name: " ", Predicate: always}); err == nil {
		t.Fatal("expected empty name error")
	}
	if _, err := NewRuleSet(Rule{Name: "A"}); err == nil {
		t.Fatal("expected missing predicate error")
	}
}

func TestApplyGapsRunsTriggeredHintsInOrder(t *testing.T) {
	always := func(Genes) bool { return false }
	rules := MustRuleSet(
		Rule{Name: "Invalid Month > 12", Predicate: always},
		Rule{Name: "Valid Leap Year", Predicate: always},
	).WithGaps(
		GapHint{Tag: "month", Triggers: []string{"Invalid Month > 12"}, Override: func(_ *rand.Rand, g Genes) Genes {
			g.Month = 14
			g.Day = 3
			return g
		}},
		GapHint{Tag: "leap", Triggers: []string{"Valid Leap Year"}, Override: func(_ *rand.Rand, g Genes) Genes {
			g.Month, g.Day, g.Year = 2, 29, 2020
			return g
		}},
	)
	rng := rand.New(rand.NewSource(1))
	base := Genes{Day: 10, Month: 10, Year: 1999}

	if got := rules.ApplyGaps(rng, base, nil); got != base {
		t.Fatalf("expected no change without gaps, got %+v", got)
	}

	got := rules.ApplyGaps(rng, base, map[string]struct{}{"Invalid Month > 12": {}})
	if got.Month != 14 || got.Day != 3 || got.Year != 1999 {
		t.Fatalf("unexpected month override: %+v", got)
	}

	got = rules.ApplyGaps(rng, base, map[string]struct{}{"Invalid Month > 12": {}, "Valid Leap Year": {}})
	if got.Month != 2 || got.Day != 29 || got.Year != 2020 {
		t.Fatalf("expected later hint to win: %+v", got)
	}

	if got := rules.ApplyGaps(rng, base, map[string]struct{}{"Custom": {}}); got != base {
		t.Fatalf("expected no bias for untriggered category, got %+v", got)
	}
}

func TestParseFormat(t *testing.T) {
	if f, err := ParseFormat("YYYY/MM/DD"); err != nil || f != FormatYMD {
		t.Fatalf("parse format: %v %v", f, err)
	}
	if _, err := ParseFormat("DD-MM-YYYY"); err == nil {
		t.Fatal("expected unsupported format error")
	}
}
