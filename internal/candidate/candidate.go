package candidate

import (
	"fmt"
	"strings"

	"dategen/internal/model"
)

// Format is the layout tag of a formatted candidate. FormatNone marks the
// plain single-layout variant.
type Format string

const (
	FormatNone Format = ""
	FormatDMY  Format = "DD/MM/YYYY"
	FormatMDY  Format = "MM/DD/YYYY"
	FormatYMD  Format = "YYYY/MM/DD"
)

// Layouts lists the supported layouts of the formatted variant.
var Layouts = []Format{FormatDMY, FormatMDY, FormatYMD}

func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatNone, FormatDMY, FormatMDY, FormatYMD:
		return Format(s), nil
	default:
		return FormatNone, fmt.Errorf("unsupported date format: %s", s)
	}
}

// Genes are the evolvable parts of a candidate. Values are never clamped
// here; out-of-range genes are how invalid categories get discovered.
type Genes struct {
	Day    int
	Month  int
	Year   int
	Format Format
}

func (g Genes) Formatted() bool {
	return g.Format != FormatNone
}

// Canonical renders the genes per their layout.
func (g Genes) Canonical() string {
	switch g.Format {
	case FormatMDY:
		return fmt.Sprintf("%02d/%02d/%04d", g.Month, g.Day, g.Year)
	case FormatYMD:
		return fmt.Sprintf("%04d/%02d/%02d", g.Year, g.Month, g.Day)
	default:
		return fmt.Sprintf("%02d/%02d/%04d", g.Day, g.Month, g.Year)
	}
}

// Space binds the run constants every candidate is built against.
type Space struct {
	Rules    *RuleSet
	Validate Validator
}

// Candidate is one immutable test case. Derived facts are computed once at
// construction from the genes.
type Candidate struct {
	genes      Genes
	canonical  string
	valid      bool
	categories []string
	space      *Space
}

// Build constructs a candidate. It is deterministic and total.
func (s *Space) Build(g Genes) Candidate {
	c := Candidate{
		genes:     g,
		canonical: g.Canonical(),
		space:     s,
	}
	if s.Validate != nil {
		c.valid = s.Validate(c.canonical, g.Format)
	}
	if s.Rules != nil {
		c.categories = s.Rules.Classify(g)
	}
	return c
}

func (c Candidate) Genes() Genes            { return c.genes }
func (c Candidate) Day() int                { return c.genes.Day }
func (c Candidate) Month() int              { return c.genes.Month }
func (c Candidate) Year() int               { return c.genes.Year }
func (c Candidate) Format() Format          { return c.genes.Format }
func (c Candidate) CanonicalString() string { return c.canonical }
func (c Candidate) IsValid() bool           { return c.valid }
func (c Candidate) Space() *Space           { return c.space }

func (c Candidate) Categories() []string {
	return append([]string(nil), c.categories...)
}

func (c Candidate) CategoryCount() int {
	return len(c.categories)
}

// HasCategory reports whether the candidate falls in the named category.
func (c Candidate) HasCategory(name string) bool {
	for _, cat := range c.categories {
		if cat == name {
			return true
		}
	}
	return false
}

// Key identifies a candidate for equality and deduplication.
func (c Candidate) Key() string {
	return c.canonical + "|" + string(c.genes.Format)
}

// Equal compares candidates on canonical string and format only.
func Equal(a, b Candidate) bool {
	return a.canonical == b.canonical && a.genes.Format == b.genes.Format
}

func (c Candidate) String() string {
	validity := "Invalid"
	if c.valid {
		validity = "Valid"
	}
	cats := "General"
	if len(c.categories) > 0 {
		cats = strings.Join(c.categories, ", ")
	}
	if c.genes.Formatted() {
		return fmt.Sprintf("%s (%s) (%s: %s)", c.canonical, c.genes.Format, validity, cats)
	}
	return fmt.Sprintf("%s (%s: %s)", c.canonical, validity, cats)
}

// Snapshot exports the candidate. Plain candidates report the default
// DD/MM/YYYY layout.
func (c Candidate) Snapshot(instance string) model.CaseRecord {
	format := c.genes.Format
	if format == FormatNone {
		format = FormatDMY
	}
	return model.CaseRecord{
		Instance:   instance,
		Day:        c.genes.Day,
		Month:      c.genes.Month,
		Year:       c.genes.Year,
		Format:     string(format),
		Date:       c.canonical,
		Valid:      c.valid,
		Categories: c.Categories(),
	}
}

// Snapshots exports a whole population in order.
func Snapshots(instance string, population []Candidate) []model.CaseRecord {
	out := make([]model.CaseRecord, 0, len(population))
	for _, c := range population {
		out = append(out, c.Snapshot(instance))
	}
	return out
}
