package lifecycle

import (
	"fmt"
	"sort"
)

// Rates maps vital-rate name → value on the natural scale. Values are
// assumed valid by construction (probabilities in [0,1], positive rates);
// Assemble does not re-validate. See ValidateRates for the optional
// diagnostic pass.
type Rates map[string]float64

// Term is one product term of a cell formula:
//
//	Const · Π rates · Π (1 − complements)
//
// Complements express "did not take the other pathway" factors
// (e.g. survived but did not mature) without opening the formula
// language beyond products. A zero Const with at least one factor is
// read as 1, so struct literals without an explicit constant still
// mean a plain product.
type Term struct {
	Const       float64
	Rates       []string
	Complements []string
}

// Prod builds a plain product term.
func Prod(c float64, rates ...string) Term {
	return Term{Const: c, Rates: rates}
}

// ProdCompl builds a product term with complement factors (1 − rate).
func ProdCompl(c float64, rates []string, complements []string) Term {
	return Term{Const: c, Rates: rates, Complements: complements}
}

// Cell is one structurally nonzero matrix entry. Its value is the sum
// of its terms; several Cells may target the same (Row, Col), in which
// case their values add (age classes sharing a destination row).
type Cell struct {
	Row, Col int
	Terms    []Term
}

// Topology is the fixed life-cycle structure: stage count plus the
// closed set of structurally nonzero cells. Immutable after Validate.
type Topology struct {
	Name   string
	Stages int
	Cells  []Cell
}

// Validate checks structural consistency: positive stage count, every
// cell inside [0,Stages), every term carrying at least one factor.
// Returns ErrMalformedTopology on the first violation.
func (t *Topology) Validate() error {
	if t.Stages <= 0 {
		return fmt.Errorf("%w: %q: stages %d", ErrMalformedTopology, t.Name, t.Stages)
	}
	if len(t.Cells) == 0 {
		return fmt.Errorf("%w: %q: no cells declared", ErrMalformedTopology, t.Name)
	}
	for _, c := range t.Cells {
		if c.Row < 0 || c.Row >= t.Stages || c.Col < 0 || c.Col >= t.Stages {
			return fmt.Errorf("%w: %q: cell (%d,%d) outside %dx%d",
				ErrMalformedTopology, t.Name, c.Row, c.Col, t.Stages, t.Stages)
		}
		if len(c.Terms) == 0 {
			return fmt.Errorf("%w: %q: cell (%d,%d) has no terms",
				ErrMalformedTopology, t.Name, c.Row, c.Col)
		}
		for _, term := range c.Terms {
			if len(term.Rates) == 0 && len(term.Complements) == 0 && term.Const == 0 {
				return fmt.Errorf("%w: %q: empty term at cell (%d,%d)",
					ErrMalformedTopology, t.Name, c.Row, c.Col)
			}
		}
	}

	return nil
}

// RateNames returns the sorted set of all rate names the topology's
// formulas reference. Useful for checking model coverage up front.
func (t *Topology) RateNames() []string {
	seen := make(map[string]struct{})
	for _, c := range t.Cells {
		for _, term := range c.Terms {
			for _, r := range term.Rates {
				seen[r] = struct{}{}
			}
			for _, r := range term.Complements {
				seen[r] = struct{}{}
			}
		}
	}
	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)

	return names
}

// SexRatio is the birth sex ratio factor shared by the stock
// topologies: the female share of offspring at birth.
const SexRatio = 0.5

// AgeStructuredFemale is the 5-stage single-sex female life cycle:
// stage 0 juvenile, stages 1–4 adult age classes, stage 4 a terminal
// plus-group collapsing all ages ≥ 4. Fertility row 0 is fed by every
// adult class: survival · 0.5 · breeding · litter size · denning
// survival. Sub-diagonal cells carry survival transitions; the
// plus-group retains itself with adult-4 survival.
//
// Rate names: survivalJuvenile, survivalAdult1..survivalAdult4,
// breeding1..breeding4, litterSize, denningSurvival.
func AgeStructuredFemale() Topology {
	cells := []Cell{
		{Row: 1, Col: 0, Terms: []Term{Prod(1, "survivalJuvenile")}},
		{Row: 2, Col: 1, Terms: []Term{Prod(1, "survivalAdult1")}},
		{Row: 3, Col: 2, Terms: []Term{Prod(1, "survivalAdult2")}},
		{Row: 4, Col: 3, Terms: []Term{Prod(1, "survivalAdult3")}},
		{Row: 4, Col: 4, Terms: []Term{Prod(1, "survivalAdult4")}},
	}
	for a := 1; a <= 4; a++ {
		cells = append(cells, Cell{
			Row: 0, Col: a,
			Terms: []Term{Prod(SexRatio,
				fmt.Sprintf("survivalAdult%d", a),
				fmt.Sprintf("breeding%d", a),
				"litterSize", "denningSurvival")},
		})
	}

	return Topology{Name: "age-structured-female", Stages: 5, Cells: cells}
}

// TwoSexJuvenileAdult is the two-sex, two-age-class life cycle:
// stage 0 juvenile female, 1 adult female, 2 juvenile male, 3 adult
// male. Survival is sex-specific; the shared fertility pathway routes
// female adult survival · recruitment through the birth sex ratio into
// both juvenile stages.
//
// Rate names: survivalJuvenileFemale, survivalAdultFemale,
// survivalJuvenileMale, survivalAdultMale, recruitment.
func TwoSexJuvenileAdult() Topology {
	return Topology{
		Name:   "two-sex-juvenile-adult",
		Stages: 4,
		Cells: []Cell{
			{Row: 0, Col: 1, Terms: []Term{Prod(SexRatio, "survivalAdultFemale", "recruitment")}},
			{Row: 2, Col: 1, Terms: []Term{Prod(1 - SexRatio, "survivalAdultFemale", "recruitment")}},
			{Row: 1, Col: 0, Terms: []Term{Prod(1, "survivalJuvenileFemale")}},
			{Row: 1, Col: 1, Terms: []Term{Prod(1, "survivalAdultFemale")}},
			{Row: 3, Col: 2, Terms: []Term{Prod(1, "survivalJuvenileMale")}},
			{Row: 3, Col: 3, Terms: []Term{Prod(1, "survivalAdultMale")}},
		},
	}
}

// ThreeStageBreeder is the 3-stage life cycle: stage 0 immature,
// 1 philopatric non-breeder, 2 breeder. Immatures either recruit
// directly to breeder or settle as philopatric; philopatrics mature
// into breeders. Breeders produce immatures.
//
// Rate names: survivalImmature, survivalPhilopatric, survivalBreeder,
// directRecruitment, maturation, breedingPropensity, fecundity.
func ThreeStageBreeder() Topology {
	return Topology{
		Name:   "three-stage-breeder",
		Stages: 3,
		Cells: []Cell{
			{Row: 1, Col: 0, Terms: []Term{
				ProdCompl(1, []string{"survivalImmature"}, []string{"directRecruitment"}),
			}},
			{Row: 2, Col: 0, Terms: []Term{Prod(1, "survivalImmature", "directRecruitment")}},
			{Row: 1, Col: 1, Terms: []Term{
				ProdCompl(1, []string{"survivalPhilopatric"}, []string{"maturation"}),
			}},
			{Row: 2, Col: 1, Terms: []Term{Prod(1, "survivalPhilopatric", "maturation")}},
			{Row: 2, Col: 2, Terms: []Term{Prod(1, "survivalBreeder")}},
			{Row: 0, Col: 2, Terms: []Term{
				Prod(SexRatio, "survivalBreeder", "breedingPropensity", "fecundity"),
			}},
		},
	}
}
