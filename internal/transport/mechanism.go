package transport

import (
	"errors"
	"fmt"
	"strings"
)

// Mechanism identifies the membrane transport model of a simulation.
type Mechanism string

const (
	SimpleDiffusion             Mechanism = "simple_diffusion"
	FacilitatedDiffusionCarrier Mechanism = "facilitated_diffusion_carrier"
	ActiveTransport             Mechanism = "active_transport"
)

// ErrUnknownMechanism is returned for a mechanism with no registered variant.
var ErrUnknownMechanism = errors.New("unknown transport mechanism")

// Category names.
const (
	CategoryDensity              = "density"
	CategoryFlux                 = "flux"
	CategoryGradient             = "gradient"
	CategoryTotalNetAmount       = "total_net_amount"
	CategoryAdjustedFlux         = "adjusted_flux"
	CategoryReceptorDensity      = "receptor_density"
	CategoryTotalReceptorDensity = "total_receptor_density"
	CategoryReceptorKinetics     = "receptor_kinetics"
	CategoryEnergyCoupling       = "energy_coupling"
	CategoryActiveFlux           = "active_flux"
)

// Variable is one source column of a category and its legend label.
type Variable struct {
	Column string
	Label  string
}

// Category groups the columns plotted together in one panel.
type Category struct {
	Name      string
	Variables []Variable
}

// Columns returns the source column names of the category.
func (c Category) Columns() []string {
	cols := make([]string, len(c.Variables))
	for i, v := range c.Variables {
		cols[i] = v.Column
	}
	return cols
}

// variant declares the categories of one mechanism for a substrate.
type variant func(substrate string) []Category

var variants = map[Mechanism]variant{
	SimpleDiffusion: func(s string) []Category {
		return append(commonCategories(s),
			Category{Name: CategoryAdjustedFlux, Variables: []Variable{
				{Column: "adjusted_" + s + "_flux", Label: fmt.Sprintf("Adjusted %s flux (amol/min)", s)},
			}},
		)
	},
	FacilitatedDiffusionCarrier: func(s string) []Category {
		return append(commonCategories(s),
			Category{Name: CategoryReceptorDensity, Variables: []Variable{
				{Column: "I_" + s, Label: fmt.Sprintf("Internal %s density (mM)", s)},
				{Column: "E_" + s, Label: fmt.Sprintf("External %s density (mM)", s)},
				{Column: "Rc_" + s, Label: fmt.Sprintf("%s receptor density (mM)", s)},
				{Column: "Rcb_" + s, Label: fmt.Sprintf("%s bound receptor density (mM)", s)},
			}},
			Category{Name: CategoryTotalReceptorDensity, Variables: []Variable{
				{Column: "total_Rc_" + s, Label: fmt.Sprintf("Total %s receptor density (mM)", s)},
			}},
			Category{Name: CategoryReceptorKinetics, Variables: []Variable{
				{Column: "binding_rate_" + s, Label: fmt.Sprintf("%s receptor binding (1/min)", s)},
				{Column: "recycling_rate_" + s, Label: fmt.Sprintf("%s receptor recycling (1/min)", s)},
				{Column: "endocytosis_rate_" + s, Label: fmt.Sprintf("%s receptor endocytosis (1/min)", s)},
			}},
		)
	},
	ActiveTransport: func(s string) []Category {
		return append(commonCategories(s),
			Category{Name: CategoryEnergyCoupling, Variables: []Variable{
				{Column: "ATP_" + s, Label: fmt.Sprintf("ATP coupled to %s transport (mM)", s)},
				{Column: "ADP_" + s, Label: fmt.Sprintf("ADP released by %s transport (mM)", s)},
			}},
			Category{Name: CategoryActiveFlux, Variables: []Variable{
				{Column: "pump_" + s + "_flux", Label: fmt.Sprintf("Pumped %s flux (amol/min)", s)},
			}},
		)
	},
}

func commonCategories(s string) []Category {
	return []Category{
		{Name: CategoryDensity, Variables: []Variable{
			{Column: "I_" + s, Label: fmt.Sprintf("Internal %s density (mM)", s)},
			{Column: "E_" + s, Label: fmt.Sprintf("External %s density (mM)", s)},
		}},
		{Name: CategoryFlux, Variables: []Variable{
			{Column: s + "_flux", Label: fmt.Sprintf("%s flux (amol/min)", s)},
		}},
		{Name: CategoryGradient, Variables: []Variable{
			{Column: "D_" + s, Label: fmt.Sprintf("%s concentration gradient (mM)", s)},
		}},
		{Name: CategoryTotalNetAmount, Variables: []Variable{
			{Column: TotalColumn(s), Label: fmt.Sprintf("Total net amount of %s (amol)", s)},
		}},
	}
}

// TotalColumn is the cumulative net amount column of a substrate.
func TotalColumn(substrate string) string {
	return "total_" + substrate
}

// Mechanisms lists the supported mechanisms in a stable order.
func Mechanisms() []Mechanism {
	return []Mechanism{SimpleDiffusion, FacilitatedDiffusionCarrier, ActiveTransport}
}

// ParseMechanism validates a mechanism name.
func ParseMechanism(s string) (Mechanism, error) {
	m := Mechanism(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := variants[m]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownMechanism, s)
	}
	return m, nil
}

// Categories returns the categories a mechanism declares for substrate.
func Categories(m Mechanism, substrate string) ([]Category, error) {
	v, ok := variants[m]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMechanism, string(m))
	}
	return v(substrate), nil
}
