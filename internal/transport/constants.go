package transport

import (
	"fmt"
	"os"
	"strings"

	"github.com/vk/pctransport/internal/table"
)

// Constants are the per-run values fixed at simulation start.
type Constants struct {
	Substrate       string
	Mechanism       Mechanism
	InitialInternal float64
	InitialExternal float64
	Diffusion       float64

	// Permeability is only set for simple diffusion.
	Permeability    float64
	HasPermeability bool

	// Receptors holds initial receptor densities for carrier-mediated
	// transport when the table carries them.
	Receptors []NamedValue
}

// NamedValue is an optional constant reported by name.
type NamedValue struct {
	Name  string
	Value float64
}

// ExtractConstants reads the start-of-run constants of substrate from the
// first row of t. Missing common constants are errors; mechanism-specific
// constants are only looked up for the mechanism that defines them.
func ExtractConstants(t *table.Table, substrate string, m Mechanism) (*Constants, error) {
	if _, ok := variants[m]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMechanism, string(m))
	}
	if t.Len() == 0 {
		return nil, fmt.Errorf("cannot read constants of '%s' from an empty table", substrate)
	}

	first := func(col string) (float64, error) {
		v, ok := t.Value(0, col)
		if !ok {
			return 0, fmt.Errorf("%w: %s", ErrMissingColumn, col)
		}
		return v, nil
	}

	c := &Constants{Substrate: substrate, Mechanism: m}
	var err error
	if c.InitialInternal, err = first("Initial_I_" + substrate); err != nil {
		return nil, err
	}
	if c.InitialExternal, err = first("Initial_E_" + substrate); err != nil {
		return nil, err
	}
	if c.Diffusion, err = first("DC_" + substrate); err != nil {
		return nil, err
	}

	switch m {
	case SimpleDiffusion:
		if c.Permeability, err = first("k_" + substrate); err != nil {
			return nil, err
		}
		c.HasPermeability = true
	case FacilitatedDiffusionCarrier:
		for _, col := range []string{"Initial_Rc_" + substrate, "Initial_Rcb_" + substrate} {
			if v, ok := t.Value(0, col); ok {
				c.Receptors = append(c.Receptors, NamedValue{Name: col, Value: v})
			}
		}
	}
	return c, nil
}

// String renders the constants as the simulation info text block.
func (c *Constants) String() string {
	var b strings.Builder
	s := c.Substrate
	fmt.Fprintf(&b, "Initial Internal %s conc. (mM) = %s\n", s, table.FormatFloat(c.InitialInternal))
	fmt.Fprintf(&b, "Initial External %s conc. (mM) = %s\n", s, table.FormatFloat(c.InitialExternal))
	fmt.Fprintf(&b, "%s Diffusion coefficient (D) = %s um²/min\n", s, table.FormatFloat(c.Diffusion))
	if c.HasPermeability {
		fmt.Fprintf(&b, "%s Permeability coefficient (k) = %s um/min\n", s, table.FormatFloat(c.Permeability))
	}
	for _, r := range c.Receptors {
		fmt.Fprintf(&b, "%s (mM) = %s\n", r.Name, table.FormatFloat(r.Value))
	}
	return b.String()
}

// WriteFile persists the text block to path, replacing any previous file.
func (c *Constants) WriteFile(path string) error {
	if err := os.WriteFile(path, []byte(c.String()), 0o644); err != nil {
		return fmt.Errorf("failed to write simulation info '%s': %w", path, err)
	}
	return nil
}
