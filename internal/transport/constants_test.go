package transport

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/pctransport/internal/table"
)

func constantsTable(t *testing.T, extra map[string]float64) *table.Table {
	t.Helper()
	first := map[string]float64{
		"time":              0,
		"Initial_I_glucose": 0,
		"Initial_E_glucose": 1,
		"DC_glucose":        600,
	}
	for k, v := range extra {
		first[k] = v
	}
	tbl := table.New(table.TimeColumn)
	tbl.AppendRow(first)
	// Later rows must never be consulted.
	later := map[string]float64{}
	for k := range first {
		later[k] = 99
	}
	later["time"] = 1
	tbl.AppendRow(later)
	return tbl
}

func TestExtractConstants_SimpleDiffusion(t *testing.T) {
	t.Parallel()

	tbl := constantsTable(t, map[string]float64{"k_glucose": 0.01})
	c, err := ExtractConstants(tbl, "glucose", SimpleDiffusion)
	require.NoError(t, err)

	assert.Equal(t, 0.0, c.InitialInternal)
	assert.Equal(t, 1.0, c.InitialExternal)
	assert.Equal(t, 600.0, c.Diffusion)
	assert.True(t, c.HasPermeability)
	assert.Equal(t, 0.01, c.Permeability)

	want := "Initial Internal glucose conc. (mM) = 0\n" +
		"Initial External glucose conc. (mM) = 1\n" +
		"glucose Diffusion coefficient (D) = 600 um²/min\n" +
		"glucose Permeability coefficient (k) = 0.01 um/min\n"
	assert.Equal(t, want, c.String())

	path := filepath.Join(t.TempDir(), "simulation_info.txt")
	require.NoError(t, c.WriteFile(path))
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, want, string(raw))
}

func TestExtractConstants_SimpleDiffusionNeedsPermeability(t *testing.T) {
	t.Parallel()

	_, err := ExtractConstants(constantsTable(t, nil), "glucose", SimpleDiffusion)
	assert.True(t, errors.Is(err, ErrMissingColumn))
}

func TestExtractConstants_CarrierOmitsPermeability(t *testing.T) {
	t.Parallel()

	tbl := constantsTable(t, map[string]float64{"Initial_Rc_glucose": 5})
	c, err := ExtractConstants(tbl, "glucose", FacilitatedDiffusionCarrier)
	require.NoError(t, err)
	assert.False(t, c.HasPermeability)
	assert.Equal(t, []NamedValue{{Name: "Initial_Rc_glucose", Value: 5}}, c.Receptors)
	assert.NotContains(t, c.String(), "Permeability")
}

func TestExtractConstants_Errors(t *testing.T) {
	t.Parallel()

	_, err := ExtractConstants(table.New("time"), "glucose", SimpleDiffusion)
	assert.Error(t, err)

	tbl := table.New("time", "Initial_I_glucose")
	require.NoError(t, tbl.AppendValues(0, 1))
	_, err = ExtractConstants(tbl, "glucose", ActiveTransport)
	assert.True(t, errors.Is(err, ErrMissingColumn))

	_, err = ExtractConstants(tbl, "glucose", Mechanism("nope"))
	assert.True(t, errors.Is(err, ErrUnknownMechanism))
}
