package table

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestColumn_MissingIsNotAnError(t *testing.T) {
	t.Parallel()

	tbl := New("time", "I_glucose")
	_, ok := tbl.Column("E_glucose")
	assert.False(t, ok)

	col, ok := tbl.Column("time")
	assert.True(t, ok)
	assert.Empty(t, col)
}

func TestAppendRow_BackfillsNewColumns(t *testing.T) {
	t.Parallel()

	tbl := New("time")
	tbl.AppendRow(map[string]float64{"time": 0})
	tbl.AppendRow(map[string]float64{"time": 1, "glucose_flux": 0.5})

	flux, ok := tbl.Column("glucose_flux")
	require.True(t, ok)
	require.Len(t, flux, 2)
	assert.True(t, math.IsNaN(flux[0]))
	assert.Equal(t, 0.5, flux[1])
}

func TestDropFirst(t *testing.T) {
	t.Parallel()

	tbl := New("time", "v")
	for i := 0; i < 5; i++ {
		require.NoError(t, tbl.AppendValues(float64(i), float64(i*10)))
	}

	dropped := tbl.DropFirst(1)
	times, _ := dropped.Column("time")
	assert.Equal(t, []float64{1, 2, 3, 4}, times)
	assert.Equal(t, 5, tbl.Len(), "source table must be left untouched")

	assert.Equal(t, 0, tbl.DropFirst(10).Len())
}

func TestRound_Idempotent(t *testing.T) {
	t.Parallel()

	values := []float64{0.0004999, 1.23456789, -2.0005, 1e-9, 123456.7891, 0.1 + 0.2}
	for _, v := range values {
		once := RoundTo(v, 3)
		twice := RoundTo(once, 3)
		assert.Equal(t, once, twice, "rounding %v twice changed the result", v)
	}

	tbl := New("total_glucose")
	require.NoError(t, tbl.AppendValues(1.23456))
	require.True(t, tbl.Round("total_glucose", 3))
	require.False(t, tbl.Round("missing", 3))
	v, _ := tbl.Value(0, "total_glucose")
	assert.Equal(t, 1.235, v)
}

func TestGroupMean(t *testing.T) {
	t.Parallel()

	tbl := New("time", "ID", "I_glucose")
	rows := [][]float64{
		{0, 0, 1},
		{0, 1, 3},
		{1, 0, 2},
		{1, 1, math.NaN()},
	}
	for _, r := range rows {
		require.NoError(t, tbl.AppendValues(r...))
	}

	grouped, err := tbl.GroupMean("time")
	require.NoError(t, err)
	require.Equal(t, 2, grouped.Len())

	times, _ := grouped.Column("time")
	inside, _ := grouped.Column("I_glucose")
	assert.Equal(t, []float64{0, 1}, times)
	assert.Equal(t, []float64{2, 2}, inside)

	_, err = tbl.GroupMean("missing")
	assert.Error(t, err)

	undefined := New("time", "x")
	require.NoError(t, undefined.AppendValues(0, 1))
	require.NoError(t, undefined.AppendValues(math.NaN(), 1))
	_, err = undefined.GroupMean("time")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 1")
}

func TestMelt(t *testing.T) {
	t.Parallel()

	tbl := New("time", "a", "b")
	require.NoError(t, tbl.AppendValues(1, 10, 100))
	require.NoError(t, tbl.AppendValues(2, 20, 200))

	long, err := tbl.Melt("time", "a", "missing", "b")
	require.NoError(t, err)

	want := []LongRow{
		{ID: 1, Variable: "a", Value: 10},
		{ID: 2, Variable: "a", Value: 20},
		{ID: 1, Variable: "b", Value: 100},
		{ID: 2, Variable: "b", Value: 200},
	}
	if diff := cmp.Diff(want, long); diff != "" {
		t.Errorf("Melt() mismatch (-want +got):\n%s", diff)
	}
}

func TestCSVRoundTrip(t *testing.T) {
	t.Parallel()

	src := "time,I_glucose,E_glucose_near\n0,1,2\n1,,2.5\n"
	tbl, err := ReadCSV(strings.NewReader(src))
	require.NoError(t, err)
	require.Equal(t, 2, tbl.Len())

	v, _ := tbl.Value(1, "I_glucose")
	assert.True(t, math.IsNaN(v))

	var buf bytes.Buffer
	require.NoError(t, tbl.WriteCSV(&buf))
	assert.Equal(t, src, buf.String())
}

func TestReadCSV_Errors(t *testing.T) {
	t.Parallel()

	_, err := ReadCSV(strings.NewReader(""))
	assert.Error(t, err)

	_, err = ReadCSV(strings.NewReader("time,x\n0,abc\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "column 'x'")
}
