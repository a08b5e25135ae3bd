package transport

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/vk/pctransport/internal/table"
	"gonum.org/v1/gonum/floats"
)

// TotalDecimals is the precision the cumulative net amount is rounded to
// before reshaping.
const TotalDecimals = 3

// ErrMissingColumn is returned when a mandatory column is absent.
var ErrMissingColumn = errors.New("missing required column")

// Point is one long-form entry.
type Point struct {
	Time     float64
	Variable string
	Value    float64
}

// Series holds the long-form points of one category.
type Series struct {
	Category Category
	Points   []Point
}

// Name returns the category name.
func (s Series) Name() string {
	return s.Category.Name
}

// Variables returns the variables that have at least one point, in
// category order.
func (s Series) Variables() []string {
	seen := make(map[string]bool)
	for _, p := range s.Points {
		seen[p.Variable] = true
	}
	var out []string
	for _, v := range s.Category.Variables {
		if seen[v.Column] {
			out = append(out, v.Column)
		}
	}
	return out
}

// Label returns the legend label of a variable, or the variable itself.
func (s Series) Label(variable string) string {
	for _, v := range s.Category.Variables {
		if v.Column == variable && v.Label != "" {
			return v.Label
		}
	}
	return variable
}

// XY returns the time and value vectors of one variable.
func (s Series) XY(variable string) (xs, ys []float64) {
	for _, p := range s.Points {
		if p.Variable == variable {
			xs = append(xs, p.Time)
			ys = append(ys, p.Value)
		}
	}
	return xs, ys
}

// Summary describes the value range of one variable.
type Summary struct {
	Variable string
	Min      float64
	Max      float64
	Mean     float64
	N        int
}

// Summaries returns one Summary per present variable.
func (s Series) Summaries() []Summary {
	var out []Summary
	for _, v := range s.Variables() {
		_, ys := s.XY(v)
		out = append(out, Summary{
			Variable: v,
			Min:      floats.Min(ys),
			Max:      floats.Max(ys),
			Mean:     floats.Sum(ys) / float64(len(ys)),
			N:        len(ys),
		})
	}
	return out
}

// Validate checks the columns every mechanism needs: the time column, at
// least one density column and the flux column of substrate.
func Validate(t *table.Table, substrate string) error {
	if !t.Has(table.TimeColumn) {
		return fmt.Errorf("%w: %s", ErrMissingColumn, table.TimeColumn)
	}
	if !t.Has("I_"+substrate) && !t.Has("E_"+substrate) {
		return fmt.Errorf("%w: I_%s or E_%s", ErrMissingColumn, substrate, substrate)
	}
	if !t.Has(substrate + "_flux") {
		return fmt.Errorf("%w: %s_flux", ErrMissingColumn, substrate)
	}
	return nil
}

// Reshape projects the simulation table into one Series per category of
// mechanism m. The first row is dropped, the cumulative net amount column
// is rounded to TotalDecimals and categories with no points are left out.
// The input table is not modified.
func Reshape(t *table.Table, substrate string, m Mechanism) ([]Series, error) {
	cats, err := Categories(m, substrate)
	if err != nil {
		return nil, err
	}
	if err := Validate(t, substrate); err != nil {
		return nil, err
	}

	work := t.DropFirst(1)
	work.Round(TotalColumn(substrate), TotalDecimals)

	var out []Series
	for _, cat := range cats {
		rows, err := work.Melt(table.TimeColumn, cat.Columns()...)
		if err != nil {
			return nil, err
		}
		s := Series{Category: cat}
		for _, r := range rows {
			if math.IsNaN(r.Value) {
				continue
			}
			s.Points = append(s.Points, Point{Time: r.ID, Variable: r.Variable, Value: r.Value})
		}
		if len(s.Points) == 0 {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

// WriteSeriesCSV writes all series as one long-form CSV with the columns
// category, time, variable, value.
func WriteSeriesCSV(w io.Writer, series []Series) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"category", table.TimeColumn, "variable", "value"}); err != nil {
		return err
	}
	for _, s := range series {
		for _, p := range s.Points {
			rec := []string{s.Name(), table.FormatFloat(p.Time), p.Variable, table.FormatFloat(p.Value)}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}
