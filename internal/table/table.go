package table

import (
	"fmt"
	"math"
	"sort"
)

// TimeColumn is the simulation time column shared by every table in the
// pipeline.
const TimeColumn = "time"

// Table is a column-oriented numeric table. Cells that were never written
// hold NaN.
type Table struct {
	names []string
	index map[string]int
	cols  [][]float64
	rows  int
}

// New creates an empty table with the given columns in order.
func New(names ...string) *Table {
	t := &Table{index: make(map[string]int)}
	for _, n := range names {
		t.addColumn(n)
	}
	return t
}

func (t *Table) addColumn(name string) int {
	if i, ok := t.index[name]; ok {
		return i
	}
	col := make([]float64, t.rows)
	for i := range col {
		col[i] = math.NaN()
	}
	t.names = append(t.names, name)
	t.cols = append(t.cols, col)
	t.index[name] = len(t.names) - 1
	return len(t.names) - 1
}

// EnsureColumns adds the named columns that do not exist yet, in order.
func (t *Table) EnsureColumns(names ...string) {
	for _, n := range names {
		t.addColumn(n)
	}
}

// Columns returns the column names in insertion order.
func (t *Table) Columns() []string {
	out := make([]string, len(t.names))
	copy(out, t.names)
	return out
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return t.rows
}

// Has reports whether the named column exists.
func (t *Table) Has(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Column returns the values of the named column. The second result is
// false when the column does not exist. The returned slice is shared with
// the table.
func (t *Table) Column(name string) ([]float64, bool) {
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	return t.cols[i], true
}

// Value returns a single cell.
func (t *Table) Value(row int, name string) (float64, bool) {
	col, ok := t.Column(name)
	if !ok || row < 0 || row >= len(col) {
		return 0, false
	}
	return col[row], true
}

// AppendRow adds a row. Columns not yet known are created and back-filled
// with NaN; known columns missing from vals get NaN in the new row.
func (t *Table) AppendRow(vals map[string]float64) {
	keys := make([]string, 0, len(vals))
	for k := range vals {
		if !t.Has(k) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		t.addColumn(k)
	}

	for i, name := range t.names {
		v, ok := vals[name]
		if !ok {
			v = math.NaN()
		}
		t.cols[i] = append(t.cols[i], v)
	}
	t.rows++
}

// AppendValues adds a row given values in column order.
func (t *Table) AppendValues(vals ...float64) error {
	if len(vals) != len(t.names) {
		return fmt.Errorf("row has %d values, table has %d columns", len(vals), len(t.names))
	}
	for i, v := range vals {
		t.cols[i] = append(t.cols[i], v)
	}
	t.rows++
	return nil
}

// DropFirst returns a copy of the table without its first n rows.
func (t *Table) DropFirst(n int) *Table {
	if n < 0 {
		n = 0
	}
	if n > t.rows {
		n = t.rows
	}
	out := New(t.names...)
	for i := range t.cols {
		out.cols[i] = append([]float64(nil), t.cols[i][n:]...)
	}
	out.rows = t.rows - n
	return out
}

// Clone returns a deep copy.
func (t *Table) Clone() *Table {
	return t.DropFirst(0)
}

// Round rounds the named column in place to the given number of decimals,
// half away from zero. It reports whether the column exists.
func (t *Table) Round(name string, decimals int) bool {
	col, ok := t.Column(name)
	if !ok {
		return false
	}
	for i, v := range col {
		col[i] = RoundTo(v, decimals)
	}
	return true
}

// RoundTo rounds v to the given number of decimals, half away from zero.
func RoundTo(v float64, decimals int) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	scale := math.Pow(10, float64(decimals))
	return math.Round(v*scale) / scale
}

// GroupMean collapses rows sharing the same key value into one row holding
// the mean of every other column. NaN cells are ignored in the mean, but a
// NaN key is an error. Groups keep the order of their first appearance.
func (t *Table) GroupMean(key string) (*Table, error) {
	keys, ok := t.Column(key)
	if !ok {
		return nil, fmt.Errorf("group key column '%s' not found", key)
	}

	type acc struct {
		sums   []float64
		counts []int
	}
	var order []float64
	groups := make(map[float64]*acc)
	for r, k := range keys {
		if math.IsNaN(k) {
			return nil, fmt.Errorf("group key column '%s' is undefined in row %d", key, r)
		}
		g, seen := groups[k]
		if !seen {
			g = &acc{sums: make([]float64, len(t.names)), counts: make([]int, len(t.names))}
			groups[k] = g
			order = append(order, k)
		}
		for c := range t.cols {
			v := t.cols[c][r]
			if math.IsNaN(v) {
				continue
			}
			g.sums[c] += v
			g.counts[c]++
		}
	}

	out := New(t.names...)
	keyIdx := t.index[key]
	for _, k := range order {
		g := groups[k]
		row := make([]float64, len(t.names))
		for c := range row {
			switch {
			case c == keyIdx:
				row[c] = k
			case g.counts[c] == 0:
				row[c] = math.NaN()
			default:
				row[c] = g.sums[c] / float64(g.counts[c])
			}
		}
		if err := out.AppendValues(row...); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// LongRow is one (id, variable, value) entry of a melted table.
type LongRow struct {
	ID       float64
	Variable string
	Value    float64
}

// Melt projects the given value columns into long form keyed by idCol. Rows
// are emitted column by column, in the order of vars. Columns missing from
// the table contribute nothing.
func (t *Table) Melt(idCol string, vars ...string) ([]LongRow, error) {
	ids, ok := t.Column(idCol)
	if !ok {
		return nil, fmt.Errorf("id column '%s' not found", idCol)
	}
	var out []LongRow
	for _, v := range vars {
		if v == idCol {
			continue
		}
		col, ok := t.Column(v)
		if !ok {
			continue
		}
		for r, val := range col {
			out = append(out, LongRow{ID: ids[r], Variable: v, Value: val})
		}
	}
	return out, nil
}
