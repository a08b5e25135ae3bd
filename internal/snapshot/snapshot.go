package snapshot

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/vk/pctransport/internal/ctxlog"
	"github.com/vk/pctransport/internal/fsutil"
	"github.com/vk/pctransport/internal/table"
)

// TimeColumn is the name of the simulation time column in every table this
// package produces.
const TimeColumn = table.TimeColumn

// ErrNoSnapshots is returned when a folder holds no outputNNNNNNNN.xml file.
var ErrNoSnapshots = errors.New("no snapshot files found")

// Label describes one entry of the per-agent data layout.
type Label struct {
	Index int
	Size  int
	Units string
	Name  string
}

// Mesh holds the voxel centre coordinates along each axis.
type Mesh struct {
	X, Y, Z []float64
	// Bounds is min x, min y, min z, max x, max y, max z.
	Bounds [6]float64
}

// Snapshot is one parsed simulation time point.
type Snapshot struct {
	Index      int
	Path       string
	Time       float64
	TimeUnits  string
	Substrates []string
	Labels     []Label
	Mesh       Mesh

	// Cells has one row per agent and one column per expanded label.
	Cells *table.Table

	voxels *Matrix
}

// Entry is an indexed snapshot file in an output folder.
type Entry = fsutil.IndexedFile

// List returns the snapshot XML files of dir in index order.
func List(dir string) ([]Entry, error) {
	files, err := fsutil.FindIndexed(dir, "output", ".xml")
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%s: %w", dir, ErrNoSnapshots)
	}
	return files, nil
}

// Load parses the snapshot XML at path and the matrices it references.
func Load(path string) (*Snapshot, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var doc document
	if err := xml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot %s: %w", path, err)
	}

	s := &Snapshot{Path: path, Index: indexFromName(filepath.Base(path))}
	s.TimeUnits = doc.Metadata.CurrentTime.Units
	if v := strings.TrimSpace(doc.Metadata.CurrentTime.Value); v != "" {
		if s.Time, err = strconv.ParseFloat(v, 64); err != nil {
			return nil, fmt.Errorf("snapshot %s has invalid current_time %q: %w", path, v, err)
		}
	}

	if err := s.loadMicroenvironment(&doc, filepath.Dir(path)); err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", path, err)
	}
	if err := s.loadCells(&doc, filepath.Dir(path)); err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", path, err)
	}
	return s, nil
}

func indexFromName(name string) int {
	middle := strings.TrimSuffix(strings.TrimPrefix(name, "output"), ".xml")
	idx, err := strconv.Atoi(middle)
	if err != nil {
		return -1
	}
	return idx
}

func (s *Snapshot) loadMicroenvironment(doc *document, dir string) error {
	dom := doc.Microenvironment.Domain
	vars := dom.Variables
	sort.SliceStable(vars, func(i, j int) bool { return vars[i].ID < vars[j].ID })
	for _, v := range vars {
		s.Substrates = append(s.Substrates, v.Name)
	}

	var err error
	if s.Mesh.X, err = parseFloats(dom.Mesh.XCoords); err != nil {
		return fmt.Errorf("x_coordinates: %w", err)
	}
	if s.Mesh.Y, err = parseFloats(dom.Mesh.YCoords); err != nil {
		return fmt.Errorf("y_coordinates: %w", err)
	}
	if s.Mesh.Z, err = parseFloats(dom.Mesh.ZCoords); err != nil {
		return fmt.Errorf("z_coordinates: %w", err)
	}
	box, err := parseFloats(dom.Mesh.BoundingBox)
	if err != nil {
		return fmt.Errorf("bounding_box: %w", err)
	}
	if len(box) == 6 {
		copy(s.Mesh.Bounds[:], box)
	}

	name := strings.TrimSpace(dom.Data.Filename)
	if name == "" {
		return nil
	}
	m, err := ReadMatrixFile(filepath.Join(dir, name))
	if err != nil {
		return err
	}
	if m.Rows < 4+len(s.Substrates) {
		return fmt.Errorf("microenvironment matrix has %d rows, need %d", m.Rows, 4+len(s.Substrates))
	}
	s.voxels = m
	return nil
}

func (s *Snapshot) loadCells(doc *document, dir string) error {
	for _, pop := range doc.Populations {
		if pop.Simplified.Filename == "" {
			continue
		}
		for _, l := range pop.Simplified.Labels {
			s.Labels = append(s.Labels, Label{
				Index: l.Index,
				Size:  l.Size,
				Units: l.Units,
				Name:  strings.TrimSpace(l.Name),
			})
		}
		sort.SliceStable(s.Labels, func(i, j int) bool { return s.Labels[i].Index < s.Labels[j].Index })

		m, err := ReadMatrixFile(filepath.Join(dir, strings.TrimSpace(pop.Simplified.Filename)))
		if err != nil {
			return err
		}
		names := expandLabels(s.Labels)
		if m.Rows < len(names) {
			return fmt.Errorf("cell matrix has %d rows, labels describe %d", m.Rows, len(names))
		}

		s.Cells = table.New(names...)
		row := make([]float64, len(names))
		for c := 0; c < m.Cols; c++ {
			for r := range names {
				row[r] = m.At(r, c)
			}
			if err := s.Cells.AppendValues(row...); err != nil {
				return err
			}
		}
		return nil
	}
	s.Cells = table.New()
	return nil
}

// Field is a 2D concentration slice on the mesh. Values[j][i] is the
// concentration at X[i], Y[j].
type Field struct {
	Substrate string
	X, Y      []float64
	Values    [][]float64
}

// Concentration returns the z-slice of substrate nearest to z = 0.
func (s *Snapshot) Concentration(substrate string) (*Field, error) {
	if s.voxels == nil {
		return nil, errors.New("snapshot has no microenvironment data")
	}
	row := -1
	for i, name := range s.Substrates {
		if name == substrate {
			row = 4 + i
			break
		}
	}
	if row < 0 {
		return nil, fmt.Errorf("substrate '%s' not found, have %v", substrate, s.Substrates)
	}
	if len(s.Mesh.X) == 0 || len(s.Mesh.Y) == 0 {
		return nil, errors.New("snapshot mesh has no coordinates")
	}

	zSlice := 0
	if len(s.Mesh.Z) > 0 {
		zSlice = nearest(s.Mesh.Z, 0)
	}

	f := &Field{Substrate: substrate, X: s.Mesh.X, Y: s.Mesh.Y}
	f.Values = make([][]float64, len(s.Mesh.Y))
	for j := range f.Values {
		f.Values[j] = make([]float64, len(s.Mesh.X))
		for i := range f.Values[j] {
			f.Values[j][i] = math.NaN()
		}
	}
	for v := 0; v < s.voxels.Cols; v++ {
		if len(s.Mesh.Z) > 0 && nearest(s.Mesh.Z, s.voxels.At(2, v)) != zSlice {
			continue
		}
		i := nearest(s.Mesh.X, s.voxels.At(0, v))
		j := nearest(s.Mesh.Y, s.voxels.At(1, v))
		f.Values[j][i] = s.voxels.At(row, v)
	}
	return f, nil
}

// nearest returns the index of the element of sorted closest to v.
func nearest(sorted []float64, v float64) int {
	i := sort.SearchFloat64s(sorted, v)
	switch {
	case i == 0:
		return 0
	case i == len(sorted):
		return len(sorted) - 1
	case v-sorted[i-1] <= sorted[i]-v:
		return i - 1
	default:
		return i
	}
}

// LoadTable loads every snapshot in dir and flattens the agents into one
// table: one row per (time, agent) with TimeColumn first.
func LoadTable(ctx context.Context, dir string) (*table.Table, error) {
	logger := ctxlog.FromContext(ctx)

	entries, err := List(dir)
	if err != nil {
		return nil, err
	}
	logger.Debug("Discovered snapshots.", "dir", dir, "count", len(entries))

	out := table.New(TimeColumn)
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		s, err := Load(e.Path)
		if err != nil {
			return nil, err
		}
		cols := s.Cells.Columns()
		out.EnsureColumns(cols...)
		for r := 0; r < s.Cells.Len(); r++ {
			row := make(map[string]float64, len(cols)+1)
			row[TimeColumn] = s.Time
			for _, c := range cols {
				row[c], _ = s.Cells.Value(r, c)
			}
			out.AppendRow(row)
		}
		logger.Debug("Snapshot flattened.", "index", e.Index, "time", s.Time, "agents", s.Cells.Len())
	}
	return out, nil
}

// LoadTimeTable is LoadTable followed by a per-time mean over agents.
func LoadTimeTable(ctx context.Context, dir string) (*table.Table, error) {
	full, err := LoadTable(ctx, dir)
	if err != nil {
		return nil, err
	}
	grouped, err := full.GroupMean(TimeColumn)
	if err != nil {
		return nil, fmt.Errorf("failed to group snapshots in '%s' by time: %w", dir, err)
	}
	return grouped, nil
}
