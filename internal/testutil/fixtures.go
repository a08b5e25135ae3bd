package testutil

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/pctransport/internal/snapshot"
	"github.com/vk/pctransport/internal/table"
)

// SnapshotFixture describes a synthetic PhysiCell output folder.
type SnapshotFixture struct {
	Substrates []string
	XCoords    []float64
	YCoords    []float64
	// Labels are the scalar per-agent labels written after ID and position.
	Labels []string
	Frames []FrameFixture
}

// FrameFixture is one saved time point.
type FrameFixture struct {
	Time float64
	// Cells maps label names (plus ID, position_x, position_y, position_z)
	// to values. Missing labels are written as zero.
	Cells []map[string]float64
	// Field gives the substrate concentration at a voxel centre. Nil means 0.
	Field func(substrate string, x, y float64) float64
}

// TransportLabels is the per-agent label set of a simple diffusion run for
// the given substrate.
func TransportLabels(substrate string) []string {
	return []string{
		"total_volume",
		"nuclear_volume",
		"I_" + substrate,
		"E_" + substrate,
		"E_" + substrate + "_near",
		substrate + "_flux",
		"adjusted_" + substrate + "_flux",
		"D_" + substrate,
		"total_" + substrate,
		"Initial_I_" + substrate,
		"Initial_E_" + substrate,
		"DC_" + substrate,
		"k_" + substrate,
	}
}

// WriteSnapshotFolder writes the fixture into dir as outputNNNNNNNN.xml files
// with their cell and microenvironment matrices.
func WriteSnapshotFolder(t *testing.T, dir string, fx SnapshotFixture) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))

	for i, fr := range fx.Frames {
		base := fmt.Sprintf("output%08d", i)
		cellsName := base + "_cells.mat"
		microName := base + "_microenvironment0.mat"

		writeMatrix(t, filepath.Join(dir, microName), microMatrix(fx, fr))
		writeMatrix(t, filepath.Join(dir, cellsName), cellMatrix(fx, fr))

		xml := snapshotXML(fx, fr, cellsName, microName)
		require.NoError(t, os.WriteFile(filepath.Join(dir, base+".xml"), []byte(xml), 0o644))
	}
}

func writeMatrix(t *testing.T, path string, m *snapshot.Matrix) {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, snapshot.WriteMatrix(&buf, m))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func cellRows(fx SnapshotFixture) []string {
	rows := []string{"ID", "position_x", "position_y", "position_z"}
	return append(rows, fx.Labels...)
}

func cellMatrix(fx SnapshotFixture, fr FrameFixture) *snapshot.Matrix {
	rows := cellRows(fx)
	m := &snapshot.Matrix{Name: "cells", Rows: len(rows), Cols: len(fr.Cells)}
	for _, cell := range fr.Cells {
		for _, r := range rows {
			m.Data = append(m.Data, cell[r])
		}
	}
	return m
}

func microMatrix(fx SnapshotFixture, fr FrameFixture) *snapshot.Matrix {
	rows := 4 + len(fx.Substrates)
	m := &snapshot.Matrix{Name: "multiscale_microenvironment", Rows: rows}
	for _, y := range fx.YCoords {
		for _, x := range fx.XCoords {
			m.Data = append(m.Data, x, y, 0, 1)
			for _, s := range fx.Substrates {
				v := 0.0
				if fr.Field != nil {
					v = fr.Field(s, x, y)
				}
				m.Data = append(m.Data, v)
			}
			m.Cols++
		}
	}
	return m
}

func joinFloats(vs []float64) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = table.FormatFloat(v)
	}
	return strings.Join(parts, " ")
}

func snapshotXML(fx SnapshotFixture, fr FrameFixture, cellsName, microName string) string {
	var vars strings.Builder
	for i, s := range fx.Substrates {
		fmt.Fprintf(&vars, "<variable name=%q units=\"mM\" ID=\"%d\"/>\n", s, i)
	}

	var labels strings.Builder
	fmt.Fprintf(&labels, "<label index=\"0\" size=\"1\" units=\"none\">ID</label>\n")
	fmt.Fprintf(&labels, "<label index=\"1\" size=\"3\" units=\"micron\">position</label>\n")
	for i, l := range fx.Labels {
		fmt.Fprintf(&labels, "<label index=\"%d\" size=\"1\" units=\"none\">%s</label>\n", 4+i, l)
	}

	minX, maxX := fx.XCoords[0]-10, fx.XCoords[len(fx.XCoords)-1]+10
	minY, maxY := fx.YCoords[0]-10, fx.YCoords[len(fx.YCoords)-1]+10

	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<MultiCellDS version="2" type="snapshot/simulation">
 <metadata>
  <current_time units="min">%s</current_time>
 </metadata>
 <microenvironment>
  <domain name="microenvironment">
   <mesh type="Cartesian" uniform="true" regular="true" units="micron">
    <bounding_box type="axis-aligned" units="micron">%s %s -10 %s %s 10</bounding_box>
    <x_coordinates delimiter=" ">%s</x_coordinates>
    <y_coordinates delimiter=" ">%s</y_coordinates>
    <z_coordinates delimiter=" ">0</z_coordinates>
   </mesh>
   <variables>
%s   </variables>
   <data type="matlab">
    <filename>%s</filename>
   </data>
  </domain>
 </microenvironment>
 <cellular_information>
  <cell_populations>
   <cell_population type="individual">
    <custom>
     <simplified_data type="matlab" source="PhysiCell">
      <labels>
%s      </labels>
      <filename>%s</filename>
     </simplified_data>
    </custom>
   </cell_population>
  </cell_populations>
 </cellular_information>
</MultiCellDS>
`,
		table.FormatFloat(fr.Time),
		table.FormatFloat(minX), table.FormatFloat(minY), table.FormatFloat(maxX), table.FormatFloat(maxY),
		joinFloats(fx.XCoords), joinFloats(fx.YCoords),
		vars.String(), microName, labels.String(), cellsName)
}

// GlucoseFixture is a two-agent, three-frame simple diffusion run on a 4x4
// mesh.
func GlucoseFixture() SnapshotFixture {
	coords := []float64{-30, -10, 10, 30}
	fx := SnapshotFixture{
		Substrates: []string{"oxygen", "glucose"},
		XCoords:    coords,
		YCoords:    coords,
		Labels:     TransportLabels("glucose"),
	}
	for f := 0; f < 3; f++ {
		ft := float64(f)
		var cells []map[string]float64
		for id := 0; id < 2; id++ {
			cells = append(cells, map[string]float64{
				"ID":                    float64(id),
				"position_x":            -15 + 30*float64(id),
				"position_y":            0,
				"total_volume":          2494,
				"nuclear_volume":        540,
				"I_glucose":             ft * 0.1,
				"E_glucose":             1 - ft*0.1,
				"E_glucose_near":        1 - ft*0.1,
				"glucose_flux":          0.5 - ft*0.1,
				"adjusted_glucose_flux": 0.4 - ft*0.1,
				"D_glucose":             1 - ft*0.2,
				"total_glucose":         ft * 0.12345,
				"Initial_I_glucose":     0,
				"Initial_E_glucose":     1,
				"DC_glucose":            600,
				"k_glucose":             0.01,
			})
		}
		fx.Frames = append(fx.Frames, FrameFixture{
			Time:  ft * 10,
			Cells: cells,
			Field: func(substrate string, x, y float64) float64 {
				if substrate != "glucose" {
					return 38
				}
				return 1 - ft*0.1 + x/1000
			},
		})
	}
	return fx
}
