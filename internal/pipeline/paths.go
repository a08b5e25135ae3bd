package pipeline

import (
	"path/filepath"
	"strings"

	"github.com/vk/pctransport/internal/transport"
)

// DefaultPlotsDir is the root of every artifact when none is configured.
const DefaultPlotsDir = "transport_plots"

// Artifact file names.
const (
	JointFigure      = "joint_transport_plots.png"
	IndividualFigure = "individual_transport_plots.png"
	DensityFigure    = "density_plot.png"
	SeriesCSV        = "transport_df.csv"
	InfoFile         = "simulation_info.txt"
	TableCSV         = "simulation_table.csv"
	GIFName          = "substrate.gif"
	AVIName          = "substrate.avi"
)

// TimeseriesDir is where the time-series artifacts of one mechanism and
// substrate are written.
func TimeseriesDir(plotsDir string, m transport.Mechanism, substrate string) string {
	return filepath.Join(plotsDir, string(m), substrate, "plots")
}

// FramesDir is where the frames of one substrate are written.
func FramesDir(plotsDir, substrate string) string {
	return filepath.Join(plotsDir, substrate, "transport_gif")
}

// overridePath returns path unchanged for a single substrate run and
// inserts _<substrate> before the extension otherwise.
func overridePath(path, substrate string, multi bool) string {
	if !multi {
		return path
	}
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "_" + substrate + ext
}
