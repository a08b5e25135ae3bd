// Package pipeline runs the two transport analysis flows over a PhysiCell
// output folder: the time-series flow (table, reshaped series, constants,
// figures) and the frames flow (per-snapshot substrate frames, animation,
// composite).
package pipeline
