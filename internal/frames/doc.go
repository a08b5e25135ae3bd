// Package frames selects representative frames of a rendered snapshot
// sequence and lays them out as a single composite still.
package frames
