// Package transport turns a simulation table into the per-category
// variable series and start-of-run constants used to plot substrate
// transport across agent membranes.
//
// Each Mechanism is a variant that declares a fixed list of categories,
// each mapping to the table columns it draws from. Categories whose columns
// are absent produce no series.
package transport
