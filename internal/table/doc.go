// Package table holds the simulation table: an ordered set of rows with
// named float64 columns. Column lookups report absence instead of failing,
// so callers can treat a missing signal as "not applicable".
package table
