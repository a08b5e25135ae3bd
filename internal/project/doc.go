// Package project resets, rebuilds and runs a PhysiBoSS project tree by
// executing a recipe of shell steps in its root folder.
//
// The recipe is HCL. Each step block carries a command template and may be
// gated by an `enabled` expression or a `require_glob` pattern:
//
//	step "simulate" {
//	  command = "./${project}"
//	  enabled = make
//	}
//
// By default a failing step is logged and the sequence continues. In
// strict mode the first failure stops the run with ErrStepFailed.
package project
