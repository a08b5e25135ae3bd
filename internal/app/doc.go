// Package app contains the core application logic. It defines the App
// struct, its configuration, and the dispatch of the project, timeseries
// and frames commands, decoupled from the CLI entrypoint.
package app
