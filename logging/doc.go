// Package logging assembles the slog loggers used by episodedl.
//
// It owns the console and JSON handlers, level parsing, and the attribute
// names shared by the runner and the pipeline so every episode line can be
// filtered by run and title. NewNop serves tests and wiring code that has no
// logger to pass.
package logging
