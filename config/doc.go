// Package config loads, normalizes, and validates episodedl configuration.
//
// Settings come from repository defaults, then an optional TOML file, then
// the EPISODEDL_URL environment variable for the feed endpoint. Validate is
// kept separate from Load so command-line overrides can be applied first; it
// must pass before any network activity starts.
package config
