// Package config handles loading and parsing the tickerctl config file.
//
// # Overview
//
// This package reads ~/.config/tickerctl/config.toml to discover the
// ticker server's base URL and an optional override for the prefs file
// location. The config file is a bootstrap convenience: the server URL
// the user actually edits at runtime lives in the prefs store and wins
// over the value here.
//
// # Configuration Discovery
//
// The Load function follows this resolution order:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/tickerctl/config.toml (default)
//  3. If the config file doesn't exist, fall back to hardcoded defaults
//  4. If the file exists but fields are missing/empty, use defaults
//
// # Configuration Fields
//
//   - ServerURL: ticker server base URL (server_url)
//   - PrefsPath: override for the prefs file location (prefs_path)
package config
