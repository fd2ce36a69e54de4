// Package config loads, validates, and normalizes playpack configuration.
//
// Configuration is TOML. Load resolves the file location (explicit flag,
// ~/.config/playpack/config.toml, or ./playpack.toml), applies defaults for
// missing values, expands ~ in path fields, and validates the result.
package config
