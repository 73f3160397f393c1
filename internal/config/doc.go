// Package config loads, validates, and normalizes storyclip configuration.
//
// Configuration is TOML on disk with defaults applied for every omitted key.
// Load never mutates the file it reads; normalization (tilde expansion,
// trimming, clamping) happens on the in-memory copy. Call Validate before
// using a Config and EnsureDirectories before writing any output.
package config
