// Package config loads, defaults, and validates the TOML configuration file
// shared by the Canvass CLI and pipeline components. Paths are expanded and
// normalized at load time so downstream code can use them verbatim.
package config
