// Package config loads, normalizes, and validates the TOML configuration.
// The loaded Config is passed explicitly into the pipeline at job start;
// there is no process-wide configuration singleton.
package config
