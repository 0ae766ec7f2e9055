// Package config loads orchestrator configuration from a YAML file with
// environment variable overrides and sane defaults.
package config
