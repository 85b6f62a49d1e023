// Package config defines the per-stream configuration and loads it from
// YAML or JSON files.
package config
