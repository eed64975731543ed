// Package config loads application settings from YAML with sensible
// defaults for a missing file.
package config
