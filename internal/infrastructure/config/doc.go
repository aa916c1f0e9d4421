// Package config loads Hearth Core configuration: hardcoded defaults,
// overridden by a YAML file, overridden by HEARTH_* environment variables.
package config
