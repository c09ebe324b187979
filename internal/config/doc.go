// Package config loads run settings from defaults, an optional YAML file
// and CIRCLE_CATALOG_* environment variables, and validates them.
package config
