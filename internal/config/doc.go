// Package config loads the botadmin console configuration from a YAML
// file, with environment variable expansion and duration parsing.
package config
