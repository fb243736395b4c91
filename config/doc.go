// Package config handles application configuration loading and validation.
//
// Configuration is loaded from config.yml, overridden by environment variables
// (optionally from a .env file) and validated using struct tags. The package
// supports multiple named feeds and allows feed selection by name.
package config
