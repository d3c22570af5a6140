// Package config loads and validates collector configuration from YAML.
//
// Load order: read file, expand ${VAR} environment references, unmarshal,
// apply defaults, validate. Secrets (database password, API credentials,
// session cookies) are supplied via environment expansion.
package config
