// Package config handles configuration loading, parsing, and validation
// from environment variables and an optional config file. It provides
// type-safe access to the settings needed by the lookup and automation
// clients, the HTTP layer and telemetry, while keeping credentials out of
// the business logic.
package config
