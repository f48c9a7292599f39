// Package config handles configuration loading, parsing, and validation
// from various sources (environment variables, files). It provides type-safe
// access to client settings needed by different components while keeping
// configuration details separate from scheduling and transport logic.
package config
