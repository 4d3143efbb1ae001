// Package config loads and validates the daemon configuration.
//
// Configuration comes from a YAML file with environment variable overrides
// for the settings that differ between deployments. Defaults make the daemon
// runnable with no file at all against a local NATS server.
package config
