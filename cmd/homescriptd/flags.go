package main

import (
	"flag"
	"fmt"
	"os"
)

// CLIConfig holds command-line configuration.
type CLIConfig struct {
	ConfigPath  string
	ShowVersion bool
	ShowHelp    bool
	Validate    bool
}

func parseFlags() *CLIConfig {
	cfg := &CLIConfig{}

	flag.StringVar(&cfg.ConfigPath, "config",
		getEnv("HOME_SCRIPT_CONFIG", ""),
		"Path to configuration file, empty for defaults (env: HOME_SCRIPT_CONFIG)")
	flag.StringVar(&cfg.ConfigPath, "c",
		getEnv("HOME_SCRIPT_CONFIG", ""),
		"Path to configuration file, empty for defaults (env: HOME_SCRIPT_CONFIG)")

	flag.BoolVar(&cfg.ShowVersion, "version", false, "Show version information")
	flag.BoolVar(&cfg.ShowVersion, "v", false, "Show version information")
	flag.BoolVar(&cfg.ShowHelp, "help", false, "Show help information")
	flag.BoolVar(&cfg.ShowHelp, "h", false, "Show help information")
	flag.BoolVar(&cfg.Validate, "validate", false, "Validate configuration and exit")

	flag.Usage = printHelp
	flag.Parse()

	return cfg
}

func printHelp() {
	_, _ = fmt.Fprintf(os.Stderr, `%s - reactive home automation rule engine

Usage: %s [options]

Options:
`, appName, os.Args[0])
	flag.PrintDefaults()
	_, _ = fmt.Fprintf(os.Stderr, `
Examples:
  # Run with custom config
  %s --config=/etc/home-script/config.yaml

  # Run against a local NATS with defaults
  %s

  # Validate configuration only
  %s --config=/etc/home-script/config.yaml --validate

Environment:
  HOME_SCRIPT_CONFIG, HOME_SCRIPT_LOG_LEVEL, HOME_SCRIPT_LOG_FORMAT,
  HOME_SCRIPT_NATS_URL, HOME_SCRIPT_NATS_SUBJECT, HOME_SCRIPT_NATS_NAME,
  HOME_SCRIPT_METRICS_ENABLED, HOME_SCRIPT_METRICS_LISTEN,
  HOME_SCRIPT_SHUTDOWN_TIMEOUT

Version: %s
`, os.Args[0], os.Args[0], os.Args[0], Version)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
