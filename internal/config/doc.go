// Package config loads and validates the EventUp API configuration.
//
// Values come from an optional .env file and the process environment,
// read through viper with defaults for local development:
//
//	cfg, err := config.Load()
//	if err != nil { ... }
//	if err := cfg.Validate(); err != nil { ... }
//
// Durations such as JWT_EXPIRE accept a day suffix ("7d").
package config
