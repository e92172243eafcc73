// Package logconfig configures the process-global logrus logger from CLI/env/config
// flags.
package logconfig

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// Config is the logging configuration bound by cmd/agentd's persistent flags.
type Config struct {
	Level      string `json:"level"`
	Color      bool   `json:"color"`
	Structured bool   `json:"structured"`
}

// DefaultConfig returns the default logging configuration.
func DefaultConfig() Config {
	return Config{Level: "info", Color: true, Structured: false}
}

// Validate implements check.Validatable.
func (c Config) Validate() []error {
	if _, err := logrus.ParseLevel(c.Level); err != nil {
		return []error{err}
	}
	return nil
}

// Set applies c to the global logrus logger.
func (c Config) Set() {
	level, err := logrus.ParseLevel(c.Level)
	if err != nil {
		panic(fmt.Sprintf("invalid log level: %s", c.Level))
	}
	logrus.SetLevel(level)
	if c.Structured {
		logrus.SetFormatter(&logrus.JSONFormatter{})
		return
	}
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
		ForceColors:   c.Color,
		DisableColors: !c.Color,
	})
}
