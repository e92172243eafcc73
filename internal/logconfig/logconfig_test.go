package logconfig

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestDefaultConfigIsValid(t *testing.T) {
	assert.Empty(t, DefaultConfig().Validate())
}

func TestValidateRejectsUnknownLevel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Level = "not-a-level"
	assert.NotEmpty(t, cfg.Validate())
}

func TestSetAppliesLevelAndFormatter(t *testing.T) {
	defer logrus.SetLevel(logrus.InfoLevel)

	cfg := Config{Level: "warn", Color: false, Structured: true}
	cfg.Set()

	assert.Equal(t, logrus.WarnLevel, logrus.StandardLogger().Level)
	_, ok := logrus.StandardLogger().Formatter.(*logrus.JSONFormatter)
	assert.True(t, ok)
}

func TestSetPanicsOnInvalidLevel(t *testing.T) {
	cfg := Config{Level: "not-a-level"}
	assert.Panics(t, cfg.Set)
}
