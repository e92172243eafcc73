package main

import (
	"os"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBindEnvOverridesFlagFromEnvironment(t *testing.T) {
	cmd := &cobra.Command{Use: "test"}
	var value string
	cmd.Flags().StringVar(&value, "some-flag", "default", "")

	t.Setenv("AGENTD_SOME_FLAG", "from-env")
	require.NoError(t, bindEnv("AGENTD_", cmd))
	assert.Equal(t, "from-env", value)
}

func TestClearEnvUnsetsOnlyPrefixedVars(t *testing.T) {
	t.Setenv("AGENTD_SOME_FLAG", "from-env")
	t.Setenv("UNRELATED_VAR", "keep-me")

	require.NoError(t, clearEnv("AGENTD_"))

	_, ok := os.LookupEnv("AGENTD_SOME_FLAG")
	assert.False(t, ok)
	value, ok := os.LookupEnv("UNRELATED_VAR")
	assert.True(t, ok)
	assert.Equal(t, "keep-me", value)
}
