package workspace

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridnode/agentd/internal/model"
)

func TestPathIsDeterministic(t *testing.T) {
	m := New("/var/lib/agentd", model.AgentId("a1"))
	assert.Equal(t,
		filepath.Join("/var/lib/agentd", "agent-a1", "framework-f1"),
		m.Path(model.FrameworkId("f1")),
	)
}

func TestCreateAndRemove(t *testing.T) {
	base := t.TempDir()
	m := New(base, model.AgentId("a1"))
	user := model.AgentUserGroup{User: "det", UID: os.Getuid(), Group: "det", GID: os.Getgid()}

	dir, err := m.Create(model.FrameworkId("f1"), user)
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	require.NoError(t, m.Remove(model.FrameworkId("f1")))
	_, err = os.Stat(dir)
	assert.True(t, os.IsNotExist(err))
}
