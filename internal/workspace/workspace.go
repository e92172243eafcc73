// Package workspace computes and manages the per-framework on-disk working
// directory an executor runs in: a deterministic path under the agent's
// configured work directory, created lazily and chowned to the framework's
// running user, torn down when the framework record is removed.
package workspace

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/gridnode/agentd/internal/model"
)

// Manager computes and manages framework workspaces under a single agent work
// directory.
type Manager struct {
	WorkDir string
	AgentID model.AgentId
}

// New returns a Manager rooted at workDir for the given agent id. Before the master
// has assigned a real AgentId, agentID is a local placeholder (spec.md §6); callers
// must Rebase it once registration completes, before creating any workspace under it.
func New(workDir string, agentID model.AgentId) *Manager {
	return &Manager{WorkDir: workDir, AgentID: agentID}
}

// Rebase updates the agent id workspace paths are computed under. It must be called,
// at most, while no framework workspace has yet been created under the previous id —
// in practice, from the RegisterReply handler, before any RunTask can have arrived.
func (m *Manager) Rebase(agentID model.AgentId) {
	m.AgentID = agentID
}

// Path returns the deterministic workspace path for frameworkID, without creating it.
func (m *Manager) Path(frameworkID model.FrameworkId) string {
	return filepath.Join(m.WorkDir,
		"agent-"+string(m.AgentID),
		"framework-"+string(frameworkID),
	)
}

// Create lazily creates frameworkID's workspace directory and chowns it to user. It is
// safe to call when the directory already exists.
func (m *Manager) Create(frameworkID model.FrameworkId, user model.AgentUserGroup) (string, error) {
	dir := m.Path(frameworkID)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", errors.Wrapf(err, "failed to create workspace for framework %s", frameworkID)
	}
	if err := os.Chown(dir, user.UID, user.GID); err != nil {
		return "", errors.Wrapf(err, "failed to chown workspace for framework %s", frameworkID)
	}
	return dir, nil
}

// Remove deletes frameworkID's workspace tree. It is a no-op if the directory was
// never created.
func (m *Manager) Remove(frameworkID model.FrameworkId) error {
	dir := m.Path(frameworkID)
	if err := os.RemoveAll(dir); err != nil {
		return errors.Wrapf(err, "failed to remove workspace for framework %s", frameworkID)
	}
	return nil
}
