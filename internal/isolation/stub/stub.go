// Package stub implements isolation.Backend as an in-memory test double: it records
// every LaunchExecutor and KillExecutor call and lets the harness inject executor
// exits on demand.
package stub

import (
	"sync"

	"github.com/gridnode/agentd/internal/actor"
	"github.com/gridnode/agentd/internal/isolation"
	"github.com/gridnode/agentd/internal/model"
)

// Call records one LaunchExecutor or KillExecutor invocation.
type Call struct {
	Method      string
	FrameworkID model.FrameworkId
	Spec        isolation.Spec
}

// Backend is a test double for isolation.Backend.
type Backend struct {
	mu      sync.Mutex
	Calls   []Call
	Owners  map[model.FrameworkId]*actor.Ref
	LaunchErr map[model.FrameworkId]error
}

// New returns an empty stub backend.
func New() *Backend {
	return &Backend{
		Owners:    map[model.FrameworkId]*actor.Ref{},
		LaunchErr: map[model.FrameworkId]error{},
	}
}

// LaunchExecutor implements isolation.Backend.
func (b *Backend) LaunchExecutor(owner *actor.Ref, spec isolation.Spec) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.Calls = append(b.Calls, Call{Method: "LaunchExecutor", FrameworkID: spec.FrameworkID, Spec: spec})
	if err := b.LaunchErr[spec.FrameworkID]; err != nil {
		return err
	}
	b.Owners[spec.FrameworkID] = owner
	return nil
}

// KillExecutor implements isolation.Backend.
func (b *Backend) KillExecutor(frameworkID model.FrameworkId) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Calls = append(b.Calls, Call{Method: "KillExecutor", FrameworkID: frameworkID})
}

// ResourceUsage implements isolation.Backend; the stub never reports usage.
func (b *Backend) ResourceUsage(model.FrameworkId) (isolation.UsageSample, bool) {
	return isolation.UsageSample{}, false
}

// InjectExit lets a test simulate an executor exiting, delivering ExecutorExited to
// whichever actor launched it.
func (b *Backend) InjectExit(frameworkID model.FrameworkId, status int, reason string) {
	b.mu.Lock()
	owner := b.Owners[frameworkID]
	b.mu.Unlock()
	if owner == nil {
		return
	}
	owner.System().Tell(owner, isolation.ExecutorExited{
		FrameworkID: frameworkID,
		ExitStatus:  status,
		Reason:      reason,
	})
}
