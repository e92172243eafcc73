// Package isolation defines the capability interface the Agent uses to launch,
// supervise, and tear down a framework's executor process, independent of the
// concrete launch mechanism (process group, container, or test stub).
package isolation

import (
	"github.com/gridnode/agentd/internal/actor"
	"github.com/gridnode/agentd/internal/model"
)

// Spec describes everything a Backend needs to launch one framework's executor.
type Spec struct {
	FrameworkID model.FrameworkId
	Manifest    []byte // opaque executor manifest from FrameworkInfo.ExecutorManifest
	WorkDir     string
	User        model.AgentUserGroup
	Env         []string
}

// UsageSample is a point-in-time resource usage reading for a running executor.
type UsageSample struct {
	CPUSeconds float64
	MemBytes   int64
}

// ExecutorExited is sent into the owner's mailbox, asynchronously, whenever a
// previously-launched executor's process exits for any reason (clean exit, signal,
// launch failure). Backends never block their caller to report this.
type ExecutorExited struct {
	FrameworkID model.FrameworkId
	ExitStatus  int
	Reason      string
}

// Backend is the capability set every isolation mechanism implements: launch an
// executor, kill it, and optionally sample its resource usage. All three variants
// report exits by Tell-ing ExecutorExited to owner, never by blocking the caller.
type Backend interface {
	// LaunchExecutor starts spec's executor. It must return quickly; long-running
	// supervision (waitpid, container wait) happens on the backend's own goroutine.
	LaunchExecutor(owner *actor.Ref, spec Spec) error

	// KillExecutor asks the backend to terminate the executor for frameworkID. It is
	// idempotent: killing an executor that already exited, or was never launched, is
	// a no-op.
	KillExecutor(frameworkID model.FrameworkId)

	// ResourceUsage returns the last known usage sample for frameworkID's executor,
	// or ok=false if no sample is available (backend doesn't support sampling, or the
	// executor isn't running).
	ResourceUsage(frameworkID model.FrameworkId) (sample UsageSample, ok bool)
}
