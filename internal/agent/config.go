package agent

import (
	"time"

	"github.com/gridnode/agentd/internal/isolation"
	"github.com/gridnode/agentd/internal/resource"
	"github.com/gridnode/agentd/internal/transport"
	"github.com/gridnode/agentd/internal/workspace"
)

// Config bundles everything the Agent actor needs to run as explicit constructor
// parameters rather than package-level mutable state (spec.md §9).
type Config struct {
	// Capacity is the agent's advertised, immutable resource capacity.
	Capacity resource.Vector

	Isolation isolation.Backend
	Workspace *workspace.Manager

	// FaultTolerant, when true, means MasterAddr is never dialed directly; the Agent
	// waits for its first leaderwatch.NewLeader instead.
	FaultTolerant bool
	MasterAddr    transport.PID
	TLS           transport.TLSConfig

	// RegistrationTimeout bounds how long a newly-launched executor has to register
	// before it is treated as having exited without ever starting.
	RegistrationTimeout time.Duration

	// KillGracePeriod is how long a doomed framework's executor is given to exit
	// after ExecutorShutdown before the isolation backend kills it forcibly.
	KillGracePeriod time.Duration

	// MasterLossGrace is how long a non-fault-tolerant agent waits after losing its
	// master connection before beginning graceful self-shutdown.
	MasterLossGrace time.Duration
}
