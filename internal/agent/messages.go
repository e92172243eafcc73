package agent

import "github.com/gridnode/agentd/internal/model"

// Shutdown asks the Agent to kill every running executor and then stop itself. It may be
// sent directly by an embedder that wants a controlled stop; an OS signal relayed by
// actors.NotifyOnSignal (see PreStart) arrives as an os.Signal and takes the same path.
type Shutdown struct{}

// registrationTimeout fires if a launched framework's executor never registers.
type registrationTimeout struct {
	FrameworkID model.FrameworkId
}

// killGraceExpired fires when a doomed framework's executor has not exited within
// its grace period after ExecutorShutdown.
type killGraceExpired struct {
	FrameworkID model.FrameworkId
}

// masterLossExpired fires after MasterLossGrace has elapsed with no master
// connection in non-fault-tolerant mode.
type masterLossExpired struct{}
