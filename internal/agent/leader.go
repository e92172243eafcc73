package agent

import (
	"github.com/gridnode/agentd/internal/actor"
	"github.com/gridnode/agentd/internal/actor/actors"
	"github.com/gridnode/agentd/internal/leaderwatch"
	"github.com/gridnode/agentd/internal/transport"
)

// handleNewLeader implements spec.md §4.1.4. Two consecutive NewLeader messages
// carrying the same address produce exactly one ReregisterAgent (spec.md §8).
func (a *Agent) handleNewLeader(ctx *actor.Context, msg leaderwatch.NewLeader) error {
	if msg.Address == a.masterAddr && a.master != nil {
		return nil
	}

	if a.master != nil {
		a.master.Stop()
		a.master = nil
	}

	a.masterAddr = msg.Address
	ref, err := transport.Dial(ctx, msg.Address, "/agent", transport.AgentMessage{}, a.config.TLS)
	if err != nil {
		ctx.Log().WithError(err).Warnf("failed to connect to new leader %s", msg.Address)
		return nil
	}
	a.master = ref
	a.sendToMaster(ctx, a.reregisterMessage())
	return nil
}

func (a *Agent) reregisterMessage() transport.MasterMessage {
	executors := make([]transport.ExecutorSnapshot, 0, len(a.executors))
	for _, exec := range a.executors {
		executors = append(executors, transport.ExecutorSnapshot{FrameworkID: exec.FrameworkID, Address: exec.Address})
	}

	var tasks []transport.TaskSnapshot
	for _, fw := range a.frameworks {
		for _, task := range fw.Tasks {
			tasks = append(tasks, transport.TaskSnapshot{
				FrameworkID: fw.ID,
				TaskID:      task.ID,
				Resources:   task.Resources,
				State:       task.State,
				DisplayName: task.DisplayName,
			})
		}
	}

	return transport.MasterMessage{ReregisterAgent: &transport.ReregisterAgent{
		AgentID:   a.id,
		Capacity:  a.config.Capacity,
		Executors: executors,
		Tasks:     tasks,
	}}
}

// handlePeerExited implements the PeerExited row of spec.md §4.1.
func (a *Agent) handlePeerExited(ctx *actor.Context, msg transport.PeerExited) error {
	if msg.Address != a.masterAddr {
		return nil
	}
	a.master = nil

	if a.config.FaultTolerant || a.shuttingDown {
		return nil
	}

	a.shuttingDown = true
	actors.NotifyAfter(ctx, a.config.MasterLossGrace, masterLossExpired{})
	return nil
}

// handleShutdown implements the Shutdown row of spec.md §4.1: kill every executor,
// then exit once none remain.
func (a *Agent) handleShutdown(ctx *actor.Context) error {
	a.shuttingDown = true
	a.beginShutdown(ctx)
	return nil
}

func (a *Agent) beginShutdown(ctx *actor.Context) {
	if len(a.frameworks) == 0 {
		ctx.Self().Stop()
		return
	}
	for id := range a.frameworks {
		a.config.Isolation.KillExecutor(id)
	}
	// Each kill completes asynchronously via ExecutorExited, which GCs its
	// framework and, once none remain, stops the Agent (see handleExecutorExited).
}
