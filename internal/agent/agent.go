// Package agent implements the agent node's control-plane actor: the single-threaded
// state machine tying together framework registration, executor lifecycle, task
// bookkeeping against a finite resource pool, master failover, and the isolation
// abstraction, per spec.md §2 and §4.1.
package agent

import (
	"os"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/gridnode/agentd/internal/actor"
	"github.com/gridnode/agentd/internal/actor/actors"
	"github.com/gridnode/agentd/internal/isolation"
	"github.com/gridnode/agentd/internal/leaderwatch"
	"github.com/gridnode/agentd/internal/model"
	"github.com/gridnode/agentd/internal/resource"
	"github.com/gridnode/agentd/internal/transport"
)

// Agent is the actor described in spec.md §2: it owns all Framework, Task, and
// Executor records and serves one mailbox message at a time. Outbound sends are
// WriteMessage Asks to a local child actor, which replies before the remote write
// happens. Connecting to a master (PreStart, NewLeader) dials synchronously inside
// the handler, and launching an executor (RunTask) creates its workspace and calls
// the isolation backend synchronously.
type Agent struct {
	config Config

	id         *model.AgentId
	masterAddr transport.PID
	master     *actor.Ref

	committed resource.Vector

	frameworks    map[model.FrameworkId]*Framework
	executors     map[model.FrameworkId]*Executor
	executorConns map[model.FrameworkId]*actor.Ref

	regTimers  map[model.FrameworkId]*actor.Ref
	killTimers map[model.FrameworkId]*actor.Ref

	shuttingDown bool
	// shutdownErrs accumulates every framework's workspace teardown failure during a
	// Shutdown so they can be reported together once the last one exits, rather than
	// one fragmented log line per framework.
	shutdownErrs *multierror.Error
}

// New constructs an Agent from config. It does not start running until handed to
// actor.System.ActorOf.
func New(config Config) *Agent {
	return &Agent{
		config:        config,
		masterAddr:    config.MasterAddr,
		frameworks:    map[model.FrameworkId]*Framework{},
		executors:     map[model.FrameworkId]*Executor{},
		executorConns: map[model.FrameworkId]*actor.Ref{},
		regTimers:     map[model.FrameworkId]*actor.Ref{},
		killTimers:    map[model.FrameworkId]*actor.Ref{},
	}
}

// Receive implements actor.Actor.
func (a *Agent) Receive(ctx *actor.Context) error {
	switch msg := ctx.Message().(type) {
	case actor.PreStart:
		return a.preStart(ctx)

	case transport.AgentMessage:
		return a.receiveAgentMessage(ctx, msg)

	case transport.ExecutorMessage:
		return a.receiveExecutorMessage(ctx, msg)

	case transport.WebSocketConnected:
		ref, err := msg.Accept(ctx, transport.ExecutorMessage{}, true)
		ctx.RespondCheckError(ref, err)
		return nil

	case isolation.ExecutorExited:
		return a.handleExecutorExited(ctx, msg)

	case leaderwatch.NewLeader:
		return a.handleNewLeader(ctx, msg)

	case transport.PeerExited:
		return a.handlePeerExited(ctx, msg)

	case registrationTimeout:
		return a.handleRegistrationTimeout(ctx, msg)

	case killGraceExpired:
		return a.handleKillGraceExpired(ctx, msg)

	case masterLossExpired:
		a.beginShutdown(ctx)
		return nil

	case Shutdown:
		return a.handleShutdown(ctx)

	case os.Signal:
		ctx.Log().Infof("received signal %s, shutting down", msg)
		return a.handleShutdown(ctx)

	case actor.ChildFailed:
		ctx.Log().WithError(msg.Error).Warnf("child %s exited unexpectedly", msg.Child.Address())
		return nil
	case actor.ChildStopped:
		return nil

	case actor.PostStop:
		if err := a.shutdownErrs.ErrorOrNil(); err != nil {
			ctx.Log().WithError(err).Warn("errors during shutdown")
		}
		return nil

	default:
		return actor.ErrUnexpectedMessage(ctx)
	}
}

func (a *Agent) preStart(ctx *actor.Context) error {
	actors.NotifyOnSignal(ctx, os.Interrupt)

	if a.config.FaultTolerant {
		// Wait for the first leaderwatch.NewLeader; we don't know the real master
		// address yet, only the coordination service's (watched outside the Agent).
		return nil
	}
	return a.connectAndRegister(ctx, a.config.MasterAddr)
}

func (a *Agent) connectAndRegister(ctx *actor.Context, addr transport.PID) error {
	ref, err := transport.Dial(ctx, addr, "/agent", transport.AgentMessage{}, a.config.TLS)
	if err != nil {
		return errors.Wrapf(err, "failed to connect to master %s", addr)
	}
	a.masterAddr = addr
	a.master = ref
	a.sendToMaster(ctx, transport.MasterMessage{
		RegisterAgent: &transport.RegisterAgent{Capacity: a.config.Capacity},
	})
	return nil
}

func (a *Agent) receiveAgentMessage(ctx *actor.Context, msg transport.AgentMessage) error {
	switch {
	case msg.RegisterReply != nil:
		return a.handleRegisterReply(ctx, *msg.RegisterReply)
	case msg.RunTask != nil:
		return a.handleRunTask(ctx, *msg.RunTask)
	case msg.KillTask != nil:
		return a.handleKillTask(ctx, *msg.KillTask)
	case msg.KillFramework != nil:
		return a.handleKillFramework(ctx, *msg.KillFramework)
	case msg.FrameworkMessage != nil:
		return a.relayToExecutor(ctx, *msg.FrameworkMessage)
	default:
		return errors.Errorf("empty AgentMessage from master")
	}
}

func (a *Agent) receiveExecutorMessage(ctx *actor.Context, msg transport.ExecutorMessage) error {
	switch {
	case msg.ExecutorRegister != nil:
		return a.handleExecutorRegister(ctx, *msg.ExecutorRegister)
	case msg.StatusUpdate != nil:
		return a.handleStatusUpdate(ctx, *msg.StatusUpdate)
	case msg.FrameworkMessage != nil:
		return a.relayToMaster(ctx, *msg.FrameworkMessage)
	default:
		return errors.Errorf("empty ExecutorMessage from executor")
	}
}

func (a *Agent) handleRegisterReply(ctx *actor.Context, msg transport.RegisterReply) error {
	reannounce := a.id != nil
	id := msg.AgentID
	a.id = &id
	if !reannounce {
		// First-ever registration: no framework workspace has been created yet, so it
		// is safe to rebase workspace paths onto the id the master actually assigned,
		// replacing the pre-registration placeholder (spec.md §3, §6).
		a.config.Workspace.Rebase(id)
	} else {
		a.sendToMaster(ctx, a.reregisterMessage())
	}
	return nil
}

// relayToExecutor and relayToMaster implement the opaque FrameworkMessage relay: the
// agent never inspects Data, only routes it by the framework it names.
func (a *Agent) relayToExecutor(ctx *actor.Context, msg transport.FrameworkMessage) error {
	ref, ok := a.executorConns[msg.FrameworkID]
	if !ok {
		ctx.Log().Warnf("dropping framework message for framework %s: no executor connected", msg.FrameworkID)
		return nil
	}
	a.sendToExecutor(ctx, ref, transport.MasterToExecutorMessage{FrameworkMessage: &msg})
	return nil
}

func (a *Agent) relayToMaster(ctx *actor.Context, msg transport.FrameworkMessage) error {
	a.sendToMaster(ctx, transport.MasterMessage{FrameworkMessage: &msg})
	return nil
}
