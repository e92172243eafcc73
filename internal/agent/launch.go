package agent

import (
	"github.com/pkg/errors"

	"github.com/gridnode/agentd/internal/actor"
	"github.com/gridnode/agentd/internal/actor/actors"
	"github.com/gridnode/agentd/internal/isolation"
	"github.com/gridnode/agentd/internal/model"
	"github.com/gridnode/agentd/internal/transport"
)

// handleRunTask implements spec.md §4.1.1.
func (a *Agent) handleRunTask(ctx *actor.Context, msg transport.RunTask) error {
	fw, exists := a.frameworks[msg.FrameworkID]
	if !exists {
		fw = newFramework(msg.FrameworkID, msg.FrameworkInfo)
		a.frameworks[fw.ID] = fw
		if err := a.launchExecutor(ctx, fw); err != nil {
			ctx.Log().WithError(err).Warnf("isolation failure launching executor for framework %s", fw.ID)
			delete(a.frameworks, fw.ID)
			a.emitStatusUpdate(ctx, fw.ID, msg.Task.TaskID, model.Lost, "executor launch failed: "+err.Error())
			return nil
		}
	}

	task, created, err := fw.AddTask(msg.Task)
	if err != nil {
		// The master is contractually responsible for task id uniqueness; a reused
		// id with different parameters is a protocol violation.
		return errors.Wrapf(err, "protocol violation: framework %s", fw.ID)
	}
	if !created {
		// Idempotent re-announce: ack with the task's current state rather than
		// reserving resources twice.
		a.emitStatusUpdate(ctx, fw.ID, task.ID, task.State, task.LastMessage)
		return nil
	}

	committed := a.committed.Add(msg.Task.Resources)
	if !a.config.Capacity.Dominates(committed) {
		fw.RemoveTask(task.ID)
		a.emitStatusUpdate(ctx, fw.ID, task.ID, model.Lost, "insufficient agent capacity")
		return nil
	}
	a.committed = committed

	a.emitStatusUpdate(ctx, fw.ID, task.ID, model.Starting, "")

	if ref, connected := a.executorConns[fw.ID]; connected {
		a.sendToExecutor(ctx, ref, transport.MasterToExecutorMessage{RunTask: &msg})
	} else {
		fw.Queued = append(fw.Queued, msg.Task)
	}
	return nil
}

func (a *Agent) launchExecutor(ctx *actor.Context, fw *Framework) error {
	dir, err := a.config.Workspace.Create(fw.ID, fw.RunningUser)
	if err != nil {
		return errors.Wrap(err, "failed to create workspace")
	}

	spec := isolation.Spec{
		FrameworkID: fw.ID,
		Manifest:    fw.ExecutorManifest,
		WorkDir:     dir,
		User:        fw.RunningUser,
	}
	if err := a.config.Isolation.LaunchExecutor(ctx.Self(), spec); err != nil {
		return errors.Wrap(err, "failed to launch executor")
	}

	fw.ExecutorPhase = executorStarting
	timer, _ := actors.NotifyAfter(ctx, a.config.RegistrationTimeout, registrationTimeout{FrameworkID: fw.ID})
	a.regTimers[fw.ID] = timer
	return nil
}

// handleKillTask implements the KillTask row of spec.md §4.1.
func (a *Agent) handleKillTask(ctx *actor.Context, msg transport.KillTask) error {
	fw, ok := a.frameworks[msg.FrameworkID]
	if !ok {
		a.sendToMaster(ctx, transport.MasterMessage{
			KillTaskAck: &transport.KillTaskAck{FrameworkID: msg.FrameworkID, TaskID: msg.TaskID},
		})
		return nil
	}

	if ref, connected := a.executorConns[fw.ID]; connected {
		a.sendToExecutor(ctx, ref, transport.MasterToExecutorMessage{KillTask: &msg})
		return nil
	}

	// No executor yet: the task, if it exists at all, is still only queued.
	if task, existed := fw.Tasks[msg.TaskID]; existed {
		a.committed = a.committed.Subtract(task.Resources)
		fw.RemoveTask(msg.TaskID)
	}
	fw.RemoveQueued(msg.TaskID)
	a.emitStatusUpdate(ctx, fw.ID, msg.TaskID, model.Killed, "")
	return nil
}

// handleKillFramework implements the KillFramework row and the grace-timer half of
// spec.md §4.1.3/§5.
func (a *Agent) handleKillFramework(ctx *actor.Context, msg transport.KillFramework) error {
	fw, ok := a.frameworks[msg.FrameworkID]
	if !ok {
		return nil
	}
	fw.Doomed = true

	if ref, connected := a.executorConns[fw.ID]; connected {
		a.sendToExecutor(ctx, ref, transport.MasterToExecutorMessage{
			ExecutorShutdown: &transport.ExecutorShutdown{FrameworkID: fw.ID},
		})
	}

	timer, _ := actors.NotifyAfter(ctx, a.config.KillGracePeriod, killGraceExpired{FrameworkID: fw.ID})
	a.killTimers[fw.ID] = timer
	return nil
}

func (a *Agent) handleKillGraceExpired(ctx *actor.Context, msg killGraceExpired) error {
	delete(a.killTimers, msg.FrameworkID)
	if _, ok := a.frameworks[msg.FrameworkID]; !ok {
		return nil
	}
	a.config.Isolation.KillExecutor(msg.FrameworkID)
	return nil
}

func (a *Agent) handleRegistrationTimeout(ctx *actor.Context, msg registrationTimeout) error {
	delete(a.regTimers, msg.FrameworkID)
	fw, ok := a.frameworks[msg.FrameworkID]
	if !ok {
		return nil
	}
	if _, registered := a.executors[fw.ID]; registered {
		return nil // stale timer: registration already happened
	}
	return a.handleExecutorExited(ctx, isolation.ExecutorExited{
		FrameworkID: fw.ID,
		Reason:      "executor registration timed out",
	})
}
