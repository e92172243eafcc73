package agent

import (
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/gridnode/agentd/internal/actor"
	"github.com/gridnode/agentd/internal/isolation"
	"github.com/gridnode/agentd/internal/model"
	"github.com/gridnode/agentd/internal/transport"
)

// handleExecutorRegister implements spec.md §4.1.2.
func (a *Agent) handleExecutorRegister(ctx *actor.Context, msg transport.ExecutorRegister) error {
	fw, ok := a.frameworks[msg.FrameworkID]
	if !ok {
		ctx.Log().Warnf("protocol violation: executor register for unknown framework %s", msg.FrameworkID)
		return nil
	}
	if _, exists := a.executors[fw.ID]; exists {
		ctx.Log().Warnf("protocol violation: duplicate executor register for framework %s", fw.ID)
		return nil
	}

	if timer, ok := a.regTimers[fw.ID]; ok {
		timer.Stop()
		delete(a.regTimers, fw.ID)
	}

	a.executors[fw.ID] = &Executor{FrameworkID: fw.ID, Address: msg.Address}
	a.executorConns[fw.ID] = ctx.Sender()
	fw.ExecutorPhase = executorRegistered

	queued := fw.Queued
	fw.Queued = nil
	for _, desc := range queued {
		run := transport.RunTask{FrameworkID: fw.ID, FrameworkInfo: fw.Info(), Task: desc}
		a.sendToExecutor(ctx, ctx.Sender(), transport.MasterToExecutorMessage{RunTask: &run})
	}
	return nil
}

// handleStatusUpdate implements the StatusUpdate row of spec.md §4.1.
func (a *Agent) handleStatusUpdate(ctx *actor.Context, msg transport.StatusUpdate) error {
	fw, ok := a.frameworks[msg.FrameworkID]
	if !ok {
		// Framework already removed (e.g. its executor exited and was GC'd); drop
		// per the idempotent-by-reconciliation design (spec.md §7).
		return nil
	}
	task, ok := fw.Tasks[msg.TaskID]
	if !ok {
		// Duplicate terminal update, or an id we never tracked: ack anyway so the
		// executor's own retry buffer can retire it.
		a.ackExecutor(ctx, fw.ID, msg.TaskID)
		return nil
	}
	if err := task.State.CheckTransition(msg.State); err != nil {
		ctx.Log().WithError(err).Warnf("framework %s task %s", fw.ID, task.ID)
		return nil
	}

	task.State = msg.State
	task.LastMessage = msg.Data
	a.sendToMaster(ctx, transport.MasterMessage{StatusUpdate: &msg})

	if msg.State.Terminal() {
		a.committed = a.committed.Subtract(task.Resources)
		fw.RemoveTask(task.ID)
	}
	a.ackExecutor(ctx, fw.ID, msg.TaskID)
	return nil
}

// handleExecutorExited implements spec.md §4.1.3.
func (a *Agent) handleExecutorExited(ctx *actor.Context, msg isolation.ExecutorExited) error {
	fw, ok := a.frameworks[msg.FrameworkID]
	if !ok {
		return nil
	}

	if timer, ok := a.regTimers[fw.ID]; ok {
		timer.Stop()
		delete(a.regTimers, fw.ID)
	}
	if timer, ok := a.killTimers[fw.ID]; ok {
		timer.Stop()
		delete(a.killTimers, fw.ID)
	}
	delete(a.executors, fw.ID)
	delete(a.executorConns, fw.ID)

	// A task that was only ever queued (never forwarded, because the executor had
	// not registered) still has a Task record from AddTask's reservation, so this
	// single pass over Tasks surfaces LOST for queued and dispatched tasks alike —
	// exactly the "each is surfaced as LOST rather than silently dropped" behavior
	// spec.md §4.1.3 calls for when the exit happens pre-registration.
	for taskID, task := range fw.Tasks {
		if task.State.Live() {
			a.synthesizeLost(ctx, fw, taskID, "executor exited")
		}
	}
	fw.Queued = nil

	if fw.Doomed || len(fw.Tasks) == 0 {
		if err := a.config.Workspace.Remove(fw.ID); err != nil {
			err = errors.Wrapf(err, "failed to remove workspace for framework %s", fw.ID)
			if a.shuttingDown {
				// Collected and reported together in PostStop rather than one log
				// line per framework torn down during a fleet-wide Shutdown.
				a.shutdownErrs = multierror.Append(a.shutdownErrs, err)
			} else {
				ctx.Log().WithError(err).Warn("workspace cleanup failed")
			}
		}
		delete(a.frameworks, fw.ID)
	}

	if a.shuttingDown && len(a.frameworks) == 0 {
		ctx.Self().Stop()
	}
	return nil
}

func (a *Agent) synthesizeLost(ctx *actor.Context, fw *Framework, taskID model.TaskId, reason string) {
	task, ok := fw.Tasks[taskID]
	if !ok {
		return
	}
	task.State = model.Lost
	task.LastMessage = reason
	a.committed = a.committed.Subtract(task.Resources)
	fw.RemoveTask(taskID)
	a.emitStatusUpdate(ctx, fw.ID, taskID, model.Lost, reason)
}
