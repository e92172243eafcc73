package agent

import (
	"github.com/gridnode/agentd/internal/actor"
	"github.com/gridnode/agentd/internal/model"
	"github.com/gridnode/agentd/internal/transport"
)

// sendToMaster writes msg to the current master connection, if any. A failed write
// is a transient transport failure (spec.md §7): it is logged and dropped, relying
// on the master's own re-send or the agent's next status update to reconcile.
func (a *Agent) sendToMaster(ctx *actor.Context, msg transport.MasterMessage) {
	if a.master == nil {
		ctx.Log().Warn("dropping message to master: not connected")
		return
	}
	if err := transport.WriteSocketJSON(ctx, a.master, msg); err != nil {
		ctx.Log().WithError(err).Warn("failed to send message to master")
	}
}

func (a *Agent) sendToExecutor(ctx *actor.Context, ref *actor.Ref, msg transport.MasterToExecutorMessage) {
	if err := transport.WriteSocketJSON(ctx, ref, msg); err != nil {
		ctx.Log().WithError(err).Warn("failed to send message to executor")
	}
}

func (a *Agent) emitStatusUpdate(
	ctx *actor.Context, frameworkID model.FrameworkId, taskID model.TaskId, state model.TaskState, data string,
) {
	a.sendToMaster(ctx, transport.MasterMessage{StatusUpdate: &transport.StatusUpdate{
		FrameworkID: frameworkID,
		TaskID:      taskID,
		State:       state,
		Data:        data,
	}})
}

func (a *Agent) ackExecutor(ctx *actor.Context, frameworkID model.FrameworkId, taskID model.TaskId) {
	ref, ok := a.executorConns[frameworkID]
	if !ok {
		return
	}
	a.sendToExecutor(ctx, ref, transport.MasterToExecutorMessage{
		StatusUpdateAck: &transport.StatusUpdateAck{FrameworkID: frameworkID, TaskID: taskID},
	})
}
