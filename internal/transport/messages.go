package transport

import (
	"github.com/gridnode/agentd/internal/model"
	"github.com/gridnode/agentd/internal/resource"
)

// TaskDescription is the intent to launch a task, as carried over the wire. It is
// held by the agent only while the task's executor has not yet connected.
type TaskDescription struct {
	TaskID         model.TaskId      `json:"task_id"`
	DisplayName    string            `json:"display_name"`
	OpaquePayload  []byte            `json:"opaque_payload"`
	Parameters     map[string]string `json:"parameters"`
	Resources      resource.Vector   `json:"resources"`
}

// FrameworkInfo describes a framework as announced by the master on its first task
// launch request.
type FrameworkInfo struct {
	DisplayName      string                 `json:"display_name"`
	RunningUser      model.AgentUserGroup   `json:"running_user"`
	ExecutorManifest []byte                 `json:"executor_manifest"`
}

// TaskSnapshot and ExecutorSnapshot are the state the agent hands back on
// ReregisterAgent so a new master can reconstruct its view without replaying history.
type TaskSnapshot struct {
	FrameworkID model.FrameworkId `json:"framework_id"`
	TaskID      model.TaskId      `json:"task_id"`
	Resources   resource.Vector   `json:"resources"`
	State       model.TaskState   `json:"state"`
	DisplayName string            `json:"display_name"`
}

// ExecutorSnapshot is the executor-link state the agent hands back on reregistration.
type ExecutorSnapshot struct {
	FrameworkID model.FrameworkId `json:"framework_id"`
	Address     PID               `json:"address"`
}

// MasterMessage is a union type for all messages sent agent -> master, mirroring the
// teacher's pkg/agent.MasterMessage: exactly one field is set per message instance.
type MasterMessage struct {
	RegisterAgent   *RegisterAgent   `json:"register_agent,omitempty"`
	ReregisterAgent *ReregisterAgent `json:"reregister_agent,omitempty"`
	StatusUpdate    *StatusUpdate    `json:"status_update,omitempty"`
	FrameworkMessage *FrameworkMessage `json:"framework_message,omitempty"`
	KillTaskAck     *KillTaskAck     `json:"kill_task_ack,omitempty"`
}

// RegisterAgent is the first message an agent sends a newly-discovered master.
type RegisterAgent struct {
	Capacity resource.Vector `json:"capacity"`
}

// ReregisterAgent is sent after a leader change, carrying a full snapshot of live
// state so the new master can reconstruct it without replay.
type ReregisterAgent struct {
	AgentID   *model.AgentId     `json:"agent_id,omitempty"`
	Capacity  resource.Vector    `json:"capacity"`
	Executors []ExecutorSnapshot `json:"executors"`
	Tasks     []TaskSnapshot     `json:"tasks"`
}

// StatusUpdate reports a task's current state to the master.
type StatusUpdate struct {
	FrameworkID model.FrameworkId `json:"framework_id"`
	TaskID      model.TaskId      `json:"task_id"`
	State       model.TaskState   `json:"state"`
	Data        string            `json:"data"`
}

// KillTaskAck acknowledges a KillTask for a task the agent had no record of.
type KillTaskAck struct {
	FrameworkID model.FrameworkId `json:"framework_id"`
	TaskID      model.TaskId      `json:"task_id"`
}

// FrameworkMessage is an opaque relay between a framework's scheduler and its
// executor; the agent never inspects Data, only routes it.
type FrameworkMessage struct {
	FrameworkID model.FrameworkId `json:"framework_id"`
	Data        []byte            `json:"data"`
}

// AgentMessage is a union type for all messages sent master -> agent.
type AgentMessage struct {
	RegisterReply    *RegisterReply    `json:"register_reply,omitempty"`
	RunTask          *RunTask          `json:"run_task,omitempty"`
	KillTask         *KillTask         `json:"kill_task,omitempty"`
	KillFramework    *KillFramework    `json:"kill_framework,omitempty"`
	FrameworkMessage *FrameworkMessage `json:"framework_message,omitempty"`
}

// RegisterReply assigns (or confirms) this agent's id.
type RegisterReply struct {
	AgentID model.AgentId `json:"agent_id"`
}

// RunTask asks the agent to launch a task under a framework, creating the framework
// record on first use.
type RunTask struct {
	FrameworkID   model.FrameworkId `json:"framework_id"`
	FrameworkInfo FrameworkInfo     `json:"framework_info"`
	Task          TaskDescription   `json:"task"`
}

// KillTask asks the agent to kill a single task.
type KillTask struct {
	FrameworkID model.FrameworkId `json:"framework_id"`
	TaskID      model.TaskId      `json:"task_id"`
}

// KillFramework asks the agent to tear down an entire framework and its executor.
type KillFramework struct {
	FrameworkID model.FrameworkId `json:"framework_id"`
}

// ExecutorMessage is a union type for all messages sent executor -> agent.
type ExecutorMessage struct {
	ExecutorRegister *ExecutorRegister `json:"executor_register,omitempty"`
	StatusUpdate     *StatusUpdate     `json:"status_update,omitempty"`
	FrameworkMessage *FrameworkMessage `json:"framework_message,omitempty"`
}

// ExecutorRegister notifies the agent that an executor has come up and is ready to
// receive RunTask messages for its framework.
type ExecutorRegister struct {
	FrameworkID model.FrameworkId `json:"framework_id"`
	Address     PID               `json:"address"`
}

// MasterToExecutorMessage is a union type for all messages sent agent -> executor
// (some originating at the agent itself, some relayed from the master).
type MasterToExecutorMessage struct {
	RunTask          *RunTask          `json:"run_task,omitempty"`
	KillTask         *KillTask         `json:"kill_task,omitempty"`
	ExecutorShutdown *ExecutorShutdown `json:"executor_shutdown,omitempty"`
	FrameworkMessage *FrameworkMessage `json:"framework_message,omitempty"`
	StatusUpdateAck  *StatusUpdateAck  `json:"status_update_ack,omitempty"`
}

// ExecutorShutdown asks an executor to shut itself and all its tasks down gracefully.
type ExecutorShutdown struct {
	FrameworkID model.FrameworkId `json:"framework_id"`
}

// StatusUpdateAck confirms receipt of one StatusUpdate, letting the executor retire
// it from its own retry buffer.
type StatusUpdateAck struct {
	FrameworkID model.FrameworkId `json:"framework_id"`
	TaskID      model.TaskId      `json:"task_id"`
}
