// Package model holds the agent's record types: opaque identifiers, the
// per-host user/group an executor runs as, and the task state machine.
// Framework, Task, and Executor bookkeeping tables themselves live in
// internal/agent, which owns them exclusively.
package model

// FrameworkId identifies a tenant workload registered with the agent.
type FrameworkId string

// TaskId identifies a single unit of tenant work within a framework.
type TaskId string

// AgentId identifies this agent process, assigned by the master on
// successful registration. It is stable for the lifetime of the process.
type AgentId string

// OfferId identifies a resource offer made by the master; carried opaquely.
type OfferId string
