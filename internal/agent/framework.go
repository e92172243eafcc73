package agent

import (
	"github.com/pkg/errors"

	"github.com/gridnode/agentd/internal/model"
	"github.com/gridnode/agentd/internal/resource"
	"github.com/gridnode/agentd/internal/transport"
)

// executorPhase tracks where a framework's executor is in its lifecycle, distinct
// from whether an Executor record exists yet (it doesn't, until registration).
type executorPhase int

const (
	executorStarting executorPhase = iota
	executorRegistered
)

// Framework is a tenant workload's bookkeeping record, owned exclusively by the
// Agent. Cross-references to its Task and Executor records are by id, never by
// pointer, per spec.md §9: an executor exit must never leave a dangling reference.
type Framework struct {
	ID               model.FrameworkId
	DisplayName      string
	RunningUser      model.AgentUserGroup
	ExecutorManifest []byte

	// Queued holds TaskDescriptions for tasks already reserved in Tasks/Resources but
	// not yet forwarded to an executor, because none has registered yet.
	Queued []transport.TaskDescription
	Tasks  map[model.TaskId]*Task

	// Resources is the sum of Tasks' resources (invariant I3), maintained by
	// AddTask/RemoveTask.
	Resources resource.Vector

	// Doomed is set by KillFramework; once true the framework is removed as soon as
	// its executor has exited, regardless of remaining tasks.
	Doomed bool

	ExecutorPhase executorPhase

	// ExecutorStatusOpaque is forwarded verbatim between master and executor; the
	// agent never interprets it.
	ExecutorStatusOpaque string
}

func newFramework(id model.FrameworkId, info transport.FrameworkInfo) *Framework {
	return &Framework{
		ID:               id,
		DisplayName:      info.DisplayName,
		RunningUser:      info.RunningUser,
		ExecutorManifest: info.ExecutorManifest,
		Tasks:            map[model.TaskId]*Task{},
	}
}

// Info reconstructs the FrameworkInfo an executor needs on first RunTask, since the
// Framework record itself only stores the fields that came from it.
func (fw *Framework) Info() transport.FrameworkInfo {
	return transport.FrameworkInfo{
		DisplayName:      fw.DisplayName,
		RunningUser:      fw.RunningUser,
		ExecutorManifest: fw.ExecutorManifest,
	}
}

// AddTask reserves resources for desc and records a new Task in STARTING. If
// desc.TaskID is already tracked with the same display name and resources, it is
// treated as an idempotent re-announce (spec.md §9 open question (a): the master may
// re-announce tasks verbatim after a failover) and the existing Task is returned with
// created false. A reused id with a different display name or resources is a protocol
// violation. OpaquePayload and Parameters are not compared.
func (fw *Framework) AddTask(desc transport.TaskDescription) (task *Task, created bool, err error) {
	if existing, ok := fw.Tasks[desc.TaskID]; ok {
		if existing.DisplayName == desc.DisplayName && existing.Resources == desc.Resources {
			return existing, false, nil
		}
		return nil, false, errors.Errorf("task id %s reused with different parameters", desc.TaskID)
	}

	task = &Task{
		ID:          desc.TaskID,
		FrameworkID: fw.ID,
		Resources:   desc.Resources,
		State:       model.Starting,
		DisplayName: desc.DisplayName,
	}
	fw.Tasks[desc.TaskID] = task
	fw.Resources = fw.Resources.Add(desc.Resources)
	return task, true, nil
}

// RemoveTask deletes id from the task table, releasing its resources from fw's
// ledger. It is a no-op if id is not tracked.
func (fw *Framework) RemoveTask(id model.TaskId) {
	task, ok := fw.Tasks[id]
	if !ok {
		return
	}
	fw.Resources = fw.Resources.Subtract(task.Resources)
	delete(fw.Tasks, id)
}

// RemoveQueued drops id's TaskDescription from the queue, if present, without
// touching the task table or resource ledger.
func (fw *Framework) RemoveQueued(id model.TaskId) {
	for i, desc := range fw.Queued {
		if desc.TaskID == id {
			fw.Queued = append(fw.Queued[:i], fw.Queued[i+1:]...)
			return
		}
	}
}
