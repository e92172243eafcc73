package model

import (
	"github.com/gridnode/agentd/internal/check"
)

// TaskState is the lifecycle stage of a launched Task.
type TaskState string

const (
	// Starting means the executor has accepted the task but has not yet reported it running.
	Starting TaskState = "STARTING"
	// Running means the executor reports the task is actively executing.
	Running TaskState = "RUNNING"
	// Finished is a terminal state: the task completed successfully.
	Finished TaskState = "FINISHED"
	// Failed is a terminal state: the task exited with an error.
	Failed TaskState = "FAILED"
	// Killed is a terminal state: the task was killed on request.
	Killed TaskState = "KILLED"
	// Lost is a terminal state: the agent synthesized this update because the
	// executor disappeared without reporting the task's fate.
	Lost TaskState = "LOST"
)

func (s TaskState) String() string {
	return string(s)
}

// Live reports whether a task in this state still occupies committed resources.
func (s TaskState) Live() bool {
	return s == Starting || s == Running
}

// Terminal reports whether this state is final; a terminal task is removed from the
// task table once its update has been forwarded to the master.
func (s TaskState) Terminal() bool {
	return !s.Live()
}

var validTaskTransitions = map[TaskState]map[TaskState]bool{
	Starting: {Running: true, Finished: true, Failed: true, Killed: true, Lost: true},
	Running:  {Finished: true, Failed: true, Killed: true, Lost: true},
	Finished: {},
	Failed:   {},
	Killed:   {},
	Lost:     {},
}

// CheckTransition reports an error unless moving from s to next is a legal transition
// in the task state machine. A no-op transition (s == next) is always illegal since
// a task is never expected to re-report the state it is already in.
func (s TaskState) CheckTransition(next TaskState) error {
	return check.True(validTaskTransitions[s][next],
		"illegal task state transition from %s to %s", s, next)
}
