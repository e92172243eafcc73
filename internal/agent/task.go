package agent

import (
	"github.com/gridnode/agentd/internal/model"
	"github.com/gridnode/agentd/internal/resource"
	"github.com/gridnode/agentd/internal/transport"
)

// Task is one unit of tenant work launched under a Framework.
type Task struct {
	ID          model.TaskId
	FrameworkID model.FrameworkId
	Resources   resource.Vector
	State       model.TaskState
	DisplayName string
	LastMessage string
}

// Executor is the active link to a framework's helper process. At most one exists
// per FrameworkId (invariant I4), from the moment it registers to the moment it is
// killed or observed to have exited.
type Executor struct {
	FrameworkID model.FrameworkId
	Address     transport.PID
}
