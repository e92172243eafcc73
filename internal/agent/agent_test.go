package agent

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridnode/agentd/internal/actor"
	"github.com/gridnode/agentd/internal/actor/actors"
	"github.com/gridnode/agentd/internal/isolation"
	"github.com/gridnode/agentd/internal/isolation/stub"
	"github.com/gridnode/agentd/internal/model"
	"github.com/gridnode/agentd/internal/resource"
	"github.com/gridnode/agentd/internal/transport"
	"github.com/gridnode/agentd/internal/workspace"
)

// testHarness wires a real Agent into a real actor.System, backed by a stub
// isolation backend so no real process is ever launched. It deliberately never
// dials a master (FaultTolerant skips the PreStart dial), keeping these tests free
// of any networking: the behavior under test is the Agent's own bookkeeping, not
// the transport layer (covered separately).
type testHarness struct {
	t       *testing.T
	system  *actor.System
	agent   *Agent
	ref     *actor.Ref
	backend *stub.Backend
}

func newHarness(t *testing.T, capacity resource.Vector) *testHarness {
	t.Helper()
	backend := stub.New()
	ag := New(Config{
		Capacity:            capacity,
		Isolation:           backend,
		Workspace:           workspace.New(t.TempDir(), "a1"),
		FaultTolerant:       true,
		RegistrationTimeout: time.Minute,
		KillGracePeriod:     time.Minute,
		MasterLossGrace:     time.Minute,
	})
	system := actor.NewSystem(t.Name())
	ref, created := system.ActorOf(actor.Addr("agent"), ag)
	require.True(t, created)
	return &testHarness{t: t, system: system, agent: ag, ref: ref, backend: backend}
}

// sync blocks until every message sent to the agent so far has been processed.
func (h *testHarness) sync() {
	resp := h.system.Ask(h.ref, actor.Ping{})
	resp.Get()
}

func runningUser() model.AgentUserGroup {
	return model.AgentUserGroup{User: "u", UID: os.Getuid(), Group: "g", GID: os.Getgid()}
}

func runTask(frameworkID model.FrameworkId, taskID model.TaskId, res resource.Vector) transport.AgentMessage {
	return transport.AgentMessage{RunTask: &transport.RunTask{
		FrameworkID:   frameworkID,
		FrameworkInfo: transport.FrameworkInfo{DisplayName: "fw-" + string(frameworkID), RunningUser: runningUser()},
		Task:          transport.TaskDescription{TaskID: taskID, DisplayName: string(taskID), Resources: res},
	}}
}

// registerExecutor simulates an executor dialing in and registering for framework
// frameworkID, using a MockActor as its connection so ctx.Sender() on the Agent
// side resolves to a real *actor.Ref, exactly as it would via a real socket child.
func (h *testHarness) registerExecutor(frameworkID model.FrameworkId) *actors.MockActor {
	mock := &actors.MockActor{}
	mockRef, created := h.system.ActorOf(actor.Addr("exec-"+string(frameworkID)), mock)
	require.True(h.t, created)
	h.system.Tell(mockRef, actors.ForwardThroughMock{
		To: h.ref,
		Msg: transport.ExecutorMessage{ExecutorRegister: &transport.ExecutorRegister{
			FrameworkID: frameworkID,
			Address:     transport.PID{Name: "executor-" + string(frameworkID)},
		}},
	})
	h.sync()
	return mock
}

func writesToExecutor(mock *actors.MockActor) []transport.MasterToExecutorMessage {
	var out []transport.MasterToExecutorMessage
	for _, m := range mock.Messages {
		if wm, ok := m.(transport.WriteMessage); ok {
			if msg, ok := wm.Message.(transport.MasterToExecutorMessage); ok {
				out = append(out, msg)
			}
		}
	}
	return out
}

func TestRunTaskOvercommitIsRejected(t *testing.T) {
	h := newHarness(t, resource.Vector{CPU: 1, Mem: 1024})
	h.system.Tell(h.ref, runTask("f1", "t1", resource.Vector{CPU: 2, Mem: 128}))
	h.sync()

	assert.True(t, h.agent.committed.Zero())
	fw, ok := h.agent.frameworks["f1"]
	require.True(t, ok, "framework is created before the dominance check runs")
	assert.Empty(t, fw.Tasks)
	assert.Len(t, h.backend.Calls, 1)
	assert.Equal(t, "LaunchExecutor", h.backend.Calls[0].Method)
}

func TestRunTaskWithinCapacityCommitsAndQueues(t *testing.T) {
	h := newHarness(t, resource.Vector{CPU: 4, Mem: 4096})
	h.system.Tell(h.ref, runTask("f1", "t1", resource.Vector{CPU: 1, Mem: 128}))
	h.system.Tell(h.ref, runTask("f1", "t2", resource.Vector{CPU: 1, Mem: 128}))
	h.sync()

	assert.Equal(t, resource.Vector{CPU: 2, Mem: 256}, h.agent.committed)
	fw := h.agent.frameworks["f1"]
	require.Len(t, fw.Queued, 2)
	assert.Equal(t, model.TaskId("t1"), fw.Queued[0].TaskID)
	assert.Equal(t, model.TaskId("t2"), fw.Queued[1].TaskID)

	mock := h.registerExecutor("f1")
	writes := writesToExecutor(mock)
	require.Len(t, writes, 2)
	require.NotNil(t, writes[0].RunTask)
	require.NotNil(t, writes[1].RunTask)
	assert.Equal(t, model.TaskId("t1"), writes[0].RunTask.Task.TaskID)
	assert.Equal(t, model.TaskId("t2"), writes[1].RunTask.Task.TaskID)
	assert.Empty(t, h.agent.frameworks["f1"].Queued)
}

func TestRunTaskDuplicateIdempotentReannounce(t *testing.T) {
	h := newHarness(t, resource.Vector{CPU: 4, Mem: 4096})
	desc := runTask("f1", "t1", resource.Vector{CPU: 1, Mem: 128})
	h.system.Tell(h.ref, desc)
	h.system.Tell(h.ref, desc)
	h.sync()

	assert.Equal(t, resource.Vector{CPU: 1, Mem: 128}, h.agent.committed)
	assert.Len(t, h.agent.frameworks["f1"].Tasks, 1)
}

func TestExecutorExitSynthesizesLostForLiveTasks(t *testing.T) {
	h := newHarness(t, resource.Vector{CPU: 4, Mem: 4096})
	h.system.Tell(h.ref, runTask("f1", "t1", resource.Vector{CPU: 1, Mem: 128}))
	h.sync()
	h.registerExecutor("f1")

	h.system.Tell(h.ref, transport.ExecutorMessage{StatusUpdate: &transport.StatusUpdate{
		FrameworkID: "f1", TaskID: "t1", State: model.Running,
	}})
	h.sync()
	require.Equal(t, model.Running, h.agent.frameworks["f1"].Tasks["t1"].State)

	h.backend.InjectExit("f1", 1, "crashed")
	h.sync()

	assert.True(t, h.agent.committed.Zero())
	_, stillTracked := h.agent.frameworks["f1"]
	assert.False(t, stillTracked, "framework is GC'd once its last live task is resolved")
}

func TestIllegalStateTransitionIsDroppedNotFatal(t *testing.T) {
	h := newHarness(t, resource.Vector{CPU: 4, Mem: 4096})
	h.system.Tell(h.ref, runTask("f1", "t1", resource.Vector{CPU: 1, Mem: 128}))
	h.sync()

	h.system.Tell(h.ref, transport.ExecutorMessage{StatusUpdate: &transport.StatusUpdate{
		FrameworkID: "f1", TaskID: "t1", State: model.Running,
	}})
	h.sync()
	require.Equal(t, model.Running, h.agent.frameworks["f1"].Tasks["t1"].State)

	// Running -> Starting is illegal; it must be dropped rather than corrupting state
	// or killing the agent actor.
	h.system.Tell(h.ref, transport.ExecutorMessage{StatusUpdate: &transport.StatusUpdate{
		FrameworkID: "f1", TaskID: "t1", State: model.Starting,
	}})
	h.sync()
	assert.Equal(t, model.Running, h.agent.frameworks["f1"].Tasks["t1"].State)
}

func TestKillFrameworkSignalsExecutorAndArmsGraceTimer(t *testing.T) {
	h := newHarness(t, resource.Vector{CPU: 4, Mem: 4096})
	h.system.Tell(h.ref, runTask("f1", "t1", resource.Vector{CPU: 1, Mem: 128}))
	h.sync()
	mock := h.registerExecutor("f1")

	h.system.Tell(h.ref, transport.AgentMessage{KillFramework: &transport.KillFramework{FrameworkID: "f1"}})
	h.sync()

	assert.True(t, h.agent.frameworks["f1"].Doomed)
	assert.NotNil(t, h.agent.killTimers["f1"])
	writes := writesToExecutor(mock)
	require.NotEmpty(t, writes)
	assert.NotNil(t, writes[len(writes)-1].ExecutorShutdown)

	h.backend.InjectExit("f1", 0, "shutdown")
	h.sync()
	_, stillTracked := h.agent.frameworks["f1"]
	assert.False(t, stillTracked)
}

func TestKillTaskOnQueuedTaskReleasesResourcesWithoutExecutor(t *testing.T) {
	h := newHarness(t, resource.Vector{CPU: 4, Mem: 4096})
	h.system.Tell(h.ref, runTask("f1", "t1", resource.Vector{CPU: 1, Mem: 128}))
	h.sync()
	require.False(t, h.agent.committed.Zero())

	h.system.Tell(h.ref, transport.AgentMessage{KillTask: &transport.KillTask{FrameworkID: "f1", TaskID: "t1"}})
	h.sync()

	assert.True(t, h.agent.committed.Zero())
	assert.Empty(t, h.agent.frameworks["f1"].Tasks)
	assert.Empty(t, h.agent.frameworks["f1"].Queued)
}

func TestRegistrationTimeoutSynthesizesLostWhenExecutorNeverRegisters(t *testing.T) {
	h := newHarness(t, resource.Vector{CPU: 4, Mem: 4096})
	h.agent.config.RegistrationTimeout = time.Millisecond
	h.system.Tell(h.ref, runTask("f1", "t1", resource.Vector{CPU: 1, Mem: 128}))

	require.Eventually(t, func() bool {
		h.sync()
		_, tracked := h.agent.frameworks["f1"]
		return !tracked
	}, time.Second, 5*time.Millisecond)

	assert.True(t, h.agent.committed.Zero())
	// A registration timeout is handled as an executor exit, not an explicit kill:
	// only the original LaunchExecutor call is ever recorded.
	assert.Len(t, h.backend.Calls, 1)
}

func TestDuplicateExecutorRegisterIsRejected(t *testing.T) {
	h := newHarness(t, resource.Vector{CPU: 4, Mem: 4096})
	h.system.Tell(h.ref, runTask("f1", "t1", resource.Vector{CPU: 1, Mem: 128}))
	h.sync()
	h.registerExecutor("f1")

	first := h.agent.executors["f1"]
	second := &actors.MockActor{}
	secondRef, _ := h.system.ActorOf(actor.Addr("exec-f1-dup"), second)
	h.system.Tell(secondRef, actors.ForwardThroughMock{
		To: h.ref,
		Msg: transport.ExecutorMessage{ExecutorRegister: &transport.ExecutorRegister{
			FrameworkID: "f1",
			Address:     transport.PID{Name: "executor-f1-dup"},
		}},
	})
	h.sync()

	assert.Equal(t, first, h.agent.executors["f1"])
}

func TestStatusUpdateForUnknownFrameworkIsDropped(t *testing.T) {
	h := newHarness(t, resource.Vector{CPU: 4, Mem: 4096})
	h.system.Tell(h.ref, transport.ExecutorMessage{StatusUpdate: &transport.StatusUpdate{
		FrameworkID: "ghost", TaskID: "t1", State: model.Running,
	}})
	h.sync() // must not panic or error the actor
	assert.Empty(t, h.agent.frameworks)
}

func TestHandleExecutorExitedUnknownFrameworkIsNoOp(t *testing.T) {
	h := newHarness(t, resource.Vector{CPU: 4, Mem: 4096})
	h.system.Tell(h.ref, isolation.ExecutorExited{FrameworkID: "ghost", Reason: "n/a"})
	h.sync()
	assert.Empty(t, h.agent.frameworks)
}

func TestShutdownWithNoFrameworksStopsImmediately(t *testing.T) {
	h := newHarness(t, resource.Vector{CPU: 4, Mem: 4096})
	h.system.Tell(h.ref, Shutdown{})
	require.NoError(t, h.ref.AwaitTermination())
}

func TestShutdownKillsLiveExecutorsBeforeStopping(t *testing.T) {
	h := newHarness(t, resource.Vector{CPU: 4, Mem: 4096})
	h.system.Tell(h.ref, runTask("f1", "t1", resource.Vector{CPU: 1, Mem: 128}))
	h.sync()

	h.system.Tell(h.ref, Shutdown{})
	h.sync()
	assert.Len(t, h.backend.Calls, 2, "Shutdown kills the executor; the actor only stops once it exits")

	h.backend.InjectExit("f1", 0, "shutdown")
	require.NoError(t, h.ref.AwaitTermination())
}
