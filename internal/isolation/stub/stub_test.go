package stub

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridnode/agentd/internal/actor"
	"github.com/gridnode/agentd/internal/isolation"
	"github.com/gridnode/agentd/internal/model"
)

func TestLaunchExecutorRecordsCallAndOwner(t *testing.T) {
	system := actor.NewSystem("test")
	owner, _ := system.ActorOf(actor.Addr("owner"), actor.ActorFunc(func(ctx *actor.Context) error { return nil }))

	backend := New()
	spec := isolation.Spec{FrameworkID: model.FrameworkId("fw-1"), Manifest: []byte("manifest")}
	require.NoError(t, backend.LaunchExecutor(owner, spec))

	require.Len(t, backend.Calls, 1)
	assert.Equal(t, "LaunchExecutor", backend.Calls[0].Method)
	assert.Equal(t, model.FrameworkId("fw-1"), backend.Calls[0].FrameworkID)
	assert.Same(t, owner, backend.Owners["fw-1"])
}

func TestLaunchExecutorHonorsInjectedError(t *testing.T) {
	system := actor.NewSystem("test")
	owner, _ := system.ActorOf(actor.Addr("owner2"), actor.ActorFunc(func(ctx *actor.Context) error { return nil }))

	backend := New()
	backend.LaunchErr[model.FrameworkId("fw-1")] = assertErr("nope")
	err := backend.LaunchExecutor(owner, isolation.Spec{FrameworkID: model.FrameworkId("fw-1")})
	assert.Error(t, err)
	assert.Nil(t, backend.Owners["fw-1"])
}

func TestKillExecutorRecordsCall(t *testing.T) {
	backend := New()
	backend.KillExecutor(model.FrameworkId("fw-1"))
	require.Len(t, backend.Calls, 1)
	assert.Equal(t, "KillExecutor", backend.Calls[0].Method)
}

func TestInjectExitDeliversToOwner(t *testing.T) {
	system := actor.NewSystem("test")
	received := make(chan isolation.ExecutorExited, 1)
	owner, _ := system.ActorOf(actor.Addr("owner3"), actor.ActorFunc(func(ctx *actor.Context) error {
		if msg, ok := ctx.Message().(isolation.ExecutorExited); ok {
			received <- msg
		}
		return nil
	}))

	backend := New()
	require.NoError(t, backend.LaunchExecutor(owner, isolation.Spec{FrameworkID: model.FrameworkId("fw-1")}))
	backend.InjectExit(model.FrameworkId("fw-1"), 1, "killed")

	select {
	case msg := <-received:
		assert.Equal(t, 1, msg.ExitStatus)
		assert.Equal(t, "killed", msg.Reason)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for ExecutorExited")
	}
}

func TestInjectExitForUnknownFrameworkIsNoOp(t *testing.T) {
	backend := New()
	assert.NotPanics(t, func() {
		backend.InjectExit(model.FrameworkId("never-launched"), 0, "n/a")
	})
}

type assertErr string

func (e assertErr) Error() string { return string(e) }
