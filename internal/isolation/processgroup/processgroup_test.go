package processgroup

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridnode/agentd/internal/actor"
	"github.com/gridnode/agentd/internal/isolation"
	"github.com/gridnode/agentd/internal/model"
)

func newOwner(t *testing.T) (*actor.System, *actor.Ref, chan isolation.ExecutorExited) {
	system := actor.NewSystem("test")
	exited := make(chan isolation.ExecutorExited, 1)
	owner, _ := system.ActorOf(actor.Addr("owner"), actor.ActorFunc(func(ctx *actor.Context) error {
		if msg, ok := ctx.Message().(isolation.ExecutorExited); ok {
			exited <- msg
		}
		return nil
	}))
	return system, owner, exited
}

func TestLaunchExecutorReportsCleanExit(t *testing.T) {
	_, owner, exited := newOwner(t)
	backend := New()

	err := backend.LaunchExecutor(owner, isolation.Spec{
		FrameworkID: model.FrameworkId("fw-1"),
		Manifest:    []byte("exit 0"),
	})
	require.NoError(t, err)

	select {
	case msg := <-exited:
		assert.Equal(t, 0, msg.ExitStatus)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for clean exit")
	}
}

func TestLaunchExecutorReportsNonZeroExit(t *testing.T) {
	_, owner, exited := newOwner(t)
	backend := New()

	err := backend.LaunchExecutor(owner, isolation.Spec{
		FrameworkID: model.FrameworkId("fw-2"),
		Manifest:    []byte("exit 7"),
	})
	require.NoError(t, err)

	select {
	case msg := <-exited:
		assert.Equal(t, 7, msg.ExitStatus)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for exit")
	}
}

func TestLaunchExecutorFailsOnUnstartableCommand(t *testing.T) {
	_, owner, _ := newOwner(t)
	backend := New()

	err := backend.LaunchExecutor(owner, isolation.Spec{
		FrameworkID: model.FrameworkId("fw-3"),
		Manifest:    []byte("exit 0"),
		WorkDir:     "/no/such/directory/should/ever/exist",
	})
	assert.Error(t, err)
}

func TestKillExecutorOnUnknownFrameworkIsNoOp(t *testing.T) {
	backend := New()
	assert.NotPanics(t, func() {
		backend.KillExecutor(model.FrameworkId("never-launched"))
	})
}

func TestKillExecutorSendsSigtermAndFrameworkExits(t *testing.T) {
	_, owner, exited := newOwner(t)
	backend := New()

	err := backend.LaunchExecutor(owner, isolation.Spec{
		FrameworkID: model.FrameworkId("fw-4"),
		Manifest:    []byte("trap 'exit 0' TERM; sleep 30"),
	})
	require.NoError(t, err)
	backend.KillExecutor(model.FrameworkId("fw-4"))

	select {
	case <-exited:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for executor to exit after SIGTERM")
	}
}

func TestResourceUsageIsUnsupported(t *testing.T) {
	backend := New()
	_, ok := backend.ResourceUsage(model.FrameworkId("fw-1"))
	assert.False(t, ok)
}
