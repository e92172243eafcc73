// Package processgroup implements isolation.Backend by forking each framework's
// executor into its own Unix process group, so the whole group can be signaled
// together regardless of what children the executor itself spawns.
package processgroup

import (
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"

	"github.com/gridnode/agentd/internal/actor"
	"github.com/gridnode/agentd/internal/isolation"
	"github.com/gridnode/agentd/internal/model"
)

// KillGrace is how long SIGTERM is given to take effect before SIGKILL follows.
const KillGrace = 10 * time.Second

// Backend launches executors as children in their own process group.
type Backend struct {
	mu      sync.Mutex
	running map[model.FrameworkId]*exec.Cmd
}

// New returns an empty processgroup backend.
func New() *Backend {
	return &Backend{running: map[model.FrameworkId]*exec.Cmd{}}
}

// LaunchExecutor implements isolation.Backend.
func (b *Backend) LaunchExecutor(owner *actor.Ref, spec isolation.Spec) error {
	cmd := exec.Command("sh", "-c", string(spec.Manifest))
	cmd.Dir = spec.WorkDir
	cmd.Env = spec.Env
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	if err := cmd.Start(); err != nil {
		return errors.Wrapf(err, "failed to start executor for framework %s", spec.FrameworkID)
	}

	b.mu.Lock()
	b.running[spec.FrameworkID] = cmd
	b.mu.Unlock()

	go b.awaitExit(owner, spec.FrameworkID, cmd)
	return nil
}

func (b *Backend) awaitExit(owner *actor.Ref, frameworkID model.FrameworkId, cmd *exec.Cmd) {
	err := cmd.Wait()

	b.mu.Lock()
	delete(b.running, frameworkID)
	b.mu.Unlock()

	status := 0
	reason := "exited"
	if err != nil {
		reason = err.Error()
		if exitErr, ok := err.(*exec.ExitError); ok {
			status = exitErr.ExitCode()
		} else {
			status = -1
		}
	}

	owner.System().Tell(owner, isolation.ExecutorExited{
		FrameworkID: frameworkID,
		ExitStatus:  status,
		Reason:      reason,
	})
}

// KillExecutor implements isolation.Backend.
func (b *Backend) KillExecutor(frameworkID model.FrameworkId) {
	b.mu.Lock()
	cmd := b.running[frameworkID]
	b.mu.Unlock()
	if cmd == nil || cmd.Process == nil {
		return
	}

	pgid := -cmd.Process.Pid
	if err := syscall.Kill(pgid, syscall.SIGTERM); err != nil {
		logrus.WithError(err).Warnf("error sending %s to process group %d",
			unix.SignalName(syscall.SIGTERM), pgid)
	}

	go func() {
		time.Sleep(KillGrace)
		b.mu.Lock()
		stillRunning := b.running[frameworkID] == cmd
		b.mu.Unlock()
		if !stillRunning {
			return
		}
		if err := syscall.Kill(pgid, syscall.SIGKILL); err != nil {
			logrus.WithError(err).Warnf("error sending %s to process group %d",
				unix.SignalName(syscall.SIGKILL), pgid)
		}
	}()
}

// ResourceUsage implements isolation.Backend; process-group usage sampling is not
// supported, since the group may contain processes outside any cgroup we control.
func (b *Backend) ResourceUsage(model.FrameworkId) (isolation.UsageSample, bool) {
	return isolation.UsageSample{}, false
}
