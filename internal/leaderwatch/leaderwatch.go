// Package leaderwatch adapts an etcd-backed leader election to the agent's
// fault-tolerant mode: it watches the key a master campaigns on via
// concurrency.NewElection and emits a NewLeader message on every change,
// including first detection, and nothing when there is currently no
// leader. The agent keeps its last known master address until a new one
// is observed, per the contract in spec.md §4.3.
package leaderwatch

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	clientv3 "go.etcd.io/etcd/client/v3"
	"go.etcd.io/etcd/client/v3/concurrency"

	"github.com/gridnode/agentd/internal/actor"
	"github.com/gridnode/agentd/internal/transport"
)

// NewLeader is Tell-ed to owner on every observed leader change.
type NewLeader struct {
	Address transport.PID
}

// Watcher runs its own etcd watch loop and relays leader changes to owner.
type Watcher struct {
	client    *clientv3.Client
	electionKey string
	owner     *actor.Ref

	cancel context.CancelFunc
}

// Start connects to endpoints, begins observing electionKey, and Tells owner a
// NewLeader message on every change (including the first). It returns immediately;
// the watch runs on its own goroutine until Stop is called.
func Start(owner *actor.Ref, endpoints []string, electionKey string) (*Watcher, error) {
	cli, err := clientv3.New(clientv3.Config{Endpoints: endpoints})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create etcd client")
	}

	ctx, cancel := context.WithCancel(context.Background())
	w := &Watcher{client: cli, electionKey: electionKey, owner: owner, cancel: cancel}
	go w.run(ctx)
	return w, nil
}

func (w *Watcher) run(ctx context.Context) {
	session, err := concurrency.NewSession(w.client)
	if err != nil {
		w.owner.System().Tell(w.owner, errors.Wrap(err, "failed to create etcd session"))
		return
	}
	defer session.Close()

	election := concurrency.NewElection(session, w.electionKey)
	for resp := range election.Observe(ctx) {
		if len(resp.Kvs) == 0 {
			continue
		}

		var pid transport.PID
		if err := json.Unmarshal(resp.Kvs[0].Value, &pid); err != nil {
			w.owner.System().Tell(w.owner,
				errors.Wrap(err, "malformed leader value in election key"))
			continue
		}

		w.owner.System().Tell(w.owner, NewLeader{Address: pid})
	}
}

// Stop ends the watch loop and closes the underlying etcd client.
func (w *Watcher) Stop() {
	w.cancel()
	_ = w.client.Close()
}
