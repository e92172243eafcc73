package actors

import (
	"github.com/google/uuid"

	"github.com/gridnode/agentd/internal/actor"
)

type stopNotifier struct {
	ref  *actor.Ref
	msg  actor.Message
	done chan struct{}
}

func (a *stopNotifier) Receive(ctx *actor.Context) error {
	switch ctx.Message().(type) {
	case actor.PreStart:
		go func() {
			defer close(a.done)
			a.awaitTermination(ctx)
		}()
	}
	return nil
}

func (a *stopNotifier) awaitTermination(ctx *actor.Context) {
	_ = a.ref.AwaitTermination()
	resp := ctx.Ask(ctx.Self().Parent(), a.msg)
	resp.Get()
}

// NotifyOnStop asynchronously notifies the context's recipient when ref has stopped.
// Returns a channel that is closed once the recipient has been notified.
func NotifyOnStop(ctx *actor.Context, ref *actor.Ref, msg actor.Message) <-chan struct{} {
	done := make(chan struct{})
	ctx.ActorOf(
		"notify-stop-"+uuid.New().String(),
		&stopNotifier{done: done, ref: ref, msg: msg},
	)
	return done
}
