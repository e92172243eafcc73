// Package actor implements a small in-process actor runtime: one mailbox
// per actor, fire-and-forget Tell, future-style Ask, and parent/child
// supervision where a child's exit is delivered to its parent as a
// message. It is the concrete mechanism behind the agent's single-writer
// control plane: every piece of mutable state in this module is owned by
// exactly one actor and mutated only from that actor's Receive method.
package actor

// Message holds the communication protocol between actors. Actors send and
// receive arbitrary Go values as messages.
type Message interface{}

// Actor lifecycle messages.
type (
	// PreStart notifies the actor before its reference starts serving its mailbox.
	PreStart struct{}

	// ChildStopped notifies a parent actor that a child stopped without error.
	ChildStopped struct {
		Child *Ref
	}

	// ChildFailed notifies a parent actor that a child stopped because of an error.
	ChildFailed struct {
		Child *Ref
		Error error
	}

	// PostStop notifies the actor that its reference is shutting down.
	PostStop struct{}

	// Ping is responded to automatically once all messages sent to the actor before
	// it are processed. Useful for synchronizing with an actor's mailbox in tests.
	Ping struct{}
)

// Actor is an object that encapsulates both state and behavior.
type Actor interface {
	// Receive defines the actor's behavior. It is called once per inbox message until
	// the actor is stopped, either by itself returning an error or by its parent.
	Receive(ctx *Context) error
}

// ActorFunc adapts a plain function to the Actor interface; useful for small test actors.
type ActorFunc func(ctx *Context) error

// Receive implements Actor.
func (f ActorFunc) Receive(ctx *Context) error {
	return f(ctx)
}
