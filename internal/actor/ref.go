package actor

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// internal actor lifecycle messages, never exposed to user Actor implementations directly
// except through the PreStart/PostStop/ChildStopped/ChildFailed cases they already handle.
type stop struct{}

// Ref is an actor's address together with its running mailbox. It is the only handle
// other actors (or the outside world, via a System) ever get to an actor.
type Ref struct {
	log *logrus.Entry

	address        Address
	registeredTime time.Time

	system   *System
	actor    Actor
	parent   *Ref
	children map[Address]*Ref
	// deadChildren tracks children explicitly Kill-ed by their parent, so that the
	// ChildStopped/ChildFailed message the child sends on its way out is swallowed
	// instead of being delivered to Receive as if it were a surprise exit.
	deadChildren map[Address]bool
	inbox        *inbox

	mu        sync.Mutex
	err       error
	shutdown  bool
	listeners []chan error
}

func newRef(system *System, parent *Ref, address Address, impl Actor) *Ref {
	typeName := reflect.TypeOf(impl).String()
	if idx := strings.LastIndex(typeName, "."); idx >= 0 {
		typeName = typeName[idx+1:]
	}
	ref := &Ref{
		log: logrus.WithField("actor-type", typeName).WithField("actor-id", address.Local()).
			WithField("system", system.id),
		address:        address,
		registeredTime: time.Now(),
		system:         system,
		actor:          impl,
		parent:         parent,
		children:       map[Address]*Ref{},
		deadChildren:   map[Address]bool{},
		inbox:          newInbox(),
	}
	go ref.run()
	return ref
}

// Parent returns this actor's parent, or nil for the system root.
func (r *Ref) Parent() *Ref {
	return r.parent
}

// Children returns refs to this actor's currently-running children.
func (r *Ref) Children() []*Ref {
	children := make([]*Ref, 0, len(r.children))
	for _, child := range r.children {
		children = append(children, child)
	}
	return children
}

// Child returns the child with local id, or nil.
func (r *Ref) Child(id interface{}) *Ref {
	return r.children[r.address.Child(id)]
}

// Address returns this actor's address.
func (r *Ref) Address() Address {
	return r.address
}

// System returns the system this actor belongs to.
func (r *Ref) System() *System {
	return r.system
}

func (r *Ref) String() string {
	return fmt.Sprintf("%s (%T)", r.address, r.actor)
}

func (r *Ref) tell(ctx context.Context, sender *Ref, message Message) {
	r.inbox.tell(ctx, r, sender, message)
}

func (r *Ref) ask(ctx context.Context, sender *Ref, message Message) Response {
	return r.inbox.ask(ctx, r, sender, message)
}

// sendInternalMessage delivers message to the actor implementation directly, outside
// the mailbox; used only for lifecycle hooks where ordering relative to the mailbox
// is already guaranteed by the run loop.
func (r *Ref) sendInternalMessage(message Message) error {
	ctx := &Context{recipient: r, message: message}
	err := r.actor.Receive(ctx)
	if _, ok := err.(errUnexpectedMessage); ok {
		r.log.Warn(err.Error())
		return nil
	}
	return err
}

func (r *Ref) createChild(address Address, impl Actor) (*Ref, bool) {
	if existing, ok := r.children[address]; ok {
		return existing, false
	}
	ref := newRef(r.system, r, address, impl)
	r.children[address] = ref

	r.system.refsLock.Lock()
	r.system.refs[address] = ref
	r.system.refsLock.Unlock()

	return ref, true
}

func (r *Ref) deleteChild(address Address) {
	delete(r.children, address)

	r.system.refsLock.Lock()
	delete(r.system.refs, address)
	r.system.refsLock.Unlock()
}

// processMessage handles exactly one inbox message and returns true if the actor
// should stop as a result.
func (r *Ref) processMessage() (shouldStop bool) {
	ctx := r.inbox.get()

	defer func() {
		if ctx.ExpectingResponse() {
			ctx.Respond(errNoResponse)
		}
	}()

	switch typed := ctx.Message().(type) {
	case ChildFailed:
		if r.deadChildren[typed.Child.address] {
			delete(r.deadChildren, typed.Child.address)
			return false
		}
		r.deleteChild(typed.Child.address)
		if r.err = r.sendInternalMessage(ctx.message); r.err != nil {
			return true
		}
		return false
	case ChildStopped:
		if r.deadChildren[typed.Child.address] {
			delete(r.deadChildren, typed.Child.address)
			return false
		}
		r.deleteChild(typed.Child.address)
		if r.err = r.sendInternalMessage(ctx.message); r.err != nil {
			return true
		}
		return false
	case stop:
		return true
	case Ping:
		ctx.Respond(typed)
		return false
	}

	if ctx.sender == nil || !r.deadChildren[ctx.sender.address] {
		err := r.actor.Receive(ctx)
		if _, ok := err.(errUnexpectedMessage); ok {
			r.log.Warn(err.Error())
			return false
		}
		r.err = err
	}
	return r.err != nil
}

func (r *Ref) run() {
	defer r.close()
	if r.err = r.sendInternalMessage(PreStart{}); r.err != nil {
		return
	}
	for {
		if r.processMessage() {
			return
		}
	}
}

// Stop asynchronously asks the actor to shut down.
func (r *Ref) Stop() {
	r.tell(context.Background(), nil, stop{})
}

// AwaitTermination blocks until the actor has stopped, returning its terminal error.
func (r *Ref) AwaitTermination() error {
	r.mu.Lock()
	if r.shutdown {
		defer r.mu.Unlock()
		return r.err
	}
	listener := make(chan error, 1)
	r.listeners = append(r.listeners, listener)
	r.mu.Unlock()
	return <-listener
}

// StopAndAwaitTermination stops the actor and waits for it to finish shutting down.
func (r *Ref) StopAndAwaitTermination() error {
	r.Stop()
	return r.AwaitTermination()
}

func (r *Ref) close() {
	if rec := recover(); rec != nil {
		r.log.Error(string(debug.Stack()))
		r.err = errors.Errorf("actor panic: %v", rec)
	}

	if r.err != nil {
		r.log.WithError(r.err).Error("actor stopped with error")
	}

	r.inbox.close()

	for _, child := range r.children {
		child.Stop()
	}
	for id, child := range r.children {
		if tErr := child.AwaitTermination(); tErr != nil {
			r.err = errors.Wrapf(tErr, "error closing child %s", id)
		}
	}

	if err := r.sendInternalMessage(PostStop{}); err != nil {
		r.log.WithError(err).Error("error during PostStop")
		if r.err == nil {
			r.err = err
		}
	}

	if r.parent != nil {
		if r.err != nil {
			r.parent.tell(context.Background(), r, ChildFailed{Child: r, Error: r.err})
		} else {
			r.parent.tell(context.Background(), r, ChildStopped{Child: r})
		}
	}

	r.mu.Lock()
	r.shutdown = true
	for _, listener := range r.listeners {
		listener <- r.err
		close(listener)
	}
	r.mu.Unlock()
}

// MarshalJSON implements json.Marshaler, rendering a ref as its address.
func (r *Ref) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Address())
}
