package actor

import (
	"context"
	"sync"
)

// System is the root of an actor hierarchy. A process runs exactly one System for its
// agent actor tree; transport-level addressing (network PIDs) lives one layer above,
// in the transport package.
type System struct {
	id string

	// Ref is the invisible root actor; every top-level actor is its child.
	Ref *Ref

	refsLock sync.Mutex
	refs     map[Address]*Ref
}

// NewSystem creates an empty actor system identified by id (used only for logging).
func NewSystem(id string) *System {
	sys := &System{id: id, refs: map[Address]*Ref{}}
	sys.Ref = newRef(sys, nil, rootAddress, ActorFunc(func(ctx *Context) error {
		return nil
	}))
	sys.refs[rootAddress] = sys.Ref
	return sys
}

// ActorOf starts actor addressed at address. The parent of address must already be
// running (the system root counts as the parent of any single-segment address); if it
// is not, ActorOf returns (nil, false). If an actor already exists at address, it is
// returned unchanged and created is false.
func (s *System) ActorOf(address Address, impl Actor) (ref *Ref, created bool) {
	parentAddr := address.Parent()
	var parent *Ref
	if parentAddr == rootAddress {
		parent = s.Ref
	} else {
		parent = s.Get(parentAddr)
	}
	if parent == nil {
		return nil, false
	}
	return parent.createChild(address, impl)
}

// Get returns the ref registered at address, or nil.
func (s *System) Get(address Address) *Ref {
	s.refsLock.Lock()
	defer s.refsLock.Unlock()
	return s.refs[address]
}

// Tell sends message to ref without waiting for a response.
func (s *System) Tell(ref *Ref, message Message) {
	if ref == nil {
		return
	}
	ref.tell(context.Background(), nil, message)
}

// Ask sends message to ref and returns a future for its response.
func (s *System) Ask(ref *Ref, message Message) Response {
	return ref.ask(context.Background(), nil, message)
}

// AskAll sends message to every ref in refs and returns a future for all responses.
func (s *System) AskAll(message Message, refs ...*Ref) Responses {
	return askAll(context.Background(), nil, message, refs)
}

// AskAt resolves address and asks the actor registered there. If nothing is
// registered at address, it returns an empty Response (Source() is nil, Get()
// returns nil immediately) rather than blocking forever.
func (s *System) AskAt(address Address, message Message) Response {
	ref := s.Get(address)
	if ref == nil {
		return Response{}
	}
	return ref.ask(context.Background(), nil, message)
}

// Stop asynchronously stops every top-level actor in the system.
func (s *System) Stop() {
	s.Ref.Stop()
}

// AwaitTermination blocks until the system's root actor, and therefore every actor in
// the system, has stopped.
func (s *System) AwaitTermination() error {
	return s.Ref.AwaitTermination()
}

// StopAndAwaitTermination stops the system and waits for every actor to finish.
func (s *System) StopAndAwaitTermination() error {
	return s.Ref.StopAndAwaitTermination()
}
