package actor

import (
	"context"

	"github.com/sirupsen/logrus"
)

// Context holds the message currently being handled and the means to reply, send, or
// spawn children in reaction to it.
type Context struct {
	inner      context.Context
	message    Message
	sender     *Ref
	recipient  *Ref
	result     chan<- Message
	resultSent bool
	forwarded  bool
}

// Message returns the message this context was delivered for.
func (c *Context) Message() Message {
	return c.message
}

// Sender returns the actor that sent this message, or nil for internally-originated
// messages (e.g. a signal relayed from outside the actor system).
func (c *Context) Sender() *Ref {
	return c.sender
}

// Log returns a logger scoped to the recipient actor.
func (c *Context) Log() *logrus.Entry {
	return c.recipient.log
}

// AddLabel adds a field to the recipient's logger for the remainder of its lifetime.
func (c *Context) AddLabel(key string, value interface{}) {
	c.recipient.log = c.recipient.log.WithField(key, value)
}

// Tell sends message to actor without waiting for a response.
func (c *Context) Tell(ref *Ref, message Message) {
	if ref == nil {
		return
	}
	ref.tell(c.inner, c.recipient, message)
}

// TellAll sends message to every actor in refs.
func (c *Context) TellAll(message Message, refs ...*Ref) {
	for _, ref := range refs {
		c.Tell(ref, message)
	}
}

// Ask sends message to actor and returns a future for its response.
func (c *Context) Ask(ref *Ref, message Message) Response {
	return ref.ask(c.inner, c.recipient, message)
}

// AskAll sends message to every actor in refs and returns a future for all responses.
func (c *Context) AskAll(message Message, refs ...*Ref) Responses {
	return askAll(c.inner, c.recipient, message, refs)
}

// ActorOf adds actor as a child of the recipient, keyed by id. If a child already
// exists at that id, the existing ref is returned and created is false.
func (c *Context) ActorOf(id interface{}, actor Actor) (ref *Ref, created bool) {
	return c.recipient.createChild(c.recipient.address.Child(id), actor)
}

// MustActorOf is ActorOf but panics if the child already existed.
func (c *Context) MustActorOf(id interface{}, actor Actor) *Ref {
	ref, created := c.ActorOf(id, actor)
	if !created {
		panic("actor was not created: " + ref.Address().String())
	}
	return ref
}

// Self returns a ref to the recipient.
func (c *Context) Self() *Ref {
	return c.recipient
}

// Children returns the recipient's children.
func (c *Context) Children() []*Ref {
	return c.recipient.Children()
}

// Child returns the child of the recipient with the given local id, or nil.
func (c *Context) Child(id interface{}) *Ref {
	return c.recipient.Child(id)
}

// ExpectingResponse reports whether the sender used Ask and has not yet been replied to.
func (c *Context) ExpectingResponse() bool {
	return c.result != nil && !c.resultSent && !c.forwarded
}

// Respond replies to the sender's Ask with message.
func (c *Context) Respond(message Message) {
	if c.result == nil {
		panic("sender is not expecting a response")
	}
	if c.forwarded {
		panic("message was forwarded to another actor")
	}
	c.resultSent = true
	c.result <- message
	close(c.result)
}

// RespondCheckError responds with err if non-nil, otherwise with message.
func (c *Context) RespondCheckError(message Message, err error) {
	if err != nil {
		c.Respond(err)
		return
	}
	c.Respond(message)
}

// Kill detaches the child at id: future messages from it are ignored and it is stopped.
func (c *Context) Kill(id interface{}) bool {
	child := c.Child(id)
	if child == nil {
		return false
	}
	c.recipient.deleteChild(child.Address())
	c.recipient.deadChildren[child.Address()] = true
	child.Stop()
	return true
}
