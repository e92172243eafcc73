package actors

import (
	"fmt"
	"sync"

	"github.com/gridnode/agentd/internal/actor"
)

type (
	// ForwardThroughMock forwards a message (Msg) to another actor (To), using Tell or Ask
	// depending on whether the original sender is expecting a response.
	ForwardThroughMock struct {
		To  *actor.Ref
		Msg actor.Message
	}
	// MockResponse sets up a response to use when replying to a message of a given type.
	MockResponse struct {
		Msg      actor.Message
		Consumed bool
	}
	// MockActor is a convenience actor for testing hierarchies without instantiating
	// real implementations.
	MockActor struct {
		mu        sync.Mutex
		Messages  []actor.Message
		Responses map[string]*MockResponse
	}
)

// Receive implements actor.Actor.
func (a *MockActor) Receive(ctx *actor.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.Messages = append(a.Messages, ctx.Message())
	switch msg := ctx.Message().(type) {
	case error:
		return msg
	case ForwardThroughMock:
		if ctx.ExpectingResponse() {
			resp := ctx.Ask(msg.To, msg.Msg)
			ctx.Respond(resp.Get())
		} else {
			ctx.Tell(msg.To, msg.Msg)
		}
	default:
		if resp, ok := a.Responses[fmt.Sprintf("%T", msg)]; ok {
			if ctx.ExpectingResponse() {
				ctx.Respond(resp.Msg)
			}
			resp.Consumed = true
		} else if ctx.ExpectingResponse() {
			ctx.Respond(ctx.Message())
		}
	}
	return nil
}

// Expect sets up an expectation to send some response to a message of type t.
func (a *MockActor) Expect(t string, r MockResponse) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.Responses == nil {
		a.Responses = map[string]*MockResponse{}
	}
	a.Responses[t] = &r
}

// AssertExpectations reports an error for any expectation that was never consumed.
func (a *MockActor) AssertExpectations() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	for t, r := range a.Responses {
		if !r.Consumed {
			return fmt.Errorf("expected to reply with %s", t)
		}
	}
	return nil
}
