package actor

import "context"

// inboxCapacity bounds the mailbox depth. Senders block once it's full, which is the
// deliberate backpressure point: a wedged actor stalls its direct senders rather than
// growing memory without limit.
const inboxCapacity = 1024

// inbox is the bounded FIFO mailbox backing a single actor.
type inbox struct {
	messages chan *Context
	closed   chan struct{}
}

func newInbox() *inbox {
	return &inbox{
		messages: make(chan *Context, inboxCapacity),
		closed:   make(chan struct{}),
	}
}

func (i *inbox) tell(ctx context.Context, recipient, sender *Ref, message Message) {
	select {
	case i.messages <- &Context{inner: ctx, message: message, sender: sender, recipient: recipient}:
	case <-i.closed:
	}
}

func (i *inbox) ask(ctx context.Context, recipient, sender *Ref, message Message) Response {
	result := make(chan Message, 1)
	c := &Context{inner: ctx, message: message, sender: sender, recipient: recipient, result: result}
	select {
	case i.messages <- c:
	case <-i.closed:
		close(result)
	}
	return newResponse(recipient, result)
}

// get blocks for the next message. It is only ever called from the actor's own
// run loop goroutine.
func (i *inbox) get() *Context {
	return <-i.messages
}

func (i *inbox) len() int {
	return len(i.messages)
}

// close stops accepting new messages and fails any sender still waiting on an Ask.
func (i *inbox) close() {
	close(i.closed)
drain:
	for {
		select {
		case ctx := <-i.messages:
			if ctx.ExpectingResponse() {
				ctx.Respond(errNoResponse)
			}
		default:
			break drain
		}
	}
}
