package actor

import (
	"fmt"

	"github.com/pkg/errors"
)

// errNoResponse is sent to an asker when the asked actor handles the message without
// responding, or stops before handling it.
var errNoResponse = errors.New("actor did not respond before stopping")

// errUnexpectedMessage is returned by ErrUnexpectedMessage; actors that receive a
// message they don't handle should return it so the framework can log it without
// treating it as a fatal actor failure.
type errUnexpectedMessage struct {
	ctx *Context
}

func (e errUnexpectedMessage) Error() string {
	from := "<external>"
	if e.ctx.sender != nil {
		from = e.ctx.sender.Address().String()
	}
	to := "<unknown>"
	if e.ctx.recipient != nil {
		to = e.ctx.recipient.Address().String()
	}
	expecting := "no response expected"
	if e.ctx.result != nil {
		expecting = "response expected"
	}
	return fmt.Sprintf(
		"unexpected message from %s to %s (%T): %v (%s)",
		from, to, e.ctx.message, e.ctx.message, expecting,
	)
}

// ErrUnexpectedMessage returns an error marking the context's message as unhandled.
// The actor system logs but does not fail the actor for this class of error.
func ErrUnexpectedMessage(ctx *Context) error {
	return errUnexpectedMessage{ctx: ctx}
}
