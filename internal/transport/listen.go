package transport

import (
	"net/http"
	"reflect"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/gridnode/agentd/internal/actor"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// WebSocketConnected is Ask-ed to a recipient actor when a new inbound connection
// (an executor dialing back in) has completed its HTTP handshake. The recipient's own
// Receive must call Accept from inside its goroutine, since upgrading and spawning the
// child socket actor mutates recipient state that only its own goroutine may touch.
type WebSocketConnected struct {
	Ctx echo.Context
}

// Accept upgrades the underlying HTTP connection to a websocket and spawns a socket
// actor as a child of recipient, registered under a unique id so many executors can
// connect concurrently. Call only from within recipient's own Receive.
func (w WebSocketConnected) Accept(ctx *actor.Context, msgType interface{}, usePing bool) (*actor.Ref, error) {
	conn, err := upgrader.Upgrade(w.Ctx.Response(), w.Ctx.Request(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "error upgrading websocket connection")
	}
	id := "conn-" + w.Ctx.Request().RemoteAddr
	ref, _ := ctx.ActorOf(id, WrapSocket(conn, msgType, usePing))
	return ref, nil
}

// Route returns an echo.HandlerFunc that asks recipient to Accept every inbound
// connection at the route it is mounted on, blocking the HTTP handler goroutine until
// the recipient has spawned (or refused) the child actor.
func Route(system *actor.System, recipient actor.Address) echo.HandlerFunc {
	return func(c echo.Context) error {
		resp := system.AskAt(recipient, WebSocketConnected{Ctx: c})
		switch v := resp.Get().(type) {
		case error:
			return v
		case nil:
			return errors.Errorf("no actor registered at %s", recipient)
		default:
			if reflect.TypeOf(v).Kind() == reflect.Ptr {
				return nil
			}
			return nil
		}
	}
}
