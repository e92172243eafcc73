package apiserver

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridnode/agentd/internal/actor"
	"github.com/gridnode/agentd/internal/transport"
)

// New wires transport.Route into echo without ever binding a real port in this test:
// httptest.NewServer drives the same *echo.Echo handler that Serve would.
func TestExecutorsRouteUpgradesAndReachesRecipient(t *testing.T) {
	system := actor.NewSystem("test")
	connected := make(chan *actor.Ref, 1)
	recipient, _ := system.ActorOf(actor.Addr("agent"), actor.ActorFunc(func(ctx *actor.Context) error {
		if msg, ok := ctx.Message().(transport.WebSocketConnected); ok {
			ref, err := msg.Accept(ctx, transport.ExecutorMessage{}, false)
			ctx.RespondCheckError(ref, err)
			if err == nil {
				connected <- ref
			}
		}
		return nil
	}))

	srv := New(system, recipient.Address(), "127.0.0.1", 0, false)
	httpSrv := httptest.NewServer(srv.echo)
	defer httpSrv.Close()

	wsURL := "ws" + strings.TrimPrefix(httpSrv.URL, "http") + "/executors"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	select {
	case ref := <-connected:
		assert.NotNil(t, ref)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for recipient to accept the connection")
	}
}

func TestDebugEndpointsOnlyMountedWhenEnabled(t *testing.T) {
	system := actor.NewSystem("test2")
	recipient, _ := system.ActorOf(actor.Addr("agent2"), actor.ActorFunc(func(ctx *actor.Context) error { return nil }))

	withoutDebug := New(system, recipient.Address(), "127.0.0.1", 0, false)
	srvWithout := httptest.NewServer(withoutDebug.echo)
	defer srvWithout.Close()
	resp, err := srvWithout.Client().Get(srvWithout.URL + "/debug/pprof/cmdline")
	require.NoError(t, err)
	assert.Equal(t, 404, resp.StatusCode)

	withDebug := New(system, recipient.Address(), "127.0.0.1", 0, true)
	srvWith := httptest.NewServer(withDebug.echo)
	defer srvWith.Close()
	resp, err = srvWith.Client().Get(srvWith.URL + "/debug/pprof/cmdline")
	require.NoError(t, err)
	assert.NotEqual(t, 404, resp.StatusCode)
}
