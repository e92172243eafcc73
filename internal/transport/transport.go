package transport

import (
	"crypto/tls"
	"fmt"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"github.com/gridnode/agentd/internal/actor"
)

// PeerExited is delivered to a connection's owner when the underlying socket goes
// silent, whether from a clean close or a read/write error. It is the synthetic
// liveness event spec.md's MessageTransport promises per correspondent.
type PeerExited struct {
	Address PID
}

// connection is a thin supervisor around a socketActor: it remembers which PID it
// dialed and translates the socket's exit into a PeerExited{Address} message to its
// parent, since a bare actor.ChildFailed/ChildStopped only carries a Ref, not a PID.
type connection struct {
	peer   PID
	socket actor.Actor
	ref    *actor.Ref
}

// Receive implements actor.Actor.
func (c *connection) Receive(ctx *actor.Context) error {
	switch msg := ctx.Message().(type) {
	case actor.PreStart:
		c.ref = ctx.MustActorOf("socket", c.socket)
		return nil
	case actor.ChildStopped, actor.ChildFailed:
		ctx.Tell(ctx.Self().Parent(), PeerExited{Address: c.peer})
		ctx.Self().Stop()
		return nil
	case actor.PostStop:
		return nil
	case WriteMessage:
		if ctx.ExpectingResponse() {
			resp := ctx.Ask(c.ref, msg)
			ctx.Respond(resp.Get())
		} else {
			ctx.Tell(c.ref, msg)
		}
		return nil
	default:
		if ctx.Sender() == c.ref {
			// A decoded inbound message from the socket child: relay it to the owner.
			ctx.Tell(ctx.Self().Parent(), ctx.Message())
			return nil
		}
		return actor.ErrUnexpectedMessage(ctx)
	}
}

// TLSConfig builds a tls.Config, or nil if TLS is disabled, from the agent's
// TLS flag group (--tls, --master-cert-name, --tls-skip-verify). MasterCert is
// carried but not read: the master's certificate is verified against the system's
// root CAs (unless SkipVerify is set), not against the file it names.
type TLSConfig struct {
	Enabled        bool
	MasterCert     string
	MasterCertName string
	SkipVerify     bool
}

func (t TLSConfig) build() (*tls.Config, error) {
	if !t.Enabled {
		return nil, nil
	}
	return &tls.Config{
		InsecureSkipVerify: t.SkipVerify, //nolint:gosec
		MinVersion:         tls.VersionTLS12,
		ServerName:         t.MasterCertName,
	}, nil
}

// Dial connects to peer over a websocket and spawns a supervising connection actor as
// a child of ctx's recipient, returning a ref that accepts WriteMessage and forwards
// decoded inbound messages (of msgType) to ctx's recipient. On socket exit, the
// recipient receives PeerExited{Address: peer}.
func Dial(ctx *actor.Context, peer PID, path string, msgType interface{}, tlsCfg TLSConfig) (*actor.Ref, error) {
	tlsConfig, err := tlsCfg.build()
	if err != nil {
		return nil, errors.Wrap(err, "failed to construct TLS config")
	}

	scheme := "ws"
	if tlsConfig != nil {
		scheme = "wss"
	}
	dialer := websocket.Dialer{
		Proxy:            websocket.DefaultDialer.Proxy,
		HandshakeTimeout: websocket.DefaultDialer.HandshakeTimeout,
		TLSClientConfig:  tlsConfig,
	}

	addr := fmt.Sprintf("%s://%s:%d%s", scheme, peer.Host, peer.Port, path)
	conn, resp, err := dialer.Dial(addr, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "error connecting to %s", addr)
	}
	if err := resp.Body.Close(); err != nil {
		return nil, errors.Wrap(err, "failed to read handshake response")
	}

	// Every dial gets a fresh child id: a reconnect to the same logical peer (e.g. a
	// leader change back to a previously-seen master) must not collide with a prior
	// connection's id before its ChildStopped has been processed.
	ref := ctx.MustActorOf("conn-"+peer.Name+"-"+uuid.New().String(), &connection{
		peer:   peer,
		socket: WrapSocket(conn, msgType, true),
	})
	return ref, nil
}
