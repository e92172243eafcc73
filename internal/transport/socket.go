package transport

import (
	"bytes"
	"encoding/json"
	"net"
	"reflect"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"github.com/gridnode/agentd/internal/actor"
)

const (
	pingWaitDuration = 1 * time.Minute
	pingInterval     = 1 * time.Minute

	// MaxMessageSize bounds the size of a single wire message.
	MaxMessageSize = 128 * 1024 * 1024
)

// WriteMessage asks the socket actor to encode and write Message as JSON.
type WriteMessage struct {
	actor.Message
}

// WriteResponse is the response to a successful WriteMessage.
type WriteResponse struct{}

// WriteSocketJSON asks a socket actor to write a JSON-serializable value, blocking until
// the socket replies. The socket replies before it performs the network write, so the
// returned error covers encoding failures, oversized messages and a stopped socket, but
// not a failed write, which stops the socket actor instead.
func WriteSocketJSON(ctx *actor.Context, socket *actor.Ref, msg interface{}) error {
	askResp := ctx.Ask(socket, WriteMessage{Message: msg})
	resp := askResp.Get()
	switch resp := resp.(type) {
	case error:
		return errors.WithStack(resp)
	case WriteResponse:
		return nil
	default:
		return errors.Errorf("unknown response %T: %v", resp, resp)
	}
}

// WrapSocket wraps an already-connected websocket connection as an actor that parses
// incoming frames as msgType and forwards the parsed value to its parent, and accepts
// WriteMessage to serialize and send outbound frames.
func WrapSocket(conn *websocket.Conn, msgType interface{}, usePing bool) actor.Actor {
	return &socketActor{
		conn:         conn,
		msgType:      reflect.TypeOf(msgType),
		usePing:      usePing,
		pendingPings: make(map[string]time.Time),
	}
}

type socketActor struct {
	conn    *websocket.Conn
	msgType reflect.Type

	usePing      bool
	pingLock     sync.Mutex
	pendingPings map[string]time.Time
}

// Receive implements actor.Actor.
func (s *socketActor) Receive(ctx *actor.Context) error {
	switch msg := ctx.Message().(type) {
	case actor.PreStart:
		if s.usePing {
			s.setupPingLoop(ctx)
		}
		go s.runReadLoop(ctx)
		return nil
	case actor.PostStop:
		return s.conn.Close()
	case error:
		return msg
	case []byte:
		parsed, err := parseMsg(msg, s.msgType)
		if err != nil {
			return err
		}
		ctx.Tell(ctx.Self().Parent(), parsed)
		return nil
	case WriteMessage:
		var buf bytes.Buffer
		if err := json.NewEncoder(&buf).Encode(msg.Message); err != nil {
			return err
		}
		return s.processWriteMessage(ctx, buf)
	default:
		return actor.ErrUnexpectedMessage(ctx)
	}
}

func (s *socketActor) processWriteMessage(ctx *actor.Context, buf bytes.Buffer) error {
	if cur, max := buf.Len(), MaxMessageSize; cur > max {
		ctx.Respond(errors.Errorf("message size %d exceeds maximum size %d", cur, max))
		return nil
	}
	ctx.Respond(WriteResponse{})
	return s.conn.WriteMessage(websocket.TextMessage, buf.Bytes())
}

func isClosingError(err error) bool {
	return err == websocket.ErrCloseSent || websocket.IsCloseError(err, websocket.CloseNormalClosure)
}

func (s *socketActor) setupPingLoop(ctx *actor.Context) {
	s.conn.SetPongHandler(func(data string) error {
		return s.handlePong(ctx, data)
	})
	go s.runPingLoop(ctx)
}

func (s *socketActor) handlePong(ctx *actor.Context, id string) error {
	now := time.Now()

	s.pingLock.Lock()
	defer s.pingLock.Unlock()

	deadline, ok := s.pendingPings[id]
	if !ok {
		ctx.Log().Warnf("unknown ping %s", id)
		return nil
	}
	if deadline.Before(now) {
		return nil
	}
	delete(s.pendingPings, id)
	return nil
}

func (s *socketActor) checkPendingPings() error {
	now := time.Now()

	s.pingLock.Lock()
	defer s.pingLock.Unlock()

	var errs []error
	for id, deadline := range s.pendingPings {
		if deadline.Before(now) {
			errs = append(errs, errors.Errorf("ping %s did not receive pong by %s", id, deadline))
			delete(s.pendingPings, id)
		}
	}
	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}

func (s *socketActor) ping() error {
	s.pingLock.Lock()
	defer s.pingLock.Unlock()

	if len(s.pendingPings) > 0 {
		return nil
	}

	id := uuid.New().String()
	deadline := time.Now().Add(pingWaitDuration)
	err := s.conn.WriteControl(websocket.PingMessage, []byte(id), deadline)
	if netErr, ok := err.(net.Error); ok && netErr.Temporary() {
		return nil
	} else if err != nil {
		return err
	}

	s.pendingPings[id] = deadline
	return nil
}

func (s *socketActor) runPingLoop(ctx *actor.Context) {
	defer ctx.Self().Stop()

	for {
		if err := s.checkPendingPings(); err != nil {
			ctx.Tell(ctx.Self(), err)
			return
		}
		if err := s.ping(); err != nil {
			if !isClosingError(err) {
				ctx.Tell(ctx.Self(), err)
			}
			return
		}
		t := time.NewTimer(pingInterval)
		<-t.C
		t.Stop()
	}
}

func (s *socketActor) runReadLoop(ctx *actor.Context) {
	defer ctx.Self().Stop()

	for {
		msgType, msg, err := s.conn.ReadMessage()
		if isClosingError(err) {
			return
		}
		if err != nil {
			ctx.Tell(ctx.Self(), err)
			return
		}
		if msgType != websocket.TextMessage && msgType != websocket.BinaryMessage {
			ctx.Tell(ctx.Self(), errors.Errorf("unexpected message type: %d", msgType))
			return
		}
		ctx.Tell(ctx.Self(), msg)
	}
}

func parseMsg(raw []byte, msgType reflect.Type) (interface{}, error) {
	var parsed interface{}
	if msgType.Kind() == reflect.Ptr {
		parsed = reflect.New(msgType.Elem()).Interface()
	} else {
		parsed = reflect.New(msgType).Interface()
	}
	if err := json.Unmarshal(raw, parsed); err != nil {
		return nil, err
	}
	if msgType.Kind() == reflect.Ptr {
		return parsed, nil
	}
	return reflect.ValueOf(parsed).Elem().Interface(), nil
}
