// Package transport implements addressable message delivery between the
// agent, the master, and per-framework executors: a network-level PID
// (distinct from the in-process actor.Address), JSON wire envelopes for
// the agent/master/executor message channels, and a websocket-backed
// connection actor for both dialing out and accepting inbound connections.
package transport

import "fmt"

// PID is the network address of a correspondent: a logical name together with the
// host and port it is reachable at. It is cheap to copy and compare, and is the sole
// handle used to send it a message — distinct from actor.Address, which only ever
// resolves within one process's local actor system.
type PID struct {
	Name string `json:"name"`
	Host string `json:"host"`
	Port int    `json:"port"`
}

func (p PID) String() string {
	return fmt.Sprintf("%s@%s:%d", p.Name, p.Host, p.Port)
}

// Zero reports whether p is the zero-value PID (no address known).
func (p PID) Zero() bool {
	return p == PID{}
}
