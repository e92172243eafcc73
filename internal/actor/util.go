package actor

import (
	"context"
	"encoding/json"
)

// Responses is a future for the results of an AskAll call across several actors. It is
// a channel so callers can range over it as each response lands.
type Responses <-chan Response

// MarshalJSON renders responses keyed by actor address, consuming the channel.
func (r Responses) MarshalJSON() ([]byte, error) {
	out := map[string]Message{}
	for resp := range r {
		out[resp.Source().Address().String()] = resp.Get()
	}
	return json.Marshal(out)
}

// GetAll blocks until every response has arrived and returns them keyed by actor,
// consuming the channel.
func (r Responses) GetAll() map[*Ref]Message {
	out := map[*Ref]Message{}
	for resp := range r {
		out[resp.Source()] = resp.Get()
	}
	return out
}

func askAll(ctx context.Context, sender *Ref, message Message, actors []*Ref) Responses {
	out := make(chan Response, len(actors))
	for _, ref := range actors {
		if ref == nil {
			continue
		}
		out <- ref.ask(ctx, sender, message)
	}
	close(out)
	return out
}
