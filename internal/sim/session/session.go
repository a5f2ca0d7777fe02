// Package session tracks per-connection protocol state.
package session

import (
	"sort"

	"skyvox.io/internal/protocol"
	"skyvox.io/internal/sim/ecs"
)

// Postbox is one connection's message channel as seen by the tick loop.
type Postbox interface {
	ID() string
	Send(msg protocol.ServerMsg)
	// NewMessages returns, in arrival order, everything received since the
	// previous call.
	NewMessages() []protocol.ClientMsg
	// Err is non-nil once the transport has failed.
	Err() error
	Close()
}

type Client struct {
	State    protocol.ClientState
	Postbox  Postbox
	LastPing float64
	// LastProbe is when the last keep-alive Ping was sent.
	LastProbe float64
}

func (c *Client) Notify(msg protocol.ServerMsg) { c.Postbox.Send(msg) }

func (c *Client) AllowState(s protocol.ClientState) {
	c.State = s
	c.Notify(protocol.StateAnswer(s))
}

func (c *Client) ErrorState(err protocol.RequestStateError) {
	c.Notify(protocol.StateRejected(c.State, err))
}

func (c *Client) ForceState(s protocol.ClientState) {
	c.State = s
	c.Notify(protocol.ForceState(s))
}

func (c *Client) IsRegistered() bool { return c.State != protocol.StateConnected }

// IsIngame reports whether the client observes the world.
func (c *Client) IsIngame() bool {
	switch c.State {
	case protocol.StateSpectator, protocol.StateCharacter, protocol.StateDead:
		return true
	}
	return false
}

// Clients maps controlled entities to their connections.
type Clients struct {
	m map[ecs.Entity]*Client
}

func NewClients() *Clients { return &Clients{m: map[ecs.Entity]*Client{}} }

func (cs *Clients) Add(e ecs.Entity, c *Client) { cs.m[e] = c }

func (cs *Clients) Get(e ecs.Entity) (*Client, bool) {
	c, ok := cs.m[e]
	return c, ok
}

func (cs *Clients) Remove(e ecs.Entity) (*Client, bool) {
	c, ok := cs.m[e]
	delete(cs.m, e)
	return c, ok
}

func (cs *Clients) Len() int { return len(cs.m) }

// Entities returns client entities sorted by ID.
func (cs *Clients) Entities() []ecs.Entity {
	out := make([]ecs.Entity, 0, len(cs.m))
	for e := range cs.m {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (cs *Clients) Notify(e ecs.Entity, msg protocol.ServerMsg) {
	if c, ok := cs.m[e]; ok {
		c.Notify(msg)
	}
}

func (cs *Clients) NotifyRegistered(msg protocol.ServerMsg) {
	for _, c := range cs.m {
		if c.IsRegistered() {
			c.Notify(msg)
		}
	}
}

func (cs *Clients) NotifyIngame(msg protocol.ServerMsg) {
	for _, c := range cs.m {
		if c.IsIngame() {
			c.Notify(msg)
		}
	}
}

// NotifyIngameIfExcept sends msg to every in-game client other than except
// for which keep returns true.
func (cs *Clients) NotifyIngameIfExcept(except ecs.Entity, msg protocol.ServerMsg, keep func(ecs.Entity) bool) {
	for e, c := range cs.m {
		if e == except || !c.IsIngame() || !keep(e) {
			continue
		}
		c.Notify(msg)
	}
}
