package session

import "skyvox.io/internal/protocol"

// Transition is the outcome of a REQUEST_STATE message.
type Transition struct {
	Next       protocol.ClientState
	Err        protocol.RequestStateError
	Disconnect bool
}

// RequestState applies the generic state-change table.
func RequestState(current, requested protocol.ClientState) Transition {
	reject := func(err protocol.RequestStateError) Transition { return Transition{Next: current, Err: err} }
	switch requested {
	case protocol.StateConnected:
		return Transition{Next: current, Disconnect: true}
	case protocol.StateRegistered:
		switch current {
		case protocol.StateConnected:
			return reject(protocol.ErrWrongMessage)
		case protocol.StateRegistered:
			return reject(protocol.ErrAlready)
		}
		return Transition{Next: protocol.StateRegistered}
	case protocol.StateSpectator:
		switch current {
		case protocol.StateConnected:
			return reject(protocol.ErrImpossible)
		case protocol.StateSpectator:
			return reject(protocol.ErrAlready)
		}
		return Transition{Next: protocol.StateSpectator}
	case protocol.StateCharacter:
		return reject(protocol.ErrWrongMessage)
	}
	// Dead is reached only through a death; unknown states have no edge.
	return reject(protocol.ErrImpossible)
}

var (
	registered = []protocol.ClientState{protocol.StateRegistered, protocol.StateSpectator, protocol.StateCharacter, protocol.StateDead}
	ingame     = []protocol.ClientState{protocol.StateSpectator, protocol.StateCharacter}
	character  = []protocol.ClientState{protocol.StateCharacter}
)

// gates lists the states allowed to send each gameplay message.
var gates = map[string][]protocol.ClientState{
	protocol.TypeRegister:            {protocol.StateConnected},
	protocol.TypeSetViewDistance:     registered,
	protocol.TypeCharacter:           {protocol.StateRegistered, protocol.StateSpectator, protocol.StateDead},
	protocol.TypeAttack:              character,
	protocol.TypeRespawn:             {protocol.StateDead},
	protocol.TypeChat:                registered,
	protocol.TypePlayerAnimation:     character,
	protocol.TypePlayerPhysics:       character,
	protocol.TypePlayerInput:         character,
	protocol.TypeTerrainChunkRequest: ingame,
}

// Gate reports whether a client in state may send a message of kind.
// Messages without a gate entry are legal everywhere.
func Gate(kind string, state protocol.ClientState) (bool, protocol.RequestStateError) {
	allowed, ok := gates[kind]
	if !ok {
		return true, ""
	}
	for _, s := range allowed {
		if s == state {
			return true, ""
		}
	}
	if kind == protocol.TypeCharacter && state == protocol.StateCharacter {
		return false, protocol.ErrAlready
	}
	return false, protocol.ErrImpossible
}

// Liveness is the keep-alive verdict for a silent client.
type Liveness int

const (
	Alive Liveness = iota
	Probe
	Expired
)

// probeInterval spaces keep-alive pings once a client goes quiet.
const probeInterval = 1.0

// CheckLiveness classifies a client that sent nothing this tick. After half
// the timeout it wants a probe (at most once per probeInterval); past the
// full timeout it has expired.
func (c *Client) CheckLiveness(now, timeout float64) Liveness {
	idle := now - c.LastPing
	switch {
	case idle > timeout:
		return Expired
	case idle > timeout*0.5 && now-c.LastProbe >= probeInterval:
		return Probe
	}
	return Alive
}
