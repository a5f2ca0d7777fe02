package world

type EventKind string

const (
	EventConnect    EventKind = "CONNECT"
	EventDisconnect EventKind = "DISCONNECT"
	EventChat       EventKind = "CHAT"
	EventDeath      EventKind = "DEATH"
)

// Event is a replayable record of something that happened during a tick.
type Event struct {
	Kind    EventKind `json:"kind"`
	Uid     uint64    `json:"uid,omitempty"`
	Session string    `json:"session,omitempty"`
	Alias   string    `json:"alias,omitempty"`
	Text    string    `json:"text,omitempty"`
	Reason  string    `json:"reason,omitempty"`
	// By is the killer's uid for deaths.
	By uint64 `json:"by,omitempty"`
}

type TickLogEntry struct {
	Tick   uint64  `json:"tick"`
	Time   float64 `json:"time"`
	Events []Event `json:"events"`
}
