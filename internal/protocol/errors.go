package protocol

// ClientState is the protocol state of one connection.
type ClientState string

const (
	StateConnected  ClientState = "CONNECTED"
	StateRegistered ClientState = "REGISTERED"
	StateSpectator  ClientState = "SPECTATOR"
	StateCharacter  ClientState = "CHARACTER"
	StateDead       ClientState = "DEAD"
)

// RequestStateError is the typed rejection of an out-of-state message.
type RequestStateError string

const (
	ErrAlready      RequestStateError = "ALREADY"
	ErrImpossible   RequestStateError = "IMPOSSIBLE"
	ErrWrongMessage RequestStateError = "WRONG_MESSAGE"
)

var knownStates = map[ClientState]struct{}{
	StateConnected:  {},
	StateRegistered: {},
	StateSpectator:  {},
	StateCharacter:  {},
	StateDead:       {},
}

func IsKnownState(s ClientState) bool {
	_, ok := knownStates[s]
	return ok
}

func IsKnownError(e RequestStateError) bool {
	switch e {
	case "", ErrAlready, ErrImpossible, ErrWrongMessage:
		return true
	}
	return false
}
