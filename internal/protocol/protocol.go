package protocol

import "encoding/json"

const Version = "1.0"

// Client -> server message types.
const (
	TypeRequestState        = "REQUEST_STATE"
	TypeRegister            = "REGISTER"
	TypeSetViewDistance     = "SET_VIEW_DISTANCE"
	TypeCharacter           = "CHARACTER"
	TypeAttack              = "ATTACK"
	TypeRespawn             = "RESPAWN"
	TypePlayerAnimation     = "PLAYER_ANIMATION"
	TypePlayerPhysics       = "PLAYER_PHYSICS"
	TypePlayerInput         = "PLAYER_INPUT"
	TypeTerrainChunkRequest = "TERRAIN_CHUNK_REQUEST"
)

// Server -> client message types.
const (
	TypeInitialSync        = "INITIAL_SYNC"
	TypeStateAnswer        = "STATE_ANSWER"
	TypeForceState         = "FORCE_STATE"
	TypeEntityPhysics      = "ENTITY_PHYSICS"
	TypeEntityAnimation    = "ENTITY_ANIMATION"
	TypeTerrainChunkUpdate = "TERRAIN_CHUNK_UPDATE"
	TypeEcsSync            = "ECS_SYNC"
	TypeShutdown           = "SHUTDOWN"
)

// Both directions.
const (
	TypeChat       = "CHAT"
	TypePing       = "PING"
	TypePong       = "PONG"
	TypeDisconnect = "DISCONNECT"
)

var clientTypes = map[string]struct{}{
	TypeRequestState:        {},
	TypeRegister:            {},
	TypeSetViewDistance:     {},
	TypeCharacter:           {},
	TypeAttack:              {},
	TypeRespawn:             {},
	TypeChat:                {},
	TypePlayerAnimation:     {},
	TypePlayerPhysics:       {},
	TypePlayerInput:         {},
	TypeTerrainChunkRequest: {},
	TypePing:                {},
	TypePong:                {},
	TypeDisconnect:          {},
}

// IsClientType reports whether t is a message a client may send.
func IsClientType(t string) bool {
	_, ok := clientTypes[t]
	return ok
}

// BaseMessage lets us route unknown JSON messages by type.
type BaseMessage struct {
	Type string `json:"type"`
}

func DecodeBase(b []byte) (BaseMessage, error) {
	var m BaseMessage
	err := json.Unmarshal(b, &m)
	return m, err
}
