package protocol

import (
	"github.com/go-gl/mathgl/mgl64"

	"skyvox.io/internal/sim/comp"
)

type PlayerInfo struct {
	Alias        string  `json:"alias"`
	ViewDistance *uint32 `json:"view_distance,omitempty"`
}

type ChunkKey [2]int32

// InputState is the per-frame control snapshot of PLAYER_INPUT.
type InputState struct {
	Move  [2]float64 `json:"move"`
	Jump  bool       `json:"jump,omitempty"`
	Roll  bool       `json:"roll,omitempty"`
	Glide bool       `json:"glide,omitempty"`
}

// ClientMsg is every client -> server message; Type selects which fields
// are meaningful.
type ClientMsg struct {
	Type string `json:"type"`

	// REQUEST_STATE
	State ClientState `json:"state,omitempty"`
	// REGISTER
	Player *PlayerInfo `json:"player,omitempty"`
	// SET_VIEW_DISTANCE
	ViewDistance uint32 `json:"view_distance,omitempty"`
	// CHARACTER
	Name string     `json:"name,omitempty"`
	Body *comp.Body `json:"body,omitempty"`
	// CHAT
	Text string `json:"text,omitempty"`
	// PLAYER_ANIMATION
	Animation *comp.AnimationInfo `json:"animation,omitempty"`
	// PLAYER_PHYSICS
	Pos *mgl64.Vec3 `json:"pos,omitempty"`
	Vel *mgl64.Vec3 `json:"vel,omitempty"`
	Ori *mgl64.Vec3 `json:"ori,omitempty"`
	// PLAYER_INPUT
	Input *InputState `json:"input,omitempty"`
	// TERRAIN_CHUNK_REQUEST
	Key *ChunkKey `json:"key,omitempty"`
}

type ServerInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type SyncedPlayer struct {
	Alias string `json:"alias"`
}

// EntityState is the synced view of one entity.
type EntityState struct {
	Uid    uint64        `json:"uid"`
	Actor  *comp.Actor   `json:"actor,omitempty"`
	Player *SyncedPlayer `json:"player,omitempty"`
	Stats  *comp.Stats   `json:"stats,omitempty"`
}

// EcsPackage is either the full synced state or a delta since last tick.
type EcsPackage struct {
	Entities []EntityState `json:"entities,omitempty"`
	Deleted  []uint64      `json:"deleted,omitempty"`
}

func (p EcsPackage) Empty() bool { return len(p.Entities) == 0 && len(p.Deleted) == 0 }

type ChunkPayload struct {
	Digest  string `json:"digest"`
	Heights string `json:"heights"`
	Blocks  string `json:"blocks"`
}

// ServerMsg is every server -> client message.
type ServerMsg struct {
	Type string `json:"type"`

	// INITIAL_SYNC
	ProtocolVersion string      `json:"protocol_version,omitempty"`
	EcsState        *EcsPackage `json:"ecs_state,omitempty"`
	EntityUid       uint64      `json:"entity_uid,omitempty"`
	ServerInfo      *ServerInfo `json:"server_info,omitempty"`
	// STATE_ANSWER, FORCE_STATE
	State ClientState       `json:"state,omitempty"`
	Error RequestStateError `json:"error,omitempty"`
	// CHAT
	Text string `json:"text,omitempty"`
	// ENTITY_PHYSICS, ENTITY_ANIMATION
	Entity    uint64              `json:"entity,omitempty"`
	Pos       *mgl64.Vec3         `json:"pos,omitempty"`
	Vel       *mgl64.Vec3         `json:"vel,omitempty"`
	Ori       *mgl64.Vec3         `json:"ori,omitempty"`
	Animation *comp.AnimationInfo `json:"animation,omitempty"`
	// TERRAIN_CHUNK_UPDATE
	Key   *ChunkKey     `json:"key,omitempty"`
	Chunk *ChunkPayload `json:"chunk,omitempty"`
	// ECS_SYNC
	Sync *EcsPackage `json:"sync,omitempty"`
}

func InitialSync(state EcsPackage, uid uint64, info ServerInfo) ServerMsg {
	return ServerMsg{Type: TypeInitialSync, ProtocolVersion: Version, EcsState: &state, EntityUid: uid, ServerInfo: &info}
}

func StateAnswer(s ClientState) ServerMsg { return ServerMsg{Type: TypeStateAnswer, State: s} }

// StateRejected answers with the unchanged current state and the reason.
func StateRejected(current ClientState, err RequestStateError) ServerMsg {
	return ServerMsg{Type: TypeStateAnswer, State: current, Error: err}
}

func ForceState(s ClientState) ServerMsg { return ServerMsg{Type: TypeForceState, State: s} }

func Chat(text string) ServerMsg { return ServerMsg{Type: TypeChat, Text: text} }

func EntityPhysics(uid uint64, pos, vel, ori mgl64.Vec3) ServerMsg {
	return ServerMsg{Type: TypeEntityPhysics, Entity: uid, Pos: &pos, Vel: &vel, Ori: &ori}
}

func EntityAnimation(uid uint64, info comp.AnimationInfo) ServerMsg {
	return ServerMsg{Type: TypeEntityAnimation, Entity: uid, Animation: &info}
}

func TerrainChunkUpdate(key ChunkKey, chunk ChunkPayload) ServerMsg {
	return ServerMsg{Type: TypeTerrainChunkUpdate, Key: &key, Chunk: &chunk}
}

func EcsSync(p EcsPackage) ServerMsg { return ServerMsg{Type: TypeEcsSync, Sync: &p} }

func Ping() ServerMsg       { return ServerMsg{Type: TypePing} }
func Pong() ServerMsg       { return ServerMsg{Type: TypePong} }
func Disconnect() ServerMsg { return ServerMsg{Type: TypeDisconnect} }
func Shutdown() ServerMsg   { return ServerMsg{Type: TypeShutdown} }
