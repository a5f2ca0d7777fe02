// Package comp defines the entity components simulated by the world.
package comp

import (
	"github.com/go-gl/mathgl/mgl64"
)

// Uid is the stable network identity of an entity.
type Uid uint64

type Pos struct{ V mgl64.Vec3 }

// Vel carries the linear velocity and the acceleration resolved by the
// previous integration step.
type Vel struct {
	Linear mgl64.Vec3
	Accel  mgl64.Vec3
}

type Ori struct{ V mgl64.Vec3 }

type MoveIntent struct{ Dir mgl64.Vec2 }

// Mode markers.
type (
	OnGround    struct{}
	Jumping     struct{}
	Gliding     struct{}
	ForceUpdate struct{}
	Respawning  struct{}
)

type Rolling struct{ Time float64 }

type Attacking struct {
	Time    float64
	Applied bool
}

type HealthSourceKind string

const (
	SourceAttack  HealthSourceKind = "ATTACK"
	SourceSuicide HealthSourceKind = "SUICIDE"
	SourceRevive  HealthSourceKind = "REVIVE"
	SourceUnknown HealthSourceKind = "UNKNOWN"
)

type HealthSource struct {
	Kind HealthSourceKind `json:"kind"`
	By   Uid              `json:"by,omitempty"`
}

type HealthChange struct {
	Amount int          `json:"amount"`
	Time   float64      `json:"time"`
	Cause  HealthSource `json:"cause"`
}

type Health struct {
	Current    int          `json:"current"`
	Maximum    int          `json:"maximum"`
	LastChange HealthChange `json:"last_change"`
}

func (h *Health) SetTo(v int, cause HealthSource) {
	h.ChangeBy(v-h.Current, cause)
}

// ChangeBy applies amount clamped to [0, Maximum] and records it.
func (h *Health) ChangeBy(amount int, cause HealthSource) {
	v := h.Current + amount
	if v < 0 {
		v = 0
	}
	if v > h.Maximum {
		v = h.Maximum
	}
	h.Current = v
	h.LastChange = HealthChange{Amount: amount, Cause: cause}
}

type Stats struct {
	HP     Health `json:"hp"`
	IsDead bool   `json:"is_dead"`
}

const DefaultHealth = 100

func DefaultStats() Stats {
	return Stats{HP: Health{
		Current:    DefaultHealth,
		Maximum:    DefaultHealth,
		LastChange: HealthChange{Cause: HealthSource{Kind: SourceRevive}},
	}}
}

// Dying is set for the one tick in which an entity's health hit zero.
type Dying struct{ Cause HealthSource }

// Player is attached to entities controlled by a registered connection.
type Player struct {
	Alias        string
	ViewDistance *uint32
}

type Body struct {
	Kind    string `json:"kind"`
	Race    string `json:"race,omitempty"`
	Variant string `json:"variant,omitempty"`
}

func DefaultBody() Body { return Body{Kind: "humanoid", Race: "human"} }

// Actor marks an entity with a character body.
type Actor struct {
	Name string `json:"name"`
	Body Body   `json:"body"`
}

type Animation string

const (
	AnimIdle    Animation = "IDLE"
	AnimRun     Animation = "RUN"
	AnimJump    Animation = "JUMP"
	AnimGliding Animation = "GLIDING"
	AnimAttack  Animation = "ATTACK"
	AnimRoll    Animation = "ROLL"
)

type AnimationInfo struct {
	Animation Animation `json:"animation"`
	Time      float64   `json:"time"`
	Changed   bool      `json:"changed"`
}
