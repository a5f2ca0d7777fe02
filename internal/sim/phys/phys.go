// Package phys advances movable entities by one fixed step.
package phys

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"skyvox.io/internal/sim/comp"
	"skyvox.io/internal/sim/ecs"
)

const (
	GravAccel  = 9.81 * 4.0
	FricGround = 0.15
	FricAir    = 0.015

	// Quadratic drag scales with this times the friction constant.
	dragScale = 50.0

	HumanoidAccel    = 70.0
	HumanoidSpeed    = 120.0
	HumanoidAirAccel = 10.0
	HumanoidAirSpeed = 100.0
	HumanoidJump     = 16.0

	RollAccel    = 160.0
	RollSpeed    = 550.0
	RollDuration = 0.55

	GlideAccel    = 15.0
	GlideSpeed    = 45.0
	GlideAntigrav = 9.81 * 3.95

	// AirSpeedCap bounds vertical speed after every step.
	AirSpeedCap = 100.0

	// maxDrag keeps the drag term finite at extreme speeds.
	maxDrag = 1e6

	groundProbe       = 0.1
	penetrationStep   = 0.0025
	penetrationBudget = 6000.0
)

// Sampler answers voxel solidity. ok=false means no data, treated as air.
type Sampler interface {
	Sample(x, y, z int) (solid, ok bool)
}

// Drive returns the horizontal acceleration and speed cap for a mode.
// Combinations without an entry yield zero acceleration.
func Drive(onGround, gliding, rolling bool) (accel, limit float64) {
	switch {
	case onGround && !gliding && !rolling:
		return HumanoidAccel, HumanoidSpeed
	case !onGround && gliding && !rolling:
		return GlideAccel, GlideSpeed
	case !onGround && !gliding && !rolling:
		return HumanoidAirAccel, HumanoidAirSpeed
	case onGround && !gliding && rolling:
		return RollAccel, RollSpeed
	}
	return 0, 0
}

// ResolveForces returns gravity minus quadratic drag for velocity v.
// Drag opposes motion; on the ground only horizontal motion is damped.
func ResolveForces(v mgl64.Vec3, onGround bool) mgl64.Vec3 {
	var accel mgl64.Vec3
	fric := FricAir
	if onGround {
		fric = FricGround
		v[2] = 0
	} else {
		accel[2] = -GravAccel
	}
	speed := v.Len()
	if speed == 0 {
		return accel
	}
	drag := math.Min(0.5*dragScale*fric*speed*speed, maxDrag)
	return accel.Sub(v.Mul(drag / speed))
}

// Integrate performs one velocity-Verlet step: position advances with the
// cached acceleration, velocity with the mean of the cached and the newly
// resolved acceleration, which becomes the next cached value.
func Integrate(pos mgl64.Vec3, vel comp.Vel, onGround bool, dt float64) (mgl64.Vec3, comp.Vel) {
	pos = pos.Add(vel.Linear.Mul(dt)).Add(vel.Accel.Mul(0.5 * dt * dt))
	accel := ResolveForces(vel.Linear, onGround)
	lin := vel.Linear.Add(vel.Accel.Add(accel).Mul(0.5 * dt))
	lin[2] = mgl64.Clamp(lin[2], -AirSpeedCap, AirSpeedCap)
	return pos, comp.Vel{Linear: lin, Accel: accel}
}

// Facing returns the horizontal heading of v, or prev when v has no
// horizontal component.
func Facing(v, prev mgl64.Vec3) mgl64.Vec3 {
	h := mgl64.Vec3{v[0], v[1], 0}
	if h.Len() == 0 {
		return prev
	}
	return h.Normalize()
}

func voxel(p mgl64.Vec3) (int, int, int) {
	return int(math.Floor(p[0])), int(math.Floor(p[1])), int(math.Floor(p[2]))
}

func solidAt(t Sampler, p mgl64.Vec3) bool {
	if t == nil {
		return false
	}
	solid, ok := t.Sample(voxel(p))
	return ok && solid
}

// Tick advances every entity that has Pos, Vel, Ori and Stats.
func Tick(s *comp.Storage, t Sampler, dt float64) {
	s.Pos.Each(func(e ecs.Entity, pos *comp.Pos) {
		stats, ok := s.Stats.Get(e)
		if !ok || stats.IsDead {
			return
		}
		vel, ok := s.Vel.Get(e)
		if !ok {
			return
		}
		ori, ok := s.Ori.Get(e)
		if !ok {
			return
		}
		step(s, t, e, pos, vel, ori, dt)
	})
}

func step(s *comp.Storage, t Sampler, e ecs.Entity, pos *comp.Pos, vel *comp.Vel, ori *comp.Ori, dt float64) {
	onGround := s.OnGround.Has(e)
	gliding := s.Gliding.Has(e)
	rolling := s.Rolling.Has(e)

	if mi, ok := s.MoveIntent.Get(e); ok {
		accel, limit := Drive(onGround, gliding, rolling)
		if vel.Linear.Len() < limit {
			vel.Linear[0] += dt * mi.Dir[0] * accel
			vel.Linear[1] += dt * mi.Dir[1] * accel
		}
	}

	if s.Jumping.Remove(e) {
		vel.Linear[2] = HumanoidJump
	}

	if gliding && vel.Linear.Len() < GlideSpeed && vel.Linear[2] < 0 {
		lift := GlideAntigrav + vel.Linear[2]*vel.Linear[2]*0.2
		horiz := mgl64.Vec2{vel.Linear[0], vel.Linear[1]}.Mul(0.15).Len()
		vel.Linear[2] += dt * lift * math.Min(1, horiz)
	}

	if r, ok := s.Rolling.Get(e); ok {
		r.Time += dt
		if r.Time > RollDuration {
			s.Rolling.Remove(e)
		}
	}

	pos.V, *vel = Integrate(pos.V, *vel, onGround, dt)
	ori.V = Facing(vel.Linear, ori.V)

	if solidAt(t, pos.V.Sub(mgl64.Vec3{0, 0, groundProbe})) && vel.Linear[2] <= 0 {
		s.OnGround.Insert(e, comp.OnGround{})
	} else {
		s.OnGround.Remove(e)
	}

	for i := 0; solidAt(t, pos.V) && float64(i) < penetrationBudget*dt; i++ {
		pos.V[2] += penetrationStep
		vel.Linear[2] = 0
	}
}
