// Package combat resolves melee swings and detects deaths.
package combat

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"skyvox.io/internal/sim/comp"
	"skyvox.io/internal/sim/ecs"
)

const (
	RangeSq        = 50.0
	ConeDegrees    = 70.0
	Damage         = 10
	KnockbackSpeed = 10.0
	KnockbackPop   = 15.0
	SwingDuration  = 0.5
)

// InCone reports whether to lies within ConeDegrees of facing. Zero-length
// vectors have no direction and are never inside the cone.
func InCone(facing, to mgl64.Vec3) bool {
	lf, lt := facing.Len(), to.Len()
	if lf == 0 || lt == 0 {
		return false
	}
	cos := mgl64.Clamp(facing.Dot(to)/(lf*lt), -1, 1)
	return mgl64.RadToDeg(math.Acos(cos)) < ConeDegrees
}

// Tick runs the hit scan of every fresh swing and expires finished ones.
func Tick(s *comp.Storage, dt float64) {
	var expired []ecs.Entity
	s.Attacking.Each(func(a ecs.Entity, atk *comp.Attacking) {
		fresh := !atk.Applied
		atk.Applied = true
		if atk.Time > SwingDuration {
			expired = append(expired, a)
		} else {
			atk.Time += dt
		}
		if !fresh {
			return
		}
		uid, ok := s.Uid.Get(a)
		if !ok {
			return
		}
		pa, ok := s.Pos.Get(a)
		if !ok {
			return
		}
		oa, ok := s.Ori.Get(a)
		if !ok {
			return
		}
		swing(s, a, *uid, pa.V, oa.V)
	})
	for _, e := range expired {
		s.Attacking.Remove(e)
	}
}

func swing(s *comp.Storage, attacker ecs.Entity, by comp.Uid, pa, facing mgl64.Vec3) {
	s.Stats.Each(func(b ecs.Entity, st *comp.Stats) {
		if b == attacker || st.IsDead {
			return
		}
		pb, ok := s.Pos.Get(b)
		if !ok {
			return
		}
		vb, ok := s.Vel.Get(b)
		if !ok {
			return
		}
		to := pb.V.Sub(pa)
		if to.Dot(to) >= RangeSq || !InCone(facing, to) {
			return
		}
		st.HP.ChangeBy(-Damage, comp.HealthSource{Kind: comp.SourceAttack, By: by})
		push := mgl64.Vec3{to[0], to[1], 0}
		if push.Len() > 0 {
			vb.Linear = vb.Linear.Add(push.Normalize().Mul(KnockbackSpeed))
		}
		vb.Linear[2] = KnockbackPop
		s.ForceUpdate.Insert(b, comp.ForceUpdate{})
	})
}

// UpdateStats ages the last health change and marks entities whose health
// reached zero as dead, attaching a one-tick Dying marker.
func UpdateStats(s *comp.Storage, dt float64) {
	s.Stats.Each(func(e ecs.Entity, st *comp.Stats) {
		st.HP.LastChange.Time += dt
		if st.HP.Current <= 0 && !st.IsDead {
			st.IsDead = true
			s.Dying.Insert(e, comp.Dying{Cause: st.HP.LastChange.Cause})
		}
	})
}
