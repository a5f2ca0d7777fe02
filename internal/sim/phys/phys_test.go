package phys

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"skyvox.io/internal/sim/comp"
	"skyvox.io/internal/sim/ecs"
)

type flatGround struct{ height int }

func (f flatGround) Sample(x, y, z int) (bool, bool) { return z < f.height, true }

func spawn(s *comp.Storage, pos, vel mgl64.Vec3) ecs.Entity {
	e := s.Reg.Create()
	s.Pos.Insert(e, comp.Pos{V: pos})
	s.Vel.Insert(e, comp.Vel{Linear: vel})
	s.Ori.Insert(e, comp.Ori{V: mgl64.Vec3{0, 1, 0}})
	s.Stats.Insert(e, comp.DefaultStats())
	return e
}

func TestDrive_ModeTable(t *testing.T) {
	cases := []struct {
		ground, glide, roll bool
		accel, limit        float64
	}{
		{true, false, false, 70, 120},
		{false, true, false, 15, 45},
		{false, false, false, 10, 100},
		{true, false, true, 160, 550},
		{true, true, false, 0, 0},
		{false, false, true, 0, 0},
		{false, true, true, 0, 0},
	}
	for _, c := range cases {
		a, l := Drive(c.ground, c.glide, c.roll)
		if a != c.accel || l != c.limit {
			t.Fatalf("Drive(%v,%v,%v)=(%v,%v) want (%v,%v)", c.ground, c.glide, c.roll, a, l, c.accel, c.limit)
		}
	}
}

func TestIntegrate_GravityStep(t *testing.T) {
	dt := 1.0 / 30
	vel := comp.Vel{Accel: mgl64.Vec3{0, 0, -GravAccel}}
	pos, out := Integrate(mgl64.Vec3{}, vel, false, dt)
	want := -GravAccel * dt
	if math.Abs(out.Linear[2]-want) > 1e-9 {
		t.Fatalf("vz=%v want %v", out.Linear[2], want)
	}
	if math.Abs(pos[2]-0.5*want*dt) > 1e-12 {
		t.Fatalf("z=%v want %v", pos[2], 0.5*want*dt)
	}
	if out.Accel[2] != -GravAccel {
		t.Fatalf("cached accel not updated: %v", out.Accel)
	}
}

func TestIntegrate_ColdStartFromRest(t *testing.T) {
	dt := 1.0 / 30
	pos, out := Integrate(mgl64.Vec3{0, 0, 5}, comp.Vel{}, false, dt)
	if want := -0.5 * GravAccel * dt; math.Abs(out.Linear[2]-want) > 1e-9 {
		t.Fatalf("first step vz=%v want %v", out.Linear[2], want)
	}
	if pos != (mgl64.Vec3{0, 0, 5}) {
		t.Fatalf("pos=%v want unchanged", pos)
	}
	if out.Accel != (mgl64.Vec3{0, 0, -GravAccel}) {
		t.Fatalf("accel=%v", out.Accel)
	}

	// From the second step on the cached value carries a full g*dt.
	_, next := Integrate(pos, out, false, dt)
	dv := next.Linear[2] - out.Linear[2]
	if dv >= -0.99*GravAccel*dt || dv < -GravAccel*dt {
		t.Fatalf("second step dvz=%v want just under %v", dv, -GravAccel*dt)
	}
}

func TestIntegrate_VerticalClamp(t *testing.T) {
	for _, vz := range []float64{-500, 500} {
		_, out := Integrate(mgl64.Vec3{}, comp.Vel{Linear: mgl64.Vec3{0, 0, vz}}, false, 1.0/30)
		if math.Abs(out.Linear[2]) > AirSpeedCap {
			t.Fatalf("vz=%v escaped clamp", out.Linear[2])
		}
	}
}

func TestResolveForces_DragOpposesMotion(t *testing.T) {
	a := ResolveForces(mgl64.Vec3{10, 0, -4}, true)
	if math.Abs(a[0]+375) > 1e-9 || a[1] != 0 || a[2] != 0 {
		t.Fatalf("ground accel=%v want (-375,0,0)", a)
	}
	a = ResolveForces(mgl64.Vec3{0, 0, -100}, false)
	if math.Abs(a[2]-(3750-GravAccel)) > 1e-9 {
		t.Fatalf("air accel=%v want z=%v", a, 3750-GravAccel)
	}
	a = ResolveForces(mgl64.Vec3{}, false)
	if a != (mgl64.Vec3{0, 0, -GravAccel}) {
		t.Fatalf("resting accel=%v", a)
	}
	a = ResolveForces(mgl64.Vec3{1e9, 0, 0}, true)
	if math.IsInf(a[0], 0) || math.IsNaN(a[0]) || a[0] >= 0 {
		t.Fatalf("extreme speed accel=%v", a)
	}
}

func TestTick_RollRemovedAfterDuration(t *testing.T) {
	s := comp.NewStorage()
	e := spawn(s, mgl64.Vec3{0, 0, 50}, mgl64.Vec3{})
	s.Rolling.Insert(e, comp.Rolling{})
	dt := 0.1
	for i := 1; i <= 5; i++ {
		Tick(s, nil, dt)
		if !s.Rolling.Has(e) {
			t.Fatalf("roll removed early at tick %d", i)
		}
	}
	Tick(s, nil, dt)
	if s.Rolling.Has(e) {
		t.Fatalf("roll still present after %.2fs", 6*dt)
	}
}

func TestTick_JumpConsumed(t *testing.T) {
	s := comp.NewStorage()
	e := spawn(s, mgl64.Vec3{0, 0, 10}, mgl64.Vec3{})
	s.OnGround.Insert(e, comp.OnGround{})
	s.Jumping.Insert(e, comp.Jumping{})
	Tick(s, flatGround{height: 10}, 1.0/30)
	if s.Jumping.Has(e) {
		t.Fatalf("jump marker not consumed")
	}
	vel, _ := s.Vel.Get(e)
	if vel.Linear[2] <= 0 {
		t.Fatalf("vz=%v want upward", vel.Linear[2])
	}
	if s.OnGround.Has(e) {
		t.Fatalf("rising entity still grounded")
	}
}

func TestTick_GroundDetectionAndPenetration(t *testing.T) {
	s := comp.NewStorage()
	ground := flatGround{height: 10}
	standing := spawn(s, mgl64.Vec3{0, 0, 10.05}, mgl64.Vec3{})
	buried := spawn(s, mgl64.Vec3{5, 5, 9.9}, mgl64.Vec3{0, 0, -3})
	s.OnGround.Insert(standing, comp.OnGround{})

	Tick(s, ground, 1.0/30)

	if !s.OnGround.Has(standing) {
		t.Fatalf("standing entity lost ground")
	}
	p, _ := s.Pos.Get(buried)
	v, _ := s.Vel.Get(buried)
	if p.V[2] < 10 {
		t.Fatalf("buried entity not pushed out: z=%v", p.V[2])
	}
	if v.Linear[2] != 0 {
		t.Fatalf("vz=%v want 0 after penetration fix", v.Linear[2])
	}
}

func TestTick_DeadAndUnloadedTerrain(t *testing.T) {
	s := comp.NewStorage()
	dead := spawn(s, mgl64.Vec3{1, 2, 3}, mgl64.Vec3{4, 0, 0})
	st, _ := s.Stats.Get(dead)
	st.IsDead = true
	falling := spawn(s, mgl64.Vec3{0, 0, 3}, mgl64.Vec3{})

	Tick(s, nil, 1.0/30)

	if p, _ := s.Pos.Get(dead); p.V != (mgl64.Vec3{1, 2, 3}) {
		t.Fatalf("dead entity moved: %v", p.V)
	}
	if v, _ := s.Vel.Get(falling); v.Linear[2] >= 0 {
		t.Fatalf("entity over missing terrain should fall: vz=%v", v.Linear[2])
	}
}

func TestTick_OrientationFollowsHorizontalVelocity(t *testing.T) {
	s := comp.NewStorage()
	e := spawn(s, mgl64.Vec3{0, 0, 50}, mgl64.Vec3{3, 0, -10})
	Tick(s, nil, 1.0/30)
	o, _ := s.Ori.Get(e)
	if math.Abs(o.V[0]-1) > 1e-9 || o.V[2] != 0 {
		t.Fatalf("ori=%v want +x", o.V)
	}

	still := spawn(s, mgl64.Vec3{0, 0, 50}, mgl64.Vec3{})
	Tick(s, nil, 1.0/30)
	if o, _ := s.Ori.Get(still); o.V != (mgl64.Vec3{0, 1, 0}) {
		t.Fatalf("vertical-only motion changed heading: %v", o.V)
	}
}

func TestTick_GlideSlowsFall(t *testing.T) {
	s := comp.NewStorage()
	plain := spawn(s, mgl64.Vec3{0, 0, 100}, mgl64.Vec3{20, 0, -10})
	glider := spawn(s, mgl64.Vec3{64, 0, 100}, mgl64.Vec3{20, 0, -10})
	s.Gliding.Insert(glider, comp.Gliding{})
	Tick(s, nil, 1.0/30)
	pv, _ := s.Vel.Get(plain)
	gv, _ := s.Vel.Get(glider)
	if gv.Linear[2] <= pv.Linear[2] {
		t.Fatalf("glider vz=%v should exceed plain vz=%v", gv.Linear[2], pv.Linear[2])
	}
}

func TestTick_MoveIntentAccelerates(t *testing.T) {
	s := comp.NewStorage()
	e := spawn(s, mgl64.Vec3{0, 0, 10}, mgl64.Vec3{})
	s.OnGround.Insert(e, comp.OnGround{})
	s.MoveIntent.Insert(e, comp.MoveIntent{Dir: mgl64.Vec2{1, 0}})
	Tick(s, flatGround{height: 10}, 1.0/30)
	v, _ := s.Vel.Get(e)
	if v.Linear[0] <= 0 {
		t.Fatalf("vx=%v want >0", v.Linear[0])
	}
}
