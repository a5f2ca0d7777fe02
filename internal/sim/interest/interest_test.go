package interest

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"skyvox.io/internal/sim/ecs"
	"skyvox.io/internal/sim/terrain"
)

func TestObserver_ChebyshevDistance(t *testing.T) {
	o := NewObserver(mgl64.Vec3{1, 1, 0}, 2)
	if !o.Sees(mgl64.Vec3{2 * terrain.ChunkSize, -2 * terrain.ChunkSize, 0}) {
		t.Fatalf("diagonal at distance 2 should be visible")
	}
	if o.Sees(mgl64.Vec3{5 * terrain.ChunkSize, 0, 0}) {
		t.Fatalf("5 chunks away should be hidden at view distance 2")
	}
	if !o.Covers(terrain.Key{X: -2, Y: 1}) || o.Covers(terrain.Key{X: 3, Y: 0}) {
		t.Fatalf("Covers mismatch")
	}
}

func TestSnapshot(t *testing.T) {
	r := ecs.NewRegistry()
	a, b := r.Create(), r.Create()
	s := Snapshot{a: NewObserver(mgl64.Vec3{}, 1)}
	if s.Sees(b, mgl64.Vec3{}) {
		t.Fatalf("viewer without observer should see nothing")
	}
	if !s.Sees(a, mgl64.Vec3{40, 0, 0}) {
		t.Fatalf("neighbor chunk should be visible")
	}
	if !s.AnyCovers(terrain.Key{X: 1, Y: 1}) || s.AnyCovers(terrain.Key{X: 2, Y: 0}) {
		t.Fatalf("AnyCovers mismatch")
	}
}
