// Package interest decides which observers see which entities and chunks.
package interest

import (
	"github.com/go-gl/mathgl/mgl64"

	"skyvox.io/internal/sim/ecs"
	"skyvox.io/internal/sim/terrain"
)

// Observer is what filtering needs to know about one connection's entity.
type Observer struct {
	Chunk        terrain.Key
	ViewDistance uint32
}

func NewObserver(pos mgl64.Vec3, viewDistance uint32) Observer {
	return Observer{Chunk: terrain.PosKey(pos), ViewDistance: viewDistance}
}

func (o Observer) Covers(key terrain.Key) bool {
	return terrain.Distance(o.Chunk, key) <= o.ViewDistance
}

func (o Observer) Sees(target mgl64.Vec3) bool {
	return o.Covers(terrain.PosKey(target))
}

// Snapshot holds the observers of one tick, keyed by controlled entity.
// Entities without a position or view distance are absent and see nothing.
type Snapshot map[ecs.Entity]Observer

func (s Snapshot) Sees(viewer ecs.Entity, target mgl64.Vec3) bool {
	o, ok := s[viewer]
	return ok && o.Sees(target)
}

func (s Snapshot) AnyCovers(key terrain.Key) bool {
	for _, o := range s {
		if o.Covers(key) {
			return true
		}
	}
	return false
}
