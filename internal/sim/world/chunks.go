package world

import (
	"skyvox.io/internal/sim/comp"
	"skyvox.io/internal/sim/ecs"
	"skyvox.io/internal/sim/interest"
)

// observers snapshots every player entity that has a position and a view
// distance.
func (w *World) observers() interest.Snapshot {
	snap := interest.Snapshot{}
	w.ecs.Player.Each(func(e ecs.Entity, p *comp.Player) {
		if p.ViewDistance == nil {
			return
		}
		pos, ok := w.ecs.Pos.Get(e)
		if !ok {
			return
		}
		snap[e] = interest.NewObserver(pos.V, *p.ViewDistance)
	})
	return snap
}

// drainChunk loads at most one finished chunk and pushes it to the players
// whose view covers it.
func (w *World) drainChunk() {
	res, ok := w.stream.Drain(w.terrain)
	if !ok {
		return
	}
	if res.Chunk == nil {
		w.logger.Printf("chunk %v not loaded: %v", res.Key, res.Err)
		return
	}
	msg := chunkUpdate(res.Key, res.Chunk)
	for e, o := range w.observers() {
		if o.Covers(res.Key) {
			w.clients.Notify(e, msg)
		}
	}
}

func (w *World) evictChunks() {
	snap := w.observers()
	w.stream.Evict(w.terrain, snap.AnyCovers)
}
