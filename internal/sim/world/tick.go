package world

import (
	"time"

	"skyvox.io/internal/sim/combat"
	"skyvox.io/internal/sim/comp"
	"skyvox.io/internal/sim/ecs"
	"skyvox.io/internal/sim/phys"
)

// Tick advances the world by dt and returns what happened.
func (w *World) Tick(dt time.Duration) []Event {
	start := time.Now()
	secs := dt.Seconds()
	w.time += secs

	var events []Event
	events = append(events, w.handleNewConnections()...)
	events = append(events, w.handleNewMessages()...)

	phys.Tick(w.ecs, w.terrain, secs)
	combat.Tick(w.ecs, secs)
	combat.UpdateStats(w.ecs, secs)

	events = append(events, w.handleDeaths()...)
	w.handleRespawns()

	w.drainChunk()
	w.evictChunks()

	w.syncClients()
	w.clearTransient()

	tick := w.tick.Add(1) - 1
	if w.tickLogger != nil && len(events) > 0 {
		entry := TickLogEntry{Tick: tick, Time: w.time, Events: events}
		if err := w.tickLogger.WriteTick(entry); err != nil {
			w.logger.Printf("tick log write: tick=%d err=%v", tick, err)
		}
	}
	w.metrics.Store(WorldMetrics{
		Tick:             tick + 1,
		Clients:          w.clients.Len(),
		Entities:         w.ecs.Reg.Len(),
		LoadedChunks:     w.terrain.Len(),
		PendingChunks:    w.stream.PendingLen(),
		DispatchedChunks: w.stream.Dispatched(),
		FailedChunks:     w.stream.Failed(),
		StepMS:           float64(time.Since(start).Microseconds()) / 1000,
	})
	return events
}

// clearTransient drops the one-tick markers whether or not anything
// consumed them.
func (w *World) clearTransient() {
	w.ecs.ForceUpdate.Clear()
	w.ecs.Dying.Clear()
	w.ecs.Respawning.Clear()
	w.ecs.Animation.Each(func(_ ecs.Entity, a *comp.AnimationInfo) { a.Changed = false })
}
