package world

import (
	"skyvox.io/internal/protocol"
	"skyvox.io/internal/sim/comp"
	"skyvox.io/internal/sim/ecs"
)

// syncedState is the comparable form of what EcsSync carries per entity.
type syncedState struct {
	hasActor  bool
	actor     comp.Actor
	hasPlayer bool
	alias     string
	hasStats  bool
	stats     comp.Stats
}

func (s syncedState) wire(uid comp.Uid) protocol.EntityState {
	out := protocol.EntityState{Uid: uint64(uid)}
	if s.hasActor {
		a := s.actor
		out.Actor = &a
	}
	if s.hasPlayer {
		out.Player = &protocol.SyncedPlayer{Alias: s.alias}
	}
	if s.hasStats {
		st := s.stats
		out.Stats = &st
	}
	return out
}

// syncTracker remembers what registered clients were last told so each
// tick only the differences go out.
type syncTracker struct {
	last    map[comp.Uid]syncedState
	removed []uint64
}

func newSyncTracker() *syncTracker {
	return &syncTracker{last: map[comp.Uid]syncedState{}}
}

func (t *syncTracker) deleted(uid comp.Uid) {
	delete(t.last, uid)
	t.removed = append(t.removed, uint64(uid))
}

func (w *World) syncedStateOf(e ecs.Entity) syncedState {
	var st syncedState
	if a, ok := w.ecs.Actor.Get(e); ok {
		st.hasActor, st.actor = true, *a
	}
	if p, ok := w.ecs.Player.Get(e); ok {
		st.hasPlayer, st.alias = true, p.Alias
	}
	if s, ok := w.ecs.Stats.Get(e); ok {
		st.hasStats, st.stats = true, *s
		// Age is local bookkeeping and would change every tick.
		st.stats.HP.LastChange.Time = 0
	}
	return st
}

// fullPackage is the complete synced state, sent on connect.
func (w *World) fullPackage() protocol.EcsPackage {
	var pkg protocol.EcsPackage
	for _, e := range w.ecs.Uid.Entities() {
		uid, _ := w.ecs.Uid.Get(e)
		pkg.Entities = append(pkg.Entities, w.syncedStateOf(e).wire(*uid))
	}
	return pkg
}

// deltaPackage returns what changed since the previous call.
func (w *World) deltaPackage() protocol.EcsPackage {
	t := w.sync
	pkg := protocol.EcsPackage{Deleted: t.removed}
	t.removed = nil
	for _, e := range w.ecs.Uid.Entities() {
		uid, _ := w.ecs.Uid.Get(e)
		cur := w.syncedStateOf(e)
		if prev, ok := t.last[*uid]; ok && prev == cur {
			continue
		}
		t.last[*uid] = cur
		pkg.Entities = append(pkg.Entities, cur.wire(*uid))
	}
	return pkg
}

// syncClients pushes the ECS delta to registered clients and entity
// physics and animation to in-game clients that can see them.
func (w *World) syncClients() {
	if pkg := w.deltaPackage(); !pkg.Empty() {
		w.clients.NotifyRegistered(protocol.EcsSync(pkg))
	}

	s := w.ecs
	snap := w.observers()
	s.Pos.Each(func(e ecs.Entity, pos *comp.Pos) {
		uid, ok := s.Uid.Get(e)
		if !ok {
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
		msg := protocol.EntityPhysics(uint64(*uid), pos.V, vel.Linear, ori.V)
		if s.ForceUpdate.Has(e) {
			w.clients.NotifyIngame(msg)
			return
		}
		target := pos.V
		w.clients.NotifyIngameIfExcept(e, msg, func(viewer ecs.Entity) bool { return snap.Sees(viewer, target) })
	})

	s.Animation.Each(func(e ecs.Entity, a *comp.AnimationInfo) {
		force := s.ForceUpdate.Has(e)
		if !a.Changed && !force {
			return
		}
		uid, ok := s.Uid.Get(e)
		if !ok {
			return
		}
		msg := protocol.EntityAnimation(uint64(*uid), *a)
		if force {
			w.clients.NotifyIngame(msg)
			return
		}
		pos, ok := s.Pos.Get(e)
		if !ok {
			return
		}
		target := pos.V
		w.clients.NotifyIngameIfExcept(e, msg, func(viewer ecs.Entity) bool { return snap.Sees(viewer, target) })
	})
}
