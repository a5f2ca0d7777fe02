package world

import (
	"skyvox.io/internal/protocol"
	"skyvox.io/internal/sim/comp"
)

// handleDeaths announces this tick's deaths. Client entities become Dead
// and wait for a respawn; others are deleted.
func (w *World) handleDeaths() []Event {
	var events []Event
	s := w.ecs
	for _, e := range s.Dying.Entities() {
		d, _ := s.Dying.Get(e)
		ev := Event{Kind: EventDeath, Uid: uint64(w.uidOf(e))}
		if d.Cause.Kind == comp.SourceAttack {
			ev.By = uint64(d.Cause.By)
		}
		if p, ok := s.Player.Get(e); ok {
			ev.Alias = p.Alias
			ev.Text = p.Alias + " died"
			if killer, ok := w.entityByUid(d.Cause.By); ok && d.Cause.Kind == comp.SourceAttack {
				if kp, ok := s.Player.Get(killer); ok {
					ev.Text = p.Alias + " was killed by " + kp.Alias
				} else if ka, ok := s.Actor.Get(killer); ok {
					ev.Text = p.Alias + " was killed by " + ka.Name
				}
			}
			w.clients.NotifyRegistered(protocol.Chat(ev.Text))
		}
		events = append(events, ev)

		if cl, ok := w.clients.Get(e); ok {
			s.Vel.Insert(e, comp.Vel{})
			s.ForceUpdate.Insert(e, comp.ForceUpdate{})
			cl.ForceState(protocol.StateDead)
		} else {
			w.deleteEntity(e)
		}
	}
	return events
}

func (w *World) handleRespawns() {
	s := w.ecs
	for _, e := range s.Respawning.Entities() {
		cl, ok := w.clients.Get(e)
		if !ok {
			continue
		}
		cl.AllowState(protocol.StateCharacter)
		s.Stats.Insert(e, comp.DefaultStats())
		if pos, ok := s.Pos.Get(e); ok {
			pos.V[2] += w.cfg.RespawnLift
		}
		s.Vel.Insert(e, comp.Vel{})
		s.ForceUpdate.Insert(e, comp.ForceUpdate{})
	}
}
