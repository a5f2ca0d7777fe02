package world

import (
	"skyvox.io/internal/protocol"
	"skyvox.io/internal/sim/ecs"
	"skyvox.io/internal/sim/session"
)

// handleNewConnections gives each waiting postbox a bare entity and the
// initial sync.
func (w *World) handleNewConnections() []Event {
	var events []Event
	for {
		select {
		case pb := <-w.connect:
			e, uid := w.createEntity()
			cl := &session.Client{
				State:     protocol.StateConnected,
				Postbox:   pb,
				LastPing:  w.time,
				LastProbe: w.time,
			}
			w.clients.Add(e, cl)
			cl.Notify(protocol.InitialSync(w.fullPackage(), uint64(uid), w.Info()))
			w.logger.Printf("client connected: session=%s uid=%d", pb.ID(), uid)
			events = append(events, Event{Kind: EventConnect, Uid: uint64(uid), Session: pb.ID()})
		default:
			return events
		}
	}
}

// disconnect tears down a client and its entity.
func (w *World) disconnect(e ecs.Entity, cl *session.Client, reason string) Event {
	ev := Event{Kind: EventDisconnect, Uid: uint64(w.uidOf(e)), Session: cl.Postbox.ID(), Reason: reason}
	w.clients.Remove(e)
	cl.Postbox.Send(protocol.Disconnect())
	cl.Postbox.Close()
	if p, ok := w.ecs.Player.Get(e); ok {
		ev.Alias = p.Alias
		w.clients.NotifyRegistered(protocol.Chat(p.Alias + " disconnected"))
	}
	w.deleteEntity(e)
	w.logger.Printf("client disconnected: session=%s uid=%d reason=%s", ev.Session, ev.Uid, reason)
	return ev
}
