package world

import (
	"github.com/go-gl/mathgl/mgl64"
	"golang.org/x/text/unicode/norm"

	"skyvox.io/internal/protocol"
	"skyvox.io/internal/sim/comp"
	"skyvox.io/internal/sim/ecs"
	"skyvox.io/internal/sim/session"
	"skyvox.io/internal/sim/terrain"
)

type chatLine struct {
	from ecs.Entity
	// system lines have no sender.
	system bool
	text   string
}

// batch collects side effects that run after every client's messages.
type batch struct {
	chats     []chatLine
	requested []terrain.Key
}

// handleNewMessages processes each client's inbound messages in arrival
// order and disconnects failed, silent or leaving clients.
func (w *World) handleNewMessages() []Event {
	var (
		events []Event
		b      batch
	)
	timeout := w.cfg.ClientTimeout.Seconds()

	for _, e := range w.clients.Entities() {
		cl, ok := w.clients.Get(e)
		if !ok {
			continue
		}
		reason := ""
		if err := cl.Postbox.Err(); err != nil {
			reason = "transport error: " + err.Error()
		} else if msgs := cl.Postbox.NewMessages(); len(msgs) > 0 {
			cl.LastPing = w.time
			for _, msg := range msgs {
				if w.handleClientMsg(e, cl, msg, &b) {
					reason = "requested"
					break
				}
			}
		} else {
			switch cl.CheckLiveness(w.time, timeout) {
			case session.Expired:
				reason = "timeout"
			case session.Probe:
				cl.LastProbe = w.time
				cl.Notify(protocol.Ping())
			}
		}
		if reason != "" {
			events = append(events, w.disconnect(e, cl, reason))
		}
	}

	for _, line := range b.chats {
		events = append(events, w.handleChat(line))
	}
	for _, k := range b.requested {
		w.stream.Request(k)
	}
	return events
}

// handleClientMsg applies one message. It reports whether the client asked
// to leave.
func (w *World) handleClientMsg(e ecs.Entity, cl *session.Client, msg protocol.ClientMsg, b *batch) bool {
	if ok, rej := session.Gate(msg.Type, cl.State); !ok {
		cl.ErrorState(rej)
		return false
	}
	s := w.ecs
	switch msg.Type {
	case protocol.TypeRequestState:
		tr := session.RequestState(cl.State, msg.State)
		switch {
		case tr.Disconnect:
			return true
		case tr.Err != "":
			cl.ErrorState(tr.Err)
		default:
			cl.AllowState(tr.Next)
		}

	case protocol.TypeRegister:
		if msg.Player == nil {
			cl.ErrorState(protocol.ErrImpossible)
			return false
		}
		w.initializePlayer(e, cl, *msg.Player, b)

	case protocol.TypeSetViewDistance:
		if p, ok := s.Player.Get(e); ok {
			vd := min(msg.ViewDistance, w.cfg.MaxViewDistance)
			p.ViewDistance = &vd
		}

	case protocol.TypeCharacter:
		body := comp.DefaultBody()
		if msg.Body != nil {
			body = *msg.Body
		}
		w.insertCharacter(e, msg.Name, body, w.cfg.SpawnPoint)
		cl.AllowState(protocol.StateCharacter)

	case protocol.TypeAttack:
		if !s.Attacking.Has(e) {
			s.Attacking.Insert(e, comp.Attacking{})
		}

	case protocol.TypeRespawn:
		s.Respawning.Insert(e, comp.Respawning{})

	case protocol.TypeChat:
		text := norm.NFC.String(msg.Text)
		if len(text) <= w.cfg.MaxChatLen {
			b.chats = append(b.chats, chatLine{from: e, text: text})
		}

	case protocol.TypePlayerAnimation:
		if msg.Animation == nil {
			return false
		}
		info := *msg.Animation
		if prev, ok := s.Animation.Get(e); ok && prev.Animation != info.Animation {
			info.Changed = true
		}
		s.Animation.Insert(e, info)

	case protocol.TypePlayerPhysics:
		if msg.Pos == nil || msg.Vel == nil || msg.Ori == nil {
			return false
		}
		s.Pos.Insert(e, comp.Pos{V: *msg.Pos})
		if v, ok := s.Vel.Get(e); ok {
			v.Linear = *msg.Vel
		} else {
			s.Vel.Insert(e, comp.Vel{Linear: *msg.Vel})
		}
		s.Ori.Insert(e, comp.Ori{V: *msg.Ori})

	case protocol.TypePlayerInput:
		if msg.Input != nil {
			w.applyInput(e, *msg.Input)
		}

	case protocol.TypeTerrainChunkRequest:
		if msg.Key == nil {
			return false
		}
		k := terrain.Key{X: msg.Key[0], Y: msg.Key[1]}
		if ch, ok := w.terrain.Get(k); ok {
			cl.Notify(chunkUpdate(k, ch))
		} else {
			b.requested = append(b.requested, k)
		}

	case protocol.TypePing:
		cl.Notify(protocol.Pong())

	case protocol.TypePong:

	case protocol.TypeDisconnect:
		return true

	default:
		w.logger.Printf("unknown client message: session=%s type=%q", cl.Postbox.ID(), msg.Type)
	}
	return false
}

// initializePlayer registers the connection and catches it up on every
// entity's physics and animation.
func (w *World) initializePlayer(e ecs.Entity, cl *session.Client, info protocol.PlayerInfo, b *batch) {
	s := w.ecs
	p := comp.Player{Alias: info.Alias}
	if p.Alias == "" {
		p.Alias = "player"
	}
	if info.ViewDistance != nil {
		vd := min(*info.ViewDistance, w.cfg.MaxViewDistance)
		p.ViewDistance = &vd
	}
	s.Player.Insert(e, p)

	s.Pos.Each(func(o ecs.Entity, pos *comp.Pos) {
		vel, ok := s.Vel.Get(o)
		if !ok {
			return
		}
		ori, ok := s.Ori.Get(o)
		if !ok {
			return
		}
		cl.Notify(protocol.EntityPhysics(uint64(w.uidOf(o)), pos.V, vel.Linear, ori.V))
	})
	s.Animation.Each(func(o ecs.Entity, a *comp.AnimationInfo) {
		cl.Notify(protocol.EntityAnimation(uint64(w.uidOf(o)), *a))
	})

	cl.AllowState(protocol.StateRegistered)
	b.chats = append(b.chats, chatLine{system: true, text: p.Alias + " logged in"})
}

func (w *World) applyInput(e ecs.Entity, in protocol.InputState) {
	s := w.ecs
	dir := mgl64.Vec2{in.Move[0], in.Move[1]}
	if l := dir.Len(); l > 0 {
		if l > 1 {
			dir = dir.Mul(1 / l)
		}
		s.MoveIntent.Insert(e, comp.MoveIntent{Dir: dir})
	} else {
		s.MoveIntent.Remove(e)
	}
	onGround := s.OnGround.Has(e)
	if in.Jump && onGround {
		s.Jumping.Insert(e, comp.Jumping{})
	}
	if in.Roll && onGround && !s.Rolling.Has(e) {
		s.Rolling.Insert(e, comp.Rolling{})
	}
	if in.Glide && !onGround {
		s.Gliding.Insert(e, comp.Gliding{})
	} else {
		s.Gliding.Remove(e)
	}
}

func chunkUpdate(k terrain.Key, ch *terrain.Chunk) protocol.ServerMsg {
	return protocol.TerrainChunkUpdate(protocol.ChunkKey{k.X, k.Y}, protocol.ChunkPayload(ch.Payload()))
}
