package world

import (
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"skyvox.io/internal/protocol"
	"skyvox.io/internal/sim/comp"
	"skyvox.io/internal/sim/terrain"
)

func TestChat_BroadcastAndCommands(t *testing.T) {
	w := newTestWorld(t)
	a, _, eA := joinCharacter(t, w, "alice", 4)
	b, _, _ := joinCharacter(t, w, "bob", 4)
	a.take()
	b.take()

	a.push(
		protocol.ClientMsg{Type: protocol.TypeChat, Text: "hello"},
		protocol.ClientMsg{Type: protocol.TypeChat, Text: "/bogus arg"},
	)
	events := w.Tick(testDT)
	am, bm := a.take(), b.take()
	if !hasChat(am, "[alice] hello") || !hasChat(bm, "[alice] hello") {
		t.Fatalf("broadcast missing")
	}
	unknown := "Unrecognised command: '/bogus'\ntype '/help' for a list of available commands"
	if !hasChat(am, unknown) || hasChat(bm, unknown) {
		t.Fatalf("unknown command notice should reach only the requester")
	}
	chats := 0
	for _, ev := range events {
		if ev.Kind == EventChat {
			chats++
		}
	}
	if chats != 2 {
		t.Fatalf("chat events=%d want 2", chats)
	}

	a.push(protocol.ClientMsg{Type: protocol.TypeChat, Text: "/goto 100 200 300"})
	w.Tick(testDT)
	pos, _ := w.ecs.Pos.Get(eA)
	if pos.V[0] != 100 || pos.V[1] != 200 {
		t.Fatalf("goto ignored: %v", pos.V)
	}

	a.push(protocol.ClientMsg{Type: protocol.TypeChat, Text: "/alias ally"})
	w.Tick(testDT)
	if p, _ := w.ecs.Player.Get(eA); p.Alias != "ally" {
		t.Fatalf("alias=%q", p.Alias)
	}

	a.take()
	a.push(protocol.ClientMsg{Type: protocol.TypeChat, Text: "/tp nobody"})
	w.Tick(testDT)
	if !hasChat(a.take(), "Player 'nobody' not found!") {
		t.Fatalf("tp to unknown player not reported")
	}
}

func TestChat_TooLongDropped(t *testing.T) {
	w := newTestWorld(t)
	a, _, _ := joinCharacter(t, w, "alice", 4)
	a.take()
	long := make([]byte, 300)
	for i := range long {
		long[i] = 'x'
	}
	a.push(protocol.ClientMsg{Type: protocol.TypeChat, Text: string(long)})
	w.Tick(testDT)
	if len(ofType(a.take(), protocol.TypeChat)) != 0 {
		t.Fatalf("oversized chat delivered")
	}
}

func TestDeathAndRespawn(t *testing.T) {
	w := newTestWorld(t)
	a, _, eA := joinCharacter(t, w, "alice", 4)
	a.take()

	a.push(protocol.ClientMsg{Type: protocol.TypeChat, Text: "/kill"})
	events := w.Tick(testDT)
	msgs := a.take()
	if !hasChat(msgs, "alice died") {
		t.Fatalf("death not announced")
	}
	forced := ofType(msgs, protocol.TypeForceState)
	if len(forced) != 1 || forced[0].State != protocol.StateDead {
		t.Fatalf("force state=%+v", forced)
	}
	sawDeath := false
	for _, ev := range events {
		sawDeath = sawDeath || ev.Kind == EventDeath
	}
	if !sawDeath {
		t.Fatalf("no death event")
	}
	if w.ecs.Dying.Has(eA) {
		t.Fatalf("dying marker survived the tick")
	}

	a.push(protocol.ClientMsg{Type: protocol.TypeAttack})
	w.Tick(testDT)
	if ans := ofType(a.take(), protocol.TypeStateAnswer); len(ans) != 1 || ans[0].Error != protocol.ErrImpossible {
		t.Fatalf("dead attack answers=%+v", ans)
	}

	before, _ := w.ecs.Pos.Get(eA)
	z := before.V[2]
	a.push(protocol.ClientMsg{Type: protocol.TypeRespawn})
	w.Tick(testDT)
	answers := ofType(a.take(), protocol.TypeStateAnswer)
	if len(answers) != 1 || answers[0].State != protocol.StateCharacter {
		t.Fatalf("respawn answers=%+v", answers)
	}
	after, _ := w.ecs.Pos.Get(eA)
	if after.V[2] != z+100 {
		t.Fatalf("z=%v want %v", after.V[2], z+100)
	}
	st, _ := w.ecs.Stats.Get(eA)
	if st.IsDead || st.HP.Current != comp.DefaultHealth {
		t.Fatalf("stats not reset: %+v", st)
	}
}

func TestCombat_NPCKilledAndDeleted(t *testing.T) {
	w := newTestWorld(t)
	a, uidA, eA := joinCharacter(t, w, "alice", 4)
	posA, _ := w.ecs.Pos.Get(eA)
	npc := w.CreateNPC("wolf", comp.Body{Kind: "quadruped"}, posA.V.Add(mgl64.Vec3{0, 5, 0}))
	eN, _ := w.entityByUid(npc)
	st, _ := w.ecs.Stats.Get(eN)
	st.HP.Current = 10
	a.take()

	a.push(protocol.ClientMsg{Type: protocol.TypeAttack})
	events := w.Tick(testDT)
	if w.ecs.Reg.Alive(eN) {
		t.Fatalf("npc survived")
	}
	var death *Event
	for i := range events {
		if events[i].Kind == EventDeath {
			death = &events[i]
		}
	}
	if death == nil || death.Uid != uint64(npc) || death.By != uint64(uidA) {
		t.Fatalf("death event=%+v", death)
	}
	deleted := false
	for _, m := range ofType(a.take(), protocol.TypeEcsSync) {
		for _, d := range m.Sync.Deleted {
			deleted = deleted || d == uint64(npc)
		}
	}
	if !deleted {
		t.Fatalf("deletion not synced")
	}
}

func TestChunks_RequestDeliverEvict(t *testing.T) {
	w := newTestWorld(t)
	a, _, _ := joinCharacter(t, w, "alice", 2)
	k := terrain.Key{X: 1, Y: 0}
	a.push(protocol.ClientMsg{Type: protocol.TypeTerrainChunkRequest, Key: &protocol.ChunkKey{1, 0}})
	w.Tick(testDT)

	var updates []protocol.ServerMsg
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		updates = append(updates, ofType(a.take(), protocol.TypeTerrainChunkUpdate)...)
		if _, ok := w.Chunk(k); ok {
			break
		}
		time.Sleep(2 * time.Millisecond)
		w.Tick(testDT)
	}
	updates = append(updates, ofType(a.take(), protocol.TypeTerrainChunkUpdate)...)
	if _, ok := w.Chunk(k); !ok {
		t.Fatalf("chunk never loaded")
	}
	if len(updates) != 1 || *updates[0].Key != (protocol.ChunkKey{1, 0}) {
		t.Fatalf("updates=%+v", updates)
	}

	a.push(protocol.ClientMsg{Type: protocol.TypeTerrainChunkRequest, Key: &protocol.ChunkKey{1, 0}})
	w.Tick(testDT)
	if n := len(ofType(a.take(), protocol.TypeTerrainChunkUpdate)); n != 1 {
		t.Fatalf("loaded chunk not answered directly: %d", n)
	}

	a.push(protocol.ClientMsg{Type: protocol.TypeChat, Text: "/goto 5000 0 200"})
	w.Tick(testDT)
	if _, ok := w.Chunk(k); ok {
		t.Fatalf("chunk out of every view not evicted")
	}
}

func TestClose_NotifiesShutdown(t *testing.T) {
	w := newTestWorld(t)
	a, _, _ := joinCharacter(t, w, "alice", 2)
	a.take()
	w.Close()
	if len(ofType(a.take(), protocol.TypeShutdown)) != 1 || !a.closed {
		t.Fatalf("shutdown not delivered")
	}
	w.Close()
}

type recordingLogger struct{ entries []TickLogEntry }

func (r *recordingLogger) WriteTick(e TickLogEntry) error {
	r.entries = append(r.entries, e)
	return nil
}

func TestTickLogger_OnlyNonEmptyTicks(t *testing.T) {
	w := newTestWorld(t)
	rec := &recordingLogger{}
	w.SetTickLogger(rec)
	w.Tick(testDT)
	connect(t, w)
	if len(rec.entries) != 1 || rec.entries[0].Events[0].Kind != EventConnect {
		t.Fatalf("entries=%+v", rec.entries)
	}
	if m := w.Metrics(); m.Tick != 2 || m.Clients != 1 {
		t.Fatalf("metrics=%+v", m)
	}
}
