package world

import (
	"fmt"
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"skyvox.io/internal/protocol"
	"skyvox.io/internal/sim/comp"
	"skyvox.io/internal/sim/ecs"
	"skyvox.io/internal/sim/terrain"
)

const testDT = time.Second / 30

type testPostbox struct {
	id string

	mu     sync.Mutex
	inbox  []protocol.ClientMsg
	sent   []protocol.ServerMsg
	err    error
	closed bool
}

func (p *testPostbox) ID() string { return p.id }

func (p *testPostbox) Send(m protocol.ServerMsg) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, m)
}

func (p *testPostbox) NewMessages() []protocol.ClientMsg {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := p.inbox
	p.inbox = nil
	return out
}

func (p *testPostbox) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

func (p *testPostbox) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
}

func (p *testPostbox) push(msgs ...protocol.ClientMsg) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.inbox = append(p.inbox, msgs...)
}

// take returns and forgets everything sent so far.
func (p *testPostbox) take() []protocol.ServerMsg {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := p.sent
	p.sent = nil
	return out
}

func ofType(msgs []protocol.ServerMsg, typ string) []protocol.ServerMsg {
	var out []protocol.ServerMsg
	for _, m := range msgs {
		if m.Type == typ {
			out = append(out, m)
		}
	}
	return out
}

func physicsFor(msgs []protocol.ServerMsg, uid comp.Uid) int {
	n := 0
	for _, m := range ofType(msgs, protocol.TypeEntityPhysics) {
		if m.Entity == uint64(uid) {
			n++
		}
	}
	return n
}

func hasChat(msgs []protocol.ServerMsg, text string) bool {
	for _, m := range ofType(msgs, protocol.TypeChat) {
		if m.Text == text {
			return true
		}
	}
	return false
}

type flatGen struct{ height uint16 }

func (g flatGen) GenerateChunk(terrain.Key) *terrain.Chunk {
	n := terrain.ChunkSize * terrain.ChunkSize
	h := make([]uint16, n)
	for i := range h {
		h[i] = g.height
	}
	c, err := terrain.NewChunk(h, make([]uint16, n))
	if err != nil {
		panic(err)
	}
	return c
}

func newTestWorld(t *testing.T) *World {
	t.Helper()
	w, err := New(WorldConfig{
		Name:            "test",
		TickRateHz:      30,
		ClientTimeout:   20 * time.Second,
		MaxViewDistance: 12,
		MaxChatLen:      256,
		SpawnPoint:      mgl64.Vec3{0, 0, 200},
		RespawnLift:     100,
		Workers:         2,
		ChunkQueue:      16,
		Generator:       flatGen{height: 10},
	}, log.New(io.Discard, "", 0))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(w.Close)
	return w
}

var sessionSeq int

func connect(t *testing.T, w *World) (*testPostbox, comp.Uid) {
	t.Helper()
	sessionSeq++
	pb := &testPostbox{id: fmt.Sprintf("s%d", sessionSeq)}
	w.Connect() <- pb
	w.Tick(testDT)
	syncs := ofType(pb.take(), protocol.TypeInitialSync)
	if len(syncs) != 1 {
		t.Fatalf("expected one INITIAL_SYNC, got %d", len(syncs))
	}
	return pb, comp.Uid(syncs[0].EntityUid)
}

func vd(n uint32) *uint32 { return &n }

// joinCharacter connects, registers and creates a character.
func joinCharacter(t *testing.T, w *World, alias string, viewDistance uint32) (*testPostbox, comp.Uid, ecs.Entity) {
	t.Helper()
	pb, uid := connect(t, w)
	pb.push(
		protocol.ClientMsg{Type: protocol.TypeRegister, Player: &protocol.PlayerInfo{Alias: alias, ViewDistance: vd(viewDistance)}},
		protocol.ClientMsg{Type: protocol.TypeCharacter, Name: alias, Body: &comp.Body{Kind: "humanoid"}},
	)
	w.Tick(testDT)
	e, ok := w.entityByUid(uid)
	if !ok {
		t.Fatalf("entity for uid %d missing", uid)
	}
	if cl, _ := w.clients.Get(e); cl.State != protocol.StateCharacter {
		t.Fatalf("state=%s want CHARACTER", cl.State)
	}
	return pb, uid, e
}
