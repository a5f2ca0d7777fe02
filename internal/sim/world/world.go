package world

import (
	"context"
	"errors"
	"log"
	"sync/atomic"
	"time"

	"github.com/brentp/intintmap"
	"github.com/go-gl/mathgl/mgl64"

	"skyvox.io/internal/protocol"
	"skyvox.io/internal/sim/comp"
	"skyvox.io/internal/sim/ecs"
	"skyvox.io/internal/sim/session"
	"skyvox.io/internal/sim/stream"
	"skyvox.io/internal/sim/terrain"
	"skyvox.io/internal/sim/tuning"
)

type WorldConfig struct {
	Name        string
	Description string

	TickRateHz      int
	ClientTimeout   time.Duration
	MaxViewDistance uint32
	MaxChatLen      int
	SpawnPoint      mgl64.Vec3
	RespawnLift     float64

	Workers    int
	ChunkQueue int
	Generator  stream.Generator
}

// ConfigFromTuning fills the simulation knobs of a WorldConfig.
func ConfigFromTuning(t tuning.Tuning) WorldConfig {
	return WorldConfig{
		TickRateHz:      t.TickRateHz,
		ClientTimeout:   time.Duration(t.ClientTimeoutS * float64(time.Second)),
		MaxViewDistance: t.MaxViewDistance,
		MaxChatLen:      t.MaxChatLen,
		SpawnPoint:      mgl64.Vec3(t.SpawnPoint),
		RespawnLift:     t.RespawnLift,
		Workers:         t.WorkerPoolSize,
		ChunkQueue:      t.ChunkQueueSize,
	}
}

func (c *WorldConfig) applyDefaults() {
	d := ConfigFromTuning(tuning.Defaults())
	if c.TickRateHz <= 0 {
		c.TickRateHz = d.TickRateHz
	}
	if c.ClientTimeout <= 0 {
		c.ClientTimeout = d.ClientTimeout
	}
	if c.MaxChatLen <= 0 {
		c.MaxChatLen = d.MaxChatLen
	}
	if c.MaxViewDistance == 0 {
		c.MaxViewDistance = d.MaxViewDistance
	}
	if c.Name == "" {
		c.Name = "skyvox"
	}
}

type TickLogger interface {
	WriteTick(entry TickLogEntry) error
}

// World is the single-threaded authoritative simulation. Everything except
// Connect, Metrics and Run's channel plumbing must be used from the tick
// goroutine.
type World struct {
	cfg    WorldConfig
	logger *log.Logger

	ecs     *comp.Storage
	uids    *intintmap.Map
	nextUid comp.Uid
	sync    *syncTracker

	terrain *terrain.Map
	stream  *stream.Manager
	clients *session.Clients

	// time is the simulated seconds since start.
	time float64
	tick atomic.Uint64

	connect chan session.Postbox

	tickLogger TickLogger
	metrics    atomic.Value
	closed     bool
}

func New(cfg WorldConfig, logger *log.Logger) (*World, error) {
	if cfg.Generator == nil {
		return nil, errors.New("world: nil chunk generator")
	}
	cfg.applyDefaults()
	if logger == nil {
		logger = log.New(log.Writer(), "[world] ", log.LstdFlags|log.Lmicroseconds)
	}
	w := &World{
		cfg:     cfg,
		logger:  logger,
		ecs:     comp.NewStorage(),
		uids:    intintmap.New(1024, 0.6),
		nextUid: 1,
		sync:    newSyncTracker(),
		terrain: terrain.NewMap(),
		stream: stream.New(cfg.Generator, stream.Config{
			Workers:   cfg.Workers,
			QueueSize: cfg.ChunkQueue,
			Logger:    logger,
		}),
		clients: session.NewClients(),
		connect: make(chan session.Postbox, 64),
	}
	w.metrics.Store(WorldMetrics{})
	return w, nil
}

func (w *World) SetTickLogger(l TickLogger) { w.tickLogger = l }

// Connect returns the channel new connections are handed over on. It is
// safe to use from any goroutine.
func (w *World) Connect() chan<- session.Postbox { return w.connect }

func (w *World) Info() protocol.ServerInfo {
	return protocol.ServerInfo{Name: w.cfg.Name, Description: w.cfg.Description}
}

func (w *World) TickRateHz() int { return w.cfg.TickRateHz }

func (w *World) CurrentTick() uint64 { return w.tick.Load() }

// Run ticks at the configured rate until ctx is done, then closes the world.
func (w *World) Run(ctx context.Context) error {
	interval := time.Second / time.Duration(w.cfg.TickRateHz)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	defer w.Close()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.Tick(interval)
		}
	}
}

// Close tells registered clients the server is going away and stops the
// chunk workers.
func (w *World) Close() {
	if w.closed {
		return
	}
	w.closed = true
	w.clients.NotifyRegistered(protocol.Shutdown())
	for _, e := range w.clients.Entities() {
		if cl, ok := w.clients.Remove(e); ok {
			cl.Postbox.Close()
		}
	}
	w.stream.Close()
	w.logger.Printf("world closed at tick %d", w.tick.Load())
}

func (w *World) createEntity() (ecs.Entity, comp.Uid) {
	e := w.ecs.Reg.Create()
	uid := w.nextUid
	w.nextUid++
	w.ecs.Uid.Insert(e, uid)
	w.uids.Put(int64(uid), e.Pack())
	return e, uid
}

func (w *World) deleteEntity(e ecs.Entity) {
	if uid, ok := w.ecs.Uid.Get(e); ok {
		w.uids.Del(int64(*uid))
		w.sync.deleted(*uid)
	}
	w.ecs.Reg.Delete(e)
}

func (w *World) entityByUid(uid comp.Uid) (ecs.Entity, bool) {
	v, ok := w.uids.Get(int64(uid))
	if !ok {
		return ecs.Entity{}, false
	}
	e := ecs.Unpack(v)
	return e, w.ecs.Reg.Alive(e)
}

func (w *World) uidOf(e ecs.Entity) comp.Uid {
	if uid, ok := w.ecs.Uid.Get(e); ok {
		return *uid
	}
	return 0
}

// insertCharacter writes the full gameplay attribute set of a character.
func (w *World) insertCharacter(e ecs.Entity, name string, body comp.Body, pos mgl64.Vec3) {
	s := w.ecs
	s.Actor.Insert(e, comp.Actor{Name: name, Body: body})
	s.Stats.Insert(e, comp.DefaultStats())
	s.Animation.Insert(e, comp.AnimationInfo{Animation: comp.AnimIdle, Changed: true})
	s.Pos.Insert(e, comp.Pos{V: pos})
	s.Vel.Insert(e, comp.Vel{})
	s.Ori.Insert(e, comp.Ori{V: mgl64.Vec3{0, 1, 0}})
	s.ForceUpdate.Insert(e, comp.ForceUpdate{})
}

// CreateNPC spawns a character without a client. It is deleted on death.
func (w *World) CreateNPC(name string, body comp.Body, pos mgl64.Vec3) comp.Uid {
	e, uid := w.createEntity()
	w.insertCharacter(e, name, body, pos)
	return uid
}

// Chunk exposes a loaded chunk (tests, tools).
func (w *World) Chunk(k terrain.Key) (*terrain.Chunk, bool) { return w.terrain.Get(k) }
