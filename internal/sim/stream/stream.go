// Package stream generates chunks on a bounded worker pool and hands them
// back to the tick loop one per tick.
package stream

import (
	"fmt"
	"log"
	"runtime"
	"sync"
	"sync/atomic"

	"skyvox.io/internal/sim/terrain"
)

// Generator produces the chunk at key. It must be a pure function of its
// own immutable configuration and key; it runs on worker goroutines.
type Generator interface {
	GenerateChunk(key terrain.Key) *terrain.Chunk
}

type Config struct {
	Workers   int
	QueueSize int
	Logger    *log.Logger
}

// Result is one finished generation. Chunk is nil when generation failed.
type Result struct {
	Key   terrain.Key
	Chunk *terrain.Chunk
	Err   error
}

// Manager is owned by the tick loop: Request, Drain and Evict must be
// called from one goroutine. Workers only see keys and return results.
type Manager struct {
	gen    Generator
	logger *log.Logger

	jobs    chan terrain.Key
	results chan Result
	stop    chan struct{}
	wg      sync.WaitGroup
	once    sync.Once

	pending map[terrain.Key]struct{}
	// backlog holds pending keys not yet accepted by the job queue.
	backlog []terrain.Key

	dispatched atomic.Uint64
	failed     atomic.Uint64
}

func New(gen Generator, cfg Config) *Manager {
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	m := &Manager{
		gen:     gen,
		logger:  cfg.Logger,
		jobs:    make(chan terrain.Key, cfg.QueueSize),
		results: make(chan Result, cfg.QueueSize),
		stop:    make(chan struct{}),
		pending: map[terrain.Key]struct{}{},
	}
	for i := 0; i < cfg.Workers; i++ {
		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			m.worker()
		}()
	}
	return m
}

func (m *Manager) worker() {
	for {
		select {
		case <-m.stop:
			return
		case key := <-m.jobs:
			res := m.generate(key)
			select {
			case m.results <- res:
			case <-m.stop:
				return
			}
		}
	}
}

func (m *Manager) generate(key terrain.Key) (res Result) {
	res.Key = key
	defer func() {
		if r := recover(); r != nil {
			m.failed.Add(1)
			res.Chunk = nil
			res.Err = fmt.Errorf("generate chunk %v: %v", key, r)
			if m.logger != nil {
				m.logger.Printf("chunk generation panic: key=%v err=%v", key, r)
			}
		}
	}()
	res.Chunk = m.gen.GenerateChunk(key)
	if res.Chunk == nil {
		res.Err = fmt.Errorf("generate chunk %v: nil chunk", key)
	}
	return res
}

// Request marks key pending and queues its generation. It reports false
// when the key is already pending. It never blocks.
func (m *Manager) Request(key terrain.Key) bool {
	if _, ok := m.pending[key]; ok {
		return false
	}
	m.pending[key] = struct{}{}
	m.backlog = append(m.backlog, key)
	m.flush()
	return true
}

func (m *Manager) flush() {
	for len(m.backlog) > 0 {
		select {
		case m.jobs <- m.backlog[0]:
			m.dispatched.Add(1)
			m.backlog = m.backlog[1:]
		default:
			return
		}
	}
}

func (m *Manager) Pending(key terrain.Key) bool {
	_, ok := m.pending[key]
	return ok
}

func (m *Manager) PendingLen() int     { return len(m.pending) }
func (m *Manager) Dispatched() uint64 { return m.dispatched.Load() }
func (m *Manager) Failed() uint64     { return m.failed.Load() }

// Drain takes at most one finished result without blocking, releases its
// key and inserts a successful chunk into dst.
func (m *Manager) Drain(dst *terrain.Map) (Result, bool) {
	m.flush()
	select {
	case res := <-m.results:
		delete(m.pending, res.Key)
		if res.Chunk != nil {
			dst.Insert(res.Key, res.Chunk)
		}
		return res, true
	default:
		return Result{}, false
	}
}

// Evict removes every loaded chunk for which keep returns false. In-flight
// generations are not cancelled.
func (m *Manager) Evict(dst *terrain.Map, keep func(terrain.Key) bool) []terrain.Key {
	var removed []terrain.Key
	for _, k := range dst.Keys() {
		if !keep(k) {
			dst.Remove(k)
			removed = append(removed, k)
		}
	}
	return removed
}

// Close stops the workers. Unfinished requests are dropped.
func (m *Manager) Close() {
	m.once.Do(func() {
		close(m.stop)
		m.wg.Wait()
	})
}
