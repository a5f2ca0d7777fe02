package indexdb

import (
	"path/filepath"
	"testing"

	"skyvox.io/internal/sim/tuning"
	"skyvox.io/internal/sim/world"
)

func TestSQLiteIndex_IndexesEvents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index", "world.sqlite")
	idx, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	_ = idx.WriteTick(world.TickLogEntry{Tick: 5, Time: 0.5, Events: []world.Event{
		{Kind: world.EventConnect, Uid: 1, Session: "a"},
		{Kind: world.EventConnect, Uid: 2, Session: "b"},
	}})
	_ = idx.WriteTick(world.TickLogEntry{Tick: 9, Time: 0.9, Events: []world.Event{
		{Kind: world.EventDeath, Uid: 2, By: 1, Alias: "bob"},
	}})
	if err := idx.UpsertTuning(tuning.Defaults()); err != nil {
		t.Fatalf("UpsertTuning: %v", err)
	}
	if err := idx.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if st := idx.Stats(); st.Written != 2 || st.Dropped != 0 {
		t.Fatalf("stats=%+v", st)
	}

	idx, err = OpenSQLite(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer idx.Close()
	if n, err := idx.CountEvents(world.EventConnect); err != nil || n != 2 {
		t.Fatalf("connects=%d err=%v", n, err)
	}
	evs, err := idx.EventsFor(1)
	if err != nil {
		t.Fatalf("EventsFor: %v", err)
	}
	if len(evs) != 2 || evs[1].Kind != world.EventDeath || evs[1].By != 1 || evs[1].Alias != "bob" {
		t.Fatalf("events=%+v", evs)
	}
	if d, err := idx.Meta("tuning_digest"); err != nil || len(d) != 64 {
		t.Fatalf("digest=%q err=%v", d, err)
	}
}

func TestSQLiteIndex_QueueDropStats(t *testing.T) {
	s := &SQLiteIndex{ch: make(chan world.TickLogEntry, 1)}
	_ = s.WriteTick(world.TickLogEntry{Tick: 1})
	_ = s.WriteTick(world.TickLogEntry{Tick: 2})

	st := s.Stats()
	if st.Dropped != 1 {
		t.Fatalf("Dropped=%d want=1", st.Dropped)
	}
	if st.QueueDepth != 1 || st.QueueCapacity != 1 {
		t.Fatalf("queue stats mismatch: depth=%d cap=%d", st.QueueDepth, st.QueueCapacity)
	}
}
