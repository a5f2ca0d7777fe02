package log

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"skyvox.io/internal/sim/world"
)

func TestTickLogger_RoundTripAndRotation(t *testing.T) {
	dir := t.TempDir()
	l := NewTickLogger(dir)
	clock := time.Date(2026, 3, 1, 10, 59, 0, 0, time.UTC)
	l.w.now = func() time.Time { return clock }

	first := world.TickLogEntry{Tick: 1, Time: 0.1, Events: []world.Event{{Kind: world.EventConnect, Uid: 1, Session: "s1"}}}
	second := world.TickLogEntry{Tick: 2, Time: 0.2, Events: []world.Event{{Kind: world.EventChat, Uid: 1, Text: "hi"}}}
	if err := l.WriteTick(first); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := l.WriteTick(second); err != nil {
		t.Fatalf("write: %v", err)
	}
	clock = clock.Add(2 * time.Minute)
	third := world.TickLogEntry{Tick: 3, Events: []world.Event{{Kind: world.EventDisconnect, Uid: 1, Reason: "timeout"}}}
	if err := l.WriteTick(third); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	got, err := ReadAll(filepath.Join(dir, "events", "events-2026-03-01-10.jsonl.zst"))
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(got) != 2 || got[1].Events[0].Text != "hi" {
		t.Fatalf("hour 10 entries=%+v", got)
	}
	got, err = ReadAll(filepath.Join(dir, "events", "events-2026-03-01-11.jsonl.zst"))
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(got) != 1 || got[0].Events[0].Reason != "timeout" {
		t.Fatalf("hour 11 entries=%+v", got)
	}
	entries, _ := os.ReadDir(filepath.Join(dir, "events"))
	if len(entries) != 2 {
		t.Fatalf("files=%d want 2", len(entries))
	}
}
