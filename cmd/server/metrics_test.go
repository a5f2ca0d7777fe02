package main

import (
	"bytes"
	"strings"
	"testing"

	"skyvox.io/internal/sim/world"
)

func TestWriteWorldMetrics(t *testing.T) {
	var buf bytes.Buffer
	writeWorldMetrics(&buf, world.WorldMetrics{Tick: 42, Clients: 3, StepMS: 1.5})
	out := buf.String()
	for _, want := range []string{
		"# TYPE skyvox_tick gauge\nskyvox_tick 42\n",
		"skyvox_clients 3\n",
		"skyvox_step_ms 1.5\n",
		"# TYPE skyvox_failed_chunks_total counter\n",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
	buf.Reset()
	writeIndexMetrics(&buf, nil)
	writeCacheMetrics(&buf, nil)
	if buf.Len() != 0 {
		t.Fatalf("nil backends wrote %q", buf.String())
	}
}
