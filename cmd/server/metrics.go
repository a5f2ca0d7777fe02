package main

import (
	"fmt"
	"io"

	"skyvox.io/internal/persistence/chunkcache"
	"skyvox.io/internal/persistence/indexdb"
	"skyvox.io/internal/sim/world"
)

func metric(w io.Writer, name, kind, help string, v any) {
	fmt.Fprintf(w, "# HELP %s %s\n", name, help)
	fmt.Fprintf(w, "# TYPE %s %s\n", name, kind)
	fmt.Fprintf(w, "%s %v\n", name, v)
}

func writeWorldMetrics(w io.Writer, m world.WorldMetrics) {
	metric(w, "skyvox_tick", "gauge", "Current world tick.", m.Tick)
	metric(w, "skyvox_clients", "gauge", "Connected clients.", m.Clients)
	metric(w, "skyvox_entities", "gauge", "Live entities.", m.Entities)
	metric(w, "skyvox_loaded_chunks", "gauge", "Terrain chunks resident in memory.", m.LoadedChunks)
	metric(w, "skyvox_pending_chunks", "gauge", "Chunk generation jobs in flight.", m.PendingChunks)
	metric(w, "skyvox_dispatched_chunks_total", "counter", "Chunk generation jobs dispatched.", m.DispatchedChunks)
	metric(w, "skyvox_failed_chunks_total", "counter", "Chunk generation jobs that failed.", m.FailedChunks)
	metric(w, "skyvox_step_ms", "gauge", "Duration of the last tick in milliseconds.", m.StepMS)
}

func writeIndexMetrics(w io.Writer, idx *indexdb.SQLiteIndex) {
	if idx == nil {
		return
	}
	s := idx.Stats()
	metric(w, "skyvox_index_queue_depth", "gauge", "Current index queue depth.", s.QueueDepth)
	metric(w, "skyvox_index_queue_capacity", "gauge", "Index queue capacity.", s.QueueCapacity)
	metric(w, "skyvox_index_written_total", "counter", "Tick entries written to the index.", s.Written)
	metric(w, "skyvox_index_dropped_total", "counter", "Tick entries dropped because the queue was full.", s.Dropped)
	metric(w, "skyvox_index_failures_total", "counter", "Index write failures.", s.Failures)
}

func writeCacheMetrics(w io.Writer, c *chunkcache.Cache) {
	if c == nil {
		return
	}
	metric(w, "skyvox_chunk_cache_hits_total", "counter", "Chunks served from the on-disk cache.", c.Hits())
	metric(w, "skyvox_chunk_cache_misses_total", "counter", "Chunks generated on cache miss.", c.Misses())
}
