package world

// WorldMetrics is a thread-safe read-only view of key world runtime signals.
// It is updated from the tick goroutine and read from HTTP handlers/tests.
type WorldMetrics struct {
	Tick uint64 `json:"tick"`

	Clients  int `json:"clients"`
	Entities int `json:"entities"`

	LoadedChunks     int    `json:"loaded_chunks"`
	PendingChunks    int    `json:"pending_chunks"`
	DispatchedChunks uint64 `json:"dispatched_chunks"`
	FailedChunks     uint64 `json:"failed_chunks"`

	StepMS float64 `json:"step_ms"`
}

func (w *World) Metrics() WorldMetrics {
	if w == nil {
		return WorldMetrics{}
	}
	m, ok := w.metrics.Load().(WorldMetrics)
	if !ok {
		return WorldMetrics{}
	}
	return m
}
