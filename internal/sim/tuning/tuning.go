package tuning

import (
	"errors"
	"fmt"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"
)

type Tuning struct {
	TickRateHz     int     `yaml:"tick_rate_hz"`
	ClientTimeoutS float64 `yaml:"client_timeout_s"`

	MaxViewDistance uint32 `yaml:"max_view_distance"`
	WorkerPoolSize  int    `yaml:"worker_pool_size"`
	ChunkQueueSize  int    `yaml:"chunk_queue_size"`

	WorldSeed   int64      `yaml:"world_seed"`
	SpawnPoint  [3]float64 `yaml:"spawn_point"`
	RespawnLift float64    `yaml:"respawn_lift"`
	MaxChatLen  int        `yaml:"max_chat_len"`
}

func Defaults() Tuning {
	return Tuning{
		TickRateHz:      30,
		ClientTimeoutS:  20,
		MaxViewDistance: 12,
		WorkerPoolSize:  runtime.NumCPU(),
		ChunkQueueSize:  256,
		WorldSeed:       1337,
		SpawnPoint:      [3]float64{0, 0, 200},
		RespawnLift:     100,
		MaxChatLen:      256,
	}
}

// Load reads path over Defaults. A missing file yields the defaults.
func Load(path string) (Tuning, error) {
	t := Defaults()
	if path == "" {
		return t, nil
	}
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return t, nil
	}
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

func (t Tuning) Validate() error {
	switch {
	case t.TickRateHz <= 0 || t.TickRateHz > 1000:
		return fmt.Errorf("tick_rate_hz out of range: %d", t.TickRateHz)
	case t.ClientTimeoutS <= 0:
		return fmt.Errorf("client_timeout_s must be positive: %v", t.ClientTimeoutS)
	case t.WorkerPoolSize <= 0:
		return fmt.Errorf("worker_pool_size must be positive: %d", t.WorkerPoolSize)
	case t.ChunkQueueSize <= 0:
		return fmt.Errorf("chunk_queue_size must be positive: %d", t.ChunkQueueSize)
	case t.MaxViewDistance == 0:
		return fmt.Errorf("max_view_distance must be positive")
	case t.MaxChatLen <= 0:
		return fmt.Errorf("max_chat_len must be positive: %d", t.MaxChatLen)
	}
	return nil
}
