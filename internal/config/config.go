// Package config loads the server.toml process configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml"
)

type Config struct {
	Server struct {
		Name        string `toml:"name" default:"skyvox"`
		Description string `toml:"description" default:"A skyvox world server"`
	} `toml:"server"`
	Network struct {
		Address string `toml:"address" default:":8080"`
	} `toml:"network"`
	Data struct {
		Dir        string `toml:"dir" default:"data"`
		ChunkCache bool   `toml:"chunk_cache" default:"true"`
		IndexDB    bool   `toml:"index_db" default:"true"`
		EventLog   bool   `toml:"event_log" default:"true"`
	} `toml:"data"`
}

func Default() Config {
	var c Config
	c.Server.Name = "skyvox"
	c.Server.Description = "A skyvox world server"
	c.Network.Address = ":8080"
	c.Data.Dir = "data"
	c.Data.ChunkCache = true
	c.Data.IndexDB = true
	c.Data.EventLog = true
	return c
}

func (c *Config) applyDefaults() {
	d := Default()
	if c.Server.Name == "" {
		c.Server.Name = d.Server.Name
	}
	if c.Network.Address == "" {
		c.Network.Address = d.Network.Address
	}
	if c.Data.Dir == "" {
		c.Data.Dir = d.Data.Dir
	}
}

// Load reads path. When the file does not exist the defaults are written
// there and returned.
func Load(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		c := Default()
		if err := Write(path, c); err != nil {
			return c, err
		}
		return c, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	c := Default()
	if err := toml.Unmarshal(raw, &c); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	c.applyDefaults()
	return c, nil
}

func Write(path string, c Config) error {
	b, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
