package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_WritesDefaultsWhenMissing(t *testing.T) {
	p := filepath.Join(t.TempDir(), "server.toml")
	c, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c != Default() {
		t.Fatalf("got %+v want defaults", c)
	}
	if _, err := os.Stat(p); err != nil {
		t.Fatalf("defaults not written: %v", err)
	}
	again, err := Load(p)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if again != c {
		t.Fatalf("reload differs: %+v vs %+v", again, c)
	}
}

func TestLoad_PartialFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "server.toml")
	raw := "[server]\nname = \"test world\"\n\n[data]\nindex_db = false\n"
	if err := os.WriteFile(p, []byte(raw), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	c, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Server.Name != "test world" || c.Data.IndexDB {
		t.Fatalf("values not applied: %+v", c)
	}
	if c.Network.Address != ":8080" || !c.Data.ChunkCache {
		t.Fatalf("defaults lost: %+v", c)
	}
}
