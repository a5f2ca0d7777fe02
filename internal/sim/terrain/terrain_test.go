package terrain

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func flatChunk(t *testing.T, h uint16) *Chunk {
	t.Helper()
	heights := make([]uint16, ChunkSize*ChunkSize)
	blocks := make([]uint16, ChunkSize*ChunkSize)
	for i := range heights {
		heights[i] = h
		blocks[i] = 1
	}
	c, err := NewChunk(heights, blocks)
	if err != nil {
		t.Fatalf("NewChunk: %v", err)
	}
	return c
}

func TestKeys_NegativeFloor(t *testing.T) {
	if k := PosKey(mgl64.Vec3{-0.5, 31.9, 0}); k != (Key{X: -1, Y: 0}) {
		t.Fatalf("PosKey=%v", k)
	}
	if k := VoxelKey(-33, 64); k != (Key{X: -2, Y: 2}) {
		t.Fatalf("VoxelKey=%v", k)
	}
	if d := Distance(Key{X: 0, Y: 0}, Key{X: -5, Y: 3}); d != 5 {
		t.Fatalf("Distance=%d want 5", d)
	}
}

func TestMap_Sample(t *testing.T) {
	m := NewMap()
	m.Insert(Key{X: -1, Y: 0}, flatChunk(t, 10))
	if solid, ok := m.Sample(-1, 5, 9); !ok || !solid {
		t.Fatalf("expected solid below height: solid=%v ok=%v", solid, ok)
	}
	if solid, ok := m.Sample(-1, 5, 10); !ok || solid {
		t.Fatalf("expected air at height: solid=%v ok=%v", solid, ok)
	}
	if _, ok := m.Sample(0, 0, 0); ok {
		t.Fatalf("unloaded chunk should report !ok")
	}
}

func TestPayload_DigestChecked(t *testing.T) {
	c := flatChunk(t, 12)
	p := c.Payload()
	back, err := DecodePayload(p)
	if err != nil {
		t.Fatalf("DecodePayload: %v", err)
	}
	if back.Digest() != c.Digest() || back.Height(3, 4) != 12 {
		t.Fatalf("decoded chunk differs")
	}
	p.Digest = "0000000000000000"
	if _, err := DecodePayload(p); err == nil {
		t.Fatalf("expected digest mismatch")
	}
}
