// Package terrain holds loaded chunks and answers voxel solidity queries.
package terrain

import (
	"encoding/binary"
	"fmt"
	"math"
	"sort"

	"github.com/cespare/xxhash/v2"
	"github.com/go-gl/mathgl/mgl64"

	"skyvox.io/internal/sim/encoding"
)

// ChunkSize is the horizontal width of a chunk in voxels.
const ChunkSize = 32

const columns = ChunkSize * ChunkSize

type Key struct {
	X int32 `json:"x"`
	Y int32 `json:"y"`
}

func (k Key) String() string { return fmt.Sprintf("(%d,%d)", k.X, k.Y) }

func floorDiv(a, b int) int {
	q := a / b
	if a%b < 0 {
		q--
	}
	return q
}

func mod(a, b int) int {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}

// VoxelKey returns the key of the chunk containing voxel column (x, y).
func VoxelKey(x, y int) Key {
	return Key{X: int32(floorDiv(x, ChunkSize)), Y: int32(floorDiv(y, ChunkSize))}
}

// PosKey returns the key of the chunk containing world position p.
func PosKey(p mgl64.Vec3) Key {
	return VoxelKey(int(math.Floor(p[0])), int(math.Floor(p[1])))
}

// Distance is the Chebyshev distance between two chunk keys.
func Distance(a, b Key) uint32 {
	dx := int64(a.X) - int64(b.X)
	dy := int64(a.Y) - int64(b.Y)
	if dx < 0 {
		dx = -dx
	}
	if dy < 0 {
		dy = -dy
	}
	return uint32(max(dx, dy))
}

// Chunk is an immutable heightmap column grid. A voxel is solid when its
// z is below the column height.
type Chunk struct {
	heights []uint16
	blocks  []uint16
	digest  uint64
}

func NewChunk(heights, blocks []uint16) (*Chunk, error) {
	if len(heights) != columns || len(blocks) != columns {
		return nil, fmt.Errorf("chunk needs %d columns, got heights=%d blocks=%d", columns, len(heights), len(blocks))
	}
	c := &Chunk{
		heights: append([]uint16(nil), heights...),
		blocks:  append([]uint16(nil), blocks...),
	}
	d := xxhash.New()
	var b [2]byte
	for _, v := range c.heights {
		binary.LittleEndian.PutUint16(b[:], v)
		_, _ = d.Write(b[:])
	}
	for _, v := range c.blocks {
		binary.LittleEndian.PutUint16(b[:], v)
		_, _ = d.Write(b[:])
	}
	c.digest = d.Sum64()
	return c, nil
}

func (c *Chunk) Height(lx, ly int) int { return int(c.heights[ly*ChunkSize+lx]) }
func (c *Chunk) Block(lx, ly int) uint16 { return c.blocks[ly*ChunkSize+lx] }
func (c *Chunk) Digest() uint64        { return c.digest }

func (c *Chunk) Solid(lx, ly, z int) bool {
	return z < c.Height(lx, ly)
}

// Payload is the wire/cache text form of a chunk.
type Payload struct {
	Digest  string `json:"digest"`
	Heights string `json:"heights"`
	Blocks  string `json:"blocks"`
}

func (c *Chunk) Payload() Payload {
	return Payload{
		Digest:  fmt.Sprintf("%016x", c.digest),
		Heights: encoding.EncodeRLE(c.heights),
		Blocks:  encoding.EncodeRLE(c.blocks),
	}
}

func DecodePayload(p Payload) (*Chunk, error) {
	h, err := encoding.DecodeRLE(p.Heights, columns)
	if err != nil {
		return nil, fmt.Errorf("heights: %w", err)
	}
	b, err := encoding.DecodeRLE(p.Blocks, columns)
	if err != nil {
		return nil, fmt.Errorf("blocks: %w", err)
	}
	c, err := NewChunk(h, b)
	if err != nil {
		return nil, err
	}
	if p.Digest != "" && p.Digest != fmt.Sprintf("%016x", c.digest) {
		return nil, fmt.Errorf("digest mismatch: %s", p.Digest)
	}
	return c, nil
}

// Map owns the loaded chunks. It is touched only by the tick loop.
type Map struct {
	chunks map[Key]*Chunk
}

func NewMap() *Map { return &Map{chunks: map[Key]*Chunk{}} }

func (m *Map) Get(k Key) (*Chunk, bool) {
	c, ok := m.chunks[k]
	return c, ok
}

func (m *Map) Insert(k Key, c *Chunk) { m.chunks[k] = c }
func (m *Map) Remove(k Key)           { delete(m.chunks, k) }
func (m *Map) Len() int               { return len(m.chunks) }

func (m *Map) Keys() []Key {
	out := make([]Key, 0, len(m.chunks))
	for k := range m.chunks {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].X != out[j].X {
			return out[i].X < out[j].X
		}
		return out[i].Y < out[j].Y
	})
	return out
}

// Sample reports whether voxel (x, y, z) is solid. ok is false when the
// containing chunk is not loaded.
func (m *Map) Sample(x, y, z int) (solid, ok bool) {
	c, ok := m.chunks[VoxelKey(x, y)]
	if !ok {
		return false, false
	}
	return c.Solid(mod(x, ChunkSize), mod(y, ChunkSize), z), true
}
