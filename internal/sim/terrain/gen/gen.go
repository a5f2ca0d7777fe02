// Package gen is the default deterministic heightmap generator.
package gen

import "skyvox.io/internal/sim/terrain"

// Surface block ids.
const (
	BlockStone uint16 = 1
	BlockGrass uint16 = 2
	BlockSand  uint16 = 3
	BlockSnow  uint16 = 4
)

type Generator struct {
	Seed int64
	// Base is the mean surface height; Amplitude the peak deviation.
	Base      int
	Amplitude int
	// Cell is the lattice spacing of the value noise, in voxels.
	Cell int
}

func New(seed int64) Generator {
	return Generator{Seed: seed, Base: 64, Amplitude: 40, Cell: 48}
}

func mix64(z uint64) uint64 {
	z += 0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

func hash2(seed int64, x, y int) uint64 {
	ux := uint64(uint32(int32(x)))
	uy := uint64(uint32(int32(y)))
	return mix64(uint64(seed) ^ (ux * 0x9e3779b97f4a7c15) ^ (uy * 0xbf58476d1ce4e5b9))
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b < 0 {
		q--
	}
	return q
}

// lattice returns a value in [-1, 1] for a lattice point.
func (g Generator) lattice(x, y int) float64 {
	return float64(hash2(g.Seed, x, y)%2001)/1000 - 1
}

func smooth(t float64) float64 { return t * t * (3 - 2*t) }

func lerp(a, b, t float64) float64 { return a + (b-a)*t }

// noise is bilinear value noise with smoothstep easing.
func (g Generator) noise(x, y, cell int) float64 {
	cx, cy := floorDiv(x, cell), floorDiv(y, cell)
	fx := smooth(float64(x-cx*cell) / float64(cell))
	fy := smooth(float64(y-cy*cell) / float64(cell))
	a := lerp(g.lattice(cx, cy), g.lattice(cx+1, cy), fx)
	b := lerp(g.lattice(cx, cy+1), g.lattice(cx+1, cy+1), fx)
	return lerp(a, b, fy)
}

// HeightAt is the surface height of world column (x, y).
func (g Generator) HeightAt(x, y int) int {
	cell := max(g.Cell, 2)
	n := g.noise(x, y, cell)*0.75 + g.noise(x, y, max(cell/4, 2))*0.25
	h := g.Base + int(n*float64(g.Amplitude))
	return min(max(h, 1), 0xFFFF)
}

func (g Generator) surface(h int) uint16 {
	switch {
	case h < g.Base-g.Amplitude/3:
		return BlockSand
	case h > g.Base+g.Amplitude*2/3:
		return BlockSnow
	case h > g.Base+g.Amplitude/3:
		return BlockStone
	default:
		return BlockGrass
	}
}

// GenerateChunk is a pure function of the seed and key.
func (g Generator) GenerateChunk(key terrain.Key) *terrain.Chunk {
	n := terrain.ChunkSize * terrain.ChunkSize
	heights := make([]uint16, n)
	blocks := make([]uint16, n)
	ox := int(key.X) * terrain.ChunkSize
	oy := int(key.Y) * terrain.ChunkSize
	for ly := 0; ly < terrain.ChunkSize; ly++ {
		for lx := 0; lx < terrain.ChunkSize; lx++ {
			h := g.HeightAt(ox+lx, oy+ly)
			i := ly*terrain.ChunkSize + lx
			heights[i] = uint16(h)
			blocks[i] = g.surface(h)
		}
	}
	c, err := terrain.NewChunk(heights, blocks)
	if err != nil {
		panic(err)
	}
	return c
}
