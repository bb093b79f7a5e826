// Package tiles partitions an image's spatial extent into rectangular
// tiles with a randomized per-call offset, so tile boundaries never land
// at the same pixels twice and processing seams stay invisible.
package tiles

import (
	"math"
	"math/rand"
	"time"

	"github.com/copyleftdev/LUCID/internal/dream"
)

// Tile identifies a rectangular sub-region of an image as a pair of
// half-open pixel ranges.
type Tile struct {
	Row0, Row1 int
	Col0, Col1 int
}

// Scheduler produces jittered tile partitions. Each call to Tiles draws a
// fresh random offset, so two calls over the same image yield different
// partitions.
type Scheduler struct {
	rng *rand.Rand
}

// NewScheduler creates a Scheduler. A seed of zero seeds from the clock.
func NewScheduler(seed int64) *Scheduler {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Scheduler{rng: rand.New(rand.NewSource(seed))}
}

// SizeFor returns the actual tile edge length for an axis of numPixels
// pixels and a nominal tile size: the axis is split into
// max(1, round(numPixels/nominal)) tiles (halves round to even) and the
// size rounded up so the tiles cover it. An axis shorter than the nominal
// size yields one tile spanning the whole axis.
func SizeFor(numPixels, nominal int) (int, error) {
	if numPixels < 1 {
		return 0, dream.NewErrorf("axis length must be positive, got %d", numPixels).
			WithComponent("tiles").WithOperation("SizeFor")
	}
	if nominal < 1 {
		return 0, dream.NewErrorf("nominal tile size must be positive, got %d", nominal).
			WithComponent("tiles").WithOperation("SizeFor")
	}
	numTiles := int(math.RoundToEven(float64(numPixels) / float64(nominal)))
	if numTiles < 1 {
		numTiles = 1
	}
	return int(math.Ceil(float64(numPixels) / float64(numTiles))), nil
}

// Tiles returns a partition of [0,height)x[0,width) into non-overlapping
// tiles, rows outer and columns inner, with a random per-axis start offset.
// The clipped ranges cover the image exactly; the unclipped tile size is
// what callers should assume for normalization purposes.
func (s *Scheduler) Tiles(height, width, nominal int) ([]Tile, error) {
	rowSize, err := SizeFor(height, nominal)
	if err != nil {
		return nil, err
	}
	colSize, err := SizeFor(width, nominal)
	if err != nil {
		return nil, err
	}

	rows := s.axisRanges(height, rowSize)
	cols := s.axisRanges(width, colSize)

	out := make([]Tile, 0, len(rows)*len(cols))
	for _, r := range rows {
		for _, c := range cols {
			out = append(out, Tile{Row0: r[0], Row1: r[1], Col0: c[0], Col1: c[1]})
		}
	}
	return out, nil
}

// axisRanges walks one axis in steps of size, starting from a random
// offset in [-3*size/4, -size/4], and clips each step to [0, length].
func (s *Scheduler) axisRanges(length, size int) [][2]int {
	lo := -3 * (size / 4)
	hi := -(size / 4)
	start := lo + s.rng.Intn(hi-lo+1)

	var out [][2]int
	for ; start < length; start += size {
		r0, r1 := start, start+size
		if r0 < 0 {
			r0 = 0
		}
		if r1 > length {
			r1 = length
		}
		if r0 < r1 {
			out = append(out, [2]int{r0, r1})
		}
	}
	return out
}
