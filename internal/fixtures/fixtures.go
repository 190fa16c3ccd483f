// Package fixtures generates deterministic RGBA test images, used as
// encoder inputs across the test suite so golden-byte tests and
// round-trip tests share the same source data. Grounded in
// original_source/src/bin/generate_fixture.rs's quadrant layout and its
// 100x75 non-64-aligned frame, which exists specifically to exercise
// ZRLE's tile-boundary handling on dimensions that aren't a multiple of
// 64.
package fixtures

// Quadrants64 returns the 64x64 RGBA fixture generate_fixture.rs
// produced: a red horizontal gradient (top-left), a green vertical
// gradient (top-right), solid blue (bottom-left), and a black/white
// checkerboard (bottom-right).
func Quadrants64() []byte {
	const size = 64
	pix := make([]byte, size*size*4)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			var r, g, b byte
			switch {
			case x < 32 && y < 32:
				r = byte(x * 8)
			case x >= 32 && y < 32:
				g = byte(y * 8)
			case x < 32 && y >= 32:
				b = 200
			default:
				if (x+y)%2 == 0 {
					r, g, b = 255, 255, 255
				}
			}
			i := (y*size + x) * 4
			pix[i], pix[i+1], pix[i+2], pix[i+3] = r, g, b, 255
		}
	}
	return pix
}

// Gradient100x75 returns the non-64-aligned 100x75 RGBA fixture used to
// exercise ZRLE and Hextile tile clipping at the framebuffer edge.
func Gradient100x75() []byte {
	const w, h = 100, 75
	pix := make([]byte, w*h*4)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r := byte((x * 255) / w)
			g := byte((y * 255) / h)
			i := (y*w + x) * 4
			pix[i], pix[i+1], pix[i+2], pix[i+3] = r, g, 128, 255
		}
	}
	return pix
}

// Solid returns a w*h RGBA buffer filled with one color.
func Solid(w, h int, r, g, b byte) []byte {
	pix := make([]byte, w*h*4)
	for i := 0; i < w*h; i++ {
		pix[i*4], pix[i*4+1], pix[i*4+2], pix[i*4+3] = r, g, b, 255
	}
	return pix
}

// Checkerboard returns a w*h RGBA buffer of cellSize-square alternating
// black/white tiles, used to stress Hextile's subEncoding bit selection.
func Checkerboard(w, h, cellSize int) []byte {
	pix := make([]byte, w*h*4)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := (y*w + x) * 4
			if ((x/cellSize)+(y/cellSize))%2 == 0 {
				pix[i], pix[i+1], pix[i+2] = 255, 255, 255
			}
			pix[i+3] = 255
		}
	}
	return pix
}

// seededRand is a small xorshift PRNG so random fixtures stay
// deterministic across platforms without depending on math/rand's
// version-specific sequence.
type seededRand struct{ state uint64 }

func newSeededRand(seed uint64) *seededRand {
	if seed == 0 {
		seed = 1
	}
	return &seededRand{state: seed}
}

func (r *seededRand) next() uint64 {
	r.state ^= r.state << 13
	r.state ^= r.state >> 7
	r.state ^= r.state << 17
	return r.state
}

// Random returns a w*h RGBA buffer of deterministic pseudo-random pixels
// seeded by seed, used for full-color stress fixtures like the 960x540
// frame ZRLE's tile-boundary tests round-trip.
func Random(w, h int, seed uint64) []byte {
	pix := make([]byte, w*h*4)
	rng := newSeededRand(seed)
	for i := 0; i < w*h; i++ {
		v := rng.next()
		pix[i*4] = byte(v)
		pix[i*4+1] = byte(v >> 8)
		pix[i*4+2] = byte(v >> 16)
		pix[i*4+3] = 255
	}
	return pix
}
