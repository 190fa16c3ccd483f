package rfbencode

// ZYWRLE (ID 17): ZRLE's tiling and subencoding preceded by a perceptual
// YUV transform and a quantized Haar wavelet pass over each tile.
// Quality 9 uses a divisor of 1 at every level, making it numerically
// equivalent to plain ZRLE; lower quality values discard more of the
// wavelet detail coefficients before the inverse transform hands pixels
// to the same tile subencoding logic ZRLE uses. There is no teacher
// equivalent for this filter; it is grounded in ZRLE's own tile pipeline
// (encoding_zrle.go) for everything downstream of the filter itself.

type ZYWRLEEncoder struct {
	stream  *PersistentDeflateStream
	quality int
}

// NewZYWRLEEncoder creates a ZYWRLE encoder at the given deflate level
// and wavelet quality (0-9, clamped).
func NewZYWRLEEncoder(level, quality int) (*ZYWRLEEncoder, error) {
	if quality < 0 {
		quality = 0
	}
	if quality > 9 {
		quality = 9
	}
	s, err := NewPersistentDeflateStream(level)
	if err != nil {
		return nil, err
	}
	return &ZYWRLEEncoder{stream: s, quality: quality}, nil
}

// Encode implements the ZYWRLE encoding for one rectangle.
func (e *ZYWRLEEncoder) Encode(rgba []byte, width, height int, pf PixelFormat) ([]byte, error) {
	const op = "zywrle"
	if width <= 0 || height <= 0 || width > 0xFFFF || height > 0xFFFF {
		return nil, newErr(op, InvalidDimensions, nil)
	}
	if len(rgba) < width*height*4 {
		return nil, newErr(op, InputTooShort, nil)
	}
	if err := pf.validate(op); err != nil {
		return nil, err
	}

	var tiles []byte
	forEachZRLETile(rgba, width, height, func(tileRGBA []byte, tw, th int) {
		filtered := zywrleFilterTile(tileRGBA, tw, th, e.quality)
		tiles = append(tiles, encodeZRLETile(filtered, tw, th, pf)...)
	})

	compressed, err := e.stream.Compress(tiles)
	if err != nil {
		return nil, newErr(op, CompressionFailure, err)
	}
	out := make([]byte, 0, 4+len(compressed))
	out = append(out, be32(uint32(len(compressed)))...)
	out = append(out, compressed...)
	return out, nil
}

// Reset starts ZYWRLE's persistent stream over with a fresh dictionary.
func (e *ZYWRLEEncoder) Reset(level int) error {
	return e.stream.Reset(level)
}

// zywrleFilterTile runs the YUV transform and quantized wavelet pass over
// one tile, returning a new RGBA buffer of the same dimensions. Odd tile
// dimensions and quality 9 bypass the filter entirely.
func zywrleFilterTile(tileRGBA []byte, tw, th, quality int) []byte {
	if quality >= 9 || tw%2 != 0 || th%2 != 0 {
		return tileRGBA
	}

	n := tw * th
	y := make([]int, n)
	u := make([]int, n)
	v := make([]int, n)
	for i := 0; i < n; i++ {
		px := tileRGBA[i*4 : i*4+4]
		r, g, b := int(px[0]), int(px[1]), int(px[2])
		y[i] = r + 2*g + b
		u[i] = r - b
		v[i] = -r + 2*g - b
	}

	const levels = 3
	haarFilter2D(y, tw, th, levels, quality)
	haarFilter2D(u, tw, th, levels, quality)
	haarFilter2D(v, tw, th, levels, quality)

	out := make([]byte, len(tileRGBA))
	for i := 0; i < n; i++ {
		out[i*4] = clampByte((y[i] + 2*u[i] - v[i]) / 4)
		out[i*4+1] = clampByte((y[i] + v[i]) / 4)
		out[i*4+2] = clampByte((y[i] - 2*u[i] - v[i]) / 4)
		out[i*4+3] = tileRGBA[i*4+3]
	}
	return out
}

// haarFilter2D runs levels of 2D Haar decomposition on ch (w*h, row-major),
// quantizing each level's detail subbands, then inverts back to pixel
// space. A no-op when either dimension is odd.
func haarFilter2D(ch []int, w, h, levels, quality int) {
	if w%2 != 0 || h%2 != 0 {
		return
	}
	result := haarRecurse(append([]int(nil), ch...), w, h, 1, levels, quality)
	copy(ch, result)
}

func haarRecurse(ch []int, w, h, level, maxLevel, quality int) []int {
	if level > maxLevel || w < 2 || h < 2 || w%2 != 0 || h%2 != 0 {
		return ch
	}
	ll, lh, hl, hh, hw, hhh := haarForward2D(ch, w, h)
	d := zywrleDivisor(quality, level)
	quantizeSlice(lh, d)
	quantizeSlice(hl, d)
	quantizeSlice(hh, d)
	ll = haarRecurse(ll, hw, hhh, level+1, maxLevel, quality)
	return haarInverse2D(ll, lh, hl, hh, hw, hhh)
}

// zywrleDivisor returns the quantization divisor for wavelet level (1 =
// finest detail) at the given quality (0-9). Quality 9 is always 1 (no
// quantization). Lower quality hits the finest levels hardest and leaves
// deeper, lower-frequency levels closer to full precision.
func zywrleDivisor(quality, level int) int {
	if quality >= 9 {
		return 1
	}
	shift := (9 - quality) - (level - 1)
	if shift <= 0 {
		return 1
	}
	return 1 << uint(shift)
}

func quantizeSlice(s []int, divisor int) {
	if divisor <= 1 {
		return
	}
	for i, v := range s {
		s[i] = quantizeValue(v, divisor)
	}
}

func quantizeValue(v, divisor int) int {
	if v >= 0 {
		return ((v + divisor/2) / divisor) * divisor
	}
	return -(((-v) + divisor/2) / divisor) * divisor
}

// haarStep is the integer lifting form of a single 1D Haar pass: d is the
// high-frequency detail, s the low-frequency average, exactly invertible
// by haarInverseStep before any quantization is applied to d.
func haarStep(a []int) (s, d []int) {
	n := len(a) / 2
	s = make([]int, n)
	d = make([]int, n)
	for i := 0; i < n; i++ {
		x0, x1 := a[2*i], a[2*i+1]
		diff := x0 - x1
		avg := x1 + diff/2
		s[i] = avg
		d[i] = diff
	}
	return
}

func haarInverseStep(s, d []int) []int {
	n := len(s)
	a := make([]int, n*2)
	for i := 0; i < n; i++ {
		x1 := s[i] - d[i]/2
		x0 := x1 + d[i]
		a[2*i] = x0
		a[2*i+1] = x1
	}
	return a
}

// haarForward2D splits a w*h grid into four (w/2)*(h/2) subbands: ll
// (low-low), lh (row-low/col-high), hl (row-high/col-low), hh (high-high).
func haarForward2D(ch []int, w, h int) (ll, lh, hl, hh []int, hw, hhh int) {
	hw = w / 2
	hhh = h / 2

	rowLow := make([]int, hw*h)
	rowHigh := make([]int, hw*h)
	for y := 0; y < h; y++ {
		base := y * w
		s, d := haarStep(ch[base : base+hw*2])
		copy(rowLow[y*hw:(y+1)*hw], s)
		copy(rowHigh[y*hw:(y+1)*hw], d)
	}

	ll = make([]int, hw*hhh)
	lh = make([]int, hw*hhh)
	hl = make([]int, hw*hhh)
	hh = make([]int, hw*hhh)
	for x := 0; x < hw; x++ {
		colLow := extractCol(rowLow, hw, h, x)
		colHigh := extractCol(rowHigh, hw, h, x)
		s1, d1 := haarStep(colLow[:hhh*2])
		s2, d2 := haarStep(colHigh[:hhh*2])
		setCol(ll, hw, hhh, x, s1)
		setCol(lh, hw, hhh, x, d1)
		setCol(hl, hw, hhh, x, s2)
		setCol(hh, hw, hhh, x, d2)
	}
	return
}

func haarInverse2D(ll, lh, hl, hh []int, hw, hhh int) []int {
	h := hhh * 2
	w := hw * 2
	rowLow := make([]int, hw*h)
	rowHigh := make([]int, hw*h)
	for x := 0; x < hw; x++ {
		colLow := haarInverseStep(extractCol(ll, hw, hhh, x), extractCol(lh, hw, hhh, x))
		colHigh := haarInverseStep(extractCol(hl, hw, hhh, x), extractCol(hh, hw, hhh, x))
		setCol(rowLow, hw, h, x, colLow)
		setCol(rowHigh, hw, h, x, colHigh)
	}

	out := make([]int, w*h)
	for y := 0; y < h; y++ {
		low := rowLow[y*hw : (y+1)*hw]
		high := rowHigh[y*hw : (y+1)*hw]
		row := haarInverseStep(low, high)
		copy(out[y*w:(y+1)*w], row)
	}
	return out
}

func extractCol(grid []int, w, h, x int) []int {
	col := make([]int, h)
	for y := 0; y < h; y++ {
		col[y] = grid[y*w+x]
	}
	return col
}

func setCol(grid []int, w, h, x int, col []int) {
	for y := 0; y < h; y++ {
		grid[y*w+x] = col[y]
	}
}
