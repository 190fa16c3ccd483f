package rfbencode

// Hextile (ID 5) and its zlib-wrapped variant ZlibHex (ID 8): per 16x16
// tile mode selection with background/foreground colors and a
// subrectangle list. Grounded in the teacher's encoding_hextile.go
// decode loop (tile iteration, subEncoding bit meanings, geometry byte
// packing), run in the encode direction.

const (
	hextileRaw                 = 1 << 0
	hextileBackgroundSpecified = 1 << 1
	hextileForegroundSpecified = 1 << 2
	hextileAnySubrects         = 1 << 3
	hextileSubrectsColoured    = 1 << 4
)

// hextileState is the persisted background/foreground color carried
// between tiles within one rectangle, per §4.4: "the previous tile's
// background/foreground persist until overwritten ... the encoder MUST
// re-emit when values change."
type hextileState struct {
	bg, fg         pixelKey
	haveBG, haveFG bool
}

// hextileTile is the result of choosing a subencoding for one tile: the
// subencoding byte, any bg/fg pixels it carries (in that order), an
// optional subrect count, and the body bytes (raw pixel data, or the
// subrect list) that ZlibHex compresses and plain Hextile does not.
type hextileTile struct {
	subEnc       byte
	headerPixels []byte
	count        *byte
	body         []byte
}

// chooseHextileTile picks Hextile's mode for one tile and advances st to
// reflect whatever background/foreground it just put on the wire.
func chooseHextileTile(tileRGBA []byte, tileW, tileH int, pf PixelFormat, st *hextileState) hextileTile {
	p, _, _ := scanPalette(tileRGBA, tileW, tileH, 1<<20) // 16x16 tile, cap never binds

	setBG := func(t *hextileTile, bg pixelKey) {
		if st.haveBG && st.bg == bg {
			return
		}
		t.subEnc |= hextileBackgroundSpecified
		r, g, b := bg.rgb()
		t.headerPixels = append(t.headerPixels, pf.EncodePixel(r, g, b, 0)...)
		st.bg, st.haveBG = bg, true
	}
	setFG := func(t *hextileTile, fg pixelKey) {
		if st.haveFG && st.fg == fg {
			return
		}
		t.subEnc |= hextileForegroundSpecified
		r, g, b := fg.rgb()
		t.headerPixels = append(t.headerPixels, pf.EncodePixel(r, g, b, 0)...)
		st.fg, st.haveFG = fg, true
	}

	if p.len() == 1 {
		var t hextileTile
		setBG(&t, p.order[0])
		return t
	}

	if p.len() == 2 {
		r0, g0, b0, _ := pixelAt(tileRGBA, tileW, 0, 0)
		bg := keyOf(r0, g0, b0)
		fg := p.order[0]
		if fg == bg {
			fg = p.order[1]
		}

		t := hextileTile{subEnc: hextileAnySubrects}
		setBG(&t, bg)
		setFG(&t, fg)

		subs := extractSubrects(tileRGBA, tileW, tileH, bg)
		count := byte(len(subs))
		t.count = &count
		for _, s := range subs {
			t.body = append(t.body, hextileGeometry(s)...)
		}
		return t
	}

	// 3+ colors: choose Raw or colored subrects by encoded size.
	bg := mostFrequentColor(tileRGBA, tileW, tileH)
	subs := extractSubrects(tileRGBA, tileW, tileH, bg)
	bpp := pf.BytesPerPixel()

	coloredHeader := 1
	if !st.haveBG || st.bg != bg {
		coloredHeader += bpp
	}
	coloredSize := coloredHeader + 1 + len(subs)*(bpp+2)

	rawBytes, _ := Translate(tileRGBA, tileW, tileH, pf)
	rawSize := 1 + len(rawBytes)

	if rawSize < coloredSize {
		return hextileTile{subEnc: hextileRaw, body: rawBytes}
	}

	t := hextileTile{subEnc: hextileAnySubrects | hextileSubrectsColoured}
	setBG(&t, bg)
	count := byte(len(subs))
	t.count = &count
	for _, s := range subs {
		r, g, b := s.color.rgb()
		t.body = append(t.body, pf.EncodePixel(r, g, b, 0)...)
		t.body = append(t.body, hextileGeometry(s)...)
	}
	return t
}

// hextileGeometry packs a tile-local subrect's position and size into the
// two bytes §4.4 specifies: ((x<<4)|y) and (((w-1)<<4)|(h-1)).
func hextileGeometry(s rreSubrect) []byte {
	return []byte{
		byte(s.x<<4 | s.y),
		byte((s.w-1)<<4 | (s.h - 1)),
	}
}

// forEachHextileTile iterates a rectangle's 16x16 tiles in row-major
// order, handing each its own tightly packed RGBA sub-buffer and true
// (possibly smaller) edge dimensions.
func forEachHextileTile(rgba []byte, width, height int, fn func(tileRGBA []byte, tileW, tileH int)) {
	for y := 0; y < height; y += 16 {
		th := min2(16, height-y)
		for x := 0; x < width; x += 16 {
			tw := min2(16, width-x)
			fn(subImage(rgba, width, x, y, tw, th), tw, th)
		}
	}
}

func validateTileInput(op string, rgba []byte, width, height int, pf PixelFormat) error {
	if width <= 0 || height <= 0 || width > 0xFFFF || height > 0xFFFF {
		return newErr(op, InvalidDimensions, nil)
	}
	if len(rgba) < width*height*4 {
		return newErr(op, InputTooShort, nil)
	}
	return pf.validate(op)
}

// EncodeHextile implements the Hextile encoding. Background/foreground
// persistence is scoped to one rectangle, matching the RFB protocol's
// per-rectangle tile traversal.
func EncodeHextile(rgba []byte, width, height int, pf PixelFormat) ([]byte, error) {
	if err := validateTileInput("hextile", rgba, width, height, pf); err != nil {
		return nil, err
	}

	var out []byte
	st := &hextileState{}
	forEachHextileTile(rgba, width, height, func(tileRGBA []byte, tw, th int) {
		t := chooseHextileTile(tileRGBA, tw, th, pf, st)
		out = append(out, t.subEnc)
		out = append(out, t.headerPixels...)
		if t.count != nil {
			out = append(out, *t.count)
		}
		out = append(out, t.body...)
	})
	return out, nil
}

// ZlibHexEncoder implements ZlibHex (ID 8): identical tile-mode selection
// to Hextile, but each tile's raw pixel bytes or subrect-list bytes are
// passed through one persistent deflate stream instead of written plain.
// The subencoding byte and any bg/fg header pixels stay uncompressed, as
// do the compressed-length prefixes — only the "body" compresses.
type ZlibHexEncoder struct {
	stream *PersistentDeflateStream
}

// NewZlibHexEncoder creates a ZlibHex encoder at the given deflate level.
func NewZlibHexEncoder(level int) (*ZlibHexEncoder, error) {
	s, err := NewPersistentDeflateStream(level)
	if err != nil {
		return nil, err
	}
	return &ZlibHexEncoder{stream: s}, nil
}

// Encode implements the ZlibHex encoding for one rectangle.
func (e *ZlibHexEncoder) Encode(rgba []byte, width, height int, pf PixelFormat) ([]byte, error) {
	if err := validateTileInput("zlibhex", rgba, width, height, pf); err != nil {
		return nil, err
	}

	var out []byte
	var encErr error
	st := &hextileState{}
	forEachHextileTile(rgba, width, height, func(tileRGBA []byte, tw, th int) {
		if encErr != nil {
			return
		}
		t := chooseHextileTile(tileRGBA, tw, th, pf, st)
		out = append(out, t.subEnc)
		out = append(out, t.headerPixels...)
		if t.count != nil {
			out = append(out, *t.count)
		}
		if len(t.body) == 0 {
			return
		}
		compressed, err := e.stream.Compress(t.body)
		if err != nil {
			encErr = newErr("zlibhex", CompressionFailure, err)
			return
		}
		out = append(out, be16(uint16(len(compressed)))...)
		out = append(out, compressed...)
	})
	if encErr != nil {
		return nil, encErr
	}
	return out, nil
}

// Reset starts ZlibHex's persistent stream over with a fresh dictionary.
func (e *ZlibHexEncoder) Reset(level int) error {
	return e.stream.Reset(level)
}
