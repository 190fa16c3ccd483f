package rfbencode

import (
	"image"

	"github.com/bigangryrobot/rfbencode/internal/rfblog"
)

// Tight (ID 7): a compression-control byte selecting Fill, JPEG, or one of
// three basic filters (Copy, Palette/Mono, Gradient) run through one of
// four independent persistent deflate streams, framed with a compact
// length prefix. Grounded in the teacher's encoding_tight.go decode
// dispatch (compControl bit layout, per-stream zlib reuse, palette and
// fill handling) and kamrankamilli-gsvnc's JPEG-mode Tight encoder for
// the one mode the teacher only stubs.
//
// The teacher's decode derives a filter purely from bits 4-6 of the
// control byte and never reads a separate filter-id byte, which
// conflates the stream-id and filter-id bit ranges. That shortcut is not
// carried forward: the encoder below uses the standard layout a
// conforming Tight decoder expects — bits 0-3 are independent stream
// reset flags, bit 6 is an explicit-filter flag, and a separate filter-id
// byte (1=palette/mono, 2=gradient) follows when it is set.

type TightEncoder struct {
	streams      *TightCompressorSet
	quality      int // JPEG quality 0-9; negative disables JPEG regardless of build
	pendingReset byte
	log          *rfblog.Logger
}

// Tight caps how large a single wire rectangle is allowed to be: a real
// decoder enforces these limits, and a naive encoder handed a large
// framebuffer update would otherwise emit one oversized rectangle that
// violates them. minSplitRectSize is the threshold below which splitting
// isn't worth the overhead; minSolidSubrectSize is the smallest solid area
// worth carving out on its own; maxSplitTileSize is the probe granularity
// used to locate solid areas.
const (
	tightMaxRectWidth     = 2048
	tightMaxRectSize      = 65536
	tightMinSplitRectSize = 4096
	tightMinSolidSubrect  = 2048
	tightMaxSplitTile     = 16
)

// NewTightEncoder creates a Tight encoder with four persistent deflate
// streams at the given level and a JPEG quality (0-9, negative to
// disable JPEG selection entirely).
func NewTightEncoder(level, quality int) (*TightEncoder, error) {
	streams, err := NewTightCompressorSet(level)
	if err != nil {
		return nil, err
	}
	return &TightEncoder{streams: streams, quality: quality, log: rfblog.Default()}, nil
}

// Reset resets one of Tight's four streams; the next Encode call marks
// that stream's reset bit in its compression-control byte.
func (e *TightEncoder) Reset(streamIdx, level int) error {
	if err := e.streams.Reset(streamIdx, level); err != nil {
		return err
	}
	e.pendingReset |= 1 << uint(streamIdx)
	return nil
}

// Encode implements the Tight encoding for one rectangle.
func (e *TightEncoder) Encode(rgba []byte, width, height int, pf PixelFormat) ([]byte, error) {
	const op = "tight"
	if width <= 0 || height <= 0 || width > 0xFFFF || height > 0xFFFF {
		return nil, newErr(op, InvalidDimensions, nil)
	}
	if len(rgba) < width*height*4 {
		return nil, newErr(op, InputTooShort, nil)
	}
	if err := pf.validate(op); err != nil {
		return nil, err
	}

	out, err := e.encode(rgba, width, height, pf)
	if err != nil {
		return nil, err
	}
	out[0] |= e.pendingReset
	e.pendingReset = 0
	return out, nil
}

// EncodeRects implements Tight encoding for a full framebuffer, splitting
// the input into one or more wire-sized rectangles the way a real Tight
// sender does on a large update: anything wider than tightMaxRectWidth or
// larger than tightMaxRectSize pixels is carved up, and large uniform
// areas are pulled out as their own Fill rectangle before what's left
// falls back to per-tile Tight encoding. Rectangles below
// tightMinSplitRectSize skip the solid-area search entirely and go
// straight through the ordinary per-rectangle mode selection (split only
// if the size ceiling requires it). A pending stream reset is applied to
// the first returned rectangle only.
func (e *TightEncoder) EncodeRects(rgba []byte, width, height int, pf PixelFormat) ([]EncodedRect, error) {
	const op = "tight"
	if width <= 0 || height <= 0 || width > 0xFFFF || height > 0xFFFF {
		return nil, newErr(op, InvalidDimensions, nil)
	}
	if len(rgba) < width*height*4 {
		return nil, newErr(op, InputTooShort, nil)
	}
	if err := pf.validate(op); err != nil {
		return nil, err
	}

	rects, err := e.encodeRectOptimized(rgba, width, Rect{X: 0, Y: 0, Width: uint16(width), Height: uint16(height)}, pf)
	if err != nil {
		return nil, err
	}
	if len(rects) > 0 {
		rects[0].Data[0] |= e.pendingReset
		e.pendingReset = 0
	}
	return rects, nil
}

// encodeRectOptimized mirrors the high-level split/solid-area search: too
// small to bother optimizing falls through to a straight split-if-needed
// encode, otherwise it probes tightMaxSplitTile-sized tiles for a large
// solid run and, if one is found, emits the rectangles around it plus one
// Fill rectangle for the solid area itself.
func (e *TightEncoder) encodeRectOptimized(rgba []byte, fbWidth int, rect Rect, pf PixelFormat) ([]EncodedRect, error) {
	if rect.Area() < tightMinSplitRectSize {
		if int(rect.Width) > tightMaxRectWidth || rect.Area() > tightMaxRectSize {
			return e.encodeLargeRect(rgba, fbWidth, rect, pf)
		}
		return e.encodeOneRect(rgba, fbWidth, rect, pf)
	}

	for y := int(rect.Y); y < int(rect.Y)+int(rect.Height); y += tightMaxSplitTile {
		dh := int(rect.Height) - (y - int(rect.Y))
		if dh > tightMaxSplitTile {
			dh = tightMaxSplitTile
		}
		for x := int(rect.X); x < int(rect.X)+int(rect.Width); x += tightMaxSplitTile {
			dw := int(rect.Width) - (x - int(rect.X))
			if dw > tightMaxSplitTile {
				dw = tightMaxSplitTile
			}

			color, ok := checkSolidTile(rgba, fbWidth, x, y, dw, dh)
			if !ok {
				continue
			}

			wBest, hBest := findBestSolidArea(rgba, fbWidth, x, y, int(rect.X)+int(rect.Width)-x, int(rect.Y)+int(rect.Height)-y, color)
			if wBest*hBest != rect.Area() && wBest*hBest < tightMinSolidSubrect {
				continue
			}

			xBest, yBest, wBest, hBest := extendSolidArea(rgba, fbWidth, int(rect.X), int(rect.Y), int(rect.Width), int(rect.Height), color, x, y, wBest, hBest)
			return e.encodeAroundSolid(rgba, fbWidth, rect, pf, xBest, yBest, wBest, hBest, color)
		}
	}

	if int(rect.Width) > tightMaxRectWidth || rect.Area() > tightMaxRectSize {
		return e.encodeLargeRect(rgba, fbWidth, rect, pf)
	}
	return e.encodeOneRect(rgba, fbWidth, rect, pf)
}

// encodeAroundSolid emits the (up to four) non-solid rectangles framing a
// discovered solid area followed by the solid area itself as a Fill.
// None of the framing rectangles re-enters the solid-area search: the
// original algorithm only searches once per call and falls back to a
// plain split-if-needed encode for whatever remains.
func (e *TightEncoder) encodeAroundSolid(rgba []byte, fbWidth int, rect Rect, pf PixelFormat, xBest, yBest, wBest, hBest int, color pixelKey) ([]EncodedRect, error) {
	var out []EncodedRect

	emit := func(r Rect) error {
		var (
			sub []EncodedRect
			err error
		)
		if int(r.Width) > tightMaxRectWidth || r.Area() > tightMaxRectSize {
			sub, err = e.encodeLargeRect(rgba, fbWidth, r, pf)
		} else {
			sub, err = e.encodeOneRect(rgba, fbWidth, r, pf)
		}
		if err != nil {
			return err
		}
		out = append(out, sub...)
		return nil
	}

	if yBest != int(rect.Y) {
		if err := emit(Rect{X: rect.X, Y: rect.Y, Width: rect.Width, Height: uint16(yBest - int(rect.Y))}); err != nil {
			return nil, err
		}
	}
	if xBest != int(rect.X) {
		if err := emit(Rect{X: rect.X, Y: uint16(yBest), Width: uint16(xBest - int(rect.X)), Height: uint16(hBest)}); err != nil {
			return nil, err
		}
	}

	r, g, b := color.rgb()
	solidData := append([]byte{0x80}, EncodeTPixel(pf, r, g, b)...)
	out = append(out, EncodedRect{X: uint16(xBest), Y: uint16(yBest), Width: uint16(wBest), Height: uint16(hBest), Data: solidData})

	if xBest+wBest != int(rect.X)+int(rect.Width) {
		if err := emit(Rect{X: uint16(xBest + wBest), Y: uint16(yBest), Width: uint16(int(rect.X) + int(rect.Width) - xBest - wBest), Height: uint16(hBest)}); err != nil {
			return nil, err
		}
	}
	if yBest+hBest != int(rect.Y)+int(rect.Height) {
		if err := emit(Rect{X: rect.X, Y: uint16(yBest + hBest), Width: rect.Width, Height: uint16(int(rect.Y) + int(rect.Height) - yBest - hBest)}); err != nil {
			return nil, err
		}
	}

	return out, nil
}

// encodeLargeRect splits a rectangle that exceeds the wire size limits
// into a grid of tiles, each within tightMaxRectWidth and
// tightMaxRectSize, and encodes each independently.
func (e *TightEncoder) encodeLargeRect(rgba []byte, fbWidth int, rect Rect, pf PixelFormat) ([]EncodedRect, error) {
	maxWidth := int(rect.Width)
	if maxWidth > tightMaxRectWidth {
		maxWidth = tightMaxRectWidth
	}
	maxHeight := tightMaxRectSize / maxWidth

	var out []EncodedRect
	for dy := 0; dy < int(rect.Height); dy += maxHeight {
		rh := int(rect.Height) - dy
		if rh > maxHeight {
			rh = maxHeight
		}
		for dx := 0; dx < int(rect.Width); dx += tightMaxRectWidth {
			rw := int(rect.Width) - dx
			if rw > tightMaxRectWidth {
				rw = tightMaxRectWidth
			}
			sub := Rect{X: rect.X + uint16(dx), Y: rect.Y + uint16(dy), Width: uint16(rw), Height: uint16(rh)}
			encoded, err := e.encodeOneRect(rgba, fbWidth, sub, pf)
			if err != nil {
				return nil, err
			}
			out = append(out, encoded...)
		}
	}
	return out, nil
}

// encodeOneRect runs the ordinary (unsplit) Tight mode selection over one
// sub-rectangle's pixels, extracted from the full framebuffer.
func (e *TightEncoder) encodeOneRect(rgba []byte, fbWidth int, rect Rect, pf PixelFormat) ([]EncodedRect, error) {
	tile := subImage(rgba, fbWidth, int(rect.X), int(rect.Y), int(rect.Width), int(rect.Height))
	data, err := e.encode(tile, int(rect.Width), int(rect.Height), pf)
	if err != nil {
		return nil, err
	}
	return []EncodedRect{{X: rect.X, Y: rect.Y, Width: rect.Width, Height: rect.Height, Data: data}}, nil
}

// checkSolidTile reports whether every pixel in the w*h area at (x, y) of
// a framebuffer with the given stride shares the same RGB color.
func checkSolidTile(rgba []byte, fbWidth, x, y, w, h int) (pixelKey, bool) {
	r0, g0, b0, _ := pixelAt(rgba, fbWidth, x, y)
	first := keyOf(r0, g0, b0)
	for dy := 0; dy < h; dy++ {
		for dx := 0; dx < w; dx++ {
			r, g, b, _ := pixelAt(rgba, fbWidth, x+dx, y+dy)
			if keyOf(r, g, b) != first {
				return 0, false
			}
		}
	}
	return first, true
}

// findBestSolidArea grows a solid run found at (x, y) across
// tightMaxSplitTile-wide column strips, tracking the widest contiguous
// run at each row band and returning whichever band/width combination
// covers the largest area.
func findBestSolidArea(rgba []byte, fbWidth, x, y, w, h int, color pixelKey) (wBest, hBest int) {
	wPrev := w
	for dy := 0; dy < h; {
		dh := h - dy
		if dh > tightMaxSplitTile {
			dh = tightMaxSplitTile
		}
		dw := wPrev
		if dw > tightMaxSplitTile {
			dw = tightMaxSplitTile
		}
		if c, ok := checkSolidTile(rgba, fbWidth, x, y+dy, dw, dh); !ok || c != color {
			break
		}

		dx := dw
		for dx < wPrev {
			check := wPrev - dx
			if check > tightMaxSplitTile {
				check = tightMaxSplitTile
			}
			if c, ok := checkSolidTile(rgba, fbWidth, x+dx, y+dy, check, dh); !ok || c != color {
				break
			}
			dx += check
		}

		wPrev = dx
		if wPrev*(dy+dh) > wBest*hBest {
			wBest = wPrev
			hBest = dy + dh
		}
		dy += dh
	}
	return wBest, hBest
}

// extendSolidArea grows a discovered solid rectangle outward in all four
// directions, one row or column at a time, until it hits a non-matching
// pixel or the bounds of the enclosing rectangle.
func extendSolidArea(rgba []byte, fbWidth, baseX, baseY, maxW, maxH int, color pixelKey, x, y, w, h int) (int, int, int, int) {
	for y > baseY {
		if c, ok := checkSolidTile(rgba, fbWidth, x, y-1, w, 1); !ok || c != color {
			break
		}
		y--
		h++
	}
	for y+h < baseY+maxH {
		if c, ok := checkSolidTile(rgba, fbWidth, x, y+h, w, 1); !ok || c != color {
			break
		}
		h++
	}
	for x > baseX {
		if c, ok := checkSolidTile(rgba, fbWidth, x-1, y, 1, h); !ok || c != color {
			break
		}
		x--
		w++
	}
	for x+w < baseX+maxW {
		if c, ok := checkSolidTile(rgba, fbWidth, x+w, y, 1, h); !ok || c != color {
			break
		}
		w++
	}
	return x, y, w, h
}

func (e *TightEncoder) encode(rgba []byte, width, height int, pf PixelFormat) ([]byte, error) {
	p, idx, paletteFits := scanPalette(rgba, width, height, 256)

	if paletteFits && p.len() == 1 {
		return e.encodeFill(p, pf), nil
	}

	if jpegAvailable() && e.quality >= 0 && tightJPEGEligible(width, height, pf, paletteFits, p) {
		if out, err := e.encodeJPEG(rgba, width, height, pf); err == nil {
			return out, nil
		} else {
			e.log.Warnf("tight: jpeg mode failed, falling back to a lossless filter: %v", err)
		}
	}

	if paletteFits && p.len() == 2 {
		return e.encodeIndexed(p, idx, width, height, pf, tightStreamMono)
	}
	if paletteFits && p.len() >= 3 {
		return e.encodeIndexed(p, idx, width, height, pf, tightStreamIndexed)
	}

	return e.encodeGradientOrBasic(rgba, width, height, pf)
}

func (e *TightEncoder) encodeFill(p *palette, pf PixelFormat) []byte {
	r, g, b := p.order[0].rgb()
	out := []byte{0x80}
	return append(out, EncodeTPixel(pf, r, g, b)...)
}

// encodeIndexed implements filter-id 1: a raw (uncompressed) palette of
// TPIXELs followed by a zlib-compressed bitmap of per-pixel indices,
// 1 bit wide for a 2-color palette and 8 bits wide otherwise.
func (e *TightEncoder) encodeIndexed(p *palette, idx []int, width, height int, pf PixelFormat, streamIdx int) ([]byte, error) {
	const op = "tight"
	ctrl := byte(1<<6) | byte(streamIdx<<4)
	out := []byte{ctrl, 1, byte(p.len() - 1)}
	for _, k := range p.order {
		r, g, b := k.rgb()
		out = append(out, EncodeTPixel(pf, r, g, b)...)
	}

	bits := 8
	if p.len() <= 2 {
		bits = 1
	}
	rowBytes := (width*bits + 7) / 8
	body := make([]byte, 0, rowBytes*height)
	for y := 0; y < height; y++ {
		row := make([]byte, rowBytes)
		for x := 0; x < width; x++ {
			v := byte(idx[y*width+x])
			if bits == 1 {
				row[x/8] |= v << uint(7-x%8)
			} else {
				row[x] = v
			}
		}
		body = append(body, row...)
	}

	compressed, err := e.streams.Compress(streamIdx, body)
	if err != nil {
		return nil, newErr(op, CompressionFailure, err)
	}
	out = append(out, encodeCompactLength(len(compressed))...)
	return append(out, compressed...), nil
}

// encodeGradientOrBasic chooses between filter-id 2 (gradient) and the
// unfiltered Copy mode by comparing a cheap residual-magnitude heuristic
// to raw byte variation, since the mode decision has to be made before
// either candidate is fed to its (stateful, non-retryable) stream.
func (e *TightEncoder) encodeGradientOrBasic(rgba []byte, width, height int, pf PixelFormat) ([]byte, error) {
	const op = "tight"
	tpixels := translateToTPixels(rgba, width, height, pf)
	bpp := TPixelSize(pf)

	if bpp == 3 {
		residual := applyGradientFilter(tpixels, width, height, bpp)
		if gradientResidualSmaller(residual, tpixels) {
			ctrl := byte(1<<6) | byte(tightStreamGradient<<4)
			out := []byte{ctrl, 2}
			compressed, err := e.streams.Compress(tightStreamGradient, residual)
			if err != nil {
				return nil, newErr(op, CompressionFailure, err)
			}
			out = append(out, encodeCompactLength(len(compressed))...)
			return append(out, compressed...), nil
		}
	}

	ctrl := byte(tightStreamBasic << 4)
	out := []byte{ctrl}
	compressed, err := e.streams.Compress(tightStreamBasic, tpixels)
	if err != nil {
		return nil, newErr(op, CompressionFailure, err)
	}
	out = append(out, encodeCompactLength(len(compressed))...)
	return append(out, compressed...), nil
}

func translateToTPixels(rgba []byte, width, height int, pf PixelFormat) []byte {
	n := width * height
	bpp := TPixelSize(pf)
	out := make([]byte, n*bpp)
	for i := 0; i < n; i++ {
		px := rgba[i*4 : i*4+4]
		copy(out[i*bpp:(i+1)*bpp], EncodeTPixel(pf, px[0], px[1], px[2]))
	}
	return out
}

// applyGradientFilter replaces each TPIXEL component with its residual
// against gradientPredict(left, above, aboveLeft), missing neighbors at
// the top/left edges treated as zero.
func applyGradientFilter(tpixels []byte, width, height, bpp int) []byte {
	out := make([]byte, len(tpixels))
	get := func(x, y, c int) uint8 {
		if x < 0 || y < 0 {
			return 0
		}
		return tpixels[(y*width+x)*bpp+c]
	}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			for c := 0; c < bpp; c++ {
				pred := gradientPredict(get(x-1, y, c), get(x, y-1, c), get(x-1, y-1, c))
				out[(y*width+x)*bpp+c] = tpixels[(y*width+x)*bpp+c] - pred
			}
		}
	}
	return out
}

func gradientResidualSmaller(residual, raw []byte) bool {
	var residualSum, rawSum int
	for _, b := range residual {
		residualSum += absInt8(b)
	}
	for _, b := range raw {
		d := int(b) - 128
		if d < 0 {
			d = -d
		}
		rawSum += d
	}
	return residualSum < rawSum
}

func absInt8(b byte) int {
	v := int(int8(b))
	if v < 0 {
		return -v
	}
	return v
}

// tightJPEGEligible mirrors Tight's real-world heuristic: JPEG only pays
// off for true-color photographic content large enough to amortize its
// header, and loses to Indexed mode outright on small palettes.
func tightJPEGEligible(width, height int, pf PixelFormat, paletteFits bool, p *palette) bool {
	if TPixelSize(pf) != 3 {
		return false
	}
	if width*height < 64 {
		return false
	}
	if paletteFits && p.len() <= 24 {
		return false
	}
	return true
}

func (e *TightEncoder) encodeJPEG(rgba []byte, width, height int, pf PixelFormat) ([]byte, error) {
	const op = "tight"
	img := &image.NRGBA{
		Pix:    rgba,
		Stride: width * 4,
		Rect:   image.Rect(0, 0, width, height),
	}
	quality := 10*e.quality + 10
	if quality > 100 {
		quality = 100
	}
	data, err := encodeJPEGBytes(img, quality)
	if err != nil {
		return nil, newErr(op, CompressionFailure, err)
	}
	out := []byte{0x90}
	out = append(out, encodeCompactLength(len(data))...)
	return append(out, data...), nil
}
