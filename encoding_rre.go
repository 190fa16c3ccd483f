package rfbencode

// RRE (ID 2) and CoRRE (ID 4): background color plus a list of
// axis-aligned monochrome sub-rectangles. Grounded in the teacher's
// encoding_rre.go decode loop (background fill, then per-subrect fill),
// run in reverse: here we derive the subrectangle list from pixels
// instead of consuming one from the wire.

// rreSubrect is one background-relative colored sub-rectangle.
type rreSubrect struct {
	color      pixelKey
	x, y, w, h uint16
}

// extractSubrects finds every maximal axis-aligned monochrome region not
// equal to bg, by a greedy row-then-column scan: for each uncovered
// non-background pixel, extend right while the run stays one color and
// uncovered, then extend that run downward while every pixel in it still
// matches and is uncovered. This is the simple scan §4.3 allows, and by
// construction every non-background pixel is covered by exactly one
// subrect or the background fill, so area invariants hold regardless of
// how "efficient" the resulting rectangle count is.
func extractSubrects(rgba []byte, width, height int, bg pixelKey) []rreSubrect {
	covered := make([]bool, width*height)
	keyAt := func(x, y int) pixelKey {
		px := rgba[(y*width+x)*4 : (y*width+x)*4+4]
		return keyOf(px[0], px[1], px[2])
	}

	var out []rreSubrect
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			idx := y*width + x
			if covered[idx] {
				continue
			}
			k := keyAt(x, y)
			if k == bg {
				covered[idx] = true
				continue
			}

			// Extend the run right while uncovered and same color.
			runEnd := x + 1
			for runEnd < width && !covered[y*width+runEnd] && keyAt(runEnd, y) == k {
				runEnd++
			}
			runW := runEnd - x

			// Extend downward while the whole run still matches.
			runH := 1
			for y+runH < height {
				ok := true
				base := (y + runH) * width
				for cx := x; cx < runEnd; cx++ {
					if covered[base+cx] || keyAt(cx, y+runH) != k {
						ok = false
						break
					}
				}
				if !ok {
					break
				}
				runH++
			}

			for ry := y; ry < y+runH; ry++ {
				base := ry * width
				for rx := x; rx < runEnd; rx++ {
					covered[base+rx] = true
				}
			}
			out = append(out, rreSubrect{color: k, x: uint16(x), y: uint16(y), w: uint16(runW), h: uint16(runH)})
		}
	}
	return out
}

// EncodeRRE implements the RRE encoding: u32 subrect count, background
// pixel, then subrect count subrectangles (pixel + 16-bit x,y,w,h each).
func EncodeRRE(rgba []byte, width, height int, pf PixelFormat) ([]byte, error) {
	const op = "rre"
	if width <= 0 || height <= 0 || width > 0xFFFF || height > 0xFFFF {
		return nil, newErr(op, InvalidDimensions, nil)
	}
	if len(rgba) < width*height*4 {
		return nil, newErr(op, InputTooShort, nil)
	}
	if err := pf.validate(op); err != nil {
		return nil, err
	}

	bg := mostFrequentColor(rgba, width, height)
	subs := extractSubrects(rgba, width, height, bg)

	bpp := pf.BytesPerPixel()
	out := make([]byte, 0, 4+bpp+len(subs)*(bpp+8))
	out = append(out, be32(uint32(len(subs)))...)
	bgr, bgg, bgb := bg.rgb()
	out = append(out, pf.EncodePixel(bgr, bgg, bgb, 0)...)
	for _, s := range subs {
		r, g, b := s.color.rgb()
		out = append(out, pf.EncodePixel(r, g, b, 0)...)
		out = append(out, be16(s.x)...)
		out = append(out, be16(s.y)...)
		out = append(out, be16(s.w)...)
		out = append(out, be16(s.h)...)
	}
	return out, nil
}

// EncodeCoRRE implements the CoRRE encoding: identical to RRE but with
// 8-bit sub-rectangle coordinates, so the whole rectangle must be at most
// 255x255 (the caller is responsible for splitting a larger rectangle
// into CoRRE-sized pieces before calling).
func EncodeCoRRE(rgba []byte, width, height int, pf PixelFormat) ([]byte, error) {
	const op = "corre"
	if width <= 0 || height <= 0 {
		return nil, newErr(op, InvalidDimensions, nil)
	}
	if width > 255 || height > 255 {
		return nil, newErr(op, CoordinateOverflow, nil)
	}
	if len(rgba) < width*height*4 {
		return nil, newErr(op, InputTooShort, nil)
	}
	if err := pf.validate(op); err != nil {
		return nil, err
	}

	bg := mostFrequentColor(rgba, width, height)
	subs := extractSubrects(rgba, width, height, bg)

	bpp := pf.BytesPerPixel()
	out := make([]byte, 0, 4+bpp+len(subs)*(bpp+4))
	out = append(out, be32(uint32(len(subs)))...)
	bgr, bgg, bgb := bg.rgb()
	out = append(out, pf.EncodePixel(bgr, bgg, bgb, 0)...)
	for _, s := range subs {
		if s.x > 255 || s.y > 255 || s.w > 255 || s.h > 255 {
			return nil, newErr(op, CoordinateOverflow, nil)
		}
		r, g, b := s.color.rgb()
		out = append(out, pf.EncodePixel(r, g, b, 0)...)
		out = append(out, byte(s.x), byte(s.y), byte(s.w), byte(s.h))
	}
	return out, nil
}

func be16(v uint16) []byte { return []byte{byte(v >> 8), byte(v)} }
func be32(v uint32) []byte { return []byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)} }
