package rfbencode

import "fmt"

// Rect is a rectangular region of the source framebuffer, addressed in
// row-major RGBA pixels with stride width*4.
type Rect struct {
	X, Y, Width, Height uint16
}

// String implements fmt.Stringer.
func (r Rect) String() string {
	return fmt.Sprintf("rect x:%d y:%d w:%d h:%d", r.X, r.Y, r.Width, r.Height)
}

// Area returns the rectangle's area in pixels.
func (r Rect) Area() int { return int(r.Width) * int(r.Height) }

// EncodedRect is one output rectangle from a multi-rectangle encoder: its
// geometry plus the encoded bytes a FramebufferUpdate-style caller would
// frame and send as-is.
type EncodedRect struct {
	X, Y, Width, Height uint16
	Data                []byte
}

// subImage extracts the w*h RGBA sub-buffer at (x, y) out of a full
// framebuffer of the given stride, copying rows into a tightly packed
// buffer. Used by every tiling encoder to hand a tile its own pixels.
func subImage(rgba []byte, fullWidth int, x, y, w, h int) []byte {
	out := make([]byte, w*h*4)
	srcStride := fullWidth * 4
	dstStride := w * 4
	for row := 0; row < h; row++ {
		srcOff := (y+row)*srcStride + x*4
		copy(out[row*dstStride:row*dstStride+dstStride], rgba[srcOff:srcOff+dstStride])
	}
	return out
}

// pixelAt returns the R,G,B,A bytes of the pixel at (x, y) in a full RGBA
// framebuffer with the given stride (in pixels).
func pixelAt(rgba []byte, fullWidth, x, y int) (r, g, b, a uint8) {
	off := (y*fullWidth + x) * 4
	return rgba[off], rgba[off+1], rgba[off+2], rgba[off+3]
}
