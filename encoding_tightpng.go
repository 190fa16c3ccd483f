package rfbencode

import (
	"bytes"
	"image"
	"image/png"
)

// TightPNG (ID -260): Tight's Fill and PNG modes only, per §4's
// restriction of this encoding to lossless output with no JPEG or
// persistent-stream basic/palette/gradient modes. Grounded in the
// teacher's encoding_tightpng.go decode (compact length prefix wrapping
// zlib-then-PNG bytes) and encoding_tight.go's handlePNG placeholder,
// run in the encode direction with a real image/png encoder in place of
// the teacher's unimplemented PNG path.
func EncodeTightPNG(rgba []byte, width, height int, pf PixelFormat) ([]byte, error) {
	const op = "tightpng"
	if width <= 0 || height <= 0 || width > 0xFFFF || height > 0xFFFF {
		return nil, newErr(op, InvalidDimensions, nil)
	}
	if len(rgba) < width*height*4 {
		return nil, newErr(op, InputTooShort, nil)
	}
	if err := pf.validate(op); err != nil {
		return nil, err
	}

	p, _, paletteFits := scanPalette(rgba, width, height, 256)
	if paletteFits && p.len() == 1 {
		r, g, b := p.order[0].rgb()
		out := []byte{0x80}
		return append(out, EncodeTPixel(pf, r, g, b)...), nil
	}

	img := &image.NRGBA{
		Pix:    rgba,
		Stride: width * 4,
		Rect:   image.Rect(0, 0, width, height),
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, newErr(op, CompressionFailure, err)
	}

	out := []byte{0xA0}
	out = append(out, encodeCompactLength(buf.Len())...)
	return append(out, buf.Bytes()...), nil
}
