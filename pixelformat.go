package rfbencode

import "encoding/binary"

// PixelFormat describes how a single pixel is laid out on the wire, per
// RFC 6143 §7.4. It is the target format encoders translate source RGBA
// pixels into before emitting them.
type PixelFormat struct {
	BitsPerPixel uint8 // 8, 16, 24 or 32
	Depth        uint8 // <= BitsPerPixel
	BigEndian    bool
	TrueColor    bool

	RedMax, GreenMax, BlueMax    uint16 // (1<<n)-1 for each channel
	RedShift, GreenShift, BlueShift uint8
}

// BytesPerPixel returns the on-wire size of one pixel.
func (pf PixelFormat) BytesPerPixel() int {
	return int(pf.BitsPerPixel) / 8
}

func (pf PixelFormat) order() binary.ByteOrder {
	if pf.BigEndian {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// validate rejects formats the translator cannot serve: paletted output,
// an unsupported word size, or channel masks that overlap once shifted
// into position.
func (pf PixelFormat) validate(op string) error {
	if !pf.TrueColor {
		return newErr(op, InvalidFormat, nil)
	}
	switch pf.BitsPerPixel {
	case 8, 16, 24, 32:
	default:
		return newErr(op, InvalidFormat, nil)
	}
	redMask := uint32(pf.RedMax) << pf.RedShift
	greenMask := uint32(pf.GreenMax) << pf.GreenShift
	blueMask := uint32(pf.BlueMax) << pf.BlueShift
	if redMask&greenMask != 0 || redMask&blueMask != 0 || greenMask&blueMask != 0 {
		return newErr(op, InvalidFormat, nil)
	}
	return nil
}

// Named presets enumerated in the external interface. Each fixes masks,
// shifts and byte order for a common wire layout.

// RGBA32 is 32bpp true color, 8 bits per channel, R in the low byte.
func RGBA32() PixelFormat {
	return PixelFormat{BitsPerPixel: 32, Depth: 24, TrueColor: true,
		RedMax: 255, GreenMax: 255, BlueMax: 255,
		RedShift: 0, GreenShift: 8, BlueShift: 16}
}

// BGRA32 is 32bpp true color, 8 bits per channel, B in the low byte.
func BGRA32() PixelFormat {
	return PixelFormat{BitsPerPixel: 32, Depth: 24, TrueColor: true,
		RedMax: 255, GreenMax: 255, BlueMax: 255,
		RedShift: 16, GreenShift: 8, BlueShift: 0}
}

// RGBX32 is identical to RGBA32 at the wire level: the fourth byte (alpha
// or padding) carries no channel bits either way.
func RGBX32() PixelFormat { return RGBA32() }

// BGRX32 is identical to BGRA32 at the wire level.
func BGRX32() PixelFormat { return BGRA32() }

// RGB888 is 24bpp packed true color, R in the low byte.
func RGB888() PixelFormat {
	return PixelFormat{BitsPerPixel: 24, Depth: 24, TrueColor: true,
		RedMax: 255, GreenMax: 255, BlueMax: 255,
		RedShift: 0, GreenShift: 8, BlueShift: 16}
}

// BGR888 is 24bpp packed true color, B in the low byte.
func BGR888() PixelFormat {
	return PixelFormat{BitsPerPixel: 24, Depth: 24, TrueColor: true,
		RedMax: 255, GreenMax: 255, BlueMax: 255,
		RedShift: 16, GreenShift: 8, BlueShift: 0}
}

// RGB565 is 16bpp true color, 5/6/5 bits per channel, R high.
func RGB565() PixelFormat {
	return PixelFormat{BitsPerPixel: 16, Depth: 16, TrueColor: true,
		RedMax: 31, GreenMax: 63, BlueMax: 31,
		RedShift: 11, GreenShift: 5, BlueShift: 0}
}

// BGR565 is 16bpp true color, 5/6/5 bits per channel, B high.
func BGR565() PixelFormat {
	return PixelFormat{BitsPerPixel: 16, Depth: 16, TrueColor: true,
		RedMax: 31, GreenMax: 63, BlueMax: 31,
		RedShift: 0, GreenShift: 5, BlueShift: 11}
}

// RGB555 is 16bpp true color, 5/5/5 bits per channel, R high.
func RGB555() PixelFormat {
	return PixelFormat{BitsPerPixel: 16, Depth: 15, TrueColor: true,
		RedMax: 31, GreenMax: 31, BlueMax: 31,
		RedShift: 10, GreenShift: 5, BlueShift: 0}
}

// BGR555 is 16bpp true color, 5/5/5 bits per channel, B high.
func BGR555() PixelFormat {
	return PixelFormat{BitsPerPixel: 16, Depth: 15, TrueColor: true,
		RedMax: 31, GreenMax: 31, BlueMax: 31,
		RedShift: 0, GreenShift: 5, BlueShift: 10}
}

// RGB332 is 8bpp true color, 3/3/2 bits per channel, R high.
func RGB332() PixelFormat {
	return PixelFormat{BitsPerPixel: 8, Depth: 8, TrueColor: true,
		RedMax: 7, GreenMax: 7, BlueMax: 3,
		RedShift: 5, GreenShift: 2, BlueShift: 0}
}

// BGR233 is 8bpp true color, 2/3/3 bits per channel, B high.
func BGR233() PixelFormat {
	return PixelFormat{BitsPerPixel: 8, Depth: 8, TrueColor: true,
		RedMax: 3, GreenMax: 7, BlueMax: 7,
		RedShift: 0, GreenShift: 3, BlueShift: 6}
}

// quantize scales an 8-bit source channel down to the range [0, max],
// truncating per §4.1: R' = (R * red_max) / 255.
func quantize(v uint8, max uint16) uint32 {
	return (uint32(v) * uint32(max)) / 255
}

// pack converts one source RGBA pixel into the on-wire pixel word for pf.
func (pf PixelFormat) pack(r, g, b uint8) uint32 {
	return quantize(r, pf.RedMax)<<pf.RedShift |
		quantize(g, pf.GreenMax)<<pf.GreenShift |
		quantize(b, pf.BlueMax)<<pf.BlueShift
}

// putPixel serializes a packed pixel word into dst (which must be at
// least pf.BytesPerPixel() long) using pf's declared byte order.
func (pf PixelFormat) putPixel(dst []byte, word uint32) {
	order := pf.order()
	switch pf.BitsPerPixel {
	case 8:
		dst[0] = byte(word)
	case 16:
		order.PutUint16(dst, uint16(word))
	case 24:
		if pf.BigEndian {
			dst[0] = byte(word >> 16)
			dst[1] = byte(word >> 8)
			dst[2] = byte(word)
		} else {
			dst[0] = byte(word)
			dst[1] = byte(word >> 8)
			dst[2] = byte(word >> 16)
		}
	case 32:
		order.PutUint32(dst, word)
	}
}

// EncodePixel translates one source RGBA pixel (alpha discarded) into
// pf's on-wire representation.
func (pf PixelFormat) EncodePixel(r, g, b, _ uint8) []byte {
	out := make([]byte, pf.BytesPerPixel())
	pf.putPixel(out, pf.pack(r, g, b))
	return out
}

// Translate converts a source RGBA buffer (4 bytes per pixel, row-major,
// stride width*4) into pf's on-wire pixel stream. It fails with
// InvalidFormat when pf is not usable, and InputTooShort when rgba is
// smaller than width*height*4.
func Translate(rgba []byte, width, height int, pf PixelFormat) ([]byte, error) {
	const op = "translate"
	if width <= 0 || height <= 0 {
		return nil, newErr(op, InvalidDimensions, nil)
	}
	if err := pf.validate(op); err != nil {
		return nil, err
	}
	if len(rgba) < width*height*4 {
		return nil, newErr(op, InputTooShort, nil)
	}
	bpp := pf.BytesPerPixel()
	out := make([]byte, width*height*bpp)
	order := pf.order()
	for i := 0; i < width*height; i++ {
		src := rgba[i*4 : i*4+4]
		word := pf.pack(src[0], src[1], src[2])
		dst := out[i*bpp : i*bpp+bpp]
		switch pf.BitsPerPixel {
		case 8:
			dst[0] = byte(word)
		case 16:
			order.PutUint16(dst, uint16(word))
		case 24:
			pf.putPixel(dst, word)
		case 32:
			order.PutUint32(dst, word)
		}
	}
	return out, nil
}

// is32BitOneByteUnused reports whether pf is a 32bpp true-color format
// where exactly one byte position carries no channel bits, and that byte
// sits at the format's most-significant position — the condition under
// which ZRLE's CPIXEL and Tight's TPIXEL both drop a byte.
func is32BitOneByteUnused(pf PixelFormat) bool {
	if pf.BitsPerPixel != 32 || !pf.TrueColor {
		return false
	}
	var used [4]bool
	mark := func(max uint16, shift uint8) {
		bits := bitsFor(max)
		for b := shift / 8; b <= (shift+uint8(bits)-1)/8 && bits > 0; b++ {
			used[b] = true
		}
	}
	mark(pf.RedMax, pf.RedShift)
	mark(pf.GreenMax, pf.GreenShift)
	mark(pf.BlueMax, pf.BlueShift)
	unusedByte := -1
	count := 0
	for i, u := range used {
		if !u {
			count++
			unusedByte = i
		}
	}
	if count != 1 {
		return false
	}
	// The unused byte must be the most-significant byte in big-endian
	// order, or the equivalent least-significant byte in little-endian.
	if pf.BigEndian {
		return unusedByte == 0
	}
	return unusedByte == 3
}

func bitsFor(max uint16) int {
	n := 0
	for max > 0 {
		n++
		max >>= 1
	}
	return n
}

// CPixelSize returns the size in bytes of ZRLE's compact pixel
// representation for pf: 3 bytes for the common 32bpp-with-one-unused-byte
// case, otherwise pf.BytesPerPixel().
func CPixelSize(pf PixelFormat) int {
	if is32BitOneByteUnused(pf) {
		return 3
	}
	return pf.BytesPerPixel()
}

// EncodeCPixel writes the CPIXEL form of one source RGBA pixel for pf.
func EncodeCPixel(pf PixelFormat, r, g, b uint8) []byte {
	word := pf.pack(r, g, b)
	size := CPixelSize(pf)
	if size == pf.BytesPerPixel() {
		out := make([]byte, size)
		pf.putPixel(out, word)
		return out
	}
	// 3-byte CPIXEL: emit the three bytes that carry channel bits, in the
	// same order full pixels would use with the unused byte dropped.
	full := make([]byte, 4)
	pf.putPixel(full, word)
	if pf.BigEndian {
		return full[1:4]
	}
	return full[0:3]
}

// TPixelSize returns the size in bytes of Tight's TPIXEL representation
// for pf: 3 bytes for 32bpp true color with 8-bit RGB components,
// otherwise pf.BytesPerPixel().
func TPixelSize(pf PixelFormat) int {
	if pf.BitsPerPixel == 32 && pf.TrueColor && pf.RedMax == 255 && pf.GreenMax == 255 && pf.BlueMax == 255 {
		return 3
	}
	return pf.BytesPerPixel()
}

// EncodeTPixel writes the TPIXEL form of one source RGBA pixel for pf.
// For the 32bpp/8-bit-RGB case this is always R,G,B regardless of the
// format's shifts; otherwise it is an ordinary pf pixel.
func EncodeTPixel(pf PixelFormat, r, g, b uint8) []byte {
	if TPixelSize(pf) == 3 && pf.BitsPerPixel == 32 {
		return []byte{r, g, b}
	}
	return pf.EncodePixel(r, g, b, 0)
}
