// Package decodetest provides correct round-trip decoders for Raw,
// Zlib, and ZRLE, used only by this module's test suite to verify what
// the encoders produced. The teacher's own ZRLE decode
// (encoding_zrle.go's decodeTile) discards tile bytes to stay in sync
// with the wire rather than actually decoding them; this package exists
// because that stub cannot be reused to check anything.
package decodetest

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/klauspost/compress/zlib"
)

// PixelFormat mirrors the subset of rfbencode.PixelFormat a decoder
// needs. Test code constructs it alongside the rfbencode.PixelFormat it
// passed to the encoder under test.
type PixelFormat struct {
	BitsPerPixel uint8
	BigEndian    bool
	RedMax, GreenMax, BlueMax uint16
	RedShift, GreenShift, BlueShift uint8
}

func (pf PixelFormat) bytesPerPixel() int { return int(pf.BitsPerPixel) / 8 }

func (pf PixelFormat) order() binary.ByteOrder {
	if pf.BigEndian {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// ReadPixel decodes one on-wire pixel (pf.bytesPerPixel() bytes) into the
// 0-255 RGB triple the encoder's quantization maps it to. This inverts
// rfbencode's pack/quantize exactly for 8-bit-per-channel formats and
// approximately (by re-expanding the quantized bucket) for lower ones.
func ReadPixel(px []byte, pf PixelFormat) (r, g, b uint8) {
	var word uint32
	switch pf.BitsPerPixel {
	case 8:
		word = uint32(px[0])
	case 16:
		word = uint32(pf.order().Uint16(px))
	case 24:
		if pf.BigEndian {
			word = uint32(px[0])<<16 | uint32(px[1])<<8 | uint32(px[2])
		} else {
			word = uint32(px[0]) | uint32(px[1])<<8 | uint32(px[2])<<16
		}
	case 32:
		word = pf.order().Uint32(px)
	}
	r = expand((word>>pf.RedShift)&uint32(pf.RedMax), pf.RedMax)
	g = expand((word>>pf.GreenShift)&uint32(pf.GreenMax), pf.GreenMax)
	b = expand((word>>pf.BlueShift)&uint32(pf.BlueMax), pf.BlueMax)
	return
}

func expand(v uint32, max uint16) uint8 {
	if max == 0 {
		return 0
	}
	return uint8((v * 255) / uint32(max))
}

// DecodeRaw decodes a Raw-encoded rectangle into an RGBA buffer.
func DecodeRaw(data []byte, width, height int, pf PixelFormat) ([]byte, error) {
	bpp := pf.bytesPerPixel()
	if len(data) < width*height*bpp {
		return nil, fmt.Errorf("decodetest: raw data too short")
	}
	out := make([]byte, width*height*4)
	for i := 0; i < width*height; i++ {
		r, g, b := ReadPixel(data[i*bpp:i*bpp+bpp], pf)
		out[i*4], out[i*4+1], out[i*4+2], out[i*4+3] = r, g, b, 255
	}
	return out, nil
}

// ZlibStream wraps a persistent zlib.Reader the way a conforming client
// would keep one alive across rectangles for Zlib, ZlibHex, ZRLE, and
// ZYWRLE, whose compressors never reset their dictionary between calls.
type ZlibStream struct {
	buf *bytes.Buffer
	zr  *zlibReader
}

type zlibReader struct {
	reader interface {
		Read(p []byte) (int, error)
	}
	resetter zlib.Resetter
}

// NewZlibStream creates an empty persistent decompression stream.
func NewZlibStream() *ZlibStream {
	return &ZlibStream{buf: &bytes.Buffer{}}
}

// Decompress feeds one sync-flushed chunk through the stream and returns
// exactly n decompressed bytes.
func (s *ZlibStream) Decompress(chunk []byte, n int) ([]byte, error) {
	s.buf.Write(chunk)

	if s.zr == nil {
		zr, err := zlib.NewReader(s.buf)
		if err != nil {
			return nil, fmt.Errorf("decodetest: zlib.NewReader: %w", err)
		}
		resetter, _ := zr.(zlib.Resetter)
		s.zr = &zlibReader{reader: zr, resetter: resetter}
	}

	out := make([]byte, n)
	read := 0
	for read < n {
		m, err := s.zr.reader.Read(out[read:])
		read += m
		if err != nil {
			if read == n {
				break
			}
			return nil, fmt.Errorf("decodetest: zlib read: %w", err)
		}
	}
	return out, nil
}

// DecodeZlib decodes one Zlib-encoded rectangle (u32 length prefix plus
// compressed Raw pixel data) using a persistent stream.
func DecodeZlib(stream *ZlibStream, data []byte, width, height int, pf PixelFormat) ([]byte, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("decodetest: zlib data too short")
	}
	n := binary.BigEndian.Uint32(data[:4])
	compressed := data[4 : 4+int(n)]
	raw, err := stream.Decompress(compressed, width*height*pf.bytesPerPixel())
	if err != nil {
		return nil, err
	}
	return DecodeRaw(raw, width, height, pf)
}

// cpixelSize mirrors rfbencode.CPixelSize: 3 bytes for the common 32bpp
// one-unused-byte case, otherwise the full pixel width.
func cpixelSize(pf PixelFormat) int {
	if pf.BitsPerPixel != 32 {
		return pf.bytesPerPixel()
	}
	used := [4]bool{}
	mark := func(max uint16, shift uint8) {
		bits := bitsFor(max)
		for bPos := shift / 8; bits > 0 && bPos <= (shift+uint8(bits)-1)/8; bPos++ {
			used[bPos] = true
		}
	}
	mark(pf.RedMax, pf.RedShift)
	mark(pf.GreenMax, pf.GreenShift)
	mark(pf.BlueMax, pf.BlueShift)
	count, unused := 0, -1
	for i, u := range used {
		if !u {
			count++
			unused = i
		}
	}
	if count != 1 {
		return 4
	}
	if pf.BigEndian && unused == 0 {
		return 3
	}
	if !pf.BigEndian && unused == 3 {
		return 3
	}
	return 4
}

func bitsFor(max uint16) int {
	n := 0
	for max > 0 {
		n++
		max >>= 1
	}
	return n
}

func readCPixel(data []byte, pf PixelFormat) (r, g, b uint8) {
	size := cpixelSize(pf)
	if size == pf.bytesPerPixel() {
		return ReadPixel(data[:size], pf)
	}
	full := make([]byte, 4)
	if pf.BigEndian {
		copy(full[1:], data[:3])
	} else {
		copy(full[:3], data[:3])
	}
	return ReadPixel(full, pf)
}

// DecodeZRLE decodes one ZRLE-encoded rectangle (u32 length prefix plus
// compressed 64x64-tiled subencoded pixel data) using a persistent
// stream. It understands every subencoding encodeZRLETile produces: raw,
// solid, packed palette, plain RLE, and palette RLE.
func DecodeZRLE(stream *ZlibStream, data []byte, width, height int, pf PixelFormat) ([]byte, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("decodetest: zrle data too short")
	}
	n := binary.BigEndian.Uint32(data[:4])
	compressed := data[4 : 4+int(n)]

	// The uncompressed tile stream's length isn't known up front; decode
	// tiles directly from the stream's zlib reader instead of a fixed-size
	// buffer.
	stream.buf.Write(compressed)
	if stream.zr == nil {
		r, err := zlib.NewReader(stream.buf)
		if err != nil {
			return nil, fmt.Errorf("decodetest: zrle zlib.NewReader: %w", err)
		}
		resetter, _ := r.(zlib.Resetter)
		stream.zr = &zlibReader{reader: r, resetter: resetter}
	}
	zr := stream.zr.reader

	out := make([]byte, width*height*4)
	cpSize := cpixelSize(pf)
	for y := 0; y < height; y += 64 {
		th := min2(64, height-y)
		for x := 0; x < width; x += 64 {
			tw := min2(64, width-x)
			if err := decodeZRLETile(zr, out, width, x, y, tw, th, pf, cpSize); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

func decodeZRLETile(r interface{ Read([]byte) (int, error) }, out []byte, fullWidth, tx, ty, tw, th int, pf PixelFormat, cpSize int) error {
	subEnc, err := readByte(r)
	if err != nil {
		return err
	}
	n := tw * th

	putPixel := func(localIdx int, cr, cg, cb uint8) {
		x := tx + localIdx%tw
		y := ty + localIdx/tw
		i := (y*fullWidth + x) * 4
		out[i], out[i+1], out[i+2], out[i+3] = cr, cg, cb, 255
	}

	switch {
	case subEnc == 0: // raw
		buf := make([]byte, cpSize)
		for i := 0; i < n; i++ {
			if _, err := readFull(r, buf); err != nil {
				return err
			}
			cr, cg, cb := readCPixel(buf, pf)
			putPixel(i, cr, cg, cb)
		}
	case subEnc == 1: // solid
		buf := make([]byte, cpSize)
		if _, err := readFull(r, buf); err != nil {
			return err
		}
		cr, cg, cb := readCPixel(buf, pf)
		for i := 0; i < n; i++ {
			putPixel(i, cr, cg, cb)
		}
	case subEnc >= 2 && subEnc <= 16:
		paletteSize := int(subEnc)
		palette, err := readPalette(r, paletteSize, cpSize, pf)
		if err != nil {
			return err
		}
		bits := packedBits(paletteSize)
		rowBytes := (tw*bits + 7) / 8
		for y := 0; y < th; y++ {
			row := make([]byte, rowBytes)
			if _, err := readFull(r, row); err != nil {
				return err
			}
			for x := 0; x < tw; x++ {
				bitOff := x * bits
				shift := 8 - bits - (bitOff % 8)
				idx := (row[bitOff/8] >> uint(shift)) & byte((1<<bits)-1)
				cr, cg, cb := palette[idx][0], palette[idx][1], palette[idx][2]
				putPixel(y*tw+x, cr, cg, cb)
			}
		}
	case subEnc == 128: // plain RLE
		written := 0
		buf := make([]byte, cpSize)
		for written < n {
			if _, err := readFull(r, buf); err != nil {
				return err
			}
			cr, cg, cb := readCPixel(buf, pf)
			run, err := readRunLength(r)
			if err != nil {
				return err
			}
			for i := 0; i < run; i++ {
				putPixel(written+i, cr, cg, cb)
			}
			written += run
		}
	case subEnc >= 129:
		paletteSize := int(subEnc) - 128
		palette, err := readPalette(r, paletteSize, cpSize, pf)
		if err != nil {
			return err
		}
		written := 0
		for written < n {
			idxByte, err := readByte(r)
			if err != nil {
				return err
			}
			idx := idxByte & 0x7F
			run := 1
			if idxByte&0x80 != 0 {
				run, err = readRunLength(r)
				if err != nil {
					return err
				}
			}
			cr, cg, cb := palette[idx][0], palette[idx][1], palette[idx][2]
			for i := 0; i < run; i++ {
				putPixel(written+i, cr, cg, cb)
			}
			written += run
		}
	default:
		return fmt.Errorf("decodetest: unknown zrle subencoding %d", subEnc)
	}
	return nil
}

func readPalette(r interface{ Read([]byte) (int, error) }, size, cpSize int, pf PixelFormat) ([][3]uint8, error) {
	palette := make([][3]uint8, size)
	buf := make([]byte, cpSize)
	for i := 0; i < size; i++ {
		if _, err := readFull(r, buf); err != nil {
			return nil, err
		}
		cr, cg, cb := readCPixel(buf, pf)
		palette[i] = [3]uint8{cr, cg, cb}
	}
	return palette, nil
}

func readRunLength(r interface{ Read([]byte) (int, error) }) (int, error) {
	total := 0
	for {
		b, err := readByte(r)
		if err != nil {
			return 0, err
		}
		if b == 255 {
			total += 255
			continue
		}
		return total + int(b) + 1, nil
	}
}

func readByte(r interface{ Read([]byte) (int, error) }) (byte, error) {
	var b [1]byte
	if _, err := readFull(r, b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

func readFull(r interface{ Read([]byte) (int, error) }, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := r.Read(buf[total:])
		total += n
		if err != nil {
			if total == len(buf) {
				return total, nil
			}
			return total, err
		}
	}
	return total, nil
}

func packedBits(paletteSize int) int {
	switch {
	case paletteSize <= 2:
		return 1
	case paletteSize <= 4:
		return 2
	default:
		return 4
	}
}

func min2(a, b int) int {
	if a < b {
		return a
	}
	return b
}
