package rfbencode

// Zlib (ID 6): the Raw pixel stream for a rectangle, passed through one
// persistent deflate stream and framed with a u32 compressed-length
// prefix. Grounded in the teacher's encoding_zlib.go, which kept one
// zlib.Resetter alive across rectangles for the same reason in reverse.
type ZlibEncoder struct {
	stream *PersistentDeflateStream
}

// NewZlibEncoder creates a Zlib encoder at the given deflate level (0-9).
func NewZlibEncoder(level int) (*ZlibEncoder, error) {
	s, err := NewPersistentDeflateStream(level)
	if err != nil {
		return nil, err
	}
	return &ZlibEncoder{stream: s}, nil
}

// Encode implements the Zlib encoding for one rectangle.
func (e *ZlibEncoder) Encode(rgba []byte, width, height int, pf PixelFormat) ([]byte, error) {
	const op = "zlib"
	if width <= 0 || height <= 0 || width > 0xFFFF || height > 0xFFFF {
		return nil, newErr(op, InvalidDimensions, nil)
	}
	if len(rgba) < width*height*4 {
		return nil, newErr(op, InputTooShort, nil)
	}
	if err := pf.validate(op); err != nil {
		return nil, err
	}

	raw, err := Translate(rgba, width, height, pf)
	if err != nil {
		return nil, err
	}
	compressed, err := e.stream.Compress(raw)
	if err != nil {
		return nil, newErr(op, CompressionFailure, err)
	}
	out := make([]byte, 0, 4+len(compressed))
	out = append(out, be32(uint32(len(compressed)))...)
	out = append(out, compressed...)
	return out, nil
}

// Reset starts Zlib's persistent stream over with a fresh dictionary.
func (e *ZlibEncoder) Reset(level int) error {
	return e.stream.Reset(level)
}
