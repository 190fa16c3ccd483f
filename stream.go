package rfbencode

import (
	"bytes"

	"github.com/klauspost/compress/zlib"
)

// PersistentDeflateStream is a compression context whose sliding window
// and Huffman tables survive across calls, the way the teacher's decode
// side kept one zlib.Resetter alive per encoding across rectangles
// (encoding_zlib.go, encoding_zrle.go). On the encode side the same
// *zlib.Writer is reused for the session's lifetime; only its output
// buffer is drained between calls, so the compressor's dictionary keeps
// accumulating context from rectangle to rectangle.
type PersistentDeflateStream struct {
	buf *bytes.Buffer
	zw  *zlib.Writer
}

// NewPersistentDeflateStream creates a stream at the given deflate level
// (0-9). Level 0 is valid and must still produce a well-formed deflate
// stream per §4.8.
func NewPersistentDeflateStream(level int) (*PersistentDeflateStream, error) {
	buf := &bytes.Buffer{}
	zw, err := zlib.NewWriterLevel(buf, level)
	if err != nil {
		return nil, newErr("stream", CompressionFailure, err)
	}
	return &PersistentDeflateStream{buf: buf, zw: zw}, nil
}

// Compress feeds data through the stream and returns the bytes produced
// by a sync flush: the decoder-observable boundary a conforming RFB
// client consumes as an exact prefix. The stream's dictionary persists
// for the next call.
func (s *PersistentDeflateStream) Compress(data []byte) ([]byte, error) {
	s.buf.Reset()
	if _, err := s.zw.Write(data); err != nil {
		return nil, newErr("stream", CompressionFailure, err)
	}
	if err := s.zw.Flush(); err != nil {
		return nil, newErr("stream", CompressionFailure, err)
	}
	out := make([]byte, s.buf.Len())
	copy(out, s.buf.Bytes())
	return out, nil
}

// Reset discards the stream's accumulated dictionary and starts a fresh
// deflate stream at the given compression level, mirroring a Tight
// compression-control reset bit (§4.8) or an explicit session reset.
func (s *PersistentDeflateStream) Reset(level int) error {
	s.buf.Reset()
	zw, err := zlib.NewWriterLevel(s.buf, level)
	if err != nil {
		return newErr("stream", CompressionFailure, err)
	}
	s.zw = zw
	return nil
}

// TightCompressorSet holds the four independent persistent deflate
// streams Tight subencodings select between (§3, "TightCompressorSet").
// The mapping from subencoding to stream index is fixed for the session:
// basic/copy -> 0, mono -> 1, indexed -> 2, gradient -> 3.
type TightCompressorSet struct {
	streams [4]*PersistentDeflateStream
}

const (
	tightStreamBasic    = 0
	tightStreamMono     = 1
	tightStreamIndexed  = 2
	tightStreamGradient = 3
)

// NewTightCompressorSet creates the four streams at the given level.
func NewTightCompressorSet(level int) (*TightCompressorSet, error) {
	var set TightCompressorSet
	for i := range set.streams {
		s, err := NewPersistentDeflateStream(level)
		if err != nil {
			return nil, err
		}
		set.streams[i] = s
	}
	return &set, nil
}

// Compress runs data through the given stream index (0-3).
func (t *TightCompressorSet) Compress(streamIdx int, data []byte) ([]byte, error) {
	return t.streams[streamIdx].Compress(data)
}

// Reset resets the given stream index to a fresh dictionary at level.
func (t *TightCompressorSet) Reset(streamIdx, level int) error {
	return t.streams[streamIdx].Reset(level)
}
