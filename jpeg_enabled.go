//go:build !rfbencode_nojpeg

package rfbencode

import (
	"bytes"
	"image"
	"image/jpeg"
)

// jpegAvailable reports whether Tight may select JPEG mode. Building
// with -tags rfbencode_nojpeg disables it, matching §6's "turbojpeg"
// build-time option without changing the control-byte stream-reset
// semantics JPEG mode shares with every other mode.
func jpegAvailable() bool { return true }

func encodeJPEGBytes(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
