//go:build rfbencode_nojpeg

package rfbencode

import "image"

func jpegAvailable() bool { return false }

func encodeJPEGBytes(img image.Image, quality int) ([]byte, error) {
	return nil, newErr("tight", CompressionFailure, nil)
}
