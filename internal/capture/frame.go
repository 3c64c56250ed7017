package capture

import (
	"errors"
	"fmt"

	"gocv.io/x/gocv"
)

// BytesPerPixel is the size of one BGR pixel.
const BytesPerPixel = 3

// ErrPayloadSize is returned when a frame payload does not match the
// configured dimensions.
var ErrPayloadSize = errors.New("incorrect byte data size")

// FrameSize describes the fixed geometry of incoming frames.
type FrameSize struct {
	Width  int
	Height int
}

// Bytes returns the exact payload length for one BGR frame.
func (s FrameSize) Bytes() int {
	return s.Width * s.Height * BytesPerPixel
}

// DecodeBGR turns a raw row-major BGR payload into a Mat. When mirror is set
// the image is flipped around its vertical axis. The caller must Close the
// returned Mat.
func DecodeBGR(payload []byte, size FrameSize, mirror bool) (*gocv.Mat, error) {
	if size.Width <= 0 || size.Height <= 0 {
		return nil, fmt.Errorf("invalid frame size %dx%d", size.Width, size.Height)
	}
	if len(payload) != size.Bytes() {
		return nil, fmt.Errorf("%w: %d (expected %d)", ErrPayloadSize, len(payload), size.Bytes())
	}

	mat, err := gocv.NewMatFromBytes(size.Height, size.Width, gocv.MatTypeCV8UC3, payload)
	if err != nil {
		return nil, fmt.Errorf("reshape frame: %w", err)
	}
	if mat.Empty() {
		mat.Close()
		return nil, errors.New("reshape frame: empty image")
	}

	if !mirror {
		return &mat, nil
	}

	flipped := Mirror(&mat)
	mat.Close()
	return flipped, nil
}

// Mirror returns a copy of src flipped around its vertical axis. The caller
// must Close both Mats.
func Mirror(src *gocv.Mat) *gocv.Mat {
	flipped := gocv.NewMat()
	gocv.Flip(*src, &flipped, 1)
	return &flipped
}
