package port

import (
	"context"
	"image"
)

// VideoInfo describes the stream as stored. Rotation is the display rotation
// in degrees recorded in the container; decoders deliver unrotated frames.
type VideoInfo struct {
	FrameRate float64
	Width     int
	Height    int
	Rotation  int
}

// VideoSource yields decoded frames in stream order. Next returns io.EOF once
// the stream is exhausted. The returned image is only valid until the next call.
type VideoSource interface {
	Info() VideoInfo
	Next() (image.Image, error)
	Close() error
}

type VideoOpener interface {
	Open(ctx context.Context, path string) (VideoSource, error)
}

// ObjectLocator returns the horizontal pixel coordinate of the tracked object
// in a frame, or entity.ErrNoObjectDetected.
type ObjectLocator interface {
	LocateX(frame image.Image) (int, error)
}
