// Package testutil builds synthetic frames and video sources for tests.
package testutil

import (
	"context"
	"image"
	"image/color"
	"io"

	"github.com/DFP1305/pendulo/internal/domain/port"
)

var (
	Bright = color.RGBA{R: 230, G: 230, B: 230, A: 255}
	Dark   = color.RGBA{R: 20, G: 20, B: 20, A: 255}
)

// SolidFrame returns a frame filled with a single color.
func SolidFrame(width, height int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = c.A
	}
	return img
}

// DarkSquareFrame returns a bright frame with a dark square of side 2*half+1
// centered on (cx, cy).
func DarkSquareFrame(width, height, cx, cy, half int) *image.RGBA {
	img := SolidFrame(width, height, Bright)
	for y := cy - half; y <= cy+half; y++ {
		for x := cx - half; x <= cx+half; x++ {
			if image.Pt(x, y).In(img.Rect) {
				img.SetRGBA(x, y, Dark)
			}
		}
	}
	return img
}

// FakeSource replays a fixed list of frames.
type FakeSource struct {
	VideoInfo port.VideoInfo
	Frames    []image.Image
	Closed    int

	pos int
}

func (s *FakeSource) Info() port.VideoInfo { return s.VideoInfo }

func (s *FakeSource) Next() (image.Image, error) {
	if s.pos >= len(s.Frames) {
		return nil, io.EOF
	}
	f := s.Frames[s.pos]
	s.pos++
	return f, nil
}

func (s *FakeSource) Close() error {
	s.Closed++
	return nil
}

// FakeOpener hands out Source, or fails with Err.
type FakeOpener struct {
	Source *FakeSource
	Err    error
	Opened []string
}

func (o *FakeOpener) Open(_ context.Context, path string) (port.VideoSource, error) {
	o.Opened = append(o.Opened, path)
	if o.Err != nil {
		return nil, o.Err
	}
	return o.Source, nil
}
