//go:build gocv

// Package opencv decodes and segments frames with OpenCV through gocv. It is
// compiled only with the gocv build tag since it needs the OpenCV libraries.
package opencv

import (
	"context"
	"fmt"
	"image"
	"io"

	"github.com/DFP1305/pendulo/internal/domain/entity"
	"github.com/DFP1305/pendulo/internal/domain/port"
	"gocv.io/x/gocv"
)

const (
	blurKernel = 5
	threshold  = 100
)

type Opener struct{}

func NewOpener() *Opener {
	return &Opener{}
}

func (o *Opener) Open(_ context.Context, videoPath string) (port.VideoSource, error) {
	vc, err := gocv.VideoCaptureFile(videoPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", entity.ErrSourceUnavailable, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, fmt.Errorf("%w: cannot open %s", entity.ErrSourceUnavailable, videoPath)
	}

	info := port.VideoInfo{
		FrameRate: vc.Get(gocv.VideoCaptureFPS),
		Width:     int(vc.Get(gocv.VideoCaptureFrameWidth)),
		Height:    int(vc.Get(gocv.VideoCaptureFrameHeight)),
	}
	return &Source{vc: vc, mat: gocv.NewMat(), info: info}, nil
}

type Source struct {
	vc   *gocv.VideoCapture
	mat  gocv.Mat
	info port.VideoInfo
}

func (s *Source) Info() port.VideoInfo {
	return s.info
}

func (s *Source) Next() (image.Image, error) {
	if ok := s.vc.Read(&s.mat); !ok || s.mat.Empty() {
		return nil, io.EOF
	}
	return s.mat.ToImage()
}

func (s *Source) Close() error {
	if err := s.mat.Close(); err != nil {
		return err
	}
	return s.vc.Close()
}

// Locator runs the same pipeline as vision.Locator with OpenCV primitives:
// BGR to gray, 5x5 Gaussian blur, inverted binary threshold, image moments.
type Locator struct{}

func NewLocator() *Locator {
	return &Locator{}
}

func (l *Locator) LocateX(frame image.Image) (int, error) {
	if frame.Bounds().Empty() {
		return 0, entity.ErrEmptyFrame
	}

	src, err := gocv.ImageToMatRGB(frame)
	if err != nil {
		return 0, fmt.Errorf("convert frame: %w", err)
	}
	defer src.Close()

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(src, &gray, gocv.ColorBGRToGray)

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(gray, &blurred, image.Pt(blurKernel, blurKernel), 0, 0, gocv.BorderDefault)

	mask := gocv.NewMat()
	defer mask.Close()
	gocv.Threshold(blurred, &mask, threshold, 255, gocv.ThresholdBinaryInv)

	m := gocv.Moments(mask, true)
	if m["m00"] == 0 {
		return 0, entity.ErrNoObjectDetected
	}
	return int(m["m10"] / m["m00"]), nil
}
