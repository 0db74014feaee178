//go:build gocv

package video

import (
	"github.com/DFP1305/pendulo/internal/domain/port"
	"github.com/DFP1305/pendulo/internal/infra/opencv"
)

func newOpenCV() (port.VideoOpener, port.ObjectLocator, error) {
	return opencv.NewOpener(), opencv.NewLocator(), nil
}
