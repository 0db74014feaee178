//go:build !gocv

package video

import (
	"errors"

	"github.com/DFP1305/pendulo/internal/domain/port"
)

func newOpenCV() (port.VideoOpener, port.ObjectLocator, error) {
	return nil, nil, errors.New("opencv backend requires building with -tags gocv")
}
