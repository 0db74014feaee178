// Package video picks the decoder and locator implementation for a run.
package video

import (
	"fmt"

	"github.com/DFP1305/pendulo/internal/domain/port"
	"github.com/DFP1305/pendulo/internal/infra/ffmpeg"
	"github.com/DFP1305/pendulo/internal/vision"
	"go.uber.org/zap"
)

const (
	BackendFFmpeg = "ffmpeg"
	BackendOpenCV = "opencv"
)

type Options struct {
	Backend    string
	FFmpegBin  string
	FFprobeBin string
}

// New returns the opener and locator for the configured backend.
func New(opts Options, logger *zap.Logger) (port.VideoOpener, port.ObjectLocator, error) {
	switch opts.Backend {
	case "", BackendFFmpeg:
		return ffmpeg.NewOpener(opts.FFmpegBin, opts.FFprobeBin, logger), vision.NewLocator(), nil
	case BackendOpenCV:
		return newOpenCV()
	default:
		return nil, nil, fmt.Errorf("unknown video backend %q", opts.Backend)
	}
}
