package ffmpeg

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/DFP1305/pendulo/internal/domain/entity"
	"github.com/DFP1305/pendulo/internal/domain/port"
	"go.uber.org/zap"
)

// Opener decodes videos by piping raw RGBA frames out of an ffmpeg process.
type Opener struct {
	ffmpegBin  string
	ffprobeBin string
	logger     *zap.Logger
}

func NewOpener(ffmpegBin, ffprobeBin string, logger *zap.Logger) *Opener {
	if ffmpegBin == "" {
		ffmpegBin = "ffmpeg"
	}
	if ffprobeBin == "" {
		ffprobeBin = "ffprobe"
	}
	return &Opener{ffmpegBin: ffmpegBin, ffprobeBin: ffprobeBin, logger: logger}
}

func (o *Opener) Open(ctx context.Context, videoPath string) (port.VideoSource, error) {
	if _, err := os.Stat(videoPath); err != nil {
		return nil, fmt.Errorf("%w: %w", entity.ErrSourceUnavailable, err)
	}

	info, err := o.Probe(ctx, videoPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", entity.ErrSourceUnavailable, err)
	}
	if info.Width <= 0 || info.Height <= 0 {
		return nil, fmt.Errorf("%w: stream reports %dx%d", entity.ErrSourceUnavailable, info.Width, info.Height)
	}

	cmd := exec.CommandContext(ctx, o.ffmpegBin, decodeArgs(videoPath)...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: stdout pipe: %w", entity.ErrSourceUnavailable, err)
	}
	src := &Source{cmd: cmd, info: info}
	cmd.Stderr = &src.stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: start ffmpeg: %w", entity.ErrSourceUnavailable, err)
	}

	frameSize := info.Width * info.Height * 4
	src.reader = bufio.NewReaderSize(stdout, frameSize)
	src.frame = image.NewRGBA(image.Rect(0, 0, info.Width, info.Height))

	o.logger.Debug("ffmpeg decoder started",
		zap.String("video", videoPath),
		zap.Int("pid", cmd.Process.Pid),
		zap.Int("rotation", info.Rotation),
	)
	return src, nil
}

// decodeArgs streams the first video track as raw RGBA. Autorotation is off so
// frames keep the stored dimensions that Probe reports.
func decodeArgs(videoPath string) []string {
	return []string{
		"-v", "error",
		"-nostdin",
		"-noautorotate",
		"-i", videoPath,
		"-map", "0:v:0",
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"-",
	}
}

// Source is one running ffmpeg decoder. Frames share a single buffer.
type Source struct {
	cmd    *exec.Cmd
	reader *bufio.Reader
	stderr bytes.Buffer
	info   port.VideoInfo
	frame  *image.RGBA
	eof    bool
	closed bool
}

func (s *Source) Info() port.VideoInfo {
	return s.info
}

func (s *Source) Next() (image.Image, error) {
	if s.eof || s.closed {
		return nil, io.EOF
	}
	if _, err := io.ReadFull(s.reader, s.frame.Pix); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			s.eof = true
			return nil, io.EOF
		}
		return nil, fmt.Errorf("read frame: %w", err)
	}
	return s.frame, nil
}

// Close stops the decoder if it is still running and reaps the process.
func (s *Source) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	if !s.eof {
		_ = s.cmd.Process.Kill()
		_ = s.cmd.Wait()
		return nil
	}
	if err := s.cmd.Wait(); err != nil {
		return fmt.Errorf("ffmpeg: %w: %s", err, strings.TrimSpace(s.stderr.String()))
	}
	return nil
}
