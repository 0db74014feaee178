package ffmpeg

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/DFP1305/pendulo/internal/domain/entity"
	"github.com/DFP1305/pendulo/internal/vision"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func requireFFmpeg(t *testing.T) {
	t.Helper()
	for _, bin := range []string{"ffmpeg", "ffprobe"} {
		if _, err := exec.LookPath(bin); err != nil {
			t.Skipf("%s not found in PATH", bin)
		}
	}
}

// makeVideo renders a white clip with a black box whose left edge is at boxX.
func makeVideo(t *testing.T, frames int, boxX int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clip.mkv")
	cmd := exec.Command("ffmpeg", "-v", "error", "-y",
		"-f", "lavfi",
		"-i", "color=c=white:s=200x120:r=30",
		"-frames:v", itoa(frames),
		"-vf", "drawbox=x="+itoa(boxX)+":y=40:w=21:h=21:color=black:t=fill",
		"-pix_fmt", "yuv444p",
		"-c:v", "ffv1",
		path,
	)
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, string(out))
	return path
}

func itoa(n int) string {
	return fmt.Sprint(n)
}

func TestOpenMissingFile(t *testing.T) {
	o := NewOpener("", "", zap.NewNop())

	_, err := o.Open(context.Background(), filepath.Join(t.TempDir(), "nope.mp4"))
	assert.ErrorIs(t, err, entity.ErrSourceUnavailable)
}

func TestOpenNotAVideo(t *testing.T) {
	requireFFmpeg(t)
	path := filepath.Join(t.TempDir(), "notes.mp4")
	require.NoError(t, os.WriteFile(path, []byte("not a video"), 0644))

	_, err := NewOpener("", "", zap.NewNop()).Open(context.Background(), path)
	assert.ErrorIs(t, err, entity.ErrSourceUnavailable)
}

func TestSourceDecodesAllFrames(t *testing.T) {
	requireFFmpeg(t)
	path := makeVideo(t, 12, 90)

	src, err := NewOpener("", "", zap.NewNop()).Open(context.Background(), path)
	require.NoError(t, err)

	info := src.Info()
	assert.Equal(t, 30.0, info.FrameRate)
	assert.Equal(t, 200, info.Width)
	assert.Equal(t, 120, info.Height)

	loc := vision.NewLocator()
	count := 0
	for {
		frame, err := src.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		count++

		x, err := loc.LocateX(frame)
		require.NoError(t, err)
		assert.InDelta(t, 100, x, 1)
	}
	assert.Equal(t, 12, count)
	assert.NoError(t, src.Close())
	assert.NoError(t, src.Close())
}

func TestSourceCloseBeforeEnd(t *testing.T) {
	requireFFmpeg(t)
	path := makeVideo(t, 60, 10)

	src, err := NewOpener("", "", zap.NewNop()).Open(context.Background(), path)
	require.NoError(t, err)

	_, err = src.Next()
	require.NoError(t, err)
	assert.NoError(t, src.Close())

	_, err = src.Next()
	assert.Equal(t, io.EOF, err)
}
