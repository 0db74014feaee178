package video

import (
	"testing"

	"github.com/DFP1305/pendulo/internal/infra/ffmpeg"
	"github.com/DFP1305/pendulo/internal/vision"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewDefaultsToFFmpeg(t *testing.T) {
	opener, locator, err := New(Options{}, zap.NewNop())
	require.NoError(t, err)

	assert.IsType(t, &ffmpeg.Opener{}, opener)
	assert.IsType(t, &vision.Locator{}, locator)
}

func TestNewUnknownBackend(t *testing.T) {
	_, _, err := New(Options{Backend: "vlc"}, zap.NewNop())
	assert.Error(t, err)
}
