//go:build gocv

package opencv

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/DFP1305/pendulo/internal/domain/entity"
	"github.com/DFP1305/pendulo/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocatorMatchesSquareCenter(t *testing.T) {
	x, err := NewLocator().LocateX(testutil.DarkSquareFrame(200, 120, 100, 60, 10))
	require.NoError(t, err)
	assert.Equal(t, 100, x)
}

func TestLocatorEmptyMask(t *testing.T) {
	_, err := NewLocator().LocateX(testutil.SolidFrame(64, 64, testutil.Bright))
	assert.ErrorIs(t, err, entity.ErrNoObjectDetected)
}

func TestOpenMissingFile(t *testing.T) {
	_, err := NewOpener().Open(context.Background(), filepath.Join(t.TempDir(), "missing.mp4"))
	assert.ErrorIs(t, err, entity.ErrSourceUnavailable)
}
