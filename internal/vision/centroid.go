package vision

import (
	"image"

	"github.com/DFP1305/pendulo/internal/domain/entity"
)

// Moments returns the zeroth moment (foreground mass) and the first moment
// along the horizontal axis.
func Moments(m *Mask) (m00, m10 float64) {
	for y := 0; y < m.Height; y++ {
		row := m.Pix[y*m.Width : (y+1)*m.Width]
		for x, v := range row {
			if v == Background {
				continue
			}
			w := float64(v)
			m00 += w
			m10 += w * float64(x)
		}
	}
	return m00, m10
}

// CentroidX returns the horizontal centroid of the mask truncated to a whole
// pixel, or entity.ErrNoObjectDetected when the mask has no foreground.
func CentroidX(m *Mask) (int, error) {
	m00, m10 := Moments(m)
	if m00 == 0 {
		return 0, entity.ErrNoObjectDetected
	}
	return int(m10 / m00), nil
}

// Locator is the pure-Go object locator.
type Locator struct{}

func NewLocator() *Locator {
	return &Locator{}
}

func (l *Locator) LocateX(frame image.Image) (int, error) {
	if frame.Bounds().Empty() {
		return 0, entity.ErrEmptyFrame
	}
	return CentroidX(Preprocess(frame))
}
