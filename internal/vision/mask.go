package vision

const (
	Foreground uint8 = 255
	Background uint8 = 0
)

// Mask is a binary silhouette with the dimensions of the frame it came from.
// Pix is row-major, one byte per pixel.
type Mask struct {
	Width  int
	Height int
	Pix    []uint8
}

func NewMask(width, height int) *Mask {
	return &Mask{Width: width, Height: height, Pix: make([]uint8, width*height)}
}

func (m *Mask) At(x, y int) uint8 {
	return m.Pix[y*m.Width+x]
}

func (m *Mask) Set(x, y int, v uint8) {
	m.Pix[y*m.Width+x] = v
}

// FillRect marks columns [x0, x1] and rows [y0, y1] as foreground, clipped to the mask.
func (m *Mask) FillRect(x0, y0, x1, y1 int) {
	for y := max(y0, 0); y <= min(y1, m.Height-1); y++ {
		for x := max(x0, 0); x <= min(x1, m.Width-1); x++ {
			m.Set(x, y, Foreground)
		}
	}
}
