package vision

import (
	"image"

	"github.com/disintegration/imaging"
)

const (
	// BlurSigma is the sigma OpenCV derives for a 5x5 kernel. imaging.Blur
	// truncates at radius ceil(3*sigma) = 4, so the applied kernel is 9x9.
	BlurSigma = 1.1
	// Threshold is the intensity at or below which a pixel belongs to the object.
	Threshold uint8 = 100
)

// Preprocess turns a color frame into a binary mask: grayscale, Gaussian blur,
// then an inverted fixed threshold so that dark pixels become foreground.
// The frame must not be empty.
func Preprocess(frame image.Image) *Mask {
	gray := imaging.Grayscale(frame)
	blurred := imaging.Blur(gray, BlurSigma)

	b := blurred.Bounds()
	mask := NewMask(b.Dx(), b.Dy())
	for y := 0; y < mask.Height; y++ {
		row := blurred.Pix[y*blurred.Stride:]
		for x := 0; x < mask.Width; x++ {
			if row[x*4] <= Threshold {
				mask.Set(x, y, Foreground)
			}
		}
	}
	return mask
}
