package loaders

import (
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/cockroachdb/errors"
	"golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

type ImageLoader struct {
	// FlipY mirrors the rows so the first row in memory is the bottom of the picture.
	FlipY bool
}

func (il *ImageLoader) Load(path string) (interface{}, error) {
	return il.Decode(path)
}

// Decode reads any registered format and returns tightly packed RGBA8 pixels.
func (il *ImageLoader) Decode(path string) (*image.RGBA, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, errors.Wrapf(err, "decoding %s", path)
	}

	rgba := ToRGBA(img)
	if il.FlipY {
		flipRows(rgba)
	}
	return rgba, nil
}

// DecodeImage is the default decoder handed to the renderer.
func DecodeImage(path string) (*image.RGBA, error) {
	return (&ImageLoader{}).Decode(path)
}

// ToRGBA converts img to an RGBA image whose bounds start at the origin. An image that is
// already in that shape is returned as is.
func ToRGBA(img image.Image) *image.RGBA {
	bounds := img.Bounds()
	if rgba, ok := img.(*image.RGBA); ok && bounds.Min == (image.Point{}) && rgba.Stride == bounds.Dx()*4 {
		return rgba
	}
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	return rgba
}

func flipRows(img *image.RGBA) {
	h := img.Bounds().Dy()
	row := make([]byte, img.Stride)
	for y := 0; y < h/2; y++ {
		top := img.Pix[y*img.Stride : (y+1)*img.Stride]
		bottom := img.Pix[(h-1-y)*img.Stride : (h-y)*img.Stride]
		copy(row, top)
		copy(top, bottom)
		copy(bottom, row)
	}
}
