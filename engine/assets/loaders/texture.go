package loaders

import (
	"image"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/cockroachdb/errors"
	_ "golang.org/x/image/bmp"
)

// ImageData is a decoded texture in the tightly packed RGBA layout the
// renderer uploads.
type ImageData struct {
	Pixels []byte
	Width  uint32
	Height uint32
}

// TextureLoader decodes PNG, JPEG and BMP files.
type TextureLoader struct{}

func (TextureLoader) Load(path string) (*ImageData, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening texture %s", path)
	}
	defer f.Close()

	decoded, _, err := image.Decode(f)
	if err != nil {
		return nil, errors.Wrapf(err, "decoding texture %s", path)
	}

	bounds := decoded.Bounds()
	rgba := image.NewRGBA(bounds)
	draw.Draw(rgba, bounds, decoded, bounds.Min, draw.Src)

	return &ImageData{
		Pixels: rgba.Pix,
		Width:  uint32(bounds.Dx()),
		Height: uint32(bounds.Dy()),
	}, nil
}
