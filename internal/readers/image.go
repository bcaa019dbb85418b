package readers

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"os"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ImageExtensions are the extensions the image reader handles out of the box.
var ImageExtensions = []string{"png", "jpg", "jpeg", "gif", "bmp", "tiff", "tif", "webp"}

const probeDimension = 16

// ImageReader decodes images into a flat RGBA pixel buffer.
type ImageReader struct {
	*extensionSet
}

func NewImageReader() *ImageReader {
	return &ImageReader{extensionSet: newExtensionSet("image", ImageExtensions)}
}

func (r *ImageReader) Read(path string) (Content, error) {
	if err := r.check(path); err != nil {
		return Content{}, err
	}
	return r.read(path)
}

func (r *ImageReader) read(path string) (Content, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Content{}, fmt.Errorf("read image %s: %w", path, err)
	}
	pixels, err := decodePixels(data)
	if err != nil {
		return Content{}, fmt.Errorf("decode image %s: %w", path, err)
	}
	return Content{Path: path, Reader: r.name, Raw: data, View: pixels}, nil
}

func (r *ImageReader) ReadBatch(paths []string) ([]Content, error) {
	return readBatch(r, paths)
}

// Validate succeeds only for extensions with a known encoder, mirroring how
// an image library picks its output format from the file name.
func (r *ImageReader) Validate(ext string) bool {
	encode, ok := encoderFor(NormalizeExtension(ext))
	if !ok {
		return false
	}
	return withScratchFile(NormalizeExtension(ext),
		func(path string) error {
			file, err := os.Create(path)
			if err != nil {
				return err
			}
			img := image.NewRGBA(image.Rect(0, 0, probeDimension, probeDimension))
			draw.Draw(img, img.Bounds(), &image.Uniform{C: color.Black}, image.Point{}, draw.Src)
			if err := encode(file, img); err != nil {
				_ = file.Close()
				return err
			}
			return file.Close()
		},
		func(path string) error {
			_, err := r.read(path)
			return err
		},
	)
}

func (r *ImageReader) Extend(exts ...string) []string {
	return extend(r, r.add, exts)
}

func encoderFor(ext string) (func(io.Writer, image.Image) error, bool) {
	switch ext {
	case "png":
		return png.Encode, true
	case "jpg", "jpeg":
		return func(w io.Writer, img image.Image) error { return jpeg.Encode(w, img, nil) }, true
	case "gif":
		return func(w io.Writer, img image.Image) error { return gif.Encode(w, img, nil) }, true
	case "bmp":
		return bmp.Encode, true
	case "tif", "tiff":
		return func(w io.Writer, img image.Image) error { return tiff.Encode(w, img, nil) }, true
	default:
		return nil, false
	}
}

func decodePixels(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, errors.New("empty image")
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if rgba, ok := img.(*image.RGBA); ok && rgba.Rect.Min == (image.Point{}) && rgba.Stride == 4*rgba.Rect.Dx() {
		return rgba.Pix, nil
	}
	bounds := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	return rgba.Pix, nil
}
