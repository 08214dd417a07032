package imageprocessor

import (
	"bytes"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// Bounds is the largest box an image may occupy.
type Bounds struct {
	Width  int
	Height int
}

// AvatarBounds matches the transformation applied by hosted media backends.
var AvatarBounds = Bounds{Width: 1024, Height: 1024}

// Result is an encoded image ready for storage.
type Result struct {
	Data        []byte
	Width       int
	Height      int
	Format      string
	ContentType string
}

type Processor struct {
	quality int // JPEG quality (1-100)
}

func NewProcessor(quality int) *Processor {
	if quality <= 0 || quality > 100 {
		quality = 85
	}
	return &Processor{quality: quality}
}

// Fit scales the image down so it fits inside b, keeping the aspect ratio.
// Images already inside b are returned untouched. WEBP input is re-encoded as
// JPEG because there is no WEBP encoder.
func (p *Processor) Fit(data []byte, b Bounds) (*Result, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	if w <= b.Width && h <= b.Height && format != "webp" {
		return &Result{Data: data, Width: w, Height: h, Format: format, ContentType: contentType(format)}, nil
	}

	out := img
	if w > b.Width || h > b.Height {
		out = p.resize(img, b.Width, b.Height)
	}

	var buf bytes.Buffer
	outFormat := format
	switch format {
	case "png":
		err = png.Encode(&buf, out)
	case "gif":
		err = gif.Encode(&buf, out, nil)
	default:
		outFormat = "jpeg"
		err = jpeg.Encode(&buf, out, &jpeg.Options{Quality: p.quality})
	}
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", outFormat, err)
	}

	return &Result{
		Data:        buf.Bytes(),
		Width:       out.Bounds().Dx(),
		Height:      out.Bounds().Dy(),
		Format:      outFormat,
		ContentType: contentType(outFormat),
	}, nil
}

// resize keeps the aspect ratio.
func (p *Processor) resize(img image.Image, maxWidth, maxHeight int) image.Image {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	ratio := float64(width) / float64(height)
	newWidth := maxWidth
	newHeight := maxHeight

	if float64(maxWidth)/float64(maxHeight) > ratio {
		newWidth = int(float64(maxHeight) * ratio)
	} else {
		newHeight = int(float64(maxWidth) / ratio)
	}
	if newWidth < 1 {
		newWidth = 1
	}
	if newHeight < 1 {
		newHeight = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}

// Dimensions decodes only the header.
func Dimensions(data []byte) (width, height int, format string, err error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, "", fmt.Errorf("failed to decode image: %w", err)
	}
	return cfg.Width, cfg.Height, format, nil
}

func contentType(format string) string {
	switch format {
	case "png":
		return "image/png"
	case "gif":
		return "image/gif"
	case "webp":
		return "image/webp"
	default:
		return "image/jpeg"
	}
}
