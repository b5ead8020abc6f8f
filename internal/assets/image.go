package assets

import (
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"image/png"
	"os"

	_ "image/gif" // register decoders for raw downloads

	xdraw "golang.org/x/image/draw"
)

const (
	avatarSize   = 160
	avatarRadius = 80
	thumbnailCap = 280
)

// RenderAvatar decodes the raw download, composites it into the fixed-size
// rounded mask and writes the result as PNG to dst.
func RenderAvatar(src, dst string) error {
	img, err := decodeFile(src)
	if err != nil {
		return err
	}

	scaled := image.NewRGBA(image.Rect(0, 0, avatarSize, avatarSize))
	xdraw.CatmullRom.Scale(scaled, scaled.Bounds(), img, img.Bounds(), xdraw.Over, nil)

	out := image.NewRGBA(image.Rect(0, 0, avatarSize, avatarSize))
	mask := &roundedMask{w: avatarSize, h: avatarSize, r: avatarRadius}
	draw.DrawMask(out, out.Bounds(), scaled, image.Point{}, mask, image.Point{}, draw.Over)

	return encodePNG(dst, out)
}

// RenderThumbnail decodes the raw download and scales it proportionally so
// the longer dimension lands on the thumbnail cap, writing JPEG to dst.
func RenderThumbnail(src, dst string) error {
	img, err := decodeFile(src)
	if err != nil {
		return err
	}

	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= 0 || h <= 0 {
		return os.ErrInvalid
	}

	var tw, th int
	if h > w {
		th = thumbnailCap
		tw = w * thumbnailCap / h
	} else {
		tw = thumbnailCap
		th = h * thumbnailCap / w
	}
	if tw < 1 {
		tw = 1
	}
	if th < 1 {
		th = 1
	}

	scaled := image.NewRGBA(image.Rect(0, 0, tw, th))
	xdraw.CatmullRom.Scale(scaled, scaled.Bounds(), img, b, xdraw.Over, nil)

	f, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	encErr := jpeg.Encode(f, scaled, &jpeg.Options{Quality: 85})
	if closeErr := f.Close(); closeErr != nil && encErr == nil {
		return closeErr
	}
	return encErr
}

func decodeFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	img, _, err := image.Decode(f)
	return img, err
}

func encodePNG(path string, img image.Image) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	encErr := png.Encode(f, img)
	if closeErr := f.Close(); closeErr != nil && encErr == nil {
		return closeErr
	}
	return encErr
}

// roundedMask is an alpha mask for a w×h rounded rectangle with corner
// radius r. With r = w/2 = h/2 it masks a circle.
type roundedMask struct {
	w, h, r int
}

func (m *roundedMask) ColorModel() color.Model { return color.AlphaModel }

func (m *roundedMask) Bounds() image.Rectangle { return image.Rect(0, 0, m.w, m.h) }

func (m *roundedMask) At(x, y int) color.Color {
	// Corner centers; the straight edges are fully opaque.
	cx, cy := x, y
	switch {
	case x < m.r && y < m.r:
		cx, cy = m.r, m.r
	case x >= m.w-m.r && y < m.r:
		cx, cy = m.w-m.r-1, m.r
	case x < m.r && y >= m.h-m.r:
		cx, cy = m.r, m.h-m.r-1
	case x >= m.w-m.r && y >= m.h-m.r:
		cx, cy = m.w-m.r-1, m.h-m.r-1
	default:
		return color.Alpha{A: 0xff}
	}

	dx, dy := float64(x-cx), float64(y-cy)
	d := dx*dx + dy*dy
	rr := float64(m.r)

	// 1px soft edge.
	outer := rr * rr
	inner := (rr - 1) * (rr - 1)
	switch {
	case d <= inner:
		return color.Alpha{A: 0xff}
	case d >= outer:
		return color.Alpha{A: 0}
	default:
		t := (outer - d) / (outer - inner)
		return color.Alpha{A: uint8(t * 0xff)}
	}
}
