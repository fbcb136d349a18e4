package export

import (
	"image"
	"image/color"
	"image/png"
	"io"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const captionMargin = 6

// PNG writes the raster scaled by scale (values below 1 are treated as 1)
// with an optional caption in the bottom-left corner.
func PNG(w io.Writer, r *Raster, scale int, caption string) error {
	src := r.Image()
	if scale < 1 {
		scale = 1
	}
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx()*scale, b.Dy()*scale))
	xdraw.NearestNeighbor.Scale(dst, dst.Bounds(), src, b, xdraw.Src, nil)

	if caption != "" {
		drawCaption(dst, caption)
	}
	return png.Encode(w, dst)
}

func drawCaption(img *image.RGBA, text string) {
	face := basicfont.Face7x13
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.RGBA{0xe5, 0xe7, 0xeb, 0xff}),
		Face: face,
	}
	y := img.Bounds().Dy() - captionMargin - face.Descent
	d.Dot = fixed.Point26_6{
		X: fixed.I(captionMargin),
		Y: fixed.I(y),
	}
	d.DrawString(text)
}
