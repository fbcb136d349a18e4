package export

import (
	"image"
	"image/color"
	"math"

	"github.com/san-kum/ambient/internal/particles"
)

// Raster is an RGBA particles.Surface used for image and animation output.
type Raster struct {
	img        *image.RGBA
	background color.RGBA
}

func NewRaster(w, h int, background string) *Raster {
	if background == "" {
		background = DefaultBackground
	}
	r, g, b := particles.RGBA(background)
	rs := &Raster{
		img:        image.NewRGBA(image.Rect(0, 0, w, h)),
		background: color.RGBA{r, g, b, 255},
	}
	rs.Clear()
	return rs
}

func (r *Raster) Image() *image.RGBA { return r.img }

func (r *Raster) Size() (float64, float64) {
	b := r.img.Bounds()
	return float64(b.Dx()), float64(b.Dy())
}

func (r *Raster) Clear() {
	pix := r.img.Pix
	for i := 0; i < len(pix); i += 4 {
		pix[i], pix[i+1], pix[i+2], pix[i+3] = r.background.R, r.background.G, r.background.B, 255
	}
}

// FillCircle alpha-blends a disc over the current pixels. Circles smaller
// than a pixel still cover the pixel they fall in.
func (r *Raster) FillCircle(cx, cy, radius float64, token string, alpha float64) {
	if alpha <= 0 {
		return
	}
	alpha = math.Min(alpha, 1)
	cr, cg, cb := particles.RGBA(token)
	radius = math.Max(radius, 0.5)

	bounds := r.img.Bounds()
	x0, x1 := int(math.Floor(cx-radius)), int(math.Ceil(cx+radius))
	y0, y1 := int(math.Floor(cy-radius)), int(math.Ceil(cy+radius))
	r2 := radius * radius
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			if !(image.Point{x, y}).In(bounds) {
				continue
			}
			dx, dy := float64(x)+0.5-cx, float64(y)+0.5-cy
			if dx*dx+dy*dy > r2 && !(x == int(cx) && y == int(cy)) {
				continue
			}
			i := r.img.PixOffset(x, y)
			p := r.img.Pix[i : i+3 : i+3]
			p[0] = blend(p[0], cr, alpha)
			p[1] = blend(p[1], cg, alpha)
			p[2] = blend(p[2], cb, alpha)
		}
	}
}

func blend(dst, src uint8, a float64) uint8 {
	return uint8(math.Round(float64(dst)*(1-a) + float64(src)*a))
}
