package export

import (
	"errors"
	"image"
	"image/color/palette"
	"image/gif"
	"io"
	"os"

	xdraw "golang.org/x/image/draw"
)

var ErrNoFrames = errors.New("export: no frames recorded")

// GIFRecorder accumulates paletted frames from a Raster.
type GIFRecorder struct {
	Delay int // hundredths of a second per frame
	Limit int // 0 keeps every frame

	frames []*image.Paletted
}

func NewGIFRecorder(delay, limit int) *GIFRecorder {
	return &GIFRecorder{Delay: delay, Limit: limit}
}

// Capture dithers the raster onto the Plan 9 palette. Once Limit frames are
// held the oldest is dropped.
func (g *GIFRecorder) Capture(r *Raster) {
	src := r.Image()
	dst := image.NewPaletted(src.Bounds(), palette.Plan9)
	xdraw.FloydSteinberg.Draw(dst, dst.Bounds(), src, image.Point{})

	g.frames = append(g.frames, dst)
	if g.Limit > 0 && len(g.frames) > g.Limit {
		g.frames = g.frames[1:]
	}
}

func (g *GIFRecorder) Len() int { return len(g.frames) }

func (g *GIFRecorder) Reset() { g.frames = nil }

func (g *GIFRecorder) Encode(w io.Writer) error {
	if len(g.frames) == 0 {
		return ErrNoFrames
	}
	anim := gif.GIF{LoopCount: 0}
	for _, frame := range g.frames {
		anim.Image = append(anim.Image, frame)
		anim.Delay = append(anim.Delay, g.Delay)
	}
	return gif.EncodeAll(w, &anim)
}

func (g *GIFRecorder) Save(path string) error {
	if len(g.frames) == 0 {
		return ErrNoFrames
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := g.Encode(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
