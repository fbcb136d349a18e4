package particles

// Surface is a 2D raster the field draws onto.
type Surface interface {
	Clear()
	FillCircle(x, y, r float64, color string, alpha float64)
	Size() (w, h float64)
}

// Render clears s and draws every particle of the field.
func (f *Field) Render(s Surface) {
	Draw(s, f.Particles(), f.Bounds())
}

// Draw clears s and paints ps, scaling field coordinates in b onto the
// surface size. Life becomes the fill alpha.
func Draw(s Surface, ps []Particle, b Bounds) {
	s.Clear()
	w, h := s.Size()
	if b.Empty() || w <= 0 || h <= 0 {
		return
	}
	sx, sy := w/b.Width, h/b.Height
	scale := (sx + sy) / 2
	for _, p := range ps {
		s.FillCircle(p.X*sx, p.Y*sy, p.Radius*scale, p.Color, p.Life)
	}
}
