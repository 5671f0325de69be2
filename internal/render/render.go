// Package render draws feature layers into a raster preview image.
package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"io"
	"math"

	"github.com/paulmach/orb"
	"golang.org/x/image/vector"
)

const (
	// MaxDimension bounds both sides of a rendered image.
	MaxDimension = 16384
	marginRatio  = 0.02
)

// Render draws m into an image width pixels wide and encodes it to w. The
// height follows the aspect ratio of the viewport; degenerate spans yield a
// square image. A viewport too narrow for MaxDimension rows is widened
// around its centre so both axes keep the same scale.
func Render(m *Map, w io.Writer, width int, format Format) error {
	if width <= 0 || width > MaxDimension {
		return fmt.Errorf("invalid image width %d", width)
	}

	idx := buildIndex(m.Layers)
	view := m.Viewport
	if view == (Bounds{}) {
		view = idx.bounds
	}
	view, height := fit(pad(view), width)

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	bg := m.Background
	if bg == nil {
		bg = color.White
	}
	draw.Draw(img, img.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)

	p := &painter{
		img:  img,
		ras:  vector.NewRasterizer(width, height),
		view: view,
		sx:   float64(width) / view.Width(),
		sy:   float64(height) / view.Height(),
	}
	entries := idx.query(view)
	for start := 0; start < len(entries); {
		end := start
		for end < len(entries) && entries[end].layer == entries[start].layer {
			end++
		}
		l := m.Layers[entries[start].layer]
		geoms := make([]orb.Geometry, 0, end-start)
		for _, e := range entries[start:end] {
			geoms = append(geoms, l.Geometries[e.pos])
		}
		p.drawLayer(l.Style, geoms)
		start = end
	}
	return encode(w, img, format)
}

// pad adds a margin proportional to each span, keeping the aspect ratio.
// Degenerate boxes get the same margin on both axes.
func pad(b Bounds) Bounds {
	mx, my := b.Width()*marginRatio, b.Height()*marginRatio
	if mx == 0 || my == 0 {
		m := max(mx, my)
		if m == 0 {
			m = 0.5
		}
		return b.Expand(m)
	}
	return Bounds{
		MinX: b.MinX - mx,
		MaxX: b.MaxX + mx,
		MinY: b.MinY - my,
		MaxY: b.MaxY + my,
	}
}

// fit returns the image height for view at width, widening view when the
// height would exceed MaxDimension.
func fit(view Bounds, width int) (Bounds, int) {
	if view.Width() <= 0 || view.Height() <= 0 {
		return view, width
	}
	h := int(math.Round(float64(width) * view.Height() / view.Width()))
	if h <= MaxDimension {
		return view, max(h, 1)
	}
	half := view.Height() * float64(width) / MaxDimension / 2
	cx := (view.MinX + view.MaxX) / 2
	view.MinX, view.MaxX = cx-half, cx+half
	return view, MaxDimension
}

type painter struct {
	img    *image.RGBA
	ras    *vector.Rasterizer
	view   Bounds
	sx, sy float64
}

func (p *painter) xy(pt orb.Point) (float32, float32) {
	return float32((pt[0] - p.view.MinX) * p.sx), float32((p.view.MaxY - pt[1]) * p.sy)
}

func (p *painter) drawLayer(style Style, geoms []orb.Geometry) {
	def := DefaultStyle()
	if style.Fill == nil {
		style.Fill = def.Fill
	}
	if style.Stroke == nil {
		style.Stroke = def.Stroke
	}
	if style.LineWidth <= 0 {
		style.LineWidth = def.LineWidth
	}
	if style.PointRadius <= 0 {
		style.PointRadius = def.PointRadius
	}

	var areas []orb.Polygon
	var lines []orb.LineString
	var points []orb.Point
	for _, g := range geoms {
		collect(g, &areas, &lines, &points)
	}

	if len(areas) > 0 {
		p.reset()
		for _, poly := range areas {
			for i, ring := range poly {
				p.ring(ring, i == 0)
			}
		}
		p.fill(style.Fill)
	}

	if len(areas) > 0 || len(lines) > 0 {
		p.reset()
		for _, poly := range areas {
			for _, ring := range poly {
				p.stroke(ring, style.LineWidth)
			}
		}
		for _, ls := range lines {
			p.stroke(ls, style.LineWidth)
		}
		p.fill(style.Stroke)
	}

	if len(points) > 0 {
		p.reset()
		for _, pt := range points {
			if !p.view.Contains(pt[0], pt[1]) {
				continue
			}
			p.square(pt, style.PointRadius)
		}
		p.fill(style.Stroke)
	}
}

func collect(g orb.Geometry, areas *[]orb.Polygon, lines *[]orb.LineString, points *[]orb.Point) {
	switch v := g.(type) {
	case orb.Point:
		*points = append(*points, v)
	case orb.MultiPoint:
		*points = append(*points, v...)
	case orb.LineString:
		*lines = append(*lines, v)
	case orb.MultiLineString:
		*lines = append(*lines, v...)
	case orb.Ring:
		*areas = append(*areas, orb.Polygon{v})
	case orb.Polygon:
		*areas = append(*areas, v)
	case orb.MultiPolygon:
		*areas = append(*areas, v...)
	case orb.Collection:
		for _, c := range v {
			collect(c, areas, lines, points)
		}
	}
}

func (p *painter) reset() {
	b := p.img.Bounds()
	p.ras.Reset(b.Dx(), b.Dy())
}

func (p *painter) fill(c color.Color) {
	p.ras.Draw(p.img, p.img.Bounds(), image.NewUniform(c), image.Point{})
}

// ring adds r to the fill path. Outer rings and holes are wound in opposite
// directions so that holes cancel out.
func (p *painter) ring(r orb.Ring, outer bool) {
	if len(r) < 3 {
		return
	}
	reverse := (r.Orientation() == orb.CCW) != outer
	for i := range r {
		pt := r[i]
		if reverse {
			pt = r[len(r)-1-i]
		}
		x, y := p.xy(pt)
		if i == 0 {
			p.ras.MoveTo(x, y)
		} else {
			p.ras.LineTo(x, y)
		}
	}
	p.ras.ClosePath()
}

// stroke adds one quad per segment. Every quad has the same winding, so
// overlapping segments never cancel.
func (p *painter) stroke(pts []orb.Point, width float64) {
	half := float32(width / 2)
	for i := 1; i < len(pts); i++ {
		ax, ay := p.xy(pts[i-1])
		bx, by := p.xy(pts[i])
		dx, dy := bx-ax, by-ay
		length := float32(math.Hypot(float64(dx), float64(dy)))
		if length == 0 {
			continue
		}
		nx, ny := -dy/length*half, dx/length*half
		p.ras.MoveTo(ax+nx, ay+ny)
		p.ras.LineTo(bx+nx, by+ny)
		p.ras.LineTo(bx-nx, by-ny)
		p.ras.LineTo(ax-nx, ay-ny)
		p.ras.ClosePath()
	}
}

func (p *painter) square(pt orb.Point, radius float64) {
	x, y := p.xy(pt)
	r := float32(radius)
	p.ras.MoveTo(x-r, y-r)
	p.ras.LineTo(x+r, y-r)
	p.ras.LineTo(x+r, y+r)
	p.ras.LineTo(x-r, y+r)
	p.ras.ClosePath()
}
