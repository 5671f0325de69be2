package render

import (
	"image/color"

	"github.com/paulmach/orb"

	"github.com/beetlebugorg/shpdump/internal/feature"
)

// Style controls how a layer is drawn. Areas are filled and outlined, lines
// are stroked and points are drawn as squares.
type Style struct {
	Fill        color.Color
	Stroke      color.Color
	LineWidth   float64
	PointRadius float64
}

// DefaultStyle is used for layers without an explicit style.
func DefaultStyle() Style {
	return Style{
		Fill:        color.RGBA{R: 0xa6, G: 0xce, B: 0xe3, A: 0xff},
		Stroke:      color.RGBA{R: 0x1f, G: 0x4e, B: 0x79, A: 0xff},
		LineWidth:   1,
		PointRadius: 2,
	}
}

// Layer is a list of geometries drawn with one style.
type Layer struct {
	Name       string
	Style      Style
	Geometries []orb.Geometry
}

// NewLayer collects the geometry of every feature in c. Features without
// geometry are skipped.
func NewLayer(c *feature.Collection) *Layer {
	l := &Layer{Name: c.Schema.TypeName(), Style: DefaultStyle()}
	idx := c.Schema.Index(c.Schema.GeometryField)
	if idx < 0 {
		return l
	}
	for _, f := range c.Features {
		if g, ok := f.Value(idx).AsGeometry(); ok {
			l.Geometries = append(l.Geometries, g)
		}
	}
	return l
}

// Map is an ordered stack of layers. The first layer is drawn first.
type Map struct {
	Layers     []*Layer
	Background color.Color

	// Viewport restricts drawing to a region. The zero value draws the
	// bounds of all layers.
	Viewport Bounds
}

// NewMap returns a map with a white background.
func NewMap(layers ...*Layer) *Map {
	return &Map{Layers: layers, Background: color.White}
}
