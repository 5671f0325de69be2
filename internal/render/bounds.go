package render

import "github.com/paulmach/orb"

// Bounds is an axis-aligned box in data coordinates.
type Bounds struct {
	MinX float64
	MaxX float64
	MinY float64
	MaxY float64
}

// BoundsOf returns the bounding box of g and false for nil or empty geometry.
func BoundsOf(g orb.Geometry) (Bounds, bool) {
	if g == nil || isEmpty(g) {
		return Bounds{}, false
	}
	b := g.Bound()
	return Bounds{MinX: b.Min[0], MaxX: b.Max[0], MinY: b.Min[1], MaxY: b.Max[1]}, true
}

func isEmpty(g orb.Geometry) bool {
	switch v := g.(type) {
	case orb.Point:
		return false
	case orb.MultiPoint:
		return len(v) == 0
	case orb.LineString:
		return len(v) == 0
	case orb.MultiLineString:
		return len(v) == 0
	case orb.Ring:
		return len(v) == 0
	case orb.Polygon:
		return len(v) == 0
	case orb.MultiPolygon:
		return len(v) == 0
	case orb.Collection:
		return len(v) == 0
	default:
		return false
	}
}

// Width is the horizontal span.
func (b Bounds) Width() float64 { return b.MaxX - b.MinX }

// Height is the vertical span.
func (b Bounds) Height() float64 { return b.MaxY - b.MinY }

// Contains reports whether (x, y) lies within b, edges included.
func (b Bounds) Contains(x, y float64) bool {
	return x >= b.MinX && x <= b.MaxX &&
		y >= b.MinY && y <= b.MaxY
}

// Intersects reports whether b and other overlap or touch.
func (b Bounds) Intersects(other Bounds) bool {
	return !(other.MaxX < b.MinX ||
		other.MinX > b.MaxX ||
		other.MaxY < b.MinY ||
		other.MinY > b.MaxY)
}

// Expand returns b grown by margin on every side.
func (b Bounds) Expand(margin float64) Bounds {
	return Bounds{
		MinX: b.MinX - margin,
		MaxX: b.MaxX + margin,
		MinY: b.MinY - margin,
		MaxY: b.MaxY + margin,
	}
}

// Union returns the smallest box containing both b and other.
func (b Bounds) Union(other Bounds) Bounds {
	return Bounds{
		MinX: min(b.MinX, other.MinX),
		MaxX: max(b.MaxX, other.MaxX),
		MinY: min(b.MinY, other.MinY),
		MaxY: max(b.MaxY, other.MaxY),
	}
}
