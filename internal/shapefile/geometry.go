package shapefile

import (
	"fmt"
	"slices"

	"github.com/jonas-p/go-shp"
	"github.com/paulmach/orb"
)

// toGeometry converts a shapefile shape to an orb geometry. Lines are always
// returned as MultiLineString and areas as MultiPolygon. Empty shapes yield nil.
func toGeometry(s shp.Shape) (orb.Geometry, error) {
	switch v := s.(type) {
	case nil, *shp.Null:
		return nil, nil
	case *shp.Point:
		return orb.Point{v.X, v.Y}, nil
	case *shp.PointZ:
		return orb.Point{v.X, v.Y}, nil
	case *shp.PointM:
		return orb.Point{v.X, v.Y}, nil
	case *shp.MultiPoint:
		if len(v.Points) == 0 {
			return nil, nil
		}
		mp := make(orb.MultiPoint, len(v.Points))
		for i, p := range v.Points {
			mp[i] = orb.Point{p.X, p.Y}
		}
		return mp, nil
	case *shp.PolyLine:
		return lines(v.Parts, v.Points), nil
	case *shp.PolyLineZ:
		return lines(v.Parts, v.Points), nil
	case *shp.Polygon:
		return polygons(v.Parts, v.Points), nil
	case *shp.PolygonZ:
		return polygons(v.Parts, v.Points), nil
	default:
		return nil, fmt.Errorf("unsupported shape %T", s)
	}
}

// splitParts slices points into parts using the part start offsets.
func splitParts(parts []int32, points []shp.Point) [][]orb.Point {
	out := make([][]orb.Point, 0, len(parts))
	for i, start := range parts {
		end := int32(len(points))
		if i+1 < len(parts) {
			end = parts[i+1]
		}
		if start < 0 || start > end || int(end) > len(points) {
			continue
		}
		part := make([]orb.Point, 0, end-start)
		for _, p := range points[start:end] {
			part = append(part, orb.Point{p.X, p.Y})
		}
		out = append(out, part)
	}
	return out
}

func lines(parts []int32, points []shp.Point) orb.Geometry {
	split := splitParts(parts, points)
	if len(split) == 0 {
		return nil
	}
	mls := make(orb.MultiLineString, len(split))
	for i, p := range split {
		mls[i] = orb.LineString(p)
	}
	return mls
}

// polygons groups rings: a clockwise ring starts a polygon, counter-clockwise
// rings are holes of the preceding polygon.
func polygons(parts []int32, points []shp.Point) orb.Geometry {
	var mp orb.MultiPolygon
	for _, p := range splitParts(parts, points) {
		ring := orb.Ring(p)
		if ring.Orientation() == orb.CCW && len(mp) > 0 {
			last := len(mp) - 1
			mp[last] = append(mp[last], ring)
			continue
		}
		mp = append(mp, orb.Polygon{ring})
	}
	if len(mp) == 0 {
		return nil
	}
	return mp
}

// shapeType picks the shapefile type able to hold every geometry of the
// layer. Layers without geometry are written as NULL shapes. A point layer
// with missing geometries becomes MULTIPOINT, which has an empty form.
func shapeType(geoms []orb.Geometry) (shp.ShapeType, error) {
	var points, multiPoints, lines, areas, missing bool
	for _, g := range geoms {
		switch g.(type) {
		case nil:
		case orb.Point:
			points = true
		case orb.MultiPoint:
			multiPoints = true
		case orb.LineString, orb.MultiLineString:
			lines = true
		case orb.Ring, orb.Polygon, orb.MultiPolygon:
			areas = true
		default:
			return shp.NULL, fmt.Errorf("geometry %s cannot be stored in a shapefile", g.GeoJSONType())
		}
		if isEmpty(g) {
			missing = true
		}
	}

	kinds := 0
	for _, b := range []bool{points || multiPoints, lines, areas} {
		if b {
			kinds++
		}
	}
	switch {
	case kinds > 1:
		return shp.NULL, fmt.Errorf("layer mixes point, line and area geometries")
	case multiPoints, points && missing:
		return shp.MULTIPOINT, nil
	case points:
		return shp.POINT, nil
	case lines:
		return shp.POLYLINE, nil
	case areas:
		return shp.POLYGON, nil
	default:
		return shp.NULL, nil
	}
}

// layerShapes converts geoms into records of type t. Missing and empty
// geometries become zero-part records of type t carrying the layer extent,
// so readers accept them and the header box ignores them.
func layerShapes(geoms []orb.Geometry, t shp.ShapeType) []shp.Shape {
	shapes := make([]shp.Shape, len(geoms))
	var box shp.Box
	boxed := false
	for i, g := range geoms {
		if isEmpty(g) {
			continue
		}
		shapes[i] = toShape(g, t)
		if !boxed {
			box, boxed = shapes[i].BBox(), true
		} else {
			box.Extend(shapes[i].BBox())
		}
	}
	for i, s := range shapes {
		if s == nil {
			shapes[i] = emptyShape(t, box)
		}
	}
	return shapes
}

func emptyShape(t shp.ShapeType, box shp.Box) shp.Shape {
	switch t {
	case shp.MULTIPOINT:
		return &shp.MultiPoint{Box: box}
	case shp.POLYLINE:
		return &shp.PolyLine{Box: box}
	case shp.POLYGON:
		return &shp.Polygon{Box: box}
	default:
		return &shp.Null{}
	}
}

// isEmpty reports whether g has no coordinates at all.
func isEmpty(g orb.Geometry) bool {
	switch v := g.(type) {
	case nil:
		return true
	case orb.Point:
		return false
	case orb.MultiPoint:
		return len(v) == 0
	case orb.LineString:
		return len(v) == 0
	case orb.MultiLineString:
		for _, ls := range v {
			if len(ls) > 0 {
				return false
			}
		}
		return true
	case orb.Ring:
		return len(v) == 0
	case orb.Polygon:
		for _, r := range v {
			if len(r) > 0 {
				return false
			}
		}
		return true
	case orb.MultiPolygon:
		for _, p := range v {
			if !isEmpty(p) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// toShape converts a non-empty g for a layer of type t. The caller
// guarantees g's class matches t (see shapeType).
func toShape(g orb.Geometry, t shp.ShapeType) shp.Shape {
	switch t {
	case shp.POINT:
		p := g.(orb.Point)
		return &shp.Point{X: p[0], Y: p[1]}
	case shp.MULTIPOINT:
		var mp orb.MultiPoint
		switch v := g.(type) {
		case orb.Point:
			mp = orb.MultiPoint{v}
		case orb.MultiPoint:
			mp = v
		}
		pts := toShpPoints(mp)
		return &shp.MultiPoint{Box: shp.BBoxFromPoints(pts), NumPoints: int32(len(pts)), Points: pts}
	case shp.POLYLINE:
		var parts [][]shp.Point
		switch v := g.(type) {
		case orb.LineString:
			parts = append(parts, toShpPoints(v))
		case orb.MultiLineString:
			for _, ls := range v {
				if len(ls) > 0 {
					parts = append(parts, toShpPoints(ls))
				}
			}
		}
		return shp.NewPolyLine(parts)
	case shp.POLYGON:
		var parts [][]shp.Point
		for _, poly := range polygonsOf(g) {
			for i, ring := range poly {
				if len(ring) > 0 {
					parts = append(parts, toShpPoints(orient(ring, i == 0)))
				}
			}
		}
		polygon := shp.Polygon(*shp.NewPolyLine(parts))
		return &polygon
	default:
		return &shp.Null{}
	}
}

func polygonsOf(g orb.Geometry) []orb.Polygon {
	switch v := g.(type) {
	case orb.Ring:
		return []orb.Polygon{{v}}
	case orb.Polygon:
		return []orb.Polygon{v}
	case orb.MultiPolygon:
		return v
	default:
		return nil
	}
}

// orient returns a copy of r wound clockwise for outer rings and
// counter-clockwise for holes, as the shapefile format requires.
func orient(r orb.Ring, outer bool) orb.Ring {
	want := orb.CCW
	if outer {
		want = orb.CW
	}
	out := slices.Clone(r)
	if out.Orientation() != want {
		out.Reverse()
	}
	return out
}

func toShpPoints[P ~[]orb.Point](pts P) []shp.Point {
	out := make([]shp.Point, len(pts))
	for i, p := range pts {
		out[i] = shp.Point{X: p[0], Y: p[1]}
	}
	return out
}
