package render

import (
	"sort"

	"github.com/dhconnelly/rtreego"
)

// minExtent pads degenerate boxes; rtreego rejects zero-length sides.
const minExtent = 1e-9

// entry locates one geometry of a map for the spatial index.
type entry struct {
	layer int
	pos   int
	box   Bounds
}

// Bounds implements rtreego.Spatial.
func (e entry) Bounds() rtreego.Rect {
	return rect(e.box)
}

func rect(b Bounds) rtreego.Rect {
	point := rtreego.Point{b.MinX, b.MinY}
	lengths := []float64{
		max(b.Width(), minExtent),
		max(b.Height(), minExtent),
	}
	r, _ := rtreego.NewRect(point, lengths)
	return r
}

// index answers viewport queries over every geometry of a map.
type index struct {
	rtree  *rtreego.Rtree
	count  int
	bounds Bounds
}

func buildIndex(layers []*Layer) *index {
	// 2D, min=25 children, max=50 children
	idx := &index{rtree: rtreego.NewTree(2, 25, 50)}
	for li, l := range layers {
		for pos, g := range l.Geometries {
			box, ok := BoundsOf(g)
			if !ok {
				continue
			}
			if idx.count == 0 {
				idx.bounds = box
			} else {
				idx.bounds = idx.bounds.Union(box)
			}
			idx.rtree.Insert(entry{layer: li, pos: pos, box: box})
			idx.count++
		}
	}
	return idx
}

// query returns the entries intersecting view, edges included, in draw
// order: by layer, then by position within the layer.
func (idx *index) query(view Bounds) []entry {
	if idx.count == 0 {
		return nil
	}
	// rtreego skips boxes that only touch the query rect.
	spatials := idx.rtree.SearchIntersect(rect(view.Expand(minExtent)))
	result := make([]entry, 0, len(spatials))
	for _, s := range spatials {
		if e := s.(entry); e.box.Intersects(view) {
			result = append(result, e)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].layer != result[j].layer {
			return result[i].layer < result[j].layer
		}
		return result[i].pos < result[j].pos
	})
	return result
}
