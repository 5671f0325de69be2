package render

import (
	"bytes"
	"image"
	"image/color"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/require"

	"github.com/beetlebugorg/shpdump/internal/feature"
)

func decode(t *testing.T, data []byte) (image.Image, string) {
	t.Helper()
	img, name, err := image.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	return img, name
}

func isWhite(c color.Color) bool {
	r, g, b, _ := c.RGBA()
	return r == 0xffff && g == 0xffff && b == 0xffff
}

func TestRender_AspectRatio(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		geoms      []orb.Geometry
		width      int
		wantHeight int
	}{
		{
			name:       "wide",
			geoms:      []orb.Geometry{orb.LineString{{0, 0}, {100, 50}}},
			width:      200,
			wantHeight: 100,
		},
		{
			name:       "tall",
			geoms:      []orb.Geometry{orb.Polygon{{{0, 0}, {0, 40}, {10, 40}, {10, 0}, {0, 0}}}},
			width:      50,
			wantHeight: 200,
		},
		{name: "single point", geoms: []orb.Geometry{orb.Point{5, 5}}, width: 64, wantHeight: 64},
		{name: "no geometry", geoms: nil, width: 32, wantHeight: 32},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			m := NewMap(&Layer{Name: tt.name, Style: DefaultStyle(), Geometries: tt.geoms})
			require.NoError(t, Render(m, &buf, tt.width, PNG))

			img, format := decode(t, buf.Bytes())
			require.Equal(t, "png", format)
			require.Equal(t, tt.width, img.Bounds().Dx())
			require.Equal(t, tt.wantHeight, img.Bounds().Dy())
		})
	}
}

func TestRender_DrawsFeatures(t *testing.T) {
	t.Parallel()

	square := orb.Polygon{{{0, 0}, {0, 10}, {10, 10}, {10, 0}, {0, 0}}}
	withHole := orb.Polygon{
		{{20, 0}, {20, 10}, {30, 10}, {30, 0}, {20, 0}},
		{{23, 3}, {27, 3}, {27, 7}, {23, 7}, {23, 3}},
	}
	var buf bytes.Buffer
	m := NewMap(&Layer{Geometries: []orb.Geometry{square, withHole}})
	require.NoError(t, Render(m, &buf, 300, PNG))
	img, _ := decode(t, buf.Bytes())

	// pixel centre of a data coordinate
	view := pad(Bounds{MinX: 0, MaxX: 30, MinY: 0, MaxY: 10})
	at := func(x, y float64) color.Color {
		b := img.Bounds()
		px := int((x - view.MinX) / view.Width() * float64(b.Dx()))
		py := int((view.MaxY - y) / view.Height() * float64(b.Dy()))
		return img.At(px, py)
	}

	require.False(t, isWhite(at(5, 5)), "inside the square")
	require.False(t, isWhite(at(21.5, 5)), "inside the ring")
	require.True(t, isWhite(at(25, 5)), "inside the hole")
	require.True(t, isWhite(at(15, 5)), "between polygons")
}

func TestRender_Formats(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"png", "jpeg", "gif", "tiff", "bmp"} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			f, err := ParseFormat(name)
			require.NoError(t, err)
			require.Equal(t, name, f.String())

			var buf bytes.Buffer
			m := NewMap(&Layer{Geometries: []orb.Geometry{orb.MultiPoint{{0, 0}, {4, 2}}}})
			require.NoError(t, Render(m, &buf, 40, f))
			img, decoded := decode(t, buf.Bytes())
			require.Equal(t, name, decoded)
			require.Equal(t, 40, img.Bounds().Dx())
		})
	}
}

func TestRender_InvalidWidth(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.Error(t, Render(NewMap(), &buf, 0, PNG))
}

func TestParseFormat(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]Format{".PNG": PNG, "jpg": JPEG, "TIF": TIFF, "bmp": BMP, "gif": GIF} {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		require.Equal(t, want, got, in)
	}
	_, err := ParseFormat("webp")
	require.Error(t, err)
}

func TestNewLayer(t *testing.T) {
	t.Parallel()

	schema := &feature.Schema{
		Name:          feature.Name{Local: "wells"},
		Fields:        []feature.Field{{Name: "the_geom", Type: feature.FieldGeometry}},
		GeometryField: "the_geom",
	}
	mk := func(g orb.Geometry) feature.Feature {
		f, err := feature.New(schema, "f", []feature.Value{feature.Geometry(g)})
		require.NoError(t, err)
		return f
	}
	l := NewLayer(&feature.Collection{Schema: schema, Features: []feature.Feature{mk(orb.Point{1, 2}), mk(nil)}})
	require.Equal(t, "wells", l.Name)
	require.Equal(t, []orb.Geometry{orb.Point{1, 2}}, l.Geometries)
}

func TestIndex_Query(t *testing.T) {
	t.Parallel()

	layers := []*Layer{
		{Geometries: []orb.Geometry{orb.Point{0, 0}, orb.Point{50, 50}, nil}},
		{Geometries: []orb.Geometry{orb.LineString{{-1, -1}, {1, 1}}, orb.MultiPolygon{}}},
	}
	idx := buildIndex(layers)
	require.Equal(t, 3, idx.count)
	require.Equal(t, Bounds{MinX: -1, MaxX: 50, MinY: -1, MaxY: 50}, idx.bounds)

	got := idx.query(Bounds{MinX: -2, MaxX: 2, MinY: -2, MaxY: 2})
	require.Len(t, got, 2)
	require.Equal(t, 0, got[0].layer)
	require.Equal(t, 0, got[0].pos)
	require.Equal(t, 1, got[1].layer)

	require.Len(t, idx.query(idx.bounds), 3)
	require.Empty(t, buildIndex(nil).query(Bounds{MaxX: 1, MaxY: 1}))

	touching := idx.query(Bounds{MinX: 50, MaxX: 60, MinY: 50, MaxY: 60})
	require.Len(t, touching, 1, "a point on the view edge is drawn")
	require.Equal(t, 1, touching[0].pos)
	require.Empty(t, idx.query(Bounds{MinX: 51, MaxX: 60, MinY: 51, MaxY: 60}))
}

func TestFit(t *testing.T) {
	t.Parallel()

	view, h := fit(Bounds{MinX: 0, MaxX: 20, MinY: 0, MaxY: 10}, 200)
	require.Equal(t, 100, h)
	require.Equal(t, Bounds{MinX: 0, MaxX: 20, MinY: 0, MaxY: 10}, view)

	view, h = fit(Bounds{MinX: 10, MaxX: 11, MinY: 0, MaxY: 1000}, 100)
	require.Equal(t, MaxDimension, h)
	require.Equal(t, 1000.0, view.Height())
	require.InDelta(t, 10.5, (view.MinX+view.MaxX)/2, 1e-9, "widened around the centre")
	require.InDelta(t, 100/view.Width(), float64(h)/view.Height(), 1e-9, "same scale on both axes")

	_, h = fit(Bounds{MinX: 1, MaxX: 1, MinY: 2, MaxY: 2}, 64)
	require.Equal(t, 64, h)
}

func TestBounds(t *testing.T) {
	t.Parallel()

	b := Bounds{MinX: 0, MaxX: 10, MinY: 0, MaxY: 5}
	require.True(t, b.Contains(10, 5))
	require.False(t, b.Contains(10.1, 5))
	require.True(t, b.Intersects(Bounds{MinX: 10, MaxX: 12, MinY: 5, MaxY: 6}))
	require.False(t, b.Intersects(Bounds{MinX: 11, MaxX: 12, MinY: 0, MaxY: 1}))
	require.Equal(t, Bounds{MinX: -1, MaxX: 11, MinY: -1, MaxY: 6}, b.Expand(1))
	require.Equal(t, Bounds{MinX: -5, MaxX: 10, MinY: 0, MaxY: 7}, b.Union(Bounds{MinX: -5, MaxX: 0, MinY: 1, MaxY: 7}))

	_, ok := BoundsOf(orb.LineString{})
	require.False(t, ok)
	got, ok := BoundsOf(orb.Point{3, 4})
	require.True(t, ok)
	require.Equal(t, Bounds{MinX: 3, MaxX: 3, MinY: 4, MaxY: 4}, got)
}
