package feature

import (
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/require"
)

func TestValueString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		v    Value
		want string
	}{
		{"null", Null(), ""},
		{"text", Text(" a,b "), " a,b "},
		{"integer", Number(42), "42"},
		{"fraction", Number(0.1), "0.1"},
		{"negative", Number(-1234.5), "-1234.5"},
		{"date", Date(time.Date(2020, 2, 29, 13, 0, 0, 0, time.UTC)), "2020-02-29"},
		{"point", Geometry(orb.Point{1, 2}), "POINT(1 2)"},
		{"nil geometry", Geometry(nil), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, tt.v.String())
		})
	}
}

func TestParseValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		typ     FieldType
		in      string
		want    Value
		wantErr bool
	}{
		{name: "empty text stays text", typ: FieldText, in: "", want: Text("")},
		{name: "empty number is null", typ: FieldNumber, in: "", want: Null()},
		{name: "empty date is null", typ: FieldDate, in: "", want: Null()},
		{name: "empty geometry is null", typ: FieldGeometry, in: "", want: Null()},
		{name: "number", typ: FieldNumber, in: "1e3", want: Number(1000)},
		{name: "iso date", typ: FieldDate, in: "1999-12-31", want: Date(time.Date(1999, 12, 31, 0, 0, 0, 0, time.UTC))},
		{name: "dbf date", typ: FieldDate, in: "19991231", want: Date(time.Date(1999, 12, 31, 0, 0, 0, 0, time.UTC))},
		{name: "wkt", typ: FieldGeometry, in: "LINESTRING(0 0,1 1)", want: Geometry(orb.LineString{{0, 0}, {1, 1}})},
		{name: "bad number", typ: FieldNumber, in: "n/a", wantErr: true},
		{name: "bad date", typ: FieldDate, in: "31/12/1999", wantErr: true},
		{name: "bad wkt", typ: FieldGeometry, in: "POINT(", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := ParseValue(tt.typ, tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Truef(t, tt.want.Equal(got), "want %v (%v), got %v (%v)", tt.want, tt.want.Kind(), got, got.Kind())
		})
	}
}

func TestNew_LengthMismatch(t *testing.T) {
	t.Parallel()

	_, err := New(testSchema(), "x", []Value{Null()})
	require.Error(t, err)

	_, err = New(nil, "x", nil)
	require.Error(t, err)
}

func TestFeature_ValuesAreCopied(t *testing.T) {
	t.Parallel()

	s := testSchema()
	values := []Value{Null(), Text("a"), Null(), Null()}
	f := mustFeature(t, s, "f", values...)
	values[1] = Text("changed")
	require.Equal(t, "a", f.Value(1).String())

	got := f.Values()
	got[1] = Text("changed")
	require.Equal(t, "a", f.Value(1).String())

	require.True(t, f.Geometry().IsNull())
	v, ok := f.Get("name")
	require.True(t, ok)
	require.Equal(t, "a", v.String())
	_, ok = f.Get("nope")
	require.False(t, ok)
}
