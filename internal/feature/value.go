package feature

import (
	"fmt"
	"strconv"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
)

// DateLayout is the tabular rendering of Date values.
const DateLayout = "2006-01-02"

// Kind tags the variant held by a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindText
	KindNumber
	KindDate
	KindGeometry
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "Null"
	case KindText:
		return "Text"
	case KindNumber:
		return "Number"
	case KindDate:
		return "Date"
	case KindGeometry:
		return "Geometry"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Value is an attribute value: exactly one of Null, Text, Number, Date or
// Geometry. The zero Value is Null.
type Value struct {
	kind Kind
	text string
	num  float64
	date time.Time
	geom orb.Geometry
}

func Null() Value            { return Value{} }
func Text(s string) Value    { return Value{kind: KindText, text: s} }
func Number(f float64) Value { return Value{kind: KindNumber, num: f} }
func Date(t time.Time) Value { return Value{kind: KindDate, date: t} }

// Geometry wraps g. A nil geometry yields Null.
func Geometry(g orb.Geometry) Value {
	if g == nil {
		return Value{}
	}
	return Value{kind: KindGeometry, geom: g}
}

func (v Value) Kind() Kind   { return v.kind }
func (v Value) IsNull() bool { return v.kind == KindNull }

// AsText returns the text and whether v is Text.
func (v Value) AsText() (string, bool) { return v.text, v.kind == KindText }

// AsNumber returns the number and whether v is Number.
func (v Value) AsNumber() (float64, bool) { return v.num, v.kind == KindNumber }

// AsDate returns the date and whether v is Date.
func (v Value) AsDate() (time.Time, bool) { return v.date, v.kind == KindDate }

// AsGeometry returns the geometry and whether v is Geometry.
func (v Value) AsGeometry() (orb.Geometry, bool) { return v.geom, v.kind == KindGeometry }

// String renders the value for tabular export. Null renders as "".
func (v Value) String() string {
	switch v.kind {
	case KindText:
		return v.text
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindDate:
		return v.date.Format(DateLayout)
	case KindGeometry:
		return wkt.MarshalString(v.geom)
	default:
		return ""
	}
}

// Equal reports whether both values hold the same variant and content.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindText:
		return v.text == o.text
	case KindNumber:
		return v.num == o.num
	case KindDate:
		return v.date.Equal(o.date)
	case KindGeometry:
		return orb.Equal(v.geom, o.geom)
	default:
		return true
	}
}

// ParseValue converts a tabular cell back into a value of the given type.
// Empty cells become Null except for Text, which stays Text("").
func ParseValue(t FieldType, s string) (Value, error) {
	if t == FieldText {
		return Text(s), nil
	}
	if s == "" {
		return Null(), nil
	}
	switch t {
	case FieldNumber:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Value{}, fmt.Errorf("not a number: %q", s)
		}
		return Number(f), nil
	case FieldDate:
		for _, layout := range []string{DateLayout, "20060102", time.RFC3339} {
			if d, err := time.Parse(layout, s); err == nil {
				return Date(d), nil
			}
		}
		return Value{}, fmt.Errorf("not a date: %q", s)
	case FieldGeometry:
		g, err := wkt.Unmarshal(s)
		if err != nil {
			return Value{}, fmt.Errorf("invalid WKT: %w", err)
		}
		return Geometry(g), nil
	default:
		return Value{}, fmt.Errorf("unsupported field type %v", t)
	}
}
