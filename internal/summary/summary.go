// Package summary computes per-column statistics over a CSV file.
package summary

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/beetlebugorg/shpdump/internal/join"
	"github.com/beetlebugorg/shpdump/internal/tabular"
)

// DefaultSampleSize is the number of distinct sample values reported per column.
const DefaultSampleSize = 50

// Header is the column layout of the statistics file.
var Header = []string{
	"fieldName",
	"emptyCount",
	"nonEmptyCount",
	"uniqueValueCount",
	"possibleIntegerUniqueCount",
	"possibleDoubleUniqueCount",
	"minimum",
	"maximum",
	"sampleValues",
}

// Column accumulates statistics for one CSV column.
type Column struct {
	Name          string
	Empty         int
	NonEmpty      int
	Unique        int
	IntegerUnique int
	DoubleUnique  int
	Min, Max      float64 // valid when DoubleUnique == Unique and NonEmpty > 0
	Samples       []string

	seen map[string]struct{}
}

func newColumn(name string) *Column {
	return &Column{Name: name, Min: math.Inf(1), Max: math.Inf(-1), seen: make(map[string]struct{})}
}

func (c *Column) add(v string, sampleSize int) {
	if strings.TrimSpace(v) == "" {
		c.Empty++
		return
	}
	c.NonEmpty++
	if _, ok := c.seen[v]; ok {
		return
	}
	c.seen[v] = struct{}{}
	c.Unique++
	if len(c.Samples) < sampleSize {
		c.Samples = append(c.Samples, v)
	}
	if _, err := strconv.ParseInt(v, 10, 64); err == nil {
		c.IntegerUnique++
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil && !math.IsNaN(f) {
		c.DoubleUnique++
		c.Min = math.Min(c.Min, f)
		c.Max = math.Max(c.Max, f)
	}
}

// Numeric reports whether every distinct non-empty value parsed as a number.
func (c *Column) Numeric() bool {
	return c.NonEmpty > 0 && c.DoubleUnique == c.Unique
}

func (c *Column) row() []string {
	lo, hi := "", ""
	if c.Numeric() {
		lo = strconv.FormatFloat(c.Min, 'f', -1, 64)
		hi = strconv.FormatFloat(c.Max, 'f', -1, 64)
	}
	samples := c.Samples
	if c.Unique > len(samples) {
		samples = append(samples[:len(samples):len(samples)], "...")
	}
	return []string{
		c.Name,
		strconv.Itoa(c.Empty),
		strconv.Itoa(c.NonEmpty),
		strconv.Itoa(c.Unique),
		strconv.Itoa(c.IntegerUnique),
		strconv.Itoa(c.DoubleUnique),
		lo,
		hi,
		strings.Join(samples, ", "),
	}
}

// Summarize reads CSV from in and writes one statistics row per column to
// out. When mappingOut is non-nil a join-mapping template for the columns is
// written to it as well.
func Summarize(in io.Reader, out io.Writer, sampleSize int, mappingOut io.Writer) ([]*Column, error) {
	if sampleSize < 0 {
		sampleSize = 0
	}
	r, err := tabular.NewReader(in)
	if err != nil {
		return nil, fmt.Errorf("summarize: %w", err)
	}
	header := r.Header()
	columns := make([]*Column, len(header))
	for i, h := range header {
		columns[i] = newColumn(h)
	}
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("summarize: %w", err)
		}
		for i, v := range row {
			columns[i].add(v, sampleSize)
		}
	}

	w, err := tabular.NewWriter(out, Header)
	if err != nil {
		return nil, err
	}
	for _, c := range columns {
		if err := w.Write(c.row()); err != nil {
			return nil, err
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("write summary: %w", err)
	}

	if mappingOut != nil {
		if err := join.WriteTemplate(mappingOut, header); err != nil {
			return nil, fmt.Errorf("write mapping template: %w", err)
		}
	}
	return columns, nil
}
