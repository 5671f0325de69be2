// Package tabular reads and writes the CSV files exchanged by the pipeline:
// the tabular export, the summary input, both join inputs and the merged
// intermediate file.
package tabular

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/beetlebugorg/shpdump/internal/fsutil"
)

const utf8BOM = "\ufeff"

// Table is a header plus rows of string cells.
type Table struct {
	Header []string
	Rows   [][]string
}

// Index returns the position of the named column, or -1.
func (t *Table) Index(name string) int {
	for i, h := range t.Header {
		if h == name {
			return i
		}
	}
	return -1
}

// Column returns the cells of the named column.
func (t *Table) Column(name string) ([]string, bool) {
	i := t.Index(name)
	if i < 0 {
		return nil, false
	}
	col := make([]string, len(t.Rows))
	for r, row := range t.Rows {
		if i < len(row) {
			col[r] = row[i]
		}
	}
	return col, true
}

// Writer streams rows to a CSV file with a fixed header.
type Writer struct {
	closer  io.Closer
	buf     *bufio.Writer
	csv     *csv.Writer
	columns int
	rows    int
}

// Create creates a new CSV file at path and writes header. It fails with
// *fsutil.OutputConflictError if path exists.
func Create(path string, header []string) (*Writer, error) {
	f, err := fsutil.CreateNew(path)
	if err != nil {
		return nil, err
	}
	w, err := newWriter(f, f, header)
	if err != nil {
		f.Close()
		return nil, err
	}
	return w, nil
}

// NewWriter writes CSV with header to w. Close flushes but does not close w.
func NewWriter(w io.Writer, header []string) (*Writer, error) {
	return newWriter(w, nil, header)
}

func newWriter(w io.Writer, closer io.Closer, header []string) (*Writer, error) {
	buf := bufio.NewWriter(w)
	cw := csv.NewWriter(buf)
	if err := cw.Write(header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	return &Writer{closer: closer, buf: buf, csv: cw, columns: len(header)}, nil
}

// Write appends one row. The row must have one cell per header column.
func (w *Writer) Write(row []string) error {
	if len(row) != w.columns {
		return fmt.Errorf("row %d has %d cells, header has %d", w.rows+1, len(row), w.columns)
	}
	if len(row) == 1 && row[0] == "" {
		// encoding/csv writes a blank line here, which readers skip.
		w.csv.Flush()
		if _, err := w.buf.WriteString("\"\"\n"); err != nil {
			return fmt.Errorf("write row %d: %w", w.rows+1, err)
		}
		w.rows++
		return nil
	}
	if err := w.csv.Write(row); err != nil {
		return fmt.Errorf("write row %d: %w", w.rows+1, err)
	}
	w.rows++
	return nil
}

// Rows returns the number of rows written so far.
func (w *Writer) Rows() int { return w.rows }

// Close flushes buffered rows and closes the underlying file, if owned.
func (w *Writer) Close() error {
	w.csv.Flush()
	err := w.csv.Error()
	if ferr := w.buf.Flush(); err == nil {
		err = ferr
	}
	if w.closer != nil {
		if cerr := w.closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// Reader streams rows from a CSV source with a header row.
// Short rows are padded and long rows truncated to the header length.
type Reader struct {
	csv    *csv.Reader
	header []string
	line   int
}

// NewReader reads the header row from r.
func NewReader(r io.Reader) (*Reader, error) {
	cr := csv.NewReader(bufio.NewReader(r))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("empty csv: no header row")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	header = append([]string(nil), header...)
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], utf8BOM)
	}
	return &Reader{csv: cr, header: header, line: 1}, nil
}

// Header returns the column names.
func (r *Reader) Header() []string { return r.header }

// Read returns the next row, or io.EOF after the last one.
func (r *Reader) Read() ([]string, error) {
	rec, err := r.csv.Read()
	r.line++
	if errors.Is(err, io.EOF) {
		return nil, io.EOF
	}
	if err != nil {
		return nil, fmt.Errorf("read line %d: %w", r.line, err)
	}
	row := make([]string, len(r.header))
	copy(row, rec)
	return row, nil
}

// Stream reads CSV from r, returning the header and calling fn for every row.
func Stream(r io.Reader, fn func(row []string) error) ([]string, error) {
	cr, err := NewReader(r)
	if err != nil {
		return nil, err
	}
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return cr.Header(), nil
		}
		if err != nil {
			return cr.Header(), err
		}
		if err := fn(row); err != nil {
			return cr.Header(), err
		}
	}
}

// Read reads a whole CSV table from r.
func Read(r io.Reader) (*Table, error) {
	t := &Table{}
	header, err := Stream(r, func(row []string) error {
		t.Rows = append(t.Rows, row)
		return nil
	})
	if err != nil {
		return nil, err
	}
	t.Header = header
	return t, nil
}

// ReadFile reads a whole CSV table from path.
func ReadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	t, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// WriteFile writes t to a new file at path.
func WriteFile(path string, t *Table) error {
	w, err := Create(path, t.Header)
	if err != nil {
		return err
	}
	for _, row := range t.Rows {
		if err := w.Write(row); err != nil {
			w.Close()
			return err
		}
	}
	return w.Close()
}
