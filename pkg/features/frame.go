// Package features derives model-ready columns from a price series:
// calendar fields, lagged values, trailing rolling moments and momentum.
// Every derived value at a row uses only data at or before that row.
package features

import (
	"encoding/csv"
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"time"
)

var ErrNoColumn = errors.New("no such column")

// Frame is a column-ordered table aligned to a shared time index.
type Frame struct {
	Times   []time.Time
	Names   []string
	columns map[string][]float64
}

func NewFrame(times []time.Time) *Frame {
	return &Frame{
		Times:   times,
		columns: make(map[string][]float64),
	}
}

// AddColumn appends a column. The length must match the time index.
func (f *Frame) AddColumn(name string, values []float64) error {
	if len(values) != len(f.Times) {
		return fmt.Errorf("column %q has %d rows, frame has %d", name, len(values), len(f.Times))
	}
	if _, exists := f.columns[name]; !exists {
		f.Names = append(f.Names, name)
	}
	f.columns[name] = values
	return nil
}

func (f *Frame) Column(name string) ([]float64, error) {
	col, ok := f.columns[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNoColumn, name)
	}
	return col, nil
}

func (f *Frame) NumRows() int {
	return len(f.Times)
}

func (f *Frame) NumCols() int {
	return len(f.Names)
}

// Row returns the values of row i in column order.
func (f *Frame) Row(i int) []float64 {
	out := make([]float64, len(f.Names))
	for j, name := range f.Names {
		out[j] = f.columns[name][i]
	}
	return out
}

// DropNaN returns a frame without any row containing NaN. Leading rows
// lost to lags and warm-up windows disappear here.
func (f *Frame) DropNaN() *Frame {
	keep := make([]int, 0, len(f.Times))
	for i := range f.Times {
		valid := true
		for _, name := range f.Names {
			if math.IsNaN(f.columns[name][i]) {
				valid = false
				break
			}
		}
		if valid {
			keep = append(keep, i)
		}
	}

	out := NewFrame(make([]time.Time, len(keep)))
	for i, idx := range keep {
		out.Times[i] = f.Times[idx]
	}
	for _, name := range f.Names {
		col := make([]float64, len(keep))
		src := f.columns[name]
		for i, idx := range keep {
			col[i] = src[idx]
		}
		// Length matches by construction.
		_ = out.AddColumn(name, col)
	}
	return out
}

// SaveCSV writes the frame with a date index column.
func (f *Frame) SaveCSV(path string) error {
	file, err := os.Create(path) // #nosec G304
	if err != nil {
		return fmt.Errorf("create csv: %w", err)
	}
	defer func() { _ = file.Close() }()

	w := csv.NewWriter(file)
	header := append([]string{"date"}, f.Names...)
	if err := w.Write(header); err != nil {
		return err
	}

	row := make([]string, len(header))
	for i := range f.Times {
		row[0] = f.Times[i].Format("2006-01-02")
		for j, name := range f.Names {
			row[j+1] = strconv.FormatFloat(f.columns[name][i], 'f', -1, 64)
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
