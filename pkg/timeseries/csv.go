package timeseries

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/peter-kozarec/solstice/pkg/utility/fixed"
)

type CSVOptions struct {
	DateColumn  string
	ValueColumn string
	DateLayouts []string
	Delimiter   rune
	HasHeader   bool
	SkipRows    int
}

func DefaultCSVOptions() *CSVOptions {
	return &CSVOptions{
		DateColumn:  "date",
		ValueColumn: "close",
		DateLayouts: []string{
			"2006-01-02",
			"2006-01-02 15:04:05",
			time.RFC3339,
			"2006/01/02",
			"01/02/2006",
			"02-Jan-2006",
		},
		Delimiter: ',',
		HasHeader: true,
	}
}

// LoadCSV reads a value series from a CSV file. Rows with blank or
// unparseable value cells are skipped.
func LoadCSV(path string, freq Frequency, opts *CSVOptions) (*Series, error) {
	f, err := os.Open(path) // #nosec G304
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer func() { _ = f.Close() }()

	s, err := LoadCSVFromReader(f, freq, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

func LoadCSVFromReader(r io.Reader, freq Frequency, opts *CSVOptions) (*Series, error) {
	if opts == nil {
		opts = DefaultCSVOptions()
	}

	reader := csv.NewReader(r)
	reader.Comma = opts.Delimiter
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	for i := 0; i < opts.SkipRows; i++ {
		if _, err := reader.Read(); err != nil {
			return nil, fmt.Errorf("skip row %d: %w", i, err)
		}
	}

	dateIdx, valueIdx := 0, 1
	if opts.HasHeader {
		header, err := reader.Read()
		if err != nil {
			return nil, fmt.Errorf("read header: %w", err)
		}
		dateIdx, valueIdx = -1, -1
		for i, h := range header {
			name := strings.ToLower(strings.TrimSpace(strings.Trim(h, "\"")))
			switch {
			case name == strings.ToLower(opts.DateColumn):
				dateIdx = i
			case name == strings.ToLower(opts.ValueColumn):
				valueIdx = i
			case dateIdx == -1 && (name == "date" || name == "ds" || name == "timestamp"):
				dateIdx = i
			case valueIdx == -1 && (name == "close" || name == "value" || name == "y" || name == "price"):
				valueIdx = i
			}
		}
		if dateIdx == -1 {
			return nil, fmt.Errorf("date column %q not found", opts.DateColumn)
		}
		if valueIdx == -1 {
			return nil, fmt.Errorf("value column %q not found", opts.ValueColumn)
		}
	}

	var (
		times  []time.Time
		values []float64
	)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		if dateIdx >= len(record) || valueIdx >= len(record) {
			continue
		}

		cell := strings.TrimSpace(strings.Trim(record[valueIdx], "\""))
		if cell == "" || cell == "NA" || cell == "NaN" || cell == "null" {
			continue
		}
		v, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			continue
		}

		ts, err := parseDate(strings.TrimSpace(strings.Trim(record[dateIdx], "\"")), opts.DateLayouts)
		if err != nil {
			continue
		}

		times = append(times, ts)
		values = append(values, v)
	}

	if len(values) == 0 {
		return nil, ErrEmpty
	}
	return New(opts.ValueColumn, freq, times, values)
}

// SaveCSV writes the series as a two-column date,value file.
func SaveCSV(s *Series, path string) error {
	f, err := os.Create(path) // #nosec G304
	if err != nil {
		return fmt.Errorf("create csv: %w", err)
	}
	defer func() { _ = f.Close() }()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"date", s.Name}); err != nil {
		return err
	}
	for i, v := range s.Values {
		row := []string{
			s.Times[i].Format("2006-01-02"),
			strconv.FormatFloat(v, 'f', -1, 64),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// LoadBarsCSV reads OHLCV bars from a date,open,high,low,close,volume file.
// Prices keep their decimal representation.
func LoadBarsCSV(path, symbol string, period time.Duration, opts *CSVOptions) ([]Bar, error) {
	f, err := os.Open(path) // #nosec G304
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer func() { _ = f.Close() }()

	opt := opts
	if opt == nil {
		opt = DefaultCSVOptions()
	}

	reader := csv.NewReader(f)
	reader.Comma = opt.Delimiter
	reader.TrimLeadingSpace = true

	cols := map[string]int{}
	if opt.HasHeader {
		header, err := reader.Read()
		if err != nil {
			return nil, fmt.Errorf("read header: %w", err)
		}
		for i, h := range header {
			cols[strings.ToLower(strings.TrimSpace(h))] = i
		}
	} else {
		cols = map[string]int{"date": 0, "open": 1, "high": 2, "low": 3, "close": 4, "volume": 5}
	}
	for _, name := range []string{"date", "open", "high", "low", "close"} {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("column %q not found", name)
		}
	}

	var bars []Bar
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}

		ts, err := parseDate(strings.TrimSpace(record[cols["date"]]), opt.DateLayouts)
		if err != nil {
			continue
		}

		bar := Bar{Symbol: symbol, TimeStamp: ts, Period: period}
		if bar.Open, err = fixed.Parse(strings.TrimSpace(record[cols["open"]])); err != nil {
			continue
		}
		if bar.High, err = fixed.Parse(strings.TrimSpace(record[cols["high"]])); err != nil {
			continue
		}
		if bar.Low, err = fixed.Parse(strings.TrimSpace(record[cols["low"]])); err != nil {
			continue
		}
		if bar.Close, err = fixed.Parse(strings.TrimSpace(record[cols["close"]])); err != nil {
			continue
		}
		if idx, ok := cols["volume"]; ok && idx < len(record) {
			if v, err := fixed.Parse(strings.TrimSpace(record[idx])); err == nil {
				bar.Volume = v
			}
		}
		bars = append(bars, bar)
	}

	if len(bars) == 0 {
		return nil, ErrEmpty
	}
	return bars, nil
}

// SaveBarsCSV writes bars as date,open,high,low,close,volume.
func SaveBarsCSV(bars []Bar, path string) error {
	f, err := os.Create(path) // #nosec G304
	if err != nil {
		return fmt.Errorf("create csv: %w", err)
	}
	defer func() { _ = f.Close() }()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"date", "open", "high", "low", "close", "volume"}); err != nil {
		return err
	}
	for _, b := range bars {
		row := []string{
			b.TimeStamp.Format("2006-01-02"),
			b.Open.String(),
			b.High.String(),
			b.Low.String(),
			b.Close.String(),
			b.Volume.String(),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func parseDate(s string, layouts []string) (time.Time, error) {
	if len(layouts) == 0 {
		layouts = DefaultCSVOptions().DateLayouts
	}
	var lastErr error
	for _, layout := range layouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, fmt.Errorf("parse date %q: %w", s, lastErr)
}
