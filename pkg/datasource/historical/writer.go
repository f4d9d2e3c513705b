package historical

import (
	"encoding/binary"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/peter-kozarec/solstice/pkg/timeseries"
)

// Writer appends BinaryBar records to a cache file. Records must be
// written oldest first, the reader binary searches on timestamps.
type Writer struct {
	path string
	file *os.File

	lastStamp int64
	count     int
}

func NewWriter(path string) (*Writer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644) // #nosec G304
	if err != nil {
		return nil, fmt.Errorf("unable to open cache file %q: %w", path, err)
	}

	w := &Writer{path: path, file: f}
	if err := w.seekLastStamp(); err != nil {
		_ = f.Close()
		return nil, err
	}
	return w, nil
}

func (w *Writer) Write(bar timeseries.Bar) error {
	stamp := bar.TimeStamp.UnixNano()
	if w.lastStamp != 0 && stamp <= w.lastStamp {
		return fmt.Errorf("%w: %s not after %s", timeseries.ErrNotChronological,
			bar.TimeStamp, time.Unix(0, w.lastStamp).UTC())
	}

	if err := binary.Write(w.file, binary.LittleEndian, FromBar(bar)); err != nil {
		return fmt.Errorf("unable to write record: %w", err)
	}

	w.lastStamp = stamp
	w.count++
	return nil
}

func (w *Writer) WriteAll(bars []timeseries.Bar) error {
	sorted := make([]timeseries.Bar, len(bars))
	copy(sorted, bars)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].TimeStamp.Before(sorted[j].TimeStamp)
	})

	for _, bar := range sorted {
		if err := w.Write(bar); err != nil {
			return err
		}
	}
	return nil
}

// Count reports the number of records appended by this writer.
func (w *Writer) Count() int {
	return w.count
}

func (w *Writer) Close() error {
	return w.file.Close()
}

// seekLastStamp reads the trailing record of a non-empty cache so that
// appends keep the chronological invariant across runs.
func (w *Writer) seekLastStamp() error {
	source := NewSource[BinaryBar](w.path)

	entryCount, err := source.EntryCount()
	if err != nil {
		return err
	}
	if entryCount == 0 {
		return nil
	}

	if err := source.Open(); err != nil {
		return err
	}
	defer source.Close()

	var last BinaryBar
	if err := source.Read(entryCount-1, &last); err != nil {
		return fmt.Errorf("unable to read trailing record: %w", err)
	}
	w.lastStamp = last.TimeStamp
	return nil
}

// ImportCSV converts an OHLCV csv file into the binary cache format.
// Returns the number of bars written.
func ImportCSV(csvPath, cachePath, symbol string, period time.Duration) (int, error) {
	bars, err := timeseries.LoadBarsCSV(csvPath, symbol, period, nil)
	if err != nil {
		return 0, fmt.Errorf("unable to load %q: %w", csvPath, err)
	}

	w, err := NewWriter(cachePath)
	if err != nil {
		return 0, err
	}

	if err := w.WriteAll(bars); err != nil {
		_ = w.Close()
		_ = os.Remove(cachePath)
		return 0, err
	}
	return w.Count(), w.Close()
}
