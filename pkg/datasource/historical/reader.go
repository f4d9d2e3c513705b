package historical

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/peter-kozarec/solstice/pkg/timeseries"
	"github.com/peter-kozarec/solstice/pkg/utility"
)

const (
	invalidIndex           = -1
	barReaderComponentName = "datasource.historical.reader"
)

// BarReader replays bars from a cache file between two instants. A
// zero instant leaves that side of the range unbounded. The first
// GetNext binary searches for the start index, records are sorted by
// timestamp so the seek costs O(log n) reads.
type BarReader struct {
	source *Source[BinaryBar]

	symbol string
	period time.Duration
	from   int64
	to     int64
	idx    int64
}

func NewBarReader(source *Source[BinaryBar], symbol string, period time.Duration, from, to time.Time) *BarReader {
	b := &BarReader{
		source: source,
		symbol: symbol,
		period: period,
		from:   math.MinInt64,
		to:     math.MaxInt64,
		idx:    invalidIndex,
	}
	// UnixNano is undefined outside the years 1678-2262, so the zero
	// time cannot be converted directly.
	if !from.IsZero() {
		b.from = from.UnixNano()
	}
	if !to.IsZero() {
		b.to = to.UnixNano()
	}
	return b
}

func (b *BarReader) GetNext() (timeseries.Bar, error) {

	var bar timeseries.Bar
	var binBar BinaryBar

	if b.idx == invalidIndex {
		if err := b.lookupStartIndex(); err != nil {
			return bar, err
		}
	}

	if err := b.source.Read(b.idx, &binBar); err != nil {
		return bar, fmt.Errorf("error reading entry at index %d: %w", b.idx, err)
	}
	b.idx++

	if binBar.TimeStamp < b.from {
		return bar, fmt.Errorf("timestamp is not from the proposed range")
	}

	if binBar.TimeStamp > b.to {
		return bar, ErrEof
	}

	binBar.ToBar(&bar)

	bar.Source = barReaderComponentName
	bar.Symbol = b.symbol
	bar.Period = b.period
	bar.RunID = utility.GetRunID()
	bar.TraceID = utility.CreateTraceID()

	return bar, nil
}

// ReadAll drains the reader and returns every bar in range.
func (b *BarReader) ReadAll() ([]timeseries.Bar, error) {
	var bars []timeseries.Bar
	for {
		bar, err := b.GetNext()
		if err != nil {
			if errors.Is(err, ErrEof) {
				break
			}
			return nil, err
		}
		bars = append(bars, bar)
	}
	if len(bars) == 0 {
		return nil, timeseries.ErrEmpty
	}
	return bars, nil
}

func (b *BarReader) lookupStartIndex() error {
	entryCount, err := b.source.EntryCount()
	if err != nil {
		return fmt.Errorf("error getting entry count: %w", err)
	}

	if entryCount == 0 {
		return fmt.Errorf("entry count is zero")
	}

	var entry BinaryBar

	low := int64(0)
	high := entryCount - 1

	for low <= high {
		mid := (low + high) / 2

		if err := b.source.Read(mid, &entry); err != nil {
			return fmt.Errorf("error reading entry at index %d: %w", mid, err)
		}

		if entry.TimeStamp < b.from {
			low = mid + 1
		} else {
			high = mid - 1
		}
	}

	if low >= entryCount {
		return fmt.Errorf("no entry found with timestamp >= from")
	}

	b.idx = low
	return nil
}
