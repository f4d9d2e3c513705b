package historical

import (
	"time"

	"github.com/peter-kozarec/solstice/pkg/timeseries"
	"github.com/peter-kozarec/solstice/pkg/utility/fixed"
)

// BinaryBar is the on-disk record of the bar cache. Every field is
// 8 bytes wide so the struct carries no padding, which Source relies on
// when reinterpreting the mapped bytes. Symbol and period are not part
// of the record, a cache file holds exactly one symbol at one period.
type BinaryBar struct {
	TimeStamp int64
	OpenTime  int64
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
}

func (binaryBar BinaryBar) ToBar(bar *timeseries.Bar) {
	bar.TimeStamp = time.Unix(0, binaryBar.TimeStamp).UTC()
	if binaryBar.OpenTime != 0 {
		bar.OpenTime = time.Unix(0, binaryBar.OpenTime).UTC()
	} else {
		bar.OpenTime = time.Time{}
	}
	bar.Open = fixed.FromFloat64(binaryBar.Open)
	bar.High = fixed.FromFloat64(binaryBar.High)
	bar.Low = fixed.FromFloat64(binaryBar.Low)
	bar.Close = fixed.FromFloat64(binaryBar.Close)
	bar.Volume = fixed.FromFloat64(binaryBar.Volume)
}

func FromBar(bar timeseries.Bar) BinaryBar {
	binaryBar := BinaryBar{
		TimeStamp: bar.TimeStamp.UnixNano(),
	}
	if !bar.OpenTime.IsZero() {
		binaryBar.OpenTime = bar.OpenTime.UnixNano()
	}
	binaryBar.Open, _ = bar.Open.Float64()
	binaryBar.High, _ = bar.High.Float64()
	binaryBar.Low, _ = bar.Low.Float64()
	binaryBar.Close, _ = bar.Close.Float64()
	binaryBar.Volume, _ = bar.Volume.Float64()
	return binaryBar
}
