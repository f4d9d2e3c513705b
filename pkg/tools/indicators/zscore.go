package indicators

import (
	"github.com/peter-kozarec/solstice/pkg/utility/circular"
	"github.com/peter-kozarec/solstice/pkg/utility/fixed"
)

// ZScore measures how far the latest observation sits from the rolling
// mean, in units of the rolling sample standard deviation.
type ZScore struct {
	window *circular.Window
	last   float64
}

func NewZScore(windowSize uint) *ZScore {
	return &ZScore{
		window: circular.NewWindow(windowSize),
	}
}

func (z *ZScore) AddPoint(p fixed.Point) {
	v, _ := p.Float64()
	z.last = v
	z.window.PushUpdate(v)
}

func (z *ZScore) Value() float64 {
	stdDev := z.window.SampleStdDev()
	if stdDev == 0 {
		return 0
	}
	return (z.last - z.window.Mean()) / stdDev
}

func (z *ZScore) IsReady() bool {
	return z.window.IsFull()
}
