package timeseries

import (
	"time"

	"github.com/peter-kozarec/solstice/pkg/utility"
	"github.com/peter-kozarec/solstice/pkg/utility/fixed"
)

type Bar struct {
	Source    string          `json:"src,omitempty"`
	Symbol    string          `json:"symbol,omitempty"`
	RunID     utility.RunID   `json:"run_id,omitempty"`
	TraceID   utility.TraceID `json:"tid,omitempty"`
	TimeStamp time.Time       `json:"ts"`
	OpenTime  time.Time       `json:"open_time,omitempty"`
	Period    time.Duration   `json:"period"`
	Open      fixed.Point     `json:"open"`
	High      fixed.Point     `json:"high"`
	Low       fixed.Point     `json:"low"`
	Close     fixed.Point     `json:"close"`
	Volume    fixed.Point     `json:"volume"`
}

type Quote struct {
	Ask       fixed.Point `json:"ask"`
	Bid       fixed.Point `json:"bid"`
	AskVolume fixed.Point `json:"ask_volume"`
	BidVolume fixed.Point `json:"bid_volume"`

	Source    string          `json:"src,omitempty"`
	Symbol    string          `json:"symbol,omitempty"`
	RunID     utility.RunID   `json:"run_id,omitempty"`
	TraceID   utility.TraceID `json:"tid,omitempty"`
	TimeStamp time.Time       `json:"ts"`
}

// Mid returns the quote midpoint price.
func (q Quote) Mid() fixed.Point {
	return q.Bid.Add(q.Ask).DivInt64(2)
}
