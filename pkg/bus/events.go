package bus

import (
	"time"

	"github.com/peter-kozarec/solstice/pkg/models"
	"github.com/peter-kozarec/solstice/pkg/utility"
	"github.com/peter-kozarec/solstice/pkg/utility/fixed"
)

type EventID uint8

const (
	QuoteEvent EventID = iota
	BarEvent
	ForecastEvent
	SignalEvent
)

func (id EventID) String() string {
	switch id {
	case QuoteEvent:
		return "quote"
	case BarEvent:
		return "bar"
	case ForecastEvent:
		return "forecast"
	case SignalEvent:
		return "signal"
	default:
		return "unknown"
	}
}

// ForecastUpdate is posted after a live refit: the model that produced
// it and the forecast path on the price scale.
type ForecastUpdate struct {
	Source    string          `json:"src,omitempty"`
	Symbol    string          `json:"symbol,omitempty"`
	RunID     utility.RunID   `json:"run_id,omitempty"`
	TraceID   utility.TraceID `json:"tid,omitempty"`
	TimeStamp time.Time       `json:"ts"`
	Model     string          `json:"model"`
	Points    []models.Point  `json:"points"`
}

// Signal marks an unusual move in the quote stream, scored as the
// z-score of the latest price against its rolling window.
type Signal struct {
	Source    string          `json:"src,omitempty"`
	Symbol    string          `json:"symbol,omitempty"`
	RunID     utility.RunID   `json:"run_id,omitempty"`
	TraceID   utility.TraceID `json:"tid,omitempty"`
	TimeStamp time.Time       `json:"ts"`
	Price     fixed.Point     `json:"price"`
	ZScore    float64         `json:"zscore"`
	Comment   string          `json:"comment,omitempty"`
}
