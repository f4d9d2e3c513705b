package stream

import (
	"github.com/goccy/go-json"
)

const (
	typeSubscribe   = "subscribe"
	typeSubscribed  = "subscribed"
	typeUnsubscribe = "unsubscribe"
	typeQuote       = "quote"
	typePing        = "ping"
	typePong        = "pong"
	typeError       = "error"
)

// wireMessage is the envelope of the quote feed protocol. Requests
// carry a correlation id which the feed echoes back on the response.
type wireMessage struct {
	ID      string          `json:"id,omitempty"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type wireSubscribe struct {
	Symbols []string `json:"symbols"`
}

type wireQuote struct {
	Symbol    string  `json:"symbol"`
	TimeStamp int64   `json:"ts"`
	Bid       float64 `json:"bid"`
	Ask       float64 `json:"ask"`
	BidVolume float64 `json:"bid_volume,omitempty"`
	AskVolume float64 `json:"ask_volume,omitempty"`
}

type wireError struct {
	Code        int    `json:"code,omitempty"`
	Description string `json:"description,omitempty"`
}
