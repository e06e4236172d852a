package models

import "encoding/json"

// Signal represents an inbound trading alert from the charting platform.
// Price, volume and time are kept as json.Number/string so whatever the
// platform sent passes through to the command untouched.
type Signal struct {
	AuthKey          string      `json:"authKey"`
	Symbol           string      `json:"symbol"`
	Operation        string      `json:"operation"` // buy, sell, buy_market, sell_market
	Action           string      `json:"action"`    // open, close, close_market, modify
	Price            json.Number `json:"price,omitempty"`
	Volume           json.Number `json:"volume,omitempty"`
	Time             string      `json:"time"`
	ReceivedAtClient string      `json:"timenow,omitempty"`
}

// DedupKey builds the broker deduplication key for this signal.
// Plain concatenation of symbol, price and time, no separators.
func (s *Signal) DedupKey() string {
	return s.Symbol + s.Price.String() + s.Time
}

// TicketNotice is the payload the execution client posts when it opens or
// closes a position. Field names match the client's MQL-side structure.
type TicketNotice struct {
	Symbol string `json:"_symbol"`
	Ticket string `json:"_ticket"`
}
