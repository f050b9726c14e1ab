// Package chain normalizes raw option-chain payloads into snapshots.
package chain

// Payload mirrors the NSE option-chain API response structure. Fields the
// engine does not consume are omitted; absent JSON fields decode to zero
// values or nil pointers.
type Payload struct {
	Records *Records `json:"records"`
}

// Records holds the per-strike data and expiry schedule of a payload.
type Records struct {
	ExpiryDates     []string    `json:"expiryDates"`
	UnderlyingValue float64     `json:"underlyingValue"`
	Timestamp       string      `json:"timestamp"`
	Data            []RawStrike `json:"data"`
}

// RawStrike is one raw per-strike record. Either side may be absent, and so
// may the strike itself on malformed rows.
type RawStrike struct {
	StrikePrice *float64 `json:"strikePrice"`
	ExpiryDate  string   `json:"expiryDate"`
	CE          *RawSide `json:"CE"`
	PE          *RawSide `json:"PE"`
}

// RawSide is the CE or PE sub-object of a raw strike record.
type RawSide struct {
	OpenInterest         int64   `json:"openInterest"`
	ChangeInOpenInterest int64   `json:"changeinOpenInterest"`
	LastPrice            float64 `json:"lastPrice"`
}
