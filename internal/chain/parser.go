package chain

import (
	"encoding/json"
	"sort"
	"time"

	"optionchain-trader/internal/errors"
	"optionchain-trader/internal/models"
)

// Parser normalizes raw option-chain payloads into snapshots.
type Parser struct {
	now func() time.Time
}

// NewParser creates a new snapshot parser.
func NewParser() *Parser {
	return &Parser{now: time.Now}
}

// Parse normalizes a raw payload into a Snapshot for the given symbol.
//
// Rows without a strike price are dropped. A missing CE or PE sub-object
// stays nil on the row; missing OI fields within a present side decode to 0.
// Output rows are sorted ascending by strike, then expiry, so downstream
// metrics never depend on payload order. An empty row set is a valid empty
// Snapshot, not an error.
//
// A payload without a records block or with an empty expiry list is
// malformed: the structure cannot be reasoned about and the tick should be
// skipped.
func (p *Parser) Parse(symbol string, payload *Payload) (*models.Snapshot, error) {
	if payload == nil || payload.Records == nil {
		return nil, errors.NewDataError("option-chain", symbol, "missing records block", errors.ErrMalformedSnapshot)
	}
	if len(payload.Records.ExpiryDates) == 0 {
		return nil, errors.NewDataError("option-chain", symbol, "no expiry dates", errors.ErrMalformedSnapshot)
	}

	nearest := payload.Records.ExpiryDates[0]

	rows := make([]models.StrikeRow, 0, len(payload.Records.Data))
	for _, raw := range payload.Records.Data {
		if raw.StrikePrice == nil {
			continue
		}
		row := models.StrikeRow{
			Strike: int64(*raw.StrikePrice),
			Expiry: raw.ExpiryDate,
		}
		if raw.CE != nil {
			row.CE = &models.OptionSide{
				OI:       raw.CE.OpenInterest,
				ChangeOI: raw.CE.ChangeInOpenInterest,
				LTP:      raw.CE.LastPrice,
			}
		}
		if raw.PE != nil {
			row.PE = &models.OptionSide{
				OI:       raw.PE.OpenInterest,
				ChangeOI: raw.PE.ChangeInOpenInterest,
				LTP:      raw.PE.LastPrice,
			}
		}
		rows = append(rows, row)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Strike != rows[j].Strike {
			return rows[i].Strike < rows[j].Strike
		}
		return rows[i].Expiry < rows[j].Expiry
	})

	return &models.Snapshot{
		Symbol:        symbol,
		Underlying:    payload.Records.UnderlyingValue,
		NearestExpiry: nearest,
		CapturedAt:    p.now(),
		Strikes:       rows,
	}, nil
}

// ParseJSON decodes and normalizes a raw JSON payload.
func (p *Parser) ParseJSON(symbol string, data []byte) (*models.Snapshot, error) {
	var payload Payload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, errors.NewDataError("option-chain", symbol, "invalid JSON", errors.ErrMalformedSnapshot)
	}
	return p.Parse(symbol, &payload)
}
