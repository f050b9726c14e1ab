package chain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "optionchain-trader/internal/errors"
)

func float64Ptr(v float64) *float64 { return &v }

func testPayload() *Payload {
	return &Payload{
		Records: &Records{
			ExpiryDates:     []string{"04-Sep-2026", "11-Sep-2026"},
			UnderlyingValue: 24315.5,
			Data: []RawStrike{
				{
					StrikePrice: float64Ptr(24400),
					ExpiryDate:  "04-Sep-2026",
					CE:          &RawSide{OpenInterest: 500, ChangeInOpenInterest: 50, LastPrice: 80.5},
					PE:          &RawSide{OpenInterest: 300, ChangeInOpenInterest: -20, LastPrice: 140.0},
				},
				{
					StrikePrice: float64Ptr(24300),
					ExpiryDate:  "04-Sep-2026",
					CE:          &RawSide{OpenInterest: 900, ChangeInOpenInterest: 10, LastPrice: 130.0},
				},
				{
					// No strike price, must be dropped.
					ExpiryDate: "04-Sep-2026",
					PE:         &RawSide{OpenInterest: 999},
				},
				{
					StrikePrice: float64Ptr(24300),
					ExpiryDate:  "11-Sep-2026",
					PE:          &RawSide{OpenInterest: 400, ChangeInOpenInterest: 5, LastPrice: 95.0},
				},
			},
		},
	}
}

func TestParseNormalizesPayload(t *testing.T) {
	snap, err := NewParser().Parse("NIFTY", testPayload())
	require.NoError(t, err)

	assert.Equal(t, "NIFTY", snap.Symbol)
	assert.Equal(t, "04-Sep-2026", snap.NearestExpiry)
	assert.Equal(t, 24315.5, snap.Underlying)
	assert.False(t, snap.IsEmpty())

	// The row without a strike price is dropped.
	require.Len(t, snap.Strikes, 3)

	// Sorted ascending by strike, then expiry.
	assert.Equal(t, int64(24300), snap.Strikes[0].Strike)
	assert.Equal(t, "04-Sep-2026", snap.Strikes[0].Expiry)
	assert.Equal(t, int64(24300), snap.Strikes[1].Strike)
	assert.Equal(t, "11-Sep-2026", snap.Strikes[1].Expiry)
	assert.Equal(t, int64(24400), snap.Strikes[2].Strike)
}

func TestParseMissingSideReadsAsZero(t *testing.T) {
	snap, err := NewParser().Parse("NIFTY", testPayload())
	require.NoError(t, err)

	row := snap.Strikes[0] // 24300 near expiry, CE only
	require.NotNil(t, row.CE)
	require.Nil(t, row.PE)
	assert.Equal(t, int64(900), row.CEOI())
	assert.Equal(t, int64(0), row.PEOI())
	assert.Equal(t, int64(0), row.PEChangeOI())
}

func TestParseEmptyChainIsValid(t *testing.T) {
	payload := &Payload{
		Records: &Records{
			ExpiryDates: []string{"04-Sep-2026"},
		},
	}
	snap, err := NewParser().Parse("NIFTY", payload)
	require.NoError(t, err)
	assert.True(t, snap.IsEmpty())
	assert.Empty(t, snap.Strikes)
}

func TestParseMalformedPayloads(t *testing.T) {
	p := NewParser()

	_, err := p.Parse("NIFTY", nil)
	assert.ErrorIs(t, err, apperrors.ErrMalformedSnapshot)

	_, err = p.Parse("NIFTY", &Payload{})
	assert.ErrorIs(t, err, apperrors.ErrMalformedSnapshot)

	_, err = p.Parse("NIFTY", &Payload{Records: &Records{}})
	assert.ErrorIs(t, err, apperrors.ErrMalformedSnapshot)
}

func TestParseJSON(t *testing.T) {
	p := NewParser()

	data := []byte(`{
		"records": {
			"expiryDates": ["04-Sep-2026"],
			"underlyingValue": 24000.0,
			"data": [
				{
					"strikePrice": 24000,
					"expiryDate": "04-Sep-2026",
					"CE": {"openInterest": 100, "changeinOpenInterest": 5, "lastPrice": 55.5},
					"PE": {"openInterest": 200, "changeinOpenInterest": -3, "lastPrice": 60.0}
				}
			]
		}
	}`)

	snap, err := p.ParseJSON("NIFTY", data)
	require.NoError(t, err)
	require.Len(t, snap.Strikes, 1)
	assert.Equal(t, int64(100), snap.Strikes[0].CEOI())
	assert.Equal(t, int64(-3), snap.Strikes[0].PEChangeOI())
	assert.Equal(t, 60.0, snap.Strikes[0].PE.LTP)

	_, err = p.ParseJSON("NIFTY", []byte("{not json"))
	assert.ErrorIs(t, err, apperrors.ErrMalformedSnapshot)
}

func TestParseJSONMissingOIFieldsDefaultZero(t *testing.T) {
	data := []byte(`{
		"records": {
			"expiryDates": ["04-Sep-2026"],
			"underlyingValue": 24000.0,
			"data": [
				{"strikePrice": 24000, "expiryDate": "04-Sep-2026", "CE": {"lastPrice": 10.0}}
			]
		}
	}`)

	snap, err := NewParser().ParseJSON("NIFTY", data)
	require.NoError(t, err)
	require.Len(t, snap.Strikes, 1)
	assert.Equal(t, int64(0), snap.Strikes[0].CEOI())
	assert.Equal(t, int64(0), snap.Strikes[0].CEChangeOI())
}
