package tracker

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/5ys-5y5/getEvents/internal/fmp"
)

type fakeHistory struct {
	rows map[string][]fmp.HistoricalPrice
	err  error
}

func (f *fakeHistory) GetHistoricalPrices(_ context.Context, symbol, _, _ string) ([]fmp.HistoricalPrice, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.rows[symbol], nil
}

type fakeSymbols map[string]bool

func (f fakeSymbols) HasSymbol(ticker string) bool { return f[ticker] }

func TestParseTradeLines(t *testing.T) {
	body := "long\tMODEL-1\tACME\t2025-06-10\nshort\tMODEL-2\tBOLT\t2025-06-11\n\nbad line\n"
	requests, errs := ParseTradeLines(body)

	require.Len(t, requests, 2)
	assert.Equal(t, TradeRequest{"long", "MODEL-1", "ACME", "2025-06-10"}, requests[0])
	assert.Equal(t, TradeRequest{"short", "MODEL-2", "BOLT", "2025-06-11"}, requests[1])

	require.Len(t, errs, 1)
	assert.Equal(t, CodeMalformedLine, errs[0].Code)
}

func TestValidateRejections(t *testing.T) {
	svc := NewService(&fakeHistory{}, fakeSymbols{"ACME": true}, 0.20, 0.05)

	cases := []struct {
		name string
		req  TradeRequest
		code string
	}{
		{"bad position", TradeRequest{"hold", "MODEL-1", "ACME", "2025-06-10"}, CodeInvalidPosition},
		{"bad model", TradeRequest{"long", "model-1", "ACME", "2025-06-10"}, CodeInvalidModelName},
		{"bad ticker", TradeRequest{"long", "MODEL-1", "acme", "2025-06-10"}, CodeInvalidTicker},
		{"unknown ticker", TradeRequest{"long", "MODEL-1", "GHOST", "2025-06-10"}, CodeTickerNotFound},
		{"bad date", TradeRequest{"long", "MODEL-1", "ACME", "06/10/2025"}, CodeInvalidDateFormat},
		{"future date", TradeRequest{"long", "MODEL-1", "ACME", "2099-01-02"}, CodeFutureDate},
		{"weekend", TradeRequest{"long", "MODEL-1", "ACME", "2025-06-07"}, CodeNonTradingDay},
		{"holiday", TradeRequest{"long", "MODEL-1", "ACME", "2025-07-04"}, CodeNonTradingDay},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			verr := svc.Validate(tc.req)
			require.NotNil(t, verr)
			assert.Equal(t, tc.code, verr.Code)
		})
	}

	assert.Nil(t, svc.Validate(TradeRequest{"long", "MODEL-1", "ACME", "2025-06-10"}))
}

func TestCreateTrade(t *testing.T) {
	history := &fakeHistory{rows: map[string][]fmp.HistoricalPrice{
		"ACME": {
			{Date: "2025-06-10", Open: 100.12345, High: 101, Low: 99, Close: 100.5},
			{Date: "2025-06-11", Open: 101, High: 102, Low: 100, Close: 101.5},
			{Date: "2025-06-12", Open: 102, High: 103, Low: 101, Close: 102.5},
		},
	}}
	svc := NewService(history, fakeSymbols{"ACME": true}, 0.20, 0.05)

	record, verr := svc.CreateTrade(context.Background(), TradeRequest{"long", "MODEL-1", "ACME", "2025-06-10"})
	require.Nil(t, verr)
	require.NotNil(t, record)

	// Entry price is the purchase-day open, rounded to 4 decimals
	require.NotNil(t, record.CurrentPrice)
	assert.Equal(t, 100.1234, *record.CurrentPrice)

	require.Len(t, record.Returns, 14)
	assert.Equal(t, "2025-06-11", record.Returns[0].Date)
	require.NotNil(t, record.Returns[0].ReturnRate)

	// Days with no bar at all land in missingDates
	assert.NotEmpty(t, record.Meta.MissingDates)
	assert.NotEmpty(t, record.Meta.CreatedAt)
}

func TestCreateTradeUpstreamFailure(t *testing.T) {
	history := &fakeHistory{err: errors.New("network down")}
	svc := NewService(history, fakeSymbols{"ACME": true}, 0.20, 0.05)

	record, verr := svc.CreateTrade(context.Background(), TradeRequest{"long", "MODEL-1", "ACME", "2025-06-10"})
	require.Nil(t, verr)
	require.NotNil(t, record)

	assert.Nil(t, record.CurrentPrice)
	require.NotEmpty(t, record.Meta.Errors)
	assert.Equal(t, "fmp-historical-price", record.Meta.Errors[0].ServiceID)
	assert.Contains(t, record.Meta.MissingDates, "2025-06-10")
}
