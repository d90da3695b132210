package valuation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fp(v float64) *float64 { return &v }

func TestTTMFromQuarters(t *testing.T) {
	// Four valid quarters sum directly
	got := TTMFromQuarters([]*float64{fp(10), fp(20), fp(30), fp(40)})
	require.NotNil(t, got)
	assert.InDelta(t, 100, *got, 1e-9)

	// Partial series annualizes from the average
	got = TTMFromQuarters([]*float64{fp(10), nil, fp(30)})
	require.NotNil(t, got)
	assert.InDelta(t, 80, *got, 1e-9)

	// Single quarter
	got = TTMFromQuarters([]*float64{fp(25)})
	require.NotNil(t, got)
	assert.InDelta(t, 100, *got, 1e-9)

	// No valid quarters
	assert.Nil(t, TTMFromQuarters([]*float64{nil, nil}))
	assert.Nil(t, TTMFromQuarters(nil))
}

func TestAvgFromQuarters(t *testing.T) {
	got := AvgFromQuarters([]*float64{fp(10), nil, fp(20)})
	require.NotNil(t, got)
	assert.InDelta(t, 15, *got, 1e-9)

	assert.Nil(t, AvgFromQuarters([]*float64{nil}))
}

func TestLastFromQuarters(t *testing.T) {
	got := LastFromQuarters([]*float64{nil, fp(7), fp(9)})
	require.NotNil(t, got)
	assert.Equal(t, 7.0, *got)

	assert.Nil(t, LastFromQuarters([]*float64{nil, nil}))
}

func TestYoYFromQuarters(t *testing.T) {
	got := YoYFromQuarters([]*float64{fp(120), fp(110), fp(105), fp(100)})
	require.NotNil(t, got)
	assert.InDelta(t, 0.2, *got, 1e-9)

	// Fewer than four quarters
	assert.Nil(t, YoYFromQuarters([]*float64{fp(120), fp(110), fp(105)}))

	// Nil endpoint
	assert.Nil(t, YoYFromQuarters([]*float64{nil, fp(110), fp(105), fp(100)}))
	assert.Nil(t, YoYFromQuarters([]*float64{fp(120), fp(110), fp(105), nil}))

	// Zero base
	assert.Nil(t, YoYFromQuarters([]*float64{fp(120), fp(110), fp(105), fp(0)}))
}

func TestQoQFromQuarters(t *testing.T) {
	got := QoQFromQuarters([]*float64{fp(110), fp(100)})
	require.NotNil(t, got)
	assert.InDelta(t, 0.1, *got, 1e-9)

	assert.Nil(t, QoQFromQuarters([]*float64{fp(110)}))
	assert.Nil(t, QoQFromQuarters([]*float64{fp(110), fp(0)}))
	assert.Nil(t, QoQFromQuarters([]*float64{nil, fp(100)}))
}

func TestPercentile(t *testing.T) {
	values := []float64{10, 20, 30, 40, 50}

	got := Percentile(values, 20)
	require.NotNil(t, got)
	assert.InDelta(t, 18, *got, 1e-9)

	got = Percentile(values, 5)
	require.NotNil(t, got)
	assert.InDelta(t, 12, *got, 1e-9)

	got = Percentile(values, 0)
	require.NotNil(t, got)
	assert.InDelta(t, 10, *got, 1e-9)

	got = Percentile(values, 100)
	require.NotNil(t, got)
	assert.InDelta(t, 50, *got, 1e-9)

	// Unsorted input sorts internally
	got = Percentile([]float64{50, 10, 40, 20, 30}, 20)
	require.NotNil(t, got)
	assert.InDelta(t, 18, *got, 1e-9)

	// Single value is its own percentile
	got = Percentile([]float64{42}, 75)
	require.NotNil(t, got)
	assert.Equal(t, 42.0, *got)

	assert.Nil(t, Percentile(nil, 50))
}
