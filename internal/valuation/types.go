package valuation

import (
	"encoding/json"
	"fmt"
	"time"
)

// Metric identifies one valuation metric
type Metric string

const (
	MetricPBR                                   Metric = "PBR"
	MetricPSR                                   Metric = "PSR"
	MetricPER                                   Metric = "PER"
	MetricROE                                   Metric = "ROE"
	MetricEVEBITDA                              Metric = "EV_EBITDA"
	MetricRunwayYears                           Metric = "RunwayYears"
	MetricCurrentRatio                          Metric = "CurrentRatio"
	MetricCashToRevenueTTM                      Metric = "CashToRevenueTTM"
	MetricRevenueGrowthYoY                      Metric = "RevenueGrowthYoY"
	MetricRevenueGrowthQoQ                      Metric = "RevenueGrowthQoQ"
	MetricNetIncomeGrowthYoY                    Metric = "NetIncomeGrowthYoY"
	MetricNetIncomeGrowthQoQ                    Metric = "NetIncomeGrowthQoQ"
	MetricEBITDAGrowthYoY                       Metric = "EBITDAGrowthYoY"
	MetricEBITDAGrowthQoQ                       Metric = "EBITDAGrowthQoQ"
	MetricGrossMarginLastQuarter                Metric = "GrossMarginLastQuarter"
	MetricGrossMarginTTM                        Metric = "GrossMarginTTM"
	MetricRNDIntensityTTM                       Metric = "RNDIntensityTTM"
	MetricOperatingMarginTTM                    Metric = "OperatingMarginTTM"
	MetricSharesDilutionYoY                     Metric = "SharesDilutionYoY"
	MetricDebtToEquityAvg                       Metric = "DebtToEquityAvg"
	MetricOtherNonCurrentLiabilitiesToEquityAvg Metric = "OtherNonCurrentLiabilitiesToEquityAvg"
	MetricNetDebtToEquityAvg                    Metric = "NetDebtToEquityAvg"
	MetricAPICYoY                               Metric = "APICYoY"
)

// AllMetrics is the full ordered metric list. Serialization and peer
// averaging iterate this list so every metric key always appears.
var AllMetrics = []Metric{
	MetricPBR,
	MetricPSR,
	MetricPER,
	MetricROE,
	MetricEVEBITDA,
	MetricRunwayYears,
	MetricCurrentRatio,
	MetricCashToRevenueTTM,
	MetricRevenueGrowthYoY,
	MetricRevenueGrowthQoQ,
	MetricNetIncomeGrowthYoY,
	MetricNetIncomeGrowthQoQ,
	MetricEBITDAGrowthYoY,
	MetricEBITDAGrowthQoQ,
	MetricGrossMarginLastQuarter,
	MetricGrossMarginTTM,
	MetricRNDIntensityTTM,
	MetricOperatingMarginTTM,
	MetricSharesDilutionYoY,
	MetricDebtToEquityAvg,
	MetricOtherNonCurrentLiabilitiesToEquityAvg,
	MetricNetDebtToEquityAvg,
	MetricAPICYoY,
}

// MetricSet holds one value per metric. A nil value means the metric
// could not be computed from the available data.
type MetricSet map[Metric]*float64

// NewMetricSet creates a metric set with every metric present and nil
func NewMetricSet() MetricSet {
	set := make(MetricSet, len(AllMetrics))
	for _, m := range AllMetrics {
		set[m] = nil
	}
	return set
}

// MarshalJSON emits metrics in the canonical order with explicit nulls
func (s MetricSet) MarshalJSON() ([]byte, error) {
	buf := []byte{'{'}
	for i, m := range AllMetrics {
		if i > 0 {
			buf = append(buf, ',')
		}
		key, _ := json.Marshal(string(m))
		buf = append(buf, key...)
		buf = append(buf, ':')
		val, err := json.Marshal(s[m])
		if err != nil {
			return nil, err
		}
		buf = append(buf, val...)
	}
	return append(buf, '}'), nil
}

// SourceError records one upstream failure without aborting the
// surrounding computation
type SourceError struct {
	ServiceID    string `json:"serviceId"`
	ErrorMessage string `json:"errorMessage"`
	Timestamp    string `json:"timestamp"`
}

// NewSourceError builds a source error stamped with the current UTC time
func NewSourceError(serviceID string, err error) SourceError {
	return SourceError{
		ServiceID:    serviceID,
		ErrorMessage: err.Error(),
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
	}
}

// NewSourceErrorf builds a source error from a format string
func NewSourceErrorf(serviceID, format string, args ...interface{}) SourceError {
	return SourceError{
		ServiceID:    serviceID,
		ErrorMessage: fmt.Sprintf(format, args...),
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
	}
}

// Result is the quantitative metric set for one ticker plus the errors
// hit while assembling it
type Result struct {
	Metrics MetricSet     `json:"metrics"`
	Errors  []SourceError `json:"errors,omitempty"`
}

// PeerResult averages metric sets across a peer group. Its JSON form is
// the flat metric map with peerCount and peerList merged in.
type PeerResult struct {
	Metrics   MetricSet
	PeerCount int
	PeerList  []string
}

// MarshalJSON flattens metrics alongside peerCount and peerList
func (p PeerResult) MarshalJSON() ([]byte, error) {
	metrics, err := p.Metrics.MarshalJSON()
	if err != nil {
		return nil, err
	}

	peerList := p.PeerList
	if peerList == nil {
		peerList = []string{}
	}
	tail, err := json.Marshal(struct {
		PeerCount int      `json:"peerCount"`
		PeerList  []string `json:"peerList"`
	}{p.PeerCount, peerList})
	if err != nil {
		return nil, err
	}

	// Splice the two objects together
	out := metrics[:len(metrics)-1]
	if len(metrics) > 2 {
		out = append(out, ',')
	}
	out = append(out, tail[1:]...)
	return out, nil
}
