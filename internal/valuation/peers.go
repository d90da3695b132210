package valuation

import (
	"context"

	"gonum.org/v1/gonum/stat"

	"github.com/5ys-5y5/getEvents/internal/logger"
)

// CalculatePeers averages the metric sets of a ticker's peer group.
// Returns nil when no peers are known or none produced usable metrics.
// Peer-level failures are reported through the error list while the
// remaining peers still contribute.
func (c *Calculator) CalculatePeers(ctx context.Context, ticker string) (*PeerResult, []SourceError) {
	var errs []SourceError

	peers, err := c.source.GetPeers(ctx, ticker)
	if err != nil {
		errs = append(errs, NewSourceError("fmp-stock-peers", err))
		return nil, errs
	}
	if len(peers) == 0 {
		errs = append(errs, NewSourceErrorf("fmp-stock-peers", "no peer data available for %s", ticker))
		return nil, errs
	}

	peerSets := make([]MetricSet, 0, len(peers))
	for _, peer := range peers {
		res := c.Calculate(ctx, peer)
		errs = append(errs, res.Errors...)
		if hasAnyValue(res.Metrics) {
			peerSets = append(peerSets, res.Metrics)
		}
	}

	if len(peerSets) == 0 {
		errs = append(errs, NewSourceErrorf("peer-valuation", "no valid peer metrics calculated for %s", ticker))
		return nil, errs
	}

	avg := NewMetricSet()
	for _, m := range AllMetrics {
		var values []float64
		for _, set := range peerSets {
			if v := set[m]; v != nil {
				values = append(values, *v)
			}
		}
		if len(values) > 0 {
			avg[m] = ptr(stat.Mean(values, nil))
		}
	}

	logger.Debug(ctx, "Peer metrics averaged",
		"ticker", ticker,
		"peerCount", len(peerSets),
		"peerTotal", len(peers))

	return &PeerResult{
		Metrics:   avg,
		PeerCount: len(peerSets),
		PeerList:  peers,
	}, errs
}

func hasAnyValue(set MetricSet) bool {
	for _, v := range set {
		if v != nil {
			return true
		}
	}
	return false
}
