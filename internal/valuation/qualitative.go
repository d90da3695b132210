package valuation

import (
	"context"
)

// ConsensusTarget is the analyst consensus target price summary
type ConsensusTarget struct {
	TargetConsensus *float64 `json:"targetConsensus"`
	TargetHigh      *float64 `json:"targetHigh"`
	TargetLow       *float64 `json:"targetLow"`
	TargetMedian    *float64 `json:"targetMedian"`
}

// QualitativeResult carries the analyst-opinion metrics for one ticker
type QualitativeResult struct {
	ConsensusTargetPrice *ConsensusTarget       `json:"ConsensusTargetPrice"`
	PriceTargetSummary   map[string]interface{} `json:"PriceTargetSummary"`
	Errors               []SourceError          `json:"errors,omitempty"`
}

// CalculateQualitative gathers analyst-opinion data for one ticker.
// Each source degrades to null independently on failure.
func (c *Calculator) CalculateQualitative(ctx context.Context, ticker string) QualitativeResult {
	result := QualitativeResult{}

	consensus, err := c.source.GetPriceTargetConsensus(ctx, ticker)
	if err != nil {
		result.Errors = append(result.Errors, NewSourceError("fmp-price-target-consensus", err))
	} else if consensus != nil {
		result.ConsensusTargetPrice = &ConsensusTarget{
			TargetConsensus: consensus.TargetConsensus,
			TargetHigh:      consensus.TargetHigh,
			TargetLow:       consensus.TargetLow,
			TargetMedian:    consensus.TargetMedian,
		}
	}

	summary, err := c.source.GetPriceTargetSummary(ctx, ticker)
	if err != nil {
		result.Errors = append(result.Errors, NewSourceError("fmp-price-target-summary", err))
	} else {
		result.PriceTargetSummary = summary
	}

	return result
}
