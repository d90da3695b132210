package analyst

import (
	"errors"
	"time"

	"gonum.org/v1/gonum/stat"
)

const ratingDescription = "Gap rate = (D+N price / priceWhenPosted) - 1. Statistics exclude null values."

// Target price counts as reached when the observed price lands within
// 2% of it in either direction.
const (
	targetRatioLow  = 0.98
	targetRatioHigh = 1.02
)

// ErrEmptyLog is returned when a rating is requested before any price
// target data has been collected
var ErrEmptyLog = errors.New("no analyst log data available")

// analystKey identifies an analyst across tickers
func analystKey(name, company string) string {
	if name == "" {
		name = "Unknown"
	}
	if company == "" {
		company = "Unknown"
	}
	return name + "|" + company
}

// GenerateRating builds per-analyst track records from the accumulated
// price target log. The log is read once into per-analyst groups, so a
// concurrent refresh cannot skew a rating in progress.
func GenerateRating(log *Log) (*Rating, error) {
	if log == nil || len(log.Data) == 0 {
		return nil, ErrEmptyLog
	}

	start := time.Now()

	// Group every record by analyst across all tickers. Records that
	// cannot feed statistics still count toward the analyst's identity.
	groups := make(map[string][]LogRecord)
	for ticker, records := range log.Data {
		for _, rec := range records {
			if rec.Symbol == "" {
				rec.Symbol = ticker
			}
			key := analystKey(rec.AnalystName, rec.AnalystCompany)
			groups[key] = append(groups[key], rec)
		}
	}

	data := make(map[string]AnalystRating, len(groups))
	for key, records := range groups {
		data[key] = rateAnalyst(records)
	}

	return &Rating{
		Meta: RatingMeta{
			LastUpdated:   time.Now().UTC().Format(time.RFC3339),
			AnalystCount:  len(data),
			SourceLogDate: log.Meta.LastUpdated,
			Horizons:      Horizons,
			Description:   ratingDescription,
			DurationMs:    time.Since(start).Milliseconds(),
		},
		Data: data,
	}, nil
}

func rateAnalyst(records []LogRecord) AnalystRating {
	name, company := "Unknown", "Unknown"
	if records[0].AnalystName != "" {
		name = records[0].AnalystName
	}
	if records[0].AnalystCompany != "" {
		company = records[0].AnalystCompany
	}

	// Statistics only use records with a positive posted price and an
	// initialized horizon grid
	usable := make([]LogRecord, 0, len(records))
	for _, rec := range records {
		if rec.PriceWhenPosted == nil || *rec.PriceWhenPosted <= 0 || rec.PriceTrend == nil {
			continue
		}
		usable = append(usable, rec)
	}

	gapRates := make(map[string]GapRateStats, len(Horizons))
	for _, h := range Horizons {
		key := HorizonKey(h)
		var gaps []float64
		for _, rec := range usable {
			price := rec.PriceTrend[key]
			if price == nil {
				continue
			}
			gaps = append(gaps, *price / *rec.PriceWhenPosted - 1)
		}
		gapRates[key] = summarize(gaps)
	}

	var daysToTarget []float64
	var accuracies []float64
	totalTargets := 0
	for _, rec := range usable {
		if rec.PriceTarget == nil || *rec.PriceTarget == 0 {
			continue
		}
		totalTargets++
		for _, h := range Horizons {
			price := rec.PriceTrend[HorizonKey(h)]
			if price == nil {
				continue
			}
			ratio := *price / *rec.PriceTarget
			if ratio >= targetRatioLow && ratio <= targetRatioHigh {
				daysToTarget = append(daysToTarget, float64(h))
				accuracies = append(accuracies, ratio)
				break
			}
		}
	}

	ttt := TimeToTarget{
		TargetReachedCount: len(daysToTarget),
		TotalTargets:       totalTargets,
	}
	if totalTargets > 0 {
		ttt.ReachedRatio = ptr(float64(len(daysToTarget)) / float64(totalTargets))
	}
	if len(daysToTarget) > 0 {
		ttt.Mean = ptr(stat.Mean(daysToTarget, nil))
		ttt.Median = quantile(daysToTarget, 0.5)
		ttt.Q25 = quantile(daysToTarget, 0.25)
		ttt.Q75 = quantile(daysToTarget, 0.75)
		ttt.Min = quantile(daysToTarget, 0)
		ttt.Max = quantile(daysToTarget, 1)
	}

	acc := Accuracy{Count: len(accuracies)}
	if len(accuracies) > 0 {
		acc.Mean = ptr(stat.Mean(accuracies, nil))
		acc.Std = ptr(stat.PopStdDev(accuracies, nil))
	}

	return AnalystRating{
		AnalystName:      name,
		AnalystCompany:   company,
		PriceTargetCount: len(records),
		GapRates:         gapRates,
		TimeToTarget:     ttt,
		Accuracy:         acc,
	}
}
