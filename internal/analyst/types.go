package analyst

import (
	"fmt"

	"github.com/5ys-5y5/getEvents/internal/valuation"
)

// Horizons are the day offsets tracked for each published price target
var Horizons = []int{1, 2, 3, 4, 5, 6, 7, 14, 30, 60, 180, 365}

// HorizonKey formats a horizon as its map key, e.g. D7
func HorizonKey(days int) string {
	return fmt.Sprintf("D%d", days)
}

// LogRecord is one published price target plus the prices observed at
// each horizon after publication. Trend cells stay nil until filled.
type LogRecord struct {
	Symbol          string              `json:"symbol"`
	PublishedDate   string              `json:"publishedDate"`
	AnalystName     string              `json:"analystName"`
	AnalystCompany  string              `json:"analystCompany"`
	PriceTarget     *float64            `json:"priceTarget"`
	AdjPriceTarget  *float64            `json:"adjPriceTarget"`
	PriceWhenPosted *float64            `json:"priceWhenPosted"`
	PriceTrend      map[string]*float64 `json:"priceTrend,omitempty"`
}

// LogMeta describes the state of the analyst log after a refresh
type LogMeta struct {
	LastUpdated  string                  `json:"lastUpdated"`
	TickerCount  int                     `json:"tickerCount"`
	TotalRecords int                     `json:"totalRecords"`
	Step         string                  `json:"step"`
	NewRecords   int                     `json:"newRecords"`
	FilledCells  int                     `json:"filledCells"`
	DurationMs   int64                   `json:"duration"`
	Errors       []valuation.SourceError `json:"errors,omitempty"`
}

// Log is the accumulated price target history keyed by ticker
type Log struct {
	Meta LogMeta                `json:"meta"`
	Data map[string][]LogRecord `json:"data"`
}

// NewLog creates an empty analyst log
func NewLog() *Log {
	return &Log{Data: make(map[string][]LogRecord)}
}

// TotalRecords counts records across all tickers
func (l *Log) TotalRecords() int {
	n := 0
	for _, records := range l.Data {
		n += len(records)
	}
	return n
}

// GapRateStats summarizes the gap rate distribution at one horizon
type GapRateStats struct {
	MeanGapRate   *float64 `json:"meanGapRate"`
	StdGapRate    *float64 `json:"stdGapRate"`
	Count         int      `json:"count"`
	StandardError *float64 `json:"standardError"`
	CI95Lower     *float64 `json:"ci95Lower"`
	CI95Upper     *float64 `json:"ci95Upper"`
	CI95Width     *float64 `json:"ci95Width"`
}

// TimeToTarget summarizes how long an analyst's targets take to be reached
type TimeToTarget struct {
	Mean               *float64 `json:"mean"`
	Median             *float64 `json:"median"`
	Q25                *float64 `json:"q25"`
	Q75                *float64 `json:"q75"`
	Min                *float64 `json:"min"`
	Max                *float64 `json:"max"`
	TargetReachedCount int      `json:"targetReachedCount"`
	TotalTargets       int      `json:"totalTargets"`
	ReachedRatio       *float64 `json:"reachedRatio"`
}

// Accuracy summarizes the price-to-target ratio at the moment targets
// were reached
type Accuracy struct {
	Mean  *float64 `json:"mean"`
	Std   *float64 `json:"std"`
	Count int      `json:"count"`
}

// AnalystRating is the track record of one analyst across all tickers
type AnalystRating struct {
	AnalystName      string                  `json:"analystName"`
	AnalystCompany   string                  `json:"analystCompany"`
	PriceTargetCount int                     `json:"priceTargetCount"`
	GapRates         map[string]GapRateStats `json:"gapRates"`
	TimeToTarget     TimeToTarget            `json:"timeToTarget"`
	Accuracy         Accuracy                `json:"accuracy"`
}

// RatingMeta describes a generated rating snapshot
type RatingMeta struct {
	LastUpdated   string `json:"lastUpdated"`
	AnalystCount  int    `json:"analystCount"`
	SourceLogDate string `json:"sourceLogDate"`
	Horizons      []int  `json:"horizons"`
	Description   string `json:"description"`
	DurationMs    int64  `json:"duration"`
}

// Rating is the full analyst rating snapshot keyed by analyst identity
type Rating struct {
	Meta RatingMeta               `json:"meta"`
	Data map[string]AnalystRating `json:"data"`
}
