package fmp

// Quote is a real-time quote row
type Quote struct {
	Symbol    string   `json:"symbol"`
	Price     *float64 `json:"price"`
	MarketCap *float64 `json:"marketCap"`
	Exchange  string   `json:"exchange"`
	Timestamp int64    `json:"timestamp"`
}

// AftermarketQuote is a pre/post market trade row
type AftermarketQuote struct {
	Symbol    string   `json:"symbol"`
	Price     *float64 `json:"price"`
	Timestamp int64    `json:"timestamp"`
}

// IncomeStatement is one quarterly income statement row.
// Fields are pointers because upstream omits or nulls them freely.
type IncomeStatement struct {
	Date                           string   `json:"date"`
	Revenue                        *float64 `json:"revenue"`
	NetIncome                      *float64 `json:"netIncome"`
	EBITDA                         *float64 `json:"ebitda"`
	GrossProfit                    *float64 `json:"grossProfit"`
	ResearchAndDevelopmentExpenses *float64 `json:"researchAndDevelopmentExpenses"`
	OperatingIncome                *float64 `json:"operatingIncome"`
	WeightedAverageShsOut          *float64 `json:"weightedAverageShsOut"`
	AdditionalPaidInCapital        *float64 `json:"additionalPaidInCapital"`
}

// BalanceSheet is one quarterly balance sheet row
type BalanceSheet struct {
	Date                        string   `json:"date"`
	TotalStockholdersEquity     *float64 `json:"totalStockholdersEquity"`
	TotalDebt                   *float64 `json:"totalDebt"`
	CashAndCashEquivalents      *float64 `json:"cashAndCashEquivalents"`
	CashAndShortTermInvestments *float64 `json:"cashAndShortTermInvestments"`
	TotalCurrentAssets          *float64 `json:"totalCurrentAssets"`
	TotalCurrentLiabilities     *float64 `json:"totalCurrentLiabilities"`
	NetDebt                     *float64 `json:"netDebt"`
	OtherNonCurrentLiabilities  *float64 `json:"otherNonCurrentLiabilities"`
}

// StockPeers lists tickers considered comparable to a symbol
type StockPeers struct {
	Symbol    string   `json:"symbol"`
	PeersList []string `json:"peersList"`
}

// PriceTargetConsensus aggregates current analyst target prices
type PriceTargetConsensus struct {
	Symbol          string   `json:"symbol"`
	TargetHigh      *float64 `json:"targetHigh"`
	TargetLow       *float64 `json:"targetLow"`
	TargetConsensus *float64 `json:"targetConsensus"`
	TargetMedian    *float64 `json:"targetMedian"`
}

// PriceTargetRecord is one published analyst price target
type PriceTargetRecord struct {
	Symbol          string   `json:"symbol"`
	PublishedDate   string   `json:"publishedDate"`
	AnalystName     string   `json:"analystName"`
	AnalystCompany  string   `json:"analystCompany"`
	PriceTarget     *float64 `json:"priceTarget"`
	AdjPriceTarget  *float64 `json:"adjPriceTarget"`
	PriceWhenPosted *float64 `json:"priceWhenPosted"`
	NewsURL         string   `json:"newsURL,omitempty"`
	NewsTitle       string   `json:"newsTitle,omitempty"`
}

// HistoricalPrice is one daily OHLC bar
type HistoricalPrice struct {
	Date  string  `json:"date"`
	Open  float64 `json:"open"`
	High  float64 `json:"high"`
	Low   float64 `json:"low"`
	Close float64 `json:"close"`
}
