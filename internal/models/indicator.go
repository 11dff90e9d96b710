package models

// EconomicIndicator represents a single economic or risk data series
// observation with its prior reading.
type EconomicIndicator struct {
	SeriesID   string   `bson:"series_id" json:"series"`
	Name       string   `bson:"name,omitempty" json:"name,omitempty"`
	Value      *float64 `bson:"value" json:"value"`
	Date       string   `bson:"date,omitempty" json:"date,omitempty"`
	PriorValue *float64 `bson:"prior_value" json:"prior_value"`
	PriorDate  string   `bson:"prior_date,omitempty" json:"prior_date,omitempty"`

	// Change is set only when both Value and PriorValue are present.
	Change *float64 `bson:"change" json:"change"`

	Source string `bson:"source" json:"source"`
	Err    string `bson:"error,omitempty" json:"error,omitempty"`
}

// Quote represents a delayed equity/ETF quote.
type Quote struct {
	Symbol           string  `bson:"symbol" json:"symbol"`
	Price            float64 `bson:"price" json:"price"`
	Change           float64 `bson:"change" json:"change"`
	ChangePercent    string  `bson:"change_percent" json:"change_percent"`
	Volume           int64   `bson:"volume" json:"volume"`
	LatestTradingDay string  `bson:"latest_trading_day,omitempty" json:"latest_trading_day,omitempty"`
	Source           string  `bson:"source" json:"source"`
	Err              string  `bson:"error,omitempty" json:"error,omitempty"`
}

// FuturesQuote represents a front-month futures contract quote.
type FuturesQuote struct {
	Symbol string   `bson:"symbol" json:"symbol"`
	Name   string   `bson:"name" json:"name"`
	Price  *float64 `bson:"price" json:"price"`
	Change *float64 `bson:"change" json:"change"`
	Source string   `bson:"source" json:"source"`
	Err    string   `bson:"error,omitempty" json:"error,omitempty"`
}

// NewsEvent represents a single market-moving news result.
type NewsEvent struct {
	Topic   string  `bson:"topic" json:"topic"`
	Title   string  `bson:"title" json:"title"`
	Content string  `bson:"content" json:"content"`
	URL     string  `bson:"url,omitempty" json:"url,omitempty"`
	Score   float64 `bson:"score,omitempty" json:"score,omitempty"`
	Source  string  `bson:"source" json:"source"`
}
