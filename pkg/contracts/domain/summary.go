package domain

// ItemSummary aggregates the raw observations of one item
type ItemSummary struct {
	Item         string  `json:"item"`
	Observations int     `json:"observations"`
	FirstYear    int     `json:"first_year"`
	LatestYear   int     `json:"latest_year"`
	MinPrice     float64 `json:"min_price"`
	MaxPrice     float64 `json:"max_price"`
	AvgPrice     float64 `json:"avg_price"`
}

// YearComparison is the change of an item's annual mean price between two years
type YearComparison struct {
	Item        string  `json:"item"`
	BaseYear    int     `json:"base_year"`
	TargetYear  int     `json:"target_year"`
	BasePrice   float64 `json:"base_price"`
	TargetPrice float64 `json:"target_price"`
	Delta       float64 `json:"delta"`
	PctChange   float64 `json:"pct_change"`
}
