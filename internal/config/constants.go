package config

// Application constants
const (
	AppName    = "pricewatch"
	AppVersion = "1.0.0"

	// Input and output locations, relative to the data directory
	DefaultWorkbook      = "raw/prices.xlsx"
	DefaultDailyIndexDir = "raw/daily_index"
	DefaultCleanDir      = "clean"
	DefaultForecastDir   = "forecasts"
	DefaultMobileDir     = "mobile"

	// Export file names
	ReconciledWorkbookName = "reconciled.xlsx"
	ForecastFileName       = "forecast.csv"
	SummaryFileName        = "summary.csv"
	PricesJSONName         = "prices.json"
	ForecastsJSONName      = "forecasts.json"
	CurrentPricesJSONName  = "current_prices.json"
	MetricsFileName        = "metrics.prom"

	// Imputation
	DefaultInterpolationLimit = 14
	DefaultSmoothingWindow    = 7
	DefaultMinPeriods         = 3
	DefaultMADMultiplier      = 3.0

	// Forecasting
	DefaultHorizon         = 90
	DefaultHoldout         = 45
	DefaultTrendWindow     = 60
	DefaultTrendMin        = 0.5
	DefaultTrendMax        = 2.0
	DefaultBlendDays       = 7
	DefaultZScore          = 1.96
	DefaultMinBacktestDays = 30

	// Number of trailing days exported as current prices
	CurrentPricesWindowDays = 30
)
