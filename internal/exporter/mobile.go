package exporter

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/JayshuaGarcia/AgriAssist-Capstone/internal/config"
	"github.com/JayshuaGarcia/AgriAssist-Capstone/pkg/contracts/domain"
)

// PricesPayload is the monthly price overview consumed by the mobile app
type PricesPayload struct {
	GeneratedAt time.Time   `json:"generatedAt"`
	Items       []PriceItem `json:"items"`
}

// PriceItem holds the monthly means of one item per year
type PriceItem struct {
	Name  string      `json:"name"`
	Years []PriceYear `json:"years"`
}

// PriceYear lists twelve months; months without data have a null price
type PriceYear struct {
	Year   int          `json:"year"`
	Months []MonthPrice `json:"months"`
}

// MonthPrice is the mean price of one calendar month
type MonthPrice struct {
	Month int      `json:"month"`
	Label string   `json:"label"`
	Price *float64 `json:"price"`
}

// ForecastsPayload is the forecast feed consumed by the mobile app
type ForecastsPayload struct {
	GeneratedAt time.Time      `json:"generatedAt"`
	HorizonDays int            `json:"horizonDays"`
	Items       []ForecastItem `json:"items"`
}

// ForecastItem is the projection of one item
type ForecastItem struct {
	Name   string              `json:"name"`
	Key    string              `json:"key"`
	Model  string              `json:"model"`
	MAPE   *float64            `json:"mape"`
	Points []ForecastPointJSON `json:"points"`
}

// ForecastPointJSON is a forecast day with an ISO date
type ForecastPointJSON struct {
	Date     string  `json:"date"`
	Forecast float64 `json:"forecast"`
	Lower    float64 `json:"lower"`
	Upper    float64 `json:"upper"`
}

// CurrentPricesPayload lists the most recent official prices.
// LatestDate is null when no prices are known.
type CurrentPricesPayload struct {
	GeneratedAt time.Time     `json:"generatedAt"`
	LatestDate  *string       `json:"latestDate"`
	DaysShown   int           `json:"daysShown,omitempty"`
	Items       []CurrentItem `json:"items"`
}

// CurrentItem is the recent price history of one item
type CurrentItem struct {
	Name   string       `json:"name"`
	Prices []DatedPrice `json:"prices"`
}

// DatedPrice is a price on an ISO date
type DatedPrice struct {
	Date  string  `json:"date"`
	Price float64 `json:"price"`
}

// BuildPricesPayload averages every item-year series per calendar month
func BuildPricesPayload(series []domain.ItemSeries, generatedAt time.Time) PricesPayload {
	items := make([]PriceItem, 0, len(series))
	for _, s := range series {
		item := PriceItem{Name: s.Item, Years: make([]PriceYear, 0, len(s.Years))}
		for _, ys := range s.Years {
			var sums [12]float64
			var counts [12]int
			for _, p := range ys.Points {
				if !p.HasPrice() {
					continue
				}
				m := int(p.Date.Month()) - 1
				sums[m] += *p.Price
				counts[m]++
			}
			months := make([]MonthPrice, 12)
			for m := 0; m < 12; m++ {
				months[m] = MonthPrice{Month: m + 1, Label: time.Month(m + 1).String()[:3]}
				if counts[m] > 0 {
					months[m].Price = domain.Float(round2(sums[m] / float64(counts[m])))
				}
			}
			item.Years = append(item.Years, PriceYear{Year: ys.Year, Months: months})
		}
		sort.Slice(item.Years, func(i, j int) bool { return item.Years[i].Year < item.Years[j].Year })
		items = append(items, item)
	}
	sort.SliceStable(items, func(i, j int) bool {
		return strings.ToLower(items[i].Name) < strings.ToLower(items[j].Name)
	})
	return PricesPayload{GeneratedAt: generatedAt, Items: items}
}

// BuildForecastsPayload converts forecast results for the mobile feed, in result order
func BuildForecastsPayload(results []domain.ForecastResult, displayNames map[string]string, horizon int, generatedAt time.Time) ForecastsPayload {
	items := make([]ForecastItem, 0, len(results))
	for _, res := range results {
		points := make([]ForecastPointJSON, len(res.Points))
		for i, p := range res.Points {
			points[i] = ForecastPointJSON{
				Date:     p.Date.Format(domain.DateLayout),
				Forecast: p.Forecast,
				Lower:    p.Lower,
				Upper:    p.Upper,
			}
		}
		items = append(items, ForecastItem{
			Name:   displayName(displayNames, res.Item),
			Key:    res.Item,
			Model:  res.Model,
			MAPE:   res.Metric,
			Points: points,
		})
	}
	return ForecastsPayload{GeneratedAt: generatedAt, HorizonDays: horizon, Items: items}
}

// BuildCurrentPrices keeps the official prices of the last days days before
// the latest official date. Without official prices the latest year of the
// cleaned series is used instead.
func BuildCurrentPrices(official []domain.Observation, cleaned map[string][]domain.DailySeriesPoint, days int, generatedAt time.Time) CurrentPricesPayload {
	records := official
	if len(records) == 0 {
		records = latestYearRecords(cleaned)
	}

	payload := CurrentPricesPayload{GeneratedAt: generatedAt, Items: []CurrentItem{}}
	if len(records) == 0 {
		return payload
	}

	var latest time.Time
	for _, r := range records {
		if r.Date.After(latest) {
			latest = r.Date
		}
	}
	latest = domain.Day(latest)
	cutoff := latest.AddDate(0, 0, -days)

	byItem := make(map[string][]domain.Observation)
	for _, r := range records {
		if domain.Day(r.Date).Before(cutoff) {
			continue
		}
		byItem[r.Item] = append(byItem[r.Item], r)
	}

	for item, recs := range byItem {
		sort.SliceStable(recs, func(i, j int) bool { return recs[i].Date.Before(recs[j].Date) })
		prices := make([]DatedPrice, len(recs))
		for i, r := range recs {
			prices[i] = DatedPrice{Date: r.Date.Format(domain.DateLayout), Price: round2(r.Price)}
		}
		payload.Items = append(payload.Items, CurrentItem{Name: item, Prices: prices})
	}
	sort.Slice(payload.Items, func(i, j int) bool {
		a, b := strings.ToLower(payload.Items[i].Name), strings.ToLower(payload.Items[j].Name)
		if a == b {
			return payload.Items[i].Name < payload.Items[j].Name
		}
		return a < b
	})

	date := latest.Format(domain.DateLayout)
	payload.LatestDate = &date
	payload.DaysShown = days
	return payload
}

// latestYearRecords flattens the priced points of the most recent year
func latestYearRecords(cleaned map[string][]domain.DailySeriesPoint) []domain.Observation {
	var year int
	for _, points := range cleaned {
		for _, p := range points {
			if p.HasPrice() && p.Date.Year() > year {
				year = p.Date.Year()
			}
		}
	}
	var out []domain.Observation
	for item, points := range cleaned {
		for _, p := range points {
			if p.HasPrice() && p.Date.Year() == year {
				out = append(out, domain.Observation{Item: item, Date: p.Date, Price: *p.Price})
			}
		}
	}
	return out
}

// WritePricesJSON writes prices.json for series
func (e *Exporter) WritePricesJSON(series []domain.ItemSeries) (string, error) {
	return e.writeJSON(config.PricesJSONName, BuildPricesPayload(series, e.now()))
}

// WriteForecastsJSON writes forecasts.json for results
func (e *Exporter) WriteForecastsJSON(results []domain.ForecastResult, displayNames map[string]string, horizon int) (string, error) {
	return e.writeJSON(config.ForecastsJSONName, BuildForecastsPayload(results, displayNames, horizon, e.now()))
}

// WriteCurrentPrices writes current_prices.json
func (e *Exporter) WriteCurrentPrices(official []domain.Observation, cleaned map[string][]domain.DailySeriesPoint) (string, error) {
	return e.writeJSON(config.CurrentPricesJSONName,
		BuildCurrentPrices(official, cleaned, config.CurrentPricesWindowDays, e.now()))
}

func (e *Exporter) writeJSON(name string, payload interface{}) (string, error) {
	path := e.paths.MobilePath(name)
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode %s: %w", name, err)
	}
	if err := e.files.WriteFile(path, data); err != nil {
		return "", err
	}
	e.logger.Info("Mobile export written",
		slog.String("path", path),
		slog.Int("size_bytes", len(data)))
	return path, nil
}

// LoadDisplayNames reads prices.json and maps safe folder names back to item
// names. A missing or unreadable file yields an empty map.
func (e *Exporter) LoadDisplayNames() map[string]string {
	names := make(map[string]string)
	path := e.paths.MobilePath(config.PricesJSONName)
	if !e.files.FileExists(path) {
		return names
	}
	data, err := e.files.ReadFile(path)
	if err != nil {
		e.logger.Warn("Ignoring unreadable prices.json", slog.String("error", err.Error()))
		return names
	}
	var payload PricesPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		e.logger.Warn("Ignoring unreadable prices.json", slog.String("error", err.Error()))
		return names
	}
	for _, item := range payload.Items {
		if item.Name != "" {
			names[SafeFolderName(item.Name)] = item.Name
		}
	}
	return names
}
