package dataprocessing

import (
	"encoding/csv"
	"errors"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"

	apperrors "github.com/JayshuaGarcia/AgriAssist-Capstone/internal/errors"
	"github.com/JayshuaGarcia/AgriAssist-Capstone/internal/files"
	"github.com/JayshuaGarcia/AgriAssist-Capstone/pkg/contracts/domain"
)

// ItemMapping binds a bulletin row to a workbook item name
type ItemMapping struct {
	Category  string
	Commodity string
	// SpecHint must appear in the row specification when set
	SpecHint string
	Item     string
}

// DailyIndexMappings translates bulletin commodities into workbook item names
var DailyIndexMappings = []ItemMapping{
	{"IMPORTED COMMERCIAL RICE", "SPECIAL RICE", "", "Imported Special"},
	{"IMPORTED COMMERCIAL RICE", "PREMIUM", "", "Imported Premium"},
	{"IMPORTED COMMERCIAL RICE", "WELL MILLED", "", "Imported Well milled"},
	{"IMPORTED COMMERCIAL RICE", "REGULAR MILLED", "", "Imported Regular milled"},
	{"LOCAL COMMERCIAL RICE", "SPECIAL RICE", "", "Local Special"},
	{"LOCAL COMMERCIAL RICE", "PREMIUM", "", "Local Premium"},
	{"LOCAL COMMERCIAL RICE", "WELL MILLED", "", "Local Well milled"},
	{"LOCAL COMMERCIAL RICE", "REGULAR MILLED", "", "Local Regular milled"},
	{"LOWLAND VEGETABLES", "AMPALAYA", "", "Bittergourd (Ampalaya)"},
	{"LOWLAND VEGETABLES", "EGGPLANT", "", "Eggplant (Talong)"},
	{"LOWLAND VEGETABLES", "NATIVE PECHAY", "", "Pechay (Native)"},
	// the bulletin misspells SITAO on some days
	{"LOWLAND VEGETABLES", "POLE SITA0", "", "String Beans (Sitao)"},
	{"LOWLAND VEGETABLES", "POLE SITAO", "", "String Beans (Sitao)"},
	{"LOWLAND VEGETABLES", "SQUASH", "", "Squash"},
	{"LOWLAND VEGETABLES", "TOMATO", "", "Tomato"},
	{"HIGHLAND VEGETABLES", "LETTUCE (GREEN ICE)", "", "Lettuce (Green Ice)"},
	{"HIGHLAND VEGETABLES", "LETTUCE (ICEBERG)", "", "Lettuce (Iceberg)"},
	{"HIGHLAND VEGETABLES", "LETTUCE (ROMAINE)", "", "Lettuce (Romaine)"},
	{"SPICES", "CHILLI (RED), LOCAL", "", "Chilli (Labuyo)"},
	{"SPICES", "GARLIC, IMPORTED", "", "Imported Garlic"},
	{"SPICES", "GARLIC, NATIVE/LOCAL", "", "Local Garlic"},
	{"SPICES", "GINGER, LOCAL", "", "Ginger"},
	{"SPICES", "RED ONION, LOCAL", "", "Local Red Onion"},
	{"FRUITS", "BANANA (LAKATAN)", "", "Banana (Lakatan)"},
	{"FRUITS", "BANANA (LATUNDAN)", "", "Banana (Latundan)"},
	{"FRUITS", "BANANA (SABA)", "", "Banana (Saba)"},
	{"FRUITS", "CALAMANSI", "", "Calamansi"},
	{"FRUITS", "PAPAYA", "", "Papaya"},
	{"POULTRY PRODUCTS", "WHOLE CHICKEN, LOCAL", "FULLY DRESSED", "Whole Chicken"},
	{"POULTRY PRODUCTS", "CHICKEN EGG (WHITE, MEDIUM)", "", "Chicken Egg(White,M)"},
	{"OTHER LIVESTOCK MEAT", "PORK BELLY (LIEMPO), LOCAL", "", "Pork Ham Belly(Liempo)"},
	{"OTHER LIVESTOCK MEAT", "PORK BELLY (LIEMPO), IMPORTED", "", "Frozen Liempo"},
	{"OTHER LIVESTOCK MEAT", "PORK PICNIC SHOULDER (KASIM), LOCAL", "", "Pork Ham(Kasim)"},
	{"OTHER LIVESTOCK MEAT", "PORK PICNIC SHOULDER (KASIM), IMPORTED", "", "Frozen Kasim"},
}

// MapDailyIndexItem resolves a bulletin row to an item name. An exact
// category and commodity match wins; otherwise the category is ignored and
// the commodity is accepted only when it matches a single mapping.
func MapDailyIndexItem(category, commodity, specification string) (string, bool) {
	cat := strings.ToUpper(strings.TrimSpace(category))
	com := strings.ToUpper(strings.TrimSpace(commodity))
	spec := strings.ToUpper(specification)

	specOK := func(m ItemMapping) bool {
		return m.SpecHint == "" || strings.Contains(spec, m.SpecHint)
	}

	for _, m := range DailyIndexMappings {
		if m.Category == cat && m.Commodity == com && specOK(m) {
			return m.Item, true
		}
	}

	var found string
	matches := 0
	for _, m := range DailyIndexMappings {
		if m.Commodity == com && specOK(m) {
			found = m.Item
			matches++
		}
	}
	if matches == 1 {
		return found, true
	}
	return "", false
}

// DailyIndex is the official price feed read from bulletin files
type DailyIndex struct {
	// Records are averaged per (item, date) and sorted by item then date
	Records  []domain.Observation
	Files    int
	Rows     int
	Unmapped int
	Unpriced int
}

// LoadDailyIndex reads every dated bulletin CSV in dir. A missing directory
// yields an empty index.
func LoadDailyIndex(dir string) (*DailyIndex, error) {
	index := &DailyIndex{}
	if dir == "" {
		return index, nil
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return index, nil
	}

	bulletins, err := files.NewDiscovery("").FindDailyIndexFiles(dir)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to list daily index", err).WithContext("path", dir)
	}

	logger := slog.Default().With(slog.String("component", "daily_index"))
	type acc struct {
		sum   float64
		count int
	}
	sums := make(map[domain.PointKey]*acc)

	for _, bulletin := range bulletins {
		rows, err := readBulletin(bulletin.Path, bulletin.Date)
		if err != nil {
			return nil, err
		}
		index.Files++
		for _, row := range rows {
			index.Rows++
			if !row.priced {
				index.Unpriced++
				continue
			}
			item, ok := MapDailyIndexItem(row.category, row.commodity, row.specification)
			if !ok {
				index.Unmapped++
				continue
			}
			key := domain.PointKey{Item: item, Date: bulletin.Date.Format(domain.DateLayout)}
			a, ok := sums[key]
			if !ok {
				a = &acc{}
				sums[key] = a
			}
			a.sum += row.price
			a.count++
		}
	}

	for key, a := range sums {
		date, _ := domain.ParseDate(key.Date)
		index.Records = append(index.Records, domain.Observation{
			Item:  key.Item,
			Date:  date,
			Price: a.sum / float64(a.count),
		})
	}
	sort.Slice(index.Records, func(i, j int) bool {
		if index.Records[i].Item != index.Records[j].Item {
			return index.Records[i].Item < index.Records[j].Item
		}
		return index.Records[i].Date.Before(index.Records[j].Date)
	})

	logger.Info("Daily index loaded",
		slog.String("dir", dir),
		slog.Int("files", index.Files),
		slog.Int("records", len(index.Records)),
		slog.Int("unmapped_rows", index.Unmapped),
		slog.Int("unpriced_rows", index.Unpriced))

	return index, nil
}

type bulletinRow struct {
	category      string
	commodity     string
	specification string
	price         float64
	priced        bool
}

// readBulletin accepts two layouts: a "category,commodity,specification,price"
// table, or the raw table dump where a single upper-case cell opens a category
// and the price is the last cell of each commodity row.
func readBulletin(path string, date time.Time) ([]bulletinRow, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to open bulletin", err).WithContext("path", path)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var records [][]string
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, apperrors.NewParsingError("malformed bulletin", err).
				WithContext("path", path).
				WithContext("date", date.Format(domain.DateLayout))
		}
		records = append(records, record)
	}
	if len(records) == 0 {
		return nil, nil
	}

	idx := headerIndex(records[0])
	_, hasCategory := idx["category"]
	_, hasCommodity := idx["commodity"]
	_, hasPrice := idx["price"]
	if hasCategory && hasCommodity && hasPrice {
		return columnarRows(records[1:], idx), nil
	}
	return tableRows(records), nil
}

func columnarRows(records [][]string, idx map[string]int) []bulletinRow {
	rows := make([]bulletinRow, 0, len(records))
	for _, record := range records {
		row := bulletinRow{
			category:  cell(record, idx["category"]),
			commodity: cell(record, idx["commodity"]),
		}
		if col, ok := idx["specification"]; ok {
			row.specification = cell(record, col)
		}
		if strings.TrimSpace(row.commodity) == "" {
			continue
		}
		row.price, row.priced = NormalizePrice(cell(record, idx["price"]))
		row.priced = row.priced && row.price > 0
		rows = append(rows, row)
	}
	return rows
}

func tableRows(records [][]string) []bulletinRow {
	var rows []bulletinRow
	var category string
	for _, record := range records {
		var cells []string
		for _, c := range record {
			c = strings.TrimSpace(strings.ReplaceAll(c, "\n", " "))
			if c != "" {
				cells = append(cells, c)
			}
		}
		if len(cells) == 0 {
			continue
		}

		head := strings.ToUpper(cells[0])
		if strings.HasPrefix(head, "COMMODITY") || strings.HasPrefix(head, "PREVAILING") {
			continue
		}
		if len(cells) == 1 && isUpper(cells[0]) {
			category = head
			continue
		}
		if category == "" || len(cells) < 2 {
			continue
		}

		row := bulletinRow{category: category, commodity: cells[0]}
		if len(cells) > 2 {
			row.specification = cells[1]
		}
		row.price, row.priced = NormalizePrice(cells[len(cells)-1])
		row.priced = row.priced && row.price > 0
		rows = append(rows, row)
	}
	return rows
}

// isUpper reports whether s has letters and all of them are upper case
func isUpper(s string) bool {
	return strings.ToUpper(s) == s && strings.ToLower(s) != s
}
