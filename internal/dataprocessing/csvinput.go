package dataprocessing

import (
	"encoding/csv"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	apperrors "github.com/JayshuaGarcia/AgriAssist-Capstone/internal/errors"
	"github.com/JayshuaGarcia/AgriAssist-Capstone/internal/files"
	"github.com/JayshuaGarcia/AgriAssist-Capstone/pkg/contracts/domain"
)

// headerIndex maps lower-cased header names to their column
func headerIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, ok := idx[name]; !ok {
			idx[name] = i
		}
	}
	return idx
}

func openCSV(path string) (*csv.Reader, *os.File, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, apperrors.NewStorageError("failed to open CSV", err).WithContext("path", path)
	}
	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	return reader, file, nil
}

// LoadObservationsCSV reads a long-format "item,date,price" file. Rows with
// an empty or non-numeric price are skipped; a malformed date is a parsing
// error that names the line.
func LoadObservationsCSV(path string) ([]domain.Observation, error) {
	reader, file, err := openCSV(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	header, err := reader.Read()
	if err != nil {
		return nil, apperrors.NewParsingError("missing CSV header", err).WithContext("path", path)
	}
	idx := headerIndex(header)
	for _, required := range []string{"item", "date", "price"} {
		if _, ok := idx[required]; !ok {
			return nil, apperrors.NewParsingError("missing column "+required, nil).WithContext("path", path)
		}
	}

	var out []domain.Observation
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, apperrors.NewParsingError("malformed CSV row", err).
				WithContext("path", path).
				WithContext("line", line)
		}

		item := strings.TrimSpace(cell(record, idx["item"]))
		price, ok := NormalizePrice(cell(record, idx["price"]))
		if item == "" || !ok || price <= 0 {
			continue
		}
		date, err := domain.ParseDate(strings.TrimSpace(cell(record, idx["date"])))
		if err != nil {
			return nil, apperrors.NewParsingError("invalid date", err).
				WithContext("path", path).
				WithContext("line", line)
		}
		out = append(out, domain.Observation{Item: item, Date: date, Price: price})
	}
	return out, nil
}

// LoadSeriesCSV reads one cleaned "<year>.csv" file written by the exporter.
// Provenance columns are optional so plain "date,price" files load too.
func LoadSeriesCSV(path string) ([]domain.DailySeriesPoint, error) {
	reader, file, err := openCSV(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	header, err := reader.Read()
	if err != nil {
		return nil, apperrors.NewParsingError("missing CSV header", err).WithContext("path", path)
	}
	idx := headerIndex(header)
	dateCol, ok := idx["date"]
	if !ok {
		return nil, apperrors.NewParsingError("missing column date", nil).WithContext("path", path)
	}
	priceCol, ok := idx["price"]
	if !ok {
		return nil, apperrors.NewParsingError("missing column price", nil).WithContext("path", path)
	}

	var out []domain.DailySeriesPoint
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, apperrors.NewParsingError("malformed CSV row", err).
				WithContext("path", path).
				WithContext("line", line)
		}

		date, err := domain.ParseDate(strings.TrimSpace(cell(record, dateCol)))
		if err != nil {
			return nil, apperrors.NewParsingError("invalid date", err).
				WithContext("path", path).
				WithContext("line", line)
		}
		p := domain.DailySeriesPoint{
			Date:      date,
			DayOfYear: date.YearDay(),
			Month:     int(date.Month()),
			Source:    domain.SourceObserved,
		}
		if v, ok := NormalizePrice(cell(record, priceCol)); ok {
			p.Price = domain.Float(v)
		}
		if col, ok := idx["was_imputed"]; ok {
			p.WasImputed, _ = strconv.ParseBool(strings.TrimSpace(cell(record, col)))
		}
		if col, ok := idx["was_adjusted"]; ok {
			p.WasAdjusted, _ = strconv.ParseBool(strings.TrimSpace(cell(record, col)))
		}
		if col, ok := idx["source"]; ok {
			if s := strings.TrimSpace(cell(record, col)); s != "" {
				p.Source = domain.Source(s)
			}
		}
		out = append(out, p)
	}
	return out, nil
}

// LoadCleanedDir reads every "<item>/<year>.csv" below dir and returns the
// points of each item in date order. The folder name is the item name.
func LoadCleanedDir(dir string) (map[string][]domain.DailySeriesPoint, error) {
	discovery := files.NewDiscovery("")
	items, err := discovery.ListDirectories(dir)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to list cleaned directory", err).WithContext("path", dir)
	}

	out := make(map[string][]domain.DailySeriesPoint, len(items))
	for _, itemDir := range items {
		years, err := discovery.FindYearFiles(itemDir.Path)
		if err != nil {
			return nil, err
		}
		var points []domain.DailySeriesPoint
		for _, year := range sortedYears(years) {
			yearPoints, err := LoadSeriesCSV(filepath.Join(itemDir.Path, years[year].Name))
			if err != nil {
				return nil, err
			}
			points = append(points, yearPoints...)
		}
		if len(points) > 0 {
			out[itemDir.Name] = points
		}
	}
	return out, nil
}

func sortedYears(m map[int]files.FileInfo) []int {
	years := make([]int, 0, len(m))
	for y := range m {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}
