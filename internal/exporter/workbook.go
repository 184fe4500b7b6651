package exporter

import (
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/JayshuaGarcia/AgriAssist-Capstone/pkg/contracts/domain"
)

// calendarYear is a leap year whose dates label the workbook rows
const calendarYear = 2000

const maxSheetName = 31

// WriteWorkbook writes every series to the reconciled workbook, one sheet
// per item. The layout matches the input workbook: a date column followed by
// one column per year, so the file can be parsed again.
func (e *Exporter) WriteWorkbook(series []domain.ItemSeries) (string, error) {
	path := e.paths.ReconciledWorkbookPath()
	if len(series) == 0 {
		return "", nil
	}

	f := excelize.NewFile()
	defer f.Close()

	used := make(map[string]bool, len(series))
	for i, s := range series {
		name := sheetName(s.Item, used)
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), name); err != nil {
				return "", fmt.Errorf("failed to name sheet %q: %w", name, err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return "", fmt.Errorf("failed to add sheet %q: %w", name, err)
		}
		if err := writeItemSheet(f, name, s); err != nil {
			return "", err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return "", fmt.Errorf("failed to render workbook: %w", err)
	}
	if err := e.files.WriteFile(path, buf.Bytes()); err != nil {
		return "", err
	}

	e.logger.Info("Reconciled workbook exported",
		slog.String("path", path),
		slog.Int("sheets", len(series)))
	return path, nil
}

// sheetName derives a unique, valid worksheet name for item
func sheetName(item string, used map[string]bool) string {
	base := SafeFolderName(item)
	if len(base) > maxSheetName {
		base = base[:maxSheetName]
	}
	name := base
	for n := 2; used[name]; n++ {
		suffix := "~" + strconv.Itoa(n)
		trimmed := base
		if len(trimmed)+len(suffix) > maxSheetName {
			trimmed = trimmed[:maxSheetName-len(suffix)]
		}
		name = trimmed + suffix
	}
	used[name] = true
	return name
}

func writeItemSheet(f *excelize.File, sheet string, s domain.ItemSeries) error {
	years := make([]int, 0, len(s.Years))
	byYear := make(map[int]map[string]float64, len(s.Years))
	for _, ys := range s.Years {
		years = append(years, ys.Year)
		prices := make(map[string]float64, len(ys.Points))
		for _, p := range ys.Points {
			if p.HasPrice() {
				prices[p.Date.Format("01-02")] = round2(*p.Price)
			}
		}
		byYear[ys.Year] = prices
	}
	sort.Ints(years)

	header := []interface{}{"Date"}
	for _, y := range years {
		header = append(header, strconv.Itoa(y))
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header of %q: %w", sheet, err)
	}

	row := 2
	for d := time.Date(calendarYear, 1, 1, 0, 0, 0, 0, time.UTC); d.Year() == calendarYear; d = d.AddDate(0, 0, 1) {
		key := d.Format("01-02")
		values := []interface{}{d}
		for _, y := range years {
			if v, ok := byYear[y][key]; ok {
				values = append(values, v)
			} else {
				values = append(values, nil)
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("failed to write row %d of %q: %w", row, sheet, err)
		}
		row++
	}
	return nil
}
