package dataprocessing

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	apperrors "github.com/JayshuaGarcia/AgriAssist-Capstone/internal/errors"
	"github.com/JayshuaGarcia/AgriAssist-Capstone/internal/observations"
	"github.com/JayshuaGarcia/AgriAssist-Capstone/pkg/contracts/domain"
)

// Workbook is the content of the legacy price workbook
type Workbook struct {
	Observations []domain.Observation
	// Declared lists every (item, year) column, including empty ones
	Declared []domain.SeriesKey
	// Rejected holds one DataError per column whose header is not a year
	Rejected     []*apperrors.AppError
	Sheets       int
	SkippedCells int
}

// LoadInto registers the declared series and observations in store
func (w *Workbook) LoadInto(store *observations.Store) error {
	for _, key := range w.Declared {
		store.Declare(key)
	}
	return store.AddAll(w.Observations)
}

// date layouts seen in hand-maintained date columns
var cellDateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006/01/02",
	"1/2/2006",
	"1/2/06",
	"01-02-06",
	"2-Jan-06",
	"2-Jan-2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"January 2",
	"Jan 2",
	time.RFC3339,
}

// ParseWorkbook reads the legacy price workbook. Every sheet is one item:
// one column holds the day of the year and every other column holds the
// prices of one year, labelled by the column header.
func ParseWorkbook(filePath string) (*Workbook, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, apperrors.NewParsingError("failed to open workbook", err).WithContext("path", filePath)
	}
	defer f.Close()

	logger := slog.Default().With(slog.String("component", "workbook_parser"))
	wb := &Workbook{}

	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, apperrors.NewParsingError("failed to read sheet", err).WithContext("sheet", sheet)
		}
		// a sheet without data rows has nothing to detect a date column in
		if len(rows) < 2 {
			logger.Debug("Skipping empty sheet", slog.String("sheet", sheet))
			continue
		}

		item := strings.TrimSpace(sheet)
		if item == "" {
			continue
		}
		wb.Sheets++
		wb.parseSheet(f, sheet, item, rows, logger)
	}

	logger.Info("Workbook parsed",
		slog.String("path", filePath),
		slog.Int("sheets", wb.Sheets),
		slog.Int("observations", len(wb.Observations)),
		slog.Int("series", len(wb.Declared)),
		slog.Int("rejected_columns", len(wb.Rejected)),
		slog.Int("skipped_cells", wb.SkippedCells))

	return wb, nil
}

func (w *Workbook) parseSheet(f *excelize.File, sheet, item string, rows [][]string, logger *slog.Logger) {
	header := rows[0]
	width := 0
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}

	dateCol := detectDateColumn(f, sheet, rows, width)
	dates := make([]time.Time, len(rows))
	valid := make([]bool, len(rows))
	for r := 1; r < len(rows); r++ {
		dates[r], valid[r] = parseCellDate(cell(rows[r], dateCol))
	}

	for col := 0; col < width; col++ {
		if col == dateCol {
			continue
		}
		label := strings.TrimSpace(cell(header, col))
		if label == "" && columnEmpty(rows, col) {
			continue
		}

		year, err := observations.CoerceYear(label)
		if err != nil {
			appErr := apperrors.NewDataError("column header is not a year", err).
				WithContext("item", item).
				WithContext("column", col+1)
			w.Rejected = append(w.Rejected, appErr)
			logger.Warn("Skipping column without year",
				slog.String("sheet", sheet),
				slog.String("label", label))
			continue
		}
		w.Declared = append(w.Declared, domain.SeriesKey{Item: item, Year: year})

		for r := 1; r < len(rows); r++ {
			raw := cell(rows[r], col)
			if !valid[r] || strings.TrimSpace(raw) == "" {
				continue
			}
			price, ok := NormalizePrice(raw)
			if !ok || price <= 0 {
				w.SkippedCells++
				continue
			}
			month, day := dates[r].Month(), dates[r].Day()
			if month == time.February && day == 29 && !domain.IsLeapYear(year) {
				w.SkippedCells++
				continue
			}
			w.Observations = append(w.Observations, domain.Observation{
				Item:  item,
				Date:  time.Date(year, month, day, 0, 0, 0, 0, time.UTC),
				Price: price,
			})
		}
	}
}

// detectDateColumn picks the column holding the row dates: the first
// date-formatted column, then a "date"/"dates" header, then a blank header,
// else the first column.
func detectDateColumn(f *excelize.File, sheet string, rows [][]string, width int) int {
	for col := 0; col < width; col++ {
		for r := 1; r < len(rows); r++ {
			if strings.TrimSpace(cell(rows[r], col)) == "" {
				continue
			}
			if isDateFormatted(f, sheet, col, r) {
				return col
			}
			break
		}
	}

	header := rows[0]
	for col := 0; col < width; col++ {
		switch strings.ToLower(strings.TrimSpace(cell(header, col))) {
		case "date", "dates":
			return col
		}
	}
	for col := 0; col < width; col++ {
		switch strings.ToLower(strings.TrimSpace(cell(header, col))) {
		case "", "unnamed: 0":
			return col
		}
	}
	return 0
}

// isDateFormatted reports whether the cell carries a date number format
func isDateFormatted(f *excelize.File, sheet string, col, row int) bool {
	axis, err := excelize.CoordinatesToCellName(col+1, row+1)
	if err != nil {
		return false
	}
	styleID, err := f.GetCellStyle(sheet, axis)
	if err != nil || styleID == 0 {
		return false
	}
	style, err := f.GetStyle(styleID)
	if err != nil || style == nil {
		return false
	}
	if style.CustomNumFmt != nil {
		format := strings.ToLower(*style.CustomNumFmt)
		return strings.Contains(format, "d") && (strings.Contains(format, "m") || strings.Contains(format, "y"))
	}
	// built-in date formats
	return (style.NumFmt >= 14 && style.NumFmt <= 22) || (style.NumFmt >= 45 && style.NumFmt <= 47)
}

// parseCellDate accepts Excel serial numbers and the common text layouts
func parseCellDate(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}
	if serial, err := strconv.ParseFloat(s, 64); err == nil {
		if serial <= 0 {
			return time.Time{}, false
		}
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return time.Time{}, false
		}
		return domain.Day(t), true
	}
	for _, layout := range cellDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return domain.Day(t), true
		}
	}
	return time.Time{}, false
}

func cell(row []string, col int) string {
	if col < len(row) {
		return row[col]
	}
	return ""
}

func columnEmpty(rows [][]string, col int) bool {
	for _, row := range rows {
		if strings.TrimSpace(cell(row, col)) != "" {
			return false
		}
	}
	return true
}

// SeriesKeys returns the distinct declared keys in declaration order
func (w *Workbook) SeriesKeys() []domain.SeriesKey {
	seen := make(map[domain.SeriesKey]struct{}, len(w.Declared))
	out := make([]domain.SeriesKey, 0, len(w.Declared))
	for _, k := range w.Declared {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}

// String summarises the workbook for CLI output
func (w *Workbook) String() string {
	return fmt.Sprintf("%d sheets, %d series, %d observations", w.Sheets, len(w.SeriesKeys()), len(w.Observations))
}
