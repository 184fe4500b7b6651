package files

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// FileInfo represents information about a discovered file
type FileInfo struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
	IsDir   bool
	// Date is the calendar date carried by the file name, if any
	Date time.Time
}

// Discovery provides file discovery operations
type Discovery struct {
	basePath string
}

// NewDiscovery creates a new file discovery instance
func NewDiscovery(basePath string) *Discovery {
	return &Discovery{basePath: basePath}
}

var (
	isoDatePattern   = regexp.MustCompile(`(\d{4})-(\d{2})-(\d{2})`)
	monthDatePattern = regexp.MustCompile(`(?i)(january|february|march|april|may|june|july|august|september|october|november|december)-(\d{1,2})-(\d{4})`)
)

// DateFromFilename extracts a bulletin date from names such as
// "2025-10-14.csv" or "Daily-Price-Index-october-14-2025.csv".
func DateFromFilename(name string) (time.Time, bool) {
	if m := isoDatePattern.FindString(name); m != "" {
		t, err := time.Parse("2006-01-02", m)
		if err == nil {
			return t, true
		}
	}

	m := monthDatePattern.FindStringSubmatch(name)
	if m == nil {
		return time.Time{}, false
	}
	month, err := time.Parse("Jan", strings.ToUpper(m[1][:1])+strings.ToLower(m[1][1:3]))
	if err != nil {
		return time.Time{}, false
	}
	day, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[3])
	t := time.Date(year, month.Month(), day, 0, 0, 0, 0, time.UTC)
	// time.Date normalises overflow, reject "february-30"
	if t.Day() != day || t.Month() != month.Month() {
		return time.Time{}, false
	}
	return t, true
}

func (d *Discovery) resolve(dir string) string {
	// If dir is already absolute, use it directly
	if filepath.IsAbs(dir) || d.basePath == "" {
		return dir
	}
	return filepath.Join(d.basePath, dir)
}

// findBySuffix lists the regular files in dir whose name ends with one of suffixes
func (d *Discovery) findBySuffix(dir string, suffixes ...string) ([]FileInfo, error) {
	fullPath := d.resolve(dir)

	entries, err := os.ReadDir(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", fullPath, err)
	}

	var files []FileInfo
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		lower := strings.ToLower(name)
		// Excel lock files
		if strings.HasPrefix(name, "~$") {
			continue
		}
		for _, suffix := range suffixes {
			if !strings.HasSuffix(lower, suffix) {
				continue
			}
			info, err := entry.Info()
			if err != nil {
				break
			}
			fi := FileInfo{
				Path:    filepath.Join(fullPath, name),
				Name:    name,
				Size:    info.Size(),
				ModTime: info.ModTime(),
			}
			fi.Date, _ = DateFromFilename(name)
			files = append(files, fi)
			break
		}
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

// FindWorkbooks finds all Excel workbooks in the specified directory
func (d *Discovery) FindWorkbooks(dir string) ([]FileInfo, error) {
	return d.findBySuffix(dir, ".xlsx", ".xlsm")
}

// FindCSVFiles finds all CSV files in the specified directory, sorted by name
func (d *Discovery) FindCSVFiles(dir string) ([]FileInfo, error) {
	return d.findBySuffix(dir, ".csv")
}

// FindDailyIndexFiles returns the bulletin CSV files that carry a date in
// their name, oldest first. Files without a recognisable date are skipped.
func (d *Discovery) FindDailyIndexFiles(dir string) ([]FileInfo, error) {
	files, err := d.FindCSVFiles(dir)
	if err != nil {
		return nil, err
	}

	dated := files[:0]
	for _, f := range files {
		if !f.Date.IsZero() {
			dated = append(dated, f)
		}
	}
	sort.SliceStable(dated, func(i, j int) bool { return dated[i].Date.Before(dated[j].Date) })
	return dated, nil
}

// FindYearFiles lists the "<year>.csv" files of one cleaned item folder,
// keyed by year
func (d *Discovery) FindYearFiles(dir string) (map[int]FileInfo, error) {
	files, err := d.FindCSVFiles(dir)
	if err != nil {
		return nil, err
	}

	years := make(map[int]FileInfo)
	for _, f := range files {
		stem := strings.TrimSuffix(f.Name, filepath.Ext(f.Name))
		year, err := strconv.Atoi(stem)
		if err != nil || year < 1000 || year > 9999 {
			continue
		}
		years[year] = f
	}
	return years, nil
}

// ListDirectories lists all subdirectories in the specified directory
func (d *Discovery) ListDirectories(dir string) ([]FileInfo, error) {
	fullPath := d.resolve(dir)

	entries, err := os.ReadDir(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", fullPath, err)
	}

	var dirs []FileInfo
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}

		dirs = append(dirs, FileInfo{
			Path:    filepath.Join(fullPath, entry.Name()),
			Name:    entry.Name(),
			ModTime: info.ModTime(),
			IsDir:   true,
		})
	}

	sort.Slice(dirs, func(i, j int) bool { return dirs[i].Name < dirs[j].Name })
	return dirs, nil
}

// GetLatestFile returns the file with the latest name date, falling back
// to modification time when neither carries one
func GetLatestFile(files []FileInfo) (FileInfo, bool) {
	if len(files) == 0 {
		return FileInfo{}, false
	}

	latest := files[0]
	for _, file := range files[1:] {
		switch {
		case !file.Date.IsZero() && file.Date.After(latest.Date):
			latest = file
		case file.Date.IsZero() && latest.Date.IsZero() && file.ModTime.After(latest.ModTime):
			latest = file
		}
	}

	return latest, true
}
