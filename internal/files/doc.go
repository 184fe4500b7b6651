// Package files finds input files and writes output files.
//
// Discovery lists workbooks, long-format CSV files and daily price index
// bulletins. Bulletins are ordered by the date embedded in their file name
// (DateFromFilename), not by modification time.
//
// Manager writes export files under a base directory. Writes go to a
// temporary file first and are renamed into place, so readers never see a
// half-written CSV or JSON document.
//
// Example usage:
//
//	discovery := files.NewDiscovery(paths.DataDir)
//	bulletins, err := discovery.FindDailyIndexFiles(paths.DailyIndexDir)
//
//	manager := files.NewManager(paths.CleanDir)
//	err = manager.WriteFile("Tomato/2024.csv", data)
package files
