package telemetry

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
	"github.com/pthm-cable/symbiosis/config"
)

// csvFile appends records to a CSV file, writing the header with the first record.
type csvFile struct {
	f             *os.File
	headerWritten bool
}

func createCSV(dir, name string) (*csvFile, error) {
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", name, err)
	}
	return &csvFile{f: f}, nil
}

func (c *csvFile) write(records any) error {
	if !c.headerWritten {
		if err := gocsv.Marshal(records, c.f); err != nil {
			return err
		}
		c.headerWritten = true
		return nil
	}
	return gocsv.MarshalWithoutHeaders(records, c.f)
}

// OutputManager handles run output: per-wave stats, tick timings,
// bookmarks and tower lifetimes as CSV, plus the effective config.
type OutputManager struct {
	dir       string
	waves     *csvFile
	perf      *csvFile
	bookmarks *csvFile
	towers    *csvFile
}

// NewOutputManager creates a new output manager and initializes the output directory.
// Returns nil if dir is empty (output disabled).
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	om := &OutputManager{dir: dir}
	for _, target := range []struct {
		name string
		dst  **csvFile
	}{
		{"waves.csv", &om.waves},
		{"perf.csv", &om.perf},
		{"bookmarks.csv", &om.bookmarks},
		{"towers.csv", &om.towers},
	} {
		f, err := createCSV(dir, target.name)
		if err != nil {
			om.Close()
			return nil, err
		}
		*target.dst = f
	}

	return om, nil
}

// WriteConfig saves the effective configuration as YAML.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(om.dir, "config.yaml"))
}

// WriteWave writes a wave stats record to waves.csv.
func (om *OutputManager) WriteWave(stats WaveStats) error {
	if om == nil {
		return nil
	}
	if err := om.waves.write([]WaveStats{stats}); err != nil {
		return fmt.Errorf("writing wave stats: %w", err)
	}
	return nil
}

// WritePerf writes a performance stats record to perf.csv.
func (om *OutputManager) WritePerf(stats PerfStats, windowEnd int32) error {
	if om == nil {
		return nil
	}
	if err := om.perf.write([]PerfStatsCSV{stats.ToCSV(windowEnd)}); err != nil {
		return fmt.Errorf("writing perf: %w", err)
	}
	return nil
}

// WriteBookmark writes a bookmark record to bookmarks.csv.
func (om *OutputManager) WriteBookmark(b Bookmark) error {
	if om == nil {
		return nil
	}
	if err := om.bookmarks.write([]Bookmark{b}); err != nil {
		return fmt.Errorf("writing bookmark: %w", err)
	}
	return nil
}

// WriteTower writes a finished tower lifetime to towers.csv.
func (om *OutputManager) WriteTower(rec TowerRecord) error {
	if om == nil {
		return nil
	}
	if err := om.towers.write([]TowerRecord{rec}); err != nil {
		return fmt.Errorf("writing tower record: %w", err)
	}
	return nil
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close closes all output files.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}

	var errs []error
	for _, c := range []*csvFile{om.waves, om.perf, om.bookmarks, om.towers} {
		if c == nil {
			continue
		}
		if err := c.f.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
