package telemetry

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/decker502/particlefx/pkg/config"
	"github.com/gocarina/gocsv"
	"gopkg.in/yaml.v3"
)

// OutputManager handles benchmark output with CSV logging.
type OutputManager struct {
	dir       string
	frameFile *os.File
	perfFile  *os.File

	// Track if headers have been written
	frameHeaderWritten bool
	perfHeaderWritten  bool
}

// NewOutputManager creates a new output manager and initializes the output directory.
// Returns nil if dir is empty (output disabled). All methods accept a nil receiver.
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	om := &OutputManager{dir: dir}

	f, err := os.Create(filepath.Join(dir, "frames.csv"))
	if err != nil {
		return nil, fmt.Errorf("creating frames.csv: %w", err)
	}
	om.frameFile = f

	f, err = os.Create(filepath.Join(dir, "perf.csv"))
	if err != nil {
		om.frameFile.Close()
		return nil, fmt.Errorf("creating perf.csv: %w", err)
	}
	om.perfFile = f

	return om, nil
}

// WriteSettings saves the particle settings used for the run as YAML.
func (om *OutputManager) WriteSettings(settings *config.ParticleSettings) error {
	if om == nil {
		return nil
	}
	data, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("marshaling settings: %w", err)
	}
	if err := os.WriteFile(filepath.Join(om.dir, "settings.yaml"), data, 0644); err != nil {
		return fmt.Errorf("writing settings.yaml: %w", err)
	}
	return nil
}

// WriteFrame writes a frame record to frames.csv.
func (om *OutputManager) WriteFrame(rec FrameRecord) error {
	if om == nil {
		return nil
	}
	if err := writeRecord(om.frameFile, []FrameRecord{rec}, &om.frameHeaderWritten); err != nil {
		return fmt.Errorf("writing frame: %w", err)
	}
	return nil
}

// WritePerf writes a performance stats record to perf.csv.
func (om *OutputManager) WritePerf(stats PerfStats, windowEnd int) error {
	if om == nil {
		return nil
	}
	if err := writeRecord(om.perfFile, []PerfStatsCSV{stats.ToCSV(windowEnd)}, &om.perfHeaderWritten); err != nil {
		return fmt.Errorf("writing perf: %w", err)
	}
	return nil
}

// writeRecord marshals records, including the header on the first write only.
func writeRecord(f *os.File, records any, headerWritten *bool) error {
	if !*headerWritten {
		if err := gocsv.Marshal(records, f); err != nil {
			return err
		}
		*headerWritten = true
		return nil
	}
	return gocsv.MarshalWithoutHeaders(records, f)
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close flushes and closes all output files.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}

	var firstErr error
	for _, f := range []*os.File{om.frameFile, om.perfFile} {
		if f == nil {
			continue
		}
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
