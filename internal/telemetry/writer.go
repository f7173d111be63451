package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"devicemgr/internal/logging"
)

// Record is one memory sample as written to a JSONL log
type Record struct {
	Timestamp time.Time `json:"ts"`
	Device    string    `json:"device"`
	UsedMB    int       `json:"used_mb"`
	TotalMB   int       `json:"total_mb"`
	Source    string    `json:"source,omitempty"`
}

// NewRecord stamps a reading taken on device
func NewRecord(device string, r Reading, at time.Time) Record {
	return Record{
		Timestamp: at.UTC(),
		Device:    device,
		UsedMB:    r.UsedMB,
		TotalMB:   r.TotalMB,
		Source:    r.Source,
	}
}

// Writer appends records to a JSONL file
type Writer struct {
	path   string
	logger *logging.Logger
}

// NewWriter creates a writer appending to path
func NewWriter(path string, logger *logging.Logger) *Writer {
	return &Writer{path: path, logger: logger}
}

// Write appends one record, creating the file and its directory if needed
func (w *Writer) Write(rec Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal sample: %w", err)
	}
	data = append(data, '\n')

	if err := os.MkdirAll(filepath.Dir(w.path), 0o750); err != nil {
		return fmt.Errorf("failed to create sample log directory: %w", err)
	}

	file, err := os.OpenFile(filepath.Clean(w.path), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("failed to open sample log: %w", err)
	}
	defer file.Close()

	if _, err := file.Write(data); err != nil {
		w.logger.Warn("telemetry.record.failed", "Failed to append memory sample", map[string]interface{}{
			"path":  w.path,
			"error": err.Error(),
		})
		return fmt.Errorf("failed to write sample: %w", err)
	}
	return nil
}
