package report

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"logtriage/internal/types"
)

// History appends finished reports to a JSONL file, one report per line
type History struct {
	mu       sync.Mutex
	filePath string
}

// NewHistory creates a history writer for the given path
func NewHistory(filePath string) *History {
	return &History{
		filePath: filePath,
	}
}

// Append writes a report to the history file in a thread-safe manner
func (h *History) Append(rep types.Report) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	f, err := os.OpenFile(h.filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("failed to open history file: %w", err)
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	if err := encoder.Encode(rep); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}

	return nil
}
