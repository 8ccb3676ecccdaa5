package llmcall

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/jackzampolin/bulletin/internal/providers"
)

// Recorder appends calls to a JSONL file. A nil *Recorder or one with an
// empty path records nothing.
type Recorder struct {
	path   string
	logger *slog.Logger

	mu sync.Mutex
}

// NewRecorder creates a recorder writing to path.
func NewRecorder(path string, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{path: path, logger: logger}
}

// Record captures an LLM call. Write failures are logged, never returned:
// the call log must not fail a structuring request.
func (r *Recorder) Record(result *providers.ChatResult, opts RecordOptions) {
	r.RecordCall(FromChatResult(result, opts))
}

// RecordCall captures an already-constructed Call.
func (r *Recorder) RecordCall(call *Call) {
	if r == nil || r.path == "" || call == nil {
		return
	}
	if err := r.append(call); err != nil {
		r.logger.Warn("failed to record LLM call", "id", call.ID, "error", err)
	}
}

func (r *Recorder) append(call *Call) error {
	line, err := json.Marshal(call)
	if err != nil {
		return fmt.Errorf("failed to encode call: %w", err)
	}
	line = append(line, '\n')

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(r.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(line); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
