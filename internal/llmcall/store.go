package llmcall

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"
)

// QueryFilter specifies filters for listing LLM calls. Zero values match
// everything.
type QueryFilter struct {
	RequestFingerprint string
	GazetteNumber      int
	NoticeNumber       int
	PromptKey          string
	Provider           string
	Model              string
	After              *time.Time
	Before             *time.Time
	Success            *bool
	Limit              int
}

func (f QueryFilter) matches(c *Call) bool {
	switch {
	case f.RequestFingerprint != "" && c.RequestFingerprint != f.RequestFingerprint:
		return false
	case f.GazetteNumber != 0 && c.GazetteNumber != f.GazetteNumber:
		return false
	case f.NoticeNumber != 0 && c.NoticeNumber != f.NoticeNumber:
		return false
	case f.PromptKey != "" && c.PromptKey != f.PromptKey:
		return false
	case f.Provider != "" && c.Provider != f.Provider:
		return false
	case f.Model != "" && c.Model != f.Model:
		return false
	case f.After != nil && !c.Timestamp.After(*f.After):
		return false
	case f.Before != nil && !c.Timestamp.Before(*f.Before):
		return false
	case f.Success != nil && c.Success != *f.Success:
		return false
	}
	return true
}

// List reads the call log at path and returns matching calls, oldest first.
// A missing log is empty. Lines that fail to decode are skipped and counted
// in the returned error only when nothing else could be read.
func List(path string, filter QueryFilter) ([]Call, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open call log: %w", err)
	}
	defer f.Close()

	var calls []Call
	bad := 0
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		var c Call
		if err := json.Unmarshal(scanner.Bytes(), &c); err != nil {
			bad++
			continue
		}
		if filter.matches(&c) {
			calls = append(calls, c)
		}
	}
	if err := scanner.Err(); err != nil {
		return calls, fmt.Errorf("failed to read call log: %w", err)
	}
	if len(calls) == 0 && bad > 0 {
		return nil, fmt.Errorf("call log has %d undecodable lines", bad)
	}

	if filter.Limit > 0 && len(calls) > filter.Limit {
		calls = calls[len(calls)-filter.Limit:]
	}
	return calls, nil
}

// CountByPromptKey returns the number of recorded calls per prompt key.
func CountByPromptKey(path string) (map[string]int, error) {
	calls, err := List(path, QueryFilter{})
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int)
	for _, c := range calls {
		counts[c.PromptKey]++
	}
	return counts, nil
}
