// Package skiplog records URLs whose content sits behind a login wall.
// The log is append-only operator triage material; nothing in the
// pipeline reads it back.
package skiplog

import (
	"fmt"
	"os"
	"sync"
)

// Sink accepts gated URLs for later follow-up.
type Sink interface {
	Record(url string) error
}

// FileSink appends one URL per line to a plain-text file.
// Writes are serialized by a mutex so concurrent book workers cannot
// interleave lines.
type FileSink struct {
	path string
	mu   sync.Mutex
}

// NewFileSink creates a sink writing to path. The file is created on
// first write.
func NewFileSink(path string) *FileSink {
	return &FileSink{path: path}
}

// Record appends url to the log.
func (s *FileSink) Record(url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open skip log: %w", err)
	}
	defer f.Close()

	if _, err := fmt.Fprintln(f, url); err != nil {
		return fmt.Errorf("append skip log: %w", err)
	}
	return nil
}
