// Package audit appends one JSON line per completed site crawl to a local
// file, recording who crawled what and how much was found.
package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

// logFileMode is the permission set for created audit files.
const logFileMode = 0o644

// Entry is one audit record.
type Entry struct {
	Timestamp    time.Time `json:"timestamp"`
	JobID        string    `json:"jobId,omitempty"`
	Host         string    `json:"host"`
	RecordsFound int       `json:"recordsFound"`
	User         string    `json:"user,omitempty"`
	Action       string    `json:"action"`
}

// Log appends entries to a JSON-lines file. Safe for concurrent use.
type Log struct {
	mu   sync.Mutex
	file *os.File
}

// Open opens (or creates) the audit log at path.
func Open(path string) (*Log, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFileMode)
	if err != nil {
		return nil, fmt.Errorf("open audit log %s: %w", path, err)
	}

	return &Log{file: file}, nil
}

// Record appends one entry. A zero timestamp is filled with the current
// time; an empty action defaults to "crawl".
func (l *Log) Record(entry Entry) error {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	if entry.Action == "" {
		entry.Action = "crawl"
	}

	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("serialize audit entry: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, err := l.file.Write(append(raw, '\n')); err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}

	return nil
}

// Close closes the underlying file.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file.Close()
}
