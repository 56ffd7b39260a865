// Package costs tracks validation spend: process-wide counters with USD
// derivation, per-worker activity, and the append-only JSONL cost log.
package costs

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sync"

	"github.com/fairyhunter13/prediction-validator/internal/domain"
)

// Log is the durable JSONL cost stream: one JSON object per line, appended
// under a mutex so concurrent workers never interleave partial lines.
type Log struct {
	mu   sync.Mutex
	path string
}

// NewLog creates a Log writing to path.
func NewLog(path string) *Log { return &Log{path: path} }

// Append writes one entry. Failures are the caller's to log; they must not
// affect the validation outcome.
func (l *Log) Append(e domain.CostLogEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("op=costlog.open: %w", err)
	}
	defer func() { _ = f.Close() }()

	b, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("op=costlog.encode: %w", err)
	}
	if _, err := f.Write(append(b, '\n')); err != nil {
		return fmt.Errorf("op=costlog.write: %w", err)
	}
	return nil
}

// Replay streams every decodable entry to fn. A missing file is not an
// error (fresh deployment); corrupt lines are skipped with a warning.
func (l *Log) Replay(fn func(domain.CostLogEntry)) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.Open(l.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("op=costlog.replay: %w", err)
	}
	defer func() { _ = f.Close() }()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for sc.Scan() {
		line++
		var e domain.CostLogEntry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			slog.Warn("skipping corrupt cost log line", slog.Int("line", line), slog.Any("error", err))
			continue
		}
		fn(e)
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("op=costlog.replay: %w", err)
	}
	return nil
}
