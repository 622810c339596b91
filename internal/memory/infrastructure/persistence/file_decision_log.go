// Package persistence stores decision records: a date-partitioned NDJSON log
// as the primary store, plus optional SQLite and Postgres archives.
package persistence

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"untangle/internal/memory/domain"
)

const (
	partitionPrefix = "decisions-"
	partitionSuffix = ".ndjson"
	partitionLayout = "2006-01-02"
)

// FileDecisionLog is an append-only NDJSON log partitioned by recording date,
// one file per day under the configured directory.
type FileDecisionLog struct {
	dir    string
	logger *slog.Logger
}

// NewFileDecisionLog creates a log rooted at dir. The directory is created on
// first append.
func NewFileDecisionLog(dir string, logger *slog.Logger) *FileDecisionLog {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileDecisionLog{dir: dir, logger: logger}
}

// Append writes one record as a single JSON line to the partition of the
// record's recording date.
func (l *FileDecisionLog) Append(ctx context.Context, decision domain.Decision) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return fmt.Errorf("creating decision log dir: %w", err)
	}

	line, err := json.Marshal(decision)
	if err != nil {
		return fmt.Errorf("encoding decision: %w", err)
	}

	path := l.partitionPath(decision.RecordedAt)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening partition %s: %w", path, err)
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("appending to partition %s: %w", path, err)
	}
	return f.Sync()
}

// LoadSince reads every partition on or after the cutoff date and returns the
// records recorded at or after the cutoff, oldest first. Lines that fail to
// parse are skipped with a warning; one corrupt line must not take out the
// whole history. A missing directory means an empty history.
func (l *FileDecisionLog) LoadSince(ctx context.Context, cutoff time.Time) ([]domain.Decision, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading decision log dir: %w", err)
	}

	cutoffDate := cutoff.UTC().Format(partitionLayout)
	var decisions []domain.Decision
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		date, ok := partitionDate(entry.Name())
		if !ok || date < cutoffDate {
			continue
		}
		loaded, err := l.loadPartition(filepath.Join(l.dir, entry.Name()), cutoff)
		if err != nil {
			return nil, err
		}
		decisions = append(decisions, loaded...)
	}

	sort.SliceStable(decisions, func(i, j int) bool {
		return decisions[i].RecordedAt.Before(decisions[j].RecordedAt)
	})
	return decisions, nil
}

// Cleanup deletes whole partitions whose date is strictly before the cutoff
// date. Partitions are the retention unit; individual lines are never
// rewritten.
func (l *FileDecisionLog) Cleanup(ctx context.Context, cutoff time.Time) error {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading decision log dir: %w", err)
	}

	cutoffDate := cutoff.UTC().Format(partitionLayout)
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		date, ok := partitionDate(entry.Name())
		if !ok || date >= cutoffDate {
			continue
		}
		path := filepath.Join(l.dir, entry.Name())
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("removing expired partition %s: %w", path, err)
		}
		l.logger.Info("removed expired decision partition", "partition", entry.Name())
	}
	return nil
}

func (l *FileDecisionLog) loadPartition(path string, cutoff time.Time) ([]domain.Decision, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening partition %s: %w", path, err)
	}
	defer f.Close()

	var decisions []domain.Decision
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var d domain.Decision
		if err := json.Unmarshal([]byte(line), &d); err != nil {
			l.logger.Warn("skipping corrupt decision line",
				"partition", filepath.Base(path),
				"line", lineNo,
				"error", err,
			)
			continue
		}
		if d.RecordedAt.Before(cutoff) {
			continue
		}
		decisions = append(decisions, d)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning partition %s: %w", path, err)
	}
	return decisions, nil
}

func (l *FileDecisionLog) partitionPath(recordedAt time.Time) string {
	name := partitionPrefix + recordedAt.UTC().Format(partitionLayout) + partitionSuffix
	return filepath.Join(l.dir, name)
}

func partitionDate(name string) (string, bool) {
	if !strings.HasPrefix(name, partitionPrefix) || !strings.HasSuffix(name, partitionSuffix) {
		return "", false
	}
	date := strings.TrimSuffix(strings.TrimPrefix(name, partitionPrefix), partitionSuffix)
	if _, err := time.Parse(partitionLayout, date); err != nil {
		return "", false
	}
	return date, true
}
