package logging

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	filePrefix         = "lookup-"
	fileSuffix         = ".log"
	defaultMaxFileSize = 100 * 1024 * 1024
)

var segmentPattern = regexp.MustCompile(`^lookup-\d{4}-W\d{2}_(\d{2})\.log$`)

// RotatingFile is an io.Writer that starts a new file every ISO week, and a
// numbered segment within the week once maxSize bytes have been written.
// Files older than the retention window are pruned daily.
type RotatingFile struct {
	dir       string
	retention time.Duration
	maxSize   int64
	now       func() time.Time

	mu      sync.Mutex
	file    *os.File
	week    string
	size    int64
	segment int

	cancel context.CancelFunc
	done   chan struct{}
}

// NewRotatingFile opens the file for the current week in dir, creating the
// directory when needed. maxSize <= 0 selects the 100MB default.
func NewRotatingFile(dir string, retentionWeeks int, maxSize int64) (*RotatingFile, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory %s: %w", dir, err)
	}
	if maxSize <= 0 {
		maxSize = defaultMaxFileSize
	}

	rf := &RotatingFile{
		dir:       dir,
		retention: time.Duration(retentionWeeks) * 7 * 24 * time.Hour,
		maxSize:   maxSize,
		now:       time.Now,
		done:      make(chan struct{}),
	}

	rf.mu.Lock()
	err := rf.open(weekKey(rf.now()))
	rf.mu.Unlock()
	if err != nil {
		return nil, err
	}

	return rf, nil
}

// weekKey returns the ISO week as YYYY-Www
func weekKey(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

func segmentName(week string, segment int) string {
	if segment == 0 {
		return filePrefix + week + fileSuffix
	}
	return fmt.Sprintf("%s%s_%02d%s", filePrefix, week, segment, fileSuffix)
}

// open switches to the latest segment of week that still has room.
// Caller holds mu.
func (rf *RotatingFile) open(week string) error {
	if rf.file != nil {
		if err := rf.file.Close(); err != nil {
			slog.Warn("Failed to close log file during rotation", "error", err)
		}
		rf.file = nil
	}

	segment := rf.latestSegment(week)
	var size int64
	if info, err := os.Stat(filepath.Join(rf.dir, segmentName(week, segment))); err == nil {
		size = info.Size()
		if size >= rf.maxSize {
			segment++
			size = 0
		}
	}

	return rf.openSegment(week, segment, size)
}

func (rf *RotatingFile) openSegment(week string, segment int, size int64) error {
	path := filepath.Join(rf.dir, segmentName(week, segment))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file %s: %w", path, err)
	}

	rf.file = f
	rf.week = week
	rf.segment = segment
	rf.size = size
	return nil
}

// latestSegment returns the highest numbered segment on disk for week, 0 when
// only the base file (or nothing) exists.
func (rf *RotatingFile) latestSegment(week string) int {
	matches, _ := filepath.Glob(filepath.Join(rf.dir, filePrefix+week+"_??"+fileSuffix))
	highest := 0
	for _, match := range matches {
		m := segmentPattern.FindStringSubmatch(filepath.Base(match))
		if len(m) < 2 {
			continue
		}
		if n, err := strconv.Atoi(m[1]); err == nil && n > highest {
			highest = n
		}
	}
	return highest
}

// Write implements io.Writer.
func (rf *RotatingFile) Write(p []byte) (int, error) {
	rf.mu.Lock()
	defer rf.mu.Unlock()

	week := weekKey(rf.now())
	switch {
	case week != rf.week:
		if err := rf.open(week); err != nil {
			return 0, err
		}
	case rf.size > 0 && rf.size+int64(len(p)) > rf.maxSize:
		if rf.file != nil {
			_ = rf.file.Close()
		}
		if err := rf.openSegment(week, rf.segment+1, 0); err != nil {
			return 0, err
		}
	}

	if rf.file == nil {
		return 0, fmt.Errorf("no log file available")
	}

	n, err := rf.file.Write(p)
	rf.size += int64(n)
	return n, err
}

// Prune removes log files last modified before the retention window and
// returns how many were deleted.
func (rf *RotatingFile) Prune() (int, error) {
	entries, err := os.ReadDir(rf.dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read log directory: %w", err)
	}

	cutoff := rf.now().Add(-rf.retention)

	rf.mu.Lock()
	current := ""
	if rf.file != nil {
		current = filepath.Base(rf.file.Name())
	}
	rf.mu.Unlock()

	deleted := 0
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || name == current || !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileSuffix) {
			continue
		}

		info, err := entry.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}

		if err := os.Remove(filepath.Join(rf.dir, name)); err == nil {
			deleted++
		}
	}

	return deleted, nil
}

// StartPruning runs Prune every interval until Close.
func (rf *RotatingFile) StartPruning(interval time.Duration) {
	ctx, cancel := context.WithCancel(context.Background())
	rf.cancel = cancel

	go func() {
		defer close(rf.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n, err := rf.Prune(); err != nil {
					slog.Warn("Failed to prune old log files", "error", err)
				} else if n > 0 {
					// stdout only, the logger writes through this file
					fmt.Printf("Pruned %d old log files\n", n)
				}
			}
		}
	}()
}

// Close stops pruning and closes the current file.
func (rf *RotatingFile) Close() error {
	if rf.cancel != nil {
		rf.cancel()
		select {
		case <-rf.done:
		case <-time.After(2 * time.Second):
		}
	}

	rf.mu.Lock()
	defer rf.mu.Unlock()

	if rf.file == nil {
		return nil
	}
	err := rf.file.Close()
	rf.file = nil
	return err
}
