package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestWeekKey(t *testing.T) {
	tests := []struct {
		date     time.Time
		expected string
	}{
		{time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), "2026-W01"},
		{time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC), "2026-W53"},
		{time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC), "2026-W42"},
	}

	for _, tt := range tests {
		if got := weekKey(tt.date); got != tt.expected {
			t.Errorf("weekKey(%s) = %s, want %s", tt.date.Format(time.DateOnly), got, tt.expected)
		}
	}
}

func TestRotatingFileWritesCurrentWeek(t *testing.T) {
	dir := t.TempDir()
	rf, err := NewRotatingFile(dir, 1, 0)
	if err != nil {
		t.Fatalf("NewRotatingFile: %v", err)
	}
	defer rf.Close()

	if _, err := rf.Write([]byte("hello\n")); err != nil {
		t.Fatalf("Write: %v", err)
	}

	path := filepath.Join(dir, segmentName(weekKey(time.Now()), 0))
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("expected %s: %v", path, err)
	}
	if string(content) != "hello\n" {
		t.Errorf("content = %q", content)
	}
}

func TestRotatingFileSizeSegments(t *testing.T) {
	dir := t.TempDir()
	rf, err := NewRotatingFile(dir, 1, 10)
	if err != nil {
		t.Fatalf("NewRotatingFile: %v", err)
	}
	defer rf.Close()

	for i := 0; i < 3; i++ {
		if _, err := rf.Write([]byte("12345678\n")); err != nil {
			t.Fatalf("Write %d: %v", i, err)
		}
	}

	week := weekKey(time.Now())
	for _, seg := range []int{0, 1, 2} {
		if _, err := os.Stat(filepath.Join(dir, segmentName(week, seg))); err != nil {
			t.Errorf("segment %d missing: %v", seg, err)
		}
	}
}

func TestRotatingFileResumesLatestSegment(t *testing.T) {
	dir := t.TempDir()
	week := weekKey(time.Now())

	if err := os.WriteFile(filepath.Join(dir, segmentName(week, 0)), []byte(strings.Repeat("x", 20)), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, segmentName(week, 3)), []byte("abc"), 0o644); err != nil {
		t.Fatal(err)
	}

	rf, err := NewRotatingFile(dir, 1, 10)
	if err != nil {
		t.Fatalf("NewRotatingFile: %v", err)
	}
	defer rf.Close()

	if rf.segment != 3 || rf.size != 3 {
		t.Errorf("resumed segment %d size %d, want 3 and 3", rf.segment, rf.size)
	}
}

func TestRotatingFileWeekChange(t *testing.T) {
	dir := t.TempDir()
	rf, err := NewRotatingFile(dir, 1, 0)
	if err != nil {
		t.Fatalf("NewRotatingFile: %v", err)
	}
	defer rf.Close()

	next := time.Now().Add(8 * 24 * time.Hour)
	rf.now = func() time.Time { return next }

	if _, err := rf.Write([]byte("later\n")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, segmentName(weekKey(next), 0))); err != nil {
		t.Errorf("expected file for next week: %v", err)
	}
}

func TestPruneRemovesOldFiles(t *testing.T) {
	dir := t.TempDir()
	rf, err := NewRotatingFile(dir, 1, 0)
	if err != nil {
		t.Fatalf("NewRotatingFile: %v", err)
	}
	defer rf.Close()

	old := filepath.Join(dir, "lookup-2020-W01.log")
	unrelated := filepath.Join(dir, "notes.txt")
	for _, p := range []string{old, unrelated} {
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
		past := time.Now().Add(-30 * 24 * time.Hour)
		if err := os.Chtimes(p, past, past); err != nil {
			t.Fatal(err)
		}
	}

	n, err := rf.Prune()
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if n != 1 {
		t.Errorf("pruned %d files, want 1", n)
	}
	if _, err := os.Stat(old); !os.IsNotExist(err) {
		t.Error("old log file still present")
	}
	if _, err := os.Stat(unrelated); err != nil {
		t.Error("unrelated file was removed")
	}
}
