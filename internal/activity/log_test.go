package activity

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLogAndRead(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	entries, err := Read(10)
	if err != nil || len(entries) != 0 {
		t.Fatalf("empty log should read as nothing, got %v %v", entries, err)
	}

	if err := Log("render", "papers.json", "density=50", 120, 2*time.Second); err != nil {
		t.Fatalf("Log failed: %v", err)
	}
	time.Sleep(2 * time.Millisecond)
	if err := Log("sweep", "papers.json", "10,50,100", 0, time.Second); err != nil {
		t.Fatalf("Log failed: %v", err)
	}

	entries, err = Read(0)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Command != "sweep" {
		t.Errorf("newest entry should come first, got %q", entries[0].Command)
	}
	if entries[1].Frames != 120 || entries[1].Duration != 2 {
		t.Errorf("unexpected render entry %+v", entries[1])
	}

	if entries, _ = Read(1); len(entries) != 1 {
		t.Errorf("Read(1) should cap results, got %d", len(entries))
	}
}

func TestSearch(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	Log("render", "a.json", "Density=50", 0, 0)
	Log("render", "b.json", "density=100", 0, 0)
	Log("sweep", "c.json", "", 0, 0)

	found, err := Search("DENSITY", 0)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(found) != 2 {
		t.Errorf("expected 2 case-insensitive matches, got %d", len(found))
	}
	if found, _ = Search("sweep", 0); len(found) != 1 {
		t.Errorf("expected 1 sweep match, got %d", len(found))
	}
}

func TestClearAndCorruptLines(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	Log("render", "", "", 0, 0)

	path := filepath.Join(dir, "clustermap", "activity.jsonl")
	f, _ := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	f.WriteString("{not json\n\n")
	f.Close()

	if entries, _ := Read(0); len(entries) != 1 {
		t.Errorf("corrupt lines should be skipped, got %d entries", len(entries))
	}
	if err := Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if err := Clear(); err != nil {
		t.Errorf("clearing twice should be fine, got %v", err)
	}
}
