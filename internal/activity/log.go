package activity

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Entry is one CLI run recorded in the activity log.
type Entry struct {
	Timestamp time.Time `json:"timestamp"`
	Command   string    `json:"command"`
	Input     string    `json:"input,omitempty"`
	Details   string    `json:"details,omitempty"`
	Frames    uint64    `json:"frames,omitempty"`
	Duration  float64   `json:"duration,omitempty"`
}

func logPath() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "clustermap", "activity.jsonl")
}

// Log appends an entry to the activity log.
func Log(command, input, details string, frames uint64, elapsed time.Duration) error {
	return appendEntry(Entry{
		Timestamp: time.Now(),
		Command:   command,
		Input:     input,
		Details:   details,
		Frames:    frames,
		Duration:  elapsed.Seconds(),
	})
}

func appendEntry(entry Entry) error {
	path := logPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(f, "%s\n", data)
	return err
}

// Read returns the last count entries, newest first. count <= 0 returns all.
func Read(count int) ([]Entry, error) {
	data, err := os.ReadFile(logPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var entries []Entry
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		var e Entry
		if json.Unmarshal(line, &e) == nil {
			entries = append(entries, e)
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})

	if count > 0 && len(entries) > count {
		entries = entries[:count]
	}
	return entries, nil
}

// Search finds entries whose command, input or details contain query, case-insensitively.
func Search(query string, count int) ([]Entry, error) {
	all, err := Read(0)
	if err != nil {
		return nil, err
	}

	q := strings.ToLower(query)
	var results []Entry
	for _, e := range all {
		if strings.Contains(strings.ToLower(e.Command+"\x00"+e.Input+"\x00"+e.Details), q) {
			results = append(results, e)
			if count > 0 && len(results) >= count {
				break
			}
		}
	}
	return results, nil
}

// Clear removes all log entries.
func Clear() error {
	err := os.Remove(logPath())
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
