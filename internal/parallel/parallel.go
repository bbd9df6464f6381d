package parallel

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/msalah0e/clustermap/internal/ui"
)

// Result holds the outcome of a parallel task.
type Result struct {
	Name    string
	OK      bool
	Err     error
	Output  string
	Elapsed time.Duration
}

// Task is a function that runs in parallel. Each task must own its state;
// explorers are not shared between tasks.
type Task struct {
	Name string
	Fn   func(ctx context.Context) (string, error)
}

// Run executes tasks in parallel with the given concurrency limit, printing
// progress to progress when it is non-nil. Tasks that have not started when
// ctx is cancelled report ctx.Err(). Returns results in the order tasks were
// submitted.
func Run(ctx context.Context, tasks []Task, concurrency int, progress io.Writer) []Result {
	if concurrency < 1 {
		concurrency = 4
	}

	results := make([]Result, len(tasks))
	var mu sync.Mutex
	say := func(format string, args ...any) {
		if progress != nil {
			fmt.Fprintf(progress, format, args...)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, task := range tasks {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				mu.Lock()
				results[i] = Result{Name: task.Name, Err: err}
				mu.Unlock()
				return nil
			}
			start := time.Now()

			mu.Lock()
			say("  %s %s...\n", ui.Subtle.Sprint("⟳"), task.Name)
			mu.Unlock()

			output, err := task.Fn(gctx)
			elapsed := time.Since(start)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				results[i] = Result{Name: task.Name, OK: false, Err: err, Output: output, Elapsed: elapsed}
				say("  %s %s %s\n", ui.StatusIcon(false), task.Name, ui.Bad.Sprintf("(%v)", err))
				if output = strings.TrimSpace(output); output != "" {
					for _, line := range truncateLines(output, 5) {
						say("      %s\n", ui.Subtle.Sprint(line))
					}
				}
				return nil
			}
			results[i] = Result{Name: task.Name, OK: true, Output: output, Elapsed: elapsed}
			say("  %s %s %s\n", ui.StatusIcon(true), task.Name, ui.Subtle.Sprintf("%.1fs", elapsed.Seconds()))
			return nil // failures are collected, not propagated
		})
	}

	_ = g.Wait()
	return results
}

// Failed returns the results that did not succeed.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.OK {
			out = append(out, r)
		}
	}
	return out
}

// truncateLines splits text into lines and returns at most n lines.
func truncateLines(s string, n int) []string {
	lines := strings.Split(s, "\n")
	if len(lines) <= n {
		return lines
	}
	out := lines[:n]
	out = append(out, fmt.Sprintf("... (%d more lines)", len(lines)-n))
	return out
}
