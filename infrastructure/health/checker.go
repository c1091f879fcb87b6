// Package health runs named diagnostic checks and summarises them.
package health

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"
)

// Status is the outcome of one check.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
	StatusWarning Status = "warning"
	StatusInfo    Status = "info"
)

// Result is the outcome of one named check.
type Result struct {
	Name     string        `json:"name"`
	Status   Status        `json:"status"`
	Message  string        `json:"message"`
	Details  string        `json:"details,omitempty"`
	Duration time.Duration `json:"duration_ns"`
}

// Summary counts results by outcome.
type Summary struct {
	Total    int `json:"total"`
	Passed   int `json:"passed"`
	Failed   int `json:"failed"`
	Warnings int `json:"warnings"`
}

// Report is the full diagnostic output.
type Report struct {
	Timestamp time.Time `json:"timestamp"`
	Checks    []Result  `json:"checks"`
	Summary   Summary   `json:"summary"`
}

// Healthy reports whether no check failed.
func (r Report) Healthy() bool {
	return r.Summary.Failed == 0
}

// CheckFunc returns a Result for its subject. Name and Duration are filled
// in by the Checker.
type CheckFunc func(ctx context.Context) Result

// Checker holds registered checks.
type Checker struct {
	mu     sync.RWMutex
	checks map[string]CheckFunc
}

func NewChecker() *Checker {
	return &Checker{checks: make(map[string]CheckFunc)}
}

// Register adds or replaces a check.
func (c *Checker) Register(name string, fn CheckFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[name] = fn
}

// Run executes every check concurrently and returns results sorted by name.
func (c *Checker) Run(ctx context.Context) Report {
	c.mu.RLock()
	names := make([]string, 0, len(c.checks))
	for name := range c.checks {
		names = append(names, name)
	}
	checks := make(map[string]CheckFunc, len(c.checks))
	for k, v := range c.checks {
		checks[k] = v
	}
	c.mu.RUnlock()
	sort.Strings(names)

	results := make([]Result, len(names))
	var wg sync.WaitGroup
	for i, name := range names {
		wg.Add(1)
		go func(i int, name string) {
			defer wg.Done()
			start := time.Now()
			res := checks[name](ctx)
			res.Name = name
			res.Duration = time.Since(start)
			results[i] = res
		}(i, name)
	}
	wg.Wait()

	report := Report{Timestamp: time.Now().UTC(), Checks: results}
	for _, r := range results {
		report.Summary.Total++
		switch r.Status {
		case StatusSuccess:
			report.Summary.Passed++
		case StatusError:
			report.Summary.Failed++
		case StatusWarning:
			report.Summary.Warnings++
		case StatusInfo:
		}
	}
	return report
}

// PingCheck adapts a ping function into a CheckFunc.
func PingCheck(ping func(ctx context.Context) error) CheckFunc {
	return func(ctx context.Context) Result {
		if err := ping(ctx); err != nil {
			return Result{Status: StatusError, Message: "connection failed", Details: err.Error()}
		}
		return Result{Status: StatusSuccess, Message: "connected"}
	}
}

// StaticCheck always returns the given status and message.
func StaticCheck(status Status, message string) CheckFunc {
	return func(context.Context) Result {
		return Result{Status: status, Message: message}
	}
}

// MemoryCheck reports heap usage and goroutine count as info.
func MemoryCheck() CheckFunc {
	return func(context.Context) Result {
		var m runtime.MemStats
		runtime.ReadMemStats(&m)
		const mb = 1024 * 1024
		return Result{
			Status:  StatusInfo,
			Message: fmt.Sprintf("heap %d MiB", m.HeapAlloc/mb),
			Details: fmt.Sprintf("sys=%dMiB gc=%d goroutines=%d", m.Sys/mb, m.NumGC, runtime.NumGoroutine()),
		}
	}
}
