package metrics

import (
	"sync"
	"time"
)

// TaskMetrics tracks how sends end and how long completions take.
type TaskMetrics struct {
	mu sync.RWMutex

	// Send outcomes
	TotalSends int64
	Completed  int64
	Failed     int64
	Rejected   int64

	// Completion timing
	CompletionTime time.Duration
	LongestRun     time.Duration
}

// NewTaskMetrics creates a new TaskMetrics instance
func NewTaskMetrics() *TaskMetrics {
	return &TaskMetrics{}
}

// RecordRun records a send that reached the completion service.
func (m *TaskMetrics) RecordRun(succeeded bool, elapsed time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.TotalSends++

	if succeeded {
		m.Completed++
	} else {
		m.Failed++
	}

	m.CompletionTime += elapsed

	if elapsed > m.LongestRun {
		m.LongestRun = elapsed
	}
}

// RecordRejection records a send refused before any work started.
func (m *TaskMetrics) RecordRejection() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.TotalSends++
	m.Rejected++
}

// Snapshot returns a copy of the current counters keyed for JSON output.
func (m *TaskMetrics) Snapshot() map[string]any {
	m.mu.RLock()
	defer m.mu.RUnlock()

	avg := 0.0

	if runs := m.Completed + m.Failed; runs > 0 {
		avg = m.CompletionTime.Seconds() / float64(runs)
	}

	return map[string]any{
		"total_sends":         m.TotalSends,
		"completed":           m.Completed,
		"failed":              m.Failed,
		"rejected":            m.Rejected,
		"avg_completion_time": avg,
		"longest_run":         m.LongestRun.Seconds(),
	}
}
