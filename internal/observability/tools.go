package observability

import (
	"log/slog"
	"sync"
	"time"
)

// failureAlertEvery controls how often repeated failures of the same tool raise an alert line.
const failureAlertEvery = 10

type ToolObserver struct {
	logger *slog.Logger

	mu            sync.Mutex
	failureCounts map[string]int64
}

func NewToolObserver(logger *slog.Logger) *ToolObserver {
	if logger == nil {
		logger = slog.Default()
	}
	return &ToolObserver{
		logger:        logger,
		failureCounts: make(map[string]int64),
	}
}

func (o *ToolObserver) RecordSuccess(tool string, replayID string, latency time.Duration) {
	if o == nil {
		return
	}
	o.logger.Info("tool call",
		"tool", tool,
		"replay_id", replayID,
		"status", "success",
		"latency_ms", latency.Milliseconds(),
	)
}

func (o *ToolObserver) RecordFailure(tool string, replayID string, latency time.Duration, err error) {
	if o == nil {
		return
	}
	o.mu.Lock()
	o.failureCounts[tool]++
	count := o.failureCounts[tool]
	o.mu.Unlock()

	o.logger.Warn("tool call",
		"tool", tool,
		"replay_id", replayID,
		"status", "failed",
		"latency_ms", latency.Milliseconds(),
		"error", err,
		"failure_count", count,
	)
	if count%failureAlertEvery == 0 {
		o.logger.Error("tool failures repeating", "tool", tool, "failure_count", count)
	}
}

// Failures returns how many failures have been recorded for tool.
func (o *ToolObserver) Failures(tool string) int64 {
	if o == nil {
		return 0
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.failureCounts[tool]
}
