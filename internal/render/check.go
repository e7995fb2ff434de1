package render

import (
	"fmt"
	"time"

	"github.com/dkoosis/taskdash/internal/cache"
	"github.com/dkoosis/taskdash/internal/clickup"
	"github.com/dkoosis/taskdash/internal/metrics"
)

// CheckStep is the outcome of one diagnostic step.
type CheckStep struct {
	Name   string `json:"name"`
	OK     bool   `json:"ok"`
	Detail string `json:"detail,omitempty"`
}

// CheckReport collects the connection diagnostic.
type CheckReport struct {
	Steps       []CheckStep           `json:"steps"`
	TokenSource string                `json:"tokenSource"`
	Health      clickup.Health        `json:"health"`
	Metrics     metrics.ClientMetrics `json:"metrics"`
	Cache       cache.Stats           `json:"cache"`
}

// Passed reports whether every step succeeded.
func (c CheckReport) Passed() bool {
	for _, s := range c.Steps {
		if !s.OK {
			return false
		}
	}
	return true
}

// Check prints the diagnostic report.
func (r *Renderer) Check(report CheckReport) error {
	if r.format == FormatJSON {
		return r.JSON(report)
	}
	rows := make([][]string, 0, len(report.Steps))
	for _, s := range report.Steps {
		mark := okColor.Sprint("ok")
		if !s.OK {
			mark = errColor.Sprint("FAIL")
		}
		rows = append(rows, []string{s.Name, mark, orEmpty(s.Detail)})
	}
	if err := r.table([]string{"Check", "Result", "Detail"}, rows); err != nil {
		return err
	}

	m := report.Metrics
	stats := [][]string{
		{"Token source", orEmpty(report.TokenSource)},
		{"Connection", healthLabel(report.Health)},
		{"API calls", fmt.Sprintf("%d (%d errors, avg %d ms)", m.APICallCount, m.APIErrorCount, m.APIAvgLatencyMs)},
		{"Cache", fmt.Sprintf("%d hits, %d misses", report.Cache.Hits, report.Cache.Misses)},
		{"Cooldowns", fmt.Sprintf("%d", m.Cooldowns)},
		{"Limiter waits", fmt.Sprintf("%d (%s)", m.LimiterWaits, m.LimiterWaitTotal.Round(time.Millisecond))},
	}
	return r.table([]string{"Metric", "Value"}, stats)
}

func healthLabel(h clickup.Health) string {
	text := string(h.State)
	switch h.State {
	case clickup.HealthHealthy:
		return okColor.Sprint(text)
	case clickup.HealthThrottled:
		return warnColor.Sprint(text)
	case clickup.HealthUnauthorized, clickup.HealthDegraded:
		if h.LastError != "" {
			text += ": " + h.LastError
		}
		return errColor.Sprint(text)
	default:
		return mutedColor.Sprint(text)
	}
}
