package tools

import (
	"time"

	"github.com/stratumhq/agentkit/types"
)

// BatchStats summarizes a slice of tool call results.
type BatchStats struct {
	Calls       int           `json:"calls"`
	SuccessRate float64       `json:"successRate"`
	MinDuration time.Duration `json:"minDuration"`
	AvgDuration time.Duration `json:"avgDuration"`
	MaxDuration time.Duration `json:"maxDuration"`
}

// Stats computes call counts and duration spread over results. Timed-out
// and failed calls count toward durations; an empty slice yields the zero
// value.
func Stats(results []types.ToolCallResult) BatchStats {
	if len(results) == 0 {
		return BatchStats{}
	}

	stats := BatchStats{Calls: len(results), MinDuration: results[0].Duration}
	succeeded := 0
	var total time.Duration
	for _, res := range results {
		if res.Success {
			succeeded++
		}
		total += res.Duration
		if res.Duration < stats.MinDuration {
			stats.MinDuration = res.Duration
		}
		if res.Duration > stats.MaxDuration {
			stats.MaxDuration = res.Duration
		}
	}
	stats.SuccessRate = float64(succeeded) / float64(len(results))
	stats.AvgDuration = total / time.Duration(len(results))
	return stats
}
