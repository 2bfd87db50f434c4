package control

import (
	"sync"
	"time"

	"github.com/montanaflynn/stats"

	"go.viam.com/localplanner/apf"
)

// CycleStats collects planner observations. Its Record method can be passed to apf.WithHook.
type CycleStats struct {
	mu         sync.Mutex
	durations  stats.Float64Data
	considered stats.Float64Data
	clamped    int
}

// CycleSummary summarizes the recorded planner cycles.
type CycleSummary struct {
	Count          int
	Mean           time.Duration
	Median         time.Duration
	P95            time.Duration
	Max            time.Duration
	MeanConsidered float64
	Clamped        int
}

// Record stores one observation.
func (cs *CycleStats) Record(obs apf.Observation) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.durations = append(cs.durations, float64(obs.Duration))
	cs.considered = append(cs.considered, float64(obs.Considered))
	cs.clamped += obs.Clamped
}

// Summary returns aggregate timings of everything recorded so far. It is all zero when nothing
// was recorded.
func (cs *CycleStats) Summary() (CycleSummary, error) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	summary := CycleSummary{Count: len(cs.durations), Clamped: cs.clamped}
	if summary.Count == 0 {
		return summary, nil
	}

	mean, err := cs.durations.Mean()
	if err != nil {
		return CycleSummary{}, err
	}
	median, err := cs.durations.Median()
	if err != nil {
		return CycleSummary{}, err
	}
	p95, err := cs.durations.Percentile(95)
	if err != nil {
		return CycleSummary{}, err
	}
	maxDuration, err := cs.durations.Max()
	if err != nil {
		return CycleSummary{}, err
	}
	meanConsidered, err := cs.considered.Mean()
	if err != nil {
		return CycleSummary{}, err
	}

	summary.Mean = time.Duration(mean)
	summary.Median = time.Duration(median)
	summary.P95 = time.Duration(p95)
	summary.Max = time.Duration(maxDuration)
	summary.MeanConsidered = meanConsidered
	return summary, nil
}
