package llm

import (
	"slices"
	"sync"
	"time"
)

// ringSize bounds how many latency samples are kept; once full, new
// samples overwrite the oldest.
const ringSize = 1024

// StatsSnapshot is a point-in-time aggregate of LLM latency samples.
type StatsSnapshot struct {
	Count int     `json:"count"`
	MinMs int64   `json:"min_ms"`
	MaxMs int64   `json:"max_ms"`
	AvgMs float64 `json:"avg_ms"`
	P50Ms float64 `json:"p50_ms"`
	P95Ms float64 `json:"p95_ms"`
	P99Ms float64 `json:"p99_ms"`
}

// Stats tracks recent LLM call latencies in a fixed-size ring.
// Samples older than the window are skipped at snapshot time.
type Stats struct {
	mu     sync.Mutex
	at     [ringSize]time.Time
	ms     [ringSize]int64
	head   int // next write slot
	count  int
	window time.Duration
}

func NewStats(window time.Duration) *Stats {
	if window <= 0 {
		window = time.Hour
	}
	return &Stats{window: window}
}

func (s *Stats) Record(durationMs int64) {
	if durationMs < 0 {
		durationMs = 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.at[s.head] = time.Now()
	s.ms[s.head] = durationMs
	s.head = (s.head + 1) % ringSize
	if s.count < ringSize {
		s.count++
	}
}

func (s *Stats) Snapshot() StatsSnapshot {
	cutoff := time.Now().Add(-s.window)

	s.mu.Lock()
	values := make([]int64, 0, s.count)
	var sum int64
	for i := 0; i < s.count; i++ {
		slot := (s.head - s.count + i + ringSize) % ringSize
		if s.at[slot].Before(cutoff) {
			continue
		}
		values = append(values, s.ms[slot])
		sum += s.ms[slot]
	}
	s.mu.Unlock()

	if len(values) == 0 {
		return StatsSnapshot{}
	}
	slices.Sort(values)

	return StatsSnapshot{
		Count: len(values),
		MinMs: values[0],
		MaxMs: values[len(values)-1],
		AvgMs: float64(sum) / float64(len(values)),
		P50Ms: nearestRank(values, 50),
		P95Ms: nearestRank(values, 95),
		P99Ms: nearestRank(values, 99),
	}
}

// nearestRank returns the pct-th percentile of sorted values using the
// nearest-rank method: the value at 1-based rank ceil(n*pct/100).
func nearestRank(sorted []int64, pct int) float64 {
	rank := (len(sorted)*pct + 99) / 100
	if rank < 1 {
		rank = 1
	}
	if rank > len(sorted) {
		rank = len(sorted)
	}
	return float64(sorted[rank-1])
}
