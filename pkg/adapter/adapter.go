// Package adapter provides format-specific pipelines: each adapter owns a
// pipeline and layers decoding and summary generation around its execution.
package adapter

import (
	"strconv"
	"sync"
)

// summarizer holds the human-readable summary of the most recent run.
type summarizer struct {
	mu      sync.RWMutex
	summary string
}

func (s *summarizer) setSummary(summary string) {
	s.mu.Lock()
	s.summary = summary
	s.mu.Unlock()
}

// Summary returns the summary generated by the adapter's last Process call.
func (s *summarizer) Summary() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.summary
}

// toFloat coerces the numeric types a decoded value may carry.
func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	default:
		return 0, false
	}
}

// formatNumber renders a value without a trailing zero fraction (23.5, not
// 23.500000).
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
