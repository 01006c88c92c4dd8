package scan

import (
	"time"
)

// Result is one accepted probe measurement, tagged with the country the
// address resolved to. Immutable once created.
type Result struct {
	Addr    string        `json:"addr"`
	Port    int           `json:"port"`
	Latency time.Duration `json:"latency"`
	Country string        `json:"country"`
	Time    time.Time     `json:"time"`
}

// LatencyMS renders latency the way the result files expect it.
func (r *Result) LatencyMS() float64 {
	return float64(r.Latency) / float64(time.Millisecond)
}
