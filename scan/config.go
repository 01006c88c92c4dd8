package scan

import (
	"errors"
	"fmt"
	"time"
)

var ErrInvalidConfig = errors.New("invalid scan config")

// Config describes one run. Immutable for the run's duration.
type Config struct {
	// Countries lists the target country codes; CountPerCountry holds each
	// country's quota. A country missing from CountPerCountry uses
	// DefaultCount.
	Countries       []string       `json:"countries"`
	CountPerCountry map[string]int `json:"countPerCountry,omitempty"`
	DefaultCount    int            `json:"defaultCount"`

	// MinCountries ends the run once that many countries are satisfied;
	// 0 means all of them.
	MinCountries int `json:"minCountries"`

	MaxConcurrent int           `json:"maxConcurrent"`
	Ports         []int         `json:"ports"`
	Timeout       time.Duration `json:"timeout"`

	// MaxScan caps how many candidates are dispatched; 0 = unbounded.
	MaxScan int `json:"maxScan"`

	// AllPorts requires every configured port to connect instead of the
	// default first-success fallback chain.
	AllPorts bool `json:"allPorts"`

	// MaxLatency discards successful probes slower than this; 0 = no cap.
	MaxLatency time.Duration `json:"maxLatency"`
}

// Targets materializes the per-country quota map.
func (c *Config) Targets() map[string]int {
	targets := make(map[string]int, len(c.Countries))
	for _, cc := range c.Countries {
		n, ok := c.CountPerCountry[cc]
		if !ok {
			n = c.DefaultCount
		}
		targets[cc] = n
	}
	return targets
}

// Validate reports the first precondition violation. A run never starts with
// an invalid config.
func (c *Config) Validate() error {
	if len(c.Countries) == 0 {
		return fmt.Errorf("%w: no target countries", ErrInvalidConfig)
	}
	for cc, n := range c.Targets() {
		if n <= 0 {
			return fmt.Errorf("%w: country %s has target %d", ErrInvalidConfig, cc, n)
		}
	}
	if c.MaxConcurrent <= 0 {
		return fmt.Errorf("%w: maxConcurrent must be positive, got %d", ErrInvalidConfig, c.MaxConcurrent)
	}
	if len(c.Ports) == 0 {
		return fmt.Errorf("%w: no probe ports", ErrInvalidConfig)
	}
	for _, p := range c.Ports {
		if p < 1 || p > 65535 {
			return fmt.Errorf("%w: port %d out of range", ErrInvalidConfig, p)
		}
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("%w: timeout must be positive", ErrInvalidConfig)
	}
	if c.MaxScan < 0 {
		return fmt.Errorf("%w: maxScan must not be negative", ErrInvalidConfig)
	}
	if c.MinCountries < 0 || c.MinCountries > len(c.Countries) {
		return fmt.Errorf("%w: minCountries %d out of range", ErrInvalidConfig, c.MinCountries)
	}
	return nil
}
