package quota

import (
	"sync"
)

// Tracker keeps per-country acceptance counters bounded by their targets.
// A country not present in the target set is never recorded.
type Tracker struct {
	mu        sync.Mutex
	targets   map[string]int
	accepted  map[string]int
	satisfied int
	minNeeded int
}

// New builds a Tracker from per-country target counts. minCountries is the
// number of countries that must be satisfied before Done reports true;
// 0 means every country.
func New(targets map[string]int, minCountries int) *Tracker {
	t := &Tracker{
		targets:  make(map[string]int, len(targets)),
		accepted: make(map[string]int, len(targets)),
	}
	for cc, n := range targets {
		if n > 0 {
			t.targets[cc] = n
		}
	}
	if minCountries <= 0 || minCountries > len(t.targets) {
		minCountries = len(t.targets)
	}
	t.minNeeded = minCountries
	return t
}

// Record attempts to claim one slot for countryCode. It returns true when the
// increment happened, false when the country is untracked or already full.
// Exactly one caller wins the last slot under concurrent use.
func (t *Tracker) Record(countryCode string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	target, ok := t.targets[countryCode]
	if !ok {
		return false
	}
	cur := t.accepted[countryCode]
	if cur >= target {
		return false
	}
	t.accepted[countryCode] = cur + 1
	if cur+1 == target {
		t.satisfied++
	}
	return true
}

// Satisfied reports whether countryCode has reached its target.
func (t *Tracker) Satisfied(countryCode string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	target, ok := t.targets[countryCode]
	return ok && t.accepted[countryCode] >= target
}

// AllSatisfied reports whether every tracked country reached its target.
func (t *Tracker) AllSatisfied() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.satisfied == len(t.targets)
}

// Done reports whether enough countries are satisfied to end the run. This is
// AllSatisfied unless a smaller minimum was configured.
func (t *Tracker) Done() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.targets) > 0 && t.satisfied >= t.minNeeded
}

// SatisfiedCount returns how many tracked countries are currently full.
func (t *Tracker) SatisfiedCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.satisfied
}

// Accepted returns the current accepted count for countryCode.
func (t *Tracker) Accepted(countryCode string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.accepted[countryCode]
}

// Target returns the configured target for countryCode (0 if untracked).
func (t *Tracker) Target(countryCode string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.targets[countryCode]
}

// Countries returns the tracked country codes in unspecified order.
func (t *Tracker) Countries() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, 0, len(t.targets))
	for cc := range t.targets {
		out = append(out, cc)
	}
	return out
}
