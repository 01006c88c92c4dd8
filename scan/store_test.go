package scan

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func res(addr string, latency time.Duration, cc string) *Result {
	return &Result{Addr: addr, Port: 443, Latency: latency, Country: cc, Time: time.Now()}
}

func latencies(bucket []*Result) []time.Duration {
	out := make([]time.Duration, len(bucket))
	for i, r := range bucket {
		out[i] = r.Latency
	}
	return out
}

func TestStoreSortedInsert(t *testing.T) {
	s := NewStore(map[string]int{"US": 5})

	assert.True(t, s.Insert(res("a", 50*time.Millisecond, "US")))
	assert.True(t, s.Insert(res("b", 20*time.Millisecond, "US")))
	assert.True(t, s.Insert(res("c", 80*time.Millisecond, "US")))
	assert.True(t, s.Insert(res("d", 30*time.Millisecond, "US")))

	bucket := s.Buckets()["US"]
	assert.Equal(t, []time.Duration{
		20 * time.Millisecond,
		30 * time.Millisecond,
		50 * time.Millisecond,
		80 * time.Millisecond,
	}, latencies(bucket))
}

func TestStoreStableTies(t *testing.T) {
	s := NewStore(map[string]int{"JP": 4})

	s.Insert(res("first", 10*time.Millisecond, "JP"))
	s.Insert(res("second", 10*time.Millisecond, "JP"))
	s.Insert(res("third", 10*time.Millisecond, "JP"))

	bucket := s.Buckets()["JP"]
	assert.Equal(t, []string{"first", "second", "third"},
		[]string{bucket[0].Addr, bucket[1].Addr, bucket[2].Addr},
		"equal latencies keep arrival order")
}

func TestStoreCapacity(t *testing.T) {
	s := NewStore(map[string]int{"SG": 2})

	assert.True(t, s.Insert(res("a", 30*time.Millisecond, "SG")))
	assert.True(t, s.Insert(res("b", 40*time.Millisecond, "SG")))
	// Full bucket refuses even a faster result: accept-until-full, no
	// eviction of already accepted entries.
	assert.False(t, s.Insert(res("c", 5*time.Millisecond, "SG")))
	assert.Equal(t, 2, s.Count("SG"))
}

func TestStoreDuplicateAddress(t *testing.T) {
	s := NewStore(map[string]int{"HK": 5})

	assert.True(t, s.Insert(res("1.2.3.4", 30*time.Millisecond, "HK")))
	assert.False(t, s.Insert(res("1.2.3.4", 10*time.Millisecond, "HK")))
	assert.Equal(t, 1, s.Count("HK"))
}

func TestStoreUntrackedCountry(t *testing.T) {
	s := NewStore(map[string]int{"US": 1})
	assert.False(t, s.Insert(res("a", time.Millisecond, "DE")))
	assert.Equal(t, 0, s.Total())
}

func TestStoreSnapshotStable(t *testing.T) {
	s := NewStore(map[string]int{"US": 5})
	s.Insert(res("a", 50*time.Millisecond, "US"))

	snap := s.Buckets()
	s.Insert(res("b", 10*time.Millisecond, "US"))

	assert.Len(t, snap["US"], 1, "snapshot must not see later inserts")
	assert.Equal(t, "a", snap["US"][0].Addr)
	assert.Equal(t, 2, s.Count("US"))
}
