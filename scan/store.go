package scan

import (
	"sort"
	"sync"
)

// Store collects accepted results in per-country buckets. Each bucket stays
// sorted ascending by latency (stable on ties), holds no duplicate address,
// and never grows past its country's quota. Once a bucket is full further
// inserts for that country are refused; accepted entries are never evicted.
type Store struct {
	mu      sync.Mutex
	caps    map[string]int
	buckets map[string][]*Result
	seen    map[string]map[string]struct{}
}

func NewStore(caps map[string]int) *Store {
	return &Store{
		caps:    caps,
		buckets: make(map[string][]*Result),
		seen:    make(map[string]map[string]struct{}),
	}
}

// Insert files r into its country bucket, keeping the bucket sorted. It
// returns false when the bucket is full, the country untracked, or the
// address already present.
func (s *Store) Insert(r *Result) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	limit, ok := s.caps[r.Country]
	if !ok {
		return false
	}
	bucket := s.buckets[r.Country]
	if len(bucket) >= limit {
		return false
	}
	addrs := s.seen[r.Country]
	if addrs == nil {
		addrs = make(map[string]struct{})
		s.seen[r.Country] = addrs
	}
	if _, dup := addrs[r.Addr]; dup {
		return false
	}
	addrs[r.Addr] = struct{}{}

	// Buckets are quota-sized (tens of entries), an insertion point search
	// plus copy is plenty. Equal latencies keep arrival order.
	i := sort.Search(len(bucket), func(i int) bool {
		return bucket[i].Latency > r.Latency
	})
	bucket = append(bucket, nil)
	copy(bucket[i+1:], bucket[i:])
	bucket[i] = r
	s.buckets[r.Country] = bucket
	return true
}

// Buckets returns a snapshot of every bucket. The snapshot is stable: later
// inserts do not mutate it.
func (s *Store) Buckets() map[string][]*Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string][]*Result, len(s.buckets))
	for cc, bucket := range s.buckets {
		cp := make([]*Result, len(bucket))
		copy(cp, bucket)
		out[cc] = cp
	}
	return out
}

// Count returns the current size of one country's bucket.
func (s *Store) Count(countryCode string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.buckets[countryCode])
}

// Total returns the number of accepted results across all buckets.
func (s *Store) Total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, bucket := range s.buckets {
		n += len(bucket)
	}
	return n
}
