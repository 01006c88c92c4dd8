package candidate

import (
	"context"
	"os"
	"sync"
)

// StaticSource serves a fixed, pre-deduplicated candidate list.
type StaticSource struct {
	mu    sync.Mutex
	addrs []string
	pos   int
}

// NewStatic builds a StaticSource from raw entries. Entries are parsed with
// the usual feed rules (CIDR blocks expanded with perCIDR samples) and
// deduplicated keeping first occurrence.
func NewStatic(entries []string, perCIDR int) *StaticSource {
	set := newDedupSet()
	var addrs []string
	for _, entry := range entries {
		for _, addr := range ParseList(entry, perCIDR) {
			if set.add(addr) {
				addrs = append(addrs, addr)
			}
		}
	}
	return &StaticSource{addrs: addrs}
}

// NewFile loads a candidate list file, one entry per line.
func NewFile(path string, perCIDR int) (*StaticSource, error) {
	body, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	set := newDedupSet()
	var addrs []string
	for _, addr := range ParseList(string(body), perCIDR) {
		if set.add(addr) {
			addrs = append(addrs, addr)
		}
	}
	return &StaticSource{addrs: addrs}, nil
}

func (s *StaticSource) NextBatch(ctx context.Context, n int) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pos >= len(s.addrs) || n <= 0 {
		return nil, nil
	}
	end := s.pos + n
	if end > len(s.addrs) {
		end = len(s.addrs)
	}
	batch := s.addrs[s.pos:end]
	s.pos = end
	return batch, nil
}

// Len returns the total number of candidates the source started with.
func (s *StaticSource) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.addrs)
}
