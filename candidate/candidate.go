// Package candidate supplies ordered, deduplicated IP candidates for the
// scan scheduler. Sources are drained by a single dispatcher but are safe for
// concurrent use anyway.
package candidate

import (
	"context"
)

// Source yields candidate addresses in batches. An empty batch with a nil
// error means the source is exhausted.
type Source interface {
	NextBatch(ctx context.Context, n int) ([]string, error)
}

// dedupSet tracks seen addresses preserving first-occurrence order.
type dedupSet struct {
	seen map[string]struct{}
}

func newDedupSet() *dedupSet {
	return &dedupSet{seen: make(map[string]struct{})}
}

// add returns false when addr was already present.
func (d *dedupSet) add(addr string) bool {
	if _, ok := d.seen[addr]; ok {
		return false
	}
	d.seen[addr] = struct{}{}
	return true
}
