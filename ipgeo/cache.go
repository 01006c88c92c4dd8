package ipgeo

import (
	"sync"
)

// Cached wraps a Source with per-run memoization so that repeated lookups of
// the same address hit the upstream provider only once. Failed lookups are
// not cached, a later retry may still succeed.
func Cached(src Source) Source {
	var cache sync.Map
	return func(ip string) (string, error) {
		if v, ok := cache.Load(ip); ok {
			return v.(string), nil
		}
		code, err := src(ip)
		if err != nil {
			return code, err
		}
		cache.Store(ip, code)
		return code, nil
	}
}
