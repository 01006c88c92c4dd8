package scan

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/relayscan/relayscan/candidate"
	"github.com/relayscan/relayscan/ipgeo"
	"github.com/relayscan/relayscan/probe"
	"github.com/relayscan/relayscan/quota"
)

var (
	// ErrNoCandidates means the source produced nothing at all. Exhaustion
	// after partial progress is a normal stop, not an error.
	ErrNoCandidates = errors.New("candidate source produced no candidates")
	ErrRunExecuted  = errors.New("scan already executed")
)

// StopReason records why the run stopped issuing new work.
type StopReason string

const (
	StopQuotasMet StopReason = "quotas met"
	StopExhausted StopReason = "pool exhausted"
	StopScanCap   StopReason = "scan cap reached"
	StopCancelled StopReason = "cancelled"
)

// Summary is handed to the caller exactly once, after every in-flight probe
// resolved or was abandoned.
type Summary struct {
	Scanned   int64         `json:"scanned"`
	Accepted  int64         `json:"accepted"`
	Rejected  int64         `json:"rejected"`
	Failed    int64         `json:"failed"`
	Unknown   int64         `json:"unknown"`
	TooSlow   int64         `json:"tooSlow"`
	Reason    StopReason    `json:"reason"`
	Elapsed   time.Duration `json:"elapsed"`
	Satisfied int           `json:"satisfied"`
}

// Progress is a lightweight counter snapshot passed to the progress callback
// after every candidate settles. Accepted carries the result that was just
// filed, nil otherwise.
type Progress struct {
	Scanned  int64
	Accepted int64
	Failed   int64
	Rejected int64
	Last     *Result
}

// Scheduler owns the bounded worker pool: it drains the candidate source,
// dispatches probes under a concurrency semaphore, routes successes through
// the country resolver and quota tracker, and signals global stop when the
// quotas are met, the pool runs dry, or the scan cap is hit.
type Scheduler struct {
	cfg      Config
	source   candidate.Source
	prober   probe.Prober
	resolver ipgeo.Source
	quota    *quota.Tracker
	store    *Store

	sem    *semaphore.Weighted
	wg     sync.WaitGroup
	cancel context.CancelFunc

	stopOnce sync.Once
	stopped  atomic.Bool
	reason   StopReason

	executed atomic.Bool

	scanned  atomic.Int64
	accepted atomic.Int64
	rejected atomic.Int64
	failed   atomic.Int64
	unknown  atomic.Int64
	tooSlow  atomic.Int64

	onProgress func(Progress)
}

// New validates cfg and builds a Scheduler. A nil resolver treats every
// address as UNKNOWN, which makes the run end only by exhaustion or cap.
func New(cfg Config, source candidate.Source, prober probe.Prober, resolver ipgeo.Source) (*Scheduler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if source == nil {
		return nil, fmt.Errorf("%w: nil candidate source", ErrInvalidConfig)
	}
	if prober == nil {
		prober = probe.NewTCP(cfg.Ports, cfg.Timeout, cfg.AllPorts)
	}
	targets := cfg.Targets()
	return &Scheduler{
		cfg:      cfg,
		source:   source,
		prober:   prober,
		resolver: resolver,
		quota:    quota.New(targets, cfg.MinCountries),
		store:    NewStore(targets),
		sem:      semaphore.NewWeighted(int64(cfg.MaxConcurrent)),
	}, nil
}

// OnProgress registers a callback invoked after every settled candidate.
// It must return promptly; it runs on worker goroutines. Set before Run.
func (s *Scheduler) OnProgress(fn func(Progress)) {
	s.onProgress = fn
}

// Store exposes the result store; its Buckets snapshot is stable once Run
// has returned.
func (s *Scheduler) Store() *Store {
	return s.store
}

// Quota exposes the quota tracker for status displays.
func (s *Scheduler) Quota() *quota.Tracker {
	return s.quota
}

// Run drives the scan to completion and reports the summary exactly once.
// Cancelling ctx stops new dispatch and aborts in-flight dials.
func (s *Scheduler) Run(ctx context.Context) (*Summary, error) {
	if !s.executed.CompareAndSwap(false, true) {
		return nil, ErrRunExecuted
	}
	start := time.Now()

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	defer cancel()

	produced, srcErr := s.dispatch(runCtx)

	// Let in-flight probes resolve; cancelled ones unwind promptly because
	// the dialer honors runCtx.
	s.wg.Wait()

	if srcErr != nil && !produced {
		return nil, fmt.Errorf("%w: %v", ErrNoCandidates, srcErr)
	}
	if !produced {
		s.signalStop(StopExhausted)
		return nil, ErrNoCandidates
	}

	s.signalStop(StopExhausted) // no-op when a stop was already recorded

	summary := &Summary{
		Scanned:   s.scanned.Load(),
		Accepted:  s.accepted.Load(),
		Rejected:  s.rejected.Load(),
		Failed:    s.failed.Load(),
		Unknown:   s.unknown.Load(),
		TooSlow:   s.tooSlow.Load(),
		Reason:    s.reason,
		Elapsed:   time.Since(start),
		Satisfied: s.quota.SatisfiedCount(),
	}
	return summary, nil
}

// dispatch pulls candidates and launches workers until a stop condition
// lands. It reports whether any candidate was ever produced.
func (s *Scheduler) dispatch(ctx context.Context) (bool, error) {
	batchSize := s.cfg.MaxConcurrent
	produced := false

	for !s.stopped.Load() {
		if ctx.Err() != nil {
			s.signalStop(StopCancelled)
			break
		}

		n := batchSize
		if s.cfg.MaxScan > 0 {
			remaining := int64(s.cfg.MaxScan) - s.scanned.Load()
			if remaining <= 0 {
				s.signalStop(StopScanCap)
				break
			}
			if int64(n) > remaining {
				n = int(remaining)
			}
		}

		addrs, err := s.source.NextBatch(ctx, n)
		if err != nil {
			if ctx.Err() != nil {
				s.signalStop(StopCancelled)
				break
			}
			return produced, err
		}
		if len(addrs) == 0 {
			s.signalStop(StopExhausted)
			break
		}
		produced = true

		for _, addr := range addrs {
			if s.stopped.Load() {
				return produced, nil
			}
			if err := s.sem.Acquire(ctx, 1); err != nil {
				s.signalStop(StopCancelled)
				return produced, nil
			}
			if s.stopped.Load() {
				// A worker signalled stop while we held the semaphore queue.
				s.sem.Release(1)
				return produced, nil
			}
			s.scanned.Add(1)
			s.wg.Add(1)
			go s.worker(ctx, addr)
		}
	}
	return produced, nil
}

// worker settles one candidate as accepted, rejected or failed. Bookkeeping
// never blocks on network I/O while holding a lock; the only suspension
// points are the probe and the resolver, both outside any shared lock.
func (s *Scheduler) worker(ctx context.Context, addr string) {
	defer s.wg.Done()
	defer s.sem.Release(1)

	res, err := s.prober.Probe(ctx, addr)
	if err != nil {
		if ctx.Err() != nil {
			return // abandoned by global stop, not a real failure
		}
		s.failed.Add(1)
		s.progress(nil)
		return
	}

	if s.cfg.MaxLatency > 0 && res.Latency > s.cfg.MaxLatency {
		s.tooSlow.Add(1)
		s.progress(nil)
		return
	}

	cc := s.resolve(res.Addr)
	if cc == ipgeo.Unknown {
		s.unknown.Add(1)
		s.progress(nil)
		return
	}

	if !s.quota.Record(cc) {
		// Untracked country, or a concurrent acceptance filled the quota
		// first. Either way the result is discarded.
		s.rejected.Add(1)
		s.progress(nil)
		return
	}

	accepted := &Result{
		Addr:    res.Addr,
		Port:    res.Port,
		Latency: res.Latency,
		Country: cc,
		Time:    res.Time,
	}
	if !s.store.Insert(accepted) {
		// Same-address duplicate slipping past source dedup. The quota slot
		// stays claimed; candidates are deduplicated upstream so this is a
		// pathological case, not a steady-state leak.
		s.rejected.Add(1)
		s.progress(nil)
		return
	}
	s.accepted.Add(1)

	if s.quota.Done() {
		s.signalStop(StopQuotasMet)
	}
	s.progress(accepted)
}

// resolve maps an address to a country code, degrading every resolver
// failure to UNKNOWN rather than aborting the run.
func (s *Scheduler) resolve(addr string) string {
	if s.resolver == nil {
		return ipgeo.Unknown
	}
	if ipgeo.Filtered(addr) {
		return ipgeo.Unknown
	}
	cc, err := s.resolver(addr)
	if err != nil || cc == "" {
		return ipgeo.Unknown
	}
	return cc
}

// signalStop flips the run into stopping state. Idempotent and race-safe:
// many workers may call it, exactly one transition happens, and every
// dispatch site observes it on its next poll.
func (s *Scheduler) signalStop(reason StopReason) {
	s.stopOnce.Do(func() {
		s.reason = reason
		s.stopped.Store(true)
		// In-flight probes still count when the pool ran dry or the cap was
		// hit; a satisfied or cancelled run abandons them instead.
		if reason == StopQuotasMet || reason == StopCancelled {
			if s.cancel != nil {
				s.cancel()
			}
		}
	})
}

func (s *Scheduler) progress(last *Result) {
	if s.onProgress == nil {
		return
	}
	s.onProgress(Progress{
		Scanned:  s.scanned.Load(),
		Accepted: s.accepted.Load(),
		Failed:   s.failed.Load(),
		Rejected: s.rejected.Load(),
		Last:     last,
	})
}
