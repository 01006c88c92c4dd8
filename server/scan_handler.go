package server

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/relayscan/relayscan/candidate"
	"github.com/relayscan/relayscan/config"
	"github.com/relayscan/relayscan/ipgeo"
	"github.com/relayscan/relayscan/printer"
	"github.com/relayscan/relayscan/scan"
)

var (
	runMu       sync.Mutex
	current     *scan.Scheduler
	cancelRun   context.CancelFunc
	lastSummary *scan.Summary
	lastBuckets map[string][]*scan.Result
	lastErr     string
)

type scanRequest struct {
	Countries       []string       `json:"countries"`
	CountPerCountry map[string]int `json:"count_per_country"`
	Count           int            `json:"count"`
	MinCountries    int            `json:"min_countries"`
	Ports           []int          `json:"ports"`
	MaxConcurrent   int            `json:"max_concurrent"`
	TimeoutMs       int            `json:"timeout_ms"`
	MaxScan         int            `json:"max_scan"`
	AllPorts        bool           `json:"all_ports"`
	MaxLatencyMs    int            `json:"max_latency_ms"`
	DataProvider    string         `json:"data_provider"`

	// Entries scans an inline candidate list instead of the remote feeds.
	Entries []string `json:"entries"`
	PerCIDR int      `json:"per_cidr"`
}

type statusResponse struct {
	Version  string         `json:"version"`
	Running  bool           `json:"running"`
	Quotas   map[string]int `json:"quotas,omitempty"`
	Accepted map[string]int `json:"accepted,omitempty"`
	Summary  *scan.Summary  `json:"summary,omitempty"`
	Error    string         `json:"error,omitempty"`
}

func (r *scanRequest) toConfig() scan.Config {
	defaults, _ := config.Read()

	cfg := scan.Config{
		Countries:       r.Countries,
		CountPerCountry: r.CountPerCountry,
		DefaultCount:    r.Count,
		MinCountries:    r.MinCountries,
		Ports:           r.Ports,
		MaxConcurrent:   r.MaxConcurrent,
		Timeout:         time.Duration(r.TimeoutMs) * time.Millisecond,
		MaxScan:         r.MaxScan,
		AllPorts:        r.AllPorts,
		MaxLatency:      time.Duration(r.MaxLatencyMs) * time.Millisecond,
	}
	if len(cfg.Countries) == 0 {
		cfg.Countries = defaults.Countries
	}
	if cfg.DefaultCount <= 0 {
		cfg.DefaultCount = defaults.CountPerNation
	}
	if len(cfg.Ports) == 0 {
		cfg.Ports = defaults.Ports
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = defaults.MaxConcurrent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = time.Duration(defaults.TimeoutMS) * time.Millisecond
	}
	return cfg
}

func (r *scanRequest) source() candidate.Source {
	if len(r.Entries) > 0 {
		perCIDR := r.PerCIDR
		if perCIDR <= 0 {
			perCIDR = 256
		}
		return candidate.NewStatic(r.Entries, perCIDR)
	}
	return candidate.NewRemote(candidate.DefaultFeeds())
}

func scanHandler(c *gin.Context) {
	var req scanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	dataProvider := req.DataProvider
	if dataProvider == "" {
		defaults, _ := config.Read()
		dataProvider = defaults.DataOrigin
	}
	resolver := ipgeo.Cached(ipgeo.GetSource(dataProvider))

	cfg := req.toConfig()
	sched, err := scan.New(cfg, req.source(), nil, resolver)
	if err != nil {
		if errors.Is(err, scan.ErrInvalidConfig) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	sched.OnProgress(broker.publish)

	runMu.Lock()
	if current != nil {
		runMu.Unlock()
		c.JSON(http.StatusConflict, gin.H{"error": "a scan is already running"})
		return
	}
	runCtx, cancel := context.WithCancel(context.Background())
	current = sched
	cancelRun = cancel
	runMu.Unlock()

	go func() {
		defer cancel()
		summary, err := sched.Run(runCtx)

		runMu.Lock()
		lastSummary = summary
		lastBuckets = sched.Store().Buckets()
		lastErr = ""
		if err != nil {
			lastErr = err.Error()
		}
		current = nil
		cancelRun = nil
		runMu.Unlock()

		broker.finish(summary, err)
	}()

	c.JSON(http.StatusAccepted, gin.H{"config": cfg})
}

func cancelHandler(c *gin.Context) {
	runMu.Lock()
	cancel := cancelRun
	runMu.Unlock()

	if cancel == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no scan running"})
		return
	}
	cancel()
	c.JSON(http.StatusOK, gin.H{"status": "cancelling"})
}

func statusHandler(c *gin.Context) {
	runMu.Lock()
	defer runMu.Unlock()

	resp := statusResponse{
		Version: printer.AppVersion,
		Running: current != nil,
		Summary: lastSummary,
		Error:   lastErr,
	}
	if current != nil {
		tracker := current.Quota()
		resp.Quotas = make(map[string]int)
		resp.Accepted = make(map[string]int)
		for _, cc := range tracker.Countries() {
			resp.Quotas[cc] = tracker.Target(cc)
			resp.Accepted[cc] = tracker.Accepted(cc)
		}
	}
	c.JSON(http.StatusOK, resp)
}

func resultsHandler(c *gin.Context) {
	runMu.Lock()
	buckets := lastBuckets
	if current != nil {
		buckets = current.Store().Buckets()
	}
	runMu.Unlock()

	if buckets == nil {
		buckets = map[string][]*scan.Result{}
	}
	c.JSON(http.StatusOK, gin.H{"results": buckets})
}
