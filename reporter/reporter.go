// Package reporter renders finished scans into per-country result files, the
// run summary, and merged views over previous batch outputs.
package reporter

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/relayscan/relayscan/scan"
)

// Reporter writes one run's buckets to an output directory.
type Reporter struct {
	buckets map[string][]*scan.Result
	summary *scan.Summary
}

func New(buckets map[string][]*scan.Result, summary *scan.Summary) *Reporter {
	return &Reporter{buckets: buckets, summary: summary}
}

// FormatLine renders a result the way the downstream tunnel configs expect:
// address:port#CC latency.
func FormatLine(r *scan.Result) string {
	return fmt.Sprintf("%s:%d#%s %.2fms", r.Addr, r.Port, r.Country, r.LatencyMS())
}

var lineRe = regexp.MustCompile(`^([0-9a-fA-F.:\[\]]+):(\d+)#([A-Z]{2})\s+([\d.]+)ms$`)

// ParseLine is the inverse of FormatLine, used when merging batch outputs.
func ParseLine(line string) (*scan.Result, error) {
	m := lineRe.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return nil, fmt.Errorf("unparsable result line: %q", line)
	}
	port, err := strconv.Atoi(m[2])
	if err != nil || port < 1 || port > 65535 {
		return nil, fmt.Errorf("bad port in result line: %q", line)
	}
	ms, err := strconv.ParseFloat(m[4], 64)
	if err != nil {
		return nil, fmt.Errorf("bad latency in result line: %q", line)
	}
	return &scan.Result{
		Addr:    strings.Trim(m[1], "[]"),
		Port:    port,
		Country: m[3],
		Latency: time.Duration(ms * float64(time.Millisecond)),
	}, nil
}

// Save writes <CC>_ips.txt per country plus summary.txt into dir.
func (r *Reporter) Save(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for _, cc := range sortedCountries(r.buckets) {
		bucket := r.buckets[cc]
		if len(bucket) == 0 {
			continue
		}
		var b strings.Builder
		for _, res := range bucket {
			b.WriteString(FormatLine(res))
			b.WriteByte('\n')
		}
		path := filepath.Join(dir, cc+"_ips.txt")
		if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
			return err
		}
	}
	return r.saveSummary(filepath.Join(dir, "summary.txt"))
}

func (r *Reporter) saveSummary(path string) error {
	var b strings.Builder
	b.WriteString("# relayscan summary\n")
	b.WriteString("# generated: " + time.Now().Format(time.RFC3339) + "\n\n")

	total := 0
	for _, cc := range sortedCountries(r.buckets) {
		bucket := r.buckets[cc]
		if len(bucket) == 0 {
			continue
		}
		total += len(bucket)
		fmt.Fprintf(&b, "%s: %d addresses, average latency %.1fms\n",
			cc, len(bucket), avgLatencyMS(bucket))
	}
	fmt.Fprintf(&b, "\ntotal: %d addresses\n", total)

	if s := r.summary; s != nil {
		fmt.Fprintf(&b, "scanned: %d, failed: %d, rejected: %d, unknown: %d\n",
			s.Scanned, s.Failed, s.Rejected, s.Unknown)
		fmt.Fprintf(&b, "stop reason: %s, elapsed: %s\n", s.Reason, s.Elapsed.Round(time.Millisecond))
	}
	return os.WriteFile(path, []byte(b.String()), 0o644)
}

func avgLatencyMS(bucket []*scan.Result) float64 {
	if len(bucket) == 0 {
		return 0
	}
	var sum float64
	for _, r := range bucket {
		sum += r.LatencyMS()
	}
	return sum / float64(len(bucket))
}

func sortedCountries(buckets map[string][]*scan.Result) []string {
	out := make([]string, 0, len(buckets))
	for cc := range buckets {
		out = append(out, cc)
	}
	sort.Strings(out)
	return out
}
