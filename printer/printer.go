package printer

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/relayscan/relayscan/quota"
	"github.com/relayscan/relayscan/scan"
)

// AppVersion is reported by the CLI banner and the API status endpoint.
const AppVersion = "v1.2.0"

func Version() {
	fmt.Fprintf(color.Output, "%s %s\n",
		color.New(color.FgWhite, color.Bold).Sprintf("relayscan"),
		color.New(color.FgGreen).Sprintf(AppVersion),
	)
}

// PrintScanNav echoes the effective run configuration before probing starts.
func PrintScanNav(cfg scan.Config, dataOrigin string) {
	fmt.Println("IP Geo Data Provider: " + dataOrigin)
	ports := make([]string, len(cfg.Ports))
	for i, p := range cfg.Ports {
		ports[i] = fmt.Sprint(p)
	}
	fmt.Printf("probing for %s, %d per country, ports %s, %d parallel, %s timeout\n",
		strings.Join(cfg.Countries, " "), cfg.DefaultCount,
		strings.Join(ports, ","), cfg.MaxConcurrent, cfg.Timeout)
	if cfg.MaxScan > 0 {
		fmt.Printf("scan capped at %d candidates\n", cfg.MaxScan)
	}
}

// PrintCountryStats renders the per-country fill state after the run, the
// satisfied countries marked green.
func PrintCountryStats(tracker *quota.Tracker) {
	countries := tracker.Countries()
	sort.Strings(countries)
	fmt.Println("country quotas:")
	for _, cc := range countries {
		mark := " "
		line := fmt.Sprintf("%s: %d/%d", cc, tracker.Accepted(cc), tracker.Target(cc))
		if tracker.Satisfied(cc) {
			mark = color.New(color.FgGreen, color.Bold).Sprint("✓")
			line = color.New(color.FgGreen).Sprint(line)
		}
		fmt.Fprintf(color.Output, "  %s %s\n", mark, line)
	}
}

// PrintSummary renders the final run counters.
func PrintSummary(s *scan.Summary) {
	fmt.Fprintf(color.Output, "%s scanned %d, accepted %s, failed %d, rejected %d, unknown %d\n",
		color.New(color.FgWhite, color.Bold).Sprintf("[done]"),
		s.Scanned,
		color.New(color.FgGreen, color.Bold).Sprintf("%d", s.Accepted),
		s.Failed, s.Rejected, s.Unknown,
	)
	if s.TooSlow > 0 {
		fmt.Printf("discarded %d reachable addresses over the latency cap\n", s.TooSlow)
	}
	fmt.Printf("stop reason: %s, elapsed %s\n", s.Reason, s.Elapsed.Round(10*time.Millisecond))
}
