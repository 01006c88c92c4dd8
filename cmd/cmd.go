package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/akamensky/argparse"

	"github.com/relayscan/relayscan/candidate"
	"github.com/relayscan/relayscan/config"
	"github.com/relayscan/relayscan/ipgeo"
	"github.com/relayscan/relayscan/printer"
	"github.com/relayscan/relayscan/reporter"
	"github.com/relayscan/relayscan/scan"
	"github.com/relayscan/relayscan/server"
)

func Execute() {
	parser := argparse.NewParser("relayscan", "Concurrent relay IP prober with per-country latency ranking")
	countries := parser.String("c", "countries", &argparse.Options{Help: "Comma separated ISO country codes to collect, e.g. US,JP,SG"})
	count := parser.Int("n", "num", &argparse.Options{Help: "How many addresses to keep per country"})
	perCountry := parser.String("", "per-country", &argparse.Options{Help: "Per-country quota overrides, e.g. US=10,JP=3"})
	minCountries := parser.Int("", "min-countries", &argparse.Options{Help: "Stop once this many countries are satisfied (0 = all)"})
	ports := parser.String("p", "ports", &argparse.Options{Help: "Comma separated TCP ports to probe (first reachable wins)"})
	allPorts := parser.Flag("A", "all-ports", &argparse.Options{Help: "Require every configured port to connect instead of the first"})
	parallel := parser.Int("", "parallel-requests", &argparse.Options{Help: "Set the number of concurrent probes"})
	timeout := parser.Int("", "timeout", &argparse.Options{Help: "The number of [milliseconds] to wait for each TCP connect"})
	maxScan := parser.Int("m", "max-scan", &argparse.Options{Help: "Probe at most this many candidates (0 = unbounded)"})
	maxLatency := parser.Int("", "max-latency", &argparse.Options{Help: "Discard reachable addresses slower than this many [milliseconds]"})
	dataOrigin := parser.Selector("d", "data-provider", []string{"IP-API.com", "ip-api.com", "IP.SB", "ip.sb", "IPInfo", "ipinfo", "MMDB", "mmdb"}, &argparse.Options{
		Help: "Choose IP Geograph Data Provider [IP-API.com, IP.SB, IPInfo, MMDB]"})
	file := parser.String("f", "file", &argparse.Options{Help: "Read candidate IPs and CIDRs from file instead of the remote feeds"})
	perCIDR := parser.Int("", "per-cidr", &argparse.Options{Default: 256, Help: "Expand at most this many addresses per CIDR block"})
	output := parser.String("o", "output", &argparse.Options{Help: "Directory for the per-country result files"})
	noSave := parser.Flag("", "no-save", &argparse.Options{Help: "Do not write result files"})
	tablePrint := parser.Flag("t", "table", &argparse.Options{Help: "Output accepted addresses as table"})
	jsonPrint := parser.Flag("j", "json", &argparse.Options{Help: "Output run summary as JSON"})
	verbose := parser.Flag("", "verbose", &argparse.Options{Help: "Print every accepted address as it is found"})
	merge := parser.Flag("M", "merge", &argparse.Options{Help: "Merge earlier batch result directories and exit"})
	srvMode := parser.Flag("S", "server", &argparse.Options{Help: "Run as an HTTP API server"})
	listen := parser.String("l", "listen", &argparse.Options{Help: "Server listen address (default :8080)"})
	genConfig := parser.Flag("", "generate-config", &argparse.Options{Help: "Write the default config file to the user config directory and exit"})
	ver := parser.Flag("v", "version", &argparse.Options{Help: "Print version info and exit"})
	str := parser.StringPositional(&argparse.Options{Help: "Inline candidates: comma separated IPs or CIDRs"})

	err := parser.Parse(os.Args)
	if err != nil {
		fmt.Print(parser.Usage(err))
		return
	}
	if !*jsonPrint {
		printer.Version()
	}
	if *ver {
		os.Exit(0)
	}

	config.InitConfig()
	defaults, err := config.Read()
	if err != nil {
		log.Fatalln("read config:", err)
	}

	if *genConfig {
		if err := config.Generate(); err != nil {
			log.Fatalln("generate config:", err)
		}
		os.Exit(0)
	}

	if *srvMode {
		if err := server.Run(*listen); err != nil {
			log.Fatalln(err)
		}
		return
	}

	outputDir := defaults.OutputDir
	if *output != "" {
		outputDir = *output
	}

	if *merge {
		buckets, err := reporter.Merge(outputDir, filepath.Join(outputDir, "merged"))
		if err != nil {
			log.Fatalln("merge:", err)
		}
		printer.ResultTablePrinter(buckets)
		fmt.Println("merged results written to", filepath.Join(outputDir, "merged"))
		return
	}

	cfg := scan.Config{
		Countries:     defaults.Countries,
		DefaultCount:  defaults.CountPerNation,
		MinCountries:  *minCountries,
		Ports:         defaults.Ports,
		MaxConcurrent: defaults.MaxConcurrent,
		Timeout:       time.Duration(defaults.TimeoutMS) * time.Millisecond,
		MaxScan:       *maxScan,
		AllPorts:      *allPorts,
	}
	if *countries != "" {
		cfg.Countries = splitUpper(*countries)
	}
	if *count > 0 {
		cfg.DefaultCount = *count
	}
	if *perCountry != "" {
		quotas, err := splitQuotas(*perCountry)
		if err != nil {
			log.Fatalln("per-country:", err)
		}
		cfg.CountPerCountry = quotas
	}
	if *ports != "" {
		p, err := splitInts(*ports)
		if err != nil {
			log.Fatalln("ports:", err)
		}
		cfg.Ports = p
	}
	if *parallel > 0 {
		cfg.MaxConcurrent = *parallel
	}
	if *timeout > 0 {
		cfg.Timeout = time.Duration(*timeout) * time.Millisecond
	}
	if *maxLatency > 0 {
		cfg.MaxLatency = time.Duration(*maxLatency) * time.Millisecond
	}

	source, err := buildSource(*file, *str, *perCIDR)
	if err != nil {
		log.Fatalln(err)
	}

	provider := defaults.DataOrigin
	if *dataOrigin != "" {
		provider = *dataOrigin
	}
	resolver := ipgeo.Cached(ipgeo.GetSource(provider))

	sched, err := scan.New(cfg, source, nil, resolver)
	if err != nil {
		log.Fatalln(err)
	}

	var progress *printer.ProgressPrinter
	if !*jsonPrint {
		printer.PrintScanNav(cfg, provider)
		progress = printer.NewProgress(0, *verbose)
		sched.OnProgress(progress.Update)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary, err := sched.Run(ctx)
	if progress != nil {
		progress.Done()
	}
	if err != nil {
		log.Fatalln(err)
	}

	buckets := sched.Store().Buckets()

	switch {
	case *jsonPrint:
		printJSON(buckets, summary)
	case *tablePrint:
		printer.ResultTablePrinter(buckets)
		printer.StatsTablePrinter(buckets, sched.Quota())
		printer.PrintSummary(summary)
	default:
		printer.PrintCountryStats(sched.Quota())
		printer.PrintSummary(summary)
	}

	if !*noSave {
		batchDir := filepath.Join(outputDir, "scan_batch_"+time.Now().Format("20060102_150405"))
		if err := reporter.New(buckets, summary).Save(batchDir); err != nil {
			log.Fatalln("save results:", err)
		}
		if !*jsonPrint {
			fmt.Println("results written to", batchDir)
		}
	}
}

func buildSource(file, inline string, perCIDR int) (candidate.Source, error) {
	if file != "" {
		src, err := candidate.NewFile(file, perCIDR)
		if err != nil {
			return nil, fmt.Errorf("candidate file: %w", err)
		}
		return src, nil
	}
	if inline != "" {
		entries := strings.Split(inline, ",")
		return candidate.NewStatic(entries, perCIDR), nil
	}
	return candidate.NewRemote(candidate.DefaultFeeds()), nil
}

func printJSON(buckets map[string][]*scan.Result, summary *scan.Summary) {
	out := struct {
		Results map[string][]*scan.Result `json:"results"`
		Summary *scan.Summary             `json:"summary"`
	}{buckets, summary}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		log.Fatalln(err)
	}
}

func splitUpper(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToUpper(strings.TrimSpace(p))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// splitQuotas parses "US=10,JP=3" style per-country quota overrides.
func splitQuotas(s string) (map[string]int, error) {
	out := make(map[string]int)
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		cc, num, ok := strings.Cut(part, "=")
		if !ok {
			return nil, fmt.Errorf("expected CC=N, got %q", part)
		}
		n, err := strconv.Atoi(strings.TrimSpace(num))
		if err != nil {
			return nil, fmt.Errorf("quota for %s: %w", cc, err)
		}
		out[strings.ToUpper(strings.TrimSpace(cc))] = n
	}
	return out, nil
}

func splitInts(s string) ([]int, error) {
	parts := strings.Split(s, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("not a number: %q", p)
		}
		out = append(out, n)
	}
	return out, nil
}
