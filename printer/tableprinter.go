package printer

import (
	"fmt"
	"sort"

	"github.com/fatih/color"
	"github.com/rodaine/table"

	"github.com/relayscan/relayscan/quota"
	"github.com/relayscan/relayscan/scan"
)

// ResultTablePrinter renders the accepted addresses of every country bucket
// as one table, fastest first within each country.
func ResultTablePrinter(buckets map[string][]*scan.Result) {
	tbl := New()

	countries := make([]string, 0, len(buckets))
	for cc := range buckets {
		countries = append(countries, cc)
	}
	sort.Strings(countries)

	for _, cc := range countries {
		for i, r := range buckets[cc] {
			country := cc
			if i > 0 {
				country = ""
			}
			tbl.AddRow(country, r.Addr, r.Port, fmt.Sprintf("%.2f ms", r.LatencyMS()))
		}
	}
	tbl.Print()
}

// StatsTablePrinter renders one row per country: fill state plus fastest and
// average latency of the bucket.
func StatsTablePrinter(buckets map[string][]*scan.Result, tracker *quota.Tracker) {
	headerFmt := color.New(color.FgGreen, color.Underline).SprintfFunc()
	columnFmt := color.New(color.FgYellow).SprintfFunc()

	tbl := table.New("Country", "Accepted", "Target", "Fastest", "Average")
	tbl.WithHeaderFormatter(headerFmt).WithFirstColumnFormatter(columnFmt)

	countries := tracker.Countries()
	sort.Strings(countries)
	for _, cc := range countries {
		bucket := buckets[cc]
		fastest, avg := "-", "-"
		if len(bucket) > 0 {
			var sum float64
			for _, r := range bucket {
				sum += r.LatencyMS()
			}
			fastest = fmt.Sprintf("%.2f ms", bucket[0].LatencyMS())
			avg = fmt.Sprintf("%.2f ms", sum/float64(len(bucket)))
		}
		tbl.AddRow(cc, tracker.Accepted(cc), tracker.Target(cc), fastest, avg)
	}
	tbl.Print()
}

func New() table.Table {
	headerFmt := color.New(color.FgGreen, color.Underline).SprintfFunc()
	columnFmt := color.New(color.FgYellow).SprintfFunc()

	tbl := table.New("Country", "IP", "Port", "Latency")
	tbl.WithHeaderFormatter(headerFmt).WithFirstColumnFormatter(columnFmt)

	return tbl
}
