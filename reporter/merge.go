package reporter

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/relayscan/relayscan/scan"
)

// Merge combines the per-country files of every batch directory under
// baseDir (directories matching *_batch_*) into outDir. Duplicate addresses
// across batches keep the lowest-latency measurement. It returns the merged
// buckets.
func Merge(baseDir, outDir string) (map[string][]*scan.Result, error) {
	batchDirs, err := findBatchDirs(baseDir)
	if err != nil {
		return nil, err
	}
	if len(batchDirs) == 0 {
		return nil, fmt.Errorf("no batch result directories under %s", baseDir)
	}

	best := make(map[string]*scan.Result) // addr:port -> fastest measurement
	for _, dir := range batchDirs {
		files, err := filepath.Glob(filepath.Join(dir, "*_ips.txt"))
		if err != nil {
			return nil, err
		}
		for _, file := range files {
			if err := mergeFile(file, best); err != nil {
				return nil, err
			}
		}
	}

	buckets := make(map[string][]*scan.Result)
	for _, r := range best {
		buckets[r.Country] = append(buckets[r.Country], r)
	}
	for cc := range buckets {
		bucket := buckets[cc]
		sort.SliceStable(bucket, func(i, j int) bool {
			return bucket[i].Latency < bucket[j].Latency
		})
		buckets[cc] = bucket
	}

	if err := New(buckets, nil).Save(outDir); err != nil {
		return nil, err
	}
	return buckets, nil
}

func findBatchDirs(baseDir string) ([]string, error) {
	entries, err := os.ReadDir(baseDir)
	if err != nil {
		return nil, err
	}
	var dirs []string
	for _, e := range entries {
		if e.IsDir() && strings.Contains(e.Name(), "_batch_") {
			dirs = append(dirs, filepath.Join(baseDir, e.Name()))
		}
	}
	sort.Strings(dirs)
	return dirs, nil
}

func mergeFile(path string, best map[string]*scan.Result) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		r, err := ParseLine(line)
		if err != nil {
			continue // tolerate foreign lines in hand-edited files
		}
		key := fmt.Sprintf("%s:%d", r.Addr, r.Port)
		if cur, ok := best[key]; !ok || r.Latency < cur.Latency {
			best[key] = r
		}
	}
	return sc.Err()
}
