// Package main provides a performance benchmarking tool for the perfhist CLI.
// It generates synthetic data directories of increasing size, then times each
// query command without a cache, on a cold SQLite cache and on a warm one,
// generating CSV output for performance analysis and documentation.
//
// Prerequisites:
// - perfhist binary installed and available in PATH
//
// Usage: go run benchmark/main.go [work-dir]
//
//	work-dir: Directory to generate data sets and cache files in
package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// BenchmarkResult holds the result of a benchmark run (no-cache average, cold run and average of warm runs).
type BenchmarkResult struct {
	DataSet     string
	Command     string
	NoCacheTime string
	ColdTime    string
	WarmTime    string
}

// BenchmarkConfig holds configuration for the benchmark run.
type BenchmarkConfig struct {
	WorkDir     string
	Timeout     time.Duration
	Workers     int
	NoCacheRuns int
	CacheRuns   int
	Crates      int
	DataSets    map[string]int // name -> days of history
	Order       []string
	Commands    [][]string
}

func main() {
	if len(os.Args) != 2 {
		fmt.Printf("Usage: %s [work-dir]\n", os.Args[0])
		os.Exit(1)
	}

	config := BenchmarkConfig{
		WorkDir:     os.Args[1],
		Timeout:     5 * time.Minute,
		Workers:     14,
		NoCacheRuns: 3,
		CacheRuns:   4,
		Crates:      40,
		DataSets:    map[string]int{"quarter": 91, "year": 365, "three-years": 3 * 365},
		Order:       []string{"quarter", "year", "three-years"},
		Commands: [][]string{
			{"info", "--output", "json"},
			{"runs", "--output", "json"},
			{"summary", "--output", "json"},
		},
	}

	if err := checkPrerequisites(config); err != nil {
		fmt.Printf("Prerequisites check failed: %v\n", err)
		os.Exit(1)
	}

	results := runBenchmarks(config)

	if err := saveResults(results); err != nil {
		fmt.Printf("Failed to save results: %v\n", err)
		os.Exit(1)
	}

	printSummary(config, results)
}

// checkPrerequisites verifies that the perfhist binary exists and the work dir is usable
func checkPrerequisites(config BenchmarkConfig) error {
	if _, err := exec.LookPath("perfhist"); err != nil {
		return fmt.Errorf("perfhist binary not found in PATH")
	}
	return os.MkdirAll(config.WorkDir, 0o755)
}

// generateDataSet writes one full-compiler and one benchmark document per day.
func generateDataSet(config BenchmarkConfig, name string, days int) (string, error) {
	dir := filepath.Join(config.WorkDir, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	start := time.Date(2020, 1, 1, 6, 0, 0, 0, time.UTC)
	for day := range days {
		date := start.AddDate(0, 0, day)
		for _, test := range []string{"rustc", "regex"} {
			doc := syntheticDocument(config.Crates, day, date)
			data, err := json.Marshal(doc)
			if err != nil {
				return "", err
			}
			path := filepath.Join(dir, fmt.Sprintf("%s--%s.json", test, date.Format("2006-01-02-15-04-05")))
			if err := os.WriteFile(path, data, 0o644); err != nil {
				return "", err
			}
		}
	}
	return dir, nil
}

// syntheticDocument renders a timing document with drifting crate totals.
func syntheticDocument(crates, day int, date time.Time) map[string]any {
	times := make([]any, 0, crates)
	for c := range crates {
		total := 10.0 + float64(c) + float64(day%30)/10
		times = append(times, map[string]any{
			"crate": fmt.Sprintf("crate%03d", c),
			"total": total,
			"times": map[string]any{
				"typeck":   map[string]any{"percent": 40.0, "time": total * 0.4},
				"codegen":  map[string]any{"percent": 35.0, "time": total * 0.35},
				"borrowck": map[string]any{"percent": 25.0, "time": total * 0.25},
			},
			"rss": map[string]any{"typeck": 1 << 28, "codegen": 1 << 29},
		})
	}
	return map[string]any{
		"header": map[string]any{
			"commit": fmt.Sprintf("%040d", day),
			"date":   date.Format("Mon Jan _2 15:04:05 2006 -0700"),
		},
		"times": times,
	}
}

// runBenchmarks executes all benchmark tests across configured data sets
func runBenchmarks(config BenchmarkConfig) []BenchmarkResult {
	var results []BenchmarkResult

	fmt.Printf("Starting benchmark: %d data sets, %v timeout, %d workers, no-cache: %d runs, cache: %d runs\n",
		len(config.Order), config.Timeout, config.Workers, config.NoCacheRuns, config.CacheRuns)

	for _, name := range config.Order {
		days := config.DataSets[name]
		fmt.Printf("Generating %s (%d days)\n", name, days)
		dataDir, err := generateDataSet(config, name, days)
		if err != nil {
			fmt.Printf("Warning: failed to generate %s: %v\n", name, err)
			continue
		}

		for _, command := range config.Commands {
			results = append(results, runBenchmarkSuite(config, name, dataDir, command))
		}
	}

	return results
}

// runBenchmarkSuite runs both no-cache and cache benchmarks for a command
func runBenchmarkSuite(config BenchmarkConfig, name, dataDir string, command []string) BenchmarkResult {
	fmt.Printf("Running %s on %s\n", command[0], name)
	cachePath := filepath.Join(config.WorkDir, name+"-cache.db")
	_ = os.Remove(cachePath)

	runPhase := func(cacheBackend string, numRuns int, phaseName string) (coldTime float64, avgTime string) {
		fmt.Printf("  %s phase (%d runs)\n", phaseName, numRuns)
		cold, times := runBenchmark(config, dataDir, command, cacheBackend, cachePath, numRuns)
		if len(times) == 0 {
			avgTime = "TIMEOUT"
		} else {
			var sum float64
			for _, t := range times {
				sum += t
			}
			avgTime = fmt.Sprintf("%.3fs", sum/float64(len(times)))
		}
		return cold, avgTime
	}

	// Phase 1: No-cache runs
	_, noCacheAvg := runPhase("none", config.NoCacheRuns, "No-cache")

	// Phase 2: Cache runs
	coldTime, warmAvg := runPhase("sqlite", config.CacheRuns, "Cache")

	coldTimeStr := "TIMEOUT"
	if coldTime > 0 {
		coldTimeStr = fmt.Sprintf("%.3fs", coldTime)
	}

	fmt.Printf("  No-cache average: %s, Cold time: %s, Warm average: %s\n", noCacheAvg, coldTimeStr, warmAvg)

	return BenchmarkResult{
		DataSet:     name,
		Command:     command[0],
		NoCacheTime: noCacheAvg,
		ColdTime:    coldTimeStr,
		WarmTime:    warmAvg,
	}
}

// runBenchmark executes a perfhist command multiple times with specified cache backend and returns cold time and warm times
func runBenchmark(config BenchmarkConfig, dataDir string, command []string, cacheBackend, cachePath string, numRuns int) (coldTime float64, warmTimes []float64) {
	args := append([]string{}, command[0], dataDir)
	args = append(args, command[1:]...)
	args = append(args, "--cache-backend", cacheBackend, "--workers", fmt.Sprint(config.Workers))
	if cacheBackend == "sqlite" {
		args = append(args, "--cache-db-connect", cachePath)
	}

	var times []float64
	for run := 1; run <= numRuns; run++ {
		start := time.Now()

		cmd := exec.Command("perfhist", args...)

		done := make(chan bool)
		var output []byte
		var cmdErr error

		go func() {
			output, cmdErr = cmd.Output()
			done <- true
		}()

		select {
		case <-done:
			if cmdErr == nil && isSuccess(output) {
				times = append(times, time.Since(start).Seconds())
			}
		case <-time.After(config.Timeout):
			_ = cmd.Process.Kill()
		}
	}

	if len(times) > 0 {
		coldTime = times[0]
		warmTimes = times[1:]
	}
	return
}

// isSuccess checks if command output is a complete JSON document
func isSuccess(output []byte) bool {
	return json.Valid(output) && len(strings.TrimSpace(string(output))) > 0
}

// saveResults writes benchmark results to a timestamped CSV file
func saveResults(results []BenchmarkResult) error {
	timestamp := time.Now().Format("20060102_150405")
	filename := fmt.Sprintf("/tmp/perfhist_benchmark_%s.csv", timestamp)

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			fmt.Printf("Warning: failed to close file %s: %v\n", filename, closeErr)
		}
	}()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write([]string{"data_set", "cmd", "no_cache_avg", "cold_time", "warm_avg"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, result := range results {
		if err := writer.Write([]string{result.DataSet, result.Command, result.NoCacheTime, result.ColdTime, result.WarmTime}); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	fmt.Printf("Results saved to %s\n", filename)
	return nil
}

// printSummary displays the final benchmark results summary
func printSummary(config BenchmarkConfig, results []BenchmarkResult) {
	fmt.Printf("Benchmark complete\n")
	for _, command := range config.Commands {
		fmt.Printf("%s:\n", command[0])
		for _, result := range results {
			if result.Command == command[0] {
				fmt.Printf("  %-12s: No-cache: %s, Cold: %s, Warm: %s\n", result.DataSet, result.NoCacheTime, result.ColdTime, result.WarmTime)
			}
		}
	}
	fmt.Printf("Benchmark script completed successfully\n")
}
