package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"slices"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"golang.org/x/sync/errgroup"
)

// CLI flags
var (
	apiURL      = flag.String("api-url", "http://localhost:8080", "Dicepool API base URL")
	userID      = flag.String("user", "benchmark", "User ID to log in as")
	requests    = flag.Int("requests", 200, "Requests per pool size")
	concurrency = flag.Int("concurrency", 16, "Concurrent requests in flight")
	sizes       = flag.String("dice", "5,10,25,50,100", "Comma-separated pool sizes to benchmark")
	output      = flag.String("output", "benchmark-results.json", "JSON output file path")
)

// --- Request / Response types (mirrors models package) ---

type rollRequest struct {
	NumDice int `json:"num_dadi"`
}

type diceResponse struct {
	Results      []int   `json:"risultati"`
	Raises       int     `json:"raises"`
	Combinations [][]int `json:"combinazioni"`
}

// --- Benchmark result types ---

type sample struct {
	LatencyMs  float64 `json:"latency_ms"`
	StatusCode int     `json:"status_code"`
	Raises     int     `json:"raises"`
	Error      string  `json:"error,omitempty"`
}

type sizeSummary struct {
	AvgMs     float64 `json:"avg_ms"`
	P50Ms     float64 `json:"p50_ms"`
	P95Ms     float64 `json:"p95_ms"`
	MaxMs     float64 `json:"max_ms"`
	AvgRaises float64 `json:"avg_raises"`
	Failures  int     `json:"failures"`
	Limited   int     `json:"rate_limited"`
}

type sizeResult struct {
	NumDice int          `json:"num_dice"`
	Elapsed float64      `json:"elapsed_ms"`
	Samples []sample     `json:"samples"`
	Summary *sizeSummary `json:"summary,omitempty"`
}

type benchmarkReport struct {
	Timestamp   string       `json:"timestamp"`
	APIURL      string       `json:"api_url"`
	Requests    int          `json:"requests_per_size"`
	Concurrency int          `json:"concurrency"`
	Results     []sizeResult `json:"results"`
}

func main() {
	flag.Parse()

	poolSizes, err := parseSizes(*sizes)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("=== Dicepool Benchmark ===")
	fmt.Printf("API URL:     %s\n", *apiURL)
	fmt.Printf("Requests:    %d per size\n", *requests)
	fmt.Printf("Concurrency: %d\n", *concurrency)
	fmt.Printf("Output:      %s\n", *output)
	fmt.Println()

	client := &http.Client{Timeout: 30 * time.Second}
	base := strings.TrimRight(*apiURL, "/")

	if err := checkAPI(client, base); err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot reach API at %s: %v\n", base, err)
		fmt.Fprintf(os.Stderr, "Make sure dicepool is running (e.g. go run ./cmd/dicepool)\n")
		os.Exit(1)
	}

	token, err := login(client, base, *userID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: login failed: %v\n", err)
		os.Exit(1)
	}

	report := benchmarkReport{
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
		APIURL:      base,
		Requests:    *requests,
		Concurrency: *concurrency,
	}

	for _, n := range poolSizes {
		fmt.Printf("Rolling %d dice x %d ... ", n, *requests)
		sr := benchmarkSize(context.Background(), client, base, token, n)
		fmt.Printf("done in %.0fms\n", sr.Elapsed)
		report.Results = append(report.Results, sr)
	}
	fmt.Println()

	printTable(report.Results)

	if err := writeJSON(*output, report); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing JSON output: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("\nDetailed results written to %s\n", *output)
}

func parseSizes(s string) ([]int, error) {
	var out []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil || n < 1 || n > 100 {
			return nil, fmt.Errorf("invalid pool size %q (want 1-100)", part)
		}
		out = append(out, n)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no pool sizes given")
	}
	return out, nil
}

func checkAPI(client *http.Client, base string) error {
	resp, err := client.Get(base + "/health")
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

func login(client *http.Client, base, user string) (string, error) {
	body, _ := json.Marshal(map[string]string{"user_id": user})
	resp, err := client.Post(base+"/login", "application/json", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	return strings.TrimSpace(string(raw)), nil
}

// benchmarkSize fires the configured number of /roll requests for one pool
// size, at most concurrency at a time. Request failures are recorded as
// samples rather than aborting the run.
func benchmarkSize(ctx context.Context, client *http.Client, base, token string, n int) sizeResult {
	samples := make([]sample, *requests)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(*concurrency, 1))

	start := time.Now()
	for i := range samples {
		g.Go(func() error {
			samples[i] = roll(ctx, client, base, token, n)
			return nil
		})
	}
	_ = g.Wait()

	sr := sizeResult{
		NumDice: n,
		Elapsed: float64(time.Since(start).Microseconds()) / 1000,
		Samples: samples,
	}
	sr.Summary = summarize(samples)
	return sr
}

func roll(ctx context.Context, client *http.Client, base, token string, n int) sample {
	var s sample

	body, err := json.Marshal(rollRequest{NumDice: n})
	if err != nil {
		s.Error = fmt.Sprintf("marshal error: %v", err)
		return s
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+"/roll", bytes.NewReader(body))
	if err != nil {
		s.Error = fmt.Sprintf("request error: %v", err)
		return s
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		s.Error = fmt.Sprintf("request failed: %v", err)
		return s
	}
	defer resp.Body.Close()

	var dr diceResponse
	decodeErr := json.NewDecoder(resp.Body).Decode(&dr)
	s.LatencyMs = float64(time.Since(start).Microseconds()) / 1000
	s.StatusCode = resp.StatusCode

	switch {
	case resp.StatusCode != http.StatusOK:
		s.Error = fmt.Sprintf("status %d", resp.StatusCode)
	case decodeErr != nil:
		s.Error = fmt.Sprintf("decode error: %v", decodeErr)
	default:
		s.Raises = dr.Raises
	}
	return s
}

func summarize(samples []sample) *sizeSummary {
	var sum sizeSummary
	var latencies []float64
	raises := 0

	for _, s := range samples {
		if s.Error != "" {
			sum.Failures++
			if s.StatusCode == http.StatusTooManyRequests {
				sum.Limited++
			}
			continue
		}
		latencies = append(latencies, s.LatencyMs)
		raises += s.Raises
	}

	if len(latencies) == 0 {
		return &sum
	}

	slices.Sort(latencies)
	total := 0.0
	for _, l := range latencies {
		total += l
	}
	n := float64(len(latencies))
	sum.AvgMs = total / n
	sum.P50Ms = percentile(latencies, 0.50)
	sum.P95Ms = percentile(latencies, 0.95)
	sum.MaxMs = latencies[len(latencies)-1]
	sum.AvgRaises = float64(raises) / n
	return &sum
}

// percentile reads the nearest-rank percentile from sorted values.
func percentile(sorted []float64, p float64) float64 {
	idx := int(p*float64(len(sorted))+0.5) - 1
	idx = min(max(idx, 0), len(sorted)-1)
	return sorted[idx]
}

func printTable(results []sizeResult) {
	fmt.Println(strings.Repeat("─", 85))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Dice\tAvg\tP50\tP95\tMax\tAvg Raises\tFailed\n")
	fmt.Fprintf(w, "────\t───\t───\t───\t───\t──────────\t──────\n")

	for _, r := range results {
		s := r.Summary
		if s == nil || s.Failures == len(r.Samples) {
			fmt.Fprintf(w, "%d\tFAILED\t-\t-\t-\t-\t%d\n", r.NumDice, len(r.Samples))
			continue
		}
		failed := strconv.Itoa(s.Failures)
		if s.Limited > 0 {
			failed = fmt.Sprintf("%d (%d rate limited)", s.Failures, s.Limited)
		}
		fmt.Fprintf(w, "%d\t%.2fms\t%.2fms\t%.2fms\t%.2fms\t%.2f\t%s\n",
			r.NumDice, s.AvgMs, s.P50Ms, s.P95Ms, s.MaxMs, s.AvgRaises, failed)
	}

	w.Flush()
	fmt.Println(strings.Repeat("─", 85))
}

func writeJSON(path string, report benchmarkReport) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
