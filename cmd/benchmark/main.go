package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// Config holds the benchmark settings
var (
	targetURL   string
	concurrency int
	submits     int
	approvals   int
	redeems     int
	targetID    string
)

// Metrics
var (
	totalRequests uint64
	success200    uint64
	rejected4xx   uint64
	failOther     uint64
)

type recordState struct {
	PendingCount int `json:"pending_count"`
	Credits      int `json:"credits"`
	UsedCount    int `json:"used_count"`
}

func init() {
	flag.StringVar(&targetURL, "url", "http://localhost:8000", "API Base URL")
	flag.IntVar(&concurrency, "workers", 10, "Number of concurrent workers")
	flag.IntVar(&submits, "submits", 200, "Payment submissions to fire at the id")
	flag.IntVar(&approvals, "approvals", 50, "Approvals to grant after submitting")
	flag.IntVar(&redeems, "redeems", 80, "Redemption attempts after approving")
	flag.StringVar(&targetID, "id", "", "Catalog id to hammer (required)")
}

func main() {
	flag.Parse()
	if targetID == "" {
		log.Fatal("-id is required")
	}
	log.Printf("Starting Benchmark: id=%s | Workers: %d | submits=%d approvals=%d redeems=%d",
		targetID, concurrency, submits, approvals, redeems)

	client := &http.Client{Timeout: 5 * time.Second}
	before, err := fetchState(client)
	if err != nil {
		log.Fatalf("status check failed: %v", err)
	}

	start := time.Now()
	run(client, submits, "/api/submit-payment", map[string]string{"id": targetID, "name": "benchmark"})
	approved := run(client, approvals, "/api/admin/approve", map[string]string{"id": targetID})
	redeemed := run(client, redeems, "/api/lookup", map[string]string{"id": targetID})
	elapsed := time.Since(start)

	after, err := fetchState(client)
	if err != nil {
		log.Fatalf("status check failed: %v", err)
	}

	wantPending := before.PendingCount + submits - int(approved)
	wantRedeemed := min(before.Credits+int(approved), redeems)
	consistent := after.PendingCount == wantPending &&
		int(redeemed) == wantRedeemed &&
		after.UsedCount == before.UsedCount+int(redeemed) &&
		after.Credits == before.Credits+int(approved)-int(redeemed)

	printResults(elapsed, before, after, approved, redeemed, consistent)
	if !consistent {
		os.Exit(1)
	}
}

// run fires n POSTs at path from the worker pool and returns how many got 200.
func run(client *http.Client, n int, path string, payload map[string]string) uint64 {
	body, _ := json.Marshal(payload)
	jobs := make(chan struct{}, n)
	for i := 0; i < n; i++ {
		jobs <- struct{}{}
	}
	close(jobs)

	var ok uint64
	var wg sync.WaitGroup
	wg.Add(concurrency)
	for i := 0; i < concurrency; i++ {
		go func() {
			defer wg.Done()
			for range jobs {
				req, _ := http.NewRequest("POST", targetURL+path, bytes.NewBuffer(body))
				req.Header.Set("Content-Type", "application/json")

				resp, err := client.Do(req)
				if err != nil {
					atomic.AddUint64(&failOther, 1)
					continue
				}
				atomic.AddUint64(&totalRequests, 1)
				switch {
				case resp.StatusCode == http.StatusOK:
					atomic.AddUint64(&success200, 1)
					atomic.AddUint64(&ok, 1)
				case resp.StatusCode >= 400 && resp.StatusCode < 500:
					atomic.AddUint64(&rejected4xx, 1)
				default:
					atomic.AddUint64(&failOther, 1)
				}
				resp.Body.Close()
			}
		}()
	}
	wg.Wait()
	return atomic.LoadUint64(&ok)
}

func fetchState(client *http.Client) (recordState, error) {
	resp, err := client.Get(targetURL + "/api/status?id=" + url.QueryEscape(targetID))
	if err != nil {
		return recordState{}, err
	}
	defer resp.Body.Close()

	var out struct {
		Record *recordState `json:"record"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return recordState{}, fmt.Errorf("decode status: %w", err)
	}
	if out.Record == nil {
		return recordState{}, nil
	}
	return *out.Record, nil
}

func printResults(d time.Duration, before, after recordState, approved, redeemed uint64, consistent bool) {
	total := atomic.LoadUint64(&totalRequests)

	results := map[string]interface{}{
		"id":             targetID,
		"duration_sec":   d.Seconds(),
		"total_requests": total,
		"throughput_rps": float64(total) / d.Seconds(),
		"success":        atomic.LoadUint64(&success200),
		"rejected":       atomic.LoadUint64(&rejected4xx),
		"errors":         atomic.LoadUint64(&failOther),
		"approved":       approved,
		"redeemed":       redeemed,
		"before":         before,
		"after":          after,
		"consistent":     consistent,
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.Encode(results)

	// Also save to file
	file, err := os.Create("results_contention.json")
	if err != nil {
		log.Printf("unable to save results: %v", err)
		return
	}
	defer file.Close()
	json.NewEncoder(file).Encode(results)
}
