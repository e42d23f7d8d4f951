package main

import (
	"bytes"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	json "github.com/goccy/go-json"
)

const (
	baseURL      = "http://127.0.0.1:18090"
	numWorkers   = 50
	testDuration = 10 * time.Second
	numUsers     = 200
	numPresets   = 20
)

var zones = []string{"UTC", "Europe/Berlin", "America/New_York", "Asia/Tokyo", "Australia/Sydney"}

var httpClient = &http.Client{
	Timeout: 5 * time.Second,
	Transport: &http.Transport{
		MaxIdleConns:        200,
		MaxIdleConnsPerHost: 200,
		IdleConnTimeout:     30 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   2 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	},
}

type result struct {
	endpoint string
	status   int
	latency  time.Duration
	err      bool
}

type stats struct {
	count     int64
	errors    int64
	latencies []time.Duration
}

func userID(n int) string {
	return fmt.Sprintf("1000000000000%05d", n)
}

func main() {
	fmt.Println("=== Timekeeper Load Test ===")
	fmt.Printf("Workers: %d | Duration: %s | Users: %d\n\n", numWorkers, testDuration, numUsers)

	fmt.Print("Waiting for server... ")
	for i := 0; i < 30; i++ {
		resp, err := httpClient.Get(baseURL + "/health")
		if err == nil {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			break
		}
		if i == 29 {
			fmt.Println("FAILED: server not responding")
			return
		}
		time.Sleep(200 * time.Millisecond)
	}
	fmt.Println("OK")

	fmt.Println("\n--- Phase 0: Preparing users (timezone + premium) ---")
	for i := 0; i < numUsers; i++ {
		tz := zones[i%len(zones)]
		post(fmt.Sprintf("/timezone?user=%s", userID(i)), map[string]string{"timezone": tz}, http.StatusOK)
		post(fmt.Sprintf("/premium?user=%s", userID(i)), map[string]bool{"admin": true}, http.StatusOK)
	}

	fmt.Println("\n--- Phase 1: Seeding events and presets (POST /import, /presets) ---")
	runPhase(testDuration, func(rng *rand.Rand) result {
		if rng.Float64() < 0.8 {
			return doImport(rng)
		}
		return doInsertPreset(rng)
	})

	fmt.Println("\n--- Phase 2: Mixed load (30% write, 70% read) ---")
	runPhase(testDuration, func(rng *rand.Rand) result {
		r := rng.Float64()
		switch {
		case r < 0.20:
			return doImport(rng)
		case r < 0.30:
			return doConvert(rng)
		case r < 0.55:
			return doListEvents(rng)
		case r < 0.70:
			return doGetPresets(rng)
		case r < 0.85:
			return doExport(rng)
		default:
			return doGet("/admin/stats", "GET /admin/stats")
		}
	})
}

func runPhase(duration time.Duration, workFn func(rng *rand.Rand) result) {
	results := make(chan result, 10000)
	var wg sync.WaitGroup
	var totalOps atomic.Int64
	stop := make(chan struct{})

	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed))
			for {
				select {
				case <-stop:
					return
				default:
					r := workFn(rng)
					totalOps.Add(1)
					results <- r
				}
			}
		}(rand.Int63() + int64(i))
	}

	allResults := make(map[string]*stats)
	done := make(chan struct{})
	go func() {
		for r := range results {
			s, ok := allResults[r.endpoint]
			if !ok {
				s = &stats{}
				allResults[r.endpoint] = s
			}
			s.count++
			if r.err {
				s.errors++
			}
			s.latencies = append(s.latencies, r.latency)
		}
		close(done)
	}()

	time.Sleep(duration)
	close(stop)
	wg.Wait()
	close(results)
	<-done

	printResults(allResults, duration)
}

func printResults(allResults map[string]*stats, duration time.Duration) {
	var totalOps int64
	var totalErrors int64

	endpoints := make([]string, 0, len(allResults))
	for ep := range allResults {
		endpoints = append(endpoints, ep)
	}
	sort.Strings(endpoints)

	fmt.Printf("\n  %-22s %8s %6s %10s %10s %10s %10s\n",
		"Endpoint", "Reqs", "Errs", "Avg", "P50", "P95", "P99")
	fmt.Println("  " + strings.Repeat("-", 88))

	for _, ep := range endpoints {
		s := allResults[ep]
		totalOps += s.count
		totalErrors += s.errors

		sort.Slice(s.latencies, func(i, j int) bool {
			return s.latencies[i] < s.latencies[j]
		})

		fmt.Printf("  %-22s %8d %6d %10s %10s %10s %10s\n",
			ep, s.count, s.errors,
			fmtDur(avgDuration(s.latencies)),
			fmtDur(percentile(s.latencies, 0.50)),
			fmtDur(percentile(s.latencies, 0.95)),
			fmtDur(percentile(s.latencies, 0.99)))
	}

	rps := float64(totalOps) / duration.Seconds()
	fmt.Println("  " + strings.Repeat("-", 88))
	fmt.Printf("  Total: %d reqs | Errors: %d (%.1f%%) | RPS: %.0f\n",
		totalOps, totalErrors, float64(totalErrors)/float64(totalOps)*100, rps)
}

// post fires a setup request and reports a mismatched status.
func post(path string, body any, want int) {
	data, _ := json.Marshal(body)
	resp, err := httpClient.Post(baseURL+path, "application/json", bytes.NewReader(data))
	if err != nil {
		fmt.Printf("  %s: %s\n", path, err)
		return
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	if resp.StatusCode != want {
		fmt.Printf("  %s: status %d\n", path, resp.StatusCode)
	}
}

func timed(endpoint string, req func() (*http.Response, error), ok ...int) result {
	start := time.Now()
	resp, err := req()
	lat := time.Since(start)
	if err != nil {
		return result{endpoint, 0, lat, true}
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	failed := true
	for _, code := range ok {
		if resp.StatusCode == code {
			failed = false
		}
	}
	return result{endpoint, resp.StatusCode, lat, failed}
}

func doImport(rng *rand.Rand) result {
	user := userID(rng.Intn(numUsers))
	end := time.Now().Add(time.Duration(rng.Intn(72)+1) * time.Hour).UnixMilli()
	records := []map[string]any{{
		"userId":  user,
		"type":    "reminder",
		"title":   fmt.Sprintf("load %d", rng.Intn(1000)),
		"endTime": end,
	}}
	data, _ := json.Marshal(records)
	// 429 is the quota doing its job, not a failure.
	return timed("POST /import", func() (*http.Response, error) {
		return httpClient.Post(baseURL+"/import?user="+user, "application/json", bytes.NewReader(data))
	}, http.StatusOK, http.StatusTooManyRequests)
}

func doInsertPreset(rng *rand.Rand) result {
	user := userID(rng.Intn(numUsers))
	data, _ := json.Marshal(map[string]any{
		"tag":   fmt.Sprintf("p%d", rng.Intn(numPresets)),
		"title": "preset",
	})
	return timed("POST /presets", func() (*http.Response, error) {
		return httpClient.Post(baseURL+"/presets?user="+user, "application/json", bytes.NewReader(data))
	}, http.StatusCreated, http.StatusConflict)
}

func doConvert(rng *rand.Rand) result {
	user := userID(rng.Intn(numUsers))
	source := zones[rng.Intn(len(zones))]

	start := time.Now()
	resp, err := httpClient.Get(fmt.Sprintf("%s/convert/start?user=%s&tz=%s", baseURL, user, source))
	if err != nil {
		return result{"convert flow", 0, time.Since(start), true}
	}
	var started struct {
		FlowKey string `json:"flowKey"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&started)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return result{"convert flow", resp.StatusCode, time.Since(start), true}
	}

	data, _ := json.Marshal(map[string]string{
		"user":    user,
		"flowKey": started.FlowKey,
		"date":    fmt.Sprintf("%02d-%02d-2026", rng.Intn(12)+1, rng.Intn(28)+1),
		"time":    fmt.Sprintf("%02d:%02d", rng.Intn(24), rng.Intn(60)),
	})
	resp, err = httpClient.Post(baseURL+"/convert/submit", "application/json", bytes.NewReader(data))
	lat := time.Since(start)
	if err != nil {
		return result{"convert flow", 0, lat, true}
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return result{"convert flow", resp.StatusCode, lat, resp.StatusCode != http.StatusOK}
}

func doListEvents(rng *rand.Rand) result {
	return doGet("/events?user="+userID(rng.Intn(numUsers)), "GET /events")
}

func doGetPresets(rng *rand.Rand) result {
	return doGet("/presets?user="+userID(rng.Intn(numUsers)), "GET /presets")
}

func doExport(rng *rand.Rand) result {
	format := "json"
	if rng.Intn(2) == 0 {
		format = "ics"
	}
	user := userID(rng.Intn(numUsers))
	// 409 means the user has nothing upcoming yet.
	return timed("GET /export", func() (*http.Response, error) {
		return httpClient.Get(fmt.Sprintf("%s/export?user=%s&format=%s", baseURL, user, format))
	}, http.StatusOK, http.StatusConflict)
}

func doGet(path, endpoint string) result {
	return timed(endpoint, func() (*http.Response, error) {
		return httpClient.Get(baseURL + path)
	}, http.StatusOK)
}

func avgDuration(d []time.Duration) time.Duration {
	if len(d) == 0 {
		return 0
	}
	var sum time.Duration
	for _, v := range d {
		sum += v
	}
	return sum / time.Duration(len(d))
}

func percentile(d []time.Duration, p float64) time.Duration {
	if len(d) == 0 {
		return 0
	}
	idx := int(float64(len(d)) * p)
	if idx >= len(d) {
		idx = len(d) - 1
	}
	return d[idx]
}

func fmtDur(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%dµs", d.Microseconds())
	}
	return fmt.Sprintf("%.1fms", float64(d.Microseconds())/1000.0)
}
