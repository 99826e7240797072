package main

import (
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

const (
	baseURL      = "http://127.0.0.1:18090"
	numWorkers   = 50
	testDuration = 10 * time.Second
)

var sports = []string{"Run", "Ride", "Swim", "Hike", "VirtualRide"}

var fromDates = []string{"2020-01-01", "2022-06-01", "2023-01-01", "2024-01-01"}

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

func main() {
	fmt.Println("=== Enduro Load Test ===")
	fmt.Printf("Workers: %d | Duration: %s\n\n", numWorkers, testDuration)

	// Wait for server
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

	// Prime the session once so the phases measure cache behavior, not the
	// first remote fetch.
	fmt.Print("Priming dataset (GET /activities)... ")
	resp, err := httpClient.Get(baseURL + "/activities")
	if err != nil {
		fmt.Println("FAILED:", err)
		return
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	fmt.Println(resp.Status)

	// Phase 1: raw activity reads
	fmt.Println("\n--- Phase 1: Activity reads (filtered and unfiltered) ---")
	runPhase(testDuration, func(rng *rand.Rand) result {
		if rng.Float64() < 0.5 {
			return doGetActivities(rng)
		}
		return doGetActivitiesFiltered(rng)
	})

	// Phase 2: rollup-heavy load
	fmt.Println("\n--- Phase 2: Rollup-heavy load ---")
	runPhase(testDuration, func(rng *rand.Rand) result {
		r := rng.Float64()
		switch {
		case r < 0.30:
			return doGetWeekly(rng)
		case r < 0.55:
			return doGetMonthly()
		case r < 0.75:
			return doGetYearly()
		case r < 0.90:
			return doGetSports()
		default:
			return doGetStatus()
		}
	})

	// Phase 3: everything mixed, status-polling included
	fmt.Println("\n--- Phase 3: Mixed load ---")
	runPhase(testDuration, func(rng *rand.Rand) result {
		r := rng.Float64()
		switch {
		case r < 0.35:
			return doGetActivities(rng)
		case r < 0.55:
			return doGetActivitiesFiltered(rng)
		case r < 0.70:
			return doGetWeekly(rng)
		case r < 0.80:
			return doGetMonthly()
		case r < 0.90:
			return doGetSports()
		default:
			return doGetStatus()
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
	fmt.Println("  " + repeat("-", 88))

	for _, ep := range endpoints {
		s := allResults[ep]
		totalOps += s.count
		totalErrors += s.errors

		sort.Slice(s.latencies, func(i, j int) bool {
			return s.latencies[i] < s.latencies[j]
		})

		avg := avgDuration(s.latencies)
		p50 := percentile(s.latencies, 0.50)
		p95 := percentile(s.latencies, 0.95)
		p99 := percentile(s.latencies, 0.99)

		fmt.Printf("  %-22s %8d %6d %10s %10s %10s %10s\n",
			ep, s.count, s.errors, fmtDur(avg), fmtDur(p50), fmtDur(p95), fmtDur(p99))
	}

	rps := float64(totalOps) / duration.Seconds()
	fmt.Println("  " + repeat("-", 88))
	fmt.Printf("  Total: %d reqs | Errors: %d (%.1f%%) | RPS: %.0f\n",
		totalOps, totalErrors, float64(totalErrors)/float64(totalOps)*100, rps)
}

func doGet(endpoint, url string) result {
	start := time.Now()
	resp, err := httpClient.Get(url)
	lat := time.Since(start)
	if err != nil {
		return result{endpoint, 0, lat, true}
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return result{endpoint, resp.StatusCode, lat, resp.StatusCode != 200}
}

func doGetActivities(_ *rand.Rand) result {
	return doGet("GET /activities", baseURL+"/activities")
}

func doGetActivitiesFiltered(rng *rand.Rand) result {
	sport := sports[rng.Intn(len(sports))]
	from := fromDates[rng.Intn(len(fromDates))]
	url := fmt.Sprintf("%s/activities?from=%s&sport=%s", baseURL, from, sport)
	return doGet("GET /activities?f", url)
}

func doGetWeekly(rng *rand.Rand) result {
	if rng.Float64() < 0.3 {
		from := fromDates[rng.Intn(len(fromDates))]
		return doGet("GET /weekly", fmt.Sprintf("%s/weekly?from=%s", baseURL, from))
	}
	return doGet("GET /weekly", baseURL+"/weekly")
}

func doGetMonthly() result {
	return doGet("GET /monthly", baseURL+"/monthly")
}

func doGetYearly() result {
	return doGet("GET /yearly", baseURL+"/yearly")
}

func doGetSports() result {
	return doGet("GET /sports", baseURL+"/sports")
}

func doGetStatus() result {
	return doGet("GET /status", baseURL+"/status")
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

func repeat(s string, n int) string {
	out := ""
	for i := 0; i < n; i++ {
		out += s
	}
	return out
}
