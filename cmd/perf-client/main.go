package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// PerfResult gathers aggregated metrics for the test run.
// Atomic counters are used to avoid lock contention on hot paths.
// LatencySum & P95Latency are in nanoseconds.
//
// P95Latency is maintained via a lightweight reservoir sampler.
type PerfResult struct {
	TotalRequests  int64
	FreshCount     int64
	ReplayCount    int64
	ExhaustedCount int64
	ErrorCount     int64
	LatencySum     int64
	P95Latency     int64
}

const (
	fixedWorkers   = 50
	fixedRPSTarget = 700
	fixedDuration  = 30 * time.Second
	defaultTimeout = 30 * time.Second
	baseURL        = "http://localhost:8080"
)

// Load-tests the allocation path: every request carries a fresh user id
// so each one exercises the transactional pool pop rather than the
// idempotent replay branch.
func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: perf-client <campaign-id>")
		os.Exit(1)
	}
	campaignID, err := strconv.ParseInt(os.Args[1], 10, 64)
	if err != nil || campaignID <= 0 {
		fmt.Fprintf(os.Stderr, "invalid campaign id: %q\n", os.Args[1])
		os.Exit(1)
	}

	rps := fixedRPSTarget
	duration := fixedDuration
	workers := fixedWorkers

	transport := &http.Transport{
		MaxIdleConns:        workers * 4,
		MaxIdleConnsPerHost: workers * 4,
		IdleConnTimeout:     90 * time.Second,
	}
	httpClient := &http.Client{
		Transport: transport,
		Timeout:   defaultTimeout,
	}

	fmt.Println("==========================================")
	fmt.Println("discount allocation load test")
	fmt.Println("==========================================")
	fmt.Printf("campaign id : %d\n", campaignID)
	fmt.Printf("target RPS  : %d\n", rps)
	fmt.Printf("duration    : %v\n", duration)
	fmt.Println("==========================================")

	burst := rps / workers
	if burst < 1 {
		burst = 1
	}
	limiter := rate.NewLimiter(rate.Limit(rps), burst)

	ctx, cancel := context.WithTimeout(context.Background(), duration)
	defer cancel()

	var result PerfResult
	var wg sync.WaitGroup

	// Distinct user per request; one user can only ever hold one code.
	var nextUserID int64 = 1000000

	// latencyChan collects latencies for P95 estimation.
	latencyChan := make(chan time.Duration, 4096)
	go trackP95(latencyChan, &result)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				if err := limiter.Wait(ctx); err != nil { // context cancelled → exit
					return
				}
				userID := atomic.AddInt64(&nextUserID, 1)
				doRequest(httpClient, campaignID, userID, &result, latencyChan)
			}
		}()
	}

	start := time.Now()
	<-ctx.Done() // wait for duration

	wg.Wait()
	close(latencyChan)

	totalDur := time.Since(start)

	success := result.FreshCount + result.ReplayCount
	actualRPS := float64(success) / totalDur.Seconds()
	successRate := float64(success) / float64(result.TotalRequests) * 100

	var avgLatency time.Duration
	if success > 0 {
		avgLatency = time.Duration(result.LatencySum / success)
	}

	fmt.Println("==========================================")
	fmt.Println("results")
	fmt.Println("==========================================")
	fmt.Printf("elapsed          : %.2fs\n", totalDur.Seconds())
	fmt.Printf("total requests   : %d\n", result.TotalRequests)
	fmt.Printf("fresh codes (201): %d\n", result.FreshCount)
	fmt.Printf("replays (200)    : %d\n", result.ReplayCount)
	fmt.Printf("pool empty (404) : %d\n", result.ExhaustedCount)
	fmt.Printf("errors           : %d\n", result.ErrorCount)
	fmt.Printf("actual RPS       : %.2f\n", actualRPS)
	fmt.Printf("success rate     : %.2f%%\n", successRate)
	fmt.Printf("avg latency      : %v\n", avgLatency)
	fmt.Printf("p95 latency      : %v\n", time.Duration(result.P95Latency))
	fmt.Println("==========================================")
}

type allocationResponse struct {
	ID         string `json:"id"`
	CampaignID int64  `json:"campaign_id"`
	UserID     int64  `json:"user_id"`
	IsUsed     bool   `json:"is_used"`
}

// doRequest performs a single allocation request and collects metrics.
func doRequest(client *http.Client, campaignID, userID int64, result *PerfResult, latencyChan chan<- time.Duration) {
	// Use independent context to avoid cancellation when test ends
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	url := fmt.Sprintf("%s/discounts/%d", baseURL, campaignID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		atomic.AddInt64(&result.ErrorCount, 1)
		return
	}
	req.Header.Set("Authorization", strconv.FormatInt(userID, 10))

	start := time.Now()
	atomic.AddInt64(&result.TotalRequests, 1)

	resp, err := client.Do(req)
	latency := time.Since(start)

	if err != nil {
		atomic.AddInt64(&result.ErrorCount, 1)
		return
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusCreated, http.StatusOK:
		var body allocationResponse
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body.ID == "" {
			atomic.AddInt64(&result.ErrorCount, 1)
			return
		}
		if resp.StatusCode == http.StatusCreated {
			atomic.AddInt64(&result.FreshCount, 1)
		} else {
			atomic.AddInt64(&result.ReplayCount, 1)
		}
		atomic.AddInt64(&result.LatencySum, latency.Nanoseconds())
		select {
		case latencyChan <- latency:
		default:
		}
	case http.StatusNotFound:
		atomic.AddInt64(&result.ExhaustedCount, 1)
	default:
		atomic.AddInt64(&result.ErrorCount, 1)
	}
}

// trackP95 maintains a best-effort rolling P95 latency estimation.
func trackP95(latencies <-chan time.Duration, result *PerfResult) {
	const size = 1000
	buf := make([]int64, 0, size)

	for lat := range latencies {
		if len(buf) < size {
			buf = append(buf, lat.Nanoseconds())
		} else {
			// Replace random element (simple reservoir sampling)
			if idx := time.Now().UnixNano() % int64(size); idx < int64(size/10) {
				buf[idx] = lat.Nanoseconds()
			}
		}

		// Update P95 periodically
		if len(buf) >= 100 && len(buf)%100 == 0 {
			copyBuf := make([]int64, len(buf))
			copy(copyBuf, buf)
			quickSort(copyBuf)
			p95Index := int(float64(len(copyBuf)) * 0.95)
			if p95Index >= len(copyBuf) {
				p95Index = len(copyBuf) - 1
			}
			atomic.StoreInt64(&result.P95Latency, copyBuf[p95Index])
		}
	}
}

// quickSort sorts the array in ascending order
func quickSort(arr []int64) {
	if len(arr) < 2 {
		return
	}

	left, right := 0, len(arr)-1
	pivot := len(arr) / 2

	arr[pivot], arr[right] = arr[right], arr[pivot]

	for i := range arr {
		if arr[i] < arr[right] {
			arr[left], arr[i] = arr[i], arr[left]
			left++
		}
	}

	arr[left], arr[right] = arr[right], arr[left]

	quickSort(arr[:left])
	quickSort(arr[left+1:])
}
