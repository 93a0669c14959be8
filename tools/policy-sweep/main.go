// policy-sweep asks a running API for the mandated clock-out of every
// minute of the day and prints where the result changes.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

type result struct {
	status   int
	mandated string
}

func main() {
	baseURL := flag.String("url", "http://localhost:8080/api/v1/calculate", "calculate endpoint")
	date := flag.String("date", time.Now().Format(time.DateOnly), "date to calculate for")
	concurrency := flag.Int("concurrency", 50, "concurrent requests")
	flag.Parse()

	const minutes = 24 * 60
	results := make([]result, minutes)

	fmt.Printf("Sweeping %d clock-in minutes against %s with concurrency %d\n", minutes, *baseURL, *concurrency)

	var wg sync.WaitGroup
	sem := make(chan struct{}, *concurrency) // Semaphore to limit concurrency

	var failCount int64
	client := &http.Client{Timeout: 10 * time.Second}
	startTime := time.Now()

	for i := 0; i < minutes; i++ {
		wg.Add(1)
		sem <- struct{}{}

		go func(minute int) {
			defer wg.Done()
			defer func() { <-sem }()

			payload, _ := json.Marshal(map[string]string{
				"time": fmt.Sprintf("%02d:%02d", minute/60, minute%60),
				"date": *date,
			})
			resp, err := client.Post(*baseURL, "application/json", bytes.NewReader(payload))
			if err != nil {
				atomic.AddInt64(&failCount, 1)
				return
			}
			defer resp.Body.Close()

			var body struct {
				MandatedClockOut time.Time `json:"mandatedClockOut"`
			}
			res := result{status: resp.StatusCode}
			if resp.StatusCode == http.StatusOK && json.NewDecoder(resp.Body).Decode(&body) == nil {
				res.mandated = body.MandatedClockOut.Format(time.TimeOnly)
			}
			results[minute] = res
		}(i)
	}

	wg.Wait()
	duration := time.Since(startTime)

	fmt.Println("\n--- Clock-out by clock-in minute ---")
	prev := ""
	for minute, res := range results {
		line := res.mandated
		switch {
		case res.status == http.StatusUnprocessableEntity:
			line = "late arrival"
		case res.status != http.StatusOK:
			line = fmt.Sprintf("error %d", res.status)
		}
		if line == prev {
			continue
		}
		fmt.Printf("%02d:%02d  %s\n", minute/60, minute%60, line)
		prev = line
	}

	fmt.Println("\n--- Sweep Results ---")
	fmt.Printf("Total Duration: %v\n", duration)
	fmt.Printf("Failed:         %d\n", failCount)
	fmt.Printf("Requests/Sec:   %.2f\n", float64(minutes)/duration.Seconds())
}
