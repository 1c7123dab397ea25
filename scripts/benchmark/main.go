// Command benchmark submits saved pages to a pagedrop backend repeatedly
// and reports latency per page.
//
//	go run ./scripts/benchmark -endpoint http://localhost:8000/ page1.html page2.html
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/use-agent/pagedrop/submit"
)

var (
	endpoint = flag.String("endpoint", "http://localhost:8000/", "backend URL")
	runs     = flag.Int("runs", 5, "submissions per page")
	output   = flag.String("output", "", "optional JSON results file")
)

type result struct {
	Page     string  `json:"page"`
	Bytes    int     `json:"bytes"`
	Runs     int     `json:"runs"`
	Failures int     `json:"failures"`
	MinMs    float64 `json:"min_ms"`
	MedianMs float64 `json:"median_ms"`
	MaxMs    float64 `json:"max_ms"`
	Message  string  `json:"message"`
}

func main() {
	flag.Parse()
	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: benchmark [flags] page.html...")
		os.Exit(2)
	}

	client, err := submit.NewClient(*endpoint, nil, submit.WithTimeout(2*time.Minute))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	var results []result
	for _, path := range flag.Args() {
		doc, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		results = append(results, bench(client, filepath.Base(path), string(doc)))
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PAGE\tBYTES\tRUNS\tFAIL\tMIN ms\tMEDIAN ms\tMAX ms\tMESSAGE")
	for _, r := range results {
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%.1f\t%.1f\t%.1f\t%s\n",
			r.Page, r.Bytes, r.Runs, r.Failures, r.MinMs, r.MedianMs, r.MaxMs, r.Message)
	}
	w.Flush()

	if *output != "" {
		b, _ := json.MarshalIndent(results, "", "  ")
		if err := os.WriteFile(*output, b, 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("\nresults written to %s\n", *output)
	}
}

func bench(client *submit.Client, name, doc string) result {
	r := result{Page: name, Bytes: len(doc), Runs: *runs}
	var times []float64
	for i := 0; i < *runs; i++ {
		start := time.Now()
		o := client.Submit(context.Background(), doc)
		ms := float64(time.Since(start).Microseconds()) / 1000
		if !o.OK() {
			r.Failures++
			r.Message = o.Description()
			continue
		}
		times = append(times, ms)
		r.Message = o.Response().Message
	}
	if len(times) > 0 {
		sort.Float64s(times)
		r.MinMs = times[0]
		r.MedianMs = times[len(times)/2]
		r.MaxMs = times[len(times)-1]
	}
	return r
}
