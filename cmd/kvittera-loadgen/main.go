// Command kvittera-loadgen generates query load against a running
// kvittera API server and reports latency and throughput.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"kvittera/pkg/loadgen"
)

func main() {
	var (
		configFile = flag.String("config", "", "YAML config file")
		target     = flag.String("target", "", "target API base URL")
		duration   = flag.Duration("duration", 0, "run duration (e.g. 30s, 1m)")
		workers    = flag.Int("workers", 0, "number of concurrent workers")
	)
	flag.Parse()

	cfg := loadgen.DefaultConfig()
	if *configFile != "" {
		loaded, err := loadgen.LoadConfig(*configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if *target != "" {
		cfg.Target = *target
	}
	if *duration > 0 {
		cfg.Duration = *duration
	}
	if *workers > 0 {
		cfg.Workers = *workers
	}

	if err := run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg *loadgen.Config) error {
	runner, err := loadgen.NewRunner(cfg)
	if err != nil {
		return err
	}
	defer runner.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Printf("Target:   %s\n", cfg.Target)
	fmt.Printf("Duration: %s\n", cfg.Duration)
	fmt.Printf("Workers:  %d\n", cfg.Workers)
	fmt.Println()

	done := make(chan struct{})
	var result *loadgen.Result
	var runErr error
	go func() {
		defer close(done)
		result, runErr = runner.Run(ctx)
	}()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	start := time.Now()
	for {
		select {
		case <-done:
			if runErr != nil {
				return runErr
			}
			fmt.Println()
			printSummary(result)
			return nil
		case <-ticker.C:
			snap := runner.Collector().GetSnapshot()
			fmt.Printf("\r[%s] %d ops, %.0f ops/s, %d errors",
				time.Since(start).Round(time.Second), snap.TotalOperations, snap.Throughput, snap.TotalErrors)
		}
	}
}

func printSummary(result *loadgen.Result) {
	s := result.Summary
	fmt.Println("=== Summary ===")
	fmt.Printf("Elapsed:      %s\n", result.EndTime.Sub(result.StartTime).Round(time.Millisecond))
	fmt.Printf("Operations:   %d\n", s.TotalOperations)
	fmt.Printf("Errors:       %d\n", s.TotalErrors)
	fmt.Printf("Success rate: %.2f%%\n", s.SuccessRate)
	fmt.Printf("Throughput:   %.1f ops/s\n", s.Throughput)
	fmt.Printf("Latency ms:   min=%d median=%d p90=%d p99=%d max=%d\n",
		s.Latency.Min, s.Latency.Median, s.Latency.P90, s.Latency.P99, s.Latency.Max)
	for kind, count := range s.ByKind {
		fmt.Printf("  %-12s %d\n", kind, count)
	}
	if len(s.ErrorsByType) > 0 {
		fmt.Println("Errors by type:")
		for msg, count := range s.ErrorsByType {
			fmt.Printf("  %6d  %s\n", count, msg)
		}
	}
}
