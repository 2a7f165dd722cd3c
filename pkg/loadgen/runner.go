package loadgen

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Result is the final report of a load run.
type Result struct {
	StartTime time.Time
	EndTime   time.Time
	Summary   *Snapshot
}

// Runner drives concurrent workers against the query API.
type Runner struct {
	cfg       *Config
	client    *Client
	collector *Collector

	mu  sync.Mutex
	gen *Generator
}

// NewRunner creates a runner for the given config.
func NewRunner(cfg *Config) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	client, err := NewClient(cfg.Target)
	if err != nil {
		return nil, err
	}
	return &Runner{
		cfg:       cfg,
		client:    client,
		collector: NewCollector(),
		gen:       NewGenerator(cfg),
	}, nil
}

// Collector exposes the live metrics for progress reporting.
func (r *Runner) Collector() *Collector {
	return r.collector
}

// Run executes the load until the configured duration elapses or the
// context is canceled.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	runCtx, cancel := context.WithTimeout(ctx, r.cfg.Duration)
	defer cancel()

	start := time.Now()

	var wg sync.WaitGroup
	for i := 0; i < r.cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.workerLoop(runCtx)
		}()
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return &Result{
		StartTime: start,
		EndTime:   time.Now(),
		Summary:   r.collector.GetSnapshot(),
	}, nil
}

// Close releases the underlying client.
func (r *Runner) Close() error {
	return r.client.Close()
}

func (r *Runner) workerLoop(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		op := r.nextOperation()
		begin := time.Now()
		err := r.execute(ctx, op)
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return
		}
		r.collector.Record(OperationResult{
			Kind:     op.Kind,
			Duration: time.Since(begin),
			Err:      err,
		})
	}
}

// nextOperation serializes access to the shared rand source.
func (r *Runner) nextOperation() Operation {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.gen.Next()
}

func (r *Runner) execute(ctx context.Context, op Operation) error {
	switch op.Kind {
	case "references":
		_, err := r.client.References(ctx, op.Codes[0], op.Owner, op.Limit)
		return err
	default:
		_, err := r.client.Occurrences(ctx, op.Codes, op.Owner)
		return err
	}
}
