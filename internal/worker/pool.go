// Package worker provides a parallel batch image processing worker pool.
package worker

import (
	"context"
	"sync"
	"time"

	"github.com/sparkmark/sparkmark/internal/batch"
)

// Processor is the interface for per-file processing.
// This matches the signature of batch.Processor.Process.
type Processor interface {
	Process(ctx context.Context, inputPath, outputPath string) (batch.Outcome, error)
}

// Task represents a single file to process.
type Task struct {
	Input  string
	Output string
}

// Result represents the outcome of a processing task.
type Result struct {
	Task    Task
	Outcome batch.Outcome
	Err     error
	Elapsed time.Duration
}

// ProgressFunc is called after each task completes.
type ProgressFunc func(completed, total, failed int)

// Config configures the worker pool.
type Config struct {
	Workers    int
	Processor  Processor
	OnProgress ProgressFunc
}

// Pool manages parallel file processing.
type Pool struct {
	workers    int
	processor  Processor
	onProgress ProgressFunc
}

// New creates a new worker pool.
func New(cfg Config) *Pool {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}

	return &Pool{
		workers:    workers,
		processor:  cfg.Processor,
		onProgress: cfg.OnProgress,
	}
}

// Run executes all tasks and returns results.
// Tasks are processed in parallel by the configured number of workers.
// The function blocks until all tasks complete or the context is cancelled.
func (p *Pool) Run(ctx context.Context, tasks []Task) []Result {
	if len(tasks) == 0 {
		return nil
	}

	taskCh := make(chan Task, len(tasks))
	resultCh := make(chan Result, len(tasks))

	// Track progress
	var (
		completed int
		failed    int
		mu        sync.Mutex
	)

	// Start workers
	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.worker(ctx, taskCh, resultCh)
		}()
	}

	// Feed tasks
	go func() {
		for _, task := range tasks {
			select {
			case taskCh <- task:
			case <-ctx.Done():
				// Context cancelled, stop feeding
				break
			}
		}
		close(taskCh)
	}()

	// Collect results in a separate goroutine
	results := make([]Result, 0, len(tasks))
	done := make(chan struct{})

	go func() {
		for result := range resultCh {
			results = append(results, result)

			// Update progress
			mu.Lock()
			completed++
			if result.Err != nil {
				failed++
			}
			c, f := completed, failed
			mu.Unlock()

			if p.onProgress != nil {
				p.onProgress(c, len(tasks), f)
			}
		}
		close(done)
	}()

	// Wait for workers to finish
	wg.Wait()
	close(resultCh)

	// Wait for result collection to finish
	<-done

	return results
}

// worker processes tasks from the task channel and sends results to the result channel.
func (p *Pool) worker(ctx context.Context, tasks <-chan Task, results chan<- Result) {
	for task := range tasks {
		select {
		case <-ctx.Done():
			// Send cancellation result
			results <- Result{
				Task: task,
				Err:  ctx.Err(),
			}
			continue
		default:
		}

		start := time.Now()
		outcome, err := p.processor.Process(ctx, task.Input, task.Output)
		elapsed := time.Since(start)

		results <- Result{
			Task:    task,
			Outcome: outcome,
			Err:     err,
			Elapsed: elapsed,
		}
	}
}
