package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"
)

// Job names one volume to process.
type Job struct {
	Input  string
	Volume string
}

// Run processes every job with at most concurrency volumes in flight and
// writes the outputs into outputDir. Failed volumes are recorded in the
// manifest rather than aborting the run.
func (p *Processor) Run(ctx context.Context, jobs []Job, outputDir string, concurrency int) *Manifest {
	if concurrency < 1 {
		concurrency = 1
	}
	manifest := NewManifest()
	slog.Info("Starting extraction run", "run_id", manifest.RunID, "volumes", len(jobs), "concurrency", concurrency)

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, concurrency)
	summaries := make(chan Summary, len(jobs))

	for i, job := range jobs {
		wg.Add(1)
		go func(idx int, job Job) {
			defer wg.Done()
			semaphore <- struct{}{}        // Acquire
			defer func() { <-semaphore }() // Release

			slog.Info("Processing volume", "input", job.Input, "progress", fmt.Sprintf("%d/%d", idx+1, len(jobs)))
			summaries <- p.runJob(ctx, job, outputDir)
		}(i, job)
	}

	go func() {
		wg.Wait()
		close(summaries)
	}()

	for s := range summaries {
		manifest.Volumes = append(manifest.Volumes, s)
	}
	sort.Slice(manifest.Volumes, func(i, j int) bool {
		return manifest.Volumes[i].Volume < manifest.Volumes[j].Volume
	})

	return manifest
}

func (p *Processor) runJob(ctx context.Context, job Job, outputDir string) Summary {
	start := time.Now()
	name := job.Volume
	if name == "" {
		name = VolumeName(job.Input)
	}

	if err := ctx.Err(); err != nil {
		return Summary{Volume: name, Input: job.Input, Error: err.Error()}
	}

	res, err := p.ProcessVolume(ctx, job.Input, name)
	if err != nil {
		slog.Error("Volume failed", "volume", name, "error", err)
		return Summary{Volume: name, Input: job.Input, Error: err.Error(), Duration: time.Since(start)}
	}

	files, err := p.Write(outputDir, res)
	if err != nil {
		slog.Error("Failed to write volume", "volume", name, "error", err)
		s := Summarize(job.Input, res, files, time.Since(start))
		s.Error = err.Error()
		return s
	}
	return Summarize(job.Input, res, files, time.Since(start))
}
