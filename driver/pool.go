package driver

import (
	"context"
	"os"
	"runtime"
	"strings"

	e "github.com/pkg/errors"
	"github.com/sahib/flare/util"
	"github.com/sahib/flare/xp3"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// Pool runs a batch of extraction jobs concurrently, one xp3.Extract call
// per job, never sharing a stream handle across goroutines. Parallelism is
// across archives only; a single archive is always extracted sequentially.
type Pool struct {
	// Workers caps concurrent extractions. 0 means runtime.NumCPU().
	Workers int

	// Diag receives warnings from every job's xp3.Extract call.
	Diag xp3.DiagSink

	// ProtectedIsFatal turns a protected-archive warning into a job error.
	// The warning itself is still passed through to Diag.
	ProtectedIsFatal bool

	// Bytes accumulates the total bytes written across all jobs, for the
	// gateway's status page.
	Bytes util.SizeAccumulator
}

// jobResult is one job's outcome: the files it produced, or the error that
// aborted it.
type jobResult struct {
	job   Job
	files []string
	err   error
}

// Run extracts every job concurrently and returns one jobResult per job, in
// the same order as jobs. A single job's error never aborts the others.
func (p *Pool) Run(ctx context.Context, jobs []Job) []jobResult {
	workers := p.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	sem := semaphore.NewWeighted(int64(workers))
	results := make([]jobResult, len(jobs))

	group, gctx := errgroup.WithContext(ctx)
	for i, job := range jobs {
		i, job := i, job
		group.Go(func() error {
			if err := sem.Acquire(gctx, 1); err != nil {
				results[i] = jobResult{job: job, err: err}
				return nil
			}
			defer sem.Release(1)

			results[i] = p.runOne(job)
			return nil
		})
	}

	// group.Wait()'s error is always nil here: job failures are recorded
	// in results, not propagated, so one bad archive can't cancel the
	// rest of the batch.
	_ = group.Wait()
	return results
}

func (p *Pool) runOne(job Job) jobResult {
	log.Debugf("driver: extracting %s -> %s", job.Input, job.OutputDir)

	fd, err := os.Open(job.Input)
	if err != nil {
		return jobResult{job: job, err: e.Wrapf(err, "driver: open %q", job.Input)}
	}
	defer fd.Close()

	sink := &countingSink{inner: p.Diag}
	files, err := xp3.Extract(fd, job.OutputDir, sink)
	if err != nil {
		return jobResult{job: job, err: e.Wrapf(err, "driver: extract %q", job.Input)}
	}

	if p.ProtectedIsFatal && sink.sawProtected {
		return jobResult{job: job, err: e.Errorf("driver: %q is protected and protected_is_fatal is set", job.Input)}
	}

	for _, f := range files {
		if info, statErr := os.Stat(f); statErr == nil {
			p.Bytes.Add(uint64(info.Size()))
		}
	}

	return jobResult{job: job, files: files}
}

// countingSink forwards to the pool's own diag sink and additionally
// watches for the protected-archive warning so ProtectedIsFatal can act on
// it without xp3 needing to know about that policy at all.
type countingSink struct {
	inner        xp3.DiagSink
	sawProtected bool
}

func (c *countingSink) Warn(format string, args ...interface{}) {
	if strings.Contains(format, "marked protected") {
		c.sawProtected = true
	}
	if c.inner != nil {
		c.inner.Warn(format, args...)
	}
}
