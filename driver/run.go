package driver

import (
	"context"

	"github.com/sahib/flare/xp3"
	log "github.com/sirupsen/logrus"
)

// Run extracts every job, then re-probes every file each round produced as
// a new job rooted at a nested output directory, looping until a round
// produces nothing new. xp3.Extract returning an empty list for non-XP3
// input makes probing a plain extracted asset just a wasted, cheap header
// check, so every extracted file is probed unconditionally.
func Run(ctx context.Context, jobs []Job, cfg *Config, diag xp3.DiagSink) (*Manifest, error) {
	manifest := NewManifest()

	root := make(map[Job]string, len(jobs))
	for _, job := range jobs {
		manifest.Start(job.Input)
		root[job] = job.Input
	}

	pool := &Pool{
		Workers:          cfg.Workers(),
		Diag:             diag,
		ProtectedIsFatal: cfg.ProtectedIsFatal(),
	}

	worklist := jobs
	for round := 1; len(worklist) > 0; round++ {
		log.Debugf("driver: round %d, %d jobs", round, len(worklist))

		results := pool.Run(ctx, worklist)

		var next []Job
		for _, res := range results {
			jobRoot := root[res.job]

			if res.err != nil {
				log.Warnf("driver: %s: %v", res.job.Input, res.err)
				continue
			}

			manifest.Record(jobRoot, res.files)

			for _, file := range res.files {
				child := Job{Input: file, OutputDir: nestedOutputDir(file)}
				root[child] = jobRoot
				next = append(next, child)
			}
		}

		worklist = next
	}

	if path := cfg.ManifestPath(); path != "" {
		if _, err := manifest.WriteTo(path); err != nil {
			return manifest, err
		}
	}

	return manifest, nil
}
