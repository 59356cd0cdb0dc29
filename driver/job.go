package driver

import (
	"os"
	"path/filepath"

	e "github.com/pkg/errors"
)

// Job is one input path paired with the directory its contents get
// extracted into.
type Job struct {
	// Input is the archive (or plain file, probed and skipped if it
	// isn't one) to read.
	Input string

	// OutputDir is where xp3.Extract writes this job's files.
	OutputDir string
}

// EnumerateJobs builds the initial worklist from CLI arguments: a file
// becomes one job, a directory becomes one job per regular file directly
// inside it (non-recursive; deeper recursion happens via the fixed-point
// loop in run.go, not here).
func EnumerateJobs(inputs []string, outputRoot string) ([]Job, error) {
	var jobs []Job

	for _, input := range inputs {
		info, err := os.Stat(input)
		if err != nil {
			return nil, e.Wrapf(err, "driver: stat %q", input)
		}

		if !info.IsDir() {
			jobs = append(jobs, Job{Input: input, OutputDir: outputRoot})
			continue
		}

		entries, err := os.ReadDir(input)
		if err != nil {
			return nil, e.Wrapf(err, "driver: read dir %q", input)
		}

		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			jobs = append(jobs, Job{
				Input:     filepath.Join(input, entry.Name()),
				OutputDir: outputRoot,
			})
		}
	}

	return jobs, nil
}

// nestedOutputDir names the directory a job's own extracted files get
// re-probed into: "<stem>(xp3)" alongside the file that produced them.
func nestedOutputDir(parent string) string {
	stem := parent
	if ext := filepath.Ext(stem); ext != "" {
		stem = stem[:len(stem)-len(ext)]
	}
	return stem + "(xp3)"
}
