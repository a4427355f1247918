package main

import (
	"fmt"
	"io"

	"github.com/vidra-cli/vidra/internal/download"
)

func buildJobs(urls []string, formatID, destDir string, retries int) []download.Job {
	jobs := make([]download.Job, 0, len(urls))
	for _, u := range urls {
		jobs = append(jobs, download.NewJob(u, formatID, destDir, retries))
	}
	return jobs
}

// printOutcomes writes a one-line summary per outcome and returns the number
// of failed downloads.
func printOutcomes(out io.Writer, outcomes []download.Outcome) int {
	failed := 0
	for _, oc := range outcomes {
		if oc.Succeeded {
			fmt.Fprintf(out, "ok\t%s (%d attempt(s))\n", oc.Job.Locator, oc.Attempts)
			continue
		}
		failed++
		fmt.Fprintf(out, "failed\t%s: %v\n", oc.Job.Locator, oc.LastError)
	}
	return failed
}
