//nolint:testpackage // White-box testing of internal helpers.
package main

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vidra-cli/vidra/internal/download"
)

func TestBuildJobs(t *testing.T) {
	jobs := buildJobs([]string{"https://a.test/1", "https://a.test/2"}, "best", "/tmp/out", 3)

	require.Len(t, jobs, 2)
	require.Equal(t, "https://a.test/1", jobs[0].Locator)
	require.Equal(t, "best", jobs[0].FormatID)
	require.Equal(t, "/tmp/out", jobs[0].DestDir)
	require.Equal(t, 3, jobs[0].MaxAttempts)
	require.NotEqual(t, jobs[0].ID, jobs[1].ID)
}

func TestPrintOutcomesCountsFailures(t *testing.T) {
	jobs := buildJobs([]string{"https://a.test/ok", "https://a.test/bad"}, "best", "/tmp/out", 1)
	outcomes := []download.Outcome{
		{Job: jobs[0], Succeeded: true, Attempts: 2},
		{Job: jobs[1], Succeeded: false, Attempts: 1, LastError: errors.New("connection reset")},
	}

	var buf bytes.Buffer
	failed := printOutcomes(&buf, outcomes)

	require.Equal(t, 1, failed)
	require.Contains(t, buf.String(), "ok\thttps://a.test/ok (2 attempt(s))")
	require.Contains(t, buf.String(), "failed\thttps://a.test/bad: connection reset")
}

func TestPrintOutcomesAllSucceeded(t *testing.T) {
	jobs := buildJobs([]string{"https://a.test/1"}, "best", "/tmp/out", 1)
	var buf bytes.Buffer

	failed := printOutcomes(&buf, []download.Outcome{{Job: jobs[0], Succeeded: true, Attempts: 1}})

	require.Zero(t, failed)
	require.NotContains(t, buf.String(), "failed")
}
