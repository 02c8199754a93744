package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/powellquiring/wordleplayer/batch"
)

func testStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data", "wdl.db")
	s, err := Open(path, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, path
}

func testReport(started time.Time) *batch.Report {
	results := []batch.Result{
		{Number: 3, Target: "humph", Guesses: []string{"raise", "humph"}, Feedback: []string{"rrrrr", "ggggg"}, Turns: 2, Solved: true, Elapsed: time.Millisecond},
		{Number: 0, Target: "cigar", Guesses: []string{"raise", "cigar"}, Feedback: []string{"yyyrr", "ggggg"}, Turns: 2, Solved: true, Elapsed: 2 * time.Millisecond},
		{Number: 1, Target: "rebut", Guesses: []string{"raise"}, Feedback: []string{"yrrry"}, Turns: 1, Solved: false, Elapsed: 3 * time.Millisecond},
	}
	return &batch.Report{
		Strategy: "entropy",
		MaxTurns: 1,
		Started:  started,
		Elapsed:  time.Second,
		Results:  results,
		Summary:  batch.Summarize(results, 6, time.Second),
	}
}

func TestSaveAndLoadRun(t *testing.T) {
	s, _ := testStore(t)
	ctx := context.Background()
	started := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	report := testReport(started)

	id, err := s.SaveRun(ctx, report)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	run, err := s.Run(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "entropy", run.Strategy)
	assert.Equal(t, 1, run.MaxTurns)
	assert.True(t, started.Equal(run.Started))
	assert.Equal(t, time.Second, run.Elapsed)
	if diff := cmp.Diff(report.Summary, run.Summary); diff != "" {
		t.Errorf("summary (-saved +loaded):\n%s", diff)
	}

	results, err := s.Results(ctx, id)
	require.NoError(t, err)
	if diff := cmp.Diff(report.Results, results); diff != "" {
		t.Errorf("results (-saved +loaded):\n%s", diff)
	}
}

func TestRunsNewestFirst(t *testing.T) {
	s, _ := testStore(t)
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	var ids []string
	for i := range 3 {
		id, err := s.SaveRun(ctx, testReport(base.Add(time.Duration(i)*time.Hour)))
		require.NoError(t, err)
		ids = append(ids, id)
	}
	runs, err := s.Runs(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, []string{ids[2], ids[1], ids[0]}, []string{runs[0].ID, runs[1].ID, runs[2].ID})

	runs, err = s.Runs(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestNotFound(t *testing.T) {
	s, _ := testStore(t)
	ctx := context.Background()
	_, err := s.Run(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.Results(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.DeleteRun(ctx, "missing"), ErrNotFound)
}

func TestDeleteRun(t *testing.T) {
	s, _ := testStore(t)
	ctx := context.Background()
	id, err := s.SaveRun(ctx, testReport(time.Now()))
	require.NoError(t, err)
	require.NoError(t, s.DeleteRun(ctx, id))
	var count int
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(1) FROM results WHERE run_id=?`, id).Scan(&count))
	assert.Equal(t, 0, count)
}

func TestReopenKeepsData(t *testing.T) {
	s, path := testStore(t)
	ctx := context.Background()
	id, err := s.SaveRun(ctx, testReport(time.Now()))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	// migrations are not applied twice
	again, err := Open(path, zerolog.Nop())
	require.NoError(t, err)
	defer again.Close()
	_, err = again.Run(ctx, id)
	require.NoError(t, err)
}
