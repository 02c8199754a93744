// Package store keeps batch runs and their games in SQLite.
package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"

	"github.com/powellquiring/wordleplayer/batch"
)

//go:embed migrations/*.sql
var migrations embed.FS

var ErrNotFound = errors.New("run not found")

// fixed width so started_at sorts as text
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

type Store struct {
	db     *sql.DB
	logger zerolog.Logger
}

// Run is a saved batch without its games.
type Run struct {
	ID       string        `json:"id"`
	Strategy string        `json:"strategy"`
	MaxTurns int           `json:"maxTurns"`
	Started  time.Time     `json:"started"`
	Elapsed  time.Duration `json:"elapsed"`
	Summary  batch.Summary `json:"summary"`
}

// Open opens, creating it if missing, the database at path and applies the migrations.
func Open(path string, logger zerolog.Logger) (*Store, error) {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, err
	}
	s := &Store{db: db, logger: logger}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// migrate applies each migrations/*.sql file once, in name order, recording it in _migrations.
func (s *Store) migrate() error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS _migrations (name TEXT PRIMARY KEY);`); err != nil {
		return fmt.Errorf("create _migrations: %w", err)
	}
	files, err := fs.Glob(migrations, "migrations/*.sql")
	if err != nil {
		return err
	}
	sort.Strings(files)
	for _, f := range files {
		var done int
		err := s.db.QueryRow(`SELECT 1 FROM _migrations WHERE name=?`, f).Scan(&done)
		if err == nil {
			continue
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("query _migrations: %w", err)
		}
		sqlBytes, err := migrations.ReadFile(f)
		if err != nil {
			return fmt.Errorf("read %s: %w", f, err)
		}
		tx, err := s.db.Begin()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(string(sqlBytes)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply %s: %w", f, err)
		}
		if _, err := tx.Exec(`INSERT INTO _migrations(name) VALUES (?)`, f); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record %s: %w", f, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit %s: %w", f, err)
		}
		s.logger.Info().Str("migration", f).Msg("applied")
	}
	return nil
}

// SaveRun stores a report and its results, returning the new run id.
func (s *Store) SaveRun(ctx context.Context, report *batch.Report) (string, error) {
	summary, err := json.Marshal(report.Summary)
	if err != nil {
		return "", err
	}
	id := uuid.NewString()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
        INSERT INTO runs (id, strategy, max_turns, started_at, elapsed_ns, games, solved, mean_solved, summary)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, report.Strategy, report.MaxTurns, report.Started.UTC().Format(timeLayout),
		int64(report.Elapsed), report.Summary.Games, report.Summary.Solved, report.Summary.MeanSolved, string(summary),
	); err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `
        INSERT INTO results (run_id, position, number, target, guesses, feedback, turns, solved, elapsed_ns)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", err
	}
	defer stmt.Close()
	for i, result := range report.Results {
		if _, err := stmt.ExecContext(ctx, id, i, result.Number, result.Target,
			strings.Join(result.Guesses, " "), strings.Join(result.Feedback, " "),
			result.Turns, result.Solved, int64(result.Elapsed),
		); err != nil {
			return "", fmt.Errorf("insert result %d: %w", result.Number, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return "", err
	}
	s.logger.Info().Str("run", id).Int("games", len(report.Results)).Msg("run saved")
	return id, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*Run, error) {
	var (
		run     Run
		started string
		elapsed int64
		summary string
	)
	if err := row.Scan(&run.ID, &run.Strategy, &run.MaxTurns, &started, &elapsed, &summary); err != nil {
		return nil, err
	}
	t, err := time.Parse(timeLayout, started)
	if err != nil {
		return nil, fmt.Errorf("run %s started_at: %w", run.ID, err)
	}
	run.Started = t
	run.Elapsed = time.Duration(elapsed)
	if err := json.Unmarshal([]byte(summary), &run.Summary); err != nil {
		return nil, fmt.Errorf("run %s summary: %w", run.ID, err)
	}
	return &run, nil
}

const runColumns = `id, strategy, max_turns, started_at, elapsed_ns, summary`

// Runs lists the most recent runs first, at most limit of them (20 when limit <= 0).
func (s *Store) Runs(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `SELECT `+runColumns+` FROM runs ORDER BY started_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	ret := make([]Run, 0, limit)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		ret = append(ret, *run)
	}
	return ret, rows.Err()
}

func (s *Store) Run(ctx context.Context, id string) (*Run, error) {
	run, err := scanRun(s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id=?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return run, err
}

// Results returns the games of a run in the order they were reported.
func (s *Store) Results(ctx context.Context, id string) ([]batch.Result, error) {
	if _, err := s.Run(ctx, id); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `
        SELECT number, target, guesses, feedback, turns, solved, elapsed_ns
        FROM results WHERE run_id=? ORDER BY position`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ret []batch.Result
	for rows.Next() {
		var (
			result            batch.Result
			guesses, feedback string
			elapsed           int64
		)
		if err := rows.Scan(&result.Number, &result.Target, &guesses, &feedback, &result.Turns, &result.Solved, &elapsed); err != nil {
			return nil, err
		}
		result.Guesses = strings.Fields(guesses)
		result.Feedback = strings.Fields(feedback)
		result.Elapsed = time.Duration(elapsed)
		ret = append(ret, result)
	}
	return ret, rows.Err()
}

// DeleteRun removes a run and its games.
func (s *Store) DeleteRun(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}
