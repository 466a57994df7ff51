// Package fitstore persists completed fit runs to sqlite so tuning
// parameters can be compared across runs of the same airfoil.
package fitstore

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// FitRun is one persisted fitting result.
type FitRun struct {
	RunID            string          `json:"run_id"`
	Airfoil          string          `json:"airfoil"`
	Side             string          `json:"side"`
	NumControlPoints int             `json:"num_control_points"`
	ParamsJSON       json.RawMessage `json:"params_json,omitempty"`
	Deviation        float64         `json:"deviation"`
	CurvLE           float64         `json:"curv_le"`
	CurvTE           float64         `json:"curv_te"`
	NEvaluations     int             `json:"n_evaluations"`
	NIterations      int             `json:"n_iterations"`
	Cancelled        bool            `json:"cancelled"`
	CreatedAt        int64           `json:"created_at"`
}

// Store provides persistence for fit runs.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS fit_runs (
	run_id             TEXT PRIMARY KEY,
	airfoil            TEXT NOT NULL,
	side               TEXT NOT NULL,
	num_control_points INTEGER NOT NULL,
	params_json        TEXT,
	deviation          REAL NOT NULL,
	curv_le            REAL NOT NULL,
	curv_te            REAL NOT NULL,
	n_evaluations      INTEGER NOT NULL,
	n_iterations       INTEGER NOT NULL,
	cancelled          INTEGER NOT NULL DEFAULT 0,
	created_at         INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_fit_runs_airfoil ON fit_runs(airfoil, side, created_at DESC);
`

// Open opens (creating if necessary) a fit run database at path. Use
// ":memory:" for an ephemeral store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open fit database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure fit_runs schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// Insert persists a fit run. If RunID is empty, a UUID is generated; if
// CreatedAt is zero, the current time is used.
func (s *Store) Insert(run *FitRun) error {
	if run.RunID == "" {
		run.RunID = uuid.New().String()
	}
	if run.CreatedAt == 0 {
		run.CreatedAt = time.Now().UnixNano()
	}

	var paramsStr interface{}
	if len(run.ParamsJSON) > 0 {
		paramsStr = string(run.ParamsJSON)
	}

	err := retryOnBusy(func() error {
		_, err := s.db.Exec(`
			INSERT INTO fit_runs (
				run_id, airfoil, side, num_control_points, params_json,
				deviation, curv_le, curv_te, n_evaluations, n_iterations,
				cancelled, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			run.RunID, run.Airfoil, run.Side, run.NumControlPoints, paramsStr,
			run.Deviation, run.CurvLE, run.CurvTE, run.NEvaluations, run.NIterations,
			boolToInt(run.Cancelled), run.CreatedAt,
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("inserting fit run %s: %w", run.RunID, err)
	}
	return nil
}

// Get returns a single fit run by ID.
func (s *Store) Get(runID string) (*FitRun, error) {
	row := s.db.QueryRow(selectColumns+` FROM fit_runs WHERE run_id = ?`, runID)
	run, err := scanFitRun(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("fit run %s not found", runID)
	}
	if err != nil {
		return nil, fmt.Errorf("get fit run %s: %w", runID, err)
	}
	return run, nil
}

// ListByAirfoil returns all runs for an airfoil, newest first.
func (s *Store) ListByAirfoil(airfoil string) ([]*FitRun, error) {
	rows, err := s.db.Query(selectColumns+`
		FROM fit_runs WHERE airfoil = ? ORDER BY created_at DESC`, airfoil)
	if err != nil {
		return nil, fmt.Errorf("query fit runs: %w", err)
	}
	defer rows.Close()

	var runs []*FitRun
	for rows.Next() {
		run, err := scanFitRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Best returns the run with the lowest deviation for an airfoil side.
func (s *Store) Best(airfoil, side string) (*FitRun, error) {
	row := s.db.QueryRow(selectColumns+`
		FROM fit_runs WHERE airfoil = ? AND side = ?
		ORDER BY deviation ASC LIMIT 1`, airfoil, side)
	run, err := scanFitRun(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("no fit runs for %s/%s", airfoil, side)
	}
	if err != nil {
		return nil, fmt.Errorf("best fit run for %s/%s: %w", airfoil, side, err)
	}
	return run, nil
}

const selectColumns = `
	SELECT run_id, airfoil, side, num_control_points, params_json,
	       deviation, curv_le, curv_te, n_evaluations, n_iterations,
	       cancelled, created_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanFitRun(row rowScanner) (*FitRun, error) {
	var (
		run       FitRun
		paramsStr sql.NullString
		cancelled int
	)
	err := row.Scan(
		&run.RunID, &run.Airfoil, &run.Side, &run.NumControlPoints, &paramsStr,
		&run.Deviation, &run.CurvLE, &run.CurvTE, &run.NEvaluations, &run.NIterations,
		&cancelled, &run.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if paramsStr.Valid {
		run.ParamsJSON = json.RawMessage(paramsStr.String)
	}
	run.Cancelled = cancelled != 0
	return &run, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// isSQLiteBusy reports whether err is a transient SQLITE_BUSY condition
// worth retrying.
func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

// retryOnBusy retries fn with short backoff while it fails with a busy
// error, up to a small fixed attempt count.
func retryOnBusy(fn func() error) error {
	const maxAttempts = 5
	var err error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		err = fn()
		if !isSQLiteBusy(err) {
			return err
		}
		time.Sleep(time.Duration(attempt+1) * 10 * time.Millisecond)
	}
	return err
}
