package sqlite

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrRunNotFound is returned when a run ID does not exist.
var ErrRunNotFound = errors.New("run not found")

// Run is one persisted simulation session.
type Run struct {
	RunID             string          `json:"run_id"`
	Seed              int64           `json:"seed"`
	ParamsJSON        json.RawMessage `json:"params_json,omitempty"`
	Width             int             `json:"width"`
	Height            int             `json:"height"`
	StartedUnixNanos  int64           `json:"started_unix_nanos"`
	FinishedUnixNanos int64           `json:"finished_unix_nanos,omitempty"`
	Steps             int             `json:"steps"`
	RMSE              float64         `json:"rmse"`
	Quality           string          `json:"quality,omitempty"`
}

// StepRecord is one row of a run's trace.
type StepRecord struct {
	Step       int     `json:"step"`
	TruthX     float64 `json:"truth_x"`
	TruthY     float64 `json:"truth_y"`
	TruthTheta float64 `json:"truth_theta"`
	BeliefX    float64 `json:"belief_x"`
	BeliefY    float64 `json:"belief_y"`
	PoseError  float64 `json:"pose_error"`
	Score      float64 `json:"score"`
	Corrected  bool    `json:"corrected"`
	KnownCells int     `json:"known_cells"`
}

// RunStore reads and writes runs.
type RunStore struct {
	db *sql.DB
}

// NewRunStore returns a RunStore over db.
func NewRunStore(db *sql.DB) *RunStore {
	return &RunStore{db: db}
}

// Start inserts run. An empty RunID is filled with a new UUID and a zero
// StartedUnixNanos with the current time.
func (s *RunStore) Start(run *Run) error {
	if run.RunID == "" {
		run.RunID = uuid.New().String()
	}
	if run.StartedUnixNanos == 0 {
		run.StartedUnixNanos = time.Now().UnixNano()
	}

	var paramsStr interface{}
	if len(run.ParamsJSON) > 0 {
		paramsStr = string(run.ParamsJSON)
	}

	return retryOnBusy(func() error {
		_, err := s.db.Exec(`
			INSERT INTO runs (run_id, seed, params_json, width, height, started_unix_nanos)
			VALUES (?, ?, ?, ?, ?, ?)`,
			run.RunID, run.Seed, paramsStr, run.Width, run.Height, run.StartedUnixNanos,
		)
		return err
	})
}

// RecordSteps appends trace rows for runID in one transaction.
func (s *RunStore) RecordSteps(runID string, steps []StepRecord) error {
	if len(steps) == 0 {
		return nil
	}
	return retryOnBusy(func() error {
		tx, err := s.db.Begin()
		if err != nil {
			return err
		}
		defer tx.Rollback()

		stmt, err := tx.Prepare(`
			INSERT INTO run_steps (
				run_id, step, truth_x, truth_y, truth_theta,
				belief_x, belief_y, pose_error, score, corrected, known_cells
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, st := range steps {
			if _, err := stmt.Exec(
				runID, st.Step, st.TruthX, st.TruthY, st.TruthTheta,
				st.BeliefX, st.BeliefY, st.PoseError, st.Score, st.Corrected, st.KnownCells,
			); err != nil {
				return fmt.Errorf("insert step %d: %w", st.Step, err)
			}
		}
		return tx.Commit()
	})
}

// Finish stamps the run's end time and summary.
func (s *RunStore) Finish(runID string, steps int, rmse float64, quality string) error {
	return retryOnBusy(func() error {
		res, err := s.db.Exec(`
			UPDATE runs
			SET finished_unix_nanos = ?, steps = ?, rmse = ?, quality = ?
			WHERE run_id = ?`,
			time.Now().UnixNano(), steps, rmse, quality, runID,
		)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil
	})
}

const runColumns = `run_id, seed, params_json, width, height, started_unix_nanos,
	finished_unix_nanos, steps, rmse, quality`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*Run, error) {
	var (
		r        Run
		params   sql.NullString
		finished sql.NullInt64
		rmse     sql.NullFloat64
		quality  sql.NullString
	)
	if err := row.Scan(&r.RunID, &r.Seed, &params, &r.Width, &r.Height, &r.StartedUnixNanos,
		&finished, &r.Steps, &rmse, &quality); err != nil {
		return nil, err
	}
	if params.Valid {
		r.ParamsJSON = json.RawMessage(params.String)
	}
	r.FinishedUnixNanos = finished.Int64
	r.RMSE = rmse.Float64
	r.Quality = quality.String
	return &r, nil
}

// Get returns one run.
func (s *RunStore) Get(runID string) (*Run, error) {
	row := s.db.QueryRow(`SELECT `+runColumns+` FROM runs WHERE run_id = ?`, runID)
	r, err := scanRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, fmt.Errorf("scan run: %w", err)
	}
	return r, nil
}

// List returns the most recent runs first, at most limit (all when
// limit <= 0).
func (s *RunStore) List(limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.Query(`SELECT `+runColumns+` FROM runs ORDER BY started_unix_nanos DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Steps returns the trace of runID in step order.
func (s *RunStore) Steps(runID string) ([]StepRecord, error) {
	rows, err := s.db.Query(`
		SELECT step, truth_x, truth_y, truth_theta, belief_x, belief_y,
		       pose_error, score, corrected, known_cells
		FROM run_steps
		WHERE run_id = ?
		ORDER BY step`, runID)
	if err != nil {
		return nil, fmt.Errorf("query steps: %w", err)
	}
	defer rows.Close()

	var out []StepRecord
	for rows.Next() {
		var st StepRecord
		var score sql.NullFloat64
		if err := rows.Scan(&st.Step, &st.TruthX, &st.TruthY, &st.TruthTheta, &st.BeliefX, &st.BeliefY,
			&st.PoseError, &score, &st.Corrected, &st.KnownCells); err != nil {
			return nil, fmt.Errorf("scan step: %w", err)
		}
		st.Score = score.Float64
		out = append(out, st)
	}
	return out, rows.Err()
}
