package history

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/flare.report/internal/flare"
)

// Run represents a persisted flare evaluation of a single frame.
type Run struct {
	RunID           string          `json:"run_id"`
	SourceFile      string          `json:"source_file"`
	FRaw            float64         `json:"f_raw"`
	FNorm           float64         `json:"f_norm"`
	FFinal          float64         `json:"f_final"`
	FlareValue      float64         `json:"flare_value"`
	BackgroundCount int             `json:"background_pixel_count"`
	FlareCount      int             `json:"flare_pixel_count"`
	DirectCount     int             `json:"direct_illumination_pixel_count"`
	LightCount      int             `json:"light_pixel_count"`
	CoverageRatio   float64         `json:"coverage_ratio"`
	QualityGrade    string          `json:"quality_grade"`
	QualityIndex    float64         `json:"quality_index"`
	ParamsJSON      json.RawMessage `json:"params_json,omitempty"`
	CreatedAt       int64           `json:"created_at"`
}

// NewRun builds a Run record from an evaluation result. adv may be nil
// when postprocessing was skipped.
func NewRun(sourceFile string, res *flare.Result, adv *flare.AdvancedMetrics, params flare.Params) (*Run, error) {
	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("marshal params: %w", err)
	}

	run := &Run{
		SourceFile:      sourceFile,
		FRaw:            res.FRaw,
		FNorm:           res.FNorm,
		FFinal:          res.FFinal,
		FlareValue:      res.FlareValue,
		BackgroundCount: res.BackgroundCount,
		FlareCount:      res.FlareCount,
		DirectCount:     res.DirectCount,
		LightCount:      res.LightCount,
		CoverageRatio:   res.CoverageRatio,
		ParamsJSON:      paramsJSON,
	}
	if adv != nil {
		run.QualityGrade = adv.Quality.Grade
		run.QualityIndex = adv.Quality.QualityIndex
	}
	return run, nil
}

// RunStore provides persistence for flare evaluation runs.
type RunStore struct {
	db *sql.DB
}

// NewRunStore creates a new RunStore.
func NewRunStore(db *DB) *RunStore {
	return &RunStore{db: db.DB}
}

// Insert persists a new run. If RunID is empty, a UUID is generated.
func (s *RunStore) Insert(run *Run) error {
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

	return retryOnBusy(func() error {
		_, err := s.db.Exec(`
			INSERT INTO flare_runs (
				run_id, source_file,
				f_raw, f_norm, f_final, flare_value,
				background_pixel_count, flare_pixel_count,
				direct_pixel_count, light_pixel_count,
				coverage_ratio, quality_grade, quality_index,
				params_json, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			run.RunID, run.SourceFile,
			run.FRaw, run.FNorm, run.FFinal, run.FlareValue,
			run.BackgroundCount, run.FlareCount,
			run.DirectCount, run.LightCount,
			run.CoverageRatio, run.QualityGrade, run.QualityIndex,
			paramsStr, run.CreatedAt,
		)
		return err
	})
}

// Get returns a single run by ID.
func (s *RunStore) Get(runID string) (*Run, error) {
	row := s.db.QueryRow(runSelect+` WHERE run_id = ?`, runID)

	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run %s not found", runID)
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return run, nil
}

// ListRecent returns up to limit runs ordered by creation time
// descending. A limit of 0 or less defaults to 20.
func (s *RunStore) ListRecent(limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(runSelect+`
		ORDER BY created_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	return collectRuns(rows)
}

// ListBySource returns all runs for a given source file, newest first.
func (s *RunStore) ListBySource(sourceFile string) ([]*Run, error) {
	rows, err := s.db.Query(runSelect+`
		WHERE source_file = ?
		ORDER BY created_at DESC`, sourceFile)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	return collectRuns(rows)
}

const runSelect = `
	SELECT run_id, source_file,
	       f_raw, f_norm, f_final, flare_value,
	       background_pixel_count, flare_pixel_count,
	       direct_pixel_count, light_pixel_count,
	       coverage_ratio, quality_grade, quality_index,
	       params_json, created_at
	FROM flare_runs`

// scanner abstracts sql.Row and sql.Rows for scanRun.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row scanner) (*Run, error) {
	var r Run
	var paramsStr sql.NullString
	err := row.Scan(
		&r.RunID, &r.SourceFile,
		&r.FRaw, &r.FNorm, &r.FFinal, &r.FlareValue,
		&r.BackgroundCount, &r.FlareCount,
		&r.DirectCount, &r.LightCount,
		&r.CoverageRatio, &r.QualityGrade, &r.QualityIndex,
		&paramsStr, &r.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if paramsStr.Valid {
		r.ParamsJSON = json.RawMessage(paramsStr.String)
	}
	return &r, nil
}

func collectRuns(rows *sql.Rows) ([]*Run, error) {
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

// retryOnBusy retries fn a few times when SQLite reports a locked
// database. WAL mode makes this rare but concurrent batch writers can
// still collide on checkpoint.
func retryOnBusy(fn func() error) error {
	const attempts = 5
	var err error
	for i := 0; i < attempts; i++ {
		err = fn()
		if err == nil || !isBusy(err) {
			return err
		}
		time.Sleep(time.Duration(i+1) * 10 * time.Millisecond)
	}
	return err
}

func isBusy(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "SQLITE_BUSY")
}
