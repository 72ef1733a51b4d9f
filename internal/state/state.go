// Package state persists build and cohort-run history in SQLite.
package state

import (
	"crypto/sha256"
	"database/sql"
	_ "embed"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// Build statuses.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// Build is one recorded compile run.
type Build struct {
	ID         string
	InputPath  string
	InputHash  string
	Species    int
	Reactions  int
	Parameters int
	Status     string
	Error      string
	CreatedAt  time.Time
}

// CohortRun is one recorded per-patient result.
type CohortRun struct {
	ID         string
	BuildID    string
	Patient    string
	Status     string
	Error      string
	Duration   time.Duration
	FinishedAt time.Time
}

// Store records textode runs in a SQLite database.
type Store struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// New creates an unopened Store.
func New(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Store{logger: logger}
}

// Open opens the database at path. Use ":memory:" for an in-memory store.
func (s *Store) Open(path string) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("opening state database: %w", err)
	}
	// A second pooled connection would see a distinct, empty in-memory
	// database; a single connection also serializes file-mode writers.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return fmt.Errorf("pinging state database: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return fmt.Errorf("enabling foreign keys: %w", err)
	}
	s.db = db
	s.path = path
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// InitSchema creates the tables if they do not exist.
func (s *Store) InitSchema() error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}
	if _, err := s.db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("initializing schema: %w", err)
	}
	return nil
}

// HashInput returns the content hash recorded with each build.
func HashInput(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// RecordBuild inserts a build record and returns its generated ID.
func (s *Store) RecordBuild(b Build) (string, error) {
	if s.db == nil {
		return "", fmt.Errorf("database not opened")
	}
	b.ID = uuid.New().String()
	b.CreatedAt = time.Now().UTC()

	s.logger.Debug("recording build", slog.String("id", b.ID), slog.String("status", b.Status))

	_, err := s.db.Exec(
		`INSERT INTO builds (id, input_path, input_hash, species, reactions, parameters, status, error, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.InputPath, b.InputHash, b.Species, b.Reactions, b.Parameters, b.Status, b.Error, b.CreatedAt,
	)
	if err != nil {
		return "", fmt.Errorf("recording build: %w", err)
	}
	return b.ID, nil
}

// ListBuilds returns up to limit builds, most recent first.
func (s *Store) ListBuilds(limit int) ([]Build, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}
	rows, err := s.db.Query(
		`SELECT id, input_path, input_hash, species, reactions, parameters, status, error, created_at
		 FROM builds ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing builds: %w", err)
	}
	defer rows.Close()

	var builds []Build
	for rows.Next() {
		var b Build
		if err := rows.Scan(&b.ID, &b.InputPath, &b.InputHash, &b.Species, &b.Reactions,
			&b.Parameters, &b.Status, &b.Error, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning build: %w", err)
		}
		builds = append(builds, b)
	}
	return builds, rows.Err()
}

// RecordCohortRun inserts one patient result for a build.
func (s *Store) RecordCohortRun(r CohortRun) (string, error) {
	if s.db == nil {
		return "", fmt.Errorf("database not opened")
	}
	r.ID = uuid.New().String()
	r.FinishedAt = time.Now().UTC()

	_, err := s.db.Exec(
		`INSERT INTO cohort_runs (id, build_id, patient, status, error, duration_ms, finished_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.BuildID, r.Patient, r.Status, r.Error, r.Duration.Milliseconds(), r.FinishedAt,
	)
	if err != nil {
		return "", fmt.Errorf("recording cohort run: %w", err)
	}
	return r.ID, nil
}

// ListCohortRuns returns the patient results recorded for a build, in
// insertion order.
func (s *Store) ListCohortRuns(buildID string) ([]CohortRun, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}
	rows, err := s.db.Query(
		`SELECT id, build_id, patient, status, error, duration_ms, finished_at
		 FROM cohort_runs WHERE build_id = ? ORDER BY rowid`, buildID)
	if err != nil {
		return nil, fmt.Errorf("listing cohort runs: %w", err)
	}
	defer rows.Close()

	var runs []CohortRun
	for rows.Next() {
		var (
			r  CohortRun
			ms int64
		)
		if err := rows.Scan(&r.ID, &r.BuildID, &r.Patient, &r.Status, &r.Error, &ms, &r.FinishedAt); err != nil {
			return nil, fmt.Errorf("scanning cohort run: %w", err)
		}
		r.Duration = time.Duration(ms) * time.Millisecond
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
