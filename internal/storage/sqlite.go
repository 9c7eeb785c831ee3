package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLiteStore keeps plan history in a local SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// OpenSQLite opens (or creates) the database at path. Migrations must already
// have been applied with RunMigrations.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database dir %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}
	// one writer avoids SQLITE_BUSY between concurrent requests
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite db: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// RecordPlan inserts a history row and returns its ID.
func (s *SQLiteStore) RecordPlan(ctx context.Context, rec PlanRecord) (int64, error) {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO plan_history (session_id, login, seq, focus, subcategory, access, days,
		 day_count, exercise_count, plan_json, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.SessionID.String(), rec.Login, int64(rec.Seq),
		rec.Selection.Focus, rec.Selection.Subcategory, rec.Selection.Access, rec.Selection.Days,
		rec.DayCount, rec.ExerciseCount, string(rec.Plan),
		rec.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("inserting plan history: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading plan history id: %w", err)
	}
	return id, nil
}

// RecentPlans returns the newest history rows first.
func (s *SQLiteStore) RecentPlans(ctx context.Context, limit int) ([]PlanRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, login, seq, focus, subcategory, access, days,
		 day_count, exercise_count, plan_json, created_at
		 FROM plan_history
		 ORDER BY id DESC
		 LIMIT ?`,
		normalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("querying plan history: %w", err)
	}
	defer rows.Close()

	var result []PlanRecord
	for rows.Next() {
		var (
			r         PlanRecord
			sessionID string
			seq       int64
			plan      string
			createdAt string
		)
		if err := rows.Scan(&r.ID, &sessionID, &r.Login, &seq,
			&r.Selection.Focus, &r.Selection.Subcategory, &r.Selection.Access, &r.Selection.Days,
			&r.DayCount, &r.ExerciseCount, &plan, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning plan history: %w", err)
		}
		if r.SessionID, err = uuid.Parse(sessionID); err != nil {
			return nil, fmt.Errorf("plan history %d: session id: %w", r.ID, err)
		}
		if r.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, fmt.Errorf("plan history %d: created_at: %w", r.ID, err)
		}
		r.Seq = uint64(seq)
		r.Plan = []byte(plan)
		result = append(result, r)
	}
	return result, rows.Err()
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
