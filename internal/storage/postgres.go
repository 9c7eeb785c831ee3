package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore keeps plan history in PostgreSQL.
type PostgresStore struct {
	Pool *pgxpool.Pool
}

var _ Store = (*PostgresStore)(nil)

// OpenPostgres creates a connection pool and checks it.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("creating pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return &PostgresStore{Pool: pool}, nil
}

// RecordPlan inserts a history row and returns its ID.
func (s *PostgresStore) RecordPlan(ctx context.Context, rec PlanRecord) (int64, error) {
	var id int64
	err := s.Pool.QueryRow(ctx,
		`INSERT INTO plan_history (session_id, login, seq, focus, subcategory, access, days,
		 day_count, exercise_count, plan_json, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10::json, COALESCE($11, now()))
		 RETURNING id`,
		rec.SessionID, rec.Login, int64(rec.Seq),
		rec.Selection.Focus, rec.Selection.Subcategory, rec.Selection.Access, rec.Selection.Days,
		rec.DayCount, rec.ExerciseCount, string(rec.Plan), nullTime(rec),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("inserting plan history: %w", err)
	}
	return id, nil
}

// RecentPlans returns the newest history rows first.
func (s *PostgresStore) RecentPlans(ctx context.Context, limit int) ([]PlanRecord, error) {
	rows, err := s.Pool.Query(ctx,
		`SELECT id, session_id::text, login, seq, focus, subcategory, access, days,
		 day_count, exercise_count, plan_json::text, created_at
		 FROM plan_history
		 ORDER BY id DESC
		 LIMIT $1`,
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
		)
		if err := rows.Scan(&r.ID, &sessionID, &r.Login, &seq,
			&r.Selection.Focus, &r.Selection.Subcategory, &r.Selection.Access, &r.Selection.Days,
			&r.DayCount, &r.ExerciseCount, &plan, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning plan history: %w", err)
		}
		if r.SessionID, err = uuid.Parse(sessionID); err != nil {
			return nil, fmt.Errorf("plan history %d: session id: %w", r.ID, err)
		}
		r.Seq = uint64(seq)
		r.Plan = []byte(plan)
		result = append(result, r)
	}
	return result, rows.Err()
}

// Close closes the connection pool.
func (s *PostgresStore) Close() error {
	s.Pool.Close()
	return nil
}

func nullTime(rec PlanRecord) any {
	if rec.CreatedAt.IsZero() {
		return nil
	}
	return rec.CreatedAt
}
