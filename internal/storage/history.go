package storage

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/claude/planform/internal/models"
	"github.com/google/uuid"
)

// PlanRecord is one applied plan submission.
type PlanRecord struct {
	ID            int64                `json:"id"`
	SessionID     uuid.UUID            `json:"session_id"`
	Login         string               `json:"login,omitempty"`
	Seq           uint64               `json:"seq"`
	Selection     models.FormSelection `json:"selection"`
	DayCount      int                  `json:"day_count"`
	ExerciseCount int                  `json:"exercise_count"`
	Plan          json.RawMessage      `json:"plan"`
	CreatedAt     time.Time            `json:"created_at"`
}

// NewPlanRecord builds a record for an applied plan.
func NewPlanRecord(sessionID uuid.UUID, seq uint64, sel models.FormSelection, plan *models.WorkoutPlan, at time.Time) (PlanRecord, error) {
	data, err := json.Marshal(plan)
	if err != nil {
		return PlanRecord{}, fmt.Errorf("encoding plan: %w", err)
	}
	return PlanRecord{
		SessionID:     sessionID,
		Seq:           seq,
		Selection:     sel,
		DayCount:      len(plan.Days),
		ExerciseCount: plan.ExerciseCount(),
		Plan:          data,
		CreatedAt:     at.UTC(),
	}, nil
}

// DecodePlan parses the stored plan body.
func (r PlanRecord) DecodePlan() (*models.WorkoutPlan, error) {
	var plan models.WorkoutPlan
	if err := json.Unmarshal(r.Plan, &plan); err != nil {
		return nil, fmt.Errorf("decoding stored plan %d: %w", r.ID, err)
	}
	return &plan, nil
}
