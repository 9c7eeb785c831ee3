package mcp

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/claude/planform/internal/controller"
	"github.com/claude/planform/internal/models"
	"github.com/claude/planform/internal/storage"
	"github.com/google/uuid"
)

// ErrHistoryDisabled is returned when no plan history is available.
var ErrHistoryDisabled = errors.New("plan history is disabled")

// DataSource abstracts where MCP tools get their data. Local (direct upstream
// plus optional database) and HTTPClient (a running planform server) satisfy it.
type DataSource interface {
	Options(ctx context.Context) (*controller.CatalogView, error)
	GeneratePlan(ctx context.Context, sel models.FormSelection) (*controller.Submission, error)
	RecentPlans(ctx context.Context, limit int) ([]storage.PlanRecord, error)
}

// Local talks to the upstream backend directly. History is optional.
type Local struct {
	Source  controller.Source
	Mode    controller.Mode
	History storage.Store
	Log     *slog.Logger
}

// Compile-time check: Local satisfies DataSource.
var _ DataSource = (*Local)(nil)

func (l *Local) Options(ctx context.Context) (*controller.CatalogView, error) {
	return controller.DescribeCatalog(ctx, l.Source, l.Mode)
}

// GeneratePlan submits once and, when history is configured, records the result
// under a fresh session id.
func (l *Local) GeneratePlan(ctx context.Context, sel models.FormSelection) (*controller.Submission, error) {
	sub, err := controller.Generate(ctx, l.Source, l.Mode, sel, l.Log)
	if err != nil {
		return nil, err
	}
	if l.History != nil {
		rec, err := storage.NewPlanRecord(uuid.New(), sub.Seq, sub.Selection, sub.Plan, time.Now())
		if err == nil {
			rec.Login = "mcp"
			_, err = l.History.RecordPlan(ctx, rec)
		}
		if err != nil {
			l.Log.Warn("failed to record plan", "error", err)
		}
	}
	return sub, nil
}

func (l *Local) RecentPlans(ctx context.Context, limit int) ([]storage.PlanRecord, error) {
	if l.History == nil {
		return nil, ErrHistoryDisabled
	}
	return l.History.RecentPlans(ctx, limit)
}
