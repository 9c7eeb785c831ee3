// Package controller holds the state and behavior of the workout form: option
// loading, subcategory refresh on focus change, and plan submission.
package controller

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/claude/planform/internal/models"
)

// DefaultDays is the day count the form starts with.
const DefaultDays = "3"

// Mode selects how the subcategory control is filled.
type Mode string

const (
	// ModeDerived indexes "focus-sub" tags and shows only the chosen focus's
	// subcategories, with a disabled placeholder when there are none.
	ModeDerived Mode = "derived"
	// ModeIndependent lists every catalog subcategory regardless of focus.
	ModeIndependent Mode = "independent"
)

// ParseMode validates a configured mode. Empty means ModeDerived.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeDerived:
		return ModeDerived, nil
	case ModeIndependent:
		return ModeIndependent, nil
	}
	return "", fmt.Errorf("unknown subcategory mode %q (want %q or %q)", s, ModeDerived, ModeIndependent)
}

// Source is the backend the controller reads from. *upstream.Client satisfies it.
type Source interface {
	FetchOptions(ctx context.Context) (*models.OptionCatalog, error)
	FetchPlan(ctx context.Context, sel models.FormSelection) (*models.WorkoutPlan, error)
}

// Submission is the applied result of a successful Submit.
type Submission struct {
	Seq       uint64               `json:"seq"`
	Selection models.FormSelection `json:"selection"`
	Plan      *models.WorkoutPlan  `json:"plan"`
}

// Snapshot is a copy of the controller state at one instant.
type Snapshot struct {
	Mode    Mode                `json:"mode"`
	Ready   bool                `json:"ready"`
	Form    Form                `json:"form"`
	Plan    *models.WorkoutPlan `json:"-"`
	Status  Status              `json:"status"`
	Applied uint64              `json:"applied_seq"`
}

// Controller owns one form. It is safe for concurrent use; overlapping
// submissions are resolved so that only the newest response is applied.
type Controller struct {
	src  Source
	mode Mode
	log  *slog.Logger

	seq atomic.Uint64

	mu      sync.Mutex
	catalog *models.OptionCatalog
	index   *models.SubcategoryIndex
	form    Form
	plan    *models.WorkoutPlan
	status  Status
	applied uint64
}

// New creates a Controller with empty controls.
func New(src Source, mode Mode, log *slog.Logger) *Controller {
	return &Controller{
		src:  src,
		mode: mode,
		log:  log,
		form: newForm(),
	}
}

// Mode returns the subcategory mode.
func (c *Controller) Mode() Mode { return c.mode }

// Initialize loads the option catalog and resets the form to a freshly populated
// state. On failure the controls are left as they were and the status shows the error.
func (c *Controller) Initialize(ctx context.Context) error {
	catalog, err := c.src.FetchOptions(ctx)
	if err != nil {
		c.fail("initialize", err)
		return fmt.Errorf("loading options: %w", err)
	}

	var idx *models.SubcategoryIndex
	if c.mode == ModeDerived {
		idx, err = models.BuildSubcategoryIndex(catalog.Subcategory)
		if err != nil {
			c.fail("initialize", err)
			return fmt.Errorf("indexing subcategories: %w", err)
		}
	}

	form := newForm()
	form.Days = DefaultDays
	form.Focus.Options = plainOptions(catalog.Focus)
	form.Access.Options = plainOptions(catalog.Access)
	if c.mode == ModeIndependent {
		form.Subcategory.Options = plainOptions(catalog.Subcategory)
	}
	for _, ctl := range []*Control{&form.Focus, &form.Subcategory, &form.Access} {
		if len(ctl.Options) > 0 {
			ctl.Selected = ctl.Options[0].Value
		}
	}
	if c.mode == ModeDerived {
		// the preselected focus gets its subcategories right away
		form.Subcategory = initialSubcategory(idx, form.Focus.Selected)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.catalog = catalog
	c.index = idx
	c.form = form
	c.plan = nil
	c.status = Status{}

	c.log.Debug("options loaded",
		"mode", c.mode,
		"focus", len(catalog.Focus),
		"subcategory", len(catalog.Subcategory),
		"access", len(catalog.Access),
		"indexed_focus", idx.Len(),
	)
	return nil
}

// FocusChanged records the chosen focus and, in derived mode, rebuilds the
// subcategory control from the current index. It returns the subcategory control.
func (c *Controller) FocusChanged(focus string) Control {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.form.Focus.Selected = focus
	if c.mode == ModeDerived {
		c.form.Subcategory = subcategoryControl(c.index, focus)
	}
	return c.form.Subcategory.clone()
}

// Submit requests a plan for sel. The plan replaces the current one only if no
// newer submission has started meanwhile; otherwise ErrStaleResponse is returned.
func (c *Controller) Submit(ctx context.Context, sel models.FormSelection) (*Submission, error) {
	// seq is taken under mu so form writes land in submission order
	c.mu.Lock()
	seq := c.seq.Add(1)
	c.form.Focus.Selected = sel.Focus
	c.form.Subcategory.Selected = sel.Subcategory
	c.form.Access.Selected = sel.Access
	c.form.Days = sel.Days
	c.mu.Unlock()

	plan, err := c.src.FetchPlan(ctx, sel)

	c.mu.Lock()
	defer c.mu.Unlock()

	if latest := c.seq.Load(); seq != latest {
		c.log.Debug("dropping stale plan response", "seq", seq, "latest", latest)
		return nil, fmt.Errorf("%w: submission %d, latest %d", ErrStaleResponse, seq, latest)
	}
	if err != nil {
		c.status = StatusFor(err)
		c.log.Warn("plan request failed", "seq", seq, "error", err)
		return nil, fmt.Errorf("loading plan: %w", err)
	}

	c.plan = plan
	c.applied = seq
	c.status = Status{}
	c.log.Debug("plan applied", "seq", seq, "days", len(plan.Days), "exercises", plan.ExerciseCount())

	return &Submission{Seq: seq, Selection: sel, Plan: plan.Clone()}, nil
}

// Snapshot returns a deep copy of the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		Mode:    c.mode,
		Ready:   c.catalog != nil,
		Form:    c.form.clone(),
		Plan:    c.plan.Clone(),
		Status:  c.status,
		Applied: c.applied,
	}
}

// Catalog returns the last loaded catalog and its subcategory index. Both are
// nil before a successful Initialize; the index is nil in independent mode.
func (c *Controller) Catalog() (*models.OptionCatalog, *models.SubcategoryIndex) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.catalog, c.index
}

func (c *Controller) fail(op string, err error) {
	c.mu.Lock()
	c.status = StatusFor(err)
	c.mu.Unlock()
	c.log.Warn(op+" failed", "error", err)
}
