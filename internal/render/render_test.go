package render

import (
	"bytes"
	"strings"
	"testing"

	"github.com/claude/planform/internal/controller"
	"github.com/claude/planform/internal/models"
)

func newRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return r
}

func benchPlan() *models.WorkoutPlan {
	return &models.WorkoutPlan{Days: []models.Day{{
		Name: "Day 1",
		Exercises: []models.Exercise{{
			Name: "Bench Press",
			Sets: models.Num("3"),
			Reps: models.Num("10"),
			Rest: models.Str("60s"),
		}},
	}}}
}

func renderPlan(t *testing.T, r *Renderer, plan *models.WorkoutPlan) string {
	t.Helper()
	var buf bytes.Buffer
	if err := r.Plan(&buf, plan); err != nil {
		t.Fatalf("Plan: %v", err)
	}
	return buf.String()
}

// TestPlanRendersDayAndExercise verifies a day heading and one list item carrying
// the name, sets, reps and rest.
func TestPlanRendersDayAndExercise(t *testing.T) {
	out := renderPlan(t, newRenderer(t), benchPlan())

	if !strings.Contains(out, "<h2>Day 1</h2>") {
		t.Errorf("missing day heading in %s", out)
	}
	if n := strings.Count(out, "<li>"); n != 1 {
		t.Errorf("got %d list items, want 1", n)
	}
	li := out[strings.Index(out, "<li>"):strings.Index(out, "</li>")]
	for _, want := range []string{"Bench Press", "3", "10", "60s"} {
		if !strings.Contains(li, want) {
			t.Errorf("list item %q missing %q", li, want)
		}
	}
}

// TestPlanRenderIsIdempotent verifies rendering the same plan twice gives the
// same output, so a re-render replaces rather than appends.
func TestPlanRenderIsIdempotent(t *testing.T) {
	r := newRenderer(t)
	first := renderPlan(t, r, benchPlan())
	second := renderPlan(t, r, benchPlan())
	if first != second {
		t.Errorf("renders differ:\n%s\n%s", first, second)
	}
}

// TestPlanKeepsDayOrder verifies days render in plan order.
func TestPlanKeepsDayOrder(t *testing.T) {
	plan := &models.WorkoutPlan{Days: []models.Day{
		{Name: "Day 2", Exercises: []models.Exercise{{Name: "Row"}}},
		{Name: "Day 1", Exercises: []models.Exercise{{Name: "Squat"}}},
	}}
	out := renderPlan(t, newRenderer(t), plan)
	if strings.Index(out, "Day 2") > strings.Index(out, "Day 1") {
		t.Errorf("day order not preserved: %s", out)
	}
	if strings.Contains(out, "&mdash;") {
		t.Errorf("plain exercises should have no details separator: %s", out)
	}
}

// TestPlanNil verifies an empty plan region renders nothing.
func TestPlanNil(t *testing.T) {
	if out := renderPlan(t, newRenderer(t), nil); out != "" {
		t.Errorf("nil plan rendered %q", out)
	}
}

// TestPlanEscapesText verifies exercise and day names cannot inject markup.
func TestPlanEscapesText(t *testing.T) {
	plan := &models.WorkoutPlan{Days: []models.Day{{
		Name:      "<b>Day</b>",
		Exercises: []models.Exercise{{Name: "<script>alert(1)</script>", Rest: models.Str("<i>")}},
	}}}
	out := renderPlan(t, newRenderer(t), plan)
	if strings.Contains(out, "<script>") || strings.Contains(out, "<b>") || strings.Contains(out, "<i>") {
		t.Errorf("unescaped markup in %s", out)
	}
}

// TestPlanLinksExercise verifies a safe URL wraps the name in a new-tab link and
// unsafe schemes fall back to plain text.
func TestPlanLinksExercise(t *testing.T) {
	r := newRenderer(t)

	safe := renderPlan(t, r, &models.WorkoutPlan{Days: []models.Day{{
		Name:      "Day 1",
		Exercises: []models.Exercise{{Name: "Bench Press", URL: "https://example.com/bench"}},
	}}})
	if !strings.Contains(safe, `href="https://example.com/bench"`) || !strings.Contains(safe, ">Bench Press</a>") {
		t.Errorf("expected link in %s", safe)
	}
	if !strings.Contains(safe, `target="_blank"`) {
		t.Errorf("expected new-tab link in %s", safe)
	}

	unsafe := renderPlan(t, r, &models.WorkoutPlan{Days: []models.Day{{
		Name:      "Day 1",
		Exercises: []models.Exercise{{Name: "Bench Press", URL: "javascript:alert(1)"}},
	}}})
	if strings.Contains(unsafe, "<a") || strings.Contains(unsafe, "javascript") {
		t.Errorf("unsafe link survived: %s", unsafe)
	}
	if !strings.Contains(unsafe, "Bench Press") {
		t.Errorf("name missing: %s", unsafe)
	}
}

// TestControlRendersOptions verifies the select markup: id, selected option and
// disabled placeholder.
func TestControlRendersOptions(t *testing.T) {
	r := newRenderer(t)
	var buf bytes.Buffer
	ctl := controller.Control{
		ID:       controller.SubcategoryID,
		Options:  []controller.Option{{Value: "mobility", Label: controller.NoSubcategoryLabel, Disabled: true}},
		Selected: "mobility",
		Disabled: true,
	}
	if err := r.Control(&buf, ctl); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	want := `<select id="subcategory" name="subcategory" disabled><option value="mobility" selected disabled>No subcategory</option></select>`
	if out != want {
		t.Errorf("Control =\n%s\nwant\n%s", out, want)
	}
}

// TestStatusRendersOnlyErrors verifies the status region is empty without an error.
func TestStatusRendersOnlyErrors(t *testing.T) {
	r := newRenderer(t)
	var buf bytes.Buffer
	if err := r.Status(&buf, controller.Status{}); err != nil {
		t.Fatal(err)
	}
	if buf.Len() != 0 {
		t.Errorf("empty status rendered %q", buf.String())
	}

	buf.Reset()
	if err := r.Status(&buf, controller.Status{Kind: controller.StatusError, Message: "down"}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "down") {
		t.Errorf("status = %q, want message", buf.String())
	}
}

// TestPageHasStableIDs verifies the page exposes every element id the script and
// markup rely on.
func TestPageHasStableIDs(t *testing.T) {
	r := newRenderer(t)
	snap := controller.Snapshot{
		Mode: controller.ModeDerived,
		Form: controller.Form{
			Focus:       controller.Control{ID: controller.FocusID, Options: []controller.Option{{Value: "strength", Label: "strength"}}, Selected: "strength"},
			Subcategory: controller.Control{ID: controller.SubcategoryID},
			Access:      controller.Control{ID: controller.AccessID},
			Days:        "3",
		},
		Plan: benchPlan(),
	}

	var buf bytes.Buffer
	if err := r.Page(&buf, PageFromSnapshot("", snap)); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, id := range []string{"focus", "subcategory", "access", "days", "plan", "workout-form"} {
		if !strings.Contains(out, `id="`+id+`"`) {
			t.Errorf("page missing id %q", id)
		}
	}
	if !strings.Contains(out, DefaultTitle) {
		t.Error("page missing default title")
	}
	if !strings.Contains(out, "<h2>Day 1</h2>") {
		t.Error("page missing plan")
	}
}
