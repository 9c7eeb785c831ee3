package models

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// TestWorkoutPlanUnmarshalKeepsOrder verifies days come back in body order rather
// than Go's randomized map order.
func TestWorkoutPlanUnmarshalKeepsOrder(t *testing.T) {
	raw := `{"Day 3":[],"Day 1":["Squat"],"Day 2":["Row","Plank"]}`
	var p WorkoutPlan
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}

	var names []string
	for _, d := range p.Days {
		names = append(names, d.Name)
	}
	if diff := cmp.Diff([]string{"Day 3", "Day 1", "Day 2"}, names); diff != "" {
		t.Errorf("day order mismatch (-want +got):\n%s", diff)
	}
	if p.ExerciseCount() != 3 {
		t.Errorf("ExerciseCount = %d, want 3", p.ExerciseCount())
	}
	if p.Days[0].Exercises == nil {
		t.Error("empty day should decode to an empty, non-nil list")
	}
}

// TestWorkoutPlanUnmarshalRichExercise verifies object entries with mixed
// string and number fields keep their literal text.
func TestWorkoutPlanUnmarshalRichExercise(t *testing.T) {
	raw := `{"Day 1":[{"exercise":"Bench Press","sets":3,"reps":"8-10","rest":"60s","url":"https://example.com/bench"}]}`
	var p WorkoutPlan
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}

	want := Exercise{
		Name: "Bench Press",
		Sets: Num("3"),
		Reps: Str("8-10"),
		Rest: Str("60s"),
		URL:  "https://example.com/bench",
	}
	if diff := cmp.Diff(want, p.Days[0].Exercises[0]); diff != "" {
		t.Errorf("exercise mismatch (-want +got):\n%s", diff)
	}
	if got := want.Details(); got != "Sets: 3, Reps: 8-10, Rest: 60s" {
		t.Errorf("Details = %q", got)
	}
}

// TestWorkoutPlanUnmarshalDuplicateDay verifies a repeated key keeps its first
// position and its last value, matching how browsers read such objects.
func TestWorkoutPlanUnmarshalDuplicateDay(t *testing.T) {
	raw := `{"Day 1":["A"],"Day 2":["B"],"Day 1":["C"]}`
	var p WorkoutPlan
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}
	if len(p.Days) != 2 {
		t.Fatalf("got %d days, want 2", len(p.Days))
	}
	if p.Days[0].Name != "Day 1" || p.Days[0].Exercises[0].Name != "C" {
		t.Errorf("Days[0] = %+v, want Day 1 with C", p.Days[0])
	}
}

// TestWorkoutPlanUnmarshalRejectsNonObject verifies arrays, nulls and bad
// exercise shapes are reported as errors.
func TestWorkoutPlanUnmarshalRejectsNonObject(t *testing.T) {
	for _, raw := range []string{`[]`, `null`, `"plan"`, `{"Day 1":{"exercise":"x"}}`, `{"Day 1":[{"sets":{}}]}`} {
		var p WorkoutPlan
		if err := json.Unmarshal([]byte(raw), &p); err == nil {
			t.Errorf("Unmarshal(%s) expected error", raw)
		}
	}
}

// TestWorkoutPlanMarshalRoundTrip verifies the encoder writes days in order and
// numbers stay numbers.
func TestWorkoutPlanMarshalRoundTrip(t *testing.T) {
	p := &WorkoutPlan{Days: []Day{
		{Name: "Day 2", Exercises: []Exercise{{Name: "Row", Sets: Num("4")}}},
		{Name: "Day 1", Exercises: nil},
	}}
	data, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("marshal error: %v", err)
	}
	want := `{"Day 2":[{"exercise":"Row","sets":4}],"Day 1":[]}`
	if string(data) != want {
		t.Errorf("Marshal = %s, want %s", data, want)
	}
}

// TestExerciseDetailsPlain verifies a plain-string exercise has no details.
func TestExerciseDetailsPlain(t *testing.T) {
	var e Exercise
	if err := json.Unmarshal([]byte(`"Push-up"`), &e); err != nil {
		t.Fatal(err)
	}
	if e.Name != "Push-up" || e.Details() != "" {
		t.Errorf("got %+v details %q", e, e.Details())
	}
}

// TestWorkoutPlanClone verifies Clone does not share exercise slices.
func TestWorkoutPlanClone(t *testing.T) {
	p := &WorkoutPlan{Days: []Day{{Name: "Day 1", Exercises: []Exercise{{Name: "Squat"}}}}}
	c := p.Clone()
	c.Days[0].Exercises[0].Name = "Lunge"
	if p.Days[0].Exercises[0].Name != "Squat" {
		t.Error("Clone shares exercise storage with the original")
	}
	var nilPlan *WorkoutPlan
	if nilPlan.Clone() != nil {
		t.Error("Clone of nil should be nil")
	}
}
