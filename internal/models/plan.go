package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Scalar is a plan value that upstream sends either as a JSON string ("60s") or a
// JSON number (3). The literal text is kept so it renders exactly as received.
type Scalar struct {
	Text    string
	Numeric bool
}

// Str returns a string-valued Scalar.
func Str(s string) Scalar { return Scalar{Text: s} }

// Num returns a number-valued Scalar from its literal JSON text.
func Num(s string) Scalar { return Scalar{Text: s, Numeric: true} }

func (s Scalar) String() string { return s.Text }

// IsZero reports whether the value was absent or null.
func (s Scalar) IsZero() bool { return s.Text == "" && !s.Numeric }

func (s *Scalar) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || string(data) == "null":
		*s = Scalar{}
	case data[0] == '"':
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = Str(str)
	case data[0] == '{' || data[0] == '[':
		return fmt.Errorf("scalar: unexpected %s", data[:1])
	default:
		// numbers and booleans keep their literal form
		*s = Num(string(data))
	}
	return nil
}

func (s Scalar) MarshalJSON() ([]byte, error) {
	if s.Numeric && json.Valid([]byte(s.Text)) {
		return []byte(s.Text), nil
	}
	return json.Marshal(s.Text)
}

// Exercise is one entry of a plan day. Upstream sends either a bare string (the
// exercise name) or an object carrying sets, reps, rest and an optional url.
type Exercise struct {
	Name string `json:"exercise"`
	Sets Scalar `json:"sets,omitzero"`
	Reps Scalar `json:"reps,omitzero"`
	Rest Scalar `json:"rest,omitzero"`
	URL  string `json:"url,omitempty"`
}

type exerciseObject Exercise

func (e *Exercise) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var name string
		if err := json.Unmarshal(data, &name); err != nil {
			return err
		}
		*e = Exercise{Name: name}
		return nil
	}
	var obj exerciseObject
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("exercise: %w", err)
	}
	*e = Exercise(obj)
	return nil
}

// Details formats sets, reps and rest, skipping absent values:
// "Sets: 3, Reps: 10, Rest: 60s".
func (e Exercise) Details() string {
	var parts []string
	for _, f := range []struct {
		label string
		v     Scalar
	}{{"Sets", e.Sets}, {"Reps", e.Reps}, {"Rest", e.Rest}} {
		if !f.v.IsZero() {
			parts = append(parts, f.label+": "+f.v.Text)
		}
	}
	return strings.Join(parts, ", ")
}

// Day is one named block of a plan.
type Day struct {
	Name      string     `json:"name"`
	Exercises []Exercise `json:"exercises"`
}

// WorkoutPlan is the /get_workouts response. Upstream sends a JSON object keyed by
// day name; Days keeps the keys in the order they appeared in the body.
type WorkoutPlan struct {
	Days []Day
}

// ExerciseCount returns the number of exercises across all days.
func (p *WorkoutPlan) ExerciseCount() int {
	n := 0
	for _, d := range p.Days {
		n += len(d.Exercises)
	}
	return n
}

// Clone returns a deep copy.
func (p *WorkoutPlan) Clone() *WorkoutPlan {
	if p == nil {
		return nil
	}
	out := &WorkoutPlan{Days: make([]Day, len(p.Days))}
	for i, d := range p.Days {
		out.Days[i] = Day{Name: d.Name, Exercises: append([]Exercise(nil), d.Exercises...)}
	}
	return out
}

func (p *WorkoutPlan) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("plan: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("plan: expected object, got %v", tok)
	}

	var days []Day
	pos := make(map[string]int)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("plan: %w", err)
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("plan: expected day name, got %v", tok)
		}

		var exercises []Exercise
		if err := dec.Decode(&exercises); err != nil {
			return fmt.Errorf("plan: day %q: %w", name, err)
		}
		if exercises == nil {
			exercises = []Exercise{}
		}

		// A repeated key keeps its first position and its last value.
		if i, dup := pos[name]; dup {
			days[i].Exercises = exercises
			continue
		}
		pos[name] = len(days)
		days = append(days, Day{Name: name, Exercises: exercises})
	}
	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("plan: %w", err)
	}

	p.Days = days
	return nil
}

func (p WorkoutPlan) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, d := range p.Days {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(d.Name)
		if err != nil {
			return nil, err
		}
		exercises := d.Exercises
		if exercises == nil {
			exercises = []Exercise{}
		}
		val, err := json.Marshal(exercises)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
