// Package render turns controller state into the HTML the form page is built from.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/claude/planform/internal/controller"
	"github.com/claude/planform/internal/models"
)

//go:embed templates/*.html
var templateFS embed.FS

// DefaultTitle is the page heading used when none is configured.
const DefaultTitle = "Workout Planner"

// PageData is the input to the full page template.
type PageData struct {
	Title  string
	Mode   controller.Mode
	Form   controller.Form
	Status controller.Status
	Plan   *models.WorkoutPlan
}

// PageFromSnapshot builds page data from a controller snapshot.
func PageFromSnapshot(title string, snap controller.Snapshot) PageData {
	if title == "" {
		title = DefaultTitle
	}
	return PageData{
		Title:  title,
		Mode:   snap.Mode,
		Form:   snap.Form,
		Status: snap.Status,
		Plan:   snap.Plan,
	}
}

// Renderer executes the embedded templates. It is safe for concurrent use.
type Renderer struct {
	tmpl  *template.Template
	links *linkSanitizer
}

// New parses the embedded templates.
func New() (*Renderer, error) {
	links := newLinkSanitizer()
	tmpl, err := template.New("planform").
		Funcs(template.FuncMap{"exercise": links.exerciseHTML}).
		ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}
	return &Renderer{tmpl: tmpl, links: links}, nil
}

// Page writes the full HTML document.
func (r *Renderer) Page(w io.Writer, data PageData) error {
	return r.execute(w, "page", data)
}

// Control writes a single <select> element.
func (r *Renderer) Control(w io.Writer, ctl controller.Control) error {
	return r.execute(w, "select", ctl)
}

// Plan writes the contents of the plan region: one section per day, in order.
// A nil plan renders nothing.
func (r *Renderer) Plan(w io.Writer, plan *models.WorkoutPlan) error {
	return r.execute(w, "plan", plan)
}

// Status writes the contents of the status region.
func (r *Renderer) Status(w io.Writer, st controller.Status) error {
	return r.execute(w, "status", st)
}

// execute renders into a buffer first so a template error never leaves a
// half-written response.
func (r *Renderer) execute(w io.Writer, name string, data any) error {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return fmt.Errorf("rendering %s: %w", name, err)
	}
	_, err := buf.WriteTo(w)
	return err
}
