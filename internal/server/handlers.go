package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/claude/planform/internal/controller"
	"github.com/claude/planform/internal/models"
	"github.com/claude/planform/internal/render"
	"github.com/claude/planform/internal/storage"
	"github.com/google/uuid"
)

const htmlContentType = "text/html; charset=utf-8"

// handleIndex renders the full page. Each load re-reads the catalog; a query
// carrying a selection is submitted so the form works without script.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromContext(r)
	status := http.StatusOK

	if err := sess.ctl.Initialize(r.Context()); err != nil {
		s.log.Error("initialize failed", "session", sess.id, "error", err)
		status = http.StatusBadGateway
	} else if q := r.URL.Query(); models.HasSelection(q) {
		sel := resolveSelection(sess.ctl, q)
		sub, err := sess.ctl.Submit(r.Context(), sel)
		switch {
		case err == nil:
			s.recordPlan(sess, userInfoFromContext(r), sub)
		case errors.Is(err, controller.ErrStaleResponse):
			// the newer request renders its own page
		default:
			status = http.StatusBadGateway
		}
	}

	data := render.PageFromSnapshot(s.opts.Title, sess.ctl.Snapshot())
	s.writeHTML(w, status, func(buf *bytes.Buffer) error { return s.render.Page(buf, data) })
}

func (s *Server) handleSubcategoryFragment(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromContext(r)
	if !s.ensureReady(w, r, sess) {
		return
	}
	ctl := sess.ctl.FocusChanged(r.URL.Query().Get(models.ParamFocus))
	s.writeHTML(w, http.StatusOK, func(buf *bytes.Buffer) error { return s.render.Control(buf, ctl) })
}

func (s *Server) handlePlanFragment(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromContext(r)
	q := r.URL.Query()
	// filling a missing subcategory needs the catalog
	if sess.ctl.Mode() == controller.ModeDerived && !q.Has(models.ParamSubcategory) && !s.ensureReady(w, r, sess) {
		return
	}
	sel := resolveSelection(sess.ctl, q)

	sub, err := sess.ctl.Submit(r.Context(), sel)
	switch {
	case errors.Is(err, controller.ErrStaleResponse):
		w.WriteHeader(http.StatusConflict)
		return
	case err != nil:
		st := sess.ctl.Snapshot().Status
		s.writeHTML(w, http.StatusBadGateway, func(buf *bytes.Buffer) error { return s.render.Status(buf, st) })
		return
	}

	s.recordPlan(sess, userInfoFromContext(r), sub)
	s.writeHTML(w, http.StatusOK, func(buf *bytes.Buffer) error { return s.render.Plan(buf, sub.Plan) })
}

func (s *Server) handleOptions(w http.ResponseWriter, r *http.Request) {
	view, err := controller.DescribeCatalog(r.Context(), s.src, s.opts.Mode)
	if err != nil {
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// handlePlan is the JSON counterpart of the plan fragment. It is not bound to a
// form session; each call gets its own history session id.
func (s *Server) handlePlan(w http.ResponseWriter, r *http.Request) {
	sel := models.SelectionFromQuery(r.URL.Query())
	if sel.Focus == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "focus parameter required"})
		return
	}
	sub, err := controller.Generate(r.Context(), s.src, s.opts.Mode, sel, s.log.With("component", "controller"))
	if err != nil {
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
		return
	}
	s.recordPlan(&session{id: uuid.New()}, userInfoFromContext(r), sub)
	writeJSON(w, http.StatusOK, sub)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "plan history is disabled"})
		return
	}
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	rows, err := s.history.RecentPlans(r.Context(), limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if rows == nil {
		rows = []storage.PlanRecord{}
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, userInfoFromContext(r))
}

// ensureReady loads the catalog for a session that has not loaded it yet. On
// failure it writes the status fragment and reports false.
func (s *Server) ensureReady(w http.ResponseWriter, r *http.Request, sess *session) bool {
	if sess.ctl.Snapshot().Ready {
		return true
	}
	if err := sess.ctl.Initialize(r.Context()); err != nil {
		st := sess.ctl.Snapshot().Status
		s.writeHTML(w, http.StatusBadGateway, func(buf *bytes.Buffer) error { return s.render.Status(buf, st) })
		return false
	}
	return true
}

// resolveSelection reads the submitted fields. Browsers omit disabled or empty
// selects, so in derived mode a missing subcategory takes the value the control
// shows for the chosen focus.
func resolveSelection(ctl *controller.Controller, q url.Values) models.FormSelection {
	sel := models.SelectionFromQuery(q)
	if ctl.Mode() == controller.ModeDerived && q.Has(models.ParamFocus) {
		sub := ctl.FocusChanged(sel.Focus)
		if !q.Has(models.ParamSubcategory) {
			sel.Subcategory = sub.Selected
		}
	}
	return sel
}

// recordPlan appends an applied plan to history without holding up the response.
func (s *Server) recordPlan(sess *session, user UserInfo, sub *controller.Submission) {
	if s.history == nil {
		return
	}
	rec, err := storage.NewPlanRecord(sess.id, sub.Seq, sub.Selection, sub.Plan, time.Now())
	if err != nil {
		s.log.Error("failed to build history record", "session", sess.id, "error", err)
		return
	}
	rec.Login = user.Login

	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		ctx, cancel := contextWithTimeout()
		defer cancel()
		if _, err := s.history.RecordPlan(ctx, rec); err != nil {
			s.log.Error("failed to record plan", "session", sess.id, "seq", sub.Seq, "error", err)
		}
	}()
}

// contextWithTimeout returns a background context with a 5-second timeout for async writes.
func contextWithTimeout() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 5*time.Second) //nolint:mnd
}

// writeHTML renders into a buffer so a template failure becomes a clean 500.
func (s *Server) writeHTML(w http.ResponseWriter, status int, fn func(*bytes.Buffer) error) {
	var buf bytes.Buffer
	if err := fn(&buf); err != nil {
		s.log.Error("render failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", htmlContentType)
	w.WriteHeader(status)
	buf.WriteTo(w)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
