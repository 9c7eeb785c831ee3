package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/claude/planform/internal/controller"
	"github.com/claude/planform/internal/models"
	"github.com/claude/planform/internal/storage"
	"github.com/google/go-cmp/cmp"
	"github.com/mark3labs/mcp-go/mcp"
)

type fakeSource struct {
	catalog *models.OptionCatalog
	plan    *models.WorkoutPlan
	planErr error
	lastSel models.FormSelection
}

func (f *fakeSource) FetchOptions(context.Context) (*models.OptionCatalog, error) {
	return f.catalog, nil
}

func (f *fakeSource) FetchPlan(_ context.Context, sel models.FormSelection) (*models.WorkoutPlan, error) {
	f.lastSel = sel
	return f.plan, f.planErr
}

type memStore struct {
	rows []storage.PlanRecord
}

func (m *memStore) RecordPlan(_ context.Context, rec storage.PlanRecord) (int64, error) {
	rec.ID = int64(len(m.rows) + 1)
	m.rows = append(m.rows, rec)
	return rec.ID, nil
}

func (m *memStore) RecentPlans(_ context.Context, limit int) ([]storage.PlanRecord, error) {
	return m.rows, nil
}

func (m *memStore) Close() error { return nil }

func testHandlers(src *fakeSource, store storage.Store) *handlers {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return &handlers{
		ds:  &Local{Source: src, Mode: controller.ModeDerived, History: store, Log: log},
		log: log,
	}
}

func testSource() *fakeSource {
	return &fakeSource{
		catalog: &models.OptionCatalog{
			Focus:       []string{"strength", "mobility"},
			Subcategory: []string{"strength-upper"},
			Access:      []string{"gym"},
		},
		plan: &models.WorkoutPlan{Days: []models.Day{{Name: "Day 1", Exercises: []models.Exercise{{Name: "Bench Press", Reps: models.Num("10")}}}}},
	}
}

func callTool(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	var sb strings.Builder
	for _, c := range res.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			sb.WriteString(tc.Text)
		}
	}
	return sb.String()
}

// TestListOptionsTool verifies the tool returns the catalog with its index.
func TestListOptionsTool(t *testing.T) {
	h := testHandlers(testSource(), nil)
	res, err := h.listOptions(context.Background(), callTool(nil))
	if err != nil {
		t.Fatal(err)
	}
	if res.IsError {
		t.Fatalf("tool error: %s", resultText(t, res))
	}
	var view controller.CatalogView
	if err := json.Unmarshal([]byte(resultText(t, res)), &view); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if diff := cmp.Diff(map[string][]string{"strength": {"upper"}}, view.Index); diff != "" {
		t.Errorf("index mismatch (-want +got):\n%s", diff)
	}
}

// TestGeneratePlanTool verifies a plan is produced, defaults applied, and
// history recorded.
func TestGeneratePlanTool(t *testing.T) {
	src := testSource()
	store := &memStore{}
	h := testHandlers(src, store)

	res, err := h.generatePlan(context.Background(), callTool(map[string]any{"focus": "strength", "access": "gym"}))
	if err != nil {
		t.Fatal(err)
	}
	if res.IsError {
		t.Fatalf("tool error: %s", resultText(t, res))
	}
	want := models.FormSelection{Focus: "strength", Subcategory: "strength-upper", Access: "gym", Days: "3"}
	if diff := cmp.Diff(want, src.lastSel); diff != "" {
		t.Errorf("sent selection mismatch (-want +got):\n%s", diff)
	}
	if !strings.Contains(resultText(t, res), `"Day 1"`) {
		t.Errorf("result missing plan: %s", resultText(t, res))
	}
	if len(store.rows) != 1 || store.rows[0].Login != "mcp" {
		t.Errorf("history rows = %+v", store.rows)
	}
}

// TestGeneratePlanToolValidation verifies bad arguments are tool errors, not
// protocol errors.
func TestGeneratePlanToolValidation(t *testing.T) {
	h := testHandlers(testSource(), nil)
	for name, args := range map[string]map[string]any{
		"missing focus": {"access": "gym"},
		"bad days":      {"focus": "strength", "days": "three"},
		"zero days":     {"focus": "strength", "days": "0"},
	} {
		t.Run(name, func(t *testing.T) {
			res, err := h.generatePlan(context.Background(), callTool(args))
			if err != nil {
				t.Fatal(err)
			}
			if !res.IsError {
				t.Error("expected tool error")
			}
		})
	}
}

// TestGeneratePlanToolUpstreamError verifies upstream failures surface as tool errors.
func TestGeneratePlanToolUpstreamError(t *testing.T) {
	src := testSource()
	src.planErr = errors.New("connection refused")
	h := testHandlers(src, nil)

	res, err := h.generatePlan(context.Background(), callTool(map[string]any{"focus": "strength", "subcategory": "strength-upper"}))
	if err != nil {
		t.Fatal(err)
	}
	if !res.IsError || !strings.Contains(resultText(t, res), "connection refused") {
		t.Errorf("result = %+v", res)
	}
}

// TestRecentPlansResource verifies the resource lists history and reports
// a disabled store as an error.
func TestRecentPlansResource(t *testing.T) {
	var req mcp.ReadResourceRequest
	req.Params.URI = "planform://recent_plans"

	store := &memStore{rows: []storage.PlanRecord{{ID: 1, Seq: 4}}}
	contents, err := testHandlers(testSource(), store).recentPlans(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if len(contents) != 1 {
		t.Fatalf("contents = %d, want 1", len(contents))
	}
	text, ok := contents[0].(mcp.TextResourceContents)
	if !ok {
		t.Fatalf("contents type = %T", contents[0])
	}
	if text.URI != req.Params.URI || !strings.Contains(text.Text, `"seq":4`) {
		t.Errorf("resource = %+v", text)
	}

	if _, err := testHandlers(testSource(), nil).recentPlans(context.Background(), req); !errors.Is(err, ErrHistoryDisabled) {
		t.Errorf("err = %v, want ErrHistoryDisabled", err)
	}
}

// TestNewRegistersCapabilities verifies the server builds with the tools wired.
func TestNewRegistersCapabilities(t *testing.T) {
	s := New(&Local{Source: testSource(), Mode: controller.ModeDerived, Log: slog.Default()}, "test", slog.Default())
	if s == nil {
		t.Fatal("New returned nil")
	}
	if got := toolGeneratePlan.Name; got != "generate_plan" {
		t.Errorf("tool name = %q", got)
	}
}
