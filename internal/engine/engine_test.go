package engine_test

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"projectarchitect/internal/domain"
	"projectarchitect/internal/engine"
)

func newTestEngine() engine.Engine {
	e := engine.New("tester")
	e.Now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	n := 0
	e.NewID = func(prefix string) string {
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
	return e
}

func fixtureProject() domain.Project {
	phases := make([]domain.Phase, 5)
	names := []string{"Project Initiation", "Design Phase", "Permit & Approval", "Construction", "Final Delivery"}
	for i := range phases {
		phases[i] = domain.Phase{
			ID:     fmt.Sprintf("phase-%d", i+1),
			Name:   names[i],
			Order:  i + 1,
			Status: domain.PhaseNotStarted,
			Tasks:  []domain.Task{},
		}
	}
	phases[0].Tasks = []domain.Task{{
		ID:          "task-1",
		Title:       "Initial Site Survey",
		Status:      domain.TaskTodo,
		CreatedDate: "2026-01-10",
		PhaseID:     "phase-1",
		Priority:    domain.PriorityHigh,
	}}
	return domain.Project{
		ID:           "proj-1",
		Name:         "Test Tower",
		CurrentPhase: 1,
		Status:       domain.ProjectActive,
		Phases:       phases,
	}
}

func TestMovePhaseClamping(t *testing.T) {
	e := newTestEngine()
	p := fixtureProject()

	// backward at the first phase is a no-op
	out, acts, err := e.MovePhase(p, engine.Backward)
	if err != nil {
		t.Fatalf("backward: %v", err)
	}
	if out.CurrentPhase != 1 {
		t.Fatalf("expected currentPhase 1, got %d", out.CurrentPhase)
	}
	if len(acts) != 0 {
		t.Fatalf("no-op move should emit no activity, got %d", len(acts))
	}

	// walk forward well past the end
	for i := 0; i < 10; i++ {
		out, _, err = e.MovePhase(out, engine.Forward)
		if err != nil {
			t.Fatalf("forward %d: %v", i, err)
		}
		if out.CurrentPhase < 1 || out.CurrentPhase > len(out.Phases) {
			t.Fatalf("currentPhase %d out of range", out.CurrentPhase)
		}
	}
	if out.CurrentPhase != 5 {
		t.Fatalf("expected clamp at 5, got %d", out.CurrentPhase)
	}

	// forward at the last phase is a no-op
	out, acts, err = e.MovePhase(out, engine.Forward)
	if err != nil || out.CurrentPhase != 5 {
		t.Fatalf("expected clamp at 5: %v (phase %d)", err, out.CurrentPhase)
	}
	if len(acts) != 0 {
		t.Fatalf("clamped move should emit no activity")
	}
}

func TestMovePhaseEmitsActivity(t *testing.T) {
	e := newTestEngine()
	out, acts, err := e.MovePhase(fixtureProject(), engine.Forward)
	if err != nil {
		t.Fatal(err)
	}
	if out.CurrentPhase != 2 {
		t.Fatalf("expected currentPhase 2, got %d", out.CurrentPhase)
	}
	if len(acts) != 1 || acts[0].Type != domain.ActivityPhaseMoved {
		t.Fatalf("expected one phase_moved activity, got %+v", acts)
	}
	// phase statuses stay untouched
	for _, ph := range out.Phases {
		if ph.Status != domain.PhaseNotStarted {
			t.Fatalf("movePhase must not alter phase status, %s is %s", ph.ID, ph.Status)
		}
	}
}

func TestMovePhaseInvalidDirection(t *testing.T) {
	e := newTestEngine()
	if _, _, err := e.MovePhase(fixtureProject(), "sideways"); err == nil {
		t.Fatal("expected error for invalid direction")
	}
}

func TestMarkDelivered(t *testing.T) {
	e := newTestEngine()
	p := fixtureProject()
	p.CurrentPhase = 5

	out, acts := e.MarkDelivered(p)
	if out.Status != domain.ProjectDelivered {
		t.Fatalf("expected delivered, got %s", out.Status)
	}
	if out.CurrentPhase != 5 || len(out.Phases) != 5 {
		t.Fatalf("markDelivered must not change phases")
	}
	if len(acts) != 1 || acts[0].Type != domain.ActivityProjectDelivered {
		t.Fatalf("expected project_delivered activity, got %+v", acts)
	}
	if p.Status != domain.ProjectActive {
		t.Fatalf("input project mutated")
	}
}

func TestCreateTaskDefaults(t *testing.T) {
	e := newTestEngine()
	out, acts, err := e.CreateTask(fixtureProject(), "phase-1", "  Order structural survey  ")
	if err != nil {
		t.Fatal(err)
	}
	tasks := out.Phases[0].Tasks
	if len(tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(tasks))
	}
	task := tasks[1]
	if task.Title != "Order structural survey" {
		t.Fatalf("title not trimmed: %q", task.Title)
	}
	if task.Status != domain.TaskTodo || task.Priority != domain.PriorityMedium {
		t.Fatalf("wrong defaults: %s/%s", task.Status, task.Priority)
	}
	if task.CreatedDate == "" || task.PhaseID != "phase-1" {
		t.Fatalf("createdDate/phaseId not set: %+v", task)
	}
	if len(acts) != 1 || acts[0].Type != domain.ActivityTaskCreated || acts[0].RelatedTaskID != task.ID {
		t.Fatalf("expected task_created activity, got %+v", acts)
	}
}

func TestCreateTaskBlankTitle(t *testing.T) {
	e := newTestEngine()
	for _, title := range []string{"", "   ", "\t\n"} {
		if _, _, err := e.CreateTask(fixtureProject(), "phase-1", title); err == nil {
			t.Fatalf("expected error for title %q", title)
		}
	}
}

func TestCreateTaskUnknownPhase(t *testing.T) {
	e := newTestEngine()
	if _, _, err := e.CreateTask(fixtureProject(), "phase-99", "x"); err == nil {
		t.Fatal("expected unknown phase error")
	}
}

func TestUpsertTaskCompletedDate(t *testing.T) {
	e := newTestEngine()
	p := fixtureProject()
	task := p.Phases[0].Tasks[0]

	task.Status = domain.TaskCompleted
	out, acts, err := e.UpsertTask(p, task)
	if err != nil {
		t.Fatal(err)
	}
	got := out.Phases[0].Tasks[0]
	if got.CompletedDate == "" {
		t.Fatal("expected completedDate set on todo -> completed")
	}
	if len(acts) != 1 || acts[0].Type != domain.ActivityTaskCompleted {
		t.Fatalf("expected task_completed activity, got %+v", acts)
	}

	// regression clears the stamp
	got.Status = domain.TaskTodo
	out, acts, err = e.UpsertTask(out, got)
	if err != nil {
		t.Fatal(err)
	}
	got = out.Phases[0].Tasks[0]
	if got.CompletedDate != "" {
		t.Fatalf("expected completedDate cleared, got %q", got.CompletedDate)
	}
	if len(acts) != 1 || acts[0].Type != domain.ActivityTaskAssigned {
		t.Fatalf("expected task_assigned activity, got %+v", acts)
	}
}

func TestUpsertTaskKeepsExistingStamp(t *testing.T) {
	e := newTestEngine()
	p := fixtureProject()
	task := p.Phases[0].Tasks[0]
	task.Status = domain.TaskCompleted
	out, _, err := e.UpsertTask(p, task)
	if err != nil {
		t.Fatal(err)
	}
	first := out.Phases[0].Tasks[0].CompletedDate

	// completed -> completed with a different assignee keeps the stamp
	task = out.Phases[0].Tasks[0]
	task.Assignee = "Maria Garcia"
	task.CompletedDate = ""
	out, _, err = e.UpsertTask(out, task)
	if err != nil {
		t.Fatal(err)
	}
	if out.Phases[0].Tasks[0].CompletedDate != first {
		t.Fatalf("stamp changed: %q != %q", out.Phases[0].Tasks[0].CompletedDate, first)
	}
}

func TestUpsertTaskUnknown(t *testing.T) {
	e := newTestEngine()
	p := fixtureProject()
	if _, _, err := e.UpsertTask(p, domain.Task{ID: "task-x", PhaseID: "phase-1"}); err == nil {
		t.Fatal("expected unknown task error")
	}
	if _, _, err := e.UpsertTask(p, domain.Task{ID: "task-1", PhaseID: "phase-9"}); err == nil {
		t.Fatal("expected unknown phase error")
	}
}

func TestToggleExpanded(t *testing.T) {
	e := newTestEngine()
	p := fixtureProject()
	out, err := e.ToggleExpanded(p, "phase-2")
	if err != nil {
		t.Fatal(err)
	}
	if !out.Phases[1].IsExpanded {
		t.Fatal("expected phase-2 expanded")
	}
	for i, ph := range out.Phases {
		if i != 1 && ph.IsExpanded {
			t.Fatalf("phase %s unexpectedly expanded", ph.ID)
		}
	}
	out, err = e.ToggleExpanded(out, "phase-2")
	if err != nil || out.Phases[1].IsExpanded {
		t.Fatalf("expected toggle back: %v", err)
	}
}

func TestSetPhaseStatus(t *testing.T) {
	e := newTestEngine()
	p := fixtureProject()

	out, acts, err := e.SetPhaseStatus(p, "phase-2", domain.PhaseInProgress)
	if err != nil {
		t.Fatal(err)
	}
	ph := out.Phases[1]
	if ph.Status != domain.PhaseInProgress || ph.StartDate == "" {
		t.Fatalf("expected in-progress with startDate, got %+v", ph)
	}
	if len(acts) != 1 || acts[0].Type != domain.ActivityPhaseStarted || acts[0].RelatedPhaseID != "phase-2" {
		t.Fatalf("expected phase_started activity, got %+v", acts)
	}

	out, acts, err = e.SetPhaseStatus(out, "phase-2", domain.PhaseCompleted)
	if err != nil {
		t.Fatal(err)
	}
	ph = out.Phases[1]
	if ph.Status != domain.PhaseCompleted || ph.EndDate == "" {
		t.Fatalf("expected completed with endDate, got %+v", ph)
	}
	if len(acts) != 1 || acts[0].Type != domain.ActivityPhaseCompleted {
		t.Fatalf("expected phase_completed activity, got %+v", acts)
	}

	// currentPhase is untouched by phase status changes
	if out.CurrentPhase != 1 {
		t.Fatalf("setPhaseStatus must not move currentPhase, got %d", out.CurrentPhase)
	}

	// same status again is a no-op with no activity
	out, acts, err = e.SetPhaseStatus(out, "phase-2", domain.PhaseCompleted)
	if err != nil || len(acts) != 0 {
		t.Fatalf("expected silent no-op: %v, %d acts", err, len(acts))
	}

	if _, _, err := e.SetPhaseStatus(out, "phase-2", "paused"); err == nil {
		t.Fatal("expected invalid status error")
	}
}

func TestMutatorsDoNotMutateInput(t *testing.T) {
	e := newTestEngine()
	p := fixtureProject()
	before := fmt.Sprintf("%+v", p)

	if _, _, err := e.CreateTask(p, "phase-1", "another"); err != nil {
		t.Fatal(err)
	}
	if _, _, err := e.MovePhase(p, engine.Forward); err != nil {
		t.Fatal(err)
	}
	e.MarkDelivered(p)
	if _, err := e.ToggleExpanded(p, "phase-1"); err != nil {
		t.Fatal(err)
	}

	if after := fmt.Sprintf("%+v", p); after != before {
		t.Fatalf("input project mutated:\nbefore: %s\nafter:  %s", before, after)
	}
}

func TestActivityDescriptions(t *testing.T) {
	e := newTestEngine()
	p := fixtureProject()
	_, acts, err := e.CreateTask(p, "phase-1", "Check drainage plan")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(acts[0].Description, "Check drainage plan") {
		t.Fatalf("description should mention the task title: %q", acts[0].Description)
	}
	if acts[0].User != "tester" {
		t.Fatalf("expected actor on activity, got %q", acts[0].User)
	}
}
