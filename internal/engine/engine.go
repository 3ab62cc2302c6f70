// Package engine holds the pure phase/task mutators. Each mutator returns a
// new Project value plus the audit activities the change produced; the
// caller persists the project through the store and feeds the activities to
// AddActivity. Mutators never write anywhere themselves.
package engine

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"projectarchitect/internal/domain"
)

// Move directions for MovePhase.
const (
	Forward  = "forward"
	Backward = "backward"
)

type Engine struct {
	Now   func() time.Time
	NewID func(prefix string) string
	Actor string
}

func New(actor string) Engine {
	return Engine{
		Now:   time.Now,
		NewID: func(prefix string) string { return prefix + "-" + uuid.NewString() },
		Actor: actor,
	}
}

func (e Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e Engine) actor() string {
	if e.Actor == "" {
		return "Current User"
	}
	return e.Actor
}

// ToggleExpanded flips the UI expansion flag on one phase. No activity: the
// flag is transient display state, not meaningful project state.
func (e Engine) ToggleExpanded(p domain.Project, phaseID string) (domain.Project, error) {
	out := p.Clone()
	i := out.FindPhase(phaseID)
	if i < 0 {
		return p, fmt.Errorf("phase %s not found", phaseID)
	}
	out.Phases[i].IsExpanded = !out.Phases[i].IsExpanded
	return out, nil
}

// CreateTask appends a new task to the named phase. The title is trimmed and
// must be non-empty.
func (e Engine) CreateTask(p domain.Project, phaseID, title string) (domain.Project, []domain.Activity, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return p, nil, errors.New("title is required")
	}
	out := p.Clone()
	i := out.FindPhase(phaseID)
	if i < 0 {
		return p, nil, fmt.Errorf("phase %s not found", phaseID)
	}
	task := domain.Task{
		ID:          e.NewID("task"),
		Title:       title,
		Description: "",
		Status:      domain.TaskTodo,
		CreatedDate: e.now().UTC().Format(time.RFC3339),
		PhaseID:     phaseID,
		Priority:    domain.PriorityMedium,
	}
	out.Phases[i].Tasks = append(out.Phases[i].Tasks, task)
	acts := []domain.Activity{{
		Type:          domain.ActivityTaskCreated,
		Description:   fmt.Sprintf("New task %q was created", title),
		User:          e.actor(),
		ProjectID:     p.ID,
		RelatedTaskID: task.ID,
	}}
	return out, acts, nil
}

// UpsertTask replaces the task with a matching id inside its phase. A
// transition into completed stamps completedDate; a transition out of
// completed clears it.
func (e Engine) UpsertTask(p domain.Project, t domain.Task) (domain.Project, []domain.Activity, error) {
	out := p.Clone()
	pi := out.FindPhase(t.PhaseID)
	if pi < 0 {
		return p, nil, fmt.Errorf("phase %s not found", t.PhaseID)
	}
	ti := -1
	for i := range out.Phases[pi].Tasks {
		if out.Phases[pi].Tasks[i].ID == t.ID {
			ti = i
			break
		}
	}
	if ti < 0 {
		return p, nil, fmt.Errorf("task %s not found in phase %s", t.ID, t.PhaseID)
	}
	old := out.Phases[pi].Tasks[ti]

	switch {
	case t.Status == domain.TaskCompleted && old.Status != domain.TaskCompleted:
		t.CompletedDate = e.now().UTC().Format(time.RFC3339)
	case t.Status == domain.TaskCompleted:
		if t.CompletedDate == "" {
			t.CompletedDate = old.CompletedDate
		}
	default:
		t.CompletedDate = ""
	}
	out.Phases[pi].Tasks[ti] = t

	evtType := domain.ActivityTaskAssigned
	verb := "updated"
	if t.Status == domain.TaskCompleted {
		evtType = domain.ActivityTaskCompleted
		verb = "completed"
	}
	acts := []domain.Activity{{
		Type:          evtType,
		Description:   fmt.Sprintf("Task %q was %s", t.Title, verb),
		User:          e.actor(),
		ProjectID:     p.ID,
		RelatedTaskID: t.ID,
	}}
	return out, acts, nil
}

// MovePhase shifts currentPhase one step, clamped to [1, len(phases)].
// Moving past either edge is a no-op that produces no activity. Phase
// statuses are never touched here; advancing the pointer and completing a
// phase are independent actions.
func (e Engine) MovePhase(p domain.Project, direction string) (domain.Project, []domain.Activity, error) {
	next := p.CurrentPhase
	switch direction {
	case Forward:
		if next < len(p.Phases) {
			next++
		}
	case Backward:
		if next > 1 {
			next--
		}
	default:
		return p, nil, fmt.Errorf("invalid direction %q", direction)
	}
	if next == p.CurrentPhase {
		return p, nil, nil
	}
	out := p.Clone()
	out.CurrentPhase = next
	acts := []domain.Activity{{
		Type:        domain.ActivityPhaseMoved,
		Description: "Project phase moved " + direction,
		User:        e.actor(),
		ProjectID:   p.ID,
	}}
	return out, acts, nil
}

// MarkDelivered sets the project status to delivered, unconditionally. The
// "last phase reached" precondition belongs to the caller.
func (e Engine) MarkDelivered(p domain.Project) (domain.Project, []domain.Activity) {
	out := p.Clone()
	out.Status = domain.ProjectDelivered
	acts := []domain.Activity{{
		Type:        domain.ActivityProjectDelivered,
		Description: "Project marked as delivered",
		User:        e.actor(),
		ProjectID:   p.ID,
	}}
	return out, acts
}

// SetPhaseStatus sets a phase's status independently of currentPhase,
// stamping startDate on the first move into in-progress and endDate on
// completion.
func (e Engine) SetPhaseStatus(p domain.Project, phaseID, status string) (domain.Project, []domain.Activity, error) {
	switch status {
	case domain.PhaseNotStarted, domain.PhaseInProgress, domain.PhaseCompleted:
	default:
		return p, nil, fmt.Errorf("invalid phase status %q", status)
	}
	out := p.Clone()
	i := out.FindPhase(phaseID)
	if i < 0 {
		return p, nil, fmt.Errorf("phase %s not found", phaseID)
	}
	ph := &out.Phases[i]
	if ph.Status == status {
		return out, nil, nil
	}
	ph.Status = status

	today := e.now().UTC().Format("2006-01-02")
	var acts []domain.Activity
	switch status {
	case domain.PhaseInProgress:
		if ph.StartDate == "" {
			ph.StartDate = today
		}
		acts = append(acts, domain.Activity{
			Type:           domain.ActivityPhaseStarted,
			Description:    fmt.Sprintf("Phase %q started", ph.Name),
			User:           e.actor(),
			ProjectID:      p.ID,
			RelatedPhaseID: ph.ID,
		})
	case domain.PhaseCompleted:
		if ph.EndDate == "" {
			ph.EndDate = today
		}
		acts = append(acts, domain.Activity{
			Type:           domain.ActivityPhaseCompleted,
			Description:    fmt.Sprintf("Phase %q completed", ph.Name),
			User:           e.actor(),
			ProjectID:      p.ID,
			RelatedPhaseID: ph.ID,
		})
	}
	return out, acts, nil
}
