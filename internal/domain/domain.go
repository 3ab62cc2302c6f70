package domain

// Project statuses.
const (
	ProjectDraft     = "draft"
	ProjectActive    = "active"
	ProjectOnHold    = "on-hold"
	ProjectCompleted = "completed"
	ProjectDelivered = "delivered"
)

// Phase statuses.
const (
	PhaseNotStarted = "not-started"
	PhaseInProgress = "in-progress"
	PhaseCompleted  = "completed"
)

// Task statuses.
const (
	TaskTodo       = "todo"
	TaskInProgress = "in-progress"
	TaskCompleted  = "completed"
)

// Task priorities.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// Activity types. Closed set; the feed renderer switches on these.
const (
	ActivityProjectCreated   = "project_created"
	ActivityProjectDeleted   = "project_deleted"
	ActivityProjectDelivered = "project_delivered"
	ActivityTaskCreated      = "task_created"
	ActivityTaskCompleted    = "task_completed"
	ActivityTaskAssigned     = "task_assigned"
	ActivityPhaseStarted     = "phase_started"
	ActivityPhaseCompleted   = "phase_completed"
	ActivityPhaseMoved       = "phase_moved"
)

type Project struct {
	ID                   string     `json:"id"`
	ProjectNumber        string     `json:"projectNumber,omitempty"`
	Name                 string     `json:"name"`
	CustomerName         string     `json:"customerName"`
	SiteName             string     `json:"siteName"`
	ProjectValue         float64    `json:"projectValue"`
	Currency             string     `json:"currency"`
	ContractDate         string     `json:"contractDate"`
	ContractDeliveryDate string     `json:"contractDeliveryDate"`
	TargetCompletionDate string     `json:"targetCompletionDate,omitempty"`
	ProjectArchitect     string     `json:"projectArchitect"`
	DesignConsultant     string     `json:"designConsultant,omitempty"`
	Architects           []string   `json:"architects"`
	CurrentPhase         int        `json:"currentPhase"`
	Status               string     `json:"status"`
	Phases               []Phase    `json:"phases"`
	Activities           []Activity `json:"activities"`
}

type Phase struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Order       int    `json:"order"`
	Status      string `json:"status"`
	StartDate   string `json:"startDate,omitempty"`
	EndDate     string `json:"endDate,omitempty"`
	Tasks       []Task `json:"tasks"`
	IsExpanded  bool   `json:"isExpanded"`
}

type Task struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	Status        string `json:"status"`
	Assignee      string `json:"assignee,omitempty"`
	DueDate       string `json:"dueDate,omitempty"`
	CreatedDate   string `json:"createdDate"`
	CompletedDate string `json:"completedDate,omitempty"`
	PhaseID       string `json:"phaseId"`
	Priority      string `json:"priority"`
}

type Activity struct {
	ID             string `json:"id"`
	Type           string `json:"type"`
	Description    string `json:"description"`
	Timestamp      string `json:"timestamp"`
	User           string `json:"user"`
	ProjectID      string `json:"projectId"`
	RelatedTaskID  string `json:"relatedTaskId,omitempty"`
	RelatedPhaseID string `json:"relatedPhaseId,omitempty"`
}

// User is a static directory entry used for assignee selection only.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// FindPhase returns the index of the phase with the given id, or -1.
func (p Project) FindPhase(phaseID string) int {
	for i := range p.Phases {
		if p.Phases[i].ID == phaseID {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy. Mutators operate on copies so the caller's
// value is never changed in place.
func (p Project) Clone() Project {
	out := p
	out.Architects = append([]string(nil), p.Architects...)
	out.Activities = append([]Activity(nil), p.Activities...)
	out.Phases = make([]Phase, len(p.Phases))
	for i, ph := range p.Phases {
		out.Phases[i] = ph
		out.Phases[i].Tasks = append([]Task(nil), ph.Tasks...)
	}
	return out
}
