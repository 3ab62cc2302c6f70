// Package repo owns the live project collection and the global activity
// log, and is the only writer to the key-value store.
package repo

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"projectarchitect/internal/config"
	"projectarchitect/internal/domain"
	"projectarchitect/internal/kv"
	"projectarchitect/internal/migrate"
	"projectarchitect/internal/seed"
)

// Persisted state layout: two independent keys, each a full-collection JSON
// array. Saving one does not touch the other.
const (
	projectsKey   = "projectarchitect_projects"
	activitiesKey = "projectarchitect_activities"
)

// The global activity log keeps the 50 most recent entries, newest first.
const activityCap = 50

var ErrNotFound = errors.New("not found")

// Store is single-writer, process-local state. Methods are not safe for
// concurrent use; a second process sharing the same kv store will silently
// overwrite this one's saves (last writer wins, no merge).
type Store struct {
	KV     kv.Store
	Config *config.Config
	Log    zerolog.Logger
	Now    func() time.Time
	NewID  func(prefix string) string

	projects   []domain.Project
	activities []domain.Activity
}

func New(store kv.Store, cfg *config.Config, log zerolog.Logger) *Store {
	return &Store{
		KV:     store,
		Config: cfg,
		Log:    log,
		Now:    time.Now,
		NewID:  NewID,
	}
}

// NewID returns a prefixed random id. Ids must stay unique under rapid
// successive calls, which rules out wall-clock-derived ids.
func NewID(prefix string) string {
	return prefix + "-" + uuid.NewString()
}

// Load reads both collections from the store. Missing or unusable stored
// state falls back to the seed dataset and overwrites the store; the
// recovery is logged, not surfaced.
func (s *Store) Load() error {
	raw, ok, err := s.KV.Get(projectsKey)
	if err != nil {
		return err
	}
	if !ok {
		s.projects = seed.Projects()
		s.Log.Info().Int("projects", len(s.projects)).Msg("no stored projects, loading seed dataset")
		if err := s.saveProjects(); err != nil {
			return err
		}
	} else {
		projects, derr := migrate.DecodeProjects([]byte(raw))
		if derr != nil || len(projects) == 0 {
			s.Log.Warn().AnErr("cause", derr).Msg("stored projects empty or invalid, reloading seed dataset")
			s.projects = seed.Projects()
		} else {
			s.projects = projects
		}
		// Write back so migrated legacy fields stick.
		if err := s.saveProjects(); err != nil {
			return err
		}
	}

	rawActs, ok, err := s.KV.Get(activitiesKey)
	if err != nil {
		return err
	}
	if ok {
		var acts []domain.Activity
		if err := json.Unmarshal([]byte(rawActs), &acts); err != nil {
			s.Log.Warn().Err(err).Msg("stored activities invalid, rebuilding from seed")
			acts = seed.InitialActivities(s.Now())
			s.activities = acts
			return s.saveActivities()
		}
		s.activities = acts
		return nil
	}
	s.activities = seed.InitialActivities(s.Now())
	return s.saveActivities()
}

// List returns the projects in insertion order.
func (s *Store) List() []domain.Project {
	out := make([]domain.Project, len(s.projects))
	copy(out, s.projects)
	return out
}

// Find returns the project with the given id or ErrNotFound.
func (s *Store) Find(id string) (domain.Project, error) {
	for _, p := range s.projects {
		if p.ID == id {
			return p, nil
		}
	}
	return domain.Project{}, fmt.Errorf("project %s: %w", id, ErrNotFound)
}

// Create assigns an id, pre-populates the phase sequence from config when
// the caller supplied none, appends the project and logs project_created.
func (s *Store) Create(p domain.Project) (domain.Project, error) {
	p.ID = s.NewID("proj")
	if len(p.Phases) == 0 {
		p.Phases = s.defaultPhases()
	}
	if p.CurrentPhase == 0 {
		p.CurrentPhase = 1
	}
	if p.Status == "" {
		p.Status = domain.ProjectActive
	}
	if p.Activities == nil {
		p.Activities = []domain.Activity{}
	}
	s.projects = append(s.projects, p)
	if err := s.saveProjects(); err != nil {
		return domain.Project{}, err
	}
	_, err := s.AddActivity(domain.Activity{
		Type:        domain.ActivityProjectCreated,
		Description: fmt.Sprintf("Project %q was created", p.Name),
		User:        "System",
		ProjectID:   p.ID,
	})
	return p, err
}

// Update replaces the stored project with a matching id.
func (s *Store) Update(p domain.Project) error {
	for i := range s.projects {
		if s.projects[i].ID == p.ID {
			s.projects[i] = p
			return s.saveProjects()
		}
	}
	return fmt.Errorf("update project %s: %w", p.ID, ErrNotFound)
}

// Delete removes the project and logs project_deleted.
func (s *Store) Delete(id string) error {
	for i := range s.projects {
		if s.projects[i].ID == id {
			s.projects = append(s.projects[:i], s.projects[i+1:]...)
			if err := s.saveProjects(); err != nil {
				return err
			}
			_, err := s.AddActivity(domain.Activity{
				Type:        domain.ActivityProjectDeleted,
				Description: "Project was deleted",
				User:        "System",
				ProjectID:   id,
			})
			return err
		}
	}
	return fmt.Errorf("delete project %s: %w", id, ErrNotFound)
}

// AddActivity stamps id and timestamp, prepends to the global log, trims to
// the cap and persists.
func (s *Store) AddActivity(a domain.Activity) (domain.Activity, error) {
	a.ID = s.NewID("act")
	a.Timestamp = s.Now().UTC().Format(time.RFC3339)
	s.activities = append([]domain.Activity{a}, s.activities...)
	if len(s.activities) > activityCap {
		s.activities = s.activities[:activityCap]
	}
	return a, s.saveActivities()
}

// Activities returns the global log, newest first.
func (s *Store) Activities() []domain.Activity {
	out := make([]domain.Activity, len(s.activities))
	copy(out, s.activities)
	return out
}

// ResetToSeed discards all state and restores the bundled dataset.
// Irreversible.
func (s *Store) ResetToSeed() error {
	s.projects = seed.Projects()
	s.activities = seed.InitialActivities(s.Now())
	s.Log.Info().Msg("state reset to seed dataset")
	if err := s.saveProjects(); err != nil {
		return err
	}
	return s.saveActivities()
}

// Users returns the static assignee directory. Never persisted.
func (s *Store) Users() []domain.User {
	return seed.Users()
}

func (s *Store) defaultPhases() []domain.Phase {
	templates := s.Config.Phases
	phases := make([]domain.Phase, len(templates))
	for i, t := range templates {
		phases[i] = domain.Phase{
			ID:          s.NewID("phase"),
			Name:        t.Name,
			Description: t.Description,
			Order:       i + 1,
			Status:      domain.PhaseNotStarted,
			Tasks:       []domain.Task{},
		}
	}
	return phases
}

func (s *Store) saveProjects() error {
	data, err := json.Marshal(s.projects)
	if err != nil {
		return fmt.Errorf("marshal projects: %w", err)
	}
	if err := s.KV.Set(projectsKey, string(data)); err != nil {
		return err
	}
	s.Log.Debug().Int("projects", len(s.projects)).Msg("projects saved")
	return nil
}

func (s *Store) saveActivities() error {
	data, err := json.Marshal(s.activities)
	if err != nil {
		return fmt.Errorf("marshal activities: %w", err)
	}
	if err := s.KV.Set(activitiesKey, string(data)); err != nil {
		return err
	}
	s.Log.Debug().Int("activities", len(s.activities)).Msg("activities saved")
	return nil
}
