// Package seed holds the bundled sample dataset used on first run and as
// the fallback when stored state is unreadable.
package seed

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"time"

	"projectarchitect/internal/domain"
)

//go:embed seed.json
var seedJSON []byte

type dataset struct {
	Projects []domain.Project `json:"projects"`
	Users    []domain.User    `json:"users"`
}

func load() dataset {
	var d dataset
	// The file is part of the binary; a decode failure is a build defect.
	if err := json.Unmarshal(seedJSON, &d); err != nil {
		panic("seed: invalid embedded dataset: " + err.Error())
	}
	return d
}

// Projects returns a fresh copy of the sample project collection.
func Projects() []domain.Project {
	return load().Projects
}

// Users returns the static user directory.
func Users() []domain.User {
	return load().Users
}

// InitialActivities generates the bootstrap activity log from the first
// three seed projects, one project_created entry per project, backdated a
// day apiece.
func InitialActivities(now time.Time) []domain.Activity {
	projects := Projects()
	if len(projects) > 3 {
		projects = projects[:3]
	}
	out := make([]domain.Activity, 0, len(projects))
	for i, p := range projects {
		out = append(out, domain.Activity{
			ID:          fmt.Sprintf("init-%d", i),
			Type:        domain.ActivityProjectCreated,
			Description: `Project "` + p.Name + `" was created`,
			Timestamp:   now.Add(-time.Duration(i) * 24 * time.Hour).UTC().Format(time.RFC3339),
			User:        "System",
			ProjectID:   p.ID,
		})
	}
	return out
}
