// Package migrate backfills current-format project fields from the legacy
// field names found in older persisted state. The backfill is one-way and
// applied at load time only.
package migrate

import (
	"encoding/json"
	"fmt"

	"projectarchitect/internal/domain"
)

// LegacyProject is a project record as it may appear in the store: the
// current shape plus the retired field names. A current-format record decodes
// into it with all legacy fields zero.
type LegacyProject struct {
	domain.Project
	Customer          string  `json:"customer,omitempty"`
	Site              string  `json:"site,omitempty"`
	Value             float64 `json:"value,omitempty"`
	ContractStartDate string  `json:"contractStartDate,omitempty"`
	ContractEndDate   string  `json:"contractEndDate,omitempty"`
}

// Apply backfills current fields from legacy ones. A field already set in
// the current format is never overwritten, so Apply(Apply(x)) == Apply(x).
func Apply(rec LegacyProject) domain.Project {
	p := rec.Project
	if p.CustomerName == "" {
		p.CustomerName = rec.Customer
	}
	if p.SiteName == "" {
		p.SiteName = rec.Site
	}
	if p.ProjectValue == 0 {
		p.ProjectValue = rec.Value
	}
	if p.ContractDate == "" {
		p.ContractDate = rec.ContractStartDate
	}
	if p.ContractDeliveryDate == "" {
		p.ContractDeliveryDate = rec.ContractEndDate
	}
	if p.ProjectArchitect == "" && len(p.Architects) > 0 {
		p.ProjectArchitect = p.Architects[0]
	}
	if p.DesignConsultant == "" && len(p.Architects) > 1 {
		p.DesignConsultant = p.Architects[1]
	}
	return p
}

// DecodeProjects parses a stored JSON array of project records, migrating
// each. The error distinguishes "not an array" from per-record issues only
// as far as callers need: any failure means the stored value is unusable.
func DecodeProjects(data []byte) ([]domain.Project, error) {
	var records []LegacyProject
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse stored projects: %w", err)
	}
	out := make([]domain.Project, len(records))
	for i, rec := range records {
		out[i] = Apply(rec)
	}
	return out, nil
}
