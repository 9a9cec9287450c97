package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ApplicationStatus represents where a candidate is in the hiring pipeline.
type ApplicationStatus string

// ApplicationStatus constants define the possible states of an application.
const (
	ApplicationPending     ApplicationStatus = "pending"
	ApplicationInterviewed ApplicationStatus = "interviewed"
	ApplicationHired       ApplicationStatus = "hired"
	ApplicationRejected    ApplicationStatus = "rejected"
)

// ApplicationStatuses lists every known status in display order.
var ApplicationStatuses = []ApplicationStatus{
	ApplicationPending,
	ApplicationInterviewed,
	ApplicationHired,
	ApplicationRejected,
}

// ParseApplicationStatus parses a status case-insensitively.
func ParseApplicationStatus(s string) (ApplicationStatus, error) {
	norm := ApplicationStatus(strings.ToLower(strings.TrimSpace(s)))
	for _, st := range ApplicationStatuses {
		if st == norm {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown application status: %q", s)
}

// Applicant is the candidate behind an application.
type Applicant struct {
	ID        string `json:"id" yaml:"id"`
	Name      string `json:"name" yaml:"name"`
	Email     string `json:"email" yaml:"email"`
	Phone     string `json:"phone,omitempty" yaml:"phone"`
	Title     string `json:"title,omitempty" yaml:"title"`
	Location  string `json:"location,omitempty" yaml:"location"`
	Skills    Skills `json:"skills,omitempty" yaml:"skills"`
	ResumeURL string `json:"resume_url,omitempty" yaml:"resume_url"`
}

// Application is a candidate's submission against a job.
type Application struct {
	ID    string  `json:"id" yaml:"id"`
	JobID string  `json:"job_id" yaml:"job_id"`
	Job   *JobRef `json:"job,omitempty" yaml:"-"`

	Applicant   Applicant         `json:"applicant" yaml:"applicant"`
	CoverLetter string            `json:"cover_letter,omitempty" yaml:"cover_letter"`
	Status      ApplicationStatus `json:"status" yaml:"status"`

	// timestamps
	AppliedAt *time.Time `json:"applied_at,omitempty" yaml:"applied_at"`
	CreatedAt time.Time  `json:"created_at" yaml:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty" yaml:"updated_at"`
}

// EffectiveJobID returns the job reference, falling back to the embedded job.
func (a Application) EffectiveJobID() string {
	if a.JobID != "" {
		return a.JobID
	}
	if a.Job != nil {
		return a.Job.ID
	}
	return ""
}

// RecencyTime walks applied -> created -> updated and returns the first known time.
func (a Application) RecencyTime() time.Time {
	if a.AppliedAt != nil && !a.AppliedAt.IsZero() {
		return *a.AppliedAt
	}
	if !a.CreatedAt.IsZero() {
		return a.CreatedAt
	}
	if a.UpdatedAt != nil {
		return *a.UpdatedAt
	}
	return time.Time{}
}

// Skills is the canonical list of skill names.
// On the wire it arrives either as plain strings or as {"name": ...} records.
type Skills []string

// UnmarshalJSON accepts both wire shapes.
func (s *Skills) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		// tolerate a single comma separated string
		var single string
		if err2 := json.Unmarshal(data, &single); err2 != nil {
			return fmt.Errorf("decode skills: %w", err)
		}
		*s = splitSkills(single)
		return nil
	}

	out := make(Skills, 0, len(raw))
	for _, item := range raw {
		var name string
		if err := json.Unmarshal(item, &name); err == nil {
			out = append(out, name)
			continue
		}
		var rec struct {
			Name string `json:"name"`
		}
		if err := json.Unmarshal(item, &rec); err != nil {
			return fmt.Errorf("decode skill: %w", err)
		}
		out = append(out, rec.Name)
	}
	*s = out
	return nil
}

// Normalized trims names, drops blanks and removes case-insensitive duplicates.
func (s Skills) Normalized() Skills {
	if len(s) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(s))
	out := make(Skills, 0, len(s))
	for _, name := range s {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		key := strings.ToLower(name)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, name)
	}
	return out
}

func splitSkills(s string) Skills {
	return Skills(strings.Split(s, ","))
}
