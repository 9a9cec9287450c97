// Package seed loads pipeline fixtures from YAML and writes them to the database.
package seed

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"

	"github.com/blockedby/hiring-pipeline/internal/logger"
	"github.com/blockedby/hiring-pipeline/internal/models"
	"github.com/blockedby/hiring-pipeline/internal/repository"
)

// File is the on-disk fixture layout.
type File struct {
	Jobs         []models.Job         `yaml:"jobs"`
	Applications []models.Application `yaml:"applications"`
	Interviews   []models.Interview   `yaml:"interviews"`
}

// Load reads and parses a fixture file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes a fixture document. Unknown keys are rejected.
func Parse(data []byte) (*File, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return &f, nil
		}
		return nil, fmt.Errorf("parse seed: %w", err)
	}
	return &f, nil
}

// Validate reports every referential or domain problem in the fixtures.
func (f *File) Validate() error {
	var errs []error
	addf := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	jobs := make(map[string]bool, len(f.Jobs))
	for i, j := range f.Jobs {
		switch {
		case j.ID == "":
			addf("jobs[%d]: id is required", i)
		case jobs[j.ID]:
			addf("jobs[%d]: duplicate id %q", i, j.ID)
		}
		if j.Title == "" {
			addf("jobs[%d]: title is required", i)
		}
		if j.SalaryMin != nil && j.SalaryMax != nil && *j.SalaryMin > *j.SalaryMax {
			addf("jobs[%d]: salary_min exceeds salary_max", i)
		}
		jobs[j.ID] = true
	}

	apps := make(map[string]models.Application, len(f.Applications))
	for i, a := range f.Applications {
		switch {
		case a.ID == "":
			addf("applications[%d]: id is required", i)
		case apps[a.ID].ID != "":
			addf("applications[%d]: duplicate id %q", i, a.ID)
		}
		if !jobs[a.JobID] {
			addf("applications[%d]: unknown job %q", i, a.JobID)
		}
		if a.Applicant.ID == "" {
			addf("applications[%d]: applicant.id is required", i)
		}
		if a.Status != "" {
			if _, err := models.ParseApplicationStatus(string(a.Status)); err != nil {
				addf("applications[%d]: %v", i, err)
			}
		}
		apps[a.ID] = a
	}

	ids := make(map[string]bool, len(f.Interviews))
	active := make(map[[2]string]string)
	for i, iv := range f.Interviews {
		switch {
		case iv.ID == "":
			addf("interviews[%d]: id is required", i)
		case ids[iv.ID]:
			addf("interviews[%d]: duplicate id %q", i, iv.ID)
		}
		ids[iv.ID] = true

		app, ok := apps[iv.ApplicationID]
		if !ok {
			addf("interviews[%d]: unknown application %q", i, iv.ApplicationID)
		} else if app.JobID != iv.JobID || app.Applicant.ID != iv.ApplicantID {
			addf("interviews[%d]: job and applicant do not match application %q", i, iv.ApplicationID)
		}
		if iv.ScheduledAt.IsZero() {
			addf("interviews[%d]: scheduled_at is required", i)
		}
		if utf8.RuneCountInString(iv.Notes) > models.MaxInterviewNotes {
			addf("interviews[%d]: notes exceed %d characters", i, models.MaxInterviewNotes)
		}

		status := iv.Status
		if status == "" {
			status = models.InterviewScheduled
		}
		if _, err := models.ParseInterviewStatus(string(status)); err != nil {
			addf("interviews[%d]: %v", i, err)
			continue
		}
		if status != models.InterviewCancelled {
			pair := [2]string{iv.JobID, iv.ApplicantID}
			if prev, dup := active[pair]; dup {
				addf("interviews[%d]: pair (%s, %s) already has active interview %q", i, iv.JobID, iv.ApplicantID, prev)
			}
			active[pair] = iv.ID
		}
	}

	return errors.Join(errs...)
}

// Apply validates f and upserts it in one transaction.
func (f *File) Apply(ctx context.Context, db *gorm.DB, log *logger.Logger) error {
	if err := f.Validate(); err != nil {
		return fmt.Errorf("invalid seed: %w", err)
	}
	log = logger.OrGlobal(log).Component("seed")

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		jobs := repository.NewJobsRepository(tx)
		for _, j := range f.Jobs {
			if err := jobs.Upsert(ctx, j); err != nil {
				return err
			}
		}

		apps := repository.NewApplicationsRepository(tx, log)
		for _, a := range f.Applications {
			if err := apps.Upsert(ctx, a); err != nil {
				return err
			}
		}

		ivs := repository.NewInterviewsRepository(tx)
		for _, iv := range f.Interviews {
			if iv.Status == "" {
				iv.Status = models.InterviewScheduled
			}
			if err := ivs.Upsert(ctx, iv); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("apply seed: %w", err)
	}

	log.Info().
		Int("jobs", len(f.Jobs)).
		Int("applications", len(f.Applications)).
		Int("interviews", len(f.Interviews)).
		Msg("seed applied")
	return nil
}
