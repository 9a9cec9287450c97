// Package view filters, sorts and windows application lists for display.
package view

import (
	"cmp"
	"slices"
	"strings"

	"github.com/blockedby/hiring-pipeline/internal/models"
)

// Status tabs with special meaning. Any other tab matches an application status.
const (
	TabAll         = "All"
	TabInterviewed = "Interviewed"
)

// SortKey orders the visible list.
type SortKey string

// SortKey constants.
const (
	SortNewest     SortKey = "newest"
	SortOldest     SortKey = "oldest"
	SortCompany    SortKey = "company"
	SortTitle      SortKey = "title"
	SortName       SortKey = "name"
	SortSalaryAsc  SortKey = "salary_asc"
	SortSalaryDesc SortKey = "salary_desc"
)

// SortKeys lists every supported key.
var SortKeys = []SortKey{SortNewest, SortOldest, SortCompany, SortTitle, SortName, SortSalaryAsc, SortSalaryDesc}

// ParseSortKey returns the key for s, defaulting to newest.
func ParseSortKey(s string) SortKey {
	k := SortKey(strings.ToLower(strings.TrimSpace(s)))
	if slices.Contains(SortKeys, k) {
		return k
	}
	return SortNewest
}

// Criteria are the filter inputs of a view.
type Criteria struct {
	StatusTab  string  `json:"status_tab"`
	SearchTerm string  `json:"search_term"`
	SortKey    SortKey `json:"sort_key"`
}

// InterviewLookup answers whether any interview references an application.
type InterviewLookup interface {
	HasInterview(applicationID string) bool
}

// Visible returns the filtered and sorted applications. The input is not modified.
func Visible(apps []models.Application, c Criteria, lookup InterviewLookup) []models.Application {
	tab := strings.TrimSpace(c.StatusTab)
	term := strings.ToLower(strings.TrimSpace(c.SearchTerm))

	out := make([]models.Application, 0, len(apps))
	for _, app := range apps {
		if !matchesTab(app, tab, lookup) {
			continue
		}
		if term != "" && !matchesSearch(app, term) {
			continue
		}
		out = append(out, app)
	}

	slices.SortStableFunc(out, comparator(c.SortKey))
	return out
}

func matchesTab(app models.Application, tab string, lookup InterviewLookup) bool {
	switch {
	case tab == "" || strings.EqualFold(tab, TabAll):
		return true
	case strings.EqualFold(tab, TabInterviewed):
		// interview records, not the status field, decide membership
		return lookup != nil && lookup.HasInterview(app.ID)
	default:
		return strings.EqualFold(string(app.Status), tab)
	}
}

func matchesSearch(app models.Application, term string) bool {
	fields := []string{app.Applicant.Name, app.Applicant.Email}
	if app.Job != nil {
		fields = append(fields, app.Job.Title)
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), term) {
			return true
		}
	}
	return false
}

func comparator(key SortKey) func(a, b models.Application) int {
	switch ParseSortKey(string(key)) {
	case SortOldest:
		return func(a, b models.Application) int {
			return a.RecencyTime().Compare(b.RecencyTime())
		}
	case SortCompany:
		return byString(func(a models.Application) string { return jobField(a, func(j *models.JobRef) string { return j.CompanyName }) })
	case SortTitle:
		return byString(func(a models.Application) string { return jobField(a, func(j *models.JobRef) string { return j.Title }) })
	case SortName:
		return byString(func(a models.Application) string { return a.Applicant.Name })
	case SortSalaryAsc:
		return func(a, b models.Application) int {
			return cmp.Compare(a.Job.Salary(), b.Job.Salary())
		}
	case SortSalaryDesc:
		return func(a, b models.Application) int {
			return cmp.Compare(b.Job.Salary(), a.Job.Salary())
		}
	default:
		return func(a, b models.Application) int {
			return b.RecencyTime().Compare(a.RecencyTime())
		}
	}
}

func byString(field func(models.Application) string) func(a, b models.Application) int {
	return func(a, b models.Application) int {
		return cmp.Compare(strings.ToLower(field(a)), strings.ToLower(field(b)))
	}
}

func jobField(a models.Application, get func(*models.JobRef) string) string {
	if a.Job == nil {
		return ""
	}
	return get(a.Job)
}
