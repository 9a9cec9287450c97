package models

import "time"

// Job is an employer posting that applications are submitted against.
// The core only reads jobs; ApplicationCount is recomputed locally.
type Job struct {
	ID          string `json:"id" yaml:"id"`
	Title       string `json:"title" yaml:"title"`
	CompanyID   string `json:"company_id" yaml:"company_id"`
	CompanyName string `json:"company_name,omitempty" yaml:"company_name"`
	Location    string `json:"location,omitempty" yaml:"location"`

	// salary range, either side may be unknown
	SalaryMin *int `json:"salary_min,omitempty" yaml:"salary_min"`
	SalaryMax *int `json:"salary_max,omitempty" yaml:"salary_max"`

	ApplicationCount int       `json:"application_count" yaml:"-"`
	CreatedAt        time.Time `json:"created_at" yaml:"created_at"`
}

// Ref returns the denormalized job context stored on applications.
func (j Job) Ref() *JobRef {
	return &JobRef{
		ID:          j.ID,
		Title:       j.Title,
		CompanyName: j.CompanyName,
		SalaryMin:   j.SalaryMin,
		SalaryMax:   j.SalaryMax,
	}
}

// JobRef is the job context embedded in an application payload.
// Upstream occasionally omits it, so it may be nil.
type JobRef struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	CompanyName string `json:"company_name,omitempty"`
	SalaryMin   *int   `json:"salary_min,omitempty"`
	SalaryMax   *int   `json:"salary_max,omitempty"`
}

// Salary returns max, then min, then zero.
func (r *JobRef) Salary() int {
	if r == nil {
		return 0
	}
	if r.SalaryMax != nil {
		return *r.SalaryMax
	}
	if r.SalaryMin != nil {
		return *r.SalaryMin
	}
	return 0
}
