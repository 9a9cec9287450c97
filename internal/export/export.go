// Package export renders applications as a delimited-text document.
package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/blockedby/hiring-pipeline/internal/models"
)

// Columns is the fixed header row.
var Columns = []string{
	"Name", "Email", "Phone", "Title", "Location", "Skills",
	"Cover Letter", "Resume Link", "Status", "Applied Date", "Job Title",
}

const (
	missing    = "N/A"
	phoneMark  = "\t"
	dateLayout = "2006-01-02"
	// ScopeAll names an export across every job.
	ScopeAll = "all"
)

// Enricher fills in context an application row needs, such as its job.
type Enricher func(models.Application) models.Application

// Options tune rendering.
type Options struct {
	// Origin is prefixed to root-relative resume links.
	Origin string
}

// ToDelimitedText renders apps. Identical input yields identical output.
func ToDelimitedText(apps []models.Application, enrich Enricher, opts Options) string {
	var b strings.Builder
	writeRow(&b, Columns)
	for _, app := range apps {
		if enrich != nil {
			app = enrich(app)
		}
		writeRow(&b, row(app, opts))
	}
	return b.String()
}

// Write renders apps to w.
func Write(w io.Writer, apps []models.Application, enrich Enricher, opts Options) error {
	_, err := io.WriteString(w, ToDelimitedText(apps, enrich, opts))
	return err
}

func row(app models.Application, opts Options) []string {
	phone := ""
	if app.Applicant.Phone != "" {
		phone = phoneMark + app.Applicant.Phone
	}

	applied := ""
	if t := app.RecencyTime(); !t.IsZero() {
		applied = t.Format(dateLayout)
	}

	jobTitle := ""
	if app.Job != nil {
		jobTitle = app.Job.Title
	}

	return []string{
		app.Applicant.Name,
		app.Applicant.Email,
		phone,
		app.Applicant.Title,
		app.Applicant.Location,
		strings.Join(app.Applicant.Skills.Normalized(), ";"),
		app.CoverLetter,
		absoluteLink(app.Applicant.ResumeURL, opts.Origin),
		string(app.Status),
		applied,
		jobTitle,
	}
}

func absoluteLink(link, origin string) string {
	if origin == "" || !strings.HasPrefix(link, "/") || strings.HasPrefix(link, "//") {
		return link
	}
	return strings.TrimRight(origin, "/") + link
}

func writeRow(b *strings.Builder, fields []string) {
	for i, f := range fields {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(escape(f))
	}
	b.WriteByte('\n')
}

// escape quotes a field only when it holds a separator, a line break or a quote.
func escape(field string) string {
	if field == "" {
		return missing
	}
	if !strings.ContainsAny(field, ",\n\r\"") {
		return field
	}
	return `"` + strings.ReplaceAll(field, `"`, `""`) + `"`
}

// Filename returns applications_<scope>_<YYYY-MM-DD>.csv.
func Filename(scope string, at time.Time) string {
	if scope == "" {
		scope = ScopeAll
	}
	// dated in UTC so local and server renders of one snapshot share a name
	return fmt.Sprintf("applications_%s_%s.csv", scope, at.UTC().Format(dateLayout))
}

// WriteFile writes body to dir under Filename and returns the path.
func WriteFile(dir, scope string, at time.Time, body string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}
	path := filepath.Join(dir, Filename(scope, at))
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		return "", fmt.Errorf("write export: %w", err)
	}
	return path, nil
}
