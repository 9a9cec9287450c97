package export

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blockedby/hiring-pipeline/internal/models"
)

func parse(t *testing.T, doc string) [][]string {
	t.Helper()
	records, err := csv.NewReader(strings.NewReader(doc)).ReadAll()
	require.NoError(t, err)
	return records
}

func TestToDelimitedText_RoundTrip(t *testing.T) {
	tricky := "Hello, \"world\"\nsecond line"
	applied := time.Date(2026, 2, 14, 18, 30, 0, 0, time.UTC)
	apps := []models.Application{{
		ID: "a1",
		Applicant: models.Applicant{
			Name:      "Ada Lovelace",
			Email:     "ada@example.com",
			Phone:     "+441234567890123",
			Title:     "Engineer",
			Location:  "London",
			Skills:    models.Skills{"Go", " go ", "SQL", ""},
			ResumeURL: "/files/ada.pdf",
		},
		CoverLetter: tricky,
		Status:      models.ApplicationPending,
		AppliedAt:   &applied,
		Job:         &models.JobRef{ID: "j1", Title: "Backend, Platform"},
	}}

	doc := ToDelimitedText(apps, nil, Options{Origin: "https://jobs.example.com/"})
	records := parse(t, doc)
	require.Len(t, records, 2)
	assert.Equal(t, Columns, records[0])

	want := []string{
		"Ada Lovelace",
		"ada@example.com",
		"\t+441234567890123",
		"Engineer",
		"London",
		"Go;SQL",
		tricky,
		"https://jobs.example.com/files/ada.pdf",
		"pending",
		"2026-02-14",
		"Backend, Platform",
	}
	assert.Equal(t, want, records[1])
}

func TestToDelimitedText_MissingValues(t *testing.T) {
	doc := ToDelimitedText([]models.Application{{ID: "a1"}}, nil, Options{})
	records := parse(t, doc)
	require.Len(t, records, 2)
	for i, v := range records[1] {
		assert.Equal(t, "N/A", v, "column %s", Columns[i])
	}
}

func TestToDelimitedText_QuotesOnlyWhenNeeded(t *testing.T) {
	assert.Equal(t, "plain", escape("plain"))
	assert.Equal(t, " leading space", escape(" leading space"))
	assert.Equal(t, `"a,b"`, escape("a,b"))
	assert.Equal(t, `"say ""hi"""`, escape(`say "hi"`))
	assert.Equal(t, "\"line\r\nbreak\"", escape("line\r\nbreak"))
}

func TestToDelimitedText_EnricherAndStability(t *testing.T) {
	apps := []models.Application{{ID: "a1", JobID: "j1", Applicant: models.Applicant{Name: "Grace"}}}
	enrich := func(a models.Application) models.Application {
		a.Job = &models.JobRef{ID: a.JobID, Title: "Compiler Engineer"}
		return a
	}

	first := ToDelimitedText(apps, enrich, Options{})
	second := ToDelimitedText(apps, enrich, Options{})
	assert.Equal(t, first, second)
	assert.Contains(t, first, "Compiler Engineer")
	assert.Nil(t, apps[0].Job, "input untouched")
}

func TestToDelimitedText_AbsoluteLinksUnchanged(t *testing.T) {
	apps := []models.Application{
		{Applicant: models.Applicant{ResumeURL: "https://cdn.example.com/cv.pdf"}},
		{Applicant: models.Applicant{ResumeURL: "//cdn.example.com/cv.pdf"}},
	}
	records := parse(t, ToDelimitedText(apps, nil, Options{Origin: "https://jobs.example.com"}))
	assert.Equal(t, "https://cdn.example.com/cv.pdf", records[1][7])
	assert.Equal(t, "//cdn.example.com/cv.pdf", records[2][7])
}

func TestFilename(t *testing.T) {
	at := time.Date(2026, 10, 15, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, "applications_all_2026-10-15.csv", Filename("", at))
	assert.Equal(t, "applications_j1_2026-10-15.csv", Filename("j1", at))
}

func TestFilename_DatesInUTC(t *testing.T) {
	// 00:30 on the 16th in UTC+3 is still the 15th in UTC
	local := time.Date(2026, 10, 16, 0, 30, 0, 0, time.FixedZone("UTC+3", 3*60*60))
	assert.Equal(t, "applications_all_2026-10-15.csv", Filename("all", local))
	assert.Equal(t, Filename("all", local.UTC()), Filename("all", local))
}

func TestWriteFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "exports")
	at := time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC)

	path, err := WriteFile(dir, "all", at, "Name\nAda\n")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "applications_all_2026-10-15.csv"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Name\nAda\n", string(data))
}
