package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/blockedby/hiring-pipeline/internal/logger"
	"github.com/blockedby/hiring-pipeline/internal/models"
)

// Client talks to the pipeline API over HTTP/JSON.
type Client struct {
	baseURL string
	http    *http.Client
	log     *logger.Logger
}

// NewClient creates a client for the API rooted at baseURL.
func NewClient(baseURL string, timeout time.Duration, log *logger.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		log:     logger.OrGlobal(log),
	}
}

type jobsResponse struct {
	Jobs []models.Job `json:"jobs"`
}

type applicationsResponse struct {
	Applications []models.Application `json:"applications"`
}

type interviewsResponse struct {
	Interviews []models.Interview `json:"interviews"`
}

// ListJobs implements Boundary.
func (c *Client) ListJobs(ctx context.Context) ([]models.Job, error) {
	var resp jobsResponse
	if err := c.do(ctx, http.MethodGet, "/api/v1/jobs", nil, &resp); err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	return resp.Jobs, nil
}

// ListApplications implements Boundary.
func (c *Client) ListApplications(ctx context.Context, jobID string) ([]models.Application, error) {
	path := "/api/v1/applications"
	if jobID != "" {
		path += "?job_id=" + url.QueryEscape(jobID)
	}

	var resp applicationsResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	return resp.Applications, nil
}

// ListInterviews implements Boundary.
func (c *Client) ListInterviews(ctx context.Context, jobID string) ([]models.Interview, error) {
	var resp interviewsResponse
	path := "/api/v1/interviews?job_id=" + url.QueryEscape(jobID)
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("list interviews: %w", err)
	}
	return resp.Interviews, nil
}

// SetApplicationStatus implements Boundary.
func (c *Client) SetApplicationStatus(ctx context.Context, applicationID string, status models.ApplicationStatus) error {
	body := map[string]string{"status": string(status)}
	path := "/api/v1/applications/" + url.PathEscape(applicationID) + "/status"
	if err := c.do(ctx, http.MethodPatch, path, body, nil); err != nil {
		return fmt.Errorf("set application status: %w", err)
	}
	return nil
}

// ScheduleInterview implements Boundary.
func (c *Client) ScheduleInterview(ctx context.Context, req ScheduleRequest) (ScheduleResult, error) {
	var resp ScheduleResult
	if err := c.do(ctx, http.MethodPost, "/api/v1/interviews", req, &resp); err != nil {
		return ScheduleResult{}, fmt.Errorf("schedule interview: %w", err)
	}
	return resp, nil
}

// CancelInterview implements Boundary.
func (c *Client) CancelInterview(ctx context.Context, interviewID string) error {
	path := "/api/v1/interviews/" + url.PathEscape(interviewID)
	if err := c.do(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return fmt.Errorf("cancel interview: %w", err)
	}
	return nil
}

// Export downloads the server-rendered CSV for scope ("" for all jobs).
func (c *Client) Export(ctx context.Context, jobID string) ([]byte, error) {
	path := "/api/v1/export"
	if jobID != "" {
		path += "?job_id=" + url.QueryEscape(jobID)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read export: %w", err)
	}
	if resp.StatusCode >= 300 {
		return nil, &Error{StatusCode: resp.StatusCode, Message: problemMessage(data)}
	}
	return data, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	c.log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("backend call")

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 300 {
		return &Error{StatusCode: resp.StatusCode, Message: problemMessage(data)}
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// problemMessage extracts a human message from an RFC 9457 problem body
// or a {"error": "..."} body.
func problemMessage(data []byte) string {
	var p struct {
		Detail string `json:"detail"`
		Title  string `json:"title"`
		Error  string `json:"error"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return strings.TrimSpace(string(data))
	}
	switch {
	case p.Detail != "":
		return p.Detail
	case p.Error != "":
		return p.Error
	default:
		return p.Title
	}
}
