// Package client is a thin staff API client used by baywatchctl.
package client

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/Harsh-BH/baywatch/internal/domain"
)

const apiPrefix = "/api/v1"

// APIError is the error body returned by the server.
type APIError struct {
	StatusCode int    `json:"-"`
	Message    string `json:"error"`
	Code       string `json:"code"`
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%d %s: %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("%d: %s", e.StatusCode, e.Message)
}

// Config holds the connection settings for a Client.
type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// Client talks to the staff endpoints.
type Client struct {
	HTTP *resty.Client
}

// Release is the response of a release call.
type Release struct {
	Message  string `json:"message"`
	JobID    int64  `json:"job_id"`
	CameraID *int64 `json:"camera_id"`
}

// Share is the response of a share call.
type Share struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Path      string    `json:"path"`
}

// New creates a Client.
func New(cfg Config) *Client {
	r := resty.New()
	r.SetBaseURL(cfg.BaseURL)
	r.SetHeader("Accept", "application/json")
	if cfg.Token != "" {
		r.SetAuthToken(cfg.Token)
	}
	if cfg.Timeout > 0 {
		r.SetTimeout(cfg.Timeout)
	}
	return &Client{HTTP: r}
}

// Health returns the health payload as text.
func (c *Client) Health(ctx context.Context) (string, error) {
	resp, err := c.HTTP.R().SetContext(ctx).Get(apiPrefix + "/health")
	if err != nil {
		return "", err
	}
	return resp.String(), nil
}

// ListJobs returns the branch's jobs, optionally filtered by status.
func (c *Client) ListJobs(ctx context.Context, branchID int64, status string) ([]domain.Job, error) {
	var jobs []domain.Job
	req := c.HTTP.R().SetContext(ctx).SetResult(&jobs)
	if status != "" {
		req.SetQueryParam("status", status)
	}
	err := c.do(req, "GET", fmt.Sprintf("%s/branches/%d/jobs", apiPrefix, branchID))
	return jobs, err
}

// History returns completed jobs, optionally for one branch.
func (c *Client) History(ctx context.Context, branchID int64) ([]domain.Job, error) {
	var jobs []domain.Job
	req := c.HTTP.R().SetContext(ctx).SetResult(&jobs)
	if branchID > 0 {
		req.SetQueryParam("branchId", strconv.FormatInt(branchID, 10))
	}
	err := c.do(req, "GET", apiPrefix+"/jobs/history")
	return jobs, err
}

// GetJob fetches a single job.
func (c *Client) GetJob(ctx context.Context, id int64) (*domain.Job, error) {
	var job domain.Job
	if err := c.do(c.HTTP.R().SetContext(ctx).SetResult(&job), "GET", jobPath(id, "")); err != nil {
		return nil, err
	}
	return &job, nil
}

// CreateJob opens a new job.
func (c *Client) CreateJob(ctx context.Context, req *domain.CreateJobRequest) (*domain.Job, error) {
	var job domain.Job
	r := c.HTTP.R().SetContext(ctx).SetBody(req).SetResult(&job)
	if err := c.do(r, "POST", apiPrefix+"/jobs"); err != nil {
		return nil, err
	}
	return &job, nil
}

// CompleteJob completes a job and frees its camera.
func (c *Client) CompleteJob(ctx context.Context, id int64) (*domain.Job, error) {
	var job domain.Job
	if err := c.do(c.HTTP.R().SetContext(ctx).SetResult(&job), "POST", jobPath(id, "/complete")); err != nil {
		return nil, err
	}
	return &job, nil
}

// ReleaseJob frees the job's camera without completing the job.
func (c *Client) ReleaseJob(ctx context.Context, id int64) (*Release, error) {
	var out Release
	if err := c.do(c.HTTP.R().SetContext(ctx).SetResult(&out), "POST", jobPath(id, "/release")); err != nil {
		return nil, err
	}
	return &out, nil
}

// ShareJob issues a public viewing link for the job's camera.
func (c *Client) ShareJob(ctx context.Context, id int64) (*Share, error) {
	var out Share
	if err := c.do(c.HTTP.R().SetContext(ctx).SetResult(&out), "POST", jobPath(id, "/share")); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListCameras returns the branch's cameras. An empty status lets the server pick its default.
func (c *Client) ListCameras(ctx context.Context, branchID int64, status string) ([]domain.Camera, error) {
	var cameras []domain.Camera
	req := c.HTTP.R().SetContext(ctx).
		SetQueryParam("branchId", strconv.FormatInt(branchID, 10)).
		SetResult(&cameras)
	if status != "" {
		req.SetQueryParam("status", status)
	}
	err := c.do(req, "GET", apiPrefix+"/cameras")
	return cameras, err
}

// CreateCamera registers a camera.
func (c *Client) CreateCamera(ctx context.Context, req *domain.CreateCameraRequest) (*domain.Camera, error) {
	var camera domain.Camera
	r := c.HTTP.R().SetContext(ctx).SetBody(req).SetResult(&camera)
	if err := c.do(r, "POST", apiPrefix+"/cameras"); err != nil {
		return nil, err
	}
	return &camera, nil
}

func (c *Client) do(req *resty.Request, method, url string) error {
	req.SetError(&APIError{})
	resp, err := req.Execute(method, url)
	if err != nil {
		return err
	}
	if !resp.IsError() {
		return nil
	}
	if apiErr, ok := resp.Error().(*APIError); ok && apiErr.Message != "" {
		apiErr.StatusCode = resp.StatusCode()
		return apiErr
	}
	return &APIError{StatusCode: resp.StatusCode(), Message: resp.String()}
}

func jobPath(id int64, suffix string) string {
	return fmt.Sprintf("%s/jobs/%d%s", apiPrefix, id, suffix)
}
