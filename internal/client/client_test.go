package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Harsh-BH/baywatch/internal/domain"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(Config{BaseURL: srv.URL, Token: "staff-secret", Timeout: 5 * time.Second})
}

func TestListJobs_SendsTokenAndStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer staff-secret" {
			t.Errorf("Authorization = %q", got)
		}
		if r.URL.Path != "/api/v1/branches/3/jobs" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("status"); got != "in_progress" {
			t.Errorf("status = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode([]domain.Job{{ID: 7, BranchID: 3, Status: domain.JobInProgress}})
	})

	jobs, err := c.ListJobs(context.Background(), 3, "in_progress")
	if err != nil {
		t.Fatalf("ListJobs() error = %v", err)
	}
	if len(jobs) != 1 || jobs[0].ID != 7 {
		t.Fatalf("ListJobs() = %+v", jobs)
	}
}

func TestCompleteJob_DecodesAPIError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/v1/jobs/9/complete" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"Job not found","code":"job_not_found"}`))
	})

	_, err := c.CompleteJob(context.Background(), 9)
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("CompleteJob() error = %v, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusNotFound || apiErr.Code != "job_not_found" {
		t.Errorf("APIError = %+v", apiErr)
	}
}

func TestShareJob(t *testing.T) {
	expires := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{
			"token":      "abcdefghijklmnop",
			"expires_at": expires,
			"path":       "/stream/4/2?token=abcdefghijklmnop",
		})
	})

	share, err := c.ShareJob(context.Background(), 4)
	if err != nil {
		t.Fatalf("ShareJob() error = %v", err)
	}
	if share.Token != "abcdefghijklmnop" || !share.ExpiresAt.Equal(expires) {
		t.Errorf("ShareJob() = %+v", share)
	}
}

func TestListCameras_NonJSONError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("branchId"); got != "5" {
			t.Errorf("branchId = %q", got)
		}
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream down"))
	})

	_, err := c.ListCameras(context.Background(), 5, "")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("ListCameras() error = %v, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusBadGateway || apiErr.Message != "upstream down" {
		t.Errorf("APIError = %+v", apiErr)
	}
}
