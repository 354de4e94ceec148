package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Harsh-BH/baywatch/internal/credentials"
	"github.com/Harsh-BH/baywatch/internal/domain"
)

func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestJobsList_Table(t *testing.T) {
	cameraID := int64(4)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/branches/1/jobs" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("Authorization = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode([]domain.Job{{
			ID:           12,
			BranchID:     1,
			CameraID:     &cameraID,
			Status:       domain.JobInProgress,
			CustomerName: "Dana",
			CarModel:     "Corolla",
			EnteredAt:    time.Now(),
		}})
	}))
	defer srv.Close()

	out, err := runCLI(t, "", "--url", srv.URL, "--token", "tok", "jobs", "list", "--branch", "1")
	if err != nil {
		t.Fatalf("jobs list error = %v", err)
	}
	for _, want := range []string{"CUSTOMER", "Dana", "in_progress", "Corolla"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestJobsComplete_PropagatesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"Job not found","code":"job_not_found"}`))
	}))
	defer srv.Close()

	_, err := runCLI(t, "", "--url", srv.URL, "jobs", "complete", "99")
	if err == nil || !strings.Contains(err.Error(), "job_not_found") {
		t.Fatalf("jobs complete error = %v, want job_not_found", err)
	}
}

func TestJobsShare_PrintsPublicURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{
			"token":      "abcdefghijklmnop",
			"expires_at": time.Now().Add(time.Hour),
			"path":       "/stream/3/4?token=abcdefghijklmnop",
		})
	}))
	defer srv.Close()

	out, err := runCLI(t, "", "--url", srv.URL+"/", "jobs", "share", "3")
	if err != nil {
		t.Fatalf("jobs share error = %v", err)
	}
	want := srv.URL + "/api/v1/public/stream/3/4?token=abcdefghijklmnop"
	if !strings.Contains(out, want) {
		t.Errorf("output = %q, want it to contain %q", out, want)
	}
}

func TestInvalidIDArg(t *testing.T) {
	if _, err := runCLI(t, "", "jobs", "release", "abc"); err == nil {
		t.Fatal("expected error for non-numeric id")
	}
}

func TestSeal_RoundTrip(t *testing.T) {
	encoded, err := credentials.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey() error = %v", err)
	}

	out, err := runCLI(t, "hunter2\n", "seal", "--key", encoded)
	if err != nil {
		t.Fatalf("seal error = %v", err)
	}

	key, _ := credentials.ParseKey(encoded)
	sealer, _ := credentials.NewSealer(key)
	got, err := sealer.Open(strings.TrimSpace(out))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if got != "hunter2" {
		t.Errorf("Open() = %q, want hunter2", got)
	}
}

func TestSeal_RequiresKey(t *testing.T) {
	t.Setenv("BAYWATCH_CREDENTIALS_KEY", "")
	if _, err := runCLI(t, "hunter2\n", "seal"); err == nil {
		t.Fatal("expected error without a key")
	}
}
