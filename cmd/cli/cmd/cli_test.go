package cmd

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"

	"debtorbatch/pkg/api"
)

func resetViper() {
	viper.Reset()
}

func runCommand(t *testing.T, args ...string) string {
	t.Helper()
	var stdout bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stdout)
	rootCmd.SetArgs(args)

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return stdout.String()
}

func TestUploadCommand_Success(t *testing.T) {
	resetViper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/imports/debtors" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-token" {
			t.Errorf("expected Bearer token, got: %s", r.Header.Get("Authorization"))
		}
		if r.Header.Get("X-Tenant-ID") != "tenant-1" {
			t.Errorf("expected tenant header, got: %s", r.Header.Get("X-Tenant-ID"))
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("missing file part: %v", err)
		} else {
			file.Close()
			if header.Filename != "deudores.csv" {
				t.Errorf("unexpected filename %s", header.Filename)
			}
		}

		w.WriteHeader(http.StatusAccepted)
		json.NewEncoder(w).Encode(api.JobResponse{
			JobID:   "11111111-2222-3333-4444-555555555555",
			Status:  "QUEUED",
			Message: "import job accepted",
		})
	}))
	defer server.Close()

	viper.Set("url", server.URL)
	viper.Set("token", "test-token")
	viper.Set("tenant", "tenant-1")

	path := filepath.Join(t.TempDir(), "deudores.csv")
	if err := os.WriteFile(path, []byte("Identificación,...\n"), 0o644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}

	out := runCommand(t, "upload", path)
	if !strings.Contains(out, "11111111-2222-3333-4444-555555555555") {
		t.Errorf("expected job id in output, got:\n%s", out)
	}
	if !strings.Contains(out, "QUEUED") {
		t.Errorf("expected status in output, got:\n%s", out)
	}
}

func TestUploadCommand_MissingToken(t *testing.T) {
	resetViper()

	out := runCommand(t, "upload", "whatever.csv")
	if !strings.Contains(out, "API token not found") {
		t.Errorf("expected token hint, got:\n%s", out)
	}
}

func TestStatusCommand_Success(t *testing.T) {
	resetViper()

	reason := "FAIL_FAST_TRIGGERED"
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "/imports/jobs/job-123") {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(api.JobStatusResponse{
			JobID:              "job-123",
			Status:             "FAILED",
			ProgressPercentage: 40,
			TotalRecords:       100,
			ProcessedRecords:   30,
			FailedRecords:      10,
			FailureReason:      &reason,
			CreatedAt:          time.Now().Add(-time.Minute),
			UpdatedAt:          time.Now(),
		})
	}))
	defer server.Close()

	viper.Set("url", server.URL)
	viper.Set("token", "test-token")

	out := runCommand(t, "status", "job-123")
	for _, want := range []string{"job-123", "FAILED", "FAIL_FAST_TRIGGERED", "40%"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output, got:\n%s", want, out)
		}
	}
}

func TestStatusCommand_APIError(t *testing.T) {
	resetViper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(api.ErrorResponse{
			Error: api.ErrorBody{Code: "JOB_NOT_FOUND", Message: "no such import job"},
		})
	}))
	defer server.Close()

	viper.Set("url", server.URL)
	viper.Set("token", "test-token")

	out := runCommand(t, "status", "missing-job")
	if !strings.Contains(out, "JOB_NOT_FOUND") {
		t.Errorf("expected error code in output, got:\n%s", out)
	}
}

func TestErrorsCommand_Descriptor(t *testing.T) {
	resetViper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(api.ErrorLogResponse{
			DownloadURL: "/imports/jobs/job-123/errors/download",
			ExpiresAt:   time.Now().Add(15 * time.Minute),
			RecordCount: 12,
		})
	}))
	defer server.Close()

	viper.Set("url", server.URL)
	viper.Set("token", "test-token")

	out := runCommand(t, "errors", "job-123")
	if !strings.Contains(out, "12") || !strings.Contains(out, "/errors/download") {
		t.Errorf("expected descriptor in output, got:\n%s", out)
	}
}

func TestErrorsCommand_NoFindings(t *testing.T) {
	resetViper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	viper.Set("url", server.URL)
	viper.Set("token", "test-token")

	out := runCommand(t, "errors", "job-123")
	if !strings.Contains(out, "without findings") {
		t.Errorf("expected no-findings message, got:\n%s", out)
	}
}

func TestErrorsCommand_Download(t *testing.T) {
	resetViper()

	content := []byte("workbook-bytes")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/errors/download") {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Write(content)
	}))
	defer server.Close()

	viper.Set("url", server.URL)
	viper.Set("token", "test-token")

	dest := filepath.Join(t.TempDir(), "errores.xlsx")
	out := runCommand(t, "errors", "job-123", "--download", dest)
	if !strings.Contains(out, dest) {
		t.Errorf("expected destination in output, got:\n%s", out)
	}

	got, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("read downloaded file: %v", err)
	}
	if !bytes.Equal(got, content) {
		t.Error("downloaded content mismatch")
	}

	// Reset the flag for other tests.
	downloadDest = ""
}

func TestProgressBar(t *testing.T) {
	if got := progressBar(0); strings.Contains(got, "█") {
		t.Errorf("expected empty bar, got %s", got)
	}
	if got := progressBar(100); strings.Contains(got, "░") {
		t.Errorf("expected full bar, got %s", got)
	}
	if got := progressBar(50); strings.Count(got, "█") != 5 {
		t.Errorf("expected half bar, got %s", got)
	}
}
