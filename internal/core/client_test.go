package core

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"debtorbatch/internal/logger"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testAuth() AuthContext {
	return AuthContext{BearerToken: "tok", TenantID: "tenant-1", DepartmentID: "dept-1"}
}

func testRequest() *BatchImportRequest {
	return &BatchImportRequest{
		BatchID: "batch-1",
		Items: []BatchItem{
			{RowNumber: 2, Debtor: Debtor{ExternalID: "1710034065", FullName: "Juan Pérez"}},
		},
	}
}

func TestImportBatchSendsHeaders(t *testing.T) {
	var got *http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Clone(context.Background())
		json.NewEncoder(w).Encode(BatchImportResponse{
			Success: true,
			Data:    BatchResponseData{ProcessedCount: 1},
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second, 1, testLogger())
	ctx := logger.WithCorrelationID(context.Background(), "corr-123")

	resp, err := client.ImportBatch(ctx, testAuth(), testRequest())
	if err != nil {
		t.Fatalf("import batch: %v", err)
	}
	if resp.Data.ProcessedCount != 1 {
		t.Errorf("expected 1 processed, got %d", resp.Data.ProcessedCount)
	}

	if got.URL.Path != "/debtors/batch-import" {
		t.Errorf("unexpected path %s", got.URL.Path)
	}
	headers := map[string]string{
		"Authorization":    "Bearer tok",
		"X-Tenant-ID":      "tenant-1",
		"X-Department-ID":  "dept-1",
		"X-Correlation-ID": "corr-123",
	}
	for k, want := range headers {
		if v := got.Header.Get(k); v != want {
			t.Errorf("header %s = %q, want %q", k, v, want)
		}
	}
}

func TestImportBatchDecodesResponseBody(t *testing.T) {
	// The body is decoded from Core's wire names, not this package's field
	// names.
	body := `{"success":true,"data":{"processedCount":450,"failedCount":50,` +
		`"errors":[{"rowIndex":7,"externalKey":"1710034065","message":"duplicate debtor"}]}}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, body)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second, 1, testLogger())

	resp, err := client.ImportBatch(context.Background(), testAuth(), testRequest())
	if err != nil {
		t.Fatalf("import batch: %v", err)
	}
	if resp.Data.ProcessedCount != 450 {
		t.Errorf("processedCount = %d, want 450", resp.Data.ProcessedCount)
	}
	if resp.Data.FailedCount != 50 {
		t.Errorf("failedCount = %d, want 50", resp.Data.FailedCount)
	}
	if len(resp.Data.Errors) != 1 {
		t.Fatalf("expected 1 row error, got %d", len(resp.Data.Errors))
	}
	e := resp.Data.Errors[0]
	if e.RowIndex != 7 || e.ExternalKey != "1710034065" || e.Message != "duplicate debtor" {
		t.Errorf("unexpected row error %+v", e)
	}
}

func TestImportBatchRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(BatchImportResponse{Success: true})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second, 3, testLogger())
	if _, err := client.ImportBatch(context.Background(), testAuth(), testRequest()); err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if n := calls.Load(); n != 3 {
		t.Errorf("expected 3 calls, got %d", n)
	}
}

func TestImportBatchDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad payload", http.StatusBadRequest)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second, 3, testLogger())
	_, err := client.ImportBatch(context.Background(), testAuth(), testRequest())

	var commErr *CommunicationError
	if !errors.As(err, &commErr) {
		t.Fatalf("expected CommunicationError, got %v", err)
	}
	if commErr.StatusCode != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", commErr.StatusCode)
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("expected 1 call, got %d", n)
	}
}

func TestImportBatchUnreachable(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", time.Second, 1, testLogger())
	_, err := client.ImportBatch(context.Background(), testAuth(), testRequest())

	var commErr *CommunicationError
	if !errors.As(err, &commErr) {
		t.Fatalf("expected CommunicationError, got %v", err)
	}
	if commErr.StatusCode != 0 {
		t.Errorf("expected no status code, got %d", commErr.StatusCode)
	}
	if !errors.Is(err, ErrCoreUnavailable) {
		t.Error("expected err to match ErrCoreUnavailable")
	}
}
