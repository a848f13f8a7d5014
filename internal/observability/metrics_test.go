package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestInitMetrics(t *testing.T) {
	handler, shutdown, err := InitMetrics()
	if err != nil {
		t.Fatalf("InitMetrics failed: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = shutdown(shutdownCtx)
	}()

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("handler returned status %d, want %d", rr.Code, http.StatusOK)
	}
	if rr.Body.Len() == 0 {
		t.Error("handler returned empty body")
	}
}

func TestPipelineMetricsExported(t *testing.T) {
	handler, shutdown, err := InitMetrics()
	if err != nil {
		t.Fatalf("InitMetrics failed: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = shutdown(shutdownCtx)
	}()

	metrics, err := NewPipelineMetrics(func() int { return 3 })
	if err != nil {
		t.Fatalf("NewPipelineMetrics failed: %v", err)
	}
	metrics.JobsCompleted.Add(context.Background(), 2)
	metrics.RowsImported.Add(context.Background(), 500)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	body := rr.Body.String()
	for _, name := range []string{
		"import_jobs_completed_total",
		"import_rows_imported_total",
		"import_queue_depth",
	} {
		if !strings.Contains(body, name) {
			t.Errorf("expected metric %s in scrape output", name)
		}
	}
}
