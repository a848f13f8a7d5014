package core

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/avast/retry-go/v4"

	"debtorbatch/internal/logger"
)

// ErrCoreUnavailable matches any CommunicationError via errors.Is.
var ErrCoreUnavailable = errors.New("core unavailable")

// CommunicationError marks failures reaching or being rejected by Core. The
// import worker maps these to a distinct job failure reason.
type CommunicationError struct {
	StatusCode int
	Err        error
}

func (e *CommunicationError) Is(target error) bool { return target == ErrCoreUnavailable }

func (e *CommunicationError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("core returned status %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("core unreachable: %v", e.Err)
}

func (e *CommunicationError) Unwrap() error { return e.Err }

// BatchImporter dispatches debtor batches upstream.
type BatchImporter interface {
	ImportBatch(ctx context.Context, auth AuthContext, req *BatchImportRequest) (*BatchImportResponse, error)
}

// AuthContext carries the caller identity forwarded to Core on every request.
type AuthContext struct {
	BearerToken  string
	TenantID     string
	DepartmentID string
}

// Client is the HTTP BatchImporter. Transient failures (network errors and
// 5xx) are retried with backoff, 4xx responses are not.
type Client struct {
	baseURL    string
	httpClient *http.Client
	attempts   uint
	log        *slog.Logger
}

// NewClient builds a Core client. attempts counts total tries, not retries.
func NewClient(baseURL string, timeout time.Duration, attempts int, log *slog.Logger) *Client {
	if attempts < 1 {
		attempts = 1
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		attempts:   uint(attempts),
		log:        log,
	}
}

// ImportBatch posts one batch to Core and decodes the per-row outcome.
func (c *Client) ImportBatch(ctx context.Context, auth AuthContext, req *BatchImportRequest) (*BatchImportResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode batch %s: %w", req.BatchID, err)
	}

	var out *BatchImportResponse
	err = retry.Do(
		func() error {
			resp, err := c.post(ctx, auth, body)
			if err != nil {
				return err
			}
			out = resp
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(c.attempts),
		retry.Delay(500*time.Millisecond),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(retryable),
		retry.OnRetry(func(n uint, err error) {
			c.log.Warn("retrying core batch import",
				"batch_id", req.BatchID,
				"attempt", n+1,
				"error", err,
			)
		}),
	)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) post(ctx context.Context, auth AuthContext, body []byte) (*BatchImportResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/debtors/batch-import", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+auth.BearerToken)
	req.Header.Set("X-Tenant-ID", auth.TenantID)
	req.Header.Set("X-Department-ID", auth.DepartmentID)
	if cid := logger.CorrelationIDFromContext(ctx); cid != "" {
		req.Header.Set("X-Correlation-ID", cid)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &CommunicationError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, &CommunicationError{
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("%s", bytes.TrimSpace(msg)),
		}
	}

	var out BatchImportResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, &CommunicationError{StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return &out, nil
}

// retryable keeps 4xx responses out of the retry loop; client errors will not
// heal on their own.
func retryable(err error) bool {
	var commErr *CommunicationError
	if !errors.As(err, &commErr) {
		return false
	}
	if commErr.StatusCode >= 400 && commErr.StatusCode < 500 {
		return false
	}
	return true
}
