package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"debtorbatch/pkg/api"
)

// ImportClient handles API calls to the import service.
type ImportClient struct {
	BaseURL    string
	Token      string
	Tenant     string
	Department string
	User       string
	HTTPClient *http.Client
}

// clientFromConfig builds a client from viper-resolved settings.
func clientFromConfig() *ImportClient {
	return &ImportClient{
		BaseURL:    viper.GetString("url"),
		Token:      viper.GetString("token"),
		Tenant:     viper.GetString("tenant"),
		Department: viper.GetString("department"),
		User:       viper.GetString("user"),
		HTTPClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// APIError represents an error response from the API.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (%d %s): %s", e.StatusCode, e.Code, e.Message)
}

func (c *ImportClient) setIdentity(req *http.Request) {
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.Token))
	req.Header.Set("X-Tenant-ID", c.Tenant)
	req.Header.Set("X-Department-ID", c.Department)
	req.Header.Set("X-User-ID", c.User)
	req.Header.Set("X-Permissions", "debtor:batch:create,debtor:batch:read")
}

// Upload sends POST /imports/debtors with the spreadsheet as multipart data.
func (c *ImportClient) Upload(path string) (*api.JobResponse, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return nil, fmt.Errorf("failed to build upload: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish upload: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, fmt.Sprintf("%s/imports/debtors", c.BaseURL), &body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.setIdentity(req)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var out api.JobResponse
	if err := c.do(req, http.StatusAccepted, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetStatus sends GET /imports/jobs/{id}.
func (c *ImportClient) GetStatus(jobID string) (*api.JobStatusResponse, error) {
	req, err := http.NewRequest(http.MethodGet, fmt.Sprintf("%s/imports/jobs/%s", c.BaseURL, jobID), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.setIdentity(req)

	var out api.JobStatusResponse
	if err := c.do(req, http.StatusOK, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetErrors sends GET /imports/jobs/{id}/errors. A nil response with nil
// error means the job finished without findings.
func (c *ImportClient) GetErrors(jobID string) (*api.ErrorLogResponse, error) {
	req, err := http.NewRequest(http.MethodGet, fmt.Sprintf("%s/imports/jobs/%s/errors", c.BaseURL, jobID), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.setIdentity(req)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, decodeAPIError(resp)
	}

	var out api.ErrorLogResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return &out, nil
}

// DownloadErrors fetches the error report workbook into dest.
func (c *ImportClient) DownloadErrors(jobID, dest string) error {
	req, err := http.NewRequest(http.MethodGet, fmt.Sprintf("%s/imports/jobs/%s/errors/download", c.BaseURL, jobID), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	c.setIdentity(req)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decodeAPIError(resp)
	}

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dest, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		return fmt.Errorf("failed to write %s: %w", dest, err)
	}
	return nil
}

func (c *ImportClient) do(req *http.Request, wantStatus int, out interface{}) error {
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		return decodeAPIError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	var body api.ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil {
		apiErr.Code = body.Error.Code
		apiErr.Message = body.Error.Message
	}
	return apiErr
}
