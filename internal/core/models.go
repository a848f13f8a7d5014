// Package core talks to the Enterprise Core service that owns debtor records.
package core

// BatchImportRequest is the payload for POST /debtors/batch-import.
type BatchImportRequest struct {
	BatchID string      `json:"batchId"`
	Items   []BatchItem `json:"items"`
}

// BatchItem carries one debtor and its debt, tagged with the source row so
// per-row failures can be traced back to the spreadsheet.
type BatchItem struct {
	RowNumber int    `json:"rowNumber"`
	Debtor    Debtor `json:"debtor"`
	Debt      Debt   `json:"debt"`
}

// Debtor is the Core debtor shape.
type Debtor struct {
	ExternalID string    `json:"externalId"`
	Type       string    `json:"type"`
	FullName   string    `json:"fullName"`
	FirstName  string    `json:"firstName"`
	LastName   string    `json:"lastName"`
	Status     string    `json:"status"`
	Contacts   []Contact `json:"contacts"`
}

// Contact is one contact channel for a debtor.
type Contact struct {
	Type    string `json:"type"`
	Value   string `json:"value"`
	Primary bool   `json:"primary"`
}

// Debt is one obligation attached to a debtor.
type Debt struct {
	ExternalID string  `json:"externalId"`
	Amount     float64 `json:"amount"`
	Currency   string  `json:"currency"`
	DueDate    string  `json:"dueDate"`
	Concept    string  `json:"concept"`
	Origin     string  `json:"origin"`
	Status     string  `json:"status"`
}

// BatchImportResponse is Core's answer for a dispatched batch.
type BatchImportResponse struct {
	Success bool              `json:"success"`
	Data    BatchResponseData `json:"data"`
}

// BatchResponseData reports per-batch totals and row-level failures.
type BatchResponseData struct {
	ProcessedCount int          `json:"processedCount"`
	FailedCount    int          `json:"failedCount"`
	Errors         []BatchError `json:"errors"`
}

// BatchError is one row Core rejected.
type BatchError struct {
	RowIndex    int    `json:"rowIndex"`
	ExternalKey string `json:"externalKey"`
	Message     string `json:"message"`
}
