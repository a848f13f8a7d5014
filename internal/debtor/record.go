// Package debtor holds the ephemeral row-level types produced by the row
// source and consumed by validation and batching.
package debtor

import "time"

// Record is one parsed spreadsheet data row. RowIndex is 2-based: the header
// occupies row 1 of the file.
type Record struct {
	RowIndex    int
	ExternalKey string
	FirstName   string
	LastName    string
	Email       string
	PhoneNumber string
	Amount      float64
	DueDate     time.Time
	Concept     string
}

// FullName joins first and last name, skipping blanks.
func (r Record) FullName() string {
	switch {
	case r.FirstName == "":
		return r.LastName
	case r.LastName == "":
		return r.FirstName
	default:
		return r.FirstName + " " + r.LastName
	}
}

// ValidationError is one rejected-row finding. It is produced both by local
// validation and by row-level errors echoed back from the Core service.
type ValidationError struct {
	RowIndex    int    `json:"row_index"`
	ExternalKey string `json:"external_key"`
	Message     string `json:"message"`
}
