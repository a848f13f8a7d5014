package importer

import (
	"fmt"

	"github.com/google/uuid"

	"debtorbatch/internal/core"
	"debtorbatch/internal/debtor"
)

// Constants applied to every imported debtor. Spreadsheet uploads carry no
// type, status, or currency columns, so these are fixed by the channel.
const (
	debtorType   = "Person"
	debtorStatus = "Active"
	debtCurrency = "USD"
	debtOrigin   = "Excel Import"
	debtStatus   = "Pending"
)

// buildBatch shapes validated records into one Core batch request. The batch
// id is the job id so Core-side logs line up with job ids here.
func buildBatch(jobID uuid.UUID, records []*debtor.Record) *core.BatchImportRequest {
	items := make([]core.BatchItem, 0, len(records))
	for _, rec := range records {
		items = append(items, core.BatchItem{
			RowNumber: rec.RowIndex,
			Debtor: core.Debtor{
				ExternalID: rec.ExternalKey,
				Type:       debtorType,
				FullName:   rec.FullName(),
				FirstName:  rec.FirstName,
				LastName:   rec.LastName,
				Status:     debtorStatus,
				Contacts:   contacts(rec),
			},
			Debt: core.Debt{
				ExternalID: fmt.Sprintf("DEBT-%s-%d", rec.ExternalKey, rec.RowIndex),
				Amount:     rec.Amount,
				Currency:   debtCurrency,
				DueDate:    rec.DueDate.Format("2006-01-02"),
				Concept:    rec.Concept,
				Origin:     debtOrigin,
				Status:     debtStatus,
			},
		})
	}

	return &core.BatchImportRequest{
		BatchID: jobID.String(),
		Items:   items,
	}
}

// contacts builds the contact list. Email is the primary channel when
// present; the phone is primary only when there is no email.
func contacts(rec *debtor.Record) []core.Contact {
	var out []core.Contact
	if rec.Email != "" {
		out = append(out, core.Contact{Type: "Email", Value: rec.Email, Primary: true})
	}
	if rec.PhoneNumber != "" {
		out = append(out, core.Contact{Type: "Phone", Value: rec.PhoneNumber, Primary: rec.Email == ""})
	}
	return out
}
