package importer

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"debtorbatch/internal/debtor"
	"debtorbatch/internal/storage"
	"debtorbatch/internal/store"
)

const (
	sheetSummary = "Resumen"
	sheetDetail  = "Detalle"
)

// RowMeta is the display metadata captured for a spreadsheet row while
// streaming: the debtor's full name and the identification as typed.
type RowMeta struct {
	Name           string
	Identification string
}

// ReportWriter renders error reports and stores them for download. The
// summary sheet is written for the uploader (one row per failing record),
// the detail sheet for support (one row per finding).
type ReportWriter struct {
	files     storage.FileStorage
	presenter *Presenter
	retention time.Duration
}

// NewReportWriter returns a writer keeping reports for the given retention.
func NewReportWriter(files storage.FileStorage, presenter *Presenter, retention time.Duration) *ReportWriter {
	return &ReportWriter{files: files, presenter: presenter, retention: retention}
}

// Write builds the two-sheet error workbook and stores it, returning the
// file reference. meta maps row indexes to the display metadata captured
// during streaming; rows Core rejected without metadata still render.
func (w *ReportWriter) Write(ctx context.Context, job *store.ImportJob, errs []debtor.ValidationError, meta map[int]RowMeta) (string, error) {
	presented := make([]PresentedError, 0, len(errs))
	for _, e := range errs {
		presented = append(presented, w.presenter.Present(e))
	}

	f := excelize.NewFile()
	defer f.Close()

	// The default sheet becomes the summary.
	if err := f.SetSheetName(f.GetSheetName(0), sheetSummary); err != nil {
		return "", fmt.Errorf("rename summary sheet: %w", err)
	}
	if err := writeSummary(f, presented, meta); err != nil {
		return "", err
	}

	if _, err := f.NewSheet(sheetDetail); err != nil {
		return "", fmt.Errorf("create detail sheet: %w", err)
	}
	if err := writeDetail(f, presented, meta); err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return "", fmt.Errorf("render error report: %w", err)
	}

	name := reportFileName(job)
	ref, err := w.files.SaveWithTTL(ctx, &buf, name, w.retention)
	if err != nil {
		return "", fmt.Errorf("store error report %s: %w", name, err)
	}
	return ref, nil
}

type summaryKey struct {
	rowIndex    int
	externalKey string
}

// writeSummary renders one row per distinct failing record, grouped by row
// index and external key, in file order.
func writeSummary(f *excelize.File, presented []PresentedError, meta map[int]RowMeta) error {
	groups := make(map[summaryKey][]PresentedError)
	for _, p := range presented {
		k := summaryKey{rowIndex: p.RowIndex, externalKey: p.ExternalKey}
		groups[k] = append(groups[k], p)
	}

	keys := make([]summaryKey, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].rowIndex != keys[j].rowIndex {
			return keys[i].rowIndex < keys[j].rowIndex
		}
		return keys[i].externalKey < keys[j].externalKey
	})

	header := []interface{}{"N°", "Nombre", "Identificación", "Campos", "Qué pasó", "Cómo corregir", "Fila"}
	if err := f.SetSheetRow(sheetSummary, "A1", &header); err != nil {
		return fmt.Errorf("write summary header: %w", err)
	}

	for i, k := range keys {
		group := groups[k]
		m := meta[k.rowIndex]

		row := []interface{}{
			i + 1,
			m.Name,
			identification(k.externalKey, m),
			strings.Join(distinct(group, func(p PresentedError) string { return p.Field }), ", "),
			strings.Join(distinct(group, func(p PresentedError) string {
				return fmt.Sprintf("• %s: %s", p.Field, p.Friendly)
			}), "\n"),
			strings.Join(distinct(group, func(p PresentedError) string { return "• " + p.Hint }), "\n"),
			k.rowIndex,
		}
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(sheetSummary, cell, &row); err != nil {
			return fmt.Errorf("write summary row %d: %w", i+2, err)
		}
	}

	return setColumnWidths(f, sheetSummary, []float64{6, 28, 18, 28, 45, 45, 8})
}

// writeDetail renders one row per finding, ordered by row index then field.
func writeDetail(f *excelize.File, presented []PresentedError, meta map[int]RowMeta) error {
	ordered := make([]PresentedError, len(presented))
	copy(ordered, presented)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].RowIndex != ordered[j].RowIndex {
			return ordered[i].RowIndex < ordered[j].RowIndex
		}
		return ordered[i].Field < ordered[j].Field
	})

	header := []interface{}{"Fila", "Nombre", "Identificación", "Campo", "Regla", "Error", "Sugerencia", "Detalle Técnico"}
	if err := f.SetSheetRow(sheetDetail, "A1", &header); err != nil {
		return fmt.Errorf("write detail header: %w", err)
	}

	for i, p := range ordered {
		m := meta[p.RowIndex]
		row := []interface{}{
			p.RowIndex,
			m.Name,
			identification(p.ExternalKey, m),
			p.Field,
			p.Rule,
			p.Friendly,
			p.Hint,
			p.Technical,
		}
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(sheetDetail, cell, &row); err != nil {
			return fmt.Errorf("write detail row %d: %w", i+2, err)
		}
	}

	return setColumnWidths(f, sheetDetail, []float64{8, 28, 18, 20, 18, 35, 40, 55})
}

// identification prefers the error's external key and falls back to the
// value captured from the row, so blank-key findings still show what was
// typed.
func identification(externalKey string, m RowMeta) string {
	if strings.TrimSpace(externalKey) != "" {
		return externalKey
	}
	return m.Identification
}

// distinct projects each presented error and drops duplicates, preserving
// first-seen order.
func distinct(group []PresentedError, project func(PresentedError) string) []string {
	seen := make(map[string]bool, len(group))
	var out []string
	for _, p := range group {
		v := project(p)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

func setColumnWidths(f *excelize.File, sheet string, widths []float64) error {
	for i, width := range widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, col, col, width); err != nil {
			return fmt.Errorf("set %s column widths: %w", sheet, err)
		}
	}
	return nil
}

func reportFileName(job *store.ImportJob) string {
	id := strings.ReplaceAll(job.JobID.String(), "-", "")
	return fmt.Sprintf("job-%s-errors.xlsx", id)
}
