// Package export renders report snapshots as Excel workbooks.
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"mosques/internal/report"
)

// ContentType is the MIME type of the generated workbooks.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Sheet names of the exported workbook.
const (
	SheetSummary     = "Summary"
	SheetByMonth     = "ByMonth"
	SheetGovernorate = "ByGovernorate"
	SheetMosque      = "ByMosque"
	SheetMaterials   = "MaterialsByGovernorate"
)

// FileName returns the attachment name for a snapshot taken at t.
func FileName(t time.Time) string {
	return fmt.Sprintf("reports_%s.xlsx", t.UTC().Format("20060102_150405"))
}

// WriteReports writes s as a workbook with one sheet per report.
func WriteReports(w io.Writer, s report.Snapshot) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sum := s.Summary
	sheets := []struct {
		name   string
		header []any
		rows   [][]any
	}{
		{
			name:   SheetSummary,
			header: []any{"metric", "value"},
			rows: [][]any{
				{"generatedAt", s.GeneratedAt.UTC().Format(time.RFC3339)},
				{"totalReceipts", sum.TotalReceipts},
				{"totalMaterialsDistributed", sum.TotalMaterialsDistributed},
				{"uniqueMosques", sum.UniqueMosques},
				{"uniqueGovernorates", sum.UniqueGovernorates},
				{"totalWorkers", sum.TotalWorkers},
				{"totalUsers", sum.TotalUsers},
				{"avgMaterialsPerReceipt", sum.AvgMaterialsPerReceipt},
			},
		},
		{name: SheetByMonth, header: []any{"period", "year", "month", "receiptsCount", "materialsDistributed"}, rows: monthRows(s)},
		{name: SheetGovernorate, header: []any{"governorate", "receiptsCount", "materialsDistributed"}, rows: governorateRows(s)},
		{name: SheetMosque, header: []any{"mosque", "receiptsCount", "materialsDistributed"}, rows: mosqueRows(s)},
		{name: SheetMaterials, header: []any{"material", "governorate", "allocated", "received", "notDelivered"}, rows: materialRows(s)},
	}

	first := f.GetSheetName(f.GetActiveSheetIndex())
	for i, sh := range sheets {
		if i == 0 {
			if err := f.SetSheetName(first, sh.name); err != nil {
				return fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(sh.name); err != nil {
			return fmt.Errorf("create sheet %s: %w", sh.name, err)
		}
		if err := writeRows(f, sh.name, sh.header, sh.rows); err != nil {
			return fmt.Errorf("write sheet %s: %w", sh.name, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, header []any, rows [][]any) error {
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &r); err != nil {
			return err
		}
	}
	return nil
}

func monthRows(s report.Snapshot) [][]any {
	out := make([][]any, 0, len(s.ByMonth))
	for _, m := range s.ByMonth {
		out = append(out, []any{m.Period, m.Year, m.Month, m.ReceiptsCount, m.MaterialsDistributed})
	}
	return out
}

func governorateRows(s report.Snapshot) [][]any {
	out := make([][]any, 0, len(s.ByGovernorate))
	for _, g := range s.ByGovernorate {
		out = append(out, []any{g.Governorate, g.ReceiptsCount, g.MaterialsDistributed})
	}
	return out
}

func mosqueRows(s report.Snapshot) [][]any {
	out := make([][]any, 0, len(s.ByMosque))
	for _, m := range s.ByMosque {
		out = append(out, []any{m.Mosque, m.ReceiptsCount, m.MaterialsDistributed})
	}
	return out
}

func materialRows(s report.Snapshot) [][]any {
	mg := s.MaterialsByGovernorate
	var out [][]any
	for _, material := range mg.Materials {
		for _, gov := range mg.Governorates {
			d := mg.Cell(material, gov)
			out = append(out, []any{material, gov, d.Allocated, d.Received, d.NotDelivered})
		}
	}
	return out
}
