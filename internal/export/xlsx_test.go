package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"mosques/internal/core"
	"mosques/internal/report"
)

func TestWriteReports(t *testing.T) {
	receipts := []core.Receipt{
		{RawTimestamp: "t", Governorate: "Cairo", Mosque: "Al Noor", Month: 1, Year: 2025, Quantities: []float64{2, 3}},
		{RawTimestamp: "t", Governorate: "Giza", Mosque: "Al Huda", Month: 2, Year: 2025, Quantities: []float64{5}},
	}
	materials := []core.Material{
		{ID: 1, Name: "Soap", Unit: "box", QuantityPerMosque: 4},
		{ID: 2, Name: "Bleach", Unit: "l", QuantityPerMosque: 1},
	}
	snap := report.Build(receipts, materials, 3, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))

	var buf bytes.Buffer
	if err := WriteReports(&buf, snap); err != nil {
		t.Fatalf("WriteReports: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()

	want := []string{SheetSummary, SheetByMonth, SheetGovernorate, SheetMosque, SheetMaterials}
	got := f.GetSheetList()
	if len(got) != len(want) {
		t.Fatalf("sheets = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sheets = %v, want %v", got, want)
		}
	}

	if v, _ := f.GetCellValue(SheetSummary, "B3"); v != "2" {
		t.Errorf("total receipts cell = %q", v)
	}
	if v, _ := f.GetCellValue(SheetGovernorate, "A2"); v != "Cairo" {
		t.Errorf("top governorate = %q", v)
	}
	rows, err := f.GetRows(SheetMaterials)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	// header + 2 materials x 2 governorates
	if len(rows) != 5 {
		t.Fatalf("material rows = %d", len(rows))
	}
}

func TestWriteReportsEmptySnapshot(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteReports(&buf, report.Build(nil, nil, 0, time.Now())); err != nil {
		t.Fatalf("WriteReports: %v", err)
	}
	if buf.Len() == 0 {
		t.Fatal("expected a workbook")
	}
}

func TestFileName(t *testing.T) {
	got := FileName(time.Date(2025, 3, 1, 9, 5, 0, 0, time.UTC))
	if got != "reports_20250301_090500.xlsx" {
		t.Fatalf("FileName = %q", got)
	}
}
