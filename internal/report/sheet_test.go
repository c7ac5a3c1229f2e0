package report

import (
	"testing"
	"time"

	"mosques/internal/core"
)

func TestSheetRowsLayout(t *testing.T) {
	now := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	materials := []core.Material{{ID: 1, Name: "Soap", QuantityPerMosque: 1}}
	snap := Build(fixture(), materials, 2, now)
	rows := SheetRows(snap)

	if rows[1][0] != TagSummary || rows[1][2] != "5" || rows[1][3] != "15" || rows[1][8] != "3.0" {
		t.Fatalf("unexpected summary row %v", rows[1])
	}
	if len(rows[2]) != 0 {
		t.Fatalf("row 3 should be blank, got %v", rows[2])
	}
	if rows[4][0] != TagMonthly {
		t.Fatalf("monthly rows must start at row 5, got %v", rows[4])
	}

	counts := map[string]int{}
	for _, r := range rows[4:] {
		counts[r[0]]++
	}
	if counts[TagMonthly] != len(snap.ByMonth) || counts[TagGovernorate] != len(snap.ByGovernorate) {
		t.Fatalf("unexpected section sizes %v", counts)
	}
	if counts[TagMaterialGovernorate] != len(snap.MaterialsByGovernorate.Governorates) {
		t.Fatalf("unexpected material rows %v", counts)
	}
}

func TestNonEmptyRows(t *testing.T) {
	got := NonEmptyRows([][]string{{"a"}, {}, {"", ""}, {"", "b"}})
	if len(got) != 2 || got[1][1] != "b" {
		t.Fatalf("unexpected %v", got)
	}
}
