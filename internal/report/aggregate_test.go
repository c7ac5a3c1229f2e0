package report

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"mosques/internal/core"
)

func rec(gov, mosque string, month, year int, qty ...float64) core.Receipt {
	return core.Receipt{
		RawTimestamp: "2025-01-01T10:00:00Z",
		Governorate:  gov,
		Mosque:       mosque,
		Month:        month,
		Year:         year,
		Quantities:   qty,
	}
}

func fixture() []core.Receipt {
	return []core.Receipt{
		rec("Cairo", "Al Noor", 1, 2025, 2, 3),
		rec("Giza", "Al Huda", 2, 2025, 5),
		rec("Cairo", "Al Rahma", 1, 2025, 1),
		rec("Alex", "Al Fath", 12, 2024),
		{Governorate: "Cairo", Mosque: "Ghost", Month: 1, Year: 2025, Quantities: []float64{100}}, // no timestamp
		rec("", "", 3, 2024, 4),
	}
}

func TestMissingCellsCountAsZero(t *testing.T) {
	rs := []core.Receipt{rec("Cairo", "Al Noor", 1, 2025), rec("Cairo", "Al Noor", 1, 2025, 0, 2)}
	got := ByGovernorate(rs)
	if len(got) != 1 || got[0].MaterialsDistributed != 2 || got[0].ReceiptsCount != 2 {
		t.Fatalf("unexpected %+v", got)
	}
}

func TestGovernorateSumsEqualGrandTotal(t *testing.T) {
	rs := fixture()
	// receipts without governorate fall outside the grouping, so compare
	// against the receipts that carry one
	var withGov []core.Receipt
	for _, r := range rs {
		if r.Governorate != "" {
			withGov = append(withGov, r)
		}
	}
	var sum float64
	for _, g := range ByGovernorate(withGov) {
		sum += g.MaterialsDistributed
	}
	if total := Summarize(withGov, 0).TotalMaterialsDistributed; sum != total {
		t.Fatalf("governorate sum %v != grand total %v", sum, total)
	}
}

func TestByGovernorateOrdering(t *testing.T) {
	got := ByGovernorate(fixture())
	want := []GovernorateEntry{
		{"Cairo", 2, 6},
		{"Giza", 1, 5},
		{"Alex", 1, 0},
	}
	if len(got) != len(want) {
		t.Fatalf("got %+v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("entry %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestByMosqueTiesSortByName(t *testing.T) {
	rs := []core.Receipt{rec("G", "Zaid", 1, 2025, 1), rec("G", "Amr", 1, 2025, 1), rec("G", "Big", 1, 2025, 9)}
	got := ByMosque(rs)
	names := []string{got[0].Mosque, got[1].Mosque, got[2].Mosque}
	if strings.Join(names, ",") != "Big,Amr,Zaid" {
		t.Fatalf("unexpected order %v", names)
	}
}

func TestByMonthOneEntryPerPeriod(t *testing.T) {
	got := ByMonth(fixture())
	if len(got) != 4 {
		t.Fatalf("expected 4 periods, got %+v", got)
	}
	wantOrder := [][2]int{{2025, 2}, {2025, 1}, {2024, 12}, {2024, 3}}
	for i, w := range wantOrder {
		if got[i].Year != w[0] || got[i].Month != w[1] {
			t.Fatalf("entry %d = %d-%d, want %d-%d", i, got[i].Year, got[i].Month, w[0], w[1])
		}
	}
	jan := got[1]
	if jan.ReceiptsCount != 2 || jan.MaterialsDistributed != 6 {
		t.Fatalf("unexpected January bucket %+v", jan)
	}
	if jan.Period != "يناير 2025" {
		t.Fatalf("unexpected label %q", jan.Period)
	}

	// stable across input order
	rs := fixture()
	for i, j := 0, len(rs)-1; i < j; i, j = i+1, j-1 {
		rs[i], rs[j] = rs[j], rs[i]
	}
	again := ByMonth(rs)
	for i := range got {
		if got[i] != again[i] {
			t.Fatalf("grouping depends on input order: %+v vs %+v", got, again)
		}
	}
}

func TestByMonthSkipsBlankPeriod(t *testing.T) {
	rs := []core.Receipt{
		{RawTimestamp: "x", RawMonth: "", RawYear: "2025", Year: 2025, Quantities: []float64{1}},
		{RawTimestamp: "x", RawMonth: "abc", RawYear: "2025", Year: 2025, Quantities: []float64{1}},
	}
	got := ByMonth(rs)
	if len(got) != 1 || got[0].Month != 0 || got[0].Period != UnknownMonth+" 2025" {
		t.Fatalf("unexpected %+v", got)
	}
}

func TestSummarize(t *testing.T) {
	rs := fixture()
	rs[0].Worker.Name = "Ali"
	rs[0].SecondWorker.Name = "Omar"
	rs[1].Worker.Name = "Ali"
	s := Summarize(rs, 7)
	if s.TotalReceipts != 5 {
		t.Fatalf("TotalReceipts = %d", s.TotalReceipts)
	}
	if s.TotalMaterialsDistributed != 15 {
		t.Fatalf("TotalMaterialsDistributed = %v", s.TotalMaterialsDistributed)
	}
	if s.UniqueMosques != 4 || s.UniqueGovernorates != 3 || s.TotalWorkers != 2 || s.TotalUsers != 7 {
		t.Fatalf("unexpected %+v", s)
	}
	if s.AvgMaterialsPerReceipt != 3 {
		t.Fatalf("AvgMaterialsPerReceipt = %v", s.AvgMaterialsPerReceipt)
	}
	if empty := Summarize(nil, 0); empty.AvgMaterialsPerReceipt != 0 {
		t.Fatalf("empty average = %v", empty.AvgMaterialsPerReceipt)
	}
}

func TestBuildSnapshot(t *testing.T) {
	now := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	snap := Build(fixture(), []core.Material{{ID: 1, Name: "Soap", QuantityPerMosque: 2}}, 3, now)
	if !snap.GeneratedAt.Equal(now) || snap.Summary.TotalUsers != 3 || len(snap.ByMonth) == 0 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	if _, err := json.Marshal(snap); err != nil {
		t.Fatalf("marshal snapshot: %v", err)
	}
}
