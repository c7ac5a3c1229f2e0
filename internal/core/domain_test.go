package core

import (
	"errors"
	"math"
	"testing"
)

func validReceipt() Receipt {
	return Receipt{
		RegistrarNationalID: "100",
		Mosque:              "Al Noor",
		MosqueName:          "Al Noor Mosque",
		Governorate:         "Cairo",
		Zone:                "Nasr City",
		Section:             "East",
		Worker:              Worker{Name: "Ahmed", NationalID: "200"},
		Month:               3,
		Year:                2025,
		Quantities:          []float64{1, 0, 2.5},
	}
}

func TestParseRole(t *testing.T) {
	cases := []struct {
		in   string
		want Role
		ok   bool
	}{
		{"Admin", RoleAdmin, true},
		{"admin", RoleAdmin, true},
		{" User ", RoleUser, true},
		{"", RoleUser, true},
		{"root", "", false},
	}
	for _, tc := range cases {
		got, err := ParseRole(tc.in)
		if tc.ok && (err != nil || got != tc.want) {
			t.Fatalf("ParseRole(%q) = %q, %v; want %q", tc.in, got, err, tc.want)
		}
		if !tc.ok && !errors.Is(err, ErrInvalidRole) {
			t.Fatalf("ParseRole(%q) expected ErrInvalidRole, got %v", tc.in, err)
		}
	}
}

func TestUserValidate(t *testing.T) {
	good := User{NationalID: "1", Name: "A", Mosque: "M", Role: RoleUser}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	bads := []User{
		{Name: "A", Mosque: "M", Role: RoleUser},
		{NationalID: "1", Mosque: "M", Role: RoleUser},
		{NationalID: "1", Name: "A", Role: RoleUser},
		{NationalID: "1", Name: "A", Mosque: "M", Role: "Owner"},
	}
	for i, u := range bads {
		if err := u.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestMaterialValidate(t *testing.T) {
	if err := (Material{Name: "Soap", Unit: "box", QuantityPerMosque: 2}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	bads := []Material{
		{Unit: "box", QuantityPerMosque: 2},
		{Name: "Soap", QuantityPerMosque: 2},
		{Name: "Soap", Unit: "box"},
		{Name: "Soap", Unit: "box", QuantityPerMosque: -1},
		{Name: "Soap", Unit: "box", QuantityPerMosque: math.Inf(1)},
		{Name: "Soap", Unit: "box", QuantityPerMosque: math.NaN()},
		{Name: "Soap", Unit: "box", QuantityPerMosque: 1e308},
	}
	for i, m := range bads {
		if err := m.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestReceiptValidate(t *testing.T) {
	if err := validReceipt().Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	cases := []struct {
		name   string
		mutate func(*Receipt)
		want   error
	}{
		{"registrar", func(r *Receipt) { r.RegistrarNationalID = "" }, ErrMissingRegistrar},
		{"mosque", func(r *Receipt) { r.MosqueName = " " }, ErrEmptyMosque},
		{"zone", func(r *Receipt) { r.Zone = "" }, ErrMissingLocation},
		{"worker", func(r *Receipt) { r.Worker.NationalID = "" }, ErrMissingWorker},
		{"month", func(r *Receipt) { r.Month = 13 }, ErrInvalidMonth},
		{"year", func(r *Receipt) { r.Year = 99 }, ErrInvalidYear},
		{"negative quantity", func(r *Receipt) { r.Quantities[1] = -3 }, ErrInvalidQuantity},
		{"infinite quantity", func(r *Receipt) { r.Quantities[1] = math.Inf(1) }, ErrInvalidQuantity},
		{"NaN quantity", func(r *Receipt) { r.Quantities[0] = math.NaN() }, ErrInvalidQuantity},
		{"huge quantity", func(r *Receipt) { r.Quantities[1] = 1e308 }, ErrInvalidQuantity},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := validReceipt()
			tc.mutate(&r)
			if err := r.Validate(); !errors.Is(err, tc.want) {
				t.Fatalf("got %v, want %v", err, tc.want)
			}
		})
	}
}

func TestReceiptQuantities(t *testing.T) {
	r := validReceipt()
	if got := r.TotalQuantity(); got != 3.5 {
		t.Fatalf("TotalQuantity = %v, want 3.5", got)
	}
	if got := r.QuantityAt(7); got != 0 {
		t.Fatalf("QuantityAt out of range = %v, want 0", got)
	}

	materials := []Material{{ID: 1, Name: "Soap"}, {ID: 2, Name: "Bleach"}, {ID: 3, Name: "Mop"}, {ID: 4, Name: "Bucket"}}
	got := r.ResolveMaterials(materials)
	if len(got) != 2 {
		t.Fatalf("expected 2 non-zero materials, got %+v", got)
	}
	if got[0].MaterialName != "Soap" || got[1].MaterialID != 3 || got[1].ReceivedQuantity != 2.5 {
		t.Fatalf("unexpected resolution %+v", got)
	}
}

func TestBuildQuantities(t *testing.T) {
	got := BuildQuantities(3, []MaterialQuantity{
		{MaterialID: 2, ReceivedQuantity: 4},
		{MaterialID: 9, ReceivedQuantity: 1},
		{MaterialID: 0, ReceivedQuantity: 1},
	})
	want := []float64{0, 4, 0}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("BuildQuantities = %v, want %v", got, want)
		}
	}
}

func TestRecorded(t *testing.T) {
	if (Receipt{}).Recorded() {
		t.Fatalf("empty receipt must not be recorded")
	}
	if !(Receipt{RawTimestamp: "2025-01-01T00:00:00Z"}).Recorded() {
		t.Fatalf("receipt with timestamp must be recorded")
	}
}

func TestGroupZones(t *testing.T) {
	g := GroupZones([][2]string{
		{"Giza", "Dokki"},
		{"Cairo", "Maadi"},
		{"Giza", "Haram"},
		{"Giza", "Dokki"},
		{"", "Orphan"},
		{"Cairo", " "},
	})
	if len(g.Order) != 2 || g.Order[0] != "Giza" || g.Order[1] != "Cairo" {
		t.Fatalf("unexpected order %v", g.Order)
	}
	if z := g.Zones["Giza"]; len(z) != 2 || z[1] != "Haram" {
		t.Fatalf("unexpected Giza zones %v", z)
	}
	if z := g.Zones["Cairo"]; len(z) != 1 {
		t.Fatalf("unexpected Cairo zones %v", z)
	}
}

func TestReceiptPeriod(t *testing.T) {
	cases := []struct {
		name  string
		r     Receipt
		month int
		year  int
		ok    bool
	}{
		{"parsed cells", Receipt{RawMonth: "3", RawYear: "2025", Month: 3, Year: 2025}, 3, 2025, true},
		{"unreadable month", Receipt{RawMonth: "x", RawYear: "2025", Year: 2025}, 0, 2025, true},
		{"blank year", Receipt{RawMonth: "3", Month: 3}, 0, 0, false},
		{"built in code", Receipt{Month: 4, Year: 2024}, 4, 2024, true},
		{"nothing", Receipt{}, 0, 0, false},
	}
	for _, tc := range cases {
		m, y, ok := tc.r.Period()
		if m != tc.month || y != tc.year || ok != tc.ok {
			t.Errorf("%s: Period() = %d, %d, %v; want %d, %d, %v", tc.name, m, y, ok, tc.month, tc.year, tc.ok)
		}
	}
}
