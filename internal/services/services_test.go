package services

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"mosques/internal/amqp"
	"mosques/internal/auth"
	"mosques/internal/core"
	"mosques/internal/report"
	"mosques/internal/sheets/memory"
)

type fakePublisher struct {
	mu      sync.Mutex
	reasons []string
	err     error
}

func (f *fakePublisher) PublishReportRefresh(_ context.Context, reason, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reasons = append(f.reasons, reason)
	return f.err
}

func (f *fakePublisher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.reasons)
}

type fixture struct {
	store *memory.Store
	pub   *fakePublisher
	svc   *Services
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	store := memory.New([]core.User{
		{NationalID: "12345678", Name: "Admin", Mosque: "Al Noor", Role: core.RoleAdmin},
		{NationalID: "87654321", Name: "Registrar", Mosque: "Al Salam", Role: core.RoleUser},
	}, [][2]string{{"Capital", "Sharq"}, {"Capital", "Qibla"}, {"Hawalli", "Salmiya"}})
	pub := &fakePublisher{}
	svc := New(Deps{
		Store:     store,
		Tokens:    auth.NewIssuer("services-test-secret-123", time.Hour),
		Publisher: pub,
		CacheTTL:  time.Minute,
	})
	t.Cleanup(svc.Close)
	return fixture{store: store, pub: pub, svc: svc}
}

func (f fixture) addMaterials(t *testing.T, names ...string) {
	t.Helper()
	for _, n := range names {
		if _, err := f.svc.Materials.Add(context.Background(), "12345678", core.Material{Name: n, Unit: "box", QuantityPerMosque: 2}); err != nil {
			t.Fatalf("Add(%s): %v", n, err)
		}
	}
}

func validReceipt(qty ...core.MaterialQuantity) NewReceipt {
	return NewReceipt{
		Mosque: "Al Salam", Governorate: "Capital", Zone: "Sharq", Section: "A", MosqueName: "Al Salam Mosque",
		RegistrarPhone: "0555", Worker: core.Worker{Name: "Ali", NationalID: "111"},
		Month: 3, Year: 2025, Materials: qty,
	}
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.svc.Users.Login(ctx, "12345678", "wrong"); !errors.Is(err, core.ErrInvalidCredentials) {
		t.Fatalf("wrong password: %v", err)
	}
	if _, err := f.svc.Users.Login(ctx, "000", "000"); !errors.Is(err, core.ErrInvalidCredentials) {
		t.Fatalf("unknown user: %v", err)
	}

	sess, err := f.svc.Users.Login(ctx, "12345678", "12345678")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if sess.Token == "" || sess.User.Password != "" || sess.User.Role != core.RoleAdmin {
		t.Fatalf("unexpected session %+v", sess)
	}

	// the legacy plaintext password is upgraded to a hash and still works
	users, _ := f.store.ListUsers(ctx)
	if !auth.IsHashed(users[0].Password) {
		t.Fatal("legacy password was not rehashed")
	}
	if _, err := f.svc.Users.Login(ctx, "12345678", "12345678"); err != nil {
		t.Fatalf("login after rehash: %v", err)
	}
}

func TestChangePassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.svc.Users

	tests := []struct {
		name           string
		caller, target string
		oldPw, newPw   string
		want           error
	}{
		{"other user", "87654321", "12345678", "12345678", "x", core.ErrForbidden},
		{"empty new", "87654321", "87654321", "87654321", " ", ErrEmptyPassword},
		{"unknown", "999", "999", "999", "x", core.ErrNotFound},
		{"wrong old", "87654321", "87654321", "bad", "x", core.ErrInvalidCredentials},
		{"ok", "87654321", "87654321", "87654321", "new-pass", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := u.ChangePassword(ctx, tt.caller, tt.target, tt.oldPw, tt.newPw)
			if !errors.Is(err, tt.want) {
				t.Fatalf("ChangePassword = %v, want %v", err, tt.want)
			}
		})
	}
	if _, err := u.Login(ctx, "87654321", "new-pass"); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
}

func TestAddUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	added, err := f.svc.Users.AddUser(ctx, core.User{NationalID: " 555 ", Name: "New", Mosque: "M", Role: core.RoleUser})
	if err != nil || added.NationalID != "555" || added.Password != "" {
		t.Fatalf("AddUser = %+v, %v", added, err)
	}
	if _, err := f.svc.Users.AddUser(ctx, core.User{NationalID: "555", Name: "Dup", Mosque: "M", Role: core.RoleUser}); !errors.Is(err, core.ErrConflict) {
		t.Fatalf("duplicate: %v", err)
	}
	if _, err := f.svc.Users.AddUser(ctx, core.User{NationalID: "556", Mosque: "M", Role: core.RoleUser}); !errors.Is(err, core.ErrEmptyName) {
		t.Fatalf("missing name: %v", err)
	}
	// initial password is the national ID
	if _, err := f.svc.Users.Login(ctx, "555", "555"); err != nil {
		t.Fatalf("login new user: %v", err)
	}
	users, _ := f.svc.Users.ListUsers(ctx)
	for _, u := range users {
		if u.Password != "" {
			t.Fatalf("password leaked for %s", u.NationalID)
		}
	}
}

func TestMaterialsCacheInvalidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addMaterials(t, "Soap")

	ms, _ := f.svc.Materials.List(ctx)
	if len(ms) != 1 {
		t.Fatalf("materials = %+v", ms)
	}
	if err := f.svc.Materials.Update(ctx, "1", core.Material{ID: 1, Name: "Soap XL", Unit: "box", QuantityPerMosque: 3}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	ms, _ = f.svc.Materials.List(ctx)
	if ms[0].Name != "Soap XL" {
		t.Fatalf("cache not invalidated: %+v", ms)
	}
	if err := f.svc.Materials.Update(ctx, "1", core.Material{ID: 9, Name: "X", Unit: "u", QuantityPerMosque: 1}); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("update missing: %v", err)
	}
	if _, err := f.svc.Materials.Add(ctx, "1", core.Material{Name: "Bad", Unit: "u"}); !errors.Is(err, core.ErrInvalidQuantity) {
		t.Fatalf("zero quantity: %v", err)
	}
	if f.pub.count() != 2 {
		t.Fatalf("expected 2 refresh events, got %d", f.pub.count())
	}
}

func TestDeleteMaterialRefusesWithHistory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addMaterials(t, "Soap", "Bleach", "Mop")

	by := Registrar{NationalID: "87654321", Name: "Registrar"}
	if _, err := f.svc.Receipts.Add(ctx, by, validReceipt(core.MaterialQuantity{MaterialID: 2, ReceivedQuantity: 4})); err != nil {
		t.Fatalf("Add receipt: %v", err)
	}

	if err := f.svc.Materials.Delete(ctx, "1", 2, false); !errors.Is(err, core.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if err := f.svc.Materials.Delete(ctx, "1", 9, false); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	// material 1 has no deliveries
	if err := f.svc.Materials.Delete(ctx, "1", 1, false); err != nil {
		t.Fatalf("Delete unused: %v", err)
	}
	views, _ := f.svc.Receipts.ListByRegistrar(ctx, by.NationalID)
	if len(views) != 1 || len(views[0].Materials) != 1 || views[0].Materials[0].MaterialName != "Bleach" {
		t.Fatalf("history misaligned after delete: %+v", views)
	}
	if err := f.svc.Materials.Delete(ctx, "1", 1, true); err != nil {
		t.Fatalf("forced delete: %v", err)
	}
	ms, _ := f.svc.Materials.List(ctx)
	if len(ms) != 1 || ms[0].Name != "Mop" {
		t.Fatalf("materials after delete: %+v", ms)
	}
}

func TestAddReceipt(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addMaterials(t, "Soap", "Bleach")
	by := Registrar{NationalID: "87654321", Name: "Registrar"}

	r, err := f.svc.Receipts.Add(ctx, by, validReceipt(
		core.MaterialQuantity{MaterialID: 2, ReceivedQuantity: 5},
		core.MaterialQuantity{MaterialID: 7, ReceivedQuantity: 9},
	))
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if len(r.Quantities) != 2 || r.Quantities[0] != 0 || r.Quantities[1] != 5 {
		t.Fatalf("quantities = %v", r.Quantities)
	}
	if r.RawTimestamp == "" || r.RegistrarName != "Registrar" {
		t.Fatalf("unexpected receipt %+v", r)
	}

	bad := validReceipt()
	bad.Month = 13
	if _, err := f.svc.Receipts.Add(ctx, by, bad); !errors.Is(err, core.ErrInvalidMonth) {
		t.Fatalf("invalid month: %v", err)
	}
	neg := validReceipt(core.MaterialQuantity{MaterialID: 1, ReceivedQuantity: -1})
	if _, err := f.svc.Receipts.Add(ctx, by, neg); !errors.Is(err, core.ErrInvalidQuantity) {
		t.Fatalf("negative quantity: %v", err)
	}

	mine, _ := f.svc.Receipts.ListByRegistrar(ctx, by.NationalID)
	others, _ := f.svc.Receipts.ListByRegistrar(ctx, "12345678")
	if len(mine) != 1 || len(others) != 0 {
		t.Fatalf("registrar listing: mine=%d others=%d", len(mine), len(others))
	}
	found, _ := f.svc.Receipts.Search(ctx, report.Filter{Governorate: "capi", Month: 3})
	if len(found) != 1 {
		t.Fatalf("search found %d", len(found))
	}
	if f.pub.reasons[len(f.pub.reasons)-1] != amqp.ReasonReceiptAdded {
		t.Fatalf("last event = %v", f.pub.reasons)
	}
}

func TestPublishFailureDoesNotFailWrite(t *testing.T) {
	f := newFixture(t)
	f.pub.err = errors.New("broker down")
	f.addMaterials(t, "Soap")
	if _, err := f.svc.Receipts.Add(context.Background(), Registrar{NationalID: "1", Name: "R"}, validReceipt()); err != nil {
		t.Fatalf("Add should succeed when publishing fails: %v", err)
	}
}

func TestGovernorateZones(t *testing.T) {
	f := newFixture(t)
	g, err := f.svc.Receipts.GovernorateZones(context.Background())
	if err != nil || len(g.Order) != 2 || len(g.Zones["Capital"]) != 2 {
		t.Fatalf("GovernorateZones = %+v, %v", g, err)
	}
}

func TestReportsRefresh(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addMaterials(t, "Soap", "Bleach")
	by := Registrar{NationalID: "87654321", Name: "Registrar"}
	for _, q := range []float64{1, 2, 3} {
		if _, err := f.svc.Receipts.Add(ctx, by, validReceipt(core.MaterialQuantity{MaterialID: 1, ReceivedQuantity: q})); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}

	sum, err := f.svc.Reports.Summary(ctx)
	if err != nil || sum.TotalReceipts != 3 || sum.TotalMaterialsDistributed != 6 || sum.TotalUsers != 2 {
		t.Fatalf("Summary = %+v, %v", sum, err)
	}
	months, _ := f.svc.Reports.ByMonth(ctx)
	if len(months) != 1 || months[0].Month != 3 || months[0].Year != 2025 {
		t.Fatalf("ByMonth = %+v", months)
	}
	mg, _ := f.svc.Reports.MaterialsByGovernorate(ctx)
	if d := mg.Cell("Soap", "Capital"); d.Allocated != 6 || d.Received != 6 || d.NotDelivered != 0 {
		t.Fatalf("Soap/Capital = %+v", d)
	}

	snap, err := f.svc.Reports.Refresh(ctx, TriggerManual)
	if err != nil || snap.Summary.TotalReceipts != 3 {
		t.Fatalf("Refresh = %+v, %v", snap.Summary, err)
	}
	rows, err := f.svc.Reports.SheetData(ctx)
	if err != nil {
		t.Fatalf("SheetData: %v", err)
	}
	if len(rows) < 3 || rows[1][0] != report.TagSummary {
		t.Fatalf("unexpected sheet rows %v", rows)
	}
}

// The worker runs its own Services over the same store; its reports must
// follow material changes made by the server process.
func TestRefreshSeesMaterialsChangedElsewhere(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addMaterials(t, "Soap", "Bleach")

	worker := New(Deps{Store: f.store, Tokens: auth.NewIssuer("services-test-secret-123", time.Hour), CacheTTL: time.Minute})
	t.Cleanup(worker.Close)
	if ms, err := worker.Materials.List(ctx); err != nil || len(ms) != 2 {
		t.Fatalf("warm worker cache: %v, %v", ms, err)
	}

	f.addMaterials(t, "Mop")
	by := Registrar{NationalID: "87654321", Name: "Registrar"}
	if _, err := f.svc.Receipts.Add(ctx, by, validReceipt(
		core.MaterialQuantity{MaterialID: 2, ReceivedQuantity: 4},
		core.MaterialQuantity{MaterialID: 3, ReceivedQuantity: 1},
	)); err != nil {
		t.Fatalf("Add receipt: %v", err)
	}

	snap, err := worker.Reports.Refresh(ctx, TriggerEvent)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if got := snap.MaterialsByGovernorate.Materials; len(got) != 3 || got[2] != "Mop" {
		t.Fatalf("materials after event refresh = %v", got)
	}

	// A forced delete shifts the receipt columns; names must shift with them.
	if err := f.svc.Materials.Delete(ctx, "12345678", 1, true); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	snap, err = worker.Reports.Refresh(ctx, TriggerEvent)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	mg := snap.MaterialsByGovernorate
	if len(mg.Materials) != 2 || mg.Materials[0] != "Bleach" {
		t.Fatalf("materials after delete = %v", mg.Materials)
	}
	if d := mg.Cell("Bleach", "Capital"); d.Received != 4 {
		t.Fatalf("Bleach/Capital = %+v", d)
	}
	if d := mg.Cell("Mop", "Capital"); d.Received != 1 {
		t.Fatalf("Mop/Capital = %+v", d)
	}
}

func TestAddReceiptRejectsNonFiniteQuantities(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addMaterials(t, "Soap")
	by := Registrar{NationalID: "87654321", Name: "Registrar"}

	for _, q := range []float64{math.Inf(1), math.NaN(), 1e308} {
		_, err := f.svc.Receipts.Add(ctx, by, validReceipt(core.MaterialQuantity{MaterialID: 1, ReceivedQuantity: q}))
		if !errors.Is(err, core.ErrInvalidQuantity) {
			t.Errorf("quantity %v: got %v", q, err)
		}
	}
	if _, err := f.svc.Materials.Add(ctx, "12345678", core.Material{Name: "Mop", Unit: "piece", QuantityPerMosque: math.Inf(1)}); !errors.Is(err, core.ErrInvalidQuantity) {
		t.Errorf("material quantity: got %v", err)
	}
	if rs, _ := f.store.ListReceipts(ctx); len(rs) != 0 {
		t.Fatalf("stored %d receipts", len(rs))
	}
}
