package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"mosques/internal/amqp"
	"mosques/internal/cache"
	"mosques/internal/core"
	applog "mosques/internal/log"
	"mosques/internal/metrics"
	"mosques/internal/report"
	ports "mosques/internal/sheets"
)

const geographyKey = "geography"

// Registrar identifies the authenticated user recording a receipt.
type Registrar struct {
	NationalID string
	Name       string
}

// NewReceipt is the form submitted by a registrar. Materials reference
// 1-based material IDs.
type NewReceipt struct {
	Mosque         string
	Governorate    string
	Zone           string
	Section        string
	MosqueName     string
	RegistrarPhone string
	Worker         core.Worker
	SecondWorker   core.Worker
	Month          int
	Year           int
	Materials      []core.MaterialQuantity
}

// ReceiptView is a receipt with its quantities resolved to material names.
type ReceiptView struct {
	core.Receipt
	Materials []core.MaterialQuantity
}

type ReceiptService struct {
	store     ports.ReceiptStore
	geo       ports.GeographyReader
	materials *MaterialService
	geoCache  cache.Cache[core.GovernorateZones]
	events    *notifier
	metrics   *metrics.Metrics
	now       func() time.Time
}

func NewReceiptService(store ports.ReceiptStore, geo ports.GeographyReader, materials *MaterialService,
	geoCache cache.Cache[core.GovernorateZones], events *notifier, m *metrics.Metrics) *ReceiptService {
	return &ReceiptService{
		store: store, geo: geo, materials: materials, geoCache: geoCache,
		events: events, metrics: m, now: time.Now,
	}
}

// Add records one delivery. Quantities for unknown material IDs are
// dropped and materials not mentioned are recorded as zero.
func (s *ReceiptService) Add(ctx context.Context, by Registrar, in NewReceipt) (core.Receipt, error) {
	materials, err := s.materials.List(ctx)
	if err != nil {
		return core.Receipt{}, err
	}
	for _, m := range in.Materials {
		if !core.ValidQuantity(m.ReceivedQuantity) {
			return core.Receipt{}, core.ErrInvalidQuantity
		}
	}

	now := s.now().UTC()
	r := core.Receipt{
		Timestamp:           now,
		RawTimestamp:        now.Format(time.RFC3339),
		RegistrarNationalID: by.NationalID,
		RegistrarName:       by.Name,
		Mosque:              strings.TrimSpace(in.Mosque),
		Governorate:         strings.TrimSpace(in.Governorate),
		Zone:                strings.TrimSpace(in.Zone),
		Section:             strings.TrimSpace(in.Section),
		MosqueName:          strings.TrimSpace(in.MosqueName),
		RegistrarPhone:      strings.TrimSpace(in.RegistrarPhone),
		Worker:              trimWorker(in.Worker),
		SecondWorker:        trimWorker(in.SecondWorker),
		Month:               in.Month,
		Year:                in.Year,
		Quantities:          core.BuildQuantities(len(materials), in.Materials),
	}
	if err := r.Validate(); err != nil {
		return core.Receipt{}, err
	}

	ref, err := s.store.AppendReceipt(ctx, r)
	if err != nil {
		return core.Receipt{}, fmt.Errorf("append receipt: %w", err)
	}
	s.metrics.ReceiptRecorded()
	slog.InfoContext(ctx, "Receipt recorded",
		append([]any{applog.FieldComponent, applog.ComponentReceipts, applog.FieldRowRef, ref},
			applog.NewFields().WithReceipt(r.RegistrarNationalID, r.Mosque, r.Governorate, r.Month, r.Year).ToSlice()...)...)
	s.events.reportsStale(ctx, amqp.ReasonReceiptAdded, by.NationalID)
	return r, nil
}

func trimWorker(w core.Worker) core.Worker {
	return core.Worker{Name: strings.TrimSpace(w.Name), NationalID: strings.TrimSpace(w.NationalID)}
}

func (s *ReceiptService) view(receipts []core.Receipt, materials []core.Material) []ReceiptView {
	out := make([]ReceiptView, 0, len(receipts))
	for _, r := range receipts {
		out = append(out, ReceiptView{Receipt: r, Materials: r.ResolveMaterials(materials)})
	}
	return out
}

func (s *ReceiptService) load(ctx context.Context) ([]core.Receipt, []core.Material, error) {
	receipts, err := s.store.ListReceipts(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("list receipts: %w", err)
	}
	materials, err := s.materials.List(ctx)
	if err != nil {
		return nil, nil, err
	}
	return receipts, materials, nil
}

// ListByRegistrar returns the receipts recorded by nationalID.
func (s *ReceiptService) ListByRegistrar(ctx context.Context, nationalID string) ([]ReceiptView, error) {
	receipts, materials, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	own := make([]core.Receipt, 0)
	for _, r := range receipts {
		if r.RegistrarNationalID == nationalID {
			own = append(own, r)
		}
	}
	return s.view(own, materials), nil
}

// Search filters every stored receipt.
func (s *ReceiptService) Search(ctx context.Context, f report.Filter) ([]ReceiptView, error) {
	receipts, materials, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	matched := report.Search(receipts, f)
	slog.DebugContext(ctx, "Receipts searched",
		applog.FieldComponent, applog.ComponentReceipts, applog.FieldOperation, applog.OpSearch,
		"matched", len(matched), "total", len(receipts))
	return s.view(matched, materials), nil
}

// GovernorateZones returns the governorate to zones lookup.
func (s *ReceiptService) GovernorateZones(ctx context.Context) (core.GovernorateZones, error) {
	return cache.GetOrLoad(ctx, s.geoCache, geographyKey, func(ctx context.Context) (core.GovernorateZones, error) {
		g, err := s.geo.ListGovernorateZones(ctx)
		if err != nil {
			return core.GovernorateZones{}, fmt.Errorf("list governorates: %w", err)
		}
		return g, nil
	})
}
