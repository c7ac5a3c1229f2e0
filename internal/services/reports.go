package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"mosques/internal/core"
	applog "mosques/internal/log"
	"mosques/internal/metrics"
	"mosques/internal/report"
	ports "mosques/internal/sheets"
)

// Refresh triggers.
const (
	TriggerManual   = "manual"
	TriggerEvent    = "event"
	TriggerSchedule = "schedule"
	TriggerStartup  = "startup"
)

// ReportService computes reports from a full scan of the store and keeps
// the Reports sheet in sync.
type ReportService struct {
	users     ports.UserStore
	receipts  ports.ReceiptStore
	sheet     ports.ReportsSheet
	materials *MaterialService
	metrics   *metrics.Metrics
	now       func() time.Time

	refreshMu sync.Mutex
}

func NewReportService(users ports.UserStore, receipts ports.ReceiptStore, sheet ports.ReportsSheet,
	materials *MaterialService, m *metrics.Metrics) *ReportService {
	return &ReportService{
		users: users, receipts: receipts, sheet: sheet,
		materials: materials, metrics: m, now: time.Now,
	}
}

type dataset struct {
	receipts  []core.Receipt
	materials []core.Material
	userCount int
}

// load reads the three tables concurrently. Materials always come from the
// store so that receipt columns and material names line up.
func (s *ReportService) load(ctx context.Context, withUsers bool) (dataset, error) {
	var d dataset
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rs, err := s.receipts.ListReceipts(gctx)
		if err != nil {
			return fmt.Errorf("list receipts: %w", err)
		}
		d.receipts = rs
		return nil
	})
	g.Go(func() error {
		ms, err := s.materials.Reload(gctx)
		d.materials = ms
		return err
	})
	if withUsers {
		g.Go(func() error {
			us, err := s.users.ListUsers(gctx)
			if err != nil {
				return fmt.Errorf("list users: %w", err)
			}
			d.userCount = len(us)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return dataset{}, err
	}
	return d, nil
}

func (s *ReportService) Snapshot(ctx context.Context) (report.Snapshot, error) {
	d, err := s.load(ctx, true)
	if err != nil {
		return report.Snapshot{}, err
	}
	return report.Build(d.receipts, d.materials, d.userCount, s.now()), nil
}

func (s *ReportService) Summary(ctx context.Context) (report.Summary, error) {
	d, err := s.load(ctx, true)
	if err != nil {
		return report.Summary{}, err
	}
	return report.Summarize(d.receipts, d.userCount), nil
}

func (s *ReportService) ByMonth(ctx context.Context) ([]report.MonthEntry, error) {
	rs, err := s.receipts.ListReceipts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list receipts: %w", err)
	}
	return report.ByMonth(rs), nil
}

func (s *ReportService) ByGovernorate(ctx context.Context) ([]report.GovernorateEntry, error) {
	rs, err := s.receipts.ListReceipts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list receipts: %w", err)
	}
	return report.ByGovernorate(rs), nil
}

func (s *ReportService) ByMosque(ctx context.Context) ([]report.MosqueEntry, error) {
	rs, err := s.receipts.ListReceipts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list receipts: %w", err)
	}
	return report.ByMosque(rs), nil
}

func (s *ReportService) MaterialsByGovernorate(ctx context.Context) (report.MaterialsByGovernorate, error) {
	d, err := s.load(ctx, false)
	if err != nil {
		return report.MaterialsByGovernorate{}, err
	}
	return report.ByMaterialAndGovernorate(d.receipts, d.materials), nil
}

// Refresh recomputes every report and rewrites the Reports sheet. Concurrent
// refreshes in one process are serialized.
func (s *ReportService) Refresh(ctx context.Context, trigger string) (report.Snapshot, error) {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	start := time.Now()
	snap, err := s.Snapshot(ctx)
	if err == nil {
		rows := report.SheetRows(snap)
		if err = s.sheet.WriteReports(ctx, rows); err != nil {
			err = fmt.Errorf("write reports sheet: %w", err)
		}
	}
	s.metrics.ObserveRefresh(trigger, time.Since(start), err == nil)
	if err != nil {
		return report.Snapshot{}, err
	}
	slog.InfoContext(ctx, "Reports sheet refreshed",
		applog.FieldComponent, applog.ComponentReports,
		"trigger", trigger,
		"receipts", snap.Summary.TotalReceipts,
		applog.FieldDuration, time.Since(start).Milliseconds())
	return snap, nil
}

// SheetData returns the non-empty rows of the Reports sheet.
func (s *ReportService) SheetData(ctx context.Context) ([][]string, error) {
	rows, err := s.sheet.ReadReports(ctx)
	if err != nil {
		return nil, fmt.Errorf("read reports sheet: %w", err)
	}
	return report.NonEmptyRows(rows), nil
}
