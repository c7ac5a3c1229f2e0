package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"mosques/internal/amqp"
	"mosques/internal/cache"
	"mosques/internal/core"
	applog "mosques/internal/log"
	"mosques/internal/report"
	ports "mosques/internal/sheets"
)

// ErrMaterialInUse is returned when deleting a material whose receipt
// column still holds quantities.
var ErrMaterialInUse = fmt.Errorf("%w: material has recorded deliveries", core.ErrConflict)

const materialsKey = "materials"

type MaterialService struct {
	store    ports.MaterialStore
	receipts ports.ReceiptStore
	cache    cache.Cache[[]core.Material]
	events   *notifier
}

func NewMaterialService(store ports.MaterialStore, receipts ports.ReceiptStore, c cache.Cache[[]core.Material], events *notifier) *MaterialService {
	return &MaterialService{store: store, receipts: receipts, cache: c, events: events}
}

// List returns the materials table in row order. The slice is shared with
// the cache and must not be modified.
func (s *MaterialService) List(ctx context.Context) ([]core.Material, error) {
	return cache.GetOrLoad(ctx, s.cache, materialsKey, func(ctx context.Context) ([]core.Material, error) {
		ms, err := s.store.ListMaterials(ctx)
		if err != nil {
			return nil, fmt.Errorf("list materials: %w", err)
		}
		return ms, nil
	})
}

// Reload reads the materials table from the store, bypassing and then
// refreshing the cache. Another process may have changed the table.
func (s *MaterialService) Reload(ctx context.Context) ([]core.Material, error) {
	ms, err := s.store.ListMaterials(ctx)
	if err != nil {
		return nil, fmt.Errorf("list materials: %w", err)
	}
	s.cache.Set(materialsKey, ms)
	return ms, nil
}

func (s *MaterialService) changed(ctx context.Context, actor string) {
	s.cache.Clear()
	s.events.reportsStale(ctx, amqp.ReasonMaterialChanged, actor)
}

func normalizeMaterial(m core.Material) core.Material {
	m.Name = strings.TrimSpace(m.Name)
	m.Unit = strings.TrimSpace(m.Unit)
	return m
}

func (s *MaterialService) Add(ctx context.Context, actor string, m core.Material) (core.Material, error) {
	m = normalizeMaterial(m)
	if err := m.Validate(); err != nil {
		return core.Material{}, err
	}
	added, err := s.store.AddMaterial(ctx, m)
	if err != nil {
		return core.Material{}, fmt.Errorf("add material: %w", err)
	}
	s.changed(ctx, actor)
	slog.InfoContext(ctx, "Material added",
		applog.FieldComponent, applog.ComponentMaterials, applog.FieldMaterialID, added.ID, "name", added.Name)
	return added, nil
}

func (s *MaterialService) Update(ctx context.Context, actor string, m core.Material) error {
	m = normalizeMaterial(m)
	if m.ID < 1 {
		return core.ErrNotFound
	}
	if err := m.Validate(); err != nil {
		return err
	}
	if err := s.store.UpdateMaterial(ctx, m); err != nil {
		return fmt.Errorf("update material %d: %w", m.ID, err)
	}
	s.changed(ctx, actor)
	return nil
}

// Delete removes material id and its receipt column. Unless force is set it
// refuses when any receipt holds a non-zero quantity for the material.
func (s *MaterialService) Delete(ctx context.Context, actor string, id int, force bool) error {
	materials, err := s.store.ListMaterials(ctx)
	if err != nil {
		return fmt.Errorf("list materials: %w", err)
	}
	if id < 1 || id > len(materials) {
		return core.ErrNotFound
	}
	if !force {
		receipts, err := s.receipts.ListReceipts(ctx)
		if err != nil {
			return fmt.Errorf("list receipts: %w", err)
		}
		for _, r := range receipts {
			if r.QuantityAt(id-1) != 0 {
				return ErrMaterialInUse
			}
		}
	}
	if err := s.store.DeleteMaterial(ctx, id); err != nil {
		return fmt.Errorf("delete material %d: %w", id, err)
	}
	s.changed(ctx, actor)
	slog.InfoContext(ctx, "Material deleted",
		applog.FieldComponent, applog.ComponentMaterials, applog.FieldMaterialID, id, "forced", force)
	return nil
}

// Allocations returns the uniform per-mosque allocation. Every mosque gets
// the same list.
func (s *MaterialService) Allocations(ctx context.Context) ([]report.Allocation, error) {
	ms, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return report.Allocations(ms), nil
}
