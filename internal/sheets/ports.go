package sheets

import (
	"context"

	"mosques/internal/core"
)

// Ports for outbound adapters.
type (
	UserStore interface {
		ListUsers(ctx context.Context) ([]core.User, error)
		// AddUser fails with core.ErrConflict when the national ID exists.
		AddUser(ctx context.Context, u core.User) error
		// UpdatePassword fails with core.ErrNotFound for unknown users.
		UpdatePassword(ctx context.Context, nationalID, password string) error
	}

	MaterialStore interface {
		// ListMaterials returns materials in table order with IDs set.
		ListMaterials(ctx context.Context) ([]core.Material, error)
		AddMaterial(ctx context.Context, m core.Material) (core.Material, error)
		UpdateMaterial(ctx context.Context, m core.Material) error
		// DeleteMaterial removes the row; later materials shift up by one.
		DeleteMaterial(ctx context.Context, id int) error
	}

	ReceiptStore interface {
		AppendReceipt(ctx context.Context, r core.Receipt) (rowRef string, err error)
		// ListReceipts returns every non-blank data row in table order.
		ListReceipts(ctx context.Context) ([]core.Receipt, error)
	}

	GeographyReader interface {
		ListGovernorateZones(ctx context.Context) (core.GovernorateZones, error)
	}

	// ReportsSheet holds the derived Reports snapshot.
	ReportsSheet interface {
		WriteReports(ctx context.Context, rows [][]string) error
		ReadReports(ctx context.Context) ([][]string, error)
	}

	// GeographySeeder fills the governorate/zone lookup when it is empty.
	GeographySeeder interface {
		SeedGeography(ctx context.Context, pairs [][2]string) (seeded bool, err error)
	}

	// LayoutEnsurer is implemented by backends whose schema is created at
	// runtime rather than by migrations.
	LayoutEnsurer interface {
		EnsureLayout(ctx context.Context) error
	}

	// Store is everything a backend provides.
	Store interface {
		UserStore
		MaterialStore
		ReceiptStore
		GeographyReader
		ReportsSheet
		GeographySeeder
	}
)

