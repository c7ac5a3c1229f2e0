package core

import (
	"errors"
	"strings"
	"time"
)

const (
	RoleAdmin Role = "Admin"
	RoleUser  Role = "User"
)

type (
	// Role gates access to the admin area.
	Role string

	User struct {
		NationalID string
		Name       string
		Mosque     string
		Password   string // plaintext (legacy rows) or bcrypt hash
		Role       Role
	}

	// Material is one row of the materials table. ID is the 1-based row
	// position and is also the receipt column the quantity is written to.
	Material struct {
		ID                int
		Name              string
		Unit              string
		QuantityPerMosque float64
	}

	Worker struct {
		Name       string
		NationalID string
	}

	// Receipt is one delivery event. Quantities are positional: Quantities[i]
	// belongs to the material at row i+1 of the materials table when the
	// receipt was written.
	Receipt struct {
		Timestamp           time.Time
		RawTimestamp        string
		RegistrarNationalID string
		RegistrarName       string
		Mosque              string
		Governorate         string
		Zone                string
		Section             string
		MosqueName          string
		RegistrarPhone      string
		Worker              Worker
		SecondWorker        Worker
		Month               int
		Year                int
		// RawMonth and RawYear keep the cell text so readers can tell an
		// empty cell from an unparseable one.
		RawMonth   string
		RawYear    string
		Quantities []float64
	}

	// MaterialQuantity is a receipt quantity resolved against the current
	// materials table.
	MaterialQuantity struct {
		MaterialID       int     `json:"materialId"`
		MaterialName     string  `json:"materialName"`
		ReceivedQuantity float64 `json:"receivedQuantity"`
	}
)

var (
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflict")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidCredentials = errors.New("invalid credentials")

	ErrEmptyNationalID  = errors.New("empty national id")
	ErrEmptyName        = errors.New("empty name")
	ErrEmptyMosque      = errors.New("empty mosque")
	ErrEmptyUnit        = errors.New("empty unit")
	ErrInvalidRole      = errors.New("invalid role")
	ErrInvalidMonth     = errors.New("invalid month")
	ErrInvalidYear      = errors.New("invalid year")
	ErrInvalidQuantity  = errors.New("invalid quantity")
	ErrMissingWorker    = errors.New("missing worker")
	ErrMissingLocation  = errors.New("missing governorate, zone or section")
	ErrMissingRegistrar = errors.New("missing registrar")
)

// ParseRole maps a sheet cell to a role. Empty cells default to RoleUser.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return RoleUser, nil
	case "admin":
		return RoleAdmin, nil
	case "user":
		return RoleUser, nil
	default:
		return "", ErrInvalidRole
	}
}

func (r Role) IsAdmin() bool {
	return r == RoleAdmin
}

func (u User) Validate() error {
	if strings.TrimSpace(u.NationalID) == "" {
		return ErrEmptyNationalID
	}
	if strings.TrimSpace(u.Name) == "" {
		return ErrEmptyName
	}
	if strings.TrimSpace(u.Mosque) == "" {
		return ErrEmptyMosque
	}
	if u.Role != RoleAdmin && u.Role != RoleUser {
		return ErrInvalidRole
	}
	return nil
}

func (m Material) Validate() error {
	if strings.TrimSpace(m.Name) == "" {
		return ErrEmptyName
	}
	if strings.TrimSpace(m.Unit) == "" {
		return ErrEmptyUnit
	}
	if m.QuantityPerMosque <= 0 || !ValidQuantity(m.QuantityPerMosque) {
		return ErrInvalidQuantity
	}
	return nil
}

func (r Receipt) Validate() error {
	if strings.TrimSpace(r.RegistrarNationalID) == "" {
		return ErrMissingRegistrar
	}
	if strings.TrimSpace(r.Mosque) == "" || strings.TrimSpace(r.MosqueName) == "" {
		return ErrEmptyMosque
	}
	if strings.TrimSpace(r.Governorate) == "" || strings.TrimSpace(r.Zone) == "" || strings.TrimSpace(r.Section) == "" {
		return ErrMissingLocation
	}
	if strings.TrimSpace(r.Worker.Name) == "" || strings.TrimSpace(r.Worker.NationalID) == "" {
		return ErrMissingWorker
	}
	if r.Month < 1 || r.Month > 12 {
		return ErrInvalidMonth
	}
	if r.Year < 2000 || r.Year > 2100 {
		return ErrInvalidYear
	}
	for _, q := range r.Quantities {
		if !ValidQuantity(q) {
			return ErrInvalidQuantity
		}
	}
	return nil
}

// Recorded reports whether the row carries a timestamp. Rows without one are
// ignored by every report.
func (r Receipt) Recorded() bool {
	return strings.TrimSpace(r.RawTimestamp) != "" || !r.Timestamp.IsZero()
}

// TotalQuantity sums every quantity cell of the receipt.
func (r Receipt) TotalQuantity() float64 {
	var total float64
	for _, q := range r.Quantities {
		total += q
	}
	return total
}

// QuantityAt returns the quantity for the material at 0-based position i,
// or zero when the receipt has no such column.
func (r Receipt) QuantityAt(i int) float64 {
	if i < 0 || i >= len(r.Quantities) {
		return 0
	}
	return r.Quantities[i]
}

// ResolveMaterials pairs the receipt quantities with material names. Only
// strictly positive quantities are returned.
func (r Receipt) ResolveMaterials(materials []Material) []MaterialQuantity {
	out := make([]MaterialQuantity, 0, len(materials))
	for i, m := range materials {
		q := r.QuantityAt(i)
		if q <= 0 {
			continue
		}
		out = append(out, MaterialQuantity{MaterialID: i + 1, MaterialName: m.Name, ReceivedQuantity: q})
	}
	return out
}

// BuildQuantities lays out requested quantities positionally for a materials
// table of the given size. IDs outside 1..count are dropped.
func BuildQuantities(count int, requested []MaterialQuantity) []float64 {
	out := make([]float64, count)
	for _, m := range requested {
		idx := m.MaterialID - 1
		if idx < 0 || idx >= count {
			continue
		}
		out[idx] = m.ReceivedQuantity
	}
	return out
}

// Period returns the month and year a receipt is booked under. ok is false
// when either cell is blank; unreadable values come back as zero.
func (r Receipt) Period() (month, year int, ok bool) {
	rawM, rawY := strings.TrimSpace(r.RawMonth), strings.TrimSpace(r.RawYear)
	if rawM == "" && rawY == "" {
		return r.Month, r.Year, r.Month != 0 && r.Year != 0
	}
	if rawM == "" || rawY == "" {
		return 0, 0, false
	}
	return r.Month, r.Year, true
}
