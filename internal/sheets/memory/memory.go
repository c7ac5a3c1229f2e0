package memory

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"mosques/internal/core"
	ports "mosques/internal/sheets"
)

var _ ports.Store = (*Store)(nil)

type Store struct {
	mu        sync.Mutex
	users     []core.User
	materials []core.Material
	receipts  []core.Receipt
	geography [][2]string
	reports   [][]string
}

func New(users []core.User, geography [][2]string) *Store {
	s := &Store{geography: dedupePairs(geography)}
	for _, u := range users {
		if u.Password == "" {
			u.Password = u.NationalID
		}
		s.users = append(s.users, u)
	}
	return s
}

// NewFromFiles seeds the store from DATA_DIR. seed_geography.txt holds one
// "governorate,zone" pair per line; missing files fall back to the built-in
// lookup and demo accounts.
func NewFromFiles(base string) *Store {
	var pairs [][2]string
	for _, line := range readLines(filepath.Join(base, "seed_geography.txt")) {
		gov, zone, ok := strings.Cut(line, ",")
		if !ok {
			continue
		}
		pairs = append(pairs, [2]string{gov, zone})
	}
	if len(pairs) == 0 {
		pairs = core.DefaultGeography
	}
	return New(core.DemoUsers, pairs)
}

func (s *Store) ListUsers(_ context.Context) ([]core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.User(nil), s.users...), nil
}

func (s *Store) AddUser(_ context.Context, u core.User) error {
	if err := u.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.NationalID == u.NationalID {
			return fmt.Errorf("user %s: %w", u.NationalID, core.ErrConflict)
		}
	}
	s.users = append(s.users, u)
	return nil
}

func (s *Store) UpdatePassword(_ context.Context, nationalID, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.users {
		if s.users[i].NationalID == nationalID {
			s.users[i].Password = password
			return nil
		}
	}
	return fmt.Errorf("user %s: %w", nationalID, core.ErrNotFound)
}

func (s *Store) ListMaterials(_ context.Context) ([]core.Material, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Material, len(s.materials))
	for i, m := range s.materials {
		m.ID = i + 1
		out[i] = m
	}
	return out, nil
}

func (s *Store) AddMaterial(_ context.Context, m core.Material) (core.Material, error) {
	if err := m.Validate(); err != nil {
		return core.Material{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.materials = append(s.materials, m)
	m.ID = len(s.materials)
	return m, nil
}

func (s *Store) UpdateMaterial(_ context.Context, m core.Material) error {
	if err := m.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if m.ID < 1 || m.ID > len(s.materials) {
		return fmt.Errorf("material %d: %w", m.ID, core.ErrNotFound)
	}
	s.materials[m.ID-1] = m
	return nil
}

// DeleteMaterial drops the material and the matching quantity of every
// receipt so positions stay aligned.
func (s *Store) DeleteMaterial(_ context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id < 1 || id > len(s.materials) {
		return fmt.Errorf("material %d: %w", id, core.ErrNotFound)
	}
	s.materials = append(s.materials[:id-1], s.materials[id:]...)
	for i := range s.receipts {
		q := s.receipts[i].Quantities
		if id-1 < len(q) {
			s.receipts[i].Quantities = append(q[:id-1:id-1], q[id:]...)
		}
	}
	return nil
}

// AppendReceipt stores the receipt and returns a synthetic row reference.
func (s *Store) AppendReceipt(_ context.Context, r core.Receipt) (string, error) {
	if err := r.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	r.Quantities = append([]float64(nil), r.Quantities...)
	s.receipts = append(s.receipts, r)
	return fmt.Sprintf("mem:%d", len(s.receipts)), nil
}

func (s *Store) ListReceipts(_ context.Context) ([]core.Receipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Receipt, len(s.receipts))
	for i, r := range s.receipts {
		r.Quantities = append([]float64(nil), r.Quantities...)
		out[i] = r
	}
	return out, nil
}

func (s *Store) ListGovernorateZones(_ context.Context) (core.GovernorateZones, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return core.GroupZones(s.geography), nil
}

func (s *Store) SeedGeography(_ context.Context, pairs [][2]string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.geography) > 0 || len(pairs) == 0 {
		return false, nil
	}
	s.geography = dedupePairs(pairs)
	return true, nil
}

func (s *Store) WriteReports(_ context.Context, rows [][]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports = make([][]string, len(rows))
	for i, r := range rows {
		s.reports[i] = append([]string(nil), r...)
	}
	return nil
}

func (s *Store) ReadReports(_ context.Context) ([][]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]string, len(s.reports))
	for i, r := range s.reports {
		out[i] = append([]string(nil), r...)
	}
	return out, nil
}

func readLines(path string) []string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return out
}

func dedupePairs(in [][2]string) [][2]string {
	seen := map[[2]string]struct{}{}
	out := make([][2]string, 0, len(in))
	for _, p := range in {
		p = [2]string{strings.TrimSpace(p[0]), strings.TrimSpace(p[1])}
		if p[0] == "" || p[1] == "" {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}
