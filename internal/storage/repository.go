package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"mosques/internal/core"
	ports "mosques/internal/sheets"

	_ "modernc.org/sqlite"
)

var _ ports.Store = (*SQLiteRepository)(nil)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// a single connection serialises writers
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping is used by the readiness probe.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) ListUsers(ctx context.Context) ([]core.User, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT national_id, name, mosque, password, role FROM users ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()
	var out []core.User
	for rows.Next() {
		var u core.User
		var role string
		if err := rows.Scan(&u.NationalID, &u.Name, &u.Mosque, &u.Password, &role); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		if u.Role, err = core.ParseRole(role); err != nil {
			u.Role = core.RoleUser
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) AddUser(ctx context.Context, u core.User) error {
	if err := u.Validate(); err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO users (national_id, name, mosque, password, role) VALUES (?, ?, ?, ?, ?) ON CONFLICT(national_id) DO NOTHING`,
		u.NationalID, u.Name, u.Mosque, u.Password, string(u.Role))
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("user %s: %w", u.NationalID, core.ErrConflict)
	}
	slog.InfoContext(ctx, "User saved to SQLite", "national_id", u.NationalID, "role", u.Role)
	return nil
}

func (r *SQLiteRepository) UpdatePassword(ctx context.Context, nationalID, password string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET password = ? WHERE national_id = ?`, password, nationalID)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("user %s: %w", nationalID, core.ErrNotFound)
	}
	return nil
}

func (r *SQLiteRepository) ListMaterials(ctx context.Context) ([]core.Material, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT name, unit, quantity_per_mosque FROM materials ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("list materials: %w", err)
	}
	defer rows.Close()
	var out []core.Material
	for rows.Next() {
		m := core.Material{ID: len(out) + 1}
		if err := rows.Scan(&m.Name, &m.Unit, &m.QuantityPerMosque); err != nil {
			return nil, fmt.Errorf("scan material: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) AddMaterial(ctx context.Context, m core.Material) (core.Material, error) {
	if err := m.Validate(); err != nil {
		return core.Material{}, err
	}
	if _, err := r.db.ExecContext(ctx,
		`INSERT INTO materials (name, unit, quantity_per_mosque) VALUES (?, ?, ?)`,
		m.Name, m.Unit, m.QuantityPerMosque); err != nil {
		return core.Material{}, fmt.Errorf("insert material: %w", err)
	}
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM materials`).Scan(&count); err != nil {
		return core.Material{}, fmt.Errorf("count materials: %w", err)
	}
	m.ID = count
	return m, nil
}

// seqAt maps a 1-based material position to its seq.
func seqAt(ctx context.Context, q interface {
	QueryRowContext(context.Context, string, ...any) *sql.Row
}, id int) (int64, error) {
	if id < 1 {
		return 0, fmt.Errorf("material %d: %w", id, core.ErrNotFound)
	}
	var seq int64
	err := q.QueryRowContext(ctx, `SELECT seq FROM materials ORDER BY seq LIMIT 1 OFFSET ?`, id-1).Scan(&seq)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("material %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("find material %d: %w", id, err)
	}
	return seq, nil
}

func (r *SQLiteRepository) UpdateMaterial(ctx context.Context, m core.Material) error {
	if err := m.Validate(); err != nil {
		return err
	}
	seq, err := seqAt(ctx, r.db, m.ID)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx,
		`UPDATE materials SET name = ?, unit = ?, quantity_per_mosque = ? WHERE seq = ?`,
		m.Name, m.Unit, m.QuantityPerMosque, seq)
	if err != nil {
		return fmt.Errorf("update material: %w", err)
	}
	return nil
}

// DeleteMaterial removes the material and shifts later quantity positions
// down by one inside a single transaction.
func (r *SQLiteRepository) DeleteMaterial(ctx context.Context, id int) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	seq, err := seqAt(ctx, tx, id)
	if err != nil {
		return err
	}
	pos := id - 1
	stmts := []struct {
		q    string
		args []any
	}{
		{`DELETE FROM materials WHERE seq = ?`, []any{seq}},
		{`DELETE FROM receipt_quantities WHERE position = ?`, []any{pos}},
		// two steps keep (receipt_id, position) unique while shifting
		{`UPDATE receipt_quantities SET position = -position WHERE position > ?`, []any{pos}},
		{`UPDATE receipt_quantities SET position = -position - 1 WHERE position < 0`, nil},
	}
	for _, s := range stmts {
		if _, err := tx.ExecContext(ctx, s.q, s.args...); err != nil {
			return fmt.Errorf("delete material %d: %w", id, err)
		}
	}
	return tx.Commit()
}

func (r *SQLiteRepository) AppendReceipt(ctx context.Context, rc core.Receipt) (string, error) {
	if err := rc.Validate(); err != nil {
		return "", err
	}
	ts := rc.RawTimestamp
	if ts == "" {
		ts = rc.Timestamp.UTC().Format(time.RFC3339)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `INSERT INTO receipts (
		recorded_at, registrar_national_id, registrar_name, mosque, governorate, zone, section,
		mosque_name, registrar_phone, worker_name, worker_national_id, second_worker_name,
		second_worker_national_id, month, year
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ts, rc.RegistrarNationalID, rc.RegistrarName, rc.Mosque, rc.Governorate, rc.Zone, rc.Section,
		rc.MosqueName, rc.RegistrarPhone, rc.Worker.Name, rc.Worker.NationalID, rc.SecondWorker.Name,
		rc.SecondWorker.NationalID, rc.Month, rc.Year)
	if err != nil {
		return "", fmt.Errorf("insert receipt: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return "", fmt.Errorf("receipt id: %w", err)
	}
	for pos, q := range rc.Quantities {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO receipt_quantities (receipt_id, position, quantity) VALUES (?, ?, ?)`,
			id, pos, q); err != nil {
			return "", fmt.Errorf("insert quantity: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit receipt: %w", err)
	}

	slog.InfoContext(ctx, "Receipt saved to SQLite", "id", id, "mosque", rc.Mosque, "materials", len(rc.Quantities))
	return strconv.FormatInt(id, 10), nil
}

func (r *SQLiteRepository) ListReceipts(ctx context.Context) ([]core.Receipt, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT
		id, recorded_at, registrar_national_id, registrar_name, mosque, governorate, zone, section,
		mosque_name, registrar_phone, worker_name, worker_national_id, second_worker_name,
		second_worker_national_id, month, year
	FROM receipts ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list receipts: %w", err)
	}
	defer rows.Close()

	var out []core.Receipt
	index := map[int64]int{}
	for rows.Next() {
		var id int64
		var rc core.Receipt
		if err := rows.Scan(&id, &rc.RawTimestamp, &rc.RegistrarNationalID, &rc.RegistrarName, &rc.Mosque,
			&rc.Governorate, &rc.Zone, &rc.Section, &rc.MosqueName, &rc.RegistrarPhone,
			&rc.Worker.Name, &rc.Worker.NationalID, &rc.SecondWorker.Name, &rc.SecondWorker.NationalID,
			&rc.Month, &rc.Year); err != nil {
			return nil, fmt.Errorf("scan receipt: %w", err)
		}
		if ts, err := time.Parse(time.RFC3339, rc.RawTimestamp); err == nil {
			rc.Timestamp = ts
		}
		index[id] = len(out)
		out = append(out, rc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	qrows, err := r.db.QueryContext(ctx, `SELECT receipt_id, position, quantity FROM receipt_quantities ORDER BY receipt_id, position`)
	if err != nil {
		return nil, fmt.Errorf("list quantities: %w", err)
	}
	defer qrows.Close()
	for qrows.Next() {
		var id int64
		var pos int
		var q float64
		if err := qrows.Scan(&id, &pos, &q); err != nil {
			return nil, fmt.Errorf("scan quantity: %w", err)
		}
		i, ok := index[id]
		if !ok || pos < 0 {
			continue
		}
		rc := &out[i]
		for len(rc.Quantities) <= pos {
			rc.Quantities = append(rc.Quantities, 0)
		}
		rc.Quantities[pos] = q
	}
	return out, qrows.Err()
}

func (r *SQLiteRepository) ListGovernorateZones(ctx context.Context) (core.GovernorateZones, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT governorate, zone FROM geography ORDER BY id`)
	if err != nil {
		return core.GovernorateZones{}, fmt.Errorf("list geography: %w", err)
	}
	defer rows.Close()
	var pairs [][2]string
	for rows.Next() {
		var p [2]string
		if err := rows.Scan(&p[0], &p[1]); err != nil {
			return core.GovernorateZones{}, fmt.Errorf("scan geography: %w", err)
		}
		pairs = append(pairs, p)
	}
	return core.GroupZones(pairs), rows.Err()
}

func (r *SQLiteRepository) SeedGeography(ctx context.Context, pairs [][2]string) (bool, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM geography`).Scan(&count); err != nil {
		return false, fmt.Errorf("count geography: %w", err)
	}
	if count > 0 || len(pairs) == 0 {
		return false, nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()
	for _, p := range pairs {
		gov, zone := strings.TrimSpace(p[0]), strings.TrimSpace(p[1])
		if gov == "" || zone == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO geography (governorate, zone) VALUES (?, ?) ON CONFLICT DO NOTHING`, gov, zone); err != nil {
			return false, fmt.Errorf("insert geography: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit geography: %w", err)
	}
	return true, nil
}

func (r *SQLiteRepository) WriteReports(ctx context.Context, rows [][]string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, `DELETE FROM report_rows`); err != nil {
		return fmt.Errorf("clear reports: %w", err)
	}
	for i, row := range rows {
		cells, err := json.Marshal(row)
		if err != nil {
			return fmt.Errorf("encode report row %d: %w", i, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO report_rows (row_index, cells) VALUES (?, ?)`, i, string(cells)); err != nil {
			return fmt.Errorf("insert report row %d: %w", i, err)
		}
	}
	return tx.Commit()
}

func (r *SQLiteRepository) ReadReports(ctx context.Context) ([][]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT cells FROM report_rows ORDER BY row_index`)
	if err != nil {
		return nil, fmt.Errorf("read reports: %w", err)
	}
	defer rows.Close()
	var out [][]string
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan report row: %w", err)
		}
		var cells []string
		if err := json.Unmarshal([]byte(raw), &cells); err != nil {
			return nil, fmt.Errorf("decode report row: %w", err)
		}
		out = append(out, cells)
	}
	return out, rows.Err()
}
