package google

import (
	"fmt"
	"strings"
	"time"

	"mosques/internal/core"
)

// Receipt columns A..P are fixed; quantities start at Q.
const quantityStart = 16

// Header rows written by EnsureLayout.
var (
	usersHeader     = []string{"nationalId", "name", "mosque", "password", "role"}
	materialsHeader = []string{"name", "unit", "quantity"}
	receiptsHeader  = []string{
		"timestamp", "registrarNationalId", "registrarName", "mosque", "governorate", "zone",
		"section", "mosqueName", "registrarPhone", "workerName", "workerNationalId",
		"secondWorkerName", "secondWorkerNationalId", "month", "year", "registrarNationalId",
	}
	geographyHeader = []string{"governorate", "zone"}
)

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func toCells(in []string) []interface{} {
	out := make([]interface{}, len(in))
	for i, v := range in {
		out[i] = v
	}
	return out
}

func safeGet(arr []string, idx int) string {
	if idx < 0 || idx >= len(arr) {
		return ""
	}
	return arr[idx]
}

func blank(row []string) bool {
	for _, c := range row {
		if c != "" {
			return false
		}
	}
	return true
}

func parseUser(row []string) core.User {
	role, err := core.ParseRole(safeGet(row, 4))
	if err != nil {
		role = core.RoleUser
	}
	return core.User{
		NationalID: safeGet(row, 0),
		Name:       safeGet(row, 1),
		Mosque:     safeGet(row, 2),
		Password:   safeGet(row, 3),
		Role:       role,
	}
}

func userRow(u core.User) []string {
	return []string{u.NationalID, u.Name, u.Mosque, u.Password, string(u.Role)}
}

// parseMaterial reads a data row; pos is the 1-based data row.
func parseMaterial(pos int, row []string) core.Material {
	return core.Material{
		ID:                pos,
		Name:              safeGet(row, 0),
		Unit:              safeGet(row, 1),
		QuantityPerMosque: core.ParseQuantity(safeGet(row, 2)),
	}
}

func materialRow(m core.Material) []string {
	return []string{m.Name, m.Unit, core.FormatQuantity(m.QuantityPerMosque)}
}

func parseReceipt(row []string) core.Receipt {
	r := core.Receipt{
		RawTimestamp:        safeGet(row, 0),
		RegistrarNationalID: safeGet(row, 1),
		RegistrarName:       safeGet(row, 2),
		Mosque:              safeGet(row, 3),
		Governorate:         safeGet(row, 4),
		Zone:                safeGet(row, 5),
		Section:             safeGet(row, 6),
		MosqueName:          safeGet(row, 7),
		RegistrarPhone:      safeGet(row, 8),
		Worker:              core.Worker{Name: safeGet(row, 9), NationalID: safeGet(row, 10)},
		SecondWorker:        core.Worker{Name: safeGet(row, 11), NationalID: safeGet(row, 12)},
		RawMonth:            safeGet(row, 13),
		RawYear:             safeGet(row, 14),
	}
	if ts, err := time.Parse(time.RFC3339, r.RawTimestamp); err == nil {
		r.Timestamp = ts
	}
	r.Month, _ = core.ParseCellInt(r.RawMonth)
	r.Year, _ = core.ParseCellInt(r.RawYear)
	if len(row) > quantityStart {
		r.Quantities = make([]float64, len(row)-quantityStart)
		for i, cell := range row[quantityStart:] {
			r.Quantities[i] = core.ParseQuantity(cell)
		}
	}
	return r
}

func receiptRow(r core.Receipt) []string {
	ts := r.RawTimestamp
	if ts == "" {
		ts = r.Timestamp.UTC().Format(time.RFC3339)
	}
	row := []string{
		ts, r.RegistrarNationalID, r.RegistrarName, r.Mosque, r.Governorate, r.Zone,
		r.Section, r.MosqueName, r.RegistrarPhone, r.Worker.Name, r.Worker.NationalID,
		r.SecondWorker.Name, r.SecondWorker.NationalID,
		fmt.Sprint(r.Month), fmt.Sprint(r.Year), r.RegistrarNationalID,
	}
	for _, q := range r.Quantities {
		row = append(row, core.FormatQuantity(q))
	}
	return row
}

// columnName converts a 0-based column index to its A1 letters.
func columnName(idx int) string {
	name := ""
	for idx >= 0 {
		name = string(rune('A'+idx%26)) + name
		idx = idx/26 - 1
	}
	return name
}
