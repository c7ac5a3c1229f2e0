// Package report computes the delivery reports from a full scan of the
// receipts table. Every function is pure and recomputes from scratch.
package report

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"mosques/internal/core"
)

// UnknownMonth labels periods whose month cell could not be read.
const UnknownMonth = "شهر غير معروف"

var monthNames = [...]string{
	"يناير", "فبراير", "مارس", "أبريل", "مايو", "يونيو",
	"يوليو", "أغسطس", "سبتمبر", "أكتوبر", "نوفمبر", "ديسمبر",
}

type (
	// MonthEntry is one distinct (year, month) bucket.
	MonthEntry struct {
		Year                 int     `json:"year"`
		Month                int     `json:"month"`
		Period               string  `json:"period"`
		ReceiptsCount        int     `json:"receiptsCount"`
		MaterialsDistributed float64 `json:"materialsDistributed"`
	}

	GovernorateEntry struct {
		Governorate          string  `json:"governorate"`
		ReceiptsCount        int     `json:"receiptsCount"`
		MaterialsDistributed float64 `json:"materialsDistributed"`
	}

	MosqueEntry struct {
		Mosque               string  `json:"mosque"`
		ReceiptsCount        int     `json:"receiptsCount"`
		MaterialsDistributed float64 `json:"materialsDistributed"`
	}

	Summary struct {
		TotalReceipts             int     `json:"totalReceipts"`
		TotalMaterialsDistributed float64 `json:"totalMaterialsDistributed"`
		UniqueMosques             int     `json:"uniqueMosques"`
		UniqueGovernorates        int     `json:"uniqueGovernorates"`
		TotalUsers                int     `json:"totalUsers"`
		TotalWorkers              int     `json:"totalWorkers"`
		AvgMaterialsPerReceipt    float64 `json:"avgMaterialsPerReceipt"`
	}

	// Snapshot bundles every report computed from the same scan.
	Snapshot struct {
		GeneratedAt            time.Time              `json:"generatedAt"`
		Summary                Summary                `json:"summary"`
		ByMonth                []MonthEntry           `json:"byMonth"`
		ByGovernorate          []GovernorateEntry     `json:"byGovernorate"`
		ByMosque               []MosqueEntry          `json:"byMosque"`
		MaterialsByGovernorate MaterialsByGovernorate `json:"materialsByGovernorate"`
	}
)

// PeriodLabel renders "<month name> <year>".
func PeriodLabel(month, year int) string {
	name := UnknownMonth
	if month >= 1 && month <= 12 {
		name = monthNames[month-1]
	}
	return fmt.Sprintf("%s %d", name, year)
}

// ByMonth groups recorded receipts by (year, month). Receipts with a blank
// month or year cell are skipped; unreadable values group under zero.
func ByMonth(receipts []core.Receipt) []MonthEntry {
	type key struct{ y, m int }
	buckets := make(map[key]*MonthEntry)
	for _, r := range receipts {
		if !r.Recorded() {
			continue
		}
		m, y, ok := r.Period()
		if !ok {
			continue
		}
		k := key{y, m}
		e, found := buckets[k]
		if !found {
			e = &MonthEntry{Year: y, Month: m, Period: PeriodLabel(m, y)}
			buckets[k] = e
		}
		e.ReceiptsCount++
		e.MaterialsDistributed += r.TotalQuantity()
	}

	out := make([]MonthEntry, 0, len(buckets))
	for _, e := range buckets {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year > out[j].Year
		}
		return out[i].Month > out[j].Month
	})
	return out
}

// ByGovernorate groups recorded receipts by governorate, largest sum first.
func ByGovernorate(receipts []core.Receipt) []GovernorateEntry {
	groups := group(receipts, func(r core.Receipt) string { return r.Governorate })
	out := make([]GovernorateEntry, len(groups))
	for i, g := range groups {
		out[i] = GovernorateEntry{Governorate: g.name, ReceiptsCount: g.count, MaterialsDistributed: g.sum}
	}
	return out
}

// ByMosque groups recorded receipts by mosque, largest sum first.
func ByMosque(receipts []core.Receipt) []MosqueEntry {
	groups := group(receipts, func(r core.Receipt) string { return r.Mosque })
	out := make([]MosqueEntry, len(groups))
	for i, g := range groups {
		out[i] = MosqueEntry{Mosque: g.name, ReceiptsCount: g.count, MaterialsDistributed: g.sum}
	}
	return out
}

type bucket struct {
	name  string
	count int
	sum   float64
}

func group(receipts []core.Receipt, keyOf func(core.Receipt) string) []bucket {
	idx := make(map[string]int)
	var out []bucket
	for _, r := range receipts {
		if !r.Recorded() {
			continue
		}
		k := strings.TrimSpace(keyOf(r))
		if k == "" {
			continue
		}
		i, ok := idx[k]
		if !ok {
			i = len(out)
			idx[k] = i
			out = append(out, bucket{name: k})
		}
		out[i].count++
		out[i].sum += r.TotalQuantity()
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].sum != out[j].sum {
			return out[i].sum > out[j].sum
		}
		return out[i].name < out[j].name
	})
	return out
}

// Summarize computes the headline numbers. totalUsers is passed in since
// users live in a different table.
func Summarize(receipts []core.Receipt, totalUsers int) Summary {
	s := Summary{TotalUsers: totalUsers}
	mosques := make(map[string]struct{})
	governorates := make(map[string]struct{})
	workers := make(map[string]struct{})
	for _, r := range receipts {
		if !r.Recorded() {
			continue
		}
		s.TotalReceipts++
		s.TotalMaterialsDistributed += r.TotalQuantity()
		if v := strings.TrimSpace(r.Mosque); v != "" {
			mosques[v] = struct{}{}
		}
		if v := strings.TrimSpace(r.Governorate); v != "" {
			governorates[v] = struct{}{}
		}
		if v := strings.TrimSpace(r.Worker.Name); v != "" {
			workers[v] = struct{}{}
		}
		if v := strings.TrimSpace(r.SecondWorker.Name); v != "" {
			workers[v] = struct{}{}
		}
	}
	s.UniqueMosques = len(mosques)
	s.UniqueGovernorates = len(governorates)
	s.TotalWorkers = len(workers)
	if s.TotalReceipts > 0 {
		s.AvgMaterialsPerReceipt = math.Round(s.TotalMaterialsDistributed/float64(s.TotalReceipts)*10) / 10
	}
	return s
}

// Build computes every report from one scan.
func Build(receipts []core.Receipt, materials []core.Material, totalUsers int, now time.Time) Snapshot {
	return Snapshot{
		GeneratedAt:            now.UTC(),
		Summary:                Summarize(receipts, totalUsers),
		ByMonth:                ByMonth(receipts),
		ByGovernorate:          ByGovernorate(receipts),
		ByMosque:               ByMosque(receipts),
		MaterialsByGovernorate: ByMaterialAndGovernorate(receipts, materials),
	}
}
