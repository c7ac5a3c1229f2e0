package report

import (
	"fmt"
	"time"

	"mosques/internal/core"
)

// Row tags written in column A of the Reports sheet.
const (
	TagSummary             = "ملخص عام"
	TagMonthly             = "تقرير شهري"
	TagGovernorate         = "تقرير محافظة"
	TagMaterialGovernorate = "مادة بالمحافظة"
)

// SheetHeader is row 1 of the Reports sheet.
var SheetHeader = []string{
	"نوع التقرير", "الفترة", "عدد الإيصالات", "إجمالي المواد", "عدد المساجد",
	"عدد المحافظات", "عدد العمال", "عدد المستخدمين", "متوسط المواد", "آخر تحديث", "الحالة",
}

// SheetRows lays the snapshot out as the Reports sheet: header in row 1,
// summary in row 2, a blank row, the column legend in row 4 and the monthly,
// governorate and material rows from row 5 on. Sections never overlap.
func SheetRows(s Snapshot) [][]string {
	stamp := s.GeneratedAt.UTC().Format(time.RFC3339)
	rows := [][]string{
		SheetHeader,
		{
			TagSummary, "الشهر الحالي",
			fmt.Sprint(s.Summary.TotalReceipts),
			core.FormatQuantity(s.Summary.TotalMaterialsDistributed),
			fmt.Sprint(s.Summary.UniqueMosques),
			fmt.Sprint(s.Summary.UniqueGovernorates),
			fmt.Sprint(s.Summary.TotalWorkers),
			fmt.Sprint(s.Summary.TotalUsers),
			fmt.Sprintf("%.1f", s.Summary.AvgMaterialsPerReceipt),
			stamp,
			"محدث تلقائياً",
		},
		{},
		{"القسم", "البند", "عدد الإيصالات / المادة", "المواد / المستلم", "المتوسط / المخصص", "غير المسلم", "آخر تحديث"},
	}
	for _, m := range s.ByMonth {
		avg := 0.0
		if m.ReceiptsCount > 0 {
			avg = m.MaterialsDistributed / float64(m.ReceiptsCount)
		}
		rows = append(rows, []string{
			TagMonthly, m.Period, fmt.Sprint(m.ReceiptsCount),
			core.FormatQuantity(m.MaterialsDistributed), fmt.Sprintf("%.1f", avg), "", stamp,
		})
	}
	for _, g := range s.ByGovernorate {
		rows = append(rows, []string{
			TagGovernorate, g.Governorate, fmt.Sprint(g.ReceiptsCount),
			core.FormatQuantity(g.MaterialsDistributed), "", "", stamp,
		})
	}
	mg := s.MaterialsByGovernorate
	for _, material := range mg.Materials {
		for _, gov := range mg.Governorates {
			d := mg.Cell(material, gov)
			rows = append(rows, []string{
				TagMaterialGovernorate, gov, material,
				core.FormatQuantity(d.Received), core.FormatQuantity(d.Allocated),
				core.FormatQuantity(d.NotDelivered), stamp,
			})
		}
	}
	return rows
}

// NonEmptyRows drops rows whose cells are all blank.
func NonEmptyRows(rows [][]string) [][]string {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		for _, c := range r {
			if c != "" {
				out = append(out, r)
				break
			}
		}
	}
	return out
}
