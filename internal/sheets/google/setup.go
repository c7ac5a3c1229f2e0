package google

import (
	"context"
	"fmt"
	"log/slog"

	gsheet "google.golang.org/api/sheets/v4"
)

// EnsureLayout creates missing sheets and writes header rows where row 1 is
// empty. The receipts header is extended with one column per material.
func (c *Client) EnsureLayout(ctx context.Context) error {
	ids, err := c.sheetIDs(ctx)
	if err != nil {
		return err
	}
	var reqs []*gsheet.Request
	for _, name := range []string{UsersSheet, MaterialsSheet, ReceiptsSheet, GeographySheet, ReportsSheet} {
		if _, ok := ids[name]; ok {
			continue
		}
		slog.InfoContext(ctx, "Creating sheet", "sheet", name)
		reqs = append(reqs, &gsheet.Request{AddSheet: &gsheet.AddSheetRequest{
			Properties: &gsheet.SheetProperties{Title: name},
		}})
	}
	if err := c.batch(ctx, reqs); err != nil {
		return err
	}

	materials, err := c.ListMaterials(ctx)
	if err != nil {
		return err
	}
	receipts := append([]string(nil), receiptsHeader...)
	for _, m := range materials {
		receipts = append(receipts, m.Name)
	}

	headers := map[string][]string{
		UsersSheet:     usersHeader,
		MaterialsSheet: materialsHeader,
		ReceiptsSheet:  receipts,
		GeographySheet: geographyHeader,
	}
	for sheet, header := range headers {
		rows, err := c.read(ctx, sheet+"!1:1")
		if err != nil {
			return err
		}
		if len(rows) > 0 && !blank(rows[0]) {
			continue
		}
		rng := fmt.Sprintf("%s!A1:%s1", sheet, columnName(len(header)-1))
		if err := c.update(ctx, rng, [][]string{header}); err != nil {
			return err
		}
	}
	return nil
}

// SeedGeography writes the governorate/zone pairs when the lookup sheet has
// no data rows. It reports whether anything was written.
func (c *Client) SeedGeography(ctx context.Context, pairs [][2]string) (bool, error) {
	rows, err := c.readData(ctx, GeographySheet+"!A:B")
	if err != nil {
		return false, err
	}
	for _, r := range rows {
		if !blank(r) {
			return false, nil
		}
	}
	values := make([][]string, len(pairs))
	for i, p := range pairs {
		values[i] = []string{p[0], p[1]}
	}
	if len(values) == 0 {
		return false, nil
	}
	rng := fmt.Sprintf("%s!A2:B%d", GeographySheet, len(values)+1)
	if err := c.update(ctx, rng, values); err != nil {
		return false, err
	}
	return true, nil
}
