package google

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

const fakeSpreadsheet = "sheet-123"

// fakeSheets serves the subset of the Sheets v4 REST API the client uses.
type fakeSheets struct {
	mu     sync.Mutex
	nextID int64
	ids    map[string]int64
	data   map[string][][]string
	calls  []string
}

func newFakeSheets(sheets ...string) *fakeSheets {
	f := &fakeSheets{nextID: 1, ids: map[string]int64{}, data: map[string][][]string{}}
	for _, s := range sheets {
		f.addSheet(s)
	}
	return f
}

func (f *fakeSheets) addSheet(name string) {
	f.ids[name] = f.nextID
	f.nextID++
	if _, ok := f.data[name]; !ok {
		f.data[name] = nil
	}
}

func (f *fakeSheets) rows(sheet string) [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]string, len(f.data[sheet]))
	for i, r := range f.data[sheet] {
		out[i] = append([]string(nil), r...)
	}
	return out
}

func (f *fakeSheets) set(sheet string, rows ...[]string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.ids[sheet]; !ok {
		f.addSheet(sheet)
	}
	f.data[sheet] = rows
}

// splitRange turns "Sheet!D5:F9" into the sheet, 0-based column and 1-based
// row of the first cell. Whole-column ranges report row 0.
func splitRange(rng string) (sheet string, col, row int, firstRowOnly bool) {
	sheet, ref, _ := strings.Cut(rng, "!")
	if ref == "1:1" {
		return sheet, 0, 1, true
	}
	start, _, _ := strings.Cut(ref, ":")
	col = -1
	i := 0
	for i < len(start) && start[i] >= 'A' && start[i] <= 'Z' {
		col = (col+1)*26 + int(start[i]-'A')
		i++
	}
	for ; i < len(start); i++ {
		row = row*10 + int(start[i]-'0')
	}
	if col < 0 {
		col = 0
	}
	return sheet, col, row, false
}

func (f *fakeSheets) write(sheet string, col, row int, values [][]interface{}) {
	if row == 0 {
		row = 1
	}
	for i, vr := range values {
		r := row - 1 + i
		for len(f.data[sheet]) <= r {
			f.data[sheet] = append(f.data[sheet], nil)
		}
		cells := f.data[sheet][r]
		for len(cells) < col+len(vr) {
			cells = append(cells, "")
		}
		for j, v := range vr {
			cells[col+j], _ = v.(string)
		}
		f.data[sheet][r] = cells
	}
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	path := strings.TrimPrefix(r.URL.Path, "/v4/spreadsheets/")
	f.calls = append(f.calls, r.Method+" "+path)
	enc := json.NewEncoder(w)
	w.Header().Set("Content-Type", "application/json")

	switch {
	case path == fakeSpreadsheet && r.Method == http.MethodGet:
		ss := gsheet.Spreadsheet{}
		for name, id := range f.ids {
			ss.Sheets = append(ss.Sheets, &gsheet.Sheet{Properties: &gsheet.SheetProperties{SheetId: id, Title: name}})
		}
		_ = enc.Encode(ss)

	case path == fakeSpreadsheet+":batchUpdate":
		var req gsheet.BatchUpdateSpreadsheetRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		for _, rq := range req.Requests {
			switch {
			case rq.AddSheet != nil:
				f.addSheet(rq.AddSheet.Properties.Title)
			case rq.DeleteDimension != nil:
				f.deleteDimension(rq.DeleteDimension.Range)
			}
		}
		_ = enc.Encode(gsheet.BatchUpdateSpreadsheetResponse{})

	case strings.HasPrefix(path, fakeSpreadsheet+"/values/"):
		rng := strings.TrimPrefix(path, fakeSpreadsheet+"/values/")
		switch {
		case strings.HasSuffix(rng, ":append"):
			sheet, _, _, _ := splitRange(strings.TrimSuffix(rng, ":append"))
			var vr gsheet.ValueRange
			_ = json.NewDecoder(r.Body).Decode(&vr)
			next := len(f.data[sheet]) + 1
			f.write(sheet, 0, next, vr.Values)
			_ = enc.Encode(gsheet.AppendValuesResponse{Updates: &gsheet.UpdateValuesResponse{UpdatedRange: sheet + "!A" + itoa(next)}})
		case strings.HasSuffix(rng, ":clear"):
			sheet, _, _, _ := splitRange(strings.TrimSuffix(rng, ":clear"))
			f.data[sheet] = nil
			_ = enc.Encode(gsheet.ClearValuesResponse{})
		case r.Method == http.MethodPut:
			sheet, col, row, _ := splitRange(rng)
			var vr gsheet.ValueRange
			_ = json.NewDecoder(r.Body).Decode(&vr)
			f.write(sheet, col, row, vr.Values)
			_ = enc.Encode(gsheet.UpdateValuesResponse{UpdatedRange: rng})
		default:
			sheet, _, _, firstOnly := splitRange(rng)
			rows := f.data[sheet]
			if firstOnly && len(rows) > 1 {
				rows = rows[:1]
			}
			out := gsheet.ValueRange{Range: rng}
			for _, row := range rows {
				cells := make([]interface{}, len(row))
				for i, c := range row {
					cells[i] = c
				}
				out.Values = append(out.Values, cells)
			}
			_ = enc.Encode(out)
		}

	default:
		http.NotFound(w, r)
	}
}

func (f *fakeSheets) deleteDimension(dr *gsheet.DimensionRange) {
	var sheet string
	for name, id := range f.ids {
		if id == dr.SheetId {
			sheet = name
		}
	}
	rows := f.data[sheet]
	switch dr.Dimension {
	case "ROWS":
		if int(dr.StartIndex) < len(rows) {
			end := int(dr.EndIndex)
			if end > len(rows) {
				end = len(rows)
			}
			f.data[sheet] = append(rows[:dr.StartIndex], rows[end:]...)
		}
	case "COLUMNS":
		for i, r := range rows {
			if int(dr.StartIndex) < len(r) {
				rows[i] = append(r[:dr.StartIndex], r[dr.StartIndex+1:]...)
			}
		}
	}
}

func itoa(n int) string {
	b, _ := json.Marshal(n)
	return string(b)
}

func newTestClient(t *testing.T, f *fakeSheets) *Client {
	t.Helper()
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	svc, err := gsheet.NewService(context.Background(),
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithHTTPClient(srv.Client()),
		goption.WithoutAuthentication())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return New(svc, fakeSpreadsheet)
}
