package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"mosques/internal/core"
	ports "mosques/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// Sheet names of the spreadsheet layout.
const (
	UsersSheet     = "Users"
	MaterialsSheet = "Materials"
	ReceiptsSheet  = "AllReceipts"
	GeographySheet = "GovernoratesZones"
	ReportsSheet   = "Reports"
)

// Values are written RAW so phone numbers and national IDs keep their
// leading zeros.
const valueInput = "RAW"

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
}

// Ensure interface conformance
var _ ports.Store = (*Client)(nil)

// Credentials names where the service account key comes from. JSON wins
// over File.
type Credentials struct {
	JSON string
	File string
}

// CredentialsFromEnv reads GOOGLE_SERVICE_ACCOUNT_JSON, then
// GOOGLE_SERVICE_ACCOUNT_FILE, then GOOGLE_APPLICATION_CREDENTIALS.
func CredentialsFromEnv() Credentials {
	c := Credentials{
		JSON: strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON")),
		File: strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE")),
	}
	if c.JSON == "" && c.File == "" {
		c.File = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	return c
}

// NewFromEnv creates a Sheets client using environment variables.
// Required: GOOGLE_SPREADSHEET_ID plus one credentials source.
func NewFromEnv(ctx context.Context) (*Client, error) {
	return NewWithCredentials(ctx, os.Getenv("GOOGLE_SPREADSHEET_ID"), CredentialsFromEnv())
}

// NewWithCredentials creates a client for spreadsheetID authenticated as a
// service account.
func NewWithCredentials(ctx context.Context, spreadsheetID string, creds Credentials) (*Client, error) {
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	svc, err := newSheetsService(ctx, creds)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return &Client{svc: svc, spreadsheetID: spreadsheetID}, nil
}

// New wraps an existing service. Tests point it at a fake endpoint.
func New(svc *gsheet.Service, spreadsheetID string) *Client {
	return &Client{svc: svc, spreadsheetID: spreadsheetID}
}

// newSheetsService initializes a Sheets Service using Service Account credentials.
func newSheetsService(ctx context.Context, creds Credentials) (*gsheet.Service, error) {
	var credentialsJSON []byte
	switch {
	case creds.JSON != "":
		credentialsJSON = []byte(creds.JSON)
	case creds.File != "":
		b, err := os.ReadFile(creds.File)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = b
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	slog.InfoContext(ctx, "Creating Google Sheets service",
		"credentials_size", len(credentialsJSON),
		"scope", gsheet.SpreadsheetsScope)

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope),
		goption.WithHTTPClient(newHTTPClientWithPooling()))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// newHTTPClientWithPooling creates an HTTP client tuned for the Sheets API.
func newHTTPClientWithPooling() *http.Client {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		MaxConnsPerHost:       50,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ForceAttemptHTTP2:     true,
	}
	return &http.Client{Transport: transport, Timeout: 60 * time.Second}
}

func (c *Client) ready() error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	return nil
}

// read returns the rows of rng with cells trimmed to strings.
func (c *Client) read(ctx context.Context, rng string) ([][]string, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	out := make([][]string, len(resp.Values))
	for i, row := range resp.Values {
		out[i] = toStrings(row)
	}
	return out, nil
}

// readData is read without the header row.
func (c *Client) readData(ctx context.Context, rng string) ([][]string, error) {
	rows, err := c.read(ctx, rng)
	if err != nil {
		return nil, err
	}
	if len(rows) <= 1 {
		return nil, nil
	}
	return rows[1:], nil
}

func (c *Client) update(ctx context.Context, rng string, rows [][]string) error {
	if err := c.ready(); err != nil {
		return err
	}
	values := make([][]interface{}, len(rows))
	for i, r := range rows {
		values[i] = toCells(r)
	}
	_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, &gsheet.ValueRange{Values: values}).
		ValueInputOption(valueInput).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("update %s: %w", rng, err)
	}
	return nil
}

func (c *Client) append(ctx context.Context, rng string, row []string) (string, error) {
	if err := c.ready(); err != nil {
		return "", err
	}
	resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, &gsheet.ValueRange{Values: [][]interface{}{toCells(row)}}).
		ValueInputOption(valueInput).InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append %s: %w", rng, err)
	}
	if resp.Updates != nil {
		return resp.Updates.UpdatedRange, nil
	}
	return rng, nil
}

func (c *Client) clear(ctx context.Context, rng string) error {
	if err := c.ready(); err != nil {
		return err
	}
	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, rng, &gsheet.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear %s: %w", rng, err)
	}
	return nil
}

// sheetIDs maps sheet titles to their numeric IDs.
func (c *Client) sheetIDs(ctx context.Context) (map[string]int64, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("get spreadsheet: %w", err)
	}
	out := make(map[string]int64, len(ss.Sheets))
	for _, s := range ss.Sheets {
		if s.Properties != nil {
			out[s.Properties.Title] = s.Properties.SheetId
		}
	}
	return out, nil
}

func (c *Client) batch(ctx context.Context, reqs []*gsheet.Request) error {
	if len(reqs) == 0 {
		return nil
	}
	_, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, &gsheet.BatchUpdateSpreadsheetRequest{Requests: reqs}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("batch update: %w", err)
	}
	return nil
}

func (c *Client) ListUsers(ctx context.Context) ([]core.User, error) {
	rows, err := c.readData(ctx, UsersSheet+"!A:E")
	if err != nil {
		return nil, err
	}
	out := make([]core.User, 0, len(rows))
	for _, row := range rows {
		if blank(row) || safeGet(row, 0) == "" {
			continue
		}
		out = append(out, parseUser(row))
	}
	return out, nil
}

func (c *Client) AddUser(ctx context.Context, u core.User) error {
	if err := u.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	users, err := c.ListUsers(ctx)
	if err != nil {
		return err
	}
	for _, existing := range users {
		if existing.NationalID == u.NationalID {
			return fmt.Errorf("user %s: %w", u.NationalID, core.ErrConflict)
		}
	}
	_, err = c.append(ctx, UsersSheet+"!A:E", userRow(u))
	return err
}

func (c *Client) UpdatePassword(ctx context.Context, nationalID, password string) error {
	rows, err := c.read(ctx, UsersSheet+"!A:A")
	if err != nil {
		return err
	}
	for i := 1; i < len(rows); i++ {
		if safeGet(rows[i], 0) == nationalID {
			return c.update(ctx, fmt.Sprintf("%s!D%d", UsersSheet, i+1), [][]string{{password}})
		}
	}
	return fmt.Errorf("user %s: %w", nationalID, core.ErrNotFound)
}

func (c *Client) ListMaterials(ctx context.Context) ([]core.Material, error) {
	rows, err := c.readData(ctx, MaterialsSheet+"!A:C")
	if err != nil {
		return nil, err
	}
	out := make([]core.Material, len(rows))
	for i, row := range rows {
		out[i] = parseMaterial(i+1, row)
	}
	return out, nil
}

func (c *Client) AddMaterial(ctx context.Context, m core.Material) (core.Material, error) {
	if err := m.Validate(); err != nil {
		return core.Material{}, fmt.Errorf("validation failed: %w", err)
	}
	existing, err := c.ListMaterials(ctx)
	if err != nil {
		return core.Material{}, err
	}
	m.ID = len(existing) + 1
	if err := c.update(ctx, fmt.Sprintf("%s!A%d:C%d", MaterialsSheet, m.ID+1, m.ID+1), [][]string{materialRow(m)}); err != nil {
		return core.Material{}, err
	}
	return m, nil
}

func (c *Client) UpdateMaterial(ctx context.Context, m core.Material) error {
	if err := m.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	existing, err := c.ListMaterials(ctx)
	if err != nil {
		return err
	}
	if m.ID < 1 || m.ID > len(existing) {
		return fmt.Errorf("material %d: %w", m.ID, core.ErrNotFound)
	}
	row := m.ID + 1
	return c.update(ctx, fmt.Sprintf("%s!A%d:C%d", MaterialsSheet, row, row), [][]string{materialRow(m)})
}

// DeleteMaterial removes the material row and its receipt column in one
// batch so the remaining quantities stay aligned with the materials table.
func (c *Client) DeleteMaterial(ctx context.Context, id int) error {
	existing, err := c.ListMaterials(ctx)
	if err != nil {
		return err
	}
	if id < 1 || id > len(existing) {
		return fmt.Errorf("material %d: %w", id, core.ErrNotFound)
	}
	ids, err := c.sheetIDs(ctx)
	if err != nil {
		return err
	}
	matID, ok := ids[MaterialsSheet]
	if !ok {
		return fmt.Errorf("sheet %s missing", MaterialsSheet)
	}
	reqs := []*gsheet.Request{{
		DeleteDimension: &gsheet.DeleteDimensionRequest{Range: &gsheet.DimensionRange{
			SheetId: matID, Dimension: "ROWS", StartIndex: int64(id), EndIndex: int64(id + 1),
		}},
	}}
	if recID, ok := ids[ReceiptsSheet]; ok {
		col := int64(quantityStart + id - 1)
		reqs = append(reqs, &gsheet.Request{
			DeleteDimension: &gsheet.DeleteDimensionRequest{Range: &gsheet.DimensionRange{
				SheetId: recID, Dimension: "COLUMNS", StartIndex: col, EndIndex: col + 1,
			}},
		})
	}
	return c.batch(ctx, reqs)
}

func (c *Client) AppendReceipt(ctx context.Context, r core.Receipt) (string, error) {
	if err := r.Validate(); err != nil {
		return "", fmt.Errorf("validation failed: %w", err)
	}
	return c.append(ctx, ReceiptsSheet+"!A:A", receiptRow(r))
}

func (c *Client) ListReceipts(ctx context.Context) ([]core.Receipt, error) {
	rows, err := c.readData(ctx, ReceiptsSheet+"!A:ZZ")
	if err != nil {
		return nil, err
	}
	out := make([]core.Receipt, 0, len(rows))
	for _, row := range rows {
		if blank(row) {
			continue
		}
		out = append(out, parseReceipt(row))
	}
	return out, nil
}

func (c *Client) ListGovernorateZones(ctx context.Context) (core.GovernorateZones, error) {
	rows, err := c.readData(ctx, GeographySheet+"!A:B")
	if err != nil {
		return core.GovernorateZones{}, err
	}
	pairs := make([][2]string, 0, len(rows))
	for _, row := range rows {
		pairs = append(pairs, [2]string{safeGet(row, 0), safeGet(row, 1)})
	}
	return core.GroupZones(pairs), nil
}

// WriteReports replaces the whole Reports sheet.
func (c *Client) WriteReports(ctx context.Context, rows [][]string) error {
	if err := c.clear(ctx, ReportsSheet+"!A:Z"); err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}
	return c.update(ctx, ReportsSheet+"!A1", rows)
}

func (c *Client) ReadReports(ctx context.Context) ([][]string, error) {
	return c.read(ctx, ReportsSheet+"!A:Z")
}
