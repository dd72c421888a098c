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
	"sync"
	"time"

	"saldo/internal/core"
	ports "saldo/internal/sheets"
	"saldo/internal/tabular"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

const defaultRowCacheTTL = 5 * time.Minute

// Ensure interface conformance
var (
	_ ports.TransactionStore = (*Client)(nil)
	_ ports.Pinger           = (*Client)(nil)
)

// Options configures a Client.
type Options struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsJSON string
	CredentialsFile string
	// ClientOptions are passed to the Sheets service after the credentials,
	// e.g. to point the client at a test endpoint.
	ClientOptions []goption.ClientOption
}

// Client stores transactions as rows of one sheet using the tabular layout.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheet         string
	codec         tabular.Codec

	// writeMu serializes find-then-write sequences so two saves of a new id
	// cannot both append a row.
	writeMu sync.Mutex

	mu       sync.Mutex
	rowIndex map[string]int // id -> 1-based row number
	loadedAt time.Time
	gen      uint64 // bumped by every write; stale reads do not refill the index
	ttl      time.Duration
}

// New creates a Sheets client. With no ClientOptions, Service Account
// credentials are required.
func New(ctx context.Context, opts Options) (*Client, error) {
	if strings.TrimSpace(opts.SpreadsheetID) == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	sheet := strings.TrimSpace(opts.SheetName)
	if sheet == "" {
		sheet = "Transactions"
	}

	var clientOpts []goption.ClientOption
	if len(opts.ClientOptions) == 0 {
		creds, err := loadCredentials(ctx, opts.CredentialsJSON, opts.CredentialsFile)
		if err != nil {
			return nil, err
		}
		clientOpts = append(clientOpts,
			goption.WithCredentialsJSON(creds),
			goption.WithScopes(gsheet.SpreadsheetsScope),
			goption.WithHTTPClient(newHTTPClientWithPooling()),
		)
	}
	clientOpts = append(clientOpts, opts.ClientOptions...)

	svc, err := gsheet.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	slog.InfoContext(ctx, "Google Sheets service created", "spreadsheet_id", opts.SpreadsheetID, "sheet", sheet)

	return &Client{
		svc:           svc,
		spreadsheetID: opts.SpreadsheetID,
		sheet:         sheet,
		codec:         tabular.NewCodec(),
		ttl:           defaultRowCacheTTL,
	}, nil
}

// loadCredentials reads Service Account JSON inline, from a file, or from
// GOOGLE_APPLICATION_CREDENTIALS.
func loadCredentials(ctx context.Context, inline, file string) ([]byte, error) {
	inline = strings.TrimSpace(inline)
	file = strings.TrimSpace(file)
	if inline == "" && file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	switch {
	case inline != "":
		slog.InfoContext(ctx, "Using inline JSON credentials")
		return []byte(inline), nil
	case file != "":
		slog.InfoContext(ctx, "Reading credentials from file", "path", file)
		b, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
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

func (c *Client) fullRange() string {
	return fmt.Sprintf("%s!A:%s", c.sheet, lastColumn())
}

func (c *Client) rowRange(row int) string {
	return fmt.Sprintf("%s!A%d:%s%d", c.sheet, row, lastColumn(), row)
}

func lastColumn() string {
	return string(rune('A' + tabular.NumColumns - 1))
}

// Ping checks that the spreadsheet is reachable.
func (c *Client) Ping(ctx context.Context) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	_, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("spreadsheetId").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("get spreadsheet %s: %w", c.spreadsheetID, err)
	}
	return nil
}

// EnsureHeader writes the header row when the first row is empty.
func (c *Client) EnsureHeader(ctx context.Context) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	rng := fmt.Sprintf("%s!A1:%s1", c.sheet, lastColumn())
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read %s: %w", rng, err)
	}
	if len(resp.Values) > 0 && len(resp.Values[0]) > 0 {
		return nil
	}
	return c.writeRow(ctx, rng, toCells(tabular.Header()))
}

// ListTransactions reads every row of the sheet. Rows that do not decode are
// logged and skipped.
func (c *Client) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	txns, _, err := c.readAll(ctx)
	return txns, err
}

func (c *Client) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	txns, _, err := c.readAll(ctx)
	if err != nil {
		return core.Transaction{}, err
	}
	for _, t := range txns {
		if t.ID == id {
			return t, nil
		}
	}
	return core.Transaction{}, core.ErrNotFound
}

// SaveTransaction overwrites the row holding t.ID or appends a new one.
func (c *Client) SaveTransaction(ctx context.Context, t core.Transaction) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	row, err := c.findRow(ctx, t.ID)
	if err != nil && !errors.Is(err, core.ErrNotFound) {
		return err
	}
	cells := toCells(tabular.EncodeRow(t))
	if row > 0 {
		return c.writeRow(ctx, c.rowRange(row), cells)
	}

	vr := &gsheet.ValueRange{Values: [][]interface{}{cells}}
	resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, c.fullRange(), vr).
		ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	c.invalidateRowCache()
	if err != nil {
		return fmt.Errorf("append to sheet %s: %w", c.sheet, err)
	}
	if resp.Updates != nil {
		slog.DebugContext(ctx, "Transaction appended to sheet", "id", t.ID, "range", resp.Updates.UpdatedRange)
	}
	return nil
}

// DeleteTransaction clears the row holding id.
func (c *Client) DeleteTransaction(ctx context.Context, id string) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	row, err := c.findRow(ctx, id)
	if err != nil {
		return err
	}
	rng := c.rowRange(row)
	_, err = c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, rng, &gsheet.ClearValuesRequest{}).Context(ctx).Do()
	c.invalidateRowCache()
	if err != nil {
		return fmt.Errorf("clear %s: %w", rng, err)
	}
	return nil
}

func (c *Client) writeRow(ctx context.Context, rng string, cells []interface{}) error {
	vr := &gsheet.ValueRange{Values: [][]interface{}{cells}}
	_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("update %s: %w", rng, err)
	}
	return nil
}

func (c *Client) findRow(ctx context.Context, id string) (int, error) {
	c.mu.Lock()
	if c.rowIndex != nil && time.Since(c.loadedAt) < c.ttl {
		row, ok := c.rowIndex[id]
		c.mu.Unlock()
		if ok {
			return row, nil
		}
		return 0, core.ErrNotFound
	}
	c.mu.Unlock()

	_, index, err := c.readAll(ctx)
	if err != nil {
		return 0, err
	}
	if row, ok := index[id]; ok {
		return row, nil
	}
	return 0, core.ErrNotFound
}

func (c *Client) invalidateRowCache() {
	c.mu.Lock()
	c.rowIndex = nil
	c.gen++
	c.mu.Unlock()
}

// readAll decodes the sheet and refreshes the id -> row index.
func (c *Client) readAll(ctx context.Context) ([]core.Transaction, map[string]int, error) {
	if c.svc == nil {
		return nil, nil, errors.New("sheets service not initialized")
	}
	c.mu.Lock()
	gen := c.gen
	c.mu.Unlock()

	rng := c.fullRange()
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).
		ValueRenderOption("UNFORMATTED_VALUE").Context(ctx).Do()
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", rng, err)
	}

	txns, index := c.decodeRows(ctx, resp.Values)
	c.mu.Lock()
	if c.gen == gen {
		c.rowIndex = index
		c.loadedAt = time.Now()
	}
	c.mu.Unlock()
	return txns, index, nil
}
