package web

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/JonMunkholm/salesview/internal/config"
	"github.com/JonMunkholm/salesview/internal/core"
	"github.com/JonMunkholm/salesview/internal/logging"
	"github.com/JonMunkholm/salesview/internal/storage/memory"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.LoadFrom(func(string) string { return "" })
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	return cfg
}

func newTestServer(t *testing.T, store core.Store, cfg *config.Config) *Server {
	t.Helper()
	if cfg == nil {
		cfg = testConfig(t)
	}
	srv := NewServer(core.NewService(store, core.ServiceConfig{}), cfg)
	t.Cleanup(func() { srv.Shutdown(context.Background()) })
	return srv
}

func fixture() []core.Record {
	age := func(n int) *int { return &n }
	return []core.Record{
		{CustomerID: "C1", CustomerName: "Alice", PhoneNumber: "555-0101", Gender: "Female", Age: age(25), CustomerRegion: "North", ProductID: "P1", ProductCategory: "Electronics", Tags: "gadget,sale", Quantity: 5, PaymentMethod: "Card", Date: "2023-01-05", FinalAmount: decimal.NewFromInt(100)},
		{CustomerID: "C2", CustomerName: "bob", PhoneNumber: "555-0102", Gender: "Male", Age: age(40), CustomerRegion: "South", ProductID: "P2", ProductCategory: "Clothing", Tags: "sale", Quantity: 1, PaymentMethod: "Cash", Date: "10-02-2023", FinalAmount: decimal.NewFromInt(20)},
		{CustomerID: "C3", CustomerName: "Carol", PhoneNumber: "555-0103", Gender: "Female", Age: age(33), CustomerRegion: "North", ProductID: "P3", ProductCategory: "Electronics", Tags: "gadget", Quantity: 3, PaymentMethod: "UPI", Date: "2023-03-15", FinalAmount: decimal.NewFromInt(60)},
		{CustomerID: "C4", CustomerName: "Dave", PhoneNumber: "555-0104", Gender: "Male", Age: age(51), CustomerRegion: "East", ProductID: "P4", ProductCategory: "Home", Quantity: 2, PaymentMethod: "Card", Date: "2023-04-01", FinalAmount: decimal.NewFromInt(45)},
		{CustomerID: "C5", CustomerName: "Eve", PhoneNumber: "555-0105", Gender: "Female", Age: age(29), CustomerRegion: "West", ProductID: "P5", ProductCategory: "Clothing", Tags: "sale,new", Quantity: 4, PaymentMethod: "Cash", Date: "2023-05-20", FinalAmount: decimal.NewFromInt(80)},
	}
}

func do(t *testing.T, srv *Server, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func decodePage(t *testing.T, rec *httptest.ResponseRecorder) core.ResultPage {
	t.Helper()
	var page core.ResultPage
	if err := json.Unmarshal(rec.Body.Bytes(), &page); err != nil {
		t.Fatalf("decode page: %v\nbody: %s", err, rec.Body.String())
	}
	return page
}

func customerIDs(records []core.Record) string {
	ids := make([]string, len(records))
	for i, r := range records {
		ids[i] = r.CustomerID
	}
	return strings.Join(ids, ",")
}

func TestHandleQuerySales(t *testing.T) {
	srv := newTestServer(t, memory.New(fixture()...), nil)

	tests := []struct {
		name      string
		query     string
		wantIDs   string
		wantTotal int
		wantPages int
	}{
		{name: "defaults sort by date desc", query: "", wantIDs: "C5,C4,C3,C2,C1", wantTotal: 5, wantPages: 1},
		{name: "search by name", query: "q=ALI", wantIDs: "C1", wantTotal: 1, wantPages: 1},
		{name: "search alias by phone", query: "search=0102", wantIDs: "C2", wantTotal: 1, wantPages: 1},
		{name: "comma joined regions", query: "regions=North,East&sortBy=quantity&sortDir=asc", wantIDs: "C4,C3,C1", wantTotal: 3, wantPages: 1},
		{name: "repeated region alias", query: "region=North&region=West&sortBy=Quantity&sortDir=asc", wantIDs: "C3,C5,C1", wantTotal: 3, wantPages: 1},
		{name: "tags require all", query: "tags=gadget,sale", wantIDs: "C1", wantTotal: 1, wantPages: 1},
		{name: "age range", query: "ageMin=30&ageMax=45&sortBy=customer_name&sortDir=asc", wantIDs: "C2,C3", wantTotal: 2, wantPages: 1},
		{name: "date range mixes formats", query: "dateFrom=01-02-2023&dateTo=2023-03-31&sortDir=asc", wantIDs: "C2,C3", wantTotal: 2, wantPages: 1},
		{name: "second page", query: "page=2&pageSize=2&sortBy=Date&sortDir=asc", wantIDs: "C3,C4", wantTotal: 5, wantPages: 3},
		{name: "page past end is empty", query: "page=9&pageSize=2", wantIDs: "", wantTotal: 5, wantPages: 3},
		{name: "malformed numbers use defaults", query: "page=abc&pageSize=zero", wantIDs: "C5,C4,C3,C2,C1", wantTotal: 5, wantPages: 1},
		{name: "negative page size clamps to one", query: "page=1&pageSize=-5", wantIDs: "C5", wantTotal: 5, wantPages: 5},
		{name: "zero page size uses default", query: "pageSize=0", wantIDs: "C5,C4,C3,C2,C1", wantTotal: 5, wantPages: 1},
		{name: "unknown direction means desc", query: "sortBy=quantity&sortDir=sideways", wantIDs: "C1,C5,C3,C4,C2", wantTotal: 5, wantPages: 1},
		{name: "no match", query: "regions=Nowhere", wantIDs: "", wantTotal: 0, wantPages: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, srv, httptest.NewRequest(http.MethodGet, "/api/sales?"+tt.query, nil))
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body.String())
			}

			page := decodePage(t, rec)
			if got := customerIDs(page.Data); got != tt.wantIDs {
				t.Errorf("ids = %q, want %q", got, tt.wantIDs)
			}
			if page.Meta.Total != tt.wantTotal {
				t.Errorf("total = %d, want %d", page.Meta.Total, tt.wantTotal)
			}
			if page.Meta.TotalPages != tt.wantPages {
				t.Errorf("totalPages = %d, want %d", page.Meta.TotalPages, tt.wantPages)
			}
		})
	}
}

func TestHandleQuerySales_PageSizeCapped(t *testing.T) {
	cfg := testConfig(t)
	cfg.Query.MaxPageSize = 2
	srv := newTestServer(t, memory.New(fixture()...), cfg)

	rec := do(t, srv, httptest.NewRequest(http.MethodGet, "/api/sales?pageSize=100", nil))
	page := decodePage(t, rec)
	if page.Meta.PageSize != 2 || len(page.Data) != 2 {
		t.Errorf("pageSize = %d, len = %d; want 2, 2", page.Meta.PageSize, len(page.Data))
	}
}

// brokenStore fails every call with err.
type brokenStore struct{ err error }

func (s brokenStore) Append(context.Context, []core.Record) error {
	return s.err
}

func (s brokenStore) All(context.Context) ([]core.Record, error) {
	return nil, s.err
}

func TestReadEndpoints_StoreError(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		err        error
		wantDetail string
	}{
		{name: "query permission denied", path: "/api/sales", err: errors.New("read sales.json: permission denied"), wantDetail: "permission denied"},
		{name: "query deadline", path: "/api/sales", err: fmt.Errorf("query sales: %w", context.DeadlineExceeded), wantDetail: "context deadline exceeded"},
		{name: "filter options deadline", path: "/api/sales/filter-options", err: fmt.Errorf("query sales: %w", context.DeadlineExceeded), wantDetail: "context deadline exceeded"},
		{name: "filter options connection refused", path: "/api/sales/filter-options", err: errors.New("dial tcp: connection refused"), wantDetail: "connection refused"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, brokenStore{err: tt.err}, nil)

			rec := do(t, srv, httptest.NewRequest(http.MethodGet, tt.path, nil))
			if rec.Code != http.StatusInternalServerError {
				t.Fatalf("status = %d, want 500", rec.Code)
			}

			var body ErrorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode error body: %v", err)
			}
			if !strings.Contains(body.Detail, tt.wantDetail) {
				t.Errorf("detail = %q, want %q", body.Detail, tt.wantDetail)
			}
		})
	}
}

func TestHandleQuerySales_StoreErrorIsGeneric(t *testing.T) {
	srv := newTestServer(t, brokenStore{err: errors.New("read sales.json: permission denied")}, nil)

	rec := do(t, srv, httptest.NewRequest(http.MethodGet, "/api/sales", nil))

	var body ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if body.Code != "ERR000" {
		t.Errorf("code = %q, want ERR000", body.Code)
	}
}

func TestReadStatus(t *testing.T) {
	invalid := core.ValidateCriteria(core.Criteria{})
	if got := readStatus(invalid); got != http.StatusBadRequest {
		t.Errorf("readStatus(invalid criteria) = %d, want 400", got)
	}
	if got := readStatus(context.DeadlineExceeded); got != http.StatusInternalServerError {
		t.Errorf("readStatus(deadline) = %d, want 500", got)
	}
}

func TestRespondError_LogLevel(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		status    int
		wantLevel string
	}{
		{name: "catalogued client error", err: core.ErrEmptyBatch, status: http.StatusBadRequest, wantLevel: "WARN"},
		{name: "uncatalogued client error", err: errors.New("mystery"), status: http.StatusBadRequest, wantLevel: "ERROR"},
		{name: "server error", err: core.ErrEmptyBatch, status: http.StatusInternalServerError, wantLevel: "ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			prev := slog.Default()
			slog.SetDefault(logging.New(&buf, "info", "json"))
			t.Cleanup(func() { slog.SetDefault(prev) })

			rec := httptest.NewRecorder()
			respondError(rec, httptest.NewRequest(http.MethodGet, "/api/sales", nil), tt.err, tt.status)

			var entry map[string]any
			if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
				t.Fatalf("decode log line %q: %v", buf.String(), err)
			}
			if entry["level"] != tt.wantLevel {
				t.Errorf("level = %v, want %s", entry["level"], tt.wantLevel)
			}
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
		})
	}
}

func TestHandleFilterOptions(t *testing.T) {
	srv := newTestServer(t, memory.New(fixture()...), nil)

	rec := do(t, srv, httptest.NewRequest(http.MethodGet, "/api/sales/filter-options", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var opts core.FilterOptions
	if err := json.Unmarshal(rec.Body.Bytes(), &opts); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got := strings.Join(opts.CustomerRegions, ","); got != "East,North,South,West" {
		t.Errorf("regions = %q", got)
	}
	if got := strings.Join(opts.Tags, ","); got != "gadget,new,sale" {
		t.Errorf("tags = %q", got)
	}
	if got := strings.Join(opts.PaymentMethods, ","); got != "Card,Cash,UPI" {
		t.Errorf("payment methods = %q", got)
	}
}

// slowStore delays every call by delay unless ctx ends first.
type slowStore struct {
	core.Store
	delay time.Duration
}

func (s slowStore) wait(ctx context.Context) error {
	select {
	case <-time.After(s.delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s slowStore) Append(ctx context.Context, records []core.Record) error {
	if err := s.wait(ctx); err != nil {
		return err
	}
	return s.Store.Append(ctx, records)
}

func (s slowStore) All(ctx context.Context) ([]core.Record, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	return s.Store.All(ctx)
}

func TestRequestTimeouts(t *testing.T) {
	cfg := testConfig(t)
	cfg.Server.RequestTimeout = 20 * time.Millisecond
	cfg.Upload.Timeout = 5 * time.Second
	srv := newTestServer(t, slowStore{Store: memory.New(fixture()...), delay: 100 * time.Millisecond}, cfg)

	t.Run("import outlives the request timeout", func(t *testing.T) {
		body := `[{"customer_id":"C9","product_id":"P9","quantity":2}]`
		req := httptest.NewRequest(http.MethodPost, "/api/sales/import", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")

		rec := do(t, srv, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d, want 201; body: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("query is bounded by the request timeout", func(t *testing.T) {
		rec := do(t, srv, httptest.NewRequest(http.MethodGet, "/api/sales", nil))
		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("status = %d, want 500", rec.Code)
		}
	})
}

func TestServer_ImportBudget(t *testing.T) {
	cfg := testConfig(t)
	srv := newTestServer(t, memory.New(), cfg)

	if got, want := srv.importBudget(), cfg.Upload.MaxWaitTime+cfg.Upload.Timeout; got != want {
		t.Errorf("importBudget() = %v, want %v", got, want)
	}
	if srv.importBudget() <= cfg.Server.RequestTimeout {
		t.Errorf("importBudget() = %v, want more than request timeout %v", srv.importBudget(), cfg.Server.RequestTimeout)
	}
}

func TestHandleImportJSON(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantCode int
		wantErr  string
		wantLen  int
	}{
		{
			name:     "valid batch",
			body:     `[{"customer_id":"C9","product_id":"P9","quantity":2,"final_amount":19.5}]`,
			wantCode: http.StatusCreated,
			wantLen:  6,
		},
		{
			name:     "missing product id rejects whole batch",
			body:     `[{"customer_id":"C9","product_id":"P9"},{"customer_id":"C10"}]`,
			wantCode: http.StatusBadRequest,
			wantErr:  "VAL001",
			wantLen:  5,
		},
		{
			name:     "not an array",
			body:     `{"customer_id":"C9"}`,
			wantCode: http.StatusBadRequest,
			wantErr:  "VAL003",
			wantLen:  5,
		},
		{
			name:     "empty array",
			body:     `[]`,
			wantCode: http.StatusBadRequest,
			wantErr:  "IMP002",
			wantLen:  5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := memory.New(fixture()...)
			srv := newTestServer(t, store, nil)

			req := httptest.NewRequest(http.MethodPost, "/api/sales/import", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rec := do(t, srv, req)

			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d; body: %s", rec.Code, tt.wantCode, rec.Body.String())
			}
			if tt.wantErr != "" {
				var body ErrorResponse
				json.Unmarshal(rec.Body.Bytes(), &body)
				if body.Code != tt.wantErr {
					t.Errorf("code = %q, want %q", body.Code, tt.wantErr)
				}
			}
			if store.Len() != tt.wantLen {
				t.Errorf("store len = %d, want %d", store.Len(), tt.wantLen)
			}
		})
	}
}

func multipartCSV(t *testing.T, field, name, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, name)
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	fw.Write([]byte(content))
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func TestHandleUploadCSV(t *testing.T) {
	store := memory.New()
	srv := newTestServer(t, store, nil)

	csvText := "Customer ID,Customer Name,Product ID,Quantity,Date\n" +
		"C1,Alice,P1,5,2023-01-05\n" +
		"C2,Bob,,1,2023-01-06\n" +
		"C3,\"Carol, Jr\",P3,2 units,05-03-2023\n"
	body, contentType := multipartCSV(t, "file", "sales.csv", csvText)

	req := httptest.NewRequest(http.MethodPost, "/api/sales/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := do(t, srv, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201; body: %s", rec.Code, rec.Body.String())
	}

	var result core.ImportResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.FileName != "sales.csv" || result.Parsed != 2 || result.Inserted != 2 {
		t.Errorf("result = %+v, want 2 parsed and inserted from sales.csv", result)
	}

	all, _ := store.All(context.Background())
	if len(all) != 2 || all[1].CustomerName != "Carol, Jr" || all[1].Quantity != 2 {
		t.Errorf("stored = %+v", all)
	}
}

func TestHandleUploadCSV_Errors(t *testing.T) {
	tests := []struct {
		name     string
		field    string
		content  string
		wantCode int
		wantErr  string
	}{
		{name: "no usable rows", field: "file", content: "Customer ID,Product ID\n,\n", wantCode: http.StatusUnprocessableEntity, wantErr: "IMP001"},
		{name: "header only", field: "file", content: "Customer ID,Product ID\n", wantCode: http.StatusUnprocessableEntity, wantErr: "IMP001"},
		{name: "wrong field name", field: "upload", content: "Customer ID,Product ID\nC1,P1\n", wantCode: http.StatusBadRequest, wantErr: "FILE004"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, memory.New(), nil)
			body, contentType := multipartCSV(t, tt.field, "sales.csv", tt.content)

			req := httptest.NewRequest(http.MethodPost, "/api/sales/upload", body)
			req.Header.Set("Content-Type", contentType)
			rec := do(t, srv, req)

			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d; body: %s", rec.Code, tt.wantCode, rec.Body.String())
			}
			var resp ErrorResponse
			json.Unmarshal(rec.Body.Bytes(), &resp)
			if resp.Code != tt.wantErr {
				t.Errorf("code = %q, want %q", resp.Code, tt.wantErr)
			}
		})
	}
}

func TestHandleUploadCSV_NotMultipart(t *testing.T) {
	srv := newTestServer(t, memory.New(), nil)

	req := httptest.NewRequest(http.MethodPost, "/api/sales/upload", strings.NewReader("Customer ID,Product ID\nC1,P1\n"))
	req.Header.Set("Content-Type", "text/csv")
	rec := do(t, srv, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestHandleExportSales(t *testing.T) {
	srv := newTestServer(t, memory.New(fixture()...), nil)

	rec := do(t, srv, httptest.NewRequest(http.MethodGet, "/api/sales/export?regions=North&sortDir=asc&pageSize=1", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/csv" {
		t.Errorf("Content-Type = %q", ct)
	}

	rows, err := csv.NewReader(rec.Body).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want header plus 2 (paging ignored)", len(rows))
	}
	if rows[0][0] != "Customer ID" || len(rows[0]) != len(core.CSVHeaders) {
		t.Errorf("header = %v", rows[0])
	}
	if rows[1][0] != "C1" || rows[2][0] != "C3" {
		t.Errorf("order = %s, %s; want C1, C3", rows[1][0], rows[2][0])
	}
}

func TestExportRoundTripsThroughParser(t *testing.T) {
	srv := newTestServer(t, memory.New(fixture()...), nil)

	rec := do(t, srv, httptest.NewRequest(http.MethodGet, "/api/sales/export?sortDir=asc", nil))
	parsed := core.ParseCSV(rec.Body.String())
	if len(parsed) != 5 {
		t.Fatalf("parsed %d records, want 5", len(parsed))
	}
	if parsed[0].CustomerID != "C1" || parsed[0].AgeOrZero() != 25 || parsed[0].Quantity != 5 {
		t.Errorf("first = %+v", parsed[0])
	}
	if parsed[0].Tags != "gadget,sale" {
		t.Errorf("tags = %q, want quoted field preserved", parsed[0].Tags)
	}
}

func TestHandleHealth(t *testing.T) {
	srv := newTestServer(t, memory.New(), nil)

	rec := do(t, srv, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body healthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != "ok" || body.Imports.MaxConcurrent != core.DefaultMaxConcurrentImports {
		t.Errorf("health = %+v", body)
	}
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig(t)
	cfg.Rate.RequestsPerMinute = 2
	srv := newTestServer(t, memory.New(), cfg)

	for i, want := range []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests} {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		req.RemoteAddr = "203.0.113.7:5000"
		rec := do(t, srv, req)
		if rec.Code != want {
			t.Errorf("request %d: status = %d, want %d", i+1, rec.Code, want)
		}
	}

	// A different client has its own bucket.
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.RemoteAddr = "203.0.113.8:5000"
	if rec := do(t, srv, req); rec.Code != http.StatusOK {
		t.Errorf("other client status = %d, want 200", rec.Code)
	}
}

func TestSecurityAndCORSHeaders(t *testing.T) {
	srv := newTestServer(t, memory.New(), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/sales", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := do(t, srv, req)

	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got == "" {
		t.Error("Access-Control-Allow-Origin missing for allowed origin")
	}
}
