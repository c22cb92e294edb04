package web

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/JonMunkholm/salesview/internal/core"
	"github.com/JonMunkholm/salesview/internal/logging"
)

// handleQuerySales returns one page of records matching the query parameters.
func (s *Server) handleQuerySales(w http.ResponseWriter, r *http.Request) {
	c := criteriaFromQuery(r.URL.Query(), s.cfg.Query.DefaultPageSize, s.cfg.Query.MaxPageSize)

	page, err := s.service.Query(r.Context(), c)
	if err != nil {
		respondError(w, r, err, readStatus(err))
		return
	}

	writeJSON(w, http.StatusOK, page)
}

// handleFilterOptions returns the distinct values for each filter control.
func (s *Server) handleFilterOptions(w http.ResponseWriter, r *http.Request) {
	opts, err := s.service.FilterOptions(r.Context())
	if err != nil {
		respondError(w, r, err, readStatus(err))
		return
	}

	writeJSON(w, http.StatusOK, opts)
}

// handleExportSales streams every matching record as CSV, ignoring paging.
// The column layout matches what the upload endpoint accepts.
func (s *Server) handleExportSales(w http.ResponseWriter, r *http.Request) {
	c := criteriaFromQuery(r.URL.Query(), s.cfg.Query.DefaultPageSize, s.cfg.Query.MaxPageSize)
	if err := core.ValidateCriteria(c.WithDefaults()); err != nil {
		respondError(w, r, err, http.StatusBadRequest)
		return
	}

	filename := fmt.Sprintf("sales_%s.csv", time.Now().Format("20060102_150405"))
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))

	csvWriter := csv.NewWriter(w)
	if err := csvWriter.Write(core.CSVHeaders); err != nil {
		return
	}

	// Flush to the client every N rows.
	const flushInterval = 1000
	rowCount := 0

	err := s.service.Export(r.Context(), c, func(rec core.Record) error {
		if err := csvWriter.Write(exportRow(&rec)); err != nil {
			return err
		}

		rowCount++
		if rowCount%flushInterval == 0 {
			csvWriter.Flush()
			if err := csvWriter.Error(); err != nil {
				return err
			}
			if f, ok := w.(http.Flusher); ok {
				f.Flush()
			}
		}
		return nil
	})

	csvWriter.Flush()

	// Headers are already sent, so failures can only be logged.
	if err != nil && r.Context().Err() == nil {
		logging.FromContext(r.Context()).Error("export aborted", "rows", rowCount, "error", err)
	}
}

// exportRow renders rec in CSVHeaders order.
func exportRow(rec *core.Record) []string {
	age := ""
	if rec.Age != nil {
		age = strconv.Itoa(*rec.Age)
	}
	return []string{
		rec.CustomerID, rec.CustomerName, rec.PhoneNumber, rec.Gender, age,
		rec.CustomerRegion, rec.CustomerType, rec.ProductID, rec.ProductName, rec.Brand,
		rec.ProductCategory, rec.Tags, strconv.Itoa(rec.Quantity), rec.PricePerUnit.String(), rec.DiscountPercentage.String(),
		rec.TotalAmount.String(), rec.FinalAmount.String(), rec.Date, rec.PaymentMethod, rec.OrderStatus,
		rec.DeliveryType, rec.StoreID, rec.StoreLocation, rec.SalespersonID, rec.EmployeeName,
	}
}

// healthResponse is the body of GET /healthz.
type healthResponse struct {
	Status  string                   `json:"status"`
	Store   string                   `json:"store"`
	Imports core.ImportLimiterStatus `json:"imports"`
}

// handleHealth reports store reachability and import slot usage.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:  "ok",
		Store:   "ok",
		Imports: s.service.LimiterStatus(),
	}

	status := http.StatusOK
	if err := s.service.Ping(r.Context()); err != nil {
		logging.FromContext(r.Context()).Error("health check failed", "error", err)
		resp.Status = "degraded"
		resp.Store = "unavailable"
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, status, resp)
}
