package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/JonMunkholm/salesview/internal/core"
)

// importResponse is the body returned by the JSON import endpoint.
type importResponse struct {
	Inserted int `json:"inserted"`
}

// handleImportJSON appends a JSON array of records as a single batch.
// Any invalid record rejects the whole batch.
func (s *Server) handleImportJSON(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Upload.MaxJSONSize)

	var records []core.Record
	if err := json.NewDecoder(r.Body).Decode(&records); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			respondError(w, r, err, http.StatusRequestEntityTooLarge)
			return
		}
		respondError(w, r, fmt.Errorf("invalid json: %w", err), http.StatusBadRequest)
		return
	}

	n, err := s.service.Import(r.Context(), records)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}

	writeJSON(w, http.StatusCreated, importResponse{Inserted: n})
}

// handleUploadCSV imports a CSV file sent as multipart form field "file".
func (s *Server) handleUploadCSV(w http.ResponseWriter, r *http.Request) {
	maxSize := s.cfg.Upload.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			respondError(w, r, err, http.StatusRequestEntityTooLarge)
			return
		}
		respondError(w, r, fmt.Errorf("invalid upload: %w", err), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, r, errNoFile, http.StatusBadRequest)
		return
	}
	defer file.Close()

	result, err := s.service.ImportCSV(r.Context(), header.Filename, file)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}

	writeJSON(w, http.StatusCreated, result)
}
