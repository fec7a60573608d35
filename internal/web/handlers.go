package web

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/catalogd/catalogd/internal/catalog"
	"github.com/catalogd/catalogd/internal/logging"
	"github.com/catalogd/catalogd/internal/metrics"
	"github.com/catalogd/catalogd/internal/store"
)

// statusClientClosedRequest is nginx's non-standard code for a request
// abandoned by the client before a response was produced.
const statusClientClosedRequest = 499

// handleUpload ingests a CSV file posted as the multipart field "file".
//
// The response enumerates every rejected row alongside the stored count.
// A malformed stream is the client's fault (400); a persistence failure is
// ours (500). Either way, rows stored before the failure stay stored.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	maxSize := s.cfg.Upload.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		writeError(w, r, http.StatusBadRequest, "file too large or invalid form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "no file provided")
		return
	}
	defer file.Close()

	log := logging.FromContext(r.Context())
	log.Info("upload received", "file", header.Filename, "size", header.Size)

	summary, err := s.pipeline.Ingest(r.Context(), file)
	metrics.RowsStored.Add(float64(summary.Stored))
	metrics.RowsRejected.Add(float64(len(summary.Failed)))
	if err != nil {
		var parseErr *catalog.ParseError
		if errors.As(err, &parseErr) {
			metrics.UploadsTotal.WithLabelValues("parse_error").Inc()
			writeError(w, r, http.StatusBadRequest, "failed to parse CSV: "+parseErr.Error())
			return
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			metrics.UploadsTotal.WithLabelValues("cancelled").Inc()
			writeError(w, r, statusClientClosedRequest, "upload cancelled")
			return
		}
		metrics.UploadsTotal.WithLabelValues("store_error").Inc()
		writeError(w, r, http.StatusInternalServerError, "failed to store products")
		return
	}

	metrics.UploadsTotal.WithLabelValues("ok").Inc()
	writeJSON(w, r, http.StatusOK, summary)
}

// handleListProducts returns a page of stored products.
// Parameters: page (>=1, default 1) and limit (>=1, default 10).
func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	page, err := queryInt(r, "page", 1)
	if err != nil || page < 1 {
		writeError(w, r, http.StatusBadRequest, "page must be a positive integer")
		return
	}
	limit, err := queryInt(r, "limit", 10)
	if err != nil || limit < 1 {
		writeError(w, r, http.StatusBadRequest, "limit must be a positive integer")
		return
	}

	// A page whose offset cannot be represented is necessarily past the
	// end of the catalog; answer it without risking integer overflow.
	if page-1 > math.MaxInt/limit {
		writeJSON(w, r, http.StatusOK, []catalog.Product{})
		return
	}

	products, err := s.store.List(r.Context(), (page-1)*limit, limit)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "failed to list products")
		return
	}
	writeJSON(w, r, http.StatusOK, products)
}

// handleSearchProducts returns all products matching the given filters:
// brand and color as exact matches, minPrice/maxPrice as inclusive bounds.
// Absent parameters impose no constraint.
func (s *Server) handleSearchProducts(w http.ResponseWriter, r *http.Request) {
	var f store.Filter

	q := r.URL.Query()
	if v := q.Get("brand"); v != "" {
		f.Brand = &v
	}
	if v := q.Get("color"); v != "" {
		f.Color = &v
	}

	var err error
	if f.MinPrice, err = queryFloat(r, "minPrice"); err != nil {
		writeError(w, r, http.StatusBadRequest, "minPrice must be a number")
		return
	}
	if f.MaxPrice, err = queryFloat(r, "maxPrice"); err != nil {
		writeError(w, r, http.StatusBadRequest, "maxPrice must be a number")
		return
	}

	products, err := s.store.Search(r.Context(), f)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "failed to search products")
		return
	}
	writeJSON(w, r, http.StatusOK, products)
}

// handleHealth reports liveness, including backend connectivity when the
// store has one.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if p, ok := s.store.(pinger); ok {
		if err := p.Ping(r.Context()); err != nil {
			writeError(w, r, http.StatusServiceUnavailable, "database unreachable")
			return
		}
	}
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

// queryInt parses an optional integer query parameter.
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}

// queryFloat parses an optional float query parameter, nil when absent.
func queryFloat(r *http.Request, name string) (*float64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
