package analyzer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Bahjat/content-insight/backend/internal/model"
	"github.com/Bahjat/content-insight/backend/internal/platform/errs"
)

const (
	analyzeTimeout = 60 * time.Second
	batchTimeout   = 5 * time.Minute
)

var (
	errURLRequired   = errors.New("the \"url\" field is required")
	errURLsRequired  = errors.New("the \"urls\" field must list at least one URL")
	errEmptyBatchURL = errors.New("every entry in \"urls\" must be a non-empty URL")
)

// Transport handles HTTP requests for page analysis.
type Transport struct {
	service *Service
	logger  *slog.Logger
}

// NewTransport creates an HTTP transport backed by the given service.
func NewTransport(service *Service, logger *slog.Logger) *Transport {
	return &Transport{service: service, logger: logger}
}

// RegisterRoutes attaches the transport's handlers to the given mux.
func (t *Transport) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /analyze", t.handleAnalyze)
	mux.HandleFunc("POST /analyze/html", t.handleAnalyzeHTML)
	mux.HandleFunc("POST /analyze/batch", t.handleAnalyzeBatch)
	mux.HandleFunc("GET /healthz", t.handleHealth)
}

type analyzeRequest struct {
	URL string `json:"url"`
}

func (r analyzeRequest) validate() error {
	if strings.TrimSpace(r.URL) == "" {
		return errURLRequired
	}
	return nil
}

type batchRequest struct {
	URLs []string `json:"urls"`
}

func (r batchRequest) validate() error {
	if len(r.URLs) == 0 {
		return errURLsRequired
	}
	for _, u := range r.URLs {
		if strings.TrimSpace(u) == "" {
			return errEmptyBatchURL
		}
	}
	return nil
}

func (t *Transport) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if !t.decode(w, r, 1<<20, &req, "Invalid request body. Please send a JSON object with a \"url\" field.") {
		return
	}

	if err := req.validate(); err != nil {
		t.renderError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), analyzeTimeout)
	defer cancel()

	result, err := t.service.Analyze(ctx, strings.TrimSpace(req.URL))
	if err != nil {
		t.handleServiceError(w, err)
		return
	}

	t.renderJSON(w, http.StatusOK, result)
}

func (t *Transport) handleAnalyzeHTML(w http.ResponseWriter, r *http.Request) {
	var req model.HTMLInput
	if !t.decode(w, r, 12<<20, &req, "Invalid request body. Please send a JSON object with an \"html\" field.") {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), analyzeTimeout)
	defer cancel()

	result, err := t.service.AnalyzeHTML(ctx, req)
	if err != nil {
		t.handleServiceError(w, err)
		return
	}

	t.renderJSON(w, http.StatusOK, result)
}

func (t *Transport) handleAnalyzeBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if !t.decode(w, r, 1<<20, &req, "Invalid request body. Please send a JSON object with a \"urls\" array.") {
		return
	}

	if err := req.validate(); err != nil {
		t.renderError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), batchTimeout)
	defer cancel()

	result, err := t.service.AnalyzeBatch(ctx, req.URLs)
	if err != nil {
		t.handleServiceError(w, err)
		return
	}

	t.renderJSON(w, http.StatusOK, result)
}

func (t *Transport) handleHealth(w http.ResponseWriter, _ *http.Request) {
	t.renderJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// decode reads a size-capped JSON body into dst, rendering a 400 with
// message on failure.
func (t *Transport) decode(w http.ResponseWriter, r *http.Request, maxBytes int64, dst any, message string) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			t.renderError(w, http.StatusRequestEntityTooLarge, "Request body is too large.")
			return false
		}
		t.renderError(w, http.StatusBadRequest, message)
		return false
	}
	return true
}

func (t *Transport) handleServiceError(w http.ResponseWriter, err error) {
	var appErr *errs.AppError
	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError
		switch appErr.Kind {
		case errs.InvalidInput:
			status = http.StatusBadRequest
		case errs.Unreachable:
			status = http.StatusBadGateway
		case errs.Timeout:
			status = http.StatusGatewayTimeout
		case errs.ParsingFailed, errs.Unknown:
			// 500 Internal Server Error
		}
		t.renderError(w, status, appErr.Message)
		return
	}

	t.renderError(w, http.StatusInternalServerError, "An unexpected error occurred.")
}

func (t *Transport) renderJSON(w http.ResponseWriter, status int, data any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(data); err != nil {
		t.logger.Error("failed to encode response", "error", err)
		http.Error(w, `{"error":"Internal Server Error"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (t *Transport) renderError(w http.ResponseWriter, status int, message string) {
	t.renderJSON(w, status, model.ErrorResponse{
		Error:      http.StatusText(status),
		StatusCode: status,
		Message:    message,
	})
}
