// Package handlers provides the HTTP handlers for the quotation PDF API.
//
// This package contains the health check, the PDF endpoint and the HTML
// preview endpoint. Request bodies are parsed with quotation.Parse and
// handed to a generator.Generator.
//
// Example usage:
//
//	h := handlers.NewAPIHandler(gen, maxBodyBytes, logger)
//	r := chi.NewRouter()
//	r.Post("/pdf/cotizacion", h.GenerateQuotation)
//
// All handlers are designed to be used with the chi router.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"go-quotepdf/internal/apperr"
	"go-quotepdf/internal/generator"
	"go-quotepdf/internal/quotation"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// DefaultMaxBodyBytes caps request bodies when none is configured.
const DefaultMaxBodyBytes = 15 << 20

// Pipeline is the part of generator.Generator the handlers use.
type Pipeline interface {
	HTML(q quotation.Quotation) (string, error)
	Generate(ctx context.Context, q quotation.Quotation) (*generator.Document, error)
}

type APIHandler struct {
	Pipeline     Pipeline
	MaxBodyBytes int64
	Logger       *zap.Logger
}

func NewAPIHandler(p Pipeline, maxBodyBytes int64, log *zap.Logger) *APIHandler {
	if maxBodyBytes <= 0 {
		maxBodyBytes = DefaultMaxBodyBytes
	}
	return &APIHandler{Pipeline: p, MaxBodyBytes: maxBodyBytes, Logger: log}
}

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	OK    bool   `json:"ok" example:"false"`
	Error string `json:"error" example:"Unauthorized"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	OK bool `json:"ok" example:"true"`
}

// Health godoc
// @Summary      Health check
// @Description  Reports that the service is up
// @Tags         health
// @Produce      json
// @Success      200  {object}  HealthResponse
// @Router       /health [get]
func (h *APIHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{OK: true})
}

// GenerateQuotation godoc
// @Summary      Generate a quotation PDF
// @Description  Fills the quotation template, renders it to PDF, appends the configured annexes and stamps a footer on every page
// @Tags         quotations
// @Accept       json
// @Produce      application/pdf
// @Param        x-api-key  header    string  false  "API key, required when the server has one configured"
// @Param        request    body      object  false  "Quotation fields; every field is optional"
// @Success      200  {file}    file           "Quotation PDF, inline as <COT_LABEL>.pdf"
// @Failure      400  {object}  ErrorResponse  "Body is not a JSON object"
// @Failure      401  {object}  ErrorResponse  "Missing or wrong API key"
// @Failure      413  {object}  ErrorResponse  "Body too large"
// @Failure      500  {object}  ErrorResponse  "Template, render or merge failure"
// @Failure      503  {object}  ErrorResponse  "No browser slot became available"
// @Router       /pdf/cotizacion [post]
func (h *APIHandler) GenerateQuotation(w http.ResponseWriter, r *http.Request) {
	q, err := h.readQuotation(w, r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	doc, err := h.Pipeline.Generate(r.Context(), q)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.Logger.Info("quotation generated",
		zap.String("request_id", middleware.GetReqID(r.Context())),
		zap.String("label", doc.Label),
		zap.Int("pages", doc.Pages),
		zap.Int("bytes", len(doc.Data)),
	)
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `inline; filename="`+doc.Filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(doc.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc.Data)
}

// PreviewQuotation godoc
// @Summary      Preview quotation HTML
// @Description  Returns the filled template without rendering it; useful when editing the template
// @Tags         quotations
// @Accept       json
// @Produce      html
// @Param        x-api-key  header    string  false  "API key, required when the server has one configured"
// @Param        request    body      object  false  "Quotation fields; every field is optional"
// @Success      200  {string}  string         "Filled HTML"
// @Failure      400  {object}  ErrorResponse  "Body is not a JSON object"
// @Failure      401  {object}  ErrorResponse  "Missing or wrong API key"
// @Failure      500  {object}  ErrorResponse  "Template or logo unreadable"
// @Router       /html/cotizacion [post]
func (h *APIHandler) PreviewQuotation(w http.ResponseWriter, r *http.Request) {
	q, err := h.readQuotation(w, r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	html, err := h.Pipeline.HTML(q)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, html)
}

func (h *APIHandler) readQuotation(w http.ResponseWriter, r *http.Request) (quotation.Quotation, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.MaxBodyBytes)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return quotation.Quotation{}, apperr.New(apperr.KindTooLarge, "request body too large")
		}
		return quotation.Quotation{}, apperr.BadRequest("reading request body", err)
	}
	return quotation.Parse(body)
}

func (h *APIHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := apperr.StatusOf(err)
	fields := []zap.Field{
		zap.String("request_id", middleware.GetReqID(r.Context())),
		zap.Int("status", status),
		zap.Error(err),
	}
	if status >= http.StatusInternalServerError {
		h.Logger.Error("quotation request failed", fields...)
	} else {
		h.Logger.Info("quotation request rejected", fields...)
	}
	WriteError(w, status, err.Error())
}

// WriteError writes {"ok":false,"error":msg} with the given status.
func WriteError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{OK: false, Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
