package web

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"boletin-iglesia/internal/bulletin"
	"boletin-iglesia/internal/store"
)

//go:embed templates/index.html
var templates embed.FS

const maxDataSize = 1 << 20

// IndexHTML returns the bulletin page template.
func IndexHTML() []byte {
	data, _ := templates.ReadFile("templates/index.html")
	return data
}

// Archive lists the weeks kept in the bulletin archive.
type Archive interface {
	Weeks(ctx context.Context) ([]string, error)
}

// Handler holds the HTTP handlers and their dependencies.
type Handler struct {
	board   *bulletin.Board
	trigger *bulletin.Trigger
	store   store.Store
	dataKey string
	archive Archive
	logger  *zap.Logger
}

// New creates a new Handler. The store serves and accepts the bulletin JSON under dataKey.
func New(board *bulletin.Board, trigger *bulletin.Trigger, s store.Store, dataKey string, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		board:   board,
		trigger: trigger,
		store:   s,
		dataKey: dataKey,
		logger:  logger,
	}
}

// SetArchive enables the /weeks listing.
func (h *Handler) SetArchive(a Archive) {
	h.archive = a
}

// RegisterRoutes registers all HTTP routes on the given mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", h.noCache(h.handleIndex))
	mux.HandleFunc("GET /data.json", h.noCache(h.handleGetData))
	mux.HandleFunc("PUT /data.json", h.handlePutData)
	mux.HandleFunc("POST /reload", h.handleReload)
	mux.HandleFunc("GET /status", h.noCache(h.handleStatus))
	mux.HandleFunc("GET /weeks", h.noCache(h.handleWeeks))
	mux.HandleFunc("GET /health", h.handleHealth)
}

func (h *Handler) noCache(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, proxy-revalidate")
		w.Header().Set("Pragma", "no-cache")
		w.Header().Set("Expires", "0")
		next(w, r)
	}
}

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	page, err := h.board.Page().HTML()
	if err != nil {
		h.logger.Error("rendering page", zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	io.WriteString(w, page)
}

func (h *Handler) handleGetData(w http.ResponseWriter, r *http.Request) {
	data, err := h.store.Get(r.Context(), h.dataKey)
	if errors.Is(err, store.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		h.logger.Error("reading bulletin data", zap.String("key", h.dataKey), zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Write(data)
}

func (h *Handler) handlePutData(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxDataSize+1))
	if err != nil {
		http.Error(w, "Failed to read body", http.StatusBadRequest)
		return
	}
	if len(data) > maxDataSize {
		http.Error(w, "Bulletin too large", http.StatusRequestEntityTooLarge)
		return
	}
	if _, err := bulletin.Decode(data); err != nil {
		http.Error(w, "Invalid bulletin JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.store.Put(r.Context(), h.dataKey, "application/json", data); err != nil {
		h.logger.Error("storing bulletin data", zap.String("key", h.dataKey), zap.Error(err))
		http.Error(w, "Failed to save bulletin", http.StatusInternalServerError)
		return
	}
	h.logger.Info("bulletin data replaced", zap.Int("bytes", len(data)))
	w.WriteHeader(http.StatusNoContent)
}

// handleReload clicks the reload trigger. The reload finishes in the background;
// the browser is sent back to the page, which shows the in-progress button.
func (h *Handler) handleReload(w http.ResponseWriter, r *http.Request) {
	_, err := h.trigger.Click(context.WithoutCancel(r.Context()))
	if errors.Is(err, bulletin.ErrTriggerBusy) {
		http.Error(w, "Reload already in progress", http.StatusConflict)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

type statusResponse struct {
	Origin    bulletin.Origin `json:"origin,omitempty"`
	Message   string          `json:"message"`
	IsError   bool            `json:"is_error"`
	Error     string          `json:"error,omitempty"`
	LoadedAt  *time.Time      `json:"loaded_at,omitempty"`
	Reloading bool            `json:"reloading"`
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	out, loadedAt := h.board.Last()
	resp := statusResponse{
		Origin:    out.Origin,
		Message:   out.Message,
		IsError:   out.IsError,
		Reloading: h.trigger.Busy(),
	}
	if out.Err != nil {
		resp.Error = out.Err.Error()
	}
	if !loadedAt.IsZero() {
		resp.LoadedAt = &loadedAt
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error("encoding status", zap.Error(err))
	}
}

func (h *Handler) handleWeeks(w http.ResponseWriter, r *http.Request) {
	if h.archive == nil {
		http.Error(w, "Archive not configured", http.StatusNotFound)
		return
	}

	weeks, err := h.archive.Weeks(r.Context())
	if err != nil {
		h.logger.Error("listing archived weeks", zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if weeks == nil {
		weeks = []string{}
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	json.NewEncoder(w).Encode(weeks)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}
