package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gyaneshwarpardhi/execgraph/internal/config"
	"github.com/gyaneshwarpardhi/execgraph/internal/engine"
	"github.com/gyaneshwarpardhi/execgraph/internal/graph"
	"github.com/gyaneshwarpardhi/execgraph/internal/metrics"
	"github.com/gyaneshwarpardhi/execgraph/internal/pipeline"
)

// Handler holds all HTTP handler dependencies.
type Handler struct {
	eng     *engine.Engine
	loader  *config.Loader // nil when running on built-in defaults
	maxBody int64
	mux     *http.ServeMux
}

// New creates an HTTP handler and registers all routes.
func New(eng *engine.Engine, loader *config.Loader, maxBody int64) http.Handler {
	h := &Handler{eng: eng, loader: loader, maxBody: maxBody, mux: http.NewServeMux()}

	h.mux.HandleFunc("POST /v1/pipelines/transform", h.transform)
	h.mux.HandleFunc("POST /v1/pipelines/batch", h.transformBatch)
	h.mux.HandleFunc("POST /v1/status/count", h.countStatus)
	h.mux.HandleFunc("GET /v1/icons", h.listIcons)
	h.mux.HandleFunc("POST /v1/config/reload", h.reloadConfig)
	h.mux.HandleFunc("GET /healthz", h.healthz)
	h.mux.HandleFunc("GET /readyz", h.readyz)
	h.mux.Handle("GET /metrics", promhttp.Handler())

	return loggingMiddleware(h.mux)
}

// POST /v1/pipelines/transform — one orchestration graph in, one pipeline out.
func (h *Handler) transform(w http.ResponseWriter, r *http.Request) {
	body, ok := h.readBody(w, r)
	if !ok {
		return
	}
	g, err := graph.Decode(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, h.eng.Transform(g, requestID(r.Context())))
}

// POST /v1/pipelines/batch — array of graphs, transformed on the worker pool.
func (h *Handler) transformBatch(w http.ResponseWriter, r *http.Request) {
	body, ok := h.readBody(w, r)
	if !ok {
		return
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %s", err))
		return
	}
	graphs := make([]*graph.OrchestrationGraph, 0, len(raw))
	for i, doc := range raw {
		g, err := graph.Decode(doc)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("graphs[%d]: %s", i, err))
			return
		}
		graphs = append(graphs, g)
	}

	res, err := h.eng.TransformBatch(r.Context(), graphs)
	switch {
	case errors.Is(err, engine.ErrBatchEmpty), errors.Is(err, engine.ErrBatchTooLarge):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	if res.Rejected == res.Total {
		writeJSON(w, http.StatusTooManyRequests, res)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// POST /v1/status/count — roll up a flat node list.
func (h *Handler) countStatus(w http.ResponseWriter, r *http.Request) {
	body, ok := h.readBody(w, r)
	if !ok {
		return
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %s", err))
		return
	}
	nodes, err := pipeline.DecodeNodes(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, pipeline.CountByStatus(nodes))
}

// GET /v1/icons — the icon table currently in use.
func (h *Handler) listIcons(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.eng.Icons().Snapshot())
}

// POST /v1/config/reload — re-read the config file. A successful reload
// reaches the engine through the loader's change callbacks.
func (h *Handler) reloadConfig(w http.ResponseWriter, r *http.Request) {
	if h.loader == nil {
		writeError(w, http.StatusConflict, "no config file loaded")
		return
	}
	cfg, err := h.loader.Reload()
	switch {
	case errors.Is(err, config.ErrInvalid):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	slog.Info("config reloaded via API", "path", h.loader.Path())
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"reloaded":       true,
		"icon_overrides": len(cfg.Icons.Overrides),
	})
}

// GET /healthz — always 200 (liveness).
func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GET /readyz — 503 if the batch queue is >80% full.
func (h *Handler) readyz(w http.ResponseWriter, r *http.Request) {
	util := h.eng.QueueUtilization()
	metrics.QueueUtilization.Set(util)
	if util > 0.8 {
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":            "overloaded",
			"queue_utilization": util,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":            "ready",
		"queue_utilization": util,
	})
}
