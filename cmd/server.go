package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/painpoint-cli/internal/model"
	"github.com/sells-group/painpoint-cli/internal/monitoring"
	"github.com/sells-group/painpoint-cli/internal/pipeline"
	"github.com/sells-group/painpoint-cli/internal/store"
)

const (
	defaultRunsPageSize = 20
	maxRunsPageSize     = 200
)

// apiServer exposes the pipeline and run history over HTTP.
type apiServer struct {
	pipeline *pipeline.Pipeline
	store    store.Store // nil when run history is disabled
	stats    *monitoring.Collector
	origins  []string

	// baseCtx outlives individual requests; background runs use it.
	baseCtx context.Context
}

func newAPIServer(ctx context.Context, p *pipeline.Pipeline, st store.Store, origins []string) *apiServer {
	s := &apiServer{pipeline: p, store: st, origins: origins, baseCtx: ctx}
	if st != nil {
		s.stats = monitoring.NewCollector(st)
	}
	return s
}

func (s *apiServer) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	origins := s.origins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Origin", "Content-Type", "Accept"},
		MaxAge:         3600,
	}))

	r.Get("/health", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/aggregate", s.handleAggregate)
		r.Post("/runs", s.handleCreateRun)
		r.Get("/runs", s.handleListRuns)
		r.Get("/runs/{id}", s.handleGetRun)
		r.Get("/stats", s.handleStats)
	})
	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		fields := []zap.Field{
			zap.String("method", r.Method),
			zap.String("uri", r.URL.RequestURI()),
			zap.Int("status", ww.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("remote_ip", r.RemoteAddr),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		}
		if ww.Status() >= http.StatusInternalServerError {
			zap.L().Error("http request failed", fields...)
			return
		}
		zap.L().Info("http request", fields...)
	})
}

func (s *apiServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{"status": "ok", "store": "disabled"}
	if s.store != nil {
		if err := s.store.Ping(r.Context()); err != nil {
			zap.L().Warn("health: store ping failed", zap.Error(err))
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "unavailable", "store": "unreachable"})
			return
		}
		resp["store"] = "ok"
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *apiServer) handleAggregate(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeBody(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.pipeline.Aggregate(req))
}

// handleCreateRun queues the run in the background when a store is
// configured, unless ?wait=true asks for the result inline.
func (s *apiServer) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeBody(w, r)
	if !ok {
		return
	}

	wait, _ := strconv.ParseBool(r.URL.Query().Get("wait"))
	if s.store != nil && !wait {
		run, err := s.pipeline.Submit(s.baseCtx, req)
		if err != nil {
			zap.L().Error("submit run failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to queue run")
			return
		}
		writeJSON(w, http.StatusAccepted, run)
		return
	}

	result, err := s.pipeline.Run(r.Context(), req)
	if err != nil {
		zap.L().Error("run failed", zap.String("topic", req.Topic), zap.Error(err))
		if result != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{"error": err.Error(), "result": result})
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *apiServer) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, "run history is disabled")
		return
	}

	q := r.URL.Query()
	limit, err := parsePositiveInt(q.Get("limit"), defaultRunsPageSize, 1, maxRunsPageSize)
	if err != nil {
		writeError(w, http.StatusBadRequest, "limit "+err.Error())
		return
	}
	offset, err := parsePositiveInt(q.Get("offset"), 0, 0, 1_000_000)
	if err != nil {
		writeError(w, http.StatusBadRequest, "offset "+err.Error())
		return
	}

	runs, err := s.store.ListRuns(r.Context(), store.RunFilter{
		Status: model.RunStatus(strings.TrimSpace(q.Get("status"))),
		Topic:  strings.TrimSpace(q.Get("topic")),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		zap.L().Error("list runs failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list runs")
		return
	}
	if runs == nil {
		runs = []model.Run{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": runs, "limit": limit, "offset": offset})
}

func (s *apiServer) handleGetRun(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, "run history is disabled")
		return
	}

	run, err := s.store.GetRun(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}
	if err != nil {
		zap.L().Error("get run failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load run")
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (s *apiServer) handleStats(w http.ResponseWriter, r *http.Request) {
	if s.stats == nil {
		writeError(w, http.StatusServiceUnavailable, "run history is disabled")
		return
	}

	hours, err := parsePositiveInt(r.URL.Query().Get("hours"), 24, 1, 24*90)
	if err != nil {
		writeError(w, http.StatusBadRequest, "hours "+err.Error())
		return
	}
	snap, err := s.stats.Collect(r.Context(), hours)
	if err != nil {
		zap.L().Error("collect stats failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to collect stats")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func decodeBody(w http.ResponseWriter, r *http.Request) (pipeline.Request, bool) {
	req, err := decodeRequest(http.MaxBytesReader(w, r.Body, maxInputBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return pipeline.Request{}, false
	}
	return req, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("encode response failed", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func parsePositiveInt(raw string, defaultValue, minValue, maxValue int) (int, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return defaultValue, nil
	}

	value, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, eris.New("must be an integer")
	}
	if value < minValue || value > maxValue {
		return 0, eris.Errorf("must be between %d and %d", minValue, maxValue)
	}
	return value, nil
}
