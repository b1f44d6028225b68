package main

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/gridsignal/loraplan/internal/config"
	"github.com/gridsignal/loraplan/internal/export"
	"github.com/gridsignal/loraplan/internal/model"
	"github.com/gridsignal/loraplan/internal/override"
	"github.com/gridsignal/loraplan/internal/planner"
	"github.com/gridsignal/loraplan/internal/store"
)

// apiServer holds the HTTP API state. planMu serializes plan runs so
// concurrent POST /api/plan requests cannot interleave saves.
type apiServer struct {
	store   store.Store
	cfg     *config.Config
	limiter *rate.Limiter
	planMu  sync.Mutex
}

// newRouter builds the chi router for the HTTP API.
func newRouter(st store.Store, c *config.Config) http.Handler {
	s := &apiServer{
		store:   st,
		cfg:     c,
		limiter: rate.NewLimiter(rate.Limit(c.Server.RatePerSec), c.Server.RateBurst),
	}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)
	r.Use(s.rateLimit)

	if len(c.Server.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: c.Server.CORSOrigins,
			AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
		}))
	}

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/gateway", s.handleGetGateway)
		r.Put("/gateway", s.handleSetGateway)

		r.Get("/nodes", s.handleListNodes)
		r.Post("/nodes", s.handleAddNode)
		r.Delete("/nodes/{name}", s.handleDeleteNode)

		r.Get("/overrides", s.handleListOverrides)
		r.Post("/overrides", s.handleAddOverride)
		r.Delete("/overrides", s.handleDeleteOverride)

		r.Post("/plan", s.handlePlan)
		r.Get("/plans", s.handleListPlans)
		r.Get("/plans/{id}", s.handleGetPlan)

		r.Get("/export/geojson", s.handleExportGeoJSON)
	})

	return r
}

func (s *apiServer) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		zap.L().Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
		)
	})
}

func (s *apiServer) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow() {
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *apiServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *apiServer) handleGetGateway(w http.ResponseWriter, r *http.Request) {
	gw, err := s.store.GetGateway(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if gw == nil {
		writeError(w, http.StatusNotFound, "no gateway configured")
		return
	}
	writeJSON(w, http.StatusOK, gw)
}

func (s *apiServer) handleSetGateway(w http.ResponseWriter, r *http.Request) {
	var coord model.Coordinate
	if err := json.NewDecoder(r.Body).Decode(&coord); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.store.SetGateway(r.Context(), coord); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, model.Gateway{Coordinate: coord})
}

func (s *apiServer) handleListNodes(w http.ResponseWriter, r *http.Request) {
	nodes, err := s.store.ListNodes(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if nodes == nil {
		nodes = []model.Node{}
	}
	writeJSON(w, http.StatusOK, nodes)
}

type addNodeRequest struct {
	Name   string  `json:"name"`
	Lat    float64 `json:"lat"`
	Lon    float64 `json:"lon"`
	Direct *bool   `json:"direct_to_gateway,omitempty"`
}

func (s *apiServer) handleAddNode(w http.ResponseWriter, r *http.Request) {
	var req addNodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.Name == model.GatewayID {
		writeError(w, http.StatusBadRequest, "name is reserved")
		return
	}

	coord := model.Coordinate{Lat: req.Lat, Lon: req.Lon}

	direct := false
	if req.Direct != nil {
		direct = *req.Direct
	} else {
		state, err := store.LoadState(r.Context(), s.store)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		direct = planner.EvaluateNodeEligibility(req.Name, coord, state, s.cfg.Plan.Planner())
	}

	node := model.Node{Name: req.Name, Coordinate: coord, DirectToGateway: direct}
	if err := s.store.UpsertNode(r.Context(), node); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, node)
}

func (s *apiServer) handleDeleteNode(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	removed, err := s.store.DeleteNode(r.Context(), name)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !removed {
		writeError(w, http.StatusNotFound, "unknown node")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *apiServer) handleListOverrides(w http.ResponseWriter, r *http.Request) {
	pairs, err := s.store.ListOverrides(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if pairs == nil {
		pairs = []override.Pair{}
	}
	writeJSON(w, http.StatusOK, pairs)
}

type overrideRequest struct {
	A string `json:"a"`
	B string `json:"b"`
}

func (s *apiServer) handleAddOverride(w http.ResponseWriter, r *http.Request) {
	var req overrideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	state, err := store.LoadState(r.Context(), s.store)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := planner.ValidateOverride(state, req.A, req.B); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	pair := override.NewPair(req.A, req.B)
	if err := s.store.AddOverride(r.Context(), pair); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, pair)
}

func (s *apiServer) handleDeleteOverride(w http.ResponseWriter, r *http.Request) {
	var req overrideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	removed, err := s.store.RemoveOverride(r.Context(), override.NewPair(req.A, req.B))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !removed {
		writeError(w, http.StatusNotFound, "no such failed connection")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *apiServer) handlePlan(w http.ResponseWriter, r *http.Request) {
	s.planMu.Lock()
	defer s.planMu.Unlock()

	state, err := store.LoadState(r.Context(), s.store)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	result, planErr := planner.PlanNetwork(state, s.cfg.Plan.Planner())
	if planErr != nil && !planner.IsExhausted(planErr) {
		writeError(w, http.StatusBadRequest, planErr.Error())
		return
	}

	if err := s.store.SavePlan(r.Context(), result); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	// Exhaustion under the fail policy still saves and returns the
	// partial result; the outcome field tells the caller what happened.
	writeJSON(w, http.StatusCreated, result)
}

func (s *apiServer) handleListPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := s.store.ListPlans(r.Context(), 50)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if plans == nil {
		plans = []model.PlanResult{}
	}
	writeJSON(w, http.StatusOK, plans)
}

func (s *apiServer) handleGetPlan(w http.ResponseWriter, r *http.Request) {
	result, err := s.store.GetPlan(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if result == nil {
		writeError(w, http.StatusNotFound, "no such plan")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *apiServer) handleExportGeoJSON(w http.ResponseWriter, r *http.Request) {
	result, err := s.store.LatestPlan(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if result == nil {
		writeError(w, http.StatusNotFound, "no saved plans")
		return
	}

	data, err := export.GeoJSON(result)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
