// Package httpapi exposes the risk engine over HTTP.
package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/sentinel-oversight/sentinel/internal/application/handlers"
	"github.com/sentinel-oversight/sentinel/internal/domain/entities"
)

// RequestTimeout bounds every request, including JSON encoding.
const RequestTimeout = 60 * time.Second

// Server serves the REST API for dashboards and investigators.
type Server struct {
	risk    *handlers.RiskHandler
	graph   *handlers.GraphHandler
	logger  *zap.Logger
	origins []string
}

// New creates a server. allowedOrigins lists the origins granted CORS access.
func New(risk *handlers.RiskHandler, graph *handlers.GraphHandler, logger *zap.Logger, allowedOrigins []string) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{risk: risk, graph: graph, logger: logger, origins: allowedOrigins}
}

// Routes returns a chi.Router with every endpoint mounted.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(cors(s.origins))
	r.Use(middleware.Timeout(RequestTimeout))

	r.Get("/healthz", s.getHealthz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/stats", s.getStats)

		r.Get("/tenders", s.listTenders)
		r.Get("/tenders/{id}", s.getTender)
		r.Get("/tenders/{id}/graph", s.getTenderGraph)

		r.Get("/graph/explore", s.exploreGraph)
		r.Get("/graph/cartels", s.listCartels)

		r.Get("/companies/{id}", s.getCompany)

		r.Post("/snapshot/refresh", s.refreshSnapshot)
	})

	return r
}

func (s *Server) getHealthz(w http.ResponseWriter, _ *http.Request) {
	info, err := s.risk.HandleInfo()
	if err != nil {
		s.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "no snapshot"})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "snapshot": info})
}

func (s *Server) getStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.risk.HandleStats(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, stats)
}

func (s *Server) listTenders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, err := intParam(q.Get("limit"), "limit")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	result, err := s.risk.HandleList(r.Context(), handlers.ListOptions{
		RiskLevel: q.Get("risk_level"),
		Status:    q.Get("status"),
		SortBy:    q.Get("sort_by"),
		Limit:     limit,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) getTender(w http.ResponseWriter, r *http.Request) {
	detail, err := s.risk.HandleTender(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, detail)
}

func (s *Server) getTenderGraph(w http.ResponseWriter, r *http.Request) {
	depth, err := intParam(r.URL.Query().Get("depth"), "depth")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	data, err := s.graph.HandleExport(r.Context(), handlers.ExportOptions{
		TenderID: chi.URLParam(r, "id"),
		Depth:    depth,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, data)
}

func (s *Server) exploreGraph(w http.ResponseWriter, r *http.Request) {
	data, err := s.graph.HandleExport(r.Context(), handlers.ExportOptions{})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, data)
}

func (s *Server) listCartels(w http.ResponseWriter, r *http.Request) {
	result, err := s.graph.HandleCartels(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) getCompany(w http.ResponseWriter, r *http.Request) {
	detail, err := s.risk.HandleCompany(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, detail)
}

func (s *Server) refreshSnapshot(w http.ResponseWriter, r *http.Request) {
	info, err := s.risk.HandleRefresh(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger.Info("snapshot refreshed via api",
		zap.String("version", info.Version),
		zap.String("request_id", middleware.GetReqID(r.Context())))
	s.writeJSON(w, http.StatusOK, info)
}

// intParam parses an optional integer query parameter; empty means zero.
func intParam(raw, name string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &entities.ValidationError{Entity: "query", Field: name, Message: "must be an integer"}
	}
	return n, nil
}
