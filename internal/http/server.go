// Package http exposes the tracker over a JSON API plus an SSE stream
// mirroring the live aggregation feed.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/Jexxy1517/CashFlowReportApp/internal/aggregate"
	"github.com/Jexxy1517/CashFlowReportApp/internal/cache"
	"github.com/Jexxy1517/CashFlowReportApp/internal/log"
	"github.com/Jexxy1517/CashFlowReportApp/internal/report"
	"github.com/Jexxy1517/CashFlowReportApp/internal/scope"
	"github.com/Jexxy1517/CashFlowReportApp/internal/service"
)

type Server struct {
	http.Server

	tracker  *service.Tracker
	engine   *aggregate.Engine
	resolver *scope.Resolver
	exporter report.Exporter
	recap    *report.RecapSheet
	loc      *time.Location
	logger   *log.Logger

	limiter *rateLimiter

	// Rendered chart PNGs; purged whenever the engine publishes a new
	// snapshot, since every render is derived from it.
	chartCache  *cache.LRU[[]byte]
	unsubscribe func()

	shutdownOnce sync.Once
}

// Options carries the optional collaborators; nil fields disable the
// corresponding endpoints.
type Options struct {
	Exporter   report.Exporter
	RecapSheet *report.RecapSheet
	Location   *time.Location
}

func NewServer(addr string, tracker *service.Tracker, engine *aggregate.Engine, resolver *scope.Resolver, opts Options, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(log.Config{})
	}
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}

	mux := http.NewServeMux()
	s := &Server{
		Server: http.Server{
			Addr:              addr,
			Handler:           log.Middleware(logger)(mux),
			ReadHeaderTimeout: 5 * time.Second,
		},
		tracker:    tracker,
		engine:     engine,
		resolver:   resolver,
		exporter:   opts.Exporter,
		recap:      opts.RecapSheet,
		loc:        loc,
		logger:     logger.WithComponent(log.ComponentHTTP),
		limiter:    newRateLimiter(60),
		chartCache: cache.NewLRU[[]byte](50, 5*time.Minute),
	}

	s.unsubscribe = engine.Subscribe(func(aggregate.Update) {
		s.chartCache.Purge()
	})

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("GET /api/summary", s.handleSummary)
	mux.HandleFunc("GET /api/stream", s.handleStream)
	mux.HandleFunc("POST /api/scope", s.withRateLimit(s.handleSelectScope))

	mux.HandleFunc("GET /api/transactions", s.handleListTransactions)
	mux.HandleFunc("POST /api/transactions", s.withRateLimit(s.handleCreateTransaction))
	mux.HandleFunc("PUT /api/transactions/{id}", s.withRateLimit(s.handleUpdateTransaction))
	mux.HandleFunc("DELETE /api/transactions/{id}", s.withRateLimit(s.handleDeleteTransaction))

	mux.HandleFunc("GET /api/groups", s.handleListGroups)
	mux.HandleFunc("POST /api/groups", s.withRateLimit(s.handleCreateGroup))
	mux.HandleFunc("POST /api/groups/{id}/members", s.withRateLimit(s.handleAddMember))

	mux.HandleFunc("GET /api/recap", s.handleRecap)
	mux.HandleFunc("GET /api/charts/categories.png", s.handleCategoryChart)
	mux.HandleFunc("GET /api/charts/recap.png", s.handleRecapChart)

	mux.HandleFunc("POST /api/export", s.withRateLimit(s.handleExport))
	mux.HandleFunc("POST /api/export/sheet", s.withRateLimit(s.handleExportSheet))

	return s
}

func (s *Server) withRateLimit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		if !s.limiter.allow(ip) {
			s.logger.WarnContext(r.Context(), "rate limit exceeded",
				log.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next(w, r)
	}
}

// Shutdown stops the HTTP server along with the limiter sweep and the
// engine subscription.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		if s.unsubscribe != nil {
			s.unsubscribe()
		}
		s.limiter.stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
