// Package api exposes the read-only HTTP surface: projection queries,
// health probes and Prometheus metrics.
package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"NFTProjector/internal/observability"
	"NFTProjector/internal/query"
	"NFTProjector/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

type Server struct {
	engine  *gin.Engine
	svc     *query.Service
	metrics *observability.Metrics
	log     zerolog.Logger
	srv     *http.Server
}

func NewServer(svc *query.Service, health *observability.HealthChecker, registry *prometheus.Registry, metrics *observability.Metrics, log zerolog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{
		engine:  engine,
		svc:     svc,
		metrics: metrics,
		log:     log,
	}

	engine.GET("/healthz", gin.WrapF(health.LivenessHandler))
	engine.GET("/readyz", gin.WrapF(health.ReadinessHandler))
	engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	v1 := engine.Group("/v1")
	v1.GET("/tokens/:contract_id/:token_id", s.instrumented("token", s.getToken))
	v1.GET("/tokens", s.instrumented("tokens_by_owner", s.listTokensByOwner))
	v1.GET("/series/:contract_id/:series_id", s.instrumented("series", s.getSeries))
	v1.GET("/activities", s.instrumented("activities", s.listActivities))

	return s
}

// Handler exposes the router for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx ends, then drains with a short grace period.
func (s *Server) Run(ctx context.Context, addr string) error {
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.srv.ListenAndServe()
	}()
	s.log.Info().Str("addr", addr).Msg("http server listening")

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) instrumented(route string, h gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		h(c)
		if s.metrics != nil {
			status := strconv.Itoa(c.Writer.Status())
			s.metrics.QueryRequests.WithLabelValues(route, status).Inc()
			s.metrics.QueryDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
		}
	}
}

func (s *Server) getToken(c *gin.Context) {
	v, err := s.svc.Token(c.Request.Context(), c.Param("contract_id"), c.Param("token_id"))
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

func (s *Server) listTokensByOwner(c *gin.Context) {
	owner := c.Query("owner_id")
	if owner == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "owner_id is required"})
		return
	}

	vs, err := s.svc.TokensByOwner(c.Request.Context(), owner, pageFrom(c))
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": vs})
}

func (s *Server) getSeries(c *gin.Context) {
	v, err := s.svc.Series(c.Request.Context(), c.Param("contract_id"), c.Param("series_id"))
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

func (s *Server) listActivities(c *gin.Context) {
	f := query.ActivityFilter{
		ContractID: c.Query("contract_id"),
		SeriesID:   c.Query("series_id"),
		TokenID:    c.Query("token_id"),
	}
	if f.ContractID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "contract_id is required"})
		return
	}

	vs, err := s.svc.Activities(c.Request.Context(), f, pageFrom(c))
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": vs})
}

func (s *Server) renderError(c *gin.Context, err error) {
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	s.log.Error().Err(err).Str("path", c.FullPath()).Msg("query failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}

func pageFrom(c *gin.Context) query.Page {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	return query.Page{Limit: limit, Offset: offset}
}
