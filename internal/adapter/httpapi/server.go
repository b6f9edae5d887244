// Package httpapi exposes the REST API, health probes, and metrics endpoint.
package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/samuelramdial/cumberland-storm-status/internal/domain"
	"github.com/samuelramdial/cumberland-storm-status/internal/service"
)

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// Server exposes the closures and debris-request API over HTTP.
type Server struct {
	httpServer *http.Server
	closures   *service.Closures
	requests   *service.Requests
	ready      ReadinessChecker
	logger     *slog.Logger
}

// NewServer creates the HTTP server and registers all routes.
func NewServer(addr string, closures *service.Closures, requests *service.Requests, ready ReadinessChecker, logger *slog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      router,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		closures: closures,
		requests: requests,
		ready:    ready,
		logger:   logger,
	}

	router.Use(corsMiddleware())

	router.GET("/healthz", s.handleHealth)
	router.GET("/readyz", s.handleReady)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	{
		api.GET("/closures", s.handleGetClosures)
		api.GET("/zones", s.handleGetZones)

		debris := api.Group("/debris-requests")
		{
			debris.GET("", s.handleListRequests)
			debris.POST("", s.handleCreateRequest)
			debris.GET("/:id/timeline", s.handleGetTimeline)
			debris.POST("/:id/updates", s.handleAppendUpdate)
			debris.PATCH("/:id/status", s.handleSetStatus)
			debris.DELETE("/:id", s.handleDeleteRequest)
		}
	}

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleReady(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := s.ready.CheckReadiness(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

// handleGetClosures serves the normalized closure list. county takes a name
// ("Wake", "Wake County"); countyId takes a directory ID and wins when both
// are present.
func (s *Server) handleGetClosures(c *gin.Context) {
	status := c.Query("status")

	var (
		closures []domain.RoadClosure
		err      error
	)
	if idStr := c.Query("countyId"); idStr != "" {
		id, convErr := strconv.Atoi(idStr)
		if convErr != nil || id <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "countyId must be a positive integer"})
			return
		}
		closures, err = s.closures.GetClosuresForCounty(c.Request.Context(), id, status)
	} else {
		closures, err = s.closures.GetClosures(c.Request.Context(), c.Query("county"), status)
	}
	if err != nil {
		s.logger.Error("get closures failed", "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "upstream feed unavailable"})
		return
	}

	if closures == nil {
		closures = []domain.RoadClosure{}
	}
	c.JSON(http.StatusOK, closures)
}

func (s *Server) handleGetZones(c *gin.Context) {
	zones, err := s.requests.Zones(c.Request.Context())
	if err != nil {
		s.logger.Error("list zones failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, zones)
}

type createRequestBody struct {
	FullName string   `json:"fullName" binding:"required"`
	Address  string   `json:"address" binding:"required"`
	Email    string   `json:"email"`
	Phone    string   `json:"phone"`
	ZoneID   *int     `json:"zoneId"`
	Priority int      `json:"priority"`
	Notes    string   `json:"notes"`
	Lat      *float64 `json:"lat"`
	Lng      *float64 `json:"lng"`
}

func (s *Server) handleCreateRequest(c *gin.Context) {
	var body createRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "fullName and address are required"})
		return
	}

	created, err := s.requests.Create(c.Request.Context(), domain.DebrisRequest{
		FullName: body.FullName,
		Address:  body.Address,
		Email:    body.Email,
		Phone:    body.Phone,
		ZoneID:   body.ZoneID,
		Priority: body.Priority,
		Notes:    body.Notes,
		Lat:      body.Lat,
		Lng:      body.Lng,
	})
	if err != nil {
		s.writeServiceError(c, err)
		return
	}

	c.Header("Location", "/api/debris-requests/"+strconv.Itoa(created.ID)+"/timeline")
	c.JSON(http.StatusCreated, created)
}

func (s *Server) handleListRequests(c *gin.Context) {
	requests, err := s.requests.List(c.Request.Context())
	if err != nil {
		s.writeServiceError(c, err)
		return
	}
	if requests == nil {
		requests = []domain.DebrisRequest{}
	}
	c.JSON(http.StatusOK, requests)
}

func (s *Server) handleGetTimeline(c *gin.Context) {
	id, ok := s.pathID(c)
	if !ok {
		return
	}

	timeline, err := s.requests.GetTimeline(c.Request.Context(), id)
	if err != nil {
		s.writeServiceError(c, err)
		return
	}
	if timeline.Updates == nil {
		timeline.Updates = []domain.RequestUpdate{}
	}
	c.JSON(http.StatusOK, timeline)
}

type appendUpdateBody struct {
	Note      string `json:"note" binding:"required"`
	CreatedBy string `json:"createdBy"`
}

func (s *Server) handleAppendUpdate(c *gin.Context) {
	id, ok := s.pathID(c)
	if !ok {
		return
	}

	var body appendUpdateBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "note is required"})
		return
	}

	update, err := s.requests.AppendUpdate(c.Request.Context(), id, body.Note, body.CreatedBy)
	if err != nil {
		s.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, update)
}

type setStatusBody struct {
	Status    string `json:"status" binding:"required"`
	ChangedBy string `json:"changedBy"`
}

func (s *Server) handleSetStatus(c *gin.Context) {
	id, ok := s.pathID(c)
	if !ok {
		return
	}

	var body setStatusBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status is required"})
		return
	}

	updated, err := s.requests.SetStatus(c.Request.Context(), id, body.Status, body.ChangedBy)
	if err != nil {
		s.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (s *Server) handleDeleteRequest(c *gin.Context) {
	id, ok := s.pathID(c)
	if !ok {
		return
	}

	if err := s.requests.Delete(c.Request.Context(), id); err != nil {
		s.writeServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) pathID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id must be a positive integer"})
		return 0, false
	}
	return id, true
}

func (s *Server) writeServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, domain.ErrInvalid):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		s.logger.Error("request failed", "error", err,
			"method", c.Request.Method, "path", c.Request.URL.Path)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
