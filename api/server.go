package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"gridsense/config"
	"gridsense/models"
	"gridsense/services"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server exposes the engine's canonical state to the view layer. It is the
// only outbound interface: a snapshot per request, no push channel.
type Server struct {
	cfg        *config.Config
	agg        *services.Aggregator
	controller *services.Controller
	engine     *gin.Engine
}

// New constructs a server with routes and middleware.
func New(cfg *config.Config, agg *services.Aggregator, controller *services.Controller) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(corsMiddleware())

	server := &Server{cfg: cfg, agg: agg, controller: controller, engine: engine}
	server.registerRoutes()
	return server
}

// Engine exposes the underlying gin engine (for tests).
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Run starts the HTTP server and blocks until shutdown.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.cfg.ListenAddr,
		Handler: s.engine,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) registerRoutes() {
	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	s.engine.GET("/api/state", s.handleState)
	s.engine.GET("/api/state/summary", s.handleStateSummary)
	s.engine.POST("/api/devices/:device_id/control/:action", s.handleControl)
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func (s *Server) handleState(c *gin.Context) {
	c.JSON(http.StatusOK, s.agg.Snapshot())
}

func (s *Server) handleStateSummary(c *gin.Context) {
	snap := s.agg.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"system_status":     snap.SystemStatus,
		"total_current":     snap.TotalCurrent,
		"total_power":       snap.TotalPower,
		"avg_voltage":       snap.AvgVoltage,
		"estimated_cost":    snap.EstimatedCost,
		"device_count":      len(snap.Devices),
		"pathway_active":    snap.PathwayActive,
		"last_telemetry_at": snap.LastTelemetryAt,
	})
}

func (s *Server) handleControl(c *gin.Context) {
	deviceID := c.Param("device_id")
	if deviceID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "device_id is required"})
		return
	}

	action := models.ControlAction(c.Param("action"))
	if !action.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "action must be on or off"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
	defer cancel()

	resp, err := s.controller.Control(ctx, deviceID, action)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, resp)
}
