// Package api is the thin, read-only HTTP surface external dashboards poll:
// ticks, candles, hybrid analyses, and per-simulation status and positions.
// None of its handlers mutate core state — gin with CORS and recovery
// middleware, no auth, no rate limiting.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sezginpak/gold-price-analyzer-sub001/internal/logging"
	"github.com/sezginpak/gold-price-analyzer-sub001/internal/model"
	"github.com/sezginpak/gold-price-analyzer-sub001/internal/tickstore"
)

// AnalysisReader is the read side of the orchestrator this server depends
// on, narrowed the same way the simulation engine's Analyses interface is.
type AnalysisReader interface {
	Latest(ctx context.Context, t model.Interval) (*model.HybridAnalysisResult, bool)
}

// AnalysisHistoryReader is the durable store's read side for paged hybrid
// analysis history; nil when no durable store is configured, in which case
// hybrid_analysis_history always returns an empty page.
type AnalysisHistoryReader interface {
	HybridAnalysisHistory(ctx context.Context, timeframe model.Interval, page, perPage int) ([]*model.HybridAnalysisResult, error)
}

// SimulationReader is the simulation engine's read side: in-memory status
// and open positions for ACTIVE simulations.
type SimulationReader interface {
	Status(simulationID string) (*model.Simulation, bool)
	OpenPositions(simulationID string) []*model.SimulationPosition
}

// ClosedPositionReader is the durable store's read side for a simulation's
// closed position history; nil when no durable store is configured.
type ClosedPositionReader interface {
	ClosedPositions(ctx context.Context, simulationID string, limit int) ([]*model.SimulationPosition, error)
}

// Config holds the server's network settings.
type Config struct {
	Port            int
	Host            string
	AllowedOrigins  string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// Server wires the gin router to the tick store, orchestrator, simulation
// engine, and durable store read paths.
type Server struct {
	router     *gin.Engine
	httpServer *http.Server
	config     Config
	log        *logging.Logger

	ticks       *tickstore.Store
	analyses    AnalysisReader
	history     AnalysisHistoryReader
	simulations SimulationReader
	closed      ClosedPositionReader
}

// NewServer builds a Server and registers its routes. history and closed
// may be nil when no durable store backs this run; the corresponding
// endpoints then degrade to empty pages rather than failing.
func NewServer(config Config, ticks *tickstore.Store, analyses AnalysisReader, history AnalysisHistoryReader, simulations SimulationReader, closed ClosedPositionReader) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(requestLoggingMiddleware())

	corsConfig := cors.DefaultConfig()
	if config.AllowedOrigins == "" || config.AllowedOrigins == "*" {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = []string{config.AllowedOrigins}
	}
	corsConfig.AllowMethods = []string{"GET", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type"}
	router.Use(cors.New(corsConfig))

	s := &Server{
		router:      router,
		config:      config,
		log:         logging.WithComponent("api"),
		ticks:       ticks,
		analyses:    analyses,
		history:     history,
		simulations: simulations,
		closed:      closed,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)

	priceGroup := s.router.Group("/api/price")
	{
		priceGroup.GET("/latest", s.handleLatestTick)
		priceGroup.GET("/ticks", s.handleLatestTicks)
		priceGroup.GET("/candles", s.handleCandles)
		priceGroup.GET("/gram-candles", s.handleGramCandles)
	}

	analysisGroup := s.router.Group("/api/analysis")
	{
		analysisGroup.GET("/latest", s.handleLatestHybridAnalysis)
		analysisGroup.GET("/history", s.handleHybridAnalysisHistory)
	}

	simGroup := s.router.Group("/api/simulations/:id")
	{
		simGroup.GET("/status", s.handleSimulationStatus)
		simGroup.GET("/positions/open", s.handleOpenPositions)
		simGroup.GET("/positions/closed", s.handleClosedPositions)
	}
}

// Start runs the HTTP server until it is shut down; split from Shutdown so
// main can call Shutdown from a signal handler.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  orDefault(s.config.ReadTimeout, 15*time.Second),
		WriteTimeout: orDefault(s.config.WriteTimeout, 15*time.Second),
		IdleTimeout:  60 * time.Second,
	}
	s.log.Info("starting read api server", "addr", addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start api server: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	s.log.Info("shutting down read api server")
	return s.httpServer.Shutdown(ctx)
}

// requestLoggingMiddleware logs one structured line per request with the
// final status code, using the shared domain-context constructor rather
// than ad-hoc fields so a request's log line matches the shape every other
// APIContext caller produces.
func requestLoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		logging.APIContext(c.Request.Method, c.Request.URL.Path, c.Writer.Status()).Debug("request handled")
	}
}

func orDefault(d, fallback time.Duration) time.Duration {
	if d <= 0 {
		return fallback
	}
	return d
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "time": time.Now().UTC().Format(time.RFC3339)})
}

func successResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{"success": true, "data": data})
}

func errorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, gin.H{"success": false, "error": message})
}
