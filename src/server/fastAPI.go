package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"energy-forecast/src/cache"
	"energy-forecast/src/interfaces"
	"energy-forecast/src/logger"
	"energy-forecast/src/metrics"
	"energy-forecast/src/models"
	"energy-forecast/src/pipeline"
	"energy-forecast/src/utils"

	"github.com/gin-gonic/gin"
)

const shutdownTimeout = 5 * time.Second

// -----------------------------------------------------------------------------
// FastAPIServer
// -----------------------------------------------------------------------------

type FastAPIServer struct {
	Config    *models.MConfig
	Logger    *logger.Logger
	Proxy     *cache.Proxy
	Forecasts pipeline.Executor
	Store     interfaces.ICacheStore
	History   *utils.RunHistory
	Location  *time.Location

	engine     *gin.Engine
	httpServer *http.Server

	// Lifecycle context handed to websocket runs
	ctx    context.Context
	cancel context.CancelFunc

	// WebSocket clients, owned by the hub loop
	clients    map[*Client]struct{}
	clientsMu  sync.RWMutex
	broadcast  chan *models.MForecastSet
	register   chan *Client
	unregister chan *Client
	quit       chan struct{}
	hubOnce    sync.Once
	stopOnce   sync.Once
}

// -----------------------------------------------------------------------------
// Constructor
// -----------------------------------------------------------------------------

func NewFastAPIServer(cfg *models.MConfig, proxy *cache.Proxy, forecasts pipeline.Executor, store interfaces.ICacheStore, log *logger.Logger) *FastAPIServer {
	// Set Gin mode
	if cfg.LogLevel != "DEBUG" {
		gin.SetMode(gin.ReleaseMode)
	}

	loc := time.Local
	if cfg.Timezone != "" {
		if l, err := time.LoadLocation(cfg.Timezone); err == nil {
			loc = l
		}
	}

	ctx, cancel := context.WithCancel(context.Background())

	s := &FastAPIServer{
		Config:    cfg,
		Logger:    log,
		Proxy:     proxy,
		Forecasts: forecasts,
		Store:     store,
		Location:  loc,
		engine:    gin.New(),
		ctx:       ctx,
		cancel:    cancel,
		clients:   make(map[*Client]struct{}),
		// Buffered so a prewarm run never waits on the hub
		broadcast:  make(chan *models.MForecastSet, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		quit:       make(chan struct{}),
	}

	s.engine.Use(gin.Recovery(), s.requestLogger())

	// Add CORS Middleware
	s.engine.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if strings.HasPrefix(origin, "http://127.0.0.1:") || strings.HasPrefix(origin, "http://localhost:") {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Accept-Language, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "X-Cache, "+noDataHeader)
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// setup web routes
	s.setupRoutes()
	return s
}

// -----------------------------------------------------------------------------
// Route Setup
// -----------------------------------------------------------------------------

func (s *FastAPIServer) setupRoutes() {
	// Caching proxy, same path the browser client has always posted to
	s.engine.POST("/data.php", s.handleProxy)

	// REST API endpoints
	s.engine.GET("/api/forecast", s.getForecast)
	s.engine.GET("/api/forecast.xlsx", s.getForecastXLSX)
	s.engine.GET("/api/config", s.getConfig)
	s.engine.GET("/api/health", s.getHealth)
	s.engine.GET("/api/runs", s.getRuns)
	s.engine.GET("/metrics", gin.WrapH(metrics.Handler()))

	// WebSocket endpoint
	s.engine.GET("/ws", s.handleWebSocket)
}

// -----------------------------------------------------------------------------

func (s *FastAPIServer) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.Logger.Debug("%s %s -> %d (%v)", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start).Round(time.Microsecond))
	}
}

// Handler exposes the router, mainly for tests.
func (s *FastAPIServer) Handler() http.Handler {
	return s.engine
}

// -----------------------------------------------------------------------------
// Server Lifecycle
// -----------------------------------------------------------------------------

func (s *FastAPIServer) Start() error {
	addr := fmt.Sprintf("%s:%d", s.Config.Host, s.Config.Port)
	s.Logger.Info("Starting server on %s", addr)

	s.startHub()

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// -----------------------------------------------------------------------------

func (s *FastAPIServer) Stop() error {
	var err error
	s.stopOnce.Do(func() {
		s.cancel()
		if s.httpServer != nil {
			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			err = s.httpServer.Shutdown(ctx)
		}
		close(s.quit)
	})
	return err
}

// -----------------------------------------------------------------------------

// Connections returns the number of live websocket clients.
func (s *FastAPIServer) Connections() int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return len(s.clients)
}

// -----------------------------------------------------------------------------
// Route Handlers
// -----------------------------------------------------------------------------

func (s *FastAPIServer) getConfig(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"regions":        s.Config.Regions,
		"default_region": s.Config.DefaultRegion,
		"default_date":   s.today(),
		"timezone":       s.Location.String(),
	})
}

// -----------------------------------------------------------------------------

func (s *FastAPIServer) getHealth(c *gin.Context) {
	status := "ok"
	entries := -1
	if s.Store != nil {
		n, err := s.Store.Count(c.Request.Context())
		if err != nil {
			s.Logger.Warning("Cache count failed: %v", err)
			status = "degraded"
		} else {
			entries = n
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":        status,
		"connections":   s.Connections(),
		"cache_entries": entries,
	})
}

// -----------------------------------------------------------------------------

func (s *FastAPIServer) getRuns(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
		return
	}
	if s.History == nil {
		c.JSON(http.StatusOK, gin.H{"runs": []interface{}{}})
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": s.History.GetLatest(limit)})
}
