package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"tsetmc-pusher/src/interfaces"
	"tsetmc-pusher/src/logger"
	"tsetmc-pusher/src/models"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const shutdownTimeout = 5 * time.Second

// -----------------------------------------------------------------------------
// PusherServer
// -----------------------------------------------------------------------------

// PusherServer is the subscription gateway. It serves websocket subscribers
// and a small REST surface for the duration of one trading session.
type PusherServer struct {
	Config     *models.MConfig
	Logger     *logger.Logger
	Repository interfaces.IInstrumentReader
	engine     *gin.Engine

	// Hub state, owned by the hub goroutine
	clients    map[*Client]struct{}
	broadcast  chan []models.MChange
	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	// Channel table, ISIN -> subscriber sets
	channels   map[string]*InstrumentChannel
	channelsMu sync.Mutex

	connections atomic.Int64
	running     atomic.Bool
	writeWait   time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
}

// -----------------------------------------------------------------------------
// Constructor
// -----------------------------------------------------------------------------

func NewPusherServer(cfg *models.MConfig, repo interfaces.IInstrumentReader, logger *logger.Logger) *PusherServer {
	// Set Gin mode
	if cfg.LogLevel != "DEBUG" {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &PusherServer{
		Config:     cfg,
		Logger:     logger,
		Repository: repo,
		engine:     gin.New(),
		clients:    make(map[*Client]struct{}),
		// Buffered queue so merges never wait on the hub
		broadcast:  make(chan []models.MChange, cfg.Gateway.BroadcastBufferSize),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		channels:   make(map[string]*InstrumentChannel),
		writeWait:  time.Duration(cfg.Gateway.WriteWaitMs) * time.Millisecond,
	}

	s.engine.Use(gin.Recovery())

	// Add CORS Middleware
	s.engine.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept, Origin, Cache-Control")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
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

func (s *PusherServer) setupRoutes() {
	// REST API endpoints
	s.engine.GET("/api/health", s.getHealth)
	s.engine.GET("/api/instruments/:isin", s.getInstrument)
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// WebSocket endpoints; clients historically dial the bare host
	s.engine.GET("/", s.handleWebSocket)
	s.engine.GET("/ws", s.handleWebSocket)
}

// Handler exposes the routes, mostly for tests.
func (s *PusherServer) Handler() http.Handler {
	return s.engine
}

// -----------------------------------------------------------------------------
// Server Lifecycle
// -----------------------------------------------------------------------------

// Start listens on the configured address and serves until ctx is done or
// Stop is called.
func (s *PusherServer) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.Config.Host, s.Config.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// -----------------------------------------------------------------------------

// Serve runs the hub and the HTTP server on ln. When ctx ends, every open
// connection is closed and Serve returns. A server serves a single session.
func (s *PusherServer) Serve(parentCtx context.Context, ln net.Listener) error {
	if !s.running.CompareAndSwap(false, true) {
		ln.Close()
		return errors.New("server is already running")
	}

	ctx, cancel := context.WithCancel(parentCtx)
	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()
	defer cancel()

	hubDone := make(chan struct{})
	go func() {
		defer close(hubDone)
		s.handleWebsockets(ctx)
	}()

	httpServer := &http.Server{Handler: s.engine}
	serveErr := make(chan error, 1)
	go func() {
		s.Logger.Info("Serving has started on %s", ln.Addr())
		serveErr <- httpServer.Serve(ln)
	}()

	var err error
	select {
	case <-ctx.Done():
	case err = <-serveErr:
		cancel()
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stop()
	if shutdownErr := httpServer.Shutdown(shutdownCtx); shutdownErr != nil {
		s.Logger.Warning("HTTP shutdown: %v", shutdownErr)
	}
	<-hubDone

	s.Logger.Info("Serving has ended.")
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// -----------------------------------------------------------------------------

func (s *PusherServer) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}
	return nil
}

// serving reports whether the hub is accepting subscribers.
func (s *PusherServer) serving() bool {
	if !s.running.Load() {
		return false
	}
	select {
	case <-s.done:
		return false
	default:
		return true
	}
}

// -----------------------------------------------------------------------------
// Route Handlers
// -----------------------------------------------------------------------------

func (s *PusherServer) getHealth(c *gin.Context) {
	s.channelsMu.Lock()
	channels := len(s.channels)
	s.channelsMu.Unlock()

	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"connections": s.connections.Load(),
		"instruments": s.Repository.Len(),
		"channels":    channels,
		"serving":     s.serving(),
	})
}

// -----------------------------------------------------------------------------

func (s *PusherServer) getInstrument(c *gin.Context) {
	isin := strings.ToUpper(c.Param("isin"))
	if len(isin) != models.ISINLength {
		c.JSON(http.StatusBadRequest, gin.H{"error": "isin must be 12 characters"})
		return
	}

	inst, ok := s.Repository.GetInstrument(isin)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "instrument not found"})
		return
	}

	c.JSON(http.StatusOK, SnapshotMessage{isin: InstrumentSnapshot(inst, models.AllTopics)})
}
