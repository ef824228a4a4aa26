// Package api exposes the HTTP control surface: status and history
// queries, JWT-protected start/stop control, and a websocket stream of
// domain events.
package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"oscbot/advisor"
	"oscbot/logger"
	"oscbot/manager"
	"oscbot/store"
)

// Server HTTP API server.
type Server struct {
	router     *gin.Engine
	manager    *manager.Manager
	trades     *store.TradeStore
	adv        *advisor.Advisor
	hub        *Hub
	httpServer *http.Server
	port       int

	jwtSecret    string
	passwordHash string
}

// NewServer creates the API server. The hub is created by the caller
// so it can be registered as an event sink before the bots exist.
// trades and adv may be nil; the corresponding endpoints degrade
// gracefully.
func NewServer(m *manager.Manager, trades *store.TradeStore, adv *advisor.Advisor, hub *Hub, port int, jwtSecret, passwordHash string) *Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.Default()
	router.Use(corsMiddleware())

	s := &Server{
		router:       router,
		manager:      m,
		trades:       trades,
		adv:          adv,
		hub:          hub,
		port:         port,
		jwtSecret:    jwtSecret,
		passwordHash: passwordHash,
	}
	s.setupRoutes()
	return s
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusOK)
			return
		}

		c.Next()
	}
}

func (s *Server) setupRoutes() {
	api := s.router.Group("/api")
	{
		api.Any("/health", s.handleHealth)
		api.POST("/login", s.handleLogin)

		api.GET("/status", s.handleStatus)
		api.GET("/stats", s.handleStats)
		api.GET("/trades/recent", s.handleRecentTrades)

		protected := api.Group("/", s.authMiddleware())
		{
			protected.POST("/bot/start", s.handleStart)
			protected.POST("/bot/stop", s.handleStop)
			protected.POST("/bot/thresholds", s.handleUpdateThresholds)
		}
	}

	s.router.GET("/ws", s.hub.HandleWS)
}

// Start runs the HTTP server in the background.
func (s *Server) Start() {
	s.httpServer = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.port),
		Handler: s.router,
	}
	go func() {
		logger.Infof("[API] listening on :%d", s.port)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Errorf("[API] server error: %v", err)
		}
	}()
}

// Stop shuts the HTTP server down, waiting up to 5s for in-flight
// requests.
func (s *Server) Stop() {
	if s.httpServer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		logger.Warnf("[API] shutdown: %v", err)
	}
	s.hub.Close()
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().UTC()})
}

func (s *Server) handleStatus(c *gin.Context) {
	resp := gin.H{"bots": s.manager.Statuses()}
	if s.adv != nil {
		resp["advisor"] = s.adv.GetStatus()
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleStats(c *gin.Context) {
	if s.trades == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "trade history disabled"})
		return
	}
	summary, err := s.trades.Summarize(c.Query("symbol"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (s *Server) handleRecentTrades(c *gin.Context) {
	if s.trades == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "trade history disabled"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	trades, err := s.trades.Recent(c.Query("symbol"), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if trades == nil {
		trades = []store.Trade{}
	}
	c.JSON(http.StatusOK, gin.H{"trades": trades})
}

// handleStart starts one bot (?symbol=BTC/USDT) or all bots.
func (s *Server) handleStart(c *gin.Context) {
	if symbol := c.Query("symbol"); symbol != "" {
		b, ok := s.manager.Get(symbol)
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown symbol"})
			return
		}
		b.Start()
		c.JSON(http.StatusOK, gin.H{"status": "started", "symbol": symbol})
		return
	}
	s.manager.StartAll()
	c.JSON(http.StatusOK, gin.H{"status": "started"})
}

type thresholdsRequest struct {
	Symbol        string  `json:"symbol"` // empty applies to all bots
	BuyThreshold  float64 `json:"buy_threshold" binding:"required"`
	SellThreshold float64 `json:"sell_threshold" binding:"required"`
}

// handleUpdateThresholds queues new grid spacing; the loop applies it
// on its next tick.
func (s *Server) handleUpdateThresholds(c *gin.Context) {
	var req thresholdsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "buy_threshold and sell_threshold required"})
		return
	}
	if err := s.manager.UpdateThresholds(req.Symbol, req.BuyThreshold, req.SellThreshold); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":         "queued",
		"buy_threshold":  req.BuyThreshold,
		"sell_threshold": req.SellThreshold,
	})
}

// handleStop stops one bot or all bots. The in-flight tick completes
// before the call returns.
func (s *Server) handleStop(c *gin.Context) {
	if symbol := c.Query("symbol"); symbol != "" {
		b, ok := s.manager.Get(symbol)
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown symbol"})
			return
		}
		b.Stop()
		c.JSON(http.StatusOK, gin.H{"status": "stopped", "symbol": symbol})
		return
	}
	s.manager.StopAll()
	c.JSON(http.StatusOK, gin.H{"status": "stopped"})
}
