package api

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"papertrade/backtest"
	"papertrade/broker"
	"papertrade/cache"
	"papertrade/fetcher"
)

// Deps 服務依賴
type Deps struct {
	Cache   *cache.Cache
	Broker  *broker.PaperBroker
	Quotes  *fetcher.QuoteFetcher
	History backtest.BarSource
	Persist func() error // 交易後存檔
	User    string

	// Mu serializes all broker access; quote sync and the bot share the
	// same account.
	Mu *sync.Mutex
}

// Server HTTP伺服器
type Server struct {
	engine *gin.Engine
	server *http.Server
}

// NewServer 建立伺服器
func NewServer(deps Deps, port int) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(corsMiddleware())
	engine.Use(loggerMiddleware())

	s := &Server{
		engine: engine,
		server: &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: engine,
		},
	}

	s.setupRoutes(deps)
	return s
}

// setupRoutes 設定路由
func (s *Server) setupRoutes(deps Deps) {
	handler := NewHandler(deps)

	api := s.engine.Group("/api")
	{
		// 帳戶相關
		api.GET("/account", handler.GetAccount)
		api.GET("/positions", handler.GetPositions)
		api.GET("/history", handler.GetHistory)

		// 下單
		api.POST("/trade/buy", handler.Buy)
		api.POST("/trade/sell", handler.Sell)

		// 行情
		api.GET("/quote/:symbol", handler.GetQuote)
		api.GET("/kline/:symbol", handler.GetKline)

		// 回測與策略
		api.POST("/backtest", handler.RunBacktest)
		api.GET("/strategies", handler.GetStrategies)

		// 服務狀態
		api.GET("/status", handler.GetStatus)
	}

	// 健康檢查
	s.engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}

// Start 啟動伺服器
func (s *Server) Start() error {
	log.Printf("[API] 服務啟動在 http://localhost%s\n", s.server.Addr)
	log.Println("[API] 可用介面:")
	log.Println("  GET  /api/account         - 帳戶總覽")
	log.Println("  GET  /api/positions       - 持倉明細")
	log.Println("  GET  /api/history         - 成交紀錄")
	log.Println("  POST /api/trade/buy       - 買進/回補")
	log.Println("  POST /api/trade/sell      - 賣出/融券")
	log.Println("  GET  /api/quote/:symbol   - 即時報價")
	log.Println("  GET  /api/kline/:symbol   - 日K線")
	log.Println("  POST /api/backtest        - 策略回測")
	log.Println("  GET  /api/strategies      - 策略清單")
	log.Println("  GET  /api/status          - 服務狀態")

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown 優雅關閉伺服器
func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

// loggerMiddleware 日誌中介層
func loggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		log.Printf("[API] %s %s %d %v\n", c.Request.Method, path, status, latency)
	}
}

// corsMiddleware CORS中介層
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
