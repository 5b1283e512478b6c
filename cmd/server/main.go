// Package main serves the chart feed and backtest API over HTTP: per-symbol
// candle/indicator series with trade markers, and on-demand suite runs.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ToonNaToon/backtesting-right-side-of-v/services/chartfeed"
	ch "github.com/ToonNaToon/backtesting-right-side-of-v/services/clickhouse"
	"github.com/ToonNaToon/backtesting-right-side-of-v/services/config"
	"github.com/ToonNaToon/backtesting-right-side-of-v/services/engine"
)

type server struct {
	backtester *engine.Backtester
	logger     *zap.Logger
}

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}
	loc, err := cfg.Location()
	if err != nil {
		logger.Fatal("resolve timezone", zap.Error(err))
	}

	store, err := ch.Open(ch.Options{
		Addr:     cfg.ClickHouse.Addr,
		Database: cfg.ClickHouse.Database,
		Table:    cfg.ClickHouse.Table,
		Username: cfg.ClickHouse.User,
		Password: cfg.ClickHouse.Password,
	}, loc)
	if err != nil {
		logger.Fatal("open bar store", zap.Error(err))
	}
	defer store.Close()

	bt := engine.NewBacktester(store, engine.DefaultParams(), logger)
	bt.Workers = cfg.Workers
	s := &server{backtester: bt, logger: logger}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins: cfg.Server.AllowOrigins,
		AllowMethods: []string{"GET", "POST"},
		AllowHeaders: []string{"Content-Type"},
		MaxAge:       12 * time.Hour,
	}))

	router.GET("/health", s.handleHealth)
	api := router.Group("/api/v1")
	{
		api.GET("/symbols", s.handleSymbols)
		api.GET("/data/:symbol", s.handleSymbolData)
		api.POST("/backtest", s.handleBacktest)
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}
	go func() {
		logger.Info("http server listening", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http serve", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}
}

func (s *server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "timestamp": time.Now().Unix()})
}

func (s *server) handleSymbols(c *gin.Context) {
	symbols, err := s.backtester.Source.Symbols(c.Request.Context())
	if err != nil {
		s.logger.Error("list symbols", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"symbols": symbols})
}

// handleSymbolData runs the strategy on the fly and returns the chart-feed
// payload: series, markers, trades, metrics.
func (s *server) handleSymbolData(c *gin.Context) {
	symbol := c.Param("symbol")
	from, err := parseDate(c.Query("from"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	to, err := parseDate(c.Query("to"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := s.backtester.RunSymbol(c.Request.Context(), symbol, from, to)
	if err != nil {
		s.logger.Error("symbol run failed", zap.String("symbol", symbol), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	// Missing data is a valid engine outcome but a 404 at this surface
	if res.DataPoints == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("no data found for %s", symbol)})
		return
	}
	c.JSON(http.StatusOK, chartfeed.Build(res))
}

type backtestRequest struct {
	Symbols []string `json:"symbols"`
	From    string   `json:"from"`
	To      string   `json:"to"`
}

func (s *server) handleBacktest(c *gin.Context) {
	var req backtestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	from, err := parseDate(req.From)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	to, err := parseDate(req.To)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	suite, err := s.backtester.RunSuite(c.Request.Context(), req.Symbols, from, to)
	if err != nil {
		s.logger.Error("suite run failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, suite)
}

func parseDate(v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	for _, layout := range [...]string{"2006-01-02", "2006-01-02 15:04:05", time.RFC3339} {
		if t, err := time.Parse(layout, v); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", v)
}
