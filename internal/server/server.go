package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	limits "github.com/gin-contrib/size"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/henderiw/xtable/internal/cfg"
	"github.com/henderiw/xtable/pkg/objtable"
	"github.com/henderiw/xtable/pkg/testbuf"
)

const (
	maxReadTimeout  = 30 * time.Second
	maxWriteTimeout = 30 * time.Second
	idleTimeout     = 120 * time.Second
)

func NewServer(ctx context.Context, config cfg.Config, logger *zap.Logger, objects objtable.ObjectTable, sessions *testbuf.Sessions) *http.Server {
	if !config.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := NewEngine(logger, config.MaxBodySize, NewAPIStore(logger, objects, sessions))

	return &http.Server{
		Handler: engine,
		Addr:    fmt.Sprintf("0.0.0.0:%d", config.Port),

		ReadTimeout:  maxReadTimeout,
		WriteTimeout: maxWriteTimeout,
		IdleTimeout:  idleTimeout,

		BaseContext: func(net.Listener) context.Context { return ctx },
	}
}

func NewEngine(logger *zap.Logger, maxBodySize int64, store *APIStore) *gin.Engine {
	engine := gin.New()
	engine.Use(
		gin.Recovery(),
		requestLogger(logger),
		limits.RequestSizeLimiter(maxBodySize),
	)

	engine.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	tbTest := engine.Group("/tb_test")
	tbTest.POST("/add", store.Add)
	tbTest.POST("/remove", store.Remove)
	tbTest.GET("/read", store.Read)
	tbTest.GET("/entries", store.List)
	tbTest.GET("/entries/:id", store.GetEntry)
	tbTest.DELETE("/entries/:id", store.DeleteEntry)
	tbTest.PUT("/entries/:id/marks/:mark", store.SetMark)
	tbTest.DELETE("/entries/:id/marks/:mark", store.ClearMark)

	tbDebug := engine.Group("/tb_debug")
	tbDebug.POST("/test", store.OpenSession)
	tbDebug.PUT("/test/:session", store.WriteSession)
	tbDebug.GET("/test/:session", store.ReadSession)
	tbDebug.DELETE("/test/:session", store.ReleaseSession)

	return engine
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}
		logger.Debug("request", fields...)
	}
}
