// Package sandbox is an in-process stand-in for the Chatex REST API. It keeps
// all state in memory, issues HS256 JWT access tokens for a single API secret
// and can throttle each token with 429 {"retryAfter": N} answers. Tests and
// cmd/sandbox use it to exercise the client end to end.
package sandbox

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/chatex/pkg/logging"
	"github.com/gin-gonic/gin"
)

type Server struct {
	config       *Config
	logger       logging.Logger
	issuer       *tokenIssuer
	store        *store
	limiter      *rateLimiter
	engine       *gin.Engine
	tokensIssued atomic.Int64
}

func New(cfg *Config, logger logging.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	now := cfg.clock()
	s := &Server{
		config: cfg,
		logger: logger.With("module", "sandbox"),
		issuer: &tokenIssuer{key: []byte(cfg.SigningKey), ttl: cfg.TokenTTL, now: now},
		store:  newStore(now),
	}
	if cfg.RateLimit > 0 {
		s.limiter = newRateLimiter(cfg.RateLimit, cfg.RateBurst, now)
	}
	s.engine = s.routes()
	return s
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(s.logger))

	r.POST("/auth/access-token", s.issueAccessToken)

	api := r.Group("/", s.requireAccessToken)
	if s.limiter != nil {
		api.Use(s.limiter.middleware)
	}

	api.GET("/me", s.getMe)
	api.GET("/me/balance", s.getBalance)

	api.GET("/coins", s.getCoins)
	api.GET("/coins/:name", s.getCoin)

	orders := api.Group("/exchange/orders")
	orders.GET("", s.getOrders)
	orders.POST("", s.postOrder)
	orders.GET("/my", s.getMyOrders)
	orders.GET("/trades", s.getTrades)
	orders.GET("/trades/:id", s.getTrade)
	orders.GET("/:id", s.getOrder)
	orders.PUT("/:id", s.putOrder)
	orders.DELETE("/:id", s.deleteOrder)
	orders.PUT("/:id/activate", s.setOrderActive(true))
	orders.PUT("/:id/deactivate", s.setOrderActive(false))
	orders.POST("/:id/trades", s.postTrade)

	api.GET("/invoices", s.getInvoices)
	api.POST("/invoices", s.postInvoice)
	api.GET("/invoices/:id", s.getInvoice)

	api.GET("/payment-system/estimate", s.getEstimate)
	api.GET("/payment-system/:id", s.getPaymentSystem)

	return r
}

// Handler exposes the router, e.g. for httptest.NewServer.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// TokensIssued counts successful POST /auth/access-token calls.
func (s *Server) TokensIssued() int64 {
	return s.tokensIssued.Load()
}

// Run serves on the configured address until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.config.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "Starting sandbox server", "address", s.config.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("sandbox server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info(ctx, "Stopping sandbox server...")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("sandbox shutdown: %w", err)
	}
	return nil
}
