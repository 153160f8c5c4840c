// Package web serves the news portal and its assistant over HTTP.
package web

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Semior001/newsportal/app/assistant"
	"github.com/Semior001/newsportal/app/portal"
	"github.com/Semior001/newsportal/app/store"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server serves the JSON API of the portal.
type Server struct {
	Addr            string
	Version         string
	Logger          *slog.Logger
	Store           store.Interface
	Portal          *portal.Portal
	Assistant       *assistant.Service
	Gatherer        prometheus.Gatherer
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// Run starts the server and blocks until the context is done,
// then shuts the server down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.Addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       s.ReadTimeout,
		WriteTimeout:      s.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.Logger.InfoContext(ctx, "starting http server", slog.String("addr", s.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("listen and serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	// the parent context is already done, shutdown needs its own
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}

	s.Logger.Info("http server stopped")
	return ctx.Err()
}

func (s *Server) routes() *gin.Engine {
	rtr := gin.New()
	rtr.Use(
		recovery(s.Logger),
		requestID(),
		logger(s.Logger),
	)

	rtr.GET("/health", s.health)

	gatherer := s.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	rtr.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	api := rtr.Group("/api/v1")
	{
		api.GET("/home", s.home)
		api.GET("/search", s.search)
		api.GET("/categories", s.categories)

		articles := api.Group("/articles")
		articles.GET("", s.listArticles)
		articles.GET("/:id", s.getArticle)
		articles.GET("/:id/related", s.relatedArticles)
		articles.POST("/:id/summary", s.summary)
		articles.POST("/:id/ask", s.ask)
		articles.GET("/:id/chat", s.chat)

		api.GET("/pages/about", s.aboutPage)
		api.GET("/pages/contact", s.contactPage)
		api.POST("/contact", s.submitContact)
		api.POST("/newsletter", s.subscribe)
	}

	return rtr
}
