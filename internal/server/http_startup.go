package server

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// Start begins listening for HTTP requests and blocks until ctx is
// canceled, at which point the server shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	mux := s.setupRoutes()

	var handler http.Handler = mux
	if s.obs != nil {
		handler = s.obs.HTTPMiddleware()(mux)
	}

	addr := fmt.Sprintf("%s:%s", s.Host, s.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  s.AppConfig.Server.ReadTimeout,
		WriteTimeout: s.AppConfig.Server.WriteTimeout,
		IdleTimeout:  s.AppConfig.Server.IdleTimeout,
	}

	serverErrors := make(chan error, 1)
	go func() {
		if s.TLSCertFile != "" && s.TLSKeyFile != "" {
			s.Logger.Info("Starting HTTPS server",
				"address", addr,
				"cert_file", s.TLSCertFile)
			serverErrors <- httpServer.ListenAndServeTLS(s.TLSCertFile, s.TLSKeyFile)
		} else {
			s.Logger.Info("Starting HTTP server", "address", addr)
			serverErrors <- httpServer.ListenAndServe()
		}
	}()

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			s.shutdownComponents()
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
		s.Logger.Info("Shutdown signal received, stopping server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			s.Logger.LogError(err, "Graceful shutdown failed")
			if closeErr := httpServer.Close(); closeErr != nil {
				s.Logger.LogError(closeErr, "Forced close failed")
			}
		}
	}

	s.shutdownComponents()
	s.Logger.Info("Server stopped")
	return nil
}

func (s *Server) shutdownComponents() {
	if s.RateLimiter != nil {
		s.RateLimiter.Close()
	}

	if s.passages != nil {
		s.passages.Close()
	}

	if s.aiService != nil {
		if err := s.aiService.Close(); err != nil {
			s.Logger.Warn("Failed to close AI service", "error", err)
		}
	}

	if s.obs != nil {
		obsCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.obs.Shutdown(obsCtx); err != nil {
			s.Logger.Warn("Observability shutdown failed", "error", err)
		}
	}
}
