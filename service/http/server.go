package http

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/flow-hydraulics/flow-mint-proxy/service/app"
	"github.com/flow-hydraulics/flow-mint-proxy/service/config"
	log "github.com/sirupsen/logrus"
)

type Server struct {
	cfg    *config.Config
	srv    *http.Server
	logger *log.Logger
}

func NewServer(cfg *config.Config, logger *log.Logger, app *app.App, verifier CallerVerifier) *Server {
	if logger == nil {
		logger = log.StandardLogger()
	}

	r := NewRouter(logger, NewAuthenticator(verifier, cfg.SignatureMaxAge), app)

	// Server boilerplate
	srv := &http.Server{
		Handler: r,
		Addr:    fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		// A mint waits for up to three transactions to seal
		WriteTimeout: 3*cfg.TransactionTimeout + 15*time.Second,
		ReadTimeout:  15 * time.Second,
	}

	return &Server{cfg, srv, logger}
}

func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

func (s *Server) ListenAndServe() {
	// Run our server in a goroutine so that it doesn't block.
	go func() {
		s.logger.Infof("Server listening on %s:%d", s.cfg.Host, s.cfg.Port)
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.WithError(err).Error("Server stopped")
		}
	}()

	// Trap interupt or sigterm and gracefully shutdown the server
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	// Block until we receive our signal.
	sig := <-c

	s.logger.Infof("Got signal: %s. Shutting down..", sig)

	// In-flight mints are given the time to finish their remote calls
	ctx, cancel := context.WithTimeout(context.Background(), s.srv.WriteTimeout)
	defer cancel()

	if err := s.srv.Shutdown(ctx); err != nil {
		s.logger.Fatal("Error in server shutdown; ", err)
	}
}
