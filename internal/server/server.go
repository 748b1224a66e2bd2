// SPDX-License-Identifier: Apache-2.0

// Package server runs the HTTP listener. Production deployments sit behind
// nginx and listen on a Unix socket; development uses a plain TCP address.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"

	"github.com/sweep7125/sub-service/internal/config"
	"github.com/sweep7125/sub-service/internal/logger"
)

type Server struct {
	httpServer *http.Server
	cfg        config.Server

	logger *logger.Logger
}

func NewServer(cfg config.Server, handler http.Handler, logger *logger.Logger) *Server {
	return &Server{
		httpServer: &http.Server{Handler: handler},
		cfg:        cfg,
		logger:     logger,
	}
}

// Run blocks serving requests until Shutdown is called. When a socket path
// is configured it takes precedence over the TCP address; a stale socket
// file from a previous run is removed first.
func (s *Server) Run() error {
	listener, err := s.listen()
	if err != nil {
		return err
	}

	err = s.httpServer.Serve(listener)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}

	return err
}

// Shutdown stops accepting connections and waits for in-flight requests
// within the bounds of ctx.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) listen() (net.Listener, error) {
	if s.cfg.SocketPath != "" {
		if err := os.Remove(s.cfg.SocketPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}

		listener, err := net.Listen("unix", s.cfg.SocketPath)
		if err != nil {
			return nil, err
		}

		// nginx runs as a different user
		if err := os.Chmod(s.cfg.SocketPath, 0o666); err != nil {
			s.logger.Warn().Err(err).Msg("failed to set socket permissions")
		}

		s.logger.Info().Str("socket", s.cfg.SocketPath).Msg("listening on unix socket")
		return listener, nil
	}

	listener, err := net.Listen("tcp", s.cfg.Address)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("address", s.cfg.Address).Msg("listening on tcp address")
	return listener, nil
}
