// Package server runs the raw TCP accept loop and wires the application together.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/articles-service/internal/dispatcher"
	"github.com/JakeFAU/articles-service/internal/id/uuid"
	"github.com/JakeFAU/articles-service/internal/logging"
	"github.com/JakeFAU/articles-service/internal/metrics"
	"github.com/JakeFAU/articles-service/internal/queue/memory"
	"github.com/JakeFAU/articles-service/internal/wire"
)

// Handler turns one parsed request into a response and reports the matched route.
type Handler interface {
	Handle(ctx context.Context, req wire.Request) (string, wire.Response)
}

// Config controls the accept loop and per-connection deadlines.
type Config struct {
	Workers        int
	QueueDepth     int
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	HandlerTimeout time.Duration
}

// Server accepts connections and hands them to a fixed worker pool. Each
// connection carries exactly one request and is closed after the response.
type Server struct {
	cfg     Config
	handler Handler
	logger  *zap.Logger
	ids     *uuid.Generator
}

// New constructs a Server.
func New(cfg Config, handler Handler, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		cfg:     cfg,
		handler: handler,
		logger:  logger,
		ids:     uuid.New(),
	}
}

// Serve accepts on ln until ctx ends or ln fails. Connections already queued
// are still served before Serve returns.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	queue := memory.NewQueue[net.Conn](s.cfg.QueueDepth)
	pool := dispatcher.New[net.Conn](queue, s.cfg.Workers, s.serveConn, s.logger)

	workCtx, cancelWork := context.WithCancel(context.WithoutCancel(ctx))
	defer cancelWork()
	drained := make(chan struct{})
	go func() {
		pool.Run(workCtx)
		close(drained)
	}()

	stopAccept := context.AfterFunc(ctx, func() {
		if err := ln.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			s.logger.Warn("listener close failed", zap.Error(err))
		}
	})
	defer stopAccept()

	s.logger.Info("accepting connections",
		zap.String("addr", ln.Addr().String()),
		zap.Int("workers", s.cfg.Workers),
		zap.Int("queue_depth", s.cfg.QueueDepth),
	)

	var serveErr error
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() == nil && !errors.Is(err, net.ErrClosed) {
				serveErr = fmt.Errorf("accept: %w", err)
			}
			break
		}
		if err := pool.Enqueue(ctx, conn); err != nil {
			s.logger.Warn("connection dropped", zap.Error(err))
			closeConn(conn, s.logger)
			if ctx.Err() != nil {
				break
			}
		}
	}

	queue.Close()
	<-drained
	s.logger.Info("connection loop stopped")
	return serveErr
}

func (s *Server) serveConn(ctx context.Context, conn net.Conn) {
	start := time.Now()
	logger := s.logger.With(
		zap.String("conn_id", s.ids.MustNewID()),
		zap.String("remote", conn.RemoteAddr().String()),
	)
	defer closeConn(conn, logger)
	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("panic recovered", zap.Any("panic", rec))
			s.write(conn, logger, wire.InternalError("Error"))
		}
	}()

	if s.cfg.ReadTimeout > 0 {
		if err := conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout)); err != nil {
			metrics.ObserveConnectionError("deadline")
			logger.Warn("set read deadline failed", zap.Error(err))
		}
	}
	req, err := wire.ReadRequest(conn)
	if err != nil {
		if errors.Is(err, wire.ErrEmptyRequest) {
			logger.Debug("connection closed without a request")
			return
		}
		metrics.ObserveConnectionError("read")
		logger.Warn("read request failed", zap.Error(err))
		return
	}

	handlerCtx := logging.WithLogger(ctx, logger)
	if s.cfg.HandlerTimeout > 0 {
		var cancel context.CancelFunc
		handlerCtx, cancel = context.WithTimeout(handlerCtx, s.cfg.HandlerTimeout)
		defer cancel()
	}
	route, resp := s.handler.Handle(handlerCtx, req)
	s.write(conn, logger, resp)

	logger.Info("request served",
		zap.String("method", req.Method),
		zap.String("target", req.Target),
		zap.String("route", route),
		zap.Int("status", resp.Status.Code()),
		zap.Int64("duration_ms", time.Since(start).Milliseconds()),
	)
}

func (s *Server) write(conn net.Conn, logger *zap.Logger, resp wire.Response) {
	if s.cfg.WriteTimeout > 0 {
		if err := conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout)); err != nil {
			metrics.ObserveConnectionError("deadline")
			logger.Warn("set write deadline failed", zap.Error(err))
		}
	}
	if _, err := resp.WriteTo(conn); err != nil {
		metrics.ObserveConnectionError("write")
		logger.Warn("write response failed", zap.Error(err))
	}
}

func closeConn(conn net.Conn, logger *zap.Logger) {
	if err := conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		logger.Debug("connection close failed", zap.Error(err))
	}
}
