// Package server accepts agent requests over a local unix socket. Each
// connection gets its own worker goroutine that reads framed JSON
// requests, routes them, and writes framed responses. A malformed frame
// terminates its connection only; the server outlives any client's
// misbehavior and drains all workers on shutdown.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"aios/internal/action"
	"aios/internal/agent"
	"aios/internal/config"
	"aios/internal/device"
	"aios/internal/protocol"
)

// Server is the agent request server.
type Server struct {
	cfg        *config.Config
	engine     *agent.Engine
	dispatcher *action.Dispatcher
	controller device.Controller
	logger     *zap.Logger

	mu    sync.Mutex
	conns map[net.Conn]struct{}
}

// New creates a server. All collaborators are owned by the caller.
func New(cfg *config.Config, engine *agent.Engine, dispatcher *action.Dispatcher, controller device.Controller, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		cfg:        cfg,
		engine:     engine,
		dispatcher: dispatcher,
		controller: controller,
		logger:     logger,
		conns:      make(map[net.Conn]struct{}),
	}
}

// Serve listens on the configured socket until ctx is cancelled, then
// closes the listener and every live connection and waits for all
// workers to finish.
func (s *Server) Serve(ctx context.Context) error {
	if err := os.MkdirAll(filepath.Dir(s.cfg.Socket), 0755); err != nil {
		return fmt.Errorf("failed to create socket directory: %w", err)
	}
	// Remove a stale socket from a previous run.
	if err := os.Remove(s.cfg.Socket); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove stale socket: %w", err)
	}

	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "unix", s.cfg.Socket)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Socket, err)
	}
	// Local clients of any uid may talk to the agent.
	if err := os.Chmod(s.cfg.Socket, 0666); err != nil {
		listener.Close()
		return fmt.Errorf("failed to chmod socket: %w", err)
	}

	s.logger.Info("agent listening", zap.String("socket", s.cfg.Socket))

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		<-ctx.Done()
		listener.Close()
		s.closeAll()
		return nil
	})

	g.Go(func() error {
		var wg sync.WaitGroup
		defer wg.Wait()

		for {
			conn, err := listener.Accept()
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("accept failed: %w", err)
			}

			s.track(conn)
			wg.Add(1)
			go func() {
				defer wg.Done()
				defer s.untrack(conn)
				s.handleConn(ctx, conn)
			}()
		}
	})

	err = g.Wait()
	os.Remove(s.cfg.Socket)
	s.logger.Info("agent stopped")
	return err
}

func (s *Server) track(conn net.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conns[conn] = struct{}{}
}

func (s *Server) untrack(conn net.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conns, conn)
}

func (s *Server) closeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.conns {
		conn.Close()
	}
}

// handleConn serves one connection's request loop. Framing and JSON
// errors terminate the connection; command-level problems are answered
// in-band and the loop continues.
func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	for {
		payload, err := protocol.ReadFrame(conn)
		if err != nil {
			if !errors.Is(err, io.EOF) {
				s.logger.Debug("connection closed", zap.Error(err))
			}
			return
		}

		var req protocol.Request
		if err := json.Unmarshal(payload, &req); err != nil {
			s.logger.Debug("unparsable request, dropping connection", zap.Error(err))
			return
		}

		resp := s.handle(ctx, req)

		data, err := json.Marshal(resp)
		if err != nil {
			s.logger.Error("failed to marshal response", zap.Error(err))
			return
		}
		if err := protocol.WriteFrame(conn, data); err != nil {
			s.logger.Debug("failed to write response", zap.Error(err))
			return
		}
	}
}

// handle routes one decoded request.
func (s *Server) handle(ctx context.Context, req protocol.Request) protocol.Response {
	switch req.Cmd {
	case protocol.CmdChat:
		reply, result := s.engine.Chat(ctx, req.Text)
		resp := protocol.OK()
		resp.Response = reply
		resp.ActionResult = result
		return resp

	case protocol.CmdAction:
		if len(req.Action) == 0 {
			return protocol.Error("action command requires an action descriptor")
		}
		var desc action.Descriptor
		if err := json.Unmarshal(req.Action, &desc); err != nil {
			return protocol.Error(fmt.Sprintf("invalid action descriptor: %v", err))
		}
		result := s.dispatcher.Execute(ctx, desc)
		resp := protocol.OK()
		resp.Result = &result
		return resp

	case protocol.CmdStatus:
		running := true
		aiConfigured := s.cfg.AIConfigured()
		resp := protocol.OK()
		resp.Running = &running
		resp.AIConfigured = &aiConfigured
		if info, err := s.controller.SystemInfo(ctx); err == nil {
			resp.System = &info
		}
		return resp

	case protocol.CmdClear:
		s.engine.ClearHistory()
		resp := protocol.OK()
		resp.Message = "Conversation cleared"
		return resp

	default:
		if req.Cmd == "" {
			return protocol.Error("missing command")
		}
		return protocol.Error(fmt.Sprintf("Unknown command: %s", req.Cmd))
	}
}
