// Package gateway provides the websocket transport: one connection per
// client, a read goroutine feeding the core's dispatcher, and a write
// goroutine draining the session's outbox. The core never sees a socket.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/cory-johannsen/realmd/internal/config"
	"github.com/cory-johannsen/realmd/internal/core"
	"github.com/cory-johannsen/realmd/internal/game/protocol"
	"github.com/cory-johannsen/realmd/internal/game/session"
)

// loginTimeout bounds how long a fresh connection may take to present
// credentials before it is dropped.
const loginTimeout = 30 * time.Second

// Authenticator resolves credentials into a hydrated session.
type Authenticator interface {
	Login(ctx context.Context, username, password, character string) (*session.Session, error)
}

// loginRequest is the first frame every connection must send.
type loginRequest struct {
	Account   string `json:"account"`
	Password  string `json:"password"`
	Character string `json:"character"`
}

// serverFrame is the outbound envelope: the event's wire tag plus its payload.
type serverFrame struct {
	Type  string         `json:"type"`
	Event protocol.Event `json:"event"`
}

// Server is the websocket gateway. It implements the lifecycle Service
// interface.
type Server struct {
	cfg    config.GatewayConfig
	core   *core.Core
	auth   Authenticator
	logger *zap.Logger

	upgrader websocket.Upgrader
	httpSrv  *http.Server
	listener net.Listener
}

// NewServer creates the gateway over the core and authenticator.
func NewServer(cfg config.GatewayConfig, c *core.Core, auth Authenticator, logger *zap.Logger) *Server {
	s := &Server{
		cfg:    cfg,
		core:   c,
		auth:   auth,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// The realm client is not a browser; origin checks do not apply.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	s.httpSrv = &http.Server{Handler: mux}
	return s
}

// Start binds the listener and begins serving connections.
//
// Postcondition: returns once the listener is bound; serving continues on a
// background goroutine.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.cfg.Addr())
	if err != nil {
		return fmt.Errorf("binding gateway listener on %s: %w", s.cfg.Addr(), err)
	}
	s.listener = ln
	go func() {
		if err := s.httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("gateway serve", zap.Error(err))
		}
	}()
	s.logger.Info("gateway listening", zap.String("addr", s.cfg.Addr()))
	return nil
}

// Stop disconnects every session and shuts the listener down.
func (s *Server) Stop() {
	for _, sess := range s.core.Sessions().AllSessions() {
		s.core.HandleDisconnect(sess.UID)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.httpSrv.Shutdown(ctx); err != nil {
		s.logger.Warn("gateway shutdown", zap.Error(err))
	}
}

// handleWS upgrades the connection, performs login, and runs the read loop.
// The write loop runs on its own goroutine until the session's outbox closes.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("websocket upgrade", zap.Error(err))
		return
	}

	sess, err := s.login(r.Context(), conn)
	if err != nil {
		s.logger.Info("login rejected", zap.String("remote", conn.RemoteAddr().String()), zap.Error(err))
		s.writeFrame(conn, protocol.ResultEvent{OK: false, Message: "login failed"})
		conn.Close()
		return
	}

	if err := s.core.Sessions().Add(sess); err != nil {
		s.writeFrame(conn, protocol.ResultEvent{OK: false, Message: "that character is already online"})
		conn.Close()
		return
	}

	s.logger.Info("client connected",
		zap.String("uid", sess.UID),
		zap.String("name", sess.Name),
		zap.String("remote", conn.RemoteAddr().String()))

	go s.writeLoop(conn, sess)
	s.core.HandleConnect(sess.UID)
	s.readLoop(conn, sess)
}

// login reads and resolves the credential frame.
func (s *Server) login(ctx context.Context, conn *websocket.Conn) (*session.Session, error) {
	_ = conn.SetReadDeadline(time.Now().Add(loginTimeout))
	defer conn.SetReadDeadline(time.Time{})

	var req loginRequest
	if err := conn.ReadJSON(&req); err != nil {
		return nil, fmt.Errorf("reading login frame: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, loginTimeout)
	defer cancel()
	return s.auth.Login(ctx, req.Account, req.Password, req.Character)
}

// readLoop feeds inbound messages to the core until the connection drops.
func (s *Server) readLoop(conn *websocket.Conn, sess *session.Session) {
	defer func() {
		s.core.HandleDisconnect(sess.UID)
		conn.Close()
		s.logger.Info("client disconnected", zap.String("uid", sess.UID))
	}()

	for {
		var msg protocol.ClientMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug("read error", zap.String("uid", sess.UID), zap.Error(err))
			}
			return
		}
		s.core.Dispatch(sess.UID, msg)
	}
}

// writeLoop drains the session's outbox onto the socket. It exits when the
// outbox closes (session removed) or a write fails, closing the connection
// either way so the read loop unblocks.
func (s *Server) writeLoop(conn *websocket.Conn, sess *session.Session) {
	defer conn.Close()
	for ev := range sess.Outbox.Events() {
		if err := s.writeFrame(conn, ev); err != nil {
			s.logger.Debug("write error", zap.String("uid", sess.UID), zap.Error(err))
			return
		}
	}
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "goodbye"),
		time.Now().Add(s.cfg.WriteTimeout))
}

func (s *Server) writeFrame(conn *websocket.Conn, ev protocol.Event) error {
	if s.cfg.WriteTimeout > 0 {
		_ = conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
	}
	return conn.WriteJSON(serverFrame{Type: ev.EventType(), Event: ev})
}
