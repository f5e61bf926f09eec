package api

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"regexp"
	"strings"

	"github.com/chromad/chromad/internal/server/api/auth"
	apierror "github.com/chromad/chromad/internal/server/api/error"
)

// ServerConfig carries the knobs needed to serve the remote object
// interface: listen address, optional pre-shared-key password, and
// whether loopback clients must still authenticate.
type ServerConfig struct {
	Addr                 string
	Password             string
	RequireLocalHostAuth bool
}

// Server implements the TCP, line-oriented, JSON-payload remote object
// interface (§6): one request per connection, `<path> <json>\0` in,
// a single JSON reply line (or a problem object) out.
type Server struct {
	addr   string
	ln     net.Listener
	logger *slog.Logger
	router *Router
	config *ServerConfig
}

// New creates a Server bound to addr with the given config.
func New(addr string, config ServerConfig, logger *slog.Logger) *Server {
	cfg := config
	s := &Server{
		addr:   addr,
		logger: logger,
		config: &cfg,
	}
	s.router = NewRouter()
	return s
}

// Router returns the router used by the server so callers can register handlers.
func (s *Server) Router() *Router { return s.router }

// Config returns the server configuration.
func (s *Server) Config() *ServerConfig { return s.config }

// Addr returns the actual address the server is listening on. If Start
// hasn't been called yet, it returns the configured address.
func (s *Server) Addr() string {
	if s.ln != nil {
		return s.ln.Addr().String()
	}
	return s.addr
}

// Start listens on the configured address and serves incoming requests.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.ln = ln

	s.addr = ln.Addr().String()
	s.config.Addr = s.addr
	s.logger.Info("remote interface listening", "addr", s.addr)
	go s.serve()
	return nil
}

// Close stops the server.
func (s *Server) Close() {
	if s.ln != nil {
		_ = s.ln.Close()
	}
}

func (s *Server) serve() {
	for {
		c, err := s.ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) || strings.Contains(strings.ToLower(err.Error()), "use of closed network connection") {
				s.logger.Info("remote interface stopped")
				return
			}
			s.logger.Info("accept error", "error", err)
			return
		}
		if tcpConn, ok := c.(*net.TCPConn); ok {
			if err := tcpConn.SetNoDelay(true); err != nil {
				s.logger.Warn("failed to set TCP_NODELAY", "error", err)
			}
		}
		go s.handleConn(c)
	}
}

func (s *Server) writeError(w io.Writer, err error) {
	apiErr := apierror.WrapError(err)
	problemJSON, _ := json.Marshal(apiErr)
	fmt.Fprintf(w, "%s\n", string(problemJSON))
}

func (s *Server) writeOK(w io.Writer, rest string) {
	if rest == "" {
		fmt.Fprintln(w)
	} else {
		fmt.Fprintf(w, "%s\n", rest)
	}
}

func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()

	connCtx, connCancel := context.WithCancel(context.Background())
	defer connCancel()

	connLogger := s.logger.With("remote", conn.RemoteAddr().String())
	r := bufio.NewReader(conn)
	w := conn

	isAuth, err := auth.IsAuthHandshake(r)
	if err != nil {
		connLogger.Error("handshake check", "error", err)
	}

	if !isAuth && s.requiresAuth(conn.RemoteAddr()) {
		connLogger.Error("authentication required")
		s.writeError(w, apierror.ErrUnauthorized("authentication required"))
		return
	}

	if isAuth {
		connLogger.Debug("detected auth attempt")
		key, err := auth.DeriveKey(s.config.Password)
		if err != nil {
			connLogger.Error("derive key failed", "error", err)
			return
		}

		clientNonce, serverNonce, err := auth.HandleAuthHandshake(r, w, key, false)
		if err != nil {
			connLogger.Error("auth handshake failed", "error", err)
			s.writeError(w, err)
			return
		}

		sessionKey := auth.DeriveSessionKey(key, serverNonce, clientNonce)
		secConn, err := auth.WrapConn(conn, sessionKey)
		if err != nil {
			connLogger.Error("wrap secure conn failed", "error", err)
			return
		}
		conn = secConn
		r = bufio.NewReader(conn)
		w = conn

		connLogger.Debug("authenticated connection established")
	} else {
		connLogger.Debug("continuing unauthenticated connection")
	}

	reqData, err := r.ReadString('\x00')
	if err != nil {
		if err == io.EOF {
			connLogger.Error("incomplete request (no null terminator)")
		} else {
			connLogger.Error("read request data", "error", err)
		}
		return
	}
	reqData = strings.TrimSuffix(reqData, "\x00")

	if reqData == "" {
		connLogger.Error("empty command")
		s.writeError(w, apierror.ErrBadRequest("empty request"))
		return
	}

	wsRegex := regexp.MustCompile(`\s`)
	loc := wsRegex.FindStringIndex(reqData)

	var path, payload string
	if loc != nil {
		path = reqData[:loc[0]]
		payload = reqData[loc[1]:]
	} else {
		path = reqData
		payload = ""
	}

	if path == "" {
		connLogger.Error("empty path")
		s.writeError(w, apierror.ErrBadRequest("empty path"))
		return
	}

	path = strings.ToLower(path)
	connLogger.Info("cmd", "path", path)

	if h, params := s.router.Match(path); h != nil {
		req := &Request{Ctx: connCtx, Params: params, Payload: payload}
		res := &Response{}
		if err := h(req, res, connLogger); err != nil {
			connLogger.Error("handler error", "path", path, "error", err)
			s.writeError(w, err)
			return
		}
		connLogger.Debug("handler success", "path", path)
		s.writeOK(w, res.JSON)
		return
	} else if sh, params := s.router.MatchStream(path); sh != nil {
		connLogger.Info("stream begin", "path", path)
		// Stream handler takes ownership of the connection.
		if err := sh(conn, params, connLogger); err != nil {
			connLogger.Error("stream handler error", "path", path, "error", err)
		}
		connLogger.Info("stream end", "path", path)
		return
	}
	connLogger.Error("unknown path", "path", path)
	s.writeError(w, apierror.ErrNotFound(fmt.Sprintf("unknown path: %s", path)))
}

func (s *Server) isLocalHostClient(addr net.Addr) bool {
	host, _, err := net.SplitHostPort(addr.String())
	if err != nil {
		return false
	}
	switch host {
	case "localhost", "127.0.0.1", "[::1]", "::1":
		return true
	}
	return false
}

func (s *Server) requiresAuth(addr net.Addr) bool {
	if s.isLocalHostClient(addr) {
		return s.config.RequireLocalHostAuth
	}
	return true
}
