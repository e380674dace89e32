// Package server implements a one-shot TCP request/reply server. Each
// accepted connection carries exactly one request terminated by the
// \r\n\r\n delimiter; the raw request bytes go to an application-supplied
// handler and the handler's returned string, when non-empty, is written
// back as the reply. The connection is then closed; there is no keep-alive.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/cyberinferno/reqserver/logger"
	"github.com/cyberinferno/reqserver/safemap"
)

// Delimiter is the byte sequence terminating every request. There is no
// length prefix and no escaping, so a payload containing the sequence
// itself splits at the first occurrence.
const Delimiter = "\r\n\r\n"

// HandlerFunc processes one raw request and produces the reply. data holds
// the request bytes up to and including the delimiter; length equals
// len(data). An empty return string means no reply is sent.
//
// The handler runs synchronously on the connection's goroutine with no
// worker offload, so it must be fast and non-blocking by contract.
type HandlerFunc func(data []byte, length int) string

// Config holds the immutable server configuration.
type Config struct {
	// Port is the TCP port to bind on all local interfaces. Port 0 binds
	// an ephemeral port; use Addr to discover it after Start.
	Port uint16
	// ReadTimeout bounds how long a connection may take to deliver its
	// full delimiter-terminated request. Zero or negative disables the
	// timeout, in which case a connection that never completes a request
	// stays open indefinitely.
	ReadTimeout time.Duration
}

// Server accepts TCP connections and runs one request/reply session per
// connection. Construct with New, install a handler with SetHandler, then
// call Start. A Server may be started again after a previous Start has
// returned, but only one Start may run at a time.
type Server struct {
	config   Config
	log      logger.Logger
	handler  HandlerFunc
	sessions *safemap.SafeMap[uint64, *session]
	nextID   atomic.Uint64
	running  atomic.Bool
	stats    Stats

	mu   sync.Mutex
	addr net.Addr
}

// New creates a Server with the given configuration. A nil log silences
// all server output.
//
// Parameters:
//   - config: Port and read-timeout settings
//   - log: Destination for the server's log lines; nil for no logging
//
// Returns:
//   - A new Server; call SetHandler and then Start
func New(config Config, log logger.Logger) *Server {
	if log == nil {
		log = logger.NewNopLogger()
	}

	return &Server{
		config:   config,
		log:      log,
		sessions: safemap.NewSafeMap[uint64, *session](),
	}
}

// SetHandler installs the request handler, replacing any previous one.
// It must be called before Start; changing the handler while the server
// is running is not supported.
//
// Parameters:
//   - fn: The handler invoked with each complete request
func (s *Server) SetHandler(fn HandlerFunc) {
	s.handler = fn
}

// Start binds the listening socket and serves connections until the given
// context is cancelled or the process receives SIGINT, SIGQUIT, or SIGTERM.
// It blocks for the server's whole lifetime. Sessions that are mid-request
// at shutdown are not cancelled; they drain on their own goroutines.
//
// Parameters:
//   - ctx: Cancelling this context triggers the same graceful shutdown as
//     a termination signal
//
// Returns:
//   - An error if the server is already running, no handler is set, or
//     binding the port fails; nil after a graceful shutdown
func (s *Server) Start(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		s.log.Error("server already running")
		return errors.New("server already running")
	}
	defer s.running.Store(false)

	if s.handler == nil {
		return errors.New("no handler set: call SetHandler before Start")
	}

	lc := net.ListenConfig{Control: reuseAddrControl}
	ln, err := lc.Listen(ctx, "tcp", fmt.Sprintf(":%d", s.config.Port))
	if err != nil {
		s.log.Error("server failed to start", logger.Field{Key: "error", Value: err})
		return fmt.Errorf("bind port %d: %w", s.config.Port, err)
	}

	s.mu.Lock()
	s.addr = ln.Addr()
	s.mu.Unlock()

	s.log.Info("server started", logger.Field{Key: "addr", Value: ln.Addr().String()})

	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGQUIT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(sigCtx)
	g.Go(func() error {
		<-gctx.Done()
		s.log.Info("gracefully terminating tcp server")
		return ln.Close()
	})
	g.Go(func() error {
		s.acceptLoop(ln)
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, net.ErrClosed) {
		return err
	}

	return nil
}

// acceptLoop accepts connections until the listener is closed. Each
// accepted connection goes to a new session goroutine immediately, so the
// loop is back in Accept before the session does any work. Accept errors
// other than the closed-listener shutdown signal are logged per attempt
// and never stop the loop.
func (s *Server) acceptLoop(ln net.Listener) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}

			s.log.Error("accept error", logger.Field{Key: "error", Value: err})
			continue
		}

		s.stats.accepted.Add(1)
		id := s.nextID.Add(1)
		sess := newSession(id, conn, s)
		s.sessions.Store(id, sess)
		go sess.run()
	}
}

// Addr returns the listener's bound address, or nil before the first
// Start. Useful with Port 0 to discover the ephemeral port.
//
// Returns:
//   - The bound address of the most recent Start
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// ActiveSessions returns the number of sessions currently processing a
// connection.
//
// Returns:
//   - The current session count
func (s *Server) ActiveSessions() int {
	return s.sessions.Len()
}

// Stats returns a point-in-time copy of the server's counters.
//
// Returns:
//   - The current StatsSnapshot
func (s *Server) Stats() StatsSnapshot {
	return s.stats.Snapshot()
}
