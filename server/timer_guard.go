package server

import (
	"net"
	"sync/atomic"
	"time"

	"github.com/cyberinferno/reqserver/logger"
)

// timerGuard is a one-shot deadline bound to a connection. If the deadline
// elapses before cancel, it shuts down both directions of the socket and
// closes it, which fails any in-flight read on the connection. The guard
// references the connection only while armed; it never extends the
// socket's lifetime past the session's own release.
type timerGuard struct {
	timer *time.Timer
	fired atomic.Bool
}

// armTimeout schedules a forced close of conn after d. Cancel the returned
// guard as soon as the read completes so a late expiry cannot fire.
func armTimeout(conn net.Conn, d time.Duration, log logger.Logger) *timerGuard {
	g := &timerGuard{}
	g.timer = time.AfterFunc(d, func() {
		g.fired.Store(true)
		log.Warn("connection timeout")

		if tc, ok := conn.(*net.TCPConn); ok {
			_ = tc.CloseRead()
			_ = tc.CloseWrite()
		}
		_ = conn.Close()
	})

	return g
}

// cancel stops the guard. Safe on a nil guard and after expiry; a guard
// that already fired stays fired.
func (g *timerGuard) cancel() {
	if g != nil {
		g.timer.Stop()
	}
}

// expired reports whether the deadline elapsed before cancellation.
func (g *timerGuard) expired() bool {
	return g != nil && g.fired.Load()
}
