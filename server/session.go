package server

import (
	"bytes"
	"net"

	"github.com/cyberinferno/reqserver/logger"
)

// readChunkSize is the size of each read segment appended to the request buffer.
const readChunkSize = 4096

// session owns one accepted connection for a single request/reply cycle.
// The goroutine running run is the sole owner of the socket and read
// buffer; the timer guard holds the only outside reference and uses it
// exclusively to force the socket closed on timeout.
type session struct {
	id     uint64
	conn   net.Conn
	server *Server
	log    logger.Logger
}

func newSession(id uint64, conn net.Conn, srv *Server) *session {
	return &session{
		id:     id,
		conn:   conn,
		server: srv,
		log: srv.log.With(
			logger.Field{Key: "session", Value: id},
			logger.Field{Key: "remote", Value: conn.RemoteAddr().String()},
		),
	}
}

// run drives the read, handle, write sequence for the session's single
// request and then releases the connection. Any failure ends the session
// without touching the listener or other sessions.
func (s *session) run() {
	defer func() {
		s.server.sessions.Delete(s.id)
		_ = s.conn.Close()
	}()

	var guard *timerGuard
	if s.server.config.ReadTimeout > 0 {
		guard = armTimeout(s.conn, s.server.config.ReadTimeout, s.log)
	}

	request, err := s.readRequest()
	guard.cancel()

	if err != nil {
		if guard.expired() {
			s.server.stats.timeouts.Add(1)
		} else {
			s.server.stats.readErrors.Add(1)
		}

		s.log.Error("read error", logger.Field{Key: "error", Value: err})
		return
	}

	reply := s.server.handler(request, len(request))
	if reply == "" {
		s.server.stats.served.Add(1)
		return
	}

	if _, err := s.conn.Write([]byte(reply)); err != nil {
		s.server.stats.writeErrors.Add(1)
		s.log.Error("reply not sent", logger.Field{Key: "error", Value: err})
		return
	}

	s.server.stats.served.Add(1)
	s.log.Info("reply sent", logger.Field{Key: "bytes", Value: len(reply)})
}

// readRequest reads from the connection until the delimiter appears and
// returns the accumulated bytes up to and including it. Bytes arriving
// after the delimiter in the same segment are discarded along with the
// connection; there is never a second request.
func (s *session) readRequest() ([]byte, error) {
	buf := make([]byte, 0, readChunkSize)
	chunk := make([]byte, readChunkSize)

	for {
		n, err := s.conn.Read(chunk)
		if n > 0 {
			// The delimiter may straddle the segment boundary, so rescan
			// from just before the previous end of the buffer.
			start := len(buf) - (len(Delimiter) - 1)
			if start < 0 {
				start = 0
			}

			buf = append(buf, chunk[:n]...)
			if i := bytes.Index(buf[start:], []byte(Delimiter)); i >= 0 {
				return buf[:start+i+len(Delimiter)], nil
			}
		}

		if err != nil {
			return nil, err
		}
	}
}
