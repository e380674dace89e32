package server

import "sync/atomic"

// Stats tracks server-level counters. The accept loop and session
// goroutines update the fields atomically; read a copy with Snapshot.
type Stats struct {
	accepted    atomic.Uint64
	served      atomic.Uint64
	readErrors  atomic.Uint64
	timeouts    atomic.Uint64
	writeErrors atomic.Uint64
}

// StatsSnapshot is a point-in-time copy of the server counters. Counters
// are read independently, so totals may be mid-update relative to each
// other under load.
type StatsSnapshot struct {
	Accepted    uint64 // Connections accepted by the listener
	Served      uint64 // Sessions that completed their cycle without error
	ReadErrors  uint64 // Sessions that failed while reading the request
	Timeouts    uint64 // Sessions closed by the read timeout
	WriteErrors uint64 // Sessions whose reply write failed
}

// Snapshot returns the current counter values.
func (s *Stats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		Accepted:    s.accepted.Load(),
		Served:      s.served.Load(),
		ReadErrors:  s.readErrors.Load(),
		Timeouts:    s.timeouts.Load(),
		WriteErrors: s.writeErrors.Load(),
	}
}
