// Package netcheck implements the pre-flight reachability probe that gates
// remote ledger initialization.
package netcheck

import (
	"net"
	"time"

	"go.uber.org/zap"
)

// Prober tests internet reachability with a plain TCP connect to a
// well-known host.
type Prober struct {
	Host     string
	Port     string
	Timeout  time.Duration
	Attempts int

	logger *zap.Logger
	dial   func(network, address string, timeout time.Duration) (net.Conn, error)
	sleep  func(time.Duration)
}

// New builds a Prober with the default target (Google public DNS).
func New(logger *zap.Logger) *Prober {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Prober{
		Host:     "8.8.8.8",
		Port:     "53",
		Timeout:  5 * time.Second,
		Attempts: 3,
		logger:   logger,
		dial:     net.DialTimeout,
		sleep:    time.Sleep,
	}
}

// Online reports whether the probe target is reachable, retrying a few
// times with a short pause between attempts.
func (p *Prober) Online() bool {
	addr := net.JoinHostPort(p.Host, p.Port)
	for attempt := 1; attempt <= p.Attempts; attempt++ {
		conn, err := p.dial("tcp", addr, p.Timeout)
		if err == nil {
			conn.Close()
			p.logger.Info("internet connection test successful")
			return true
		}
		p.logger.Warn("internet connection test failed",
			zap.Int("attempt", attempt), zap.Int("max_attempts", p.Attempts), zap.Error(err))
		if attempt < p.Attempts {
			p.sleep(2 * time.Second)
		}
	}
	p.logger.Error("internet connection test exhausted all attempts",
		zap.Int("attempts", p.Attempts))
	return false
}
