package backend

import "net"

// Probe is a point-in-time TCP liveness check against the backend's listen
// address. Success means the port accepts connections, nothing more: the
// backend may still be initializing. No timeout beyond the OS connect
// default is applied; callers needing bounded latency must impose their own.
type Probe struct {
	Addr string
}

// NewProbe creates a probe for addr (host:port).
func NewProbe(addr string) *Probe {
	return &Probe{Addr: addr}
}

// Check reports whether the backend port currently accepts connections.
// Connection errors are a normal "not running" signal, never logged.
func (p *Probe) Check() bool {
	conn, err := net.Dial("tcp", p.Addr)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}
