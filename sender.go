package auction

import (
	"net"
	"sync"
)

// Sender is the outbound half of the datagram transport. Sends are
// fire-and-forget: implementations log failures and never report them
// back, consistent with the best-effort transport.
type Sender interface {
	Send(addr net.Addr, payload []byte)
}

// UDPSender sends datagrams over a shared packet connection.
type UDPSender struct {
	conn net.PacketConn
}

// NewUDPSender creates a sender backed by conn. The connection is
// typically the same socket the server receives requests on, so
// responses originate from the well-known server address.
func NewUDPSender(conn net.PacketConn) *UDPSender {
	return &UDPSender{conn: conn}
}

// Send writes one datagram. Failures are logged and dropped.
func (s *UDPSender) Send(addr net.Addr, payload []byte) {
	if _, err := s.conn.WriteTo(payload, addr); err != nil {
		logger.Warn("datagram send failed", "addr", addr.String(), "error", err.Error())
	}
}

// Datagram is one captured outbound message.
type Datagram struct {
	Addr    net.Addr
	Payload []byte
}

// MemorySender stores outbound datagrams in memory, useful for testing.
type MemorySender struct {
	mu   sync.RWMutex
	sent []Datagram
}

// NewMemorySender creates a new MemorySender.
func NewMemorySender() *MemorySender {
	return &MemorySender{
		sent: make([]Datagram, 0),
	}
}

// Send appends a copy of the datagram to the in-memory slice.
func (m *MemorySender) Send(addr net.Addr, payload []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cpy := make([]byte, len(payload))
	copy(cpy, payload)
	m.sent = append(m.sent, Datagram{Addr: addr, Payload: cpy})
}

// Count returns the number of datagrams captured.
func (m *MemorySender) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sent)
}

// Get returns the datagram at the specified index.
func (m *MemorySender) Get(index int) Datagram {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.sent[index]
}

// Messages returns a copy of all captured datagrams.
func (m *MemorySender) Messages() []Datagram {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Datagram, len(m.sent))
	copy(out, m.sent)
	return out
}
