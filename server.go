package auction

import (
	"context"
	"errors"
	"net"

	"github.com/0x5487/auction-directory/protocol"
)

// Server is the UDP receive loop. It reads request datagrams, parses
// them, and enqueues them on the dispatcher; responses go back through
// the shared socket. Malformed datagrams are dropped without a
// response, since their request identifier cannot be trusted.
type Server struct {
	dispatcher *Dispatcher
	conn       net.PacketConn
}

// NewServer wires a receive loop to conn and the dispatcher. The
// caller keeps ownership of conn; closing it stops Serve.
func NewServer(dispatcher *Dispatcher, conn net.PacketConn) *Server {
	return &Server{dispatcher: dispatcher, conn: conn}
}

// Serve blocks reading datagrams until the connection closes or the
// context ends.
func (s *Server) Serve(ctx context.Context) error {
	logger.Info("listening for request datagrams", "addr", s.conn.LocalAddr().String())

	buf := make([]byte, 2048)
	for {
		n, addr, err := s.conn.ReadFrom(buf)
		if err != nil {
			if errors.Is(err, net.ErrClosed) || ctx.Err() != nil {
				return nil
			}
			return err
		}

		req, err := protocol.ParseRequest(buf[:n])
		if err != nil {
			logger.Debug("dropping malformed datagram", "addr", addr.String(), "payload", string(buf[:n]))
			continue
		}

		if err := s.dispatcher.EnqueueRequest(ctx, req, addr); err != nil {
			if errors.Is(err, ErrShutdown) {
				return nil
			}
			logger.Warn("dropping request, dispatcher unavailable", "addr", addr.String(), "error", err.Error())
		}
	}
}
