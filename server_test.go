package auction

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// startTestServer brings up a full server on a loopback socket and
// returns the address to send requests to.
func startTestServer(t *testing.T) *net.UDPAddr {
	t.Helper()

	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)

	dispatcher := NewDispatcher(DefaultConfig(), nil, NewUDPSender(conn))
	go func() {
		_ = dispatcher.Start()
	}()

	server := NewServer(dispatcher, conn)
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		_ = server.Serve(ctx)
	}()

	t.Cleanup(func() {
		cancel()
		conn.Close()
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), time.Second)
		defer cancelShutdown()
		_ = dispatcher.Shutdown(shutdownCtx)
	})

	return conn.LocalAddr().(*net.UDPAddr)
}

func TestServerEndToEnd(t *testing.T) {
	serverAddr := startTestServer(t)

	client, err := net.DialUDP("udp", nil, serverAddr)
	require.NoError(t, err)
	defer client.Close()

	_, err = client.Write([]byte("REGISTER 1 Alice Seller 127.0.0.1 6001 40001"))
	require.NoError(t, err)

	require.NoError(t, client.SetReadDeadline(time.Now().Add(2*time.Second)))
	buf := make([]byte, 2048)
	n, err := client.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "REGISTERED 1", string(buf[:n]))

	_, err = client.Write([]byte("LOGIN 2 Alice Seller"))
	require.NoError(t, err)

	n, err = client.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "LOGIN_OK 2", string(buf[:n]))
}

func TestServerDropsMalformedSilently(t *testing.T) {
	serverAddr := startTestServer(t)

	client, err := net.DialUDP("udp", nil, serverAddr)
	require.NoError(t, err)
	defer client.Close()

	// Malformed datagrams get no response at all; the follow-up
	// well-formed request is still answered in order.
	_, err = client.Write([]byte("NONSENSE"))
	require.NoError(t, err)
	_, err = client.Write([]byte("REGISTER 7 Bob Buyer 127.0.0.1 6002 40002"))
	require.NoError(t, err)

	require.NoError(t, client.SetReadDeadline(time.Now().Add(2*time.Second)))
	buf := make([]byte, 2048)
	n, err := client.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "REGISTERED 7", string(buf[:n]))
}
