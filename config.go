package auction

import "time"

// Config carries the tunables of the directory core. The capacity
// defaults match the deployed behavior of the original server.
type Config struct {
	// ListenAddr is the well-known UDP address for request datagrams.
	ListenAddr string

	// ConsoleAddr is the operator console's HTTP address. Empty
	// disables the console.
	ConsoleAddr string

	// DataDir holds the three persisted snapshots.
	DataDir string

	// MaxParticipants bounds the number of active participants.
	MaxParticipants int

	// MaxSellerListings bounds a single seller's simultaneous
	// listings.
	MaxSellerListings int

	// TickInterval drives the listing countdown.
	TickInterval time.Duration

	// AnnounceInterval drives the announcement publisher.
	AnnounceInterval time.Duration
}

// DefaultConfig returns the behavior-parity defaults.
func DefaultConfig() Config {
	return Config{
		ListenAddr:        "127.0.0.1:5000",
		ConsoleAddr:       "",
		DataDir:           ".",
		MaxParticipants:   4,
		MaxSellerListings: 4,
		TickInterval:      time.Second,
		AnnounceInterval:  5 * time.Second,
	}
}
