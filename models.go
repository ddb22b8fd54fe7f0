package auction

import (
	"net"

	"github.com/shopspring/decimal"

	"github.com/0x5487/auction-directory/protocol"
)

type Role = protocol.Role

const (
	RoleSeller Role = protocol.RoleSeller
	RoleBuyer  Role = protocol.RoleBuyer
)

// Endpoint is where a participant receives datagrams. The reserved
// port is carried opaquely for a future direct transport; this core
// never dials it.
type Endpoint struct {
	Host         string `json:"host"`
	AnnouncePort string `json:"announce_port"`
	ReservedPort string `json:"reserved_port"`
}

// AnnounceAddr resolves the endpoint's unsolicited-notification
// address.
func (e Endpoint) AnnounceAddr() (*net.UDPAddr, error) {
	return net.ResolveUDPAddr("udp", net.JoinHostPort(e.Host, e.AnnouncePort))
}

// Participant is an active registered or logged-in actor.
// The name is the primary key and immutable while active.
type Participant struct {
	Name     string   `json:"name"`
	Role     Role     `json:"role"`
	Endpoint Endpoint `json:"endpoint"`
}

// Listing is a seller's item on offer. Ownership is held by seller
// name, never by pointer, so a listing survives its seller's
// de-registration and expires on time alone.
type Listing struct {
	ID          string          `json:"id"`
	Owner       string          `json:"owner"`
	ItemName    string          `json:"item_name"`
	Description string          `json:"description"`
	StartPrice  decimal.Decimal `json:"start_price"`
	Remaining   int64           `json:"remaining"`

	// seq fixes the creation order for snapshots; not serialized.
	seq uint64
}

// Subscription is a buyer's standing interest in an item name. It does
// not require a matching listing to exist.
type Subscription struct {
	Buyer    string `json:"buyer"`
	ItemName string `json:"item_name"`
}

// StateSnapshot is a read-only copy of all three tables, served to the
// operator console and to tests.
type StateSnapshot struct {
	Participants  []Participant  `json:"participants"`
	Listings      []Listing      `json:"listings"`
	Subscriptions []Subscription `json:"subscriptions"`
}
