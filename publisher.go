package auction

import (
	"context"
	"time"

	"github.com/0x5487/auction-directory/protocol"
)

// announce runs one announcement pass on the dispatcher goroutine: for
// every live listing, every subscriber of its item name that still
// resolves to a registry endpoint gets one AUCTION_ANNOUNCE datagram.
// Buyers without a resolvable endpoint are skipped silently; delivery
// is fire-and-forget.
func (d *Dispatcher) announce() {
	for _, listing := range d.listings.Snapshot() {
		payload := protocol.Announce(listing.ID, listing.ItemName, listing.Description, listing.StartPrice, listing.Remaining)
		for _, buyer := range d.subscriptions.SubscribersOf(listing.ItemName) {
			p := d.registry.Find(buyer)
			if p == nil {
				continue
			}
			addr, err := p.Endpoint.AnnounceAddr()
			if err != nil {
				logger.Debug("skipping unresolvable subscriber endpoint",
					"buyer", buyer, "host", p.Endpoint.Host, "port", p.Endpoint.AnnouncePort)
				continue
			}
			d.sender.Send(addr, payload)
		}
	}
}

// RunTimers drives the countdown tick and the announcement pass until
// the context ends. Both feed the dispatcher's command channel, so
// they share its serialization with the request path.
func (d *Dispatcher) RunTimers(ctx context.Context) {
	tick := time.NewTicker(d.cfg.TickInterval)
	defer tick.Stop()
	announce := time.NewTicker(d.cfg.AnnounceInterval)
	defer announce.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
			if err := d.Tick(ctx); err != nil {
				return
			}
		case <-announce.C:
			if err := d.Announce(ctx); err != nil {
				return
			}
		}
	}
}
