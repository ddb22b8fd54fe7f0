package auction

import (
	"context"
	"errors"
	"net"
	"sync/atomic"
	"time"

	"github.com/0x5487/auction-directory/protocol"
)

// CommandType represents the type of command sent to the dispatcher.
type CommandType int

const (
	CmdRequest CommandType = iota
	CmdTick
	CmdAnnounce
	CmdState
)

// Command is the unified carrier for everything entering the
// dispatcher loop. A single channel keeps request handling, the
// countdown tick, and the announcement pass strictly serialized.
type Command struct {
	Type    CommandType
	Payload any
	Resp    chan any // Optional: for synchronous response (e.g. CmdState)
}

// InboundRequest pairs a parsed request with the address its response
// goes back to.
type InboundRequest struct {
	Request *protocol.Request
	Addr    net.Addr
}

// Dispatcher owns the registry, the listing store, and the
// subscription index. Every mutation happens on the goroutine running
// Start, so the tables need no lock of their own.
type Dispatcher struct {
	cfg              Config
	registry         *Registry
	listings         *ListingStore
	subscriptions    *SubscriptionIndex
	store            *Store
	sender           Sender
	isShutdown       atomic.Bool
	cmdChan          chan Command
	done             chan struct{}
	shutdownComplete chan struct{}
}

// NewDispatcher creates a dispatcher with empty tables. A nil store
// disables persistence.
func NewDispatcher(cfg Config, store *Store, sender Sender) *Dispatcher {
	registry := NewRegistry(cfg.MaxParticipants)
	return &Dispatcher{
		cfg:              cfg,
		registry:         registry,
		listings:         NewListingStore(cfg.MaxSellerListings, registry),
		subscriptions:    NewSubscriptionIndex(registry),
		store:            store,
		sender:           sender,
		cmdChan:          make(chan Command, 1024),
		done:             make(chan struct{}),
		shutdownComplete: make(chan struct{}),
	}
}

// Restore loads previously persisted state into the tables. It must be
// called before Start.
func (d *Dispatcher) Restore(participants []Participant, listings []Listing, subscriptions []Subscription) {
	d.registry.Restore(participants)
	d.listings.Restore(listings)
	d.subscriptions.Restore(subscriptions)
}

// EnqueueRequest submits a parsed request for processing. Exactly one
// response datagram will be sent to addr when it is handled.
func (d *Dispatcher) EnqueueRequest(ctx context.Context, req *protocol.Request, addr net.Addr) error {
	if d.isShutdown.Load() {
		return ErrShutdown
	}

	select {
	case d.cmdChan <- Command{Type: CmdRequest, Payload: &InboundRequest{Request: req, Addr: addr}}:
		return nil
	case <-ctx.Done():
		return ErrTimeout
	}
}

// Tick submits one countdown pass.
func (d *Dispatcher) Tick(ctx context.Context) error {
	return d.enqueue(ctx, Command{Type: CmdTick})
}

// Announce submits one announcement pass.
func (d *Dispatcher) Announce(ctx context.Context) error {
	return d.enqueue(ctx, Command{Type: CmdAnnounce})
}

func (d *Dispatcher) enqueue(ctx context.Context, cmd Command) error {
	if d.isShutdown.Load() {
		return ErrShutdown
	}

	select {
	case d.cmdChan <- cmd:
		return nil
	case <-ctx.Done():
		return ErrTimeout
	}
}

// State returns a read-only snapshot of all three tables. Because the
// query is serialized behind every previously enqueued command, it
// doubles as a flush barrier in tests.
func (d *Dispatcher) State() (*StateSnapshot, error) {
	respChan := make(chan any, 1)

	select {
	case d.cmdChan <- Command{Type: CmdState, Resp: respChan}:
	case <-time.After(time.Second):
		return nil, ErrTimeout
	}

	select {
	case res := <-respChan:
		if snap, ok := res.(*StateSnapshot); ok {
			return snap, nil
		}
		return nil, nil
	case <-time.After(time.Second):
		return nil, ErrTimeout
	}
}

// Start runs the dispatcher loop. It returns nil after Shutdown has
// drained the pending commands and persisted the final state.
func (d *Dispatcher) Start() error {
	for {
		select {
		case <-d.done:
			return d.drain()
		case cmd := <-d.cmdChan:
			d.handle(cmd)
		}
	}
}

// Shutdown stops the dispatcher and blocks until pending commands are
// drained and the final snapshots are written, or the context ends.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	if d.isShutdown.CompareAndSwap(false, true) {
		close(d.done)
	}

	select {
	case <-d.shutdownComplete:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) drain() error {
	for {
		select {
		case cmd := <-d.cmdChan:
			d.handle(cmd)
		default:
			d.persistAll()
			close(d.shutdownComplete)
			return nil
		}
	}
}

func (d *Dispatcher) handle(cmd Command) {
	switch cmd.Type {
	case CmdRequest:
		if in, ok := cmd.Payload.(*InboundRequest); ok {
			d.handleRequest(in)
		}
	case CmdTick:
		d.tick()
	case CmdAnnounce:
		d.announce()
	case CmdState:
		snap := &StateSnapshot{
			Participants:  d.registry.Snapshot(),
			Listings:      d.listings.Snapshot(),
			Subscriptions: d.subscriptions.Snapshot(),
		}
		if cmd.Resp != nil {
			select {
			case cmd.Resp <- snap:
			default:
			}
		}
	}
}

// handleRequest applies one request against the tables and sends
// exactly one response back to the sender's address.
func (d *Dispatcher) handleRequest(in *InboundRequest) {
	req := in.Request

	switch req.Type {
	case protocol.CmdRegister:
		payload, ok := req.Payload.(*protocol.RegisterRequest)
		if !ok {
			return
		}
		endpoint := Endpoint{Host: payload.Host, AnnouncePort: payload.AnnouncePort, ReservedPort: payload.ReservedPort}
		if err := d.registry.Register(payload.Name, payload.Role, endpoint); err != nil {
			logger.Info("registration denied", "name", payload.Name, "reason", err.Error())
			d.respond(in, protocol.Denied(protocol.CmdRegister, req.RequestID, denialReason(err)))
			return
		}
		logger.Info("participant registered", "name", payload.Name, "role", string(payload.Role))
		d.persistParticipants()
		d.respond(in, protocol.Registered(req.RequestID))

	case protocol.CmdLogin:
		payload, ok := req.Payload.(*protocol.LoginRequest)
		if !ok {
			return
		}
		if err := d.registry.Login(payload.Name, payload.Role); err != nil {
			logger.Info("login denied", "name", payload.Name, "role", string(payload.Role))
			d.respond(in, protocol.Denied(protocol.CmdLogin, req.RequestID, denialReason(err)))
			return
		}
		logger.Info("login ok", "name", payload.Name, "role", string(payload.Role))
		d.respond(in, protocol.LoginOK(req.RequestID))

	case protocol.CmdDeregister:
		payload, ok := req.Payload.(*protocol.DeregisterRequest)
		if !ok {
			return
		}
		if d.registry.Deregister(payload.Name) {
			logger.Info("participant de-registered", "name", payload.Name)
			d.persistParticipants()
		} else {
			logger.Info("de-register no-op, name not active", "name", payload.Name)
		}
		d.respond(in, protocol.Deregistered(req.RequestID))

	case protocol.CmdListItem:
		payload, ok := req.Payload.(*protocol.ListItemRequest)
		if !ok {
			return
		}
		listing, err := d.listings.Add(payload.Seller, payload.ItemName, payload.Description, payload.PriceText, payload.DurationText)
		if err != nil {
			logger.Info("listing denied", "seller", payload.Seller, "item", payload.ItemName, "reason", err.Error())
			d.respond(in, protocol.Denied(protocol.CmdListItem, req.RequestID, denialReason(err)))
			return
		}
		logger.Info("item listed", "seller", payload.Seller, "item", listing.ItemName, "item_id", listing.ID, "remaining", listing.Remaining)
		d.persistListings()
		d.respond(in, protocol.ItemListed(req.RequestID, listing.ID))

	case protocol.CmdSubscribe:
		payload, ok := req.Payload.(*protocol.SubscribeRequest)
		if !ok {
			return
		}
		if err := d.subscriptions.Subscribe(payload.Buyer, payload.ItemName); err != nil {
			logger.Info("subscribe denied", "buyer", payload.Buyer, "item", payload.ItemName, "reason", err.Error())
			d.respond(in, protocol.Denied(protocol.CmdSubscribe, req.RequestID, denialReason(err)))
			return
		}
		logger.Info("subscribed", "buyer", payload.Buyer, "item", payload.ItemName)
		d.persistSubscriptions()
		d.respond(in, protocol.Subscribed(req.RequestID))

	case protocol.CmdDesubscribe:
		payload, ok := req.Payload.(*protocol.SubscribeRequest)
		if !ok {
			return
		}
		if err := d.subscriptions.Unsubscribe(payload.Buyer, payload.ItemName); err != nil {
			logger.Info("de-subscribe denied", "buyer", payload.Buyer, "item", payload.ItemName, "reason", err.Error())
			d.respond(in, protocol.Denied(protocol.CmdDesubscribe, req.RequestID, denialReason(err)))
			return
		}
		logger.Info("de-subscribed", "buyer", payload.Buyer, "item", payload.ItemName)
		d.persistSubscriptions()
		// The success token is shared with SUBSCRIBE for wire
		// compatibility with deployed participant agents.
		d.respond(in, protocol.Subscribed(req.RequestID))
	}
}

// tick runs one countdown pass and persists the listings only when at
// least one expired, trading durability of intermediate countdowns for
// write volume.
func (d *Dispatcher) tick() {
	expired := d.listings.Tick()
	if len(expired) == 0 {
		return
	}
	for _, id := range expired {
		logger.Info("listing expired", "item_id", id)
	}
	d.persistListings()
}

func (d *Dispatcher) respond(in *InboundRequest, payload []byte) {
	d.sender.Send(in.Addr, payload)
}

func (d *Dispatcher) persistAll() {
	d.persistParticipants()
	d.persistListings()
	d.persistSubscriptions()
}

func (d *Dispatcher) persistParticipants() {
	if d.store == nil {
		return
	}
	if err := d.store.SaveParticipants(d.registry.Snapshot()); err != nil {
		logger.Error("persisting participants failed", "error", err.Error())
	}
}

func (d *Dispatcher) persistListings() {
	if d.store == nil {
		return
	}
	if err := d.store.SaveListings(d.listings.Snapshot()); err != nil {
		logger.Error("persisting listings failed", "error", err.Error())
	}
}

func (d *Dispatcher) persistSubscriptions() {
	if d.store == nil {
		return
	}
	if err := d.store.SaveSubscriptions(d.subscriptions.Snapshot()); err != nil {
		logger.Error("persisting subscriptions failed", "error", err.Error())
	}
}

// denialReason maps a table error to its wire reason token.
func denialReason(err error) protocol.Reason {
	switch {
	case errors.Is(err, ErrNameInUse):
		return protocol.ReasonNameInUse
	case errors.Is(err, ErrServerFull):
		return protocol.ReasonServerFull
	case errors.Is(err, ErrNotFound):
		return protocol.ReasonNotFound
	case errors.Is(err, ErrUserNotFound):
		return protocol.ReasonUserNotFound
	case errors.Is(err, ErrNotSeller):
		return protocol.ReasonNotSeller
	case errors.Is(err, ErrInvalidName):
		return protocol.ReasonInvalidName
	case errors.Is(err, ErrInvalidPrice):
		return protocol.ReasonInvalidPrice
	case errors.Is(err, ErrInvalidDuration):
		return protocol.ReasonInvalidDuration
	case errors.Is(err, ErrSellerAtCapacity):
		return protocol.ReasonSellerAtCapacity
	case errors.Is(err, ErrNotBuyerOrNotFound):
		return protocol.ReasonNotBuyerOrNotFound
	case errors.Is(err, ErrAlreadySubscribed):
		return protocol.ReasonAlreadySubscribed
	case errors.Is(err, ErrNoSubscription):
		return protocol.ReasonNoSubscription
	}
	return protocol.Reason("Internal")
}
