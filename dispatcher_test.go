package auction

import (
	"context"
	"fmt"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0x5487/auction-directory/protocol"
)

var clientAddr = &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 50123}

func newTestDispatcher(t *testing.T, store *Store) (*Dispatcher, *MemorySender) {
	t.Helper()

	sender := NewMemorySender()
	dispatcher := NewDispatcher(DefaultConfig(), store, sender)
	go func() {
		_ = dispatcher.Start()
	}()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = dispatcher.Shutdown(ctx)
	})

	return dispatcher, sender
}

// send parses a request line and enqueues it, then flushes the
// dispatcher loop so the response is captured before returning.
func send(t *testing.T, dispatcher *Dispatcher, line string) {
	t.Helper()

	req, err := protocol.ParseRequest([]byte(line))
	require.NoError(t, err)
	require.NoError(t, dispatcher.EnqueueRequest(context.Background(), req, clientAddr))

	_, err = dispatcher.State()
	require.NoError(t, err)
}

func lastResponse(t *testing.T, sender *MemorySender) string {
	t.Helper()
	require.Greater(t, sender.Count(), 0)
	return string(sender.Get(sender.Count() - 1).Payload)
}

func TestRegisterFlow(t *testing.T) {
	dispatcher, sender := newTestDispatcher(t, nil)

	send(t, dispatcher, "REGISTER 1 Alice Seller 127.0.0.1 6001 40001")
	assert.Equal(t, "REGISTERED 1", lastResponse(t, sender))

	send(t, dispatcher, "REGISTER 2 Alice Buyer 127.0.0.1 6002 40002")
	assert.Equal(t, "REGISTER-DENIED 2 NameInUse", lastResponse(t, sender))
}

func TestRegisterServerFull(t *testing.T) {
	dispatcher, sender := newTestDispatcher(t, nil)

	for i := 0; i < 4; i++ {
		send(t, dispatcher, fmt.Sprintf("REGISTER %d user-%d Buyer 127.0.0.1 600%d 40001", i, i, i))
		assert.Equal(t, fmt.Sprintf("REGISTERED %d", i), lastResponse(t, sender))
	}

	send(t, dispatcher, "REGISTER 9 user-9 Buyer 127.0.0.1 6009 40001")
	assert.Equal(t, "REGISTER-DENIED 9 ServerFull", lastResponse(t, sender))
}

func TestLoginFlow(t *testing.T) {
	dispatcher, sender := newTestDispatcher(t, nil)

	send(t, dispatcher, "REGISTER 1 Alice Seller 127.0.0.1 6001 40001")

	send(t, dispatcher, "LOGIN 2 Alice Seller")
	assert.Equal(t, "LOGIN_OK 2", lastResponse(t, sender))

	send(t, dispatcher, "LOGIN 3 Alice Buyer")
	assert.Equal(t, "LOGIN-DENIED 3 NotFound", lastResponse(t, sender))

	send(t, dispatcher, "LOGIN 4 Carol Seller")
	assert.Equal(t, "LOGIN-DENIED 4 NotFound", lastResponse(t, sender))
}

func TestDeregisterAlwaysSucceeds(t *testing.T) {
	dispatcher, sender := newTestDispatcher(t, nil)

	send(t, dispatcher, "REGISTER 1 Alice Seller 127.0.0.1 6001 40001")

	send(t, dispatcher, "DE-REGISTER 2 Alice")
	assert.Equal(t, "DE-REGISTERED 2", lastResponse(t, sender))

	// De-registering an absent name is still success on the wire.
	send(t, dispatcher, "DE-REGISTER 3 Alice")
	assert.Equal(t, "DE-REGISTERED 3", lastResponse(t, sender))

	snap, err := dispatcher.State()
	require.NoError(t, err)
	assert.Empty(t, snap.Participants)
}

func TestListItemLifecycle(t *testing.T) {
	dispatcher, sender := newTestDispatcher(t, nil)
	ctx := context.Background()

	send(t, dispatcher, "REGISTER 1 Alice Seller 127.0.0.1 6001 40001")
	send(t, dispatcher, "LIST_ITEM 2 Alice Vase antique 10.00 3")

	resp := lastResponse(t, sender)
	tokens := strings.Fields(resp)
	require.Len(t, tokens, 3)
	assert.Equal(t, "ITEM_LISTED", tokens[0])
	assert.Equal(t, "2", tokens[1])
	itemID := tokens[2]

	for i := 0; i < 3; i++ {
		require.NoError(t, dispatcher.Tick(ctx))
	}

	snap, err := dispatcher.State()
	require.NoError(t, err)
	assert.Empty(t, snap.Listings, "item %s should expire after 3 ticks", itemID)
}

func TestListItemDeniedLeavesStoreUnchanged(t *testing.T) {
	dispatcher, sender := newTestDispatcher(t, nil)

	send(t, dispatcher, "REGISTER 1 Alice Seller 127.0.0.1 6001 40001")
	send(t, dispatcher, "LIST_ITEM 2 Alice Vase antique abc 3")
	assert.Equal(t, "LIST-DENIED 2 InvalidPrice", lastResponse(t, sender))

	snap, err := dispatcher.State()
	require.NoError(t, err)
	assert.Empty(t, snap.Listings)
}

func TestSubscribeBeforeListingThenAnnounce(t *testing.T) {
	dispatcher, sender := newTestDispatcher(t, nil)
	ctx := context.Background()

	send(t, dispatcher, "REGISTER 1 Alice Seller 127.0.0.1 6001 40001")
	send(t, dispatcher, "REGISTER 2 Bob Buyer 127.0.0.1 6002 40002")

	// Bob pre-registers interest before any such item exists.
	send(t, dispatcher, "SUBSCRIBE 3 Bob Vase")
	assert.Equal(t, "SUBSCRIBED 3", lastResponse(t, sender))

	send(t, dispatcher, "LIST_ITEM 4 Alice Vase antique 10.00 30")
	itemID := strings.Fields(lastResponse(t, sender))[2]

	before := sender.Count()
	require.NoError(t, dispatcher.Announce(ctx))
	_, err := dispatcher.State()
	require.NoError(t, err)

	require.Equal(t, before+1, sender.Count(), "exactly one announcement expected")
	announce := sender.Get(sender.Count() - 1)
	assert.Equal(t, "AUCTION_ANNOUNCE "+itemID+" Vase antique 10.00 30", string(announce.Payload))
	assert.Equal(t, "127.0.0.1:6002", announce.Addr.String())
}

func TestAnnounceSkipsDeregisteredBuyer(t *testing.T) {
	dispatcher, sender := newTestDispatcher(t, nil)
	ctx := context.Background()

	send(t, dispatcher, "REGISTER 1 Alice Seller 127.0.0.1 6001 40001")
	send(t, dispatcher, "REGISTER 2 Bob Buyer 127.0.0.1 6002 40002")
	send(t, dispatcher, "SUBSCRIBE 3 Bob Vase")
	send(t, dispatcher, "LIST_ITEM 4 Alice Vase antique 10.00 30")
	send(t, dispatcher, "DE-REGISTER 5 Bob")

	before := sender.Count()
	require.NoError(t, dispatcher.Announce(ctx))
	_, err := dispatcher.State()
	require.NoError(t, err)

	assert.Equal(t, before, sender.Count(), "deregistered buyer must be skipped silently")
}

func TestDesubscribeSharedSuccessToken(t *testing.T) {
	dispatcher, sender := newTestDispatcher(t, nil)

	send(t, dispatcher, "REGISTER 1 Bob Buyer 127.0.0.1 6002 40002")
	send(t, dispatcher, "SUBSCRIBE 2 Bob Vase")

	send(t, dispatcher, "DE-SUBSCRIBE 3 Bob Vase")
	assert.Equal(t, "SUBSCRIBED 3", lastResponse(t, sender))

	send(t, dispatcher, "DE-SUBSCRIBE 4 Bob Vase")
	assert.Equal(t, "DE-SUBSCRIBE-DENIED 4 NoSubscription", lastResponse(t, sender))

	// Subscribe again after the unsubscribe; no residual state.
	send(t, dispatcher, "SUBSCRIBE 5 Bob Vase")
	assert.Equal(t, "SUBSCRIBED 5", lastResponse(t, sender))
}

func TestSubscribeDenials(t *testing.T) {
	dispatcher, sender := newTestDispatcher(t, nil)

	send(t, dispatcher, "REGISTER 1 Alice Seller 127.0.0.1 6001 40001")

	send(t, dispatcher, "SUBSCRIBE 2 Carol Vase")
	assert.Equal(t, "SUBSCRIBE-DENIED 2 NotBuyerOrNotFound", lastResponse(t, sender))

	send(t, dispatcher, "SUBSCRIBE 3 Alice Vase")
	assert.Equal(t, "SUBSCRIBE-DENIED 3 NotBuyerOrNotFound", lastResponse(t, sender))
}

func TestShutdownPersistsState(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)

	sender := NewMemorySender()
	dispatcher := NewDispatcher(DefaultConfig(), store, sender)
	go func() {
		_ = dispatcher.Start()
	}()

	send(t, dispatcher, "REGISTER 1 Alice Seller 127.0.0.1 6001 40001")
	send(t, dispatcher, "LIST_ITEM 2 Alice Vase antique 10.00 3")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, dispatcher.Shutdown(ctx))

	// A fresh dispatcher restored from the same store sees the state.
	restored := NewDispatcher(DefaultConfig(), store, NewMemorySender())
	participants, err := store.LoadParticipants()
	require.NoError(t, err)
	listings, err := store.LoadListings()
	require.NoError(t, err)
	subscriptions, err := store.LoadSubscriptions()
	require.NoError(t, err)
	restored.Restore(participants, listings, subscriptions)

	go func() {
		_ = restored.Start()
	}()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = restored.Shutdown(ctx)
	})

	snap, err := restored.State()
	require.NoError(t, err)
	require.Len(t, snap.Participants, 1)
	assert.Equal(t, "Alice", snap.Participants[0].Name)
	require.Len(t, snap.Listings, 1)
	assert.Equal(t, "Vase", snap.Listings[0].ItemName)
}

func TestEnqueueAfterShutdown(t *testing.T) {
	sender := NewMemorySender()
	dispatcher := NewDispatcher(DefaultConfig(), nil, sender)
	go func() {
		_ = dispatcher.Start()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, dispatcher.Shutdown(ctx))

	req, err := protocol.ParseRequest([]byte("LOGIN 1 Alice Seller"))
	require.NoError(t, err)
	assert.ErrorIs(t, dispatcher.EnqueueRequest(ctx, req, clientAddr), ErrShutdown)
	assert.ErrorIs(t, dispatcher.Tick(ctx), ErrShutdown)
}
