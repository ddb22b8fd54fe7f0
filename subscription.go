package auction

import "sort"

type subscriptionKey struct {
	buyer    string
	itemName string
}

// SubscriptionIndex is the deduplicated buyer-to-item-name interest
// graph. Both sides of a pair are weak references by value: neither
// the buyer nor any matching listing has to exist for a pair to be
// held, except that the buyer must be an active Buyer at subscribe
// time.
type SubscriptionIndex struct {
	registry *Registry
	pairs    map[subscriptionKey]struct{}
}

// NewSubscriptionIndex creates an empty index. Buyer names resolve
// through the registry at subscribe time only.
func NewSubscriptionIndex(registry *Registry) *SubscriptionIndex {
	return &SubscriptionIndex{
		registry: registry,
		pairs:    make(map[subscriptionKey]struct{}),
	}
}

// Subscribe records the buyer's interest in an item name. Subscribing
// before any matching listing exists is valid; it pre-registers
// interest.
func (i *SubscriptionIndex) Subscribe(buyer, itemName string) error {
	p := i.registry.Find(buyer)
	if p == nil || p.Role != RoleBuyer {
		return ErrNotBuyerOrNotFound
	}

	key := subscriptionKey{buyer: buyer, itemName: itemName}
	if _, ok := i.pairs[key]; ok {
		return ErrAlreadySubscribed
	}
	i.pairs[key] = struct{}{}
	return nil
}

// Unsubscribe removes a pair; a missing pair is a denial, not a silent
// success.
func (i *SubscriptionIndex) Unsubscribe(buyer, itemName string) error {
	key := subscriptionKey{buyer: buyer, itemName: itemName}
	if _, ok := i.pairs[key]; !ok {
		return ErrNoSubscription
	}
	delete(i.pairs, key)
	return nil
}

// SubscribersOf returns the buyers subscribed to an item name, sorted
// for deterministic announcement order.
func (i *SubscriptionIndex) SubscribersOf(itemName string) []string {
	var buyers []string
	for key := range i.pairs {
		if key.itemName == itemName {
			buyers = append(buyers, key.buyer)
		}
	}
	sort.Strings(buyers)
	return buyers
}

// Len returns the number of subscriptions held.
func (i *SubscriptionIndex) Len() int {
	return len(i.pairs)
}

// Snapshot returns every pair sorted by buyer then item name.
func (i *SubscriptionIndex) Snapshot() []Subscription {
	out := make([]Subscription, 0, len(i.pairs))
	for key := range i.pairs {
		out = append(out, Subscription{Buyer: key.buyer, ItemName: key.itemName})
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].Buyer != out[b].Buyer {
			return out[a].Buyer < out[b].Buyer
		}
		return out[a].ItemName < out[b].ItemName
	})
	return out
}

// Restore replaces the index with pairs loaded from disk, deduplicated.
func (i *SubscriptionIndex) Restore(subscriptions []Subscription) {
	i.pairs = make(map[subscriptionKey]struct{}, len(subscriptions))
	for _, sub := range subscriptions {
		i.pairs[subscriptionKey{buyer: sub.Buyer, itemName: sub.ItemName}] = struct{}{}
	}
}
