package auction

import (
	"strconv"
	"strings"

	"github.com/huandu/skiplist"
	"github.com/rs/xid"
	"github.com/shopspring/decimal"
)

// ListingStore holds every live listing, ordered by creation. Like the
// registry it is owned by the dispatcher goroutine and is not safe for
// concurrent use.
type ListingStore struct {
	sellerCap int
	registry  *Registry
	seq       uint64
	list      *skiplist.SkipList
	elements  map[string]*skiplist.Element
}

// NewListingStore creates a store capped at sellerCap simultaneous
// listings per seller. Owner names resolve through the registry at
// creation time only.
func NewListingStore(sellerCap int, registry *Registry) *ListingStore {
	return &ListingStore{
		sellerCap: sellerCap,
		registry:  registry,
		list:      skiplist.New(skiplist.Uint64),
		elements:  make(map[string]*skiplist.Element),
	}
}

// Add validates and inserts a new listing. The checks run in a fixed
// order and the first failure wins with no partial side effects.
func (s *ListingStore) Add(owner, itemName, description, priceText, durationText string) (*Listing, error) {
	p := s.registry.Find(owner)
	if p == nil {
		return nil, ErrUserNotFound
	}
	if p.Role != RoleSeller {
		return nil, ErrNotSeller
	}

	if itemName == "" || isAllDigits(itemName) {
		return nil, ErrInvalidName
	}

	price, err := decimal.NewFromString(priceText)
	if err != nil || price.IsNegative() {
		return nil, ErrInvalidPrice
	}

	duration, err := strconv.ParseInt(strings.TrimSpace(durationText), 10, 64)
	if err != nil {
		return nil, ErrInvalidDuration
	}

	if s.CountFor(owner) >= s.sellerCap {
		return nil, ErrSellerAtCapacity
	}

	s.seq++
	l := &Listing{
		ID:          s.newID(),
		Owner:       owner,
		ItemName:    itemName,
		Description: description,
		StartPrice:  price,
		Remaining:   duration,
		seq:         s.seq,
	}
	s.elements[l.ID] = s.list.Set(l.seq, l)
	return l, nil
}

// Tick decrements every live listing's remaining duration by one,
// floored at zero, and removes every listing that reaches zero in the
// same pass. It returns the removed item IDs so the caller can stop
// announcing them and decide whether to persist.
func (s *ListingStore) Tick() []string {
	var expired []string

	el := s.list.Front()
	for el != nil {
		next := el.Next()
		l := el.Value.(*Listing)
		if l.Remaining > 0 {
			l.Remaining--
		}
		if l.Remaining <= 0 {
			delete(s.elements, l.ID)
			s.list.RemoveElement(el)
			expired = append(expired, l.ID)
		}
		el = next
	}

	return expired
}

// Get returns the live listing with the given ID, or nil.
func (s *ListingStore) Get(id string) *Listing {
	el, ok := s.elements[id]
	if !ok {
		return nil
	}
	return el.Value.(*Listing)
}

// CountFor returns the owner's live-listing count.
func (s *ListingStore) CountFor(owner string) int {
	count := 0
	for el := s.list.Front(); el != nil; el = el.Next() {
		if el.Value.(*Listing).Owner == owner {
			count++
		}
	}
	return count
}

// Len returns the number of live listings.
func (s *ListingStore) Len() int {
	return s.list.Len()
}

// Snapshot returns copies of every live listing in creation order.
func (s *ListingStore) Snapshot() []Listing {
	out := make([]Listing, 0, s.list.Len())
	for el := s.list.Front(); el != nil; el = el.Next() {
		out = append(out, *el.Value.(*Listing))
	}
	return out
}

// Restore replaces the store with records loaded from disk, keeping
// the snapshot's order as the creation order.
func (s *ListingStore) Restore(listings []Listing) {
	s.list = skiplist.New(skiplist.Uint64)
	s.elements = make(map[string]*skiplist.Element, len(listings))
	s.seq = 0
	for i := range listings {
		l := listings[i]
		s.seq++
		l.seq = s.seq
		s.elements[l.ID] = s.list.Set(l.seq, &l)
	}
}

// newID generates an item identifier that does not collide with any
// currently-live listing.
func (s *ListingStore) newID() string {
	for {
		id := xid.New().String()
		if _, ok := s.elements[id]; !ok {
			return id
		}
	}
}

func isAllDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
