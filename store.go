package auction

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

const (
	participantsFile  = "participants.json"
	listingsFile      = "listings.json"
	subscriptionsFile = "subscriptions.json"
)

// Store persists the three state snapshots as JSON files. Each write
// goes to a temp file first and is renamed into place, so a crash
// mid-write never leaves a truncated snapshot behind.
type Store struct {
	dir string
}

// NewStore creates a store rooted at dir. The directory is created on
// first write.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// SaveParticipants writes the registry snapshot.
func (s *Store) SaveParticipants(participants []Participant) error {
	return s.write(participantsFile, participants)
}

// LoadParticipants reads the registry snapshot. A missing file is an
// empty registry, not an error.
func (s *Store) LoadParticipants() ([]Participant, error) {
	var participants []Participant
	if err := s.read(participantsFile, &participants); err != nil {
		return nil, err
	}
	return participants, nil
}

// SaveListings writes the listing snapshot.
func (s *Store) SaveListings(listings []Listing) error {
	return s.write(listingsFile, listings)
}

// LoadListings reads the listing snapshot.
func (s *Store) LoadListings() ([]Listing, error) {
	var listings []Listing
	if err := s.read(listingsFile, &listings); err != nil {
		return nil, err
	}
	return listings, nil
}

// SaveSubscriptions writes the subscription snapshot.
func (s *Store) SaveSubscriptions(subscriptions []Subscription) error {
	return s.write(subscriptionsFile, subscriptions)
}

// LoadSubscriptions reads the subscription snapshot.
func (s *Store) LoadSubscriptions() ([]Subscription, error) {
	var subscriptions []Subscription
	if err := s.read(subscriptionsFile, &subscriptions); err != nil {
		return nil, err
	}
	return subscriptions, nil
}

func (s *Store) write(name string, v any) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	path := filepath.Join(s.dir, name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func (s *Store) read(name string, v any) error {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	return json.Unmarshal(data, v)
}
