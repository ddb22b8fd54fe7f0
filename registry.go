package auction

import "sort"

// Registry is the authoritative table of active participants. It is
// not safe for concurrent use; the dispatcher goroutine owns it.
type Registry struct {
	capacity     int
	participants map[string]*Participant
}

// NewRegistry creates a registry bounded at capacity active
// participants.
func NewRegistry(capacity int) *Registry {
	return &Registry{
		capacity:     capacity,
		participants: make(map[string]*Participant),
	}
}

// Register inserts a new participant. The duplicate-name check runs
// before the capacity check, and capacity compares the count before
// insertion.
func (r *Registry) Register(name string, role Role, endpoint Endpoint) error {
	if _, ok := r.participants[name]; ok {
		return ErrNameInUse
	}
	if len(r.participants) >= r.capacity {
		return ErrServerFull
	}

	r.participants[name] = &Participant{Name: name, Role: role, Endpoint: endpoint}
	return nil
}

// Login reattaches to an existing participant. Both name and role must
// match exactly; a role mismatch is indistinguishable from absence. No
// record is created and no capacity is consumed.
func (r *Registry) Login(name string, role Role) error {
	p, ok := r.participants[name]
	if !ok || p.Role != role {
		return ErrNotFound
	}
	return nil
}

// Deregister removes a participant. It reports whether a record was
// actually removed; de-registering an absent name is a no-op the
// caller still sees as success.
func (r *Registry) Deregister(name string) bool {
	if _, ok := r.participants[name]; !ok {
		return false
	}
	delete(r.participants, name)
	return true
}

// Find returns the active participant with the given name, or nil.
func (r *Registry) Find(name string) *Participant {
	return r.participants[name]
}

// Len returns the number of active participants.
func (r *Registry) Len() int {
	return len(r.participants)
}

// Snapshot returns the active participants sorted by name.
func (r *Registry) Snapshot() []Participant {
	out := make([]Participant, 0, len(r.participants))
	for _, p := range r.participants {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Restore replaces the table with records loaded from disk. Records
// beyond capacity are dropped, oldest snapshot order first retained.
func (r *Registry) Restore(participants []Participant) {
	r.participants = make(map[string]*Participant, len(participants))
	for i := range participants {
		if len(r.participants) >= r.capacity {
			logger.Warn("registry snapshot exceeds capacity, dropping remainder",
				"capacity", r.capacity, "records", len(participants))
			return
		}
		p := participants[i]
		r.participants[p.Name] = &p
	}
}
