package profile

import (
	"sync"
	"time"
)

// Store defines the interface for profile data operations.
//
// ApplyInteraction must serialize concurrent writers for the same profile;
// Get returns an independent snapshot safe for concurrent reads.
type Store interface {
	// Get retrieves a profile snapshot by user ID.
	Get(userID string) (*Profile, error)

	// Put creates or replaces a profile.
	Put(p *Profile) error

	// ApplyInteraction folds an interaction into the stored profile under
	// the store's write lock and returns the updated snapshot.
	ApplyInteraction(userID string, interaction Interaction) (*Profile, error)
}

// InMemoryStore is an in-memory implementation of Store.
// Thread-safe via RWMutex; the single lock enforces the single-writer
// discipline profile mutation requires.
type InMemoryStore struct {
	mu       sync.RWMutex
	profiles map[string]*Profile
}

// NewInMemoryStore creates a new in-memory profile store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		profiles: make(map[string]*Profile),
	}
}

// Get retrieves a profile snapshot by user ID.
func (s *InMemoryStore) Get(userID string) (*Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[userID]
	if !ok {
		return nil, ErrProfileNotFound
	}
	return snapshot(p), nil
}

// Put creates or replaces a profile.
func (s *InMemoryStore) Put(p *Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := snapshot(p)
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now()
	}
	stored.UpdatedAt = time.Now()
	s.profiles[p.UserID] = stored
	return nil
}

// ApplyInteraction folds an interaction into the stored profile.
// Unknown users get a fresh profile so first-touch interactions are not lost.
func (s *InMemoryStore) ApplyInteraction(userID string, interaction Interaction) (*Profile, error) {
	if err := interaction.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.profiles[userID]
	if !ok {
		p = &Profile{UserID: userID, CreatedAt: time.Now()}
		s.profiles[userID] = p
	}
	p.Apply(interaction)
	return snapshot(p), nil
}

// snapshot returns a deep copy so callers cannot mutate stored state.
func snapshot(p *Profile) *Profile {
	cp := *p
	cp.Interests = append([]string(nil), p.Interests...)
	cp.BrowsingHistory = append([]string(nil), p.BrowsingHistory...)
	cp.Engagement.PreferredCategories = append([]string(nil), p.Engagement.PreferredCategories...)
	cp.Engagement.TimeOfDayEngagement = append([]int(nil), p.Engagement.TimeOfDayEngagement...)
	return &cp
}
