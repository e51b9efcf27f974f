package content

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for content item data operations.
type Repository interface {
	// Upsert inserts a new item or updates an existing one keyed by slug.
	// Returns an UpsertResult indicating whether an insert or update occurred.
	Upsert(item *Item) (*UpsertResult, error)

	// GetByID retrieves an item by its UUID, excluding unpublished items.
	GetByID(id string) (*Item, error)

	// GetBySlug retrieves an item by its slug, excluding unpublished items.
	GetBySlug(slug string) (*Item, error)

	// ListCandidates returns the ranking candidate pool: published items
	// ordered by published_at DESC, id ASC (tie-breaker), up to limit.
	ListCandidates(limit int) ([]*Item, error)

	// ListTrending returns published items currently flagged as trending.
	ListTrending() ([]*Item, error)

	// SetTrending updates the trending flag for an item.
	SetTrending(id string, trending bool) error

	// SetEngagementScore updates the aggregated engagement score for an item.
	SetEngagementScore(id string, score float64) error

	// Unpublish soft-deletes an item by setting deleted_at.
	Unpublish(id string) error
}

// DefaultCandidateLimit bounds the candidate pool when no limit is given.
const DefaultCandidateLimit = 200

// InMemoryRepository is an in-memory implementation of Repository.
// Thread-safe via RWMutex.
type InMemoryRepository struct {
	mu    sync.RWMutex
	items map[string]*Item  // UUID -> Item
	slugs map[string]string // slug -> UUID
}

// NewInMemoryRepository creates a new in-memory content repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		items: make(map[string]*Item),
		slugs: make(map[string]string),
	}
}

// Upsert inserts a new item or updates an existing one keyed by slug.
func (r *InMemoryRepository) Upsert(item *Item) (*UpsertResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	if id, ok := r.slugs[item.Slug]; ok {
		existing := r.items[id]
		updated := *item
		updated.ID = id
		updated.CreatedAt = existing.CreatedAt
		updated.UpdatedAt = now
		r.items[id] = &updated
		return &UpsertResult{Inserted: false, ID: id}, nil
	}

	stored := *item
	if stored.ID == "" {
		stored.ID = uuid.New().String()
	}
	stored.CreatedAt = now
	stored.UpdatedAt = now
	r.items[stored.ID] = &stored
	r.slugs[stored.Slug] = stored.ID
	return &UpsertResult{Inserted: true, ID: stored.ID}, nil
}

// GetByID retrieves an item by UUID, excluding unpublished items.
func (r *InMemoryRepository) GetByID(id string) (*Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[id]
	if !ok {
		return nil, ErrItemNotFound
	}
	if item.DeletedAt != nil {
		return nil, ErrItemDeleted
	}
	cp := *item
	return &cp, nil
}

// GetBySlug retrieves an item by slug, excluding unpublished items.
func (r *InMemoryRepository) GetBySlug(slug string) (*Item, error) {
	r.mu.RLock()
	id, ok := r.slugs[slug]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrItemNotFound
	}
	return r.GetByID(id)
}

// ListCandidates returns published items ordered by published_at DESC, id ASC.
func (r *InMemoryRepository) ListCandidates(limit int) ([]*Item, error) {
	if limit <= 0 {
		limit = DefaultCandidateLimit
	}

	r.mu.RLock()
	candidates := make([]*Item, 0, len(r.items))
	for _, item := range r.items {
		if item.DeletedAt != nil {
			continue
		}
		cp := *item
		candidates = append(candidates, &cp)
	}
	r.mu.RUnlock()

	sort.Slice(candidates, func(a, b int) bool {
		if !candidates[a].PublishedAt.Equal(candidates[b].PublishedAt) {
			return candidates[a].PublishedAt.After(candidates[b].PublishedAt)
		}
		return candidates[a].ID < candidates[b].ID
	})

	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates, nil
}

// ListTrending returns published items currently flagged as trending.
func (r *InMemoryRepository) ListTrending() ([]*Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var trending []*Item
	for _, item := range r.items {
		if item.DeletedAt == nil && item.Trending {
			cp := *item
			trending = append(trending, &cp)
		}
	}
	sort.Slice(trending, func(a, b int) bool { return trending[a].ID < trending[b].ID })
	return trending, nil
}

// SetTrending updates the trending flag for an item.
func (r *InMemoryRepository) SetTrending(id string, trending bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[id]
	if !ok {
		return ErrItemNotFound
	}
	item.Trending = trending
	item.UpdatedAt = time.Now()
	return nil
}

// SetEngagementScore updates the aggregated engagement score for an item.
func (r *InMemoryRepository) SetEngagementScore(id string, score float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[id]
	if !ok {
		return ErrItemNotFound
	}
	item.EngagementScore = score
	item.UpdatedAt = time.Now()
	return nil
}

// Unpublish soft-deletes an item by setting deleted_at.
func (r *InMemoryRepository) Unpublish(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[id]
	if !ok {
		return ErrItemNotFound
	}
	if item.DeletedAt != nil {
		return ErrItemDeleted
	}
	now := time.Now()
	item.DeletedAt = &now
	item.UpdatedAt = now
	return nil
}
