package profile

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/lib/pq"
)

// PostgresStore implements Store using PostgreSQL.
//
// Engagement metrics are stored as JSONB; interests and browsing history as
// text arrays. A process-local mutex serializes ApplyInteraction's
// read-modify-write cycle per store, preserving the single-writer discipline
// without row locks (the API runs a single writer per deployment).
type PostgresStore struct {
	db *sql.DB
	mu sync.Mutex
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Get retrieves a profile snapshot by user ID.
func (s *PostgresStore) Get(userID string) (*Profile, error) {
	query := `
		SELECT user_id, interests, skill_level, role, browsing_history,
		       engagement, created_at, updated_at
		FROM user_profiles
		WHERE user_id = $1
	`

	p := &Profile{}
	var engagementJSON []byte
	err := s.db.QueryRow(query, userID).Scan(
		&p.UserID,
		pq.Array(&p.Interests),
		&p.SkillLevel,
		&p.Role,
		pq.Array(&p.BrowsingHistory),
		&engagementJSON,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	if len(engagementJSON) > 0 {
		if err := json.Unmarshal(engagementJSON, &p.Engagement); err != nil {
			return nil, fmt.Errorf("failed to decode engagement metrics: %w", err)
		}
	}
	return p, nil
}

// Put creates or replaces a profile.
func (s *PostgresStore) Put(p *Profile) error {
	engagementJSON, err := json.Marshal(p.Engagement)
	if err != nil {
		return fmt.Errorf("failed to encode engagement metrics: %w", err)
	}

	query := `
		INSERT INTO user_profiles (
			user_id, interests, skill_level, role, browsing_history,
			engagement, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		ON CONFLICT (user_id) DO UPDATE SET
			interests = EXCLUDED.interests,
			skill_level = EXCLUDED.skill_level,
			role = EXCLUDED.role,
			browsing_history = EXCLUDED.browsing_history,
			engagement = EXCLUDED.engagement,
			updated_at = NOW()
	`

	_, err = s.db.Exec(
		query,
		p.UserID,
		pq.Array(p.Interests),
		p.SkillLevel,
		p.Role,
		pq.Array(p.BrowsingHistory),
		engagementJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to put profile: %w", err)
	}
	return nil
}

// ApplyInteraction folds an interaction into the stored profile.
// Unknown users get a fresh profile so first-touch interactions are not lost.
func (s *PostgresStore) ApplyInteraction(userID string, interaction Interaction) (*Profile, error) {
	if err := interaction.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.Get(userID)
	if err == ErrProfileNotFound {
		p = &Profile{UserID: userID}
	} else if err != nil {
		return nil, err
	}

	p.Apply(interaction)
	if err := s.Put(p); err != nil {
		return nil, err
	}
	return p, nil
}
