package content

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository creates a new PostgresRepository.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Upsert inserts a new item or updates an existing one keyed by slug.
// Uses ON CONFLICT on the slug unique constraint so ingest replays are idempotent.
func (r *PostgresRepository) Upsert(item *Item) (*UpsertResult, error) {
	query := `
		INSERT INTO content_items (
			slug, title, excerpt, body, category, tags, difficulty,
			read_time_minutes, target_audience, engagement_score, trending,
			published_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW(), NOW())
		ON CONFLICT (slug) DO UPDATE SET
			title = EXCLUDED.title,
			excerpt = EXCLUDED.excerpt,
			body = EXCLUDED.body,
			category = EXCLUDED.category,
			tags = EXCLUDED.tags,
			difficulty = EXCLUDED.difficulty,
			read_time_minutes = EXCLUDED.read_time_minutes,
			target_audience = EXCLUDED.target_audience,
			published_at = EXCLUDED.published_at,
			deleted_at = NULL,
			updated_at = NOW()
		RETURNING id, (xmax = 0) AS inserted
	`

	var (
		id       string
		inserted bool
	)
	err := r.db.QueryRow(
		query,
		item.Slug,
		item.Title,
		item.Excerpt,
		item.Body,
		item.Category,
		pq.Array(item.Tags),
		item.Difficulty,
		item.ReadTimeMinutes,
		pq.Array(item.TargetAudience),
		item.EngagementScore,
		item.Trending,
		item.PublishedAt,
	).Scan(&id, &inserted)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert content item: %w", err)
	}

	item.ID = id
	return &UpsertResult{Inserted: inserted, ID: id}, nil
}

// itemColumns is the shared column list for item scans.
const itemColumns = `
	id, slug, title, excerpt, body, category, tags, difficulty,
	read_time_minutes, target_audience, engagement_score, trending,
	published_at, created_at, updated_at, deleted_at
`

// scanItem scans a single item row.
func scanItem(row *sql.Row) (*Item, error) {
	item := &Item{}
	var deletedAt sql.NullTime
	err := row.Scan(
		&item.ID,
		&item.Slug,
		&item.Title,
		&item.Excerpt,
		&item.Body,
		&item.Category,
		pq.Array(&item.Tags),
		&item.Difficulty,
		&item.ReadTimeMinutes,
		pq.Array(&item.TargetAudience),
		&item.EngagementScore,
		&item.Trending,
		&item.PublishedAt,
		&item.CreatedAt,
		&item.UpdatedAt,
		&deletedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan content item: %w", err)
	}
	if deletedAt.Valid {
		return nil, ErrItemDeleted
	}
	return item, nil
}

// GetByID retrieves an item by UUID, excluding unpublished items.
func (r *PostgresRepository) GetByID(id string) (*Item, error) {
	query := `SELECT ` + itemColumns + ` FROM content_items WHERE id = $1`
	return scanItem(r.db.QueryRow(query, id))
}

// GetBySlug retrieves an item by slug, excluding unpublished items.
func (r *PostgresRepository) GetBySlug(slug string) (*Item, error) {
	query := `SELECT ` + itemColumns + ` FROM content_items WHERE slug = $1`
	return scanItem(r.db.QueryRow(query, slug))
}

// ListCandidates returns published items ordered by published_at DESC, id ASC.
func (r *PostgresRepository) ListCandidates(limit int) ([]*Item, error) {
	if limit <= 0 {
		limit = DefaultCandidateLimit
	}

	query := `
		SELECT ` + itemColumns + `
		FROM content_items
		WHERE deleted_at IS NULL
		ORDER BY published_at DESC, id ASC
		LIMIT $1
	`
	return r.queryItems(query, limit)
}

// ListTrending returns published items currently flagged as trending.
func (r *PostgresRepository) ListTrending() ([]*Item, error) {
	query := `
		SELECT ` + itemColumns + `
		FROM content_items
		WHERE deleted_at IS NULL AND trending = TRUE
		ORDER BY id ASC
	`
	return r.queryItems(query)
}

// queryItems runs a multi-row item query and scans the results.
func (r *PostgresRepository) queryItems(query string, args ...interface{}) ([]*Item, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query content items: %w", err)
	}
	defer rows.Close()

	var items []*Item
	for rows.Next() {
		item := &Item{}
		var deletedAt sql.NullTime
		err := rows.Scan(
			&item.ID,
			&item.Slug,
			&item.Title,
			&item.Excerpt,
			&item.Body,
			&item.Category,
			pq.Array(&item.Tags),
			&item.Difficulty,
			&item.ReadTimeMinutes,
			pq.Array(&item.TargetAudience),
			&item.EngagementScore,
			&item.Trending,
			&item.PublishedAt,
			&item.CreatedAt,
			&item.UpdatedAt,
			&deletedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan content item: %w", err)
		}
		if deletedAt.Valid {
			item.DeletedAt = &deletedAt.Time
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate content items: %w", err)
	}
	return items, nil
}

// SetTrending updates the trending flag for an item.
func (r *PostgresRepository) SetTrending(id string, trending bool) error {
	return r.updateFlag(`UPDATE content_items SET trending = $2, updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL`, id, trending)
}

// SetEngagementScore updates the aggregated engagement score for an item.
func (r *PostgresRepository) SetEngagementScore(id string, score float64) error {
	return r.updateFlag(`UPDATE content_items SET engagement_score = $2, updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL`, id, score)
}

// Unpublish soft-deletes an item by setting deleted_at.
func (r *PostgresRepository) Unpublish(id string) error {
	return r.updateFlag(`UPDATE content_items SET deleted_at = $2, updated_at = $2 WHERE id = $1 AND deleted_at IS NULL`, id, time.Now())
}

// updateFlag executes a single-row UPDATE and maps zero affected rows to ErrItemNotFound.
func (r *PostgresRepository) updateFlag(query string, args ...interface{}) error {
	result, err := r.db.Exec(query, args...)
	if err != nil {
		return fmt.Errorf("failed to update content item: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if affected == 0 {
		return ErrItemNotFound
	}
	return nil
}

// Ping verifies database connectivity for readiness checks.
func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
