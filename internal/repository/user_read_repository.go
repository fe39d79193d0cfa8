package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stutxi/paytm/internal/models"
	sharedredis "github.com/stutxi/paytm/internal/redis"
)

const userViewKeyPrefix = "user:view:"

// UserReadRepository handles all read operations for users.
// Single-key lookups go through the Redis read model and fall back to
// PostgreSQL, warming the cache on every cold read. Name search queries
// PostgreSQL directly.
type UserReadRepository struct {
	db    *sql.DB
	cache *sharedredis.ViewCache[models.UserView]
}

func NewUserReadRepository(db *sql.DB, redisClient *goredis.Client) *UserReadRepository {
	return &UserReadRepository{
		db:    db,
		cache: sharedredis.NewViewCache[models.UserView](redisClient, 24*time.Hour),
	}
}

// GetByID returns a UserView, trying Redis first then PostgreSQL.
func (r *UserReadRepository) GetByID(ctx context.Context, userID string) (*models.UserView, error) {
	cacheKey := userViewKeyPrefix + userID

	if view, ok := r.cache.Get(ctx, cacheKey); ok {
		return view, nil
	}

	query := `
		SELECT id, email, first_name, last_name, created_at
		FROM users
		WHERE id = $1
	`
	var view models.UserView
	var lastName sql.NullString
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&view.ID, &view.Email, &view.FirstName, &lastName, &view.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	view.LastName = lastName.String

	// Warm the cache
	r.CacheUserView(ctx, &view)
	return &view, nil
}

// Search returns public user views whose first or last name contains the
// filter, case-insensitive. An empty filter matches everyone.
func (r *UserReadRepository) Search(ctx context.Context, filter string) ([]models.UserView, error) {
	query := `
		SELECT id, email, first_name, last_name, created_at
		FROM users
		WHERE first_name ILIKE '%' || $1 || '%' OR last_name ILIKE '%' || $1 || '%'
		ORDER BY created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to search users: %w", err)
	}
	defer rows.Close()

	var views []models.UserView
	for rows.Next() {
		var view models.UserView
		var lastName sql.NullString
		if err := rows.Scan(&view.ID, &view.Email, &view.FirstName, &lastName, &view.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		view.LastName = lastName.String
		views = append(views, view)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to search users: %w", err)
	}
	return views, nil
}

// CacheUserView stores or refreshes the Redis read model for a user.
// Called by the command service after every mutation.
func (r *UserReadRepository) CacheUserView(ctx context.Context, view *models.UserView) {
	r.cache.Set(ctx, userViewKeyPrefix+view.ID, view)
}

// InvalidateUserView removes the Redis read model entry for a user.
func (r *UserReadRepository) InvalidateUserView(ctx context.Context, userID string) {
	r.cache.Delete(ctx, userViewKeyPrefix+userID)
}
