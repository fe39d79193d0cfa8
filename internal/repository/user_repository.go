package repository

import (
	"database/sql"
	"fmt"

	"github.com/lib/pq"
	"github.com/stutxi/paytm/internal/models"
)

// UserWriteRepository handles all state-mutating operations for users.
// It operates exclusively against the PostgreSQL write store (source of truth).
type UserWriteRepository struct {
	db *sql.DB
}

func NewUserWriteRepository(db *sql.DB) *UserWriteRepository {
	return &UserWriteRepository{db: db}
}

func (r *UserWriteRepository) Create(user *models.User) error {
	query := `
		INSERT INTO users (id, email, password_hash, first_name, last_name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.Exec(query,
		user.ID, user.Email, user.PasswordHash,
		user.FirstName, nullString(user.LastName),
		user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return fmt.Errorf("email already exists")
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByID fetches the full write model (including PasswordHash) for internal operations.
func (r *UserWriteRepository) GetByID(id string) (*models.User, error) {
	query := `
		SELECT id, email, password_hash, first_name, last_name, created_at, updated_at
		FROM users
		WHERE id = $1
	`
	return r.scanUser(r.db.QueryRow(query, id))
}

// GetByEmail fetches the full write model for credential verification.
func (r *UserWriteRepository) GetByEmail(email string) (*models.User, error) {
	query := `
		SELECT id, email, password_hash, first_name, last_name, created_at, updated_at
		FROM users
		WHERE email = $1
	`
	return r.scanUser(r.db.QueryRow(query, email))
}

func (r *UserWriteRepository) scanUser(row *sql.Row) (*models.User, error) {
	var user models.User
	var lastName sql.NullString

	err := row.Scan(
		&user.ID, &user.Email, &user.PasswordHash,
		&user.FirstName, &lastName,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	user.LastName = lastName.String
	return &user, nil
}

func (r *UserWriteRepository) Update(user *models.User) error {
	query := `
		UPDATE users
		SET password_hash = $2, first_name = $3, last_name = $4, updated_at = $5
		WHERE id = $1
	`
	result, err := r.db.Exec(query,
		user.ID, user.PasswordHash, user.FirstName, nullString(user.LastName), user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("user not found")
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
