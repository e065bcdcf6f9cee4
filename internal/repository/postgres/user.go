package postgres

import (
	"context"
	"database/sql"
	"errors"

	"sublearn/internal/domain"
)

// UserRepo implements repository.UserRepository
type UserRepo struct {
	db *sql.DB
}

// NewUserRepo creates a new user repository
func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{db: db}
}

// IsAuthorized checks if user is authorized
func (r *UserRepo) IsAuthorized(ctx context.Context, userID int64) (bool, error) {
	var authorized bool
	query := `SELECT authorized FROM users WHERE user_id = $1`
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&authorized)

	if errors.Is(err, sql.ErrNoRows) {
		// User doesn't exist yet
		return false, nil
	}
	if err != nil {
		return false, err
	}

	return authorized, nil
}

// AuthorizeUser marks user as authorized
func (r *UserRepo) AuthorizeUser(ctx context.Context, userID int64) error {
	query := `
		INSERT INTO users (user_id, authorized)
		VALUES ($1, TRUE)
		ON CONFLICT (user_id)
		DO UPDATE SET authorized = TRUE
	`
	_, err := r.db.ExecContext(ctx, query, userID)
	return err
}

// EnsureUserExists creates user if not exists
func (r *UserRepo) EnsureUserExists(ctx context.Context, userID int64) error {
	query := `
		INSERT INTO users (user_id, authorized)
		VALUES ($1, FALSE)
		ON CONFLICT (user_id) DO NOTHING
	`
	_, err := r.db.ExecContext(ctx, query, userID)
	return err
}

// GetLevel returns the user's declared CEFR level, A1 for unknown users
func (r *UserRepo) GetLevel(ctx context.Context, userID int64) (domain.CEFRLevel, error) {
	var raw string
	query := `SELECT cefr_level FROM users WHERE user_id = $1`
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&raw)

	if errors.Is(err, sql.ErrNoRows) {
		return domain.LevelA1, nil
	}
	if err != nil {
		return "", err
	}

	level, err := domain.ParseCEFRLevel(raw)
	if err != nil {
		return domain.LevelA1, nil
	}
	return level, nil
}

// SetLevel stores the user's CEFR level, creating the user if needed
func (r *UserRepo) SetLevel(ctx context.Context, userID int64, level domain.CEFRLevel) error {
	query := `
		INSERT INTO users (user_id, authorized, cefr_level)
		VALUES ($1, FALSE, $2)
		ON CONFLICT (user_id)
		DO UPDATE SET cefr_level = EXCLUDED.cefr_level
	`
	_, err := r.db.ExecContext(ctx, query, userID, string(level))
	return err
}
