package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/benvon/smart-auth/internal/models"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

const (
	delStatusActive  = 1
	delStatusDeleted = 2

	// pgUniqueViolation is the SQLSTATE for unique_violation
	pgUniqueViolation = "23505"
)

const userColumns = `id, email, password_hash, full_name, avatar, role, provider, provider_id, del_status, del_date, created_at, updated_at`

// UserRepository handles user database operations
type UserRepository struct {
	db *DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user. Timestamps must already be set on user.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	row := toRow(user)
	_, err := r.db.ExecContext(ctx, query,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.FullName,
		user.Avatar,
		string(user.Role),
		row.provider,
		row.providerID,
		row.delStatus,
		row.delDate,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("failed to create user: %w", ErrDuplicateEmail)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// FindByID retrieves an active user by ID
func (r *UserRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 AND del_status = $2`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, id, delStatusActive))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %s: %w", id, ErrUserNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}

// FindByEmail retrieves an active user by email (exact match)
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1 AND del_status = $2`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, email, delStatusActive))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user by email: %w", ErrUserNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return user, nil
}

// Save persists every mutable field of an existing user.
// The caller is responsible for setting UpdatedAt.
func (r *UserRepository) Save(ctx context.Context, user *models.User) error {
	query := `
		UPDATE users
		SET email = $2, password_hash = $3, full_name = $4, avatar = $5, role = $6,
		    provider = $7, provider_id = $8, del_status = $9, del_date = $10, updated_at = $11
		WHERE id = $1
	`

	row := toRow(user)
	result, err := r.db.ExecContext(ctx, query,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.FullName,
		user.Avatar,
		string(user.Role),
		row.provider,
		row.providerID,
		row.delStatus,
		row.delDate,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("failed to update user: %w", ErrDuplicateEmail)
		}
		return fmt.Errorf("failed to update user: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("user %s: %w", user.ID, ErrUserNotFound)
	}

	return nil
}

// userRow holds the columns whose Go representation differs from SQL
type userRow struct {
	provider   sql.NullString
	providerID sql.NullString
	delStatus  int
	delDate    sql.NullTime
}

func toRow(user *models.User) userRow {
	row := userRow{delStatus: delStatusActive}
	if user.Identity != nil {
		row.provider = sql.NullString{String: string(user.Identity.Provider), Valid: true}
		row.providerID = sql.NullString{String: user.Identity.SubjectID, Valid: true}
	}
	if at, deleted := user.DeletedAt(); deleted {
		row.delStatus = delStatusDeleted
		row.delDate = sql.NullTime{Time: at, Valid: true}
	}
	return row
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(s rowScanner) (*models.User, error) {
	user := &models.User{}
	var (
		role     string
		fullName sql.NullString
		avatar   sql.NullString
		row      userRow
	)

	err := s.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&fullName,
		&avatar,
		&role,
		&row.provider,
		&row.providerID,
		&row.delStatus,
		&row.delDate,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	user.Role = models.Role(role)
	if fullName.Valid {
		user.FullName = &fullName.String
	}
	if avatar.Valid {
		user.Avatar = &avatar.String
	}
	if row.provider.Valid && row.providerID.Valid {
		user.Identity = &models.ProviderIdentity{
			Provider:  models.Provider(row.provider.String),
			SubjectID: row.providerID.String,
		}
	}
	if row.delStatus == delStatusDeleted && row.delDate.Valid {
		user.Status = models.Deleted{At: row.delDate.Time}
	} else {
		user.Status = models.Active{}
	}

	return user, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pgUniqueViolation
}
