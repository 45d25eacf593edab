package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sbilibin2017/xcellar-wallet/internal/dbtx"
	"github.com/sbilibin2017/xcellar-wallet/internal/models"
)

const userColumns = `user_id, email, phone_number, password_hash, full_name, user_type,
	is_active, is_staff, phone_verified, created_at, updated_at`

type UserReadRepository struct {
	db *sqlx.DB
}

func NewUserReadRepository(db *sqlx.DB) *UserReadRepository {
	return &UserReadRepository{db: db}
}

func (r *UserReadRepository) GetByEmail(ctx context.Context, email string) (*models.UserDB, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE LOWER(email) = LOWER($1) LIMIT 1`
	return r.get(ctx, query, email)
}

func (r *UserReadRepository) GetByID(ctx context.Context, userID uuid.UUID) (*models.UserDB, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE user_id = $1`
	return r.get(ctx, query, userID)
}

func (r *UserReadRepository) get(ctx context.Context, query string, arg any) (*models.UserDB, error) {
	var user models.UserDB
	err := sqlx.GetContext(ctx, dbtx.Executor(ctx, r.db), &user, query, arg)

	logQuery(query, []any{arg}, user.UserID, err)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

type UserWriteRepository struct {
	db *sqlx.DB
}

func NewUserWriteRepository(db *sqlx.DB) *UserWriteRepository {
	return &UserWriteRepository{db: db}
}

// Save inserts a new user. Duplicate email or phone yields ErrUserAlreadyExists.
func (r *UserWriteRepository) Save(ctx context.Context, user *models.UserDB) error {
	query := `
		INSERT INTO users (user_id, email, phone_number, password_hash, full_name, user_type,
			is_active, is_staff, phone_verified, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, FALSE, NOW(), NOW())
		RETURNING created_at, updated_at
	`
	if user.UserID == uuid.Nil {
		user.UserID = uuid.New()
	}
	args := []any{user.UserID, user.Email, user.PhoneNumber, user.PasswordHash, user.FullName,
		user.UserType, user.IsActive, user.IsStaff}

	err := dbtx.Executor(ctx, r.db).QueryRowxContext(ctx, query, args...).Scan(&user.CreatedAt, &user.UpdatedAt)

	// the hash is not logged
	logQuery(query, []any{user.UserID, user.Email, user.PhoneNumber, user.UserType}, user.UserID, err)

	if isUniqueViolation(err) {
		return ErrUserAlreadyExists
	}
	return err
}

func (r *UserWriteRepository) UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error {
	query := `UPDATE users SET password_hash = $2, updated_at = NOW() WHERE user_id = $1`
	return r.exec(ctx, query, []any{userID, passwordHash}, []any{userID})
}

// MarkPhoneVerified sets phone_verified for the user owning the phone number.
func (r *UserWriteRepository) MarkPhoneVerified(ctx context.Context, userID uuid.UUID, phone string) error {
	query := `UPDATE users SET phone_verified = TRUE, updated_at = NOW() WHERE user_id = $1 AND phone_number = $2`
	args := []any{userID, phone}
	return r.exec(ctx, query, args, args)
}

func (r *UserWriteRepository) exec(ctx context.Context, query string, args, logged []any) error {
	res, err := dbtx.Executor(ctx, r.db).ExecContext(ctx, query, args...)
	var rowsAffected int64
	if res != nil {
		rowsAffected, _ = res.RowsAffected()
	}
	logQuery(query, logged, rowsAffected, err)

	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}
