package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/gymcore/gymcore/internal/platform/db"
)

var (
	ErrNotFound         = errors.New("user not found")
	ErrMobileTaken      = errors.New("mobile number already registered")
	ErrUsernameTaken    = errors.New("username already taken")
	ErrRoleAlreadySet   = errors.New("role already set")
	ErrRoleConflict     = errors.New("user already holds a different role")
	errUnknownUniqueKey = errors.New("user unique constraint")
)

// Repository provides user persistence.
type Repository interface {
	FindByID(ctx context.Context, id int64) (*User, error)
	FindByMobile(ctx context.Context, mobile string) (*User, error)
	FindByUsername(ctx context.Context, username string) (*User, error)
	Create(ctx context.Context, in NewUser) (*User, error)
	// AssignRole sets role while the current role is null or already equal.
	// Any other current role yields ErrRoleAlreadySet.
	AssignRole(ctx context.Context, id int64, role Role) (*User, error)
}

// DBTX is satisfied by *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	QueryRow(context.Context, string, ...any) pgx.Row
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	db DBTX
}

// NewRepository constructs a repository over a pool or transaction.
func NewRepository(conn DBTX) *PGRepository {
	return &PGRepository{db: conn}
}

const userColumns = `id, full_name, mobile_number, username, email, gender, age_or_dob, city, role, COALESCE(password_hash, ''), created_at`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	var role *string
	if err := row.Scan(&u.ID, &u.FullName, &u.MobileNumber, &u.Username, &u.Email, &u.Gender,
		&u.AgeOrDOB, &u.City, &role, &u.PasswordHash, &u.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if role != nil {
		r := Role(*role)
		u.Role = &r
	}
	return &u, nil
}

// FindByID fetches a user by primary key.
func (r *PGRepository) FindByID(ctx context.Context, id int64) (*User, error) {
	return scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

// FindByMobile fetches a user by mobile number.
func (r *PGRepository) FindByMobile(ctx context.Context, mobile string) (*User, error) {
	return scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE mobile_number = $1`, mobile))
}

// FindByUsername fetches a user by username.
func (r *PGRepository) FindByUsername(ctx context.Context, username string) (*User, error) {
	return scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username))
}

// Create inserts a user. Unique violations map to ErrMobileTaken or
// ErrUsernameTaken.
func (r *PGRepository) Create(ctx context.Context, in NewUser) (*User, error) {
	var role *string
	if in.Role != nil {
		s := string(*in.Role)
		role = &s
	}
	var hash *string
	if in.PasswordHash != "" {
		hash = &in.PasswordHash
	}
	user, err := scanUser(r.db.QueryRow(ctx, `
		INSERT INTO users (full_name, mobile_number, username, email, gender, age_or_dob, city, role, password_hash)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+userColumns,
		in.FullName, in.MobileNumber, in.Username, in.Email, in.Gender, in.AgeOrDOB, in.City, role, hash))
	if err != nil {
		return nil, translateUnique(err)
	}
	return user, nil
}

// AssignRole implements Repository.
func (r *PGRepository) AssignRole(ctx context.Context, id int64, role Role) (*User, error) {
	user, err := scanUser(r.db.QueryRow(ctx, `
		UPDATE users SET role = $2
		WHERE id = $1 AND (role IS NULL OR role = $2)
		RETURNING `+userColumns, id, string(role)))
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	// Distinguish a missing user from a role that is already taken.
	if _, findErr := r.FindByID(ctx, id); findErr != nil {
		return nil, findErr
	}
	return nil, ErrRoleAlreadySet
}

func translateUnique(err error) error {
	switch {
	case db.IsUniqueViolation(err, "users_mobile_number_key"):
		return ErrMobileTaken
	case db.IsUniqueViolation(err, "users_username_key"):
		return ErrUsernameTaken
	case db.IsUniqueViolation(err, ""):
		return fmt.Errorf("%w: %v", errUnknownUniqueKey, err)
	}
	return err
}

var _ Repository = (*PGRepository)(nil)
