package repository

import (
	"database/sql"
	"fmt"
	"vidstream-api/common"
	"vidstream-api/model"

	"github.com/lib/pq"
)

// IUserRepository defines the contract for user persistence.
type IUserRepository interface {
	CreateUser(user *model.User) error
	GetByUsernameOrEmail(username, email string) (*model.User, error)
	GetByID(id int) (*model.User, error)
	GetPublicByID(id int) (*model.PublicUser, error)
	UpdateRefreshToken(userID int, token *string) error
	UpdatePassword(userID int, hashedPassword string) error
	UpdateProfile(userID int, fullName, email string) error
	UpdateAvatar(userID int, url string) error
	UpdateCoverImage(userID int, url string) error
}

type UserRepository struct {
	DB *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{DB: db}
}

const uniqueViolation = "23505"

// CreateUser inserts the record. The unique constraints on username and email
// are the authoritative uniqueness guard; a violation surfaces as ErrConflict
// regardless of any earlier advisory lookup.
func (r *UserRepository) CreateUser(user *model.User) error {
	query := `INSERT INTO users (username, email, full_name, password, avatar, cover_image)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          RETURNING id, created_at, updated_at`
	err := r.DB.QueryRow(query,
		user.Username, user.Email, user.FullName, user.Password, user.Avatar, user.CoverImage,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && string(pqErr.Code) == uniqueViolation {
			return fmt.Errorf("user with that username or email %w", common.ErrConflict)
		}
		return err
	}
	return nil
}

// GetByUsernameOrEmail matches either field; used for the registration
// fast-path duplicate check and for login lookup.
func (r *UserRepository) GetByUsernameOrEmail(username, email string) (*model.User, error) {
	user := &model.User{}
	query := `SELECT id, username, email, full_name, password, avatar, cover_image, refresh_token, created_at, updated_at
	          FROM users WHERE username = $1 OR email = $2`
	err := r.DB.QueryRow(query, username, email).Scan(
		&user.ID, &user.Username, &user.Email, &user.FullName, &user.Password,
		&user.Avatar, &user.CoverImage, &user.RefreshToken, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("user %w", common.ErrNotFound)
		}
		return nil, err
	}
	return user, nil
}

func (r *UserRepository) GetByID(id int) (*model.User, error) {
	user := &model.User{}
	query := `SELECT id, username, email, full_name, password, avatar, cover_image, refresh_token, created_at, updated_at
	          FROM users WHERE id = $1`
	err := r.DB.QueryRow(query, id).Scan(
		&user.ID, &user.Username, &user.Email, &user.FullName, &user.Password,
		&user.Avatar, &user.CoverImage, &user.RefreshToken, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("user %w", common.ErrNotFound)
		}
		return nil, err
	}
	return user, nil
}

// GetPublicByID selects the public projection directly, so password and
// refresh token never cross this boundary.
func (r *UserRepository) GetPublicByID(id int) (*model.PublicUser, error) {
	user := &model.PublicUser{}
	query := `SELECT id, username, email, full_name, avatar, cover_image, created_at, updated_at
	          FROM users WHERE id = $1`
	err := r.DB.QueryRow(query, id).Scan(
		&user.ID, &user.Username, &user.Email, &user.FullName,
		&user.Avatar, &user.CoverImage, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("user %w", common.ErrNotFound)
		}
		return nil, err
	}
	return user, nil
}

// UpdateRefreshToken overwrites the single stored refresh token, or clears it
// when token is nil. Nothing else on the record is touched.
func (r *UserRepository) UpdateRefreshToken(userID int, token *string) error {
	query := `UPDATE users SET refresh_token = $1, updated_at = now() WHERE id = $2`
	return r.exec(query, sql.NullString{String: deref(token), Valid: token != nil}, userID)
}

func (r *UserRepository) UpdatePassword(userID int, hashedPassword string) error {
	query := `UPDATE users SET password = $1, updated_at = now() WHERE id = $2`
	return r.exec(query, hashedPassword, userID)
}

func (r *UserRepository) UpdateProfile(userID int, fullName, email string) error {
	query := `UPDATE users SET full_name = $1, email = $2, updated_at = now() WHERE id = $3`
	err := r.exec(query, fullName, email, userID)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && string(pqErr.Code) == uniqueViolation {
			return fmt.Errorf("email %w", common.ErrConflict)
		}
	}
	return err
}

func (r *UserRepository) UpdateAvatar(userID int, url string) error {
	query := `UPDATE users SET avatar = $1, updated_at = now() WHERE id = $2`
	return r.exec(query, url, userID)
}

func (r *UserRepository) UpdateCoverImage(userID int, url string) error {
	query := `UPDATE users SET cover_image = $1, updated_at = now() WHERE id = $2`
	return r.exec(query, url, userID)
}

func (r *UserRepository) exec(query string, args ...interface{}) error {
	res, err := r.DB.Exec(query, args...)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("user %w", common.ErrNotFound)
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
