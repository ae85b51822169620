package repository

import (
	"database/sql"
	"testing"
	"time"
	"vidstream-api/common"
	"vidstream-api/model"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockRepo(t *testing.T) (*UserRepository, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewUserRepository(db), mock
}

func TestUserRepository_CreateUser(t *testing.T) {
	now := time.Now()

	t.Run("success", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectQuery(`INSERT INTO users`).
			WithArgs("ada", "a@x.com", "Ada L", "hashed", model.DefaultAvatarURL, model.DefaultCoverImageURL).
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(1, now, now))

		user := model.NewUser("Ada L", "a@x.com", "ada", "hashed", "", "")
		err := repo.CreateUser(user)

		assert.NoError(t, err)
		assert.Equal(t, 1, user.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unique violation maps to conflict", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectQuery(`INSERT INTO users`).
			WillReturnError(&pq.Error{Code: "23505", Constraint: "users_username_key"})

		user := model.NewUser("Ada L", "a@x.com", "ada", "hashed", "", "")
		err := repo.CreateUser(user)

		assert.ErrorIs(t, err, common.ErrConflict)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUserRepository_GetByUsernameOrEmail(t *testing.T) {
	cols := []string{"id", "username", "email", "full_name", "password", "avatar", "cover_image", "refresh_token", "created_at", "updated_at"}
	now := time.Now()

	t.Run("found", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectQuery(`SELECT .+ FROM users WHERE username = \$1 OR email = \$2`).
			WithArgs("ada", "a@x.com").
			WillReturnRows(sqlmock.NewRows(cols).
				AddRow(1, "ada", "a@x.com", "Ada L", "hashed", "url", "url2", nil, now, now))

		user, err := repo.GetByUsernameOrEmail("ada", "a@x.com")

		assert.NoError(t, err)
		assert.Equal(t, 1, user.ID)
		assert.False(t, user.RefreshToken.Valid)
	})

	t.Run("not found", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectQuery(`SELECT .+ FROM users WHERE username = \$1 OR email = \$2`).
			WithArgs("ghost", "").
			WillReturnError(sql.ErrNoRows)

		_, err := repo.GetByUsernameOrEmail("ghost", "")
		assert.ErrorIs(t, err, common.ErrNotFound)
	})
}

func TestUserRepository_GetPublicByID(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now()

	// The projection query must not select password or refresh_token.
	mock.ExpectQuery(`SELECT id, username, email, full_name, avatar, cover_image, created_at, updated_at\s+FROM users WHERE id = \$1`).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "email", "full_name", "avatar", "cover_image", "created_at", "updated_at"}).
			AddRow(1, "ada", "a@x.com", "Ada L", "url", "url2", now, now))

	user, err := repo.GetPublicByID(1)

	assert.NoError(t, err)
	assert.Equal(t, "ada", user.Username)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_UpdateRefreshToken(t *testing.T) {
	t.Run("set", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		token := "new-refresh-token"

		mock.ExpectExec(`UPDATE users SET refresh_token = \$1, updated_at = now\(\) WHERE id = \$2`).
			WithArgs("new-refresh-token", 1).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.UpdateRefreshToken(1, &token))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("clear", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectExec(`UPDATE users SET refresh_token = \$1, updated_at = now\(\) WHERE id = \$2`).
			WithArgs(nil, 1).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.UpdateRefreshToken(1, nil))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing user", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectExec(`UPDATE users SET refresh_token`).
			WithArgs(nil, 99).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.UpdateRefreshToken(99, nil)
		assert.ErrorIs(t, err, common.ErrNotFound)
	})
}

func TestUserRepository_UpdateProfile(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectExec(`UPDATE users SET full_name = \$1, email = \$2, updated_at = now\(\) WHERE id = \$3`).
			WithArgs("Ada Lovelace", "ada@x.com", 1).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.UpdateProfile(1, "Ada Lovelace", "ada@x.com"))
	})

	t.Run("email conflict", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectExec(`UPDATE users SET full_name`).
			WillReturnError(&pq.Error{Code: "23505", Constraint: "users_email_key"})

		err := repo.UpdateProfile(1, "Ada", "taken@x.com")
		assert.ErrorIs(t, err, common.ErrConflict)
	})
}

func TestUserRepository_UpdatePassword(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(`UPDATE users SET password = \$1, updated_at = now\(\) WHERE id = \$2`).
		WithArgs("new-hash", 1).
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, repo.UpdatePassword(1, "new-hash"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_UpdateAvatar(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(`UPDATE users SET avatar = \$1, updated_at = now\(\) WHERE id = \$2`).
		WithArgs("https://cdn/media/new", 1).
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, repo.UpdateAvatar(1, "https://cdn/media/new"))
}
