package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"vidstream-api/common"
	"vidstream-api/logger"
	"vidstream-api/model"
	"vidstream-api/repository"
	"vidstream-api/storage"
)

// RegisterInput carries the registration form fields plus the locally staged
// file paths. AvatarPath is required; CoverImagePath may be empty.
type RegisterInput struct {
	FullName       string
	Email          string
	Username       string
	Password       string
	AvatarPath     string
	CoverImagePath string
}

// UserService orchestrates registration, login, logout, token refresh, and
// profile mutation over the credential store, token service, and blob store.
type UserService struct {
	repo repository.IUserRepository
	auth *AuthService
	blob storage.BlobStore
}

func NewUserService(repo repository.IUserRepository, auth *AuthService, blob storage.BlobStore) *UserService {
	return &UserService{repo: repo, auth: auth, blob: blob}
}

// Register creates a new account. The duplicate lookup is a fast path; the
// database unique constraints remain the authoritative guard, so a losing
// racer still gets ErrConflict from CreateUser.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*model.PublicUser, error) {
	for _, field := range []string{in.FullName, in.Email, in.Username, in.Password} {
		if strings.TrimSpace(field) == "" {
			return nil, fmt.Errorf("all of fullName, email, username and password are required: %w", common.ErrValidation)
		}
	}
	if in.AvatarPath == "" {
		return nil, fmt.Errorf("avatar image is required: %w", common.ErrValidation)
	}

	username := strings.ToLower(strings.TrimSpace(in.Username))
	email := strings.ToLower(strings.TrimSpace(in.Email))

	if _, err := s.repo.GetByUsernameOrEmail(username, email); err == nil {
		return nil, fmt.Errorf("user with that username or email %w", common.ErrConflict)
	} else if !errors.Is(err, common.ErrNotFound) {
		return nil, fmt.Errorf("duplicate check failed: %w", err)
	}

	avatar, err := s.blob.Upload(ctx, in.AvatarPath)
	if err != nil || avatar.URL == "" {
		return nil, fmt.Errorf("could not store avatar image: %w", common.ErrUpload)
	}

	// A failed cover upload is tolerated: the record falls back to the
	// placeholder.
	coverURL := ""
	if in.CoverImagePath != "" {
		cover, err := s.blob.Upload(ctx, in.CoverImagePath)
		if err != nil {
			logger.Log.WithError(err).Warn("Cover image upload failed, continuing without it")
		} else {
			coverURL = cover.URL
		}
	}

	hashed, err := s.auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	user := model.NewUser(in.FullName, email, username, hashed, avatar.URL, coverURL)
	if err := s.repo.CreateUser(user); err != nil {
		return nil, err
	}

	logger.Log.WithField("user_id", user.ID).Info("User registered")
	return user.Public(), nil
}

// Login verifies credentials and issues a fresh token pair. The new refresh
// token is persisted before the pair is returned, superseding any previous
// session.
func (s *UserService) Login(req model.LoginRequest) (*model.PublicUser, *TokenPair, error) {
	if req.Username == "" && req.Email == "" {
		return nil, nil, fmt.Errorf("username or email is required: %w", common.ErrValidation)
	}
	if req.Password == "" {
		return nil, nil, fmt.Errorf("password is required: %w", common.ErrValidation)
	}

	username := strings.ToLower(strings.TrimSpace(req.Username))
	email := strings.ToLower(strings.TrimSpace(req.Email))

	user, err := s.repo.GetByUsernameOrEmail(username, email)
	if err != nil {
		return nil, nil, err
	}
	if !s.auth.CheckPasswordHash(req.Password, user.Password) {
		return nil, nil, fmt.Errorf("invalid password: %w", common.ErrUnauthorized)
	}

	pair, err := s.auth.IssueTokenPair(user)
	if err != nil {
		return nil, nil, err
	}

	logger.Log.WithField("user_id", user.ID).Info("User logged in")
	return user.Public(), pair, nil
}

// Logout clears the stored refresh token. The current access token stays
// valid until its own expiry; see TokenRevoker for the revocation seam.
func (s *UserService) Logout(userID int) error {
	if err := s.repo.UpdateRefreshToken(userID, nil); err != nil {
		return err
	}
	logger.Log.WithField("user_id", userID).Info("User logged out")
	return nil
}

// RefreshTokens rotates the pair. The presented token must match the stored
// one byte for byte: a token superseded by a later login or refresh is
// permanently rejected even before its signed expiry.
func (s *UserService) RefreshTokens(tokenString string) (*TokenPair, error) {
	claims, err := s.auth.VerifyRefreshToken(tokenString)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.GetByID(claims.UserID)
	if err != nil {
		return nil, err
	}
	if !user.RefreshToken.Valid || user.RefreshToken.String != tokenString {
		return nil, fmt.Errorf("refresh token has been superseded: %w", common.ErrUnauthorized)
	}

	return s.auth.IssueTokenPair(user)
}

// ChangePassword re-hashes and overwrites the password after verifying the
// old one. Only the password column is written.
func (s *UserService) ChangePassword(userID int, oldPassword, newPassword string) error {
	if strings.TrimSpace(newPassword) == "" {
		return fmt.Errorf("new password is required: %w", common.ErrValidation)
	}

	user, err := s.repo.GetByID(userID)
	if err != nil {
		return err
	}
	if !s.auth.CheckPasswordHash(oldPassword, user.Password) {
		return fmt.Errorf("old password does not match: %w", common.ErrUnauthorized)
	}

	hashed, err := s.auth.HashPassword(newPassword)
	if err != nil {
		return err
	}
	return s.repo.UpdatePassword(userID, hashed)
}

func (s *UserService) UpdateProfile(userID int, req model.UpdateProfileRequest) (*model.PublicUser, error) {
	fullName := strings.TrimSpace(req.FullName)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if fullName == "" || email == "" {
		return nil, fmt.Errorf("fullName and email are required: %w", common.ErrValidation)
	}

	if err := s.repo.UpdateProfile(userID, fullName, email); err != nil {
		return nil, err
	}
	return s.repo.GetPublicByID(userID)
}

// UpdateAvatar uploads the replacement, persists its URL, then makes a
// best-effort attempt to delete the superseded remote object.
func (s *UserService) UpdateAvatar(ctx context.Context, userID int, localPath string) (*model.PublicUser, error) {
	return s.updateImage(ctx, userID, localPath,
		func(u *model.User) string { return u.Avatar },
		s.repo.UpdateAvatar,
	)
}

func (s *UserService) UpdateCoverImage(ctx context.Context, userID int, localPath string) (*model.PublicUser, error) {
	return s.updateImage(ctx, userID, localPath,
		func(u *model.User) string { return u.CoverImage },
		s.repo.UpdateCoverImage,
	)
}

func (s *UserService) updateImage(ctx context.Context, userID int, localPath string, current func(*model.User) string, persist func(int, string) error) (*model.PublicUser, error) {
	if localPath == "" {
		return nil, fmt.Errorf("image file is required: %w", common.ErrValidation)
	}

	user, err := s.repo.GetByID(userID)
	if err != nil {
		return nil, err
	}

	uploaded, err := s.blob.Upload(ctx, localPath)
	if err != nil || uploaded.URL == "" {
		return nil, fmt.Errorf("could not store image: %w", common.ErrUpload)
	}

	previousURL := current(user)
	if err := persist(userID, uploaded.URL); err != nil {
		return nil, err
	}

	// Best effort: a dangling old object is preferable to failing the update.
	if key := s.blob.KeyFromURL(previousURL); key != "" {
		if err := s.blob.Delete(ctx, key); err != nil {
			logger.Log.WithError(err).WithField("key", key).Warn("Failed to delete superseded object")
		}
	}

	return s.repo.GetPublicByID(userID)
}
