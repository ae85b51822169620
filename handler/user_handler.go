package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"vidstream-api/common"
	"vidstream-api/logger"
	"vidstream-api/model"
	"vidstream-api/service"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
)

const maxUploadMemory = 32 << 20

type UserHandler struct {
	service *service.UserService
}

func NewUserHandler(service *service.UserService) *UserHandler {
	return &UserHandler{service: service}
}

func currentUser(r *http.Request) (*model.PublicUser, *common.AppError) {
	user, ok := r.Context().Value(CurrentUserKey).(*model.PublicUser)
	if !ok {
		return nil, common.NewAppError(http.StatusUnauthorized, "Unauthorized", nil)
	}
	return user, nil
}

func setAuthCookies(w http.ResponseWriter, pair *service.TokenPair) {
	http.SetCookie(w, &http.Cookie{
		Name: AccessTokenCookie, Value: pair.AccessToken,
		Path: "/", HttpOnly: true, Secure: true, SameSite: http.SameSiteStrictMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name: RefreshTokenCookie, Value: pair.RefreshToken,
		Path: "/", HttpOnly: true, Secure: true, SameSite: http.SameSiteStrictMode,
	})
}

func clearAuthCookies(w http.ResponseWriter) {
	for _, name := range []string{AccessTokenCookie, RefreshTokenCookie} {
		http.SetCookie(w, &http.Cookie{
			Name: name, Value: "", MaxAge: -1,
			Path: "/", HttpOnly: true, Secure: true, SameSite: http.SameSiteStrictMode,
		})
	}
}

// stageUploadedFile copies a multipart file part to a local temp file and
// returns its path. A missing part yields an empty path, not an error; the
// caller decides whether the part was required.
func stageUploadedFile(r *http.Request, field string) (string, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		if err == http.ErrMissingFile {
			return "", nil
		}
		return "", err
	}
	defer file.Close()

	tmp, err := os.CreateTemp("", "upload-*"+filepath.Ext(header.Filename))
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(tmp, file); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	return tmp.Name(), nil
}

// removeStaged cleans up staging files that were never consumed by an upload.
func removeStaged(paths ...string) {
	for _, p := range paths {
		if p != "" {
			os.Remove(p)
		}
	}
}

// Register godoc
// @Summary      Register a new user
// @Tags         users
// @Accept       multipart/form-data
// @Produce      json
// @Success      201  {object}  common.ApiResponse
// @Router       /api/v1/users/register [post]
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) *common.AppError {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		return common.NewAppError(http.StatusBadRequest, "Invalid multipart form", err)
	}

	req := model.RegisterRequest{
		FullName: r.FormValue("fullName"),
		Email:    r.FormValue("email"),
		Username: r.FormValue("username"),
		Password: r.FormValue("password"),
	}
	if err := common.ValidateStruct(req); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			return common.NewAppError(http.StatusBadRequest, verrs.Error(), nil)
		}
		return common.NewAppError(http.StatusBadRequest, "Invalid request", err)
	}

	avatarPath, err := stageUploadedFile(r, "avatar")
	if err != nil {
		return common.NewAppError(http.StatusBadRequest, "Could not read avatar file", err)
	}
	if avatarPath == "" {
		return common.NewAppError(http.StatusBadRequest, "Please provide an avatar image", nil)
	}
	coverPath, err := stageUploadedFile(r, "coverImage")
	if err != nil {
		removeStaged(avatarPath)
		return common.NewAppError(http.StatusBadRequest, "Could not read cover image file", err)
	}

	// The blob store removes each staged file once an upload is attempted;
	// this covers the paths where registration fails before that.
	defer removeStaged(avatarPath, coverPath)

	user, svcErr := h.service.Register(r.Context(), service.RegisterInput{
		FullName:       req.FullName,
		Email:          req.Email,
		Username:       req.Username,
		Password:       req.Password,
		AvatarPath:     avatarPath,
		CoverImagePath: coverPath,
	})
	if svcErr != nil {
		return common.MapError(svcErr)
	}

	common.WriteJSON(w, http.StatusCreated, user, "User created successfully")
	return nil
}

// Login godoc
// @Summary      Authenticate and issue a token pair
// @Tags         users
// @Accept       json
// @Produce      json
// @Success      200  {object}  common.ApiResponse
// @Router       /api/v1/users/login [post]
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.LoginRequest
	if !common.ValidateAndDecode(w, r, &req) {
		return nil
	}

	user, pair, err := h.service.Login(req)
	if err != nil {
		return common.MapError(err)
	}

	setAuthCookies(w, pair)
	common.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"user":         user,
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
	}, "User logged in successfully")
	return nil
}

// Logout godoc
// @Summary      Clear the session
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  common.ApiResponse
// @Router       /api/v1/users/logout [post]
func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) *common.AppError {
	user, appErr := currentUser(r)
	if appErr != nil {
		return appErr
	}

	if err := h.service.Logout(user.ID); err != nil {
		return common.MapError(err)
	}

	clearAuthCookies(w)
	common.WriteJSON(w, http.StatusOK, nil, "User logged out successfully")
	return nil
}

// extractRefreshToken reads the token from the cookie, then the
// Authorization header, then the JSON body, in that order. The body read
// carries the same size cap as every other decoded request.
func extractRefreshToken(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(RefreshTokenCookie); err == nil && c.Value != "" {
		return c.Value
	}
	parts := strings.Split(r.Header.Get("Authorization"), " ")
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return parts[1]
	}
	r.Body = http.MaxBytesReader(w, r.Body, 50<<10)
	var req model.RefreshTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err == nil {
		return req.RefreshToken
	}
	return ""
}

// RefreshToken godoc
// @Summary      Rotate the token pair
// @Tags         users
// @Produce      json
// @Success      200  {object}  common.ApiResponse
// @Router       /api/v1/users/refresh-token [post]
func (h *UserHandler) RefreshToken(w http.ResponseWriter, r *http.Request) *common.AppError {
	tokenString := extractRefreshToken(w, r)
	if tokenString == "" {
		return common.NewAppError(http.StatusUnauthorized, "Refresh token is required", nil)
	}

	pair, err := h.service.RefreshTokens(tokenString)
	if err != nil {
		return common.MapError(err)
	}

	setAuthCookies(w, pair)
	common.WriteJSON(w, http.StatusOK, pair, "Tokens refreshed successfully")
	return nil
}

// ChangePassword godoc
// @Summary      Change the current user's password
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  common.ApiResponse
// @Router       /api/v1/users/change-password [post]
func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) *common.AppError {
	user, appErr := currentUser(r)
	if appErr != nil {
		return appErr
	}

	var req model.ChangePasswordRequest
	if !common.ValidateAndDecode(w, r, &req) {
		return nil
	}

	if err := h.service.ChangePassword(user.ID, req.OldPassword, req.NewPassword); err != nil {
		return common.MapError(err)
	}

	logger.Log.WithField("user_id", user.ID).Info("Password changed")
	common.WriteJSON(w, http.StatusOK, nil, "Password changed successfully")
	return nil
}

// Me godoc
// @Summary      Current user profile
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  common.ApiResponse
// @Router       /api/v1/users/me [get]
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) *common.AppError {
	user, appErr := currentUser(r)
	if appErr != nil {
		return appErr
	}
	common.WriteJSON(w, http.StatusOK, user, "Current user fetched successfully")
	return nil
}

// UpdateProfile godoc
// @Summary      Update fullName/email
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  common.ApiResponse
// @Router       /api/v1/users/me [patch]
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) *common.AppError {
	user, appErr := currentUser(r)
	if appErr != nil {
		return appErr
	}

	var req model.UpdateProfileRequest
	if !common.ValidateAndDecode(w, r, &req) {
		return nil
	}

	updated, err := h.service.UpdateProfile(user.ID, req)
	if err != nil {
		return common.MapError(err)
	}

	common.WriteJSON(w, http.StatusOK, updated, "Profile updated successfully")
	return nil
}

// UpdateAvatar godoc
// @Summary      Replace the avatar image
// @Tags         users
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  common.ApiResponse
// @Router       /api/v1/users/me/avatar [patch]
func (h *UserHandler) UpdateAvatar(w http.ResponseWriter, r *http.Request) *common.AppError {
	return h.updateImage(w, r, "avatar", h.service.UpdateAvatar)
}

// UpdateCoverImage godoc
// @Summary      Replace the cover image
// @Tags         users
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  common.ApiResponse
// @Router       /api/v1/users/me/cover-image [patch]
func (h *UserHandler) UpdateCoverImage(w http.ResponseWriter, r *http.Request) *common.AppError {
	return h.updateImage(w, r, "coverImage", h.service.UpdateCoverImage)
}

func (h *UserHandler) updateImage(w http.ResponseWriter, r *http.Request, field string, update func(ctx context.Context, userID int, localPath string) (*model.PublicUser, error)) *common.AppError {
	user, appErr := currentUser(r)
	if appErr != nil {
		return appErr
	}

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		return common.NewAppError(http.StatusBadRequest, "Invalid multipart form", err)
	}

	path, err := stageUploadedFile(r, field)
	if err != nil {
		return common.NewAppError(http.StatusBadRequest, "Could not read uploaded file", err)
	}
	if path == "" {
		return common.NewAppError(http.StatusBadRequest, "Please provide an image file", nil)
	}
	defer removeStaged(path)

	updated, svcErr := update(r.Context(), user.ID, path)
	if svcErr != nil {
		return common.MapError(svcErr)
	}

	log := logger.Log.WithFields(logrus.Fields{"user_id": user.ID, "field": field})
	log.Info("Image updated")

	common.WriteJSON(w, http.StatusOK, updated, "Image updated successfully")
	return nil
}
