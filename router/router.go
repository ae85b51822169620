package router

import (
	"net/http"
	"vidstream-api/handler"
)

// CORSMiddleware reflects the configured origin and allows credentialed
// requests, short-circuiting preflights.
func CORSMiddleware(origin string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PATCH, DELETE")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func NewRouter(userHandler *handler.UserHandler, authMW *handler.AuthMiddleware, corsOrigin string) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", handler.HealthCheck)

	mux.Handle("POST /api/v1/users/register", handler.ErrorHandlingMiddleware(userHandler.Register))
	mux.Handle("POST /api/v1/users/login", handler.ErrorHandlingMiddleware(userHandler.Login))
	mux.Handle("POST /api/v1/users/refresh-token", handler.ErrorHandlingMiddleware(userHandler.RefreshToken))

	// Protected routes go through the authentication gate.
	mux.Handle("POST /api/v1/users/logout", authMW.Handle(handler.ErrorHandlingMiddleware(userHandler.Logout)))
	mux.Handle("POST /api/v1/users/change-password", authMW.Handle(handler.ErrorHandlingMiddleware(userHandler.ChangePassword)))
	mux.Handle("GET /api/v1/users/me", authMW.Handle(handler.ErrorHandlingMiddleware(userHandler.Me)))
	mux.Handle("PATCH /api/v1/users/me", authMW.Handle(handler.ErrorHandlingMiddleware(userHandler.UpdateProfile)))
	mux.Handle("PATCH /api/v1/users/me/avatar", authMW.Handle(handler.ErrorHandlingMiddleware(userHandler.UpdateAvatar)))
	mux.Handle("PATCH /api/v1/users/me/cover-image", authMW.Handle(handler.ErrorHandlingMiddleware(userHandler.UpdateCoverImage)))

	return CORSMiddleware(corsOrigin, mux)
}
