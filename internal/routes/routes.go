package routes

import (
	"net/http"

	"sessionauth/internal/handlers"
	"sessionauth/internal/middleware"
	"sessionauth/internal/utils/helpers"

	"github.com/gorilla/mux"
)

func InitRoutes(
	router *mux.Router,
	authHandler *handlers.AuthHandler,
	passwordHandler *handlers.PasswordHandler,
	guard *middleware.Guard,
) {
	router.Use(middleware.RequestID, middleware.Recoverer, middleware.Logging)

	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		helpers.Message(w, http.StatusOK, "ok")
	}).Methods(http.MethodGet)

	api := router.PathPrefix("/api").Subrouter()

	// --- Публичные маршруты ---
	api.HandleFunc("/signup", authHandler.Signup).Methods(http.MethodPost)
	api.HandleFunc("/signin", authHandler.Signin).Methods(http.MethodPost)
	api.HandleFunc("/forgot-password", passwordHandler.Forgot).Methods(http.MethodPost)
	api.HandleFunc("/reset-password/{token}", passwordHandler.Reset).Methods(http.MethodPatch)

	// --- Защищённые JWT ---
	protected := api.PathPrefix("").Subrouter()
	protected.Use(guard.Protect)

	protected.HandleFunc("/me", authHandler.Me).Methods(http.MethodGet)
	protected.HandleFunc("/update-password", authHandler.UpdatePassword).Methods(http.MethodPatch)
}
