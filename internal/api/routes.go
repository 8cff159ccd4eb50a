package api

import (
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// SetupRoutes configures all API routes. Sign-in routes share loginLimiter.
func SetupRoutes(handler *Handler, loginLimiter *IPRateLimiter, logger *zap.Logger) *mux.Router {
	r := mux.NewRouter()
	r.Use(RequestLogger(logger))

	// Health check
	r.HandleFunc("/health", handler.HealthCheck).Methods("GET")

	api := r.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/auth/logout", handler.Logout).Methods("POST")

	// Sign-in routes
	signIn := api.PathPrefix("/auth").Subrouter()
	signIn.Use(loginLimiter.Middleware)
	signIn.HandleFunc("/register", handler.Register).Methods("POST")
	signIn.HandleFunc("/login", handler.Login).Methods("POST")
	signIn.HandleFunc("/anonymous", handler.Anonymous).Methods("POST")

	// Public cost preview
	api.HandleFunc("/costs", handler.PreviewCosts).Methods("GET")

	// Journal routes
	journal := api.NewRoute().Subrouter()
	journal.Use(handler.RequireAuth)
	journal.HandleFunc("/me", handler.Me).Methods("GET")
	journal.HandleFunc("/trades", handler.ListTrades).Methods("GET")
	journal.HandleFunc("/trades", handler.CreateTrade).Methods("POST")
	journal.HandleFunc("/trades/{id}", handler.GetTrade).Methods("GET")
	journal.HandleFunc("/trades/{id}", handler.UpdateTrade).Methods("PUT")
	journal.HandleFunc("/trades/{id}", handler.DeleteTrade).Methods("DELETE")
	journal.HandleFunc("/stats", handler.GetStats).Methods("GET")
	journal.HandleFunc("/stats/chart.png", handler.GetEquityChart).Methods("GET")
	journal.HandleFunc("/dashboard", handler.GetDashboard).Methods("GET")
	journal.HandleFunc("/stream", handler.Stream).Methods("GET")

	return r
}
