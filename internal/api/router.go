package api

import (
	"net/http"

	"github.com/example/wholesale-clothing/internal/api/middleware"
	"github.com/example/wholesale-clothing/internal/auth"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// NewRouter wires the HTTP surface. Catalog writes require an admin token
// when jwtService is non-nil.
func NewRouter(handlers *Handlers, authHandlers *AuthHandlers, jwtService *auth.JWTService, webDir string, logger *zap.Logger) http.Handler {
	r := mux.NewRouter()
	admin := middleware.RequireAdmin(jwtService)

	r.HandleFunc("/healthz", handlers.Health).Methods(http.MethodGet)

	// Orders
	r.HandleFunc("/place_order", handlers.PlaceOrder).Methods(http.MethodPost)
	r.HandleFunc("/api/orders", handlers.GetOrders).Methods(http.MethodGet)

	// Products
	r.HandleFunc("/api/inventory", handlers.GetInventory).Methods(http.MethodGet)
	r.HandleFunc("/api/products/{id}", handlers.GetProduct).Methods(http.MethodGet)
	r.HandleFunc("/api/products/{id}/orders", handlers.GetProductOrders).Methods(http.MethodGet)
	r.Handle("/add_product", admin(http.HandlerFunc(handlers.CreateProduct))).Methods(http.MethodPost)
	r.Handle("/api/products/{id}", admin(http.HandlerFunc(handlers.UpdateProduct))).Methods(http.MethodPut)
	r.Handle("/api/products/{id}", admin(http.HandlerFunc(handlers.DeleteProduct))).Methods(http.MethodDelete)
	r.Handle("/api/products/{id}/restock", admin(http.HandlerFunc(handlers.Restock))).Methods(http.MethodPost)

	// Auth
	if authHandlers != nil && jwtService != nil {
		r.HandleFunc("/auth/login", authHandlers.Login).Methods(http.MethodPost)
		r.HandleFunc("/auth/logout", authHandlers.Logout).Methods(http.MethodPost)
	}

	// Static files (web UI)
	if webDir != "" {
		r.PathPrefix("/").Handler(http.FileServer(http.Dir(webDir)))
	}

	if logger == nil {
		logger = zap.NewNop()
	}
	r.Use(middleware.RequestLogger(logger))
	return r
}
