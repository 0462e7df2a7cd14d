package api

import (
	"database/sql"
	"net/http"

	"github.com/erazemk/trznica/internal/demand"
	"github.com/erazemk/trznica/internal/model"
	"github.com/erazemk/trznica/internal/validate"
)

// NewRouter creates the API router with all endpoints registered.
func NewRouter(db *sql.DB, jwtSecret string, demands *demand.Service) http.Handler {
	mux := http.NewServeMux()
	v := validate.New()

	authHandler := &AuthHandler{DB: db, JWTSecret: jwtSecret, Validate: v}
	usersHandler := &UsersHandler{DB: db, Validate: v}
	demandsHandler := &DemandsHandler{Service: demands}
	notificationsHandler := &NotificationsHandler{DB: db}

	authMW := AuthMiddleware(jwtSecret, db)
	optionalAuth := OptionalAuth(jwtSecret, db)
	requireAdmin := RequireRole(model.RoleAdmin)
	requireBuyer := RequireRole(model.RoleBuyer)
	requireFarmer := RequireRole(model.RoleFarmer)

	// Public.
	mux.HandleFunc("POST /api/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)

	// Authenticated account routes.
	mux.Handle("PUT /api/auth/password", authMW(http.HandlerFunc(authHandler.ChangePassword)))
	mux.Handle("POST /api/auth/logout", authMW(http.HandlerFunc(authHandler.Logout)))
	mux.Handle("PUT /api/auth/push-token", authMW(http.HandlerFunc(authHandler.SetPushToken)))

	// Users (admin only).
	mux.Handle("GET /api/users", authMW(requireAdmin(http.HandlerFunc(usersHandler.List))))
	mux.Handle("POST /api/users", authMW(requireAdmin(http.HandlerFunc(usersHandler.Create))))
	mux.Handle("GET /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Get))))
	mux.Handle("PUT /api/users/{id}/password", authMW(requireAdmin(http.HandlerFunc(usersHandler.ResetPassword))))
	mux.Handle("DELETE /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Delete))))

	// Demands: browse (anyone), post (buyer), change (owner or admin), respond (farmer).
	mux.Handle("GET /api/demands", optionalAuth(http.HandlerFunc(demandsHandler.List)))
	mux.Handle("GET /api/demands/{id}", optionalAuth(http.HandlerFunc(demandsHandler.Get)))
	mux.Handle("POST /api/demands", authMW(requireBuyer(http.HandlerFunc(demandsHandler.Create))))
	mux.Handle("PUT /api/demands/{id}", authMW(http.HandlerFunc(demandsHandler.Update)))
	mux.Handle("DELETE /api/demands/{id}", authMW(http.HandlerFunc(demandsHandler.Cancel)))
	mux.Handle("POST /api/demands/{id}/respond", authMW(requireFarmer(http.HandlerFunc(demandsHandler.Respond))))

	// Notifications (own).
	mux.Handle("GET /api/notifications", authMW(http.HandlerFunc(notificationsHandler.List)))

	return mux
}
