package api

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/erazemk/trznica/internal/demand"
	"github.com/erazemk/trznica/internal/store"
)

// NotificationsHandler serves the caller's in-app notifications.
type NotificationsHandler struct {
	DB *sql.DB
}

// List handles GET /api/notifications.
func (h *NotificationsHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	if claims == nil {
		jsonError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	q := r.URL.Query()
	page, err := queryInt(q.Get("page"))
	if err != nil || page < 0 {
		jsonError(w, http.StatusUnprocessableEntity, "page must be a positive integer")
		return
	}
	limit, err := queryInt(q.Get("limit"))
	if err != nil || limit < 0 || limit > demand.MaxLimit {
		jsonError(w, http.StatusUnprocessableEntity, "limit must be between 1 and 200")
		return
	}
	if page == 0 {
		page = 1
	}
	if limit == 0 {
		limit = demand.DefaultLimit
	}

	notifications, err := store.ListNotifications(r.Context(), h.DB, claims.UserID, limit, (page-1)*limit)
	if err != nil {
		slog.Error("failed to list notifications", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list notifications")
		return
	}

	jsonResponse(w, http.StatusOK, map[string]any{
		"notifications": notifications,
		"page":          page,
		"limit":         limit,
	})
}
