package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sbilibin2017/xcellar-wallet/internal/logger"
	"github.com/sbilibin2017/xcellar-wallet/internal/models"
	"github.com/sbilibin2017/xcellar-wallet/internal/services"
)

//go:generate mockgen -source=notification.go -destination=notification_mock.go -package=handlers

// NotificationLister reads a user's notifications.
type NotificationLister interface {
	List(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit int) ([]models.NotificationDB, error)
}

// NotificationMarker marks one notification read.
type NotificationMarker interface {
	MarkRead(ctx context.Context, userID, id uuid.UUID) error
}

// NotificationsResponse lists notifications, newest first
// swagger:model NotificationsResponse
type NotificationsResponse struct {
	Notifications []models.NotificationDB `json:"notifications"`
}

// NewListNotificationsHandler returns the caller's notifications.
// @Summary List notifications
// @Tags notifications
// @Produce json
// @Param unread query bool false "Only unread notifications"
// @Param limit query int false "Page size (max 100)"
// @Success 200 {object} handlers.NotificationsResponse
// @Failure 401 {object} handlers.ErrorResponse "Unauthorized"
// @Router /api/v1/notifications [get]
// @Security BearerAuth
func NewListNotificationsHandler(svc NotificationLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := requireClaims(w, r)
		if !ok {
			return
		}

		limit, err := queryInt(r, "limit", 0)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		unreadOnly := r.URL.Query().Get("unread") == "true"

		items, err := svc.List(r.Context(), claims.UserID, unreadOnly, limit)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		if items == nil {
			items = []models.NotificationDB{}
		}

		writeJSON(w, http.StatusOK, NotificationsResponse{Notifications: items})
	}
}

// NewMarkNotificationReadHandler marks one of the caller's notifications read.
// @Summary Mark notification read
// @Tags notifications
// @Produce json
// @Param id path string true "Notification ID"
// @Success 200 {object} handlers.MessageResponse
// @Failure 400 {object} handlers.ErrorResponse "Invalid id"
// @Failure 404 {object} handlers.ErrorResponse "Notification not found"
// @Router /api/v1/notifications/{id}/read [post]
// @Security BearerAuth
func NewMarkNotificationReadHandler(svc NotificationMarker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := requireClaims(w, r)
		if !ok {
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid notification id")
			return
		}

		if err := svc.MarkRead(r.Context(), claims.UserID, id); err != nil {
			if errors.Is(err, services.ErrNotificationNotFound) {
				writeError(w, http.StatusNotFound, "Notification not found")
				return
			}
			logger.Log.Errorw("failed to mark notification read", "id", id, "error", err)
			writeError(w, http.StatusInternalServerError, "Internal server error")
			return
		}

		writeJSON(w, http.StatusOK, MessageResponse{Message: "Notification marked as read"})
	}
}
