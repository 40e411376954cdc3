package ginserver

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	gin "github.com/gin-gonic/gin"

	"shareit/internal/app/engine"
	bookingapp "shareit/internal/app/handlers/booking"
	"shareit/internal/app/policies"
	"shareit/internal/domain/booking"
	"shareit/internal/domain/shared/apperr"
)

var errFeedUnavailable = errors.New("notification feed unavailable")

type MeHandler struct {
	Engine *engine.Engine
	// Feed serves delivered notifications. Optional.
	Feed   policies.NotificationFeed
	Logger *slog.Logger
}

func (h MeHandler) ListBookings(c *gin.Context) {
	result, err := h.Engine.ListBookings(c.Request.Context(), bookingapp.ListBookingsQuery{
		Actor:  actorUID(c),
		Role:   bookingapp.Role(c.Query("role")),
		Status: c.Query("status"),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h MeHandler) ListItems(c *gin.Context) {
	items, err := h.Engine.OwnerItems(c.Request.Context(), actorUID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h MeHandler) ListNotifications(c *gin.Context) {
	user, ok := requireRole(c, "")
	if !ok {
		return
	}
	if h.Feed == nil {
		writeError(c, apperr.Transient(errFeedUnavailable))
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))
	items, err := h.Feed.Recent(c.Request.Context(), user.ID, limit)
	if err != nil {
		if h.Logger != nil {
			h.Logger.Error("notification feed query failed", "error", err, "user_id", user.ID)
		}
		writeError(c, apperr.Transient(err))
		return
	}
	if items == nil {
		items = []booking.Notification{}
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

var _ MeHTTP = MeHandler{}
