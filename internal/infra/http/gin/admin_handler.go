package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"shareit/internal/app/engine"
	bookingapp "shareit/internal/app/handlers/booking"
)

// AdminHandler exposes operator actions. Every route requires the admin role.
type AdminHandler struct {
	Engine *engine.Engine
	Logger *slog.Logger
}

func (h AdminHandler) Sweep(c *gin.Context) {
	if _, ok := requireRole(c, "admin"); !ok {
		return
	}
	result, err := h.Engine.Sweep(c.Request.Context(), bookingapp.SweepCommand{ItemID: c.Query("item_id")})
	if err != nil {
		if h.Logger != nil {
			h.Logger.Error("manual sweep failed", "error", err)
		}
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ AdminHTTP = AdminHandler{}
