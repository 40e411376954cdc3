package ginserver

import (
	"net/http"

	gin "github.com/gin-gonic/gin"

	"shareit/internal/app/engine"
	availabilityapp "shareit/internal/app/handlers/availability"
	"shareit/internal/app/policies"
	"shareit/internal/domain/calendar"
	"shareit/internal/infra/ical"
)

type AvailabilityHandler struct {
	Engine *engine.Engine
	Clock  policies.Clock
}

func (h AvailabilityHandler) BlockedDates(c *gin.Context) {
	result, err := h.Engine.BlockedDates(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type validateRequest struct {
	Days  []string `json:"days"`
	Start string   `json:"start"`
	End   string   `json:"end"`
}

// Validate pre-checks a selection. The answer is advisory; creating the booking decides.
func (h AvailabilityHandler) Validate(c *gin.Context) {
	var req validateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "malformed request body")
		return
	}
	result, err := h.Engine.ValidateCandidate(c.Request.Context(), availabilityapp.ValidateCandidateQuery{
		ItemID: c.Param("id"),
		Days:   req.Days,
		Start:  req.Start,
		End:    req.End,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h AvailabilityHandler) Calendar(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")
	item, err := h.Engine.Item(ctx, id)
	if err != nil {
		writeError(c, err)
		return
	}
	blocked, err := h.Engine.BlockedDates(ctx, id)
	if err != nil {
		writeError(c, err)
		return
	}
	days, err := calendar.ParseDays(blocked.Days)
	if err != nil {
		writeError(c, err)
		return
	}
	body := ical.BlockedCalendar(item.ID, item.Title, days, policies.ClockOrSystem(h.Clock).Now())
	c.Header("Content-Disposition", `attachment; filename="`+item.ID+`.ics"`)
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", []byte(body))
}

var _ AvailabilityHTTP = AvailabilityHandler{}
