package ginserver

import (
	"net/http"

	gin "github.com/gin-gonic/gin"

	"shareit/internal/app/engine"
	bookingapp "shareit/internal/app/handlers/booking"
	ratingsapp "shareit/internal/app/handlers/ratings"
	"shareit/internal/domain/calendar"
)

type BookingHandler struct {
	Engine *engine.Engine
}

// createBookingRequest takes either explicit days or an inclusive start/end range.
type createBookingRequest struct {
	ItemID           string   `json:"item_id"`
	Days             []string `json:"days"`
	Start            string   `json:"start"`
	End              string   `json:"end"`
	PricePerDayCents int64    `json:"price_per_day_cents"`
}

func (r createBookingRequest) days() ([]string, error) {
	if r.Start == "" && r.End == "" {
		return r.Days, nil
	}
	expanded, err := calendar.ExpandRange(r.Start, r.End)
	if err != nil {
		return nil, err
	}
	return calendar.Strings(expanded), nil
}

func (h BookingHandler) Create(c *gin.Context) {
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "malformed request body")
		return
	}
	days, err := req.days()
	if err != nil {
		writeError(c, err)
		return
	}
	result, err := h.Engine.CreateBooking(c.Request.Context(), bookingapp.CreateBookingCommand{
		ItemID:           req.ItemID,
		RenterUID:        actorUID(c),
		Days:             days,
		PricePerDayCents: req.PricePerDayCents,
		IdempotencyKeyV:  c.GetHeader("Idempotency-Key"),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h BookingHandler) Get(c *gin.Context) {
	result, err := h.Engine.Booking(c.Request.Context(), bookingapp.GetBookingQuery{
		BookingID: c.Param("id"),
		Actor:     actorUID(c),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type transitionRequest struct {
	Status string `json:"status"`
}

func (h BookingHandler) Transition(c *gin.Context) {
	var req transitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "malformed request body")
		return
	}
	result, err := h.Engine.Transition(c.Request.Context(), bookingapp.TransitionBookingCommand{
		BookingID: c.Param("id"),
		Status:    req.Status,
		Actor:     actorUID(c),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type ratingRequest struct {
	ItemID  string `json:"item_id"`
	Score   int    `json:"score"`
	Comment string `json:"comment"`
}

func (h BookingHandler) Rate(c *gin.Context) {
	var req ratingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "malformed request body")
		return
	}
	result, err := h.Engine.SubmitRating(c.Request.Context(), ratingsapp.SubmitRatingCommand{
		BookingID: c.Param("id"),
		ItemID:    req.ItemID,
		Score:     req.Score,
		Comment:   req.Comment,
		Rater:     actorUID(c),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

var _ BookingHTTP = BookingHandler{}
