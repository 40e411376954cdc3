package ginserver

import (
	"net/http"

	gin "github.com/gin-gonic/gin"

	"shareit/internal/app/engine"
	itemsapp "shareit/internal/app/handlers/items"
)

type ItemHandler struct {
	Engine *engine.Engine
}

type itemRequest struct {
	Title            string `json:"title"`
	Category         string `json:"category"`
	City             string `json:"city"`
	PricePerDayCents int64  `json:"price_per_day_cents"`
	AvailableFrom    string `json:"available_from"`
	AvailableTo      string `json:"available_to"`
}

func (r itemRequest) payload() itemsapp.ItemPayload {
	return itemsapp.ItemPayload{
		Title:            r.Title,
		Category:         r.Category,
		City:             r.City,
		PricePerDayCents: r.PricePerDayCents,
		AvailableFrom:    r.AvailableFrom,
		AvailableTo:      r.AvailableTo,
	}
}

func (h ItemHandler) Create(c *gin.Context) {
	var req itemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "malformed request body")
		return
	}
	item, err := h.Engine.CreateItem(c.Request.Context(), itemsapp.CreateItemCommand{
		OwnerUID: actorUID(c),
		Payload:  req.payload(),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (h ItemHandler) Get(c *gin.Context) {
	item, err := h.Engine.Item(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h ItemHandler) Update(c *gin.Context) {
	var req itemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "malformed request body")
		return
	}
	item, err := h.Engine.UpdateItem(c.Request.Context(), itemsapp.UpdateItemCommand{
		ItemID:   c.Param("id"),
		OwnerUID: actorUID(c),
		Payload:  req.payload(),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h ItemHandler) Delete(c *gin.Context) {
	if _, err := h.Engine.DeleteItem(c.Request.Context(), itemsapp.DeleteItemCommand{
		ItemID:   c.Param("id"),
		OwnerUID: actorUID(c),
	}); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

var _ ItemHTTP = ItemHandler{}
