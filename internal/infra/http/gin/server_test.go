package ginserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gin "github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shareit/internal/app/engine"
	"shareit/internal/app/policies"
	"shareit/internal/infra/config"
	"shareit/internal/infra/obs"
	"shareit/internal/infra/security"
	"shareit/internal/infra/storage/memory"
)

var testNow = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

type apiFixture struct {
	t      *testing.T
	router *gin.Engine
	tokens security.HMACTokens
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	clock := policies.ClockFunc(func() time.Time { return testNow })
	feed := memory.NewFeed()
	box := memory.NewOutbox(feed)
	eng := engine.New(engine.Deps{
		UoW:          memory.NewStore(box),
		Clock:        clock,
		Identity:     policies.ContextIdentity{},
		Idempotency:  memory.NewIdempotencyStore(0),
		Relay:        box,
		RetryBackoff: -1,
	})
	tokens := security.HMACTokens{Secret: []byte("test-secret"), Issuer: "shareit"}
	cfg := config.Config{Env: "test", CORSOrigins: []string{"*"}}
	router := NewRouter(cfg, obs.Middleware{}, obs.HealthHandlers{}, Handlers{
		Booking:        BookingHandler{Engine: eng},
		Availability:   AvailabilityHandler{Engine: eng, Clock: clock},
		Item:           ItemHandler{Engine: eng},
		Me:             MeHandler{Engine: eng, Feed: feed},
		Admin:          AdminHandler{Engine: eng},
		AuthMiddleware: AuthMiddleware{Tokens: tokens}.Handle,
	})
	return &apiFixture{t: t, router: router, tokens: tokens}
}

func (f *apiFixture) do(method, path, user string, body any, roles ...string) *httptest.ResponseRecorder {
	f.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(f.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		token, err := f.tokens.Issue(user, time.Hour, roles...)
		require.NoError(f.t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

type bookingEnvelope struct {
	Booking struct {
		ID     string   `json:"id"`
		Status string   `json:"status"`
		Days   []string `json:"days"`
	} `json:"booking"`
}

func (f *apiFixture) createItem(owner string) string {
	rec := f.do(http.MethodPost, "/api/v1/items", owner, map[string]any{
		"title": "Drill", "price_per_day_cents": 1500, "city": "Kazan",
	})
	require.Equal(f.t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[struct {
		ID string `json:"id"`
	}](f.t, rec).ID
}

func TestBookingLifecycleHTTP(t *testing.T) {
	f := newAPIFixture(t)
	itemID := f.createItem("owner")

	rec := f.do(http.MethodPost, "/api/v1/bookings", "renter", map[string]any{
		"item_id": itemID, "start": "2026-03-12", "end": "2026-03-10", "price_per_day_cents": 1500,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[bookingEnvelope](t, rec)
	assert.Equal(t, "pending", created.Booking.Status)
	assert.Equal(t, []string{"2026-03-10", "2026-03-11", "2026-03-12"}, created.Booking.Days)

	rec = f.do(http.MethodGet, "/api/v1/items/"+itemID+"/blocked-dates", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"2026-03-10", "2026-03-11", "2026-03-12"}, decode[struct {
		Days []string `json:"days"`
	}](t, rec).Days)

	rec = f.do(http.MethodPost, "/api/v1/bookings/"+created.Booking.ID+"/transition", "owner", map[string]string{"status": "accepted"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "confirmed", decode[bookingEnvelope](t, rec).Booking.Status)

	rec = f.do(http.MethodGet, "/api/v1/me/notifications", "renter", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	feed := decode[struct {
		Items []struct {
			Kind      string `json:"kind"`
			BookingID string `json:"booking_id"`
		} `json:"items"`
	}](t, rec)
	require.NotEmpty(t, feed.Items)
	assert.Equal(t, "booking_status", feed.Items[0].Kind)
	assert.Equal(t, created.Booking.ID, feed.Items[0].BookingID)

	rec = f.do(http.MethodPost, "/api/v1/bookings/"+created.Booking.ID+"/transition", "renter", map[string]string{"status": "completed"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = f.do(http.MethodPost, "/api/v1/bookings/"+created.Booking.ID+"/rating", "renter", map[string]any{"item_id": itemID, "score": 4})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = f.do(http.MethodGet, "/api/v1/items/"+itemID, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	item := decode[struct {
		RatingAvg   float64 `json:"rating_avg"`
		RatingCount int     `json:"rating_count"`
	}](t, rec)
	assert.Equal(t, 4.0, item.RatingAvg)
	assert.Equal(t, 1, item.RatingCount)

	rec = f.do(http.MethodPost, "/api/v1/bookings/"+created.Booking.ID+"/rating", "renter", map[string]any{"item_id": itemID, "score": 5})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestBookingErrorsMapToStatus(t *testing.T) {
	f := newAPIFixture(t)
	itemID := f.createItem("owner")

	rec := f.do(http.MethodPost, "/api/v1/bookings", "renter", map[string]any{
		"item_id": itemID, "days": []string{"2026-03-10", "2026-03-11"}, "price_per_day_cents": 1500,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	cases := []struct {
		name   string
		user   string
		body   map[string]any
		status int
		kind   string
	}{
		{"overlap", "other", map[string]any{"item_id": itemID, "days": []string{"2026-03-11"}, "price_per_day_cents": 1500}, http.StatusConflict, "conflict"},
		{"past", "other", map[string]any{"item_id": itemID, "days": []string{"2026-02-27"}, "price_per_day_cents": 1500}, http.StatusUnprocessableEntity, "past_date"},
		{"anonymous", "", map[string]any{"item_id": itemID, "days": []string{"2026-03-20"}, "price_per_day_cents": 1500}, http.StatusUnauthorized, "not_authenticated"},
		{"own item", "owner", map[string]any{"item_id": itemID, "days": []string{"2026-03-20"}, "price_per_day_cents": 1500}, http.StatusForbidden, "forbidden"},
		{"unknown item", "other", map[string]any{"item_id": "missing", "days": []string{"2026-03-20"}, "price_per_day_cents": 1500}, http.StatusNotFound, "not_found"},
		{"bad date", "other", map[string]any{"item_id": itemID, "days": []string{"03/20/2026"}, "price_per_day_cents": 1500}, http.StatusBadRequest, "validation"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := f.do(http.MethodPost, "/api/v1/bookings", tc.user, tc.body)
			assert.Equal(t, tc.status, rec.Code, rec.Body.String())
			assert.Equal(t, tc.kind, decode[errorEnvelope](t, rec).Error.Kind)
		})
	}
}

func TestMalformedBodyIsValidationError(t *testing.T) {
	f := newAPIFixture(t)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings", strings.NewReader("{"))
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation", decode[errorEnvelope](t, rec).Error.Kind)
}

func TestListMyBookingsByRole(t *testing.T) {
	f := newAPIFixture(t)
	itemID := f.createItem("owner")
	for _, day := range []string{"2026-03-10", "2026-03-15"} {
		rec := f.do(http.MethodPost, "/api/v1/bookings", "renter", map[string]any{
			"item_id": itemID, "days": []string{day}, "price_per_day_cents": 1500,
		})
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	type collection struct {
		Items []struct {
			ID string `json:"id"`
		} `json:"items"`
	}
	rec := f.do(http.MethodGet, "/api/v1/me/bookings", "renter", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[collection](t, rec).Items, 2)

	rec = f.do(http.MethodGet, "/api/v1/me/bookings?role=owner&status=pending", "owner", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[collection](t, rec).Items, 2)

	rec = f.do(http.MethodGet, "/api/v1/me/bookings?role=landlord", "owner", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodGet, "/api/v1/me/bookings", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCalendarExport(t *testing.T) {
	f := newAPIFixture(t)
	itemID := f.createItem("owner")
	rec := f.do(http.MethodPost, "/api/v1/bookings", "renter", map[string]any{
		"item_id": itemID, "days": []string{"2026-03-10", "2026-03-11", "2026-03-14"}, "price_per_day_cents": 1500,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = f.do(http.MethodGet, "/api/v1/items/"+itemID+"/calendar.ics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/calendar")
	assert.Equal(t, 2, strings.Count(rec.Body.String(), "BEGIN:VEVENT"))
}

func TestValidateCandidate(t *testing.T) {
	f := newAPIFixture(t)
	itemID := f.createItem("owner")
	rec := f.do(http.MethodPost, "/api/v1/items/"+itemID+"/validate", "", map[string]any{"start": "2026-03-10", "end": "2026-03-12"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, decode[struct {
		OK bool `json:"ok"`
	}](t, rec).OK)
}

func TestItemOwnership(t *testing.T) {
	f := newAPIFixture(t)
	itemID := f.createItem("owner")

	rec := f.do(http.MethodPut, "/api/v1/items/"+itemID, "intruder", map[string]any{"title": "Mine", "price_per_day_cents": 100})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(http.MethodGet, "/api/v1/me/items", "owner", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[struct {
		Items []any `json:"items"`
	}](t, rec).Items, 1)

	rec = f.do(http.MethodDelete, "/api/v1/items/"+itemID, "owner", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = f.do(http.MethodGet, "/api/v1/items/"+itemID, "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSweepRequiresAdmin(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(http.MethodPost, "/api/v1/admin/sweep", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(http.MethodPost, "/api/v1/admin/sweep", "renter", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(http.MethodPost, "/api/v1/admin/sweep", "ops", nil, "admin")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 0, decode[struct {
		Cancelled int `json:"cancelled"`
	}](t, rec).Cancelled)
}

func TestInvalidTokenIsAnonymous(t *testing.T) {
	f := newAPIFixture(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/me/bookings", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRateLimiterPerUser(t *testing.T) {
	gin.SetMode(gin.TestMode)
	limiter := NewRateLimiter(1, 2)
	limiter.now = func() time.Time { return testNow }

	router := gin.New()
	router.Use(func(c *gin.Context) {
		if uid := c.GetHeader("X-User"); uid != "" {
			c.Set(principalContextKey, principal{ID: uid})
		}
		c.Next()
	})
	router.POST("/w", limiter.Handle, func(c *gin.Context) { c.Status(http.StatusNoContent) })

	hit := func(user string) int {
		req := httptest.NewRequest(http.MethodPost, "/w", nil)
		req.Header.Set("X-User", user)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec.Code
	}
	assert.Equal(t, http.StatusNoContent, hit("a"))
	assert.Equal(t, http.StatusNoContent, hit("a"))
	assert.Equal(t, http.StatusTooManyRequests, hit("a"))
	assert.Equal(t, http.StatusNoContent, hit("b"))
}

func TestStatusForKinds(t *testing.T) {
	assert.Equal(t, http.StatusConflict, statusFor("forbidden_transition"))
	assert.Equal(t, http.StatusServiceUnavailable, statusFor("transient"))
	assert.Equal(t, http.StatusInternalServerError, statusFor(""))
}
