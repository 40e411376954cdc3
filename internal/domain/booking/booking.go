package booking

import (
	"context"
	"fmt"
	"strings"
	"time"

	"shareit/internal/domain/calendar"
	"shareit/internal/domain/items"
	"shareit/internal/domain/shared/apperr"
	"shareit/internal/domain/shared/events"
)

// RequestTTL is how long a pending request waits for the owner before the sweeper cancels it.
const RequestTTL = 24 * time.Hour

const SystemUID = "system"

var (
	ErrBookingNotFound = apperr.NotFound("booking not found")
	ErrDatesTaken      = apperr.Conflict("those dates are already booked")
	ErrNoDays          = apperr.Validation("choose at least one day")
	ErrSignInRequired  = apperr.NotAuthenticated("please sign in first")
	ErrOwnItem         = apperr.Forbidden("you cannot book your own item")
	ErrNotParty        = apperr.Forbidden("you are not a party to this booking")
	ErrNotExpired      = apperr.ForbiddenTransition("the request has not expired yet")
	ErrAlreadyRated    = apperr.Forbidden("this booking has already been rated")
	ErrNotCompleted    = apperr.Forbidden("only completed bookings can be rated")
	ErrNotRenter       = apperr.Forbidden("only the renter can rate this booking")
)

type BookingID string

type Rating struct {
	Score     int
	Comment   string
	RaterUID  string
	CreatedAt time.Time
}

type Booking struct {
	ID               BookingID
	ItemID           items.ItemID
	ItemTitle        string
	OwnerUID         string
	RenterUID        string
	Days             []calendar.Day
	PricePerDayCents int64
	TotalCents       int64
	Status           Status
	Rating           *Rating
	CreatedAt        time.Time
	UpdatedAt        time.Time
	ExpiresAt        time.Time
	Version          int64
	events.EventRecorder
}

// Filter selects bookings by equality on the populated fields.
type Filter struct {
	ItemID    items.ItemID
	RenterUID string
	OwnerUID  string
	Statuses  []Status
}

func (f Filter) Matches(b *Booking) bool {
	if f.ItemID != "" && b.ItemID != f.ItemID {
		return false
	}
	if f.RenterUID != "" && b.RenterUID != f.RenterUID {
		return false
	}
	if f.OwnerUID != "" && b.OwnerUID != f.OwnerUID {
		return false
	}
	if len(f.Statuses) == 0 {
		return true
	}
	for _, s := range f.Statuses {
		if b.Status == s {
			return true
		}
	}
	return false
}

type Repository interface {
	ByID(ctx context.Context, id BookingID) (*Booking, error)
	// Create inserts a new booking and claims its days for the item. It fails with
	// ErrDatesTaken when a live booking of the same item already holds any of them.
	Create(ctx context.Context, b *Booking) error
	// Save writes a changed booking when the stored version still equals b.Version.
	// Days of bookings that are no longer live are released.
	Save(ctx context.Context, b *Booking) error
	// List returns the matching bookings, newest first.
	List(ctx context.Context, filter Filter) ([]*Booking, error)
}

type CreateParams struct {
	ID               BookingID
	ItemID           items.ItemID
	ItemTitle        string
	OwnerUID         string
	RenterUID        string
	Days             []calendar.Day
	PricePerDayCents int64
	CreatedAt        time.Time
}

func NewBooking(params CreateParams) (*Booking, error) {
	renter := strings.TrimSpace(params.RenterUID)
	if renter == "" {
		return nil, ErrSignInRequired
	}
	if renter == params.OwnerUID {
		return nil, ErrOwnItem
	}
	days := calendar.Normalize(params.Days)
	if len(days) == 0 {
		return nil, ErrNoDays
	}
	if params.PricePerDayCents < 0 {
		return nil, items.ErrNegativePrice
	}
	now := params.CreatedAt.UTC()
	b := &Booking{
		ID:               params.ID,
		ItemID:           params.ItemID,
		ItemTitle:        params.ItemTitle,
		OwnerUID:         params.OwnerUID,
		RenterUID:        renter,
		Days:             days,
		PricePerDayCents: params.PricePerDayCents,
		TotalCents:       int64(len(days)) * params.PricePerDayCents,
		Status:           StatusPending,
		CreatedAt:        now,
		UpdatedAt:        now,
		ExpiresAt:        now.Add(RequestTTL),
	}
	b.Record(BookingRequested{BookingID: b.ID, ItemID: b.ItemID, RenterUID: b.RenterUID, Days: calendar.Strings(days), TotalCents: b.TotalCents, At: now})
	return b, nil
}

// Actor is whoever asks for a transition. System is the expiration sweeper.
type Actor struct {
	UID    string
	System bool
}

var SystemActor = Actor{UID: SystemUID, System: true}

func (b *Booking) RoleOf(actor Actor) (Role, bool) {
	switch {
	case actor.System:
		return RoleSystem, true
	case actor.UID != "" && actor.UID == b.OwnerUID:
		return RoleOwner, true
	case actor.UID != "" && actor.UID == b.RenterUID:
		return RoleRenter, true
	default:
		return "", false
	}
}

// Expired reports whether the pending request deadline has passed at now.
func (b *Booking) Expired(now time.Time) bool {
	return b.Status == StatusPending && !now.Before(b.ExpiresAt)
}

// Transition moves the booking to status to on behalf of actor and returns the
// notification owed to the counterparty.
func (b *Booking) Transition(to Status, actor Actor, now time.Time) (Notification, error) {
	role, ok := b.RoleOf(actor)
	if !ok {
		if actor.UID == "" {
			return Notification{}, ErrSignInRequired
		}
		return Notification{}, ErrNotParty
	}
	from := b.Status
	if !Allowed(role, from, to) {
		return Notification{}, apperr.ForbiddenTransition(fmt.Sprintf("a booking cannot go from %s to %s by the %s", from, to, role))
	}
	if role == RoleSystem && !b.Expired(now) {
		return Notification{}, ErrNotExpired
	}
	b.Status = to
	b.UpdatedAt = now.UTC()
	b.Record(StatusChanged{BookingID: b.ID, ItemID: b.ItemID, From: from, To: to, ActorUID: actor.UID, At: b.UpdatedAt})
	return b.statusNotification(role, actor, to), nil
}

// Rate attaches the renter's one and only rating to a completed booking.
func (b *Booking) Rate(score int, comment, raterUID string, now time.Time) error {
	if score < items.MinScore || score > items.MaxScore {
		return items.ErrInvalidScore
	}
	if b.Rating != nil {
		return ErrAlreadyRated
	}
	if b.Status != StatusCompleted {
		return ErrNotCompleted
	}
	if raterUID == "" || raterUID != b.RenterUID {
		return ErrNotRenter
	}
	b.Rating = &Rating{
		Score:     score,
		Comment:   strings.TrimSpace(comment),
		RaterUID:  raterUID,
		CreatedAt: now.UTC(),
	}
	b.UpdatedAt = now.UTC()
	b.Record(BookingRated{BookingID: b.ID, ItemID: b.ItemID, Score: score, At: b.UpdatedAt})
	return nil
}

// maxListedDays bounds how many taken days a conflict reason names.
const maxListedDays = 5

// DatesTaken builds the conflict failure naming the first taken days.
func DatesTaken(taken []calendar.Day) error {
	if len(taken) == 0 {
		return ErrDatesTaken
	}
	listed := taken
	if len(listed) > maxListedDays {
		listed = listed[:maxListedDays]
	}
	reason := "already booked: " + strings.Join(calendar.Strings(listed), ", ")
	if extra := len(taken) - len(listed); extra > 0 {
		reason += fmt.Sprintf(" and %d more", extra)
	}
	return apperr.Wrap(apperr.KindConflict, reason, ErrDatesTaken)
}

// Overlaps reports whether both bookings share an item and at least one day.
func (b *Booking) Overlaps(other *Booking) bool {
	if b.ItemID != other.ItemID {
		return false
	}
	return calendar.NewSet(b.Days...).Overlaps(other.Days)
}
