package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"shareit/internal/app/uow"
	"shareit/internal/domain/booking"
	"shareit/internal/domain/calendar"
)

// BookingRepository stores bookings in "bookings" and their held days in "booking_days",
// one document per (item, day) under a unique index.
type BookingRepository struct {
	col      *mongo.Collection
	days     *mongo.Collection
	readOnly bool
}

func NewBookingRepository(db *mongo.Database) *BookingRepository {
	return &BookingRepository{
		col:  db.Collection(bookingsCollection),
		days: db.Collection(bookingDaysCollection),
	}
}

func (r *BookingRepository) ByID(ctx context.Context, id booking.BookingID) (*booking.Booking, error) {
	var doc bookingDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, booking.ErrBookingNotFound
		}
		return nil, err
	}
	return doc.toAggregate()
}

// Create reports the taken days it can see before writing. A claim inserted concurrently
// by another transaction surfaces as a duplicate key and is retried as a concurrent update,
// after which the pre-check names the taken days.
func (r *BookingRepository) Create(ctx context.Context, b *booking.Booking) error {
	if r.readOnly {
		return uow.ErrReadOnly
	}
	taken, err := r.takenDays(ctx, b)
	if err != nil {
		return err
	}
	if len(taken) > 0 {
		return booking.DatesTaken(taken)
	}
	doc := newBookingDocument(b)
	doc.Version = 1
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return translate(err)
	}
	claims := make([]any, 0, len(b.Days))
	for _, d := range b.Days {
		claims = append(claims, dayClaimDocument{ID: claimID(b.ItemID, d), ItemID: string(b.ItemID), Day: d.String(), BookingID: string(b.ID)})
	}
	if len(claims) > 0 {
		if _, err := r.days.InsertMany(ctx, claims); err != nil {
			return translate(err)
		}
	}
	b.Version = doc.Version
	return nil
}

func (r *BookingRepository) takenDays(ctx context.Context, b *booking.Booking) ([]calendar.Day, error) {
	ids := make([]string, 0, len(b.Days))
	for _, d := range b.Days {
		ids = append(ids, claimID(b.ItemID, d))
	}
	cur, err := r.days.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var taken []calendar.Day
	for cur.Next(ctx) {
		var claim dayClaimDocument
		if err := cur.Decode(&claim); err != nil {
			return nil, err
		}
		d, err := calendar.ParseDay(claim.Day)
		if err != nil {
			return nil, fmt.Errorf("mongo: corrupt day claim %s: %w", claim.ID, err)
		}
		taken = append(taken, d)
	}
	return calendar.Normalize(taken), cur.Err()
}

func (r *BookingRepository) Save(ctx context.Context, b *booking.Booking) error {
	if r.readOnly {
		return uow.ErrReadOnly
	}
	doc := newBookingDocument(b)
	doc.Version = b.Version + 1
	res, err := r.col.ReplaceOne(ctx, bson.M{"_id": doc.ID, "version": b.Version}, doc)
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount == 0 {
		if _, lookupErr := r.ByID(ctx, b.ID); errors.Is(lookupErr, booking.ErrBookingNotFound) {
			return lookupErr
		}
		return uow.ErrConcurrentUpdate
	}
	if !b.Status.Live() {
		if _, err := r.days.DeleteMany(ctx, bson.M{"booking_id": doc.ID}); err != nil {
			return translate(err)
		}
	}
	b.Version = doc.Version
	return nil
}

func (r *BookingRepository) List(ctx context.Context, filter booking.Filter) ([]*booking.Booking, error) {
	query := bson.M{}
	if filter.ItemID != "" {
		query["item_id"] = string(filter.ItemID)
	}
	if filter.RenterUID != "" {
		query["renter_uid"] = filter.RenterUID
	}
	if filter.OwnerUID != "" {
		query["owner_uid"] = filter.OwnerUID
	}
	if len(filter.Statuses) > 0 {
		query["status"] = bson.M{"$in": booking.StoredNames(filter.Statuses)}
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := r.col.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := make([]*booking.Booking, 0)
	for cur.Next(ctx) {
		var doc bookingDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		b, err := doc.toAggregate()
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, cur.Err()
}

func (r *BookingRepository) withReadOnly(ro bool) *BookingRepository {
	return &BookingRepository{col: r.col, days: r.days, readOnly: ro}
}

var _ booking.Repository = (*BookingRepository)(nil)
