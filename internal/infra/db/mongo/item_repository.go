package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"shareit/internal/app/uow"
	"shareit/internal/domain/items"
)

type ItemRepository struct {
	col      *mongo.Collection
	readOnly bool
}

func NewItemRepository(db *mongo.Database) *ItemRepository {
	return &ItemRepository{col: db.Collection(itemsCollection)}
}

func (r *ItemRepository) ByID(ctx context.Context, id items.ItemID) (*items.Item, error) {
	var doc itemDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, items.ErrItemNotFound
		}
		return nil, err
	}
	return doc.toAggregate()
}

// Save inserts a new item (Version 0) or replaces the stored one when versions match.
func (r *ItemRepository) Save(ctx context.Context, item *items.Item) error {
	if r.readOnly {
		return uow.ErrReadOnly
	}
	doc := newItemDocument(item)
	doc.Version = item.Version + 1
	if item.Version == 0 {
		if _, err := r.col.InsertOne(ctx, doc); err != nil {
			return translate(err)
		}
		item.Version = doc.Version
		return nil
	}
	res, err := r.col.ReplaceOne(ctx, bson.M{"_id": doc.ID, "version": item.Version}, doc)
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount == 0 {
		return uow.ErrConcurrentUpdate
	}
	item.Version = doc.Version
	return nil
}

func (r *ItemRepository) ListByOwner(ctx context.Context, ownerUID string) ([]*items.Item, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := r.col.Find(ctx, bson.M{"owner_uid": ownerUID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := make([]*items.Item, 0)
	for cur.Next(ctx) {
		var doc itemDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		item, err := doc.toAggregate()
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, cur.Err()
}

func (r *ItemRepository) withReadOnly(ro bool) *ItemRepository {
	return &ItemRepository{col: r.col, readOnly: ro}
}

var _ items.Repository = (*ItemRepository)(nil)
