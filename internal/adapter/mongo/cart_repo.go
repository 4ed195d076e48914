package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Abdurahmanit/GroupProject/storefront/internal/domain/entity"
	"github.com/Abdurahmanit/GroupProject/storefront/internal/repository"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type cartDocument struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	UserID      string             `bson:"user_id"`
	IsActive    bool               `bson:"is_active"`
	Items       []entity.CartItem  `bson:"items"`
	TotalAmount int64              `bson:"total_amount"`
	Version     int                `bson:"version"`
	CreatedAt   time.Time          `bson:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at"`
}

func (d *cartDocument) toEntity() *entity.Cart {
	items := d.Items
	if items == nil {
		items = make([]entity.CartItem, 0)
	}
	return &entity.Cart{
		ID:          d.ID.Hex(),
		UserID:      d.UserID,
		IsActive:    d.IsActive,
		Items:       items,
		TotalAmount: d.TotalAmount,
		Version:     d.Version,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

type cartRepository struct {
	collection *mongo.Collection
}

func NewCartRepository(db *mongo.Database) repository.CartRepository {
	return &cartRepository{collection: db.Collection(cartCollectionName)}
}

// GetOrCreate upserts so concurrent first accesses converge on one document;
// the loser of a unique-index race rereads the winner's cart.
func (r *cartRepository) GetOrCreate(ctx context.Context, userID string) (*entity.Cart, error) {
	now := time.Now().UTC()
	update := bson.M{"$setOnInsert": bson.M{
		"user_id":      userID,
		"is_active":    true,
		"items":        []entity.CartItem{},
		"total_amount": int64(0),
		"version":      1,
		"created_at":   now,
		"updated_at":   now,
	}}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var doc cartDocument
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"user_id": userID}, update, opts).Decode(&doc)
	if err != nil && mongo.IsDuplicateKeyError(err) {
		err = r.collection.FindOne(ctx, bson.M{"user_id": userID}).Decode(&doc)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get or create cart for user %s: %w", userID, err)
	}
	return doc.toEntity(), nil
}

func (r *cartRepository) Save(ctx context.Context, cart *entity.Cart) error {
	if cart == nil || cart.UserID == "" {
		return errors.New("cannot save nil cart or cart with empty userID")
	}
	oid, err := objectID(cart.ID)
	if err != nil {
		return err
	}

	cart.RecalculateTotal()
	cart.UpdatedAt = time.Now().UTC()
	items := cart.Items
	if items == nil {
		items = []entity.CartItem{}
	}

	filter := bson.M{"_id": oid, "version": cart.Version}
	update := bson.M{
		"$set": bson.M{
			"items":        items,
			"total_amount": cart.TotalAmount,
			"is_active":    cart.IsActive,
			"updated_at":   cart.UpdatedAt,
		},
		"$inc": bson.M{"version": 1},
	}

	res, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to save cart for user %s: %w", cart.UserID, err)
	}
	if res.MatchedCount == 0 {
		var existing cartDocument
		errFind := r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&existing)
		if errors.Is(errFind, mongo.ErrNoDocuments) {
			return repository.ErrNotFound
		}
		return repository.ErrOptimisticLock
	}
	cart.Version++
	return nil
}
