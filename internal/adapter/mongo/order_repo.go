package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/Abdurahmanit/GroupProject/storefront/internal/domain/entity"
	"github.com/Abdurahmanit/GroupProject/storefront/internal/repository"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type orderDocument struct {
	ID              primitive.ObjectID `bson:"_id,omitempty"`
	OrderNumber     string             `bson:"order_number"`
	UserID          string             `bson:"user_id"`
	Items           []entity.OrderItem `bson:"items"`
	TotalAmount     int64              `bson:"total_amount"`
	Status          string             `bson:"status"`
	ShippingAddress entity.Address     `bson:"shipping_address"`
	PaymentMethod   string             `bson:"payment_method"`
	PaymentStatus   string             `bson:"payment_status"`
	PaymentIntentID string             `bson:"payment_intent_id,omitempty"`
	AdminNotes      string             `bson:"admin_notes,omitempty"`
	DeliveryDate    *time.Time         `bson:"delivery_date,omitempty"`
	Version         int                `bson:"version"`
	CreatedAt       time.Time          `bson:"created_at"`
	UpdatedAt       time.Time          `bson:"updated_at"`
}

func (d *orderDocument) toEntity() *entity.Order {
	return &entity.Order{
		ID:              d.ID.Hex(),
		OrderNumber:     d.OrderNumber,
		UserID:          d.UserID,
		Items:           d.Items,
		TotalAmount:     d.TotalAmount,
		Status:          entity.OrderStatus(d.Status),
		ShippingAddress: d.ShippingAddress,
		PaymentMethod:   entity.PaymentMethod(d.PaymentMethod),
		PaymentStatus:   entity.PaymentStatus(d.PaymentStatus),
		PaymentIntentID: d.PaymentIntentID,
		AdminNotes:      d.AdminNotes,
		DeliveryDate:    d.DeliveryDate,
		Version:         d.Version,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
}

type orderRepository struct {
	collection *mongo.Collection
}

func NewOrderRepository(db *mongo.Database) repository.OrderRepository {
	return &orderRepository{collection: db.Collection(orderCollectionName)}
}

func (r *orderRepository) Create(ctx context.Context, o *entity.Order) (string, error) {
	doc := orderDocument{
		OrderNumber:     o.OrderNumber,
		UserID:          o.UserID,
		Items:           o.Items,
		TotalAmount:     o.TotalAmount,
		Status:          string(o.Status),
		ShippingAddress: o.ShippingAddress,
		PaymentMethod:   string(o.PaymentMethod),
		PaymentStatus:   string(o.PaymentStatus),
		PaymentIntentID: o.PaymentIntentID,
		AdminNotes:      o.AdminNotes,
		DeliveryDate:    o.DeliveryDate,
		Version:         o.Version,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
	res, err := r.collection.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", repository.ErrAlreadyExists
		}
		return "", fmt.Errorf("failed to create order: %w", err)
	}
	return hexID(res.InsertedID)
}

func (r *orderRepository) findOne(ctx context.Context, filter bson.M) (*entity.Order, error) {
	var doc orderDocument
	if err := r.collection.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find order: %w", err)
	}
	return doc.toEntity(), nil
}

func (r *orderRepository) GetByID(ctx context.Context, orderID string) (*entity.Order, error) {
	oid, err := objectID(orderID)
	if err != nil {
		return nil, err
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *orderRepository) GetByPaymentIntentID(ctx context.Context, paymentIntentID string) (*entity.Order, error) {
	if paymentIntentID == "" {
		return nil, repository.ErrNotFound
	}
	return r.findOne(ctx, bson.M{"payment_intent_id": paymentIntentID})
}

// updateVersioned applies set to the order if its version still matches and
// tells a missing order apart from a concurrent modification.
func (r *orderRepository) updateVersioned(ctx context.Context, orderID string, version int, set bson.M) error {
	oid, err := objectID(orderID)
	if err != nil {
		return err
	}
	set["updated_at"] = time.Now().UTC()
	update := bson.M{
		"$set": set,
		"$inc": bson.M{"version": 1},
	}

	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": oid, "version": version}, update)
	if err != nil {
		return fmt.Errorf("failed to update order %s: %w", orderID, err)
	}
	if res.MatchedCount == 0 {
		var existing orderDocument
		errFind := r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&existing)
		if errors.Is(errFind, mongo.ErrNoDocuments) {
			return repository.ErrNotFound
		}
		return repository.ErrOptimisticLock
	}
	return nil
}

func (r *orderRepository) UpdateStatus(ctx context.Context, params repository.UpdateOrderStatusParams) error {
	set := bson.M{
		"status":      string(params.Status),
		"admin_notes": params.AdminNotes,
	}
	if params.DeliveryDate != nil {
		set["delivery_date"] = params.DeliveryDate
	}
	return r.updateVersioned(ctx, params.OrderID, params.Version, set)
}

func (r *orderRepository) UpdatePaymentStatus(ctx context.Context, params repository.UpdatePaymentStatusParams) error {
	return r.updateVersioned(ctx, params.OrderID, params.Version, bson.M{
		"payment_status": string(params.PaymentStatus),
	})
}

func (r *orderRepository) List(ctx context.Context, params repository.ListOrdersParams) (*repository.ListOrdersResult, error) {
	filter := bson.M{}
	if params.UserID != "" {
		filter["user_id"] = params.UserID
	}
	if params.Status != "" {
		filter["status"] = params.Status
	}
	if params.Search != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(params.Search), Options: "i"}
		filter["$or"] = bson.A{
			bson.M{"order_number": pattern},
			bson.M{"shipping_address.full_name": pattern},
			bson.M{"shipping_address.city": pattern},
			bson.M{"shipping_address.street": pattern},
			bson.M{"items.name": pattern},
		}
	}

	findOptions := pageOptions(params.Page, params.PageSize).SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []orderDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode listed orders: %w", err)
	}

	totalCount, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}

	orders := make([]entity.Order, 0, len(docs))
	for i := range docs {
		orders = append(orders, *docs[i].toEntity())
	}
	return &repository.ListOrdersResult{
		Orders:      orders,
		TotalCount:  totalCount,
		CurrentPage: params.Page,
		PageSize:    params.PageSize,
		TotalPages:  totalPages(totalCount, params.PageSize),
	}, nil
}
