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

type productDocument struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Name        string             `bson:"name"`
	Category    string             `bson:"category"`
	Capacity    string             `bson:"capacity,omitempty"`
	Warranty    string             `bson:"warranty,omitempty"`
	Price       int64              `bson:"price"`
	Description string             `bson:"description"`
	ImageURL    string             `bson:"image_url,omitempty"`
	CreatedAt   time.Time          `bson:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at"`
}

func (d *productDocument) toEntity() *entity.Product {
	return &entity.Product{
		ID:          d.ID.Hex(),
		Name:        d.Name,
		Category:    entity.Category(d.Category),
		Capacity:    d.Capacity,
		Warranty:    d.Warranty,
		Price:       d.Price,
		Description: d.Description,
		ImageURL:    d.ImageURL,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

type productRepository struct {
	collection *mongo.Collection
}

func NewProductRepository(db *mongo.Database) repository.ProductRepository {
	return &productRepository{collection: db.Collection(productCollectionName)}
}

func (r *productRepository) Create(ctx context.Context, p *entity.Product) (string, error) {
	doc := productDocument{
		Name:        p.Name,
		Category:    string(p.Category),
		Capacity:    p.Capacity,
		Warranty:    p.Warranty,
		Price:       p.Price,
		Description: p.Description,
		ImageURL:    p.ImageURL,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
	res, err := r.collection.InsertOne(ctx, doc)
	if err != nil {
		return "", fmt.Errorf("failed to create product: %w", err)
	}
	return hexID(res.InsertedID)
}

func (r *productRepository) GetByID(ctx context.Context, productID string) (*entity.Product, error) {
	oid, err := objectID(productID)
	if err != nil {
		return nil, err
	}
	var doc productDocument
	if err := r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get product by ID %s: %w", productID, err)
	}
	return doc.toEntity(), nil
}

func (r *productRepository) FindSummaries(ctx context.Context, productIDs []string) (map[string]entity.ProductSummary, error) {
	oids := make([]primitive.ObjectID, 0, len(productIDs))
	for _, id := range productIDs {
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			oids = append(oids, oid)
		}
	}
	result := make(map[string]entity.ProductSummary, len(oids))
	if len(oids) == 0 {
		return result, nil
	}

	projection := bson.M{"name": 1, "category": 1, "description": 1, "capacity": 1, "warranty": 1}
	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": oids}}, options.Find().SetProjection(projection))
	if err != nil {
		return nil, fmt.Errorf("failed to find products: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []productDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode products: %w", err)
	}
	for i := range docs {
		p := docs[i].toEntity()
		result[p.ID] = p.Summary()
	}
	return result, nil
}

func (r *productRepository) Update(ctx context.Context, p *entity.Product) error {
	oid, err := objectID(p.ID)
	if err != nil {
		return err
	}
	set := bson.M{
		"name":        p.Name,
		"category":    string(p.Category),
		"price":       p.Price,
		"description": p.Description,
		"updated_at":  p.UpdatedAt,
	}
	unset := bson.M{}
	for field, value := range map[string]string{"capacity": p.Capacity, "warranty": p.Warranty, "image_url": p.ImageURL} {
		if value == "" {
			unset[field] = ""
		} else {
			set[field] = value
		}
	}
	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}

	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return fmt.Errorf("failed to update product %s: %w", p.ID, err)
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *productRepository) Delete(ctx context.Context, productID string) error {
	oid, err := objectID(productID)
	if err != nil {
		return err
	}
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("failed to delete product %s: %w", productID, err)
	}
	if res.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *productRepository) List(ctx context.Context, params repository.ListProductsParams) (*repository.ListProductsResult, error) {
	filter := bson.M{}
	if params.Category != "" {
		filter["category"] = params.Category
	}

	findOptions := pageOptions(params.Page, params.PageSize).SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []productDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode listed products: %w", err)
	}

	totalCount, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}

	products := make([]entity.Product, 0, len(docs))
	for i := range docs {
		products = append(products, *docs[i].toEntity())
	}
	return &repository.ListProductsResult{
		Products:    products,
		TotalCount:  totalCount,
		CurrentPage: params.Page,
		PageSize:    params.PageSize,
		TotalPages:  totalPages(totalCount, params.PageSize),
	}, nil
}
