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
)

type userDocument struct {
	ID                primitive.ObjectID `bson:"_id,omitempty"`
	Name              string             `bson:"name"`
	Email             string             `bson:"email"`
	Phone             string             `bson:"phone"`
	PasswordHash      string             `bson:"password_hash"`
	Role              string             `bson:"role"`
	Location          string             `bson:"location,omitempty"`
	ResetOTP          *string            `bson:"reset_otp,omitempty"`
	ResetOTPExpiresAt *time.Time         `bson:"reset_otp_expires_at,omitempty"`
	CreatedAt         time.Time          `bson:"created_at"`
	UpdatedAt         time.Time          `bson:"updated_at"`
}

func (d *userDocument) toEntity() *entity.User {
	return &entity.User{
		ID:                d.ID.Hex(),
		Name:              d.Name,
		Email:             d.Email,
		Phone:             d.Phone,
		PasswordHash:      d.PasswordHash,
		Role:              entity.Role(d.Role),
		Location:          d.Location,
		ResetOTP:          d.ResetOTP,
		ResetOTPExpiresAt: d.ResetOTPExpiresAt,
		CreatedAt:         d.CreatedAt,
		UpdatedAt:         d.UpdatedAt,
	}
}

type userRepository struct {
	collection *mongo.Collection
}

func NewUserRepository(db *mongo.Database) repository.UserRepository {
	return &userRepository{collection: db.Collection(userCollectionName)}
}

func (r *userRepository) Create(ctx context.Context, u *entity.User) (string, error) {
	doc := userDocument{
		Name:         u.Name,
		Email:        entity.NormalizeEmail(u.Email),
		Phone:        u.Phone,
		PasswordHash: u.PasswordHash,
		Role:         string(u.Role),
		Location:     u.Location,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
	res, err := r.collection.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", repository.ErrAlreadyExists
		}
		return "", fmt.Errorf("failed to create user: %w", err)
	}
	return hexID(res.InsertedID)
}

func (r *userRepository) findOne(ctx context.Context, filter bson.M) (*entity.User, error) {
	var doc userDocument
	if err := r.collection.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return doc.toEntity(), nil
}

func (r *userRepository) GetByID(ctx context.Context, userID string) (*entity.User, error) {
	oid, err := objectID(userID)
	if err != nil {
		return nil, err
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.findOne(ctx, bson.M{"email": entity.NormalizeEmail(email)})
}

func (r *userRepository) updateByID(ctx context.Context, userID string, update bson.M) error {
	oid, err := objectID(userID)
	if err != nil {
		return err
	}
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repository.ErrAlreadyExists
		}
		return fmt.Errorf("failed to update user %s: %w", userID, err)
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *userRepository) UpdateProfile(ctx context.Context, params repository.UpdateProfileParams) error {
	return r.updateByID(ctx, params.UserID, bson.M{"$set": bson.M{
		"name":       params.Name,
		"email":      entity.NormalizeEmail(params.Email),
		"phone":      params.Phone,
		"location":   params.Location,
		"updated_at": time.Now().UTC(),
	}})
}

func (r *userRepository) UpdateRole(ctx context.Context, userID string, role entity.Role) error {
	return r.updateByID(ctx, userID, bson.M{"$set": bson.M{
		"role":       string(role),
		"updated_at": time.Now().UTC(),
	}})
}

func (r *userRepository) SetResetOTP(ctx context.Context, userID, otp string, expiresAt time.Time) error {
	return r.updateByID(ctx, userID, bson.M{"$set": bson.M{
		"reset_otp":            otp,
		"reset_otp_expires_at": expiresAt,
		"updated_at":           time.Now().UTC(),
	}})
}

func (r *userRepository) FindByResetOTP(ctx context.Context, email, otp string, now time.Time) (*entity.User, error) {
	return r.findOne(ctx, bson.M{
		"email":                entity.NormalizeEmail(email),
		"reset_otp":            otp,
		"reset_otp_expires_at": bson.M{"$gt": now},
	})
}

func (r *userRepository) ConsumeResetOTP(ctx context.Context, userID, otp, passwordHash string) error {
	oid, err := objectID(userID)
	if err != nil {
		return err
	}
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": oid, "reset_otp": otp},
		bson.M{
			"$set":   bson.M{"password_hash": passwordHash, "updated_at": time.Now().UTC()},
			"$unset": bson.M{"reset_otp": "", "reset_otp_expires_at": ""},
		},
	)
	if err != nil {
		return fmt.Errorf("failed to reset password for user %s: %w", userID, err)
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}
