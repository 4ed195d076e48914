package repository

import (
	"context"
	"time"

	"github.com/Abdurahmanit/GroupProject/storefront/internal/domain/entity"
)

type UpdateProfileParams struct {
	UserID   string
	Name     string
	Email    string
	Phone    string
	Location string
}

type UserRepository interface {
	Create(ctx context.Context, user *entity.User) (string, error)
	GetByID(ctx context.Context, userID string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	UpdateProfile(ctx context.Context, params UpdateProfileParams) error
	UpdateRole(ctx context.Context, userID string, role entity.Role) error
	SetResetOTP(ctx context.Context, userID, otp string, expiresAt time.Time) error
	// FindByResetOTP matches email, otp and an expiry later than now in one predicate.
	FindByResetOTP(ctx context.Context, email, otp string, now time.Time) (*entity.User, error)
	// ConsumeResetOTP stores passwordHash and clears both OTP fields only if the
	// user still holds otp. Returns ErrNotFound otherwise.
	ConsumeResetOTP(ctx context.Context, userID, otp, passwordHash string) error
}
