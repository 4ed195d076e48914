package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Abdurahmanit/GroupProject/storefront/internal/domain/entity"
	"github.com/Abdurahmanit/GroupProject/storefront/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/storefront/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
	Location string `json:"location"`
}

type UpdateProfileInput struct {
	Name     *string `json:"name,omitempty"`
	Email    *string `json:"email,omitempty"`
	Phone    *string `json:"phone,omitempty"`
	Location *string `json:"location,omitempty"`
}

type AuthResult struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      *entity.User `json:"user"`
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	GetProfile(ctx context.Context, userID string) (*entity.User, error)
	UpdateProfile(ctx context.Context, userID string, in UpdateProfileInput) (*entity.User, error)
	UpdateRole(ctx context.Context, principal entity.Principal, userID, role string) (*entity.User, error)
	CreateAdmin(ctx context.Context, in RegisterInput) (*entity.User, error)
}

type AuthServiceConfig struct {
	BcryptCost int
}

type authService struct {
	userRepo repository.UserRepository
	tokens   *TokenManager
	log      logger.Logger
	cost     int
}

func NewAuthService(userRepo repository.UserRepository, tokens *TokenManager, log logger.Logger, cfg AuthServiceConfig) AuthService {
	return &authService{
		userRepo: userRepo,
		tokens:   tokens,
		log:      log,
		cost:     cfg.BcryptCost,
	}
}

func (s *authService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	user, err := s.createUser(ctx, in, entity.RoleCustomer)
	if err != nil {
		return nil, err
	}
	return s.issue(user)
}

func (s *authService) CreateAdmin(ctx context.Context, in RegisterInput) (*entity.User, error) {
	return s.createUser(ctx, in, entity.RoleAdmin)
}

func (s *authService) createUser(ctx context.Context, in RegisterInput, role entity.Role) (*entity.User, error) {
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}
	if err := validatePassword(in.Password); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := &entity.User{
		Name:      strings.TrimSpace(in.Name),
		Email:     email,
		Phone:     strings.TrimSpace(in.Phone),
		Role:      role,
		Location:  strings.TrimSpace(in.Location),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := user.Validate(); err != nil {
		return nil, validationError("%v", err)
	}

	user.PasswordHash, err = hashPassword(in.Password, s.cost)
	if err != nil {
		return nil, err
	}

	id, err := s.userRepo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			return nil, fmt.Errorf("%w: email is already registered", ErrConflict)
		}
		s.log.Errorf("Failed to create user %s: %v", email, err)
		return nil, fmt.Errorf("could not create user: %w", err)
	}
	user.ID = id
	s.log.Infof("User registered: ID=%s, Role=%s", id, role)
	return user, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.userRepo.GetByEmail(ctx, entity.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("could not load user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.log.Debugf("Login failed for user %s: wrong password", user.ID)
		return nil, ErrInvalidCredentials
	}
	return s.issue(user)
}

func (s *authService) issue(user *entity.User) (*AuthResult, error) {
	token, expiresAt, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

func (s *authService) GetProfile(ctx context.Context, userID string) (*entity.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFoundError("user %s", userID)
		}
		return nil, fmt.Errorf("could not load user: %w", err)
	}
	return user, nil
}

func (s *authService) UpdateProfile(ctx context.Context, userID string, in UpdateProfileInput) (*entity.User, error) {
	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		user.Name = strings.TrimSpace(*in.Name)
	}
	if in.Phone != nil {
		user.Phone = strings.TrimSpace(*in.Phone)
	}
	if in.Location != nil {
		user.Location = strings.TrimSpace(*in.Location)
	}
	if in.Email != nil {
		email, err := normalizeEmail(*in.Email)
		if err != nil {
			return nil, err
		}
		user.Email = email
	}
	if err := user.Validate(); err != nil {
		return nil, validationError("%v", err)
	}

	err = s.userRepo.UpdateProfile(ctx, repository.UpdateProfileParams{
		UserID:   user.ID,
		Name:     user.Name,
		Email:    user.Email,
		Phone:    user.Phone,
		Location: user.Location,
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrAlreadyExists):
			return nil, fmt.Errorf("%w: email is already registered", ErrConflict)
		case errors.Is(err, repository.ErrNotFound):
			return nil, notFoundError("user %s", userID)
		}
		return nil, fmt.Errorf("could not update profile: %w", err)
	}
	user.UpdatedAt = time.Now().UTC()
	return user, nil
}

func (s *authService) UpdateRole(ctx context.Context, principal entity.Principal, userID, role string) (*entity.User, error) {
	if !principal.Can(entity.CapManageUsers) {
		return nil, ErrForbidden
	}
	newRole, err := entity.ParseRole(role)
	if err != nil {
		return nil, validationError("%v", err)
	}

	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if newRole == entity.RoleCustomer && strings.TrimSpace(user.Location) == "" {
		return nil, validationError("location is required for customers")
	}

	if err := s.userRepo.UpdateRole(ctx, userID, newRole); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFoundError("user %s", userID)
		}
		return nil, fmt.Errorf("could not update role: %w", err)
	}
	user.Role = newRole
	s.log.Infof("Admin %s changed role of user %s to %s", principal.UserID, userID, newRole)
	return user, nil
}
