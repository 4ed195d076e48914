package service

import (
	"fmt"
	"net/mail"
	"regexp"

	"github.com/Abdurahmanit/GroupProject/storefront/internal/domain/entity"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 6

var otpPattern = regexp.MustCompile(`^\d{6}$`)

// normalizeEmail lowercases and validates an address, rejecting display-name forms.
func normalizeEmail(raw string) (string, error) {
	email := entity.NormalizeEmail(raw)
	if email == "" {
		return "", validationError("email is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", validationError("invalid email address")
	}
	return email, nil
}

func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return validationError("password must be at least %d characters", minPasswordLength)
	}
	return nil
}

func hashPassword(password string, cost int) (string, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("could not hash password: %w", err)
	}
	return string(hash), nil
}
