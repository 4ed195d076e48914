package entity

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleCustomer Role = "customer"
)

type Capability string

const (
	CapManageCatalog Capability = "manage_catalog"
	CapManageOrders  Capability = "manage_orders"
	CapViewAllOrders Capability = "view_all_orders"
	CapManageUsers   Capability = "manage_users"
	CapIssueRefunds  Capability = "issue_refunds"
)

var roleCapabilities = map[Role]map[Capability]bool{
	RoleAdmin: {
		CapManageCatalog: true,
		CapManageOrders:  true,
		CapViewAllOrders: true,
		CapManageUsers:   true,
		CapIssueRefunds:  true,
	},
	RoleCustomer: {},
}

func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

func (r Role) Valid() bool {
	_, ok := roleCapabilities[r]
	return ok
}

func (r Role) Can(c Capability) bool {
	return roleCapabilities[r][c]
}

type User struct {
	ID                string     `bson:"_id,omitempty" json:"id"`
	Name              string     `bson:"name" json:"name"`
	Email             string     `bson:"email" json:"email"`
	Phone             string     `bson:"phone" json:"phone"`
	PasswordHash      string     `bson:"password_hash" json:"-"`
	Role              Role       `bson:"role" json:"role"`
	Location          string     `bson:"location,omitempty" json:"location,omitempty"`
	ResetOTP          *string    `bson:"reset_otp,omitempty" json:"-"`
	ResetOTPExpiresAt *time.Time `bson:"reset_otp_expires_at,omitempty" json:"-"`
	CreatedAt         time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt         time.Time  `bson:"updated_at" json:"updated_at"`
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Validate checks the fields whose requirement depends on the role.
func (u *User) Validate() error {
	if strings.TrimSpace(u.Name) == "" {
		return errors.New("name is required")
	}
	if u.Email == "" {
		return errors.New("email is required")
	}
	if !u.Role.Valid() {
		return fmt.Errorf("unknown role %q", u.Role)
	}
	if u.Role == RoleCustomer && strings.TrimSpace(u.Location) == "" {
		return errors.New("location is required for customers")
	}
	return nil
}

// Principal is the authenticated caller of an operation.
type Principal struct {
	UserID string
	Role   Role
}

func (p Principal) Can(c Capability) bool {
	return p.Role.Can(c)
}
