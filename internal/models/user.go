package models

import "time"

const (
	RoleAdmin     = "admin"
	RoleHomeowner = "homeowner"
	RoleStaff     = "staff"
	RoleTenant    = "tenant"
)

const (
	UserStatusActive   = "active"
	UserStatusPending  = "pending"
	UserStatusInactive = "inactive"
)

type User struct {
	ID             int        `json:"id"`
	Name           string     `json:"name"`
	Email          string     `json:"email"`
	Phone          string     `json:"phone"`
	Unit           string     `json:"unit"`   // block / lot / street address
	PasswordHash   string     `json:"-"`      // Never expose in JSON
	Role           string     `json:"role"`   // admin, homeowner, staff or tenant
	Status         string     `json:"status"` // active, pending or inactive
	TOTPSecret     string     `json:"-"`
	TOTPEnabled    bool       `json:"totp_enabled"`
	TOTPVerifiedAt *time.Time `json:"-"`
	BackupCodes    string     `json:"-"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func (u *User) IsActive() bool { return u.Status == UserStatusActive }

func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }

// IsResident reports whether the user owns or rents a unit.
func (u *User) IsResident() bool {
	return u.Role == RoleHomeowner || u.Role == RoleTenant
}

// RegisterRequest is the self-service sign-up body. New accounts start pending.
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,max=120"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"omitempty,max=30"`
	Unit     string `json:"unit" validate:"required,max=120"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role" validate:"omitempty,oneof=homeowner tenant"`
}

// LoginRequest represents the request body for login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse represents the response after successful authentication
type AuthResponse struct {
	Token       string `json:"token,omitempty"`
	User        *User  `json:"user,omitempty"`
	Requires2FA bool   `json:"requires_2fa,omitempty"`
	TempToken   string `json:"temp_token,omitempty"`
}

// UpdateUserRequest is the admin edit body. Empty fields are left unchanged.
type UpdateUserRequest struct {
	Name   string `json:"name" validate:"omitempty,max=120"`
	Phone  string `json:"phone" validate:"omitempty,max=30"`
	Unit   string `json:"unit" validate:"omitempty,max=120"`
	Role   string `json:"role" validate:"omitempty,oneof=admin homeowner staff tenant"`
	Status string `json:"status" validate:"omitempty,oneof=active pending inactive"`
}

// UserFilter narrows user listings.
type UserFilter struct {
	Role   string
	Status string
}
