package models

import (
	"time"

	"github.com/google/uuid"
)

// UserType decides which profile table holds the account balance.
type UserType string

const (
	UserTypeCustomer UserType = "USER"
	UserTypeCourier  UserType = "COURIER"
	UserTypeAdmin    UserType = "ADMIN"
)

// HasBalance reports whether accounts of this type own a wallet balance.
func (t UserType) HasBalance() bool {
	return t == UserTypeCustomer || t == UserTypeCourier
}

// UserDB represents a user record in the database
type UserDB struct {
	UserID        uuid.UUID `json:"id" db:"user_id"`                    // Primary key
	Email         string    `json:"email" db:"email"`                   // Unique email
	PhoneNumber   *string   `json:"phone_number" db:"phone_number"`     // Unique phone, optional
	PasswordHash  string    `json:"-" db:"password_hash"`               // bcrypt hash
	FullName      string    `json:"full_name" db:"full_name"`           // Display name
	UserType      UserType  `json:"user_type" db:"user_type"`           // USER, COURIER or ADMIN
	IsActive      bool      `json:"is_active" db:"is_active"`           // Disabled accounts cannot log in
	IsStaff       bool      `json:"is_staff" db:"is_staff"`             // Access to operator routes
	PhoneVerified bool      `json:"phone_verified" db:"phone_verified"` // Set after OTP check
	CreatedAt     time.Time `json:"created_at" db:"created_at"`         // Creation timestamp
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`         // Last update timestamp
}
