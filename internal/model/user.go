package model

import "time"

// Role distinguishes the two account types.
type Role string

const (
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
)

// User represents a teacher or student account. Both live in separate tables
// with identical shape; Role records which table a value came from.
type User struct {
	ID           int       `json:"id"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// RegisterRequest is the payload for creating a new account.
type RegisterRequest struct {
	FirstName string `json:"firstName" binding:"required,min=1,max=100"`
	LastName  string `json:"lastName" binding:"required,min=1,max=100"`
	Username  string `json:"username" binding:"required,min=3,max=50"`
	Password  string `json:"password" binding:"required,min=6,max=128"`
	Email     string `json:"email" binding:"required,email,max=255"`
	IsTeacher *bool  `json:"isTeacher" binding:"required"`
}

// LoginRequest is the payload for authentication. The login endpoint checks
// teachers first, then students.
type LoginRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50"`
	Password string `json:"password" binding:"required,min=1,max=128"`
}

// RequestOTPRequest asks for a password-reset code by mail.
type RequestOTPRequest struct {
	Email string `json:"email" binding:"required,email,max=255"`
}

// ResetPasswordRequest redeems an OTP for a new password.
type ResetPasswordRequest struct {
	Email       string `json:"email" binding:"required,email,max=255"`
	OTP         string `json:"otp" binding:"required,len=6,numeric"`
	NewPassword string `json:"newPassword" binding:"required,min=6,max=128"`
}
