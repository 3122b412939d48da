package domain

import (
	"time"

	"github.com/google/uuid"
)

// User roles.
const (
	RoleAdmin     = "admin"
	RoleAgency    = "agency"
	RoleCollector = "collector"
	RoleClient    = "client"
)

// User represents an account able to authenticate against the API.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Password  string    `json:"-"` // bcrypt hash
	Role      string    `json:"role"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// RegisterRequest is the validated input for self-registration.
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Name     string `json:"name" validate:"required,min=1,max=100"`
	Phone    string `json:"phone" validate:"omitempty,max=20"`
}

// CreateUserRequest is the admin input for creating a user with a role.
type CreateUserRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Role     string `json:"role" validate:"required,oneof=admin agency collector client"`
	Name     string `json:"name" validate:"required,min=1,max=100"`
}

// LoginRequest is the input for authentication.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginUser is the user summary embedded in login responses.
type LoginUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
	Name  string `json:"name"`
}

// LoginResponse is returned on successful authentication.
type LoginResponse struct {
	Token string    `json:"token"`
	User  LoginUser `json:"user"`
}

// JWTClaims are the verified claims extracted from a bearer token.
type JWTClaims struct {
	Sub   string
	Email string
	Role  string
	JTI   string
	Exp   time.Time
}

// NewID generates a new UUID string for any entity.
func NewID() string {
	return uuid.New().String()
}
