package service

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/colectra/backend/internal/domain"
	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const tokenTTL = 7 * 24 * time.Hour

// UserStore is the persistence surface AuthService needs.
type UserStore interface {
	Create(ctx context.Context, u *domain.User) error
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	Exists(ctx context.Context, email string) (bool, error)
	ListAll(ctx context.Context) ([]*domain.User, error)
	Delete(ctx context.Context, id string) error
}

// KVStore is an injected, swappable key-value store. Auth uses it as the
// revoked-token blacklist so logout works across replicas.
type KVStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// WalletOpener provisions the wallet that backs a new account.
type WalletOpener interface {
	Create(ctx context.Context, w *domain.Wallet) error
}

// AuthService handles authentication, JWT, and user management.
type AuthService struct {
	jwtSecret     string
	adminEmail    string
	adminPassword string
	users         UserStore
	wallets       WalletOpener
	blacklist     KVStore
	validate      *validator.Validate
}

// NewAuthService creates a new AuthService.
func NewAuthService(jwtSecret, adminEmail, adminPassword string, users UserStore, wallets WalletOpener, blacklist KVStore) *AuthService {
	return &AuthService{
		jwtSecret:     jwtSecret,
		adminEmail:    adminEmail,
		adminPassword: adminPassword,
		users:         users,
		wallets:       wallets,
		blacklist:     blacklist,
		validate:      validator.New(),
	}
}

// SeedAdmin creates the default admin user if it doesn't exist.
func (s *AuthService) SeedAdmin(ctx context.Context) error {
	exists, err := s.users.Exists(ctx, s.adminEmail)
	if err != nil {
		return fmt.Errorf("failed to check admin existence: %w", err)
	}
	if exists {
		log.Printf("admin user already exists (%s)", s.adminEmail)
		return nil
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(s.adminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	now := time.Now()
	admin := &domain.User{
		ID:        domain.NewID(),
		Email:     s.adminEmail,
		Password:  string(hashedPassword),
		Role:      domain.RoleAdmin,
		Name:      "Administrator",
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.users.Create(ctx, admin); err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}

	log.Printf("admin user created (%s)", s.adminEmail)
	return nil
}

// Register creates a new client-role account and returns a login response.
func (s *AuthService) Register(ctx context.Context, req *domain.RegisterRequest) (*domain.LoginResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, domain.ErrValidation(formatValidationErrors(err))
	}

	exists, err := s.users.Exists(ctx, req.Email)
	if err != nil {
		return nil, domain.ErrInternal("failed to check user existence", err)
	}
	if exists {
		return nil, domain.ErrConflict("an account with this email already exists")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, domain.ErrInternal("failed to hash password", err)
	}

	now := time.Now()
	user := &domain.User{
		ID:        domain.NewID(),
		Email:     req.Email,
		Password:  string(hashedPassword),
		Role:      domain.RoleClient,
		Name:      req.Name,
		Phone:     req.Phone,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, domain.ErrInternal("failed to create user", err)
	}
	s.openWallet(ctx, user.ID)

	return s.issueToken(user)
}

// Login validates credentials against the database and returns a JWT token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.LoginResponse, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, domain.ErrInternal("failed to find user", err)
	}
	if user == nil {
		return nil, domain.ErrUnauthorized("invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, domain.ErrUnauthorized("invalid credentials")
	}

	return s.issueToken(user)
}

// Logout revokes the presented token by blacklisting its jti until expiry.
func (s *AuthService) Logout(ctx context.Context, tokenStr string) error {
	claims, err := s.VerifyToken(ctx, tokenStr)
	if err != nil {
		return err
	}
	ttl := time.Until(claims.Exp)
	if ttl <= 0 {
		return nil // already expired
	}
	if err := s.blacklist.Set(ctx, blacklistKey(claims.JTI), "revoked", ttl); err != nil {
		return domain.ErrInternal("failed to revoke token", err)
	}
	return nil
}

// VerifyToken validates a JWT and rejects revoked tokens.
func (s *AuthService) VerifyToken(ctx context.Context, tokenStr string) (*domain.JWTClaims, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil {
		return nil, domain.ErrUnauthorized("invalid or expired token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, domain.ErrUnauthorized("invalid token claims")
	}

	sub, _ := claims["sub"].(string)
	email, _ := claims["email"].(string)
	role, _ := claims["role"].(string)
	jti, _ := claims["jti"].(string)
	exp, _ := claims["exp"].(float64)
	if sub == "" || jti == "" {
		return nil, domain.ErrUnauthorized("invalid token claims")
	}

	if _, revoked, err := s.blacklist.Get(ctx, blacklistKey(jti)); err != nil {
		return nil, domain.ErrInternal("failed to check token revocation", err)
	} else if revoked {
		return nil, domain.ErrUnauthorized("token has been revoked")
	}

	return &domain.JWTClaims{
		Sub:   sub,
		Email: email,
		Role:  role,
		JTI:   jti,
		Exp:   time.Unix(int64(exp), 0),
	}, nil
}

// Me returns the authenticated user's profile.
func (s *AuthService) Me(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, domain.ErrInternal("failed to find user", err)
	}
	if user == nil {
		return nil, domain.ErrNotFound("user not found")
	}
	return user, nil
}

// CreateUser creates a user with an explicit role (admin only).
func (s *AuthService) CreateUser(ctx context.Context, req *domain.CreateUserRequest) (*domain.User, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, domain.ErrValidation(formatValidationErrors(err))
	}

	exists, err := s.users.Exists(ctx, req.Email)
	if err != nil {
		return nil, domain.ErrInternal("failed to check user existence", err)
	}
	if exists {
		return nil, domain.ErrConflict("an account with this email already exists")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, domain.ErrInternal("failed to hash password", err)
	}

	now := time.Now()
	user := &domain.User{
		ID:        domain.NewID(),
		Email:     req.Email,
		Password:  string(hashedPassword),
		Role:      req.Role,
		Name:      req.Name,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, domain.ErrInternal("failed to create user", err)
	}
	s.openWallet(ctx, user.ID)
	return user, nil
}

// ListUsers returns all users (admin only).
func (s *AuthService) ListUsers(ctx context.Context) ([]*domain.User, error) {
	users, err := s.users.ListAll(ctx)
	if err != nil {
		return nil, domain.ErrInternal("failed to list users", err)
	}
	return users, nil
}

// DeleteUser removes a user (admin only).
func (s *AuthService) DeleteUser(ctx context.Context, id string) error {
	if err := s.users.Delete(ctx, id); err != nil {
		return domain.ErrInternal("failed to delete user", err)
	}
	return nil
}

func (s *AuthService) issueToken(user *domain.User) (*domain.LoginResponse, error) {
	claims := jwt.MapClaims{
		"sub":   user.ID,
		"email": user.Email,
		"role":  user.Role,
		"jti":   domain.NewID(),
		"exp":   time.Now().Add(tokenTTL).Unix(),
		"iat":   time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return nil, domain.ErrInternal("failed to sign token", err)
	}

	return &domain.LoginResponse{
		Token: signed,
		User: domain.LoginUser{
			ID:    user.ID,
			Email: user.Email,
			Role:  user.Role,
			Name:  user.Name,
		},
	}, nil
}

// openWallet opens the zero-balance wallet for a freshly created account.
// A conflict means the wallet already exists; other failures are logged and
// left to the wallet endpoint, which can still create one later.
func (s *AuthService) openWallet(ctx context.Context, userID string) {
	now := time.Now()
	w := &domain.Wallet{
		ID:        domain.NewID(),
		UserID:    userID,
		Balance:   0,
		Kind:      domain.WalletKindStandard,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.wallets.Create(ctx, w); err != nil {
		if appErr, ok := domain.AsAppError(err); ok && appErr.Code == http.StatusConflict {
			return
		}
		log.Printf("[Auth] failed to open wallet for user %s: %v", userID, err)
	}
}

func blacklistKey(jti string) string {
	return "auth:revoked:" + jti
}
