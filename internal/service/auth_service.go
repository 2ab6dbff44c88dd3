package service

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/knighthoot/backend/internal/config"
	"github.com/knighthoot/backend/internal/model"
)

// UserStore is the account persistence needed by AuthService. Implemented by
// repository.UserRepository.
type UserStore interface {
	GetByID(ctx context.Context, role model.Role, id int) (*model.User, error)
	GetByUsername(ctx context.Context, role model.Role, username string) (*model.User, error)
	GetByEmail(ctx context.Context, role model.Role, email string) (*model.User, error)
	ExistsByUsernameOrEmail(ctx context.Context, role model.Role, username, email string) (bool, error)
	Create(ctx context.Context, u *model.User) error
	UpdatePassword(ctx context.Context, role model.Role, id int, passwordHash string) error
}

// Common auth errors.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserExists         = errors.New("username or email already registered")
	ErrInvalidOTP         = errors.New("invalid or expired code")
)

// Claims extends JWT standard claims with app-specific fields.
type Claims struct {
	jwt.RegisteredClaims
	Role   model.Role `json:"role"`
	UserID int        `json:"user_id"`
}

// AuthService handles registration, login, JWT sessions, and password resets.
type AuthService struct {
	cfg      *config.Config
	rdb      *redis.Client
	userRepo UserStore
	log      zerolog.Logger
}

// NewAuthService creates a new AuthService.
func NewAuthService(cfg *config.Config, rdb *redis.Client, userRepo UserStore, log zerolog.Logger) *AuthService {
	return &AuthService{
		cfg:      cfg,
		rdb:      rdb,
		userRepo: userRepo,
		log:      log.With().Str("component", "auth_service").Logger(),
	}
}

// Register creates a teacher or student account. Usernames and emails are
// unique within each role's table.
func (s *AuthService) Register(ctx context.Context, req *model.RegisterRequest) (*model.User, error) {
	role := model.RoleStudent
	if *req.IsTeacher {
		role = model.RoleTeacher
	}

	exists, err := s.userRepo.ExistsByUsernameOrEmail(ctx, role, req.Username, req.Email)
	if err != nil {
		return nil, fmt.Errorf("check existing user: %w", err)
	}
	if exists {
		return nil, ErrUserExists
	}

	hash, err := s.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.log.Info().Str("role", string(role)).Str("username", user.Username).
		Int("user_id", user.ID).Msg("User registered")
	return user, nil
}

// Login verifies credentials for the given role and issues a signed token.
// Teacher accounts are tried first when the client did not say which role it
// wants, matching how the login form behaves.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, *model.User, error) {
	user, err := s.userRepo.GetByUsername(ctx, model.RoleTeacher, username)
	if err != nil {
		user, err = s.userRepo.GetByUsername(ctx, model.RoleStudent, username)
	}
	if err != nil {
		return "", nil, ErrInvalidCredentials
	}
	if err := s.CheckPassword(user.PasswordHash, password); err != nil {
		return "", nil, err
	}

	token, err := s.GenerateToken(ctx, user.Role, user.ID)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// HashPassword hashes a password with the configured bcrypt cost.
func (s *AuthService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	return string(hash), err
}

// CheckPassword compares a plaintext password against a bcrypt hash.
func (s *AuthService) CheckPassword(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// GenerateToken creates a JWT and registers its JTI as the user's active
// session in Redis. A new login replaces the previous session, so tokens
// from earlier logins stop validating.
func (s *AuthService) GenerateToken(ctx context.Context, role model.Role, userID int) (string, error) {
	jti := uuid.New().String()
	now := time.Now()

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   strconv.Itoa(userID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.JWTExpiry)),
		},
		Role:   role,
		UserID: userID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	sessionKey := config.CacheKey.UserSessionKey(string(role), userID)
	if err := s.rdb.Set(ctx, sessionKey, jti, s.cfg.JWTExpiry).Err(); err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}
	return signed, nil
}

// ValidateToken parses and validates a JWT, returning the claims.
func (s *AuthService) ValidateToken(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}

// ValidateSession checks that the token's JTI matches the active session.
func (s *AuthService) ValidateSession(ctx context.Context, role model.Role, userID int, jti string) error {
	stored, err := s.rdb.Get(ctx, config.CacheKey.UserSessionKey(string(role), userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return errors.New("no active session")
		}
		return fmt.Errorf("check session: %w", err)
	}
	if stored != jti {
		return errors.New("session invalidated")
	}
	return nil
}

// Logout removes the user's active session from Redis.
func (s *AuthService) Logout(ctx context.Context, role model.Role, userID int) error {
	return s.rdb.Del(ctx, config.CacheKey.UserSessionKey(string(role), userID)).Err()
}

// RequestPasswordReset generates a six digit code for the account matching
// the email, stores it with a TTL, and queues the OTP mail for delivery.
// Unknown emails return nil so the endpoint does not leak which addresses
// have accounts.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	if _, _, err := s.findByEmail(ctx, email); err != nil {
		s.log.Debug().Str("email", email).Msg("Reset requested for unknown email")
		return nil
	}

	otp, err := generateOTP()
	if err != nil {
		return fmt.Errorf("generate otp: %w", err)
	}
	if err := s.rdb.Set(ctx, config.CacheKey.ResetOTPKey(email), otp, s.cfg.OTPTTL).Err(); err != nil {
		return fmt.Errorf("store otp: %w", err)
	}

	msg := model.MailMessage{
		To:      email,
		Subject: "Knighthoot Password Reset",
		Body:    fmt.Sprintf("Knighthoot OTP Reset: %s", otp),
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode mail: %w", err)
	}
	if err := s.rdb.LPush(ctx, config.WorkerKey.OutboundMailQueue, payload).Err(); err != nil {
		return fmt.Errorf("queue mail: %w", err)
	}

	s.log.Info().Str("email", email).Msg("Password reset OTP queued")
	return nil
}

// ResetPassword swaps the account's password after verifying the OTP. The
// code is single-use: it is deleted as soon as it matches.
func (s *AuthService) ResetPassword(ctx context.Context, req *model.ResetPasswordRequest) error {
	otpKey := config.CacheKey.ResetOTPKey(req.Email)
	stored, err := s.rdb.Get(ctx, otpKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrInvalidOTP
		}
		return fmt.Errorf("check otp: %w", err)
	}
	if stored != req.OTP {
		return ErrInvalidOTP
	}

	user, role, err := s.findByEmail(ctx, req.Email)
	if err != nil {
		return ErrInvalidOTP
	}

	hash, err := s.HashPassword(req.NewPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.userRepo.UpdatePassword(ctx, role, user.ID, hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if err := s.rdb.Del(ctx, otpKey).Err(); err != nil {
		return fmt.Errorf("consume otp: %w", err)
	}

	// Invalidate any active session so the old token cannot outlive the reset.
	_ = s.Logout(ctx, role, user.ID)

	s.log.Info().Str("role", string(role)).Int("user_id", user.ID).Msg("Password reset")
	return nil
}

func (s *AuthService) findByEmail(ctx context.Context, email string) (*model.User, model.Role, error) {
	if user, err := s.userRepo.GetByEmail(ctx, model.RoleTeacher, email); err == nil {
		return user, model.RoleTeacher, nil
	}
	user, err := s.userRepo.GetByEmail(ctx, model.RoleStudent, email)
	if err != nil {
		return nil, "", err
	}
	return user, model.RoleStudent, nil
}

func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
