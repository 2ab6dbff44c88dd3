package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/knighthoot/backend/internal/config"
	"github.com/knighthoot/backend/internal/model"
)

// memUserStore is an in-memory UserStore keeping teachers and students in
// separate maps, mirroring the two-table layout.
type memUserStore struct {
	mu     sync.Mutex
	nextID int
	users  map[model.Role]map[int]*model.User
}

func newMemUserStore() *memUserStore {
	return &memUserStore{
		nextID: 1,
		users: map[model.Role]map[int]*model.User{
			model.RoleTeacher: {},
			model.RoleStudent: {},
		},
	}
}

func (s *memUserStore) GetByID(ctx context.Context, role model.Role, id int) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[role][id]
	if !ok {
		return nil, errors.New("user not found")
	}
	copied := *u
	return &copied, nil
}

func (s *memUserStore) GetByUsername(ctx context.Context, role model.Role, username string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users[role] {
		if u.Username == username {
			copied := *u
			return &copied, nil
		}
	}
	return nil, errors.New("user not found")
}

func (s *memUserStore) GetByEmail(ctx context.Context, role model.Role, email string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users[role] {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, errors.New("user not found")
}

func (s *memUserStore) ExistsByUsernameOrEmail(ctx context.Context, role model.Role, username, email string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users[role] {
		if u.Username == username || u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (s *memUserStore) Create(ctx context.Context, u *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u.ID = s.nextID
	s.nextID++
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	copied := *u
	s.users[u.Role][u.ID] = &copied
	return nil
}

func (s *memUserStore) UpdatePassword(ctx context.Context, role model.Role, id int, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[role][id]
	if !ok {
		return errors.New("user not found")
	}
	u.PasswordHash = passwordHash
	return nil
}

func boolPtr(v bool) *bool { return &v }

func newAuthFixture(t *testing.T) (*AuthService, *memUserStore, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	cfg := &config.Config{
		JWTSecret:  "test-secret",
		JWTExpiry:  time.Hour,
		BcryptCost: 4,
		OTPTTL:     10 * time.Minute,
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := newMemUserStore()
	return NewAuthService(cfg, rdb, store, zerolog.Nop()), store, mr
}

func registerTeacher(t *testing.T, svc *AuthService) *model.User {
	t.Helper()
	user, err := svc.Register(context.Background(), &model.RegisterRequest{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Username:  "ada",
		Password:  "secret123",
		Email:     "ada@example.com",
		IsTeacher: boolPtr(true),
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	return user
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _, _ := newAuthFixture(t)
	ctx := context.Background()

	user := registerTeacher(t, svc)
	if user.Role != model.RoleTeacher || user.ID == 0 {
		t.Fatalf("unexpected user: %+v", user)
	}

	// Same username in the same role is refused.
	_, err := svc.Register(ctx, &model.RegisterRequest{
		FirstName: "Other", LastName: "Person", Username: "ada",
		Password: "secret123", Email: "other@example.com", IsTeacher: boolPtr(true),
	})
	if !errors.Is(err, ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}

	// The same username as a student is a different account space.
	if _, err := svc.Register(ctx, &model.RegisterRequest{
		FirstName: "Ada", LastName: "Jr", Username: "ada",
		Password: "secret123", Email: "ada.jr@example.com", IsTeacher: boolPtr(false),
	}); err != nil {
		t.Fatalf("student register: %v", err)
	}

	token, loggedIn, err := svc.Login(ctx, "ada", "secret123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if token == "" || loggedIn.Role != model.RoleTeacher {
		t.Fatalf("teacher should win the username lookup, got %+v", loggedIn)
	}

	if _, _, err := svc.Login(ctx, "ada", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, _, err := svc.Login(ctx, "nobody", "secret123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestTokenSessionLifecycle(t *testing.T) {
	svc, _, _ := newAuthFixture(t)
	ctx := context.Background()

	user := registerTeacher(t, svc)
	token, _, err := svc.Login(ctx, "ada", "secret123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	claims, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatalf("validate token: %v", err)
	}
	if claims.UserID != user.ID || claims.Role != model.RoleTeacher {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if err := svc.ValidateSession(ctx, claims.Role, claims.UserID, claims.ID); err != nil {
		t.Fatalf("validate session: %v", err)
	}

	// A second login supersedes the first token's session.
	if _, _, err := svc.Login(ctx, "ada", "secret123"); err != nil {
		t.Fatalf("relogin: %v", err)
	}
	if err := svc.ValidateSession(ctx, claims.Role, claims.UserID, claims.ID); err == nil {
		t.Fatal("expected stale session to be rejected")
	}

	if err := svc.Logout(ctx, model.RoleTeacher, user.ID); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if err := svc.ValidateSession(ctx, claims.Role, claims.UserID, claims.ID); err == nil {
		t.Fatal("expected session gone after logout")
	}

	if _, err := svc.ValidateToken("not-a-token"); err == nil {
		t.Fatal("expected garbage token to fail")
	}
}

func TestPasswordResetFlow(t *testing.T) {
	svc, _, mr := newAuthFixture(t)
	ctx := context.Background()

	registerTeacher(t, svc)

	if err := svc.RequestPasswordReset(ctx, "ada@example.com"); err != nil {
		t.Fatalf("request reset: %v", err)
	}

	otp, err := mr.Get(config.CacheKey.ResetOTPKey("ada@example.com"))
	if err != nil {
		t.Fatalf("otp not stored: %v", err)
	}
	if len(otp) != 6 {
		t.Fatalf("otp = %q, want six digits", otp)
	}

	// The OTP mail is queued for the worker with the code in its body.
	queued, err := mr.List(config.WorkerKey.OutboundMailQueue)
	if err != nil || len(queued) != 1 {
		t.Fatalf("mail not queued: %v (%d items)", err, len(queued))
	}
	var mail model.MailMessage
	if err := json.Unmarshal([]byte(queued[0]), &mail); err != nil {
		t.Fatalf("decode mail: %v", err)
	}
	if mail.To != "ada@example.com" || mail.Body != fmt.Sprintf("Knighthoot OTP Reset: %s", otp) {
		t.Fatalf("unexpected mail: %+v", mail)
	}

	wrong := "000000"
	if otp == wrong {
		wrong = "000001"
	}
	if err := svc.ResetPassword(ctx, &model.ResetPasswordRequest{
		Email: "ada@example.com", OTP: wrong, NewPassword: "newpass123",
	}); !errors.Is(err, ErrInvalidOTP) {
		t.Fatalf("expected ErrInvalidOTP for wrong code, got %v", err)
	}

	if err := svc.ResetPassword(ctx, &model.ResetPasswordRequest{
		Email: "ada@example.com", OTP: otp, NewPassword: "newpass123",
	}); err != nil {
		t.Fatalf("reset: %v", err)
	}

	if _, _, err := svc.Login(ctx, "ada", "secret123"); err == nil {
		t.Fatal("old password should stop working")
	}
	if _, _, err := svc.Login(ctx, "ada", "newpass123"); err != nil {
		t.Fatalf("login with new password: %v", err)
	}

	// The code is single-use.
	if err := svc.ResetPassword(ctx, &model.ResetPasswordRequest{
		Email: "ada@example.com", OTP: otp, NewPassword: "again123",
	}); !errors.Is(err, ErrInvalidOTP) {
		t.Fatalf("expected consumed OTP to fail, got %v", err)
	}
}

func TestPasswordResetUnknownEmail(t *testing.T) {
	svc, _, mr := newAuthFixture(t)

	if err := svc.RequestPasswordReset(context.Background(), "ghost@example.com"); err != nil {
		t.Fatalf("unknown email should not error: %v", err)
	}
	if mr.Exists(config.WorkerKey.OutboundMailQueue) {
		t.Fatal("no mail should be queued for unknown email")
	}
}
