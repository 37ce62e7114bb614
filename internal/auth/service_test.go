package auth

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/localmart-app/localmart-backend/pkg/auth/session"
	"github.com/localmart-app/localmart-backend/pkg/config"
	"github.com/localmart-app/localmart-backend/pkg/db/models"
	"github.com/localmart-app/localmart-backend/pkg/enums"
	pkgerrors "github.com/localmart-app/localmart-backend/pkg/errors"
	"github.com/localmart-app/localmart-backend/pkg/logger"
)

type stubOTPStore struct {
	values   map[string]string
	counters map[string]int64
	windows  map[string]int64
}

func newStubOTPStore() *stubOTPStore {
	return &stubOTPStore{
		values:   make(map[string]string),
		counters: make(map[string]int64),
		windows:  make(map[string]int64),
	}
}

func (s *stubOTPStore) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	s.values[key] = value.(string)
	return nil
}

func (s *stubOTPStore) Get(ctx context.Context, key string) (string, error) {
	v, ok := s.values[key]
	if !ok {
		return "", redislib.Nil
	}
	return v, nil
}

func (s *stubOTPStore) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(s.values, key)
		delete(s.counters, key)
	}
	return nil
}

func (s *stubOTPStore) IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	s.counters[key]++
	return s.counters[key], nil
}

func (s *stubOTPStore) FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error) {
	s.windows[scope]++
	return s.windows[scope] <= limit, s.windows[scope], nil
}

func (s *stubOTPStore) OTPCodeKey(phone string) string     { return "test:otp:code:" + phone }
func (s *stubOTPStore) OTPAttemptsKey(phone string) string { return "test:otp:attempts:" + phone }

type stubUserRepo struct {
	byPhone map[string]*models.User
	vendors map[uuid.UUID]*models.Vendor
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{
		byPhone: make(map[string]*models.User),
		vendors: make(map[uuid.UUID]*models.Vendor),
	}
}

func (s *stubUserRepo) WithTx(tx *gorm.DB) UserRepository { return s }

func (s *stubUserRepo) FindByPhone(ctx context.Context, phone string) (*models.User, error) {
	user, ok := s.byPhone[phone]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (s *stubUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	for _, user := range s.byPhone {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubUserRepo) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	s.byPhone[user.Phone] = user
	return user, nil
}

func (s *stubUserRepo) FindVendorByOwner(ctx context.Context, ownerUserID uuid.UUID) (*models.Vendor, error) {
	vendor, ok := s.vendors[ownerUserID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return vendor, nil
}

type stubSessionManager struct {
	sessions map[string]string
	revoked  []string
}

func newStubSessionManager() *stubSessionManager {
	return &stubSessionManager{sessions: make(map[string]string)}
}

func (s *stubSessionManager) Generate(ctx context.Context, accessID string) (string, error) {
	token := "refresh-" + accessID
	s.sessions[accessID] = token
	return token, nil
}

func (s *stubSessionManager) Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error) {
	if s.sessions[oldAccessID] != provided {
		return "", "", session.ErrInvalidRefreshToken
	}
	delete(s.sessions, oldAccessID)
	next := uuid.NewString()
	token := "refresh-" + next
	s.sessions[next] = token
	return next, token, nil
}

func (s *stubSessionManager) Revoke(ctx context.Context, accessID string) error {
	s.revoked = append(s.revoked, accessID)
	delete(s.sessions, accessID)
	return nil
}

type nopTx struct{}

func (nopTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error { return fn(nil) }

type authFixture struct {
	store   *stubOTPStore
	users   *stubUserRepo
	session *stubSessionManager
	svc     Service
}

func newAuthFixture(t *testing.T, devEcho bool) *authFixture {
	t.Helper()
	store := newStubOTPStore()
	users := newStubUserRepo()
	session := newStubSessionManager()

	svc, err := NewService(ServiceParams{
		UserRepo:       users,
		OTPStore:       store,
		SessionManager: session,
		TxRunner:       nopTx{},
		Logger:         logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
		JWTConfig: config.JWTConfig{
			Secret:            "unit-test-secret",
			Issuer:            "localmart-test",
			ExpirationMinutes: 15,
		},
		OTPConfig: config.OTPConfig{
			TTL:         5 * time.Minute,
			Digits:      6,
			MaxAttempts: 3,
			DevEcho:     devEcho,
		},
		RateLimit: config.AuthRateLimitConfig{
			OTPWindow:     time.Minute,
			OTPPhoneLimit: 2,
			OTPIPLimit:    5,
		},
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return &authFixture{store: store, users: users, session: session, svc: svc}
}

func TestRequestAndVerifyOTPCreatesUser(t *testing.T) {
	f := newAuthFixture(t, true)
	ctx := context.Background()

	resp, err := f.svc.RequestOTP(ctx, RequestOTPInput{Phone: "+91 98765-43210"})
	if err != nil {
		t.Fatalf("request otp: %v", err)
	}
	if resp.Phone != "+919876543210" {
		t.Fatalf("phone not normalized: %s", resp.Phone)
	}
	if len(resp.DevCode) != 6 {
		t.Fatalf("dev echo should expose a 6-digit code, got %q", resp.DevCode)
	}

	tokens, err := f.svc.VerifyOTP(ctx, VerifyOTPInput{Phone: resp.Phone, Code: resp.DevCode, Name: "Asha"})
	if err != nil {
		t.Fatalf("verify otp: %v", err)
	}
	if tokens.AccessToken == "" || tokens.RefreshToken == "" {
		t.Fatalf("expected token pair")
	}
	if tokens.User.Role != enums.ActorRoleCustomer {
		t.Fatalf("new users default to customer, got %s", tokens.User.Role)
	}

	// the code is single use
	if _, err := f.svc.VerifyOTP(ctx, VerifyOTPInput{Phone: resp.Phone, Code: resp.DevCode}); !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("reused code should fail, got %v", err)
	}
}

func TestVerifyOTPWrongCodeAndAttemptBudget(t *testing.T) {
	f := newAuthFixture(t, true)
	ctx := context.Background()

	resp, err := f.svc.RequestOTP(ctx, RequestOTPInput{Phone: "9876543210"})
	if err != nil {
		t.Fatalf("request otp: %v", err)
	}

	for i := 0; i < 3; i++ {
		_, err = f.svc.VerifyOTP(ctx, VerifyOTPInput{Phone: resp.Phone, Code: "000000"})
		if !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
			t.Fatalf("attempt %d: expected unauthorized, got %v", i, err)
		}
	}
	// budget exhausted, even the right code is refused
	_, err = f.svc.VerifyOTP(ctx, VerifyOTPInput{Phone: resp.Phone, Code: resp.DevCode})
	if !pkgerrors.IsCode(err, pkgerrors.CodeRateLimit) {
		t.Fatalf("expected rate limit after exhausted attempts, got %v", err)
	}
}

func TestRequestOTPPhoneRateLimit(t *testing.T) {
	f := newAuthFixture(t, false)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := f.svc.RequestOTP(ctx, RequestOTPInput{Phone: "9876543210"}); err != nil {
			t.Fatalf("request %d: %v", i, err)
		}
	}
	_, err := f.svc.RequestOTP(ctx, RequestOTPInput{Phone: "9876543210"})
	if !pkgerrors.IsCode(err, pkgerrors.CodeRateLimit) {
		t.Fatalf("expected rate limit, got %v", err)
	}
}

func TestRequestOTPRejectsBadPhone(t *testing.T) {
	f := newAuthFixture(t, false)
	_, err := f.svc.RequestOTP(context.Background(), RequestOTPInput{Phone: "not-a-phone"})
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRefreshRotatesSession(t *testing.T) {
	f := newAuthFixture(t, true)
	ctx := context.Background()

	resp, err := f.svc.RequestOTP(ctx, RequestOTPInput{Phone: "9876543210"})
	if err != nil {
		t.Fatalf("request otp: %v", err)
	}
	tokens, err := f.svc.VerifyOTP(ctx, VerifyOTPInput{Phone: resp.Phone, Code: resp.DevCode})
	if err != nil {
		t.Fatalf("verify otp: %v", err)
	}

	rotated, err := f.svc.Refresh(ctx, RefreshInput{AccessToken: tokens.AccessToken, RefreshToken: tokens.RefreshToken})
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if rotated.RefreshToken == tokens.RefreshToken {
		t.Fatalf("refresh must rotate the refresh token")
	}

	// old pair is dead
	_, err = f.svc.Refresh(ctx, RefreshInput{AccessToken: tokens.AccessToken, RefreshToken: tokens.RefreshToken})
	if !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("stale refresh should fail, got %v", err)
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	f := newAuthFixture(t, true)
	ctx := context.Background()

	resp, err := f.svc.RequestOTP(ctx, RequestOTPInput{Phone: "9876543210"})
	if err != nil {
		t.Fatalf("request otp: %v", err)
	}
	tokens, err := f.svc.VerifyOTP(ctx, VerifyOTPInput{Phone: resp.Phone, Code: resp.DevCode})
	if err != nil {
		t.Fatalf("verify otp: %v", err)
	}

	if err := f.svc.Logout(ctx, tokens.AccessToken); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if len(f.session.revoked) != 1 {
		t.Fatalf("expected one revoked session, got %d", len(f.session.revoked))
	}
}
