package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	pkgauth "github.com/localmart-app/localmart-backend/pkg/auth"
	"github.com/localmart-app/localmart-backend/pkg/auth/session"
	"github.com/localmart-app/localmart-backend/pkg/config"
	"github.com/localmart-app/localmart-backend/pkg/db/models"
	"github.com/localmart-app/localmart-backend/pkg/enums"
	pkgerrors "github.com/localmart-app/localmart-backend/pkg/errors"
	"github.com/localmart-app/localmart-backend/pkg/logger"
)

var phoneRe = regexp.MustCompile(`^\+?[0-9]{8,15}$`)

// Service defines the OTP login surface.
type Service interface {
	RequestOTP(ctx context.Context, input RequestOTPInput) (*RequestOTPResponse, error)
	VerifyOTP(ctx context.Context, input VerifyOTPInput) (*AuthTokens, error)
	Refresh(ctx context.Context, input RefreshInput) (*AuthTokens, error)
	Logout(ctx context.Context, accessToken string) error
}

type otpStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
	OTPCodeKey(phone string) string
	OTPAttemptsKey(phone string) string
}

type sessionManager interface {
	Generate(ctx context.Context, accessID string) (string, error)
	Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error)
	Revoke(ctx context.Context, accessID string) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	users    UserRepository
	store    otpStore
	session  sessionManager
	tx       txRunner
	logg     *logger.Logger
	jwtCfg   config.JWTConfig
	otpCfg   config.OTPConfig
	limitCfg config.AuthRateLimitConfig
}

// ServiceParams bundles the dependencies required to build an auth service.
type ServiceParams struct {
	UserRepo       UserRepository
	OTPStore       otpStore
	SessionManager sessionManager
	TxRunner       txRunner
	Logger         *logger.Logger
	JWTConfig      config.JWTConfig
	OTPConfig      config.OTPConfig
	RateLimit      config.AuthRateLimitConfig
}

// NewService constructs an OTP login service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.UserRepo == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if params.OTPStore == nil {
		return nil, fmt.Errorf("otp store is required")
	}
	if params.SessionManager == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	if params.TxRunner == nil {
		return nil, fmt.Errorf("transaction runner is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &service{
		users:    params.UserRepo,
		store:    params.OTPStore,
		session:  params.SessionManager,
		tx:       params.TxRunner,
		logg:     params.Logger,
		jwtCfg:   params.JWTConfig,
		otpCfg:   params.OTPConfig,
		limitCfg: params.RateLimit,
	}, nil
}

func (s *service) RequestOTP(ctx context.Context, input RequestOTPInput) (*RequestOTPResponse, error) {
	phone, err := normalizePhone(input.Phone)
	if err != nil {
		return nil, err
	}

	allowed, _, err := s.store.FixedWindowAllow(ctx, "otp:phone:"+phone, int64(s.limitCfg.OTPPhoneLimit), s.limitCfg.OTPWindow)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "otp rate limit check")
	}
	if !allowed {
		return nil, pkgerrors.New(pkgerrors.CodeRateLimit, "too many codes requested for this phone")
	}
	if ip := strings.TrimSpace(input.ClientIP); ip != "" {
		allowed, _, err = s.store.FixedWindowAllow(ctx, "otp:ip:"+ip, int64(s.limitCfg.OTPIPLimit), s.limitCfg.OTPWindow)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "otp rate limit check")
		}
		if !allowed {
			return nil, pkgerrors.New(pkgerrors.CodeRateLimit, "too many codes requested from this address")
		}
	}

	code, err := generateOTP(s.otpCfg.Digits)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate otp")
	}
	if err := s.store.Set(ctx, s.store.OTPCodeKey(phone), code, s.otpCfg.TTL); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store otp")
	}
	// fresh code resets the attempt budget
	if err := s.store.Del(ctx, s.store.OTPAttemptsKey(phone)); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reset otp attempts")
	}

	// SMS delivery is out of scope; the code is logged in dev setups only.
	if s.otpCfg.DevEcho {
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{"phone": phone, "code": code}), "otp issued (dev echo)")
	} else {
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{"phone": phone}), "otp issued")
	}

	resp := &RequestOTPResponse{
		Phone:     phone,
		ExpiresIn: int(s.otpCfg.TTL.Seconds()),
	}
	if s.otpCfg.DevEcho {
		resp.DevCode = code
	}
	return resp, nil
}

func (s *service) VerifyOTP(ctx context.Context, input VerifyOTPInput) (*AuthTokens, error) {
	phone, err := normalizePhone(input.Phone)
	if err != nil {
		return nil, err
	}
	code := strings.TrimSpace(input.Code)
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "code is required")
	}

	attempts, err := s.store.IncrWithTTL(ctx, s.store.OTPAttemptsKey(phone), s.otpCfg.TTL)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count otp attempt")
	}
	if attempts > int64(s.otpCfg.MaxAttempts) {
		return nil, pkgerrors.New(pkgerrors.CodeRateLimit, "too many incorrect attempts, request a new code")
	}

	stored, err := s.store.Get(ctx, s.store.OTPCodeKey(phone))
	if err != nil {
		if errors.Is(err, redislib.Nil) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "code expired or never requested")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load otp")
	}
	if subtle.ConstantTimeCompare([]byte(stored), []byte(code)) != 1 {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "incorrect code")
	}

	if err := s.store.Del(ctx, s.store.OTPCodeKey(phone), s.store.OTPAttemptsKey(phone)); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "consume otp")
	}

	var user *models.User
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.users.WithTx(tx)
		found, err := repo.FindByPhone(ctx, phone)
		if err == nil {
			user = found
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
		}
		created, err := repo.Create(ctx, &models.User{
			Phone: phone,
			Name:  strings.TrimSpace(input.Name),
			Role:  enums.ActorRoleCustomer,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create user")
		}
		user = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.issueTokens(ctx, user)
}

func (s *service) Refresh(ctx context.Context, input RefreshInput) (*AuthTokens, error) {
	claims, err := pkgauth.ParseAccessTokenAllowExpired(s.jwtCfg, input.AccessToken)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid access token")
	}

	newAccessID, newRefresh, err := s.session.Rotate(ctx, claims.ID, input.RefreshToken)
	if err != nil {
		if errors.Is(err, session.ErrInvalidRefreshToken) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid refresh token")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rotate session")
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "account no longer exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}

	access, vendorID, err := s.mintAccess(ctx, user, newAccessID)
	if err != nil {
		return nil, err
	}
	return &AuthTokens{
		AccessToken:  access,
		RefreshToken: newRefresh,
		User:         user,
		VendorID:     vendorID,
	}, nil
}

func (s *service) Logout(ctx context.Context, accessToken string) error {
	claims, err := pkgauth.ParseAccessTokenAllowExpired(s.jwtCfg, accessToken)
	if err != nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid access token")
	}
	if err := s.session.Revoke(ctx, claims.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke session")
	}
	return nil
}

func (s *service) issueTokens(ctx context.Context, user *models.User) (*AuthTokens, error) {
	accessID := session.NewAccessID()
	refresh, err := s.session.Generate(ctx, accessID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create session")
	}

	access, vendorID, err := s.mintAccess(ctx, user, accessID)
	if err != nil {
		return nil, err
	}
	return &AuthTokens{
		AccessToken:  access,
		RefreshToken: refresh,
		User:         user,
		VendorID:     vendorID,
	}, nil
}

func (s *service) mintAccess(ctx context.Context, user *models.User, accessID string) (string, *uuid.UUID, error) {
	var vendorID *uuid.UUID
	if user.Role == enums.ActorRoleVendor {
		vendor, err := s.users.FindVendorByOwner(ctx, user.ID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load vendor")
		}
		if vendor != nil {
			vendorID = &vendor.ID
		}
	}

	access, err := pkgauth.MintAccessToken(s.jwtCfg, time.Now(), pkgauth.AccessTokenPayload{
		UserID:   user.ID,
		Role:     user.Role,
		VendorID: vendorID,
		JTI:      accessID,
	})
	if err != nil {
		return "", nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint access token")
	}
	return access, vendorID, nil
}

func normalizePhone(raw string) (string, error) {
	phone := strings.NewReplacer(" ", "", "-", "", "(", "", ")", "").Replace(strings.TrimSpace(raw))
	if !phoneRe.MatchString(phone) {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "invalid phone number")
	}
	return phone, nil
}

func generateOTP(digits int) (string, error) {
	if digits <= 0 {
		digits = 6
	}
	max := big.NewInt(1)
	for i := 0; i < digits; i++ {
		max.Mul(max, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", digits, n.Int64()), nil
}
