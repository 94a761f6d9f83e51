package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/akshardoc/akshardoc/internal/model"
	appErr "github.com/akshardoc/akshardoc/internal/pkg/errors"
	"github.com/akshardoc/akshardoc/internal/pkg/jwt"
	"github.com/akshardoc/akshardoc/internal/pkg/logutil"
	"github.com/akshardoc/akshardoc/internal/pkg/timeutil"
)

const (
	otpResendCooldown = 60 * time.Second
	otpExpiry         = 10 * time.Minute
)

type OTPStore interface {
	Create(ctx context.Context, code *model.OTPCode) error
	LatestByEmail(ctx context.Context, email string) (*model.OTPCode, error)
	MarkUsed(ctx context.Context, id string) error
}

type SessionStore interface {
	Create(ctx context.Context, session *model.Session) error
	Get(ctx context.Context, id string) (*model.Session, error)
	Delete(ctx context.Context, id string) error
}

type UserStore interface {
	EnsureWithQuota(ctx context.Context, email string, freePages map[string]int, now int64) error
}

type AuthService struct {
	otps     OTPStore
	sessions SessionStore
	users    UserStore
	sender   EmailSender

	secret     string
	sessionTTL time.Duration
	freeTrial  int

	now func() int64
}

func NewAuthService(otps OTPStore, sessions SessionStore, users UserStore, sender EmailSender,
	secret string, sessionTTL time.Duration, freeTrialPages int) *AuthService {

	return &AuthService{
		otps:       otps,
		sessions:   sessions,
		users:      users,
		sender:     sender,
		secret:     secret,
		sessionTTL: sessionTTL,
		freeTrial:  freeTrialPages,
		now:        timeutil.NowUnix,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// RequestOTP issues a fresh verification code and mails it. A new request
// within the cooldown window is rejected; a new request after it supersedes
// the previous code, which from then on fails verification.
func (s *AuthService) RequestOTP(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if email == "" || !strings.Contains(email, "@") {
		return fmt.Errorf("%w: invalid email", appErr.ErrInvalid)
	}
	now := s.now()

	last, err := s.otps.LatestByEmail(ctx, email)
	if err != nil && !appErr.IsNotFound(err) {
		return err
	}
	if last != nil && now-last.Ctime < int64(otpResendCooldown/time.Second) {
		return appErr.ErrTooMany
	}

	code := newOTPCode()
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	record := &model.OTPCode{
		ID:        newID(),
		Email:     email,
		CodeHash:  string(hash),
		Ctime:     now,
		ExpiresAt: now + int64(otpExpiry/time.Second),
	}
	if err := s.otps.Create(ctx, record); err != nil {
		return err
	}

	body := fmt.Sprintf("Your verification code is %s. It expires in %d minutes.",
		code, int(otpExpiry/time.Minute))
	if err := s.sender.Send(ctx, email, "Your login code", body); err != nil {
		logutil.GetLogger(ctx).Error("send otp mail failed", zap.String("email", email), zap.Error(err))
		return err
	}
	return nil
}

// VerifyOTP checks the submitted code against the latest issued one, consumes
// it, provisions the user with the free-trial quota on first login, and
// returns a signed session token.
func (s *AuthService) VerifyOTP(ctx context.Context, email, code string) (string, error) {
	email = normalizeEmail(email)
	record, err := s.otps.LatestByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	now := s.now()
	if record.Used != 0 {
		return "", appErr.ErrInvalidCode
	}
	if now > record.ExpiresAt {
		return "", appErr.ErrExpiredCode
	}
	if bcrypt.CompareHashAndPassword([]byte(record.CodeHash), []byte(code)) != nil {
		return "", appErr.ErrInvalidCode
	}
	if err := s.otps.MarkUsed(ctx, record.ID); err != nil {
		// Lost the race to a concurrent verification with the same code.
		if appErr.IsNotFound(err) {
			return "", appErr.ErrInvalidCode
		}
		return "", err
	}

	if err := s.users.EnsureWithQuota(ctx, email, s.defaultQuota(), now); err != nil {
		return "", err
	}

	session := &model.Session{
		ID:        newID(),
		Email:     email,
		Ctime:     now,
		ExpiresAt: now + int64(s.sessionTTL/time.Second),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return "", err
	}
	token, err := jwt.GenerateToken(session.ID, email, []byte(s.secret), s.sessionTTL)
	if err != nil {
		return "", err
	}
	logutil.GetLogger(ctx).Info("session created", zap.String("email", email))
	return token, nil
}

// Authenticate resolves a session token to its email. The token must carry a
// valid signature and reference a live, unexpired session record.
func (s *AuthService) Authenticate(ctx context.Context, token string) (string, error) {
	claims, err := jwt.ParseToken(token, []byte(s.secret))
	if err != nil {
		return "", appErr.ErrUnauthorized
	}
	session, err := s.sessions.Get(ctx, claims.ID)
	if err != nil {
		if appErr.IsNotFound(err) {
			return "", appErr.ErrUnauthorized
		}
		return "", err
	}
	if s.now() > session.ExpiresAt {
		return "", appErr.ErrUnauthorized
	}
	return session.Email, nil
}

// Logout revokes the session behind the token. Garbage tokens are ignored so
// logout never fails from the caller's point of view.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	claims, err := jwt.ParseToken(token, []byte(s.secret))
	if err != nil {
		return nil
	}
	if err := s.sessions.Delete(ctx, claims.ID); err != nil && !errors.Is(err, appErr.ErrNotFound) {
		return err
	}
	return nil
}

func (s *AuthService) defaultQuota() map[string]int {
	quota := make(map[string]int, len(model.Modes))
	for _, mode := range model.Modes {
		quota[mode] = s.freeTrial
	}
	return quota
}
