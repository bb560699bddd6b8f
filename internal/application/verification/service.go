package verification

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"regexp"
	"strings"
	"time"

	"github.com/nearnest/api/internal/domain"
	"github.com/nearnest/api/internal/pkg/id"
)

// Service implements the email verification challenge: issuing a short-lived
// single-use code and validating a candidate against the stored digest.
type Service interface {
	RequestCode(ctx context.Context, accountID, email string) error
	VerifyCode(ctx context.Context, accountID, code string) error
}

// AccountStore is the minimal account persistence the service needs.
type AccountStore interface {
	Upsert(ctx context.Context, accountID, email string) error
	Update(ctx context.Context, accountID string, updates map[string]interface{}) error
}

// VerificationStore persists the per-account challenge record.
type VerificationStore interface {
	Put(ctx context.Context, v *domain.EmailVerification) error
	Get(ctx context.Context, accountID string) (*domain.EmailVerification, error)
	Delete(ctx context.Context, accountID string) error
	IncrementAttempts(ctx context.Context, accountID string) error
}

// EmailLogStore records dispatched emails for auditing. Optional.
type EmailLogStore interface {
	Put(ctx context.Context, l *domain.EmailLog) error
}

// Mailer delivers the raw code out-of-band. A nil Mailer means the email
// transport is not configured and issuance must fail.
type Mailer interface {
	SendVerificationCode(to, code string, ttl time.Duration) error
}

// ServiceDeps bundles the service dependencies.
type ServiceDeps struct {
	Accounts      AccountStore
	Verifications VerificationStore
	EmailLogs     EmailLogStore
	Mailer        Mailer
	CodeTTL       time.Duration
	MaxAttempts   int
}

type service struct {
	accounts      AccountStore
	verifications VerificationStore
	emailLogs     EmailLogStore
	mailer        Mailer
	codeTTL       time.Duration
	maxAttempts   int
}

func NewService(deps ServiceDeps) Service {
	s := &service{
		accounts:      deps.Accounts,
		verifications: deps.Verifications,
		emailLogs:     deps.EmailLogs,
		mailer:        deps.Mailer,
		codeTTL:       deps.CodeTTL,
		maxAttempts:   deps.MaxAttempts,
	}
	if s.codeTTL <= 0 {
		s.codeTTL = 10 * time.Minute
	}
	if s.maxAttempts <= 0 {
		s.maxAttempts = 5
	}
	return s
}

// codeRe accepts any literal 6-digit candidate. The generator never produces
// a leading zero, so such candidates are syntactically valid but can never
// match.
var codeRe = regexp.MustCompile(`^[0-9]{6}$`)

func (s *service) RequestCode(ctx context.Context, accountID, email string) error {
	if accountID == "" {
		return fmt.Errorf("missing account identifier: %w", domain.ErrUnauthenticated)
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return fmt.Errorf("email is required: %w", domain.ErrInvalidArgument)
	}
	if s.mailer == nil {
		return fmt.Errorf("cannot send verification email: %w", domain.ErrEmailNotConfigured)
	}

	if err := s.accounts.Upsert(ctx, accountID, email); err != nil {
		return fmt.Errorf("upsert account: %w", err)
	}

	code, err := generateCode()
	if err != nil {
		return err
	}

	// Send before persisting: a failed delivery must never leave behind a
	// record for a code the user never received.
	if err := s.mailer.SendVerificationCode(email, code, s.codeTTL); err != nil {
		return fmt.Errorf("send verification email: %w", err)
	}

	v := &domain.EmailVerification{
		AccountID: accountID,
		CodeHash:  hashCode(code),
		ExpiresAt: time.Now().Add(s.codeTTL).Unix(),
		Attempts:  0,
	}
	if err := s.verifications.Put(ctx, v); err != nil {
		return fmt.Errorf("store verification: %w", err)
	}

	if s.emailLogs != nil {
		l := &domain.EmailLog{
			LogID:     id.New(),
			AccountID: accountID,
			Email:     email,
			Kind:      domain.EmailLogKindVerificationCode,
			SentAt:    time.Now().UTC(),
		}
		if err := s.emailLogs.Put(ctx, l); err != nil {
			slog.Warn("failed to record email log", "account_id", accountID, "err", err)
		}
	}
	return nil
}

func (s *service) VerifyCode(ctx context.Context, accountID, code string) error {
	if accountID == "" {
		return fmt.Errorf("missing account identifier: %w", domain.ErrUnauthenticated)
	}
	if !codeRe.MatchString(code) {
		return fmt.Errorf("code must be exactly 6 digits: %w", domain.ErrInvalidArgument)
	}
	v, err := s.verifications.Get(ctx, accountID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("no active verification: %w", domain.ErrNotFound)
		}
		// A store failure is not evidence the record is gone; keep the
		// tags distinguishable.
		return fmt.Errorf("load verification: %w", err)
	}
	// The attempt budget is checked before anything else about the record:
	// a caller that has burned through it gets a terminal failure even with
	// the right code in hand.
	if v.Attempts+1 > s.maxAttempts {
		s.deleteRecord(ctx, accountID, "exhausted")
		return fmt.Errorf("attempt limit reached: %w", domain.ErrTooManyAttempts)
	}
	if v.ExpiresAt < time.Now().Unix() {
		s.deleteRecord(ctx, accountID, "expired")
		return fmt.Errorf("code expired: %w", domain.ErrExpired)
	}
	if hashCode(code) != v.CodeHash {
		if err := s.verifications.IncrementAttempts(ctx, accountID); err != nil {
			slog.Warn("failed to record failed attempt", "account_id", accountID, "err", err)
		}
		return fmt.Errorf("code does not match: %w", domain.ErrCodeMismatch)
	}

	if err := s.accounts.Update(ctx, accountID, map[string]interface{}{
		"status": domain.StatusEmailVerified,
	}); err != nil {
		return fmt.Errorf("mark account verified: %w", err)
	}
	s.deleteRecord(ctx, accountID, "consumed")
	return nil
}

func (s *service) deleteRecord(ctx context.Context, accountID, reason string) {
	if err := s.verifications.Delete(ctx, accountID); err != nil {
		slog.Warn("failed to delete verification record",
			"account_id", accountID, "reason", reason, "err", err)
	}
}

// generateCode draws a uniform random 6-digit code. The first digit is never
// zero; the documented range is 100000-999999.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

// hashCode returns the hex sha256 digest stored in place of the raw code.
// No salt: the code space is tiny and short-lived, and guessing is bounded
// by the attempt limit, not by digest hardness.
func hashCode(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}
