package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/Abdurahmanit/GroupProject/storefront/internal/adapter/email"
	"github.com/Abdurahmanit/GroupProject/storefront/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/storefront/internal/repository"
)

const (
	defaultOTPTTL             = 10 * time.Minute
	defaultResetMaxRequests   = 3
	defaultResetWindow        = 15 * time.Minute
	passwordResetLimiterScope = "pwreset:"
	resetDeliveryTimeout      = 30 * time.Second
)

// ResetRequestedMessage is returned for every well-formed, non-throttled request
// so callers cannot tell whether the account exists.
const ResetRequestedMessage = "If an account with that email exists, a reset code has been sent."

type PasswordResetService interface {
	RequestReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, email, otp, newPassword string) error
	// Wait blocks until reset emails sent in the background have finished.
	Wait()
}

type PasswordResetConfig struct {
	OTPTTL      time.Duration
	MaxRequests int
	Window      time.Duration
	// ExposeOTPInLogs writes the code to the log when email delivery fails.
	ExposeOTPInLogs bool
	BcryptCost      int
}

type passwordResetService struct {
	userRepo repository.UserRepository
	limiter  repository.RateLimiter
	mailer   email.EmailSender
	recorder Recorder
	log      logger.Logger
	cfg      PasswordResetConfig
	now      func() time.Time
	genOTP   func() (string, error)

	deliveries sync.WaitGroup
}

// NewPasswordResetService accepts a nil mailer; codes are then only delivered
// through the log when ExposeOTPInLogs is set.
func NewPasswordResetService(
	userRepo repository.UserRepository,
	limiter repository.RateLimiter,
	mailer email.EmailSender,
	recorder Recorder,
	log logger.Logger,
	cfg PasswordResetConfig,
) PasswordResetService {
	if cfg.OTPTTL <= 0 {
		cfg.OTPTTL = defaultOTPTTL
	}
	if cfg.MaxRequests <= 0 {
		cfg.MaxRequests = defaultResetMaxRequests
	}
	if cfg.Window <= 0 {
		cfg.Window = defaultResetWindow
	}
	return &passwordResetService{
		userRepo: userRepo,
		limiter:  limiter,
		mailer:   mailer,
		recorder: recorderOrNop(recorder),
		log:      log,
		cfg:      cfg,
		now:      time.Now,
		genOTP:   generateOTP,
	}
}

// generateOTP draws a uniform code in [100000, 999999] from crypto/rand.
func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("could not generate OTP: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

func (s *passwordResetService) RequestReset(ctx context.Context, rawEmail string) error {
	addr, err := normalizeEmail(rawEmail)
	if err != nil {
		s.recorder.PasswordResetRequest("invalid")
		return err
	}

	allowed, err := s.limiter.Allow(ctx, passwordResetLimiterScope+addr, s.cfg.MaxRequests, s.cfg.Window)
	if err != nil {
		s.log.Errorf("Password reset limiter failed for %s: %v", maskEmail(addr), err)
		return fmt.Errorf("could not check reset rate limit: %w", err)
	}
	if !allowed {
		s.log.Warnf("Password reset rate limit hit for %s", maskEmail(addr))
		s.recorder.PasswordResetRequest("rate_limited")
		return fmt.Errorf("%w: too many reset requests, try again later", ErrRateLimited)
	}

	user, err := s.userRepo.GetByEmail(ctx, addr)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.log.Infof("Password reset requested for unknown email %s", maskEmail(addr))
			s.recorder.PasswordResetRequest("unknown_account")
			return nil
		}
		return fmt.Errorf("could not look up account: %w", err)
	}

	otp, err := s.genOTP()
	if err != nil {
		return err
	}
	expiresAt := s.now().UTC().Add(s.cfg.OTPTTL)
	if err := s.userRepo.SetResetOTP(ctx, user.ID, otp, expiresAt); err != nil {
		s.log.Errorf("Failed to store reset OTP for user %s: %v", user.ID, err)
		return fmt.Errorf("could not store reset code: %w", err)
	}
	s.recorder.PasswordResetRequest("issued")

	// The response does not wait for the mail server.
	s.deliveries.Add(1)
	go func() {
		defer s.deliveries.Done()
		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), resetDeliveryTimeout)
		defer cancel()
		s.deliver(sendCtx, user.ID, addr, otp)
	}()
	return nil
}

func (s *passwordResetService) Wait() {
	s.deliveries.Wait()
}

// deliver never fails the request: the stored code stays valid either way.
func (s *passwordResetService) deliver(ctx context.Context, userID, addr, otp string) {
	var sendErr error
	if s.mailer == nil {
		sendErr = errors.New("no email sender configured")
	} else {
		minutes := int(s.cfg.OTPTTL.Minutes())
		subject := "Your password reset code"
		text := fmt.Sprintf("Your password reset code is %s. It expires in %d minutes.\nIf you did not request a reset, ignore this email.", otp, minutes)
		html := fmt.Sprintf("<p>Your password reset code is <strong>%s</strong>.</p><p>It expires in %d minutes. If you did not request a reset, ignore this email.</p>", otp, minutes)
		sendErr = s.mailer.Send(ctx, []string{addr}, subject, html, text)
	}
	if sendErr == nil {
		s.log.Infof("Password reset code sent to %s", maskEmail(addr))
		return
	}

	s.log.Errorf("Failed to deliver password reset code to %s: %v", maskEmail(addr), sendErr)
	if s.cfg.ExposeOTPInLogs {
		s.log.Warnf("Password reset OTP for user %s (%s): %s", userID, addr, otp)
	}
}

func (s *passwordResetService) ResetPassword(ctx context.Context, rawEmail, otp, newPassword string) error {
	addr, err := normalizeEmail(rawEmail)
	if err != nil {
		return err
	}
	if !otpPattern.MatchString(otp) {
		return validationError("OTP must be exactly 6 digits")
	}
	if err := validatePassword(newPassword); err != nil {
		return err
	}

	user, err := s.userRepo.FindByResetOTP(ctx, addr, otp, s.now().UTC())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidOrExpiredOTP
		}
		return fmt.Errorf("could not verify reset code: %w", err)
	}

	hash, err := hashPassword(newPassword, s.cfg.BcryptCost)
	if err != nil {
		return err
	}
	if err := s.userRepo.ConsumeResetOTP(ctx, user.ID, otp, hash); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidOrExpiredOTP
		}
		return fmt.Errorf("could not reset password: %w", err)
	}
	s.log.Infof("Password reset completed for user %s", user.ID)
	return nil
}

func maskEmail(addr string) string {
	local, domain, ok := strings.Cut(addr, "@")
	if !ok {
		return "***"
	}
	if len(local) <= 2 {
		return "***@" + domain
	}
	return fmt.Sprintf("%c*****%c@%s", local[0], local[len(local)-1], domain)
}
