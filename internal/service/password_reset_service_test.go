package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Abdurahmanit/GroupProject/storefront/internal/adapter/memory"
	"github.com/Abdurahmanit/GroupProject/storefront/internal/domain/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type resetFixture struct {
	users  *fakeUserRepo
	mailer *MockEmailSender
	svc    *passwordResetService
	clock  time.Time
	userID string
}

func newResetFixture(t *testing.T) *resetFixture {
	t.Helper()
	f := &resetFixture{
		users:  newFakeUserRepo(),
		mailer: new(MockEmailSender),
		clock:  time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}
	now := func() time.Time { return f.clock }

	id, err := f.users.Create(context.Background(), &entity.User{
		Name:     "Ravi",
		Email:    "ravi@example.com",
		Role:     entity.RoleCustomer,
		Location: "Nashik",
	})
	require.NoError(t, err)
	f.userID = id

	svc := NewPasswordResetService(f.users, memory.NewRateLimiterWithClock(now), f.mailer, nil, testLog,
		PasswordResetConfig{BcryptCost: bcrypt.MinCost})
	f.svc = svc.(*passwordResetService)
	f.svc.now = now
	f.svc.genOTP = func() (string, error) { return "482913", nil }
	t.Cleanup(f.svc.Wait)
	return f
}

func TestGenerateOTP_SixDigits(t *testing.T) {
	for i := 0; i < 50; i++ {
		otp, err := generateOTP()
		require.NoError(t, err)
		assert.Regexp(t, `^[1-9]\d{5}$`, otp)
	}
}

func TestPasswordReset_RequestStoresCodeAndEmails(t *testing.T) {
	f := newResetFixture(t)
	f.mailer.On("Send", mock.Anything, []string{"ravi@example.com"}, "Your password reset code",
		mock.AnythingOfType("string"), mock.AnythingOfType("string")).Return(nil).Once()

	require.NoError(t, f.svc.RequestReset(context.Background(), "  Ravi@Example.com "))
	f.svc.Wait()

	u := f.users.get(f.userID)
	require.NotNil(t, u.ResetOTP)
	assert.Equal(t, "482913", *u.ResetOTP)
	require.NotNil(t, u.ResetOTPExpiresAt)
	assert.Equal(t, f.clock.Add(defaultOTPTTL), *u.ResetOTPExpiresAt)
	f.mailer.AssertExpectations(t)
}

func TestPasswordReset_UnknownEmailLooksIdentical(t *testing.T) {
	f := newResetFixture(t)

	require.NoError(t, f.svc.RequestReset(context.Background(), "nobody@example.com"))
	f.mailer.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	assert.Nil(t, f.users.get(f.userID).ResetOTP)
}

func TestPasswordReset_MalformedEmail(t *testing.T) {
	f := newResetFixture(t)
	for _, email := range []string{"", "not-an-email", "Ravi <ravi@example.com>"} {
		assert.ErrorIs(t, f.svc.RequestReset(context.Background(), email), ErrValidation, email)
	}
}

func TestPasswordReset_DeliveryFailureStillSucceeds(t *testing.T) {
	f := newResetFixture(t)
	f.mailer.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("smtp down"))

	require.NoError(t, f.svc.RequestReset(context.Background(), "ravi@example.com"))
	f.svc.Wait()
	assert.NotNil(t, f.users.get(f.userID).ResetOTP)
	f.mailer.AssertNumberOfCalls(t, "Send", 1)
}

func TestPasswordReset_DoesNotWaitForMailServer(t *testing.T) {
	f := newResetFixture(t)
	release := make(chan struct{})
	var sendCtxErr error
	f.mailer.On("Send", mock.Anything, []string{"ravi@example.com"}, mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			<-release
			sendCtxErr = args.Get(0).(context.Context).Err()
		}).Return(nil).Once()

	ctx, cancel := context.WithCancel(context.Background())
	returned := make(chan error, 1)
	go func() { returned <- f.svc.RequestReset(ctx, "ravi@example.com") }()

	select {
	case err := <-returned:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("RequestReset blocked on email delivery")
	}
	// A finished request must not abort the pending send.
	cancel()
	close(release)
	f.svc.Wait()
	assert.NoError(t, sendCtxErr)
	f.mailer.AssertExpectations(t)
}

func TestPasswordReset_RateLimit(t *testing.T) {
	f := newResetFixture(t)
	ctx := context.Background()
	f.mailer.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	for i := 0; i < defaultResetMaxRequests; i++ {
		require.NoError(t, f.svc.RequestReset(ctx, "ravi@example.com"))
		f.clock = f.clock.Add(time.Minute)
	}
	assert.ErrorIs(t, f.svc.RequestReset(ctx, "ravi@example.com"), ErrRateLimited)

	// Unknown addresses are throttled the same way.
	for i := 0; i < defaultResetMaxRequests; i++ {
		require.NoError(t, f.svc.RequestReset(ctx, "ghost@example.com"))
	}
	assert.ErrorIs(t, f.svc.RequestReset(ctx, "ghost@example.com"), ErrRateLimited)

	f.clock = f.clock.Add(defaultResetWindow)
	assert.NoError(t, f.svc.RequestReset(ctx, "ravi@example.com"))
	f.svc.Wait()
}

func TestPasswordReset_ResetPassword(t *testing.T) {
	f := newResetFixture(t)
	ctx := context.Background()
	f.mailer.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	require.NoError(t, f.svc.RequestReset(ctx, "ravi@example.com"))
	f.svc.Wait()

	assert.ErrorIs(t, f.svc.ResetPassword(ctx, "ravi@example.com", "48291", "newsecret"), ErrValidation)
	assert.ErrorIs(t, f.svc.ResetPassword(ctx, "ravi@example.com", "482913", "short"), ErrValidation)
	assert.ErrorIs(t, f.svc.ResetPassword(ctx, "ravi@example.com", "111111", "newsecret"), ErrInvalidOrExpiredOTP)
	assert.ErrorIs(t, f.svc.ResetPassword(ctx, "other@example.com", "482913", "newsecret"), ErrInvalidOrExpiredOTP)

	require.NoError(t, f.svc.ResetPassword(ctx, "RAVI@example.com", "482913", "newsecret"))

	u := f.users.get(f.userID)
	assert.Nil(t, u.ResetOTP)
	assert.Nil(t, u.ResetOTPExpiresAt)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("newsecret")))

	// A code works once.
	assert.ErrorIs(t, f.svc.ResetPassword(ctx, "ravi@example.com", "482913", "another1"), ErrInvalidOrExpiredOTP)
}

func TestPasswordReset_ExpiredCode(t *testing.T) {
	f := newResetFixture(t)
	ctx := context.Background()
	f.mailer.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	require.NoError(t, f.svc.RequestReset(ctx, "ravi@example.com"))

	f.clock = f.clock.Add(defaultOTPTTL + time.Second)
	assert.ErrorIs(t, f.svc.ResetPassword(ctx, "ravi@example.com", "482913", "newsecret"), ErrInvalidOrExpiredOTP)
	assert.Empty(t, f.users.get(f.userID).PasswordHash)
}

func TestPasswordReset_NewRequestReplacesCode(t *testing.T) {
	f := newResetFixture(t)
	ctx := context.Background()
	f.mailer.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	require.NoError(t, f.svc.RequestReset(ctx, "ravi@example.com"))

	f.svc.genOTP = func() (string, error) { return "705512", nil }
	require.NoError(t, f.svc.RequestReset(ctx, "ravi@example.com"))

	assert.ErrorIs(t, f.svc.ResetPassword(ctx, "ravi@example.com", "482913", "newsecret"), ErrInvalidOrExpiredOTP)
	assert.NoError(t, f.svc.ResetPassword(ctx, "ravi@example.com", "705512", "newsecret"))
}

func TestMaskEmail(t *testing.T) {
	assert.Equal(t, "r*****i@example.com", maskEmail("ravi@example.com"))
	assert.Equal(t, "***@example.com", maskEmail("ab@example.com"))
	assert.Equal(t, "***", maskEmail("broken"))
}
