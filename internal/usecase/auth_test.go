package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"codegram-backend/internal/domain"
	"codegram-backend/pkg/logger"
	"codegram-backend/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

type authFixture struct {
	accounts *fakeAccountRepo
	users    *fakeUserRepo
	google   *fakeGoogle
	mailer   *fakeMailer
	notifier *fakeNotifier
	uc       domain.AuthUsecase
}

func newAuthFixture() *authFixture {
	f := &authFixture{
		accounts: newFakeAccountRepo(),
		users:    newFakeUserRepo(),
		google:   &fakeGoogle{},
		mailer:   &fakeMailer{},
		notifier: &fakeNotifier{},
	}
	cfg := AuthConfig{
		JWTSecret:         testSecret,
		SessionTTL:        time.Hour,
		DurableSessionTTL: 30 * 24 * time.Hour,
		PasswordResetURL:  "http://localhost/reset",
	}
	f.uc = NewAuthUsecase(f.accounts, f.users, f.google, f.mailer, f.notifier, cfg, logger.Nop())
	return f
}

func TestRegisterWithEmail(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()

	user, err := f.uc.RegisterWithEmail(ctx, "Ann@Example.com", "secret1", "")
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", user.Email)
	assert.Equal(t, "ann", user.Username)
	assert.Equal(t, domain.RoleUser, user.Role)
	assert.Equal(t, domain.AuthTypeEmail, user.AuthType)

	account, err := f.accounts.GetByUID(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, account)
	assert.True(t, utils.CheckPasswordHash("secret1", account.PasswordHash))

	_, err = f.uc.RegisterWithEmail(ctx, "ann@example.com", "secret1", "other")
	assert.ErrorIs(t, err, domain.ErrEmailTaken)

	_, err = f.uc.RegisterWithEmail(ctx, "bob@example.com", "secret1", "ANN")
	assert.ErrorIs(t, err, domain.ErrUsernameTaken)
}

func TestRegisterWithEmail_InvalidInput(t *testing.T) {
	f := newAuthFixture()

	_, err := f.uc.RegisterWithEmail(context.Background(), "not-an-email", "secret1", "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.uc.RegisterWithEmail(context.Background(), "ann@example.com", "123", "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSignInWithEmail(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()

	user, err := f.uc.RegisterWithEmail(ctx, "ann@example.com", "secret1", "ann")
	require.NoError(t, err)

	_, err = f.uc.SignInWithEmail(ctx, "ann@example.com", "wrong", false)
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = f.uc.SignInWithEmail(ctx, "nobody@example.com", "secret1", false)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	session, err := f.uc.SignInWithEmail(ctx, "ANN@example.com", "secret1", true)
	require.NoError(t, err)
	assert.True(t, session.Durable)
	assert.Equal(t, user.ID, session.User.ID)
	assert.WithinDuration(t, time.Now().Add(30*24*time.Hour), session.ExpiresAt, time.Minute)

	claims, err := utils.ValidateJWT(session.Token, utils.PurposeSession, testSecret)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UID)

	require.Len(t, f.notifier.events, 1)
	assert.Equal(t, user.ID, f.notifier.events[0].uid)
}

func TestSignInWithGoogle(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()
	f.google.identity = &domain.GoogleIdentity{
		Email:         "gina@example.com",
		EmailVerified: true,
		Name:          "Gina",
		Picture:       "https://lh3.example/photo=s96-c",
	}

	session, err := f.uc.SignInWithGoogle(ctx, "code")
	require.NoError(t, err)
	assert.True(t, session.Durable)
	assert.Equal(t, domain.AuthTypeGoogle, session.User.AuthType)
	assert.Equal(t, "https://lh3.example/photo", session.User.Profile.AvatarURL)
	assert.Equal(t, "Gina", session.User.Username)

	again, err := f.uc.SignInWithGoogle(ctx, "code")
	require.NoError(t, err)
	assert.Equal(t, session.User.ID, again.User.ID)
	assert.Len(t, f.accounts.accounts, 1)

	// the same address cannot sign in with a password
	_, err = f.uc.SignInWithEmail(ctx, "gina@example.com", "whatever", false)
	assert.ErrorIs(t, err, domain.ErrEmailOtherProvider)
}

func TestSignInWithGoogle_Refused(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()

	_, err := f.uc.RegisterWithEmail(ctx, "ann@example.com", "secret1", "")
	require.NoError(t, err)

	f.google.identity = &domain.GoogleIdentity{Email: "ann@example.com", EmailVerified: true}
	_, err = f.uc.SignInWithGoogle(ctx, "code")
	assert.ErrorIs(t, err, domain.ErrEmailOtherProvider)

	f.google.identity = &domain.GoogleIdentity{Email: "new@example.com", EmailVerified: false}
	_, err = f.uc.SignInWithGoogle(ctx, "code")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	f.google.identity, f.google.err = nil, errors.New("bad code")
	_, err = f.uc.SignInWithGoogle(ctx, "code")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestPasswordReset(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()

	user, err := f.uc.RegisterWithEmail(ctx, "ann@example.com", "secret1", "")
	require.NoError(t, err)

	require.NoError(t, f.uc.SendPasswordReset(ctx, "ann@example.com"))
	require.Len(t, f.mailer.sent, 1)
	assert.Equal(t, "ann@example.com", f.mailer.sent[0].to)

	_, after, ok := strings.Cut(f.mailer.sent[0].body, "?token=")
	require.True(t, ok)
	token := strings.Fields(after)[0]

	// a reset token is not a session token
	_, err = utils.ValidateJWT(token, utils.PurposeSession, testSecret)
	assert.Error(t, err)

	require.NoError(t, f.uc.ConfirmPasswordReset(ctx, token, "newsecret"))
	account, err := f.accounts.GetByUID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, utils.CheckPasswordHash("newsecret", account.PasswordHash))

	err = f.uc.ConfirmPasswordReset(ctx, "garbage", "newsecret")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	err = f.uc.SendPasswordReset(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestConfirmPasswordReset_TokenIsSingleUse(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()

	user, err := f.uc.RegisterWithEmail(ctx, "ann@example.com", "secret1", "")
	require.NoError(t, err)
	require.NoError(t, f.uc.SendPasswordReset(ctx, "ann@example.com"))
	_, after, ok := strings.Cut(f.mailer.sent[0].body, "?token=")
	require.True(t, ok)
	token := strings.Fields(after)[0]

	require.NoError(t, f.uc.ConfirmPasswordReset(ctx, token, "owner-new-pass"))

	err = f.uc.ConfirmPasswordReset(ctx, token, "replayed-pass")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	account, err := f.accounts.GetByUID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, utils.CheckPasswordHash("owner-new-pass", account.PasswordHash))
	assert.False(t, utils.CheckPasswordHash("replayed-pass", account.PasswordHash))
}

func TestConfirmPasswordReset_RejectsTokenWithoutFingerprint(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()

	user, err := f.uc.RegisterWithEmail(ctx, "ann@example.com", "secret1", "")
	require.NoError(t, err)

	token, _, err := utils.GenerateJWT(user.ID, string(user.Role), utils.PurposePasswordReset, time.Hour, testSecret)
	require.NoError(t, err)

	err = f.uc.ConfirmPasswordReset(ctx, token, "newsecret")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestSignOut_PublishesNil(t *testing.T) {
	f := newAuthFixture()

	f.uc.SignOut(context.Background(), "u1")

	require.Len(t, f.notifier.events, 1)
	assert.Equal(t, "u1", f.notifier.events[0].uid)
	assert.Nil(t, f.notifier.events[0].user)
}
