package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"codegram-backend/internal/domain"
	"codegram-backend/pkg/logger"
	"codegram-backend/pkg/utils"

	"github.com/google/uuid"
)

const (
	minPasswordLength = 6
	resetTokenTTL     = time.Hour
)

// StateNotifier receives every sign-in and sign-out.
type StateNotifier interface {
	Publish(uid string, user *domain.User)
}

type AuthConfig struct {
	JWTSecret         string
	SessionTTL        time.Duration
	DurableSessionTTL time.Duration
	PasswordResetURL  string
}

type authUsecase struct {
	accounts domain.AccountRepository
	users    domain.UserRepository
	google   domain.GoogleAuthenticator
	mailer   domain.Mailer
	notifier StateNotifier
	cfg      AuthConfig
	log      *logger.Logger
}

func NewAuthUsecase(
	ar domain.AccountRepository,
	ur domain.UserRepository,
	google domain.GoogleAuthenticator,
	mailer domain.Mailer,
	notifier StateNotifier,
	cfg AuthConfig,
	log *logger.Logger,
) domain.AuthUsecase {
	return &authUsecase{
		accounts: ar,
		users:    ur,
		google:   google,
		mailer:   mailer,
		notifier: notifier,
		cfg:      cfg,
		log:      log.With("service", "auth"),
	}
}

// CheckEmailExists reports whether a profile uses email and how it signs in.
func (uc *authUsecase) CheckEmailExists(ctx context.Context, email string) (bool, domain.AuthType, error) {
	if strings.TrimSpace(email) == "" {
		return false, "", nil
	}
	user, err := uc.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		uc.log.Error("Error checking email", "error", err)
		return false, "", domain.Wrap("Помилка перевірки email", err)
	}
	if user == nil {
		return false, "", nil
	}
	return true, user.AuthType, nil
}

func (uc *authUsecase) CheckUsernameExists(ctx context.Context, username string) (bool, error) {
	if strings.TrimSpace(username) == "" {
		return false, nil
	}
	exists, err := uc.users.ExistsByNormalizedUsername(ctx, strings.ToLower(strings.TrimSpace(username)))
	if err != nil {
		uc.log.Error("Error checking username", "error", err)
		return false, domain.Wrap("Помилка перевірки логіна", err)
	}
	return exists, nil
}

func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}

func (uc *authUsecase) RegisterWithEmail(ctx context.Context, email, password, username string) (*domain.User, error) {
	const msg = "Помилка реєстрації"

	email = strings.ToLower(strings.TrimSpace(email))
	username = strings.TrimSpace(username)
	if !validEmail(email) {
		return nil, &domain.OpError{Message: "Невірний формат електронної пошти", Err: domain.ErrInvalidInput}
	}
	if len(password) < minPasswordLength {
		return nil, &domain.OpError{Message: "Пароль занадто слабкий", Err: domain.ErrInvalidInput}
	}

	exists, authType, err := uc.CheckEmailExists(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		if authType == domain.AuthTypeEmail {
			return nil, domain.Wrap(msg, domain.ErrEmailTaken)
		}
		return nil, domain.Wrap(msg, domain.ErrEmailOtherProvider)
	}
	if username != "" {
		taken, err := uc.CheckUsernameExists(ctx, username)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, domain.Wrap(msg, domain.ErrUsernameTaken)
		}
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, domain.Wrap(msg, err)
	}
	account := &domain.Account{
		UID:          uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		Provider:     domain.AuthTypeEmail,
	}
	user, err := uc.createAccountAndProfile(ctx, account, username, "")
	if err != nil {
		return nil, domain.Wrap(msg, err)
	}
	uc.log.Info("User registered", "uid", user.ID, "auth_type", user.AuthType)
	return user, nil
}

// createAccountAndProfile writes the account, then the profile document. A
// failed profile write removes the account again.
func (uc *authUsecase) createAccountAndProfile(ctx context.Context, account *domain.Account, username, avatarURL string) (*domain.User, error) {
	if err := uc.accounts.Create(ctx, account); err != nil {
		uc.log.Error("Error creating account", "error", err)
		return nil, err
	}

	if username == "" {
		username = utils.UsernameFromEmail(account.Email)
	}
	user := &domain.User{
		ID:                 account.UID,
		Email:              account.Email,
		Username:           username,
		NormalizedUsername: strings.ToLower(username),
		Role:               domain.RoleUser,
		AuthType:           account.Provider,
		CreatedAt:          time.Now().UTC(),
		Profile:            domain.Profile{AvatarURL: avatarURL},
	}
	if err := uc.users.Create(ctx, user); err != nil {
		uc.log.Error("Error creating user profile", "uid", account.UID, "error", err)
		if delErr := uc.accounts.Delete(ctx, account.UID); delErr != nil {
			uc.log.Error("Error removing orphan account", "uid", account.UID, "error", delErr)
		}
		return nil, &domain.OpError{Message: "Не вдалося створити профіль користувача", Err: err}
	}
	return user, nil
}

func (uc *authUsecase) issueSession(user *domain.User, rememberMe bool) (*domain.Session, error) {
	ttl := uc.cfg.SessionTTL
	if rememberMe {
		ttl = uc.cfg.DurableSessionTTL
	}
	token, expiresAt, err := utils.GenerateJWT(user.ID, string(user.Role), utils.PurposeSession, ttl, uc.cfg.JWTSecret)
	if err != nil {
		return nil, err
	}
	uc.notifier.Publish(user.ID, user)
	return &domain.Session{User: user, Token: token, Durable: rememberMe, ExpiresAt: expiresAt}, nil
}

func (uc *authUsecase) SignInWithEmail(ctx context.Context, email, password string, rememberMe bool) (*domain.Session, error) {
	const msg = "Помилка входу"

	email = strings.ToLower(strings.TrimSpace(email))
	exists, authType, err := uc.CheckEmailExists(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists && authType != domain.AuthTypeEmail {
		return nil, domain.Wrap(msg, domain.ErrEmailOtherProvider)
	}

	account, err := uc.accounts.GetByEmail(ctx, email)
	if err != nil {
		uc.log.Error("Error fetching account", "error", err)
		return nil, domain.Wrap(msg, err)
	}
	if account == nil {
		return nil, domain.Wrap(msg, domain.ErrUserNotFound)
	}
	if account.Provider != domain.AuthTypeEmail || !utils.CheckPasswordHash(password, account.PasswordHash) {
		return nil, domain.Wrap(msg, domain.ErrInvalidCredentials)
	}

	user, err := uc.users.GetByID(ctx, account.UID)
	if err != nil {
		uc.log.Error("Error fetching user profile", "uid", account.UID, "error", err)
		return nil, domain.Wrap(msg, err)
	}
	if user == nil {
		return nil, domain.Wrap(msg, domain.ErrUserNotFound)
	}

	if err := uc.accounts.UpdateLastLogin(ctx, account.UID); err != nil {
		uc.log.Warn("Failed to update last login", "uid", account.UID, "error", err)
	}

	session, err := uc.issueSession(user, rememberMe)
	if err != nil {
		return nil, domain.Wrap(msg, err)
	}
	uc.log.Info("User signed in", "uid", user.ID, "durable", rememberMe)
	return session, nil
}

func (uc *authUsecase) GoogleAuthURL(state string) string {
	return uc.google.AuthCodeURL(state)
}

// SignInWithGoogle exchanges an OAuth code. The first sign-in creates the
// account and profile; an email registered with a password is refused.
func (uc *authUsecase) SignInWithGoogle(ctx context.Context, code string) (*domain.Session, error) {
	const msg = "Помилка входу через Google"

	identity, err := uc.google.Exchange(ctx, code)
	if err != nil {
		uc.log.Error("Google code exchange failed", "error", err)
		return nil, domain.Wrap(msg, domain.ErrInvalidCredentials)
	}
	email := strings.ToLower(strings.TrimSpace(identity.Email))
	if email == "" {
		return nil, &domain.OpError{Message: "Не вдалося отримати email користувача", Err: domain.ErrInvalidInput}
	}
	if !identity.EmailVerified {
		return nil, domain.Wrap(msg, domain.ErrInvalidCredentials)
	}

	exists, authType, err := uc.CheckEmailExists(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists && authType != domain.AuthTypeGoogle {
		return nil, domain.Wrap(msg, domain.ErrEmailOtherProvider)
	}

	var user *domain.User
	if exists {
		user, err = uc.users.GetByEmail(ctx, email)
		if err != nil {
			return nil, domain.Wrap(msg, err)
		}
		if user == nil {
			return nil, domain.Wrap(msg, domain.ErrUserNotFound)
		}
		if err := uc.accounts.UpdateLastLogin(ctx, user.ID); err != nil {
			uc.log.Warn("Failed to update last login", "uid", user.ID, "error", err)
		}
	} else {
		account := &domain.Account{
			UID:      uuid.NewString(),
			Email:    email,
			Provider: domain.AuthTypeGoogle,
		}
		// strip Google's size suffix from the picture url
		avatar, _, _ := strings.Cut(identity.Picture, "=")
		user, err = uc.createAccountAndProfile(ctx, account, strings.TrimSpace(identity.Name), avatar)
		if err != nil {
			return nil, domain.Wrap(msg, err)
		}
		uc.log.Info("User registered", "uid", user.ID, "auth_type", user.AuthType)
	}

	// Google sessions are always durable
	session, err := uc.issueSession(user, true)
	if err != nil {
		return nil, domain.Wrap(msg, err)
	}
	return session, nil
}

func (uc *authUsecase) SendPasswordReset(ctx context.Context, email string) error {
	const msg = "Помилка відновлення паролю"

	email = strings.ToLower(strings.TrimSpace(email))
	if !validEmail(email) {
		return &domain.OpError{Message: "Невірний формат електронної пошти", Err: domain.ErrInvalidInput}
	}
	user, err := uc.users.GetByEmail(ctx, email)
	if err != nil {
		uc.log.Error("Error fetching user", "error", err)
		return domain.Wrap(msg, err)
	}
	if user == nil {
		return domain.Wrap(msg, domain.ErrUserNotFound)
	}
	if user.AuthType == domain.AuthTypeGoogle {
		return &domain.OpError{
			Message: "Цей email зареєстрований через Google. Використовуйте Google для входу",
			Err:     domain.ErrEmailOtherProvider,
		}
	}

	account, err := uc.accounts.GetByUID(ctx, user.ID)
	if err != nil {
		uc.log.Error("Error fetching account", "uid", user.ID, "error", err)
		return domain.Wrap(msg, err)
	}
	if account == nil {
		return domain.Wrap(msg, domain.ErrUserNotFound)
	}

	token, _, err := utils.GenerateResetJWT(user.ID, utils.CredentialFingerprint(account.PasswordHash), resetTokenTTL, uc.cfg.JWTSecret)
	if err != nil {
		return domain.Wrap(msg, err)
	}
	link := fmt.Sprintf("%s?token=%s", uc.cfg.PasswordResetURL, token)
	body := fmt.Sprintf("Щоб встановити новий пароль, перейдіть за посиланням: %s\nПосилання дійсне одну годину.", link)
	if err := uc.mailer.Send(ctx, user.Email, "Відновлення паролю Codegram", body); err != nil {
		uc.log.Error("Error sending password reset email", "uid", user.ID, "error", err)
		return domain.Wrap(msg, err)
	}
	uc.log.Info("Password reset requested", "uid", user.ID)
	return nil
}

func (uc *authUsecase) ConfirmPasswordReset(ctx context.Context, token, newPassword string) error {
	const msg = "Помилка відновлення паролю"

	claims, err := utils.ValidateJWT(token, utils.PurposePasswordReset, uc.cfg.JWTSecret)
	if err != nil {
		return domain.Wrap(msg, domain.ErrInvalidCredentials)
	}
	if len(newPassword) < minPasswordLength {
		return &domain.OpError{Message: "Пароль занадто слабкий", Err: domain.ErrInvalidInput}
	}

	// the token is spent once the password it was issued against changes
	account, err := uc.accounts.GetByUID(ctx, claims.UID)
	if err != nil {
		uc.log.Error("Error fetching account", "uid", claims.UID, "error", err)
		return domain.Wrap(msg, err)
	}
	if account == nil || !utils.SameFingerprint(claims.Fingerprint, utils.CredentialFingerprint(account.PasswordHash)) {
		uc.log.Warn("Stale password reset token", "uid", claims.UID)
		return &domain.OpError{Message: "Посилання для відновлення паролю вже використано або недійсне", Err: domain.ErrInvalidCredentials}
	}

	hash, err := utils.HashPassword(newPassword)
	if err != nil {
		return domain.Wrap(msg, err)
	}
	if err := uc.accounts.UpdatePasswordHash(ctx, claims.UID, account.PasswordHash, hash); err != nil {
		if !errors.Is(err, domain.ErrInvalidCredentials) {
			uc.log.Error("Error updating password", "uid", claims.UID, "error", err)
		}
		return domain.Wrap(msg, err)
	}
	uc.log.Info("Password reset completed", "uid", claims.UID)
	return nil
}

// SignOut notifies subscribers; session tokens are stateless.
func (uc *authUsecase) SignOut(ctx context.Context, uid string) {
	uc.notifier.Publish(uid, nil)
	uc.log.Info("User signed out", "uid", uid)
}
