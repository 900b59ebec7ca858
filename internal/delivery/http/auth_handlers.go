package http

import (
	"io"
	"net/http"
	"net/url"
	"time"

	"codegram-backend/internal/authstate"
	"codegram-backend/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/sessions"
)

const (
	oauthSessionName = "codegram_oauth"
	oauthStateKey    = "state"
	oauthStateMaxAge = 600
)

// setSessionCookie stores the token in an HttpOnly cookie. Non-durable
// sessions get a browser-session cookie.
func (h *Handler) setSessionCookie(c *gin.Context, s *domain.Session) {
	maxAge := 0
	if s.Durable {
		maxAge = int(time.Until(s.ExpiresAt).Seconds())
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(tokenCookie, s.Token, maxAge, "/", "", h.opts.SecureCookies, true)
}

func (h *Handler) clearSessionCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(tokenCookie, "", -1, "/", "", h.opts.SecureCookies, true)
}

// ========== AUTH HANDLERS ==========

func (h *Handler) CheckEmail(c *gin.Context) {
	exists, authType, err := h.AuthUsecase.CheckEmailExists(c.Request.Context(), c.Query("email"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"exists": exists, "authType": authType})
}

func (h *Handler) CheckUsername(c *gin.Context) {
	exists, err := h.AuthUsecase.CheckUsernameExists(c.Request.Context(), c.Query("username"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"exists": exists})
}

func (h *Handler) Register(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required,min=6"`
		Username string `json:"username" binding:"omitempty,min=3,max=32"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, formatValidationErrors(err))
		return
	}

	user, err := h.AuthUsecase.RegisterWithEmail(c.Request.Context(), req.Email, req.Password, req.Username)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Реєстрація успішна", "user": user})
}

func (h *Handler) Login(c *gin.Context) {
	var creds struct {
		Email      string `json:"email" binding:"required,email"`
		Password   string `json:"password" binding:"required"`
		RememberMe bool   `json:"rememberMe"`
	}
	if err := c.ShouldBindJSON(&creds); err != nil {
		c.JSON(http.StatusBadRequest, formatValidationErrors(err))
		return
	}

	session, err := h.AuthUsecase.SignInWithEmail(c.Request.Context(), creds.Email, creds.Password, creds.RememberMe)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.setSessionCookie(c, session)
	c.JSON(http.StatusOK, session)
}

func (h *Handler) Logout(c *gin.Context) {
	uid, err := getUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	h.AuthUsecase.SignOut(c.Request.Context(), uid)
	h.clearSessionCookie(c)
	c.JSON(http.StatusOK, gin.H{"message": "Ви вийшли з акаунту"})
}

func (h *Handler) ForgotPassword(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, formatValidationErrors(err))
		return
	}
	if err := h.AuthUsecase.SendPasswordReset(c.Request.Context(), req.Email); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Лист для відновлення паролю надіслано"})
}

func (h *Handler) ResetPassword(c *gin.Context) {
	var req struct {
		Token    string `json:"token" binding:"required"`
		Password string `json:"password" binding:"required,min=6"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, formatValidationErrors(err))
		return
	}
	if err := h.AuthUsecase.ConfirmPasswordReset(c.Request.Context(), req.Token, req.Password); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Пароль змінено"})
}

// ========== GOOGLE OAUTH ==========

func (h *Handler) oauthSessionOptions(maxAge int) *sessions.Options {
	return &sessions.Options{
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.opts.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	}
}

// GoogleLogin keeps a random state in a signed cookie and redirects to Google.
func (h *Handler) GoogleLogin(c *gin.Context) {
	// a stale or tampered cookie yields a fresh session, which is fine here
	session, _ := h.OAuthStore.Get(c.Request, oauthSessionName)
	state := uuid.NewString()
	session.Values[oauthStateKey] = state
	session.Options = h.oauthSessionOptions(oauthStateMaxAge)
	if err := session.Save(c.Request, c.Writer); err != nil {
		h.respondError(c, err)
		return
	}
	c.Redirect(http.StatusTemporaryRedirect, h.AuthUsecase.GoogleAuthURL(state))
}

func (h *Handler) GoogleCallback(c *gin.Context) {
	session, _ := h.OAuthStore.Get(c.Request, oauthSessionName)
	expected, _ := session.Values[oauthStateKey].(string)
	delete(session.Values, oauthStateKey)
	session.Options = h.oauthSessionOptions(-1)
	if err := session.Save(c.Request, c.Writer); err != nil {
		h.log.Warn("Failed to clear OAuth state cookie", "error", err)
	}

	if expected == "" || c.Query("state") != expected {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Невірний параметр state"})
		return
	}
	if reason := c.Query("error"); reason != "" {
		h.redirectToLogin(c, "Вхід через Google скасовано")
		return
	}

	s, err := h.AuthUsecase.SignInWithGoogle(c.Request.Context(), c.Query("code"))
	if err != nil {
		h.redirectToLogin(c, domain.UserMessage(err))
		return
	}
	h.setSessionCookie(c, s)
	c.Redirect(http.StatusSeeOther, h.opts.FrontendURL+"/profile")
}

func (h *Handler) redirectToLogin(c *gin.Context, message string) {
	c.Redirect(http.StatusSeeOther, h.opts.FrontendURL+"/login?error="+url.QueryEscape(message))
}

// ========== AUTH STATE STREAM ==========

// StreamAuthState pushes the caller's user (or null) as server-sent events:
// once on connect and again on every sign-in or sign-out.
func (h *Handler) StreamAuthState(c *gin.Context) {
	uid, err := getUserID(c)
	if err != nil {
		c.SSEvent("auth", authstate.State{})
		return
	}
	user, err := h.ProfileUsecase.LoadUserProfile(c.Request.Context(), uid)
	if err != nil {
		h.respondError(c, err)
		return
	}

	sub := h.Broker.Subscribe(uid, user)
	defer h.Broker.Unsubscribe(sub)

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Stream(func(w io.Writer) bool {
		select {
		case state, ok := <-sub.C:
			if !ok {
				return false
			}
			c.SSEvent("auth", state)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
