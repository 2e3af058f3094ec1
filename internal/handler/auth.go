package handler

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/slogsolutions/Army-Exam-Portal/internal/config"
	"github.com/slogsolutions/Army-Exam-Portal/internal/queue"
	"github.com/slogsolutions/Army-Exam-Portal/internal/repository"
	"github.com/slogsolutions/Army-Exam-Portal/internal/utils"
)

// AuthHandler bundles dependencies for the credential endpoints. Publish is
// the optional audit event hook; when nil no events are emitted.
type AuthHandler struct {
	Cfg      config.Config
	Users    UserStore
	Centers  CenterStore
	Sessions SessionStore
	Attempts AttemptStore
	Tokens   TokenStore
	Publish  func(ctx context.Context, ev queue.LoginAuditEvent) error
}

func NewAuthHandler(cfg config.Config, users UserStore, centers CenterStore,
	sessions SessionStore, attempts AttemptStore, tokens TokenStore) *AuthHandler {
	if users == nil || centers == nil || sessions == nil || attempts == nil || tokens == nil {
		panic("nil store passed to NewAuthHandler")
	}
	return &AuthHandler{
		Cfg:      cfg,
		Users:    users,
		Centers:  centers,
		Sessions: sessions,
		Attempts: attempts,
		Tokens:   tokens,
	}
}

// ----- DTOs -----

type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}
type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}
type logoutReq struct {
	RefreshToken string `json:"refresh_token"`
	SessionKey   string `json:"session_key"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}
type authResp struct {
	User       userResp  `json:"user"`
	Access     tokenPart `json:"access"`
	Refresh    tokenPart `json:"refresh"`
	SessionKey string    `json:"session_key,omitempty"`
}

// recordAttempt appends the audit row and emits the broker event. Both are
// best-effort: a failing audit write is logged and never fails the request.
func (h *AuthHandler) recordAttempt(c echo.Context, username string, success bool) {
	ip := utils.ClientIP(c.Request())
	ua := c.Request().UserAgent()

	ctx, cancel := reqContext(c)
	defer cancel()
	if err := h.Attempts.Record(ctx, username, ip, ua, success); err != nil {
		log.Printf("auth: record login attempt failed: %v", err)
	}
	if h.Publish != nil {
		ev := queue.LoginAuditEvent{
			Username:    username,
			IPAddress:   ip,
			UserAgent:   ua,
			Success:     success,
			AttemptedAt: time.Now().UTC().Format(time.RFC3339),
		}
		go func() {
			pubCtx, pubCancel := context.WithTimeout(context.Background(), dbTimeout)
			defer pubCancel()
			_ = h.Publish(pubCtx, ev)
		}()
	}
}

// Login verifies credentials and returns a token pair plus a fresh session.
// Every attempt lands in the audit ledger before the response is written.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username/password required"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	u, err := h.Users.GetByUsername(ctx, req.Username)
	if err != nil {
		if err == repository.ErrUserNotFound {
			h.recordAttempt(c, req.Username, false)
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unable to log in with provided credentials"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		h.recordAttempt(c, req.Username, false)
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unable to log in with provided credentials"})
	}

	// Account state gates run after credential verification: a wrong
	// password against a disabled account still logs as a plain failure.
	if !u.IsActive {
		h.recordAttempt(c, req.Username, false)
		return c.JSON(http.StatusForbidden, echo.Map{"error": "user account is disabled"})
	}
	if u.IsLocked {
		h.recordAttempt(c, req.Username, false)
		return c.JSON(http.StatusForbidden, echo.Map{"error": "user account is locked"})
	}

	h.recordAttempt(c, req.Username, true)

	pair, sessionKey, err := h.issuePair(ctx, c, u)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue tokens failed"})
	}
	pair.SessionKey = sessionKey
	return c.JSON(http.StatusOK, pair)
}

// issuePair opens a session, stamps last-login and returns tokens carrying
// the identity snapshot.
func (h *AuthHandler) issuePair(ctx context.Context, c echo.Context, u repository.User) (authResp, string, error) {
	ip := utils.ClientIP(c.Request())

	key, err := utils.NewSessionKey()
	if err != nil {
		return authResp{}, "", err
	}
	if _, err := h.Sessions.Open(ctx, u.ID, key, ip, c.Request().UserAgent()); err != nil {
		return authResp{}, "", err
	}
	if err := h.Users.SetLastLogin(ctx, u.ID, ip); err != nil {
		log.Printf("auth: set last login failed: %v", err)
	}

	tokens, err := h.issueTokens(ctx, u)
	if err != nil {
		return authResp{}, "", err
	}
	return tokens, key, nil
}

// issueTokens signs an access token and stores a rotated refresh token.
func (h *AuthHandler) issueTokens(ctx context.Context, u repository.User) (authResp, error) {
	id := utils.Identity{
		UserID:        u.ID,
		Username:      u.Username,
		Role:          u.Role,
		IsCenterAdmin: u.IsCenterAdmin,
		IsActive:      u.IsActive,
		IsLocked:      u.IsLocked,
	}
	if u.CenterID != nil {
		id.CenterID = *u.CenterID
	}

	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, id, h.Cfg.AccessTTLMin)
	if err != nil {
		return authResp{}, err
	}
	refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
	if err != nil {
		return authResp{}, err
	}
	if err := h.Tokens.StoreRefresh(ctx, u.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return authResp{}, err
	}

	return authResp{
		User:    toUserResp(ctx, h.Centers, u),
		Access:  tokenPart{Token: access.Token, Expires: access.Exp},
		Refresh: tokenPart{Token: refresh.Raw, Expires: refresh.Exp}, // raw back to client
	}, nil
}

// Refresh validates a refresh token by hash, revokes it and issues a new
// pair (rotation).
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
	}
	hash := utils.HashRefreshRaw(strings.TrimSpace(req.RefreshToken))

	ctx, cancel := reqContext(c)
	defer cancel()

	userID, err := h.Tokens.ValidateRefresh(ctx, hash)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
	}
	_ = h.Tokens.RevokeByHash(ctx, hash)

	u, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
	}
	if !u.IsActive || u.IsLocked {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "account disabled or locked"})
	}

	resp, err := h.issueTokens(ctx, u)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue tokens failed"})
	}
	return c.JSON(http.StatusOK, resp)
}

// Logout revokes the presented refresh token and closes the session when a
// session key accompanies it. Internal failures collapse into a generic 400
// so nothing about the token store leaks to the caller.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req logoutReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
	}
	hash := utils.HashRefreshRaw(strings.TrimSpace(req.RefreshToken))

	ctx, cancel := reqContext(c)
	defer cancel()

	if err := h.Tokens.RevokeByHash(ctx, hash); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "error during logout"})
	}
	if key := strings.TrimSpace(req.SessionKey); key != "" {
		if err := h.Sessions.Close(ctx, key); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "error during logout"})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"detail": "successfully logged out"})
}
