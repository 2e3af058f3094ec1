package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/slogsolutions/Army-Exam-Portal/internal/repository"
)

// MonitorHandler exposes the security-monitoring endpoints: session and
// login-attempt listings, the aggregate status report and administrative
// force-logout. Route-level middleware restricts the admin endpoints.
type MonitorHandler struct {
	Users    UserStore
	Centers  CenterStore
	Sessions SessionStore
	Attempts AttemptStore
	Tokens   TokenStore
}

func NewMonitorHandler(users UserStore, centers CenterStore, sessions SessionStore,
	attempts AttemptStore, tokens TokenStore) *MonitorHandler {
	if users == nil || centers == nil || sessions == nil || attempts == nil || tokens == nil {
		panic("nil store passed to NewMonitorHandler")
	}
	return &MonitorHandler{
		Users:    users,
		Centers:  centers,
		Sessions: sessions,
		Attempts: attempts,
		Tokens:   tokens,
	}
}

type sessionResp struct {
	ID         uint64     `json:"id"`
	UserID     uint64     `json:"user_id"`
	SessionKey string     `json:"session_key"`
	IPAddress  string     `json:"ip_address"`
	UserAgent  string     `json:"user_agent"`
	LoginTime  time.Time  `json:"login_time"`
	LogoutTime *time.Time `json:"logout_time"`
	IsActive   bool       `json:"is_active"`
}

// ListSessions handles GET /v1/sessions for monitoring.
func (h *MonitorHandler) ListSessions(c echo.Context) error {
	q := repository.SessionListQuery{
		UserID:    queryUint(c, "user"),
		IsActive:  queryBool(c, "is_active"),
		IPAddress: strings.TrimSpace(c.QueryParam("ip_address")),
		Page:      queryInt(c, "page"),
		PageSize:  queryInt(c, "page_size"),
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	sessions, total, err := h.Sessions.List(ctx, q)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	items := make([]sessionResp, 0, len(sessions))
	for _, s := range sessions {
		items = append(items, sessionResp{
			ID:         s.ID,
			UserID:     s.UserID,
			SessionKey: s.SessionKey,
			IPAddress:  s.IPAddress,
			UserAgent:  s.UserAgent,
			LoginTime:  s.LoginTime,
			LogoutTime: s.LogoutTime,
			IsActive:   s.IsActive,
		})
	}
	return c.JSON(http.StatusOK, listEnvelope(items, total, q.Page, q.PageSize))
}

type attemptResp struct {
	ID        uint64    `json:"id"`
	Username  string    `json:"username"`
	IPAddress string    `json:"ip_address"`
	Success   bool      `json:"success"`
	Timestamp time.Time `json:"timestamp"`
	UserAgent string    `json:"user_agent"`
}

// ListAttempts handles GET /v1/login-attempts. User agents are truncated to
// 100 characters in the payload to keep responses bounded.
func (h *MonitorHandler) ListAttempts(c echo.Context) error {
	q := repository.AttemptListQuery{
		Username:  strings.TrimSpace(c.QueryParam("username")),
		IPAddress: strings.TrimSpace(c.QueryParam("ip_address")),
		Success:   queryBool(c, "success"),
		Page:      queryInt(c, "page"),
		PageSize:  queryInt(c, "page_size"),
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	attempts, total, err := h.Attempts.List(ctx, q)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	items := make([]attemptResp, 0, len(attempts))
	for _, a := range attempts {
		items = append(items, attemptResp{
			ID:        a.ID,
			Username:  a.Username,
			IPAddress: a.IPAddress,
			Success:   a.Success,
			Timestamp: a.CreatedAt,
			UserAgent: truncateUA(a.UserAgent),
		})
	}
	return c.JSON(http.StatusOK, listEnvelope(items, total, q.Page, q.PageSize))
}

func truncateUA(ua string) string {
	if len(ua) > 100 {
		return ua[:100] + "..."
	}
	return ua
}

// SystemStatus handles GET /v1/system-status: aggregate counts plus a
// coarse health flag that flips to "warning" when no center is active.
func (h *MonitorHandler) SystemStatus(c echo.Context) error {
	ctx, cancel := reqContext(c)
	defer cancel()

	totalUsers, activeUsers, err := h.Users.Counts(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	totalCenters, activeCenters, err := h.Centers.Counts(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	activeSessions, err := h.Sessions.CountActive(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	recentFailed, err := h.Attempts.CountRecentFailed(ctx, 10)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}

	status := "healthy"
	if activeCenters == 0 {
		status = "warning"
	}
	return c.JSON(http.StatusOK, echo.Map{
		"total_users":            totalUsers,
		"active_users":           activeUsers,
		"total_centers":          totalCenters,
		"active_centers":         activeCenters,
		"active_sessions":        activeSessions,
		"recent_failed_attempts": recentFailed,
		"system_status":          status,
	})
}

type forceLogoutReq struct {
	UserID uint64 `json:"user_id"`
}

// ForceLogout handles POST /v1/force-logout: closes every active session of
// the target user and revokes their refresh tokens. Logins racing the bulk
// close stay active, which is the intended semantics.
func (h *MonitorHandler) ForceLogout(c echo.Context) error {
	var req forceLogoutReq
	if err := c.Bind(&req); err != nil || req.UserID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "user_id is required"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	u, err := h.Users.GetByID(ctx, req.UserID)
	if err != nil {
		if err == repository.ErrUserNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}

	closed, err := h.Sessions.CloseAllForUser(ctx, u.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "force logout failed"})
	}
	if err := h.Tokens.RevokeAllForUser(ctx, u.ID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "force logout failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"detail":          "user " + u.Username + " logged out from all sessions",
		"sessions_closed": closed,
	})
}
