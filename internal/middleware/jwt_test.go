package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/slogsolutions/Army-Exam-Portal/internal/policy"
	"github.com/slogsolutions/Army-Exam-Portal/internal/utils"
)

const testSecret = "test-secret"

func runWithAuth(t *testing.T, authorization string) (*httptest.ResponseRecorder, policy.Actor) {
	t.Helper()
	e := echo.New()
	var seen policy.Actor
	h := JWTAuth(testSecret)(func(c echo.Context) error {
		seen = CurrentActor(c)
		return c.NoContent(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	if err := h(e.NewContext(req, rec)); err != nil {
		t.Fatalf("middleware: %v", err)
	}
	return rec, seen
}

func TestJWTAuthValidToken(t *testing.T) {
	at, err := utils.NewAccessToken(testSecret, utils.Identity{
		UserID:   42,
		Username: "soldier",
		Role:     "candidate",
		CenterID: 7,
		IsActive: true,
	}, 15)
	if err != nil {
		t.Fatalf("NewAccessToken: %v", err)
	}

	rec, actor := runWithAuth(t, "Bearer "+at.Token)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if actor.UserID != 42 || actor.Username != "soldier" || actor.Role != "candidate" {
		t.Fatalf("actor = %+v", actor)
	}
	if actor.CenterID != 7 || !actor.IsActive || actor.IsLocked {
		t.Fatalf("actor = %+v", actor)
	}
}

func TestJWTAuthMissingHeader(t *testing.T) {
	rec, _ := runWithAuth(t, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestJWTAuthWrongSecret(t *testing.T) {
	at, err := utils.NewAccessToken("other-secret", utils.Identity{UserID: 42}, 15)
	if err != nil {
		t.Fatalf("NewAccessToken: %v", err)
	}
	rec, _ := runWithAuth(t, "Bearer "+at.Token)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestJWTAuthExpiredToken(t *testing.T) {
	at, err := utils.NewAccessToken(testSecret, utils.Identity{UserID: 42}, -5)
	if err != nil {
		t.Fatalf("NewAccessToken: %v", err)
	}
	rec, _ := runWithAuth(t, "Bearer "+at.Token)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestJWTAuthGarbageToken(t *testing.T) {
	rec, _ := runWithAuth(t, "Bearer not.a.jwt")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func runRoleGuard(t *testing.T, mw echo.MiddlewareFunc, a policy.Actor) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	h := mw(func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if a.UserID != 0 {
		c.Set("actor", a)
	}
	if err := h(c); err != nil {
		t.Fatalf("middleware: %v", err)
	}
	return rec
}

func TestRequireActive(t *testing.T) {
	ok := policy.Actor{UserID: 1, Role: policy.RoleCandidate, IsActive: true}
	if rec := runRoleGuard(t, RequireActive(), ok); rec.Code != http.StatusOK {
		t.Fatalf("active actor rejected: %d", rec.Code)
	}
	locked := policy.Actor{UserID: 1, Role: policy.RoleCandidate, IsActive: true, IsLocked: true}
	if rec := runRoleGuard(t, RequireActive(), locked); rec.Code != http.StatusForbidden {
		t.Fatalf("locked actor admitted: %d", rec.Code)
	}
	if rec := runRoleGuard(t, RequireActive(), policy.Actor{}); rec.Code != http.StatusForbidden {
		t.Fatalf("anonymous request admitted: %d", rec.Code)
	}
}

func TestRequireAdmin(t *testing.T) {
	admin := policy.Actor{UserID: 1, Role: policy.RoleAdmin, IsActive: true}
	if rec := runRoleGuard(t, RequireAdmin(), admin); rec.Code != http.StatusOK {
		t.Fatalf("admin rejected: %d", rec.Code)
	}
	evaluator := policy.Actor{UserID: 2, Role: policy.RoleEvaluator, IsActive: true}
	if rec := runRoleGuard(t, RequireAdmin(), evaluator); rec.Code != http.StatusForbidden {
		t.Fatalf("evaluator admitted: %d", rec.Code)
	}
}

func TestRequireRole(t *testing.T) {
	mw := RequireRole(policy.RoleEvaluator)
	evaluator := policy.Actor{UserID: 2, Role: policy.RoleEvaluator, IsActive: true}
	if rec := runRoleGuard(t, mw, evaluator); rec.Code != http.StatusOK {
		t.Fatalf("evaluator rejected: %d", rec.Code)
	}
	candidate := policy.Actor{UserID: 3, Role: policy.RoleCandidate, IsActive: true}
	if rec := runRoleGuard(t, mw, candidate); rec.Code != http.StatusForbidden {
		t.Fatalf("candidate admitted: %d", rec.Code)
	}
	// system admins pass every role guard
	admin := policy.Actor{UserID: 1, Role: policy.RoleAdmin, IsActive: true}
	if rec := runRoleGuard(t, mw, admin); rec.Code != http.StatusOK {
		t.Fatalf("admin rejected: %d", rec.Code)
	}
}
