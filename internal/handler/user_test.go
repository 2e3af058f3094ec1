package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/slogsolutions/Army-Exam-Portal/internal/policy"
	"github.com/slogsolutions/Army-Exam-Portal/internal/repository"
)

func setActor(c echo.Context, a policy.Actor) {
	c.Set("actor", a)
}

func adminActor() policy.Actor {
	return policy.Actor{UserID: 99, Username: "root", Role: repository.RoleAdmin, IsActive: true}
}

func TestRegisterPasswordMismatch(t *testing.T) {
	h := NewUserHandler(testCfg, &fakeUserStore{}, &fakeCenterStore{})
	c, rec := jsonCtx(t, http.MethodPost, "/v1/auth/register", map[string]string{
		"username":         "newguy",
		"email":            "newguy@example.com",
		"password":         "longenough1",
		"password_confirm": "different123",
	})
	if err := h.Register(c); err != nil {
		t.Fatalf("register: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if got := decodeBody(t, rec)["error"]; got != "passwords don't match" {
		t.Fatalf("error = %q", got)
	}
}

func TestRegisterShortPassword(t *testing.T) {
	h := NewUserHandler(testCfg, &fakeUserStore{}, &fakeCenterStore{})
	c, rec := jsonCtx(t, http.MethodPost, "/v1/auth/register", map[string]string{
		"username":         "newguy",
		"email":            "newguy@example.com",
		"password":         "short",
		"password_confirm": "short",
	})
	if err := h.Register(c); err != nil {
		t.Fatalf("register: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestRegisterDefaultsToCandidate(t *testing.T) {
	var created repository.User
	users := &fakeUserStore{
		createFunc: func(ctx context.Context, u *repository.User, password string, cost int) error {
			u.ID = 7
			created = *u
			return nil
		},
	}
	h := NewUserHandler(testCfg, users, &fakeCenterStore{})
	c, rec := jsonCtx(t, http.MethodPost, "/v1/auth/register", map[string]string{
		"username":         "NewGuy",
		"email":            "NewGuy@Example.com",
		"password":         "longenough1",
		"password_confirm": "longenough1",
	})
	if err := h.Register(c); err != nil {
		t.Fatalf("register: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
	if created.Role != repository.RoleCandidate {
		t.Fatalf("role = %q, want candidate", created.Role)
	}
	if created.Email != "newguy@example.com" {
		t.Fatalf("email = %q, want lowercased", created.Email)
	}
	if created.IsCenterAdmin {
		t.Fatal("candidate flagged as center admin")
	}
}

func TestRegisterInvalidRole(t *testing.T) {
	h := NewUserHandler(testCfg, &fakeUserStore{}, &fakeCenterStore{})
	c, rec := jsonCtx(t, http.MethodPost, "/v1/auth/register", map[string]string{
		"username":         "newguy",
		"email":            "newguy@example.com",
		"password":         "longenough1",
		"password_confirm": "longenough1",
		"user_type":        "superuser",
	})
	if err := h.Register(c); err != nil {
		t.Fatalf("register: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if got := decodeBody(t, rec)["error"]; got != "invalid user_type" {
		t.Fatalf("error = %q", got)
	}
}

func TestRegisterCenterAdminSetsFlag(t *testing.T) {
	var created repository.User
	users := &fakeUserStore{
		createFunc: func(ctx context.Context, u *repository.User, password string, cost int) error {
			created = *u
			return nil
		},
	}
	centers := &fakeCenterStore{
		getByIDFunc: func(ctx context.Context, id uint64) (repository.Center, error) {
			return repository.Center{ID: id, Name: "Delhi Cantt"}, nil
		},
	}
	h := NewUserHandler(testCfg, users, centers)
	c, rec := jsonCtx(t, http.MethodPost, "/v1/auth/register", map[string]any{
		"username":         "ca",
		"email":            "ca@example.com",
		"password":         "longenough1",
		"password_confirm": "longenough1",
		"user_type":        "center_admin",
		"center_id":        5,
	})
	if err := h.Register(c); err != nil {
		t.Fatalf("register: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rec.Code)
	}
	if !created.IsCenterAdmin {
		t.Fatal("center_admin registration did not set the flag")
	}
	if created.CenterID == nil || *created.CenterID != 5 {
		t.Fatalf("center id = %v, want 5", created.CenterID)
	}
}

func TestRegisterUnknownCenterDropped(t *testing.T) {
	var created repository.User
	users := &fakeUserStore{
		createFunc: func(ctx context.Context, u *repository.User, password string, cost int) error {
			created = *u
			return nil
		},
	}
	h := NewUserHandler(testCfg, users, &fakeCenterStore{})
	c, rec := jsonCtx(t, http.MethodPost, "/v1/auth/register", map[string]any{
		"username":         "newguy",
		"email":            "newguy@example.com",
		"password":         "longenough1",
		"password_confirm": "longenough1",
		"center_id":        9999,
	})
	if err := h.Register(c); err != nil {
		t.Fatalf("register: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rec.Code)
	}
	if created.CenterID != nil {
		t.Fatalf("center id = %v, want nil for unresolvable center", created.CenterID)
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	users := &fakeUserStore{
		createFunc: func(ctx context.Context, u *repository.User, password string, cost int) error {
			return repository.ErrUsernameExists
		},
	}
	h := NewUserHandler(testCfg, users, &fakeCenterStore{})
	c, rec := jsonCtx(t, http.MethodPost, "/v1/auth/register", map[string]string{
		"username":         "taken",
		"email":            "taken@example.com",
		"password":         "longenough1",
		"password_confirm": "longenough1",
	})
	if err := h.Register(c); err != nil {
		t.Fatalf("register: %v", err)
	}
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
}

func TestUserListRequiresAdmin(t *testing.T) {
	h := NewUserHandler(testCfg, &fakeUserStore{}, &fakeCenterStore{})
	c, rec := jsonCtx(t, http.MethodGet, "/v1/users", nil)
	setActor(c, policy.Actor{UserID: 5, Role: repository.RoleEvaluator, IsActive: true})
	if err := h.List(c); err != nil {
		t.Fatalf("list: %v", err)
	}
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
}

func TestUserListAppliesFilters(t *testing.T) {
	var got repository.UserListQuery
	users := &fakeUserStore{
		listFunc: func(ctx context.Context, q repository.UserListQuery) ([]repository.User, int64, error) {
			got = q
			return nil, 0, nil
		},
	}
	h := NewUserHandler(testCfg, users, &fakeCenterStore{})
	c, rec := jsonCtx(t, http.MethodGet, "/v1/users?user_type=candidate&center=3&is_active=true&search=sing&ordering=created_at", nil)
	setActor(c, adminActor())
	if err := h.List(c); err != nil {
		t.Fatalf("list: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got.Role != "candidate" || got.CenterID != 3 || got.Search != "sing" || got.OrderBy != "created_at" {
		t.Fatalf("query = %+v", got)
	}
	if got.IsActive == nil || !*got.IsActive {
		t.Fatalf("is_active filter = %v, want true", got.IsActive)
	}
}

func TestUserGetDeniedForStranger(t *testing.T) {
	users := &fakeUserStore{
		getByIDFunc: func(ctx context.Context, id uint64) (repository.User, error) {
			return repository.User{ID: id, Username: "other", IsActive: true}, nil
		},
	}
	h := NewUserHandler(testCfg, users, &fakeCenterStore{})
	c, rec := jsonCtx(t, http.MethodGet, "/v1/users/2", nil)
	c.SetParamNames("id")
	c.SetParamValues("2")
	setActor(c, policy.Actor{UserID: 5, Role: repository.RoleCandidate, IsActive: true})
	if err := h.Get(c); err != nil {
		t.Fatalf("get: %v", err)
	}
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
}

func TestUserUpdateOwnerCannotEscalate(t *testing.T) {
	stored := repository.User{ID: 5, Username: "self", Role: repository.RoleCandidate, IsActive: true}
	var updated repository.User
	users := &fakeUserStore{
		getByIDFunc: func(ctx context.Context, id uint64) (repository.User, error) {
			return stored, nil
		},
		updateFunc: func(ctx context.Context, u *repository.User) error {
			updated = *u
			return nil
		},
	}
	h := NewUserHandler(testCfg, users, &fakeCenterStore{})
	c, rec := jsonCtx(t, http.MethodPut, "/v1/users/5", map[string]any{
		"first_name": "Arjun",
		"user_type":  "admin",
		"is_locked":  false,
	})
	c.SetParamNames("id")
	c.SetParamValues("5")
	setActor(c, policy.Actor{UserID: 5, Role: repository.RoleCandidate, IsActive: true})
	if err := h.Update(c); err != nil {
		t.Fatalf("update: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if updated.FirstName != "Arjun" {
		t.Fatalf("first name = %q", updated.FirstName)
	}
	if updated.Role != repository.RoleCandidate {
		t.Fatalf("role = %q, owner escalated own role", updated.Role)
	}
}

func TestChangePasswordWrongOld(t *testing.T) {
	u := activeUser(t, "current-pass-1")
	users := &fakeUserStore{
		getByIDFunc: func(ctx context.Context, id uint64) (repository.User, error) {
			return u, nil
		},
	}
	h := NewUserHandler(testCfg, users, &fakeCenterStore{})
	c, rec := jsonCtx(t, http.MethodPost, "/v1/password/change", map[string]string{
		"old_password":         "not-the-one",
		"new_password":         "brand-new-pw1",
		"new_password_confirm": "brand-new-pw1",
	})
	setActor(c, policy.Actor{UserID: u.ID, Role: u.Role, IsActive: true})
	if err := h.ChangePassword(c); err != nil {
		t.Fatalf("change password: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if got := decodeBody(t, rec)["error"]; got != "old password is incorrect" {
		t.Fatalf("error = %q", got)
	}
}

func TestChangePasswordSuccess(t *testing.T) {
	u := activeUser(t, "current-pass-1")
	var newPw string
	users := &fakeUserStore{
		getByIDFunc: func(ctx context.Context, id uint64) (repository.User, error) {
			return u, nil
		},
		updatePasswordFunc: func(ctx context.Context, id uint64, password string, cost int) error {
			newPw = password
			return nil
		},
	}
	h := NewUserHandler(testCfg, users, &fakeCenterStore{})
	c, rec := jsonCtx(t, http.MethodPost, "/v1/password/change", map[string]string{
		"old_password":         "current-pass-1",
		"new_password":         "brand-new-pw1",
		"new_password_confirm": "brand-new-pw1",
	})
	setActor(c, policy.Actor{UserID: u.ID, Role: u.Role, IsActive: true})
	if err := h.ChangePassword(c); err != nil {
		t.Fatalf("change password: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if newPw != "brand-new-pw1" {
		t.Fatalf("stored password = %q", newPw)
	}
}

func TestPasswordResetUnknownEmail(t *testing.T) {
	h := NewUserHandler(testCfg, &fakeUserStore{}, &fakeCenterStore{})
	c, rec := jsonCtx(t, http.MethodPost, "/v1/auth/password/reset", map[string]string{
		"email": "nobody@example.com",
	})
	if err := h.RequestPasswordReset(c); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if got := decodeBody(t, rec)["error"]; got != "no active user found with this email" {
		t.Fatalf("error = %q", got)
	}
}

func TestPasswordResetKnownEmail(t *testing.T) {
	users := &fakeUserStore{
		hasActiveEmailFunc: func(ctx context.Context, email string) (bool, error) {
			return true, nil
		},
	}
	h := NewUserHandler(testCfg, users, &fakeCenterStore{})
	c, rec := jsonCtx(t, http.MethodPost, "/v1/auth/password/reset", map[string]string{
		"email": "soldier@example.com",
	})
	if err := h.RequestPasswordReset(c); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := decodeBody(t, rec)["detail"]; got != "password reset instructions sent to your email" {
		t.Fatalf("detail = %q", got)
	}
}

func TestPasswordResetConfirmMismatch(t *testing.T) {
	h := NewUserHandler(testCfg, &fakeUserStore{}, &fakeCenterStore{})
	c, rec := jsonCtx(t, http.MethodPost, "/v1/auth/password/reset/confirm", map[string]string{
		"token":                "whatever-token",
		"new_password":         "brand-new-pw1",
		"new_password_confirm": "other-pw-2222",
	})
	if err := h.ConfirmPasswordReset(c); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if got := decodeBody(t, rec)["error"]; got != "new passwords don't match" {
		t.Fatalf("error = %q", got)
	}
}
