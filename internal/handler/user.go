package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/slogsolutions/Army-Exam-Portal/internal/config"
	"github.com/slogsolutions/Army-Exam-Portal/internal/middleware"
	"github.com/slogsolutions/Army-Exam-Portal/internal/policy"
	"github.com/slogsolutions/Army-Exam-Portal/internal/repository"
	"github.com/slogsolutions/Army-Exam-Portal/internal/utils"
)

// UserHandler bundles dependencies for registration, user management and
// password endpoints.
type UserHandler struct {
	Cfg     config.Config
	Users   UserStore
	Centers CenterStore
}

func NewUserHandler(cfg config.Config, users UserStore, centers CenterStore) *UserHandler {
	if users == nil || centers == nil {
		panic("nil store passed to NewUserHandler")
	}
	return &UserHandler{Cfg: cfg, Users: users, Centers: centers}
}

// ----- DTOs -----

type registerReq struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	UserType        string `json:"user_type"`
	CenterID        uint64 `json:"center_id"`
	PhoneNumber     string `json:"phone_number"`
}

// Register creates a new account. Self-service registrations default to the
// candidate role; password and confirmation must match and be at least
// eight characters.
func (h *UserHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Username == "" || req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username/email/password required"})
	}
	if len(req.Password) < 8 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "password must be at least 8 characters"})
	}
	if req.Password != req.PasswordConfirm {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "passwords don't match"})
	}
	role := strings.ToLower(strings.TrimSpace(req.UserType))
	if role == "" {
		role = repository.RoleCandidate
	}
	if !repository.ValidRole(role) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user_type"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	u := repository.User{
		Username:      u8trim(req.Username),
		Email:         req.Email,
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		Role:          role,
		PhoneNumber:   req.PhoneNumber,
		IsCenterAdmin: role == repository.RoleCenterAdmin,
	}
	// Unresolvable center identifiers are silently dropped rather than
	// failing the registration.
	if req.CenterID != 0 {
		if center, err := h.Centers.GetByID(ctx, req.CenterID); err == nil {
			u.CenterID = &center.ID
		}
	}

	if err := h.Users.Create(ctx, &u, req.Password, h.Cfg.BcryptCost); err != nil {
		switch err {
		case repository.ErrUsernameExists:
			return c.JSON(http.StatusConflict, echo.Map{"error": "username already exists"})
		case repository.ErrEmailExists:
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
	}
	return c.JSON(http.StatusCreated, toUserResp(ctx, h.Centers, u))
}

func u8trim(s string) string { return strings.TrimSpace(s) }

// List handles GET /v1/users (admin only): filterable, searchable,
// orderable, paginated.
func (h *UserHandler) List(c echo.Context) error {
	if !policy.IsAdmin(middleware.CurrentActor(c)) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}

	q := repository.UserListQuery{
		Role:          strings.TrimSpace(c.QueryParam("user_type")),
		CenterID:      queryUint(c, "center"),
		IsActive:      queryBool(c, "is_active"),
		IsCenterAdmin: queryBool(c, "is_center_admin"),
		Search:        c.QueryParam("search"),
		OrderBy:       c.QueryParam("ordering"),
		Page:          queryInt(c, "page"),
		PageSize:      queryInt(c, "page_size"),
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	users, total, err := h.Users.List(ctx, q)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	items := make([]userResp, 0, len(users))
	for _, u := range users {
		items = append(items, toUserResp(ctx, h.Centers, u))
	}
	return c.JSON(http.StatusOK, listEnvelope(items, total, q.Page, q.PageSize))
}

// Get handles GET /v1/users/:id under the owner-or-admin object policy.
func (h *UserHandler) Get(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrUserNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	if !policy.CanAccess(middleware.CurrentActor(c), u) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	return c.JSON(http.StatusOK, toUserResp(ctx, h.Centers, u))
}

// userUpdateReq uses pointer fields so absent keys leave values untouched.
type userUpdateReq struct {
	Email         *string `json:"email"`
	FirstName     *string `json:"first_name"`
	LastName      *string `json:"last_name"`
	PhoneNumber   *string `json:"phone_number"`
	UserType      *string `json:"user_type"`
	CenterID      *uint64 `json:"center_id"`
	IsCenterAdmin *bool   `json:"is_center_admin"`
	IsActive      *bool   `json:"is_active"`
	IsLocked      *bool   `json:"is_locked"`
}

// Update handles PUT /v1/users/:id. Owners may edit their contact fields;
// role, flags and center assignment change only under an admin caller.
func (h *UserHandler) Update(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req userUpdateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrUserNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	actor := middleware.CurrentActor(c)
	if !policy.CanAccess(actor, u) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}

	applyContactFields(&u, req)
	if policy.IsAdmin(actor) {
		if req.UserType != nil && repository.ValidRole(*req.UserType) {
			u.Role = *req.UserType
		}
		if req.IsCenterAdmin != nil {
			u.IsCenterAdmin = *req.IsCenterAdmin
		}
		if req.IsActive != nil {
			u.IsActive = *req.IsActive
		}
		if req.IsLocked != nil {
			u.IsLocked = *req.IsLocked
		}
		if req.CenterID != nil {
			// Unresolvable centers are ignored, zero clears the affiliation.
			if *req.CenterID == 0 {
				u.CenterID = nil
			} else if center, err := h.Centers.GetByID(ctx, *req.CenterID); err == nil {
				u.CenterID = &center.ID
			}
		}
	}

	if err := h.Users.Update(ctx, &u); err != nil {
		if err == repository.ErrEmailExists {
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, toUserResp(ctx, h.Centers, u))
}

func applyContactFields(u *repository.User, req userUpdateReq) {
	if req.Email != nil && strings.TrimSpace(*req.Email) != "" {
		u.Email = strings.ToLower(strings.TrimSpace(*req.Email))
	}
	if req.FirstName != nil {
		u.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		u.LastName = *req.LastName
	}
	if req.PhoneNumber != nil {
		u.PhoneNumber = *req.PhoneNumber
	}
}

// Delete handles DELETE /v1/users/:id (owner-or-admin).
func (h *UserHandler) Delete(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrUserNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	if !policy.CanAccess(middleware.CurrentActor(c), u) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	if err := h.Users.Delete(ctx, id); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// Profile handles GET /v1/profile: the caller's own record.
func (h *UserHandler) Profile(c echo.Context) error {
	actor := middleware.CurrentActor(c)

	ctx, cancel := reqContext(c)
	defer cancel()

	u, err := h.Users.GetByID(ctx, actor.UserID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, toUserResp(ctx, h.Centers, u))
}

// UpdateProfile handles PUT /v1/profile. Only contact fields are editable;
// role and status fields are read-only to the subject.
func (h *UserHandler) UpdateProfile(c echo.Context) error {
	var req userUpdateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	actor := middleware.CurrentActor(c)

	ctx, cancel := reqContext(c)
	defer cancel()

	u, err := h.Users.GetByID(ctx, actor.UserID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	applyContactFields(&u, req)
	if err := h.Users.Update(ctx, &u); err != nil {
		if err == repository.ErrEmailExists {
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, toUserResp(ctx, h.Centers, u))
}

// ----- password management -----

type passwordChangeReq struct {
	OldPassword        string `json:"old_password"`
	NewPassword        string `json:"new_password"`
	NewPasswordConfirm string `json:"new_password_confirm"`
}

// ChangePassword verifies the old credential before accepting the new one.
func (h *UserHandler) ChangePassword(c echo.Context) error {
	var req passwordChangeReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if len(req.NewPassword) < 8 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "password must be at least 8 characters"})
	}
	if req.NewPassword != req.NewPasswordConfirm {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "new passwords don't match"})
	}
	actor := middleware.CurrentActor(c)

	ctx, cancel := reqContext(c)
	defer cancel()

	u, err := h.Users.GetByID(ctx, actor.UserID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	if !utils.VerifyPassword(u.PasswordHash, req.OldPassword) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "old password is incorrect"})
	}
	if err := h.Users.UpdatePassword(ctx, u.ID, req.NewPassword, h.Cfg.BcryptCost); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"detail": "password changed successfully"})
}

type passwordResetReq struct {
	Email string `json:"email"`
}

// RequestPasswordReset validates the input shape and answers with a fixed
// message. No reset token is issued; the flow is intentionally a stub.
func (h *UserHandler) RequestPasswordReset(c echo.Context) error {
	var req passwordResetReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Email) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email required"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	ok, err := h.Users.HasActiveEmail(ctx, req.Email)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "no active user found with this email"})
	}
	return c.JSON(http.StatusOK, echo.Map{"detail": "password reset instructions sent to your email"})
}

type passwordResetConfirmReq struct {
	Token              string `json:"token"`
	NewPassword        string `json:"new_password"`
	NewPasswordConfirm string `json:"new_password_confirm"`
}

// ConfirmPasswordReset validates the input shape and answers with a fixed
// message without resetting anything; see RequestPasswordReset.
func (h *UserHandler) ConfirmPasswordReset(c echo.Context) error {
	var req passwordResetConfirmReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Token) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "token required"})
	}
	if req.NewPassword != req.NewPasswordConfirm {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "new passwords don't match"})
	}
	return c.JSON(http.StatusOK, echo.Map{"detail": "password reset successfully"})
}
