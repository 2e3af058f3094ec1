package handler // handler defines http handlers

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/slogsolutions/Army-Exam-Portal/internal/repository"
)

// dbTimeout bounds every database call made from a handler.
const dbTimeout = 5 * time.Second

func reqContext(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), dbTimeout)
}

// ----- shared response shapes -----

type centerResp struct {
	ID            uint64    `json:"id"`
	Name          string    `json:"name"`
	Code          string    `json:"code"`
	Address       string    `json:"address"`
	City          string    `json:"city"`
	State         string    `json:"state"`
	ContactPerson string    `json:"contact_person"`
	ContactEmail  string    `json:"contact_email"`
	ContactPhone  string    `json:"contact_phone"`
	Capacity      uint32    `json:"capacity"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type userResp struct {
	ID            uint64      `json:"id"`
	Username      string      `json:"username"`
	Email         string      `json:"email"`
	FirstName     string      `json:"first_name"`
	LastName      string      `json:"last_name"`
	UserType      string      `json:"user_type"`
	Center        *centerResp `json:"center"`
	PhoneNumber   string      `json:"phone_number"`
	IsCenterAdmin bool        `json:"is_center_admin"`
	IsActive      bool        `json:"is_active"`
	IsLocked      bool        `json:"is_locked"`
	LastLogin     *time.Time  `json:"last_login"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

func toCenterResp(c repository.Center) centerResp {
	return centerResp{
		ID:            c.ID,
		Name:          c.Name,
		Code:          c.Code,
		Address:       c.Address,
		City:          c.City,
		State:         c.State,
		ContactPerson: c.ContactPerson,
		ContactEmail:  c.ContactEmail,
		ContactPhone:  c.ContactPhone,
		Capacity:      c.Capacity,
		IsActive:      c.IsActive,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}

// toUserResp renders a user with its center snapshot. The center lookup is
// best-effort: an unresolvable affiliation renders as null rather than
// failing the response.
func toUserResp(ctx context.Context, centers CenterStore, u repository.User) userResp {
	resp := userResp{
		ID:            u.ID,
		Username:      u.Username,
		Email:         u.Email,
		FirstName:     u.FirstName,
		LastName:      u.LastName,
		UserType:      u.Role,
		PhoneNumber:   u.PhoneNumber,
		IsCenterAdmin: u.IsCenterAdmin,
		IsActive:      u.IsActive,
		IsLocked:      u.IsLocked,
		LastLogin:     u.LastLogin,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
	if u.CenterID != nil && centers != nil {
		if center, err := centers.GetByID(ctx, *u.CenterID); err == nil {
			cr := toCenterResp(center)
			resp.Center = &cr
		}
	}
	return resp
}

// ----- query param helpers -----

func pathID(c echo.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	return id, err == nil && id != 0
}

func queryUint(c echo.Context, name string) uint64 {
	n, _ := strconv.ParseUint(strings.TrimSpace(c.QueryParam(name)), 10, 64)
	return n
}

func queryInt(c echo.Context, name string) int {
	n, _ := strconv.Atoi(strings.TrimSpace(c.QueryParam(name)))
	return n
}

// queryBool parses an optional tri-state boolean query parameter.
func queryBool(c echo.Context, name string) *bool {
	v := strings.ToLower(strings.TrimSpace(c.QueryParam(name)))
	switch v {
	case "1", "true", "yes":
		b := true
		return &b
	case "0", "false", "no":
		b := false
		return &b
	}
	return nil
}

// listEnvelope is the uniform paginated list response body.
func listEnvelope(items any, total int64, page, pageSize int) echo.Map {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return echo.Map{
		"items":     items,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	}
}
