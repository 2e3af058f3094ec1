package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/slogsolutions/Army-Exam-Portal/internal/middleware"
	"github.com/slogsolutions/Army-Exam-Portal/internal/policy"
	"github.com/slogsolutions/Army-Exam-Portal/internal/repository"
)

// CenterHandler exposes the center-registry endpoints. System admins manage
// the full registry; center admins see and edit only their own center.
type CenterHandler struct {
	Centers CenterStore
}

func NewCenterHandler(centers CenterStore) *CenterHandler {
	if centers == nil {
		panic("nil store passed to NewCenterHandler")
	}
	return &CenterHandler{Centers: centers}
}

type centerReq struct {
	Name          string `json:"name"`
	Code          string `json:"code"`
	Address       string `json:"address"`
	City          string `json:"city"`
	State         string `json:"state"`
	ContactPerson string `json:"contact_person"`
	ContactEmail  string `json:"contact_email"`
	ContactPhone  string `json:"contact_phone"`
	Capacity      uint32 `json:"capacity"`
	IsActive      *bool  `json:"is_active"`
}

// List handles GET /v1/centers. Admins get the full registry; center admins
// get a single-element list holding their own center.
func (h *CenterHandler) List(c echo.Context) error {
	actor := middleware.CurrentActor(c)

	q := repository.CenterListQuery{
		IsActive: queryBool(c, "is_active"),
		State:    strings.TrimSpace(c.QueryParam("state")),
		Search:   c.QueryParam("search"),
		Page:     queryInt(c, "page"),
		PageSize: queryInt(c, "page_size"),
	}
	switch {
	case policy.IsAdmin(actor):
		// unrestricted
	case policy.IsCenterAdmin(actor) && actor.CenterID != 0:
		q.ID = actor.CenterID
	default:
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	centers, total, err := h.Centers.List(ctx, q)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	items := make([]centerResp, 0, len(centers))
	for _, center := range centers {
		items = append(items, toCenterResp(center))
	}
	return c.JSON(http.StatusOK, listEnvelope(items, total, q.Page, q.PageSize))
}

// Create handles POST /v1/centers (admin only).
func (h *CenterHandler) Create(c echo.Context) error {
	if !policy.IsAdmin(middleware.CurrentActor(c)) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	var req centerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Code = strings.TrimSpace(req.Code)
	if req.Name == "" || req.Code == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name and code required"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	center := repository.Center{
		Name:          req.Name,
		Code:          req.Code,
		Address:       req.Address,
		City:          req.City,
		State:         req.State,
		ContactPerson: req.ContactPerson,
		ContactEmail:  req.ContactEmail,
		ContactPhone:  req.ContactPhone,
		Capacity:      req.Capacity,
	}
	if err := h.Centers.Create(ctx, &center); err != nil {
		switch err {
		case repository.ErrCenterNameExists:
			return c.JSON(http.StatusConflict, echo.Map{"error": "center name already exists"})
		case repository.ErrCenterCodeExists:
			return c.JSON(http.StatusConflict, echo.Map{"error": "center code already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create center failed"})
	}
	return c.JSON(http.StatusCreated, toCenterResp(center))
}

// Get handles GET /v1/centers/:id. Center admins reach only their own
// center; the object policy enforces the scoping.
func (h *CenterHandler) Get(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	center, err := h.Centers.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrCenterNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "center not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	if !policy.CanAccess(middleware.CurrentActor(c), center) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	return c.JSON(http.StatusOK, toCenterResp(center))
}

// Update handles PUT /v1/centers/:id (admin, or center admin for its own
// center).
func (h *CenterHandler) Update(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req centerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	center, err := h.Centers.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrCenterNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "center not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	if !policy.CanAccess(middleware.CurrentActor(c), center) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}

	if name := strings.TrimSpace(req.Name); name != "" {
		center.Name = name
	}
	if code := strings.TrimSpace(req.Code); code != "" {
		center.Code = code
	}
	if req.Address != "" {
		center.Address = req.Address
	}
	center.City = req.City // blank city re-derives from the state capital
	if req.State != "" {
		center.State = req.State
	}
	if req.ContactPerson != "" {
		center.ContactPerson = req.ContactPerson
	}
	if req.ContactEmail != "" {
		center.ContactEmail = req.ContactEmail
	}
	if req.ContactPhone != "" {
		center.ContactPhone = req.ContactPhone
	}
	if req.Capacity != 0 {
		center.Capacity = req.Capacity
	}
	if req.IsActive != nil {
		center.IsActive = *req.IsActive
	}

	if err := h.Centers.Update(ctx, &center); err != nil {
		switch err {
		case repository.ErrCenterNameExists:
			return c.JSON(http.StatusConflict, echo.Map{"error": "center name already exists"})
		case repository.ErrCenterCodeExists:
			return c.JSON(http.StatusConflict, echo.Map{"error": "center code already exists"})
		case repository.ErrCenterNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "center not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, toCenterResp(center))
}

// Delete handles DELETE /v1/centers/:id (admin only).
func (h *CenterHandler) Delete(c echo.Context) error {
	if !policy.IsAdmin(middleware.CurrentActor(c)) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	if err := h.Centers.Delete(ctx, id); err != nil {
		if err == repository.ErrCenterNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "center not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
