package middleware // middleware provides shared request processing for handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/slogsolutions/Army-Exam-Portal/internal/policy"
)

// RequireActive rejects requests from deactivated or locked identities
// before any handler runs. It assumes JWTAuth already populated the actor.
func RequireActive() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !policy.Gate(CurrentActor(c)) {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "account disabled or locked"})
			}
			return next(c)
		}
	}
}

// RequireAdmin restricts a route group to system administrators.
func RequireAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !policy.IsAdmin(CurrentActor(c)) {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
			}
			return next(c)
		}
	}
}

// RequireRole enforces that the authenticated user holds one of the given
// roles. System admins always pass.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			a := CurrentActor(c)
			if !policy.Gate(a) {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
			}
			if a.Role != policy.RoleAdmin && !allowed[a.Role] {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
			}
			return next(c)
		}
	}
}
