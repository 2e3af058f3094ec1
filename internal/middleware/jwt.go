package middleware // middleware contains reusable HTTP middleware functions

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/slogsolutions/Army-Exam-Portal/internal/policy"
)

// actorKey is the context key under which the authenticated identity
// snapshot is stored.
const actorKey = "actor"

// JWTAuth returns an Echo middleware that validates a Bearer access token
// and injects the embedded identity snapshot into the request context as a
// policy.Actor. The provided secret must match the one used when issuing
// tokens. Handlers retrieve the actor via CurrentActor(c).
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
				// Reject tokens signed with anything but HMAC.
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, echo.ErrUnauthorized
				}
				return []byte(secret), nil
			})
			if err != nil || !tok.Valid {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}

			claims, ok := tok.Claims.(jwt.MapClaims)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid claims"})
			}

			actor := actorFromClaims(claims)
			if actor.UserID == 0 {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid claims"})
			}
			c.Set(actorKey, actor)
			// Plain keys kept for middleware that only needs coarse identity,
			// such as the rate limiter's key builder.
			c.Set("user_id", actor.UserID)
			c.Set("role", actor.Role)
			return next(c)
		}
	}
}

// CurrentActor returns the identity stored by JWTAuth. The zero Actor is
// returned for unauthenticated requests and fails every policy gate.
func CurrentActor(c echo.Context) policy.Actor {
	if a, ok := c.Get(actorKey).(policy.Actor); ok {
		return a
	}
	return policy.Actor{}
}

// actorFromClaims converts the JWT claim map into a typed Actor. Numeric
// claims arrive as float64 from the JSON decoder.
func actorFromClaims(claims jwt.MapClaims) policy.Actor {
	a := policy.Actor{}
	a.UserID = claimUint(claims, "sub")
	a.CenterID = claimUint(claims, "center_id")
	if v, ok := claims["username"].(string); ok {
		a.Username = v
	}
	if v, ok := claims["role"].(string); ok {
		a.Role = v
	}
	if v, ok := claims["is_center_admin"].(bool); ok {
		a.IsCenterAdmin = v
	}
	if v, ok := claims["is_active"].(bool); ok {
		a.IsActive = v
	}
	if v, ok := claims["is_locked"].(bool); ok {
		a.IsLocked = v
	}
	return a
}

func claimUint(claims jwt.MapClaims, key string) uint64 {
	switch v := claims[key].(type) {
	case float64:
		if v < 0 {
			return 0
		}
		return uint64(v)
	case int64:
		if v < 0 {
			return 0
		}
		return uint64(v)
	}
	return 0
}
