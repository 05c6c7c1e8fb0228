package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/greenloop/waste2fertilizer/internal/model"
)

// RequireRole enforces that the authenticated caller holds one of the given
// roles. Admins always pass: the back office may exercise any role-scoped
// endpoint. It assumes JWTAuth has already stored the role in context.
func RequireRole(roles ...model.Role) echo.MiddlewareFunc {
	allowed := make(map[model.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, ok := c.Get(CtxRole).(string)
			if !ok || (!allowed[model.Role(role)] && model.Role(role) != model.RoleAdmin) {
				return c.JSON(http.StatusForbidden, echo.Map{"message": "forbidden"})
			}
			return next(c)
		}
	}
}
