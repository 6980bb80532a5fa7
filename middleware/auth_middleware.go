// middleware/auth_middleware.go
package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/brahimcontact64-ctrl/E-vizza/models"
)

// RequireRole checks if the authenticated user has one of the allowed
// roles. super_admin passes every admin gate.
func RequireRole(allowedRoles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role := ExtractRole(c)
			if role == "" {
				return c.JSON(http.StatusUnauthorized, models.Response{
					Status:  http.StatusUnauthorized,
					Message: "Authentication failed: role not found",
				})
			}

			for _, allowed := range allowedRoles {
				if role == allowed {
					return next(c)
				}
				if role == models.RoleSuperAdmin && allowed == models.RoleAdmin {
					return next(c)
				}
			}

			c.Logger().Errorf("Access denied for role: %s, allowed roles: %v", role, allowedRoles)
			return c.JSON(http.StatusForbidden, models.Response{
				Status:  http.StatusForbidden,
				Message: "Access denied for your role",
			})
		}
	}
}

// IsSuperAdmin reports whether the authenticated user is a super admin.
// Used where a super admin unlocks extra behavior on a shared route,
// like overriding a backward transition or a payment amount.
func IsSuperAdmin(c echo.Context) bool {
	return ExtractRole(c) == models.RoleSuperAdmin
}
