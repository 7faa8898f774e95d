package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/quod-portal/account-service/internal/core/domain"
)

// caller is the authenticated account behind a request, as set by the Auth
// middleware.
type caller struct {
	AccountID string
	Email     string
	Role      domain.Role
}

func (c caller) isAdmin() bool {
	return c.Role == domain.RoleAdmin
}

// ctxCaller extracts the auth claims injected by the Auth middleware.
func ctxCaller(c echo.Context) (caller, error) {
	role, _ := c.Get("role").(string)
	email, _ := c.Get("email").(string)
	if role == "" || email == "" {
		return caller{}, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}

	id, _ := c.Get("account_id").(string)
	return caller{AccountID: id, Email: email, Role: domain.Role(role)}, nil
}
