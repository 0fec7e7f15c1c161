// app/echoServer/jwtx/user.go
package jwtx

import (
	"errors"

	"github.com/labstack/echo/v4"
)

// UserID returns the authenticated user's id, set by the claims middleware.
func UserID(c echo.Context) (int64, error) {
	id, ok := c.Get("user_id").(int64)
	if !ok || id <= 0 {
		return 0, errors.New("no user id in context")
	}
	return id, nil
}

// Role returns the authenticated user's role claim ("user" when absent).
func Role(c echo.Context) string {
	if r, ok := c.Get("role").(string); ok && r != "" {
		return r
	}
	return "user"
}

func IsAdmin(c echo.Context) bool { return Role(c) == "admin" }
