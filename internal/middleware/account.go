package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/adimehta/sharesphere/internal/model"
)

// RequireActiveAccount returns a middleware that loads the authenticated
// user and rejects requests from deactivated or banned accounts. The
// loaded record is stored under "current_user" for handlers.
func RequireActiveAccount(load func(c echo.Context, id uint64) (*model.User, error)) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := CallerID(c)
			if id == 0 {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "not authenticated"})
			}
			u, err := load(c, id)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "account not found"})
			}
			if !u.IsActive {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "account deactivated"})
			}
			if u.IsBanned {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "account banned"})
			}
			c.Set("current_user", u)
			return next(c)
		}
	}
}

// CurrentUser returns the record stored by RequireActiveAccount, or nil.
func CurrentUser(c echo.Context) *model.User {
	u, _ := c.Get("current_user").(*model.User)
	return u
}
