package middleware

// identity.go holds helpers for reading the authenticated user out of the
// Echo context. JWTAuth stores the raw sub claim; these helpers normalise
// it for rate limiting keys and handler use.

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// CallerID returns the authenticated user's id, or 0 when the request is
// unauthenticated or the claim is malformed.
func CallerID(c echo.Context) uint64 {
	switch v := c.Get("user_id").(type) {
	case float64:
		return uint64(v)
	case uint64:
		return v
	case string:
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return 0
		}
		return n
	}
	return 0
}

// userID returns a string identity for rate-limit bucketing, "guest" when
// unauthenticated.
func userID(c echo.Context) string {
	if id := CallerID(c); id != 0 {
		return strconv.FormatUint(id, 10)
	}
	return "guest"
}
