// Package handler holds the Echo HTTP handlers. Handlers stay thin: bind
// and validate input, call the service or repository, map errors to
// status codes.
package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/adimehta/sharesphere/internal/repository"
	"github.com/adimehta/sharesphere/internal/service"
)

// idParam parses a numeric path parameter.
func idParam(c echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, errors.New("invalid id")
	}
	return id, nil
}

// serviceError maps domain errors to HTTP responses. Unknown errors
// become 500 with a generic message; the detail goes to the log.
func serviceError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, repository.ErrUserNotFound),
		errors.Is(err, repository.ErrItemNotFound),
		errors.Is(err, repository.ErrTransactionNotFound),
		errors.Is(err, repository.ErrPenaltyNotFound),
		errors.Is(err, repository.ErrNotificationNotFound),
		errors.Is(err, service.ErrPenaltyNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	case errors.Is(err, service.ErrNotParty),
		errors.Is(err, service.ErrNotOwner),
		errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": err.Error()})
	case errors.Is(err, service.ErrItemUnavailable),
		errors.Is(err, service.ErrInvalidState),
		errors.Is(err, service.ErrAlreadyReviewed),
		errors.Is(err, service.ErrDamageAlreadyReported),
		errors.Is(err, repository.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case errors.Is(err, service.ErrSelfBorrow),
		errors.Is(err, service.ErrInvalidDateRange),
		errors.Is(err, service.ErrInvalidSeverity),
		errors.Is(err, service.ErrInvalidRating):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, service.ErrInsufficientBalance):
		return c.JSON(http.StatusPaymentRequired, echo.Map{"error": err.Error()})
	}
	c.Logger().Errorf("internal error: %v", err)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}
