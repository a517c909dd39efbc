package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/adimehta/sharesphere/internal/middleware"
	"github.com/adimehta/sharesphere/internal/repository"
	"github.com/adimehta/sharesphere/internal/service"
)

// WalletHandler serves token balance, ledger history and penalty
// endpoints.
type WalletHandler struct {
	Users     *repository.UserRepo
	Entries   *repository.LedgerRepo
	Pending   *repository.PenaltyRepo
	Penalties *service.PenaltyEngine
}

func NewWalletHandler(u *repository.UserRepo, e *repository.LedgerRepo, p *repository.PenaltyRepo, eng *service.PenaltyEngine) *WalletHandler {
	return &WalletHandler{Users: u, Entries: e, Pending: p, Penalties: eng}
}

// Balance returns the caller's current balance and unpaid penalty sum.
func (h *WalletHandler) Balance(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetUser(ctx, middleware.CallerID(c))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"tokens":            u.Tokens,
		"pending_penalties": u.PendingPenalties,
	})
}

// History returns the caller's ledger entries, newest first.
func (h *WalletHandler) History(c echo.Context) error {
	limit, offset := 50, 0
	if s := c.QueryParam("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}
	if s := c.QueryParam("offset"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n >= 0 {
			offset = n
		}
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	entries, err := h.Entries.ListByUser(ctx, middleware.CallerID(c), limit, offset)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"entries": entries, "count": len(entries)})
}

// PendingPenalties lists the caller's unpaid penalties oldest first.
func (h *WalletHandler) PendingPenalties(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	pens, err := h.Pending.UnpaidByUser(ctx, middleware.CallerID(c))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"penalties": pens, "count": len(pens)})
}

// PayPenalty settles one pending penalty from the current balance.
func (h *WalletHandler) PayPenalty(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	if err := h.Penalties.PayPenalty(ctx, middleware.CallerID(c), id); err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "penalty paid"})
}
