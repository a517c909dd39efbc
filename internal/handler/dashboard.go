package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/adimehta/sharesphere/internal/middleware"
	"github.com/adimehta/sharesphere/internal/model"
	"github.com/adimehta/sharesphere/internal/repository"
)

// DashboardHandler aggregates the caller's account overview.
type DashboardHandler struct {
	Users   *repository.UserRepo
	Items   *repository.ItemRepo
	Txs     *repository.TransactionRepo
	Pending *repository.PenaltyRepo
	Notes   *repository.NotificationRepo
}

func NewDashboardHandler(u *repository.UserRepo, i *repository.ItemRepo, t *repository.TransactionRepo, p *repository.PenaltyRepo, n *repository.NotificationRepo) *DashboardHandler {
	return &DashboardHandler{Users: u, Items: i, Txs: t, Pending: p, Notes: n}
}

// Overview returns the profile, listings, active loans and outstanding
// penalties in one response.
func (h *DashboardHandler) Overview(c echo.Context) error {
	uid := middleware.CallerID(c)
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	u, err := h.Users.GetUser(ctx, uid)
	if err != nil {
		return serviceError(c, err)
	}
	items, err := h.Items.ListByOwner(ctx, uid)
	if err != nil {
		return serviceError(c, err)
	}
	txs, err := h.Txs.ListByUser(ctx, uid, "")
	if err != nil {
		return serviceError(c, err)
	}
	pens, err := h.Pending.UnpaidByUser(ctx, uid)
	if err != nil {
		return serviceError(c, err)
	}
	unread, err := h.Notes.CountUnread(ctx, uid)
	if err != nil {
		return serviceError(c, err)
	}
	members, err := h.Users.CountActive(ctx)
	if err != nil {
		return serviceError(c, err)
	}

	byStatus := map[string]int{}
	active, incoming := 0, 0
	for _, t := range txs {
		byStatus[t.Status]++
		switch t.Status {
		case model.TxApproved, model.TxDelivered, model.TxReturned:
			active++
		case model.TxPending:
			if t.OwnerID == uid {
				incoming++
			}
		}
	}

	return c.JSON(http.StatusOK, echo.Map{
		"profile":                u.PublicProfile(),
		"items_listed":           len(items),
		"transactions_total":     len(txs),
		"transactions_by_status": byStatus,
		"transactions_active":    active,
		"pending_requests":       incoming,
		"pending_penalties":      pens,
		"unread_notifications":   unread,
		"active_members":         members,
	})
}
