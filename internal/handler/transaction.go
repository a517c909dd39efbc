package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/adimehta/sharesphere/internal/middleware"
	"github.com/adimehta/sharesphere/internal/model"
	"github.com/adimehta/sharesphere/internal/repository"
	"github.com/adimehta/sharesphere/internal/service"
	"github.com/adimehta/sharesphere/internal/storage"
	"github.com/adimehta/sharesphere/internal/utils"
)

// TransactionHandler serves the borrow lifecycle endpoints. All state
// transitions go through the Lifecycle service; the handler only binds
// input and uploads proof images.
type TransactionHandler struct {
	Lifecycle *service.Lifecycle
	Txs       *repository.TransactionRepo
	Media     *storage.MediaStore
}

func NewTransactionHandler(lc *service.Lifecycle, txs *repository.TransactionRepo, media *storage.MediaStore) *TransactionHandler {
	return &TransactionHandler{Lifecycle: lc, Txs: txs, Media: media}
}

type createTxReq struct {
	ItemID    uint64 `json:"item_id"`
	StartDate string `json:"start_date"` // YYYY-MM-DD or RFC 3339
	EndDate   string `json:"end_date"`
}

type txResp struct {
	ID            uint64     `json:"id"`
	ItemID        uint64     `json:"item_id"`
	OwnerID       uint64     `json:"owner_id"`
	BorrowerID    uint64     `json:"borrower_id"`
	Status        string     `json:"status"`
	DaysRequested int        `json:"days_requested"`
	StartDate     time.Time  `json:"start_date"`
	EndDate       time.Time  `json:"end_date"`
	TotalTokens   int        `json:"total_tokens"`
	OwnerDelivery bool       `json:"owner_delivery_confirmed"`
	BorrowerDeliv bool       `json:"borrower_delivery_confirmed"`
	OwnerReturn   bool       `json:"owner_return_confirmed"`
	BorrowerRet   bool       `json:"borrower_return_confirmed"`
	DamageReport  bool       `json:"damage_reported"`
	DamagePenalty int        `json:"damage_penalty"`
	PenaltyTokens int        `json:"penalty_tokens"`
	IsReviewed    bool       `json:"is_reviewed"`
	CreatedAt     time.Time  `json:"created_at"`
	ApprovedAt    *time.Time `json:"approved_at,omitempty"`
	DeliveredAt   *time.Time `json:"delivered_at,omitempty"`
	ReturnedAt    *time.Time `json:"returned_at,omitempty"`
}

func toTxResp(t *model.Transaction) txResp {
	return txResp{
		ID: t.ID, ItemID: t.ItemID, OwnerID: t.OwnerID, BorrowerID: t.BorrowerID,
		Status: t.Status, DaysRequested: t.DaysRequested,
		StartDate: t.StartDate, EndDate: t.EndDate, TotalTokens: t.TotalTokens,
		OwnerDelivery: t.OwnerDeliveryConfirmed, BorrowerDeliv: t.BorrowerDeliveryConfirmed,
		OwnerReturn: t.OwnerReturnConfirmed, BorrowerRet: t.BorrowerReturnConfirmed,
		DamageReport: t.DamageReported, DamagePenalty: t.DamagePenalty,
		PenaltyTokens: t.PenaltyTokens, IsReviewed: t.IsReviewed,
		CreatedAt: t.CreatedAt, ApprovedAt: t.ApprovedAt,
		DeliveredAt: t.DeliveredAt, ReturnedAt: t.ReturnedAt,
	}
}

// Create opens a borrow request for an item.
func (h *TransactionHandler) Create(c echo.Context) error {
	var req createTxReq
	if err := c.Bind(&req); err != nil || req.ItemID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "item_id, start_date, end_date required"})
	}
	start, err1 := utils.ParseTimestamp(req.StartDate)
	end, err2 := utils.ParseTimestamp(req.EndDate)
	if err1 != nil || err2 != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "dates must be YYYY-MM-DD or RFC 3339"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	t, err := h.Lifecycle.CreateRequest(ctx, middleware.CallerID(c), req.ItemID, start, end)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusCreated, toTxResp(t))
}

// List returns the caller's transactions, optionally filtered by status.
func (h *TransactionHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	txs, err := h.Txs.ListByUser(ctx, middleware.CallerID(c), c.QueryParam("status"))
	if err != nil {
		return serviceError(c, err)
	}
	out := make([]txResp, 0, len(txs))
	for _, t := range txs {
		out = append(out, toTxResp(t))
	}
	return c.JSON(http.StatusOK, echo.Map{"transactions": out, "count": len(out)})
}

// Get returns one transaction, parties only.
func (h *TransactionHandler) Get(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	t, err := h.Txs.GetTransaction(ctx, id)
	if err != nil {
		return serviceError(c, err)
	}
	if t.PartyOf(middleware.CallerID(c)) == 0 {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not a party to this transaction"})
	}
	return c.JSON(http.StatusOK, toTxResp(t))
}

// Approve accepts a pending request (owner only).
func (h *TransactionHandler) Approve(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	if err := h.Lifecycle.Approve(ctx, id, middleware.CallerID(c)); err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"status": model.TxApproved})
}

// Reject declines a pending request (owner only).
func (h *TransactionHandler) Reject(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	if err := h.Lifecycle.Reject(ctx, id, middleware.CallerID(c)); err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"status": model.TxCancelled})
}

// ConfirmDelivery records one party's delivery confirmation, with
// optional proof photos. Tokens move on the second confirmation.
func (h *TransactionHandler) ConfirmDelivery(c echo.Context) error {
	return h.confirm(c, h.Lifecycle.ConfirmDelivery, "delivery")
}

// ConfirmReturn records one party's return confirmation. The item frees
// up and any late penalty is assessed on the second confirmation.
func (h *TransactionHandler) ConfirmReturn(c echo.Context) error {
	return h.confirm(c, h.Lifecycle.ConfirmReturn, "return")
}

func (h *TransactionHandler) confirm(
	c echo.Context,
	fn func(ctx context.Context, txID, callerID uint64, proofs []string) (*model.Transaction, error),
	kind string,
) error {
	id, err := idParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	var proofs []string
	if form, err := c.MultipartForm(); err == nil {
		files := form.File["proof_images"]
		if len(files) > 5 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "at most 5 proof images"})
		}
		if len(files) > 0 {
			proofs, err = h.Media.SaveImages(files, kind, id)
			if err != nil {
				return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
			}
		}
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	t, err := fn(ctx, id, middleware.CallerID(c), proofs)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, toTxResp(t))
}
