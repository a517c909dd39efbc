package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/adimehta/sharesphere/internal/middleware"
	"github.com/adimehta/sharesphere/internal/repository"
	"github.com/adimehta/sharesphere/internal/service"
	"github.com/adimehta/sharesphere/internal/storage"
)

// FeedbackHandler serves damage reports, reviews and complaints.
type FeedbackHandler struct {
	Lifecycle  *service.Lifecycle
	Txs        *repository.TransactionRepo
	Reviews    *repository.ReviewRepo
	Complaints *repository.ComplaintRepo
	Damage     *repository.DamageRepo
	Media      *storage.MediaStore
}

func NewFeedbackHandler(lc *service.Lifecycle, txs *repository.TransactionRepo, rv *repository.ReviewRepo, cp *repository.ComplaintRepo, dmg *repository.DamageRepo, media *storage.MediaStore) *FeedbackHandler {
	return &FeedbackHandler{Lifecycle: lc, Txs: txs, Reviews: rv, Complaints: cp, Damage: dmg, Media: media}
}

// ReportDamage files the owner's one damage claim for a loan; the penalty
// is assessed immediately.
func (h *FeedbackHandler) ReportDamage(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	severity := strings.ToUpper(strings.TrimSpace(c.FormValue("severity")))
	description := strings.TrimSpace(c.FormValue("description"))
	if severity == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "severity required"})
	}

	var proofs []string
	if form, err := c.MultipartForm(); err == nil {
		files := form.File["proof_images"]
		if len(files) > 5 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "at most 5 proof images"})
		}
		if len(files) > 0 {
			proofs, err = h.Media.SaveImages(files, "damage", id)
			if err != nil {
				return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
			}
		}
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	penalty, err := h.Lifecycle.ReportDamage(ctx, id, middleware.CallerID(c), severity, description, proofs)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"penalty_tokens": penalty})
}

// GetDamageReport returns the damage claim filed on a loan, parties only.
func (h *FeedbackHandler) GetDamageReport(c echo.Context) error {
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
		return serviceError(c, repository.ErrForbidden)
	}
	report, err := h.Damage.GetByTransaction(ctx, id)
	if err != nil {
		return serviceError(c, err)
	}
	if report == nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "no damage report filed"})
	}
	return c.JSON(http.StatusOK, report)
}

type reviewReq struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// SubmitReview records one party's review; the second review completes
// the transaction.
func (h *FeedbackHandler) SubmitReview(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req reviewReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	if err := h.Lifecycle.SubmitReview(ctx, id, middleware.CallerID(c), req.Rating, strings.TrimSpace(req.Comment)); err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": "review recorded"})
}

// ListReviews returns reviews received by a user.
func (h *FeedbackHandler) ListReviews(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	reviews, err := h.Reviews.ListByReviewee(ctx, id)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"reviews": reviews, "count": len(reviews)})
}

// FileComplaint files a complaint against the other party of a loan. The
// defendant's rating is halved immediately and they are banned at the
// complaint threshold.
func (h *FeedbackHandler) FileComplaint(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	title := strings.TrimSpace(c.FormValue("title"))
	description := strings.TrimSpace(c.FormValue("description"))
	severity := strings.TrimSpace(c.FormValue("severity"))
	if title == "" || description == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title and description required"})
	}

	var proofs []string
	if form, err := c.MultipartForm(); err == nil {
		files := form.File["proof_images"]
		if len(files) > 5 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "at most 5 proof images"})
		}
		if len(files) > 0 {
			proofs, err = h.Media.SaveImages(files, "complaint", id)
			if err != nil {
				return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
			}
		}
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	if err := h.Lifecycle.FileComplaint(ctx, id, middleware.CallerID(c), title, description, severity, proofs); err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": "complaint filed"})
}

// UserComplaints lists complaints filed against a user. Public, like the
// user's reviews: borrowers can vet an owner before requesting.
func (h *FeedbackHandler) UserComplaints(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	complaints, err := h.Complaints.ListByDefendant(ctx, id)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"complaints": complaints, "count": len(complaints)})
}

// MyComplaints lists complaints the caller has filed and those against
// them.
func (h *FeedbackHandler) MyComplaints(c echo.Context) error {
	uid := middleware.CallerID(c)
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	filed, err := h.Complaints.ListByComplainant(ctx, uid)
	if err != nil {
		return serviceError(c, err)
	}
	against, err := h.Complaints.ListByDefendant(ctx, uid)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"filed": filed, "against": against})
}
