package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/adimehta/sharesphere/internal/middleware"
	"github.com/adimehta/sharesphere/internal/model"
	"github.com/adimehta/sharesphere/internal/repository"
	"github.com/adimehta/sharesphere/internal/storage"
)

// ItemHandler serves listing CRUD and browse endpoints.
type ItemHandler struct {
	Items *repository.ItemRepo
	Media *storage.MediaStore
}

func NewItemHandler(items *repository.ItemRepo, media *storage.MediaStore) *ItemHandler {
	return &ItemHandler{Items: items, Media: media}
}

type itemResp struct {
	ID             uint64    `json:"id"`
	OwnerID        uint64    `json:"owner_id"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Category       string    `json:"category"`
	Value          float64   `json:"value"`
	TokensPerDay   int       `json:"tokens_per_day"`
	Status         string    `json:"status"`
	AvailableFrom  time.Time `json:"available_from"`
	AvailableUntil time.Time `json:"available_until"`
	Location       string    `json:"location"`
	Images         []string  `json:"images"`
	TotalBorrows   int       `json:"total_borrows"`
	CreatedAt      time.Time `json:"created_at"`
}

func toItemResp(it *model.Item) itemResp {
	return itemResp{
		ID: it.ID, OwnerID: it.OwnerID, Title: it.Title, Description: it.Description,
		Category: it.Category, Value: it.Value, TokensPerDay: it.TokensPerDay,
		Status: it.Status, AvailableFrom: it.AvailableFrom, AvailableUntil: it.AvailableUntil,
		Location: it.Location, Images: it.Images, TotalBorrows: it.TotalBorrows,
		CreatedAt: it.CreatedAt,
	}
}

// Create accepts a multipart listing with 1-5 images.
func (h *ItemHandler) Create(c echo.Context) error {
	title := strings.TrimSpace(c.FormValue("title"))
	category := strings.TrimSpace(c.FormValue("category"))
	if title == "" || !model.ValidCategory(category) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title and valid category required"})
	}
	value, err := strconv.ParseFloat(c.FormValue("value"), 64)
	if err != nil || value <= 0 || value > model.MaxItemValue {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "value must be in (0, 100000]"})
	}
	rate, err := strconv.Atoi(c.FormValue("tokens_per_day"))
	if err != nil || rate < 1 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tokens_per_day must be a positive integer"})
	}
	from, err1 := time.Parse("2006-01-02", c.FormValue("available_from"))
	until, err2 := time.Parse("2006-01-02", c.FormValue("available_until"))
	if err1 != nil || err2 != nil || until.Before(from) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid availability window"})
	}

	form, err := c.MultipartForm()
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "multipart form required"})
	}
	files := form.File["images"]
	if len(files) < 1 || len(files) > 5 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "between 1 and 5 images required"})
	}

	uid := middleware.CallerID(c)
	refs, err := h.Media.SaveImages(files, "item", uid)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	it := &model.Item{
		OwnerID:        uid,
		Title:          title,
		Description:    strings.TrimSpace(c.FormValue("description")),
		Category:       category,
		Value:          value,
		TokensPerDay:   rate,
		AvailableFrom:  from,
		AvailableUntil: until,
		Location:       strings.TrimSpace(c.FormValue("location")),
		Images:         refs,
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Items.Create(ctx, it); err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusCreated, toItemResp(it))
}

// List browses available listings with optional filters.
func (h *ItemHandler) List(c echo.Context) error {
	f := repository.ItemFilter{
		Category: c.QueryParam("category"),
		Location: c.QueryParam("location"),
		Search:   c.QueryParam("search"),
		Status:   model.ItemAvailable,
		Limit:    50,
	}
	if s := c.QueryParam("status"); s != "" {
		f.Status = strings.ToUpper(s)
	}
	if s := c.QueryParam("min_rate"); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			f.MinRate = n
		}
	}
	if s := c.QueryParam("max_rate"); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			f.MaxRate = n
		}
	}
	if s := c.QueryParam("available_date"); s != "" {
		if d, err := time.Parse("2006-01-02", s); err == nil {
			f.AvailableOn = d
		}
	}
	if s := c.QueryParam("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 && n <= 100 {
			f.Limit = n
		}
	}
	if s := c.QueryParam("offset"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n >= 0 {
			f.Offset = n
		}
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	items, err := h.Items.List(ctx, f)
	if err != nil {
		return serviceError(c, err)
	}
	out := make([]itemResp, 0, len(items))
	for _, it := range items {
		out = append(out, toItemResp(it))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out, "count": len(out)})
}

// Get returns one listing.
func (h *ItemHandler) Get(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	it, err := h.Items.GetItem(ctx, id)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, toItemResp(it))
}

// Mine lists the caller's own items, whatever their status.
func (h *ItemHandler) Mine(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	items, err := h.Items.ListByOwner(ctx, middleware.CallerID(c))
	if err != nil {
		return serviceError(c, err)
	}
	out := make([]itemResp, 0, len(items))
	for _, it := range items {
		out = append(out, toItemResp(it))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out, "count": len(out)})
}

type itemUpdateReq struct {
	Title          *string  `json:"title"`
	Description    *string  `json:"description"`
	Category       *string  `json:"category"`
	Value          *float64 `json:"value"`
	TokensPerDay   *int     `json:"tokens_per_day"`
	AvailableFrom  *string  `json:"available_from"`
	AvailableUntil *string  `json:"available_until"`
	Location       *string  `json:"location"`
}

// Update edits a listing the caller owns. Rate changes never touch
// existing transactions; their cost was fixed at request time.
func (h *ItemHandler) Update(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req itemUpdateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	it, err := h.Items.GetItem(ctx, id)
	if err != nil {
		return serviceError(c, err)
	}
	if it.OwnerID != middleware.CallerID(c) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not your item"})
	}

	if req.Title != nil {
		it.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		it.Description = strings.TrimSpace(*req.Description)
	}
	if req.Category != nil {
		if !model.ValidCategory(*req.Category) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid category"})
		}
		it.Category = *req.Category
	}
	if req.Value != nil {
		if *req.Value <= 0 || *req.Value > model.MaxItemValue {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "value must be in (0, 100000]"})
		}
		it.Value = *req.Value
	}
	if req.TokensPerDay != nil {
		if *req.TokensPerDay < 1 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "tokens_per_day must be positive"})
		}
		it.TokensPerDay = *req.TokensPerDay
	}
	if req.AvailableFrom != nil {
		t, err := time.Parse("2006-01-02", *req.AvailableFrom)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid available_from"})
		}
		it.AvailableFrom = t
	}
	if req.AvailableUntil != nil {
		t, err := time.Parse("2006-01-02", *req.AvailableUntil)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid available_until"})
		}
		it.AvailableUntil = t
	}
	if req.Location != nil {
		it.Location = strings.TrimSpace(*req.Location)
	}
	if it.AvailableUntil.Before(it.AvailableFrom) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid availability window"})
	}

	if err := h.Items.Update(ctx, it); err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, toItemResp(it))
}

// Delete removes a listing the caller owns, refused while a loan on it is
// active.
func (h *ItemHandler) Delete(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	it, err := h.Items.GetItem(ctx, id)
	if err != nil {
		return serviceError(c, err)
	}
	if it.OwnerID != middleware.CallerID(c) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not your item"})
	}
	if err := h.Items.Delete(ctx, id); err != nil {
		return serviceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// SuggestTokens proposes a daily token rate for a value/category pair.
func (h *ItemHandler) SuggestTokens(c echo.Context) error {
	value, err := strconv.ParseFloat(c.QueryParam("value"), 64)
	if err != nil || value <= 0 || value > model.MaxItemValue {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "value must be in (0, 100000]"})
	}
	category := c.QueryParam("category")
	if !model.ValidCategory(category) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid category"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"suggested_tokens_per_day": model.SuggestTokensPerDay(value, category),
	})
}
