// Package router wires handlers onto the Echo instance. Routes split into
// three tiers: unauthenticated (/healthz, /v1/auth/*, browse), routes that
// need only a valid token (logout), and routes that additionally need an
// active non-banned account.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/adimehta/sharesphere/internal/handler"
	"github.com/adimehta/sharesphere/internal/middleware"
	"github.com/adimehta/sharesphere/internal/model"
	"github.com/adimehta/sharesphere/internal/repository"
)

// Handlers collects every handler the router needs.
type Handlers struct {
	Ready         echo.HandlerFunc
	Auth          *handler.AuthHandler
	Items         *handler.ItemHandler
	Transactions  *handler.TransactionHandler
	Feedback      *handler.FeedbackHandler
	Wallet        *handler.WalletHandler
	Notifications *handler.NotificationHandler
	Dashboard     *handler.DashboardHandler
}

// Register mounts all routes. users backs the active-account guard;
// uploadDir is served statically for proof and listing images.
func Register(e *echo.Echo, h Handlers, users *repository.UserRepo, jwtSecret, uploadDir string) {
	e.GET("/healthz", handler.Health)
	e.GET("/v1/health", h.Ready)
	e.Static("/uploads", uploadDir)

	// Unauthenticated auth operations.
	g := e.Group("/v1/auth")
	g.POST("/register", h.Auth.Register)
	g.POST("/login", h.Auth.Login)
	g.POST("/refresh", h.Auth.Refresh)
	g.POST("/logout", h.Auth.Logout)

	// Public browsing of listings.
	e.GET("/v1/items", h.Items.List)
	e.GET("/v1/items/suggest-tokens", h.Items.SuggestTokens)
	e.GET("/v1/items/:id", h.Items.Get)
	e.GET("/v1/users/:id", h.Auth.GetProfile)
	e.GET("/v1/users/:id/reviews", h.Feedback.ListReviews)
	e.GET("/v1/users/:id/complaints", h.Feedback.UserComplaints)

	// Everything below needs a valid token and an active, unbanned account.
	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.Use(middleware.RequireActiveAccount(func(c echo.Context, id uint64) (*model.User, error) {
		return users.GetUser(c.Request().Context(), id)
	}))

	auth.GET("/me", h.Auth.Me)
	auth.PATCH("/me", h.Auth.UpdateProfile)
	auth.DELETE("/me", h.Auth.DeleteAccount)
	auth.GET("/me/dashboard", h.Dashboard.Overview)

	auth.POST("/items", h.Items.Create)
	auth.GET("/items/mine", h.Items.Mine)
	auth.PATCH("/items/:id", h.Items.Update)
	auth.DELETE("/items/:id", h.Items.Delete)

	auth.POST("/transactions", h.Transactions.Create)
	auth.GET("/transactions", h.Transactions.List)
	auth.GET("/transactions/:id", h.Transactions.Get)
	auth.POST("/transactions/:id/approve", h.Transactions.Approve)
	auth.POST("/transactions/:id/reject", h.Transactions.Reject)
	auth.POST("/transactions/:id/confirm-delivery", h.Transactions.ConfirmDelivery)
	auth.POST("/transactions/:id/confirm-return", h.Transactions.ConfirmReturn)
	auth.POST("/transactions/:id/damage", h.Feedback.ReportDamage)
	auth.GET("/transactions/:id/damage", h.Feedback.GetDamageReport)
	auth.POST("/transactions/:id/reviews", h.Feedback.SubmitReview)
	auth.POST("/transactions/:id/complaints", h.Feedback.FileComplaint)
	auth.GET("/complaints", h.Feedback.MyComplaints)

	auth.GET("/tokens/balance", h.Wallet.Balance)
	auth.GET("/tokens/history", h.Wallet.History)
	auth.GET("/tokens/penalties", h.Wallet.PendingPenalties)
	auth.POST("/tokens/penalties/:id/pay", h.Wallet.PayPenalty)

	auth.GET("/notifications", h.Notifications.List)
	auth.POST("/notifications/read-all", h.Notifications.MarkAllRead)
	auth.POST("/notifications/:id/read", h.Notifications.MarkRead)
	auth.DELETE("/notifications/:id", h.Notifications.Delete)
}
