package model

import "time"

// User is a registered member of the lending community. Besides identity
// fields it carries the mutable economic and reputation state that the
// ledger and reputation services maintain: the token balance, the sum of
// penalties the user could not yet cover, the derived star rating and
// success rate, and the complaint-driven ban flag.
//
// Tokens may only change through ledger operations; the balance is never
// persisted negative. PendingPenalties always equals the sum of the user's
// unpaid pending_penalties rows.
type User struct {
	ID               uint64    // users.id
	Email            string    // users.email (unique)
	Username         string    // users.username (unique)
	PasswordHash     string    // users.password_hash (bcrypt)
	FullName         string    // users.full_name
	Location         string    // users.location
	Phone            string    // users.phone
	IsActive         bool      // users.is_active (false after account deletion)
	Tokens           int       // users.tokens (current balance)
	PendingPenalties int       // users.pending_penalties (unpaid penalty sum)
	StarRating       float64   // users.star_rating (0-5, mean of reviews, halved per complaint)
	TotalReviews     int       // users.total_reviews
	ComplaintCount   int       // users.complaint_count
	IsBanned         bool      // users.is_banned (complaint_count >= BanThreshold)
	SuccessRate      float64   // users.success_rate (completed / terminal * 100)
	CompletedTxCount int       // users.completed_transactions
	FailedTxCount    int       // users.failed_transactions
	CreatedAt        time.Time // users.created_at
}

// StartingTokens is the balance granted at registration.
const StartingTokens = 100

// BanThreshold is the number of complaints at which an account is banned.
const BanThreshold = 20

// Profile is the public view of a user, safe to embed in item listings,
// transaction details and review lists.
type Profile struct {
	ID               uint64  `json:"id"`
	Username         string  `json:"username"`
	FullName         string  `json:"full_name"`
	Location         string  `json:"location"`
	Phone            string  `json:"phone"`
	Tokens           int     `json:"tokens"`
	PendingPenalties int     `json:"pending_penalties"`
	StarRating       float64 `json:"star_rating"`
	TotalReviews     int     `json:"total_reviews"`
	ComplaintCount   int     `json:"complaint_count"`
	SuccessRate      float64 `json:"success_rate"`
	IsActive         bool    `json:"is_active"`
	IsBanned         bool    `json:"is_banned"`
}

// PublicProfile converts a full user record into its public view.
func (u *User) PublicProfile() Profile {
	return Profile{
		ID:               u.ID,
		Username:         u.Username,
		FullName:         u.FullName,
		Location:         u.Location,
		Phone:            u.Phone,
		Tokens:           u.Tokens,
		PendingPenalties: u.PendingPenalties,
		StarRating:       u.StarRating,
		TotalReviews:     u.TotalReviews,
		ComplaintCount:   u.ComplaintCount,
		SuccessRate:      u.SuccessRate,
		IsActive:         u.IsActive,
		IsBanned:         u.IsBanned,
	}
}
