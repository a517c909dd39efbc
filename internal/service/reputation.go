package service

import "context"

// Reputation recomputes the derived reputation state on users: star
// rating, complaint count and ban flag, and transaction success rate. It
// runs synchronously whenever a review or complaint is recorded.
type Reputation struct {
	users   UserStore
	reviews ReviewStore
	txs     TransactionStore
}

func NewReputation(users UserStore, reviews ReviewStore, txs TransactionStore) *Reputation {
	return &Reputation{users: users, reviews: reviews, txs: txs}
}

// OnReview recomputes the reviewee's star rating as the arithmetic mean of
// every rating they have ever received. There is no rolling window.
func (r *Reputation) OnReview(ctx context.Context, revieweeID uint64) error {
	sum, count, err := r.reviews.RatingStats(ctx, revieweeID)
	if err != nil {
		return err
	}
	if count == 0 {
		return nil
	}
	return r.users.SetRating(ctx, revieweeID, float64(sum)/float64(count), count)
}

// OnComplaint halves the defendant's current star rating (repeated
// complaints compound), increments their complaint count and bans the
// account once the count reaches the threshold. The whole adjustment is
// one conditional update in the store, so concurrent complaints cannot
// lose a count. It reports whether the account is banned afterwards.
func (r *Reputation) OnComplaint(ctx context.Context, defendantID uint64) (banned bool, err error) {
	return r.users.ApplyComplaint(ctx, defendantID)
}

// OnCompletion recomputes a user's success rate from their full terminal
// transaction history: completed / (completed + cancelled) * 100, or 100
// when no transaction has reached a terminal state yet.
func (r *Reputation) OnCompletion(ctx context.Context, userID uint64) error {
	completed, cancelled, err := r.txs.CompletionCounts(ctx, userID)
	if err != nil {
		return err
	}
	rate := 100.0
	if total := completed + cancelled; total > 0 {
		rate = float64(completed) / float64(total) * 100
	}
	return r.users.SetSuccessRate(ctx, userID, rate, completed, cancelled)
}
