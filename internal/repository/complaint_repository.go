package repository

import (
	"context"
	"database/sql"

	"github.com/adimehta/sharesphere/internal/model"
)

// ComplaintRepo wraps access to the complaints table.
type ComplaintRepo struct {
	DB *sql.DB
}

// NewComplaintRepo creates a new complaint repository.
func NewComplaintRepo(db *sql.DB) *ComplaintRepo {
	return &ComplaintRepo{DB: db}
}

// CreateComplaint inserts one complaint, valid from the start.
func (r *ComplaintRepo) CreateComplaint(ctx context.Context, c *model.Complaint) error {
	const q = `INSERT INTO complaints
		(transaction_id, complainant_id, defendant_id, title, description, severity, proof_images, is_valid)
		VALUES (?, ?, ?, ?, ?, ?, ?, TRUE)`
	res, err := r.DB.ExecContext(ctx, q,
		c.TransactionID, c.ComplainantID, c.DefendantID,
		c.Title, c.Description, c.Severity, encodeStrings(c.ProofImages))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = uint64(id)
	c.IsValid = true
	return nil
}

// ListByDefendant returns complaints filed against a user, newest first.
func (r *ComplaintRepo) ListByDefendant(ctx context.Context, defendantID uint64) ([]*model.Complaint, error) {
	const q = `SELECT id, transaction_id, complainant_id, defendant_id, title, description,
		severity, proof_images, is_valid, is_resolved, created_at, resolved_at
		FROM complaints WHERE defendant_id = ? ORDER BY created_at DESC`
	return r.list(ctx, q, defendantID)
}

// ListByComplainant returns complaints a user has filed, newest first.
func (r *ComplaintRepo) ListByComplainant(ctx context.Context, complainantID uint64) ([]*model.Complaint, error) {
	const q = `SELECT id, transaction_id, complainant_id, defendant_id, title, description,
		severity, proof_images, is_valid, is_resolved, created_at, resolved_at
		FROM complaints WHERE complainant_id = ? ORDER BY created_at DESC`
	return r.list(ctx, q, complainantID)
}

func (r *ComplaintRepo) list(ctx context.Context, q string, arg any) ([]*model.Complaint, error) {
	rows, err := r.DB.QueryContext(ctx, q, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	complaints := []*model.Complaint{}
	for rows.Next() {
		var c model.Complaint
		var proofs string
		if err := rows.Scan(&c.ID, &c.TransactionID, &c.ComplainantID, &c.DefendantID,
			&c.Title, &c.Description, &c.Severity, &proofs,
			&c.IsValid, &c.IsResolved, &c.CreatedAt, &c.ResolvedAt); err != nil {
			return nil, err
		}
		c.ProofImages = decodeStrings(proofs)
		complaints = append(complaints, &c)
	}
	return complaints, rows.Err()
}
