package repository

import (
	"context"
	"database/sql"

	"github.com/adimehta/sharesphere/internal/model"
)

// DamageRepo wraps access to the damage_reports table.
type DamageRepo struct {
	DB *sql.DB
}

// NewDamageRepo creates a new damage-report repository.
func NewDamageRepo(db *sql.DB) *DamageRepo {
	return &DamageRepo{DB: db}
}

// CreateDamageReport inserts one damage report.
func (r *DamageRepo) CreateDamageReport(ctx context.Context, d *model.DamageReport) error {
	const q = `INSERT INTO damage_reports
		(transaction_id, reporter_id, severity, description, proof_images, penalty_tokens)
		VALUES (?, ?, ?, ?, ?, ?)`
	res, err := r.DB.ExecContext(ctx, q,
		d.TransactionID, d.ReporterID, d.Severity, d.Description,
		encodeStrings(d.ProofImages), d.PenaltyTokens)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	d.ID = uint64(id)
	return nil
}

// GetByTransaction fetches the report filed for a transaction, if any.
func (r *DamageRepo) GetByTransaction(ctx context.Context, txID uint64) (*model.DamageReport, error) {
	const q = `SELECT id, transaction_id, reporter_id, severity, description,
		proof_images, penalty_tokens, created_at
		FROM damage_reports WHERE transaction_id = ?`
	var d model.DamageReport
	var proofs string
	err := r.DB.QueryRowContext(ctx, q, txID).Scan(
		&d.ID, &d.TransactionID, &d.ReporterID, &d.Severity,
		&d.Description, &proofs, &d.PenaltyTokens, &d.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	d.ProofImages = decodeStrings(proofs)
	return &d, nil
}
