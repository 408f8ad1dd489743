package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jetstreamair/jetshare/internal/domain"
)

type TransactionRepository interface {
	Create(ctx context.Context, tx *domain.Transaction) error
	GetByProviderRef(ctx context.Context, providerRef string) (*domain.Transaction, error)
	UpdateStatusByProviderRef(ctx context.Context, providerRef string, from, to domain.PaymentStatus) (*domain.Transaction, error)
	FailPendingBefore(ctx context.Context, deadline time.Time) ([]domain.Transaction, error)
}

type PGTransactionRepository struct {
	db *pgxpool.Pool
}

func NewTransactionRepository(db *pgxpool.Pool) TransactionRepository {
	return &PGTransactionRepository{db: db}
}

const transactionColumns = `id, offer_id, payer_id, recipient_id, amount_cents, handling_fee_cents, payment_method, payment_status, provider_ref, created_at, updated_at`

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var t domain.Transaction
	if err := row.Scan(&t.ID, &t.OfferID, &t.PayerID, &t.RecipientID, &t.AmountCents, &t.HandlingFeeCents, &t.PaymentMethod, &t.PaymentStatus, &t.ProviderRef, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *PGTransactionRepository) Create(ctx context.Context, tx *domain.Transaction) error {
	return r.db.QueryRow(ctx, `INSERT INTO transactions (id, offer_id, payer_id, recipient_id, amount_cents, handling_fee_cents, payment_method, payment_status, provider_ref)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at`,
		tx.ID, tx.OfferID, tx.PayerID, tx.RecipientID, tx.AmountCents, tx.HandlingFeeCents, tx.PaymentMethod, tx.PaymentStatus, tx.ProviderRef).
		Scan(&tx.CreatedAt, &tx.UpdatedAt)
}

func (r *PGTransactionRepository) GetByProviderRef(ctx context.Context, providerRef string) (*domain.Transaction, error) {
	tx, err := scanTransaction(r.db.QueryRow(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE provider_ref=$1`, providerRef))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.E(domain.KindNotFound, "transaction not found")
	}
	return tx, err
}

func (r *PGTransactionRepository) UpdateStatusByProviderRef(ctx context.Context, providerRef string, from, to domain.PaymentStatus) (*domain.Transaction, error) {
	tx, err := scanTransaction(r.db.QueryRow(ctx, `UPDATE transactions SET payment_status=$1, updated_at=now() WHERE provider_ref=$2 AND payment_status=$3 RETURNING `+transactionColumns,
		to, providerRef, from))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoMatchingRow
	}
	return tx, err
}

// FailPendingBefore marks transactions stuck in pending past the deadline as
// failed, for the worker's recovery sweep.
func (r *PGTransactionRepository) FailPendingBefore(ctx context.Context, deadline time.Time) ([]domain.Transaction, error) {
	rows, err := r.db.Query(ctx, `UPDATE transactions SET payment_status=$1, updated_at=now() WHERE payment_status=$2 AND created_at <= $3 RETURNING `+transactionColumns,
		domain.PaymentStatusFailed, domain.PaymentStatusPending, deadline)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var failed []domain.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		failed = append(failed, *t)
	}
	return failed, rows.Err()
}

var _ TransactionRepository = (*PGTransactionRepository)(nil)
