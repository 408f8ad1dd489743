package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jetstreamair/jetshare/internal/domain"
)

// ErrNoMatchingRow is returned when a conditional update matched zero rows.
// Callers re-read the row to tell a lost race from a missing record.
var ErrNoMatchingRow = errors.New("no matching row")

type OfferFilter struct {
	Status domain.OfferStatus
	UserID string
}

type OfferRepository interface {
	Create(ctx context.Context, offer *domain.Offer) error
	GetByID(ctx context.Context, id string) (*domain.Offer, error)
	List(ctx context.Context, filter OfferFilter) ([]domain.Offer, error)
	Accept(ctx context.Context, offerID, matchedUserID string) (*domain.Offer, error)
	UpdateDetails(ctx context.Context, offerID string, details domain.FlightDetails) (*domain.Offer, error)
	UpdateStatus(ctx context.Context, offerID string, from, to domain.OfferStatus) (*domain.Offer, error)
	Delete(ctx context.Context, offerID string) error
}

type PGOfferRepository struct {
	db *pgxpool.Pool
}

func NewOfferRepository(db *pgxpool.Pool) OfferRepository {
	return &PGOfferRepository{db: db}
}

const offerColumns = `id, creator_id, flight_date, departure_location, arrival_location, aircraft_model, total_cost_cents, share_amount_cents, status, matched_user_id, created_at, updated_at`

func scanOffer(row pgx.Row) (*domain.Offer, error) {
	var o domain.Offer
	var matched *string
	if err := row.Scan(&o.ID, &o.CreatorID, &o.FlightDate, &o.DepartureLocation, &o.ArrivalLocation, &o.AircraftModel, &o.TotalCostCents, &o.ShareAmountCents, &o.Status, &matched, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, err
	}
	if matched != nil {
		o.MatchedUserID = *matched
	}
	return &o, nil
}

func (r *PGOfferRepository) Create(ctx context.Context, offer *domain.Offer) error {
	return r.db.QueryRow(ctx, `INSERT INTO offers (id, creator_id, flight_date, departure_location, arrival_location, aircraft_model, total_cost_cents, share_amount_cents, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at`,
		offer.ID, offer.CreatorID, offer.FlightDate, offer.DepartureLocation, offer.ArrivalLocation, offer.AircraftModel, offer.TotalCostCents, offer.ShareAmountCents, offer.Status).
		Scan(&offer.CreatedAt, &offer.UpdatedAt)
}

func (r *PGOfferRepository) GetByID(ctx context.Context, id string) (*domain.Offer, error) {
	offer, err := scanOffer(r.db.QueryRow(ctx, `SELECT `+offerColumns+` FROM offers WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.E(domain.KindNotFound, "offer not found")
	}
	return offer, err
}

func (r *PGOfferRepository) List(ctx context.Context, filter OfferFilter) ([]domain.Offer, error) {
	query := `SELECT ` + offerColumns + ` FROM offers WHERE 1=1`
	args := []interface{}{}
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += ` AND status=$1`
	}
	if filter.UserID != "" {
		args = append(args, filter.UserID)
		if len(args) == 1 {
			query += ` AND (creator_id=$1 OR matched_user_id=$1)`
		} else {
			query += ` AND (creator_id=$2 OR matched_user_id=$2)`
		}
	}
	query += ` ORDER BY flight_date`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	offers := make([]domain.Offer, 0)
	for rows.Next() {
		o, err := scanOffer(rows)
		if err != nil {
			return nil, err
		}
		offers = append(offers, *o)
	}
	return offers, rows.Err()
}

// Accept is the only concurrency guard in the lifecycle: the WHERE clause
// keys on the expected prior status, so of N racing accepts exactly one
// matches a row and the rest get ErrNoMatchingRow.
func (r *PGOfferRepository) Accept(ctx context.Context, offerID, matchedUserID string) (*domain.Offer, error) {
	offer, err := scanOffer(r.db.QueryRow(ctx, `UPDATE offers SET status=$1, matched_user_id=$2, updated_at=now() WHERE id=$3 AND status=$4 RETURNING `+offerColumns,
		domain.OfferStatusAccepted, matchedUserID, offerID, domain.OfferStatusOpen))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoMatchingRow
	}
	return offer, err
}

func (r *PGOfferRepository) UpdateDetails(ctx context.Context, offerID string, details domain.FlightDetails) (*domain.Offer, error) {
	offer, err := scanOffer(r.db.QueryRow(ctx, `UPDATE offers SET flight_date=$1, departure_location=$2, arrival_location=$3, aircraft_model=$4, total_cost_cents=$5, share_amount_cents=$6, updated_at=now() WHERE id=$7 AND status=$8 RETURNING `+offerColumns,
		details.FlightDate, details.DepartureLocation, details.ArrivalLocation, details.AircraftModel, details.TotalCostCents, details.ShareAmountCents, offerID, domain.OfferStatusOpen))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoMatchingRow
	}
	return offer, err
}

func (r *PGOfferRepository) UpdateStatus(ctx context.Context, offerID string, from, to domain.OfferStatus) (*domain.Offer, error) {
	offer, err := scanOffer(r.db.QueryRow(ctx, `UPDATE offers SET status=$1, updated_at=now() WHERE id=$2 AND status=$3 RETURNING `+offerColumns,
		to, offerID, from))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoMatchingRow
	}
	return offer, err
}

func (r *PGOfferRepository) Delete(ctx context.Context, offerID string) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM offers WHERE id=$1 AND status=$2`, offerID, domain.OfferStatusOpen)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNoMatchingRow
	}
	return nil
}

var _ OfferRepository = (*PGOfferRepository)(nil)
