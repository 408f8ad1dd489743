package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jetstreamair/jetshare/internal/domain"
)

type TicketRepository interface {
	ListByOffer(ctx context.Context, offerID string) ([]domain.Ticket, error)
	CreateBatch(ctx context.Context, tickets []domain.Ticket) error
}

type PGTicketRepository struct {
	db *pgxpool.Pool
}

func NewTicketRepository(db *pgxpool.Pool) TicketRepository {
	return &PGTicketRepository{db: db}
}

func (r *PGTicketRepository) ListByOffer(ctx context.Context, offerID string) ([]domain.Ticket, error) {
	rows, err := r.db.Query(ctx, `SELECT id, offer_id, holder_id, seat_number, boarding_time, gate, status, ticket_code, created_at FROM tickets WHERE offer_id=$1 ORDER BY seat_number`, offerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tickets := make([]domain.Ticket, 0)
	for rows.Next() {
		var t domain.Ticket
		if err := rows.Scan(&t.ID, &t.OfferID, &t.HolderID, &t.SeatNumber, &t.BoardingTime, &t.Gate, &t.Status, &t.TicketCode, &t.CreatedAt); err != nil {
			return nil, err
		}
		tickets = append(tickets, t)
	}
	return tickets, rows.Err()
}

// CreateBatch inserts tickets with ON CONFLICT DO NOTHING on the
// (offer_id, holder_id) unique key, so replayed issuance never duplicates.
func (r *PGTicketRepository) CreateBatch(ctx context.Context, tickets []domain.Ticket) error {
	for _, t := range tickets {
		_, err := r.db.Exec(ctx, `INSERT INTO tickets (id, offer_id, holder_id, seat_number, boarding_time, gate, status, ticket_code)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (offer_id, holder_id) DO NOTHING`,
			t.ID, t.OfferID, t.HolderID, t.SeatNumber, t.BoardingTime, t.Gate, t.Status, t.TicketCode)
		if err != nil {
			return err
		}
	}
	return nil
}

var _ TicketRepository = (*PGTicketRepository)(nil)
