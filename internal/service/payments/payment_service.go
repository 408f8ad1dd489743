package payments

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jetstreamair/jetshare/internal/domain"
	"github.com/jetstreamair/jetshare/internal/kafka"
	"github.com/jetstreamair/jetshare/internal/payment"
	"github.com/jetstreamair/jetshare/internal/repository"
	"github.com/jetstreamair/jetshare/internal/saga"
	"go.uber.org/zap"
)

type PaymentUseCase interface {
	InitiatePayment(ctx context.Context, input InitiatePaymentInput) (*PaymentHandle, error)
	ConfirmPayment(ctx context.Context, providerRef string, succeeded bool) error
	FailStalePayments(ctx context.Context) ([]domain.Transaction, error)
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type PaymentService struct {
	offers             repository.OfferRepository
	transactions       repository.TransactionRepository
	tickets            repository.TicketRepository
	gateways           map[domain.PaymentMethod]payment.Gateway
	producer           Producer
	eventsTopic        string
	notificationsTopic string
	feePercent         float64
	pendingTTL         time.Duration
	logger             *zap.SugaredLogger
}

type InitiatePaymentInput struct {
	OfferID     string
	PayerID     string
	Method      domain.PaymentMethod
	AmountCents int64
}

// PaymentHandle is what the client needs to complete payment out-of-band.
type PaymentHandle struct {
	TransactionID    string               `json:"transaction_id"`
	OfferID          string               `json:"offer_id"`
	Method           domain.PaymentMethod `json:"method"`
	ProviderRef      string               `json:"provider_ref"`
	ClientHandle     string               `json:"client_handle"`
	AmountCents      int64                `json:"amount_cents"`
	HandlingFeeCents int64                `json:"handling_fee_cents"`
}

type PaymentServiceOption func(*PaymentService)

func WithNotificationsTopic(topic string) PaymentServiceOption {
	return func(s *PaymentService) {
		s.notificationsTopic = topic
	}
}

func WithPendingTTL(ttl time.Duration) PaymentServiceOption {
	return func(s *PaymentService) {
		s.pendingTTL = ttl
	}
}

func NewPaymentService(
	offers repository.OfferRepository,
	transactions repository.TransactionRepository,
	tickets repository.TicketRepository,
	gateways map[domain.PaymentMethod]payment.Gateway,
	producer Producer,
	eventsTopic string,
	feePercent float64,
	logger *zap.SugaredLogger,
	opts ...PaymentServiceOption,
) *PaymentService {
	service := &PaymentService{
		offers:       offers,
		transactions: transactions,
		tickets:      tickets,
		gateways:     gateways,
		producer:     producer,
		eventsTopic:  eventsTopic,
		feePercent:   feePercent,
		pendingTTL:   30 * time.Minute,
		logger:       logger,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// HandlingFeeCents computes the configured-percentage fee on amount,
// rounded to the nearest cent.
func HandlingFeeCents(amountCents int64, feePercent float64) int64 {
	return int64(math.Round(float64(amountCents) * feePercent / 100))
}

func (s *PaymentService) InitiatePayment(ctx context.Context, input InitiatePaymentInput) (*PaymentHandle, error) {
	if input.AmountCents <= 0 {
		return nil, domain.E(domain.KindValidation, "amount must be positive")
	}
	gateway, ok := s.gateways[input.Method]
	if !ok {
		return nil, domain.E(domain.KindValidation, "unsupported payment method")
	}

	offer, err := s.offers.GetByID(ctx, input.OfferID)
	if err != nil {
		return nil, err
	}
	if offer.Status != domain.OfferStatusAccepted {
		return nil, domain.E(domain.KindState, "offer is not awaiting payment")
	}
	if offer.MatchedUserID != input.PayerID {
		return nil, domain.E(domain.KindForbidden, "only the matched user may pay for this offer")
	}

	tx := &domain.Transaction{
		ID:               uuid.NewString(),
		OfferID:          offer.ID,
		PayerID:          input.PayerID,
		RecipientID:      offer.CreatorID,
		AmountCents:      input.AmountCents,
		HandlingFeeCents: HandlingFeeCents(input.AmountCents, s.feePercent),
		PaymentMethod:    input.Method,
		PaymentStatus:    domain.PaymentStatusPending,
	}

	// The provider call runs first: if it fails nothing is persisted, so the
	// caller can retry without leaving orphaned pending rows. If the row
	// insert then fails, the provider charge is voided in compensation.
	var charge *payment.Charge
	err = saga.Run(ctx, s.logger, []saga.Step{
		{
			Name: "create_provider_charge",
			Run: func(ctx context.Context) error {
				c, err := gateway.CreateCharge(ctx, payment.ChargeRequest{
					OfferID:     offer.ID,
					PayerID:     input.PayerID,
					AmountCents: input.AmountCents,
				})
				if err != nil {
					return err
				}
				charge = c
				return nil
			},
			Compensate: func(ctx context.Context) error {
				return gateway.CancelCharge(ctx, charge.ProviderRef)
			},
		},
		{
			Name: "log_transaction",
			Run: func(ctx context.Context) error {
				tx.ProviderRef = charge.ProviderRef
				if err := s.transactions.Create(ctx, tx); err != nil {
					return domain.Ew(domain.KindDependency, "failed to log transaction", err)
				}
				return nil
			},
		},
	})
	if err != nil {
		var de *domain.Error
		if errors.As(err, &de) {
			return nil, de
		}
		return nil, err
	}

	s.publishForOffer(ctx, "payment_initiated", offer, input.AmountCents)

	return &PaymentHandle{
		TransactionID:    tx.ID,
		OfferID:          offer.ID,
		Method:           input.Method,
		ProviderRef:      tx.ProviderRef,
		ClientHandle:     charge.ClientHandle,
		AmountCents:      tx.AmountCents,
		HandlingFeeCents: tx.HandlingFeeCents,
	}, nil
}

// ConfirmPayment applies a provider outcome to the transaction and, on
// success, drives the offer to completed and issues tickets. Webhooks are
// delivered at-least-once, so every write here tolerates replays.
func (s *PaymentService) ConfirmPayment(ctx context.Context, providerRef string, succeeded bool) error {
	tx, err := s.transactions.GetByProviderRef(ctx, providerRef)
	if err != nil {
		if domain.IsKind(err, domain.KindNotFound) {
			// Benign: test events and references from other environments.
			// Erroring here would make the provider retry forever.
			s.logger.Warnw("webhook for unknown provider reference", "provider_ref", providerRef)
			return nil
		}
		return err
	}

	if !succeeded {
		return s.confirmFailure(ctx, tx)
	}
	return s.confirmSuccess(ctx, tx)
}

func (s *PaymentService) confirmFailure(ctx context.Context, tx *domain.Transaction) error {
	_, err := s.transactions.UpdateStatusByProviderRef(ctx, tx.ProviderRef, domain.PaymentStatusPending, domain.PaymentStatusFailed)
	if errors.Is(err, repository.ErrNoMatchingRow) {
		// Replay of an already-applied outcome.
		return nil
	}
	if err != nil {
		return err
	}

	// Offer stays accepted so the same payer may retry.
	offer, err := s.offers.GetByID(ctx, tx.OfferID)
	if err == nil {
		s.publishForOffer(ctx, "payment_failed", offer, tx.AmountCents)
	}
	return nil
}

func (s *PaymentService) confirmSuccess(ctx context.Context, tx *domain.Transaction) error {
	if tx.PaymentStatus == domain.PaymentStatusCompleted {
		// Replay: the transaction is settled, just make sure tickets exist.
		_, err := s.issueTickets(ctx, tx.OfferID)
		return err
	}

	err := saga.Run(ctx, s.logger, []saga.Step{
		{
			Name: "complete_transaction",
			Run: func(ctx context.Context) error {
				_, err := s.transactions.UpdateStatusByProviderRef(ctx, tx.ProviderRef, domain.PaymentStatusPending, domain.PaymentStatusCompleted)
				if errors.Is(err, repository.ErrNoMatchingRow) {
					// Lost a race with a concurrent replay of the same event.
					return nil
				}
				return err
			},
			Compensate: func(ctx context.Context) error {
				_, err := s.transactions.UpdateStatusByProviderRef(ctx, tx.ProviderRef, domain.PaymentStatusCompleted, domain.PaymentStatusPending)
				return err
			},
		},
		{
			Name: "complete_offer",
			Run: func(ctx context.Context) error {
				_, err := s.offers.UpdateStatus(ctx, tx.OfferID, domain.OfferStatusAccepted, domain.OfferStatusCompleted)
				if errors.Is(err, repository.ErrNoMatchingRow) {
					current, gerr := s.offers.GetByID(ctx, tx.OfferID)
					if gerr != nil {
						return gerr
					}
					if current.Status == domain.OfferStatusCompleted {
						return nil
					}
					return domain.E(domain.KindState, "offer is not in a payable state")
				}
				return err
			},
			Compensate: func(ctx context.Context) error {
				_, err := s.offers.UpdateStatus(ctx, tx.OfferID, domain.OfferStatusCompleted, domain.OfferStatusAccepted)
				return err
			},
		},
		{
			Name: "issue_tickets",
			Run: func(ctx context.Context) error {
				_, err := s.issueTickets(ctx, tx.OfferID)
				return err
			},
		},
	})
	if err != nil {
		return err
	}

	offer, err := s.offers.GetByID(ctx, tx.OfferID)
	if err == nil {
		s.publishForOffer(ctx, "offer_completed", offer, tx.AmountCents)
	}
	return nil
}

// issueTickets creates one ticket per participant. Re-invocation for an offer
// that already has tickets returns the existing set.
func (s *PaymentService) issueTickets(ctx context.Context, offerID string) ([]domain.Ticket, error) {
	existing, err := s.tickets.ListByOffer(ctx, offerID)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return existing, nil
	}

	offer, err := s.offers.GetByID(ctx, offerID)
	if err != nil {
		return nil, err
	}

	boarding := offer.FlightDate.Add(-45 * time.Minute)
	tickets := []domain.Ticket{
		newTicket(offer.ID, offer.CreatorID, "1A", boarding),
		newTicket(offer.ID, offer.MatchedUserID, "2A", boarding),
	}
	if err := s.tickets.CreateBatch(ctx, tickets); err != nil {
		return nil, domain.Ew(domain.KindDependency, "failed to issue tickets", err)
	}

	return s.tickets.ListByOffer(ctx, offerID)
}

func newTicket(offerID, holderID, seat string, boarding time.Time) domain.Ticket {
	code := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return domain.Ticket{
		ID:           uuid.NewString(),
		OfferID:      offerID,
		HolderID:     holderID,
		SeatNumber:   seat,
		BoardingTime: boarding,
		Gate:         "TBD",
		Status:       domain.TicketStatusActive,
		TicketCode:   "JS-" + code,
	}
}

// FailStalePayments is the worker's recovery sweep: transactions stuck in
// pending past the configured TTL are marked failed and their offers stay
// accepted so the payer can retry.
func (s *PaymentService) FailStalePayments(ctx context.Context) ([]domain.Transaction, error) {
	deadline := time.Now().Add(-s.pendingTTL)
	failed, err := s.transactions.FailPendingBefore(ctx, deadline)
	if err != nil {
		return nil, err
	}
	for _, tx := range failed {
		offer, err := s.offers.GetByID(ctx, tx.OfferID)
		if err != nil {
			s.logger.Warnw("swept transaction references missing offer", "offer_id", tx.OfferID, "error", err)
			continue
		}
		s.publishForOffer(ctx, "payment_failed", offer, tx.AmountCents)
	}
	return failed, nil
}

func (s *PaymentService) publishForOffer(ctx context.Context, eventType string, offer *domain.Offer, amountCents int64) {
	if s.producer == nil || s.eventsTopic == "" {
		return
	}
	event := kafka.OfferEvent{
		Type:          eventType,
		OfferID:       offer.ID,
		CreatorID:     offer.CreatorID,
		MatchedUserID: offer.MatchedUserID,
		Status:        string(offer.Status),
		AmountCents:   amountCents,
		OccurredAt:    time.Now(),
	}
	if err := s.producer.Publish(ctx, s.eventsTopic, offer.ID, event); err != nil {
		s.logger.Warnw("failed to publish payment event", "type", eventType, "offer_id", offer.ID, "error", err)
	}
	if s.notificationsTopic != "" {
		if err := s.producer.Publish(ctx, s.notificationsTopic, offer.ID, event); err != nil {
			s.logger.Warnw("failed to publish notification event", "type", eventType, "offer_id", offer.ID, "error", err)
		}
	}
}

var _ PaymentUseCase = (*PaymentService)(nil)
