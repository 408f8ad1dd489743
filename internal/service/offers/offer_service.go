package offers

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jetstreamair/jetshare/internal/domain"
	"github.com/jetstreamair/jetshare/internal/kafka"
	"github.com/jetstreamair/jetshare/internal/repository"
	"go.uber.org/zap"
)

type OfferUseCase interface {
	CreateOffer(ctx context.Context, input CreateOfferInput) (*domain.Offer, error)
	GetOffer(ctx context.Context, id string) (*domain.Offer, error)
	ListOffers(ctx context.Context, filter repository.OfferFilter) ([]domain.Offer, error)
	AcceptOffer(ctx context.Context, offerID, matchedUserID string) (*domain.Offer, error)
	UpdateOffer(ctx context.Context, offerID, requesterID string, details domain.FlightDetails) (*domain.Offer, error)
	DeleteOffer(ctx context.Context, offerID, requesterID string) error
}

type Cache interface {
	GetOpenOffers(ctx context.Context) ([]domain.Offer, error)
	SetOpenOffers(ctx context.Context, offers []domain.Offer) error
	InvalidateOpenOffers(ctx context.Context) error
	AcquireAcceptLock(ctx context.Context, offerID string, ttl time.Duration) (bool, error)
	ReleaseAcceptLock(ctx context.Context, offerID string) error
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type OfferService struct {
	offers             repository.OfferRepository
	profiles           repository.ProfileRepository
	cache              Cache
	producer           Producer
	eventsTopic        string
	notificationsTopic string
	acceptLockTTL      time.Duration
	logger             *zap.SugaredLogger
}

type CreateOfferInput struct {
	CreatorID         string    `json:"creator_id"`
	FlightDate        time.Time `json:"flight_date"`
	DepartureLocation string    `json:"departure_location"`
	ArrivalLocation   string    `json:"arrival_location"`
	AircraftModel     string    `json:"aircraft_model"`
	TotalCostCents    int64     `json:"total_cost_cents"`
	ShareAmountCents  int64     `json:"share_amount_cents"`
}

type OfferServiceOption func(*OfferService)

func WithNotificationsTopic(topic string) OfferServiceOption {
	return func(s *OfferService) {
		s.notificationsTopic = topic
	}
}

func WithAcceptLockTTL(ttl time.Duration) OfferServiceOption {
	return func(s *OfferService) {
		s.acceptLockTTL = ttl
	}
}

func NewOfferService(
	offers repository.OfferRepository,
	profiles repository.ProfileRepository,
	cache Cache,
	producer Producer,
	eventsTopic string,
	logger *zap.SugaredLogger,
	opts ...OfferServiceOption,
) *OfferService {
	service := &OfferService{
		offers:        offers,
		profiles:      profiles,
		cache:         cache,
		producer:      producer,
		eventsTopic:   eventsTopic,
		acceptLockTTL: 10 * time.Second,
		logger:        logger,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

func validateDetails(details domain.FlightDetails) error {
	if details.DepartureLocation == "" {
		return domain.E(domain.KindValidation, "departure location is required")
	}
	if details.ArrivalLocation == "" {
		return domain.E(domain.KindValidation, "arrival location is required")
	}
	if details.AircraftModel == "" {
		return domain.E(domain.KindValidation, "aircraft model is required")
	}
	if details.FlightDate.IsZero() {
		return domain.E(domain.KindValidation, "flight date is required")
	}
	if details.TotalCostCents <= 0 {
		return domain.E(domain.KindValidation, "total cost must be positive")
	}
	if details.ShareAmountCents <= 0 {
		return domain.E(domain.KindValidation, "share amount must be positive")
	}
	if details.ShareAmountCents > details.TotalCostCents {
		return domain.E(domain.KindValidation, "share amount must not exceed total cost")
	}
	return nil
}

func (s *OfferService) CreateOffer(ctx context.Context, input CreateOfferInput) (*domain.Offer, error) {
	if input.CreatorID == "" {
		return nil, domain.E(domain.KindValidation, "creator id is required")
	}
	details := domain.FlightDetails{
		FlightDate:        input.FlightDate,
		DepartureLocation: input.DepartureLocation,
		ArrivalLocation:   input.ArrivalLocation,
		AircraftModel:     input.AircraftModel,
		TotalCostCents:    input.TotalCostCents,
		ShareAmountCents:  input.ShareAmountCents,
	}
	if err := validateDetails(details); err != nil {
		return nil, err
	}

	// Offers reference profiles by foreign key; the ensure runs first so the
	// insert never lands on a dangling reference.
	if err := s.profiles.Ensure(ctx, input.CreatorID); err != nil {
		return nil, domain.Ew(domain.KindDependency, "failed to ensure creator profile", err)
	}

	offer := &domain.Offer{
		ID:                uuid.NewString(),
		CreatorID:         input.CreatorID,
		FlightDate:        input.FlightDate,
		DepartureLocation: input.DepartureLocation,
		ArrivalLocation:   input.ArrivalLocation,
		AircraftModel:     input.AircraftModel,
		TotalCostCents:    input.TotalCostCents,
		ShareAmountCents:  input.ShareAmountCents,
		Status:            domain.OfferStatusOpen,
	}
	if err := s.offers.Create(ctx, offer); err != nil {
		return nil, domain.Ew(domain.KindDependency, "failed to create offer", err)
	}

	s.invalidateOpenOffers(ctx)
	s.publish(ctx, "offer_created", offer, 0)
	return offer, nil
}

func (s *OfferService) GetOffer(ctx context.Context, id string) (*domain.Offer, error) {
	return s.offers.GetByID(ctx, id)
}

func (s *OfferService) ListOffers(ctx context.Context, filter repository.OfferFilter) ([]domain.Offer, error) {
	cacheable := filter.Status == domain.OfferStatusOpen && filter.UserID == ""
	if cacheable && s.cache != nil {
		if cached, err := s.cache.GetOpenOffers(ctx); err == nil && cached != nil {
			return cached, nil
		}
	}

	offers, err := s.offers.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if cacheable && s.cache != nil {
		if err := s.cache.SetOpenOffers(ctx, offers); err != nil {
			s.logger.Warnw("failed to cache open offers", "error", err)
		}
	}
	return offers, nil
}

func (s *OfferService) AcceptOffer(ctx context.Context, offerID, matchedUserID string) (*domain.Offer, error) {
	if matchedUserID == "" {
		return nil, domain.E(domain.KindValidation, "matched user id is required")
	}

	current, err := s.offers.GetByID(ctx, offerID)
	if err != nil {
		return nil, err
	}
	if current.CreatorID == matchedUserID {
		return nil, domain.E(domain.KindValidation, "cannot accept your own offer")
	}
	if current.Status != domain.OfferStatusOpen {
		return nil, domain.E(domain.KindConflict, "offer is no longer available")
	}

	locked := false
	if s.cache != nil {
		ok, err := s.cache.AcquireAcceptLock(ctx, offerID, s.acceptLockTTL)
		if err != nil {
			s.logger.Warnw("accept lock unavailable, falling through to conditional update", "offer_id", offerID, "error", err)
		} else if !ok {
			return nil, domain.E(domain.KindConflict, "offer is no longer available")
		} else {
			locked = true
		}
	}
	if locked {
		defer func() {
			if err := s.cache.ReleaseAcceptLock(ctx, offerID); err != nil {
				s.logger.Warnw("failed to release accept lock", "offer_id", offerID, "error", err)
			}
		}()
	}

	// The conditional update keyed on status=open is the only correctness
	// mechanism here; the redis lock above just sheds obvious losers early.
	accepted, err := s.offers.Accept(ctx, offerID, matchedUserID)
	if errors.Is(err, repository.ErrNoMatchingRow) {
		if _, gerr := s.offers.GetByID(ctx, offerID); gerr != nil {
			return nil, gerr
		}
		return nil, domain.E(domain.KindConflict, "offer is no longer available")
	}
	if err != nil {
		return nil, err
	}

	s.invalidateOpenOffers(ctx)
	s.publish(ctx, "offer_accepted", accepted, 0)
	return accepted, nil
}

func (s *OfferService) UpdateOffer(ctx context.Context, offerID, requesterID string, details domain.FlightDetails) (*domain.Offer, error) {
	if err := validateDetails(details); err != nil {
		return nil, err
	}

	current, err := s.offers.GetByID(ctx, offerID)
	if err != nil {
		return nil, err
	}
	if current.CreatorID != requesterID {
		return nil, domain.E(domain.KindForbidden, "only the offer creator may update it")
	}
	if current.Status != domain.OfferStatusOpen {
		return nil, domain.E(domain.KindState, "only open offers may be updated")
	}

	updated, err := s.offers.UpdateDetails(ctx, offerID, details)
	if errors.Is(err, repository.ErrNoMatchingRow) {
		return nil, domain.E(domain.KindState, "only open offers may be updated")
	}
	if err != nil {
		return nil, err
	}

	s.invalidateOpenOffers(ctx)
	s.publish(ctx, "offer_updated", updated, 0)
	return updated, nil
}

func (s *OfferService) DeleteOffer(ctx context.Context, offerID, requesterID string) error {
	current, err := s.offers.GetByID(ctx, offerID)
	if err != nil {
		return err
	}
	if current.CreatorID != requesterID {
		return domain.E(domain.KindForbidden, "only the offer creator may delete it")
	}
	if current.Status != domain.OfferStatusOpen {
		return domain.E(domain.KindState, "only open offers may be deleted")
	}

	if err := s.offers.Delete(ctx, offerID); err != nil {
		if errors.Is(err, repository.ErrNoMatchingRow) {
			return domain.E(domain.KindState, "only open offers may be deleted")
		}
		return err
	}

	s.invalidateOpenOffers(ctx)
	s.publish(ctx, "offer_cancelled", current, 0)
	return nil
}

func (s *OfferService) invalidateOpenOffers(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateOpenOffers(ctx); err != nil {
		s.logger.Warnw("failed to invalidate open offer cache", "error", err)
	}
}

func (s *OfferService) publish(ctx context.Context, eventType string, offer *domain.Offer, amountCents int64) {
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
		s.logger.Warnw("failed to publish offer event", "type", eventType, "offer_id", offer.ID, "error", err)
	}
	if s.notificationsTopic != "" {
		if err := s.producer.Publish(ctx, s.notificationsTopic, offer.ID, event); err != nil {
			s.logger.Warnw("failed to publish notification event", "type", eventType, "offer_id", offer.ID, "error", err)
		}
	}
}

var _ OfferUseCase = (*OfferService)(nil)
