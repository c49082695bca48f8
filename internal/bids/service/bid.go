package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	bidserrors "drivebid/internal/bids/errors"
	"drivebid/internal/bids/repository"
	"drivebid/internal/bids/validator"
	bookingrepo "drivebid/internal/bookings/repository"
	"drivebid/internal/notify"
	vehicleerrors "drivebid/internal/vehicles/errors"
	vehiclerepo "drivebid/internal/vehicles/repository"
	"drivebid/pkg/config"
	apperrors "drivebid/pkg/errors"
	"drivebid/pkg/kafka"
	"drivebid/pkg/model"
	"drivebid/pkg/sanitizer"
)

const eventTypeBidSubmitted = "bid.submitted"

// BidPublisher is the slice of the Kafka producer the submit path needs.
type BidPublisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

type BidService interface {
	// Submit validates and enqueues a bid. The bid record itself is created
	// asynchronously by the queue consumer.
	Submit(ctx context.Context, req *model.BidRequest) (*model.EnqueueAck, error)

	// Accept atomically accepts the bid, creates its booking, and cascades a
	// rejection over every overlapping pending bid on the same vehicle.
	Accept(ctx context.Context, id, ownerID string) (*model.AcceptOutcome, error)

	Reject(ctx context.Context, id, ownerID string) (*model.Bid, error)
	GetByID(ctx context.Context, id string) (*model.Bid, error)
	GetAll(ctx context.Context, filter *model.BidFilter, limit int, offset int64) ([]*model.Bid, int64, error)
}

type bidService struct {
	repo        repository.BidRepository
	bookingRepo bookingrepo.BookingRepository
	vehicleRepo vehiclerepo.VehicleRepository
	validator   *validator.BidValidator
	publisher   BidPublisher
	notifier    notify.Notifier
	cfg         *config.Config
}

func NewBidService(
	repo repository.BidRepository,
	bookingRepo bookingrepo.BookingRepository,
	vehicleRepo vehiclerepo.VehicleRepository,
	validator *validator.BidValidator,
	publisher BidPublisher,
	notifier notify.Notifier,
	cfg *config.Config,
) BidService {
	return &bidService{
		repo:        repo,
		bookingRepo: bookingRepo,
		vehicleRepo: vehicleRepo,
		validator:   validator,
		publisher:   publisher,
		notifier:    notifier,
		cfg:         cfg,
	}
}

func (s *bidService) Submit(ctx context.Context, req *model.BidRequest) (*model.EnqueueAck, error) {
	s.sanitizeRequest(req)
	if err := s.validator.ValidateRequest(req); err != nil {
		s.cfg.Log.Warn("Bid submission validation failed", "vehicle_id", req.VehicleID, "error", err)
		return nil, apperrors.Validation("Invalid bid submission", map[string]any{"error": err.Error()})
	}

	vehicle, err := s.vehicleRepo.FindByID(ctx, req.VehicleID)
	if err != nil {
		if errors.Is(err, vehicleerrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Vehicle", req.VehicleID)
		}
		if errors.Is(err, vehicleerrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid vehicle ID format")
		}
		return nil, apperrors.Internal("Failed to load vehicle", err)
	}
	if !vehicle.Active {
		return nil, apperrors.Conflict("Vehicle is not available for rental")
	}

	submission := &model.BidSubmission{
		VehicleID:   vehicle.ID,
		OwnerID:     vehicle.OwnerID,
		Vehicle:     vehicle.Snapshot(),
		Renter:      req.Renter,
		Owner:       vehicle.Owner,
		Amount:      req.Amount,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		SubmittedAt: time.Now().UTC(),
	}

	builder, err := kafka.NewMessage().
		WithKey(vehicle.ID).
		WithValue(submission)
	if err != nil {
		return nil, apperrors.Internal("Failed to encode bid submission", err)
	}
	msg := builder.
		WithEventType(eventTypeBidSubmitted).
		WithSource(s.cfg.ServiceName).
		Build()

	if err := s.publisher.Publish(ctx, msg); err != nil {
		s.cfg.Log.Error("Failed to enqueue bid submission",
			"vehicle_id", vehicle.ID, "event_id", msg.GetEventID(), "error", err)
		return nil, apperrors.Unavailable("bid queue")
	}

	s.cfg.Log.Info("Bid submission enqueued",
		"event_id", msg.GetEventID(),
		"vehicle_id", vehicle.ID,
		"amount", submission.Amount,
	)
	return &model.EnqueueAck{
		EventID:  msg.GetEventID(),
		QueuedAt: submission.SubmittedAt,
	}, nil
}

func (s *bidService) Accept(ctx context.Context, id, ownerID string) (*model.AcceptOutcome, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Bid ID cannot be empty")
	}
	if ownerID == "" {
		return nil, apperrors.InvalidInput("Owner ID cannot be empty")
	}

	var outcome *model.AcceptOutcome
	var losers []*model.Bid

	err := s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		bid, err := s.repo.AcceptPending(sessCtx, id, ownerID)
		if err != nil {
			return s.resolveTransitionFailure(sessCtx, id, ownerID, err)
		}

		vehicle, err := s.vehicleRepo.FindByID(sessCtx, bid.VehicleID)
		if err != nil {
			if errors.Is(err, vehicleerrors.ErrNotFound) {
				return apperrors.Conflict("Vehicle for this bid no longer exists")
			}
			return apperrors.Internal("Failed to load vehicle", err)
		}
		if !vehicle.Active {
			return apperrors.Conflict("Vehicle is no longer available for rental")
		}

		// A pending bid created after an earlier booking was confirmed is never
		// touched by that booking's cascade, so the bid list alone cannot prove
		// the window is free.
		booked, err := s.bookingRepo.ExistsOverlapping(sessCtx, bid.VehicleID, bid.StartDate, bid.EndDate)
		if err != nil {
			return apperrors.Internal("Failed to check existing bookings", err)
		}
		if booked {
			return apperrors.Conflict("Vehicle is already booked for an overlapping period")
		}

		overlapping, err := s.repo.FindOverlappingPending(sessCtx, bid.VehicleID, bid.StartDate, bid.EndDate, bid.ID)
		if err != nil {
			return apperrors.Internal("Failed to find overlapping bids", err)
		}

		booking := model.BookingFromBid(bid)
		if err := s.bookingRepo.Create(sessCtx, booking); err != nil {
			return apperrors.Internal("Failed to create booking", err)
		}

		rejected, err := s.cascadeOverlapping(sessCtx, bid)
		if err != nil {
			return err
		}

		rejectedIDs := make([]string, 0, len(overlapping))
		for _, other := range overlapping {
			rejectedIDs = append(rejectedIDs, other.ID)
		}
		losers = overlapping

		outcome = &model.AcceptOutcome{
			Booking:        booking,
			RejectedBidIDs: rejectedIDs,
			RejectedCount:  rejected,
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to accept bid", "bid_id", id, "owner_id", ownerID, "error", err)
		return nil, err
	}

	s.cfg.Log.Info("Bid accepted",
		"bid_id", id,
		"booking_id", outcome.Booking.ID,
		"rejected_count", outcome.RejectedCount,
	)
	s.notifyOutcome(outcome.Booking, losers)

	return outcome, nil
}

// cascadeOverlapping applies the configured policy to the losing pending bids.
func (s *bidService) cascadeOverlapping(sessCtx mongo.SessionContext, bid *model.Bid) (int64, error) {
	if s.cfg.RejectedBidPolicy == config.RejectedPolicyDelete {
		deleted, err := s.repo.DeleteOverlappingPending(sessCtx, bid.VehicleID, bid.StartDate, bid.EndDate, bid.ID)
		if err != nil {
			return 0, apperrors.Internal("Failed to delete overlapping bids", err)
		}
		return deleted, nil
	}

	rejected, err := s.repo.RejectOverlappingPending(sessCtx, bid.VehicleID, bid.StartDate, bid.EndDate, bid.ID)
	if err != nil {
		return 0, apperrors.Internal("Failed to reject overlapping bids", err)
	}
	return rejected, nil
}

func (s *bidService) Reject(ctx context.Context, id, ownerID string) (*model.Bid, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Bid ID cannot be empty")
	}
	if ownerID == "" {
		return nil, apperrors.InvalidInput("Owner ID cannot be empty")
	}

	bid, err := s.repo.RejectPending(ctx, id, ownerID)
	if err != nil {
		resolved := s.resolveTransitionFailure(ctx, id, ownerID, err)
		s.cfg.Log.Warn("Failed to reject bid", "bid_id", id, "owner_id", ownerID, "error", resolved)
		return nil, resolved
	}

	s.cfg.Log.Info("Bid rejected", "bid_id", id, "owner_id", ownerID)
	s.notifyRejection(bid)
	return bid, nil
}

// notifyRejection informs the renter of a direct rejection after the update
// lands. Best effort, same as the post-accept notifications.
func (s *bidService) notifyRejection(bid *model.Bid) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.NotifyTimeout)
		defer cancel()

		if err := s.notifier.BidRejected(ctx, bid); err != nil {
			s.cfg.Log.Warn("Failed to deliver rejection notification",
				"bid_id", bid.ID, "error", err)
		}
	}()
}

// resolveTransitionFailure turns a missed compare-and-swap into the right
// client-facing error. A bid owned by someone else reads as not found so the
// endpoint does not leak other owners' bids.
func (s *bidService) resolveTransitionFailure(ctx context.Context, id, ownerID string, err error) error {
	if errors.Is(err, bidserrors.ErrInvalidID) {
		return apperrors.InvalidInput("Invalid bid ID format")
	}
	if !errors.Is(err, bidserrors.ErrNotFound) {
		return apperrors.Internal("Failed to update bid", err)
	}

	existing, findErr := s.repo.FindByID(ctx, id)
	if findErr != nil {
		return apperrors.NotFoundWithID("Bid", id)
	}
	if existing.OwnerID != ownerID {
		return apperrors.NotFoundWithID("Bid", id)
	}
	if existing.Status != model.BidPending {
		return apperrors.Conflict("Bid has already been processed")
	}
	return apperrors.NotFoundWithID("Bid", id)
}

// notifyOutcome runs after the transaction commits. Delivery is best effort; a
// failure is logged and never surfaced to the caller.
func (s *bidService) notifyOutcome(booking *model.Booking, losers []*model.Bid) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.NotifyTimeout)
		defer cancel()

		if err := s.notifier.BookingConfirmed(ctx, booking); err != nil {
			s.cfg.Log.Warn("Failed to deliver booking notification",
				"booking_id", booking.ID, "error", err)
		}
		for _, loser := range losers {
			if err := s.notifier.BidRejected(ctx, loser); err != nil {
				s.cfg.Log.Warn("Failed to deliver rejection notification",
					"bid_id", loser.ID, "error", err)
			}
		}
	}()
}

func (s *bidService) GetByID(ctx context.Context, id string) (*model.Bid, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Bid ID cannot be empty")
	}

	bid, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, bidserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Bid", id)
		}
		if errors.Is(err, bidserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid bid ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve bid", err)
	}

	return bid, nil
}

func (s *bidService) GetAll(ctx context.Context, filter *model.BidFilter, limit int, offset int64) ([]*model.Bid, int64, error) {
	var count int64
	var bids []*model.Bid
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx, filter)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count bids", "error", errCount)
			errCount = apperrors.Internal("Failed to count bids", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		bids, errFind = s.repo.FindAll(ctx, filter, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list bids", "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve bids", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return bids, count, nil
}

func (s *bidService) sanitizeRequest(req *model.BidRequest) {
	req.Renter.Name = sanitizer.CleanText(req.Renter.Name)
	req.Renter.Email = sanitizer.CleanEmail(req.Renter.Email)
	req.Renter.Phone = sanitizer.CleanText(req.Renter.Phone)
}
