package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	bookingerrors "drivebid/internal/bookings/errors"
	"drivebid/internal/bookings/repository"
	vehicleerrors "drivebid/internal/vehicles/errors"
	vehiclerepo "drivebid/internal/vehicles/repository"
	"drivebid/pkg/clock"
	"drivebid/pkg/config"
	apperrors "drivebid/pkg/errors"
	"drivebid/pkg/model"
)

const hoursPerDay = 24 * time.Hour

// SettlementService records odometer readings against bookings and computes
// the final invoice when the rental closes.
type SettlementService interface {
	// RecordOdometer acts on behalf of the booking's owner; a booking held by
	// a different owner reads as not found.
	RecordOdometer(ctx context.Context, id, ownerID string, req *model.OdometerRequest) (*model.Booking, error)
	GetByID(ctx context.Context, id string) (*model.Booking, error)
	GetAll(ctx context.Context, filter *model.BookingFilter, limit int, offset int64) ([]*model.Booking, int64, error)
}

type settlementService struct {
	repo        repository.BookingRepository
	vehicleRepo vehiclerepo.VehicleRepository
	clk         clock.Clock
	cfg         *config.Config
}

func NewSettlementService(
	repo repository.BookingRepository,
	vehicleRepo vehiclerepo.VehicleRepository,
	clk clock.Clock,
	cfg *config.Config,
) SettlementService {
	return &settlementService{
		repo:        repo,
		vehicleRepo: vehicleRepo,
		clk:         clk,
		cfg:         cfg,
	}
}

func (s *settlementService) RecordOdometer(ctx context.Context, id, ownerID string, req *model.OdometerRequest) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}
	if ownerID == "" {
		return nil, apperrors.InvalidInput("Owner ID cannot be empty")
	}
	if req.Reading < 0 {
		return nil, apperrors.InvalidOdometer("Odometer reading cannot be negative", req.Reading, 0)
	}

	switch req.Phase {
	case model.OdometerPhaseStart:
		return s.recordStart(ctx, id, ownerID, req.Reading)
	case model.OdometerPhaseEnd:
		return s.recordEnd(ctx, id, ownerID, req.Reading)
	default:
		return nil, apperrors.InvalidInput(fmt.Sprintf("Unknown odometer phase: %s", req.Phase))
	}
}

// recordStart writes the handover reading and advances the vehicle's travelled
// watermark in one transaction. The reading must not be behind the watermark;
// an odometer cannot show less than the vehicle has already driven.
func (s *settlementService) recordStart(ctx context.Context, id, ownerID string, reading float64) (*model.Booking, error) {
	var updated *model.Booking

	err := s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		booking, err := s.repo.FindByID(sessCtx, id)
		if err != nil {
			if errors.Is(err, bookingerrors.ErrNotFound) {
				return apperrors.NotFoundWithID("Booking", id)
			}
			if errors.Is(err, bookingerrors.ErrInvalidID) {
				return apperrors.InvalidInput("Invalid booking ID format")
			}
			return apperrors.Internal("Failed to load booking", err)
		}
		if booking.OwnerID != ownerID {
			return apperrors.NotFoundWithID("Booking", id)
		}
		if booking.PaymentStatus == model.PaymentPaid {
			return apperrors.Conflict("Booking is already settled")
		}
		if booking.StartOdometer != nil {
			return apperrors.SequenceViolation("Start odometer has already been recorded")
		}

		vehicle, err := s.vehicleRepo.FindByID(sessCtx, booking.VehicleID)
		if err != nil {
			return apperrors.Internal("Failed to load vehicle", err)
		}
		if reading < vehicle.Travelled {
			return apperrors.InvalidOdometer(
				"Start odometer reading is behind the vehicle's travelled distance",
				reading, vehicle.Travelled,
			)
		}

		updated, err = s.repo.SetStartOdometer(sessCtx, id, ownerID, reading)
		if err != nil {
			if errors.Is(err, bookingerrors.ErrNotFound) {
				return apperrors.SequenceViolation("Start odometer has already been recorded")
			}
			return apperrors.Internal("Failed to record start odometer", err)
		}

		if err := s.vehicleRepo.AdvanceTravelled(sessCtx, booking.VehicleID, reading); err != nil {
			if errors.Is(err, vehicleerrors.ErrStaleReading) {
				return apperrors.InvalidOdometer(
					"Start odometer reading is behind the vehicle's travelled distance",
					reading, vehicle.Travelled,
				)
			}
			return apperrors.Internal("Failed to advance vehicle travelled distance", err)
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to record start odometer", "booking_id", id, "error", err)
		return nil, err
	}

	s.cfg.Log.Info("Start odometer recorded", "booking_id", id, "reading", reading)
	return updated, nil
}

func (s *settlementService) recordEnd(ctx context.Context, id, ownerID string, reading float64) (*model.Booking, error) {
	var settled *model.Booking

	err := s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		booking, err := s.repo.FindByID(sessCtx, id)
		if err != nil {
			if errors.Is(err, bookingerrors.ErrNotFound) {
				return apperrors.NotFoundWithID("Booking", id)
			}
			if errors.Is(err, bookingerrors.ErrInvalidID) {
				return apperrors.InvalidInput("Invalid booking ID format")
			}
			return apperrors.Internal("Failed to load booking", err)
		}
		if booking.OwnerID != ownerID {
			return apperrors.NotFoundWithID("Booking", id)
		}

		if booking.PaymentStatus == model.PaymentPaid {
			return apperrors.Conflict("Booking is already settled")
		}
		if booking.StartOdometer == nil {
			return apperrors.SequenceViolation("Start odometer has not been recorded")
		}
		if reading < *booking.StartOdometer {
			return apperrors.InvalidOdometer(
				"End odometer reading is below the start reading",
				reading, *booking.StartOdometer,
			)
		}

		update := s.computeSettlement(booking, reading, s.clk.Now())
		settled, err = s.repo.Settle(sessCtx, id, ownerID, update)
		if err != nil {
			if errors.Is(err, bookingerrors.ErrNotFound) {
				return apperrors.Conflict("Booking is already settled")
			}
			return apperrors.Internal("Failed to settle booking", err)
		}

		if err := s.vehicleRepo.AdvanceTravelled(sessCtx, booking.VehicleID, reading); err != nil {
			// Another booking may have already pushed the watermark further.
			if errors.Is(err, vehicleerrors.ErrStaleReading) {
				s.cfg.Log.Warn("Travelled watermark already ahead of reading",
					"vehicle_id", booking.VehicleID, "reading", reading)
				return nil
			}
			return apperrors.Internal("Failed to advance vehicle travelled distance", err)
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to record end odometer", "booking_id", id, "error", err)
		return nil, err
	}

	s.cfg.Log.Info("Booking settled",
		"booking_id", settled.ID,
		"distance", settled.DistanceTravelled,
		"late_days", settled.LateDays,
		"total_amount", settled.TotalAmount,
	)
	return settled, nil
}

// computeSettlement prices the completed rental. Late days accrue per started
// day past the agreed end date, each billed at the daily amount plus the
// vehicle's fine percentage of it.
func (s *settlementService) computeSettlement(booking *model.Booking, endReading float64, now time.Time) *repository.SettlementUpdate {
	distance := endReading - *booking.StartOdometer
	rentalDays := ceilDays(booking.EndDate.Sub(booking.StartDate))
	lateDays := ceilDays(now.Sub(booking.EndDate))

	finePct := s.cfg.DefaultFinePercent
	if booking.Vehicle.FinePercentage != nil {
		finePct = *booking.Vehicle.FinePercentage
	}
	finePerLateDay := booking.Amount + booking.Amount*finePct/100
	lateFee := float64(lateDays) * finePerLateDay

	total := distance*booking.Vehicle.PricePerKm + float64(rentalDays)*booking.Amount + lateFee

	return &repository.SettlementUpdate{
		EndOdometer:       endReading,
		DistanceTravelled: distance,
		RentalDays:        rentalDays,
		LateDays:          lateDays,
		LateFee:           lateFee,
		TotalAmount:       total,
	}
}

// ceilDays rounds a duration up to whole days, never below zero.
func ceilDays(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	days := int(d / hoursPerDay)
	if d%hoursPerDay > 0 {
		days++
	}
	return days
}

func (s *settlementService) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingerrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Booking", id)
		}
		if errors.Is(err, bookingerrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid booking ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve booking", err)
	}

	return booking, nil
}

func (s *settlementService) GetAll(ctx context.Context, filter *model.BookingFilter, limit int, offset int64) ([]*model.Booking, int64, error) {
	var count int64
	var bookings []*model.Booking
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx, filter)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count bookings", "error", errCount)
			errCount = apperrors.Internal("Failed to count bookings", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		bookings, errFind = s.repo.FindAll(ctx, filter, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list bookings", "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve bookings", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return bookings, count, nil
}
