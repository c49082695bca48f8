package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"

	bookingerrors "drivebid/internal/bookings/errors"
	"drivebid/internal/bookings/repository"
	"drivebid/pkg/clock"
	"drivebid/pkg/config"
	mongotx "drivebid/pkg/db/mongo"
	apperrors "drivebid/pkg/errors"
	"drivebid/pkg/logger"
	"drivebid/pkg/model"
)

type mockBookingRepository struct {
	findByIDFunc           func(ctx context.Context, id string) (*model.Booking, error)
	setStartOdometerFunc   func(ctx context.Context, id, ownerID string, reading float64) (*model.Booking, error)
	settleFunc             func(ctx context.Context, id, ownerID string, update *repository.SettlementUpdate) (*model.Booking, error)
	executeTransactionFunc func(ctx context.Context, fn mongotx.TransactionFunc) error
	capturedUpdate         *repository.SettlementUpdate
}

func (m *mockBookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	return nil
}

func (m *mockBookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, bookingerrors.ErrNotFound
}

func (m *mockBookingRepository) FindAll(ctx context.Context, filter *model.BookingFilter, limit int, offset int64) ([]*model.Booking, error) {
	return nil, nil
}

func (m *mockBookingRepository) Count(ctx context.Context, filter *model.BookingFilter) (int64, error) {
	return 0, nil
}

func (m *mockBookingRepository) ExistsOverlapping(ctx context.Context, vehicleID string, start, end time.Time) (bool, error) {
	return false, nil
}

func (m *mockBookingRepository) SetStartOdometer(ctx context.Context, id, ownerID string, reading float64) (*model.Booking, error) {
	if m.setStartOdometerFunc != nil {
		return m.setStartOdometerFunc(ctx, id, ownerID, reading)
	}
	return nil, bookingerrors.ErrNotFound
}

func (m *mockBookingRepository) Settle(ctx context.Context, id, ownerID string, update *repository.SettlementUpdate) (*model.Booking, error) {
	m.capturedUpdate = update
	if m.settleFunc != nil {
		return m.settleFunc(ctx, id, ownerID, update)
	}
	return nil, bookingerrors.ErrNotFound
}

func (m *mockBookingRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	if m.executeTransactionFunc != nil {
		return m.executeTransactionFunc(ctx, fn)
	}
	return fn(mongo.NewSessionContext(ctx, nil))
}

type mockVehicleRepository struct {
	findByIDFunc         func(ctx context.Context, id string) (*model.Vehicle, error)
	advanceTravelledFunc func(ctx context.Context, id string, reading float64) error
}

func (m *mockVehicleRepository) Create(ctx context.Context, vehicle *model.Vehicle) error {
	return nil
}

func (m *mockVehicleRepository) FindByID(ctx context.Context, id string) (*model.Vehicle, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockVehicleRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.Vehicle, error) {
	return nil, nil
}

func (m *mockVehicleRepository) Count(ctx context.Context) (int64, error) {
	return 0, nil
}

func (m *mockVehicleRepository) AdvanceTravelled(ctx context.Context, id string, reading float64) error {
	if m.advanceTravelledFunc != nil {
		return m.advanceTravelledFunc(ctx, id, reading)
	}
	return nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		DefaultFinePercent: 50,
		Log: logger.New(logger.Config{
			Level:   "error",
			Format:  logger.JSON,
			Service: "test",
		}),
	}
}

func float64Ptr(f float64) *float64 {
	return &f
}

func testBooking(start, end time.Time) *model.Booking {
	return &model.Booking{
		ID:        "65f000000000000000000001",
		BidID:     "65f000000000000000000002",
		VehicleID: "65f000000000000000000003",
		OwnerID:   "65f000000000000000000004",
		Vehicle: model.VehicleSnapshot{
			VehicleID:  "65f000000000000000000003",
			Name:       "Mazda 3",
			PricePerKm: 10,
		},
		Amount:        500,
		StartDate:     start,
		EndDate:       end,
		PaymentStatus: model.PaymentPending,
		StartOdometer: float64Ptr(1000),
	}
}

func TestComputeSettlement_OnTimeReturn(t *testing.T) {
	start := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(3 * 24 * time.Hour)
	booking := testBooking(start, end)

	svc := &settlementService{cfg: testConfig(t)}
	update := svc.computeSettlement(booking, 1250, end)

	assert.Equal(t, float64(250), update.DistanceTravelled)
	assert.Equal(t, 3, update.RentalDays)
	assert.Equal(t, 0, update.LateDays)
	assert.Equal(t, float64(0), update.LateFee)
	// 250km * 10 + 3 days * 500
	assert.Equal(t, float64(4000), update.TotalAmount)
}

func TestComputeSettlement_LateReturn(t *testing.T) {
	start := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(3 * 24 * time.Hour)
	booking := testBooking(start, end)
	booking.Vehicle.FinePercentage = float64Ptr(50)

	svc := &settlementService{cfg: testConfig(t)}
	update := svc.computeSettlement(booking, 1250, end.Add(2*24*time.Hour))

	assert.Equal(t, 2, update.LateDays)
	// 2 days * (500 + 500*0.5)
	assert.Equal(t, float64(1500), update.LateFee)
	assert.Equal(t, float64(5500), update.TotalAmount)
}

func TestComputeSettlement_PartialLateDayRoundsUp(t *testing.T) {
	start := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)
	booking := testBooking(start, end)

	svc := &settlementService{cfg: testConfig(t)}
	update := svc.computeSettlement(booking, 1000, end.Add(90*time.Minute))

	assert.Equal(t, 1, update.LateDays)
}

func TestComputeSettlement_DefaultFinePercentage(t *testing.T) {
	start := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)
	booking := testBooking(start, end)
	booking.Vehicle.FinePercentage = nil

	svc := &settlementService{cfg: testConfig(t)}
	update := svc.computeSettlement(booking, 1000, end.Add(24*time.Hour))

	assert.Equal(t, 1, update.LateDays)
	assert.Equal(t, float64(750), update.LateFee)
}

func TestCeilDays(t *testing.T) {
	cases := []struct {
		name string
		d    time.Duration
		want int
	}{
		{"negative", -time.Hour, 0},
		{"zero", 0, 0},
		{"partial day", time.Hour, 1},
		{"exact day", 24 * time.Hour, 1},
		{"just over a day", 24*time.Hour + time.Minute, 2},
		{"three days", 72 * time.Hour, 3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ceilDays(tc.d))
		})
	}
}

func TestRecordOdometer_EndSettlesBooking(t *testing.T) {
	start := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(3 * 24 * time.Hour)
	booking := testBooking(start, end)

	repo := &mockBookingRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Booking, error) {
			return booking, nil
		},
		settleFunc: func(ctx context.Context, id, ownerID string, update *repository.SettlementUpdate) (*model.Booking, error) {
			settled := *booking
			settled.PaymentStatus = model.PaymentPaid
			settled.TotalAmount = update.TotalAmount
			return &settled, nil
		},
	}
	vehicles := &mockVehicleRepository{}

	svc := NewSettlementService(repo, vehicles, clock.Fixed(end), testConfig(t))
	result, err := svc.RecordOdometer(context.Background(), booking.ID, booking.OwnerID, &model.OdometerRequest{
		Phase:   model.OdometerPhaseEnd,
		Reading: 1250,
	})

	require.NoError(t, err)
	assert.Equal(t, model.PaymentPaid, result.PaymentStatus)
	assert.Equal(t, float64(4000), result.TotalAmount)
	require.NotNil(t, repo.capturedUpdate)
	assert.Equal(t, float64(1250), repo.capturedUpdate.EndOdometer)
}

func TestRecordOdometer_EndBeforeStartRecorded(t *testing.T) {
	start := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	booking := testBooking(start, start.Add(24*time.Hour))
	booking.StartOdometer = nil

	repo := &mockBookingRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Booking, error) {
			return booking, nil
		},
	}

	svc := NewSettlementService(repo, &mockVehicleRepository{}, clock.Fixed(start), testConfig(t))
	_, err := svc.RecordOdometer(context.Background(), booking.ID, booking.OwnerID, &model.OdometerRequest{
		Phase:   model.OdometerPhaseEnd,
		Reading: 1250,
	})

	require.Error(t, err)
	appErr := apperrors.AsAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.CodeSequenceViolation, appErr.Code)
}

func TestRecordOdometer_EndReadingBelowStart(t *testing.T) {
	start := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	booking := testBooking(start, start.Add(24*time.Hour))

	repo := &mockBookingRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Booking, error) {
			return booking, nil
		},
	}

	svc := NewSettlementService(repo, &mockVehicleRepository{}, clock.Fixed(start), testConfig(t))
	_, err := svc.RecordOdometer(context.Background(), booking.ID, booking.OwnerID, &model.OdometerRequest{
		Phase:   model.OdometerPhaseEnd,
		Reading: 900,
	})

	require.Error(t, err)
	appErr := apperrors.AsAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.CodeInvalidOdometer, appErr.Code)
	assert.Equal(t, float64(1000), appErr.Details["minimum"])
}

func TestRecordOdometer_AlreadySettled(t *testing.T) {
	start := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	booking := testBooking(start, start.Add(24*time.Hour))
	booking.PaymentStatus = model.PaymentPaid

	repo := &mockBookingRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Booking, error) {
			return booking, nil
		},
	}

	svc := NewSettlementService(repo, &mockVehicleRepository{}, clock.Fixed(start), testConfig(t))
	_, err := svc.RecordOdometer(context.Background(), booking.ID, booking.OwnerID, &model.OdometerRequest{
		Phase:   model.OdometerPhaseEnd,
		Reading: 1250,
	})

	require.Error(t, err)
	appErr := apperrors.AsAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.CodeConflict, appErr.Code)
}

func TestRecordOdometer_OwnerMismatchIsNotFound(t *testing.T) {
	start := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	booking := testBooking(start, start.Add(24*time.Hour))

	repo := &mockBookingRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Booking, error) {
			return booking, nil
		},
	}

	svc := NewSettlementService(repo, &mockVehicleRepository{}, clock.Fixed(start), testConfig(t))
	for _, phase := range []string{model.OdometerPhaseStart, model.OdometerPhaseEnd} {
		_, err := svc.RecordOdometer(context.Background(), booking.ID, "65f0000000000000000000aa", &model.OdometerRequest{
			Phase:   phase,
			Reading: 1250,
		})

		require.Error(t, err, "phase %s", phase)
		appErr := apperrors.AsAppError(err)
		require.NotNil(t, appErr)
		assert.Equal(t, apperrors.CodeNotFound, appErr.Code, "phase %s", phase)
	}
	require.Nil(t, repo.capturedUpdate, "a foreign owner must never settle the booking")
}

func TestRecordOdometer_StartBehindVehicleTravelled(t *testing.T) {
	start := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	booking := testBooking(start, start.Add(24*time.Hour))
	booking.StartOdometer = nil

	repo := &mockBookingRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Booking, error) {
			return booking, nil
		},
	}
	vehicles := &mockVehicleRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Vehicle, error) {
			return &model.Vehicle{ID: booking.VehicleID, Travelled: 2000, Active: true}, nil
		},
	}

	svc := NewSettlementService(repo, vehicles, clock.Fixed(start), testConfig(t))
	_, err := svc.RecordOdometer(context.Background(), booking.ID, booking.OwnerID, &model.OdometerRequest{
		Phase:   model.OdometerPhaseStart,
		Reading: 1000,
	})

	require.Error(t, err)
	appErr := apperrors.AsAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.CodeInvalidOdometer, appErr.Code)
}

func TestRecordOdometer_StartAdvancesWatermark(t *testing.T) {
	start := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	booking := testBooking(start, start.Add(24*time.Hour))
	booking.StartOdometer = nil

	var advancedTo float64
	repo := &mockBookingRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Booking, error) {
			return booking, nil
		},
		setStartOdometerFunc: func(ctx context.Context, id, ownerID string, reading float64) (*model.Booking, error) {
			updated := *booking
			updated.StartOdometer = &reading
			return &updated, nil
		},
	}
	vehicles := &mockVehicleRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Vehicle, error) {
			return &model.Vehicle{ID: booking.VehicleID, Travelled: 900, Active: true}, nil
		},
		advanceTravelledFunc: func(ctx context.Context, id string, reading float64) error {
			advancedTo = reading
			return nil
		},
	}

	svc := NewSettlementService(repo, vehicles, clock.Fixed(start), testConfig(t))
	result, err := svc.RecordOdometer(context.Background(), booking.ID, booking.OwnerID, &model.OdometerRequest{
		Phase:   model.OdometerPhaseStart,
		Reading: 1000,
	})

	require.NoError(t, err)
	require.NotNil(t, result.StartOdometer)
	assert.Equal(t, float64(1000), *result.StartOdometer)
	assert.Equal(t, float64(1000), advancedTo)
}

func TestRecordOdometer_UnknownPhase(t *testing.T) {
	svc := NewSettlementService(&mockBookingRepository{}, &mockVehicleRepository{}, clock.System(), testConfig(t))
	_, err := svc.RecordOdometer(context.Background(), "65f000000000000000000001", "65f000000000000000000004", &model.OdometerRequest{
		Phase:   "middle",
		Reading: 100,
	})

	require.Error(t, err)
	appErr := apperrors.AsAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.CodeInvalidInput, appErr.Code)
}
