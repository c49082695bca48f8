package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	bookingerrors "drivebid/internal/bookings/errors"
	"drivebid/pkg/config"
	mongotx "drivebid/pkg/db/mongo"
	"drivebid/pkg/model"
)

const (
	CollectionName = "Bookings"
)

// SettlementUpdate carries the computed rental invoice applied when the end
// odometer is recorded. All fields are written together with payment_status
// so a booking is never observed half settled.
type SettlementUpdate struct {
	EndOdometer       float64
	DistanceTravelled float64
	RentalDays        int
	LateDays          int
	LateFee           float64
	TotalAmount       float64
}

type BookingRepository interface {
	Create(ctx context.Context, booking *model.Booking) error
	FindByID(ctx context.Context, id string) (*model.Booking, error)
	FindAll(ctx context.Context, filter *model.BookingFilter, limit int, offset int64) ([]*model.Booking, error)
	Count(ctx context.Context, filter *model.BookingFilter) (int64, error)

	// ExistsOverlapping reports whether any booking on the vehicle touches the
	// inclusive [start, end] range. Arbitration checks it before creating a
	// booking so two confirmed rentals can never share a day.
	ExistsOverlapping(ctx context.Context, vehicleID string, start, end time.Time) (bool, error)

	// SetStartOdometer records the handover reading for the owner's booking.
	// It matches only bookings with no start reading yet so a second start
	// submission is rejected.
	SetStartOdometer(ctx context.Context, id, ownerID string, reading float64) (*model.Booking, error)

	// Settle applies the invoice and flips the booking to paid. It matches
	// only the owner's unpaid bookings that already have a start reading.
	Settle(ctx context.Context, id, ownerID string, update *SettlementUpdate) (*model.Booking, error)

	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

type mongoBookingRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

func NewMongoBookingRepository(cfg *config.Config) BookingRepository {
	db := cfg.Client.Mongo.Client.Database(cfg.MongoDatabaseName)
	return &mongoBookingRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo.Client),
	}
}

func (r *mongoBookingRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

func (r *mongoBookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	booking.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	result, err := r.collection.InsertOne(ctx, booking)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		booking.ID = oid.Hex()
	}
	return nil
}

func (r *mongoBookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", bookingerrors.ErrInvalidID, id)
	}

	var booking model.Booking
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&booking)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, bookingerrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find booking: %w", err)
	}

	return &booking, nil
}

func (r *mongoBookingRepository) FindAll(ctx context.Context, filter *model.BookingFilter, limit int, offset int64) ([]*model.Booking, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, buildBookingFilter(filter), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find bookings: %w", err)
	}
	defer cursor.Close(ctx)

	var bookings []*model.Booking
	if err = cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode bookings: %w", err)
	}

	return bookings, nil
}

func (r *mongoBookingRepository) Count(ctx context.Context, filter *model.BookingFilter) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, buildBookingFilter(filter))
	if err != nil {
		return 0, fmt.Errorf("failed to count bookings: %w", err)
	}
	return count, nil
}

func (r *mongoBookingRepository) ExistsOverlapping(ctx context.Context, vehicleID string, start, end time.Time) (bool, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"vehicle_id": vehicleID,
		"start_date": bson.M{"$lte": end},
		"end_date":   bson.M{"$gte": start},
	}

	count, err := r.collection.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("failed to check overlapping bookings: %w", err)
	}
	return count > 0, nil
}

func (r *mongoBookingRepository) SetStartOdometer(ctx context.Context, id, ownerID string, reading float64) (*model.Booking, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", bookingerrors.ErrInvalidID, id)
	}

	filter := bson.M{
		"_id":            objectID,
		"owner_id":       ownerID,
		"payment_status": model.PaymentPending,
		"start_odometer": bson.M{"$exists": false},
	}
	update := bson.M{"$set": bson.M{"start_odometer": reading}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var booking model.Booking
	err = r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&booking)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, bookingerrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to set start odometer: %w", err)
	}

	return &booking, nil
}

func (r *mongoBookingRepository) Settle(ctx context.Context, id, ownerID string, update *SettlementUpdate) (*model.Booking, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", bookingerrors.ErrInvalidID, id)
	}

	filter := bson.M{
		"_id":            objectID,
		"owner_id":       ownerID,
		"payment_status": model.PaymentPending,
		"start_odometer": bson.M{"$exists": true},
	}
	set := bson.M{"$set": bson.M{
		"end_odometer":       update.EndOdometer,
		"distance_travelled": update.DistanceTravelled,
		"rental_days":        update.RentalDays,
		"late_days":          update.LateDays,
		"late_fee":           update.LateFee,
		"total_amount":       update.TotalAmount,
		"payment_status":     model.PaymentPaid,
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var booking model.Booking
	err = r.collection.FindOneAndUpdate(ctx, filter, set, opts).Decode(&booking)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, bookingerrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to settle booking: %w", err)
	}

	return &booking, nil
}

func (r *mongoBookingRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}

func buildBookingFilter(f *model.BookingFilter) bson.M {
	filter := bson.M{}
	if f == nil {
		return filter
	}

	if f.PaymentStatus != "" {
		filter["payment_status"] = f.PaymentStatus
	}
	if f.VehicleID != "" {
		filter["vehicle_id"] = f.VehicleID
	}
	if f.OwnerID != "" {
		filter["owner_id"] = f.OwnerID
	}
	if f.RenterEmail != "" {
		filter["renter.email"] = f.RenterEmail
	}

	return filter
}
