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

	bidserrors "drivebid/internal/bids/errors"
	"drivebid/pkg/config"
	mongotx "drivebid/pkg/db/mongo"
	"drivebid/pkg/model"
)

const (
	CollectionName = "Bids"
)

type BidRepository interface {
	Create(ctx context.Context, bid *model.Bid) error
	FindByID(ctx context.Context, id string) (*model.Bid, error)
	FindAll(ctx context.Context, filter *model.BidFilter, limit int, offset int64) ([]*model.Bid, error)
	Count(ctx context.Context, filter *model.BidFilter) (int64, error)

	// AcceptPending flips the bid from pending to accepted in one conditional
	// update scoped by owner. It is the compare-and-swap at the heart of the
	// arbitration transaction: of two racing accepts, exactly one matches.
	AcceptPending(ctx context.Context, id, ownerID string) (*model.Bid, error)
	RejectPending(ctx context.Context, id, ownerID string) (*model.Bid, error)

	FindOverlappingPending(ctx context.Context, vehicleID string, start, end time.Time, excludeID string) ([]*model.Bid, error)
	RejectOverlappingPending(ctx context.Context, vehicleID string, start, end time.Time, excludeID string) (int64, error)
	DeleteOverlappingPending(ctx context.Context, vehicleID string, start, end time.Time, excludeID string) (int64, error)

	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

type mongoBidRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

func NewMongoBidRepository(cfg *config.Config) BidRepository {
	db := cfg.Client.Mongo.Client.Database(cfg.MongoDatabaseName)
	return &mongoBidRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo.Client),
	}
}

// withTimeout wraps the context with a timeout unless we are already inside a
// transaction; a SessionContext cannot be wrapped without breaking the session.
func (r *mongoBidRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

func (r *mongoBidRepository) Create(ctx context.Context, bid *model.Bid) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	bid.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	result, err := r.collection.InsertOne(ctx, bid)
	if err != nil {
		return fmt.Errorf("failed to create bid: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		bid.ID = oid.Hex()
	}
	return nil
}

func (r *mongoBidRepository) FindByID(ctx context.Context, id string) (*model.Bid, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", bidserrors.ErrInvalidID, id)
	}

	var bid model.Bid
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&bid)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, bidserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find bid: %w", err)
	}

	return &bid, nil
}

func (r *mongoBidRepository) FindAll(ctx context.Context, filter *model.BidFilter, limit int, offset int64) ([]*model.Bid, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, buildBidFilter(filter), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find bids: %w", err)
	}
	defer cursor.Close(ctx)

	var bids []*model.Bid
	if err = cursor.All(ctx, &bids); err != nil {
		return nil, fmt.Errorf("failed to decode bids: %w", err)
	}

	return bids, nil
}

func (r *mongoBidRepository) Count(ctx context.Context, filter *model.BidFilter) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, buildBidFilter(filter))
	if err != nil {
		return 0, fmt.Errorf("failed to count bids: %w", err)
	}
	return count, nil
}

func (r *mongoBidRepository) AcceptPending(ctx context.Context, id, ownerID string) (*model.Bid, error) {
	return r.transitionPending(ctx, id, ownerID, model.BidAccepted)
}

func (r *mongoBidRepository) RejectPending(ctx context.Context, id, ownerID string) (*model.Bid, error) {
	return r.transitionPending(ctx, id, ownerID, model.BidRejected)
}

func (r *mongoBidRepository) transitionPending(ctx context.Context, id, ownerID, newStatus string) (*model.Bid, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", bidserrors.ErrInvalidID, id)
	}

	filter := bson.M{
		"_id":      objectID,
		"owner_id": ownerID,
		"status":   model.BidPending,
	}
	update := bson.M{"$set": bson.M{"status": newStatus}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var bid model.Bid
	err = r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&bid)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, bidserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to transition bid to %s: %w", newStatus, err)
	}

	return &bid, nil
}

func (r *mongoBidRepository) FindOverlappingPending(ctx context.Context, vehicleID string, start, end time.Time, excludeID string) ([]*model.Bid, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter, err := overlapFilter(vehicleID, start, end, excludeID)
	if err != nil {
		return nil, err
	}

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to find overlapping bids: %w", err)
	}
	defer cursor.Close(ctx)

	var bids []*model.Bid
	if err = cursor.All(ctx, &bids); err != nil {
		return nil, fmt.Errorf("failed to decode overlapping bids: %w", err)
	}

	return bids, nil
}

func (r *mongoBidRepository) RejectOverlappingPending(ctx context.Context, vehicleID string, start, end time.Time, excludeID string) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	filter, err := overlapFilter(vehicleID, start, end, excludeID)
	if err != nil {
		return 0, err
	}

	result, err := r.collection.UpdateMany(ctx, filter, bson.M{
		"$set": bson.M{"status": model.BidRejected},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to reject overlapping bids: %w", err)
	}
	return result.ModifiedCount, nil
}

func (r *mongoBidRepository) DeleteOverlappingPending(ctx context.Context, vehicleID string, start, end time.Time, excludeID string) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	filter, err := overlapFilter(vehicleID, start, end, excludeID)
	if err != nil {
		return 0, err
	}

	result, err := r.collection.DeleteMany(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to delete overlapping bids: %w", err)
	}
	return result.DeletedCount, nil
}

func (r *mongoBidRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}

// overlapFilter selects every OTHER pending bid on the vehicle whose inclusive
// date range touches [start, end]. Scoping by status keeps the cascade
// idempotent under transaction retries.
func overlapFilter(vehicleID string, start, end time.Time, excludeID string) (bson.M, error) {
	objectID, err := primitive.ObjectIDFromHex(excludeID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", bidserrors.ErrInvalidID, excludeID)
	}

	return bson.M{
		"_id":        bson.M{"$ne": objectID},
		"vehicle_id": vehicleID,
		"status":     model.BidPending,
		"start_date": bson.M{"$lte": end},
		"end_date":   bson.M{"$gte": start},
	}, nil
}

func buildBidFilter(f *model.BidFilter) bson.M {
	filter := bson.M{}
	if f == nil {
		return filter
	}

	if f.Status != "" {
		filter["status"] = f.Status
	}
	if f.VehicleID != "" {
		filter["vehicle_id"] = f.VehicleID
	}
	if f.OwnerID != "" {
		filter["owner_id"] = f.OwnerID
	}
	if f.Category != "" {
		filter["vehicle.category"] = f.Category
	}
	if f.RenterEmail != "" {
		filter["renter.email"] = f.RenterEmail
	}

	amount := bson.M{}
	if f.MinAmount != nil {
		amount["$gte"] = *f.MinAmount
	}
	if f.MaxAmount != nil {
		amount["$lte"] = *f.MaxAmount
	}
	if len(amount) > 0 {
		filter["amount"] = amount
	}

	return filter
}
