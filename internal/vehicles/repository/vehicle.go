package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	vehicleerrors "drivebid/internal/vehicles/errors"
	"drivebid/pkg/config"
	"drivebid/pkg/model"
)

const (
	CollectionName = "Vehicles"
)

type VehicleRepository interface {
	Create(ctx context.Context, vehicle *model.Vehicle) error
	FindByID(ctx context.Context, id string) (*model.Vehicle, error)
	FindAll(ctx context.Context, limit int, offset int64) ([]*model.Vehicle, error)
	Count(ctx context.Context) (int64, error)

	// AdvanceTravelled moves the vehicle's travelled watermark forward to
	// reading. The update matches only when the stored value does not exceed
	// the reading, so a lost race surfaces as ErrStaleReading instead of
	// silently rewinding the odometer.
	AdvanceTravelled(ctx context.Context, id string, reading float64) error
}

type mongoVehicleRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoVehicleRepository(cfg *config.Config) VehicleRepository {
	db := cfg.Client.Mongo.Client.Database(cfg.MongoDatabaseName)
	return &mongoVehicleRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoVehicleRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

func (r *mongoVehicleRepository) Create(ctx context.Context, vehicle *model.Vehicle) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.InsertOne(ctx, vehicle)
	if err != nil {
		return fmt.Errorf("failed to create vehicle: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		vehicle.ID = oid.Hex()
	}
	return nil
}

func (r *mongoVehicleRepository) FindByID(ctx context.Context, id string) (*model.Vehicle, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, vehicleerrors.ErrInvalidID
	}

	var vehicle model.Vehicle
	if err := r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&vehicle); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, vehicleerrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find vehicle: %w", err)
	}

	return &vehicle, nil
}

func (r *mongoVehicleRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.Vehicle, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	findOptions := options.Find().
		SetLimit(int64(limit)).
		SetSkip(offset).
		SetSort(bson.D{{Key: "name", Value: 1}})

	cursor, err := r.collection.Find(ctx, bson.M{}, findOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to list vehicles: %w", err)
	}
	defer cursor.Close(ctx)

	vehicles := make([]*model.Vehicle, 0)
	if err := cursor.All(ctx, &vehicles); err != nil {
		return nil, fmt.Errorf("failed to decode vehicles: %w", err)
	}

	return vehicles, nil
}

func (r *mongoVehicleRepository) Count(ctx context.Context) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	return r.collection.CountDocuments(ctx, bson.M{})
}

func (r *mongoVehicleRepository) AdvanceTravelled(ctx context.Context, id string, reading float64) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return vehicleerrors.ErrInvalidID
	}

	filter := bson.M{
		"_id":       oid,
		"travelled": bson.M{"$lte": reading},
	}
	update := bson.M{
		"$set": bson.M{"travelled": reading},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to advance travelled distance: %w", err)
	}
	if result.MatchedCount == 0 {
		exists, countErr := r.collection.CountDocuments(ctx, bson.M{"_id": oid})
		if countErr != nil {
			return fmt.Errorf("failed to advance travelled distance: %w", countErr)
		}
		if exists == 0 {
			return vehicleerrors.ErrNotFound
		}
		return vehicleerrors.ErrStaleReading
	}

	return nil
}
