package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"agenda/internal/migrations/mongo/validators"
	mongodb "agenda/pkg/db/mongo"
	"agenda/pkg/logger"
)

var (
	ByBusinessIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "business_id", Value: 1}}},
	}

	BookingsIndexes = []mongo.IndexModel{
		// Snapshot loads: active bookings of a business overlapping a span.
		{Keys: bson.D{
			{Key: "business_id", Value: 1},
			{Key: "status", Value: 1},
			{Key: "start_time", Value: 1},
			{Key: "end_time", Value: 1},
		}},
		// Search: every booking of a business by time.
		{Keys: bson.D{
			{Key: "business_id", Value: 1},
			{Key: "start_time", Value: 1},
			{Key: "_id", Value: 1},
		}},
		{Keys: bson.D{
			{Key: "business_id", Value: 1},
			{Key: "staff_id", Value: 1},
			{Key: "start_time", Value: 1},
		}},
		{Keys: bson.D{
			{Key: "customer_id", Value: 1},
			{Key: "start_time", Value: 1},
		}},
	}

	BookingLocksIndexes = []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0),
		},
	}
)

type CollectionDef struct {
	Indexes   []mongo.IndexModel
	Validator bson.M
}

// Collections lists every collection the services use.
func Collections() map[string]CollectionDef {
	return map[string]CollectionDef{
		mongodb.BusinessesCollection:   {Validator: validators.BusinessValidator},
		mongodb.StaffCollection:        {Indexes: ByBusinessIndexes, Validator: validators.StaffValidator},
		mongodb.ServicesCollection:     {Indexes: ByBusinessIndexes, Validator: validators.ServiceValidator},
		mongodb.CustomersCollection:    {Indexes: ByBusinessIndexes, Validator: validators.CustomerValidator},
		mongodb.BookingsCollection:     {Indexes: BookingsIndexes, Validator: validators.BookingValidator},
		mongodb.BookingLocksCollection: {Indexes: BookingLocksIndexes, Validator: validators.BookingLockValidator},
	}
}

func RunMigration(ctx context.Context, db *mongo.Database, log *logger.Logger) error {
	log.Info("Running Mongo migrations", "database", db.Name())

	for name, def := range Collections() {
		if err := ensureCollection(ctx, db, name, def.Validator, log); err != nil {
			return fmt.Errorf("failed to ensure collection %s: %w", name, err)
		}
		if len(def.Indexes) == 0 {
			continue
		}
		if err := ensureIndexes(ctx, db, name, def.Indexes); err != nil {
			return fmt.Errorf("failed to ensure indexes for %s: %w", name, err)
		}
		log.Info("Ensured indexes", "collection", name, "count", len(def.Indexes))
	}

	log.Info("All migrations applied successfully")
	return nil
}

func ensureCollection(ctx context.Context, db *mongo.Database, name string, validator bson.M, log *logger.Logger) error {
	existing, err := db.ListCollectionNames(ctx, bson.D{{Key: "name", Value: name}})
	if err != nil {
		return err
	}

	if len(existing) == 0 {
		log.Info("Creating collection", "collection", name)
		opts := options.CreateCollection().SetValidator(validator)
		if err := db.CreateCollection(ctx, name, opts); err != nil {
			return fmt.Errorf("failed creating %s: %w", name, err)
		}
		return nil
	}

	log.Info("Collection exists, updating validator", "collection", name)
	command := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
	}
	if err := db.RunCommand(ctx, command).Err(); err != nil {
		log.Warn("Failed updating validator", "collection", name, "error", err)
	}
	return nil
}

func ensureIndexes(ctx context.Context, db *mongo.Database, name string, models []mongo.IndexModel) error {
	_, err := db.Collection(name).Indexes().CreateMany(ctx, models)
	return err
}
