package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	bookingserrors "agenda/internal/bookings/errors"
	"agenda/pkg/config"
	mongodb "agenda/pkg/db/mongo"
	"agenda/pkg/model"
)

// BookingLockRepository stores advisory locks. A lock is an _id-unique
// document; inserting an existing id fails with ErrLockHeld.
type BookingLockRepository interface {
	Acquire(ctx context.Context, lock *model.BookingLock) error
	// Release deletes the lock only while owner still holds it.
	Release(ctx context.Context, lockID, owner string) error
}

type mongoBookingLockRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewBookingLockRepository(cfg *config.Config) BookingLockRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoBookingLockRepository{
		cfg:        cfg,
		collection: db.Collection(mongodb.BookingLocksCollection),
	}
}

func (r *mongoBookingLockRepository) Acquire(ctx context.Context, lock *model.BookingLock) error {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	lock.CreatedAt = time.Now().UTC()
	_, err := r.collection.InsertOne(ctx, lock)
	if err == nil {
		return nil
	}
	if !mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("failed to acquire booking lock: %w", err)
	}

	// The TTL monitor runs about once a minute, so an expired lock can
	// outlive its expires_at. Take it over instead of waiting.
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": lock.ID, "expires_at": bson.M{"$lte": lock.CreatedAt}})
	if err != nil {
		return fmt.Errorf("failed to reap expired booking lock: %w", err)
	}
	if res.DeletedCount == 0 {
		return bookingserrors.ErrLockHeld
	}
	if _, err := r.collection.InsertOne(ctx, lock); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return bookingserrors.ErrLockHeld
		}
		return fmt.Errorf("failed to acquire booking lock: %w", err)
	}
	return nil
}

func (r *mongoBookingLockRepository) Release(ctx context.Context, lockID, owner string) error {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": lockID, "owner": owner})
	return err
}
