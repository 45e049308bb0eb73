package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	availabilityerrors "agenda/internal/availability/errors"
	"agenda/pkg/config"
	mongodb "agenda/pkg/db/mongo"
	"agenda/pkg/model"
	"agenda/pkg/timewindow"
)

// BookingMargin widens the booking query around the requested span so that
// bookings whose buffered end reaches into it, and days that shift under the
// business time zone, are still loaded.
const BookingMargin = 24 * time.Hour

// SnapshotLoader reads the state of one business needed to evaluate the
// engine over span. Only customers listed in customerIDs are loaded.
type SnapshotLoader interface {
	LoadSnapshot(ctx context.Context, businessID string, span timewindow.Window, customerIDs ...string) (*model.Snapshot, error)
}

type SnapshotRepository interface {
	SnapshotLoader
	// SaveSnapshot upserts every entity of snap, keyed by id.
	SaveSnapshot(ctx context.Context, snap *model.Snapshot) error
}

type mongoSnapshotRepository struct {
	cfg        *config.Config
	businesses *mongo.Collection
	staff      *mongo.Collection
	services   *mongo.Collection
	customers  *mongo.Collection
	bookings   *mongo.Collection
}

func NewMongoSnapshotRepository(cfg *config.Config) SnapshotRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoSnapshotRepository{
		cfg:        cfg,
		businesses: db.Collection(mongodb.BusinessesCollection),
		staff:      db.Collection(mongodb.StaffCollection),
		services:   db.Collection(mongodb.ServicesCollection),
		customers:  db.Collection(mongodb.CustomersCollection),
		bookings:   db.Collection(mongodb.BookingsCollection),
	}
}

func (r *mongoSnapshotRepository) LoadSnapshot(ctx context.Context, businessID string, span timewindow.Window, customerIDs ...string) (*model.Snapshot, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var snap model.Snapshot
	if err := r.businesses.FindOne(ctx, bson.M{"_id": businessID}).Decode(&snap.Business); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, availabilityerrors.ErrBusinessNotFound
		}
		return nil, fmt.Errorf("failed to load business: %w", err)
	}

	byBusiness := bson.M{"business_id": businessID}
	if err := findAll(ctx, r.staff, byBusiness, &snap.Staff); err != nil {
		return nil, fmt.Errorf("failed to load staff: %w", err)
	}
	if err := findAll(ctx, r.services, byBusiness, &snap.Services); err != nil {
		return nil, fmt.Errorf("failed to load services: %w", err)
	}

	if len(customerIDs) > 0 {
		filter := bson.M{"business_id": businessID, "_id": bson.M{"$in": customerIDs}}
		if err := findAll(ctx, r.customers, filter, &snap.Customers); err != nil {
			return nil, fmt.Errorf("failed to load customers: %w", err)
		}
	}

	active := make([]string, 0, len(model.ActiveStatuses))
	for _, s := range model.ActiveStatuses {
		active = append(active, string(s))
	}
	bookingFilter := bson.M{
		"business_id": businessID,
		"status":      bson.M{"$in": active},
		"start_time":  bson.M{"$lt": span.End.Add(BookingMargin)},
		"end_time":    bson.M{"$gt": span.Start.Add(-BookingMargin)},
	}
	opts := options.Find().SetSort(bson.D{{Key: "start_time", Value: 1}})
	if err := findAll(ctx, r.bookings, bookingFilter, &snap.Bookings, opts); err != nil {
		return nil, fmt.Errorf("failed to load bookings: %w", err)
	}

	return &snap, nil
}

func findAll[T any](ctx context.Context, coll *mongo.Collection, filter bson.M, out *[]T, opts ...*options.FindOptions) error {
	cursor, err := coll.Find(ctx, filter, opts...)
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)

	return cursor.All(ctx, out)
}

func (r *mongoSnapshotRepository) SaveSnapshot(ctx context.Context, snap *model.Snapshot) error {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	upsert := options.Replace().SetUpsert(true)

	replace := func(coll *mongo.Collection, id string, doc any) error {
		if _, err := coll.ReplaceOne(ctx, bson.M{"_id": id}, doc, upsert); err != nil {
			return fmt.Errorf("failed to upsert %s %s: %w", coll.Name(), id, err)
		}
		return nil
	}

	business := snap.Business
	if business.CreatedAt.IsZero() {
		business.CreatedAt = now
	}
	if err := replace(r.businesses, business.ID, business); err != nil {
		return err
	}
	for _, s := range snap.Staff {
		if s.CreatedAt.IsZero() {
			s.CreatedAt = now
		}
		if err := replace(r.staff, s.ID, s); err != nil {
			return err
		}
	}
	for _, s := range snap.Services {
		if s.CreatedAt.IsZero() {
			s.CreatedAt = now
		}
		if err := replace(r.services, s.ID, s); err != nil {
			return err
		}
	}
	for _, c := range snap.Customers {
		if c.CreatedAt.IsZero() {
			c.CreatedAt = now
		}
		if err := replace(r.customers, c.ID, c); err != nil {
			return err
		}
	}
	for _, b := range snap.Bookings {
		if b.ID == "" {
			return fmt.Errorf("booking for customer %s has no id", b.CustomerID)
		}
		if b.CreatedAt.IsZero() {
			b.CreatedAt = now
		}
		if err := replace(r.bookings, b.ID, b); err != nil {
			return err
		}
	}
	return nil
}
