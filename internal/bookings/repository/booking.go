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

	bookingserrors "agenda/internal/bookings/errors"
	"agenda/pkg/config"
	mongodb "agenda/pkg/db/mongo"
	"agenda/pkg/model"
)

type BookingRepository interface {
	Create(ctx context.Context, booking *model.Booking) error
	FindByID(ctx context.Context, id string) (*model.Booking, error)
	Search(ctx context.Context, businessID string, from, to *time.Time, limit int, offset int64) ([]*model.Booking, error)
	Count(ctx context.Context, businessID string, from, to *time.Time) (int64, error)
	// UpdateWindow moves an active booking. It fails with ErrStatusChanged
	// when the booking is no longer active.
	UpdateWindow(ctx context.Context, id string, start, end time.Time, staffID string) error
	// UpdateStatus applies to only while the booking is still in from.
	UpdateStatus(ctx context.Context, id string, from, to model.BookingStatus) error
	ExecuteTransaction(ctx context.Context, fn mongodb.TransactionFunc) error
}

type mongoBookingRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
	txManager  mongodb.TransactionManager
}

func NewMongoBookingRepository(cfg *config.Config) BookingRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoBookingRepository{
		cfg:        cfg,
		collection: db.Collection(mongodb.BookingsCollection),
		txManager:  mongodb.NewTransactionManager(cfg.Client.Mongo),
	}
}

// NewBookingID returns an id in ObjectID hex form. Bookings store it as a
// plain string _id, like every other entity.
func NewBookingID() string {
	return primitive.NewObjectID().Hex()
}

func checkID(id string) error {
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}
	return nil
}

func (r *mongoBookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	if booking.ID == "" {
		booking.ID = NewBookingID()
	}
	booking.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	if _, err := r.collection.InsertOne(ctx, booking); err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}
	return nil
}

func (r *mongoBookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	if err := checkID(id); err != nil {
		return nil, err
	}

	var booking model.Booking
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&booking)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, bookingserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find booking: %w", err)
	}
	return &booking, nil
}

func (r *mongoBookingRepository) Search(ctx context.Context, businessID string, from, to *time.Time, limit int, offset int64) ([]*model.Booking, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetLimit(int64(limit)).
		SetSkip(offset).
		SetSort(bson.D{{Key: "start_time", Value: 1}, {Key: "_id", Value: 1}})

	cursor, err := r.collection.Find(ctx, buildSearchFilter(businessID, from, to), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find bookings: %w", err)
	}
	defer cursor.Close(ctx)

	bookings := []*model.Booking{}
	if err = cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode bookings: %w", err)
	}
	return bookings, nil
}

func (r *mongoBookingRepository) Count(ctx context.Context, businessID string, from, to *time.Time) (int64, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, buildSearchFilter(businessID, from, to))
	if err != nil {
		return 0, fmt.Errorf("failed to count bookings: %w", err)
	}
	return count, nil
}

// buildSearchFilter matches bookings of businessID overlapping [from, to).
// Either bound may be open.
func buildSearchFilter(businessID string, from, to *time.Time) bson.M {
	filter := bson.M{"business_id": businessID}
	if from != nil {
		filter["end_time"] = bson.M{"$gt": *from}
	}
	if to != nil {
		filter["start_time"] = bson.M{"$lt": *to}
	}
	return filter
}

func (r *mongoBookingRepository) UpdateWindow(ctx context.Context, id string, start, end time.Time, staffID string) error {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	if err := checkID(id); err != nil {
		return err
	}

	active := make([]string, 0, len(model.ActiveStatuses))
	for _, s := range model.ActiveStatuses {
		active = append(active, string(s))
	}
	set := bson.M{
		"start_time": start,
		"end_time":   end,
		"updated_at": time.Now().UTC().Truncate(time.Millisecond),
	}
	update := bson.M{"$set": set}
	if staffID == "" {
		update["$unset"] = bson.M{"staff_id": ""}
	} else {
		set["staff_id"] = staffID
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id, "status": bson.M{"$in": active}}, update)
	if err != nil {
		return fmt.Errorf("failed to reschedule booking: %w", err)
	}
	if result.MatchedCount == 0 {
		return bookingserrors.ErrStatusChanged
	}
	return nil
}

func (r *mongoBookingRepository) UpdateStatus(ctx context.Context, id string, from, to model.BookingStatus) error {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	if err := checkID(id); err != nil {
		return err
	}

	update := bson.M{"$set": bson.M{
		"status":     to,
		"updated_at": time.Now().UTC().Truncate(time.Millisecond),
	}}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id, "status": from}, update)
	if err != nil {
		return fmt.Errorf("failed to update booking status: %w", err)
	}
	if result.MatchedCount == 0 {
		return bookingserrors.ErrStatusChanged
	}
	return nil
}

func (r *mongoBookingRepository) ExecuteTransaction(ctx context.Context, fn mongodb.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
