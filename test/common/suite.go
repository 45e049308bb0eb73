//go:build integration

package common

import (
	"context"
	"os"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"agenda/internal/availability/repository"
	"agenda/pkg/client"
	"agenda/pkg/config"
	mongodb "agenda/pkg/db/mongo"
	"agenda/pkg/model"
)

const healthTimeout = 30 * time.Second

// IntegrationTestSuite talks to running bookings and availability services
// and seeds their Mongo database directly.
type IntegrationTestSuite struct {
	Config       *config.Config
	Bookings     *client.BookingClient
	Availability *client.AvailabilityClient
	Snapshots    repository.SnapshotRepository
}

func NewIntegrationTestSuite(t *testing.T, serviceName string) *IntegrationTestSuite {
	t.Helper()

	cfg := config.Load(serviceName)
	cfg.SetMongo()

	bookingsURL := getEnv("TEST_BOOKINGS_URL", "http://localhost:8080")
	availabilityURL := getEnv("TEST_AVAILABILITY_URL", "http://localhost:8081")

	for _, url := range []string{bookingsURL, availabilityURL} {
		if err := client.NewHttpClient(url).WaitForHealthy(context.Background(), healthTimeout); err != nil {
			t.Fatalf("%s: %v", url, err)
		}
	}

	return &IntegrationTestSuite{
		Config:       cfg,
		Bookings:     client.NewBookingClient(bookingsURL),
		Availability: client.NewAvailabilityClient(availabilityURL),
		Snapshots:    repository.NewMongoSnapshotRepository(cfg),
	}
}

func (s *IntegrationTestSuite) Seed(t *testing.T, snap *model.Snapshot) {
	t.Helper()
	if err := s.Snapshots.SaveSnapshot(context.Background(), snap); err != nil {
		t.Fatalf("failed to seed snapshot: %v", err)
	}
}

// ClearBusiness removes every document owned by businessID. Booking locks
// expire on their own.
func (s *IntegrationTestSuite) ClearBusiness(t *testing.T, businessID string) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db := s.Config.Client.Mongo.Database(s.Config.MongoDatabaseName)
	if _, err := db.Collection(mongodb.BusinessesCollection).DeleteOne(ctx, bson.M{"_id": businessID}); err != nil {
		t.Fatalf("failed to delete business: %v", err)
	}
	for _, name := range []string{
		mongodb.StaffCollection,
		mongodb.ServicesCollection,
		mongodb.CustomersCollection,
		mongodb.BookingsCollection,
	} {
		if _, err := db.Collection(name).DeleteMany(ctx, bson.M{"business_id": businessID}); err != nil {
			t.Fatalf("failed to clear %s: %v", name, err)
		}
	}
}

func (s *IntegrationTestSuite) Teardown() {
	s.Config.GracefulShutdown()
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
