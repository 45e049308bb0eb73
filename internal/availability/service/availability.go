package service

import (
	"context"
	"errors"
	"time"

	"agenda/internal/availability/cache"
	"agenda/internal/availability/engine"
	availabilityerrors "agenda/internal/availability/errors"
	"agenda/internal/availability/repository"
	"agenda/internal/availability/validator"
	"agenda/pkg/config"
	apperrors "agenda/pkg/errors"
	"agenda/pkg/logger"
	"agenda/pkg/metrics"
	"agenda/pkg/timewindow"
)

// SlotsResult is a listing response. Advisory is always true: a listed slot
// can still be rejected at commit time.
type SlotsResult struct {
	BusinessID         string                    `json:"business_id"`
	ServiceID          string                    `json:"service_id"`
	Date               string                    `json:"date"`
	StaffID            string                    `json:"staff_id,omitempty"`
	GranularityMinutes int                       `json:"granularity_minutes"`
	Advisory           bool                      `json:"advisory"`
	Cached             bool                      `json:"-"`
	Slots              []engine.SlotAvailability `json:"slots"`
}

type AvailabilityService interface {
	ListSlots(ctx context.Context, q *validator.SlotsQuery) (*SlotsResult, error)
	Check(ctx context.Context, businessID string, req *validator.CheckRequest) (*engine.Result, error)
	// InvalidateDays drops cached listings of businessID for each date (YYYY-MM-DD).
	InvalidateDays(ctx context.Context, businessID string, dates ...string) error
}

type availabilityService struct {
	loader    repository.SnapshotLoader
	cache     cache.SlotCache
	validator *validator.AvailabilityValidator
	engine    *engine.Availability
	checker   *engine.ConflictChecker
	cfg       *config.Config
	log       *logger.Logger
	now       func() time.Time
}

func NewAvailabilityService(
	loader repository.SnapshotLoader,
	slotCache cache.SlotCache,
	validator *validator.AvailabilityValidator,
	cfg *config.Config,
) AvailabilityService {
	return &availabilityService{
		loader:    loader,
		cache:     slotCache,
		validator: validator,
		engine:    engine.NewAvailability(cfg.SlotGranularityMinutes),
		checker:   engine.NewConflictChecker(),
		cfg:       cfg,
		log:       cfg.Log.Component("availability"),
		now:       time.Now,
	}
}

func (s *availabilityService) ListSlots(ctx context.Context, q *validator.SlotsQuery) (*SlotsResult, error) {
	if err := s.validator.ValidateSlotsQuery(q); err != nil {
		s.log.Warn("Slots query validation failed", "error", err)
		return nil, apperrors.Validation("Invalid slots query", map[string]any{"error": err.Error()})
	}
	date, err := timewindow.ParseDate(q.Date, time.UTC)
	if err != nil {
		return nil, apperrors.InvalidInput("date must be YYYY-MM-DD")
	}

	result := &SlotsResult{
		BusinessID:         q.BusinessID,
		ServiceID:          q.ServiceID,
		Date:               q.Date,
		StaffID:            q.StaffID,
		GranularityMinutes: s.engine.Granularity(),
		Advisory:           true,
	}

	key := cache.SlotsKey{
		BusinessID:  q.BusinessID,
		ServiceID:   q.ServiceID,
		Date:        q.Date,
		StaffID:     q.StaffID,
		Granularity: s.engine.Granularity(),
	}
	lookup, err := s.cache.Get(ctx, key)
	cacheable := err == nil
	switch {
	case err != nil:
		metrics.IncSlotsCache("error")
		s.log.Warn("Slot cache lookup failed", "business_id", q.BusinessID, "error", err)
	case lookup.Hit:
		metrics.IncSlotsCache("hit")
		result.Slots = lookup.Slots
		result.Cached = true
		return result, nil
	default:
		metrics.IncSlotsCache("miss")
	}

	snap, err := s.loadSnapshot(ctx, q.BusinessID, timewindow.Day(date))
	if err != nil {
		return nil, err
	}

	slots, err := s.engine.ListAvailableSlots(snap, q.ServiceID, date, q.StaffID)
	if err != nil {
		return nil, mapEngineError(err, q.ServiceID, q.StaffID)
	}
	result.Slots = slots
	metrics.ObserveSlotsListed(q.ServiceID, len(slots))

	// Without the version read before loading, a store could outlive an
	// invalidation it never saw.
	if cacheable {
		if err := s.cache.Set(ctx, key, lookup.Version, slots); err != nil {
			s.log.Warn("Slot cache store failed", "business_id", q.BusinessID, "error", err)
		}
	}

	s.log.Debug("Slots listed",
		"business_id", q.BusinessID,
		"service_id", q.ServiceID,
		"date", q.Date,
		"staff_id", q.StaffID,
		"count", len(slots),
	)
	return result, nil
}

func (s *availabilityService) Check(ctx context.Context, businessID string, req *validator.CheckRequest) (*engine.Result, error) {
	if businessID == "" {
		return nil, apperrors.InvalidInput("Business ID cannot be empty")
	}
	if err := s.validator.ValidateCheck(req); err != nil {
		s.log.Warn("Check request validation failed", "business_id", businessID, "error", err)
		return nil, apperrors.Validation("Invalid check request", map[string]any{"error": err.Error()})
	}

	span := timewindow.New(req.StartTime, req.EndTime)
	if span.End.Before(span.Start) {
		span = timewindow.New(req.EndTime, req.StartTime)
	}
	snap, err := s.loadSnapshot(ctx, businessID, span, req.CustomerID)
	if err != nil {
		return nil, err
	}

	result := s.checker.Check(snap, engine.Proposal{
		ServiceID:        req.ServiceID,
		StaffID:          req.StaffID,
		CustomerID:       req.CustomerID,
		Start:            req.StartTime,
		End:              req.EndTime,
		ExcludeBookingID: req.ExcludeBookingID,
	}, s.now())

	RecordResult(result)
	s.log.Debug("Conflict check completed",
		"business_id", businessID,
		"service_id", req.ServiceID,
		"staff_id", req.StaffID,
		"can_proceed", result.CanProceed,
		"conflicts", len(result.Conflicts),
	)
	return &result, nil
}

func (s *availabilityService) InvalidateDays(ctx context.Context, businessID string, dates ...string) error {
	var errs []error
	for _, date := range dates {
		if err := s.cache.Invalidate(ctx, businessID, date); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *availabilityService) loadSnapshot(ctx context.Context, businessID string, span timewindow.Window, customerIDs ...string) (*engine.Snapshot, error) {
	doc, err := s.loader.LoadSnapshot(ctx, businessID, span, customerIDs...)
	if err != nil {
		if errors.Is(err, availabilityerrors.ErrBusinessNotFound) {
			return nil, apperrors.NotFoundWithID("Business", businessID)
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, apperrors.Timeout("Loading business snapshot timed out")
		}
		s.log.Error("Failed to load snapshot", "business_id", businessID, "error", err)
		return nil, apperrors.Internal("Failed to load business snapshot", err)
	}

	snap, err := engine.NewSnapshot(doc)
	if err != nil {
		s.log.Error("Stored business data is inconsistent", "business_id", businessID, "error", err)
		return nil, apperrors.Internal("Stored business data is inconsistent", err)
	}
	return snap, nil
}

// RecordResult exports the outcome of a check to the metrics registry.
func RecordResult(result engine.Result) {
	metrics.IncCheck(result.CanProceed)
	for _, c := range result.Conflicts {
		metrics.IncConflict(string(c.Kind), string(c.Severity))
	}
}

func mapEngineError(err error, serviceID, staffID string) error {
	switch {
	case errors.Is(err, availabilityerrors.ErrServiceNotFound):
		return apperrors.NotFoundWithID("Service", serviceID)
	case errors.Is(err, availabilityerrors.ErrStaffNotFound):
		return apperrors.NotFoundWithID("Staff member", staffID)
	case errors.Is(err, availabilityerrors.ErrServiceInactive):
		return apperrors.InvalidInput("Service is not active")
	case errors.Is(err, availabilityerrors.ErrStaffInactive):
		return apperrors.InvalidInput("Staff member is not active")
	}
	return apperrors.Internal("Failed to list slots", err)
}
