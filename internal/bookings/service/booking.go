package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"

	"agenda/internal/availability/cache"
	"agenda/internal/availability/engine"
	availabilityerrors "agenda/internal/availability/errors"
	availabilityrepo "agenda/internal/availability/repository"
	availabilityservice "agenda/internal/availability/service"
	bookingserrors "agenda/internal/bookings/errors"
	"agenda/internal/bookings/events"
	"agenda/internal/bookings/repository"
	"agenda/internal/bookings/validator"
	"agenda/pkg/config"
	apperrors "agenda/pkg/errors"
	"agenda/pkg/logger"
	"agenda/pkg/metrics"
	"agenda/pkg/model"
	"agenda/pkg/sanitizer"
	"agenda/pkg/timewindow"
)

// BookingResult is a committed booking together with the warnings the
// conflict check raised for it.
type BookingResult struct {
	*model.Booking
	Warnings []engine.Conflict `json:"warnings,omitempty"`
}

type BookingService interface {
	Create(ctx context.Context, booking *model.Booking) (*BookingResult, error)
	GetByID(ctx context.Context, id string) (*model.Booking, error)
	Search(ctx context.Context, businessID string, from, to *time.Time, limit int, offset int64) ([]*model.Booking, int64, error)
	Reschedule(ctx context.Context, id string, change *model.BookingReschedule) (*BookingResult, error)
	UpdateStatus(ctx context.Context, id string, status model.BookingStatus) (*model.Booking, error)
}

type bookingService struct {
	repo      repository.BookingRepository
	lockRepo  repository.BookingLockRepository
	loader    availabilityrepo.SnapshotLoader
	slots     cache.SlotCache
	publisher events.Publisher
	validator *validator.BookingValidator
	checker   *engine.ConflictChecker
	cfg       *config.Config
	log       *logger.Logger
	now       func() time.Time
}

func NewBookingService(
	repo repository.BookingRepository,
	lockRepo repository.BookingLockRepository,
	loader availabilityrepo.SnapshotLoader,
	slots cache.SlotCache,
	publisher events.Publisher,
	validator *validator.BookingValidator,
	cfg *config.Config,
) BookingService {
	return &bookingService{
		repo:      repo,
		lockRepo:  lockRepo,
		loader:    loader,
		slots:     slots,
		publisher: publisher,
		validator: validator,
		checker:   engine.NewConflictChecker(),
		cfg:       cfg,
		log:       cfg.Log.Component("bookings"),
		now:       time.Now,
	}
}

func (s *bookingService) Create(ctx context.Context, booking *model.Booking) (*BookingResult, error) {
	sanitizer.SanitizeBooking(booking)
	if err := s.validator.ValidateCreate(booking); err != nil {
		s.log.Warn("Booking validation failed", "error", err)
		metrics.IncBookingWrite("create", "invalid")
		return nil, apperrors.Validation("Booking validation failed", map[string]any{"error": err.Error()})
	}
	booking.ID = repository.NewBookingID()
	window := timewindow.New(booking.StartTime, booking.EndTime)

	lockCtx, release, err := s.acquireLocks(ctx, booking.BusinessID, window)
	if err != nil {
		metrics.IncBookingWrite("create", outcomeOf(err))
		return nil, err
	}
	defer release()

	proposal := engine.Proposal{
		ServiceID:  booking.ServiceID,
		StaffID:    booking.StaffID,
		CustomerID: booking.CustomerID,
		Start:      booking.StartTime,
		End:        booking.EndTime,
	}
	warnings, tz, err := s.commit(lockCtx, booking.BusinessID, proposal, func(sessCtx mongo.SessionContext) error {
		if err := s.repo.Create(sessCtx, booking); err != nil {
			return apperrors.Internal("Failed to create booking", err)
		}
		return nil
	})
	metrics.IncBookingWrite("create", outcomeOf(err))
	if err != nil {
		s.log.Warn("Booking not created",
			"business_id", booking.BusinessID,
			"service_id", booking.ServiceID,
			"start_time", booking.StartTime,
			"error", err,
		)
		return nil, err
	}

	s.afterCommit(ctx, model.BookingEvent{
		Type:       model.EventBookingCreated,
		BookingID:  booking.ID,
		BusinessID: booking.BusinessID,
		TimeZone:   tz,
		Booking:    *booking,
	})

	s.log.Info("Booking created successfully",
		"id", booking.ID,
		"business_id", booking.BusinessID,
		"service_id", booking.ServiceID,
		"staff_id", booking.StaffID,
		"start_time", booking.StartTime,
		"warnings", len(warnings),
	)
	return &BookingResult{Booking: booking, Warnings: warnings}, nil
}

func (s *bookingService) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapLookupError(err, id, "Failed to retrieve booking")
	}
	return booking, nil
}

func (s *bookingService) Search(ctx context.Context, businessID string, from, to *time.Time, limit int, offset int64) ([]*model.Booking, int64, error) {
	if businessID == "" {
		return nil, 0, apperrors.InvalidInput("'business_id' query parameter is required")
	}
	if from != nil && to != nil && !to.After(*from) {
		return nil, 0, apperrors.InvalidInput("'to' must be after 'from'")
	}

	var count int64
	var bookings []*model.Booking
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		var err error
		count, err = s.repo.Count(ctx, businessID, from, to)
		if err != nil {
			s.log.Error("Failed to count bookings", "business_id", businessID, "error", err)
			errCount = apperrors.Internal("Failed to count bookings", err)
		}
	}()

	go func() {
		defer wg.Done()
		var err error
		bookings, err = s.repo.Search(ctx, businessID, from, to, limit, offset)
		if err != nil {
			s.log.Error("Failed to search bookings",
				"business_id", businessID,
				"limit", limit,
				"offset", offset,
				"error", err,
			)
			errFind = apperrors.Internal("Failed to search bookings", err)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	s.log.Debug("Booking search completed",
		"business_id", businessID,
		"count", len(bookings),
		"total_count", count,
	)
	return bookings, count, nil
}

func (s *bookingService) Reschedule(ctx context.Context, id string, change *model.BookingReschedule) (*BookingResult, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}
	sanitizer.SanitizeReschedule(change)
	if err := s.validator.ValidateReschedule(change); err != nil {
		s.log.Warn("Reschedule validation failed", "id", id, "error", err)
		metrics.IncBookingWrite("reschedule", "invalid")
		return nil, apperrors.Validation("Invalid reschedule input", map[string]any{"error": err.Error()})
	}

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapLookupError(err, id, "Failed to retrieve booking")
	}
	if !existing.Status.IsActive() {
		return nil, apperrors.Conflict(fmt.Sprintf("A %s booking cannot be rescheduled", existing.Status))
	}

	updated := *existing
	updated.StartTime = change.StartTime
	updated.EndTime = change.EndTime
	if change.StaffID != nil {
		updated.StaffID = *change.StaffID
	}

	lockCtx, release, err := s.acquireLocks(ctx, existing.BusinessID, timewindow.New(updated.StartTime, updated.EndTime))
	if err != nil {
		metrics.IncBookingWrite("reschedule", outcomeOf(err))
		return nil, err
	}
	defer release()

	proposal := engine.Proposal{
		ServiceID:        updated.ServiceID,
		StaffID:          updated.StaffID,
		CustomerID:       updated.CustomerID,
		Start:            updated.StartTime,
		End:              updated.EndTime,
		ExcludeBookingID: id,
	}
	warnings, tz, err := s.commit(lockCtx, existing.BusinessID, proposal, func(sessCtx mongo.SessionContext) error {
		err := s.repo.UpdateWindow(sessCtx, id, updated.StartTime, updated.EndTime, updated.StaffID)
		if errors.Is(err, bookingserrors.ErrStatusChanged) {
			return apperrors.Conflict("Booking was canceled or completed concurrently")
		}
		if err != nil {
			return apperrors.Internal("Failed to reschedule booking", err)
		}
		return nil
	})
	metrics.IncBookingWrite("reschedule", outcomeOf(err))
	if err != nil {
		s.log.Warn("Booking not rescheduled", "id", id, "error", err)
		return nil, err
	}
	updated.UpdatedAt = s.now().UTC().Truncate(time.Millisecond)

	s.afterCommit(ctx, model.BookingEvent{
		Type:       model.EventBookingRescheduled,
		BookingID:  id,
		BusinessID: updated.BusinessID,
		TimeZone:   tz,
		Booking:    updated,
		Previous:   existing,
	})

	s.log.Info("Booking rescheduled successfully",
		"id", id,
		"from", existing.StartTime,
		"to", updated.StartTime,
		"staff_id", updated.StaffID,
	)
	return &BookingResult{Booking: &updated, Warnings: warnings}, nil
}

// UpdateStatus moves a booking along its lifecycle. Leaving an active
// status frees the slot; confirming keeps it, so neither needs a check.
func (s *bookingService) UpdateStatus(ctx context.Context, id string, status model.BookingStatus) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}
	if err := s.validator.ValidateStatusUpdate(&model.BookingStatusUpdate{Status: status}); err != nil {
		metrics.IncBookingWrite("status", "invalid")
		return nil, apperrors.Validation("Invalid status update", map[string]any{"error": err.Error()})
	}

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapLookupError(err, id, "Failed to retrieve booking")
	}
	if !existing.Status.CanTransition(status) {
		metrics.IncBookingWrite("status", "rejected")
		return nil, apperrors.Conflict(fmt.Sprintf("Cannot change booking status from %s to %s", existing.Status, status))
	}

	if err := s.repo.UpdateStatus(ctx, id, existing.Status, status); err != nil {
		if errors.Is(err, bookingserrors.ErrStatusChanged) {
			metrics.IncBookingWrite("status", "contention")
			return nil, apperrors.Conflict("Booking status changed concurrently, reload and retry")
		}
		metrics.IncBookingWrite("status", "error")
		return nil, apperrors.Internal("Failed to update booking status", err)
	}
	metrics.IncBookingWrite("status", "ok")

	updated := *existing
	updated.Status = status
	updated.UpdatedAt = s.now().UTC().Truncate(time.Millisecond)

	s.afterCommit(ctx, model.BookingEvent{
		Type:       model.EventBookingStatusChanged,
		BookingID:  id,
		BusinessID: updated.BusinessID,
		Booking:    updated,
		Previous:   existing,
	})

	s.log.Info("Booking status updated", "id", id, "from", existing.Status, "to", status)
	return &updated, nil
}

// lockDays lists the UTC dates of window, extended by the largest buffer a
// service may add. Two windows that can conflict always share one of them.
func lockDays(window timewindow.Window) []time.Time {
	end := window.End.Add(model.MaxBufferMinutes * time.Minute).UTC()
	var days []time.Time
	for d := timewindow.Day(window.Start.UTC()).Start; d.Before(end); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// acquireLocks takes the business-day locks covering window in date order.
// The returned context expires no later than the locks do, so a commit run
// with it is abandoned before another writer can take the day over. The
// release func is safe to call once the commit is done.
func (s *bookingService) acquireLocks(ctx context.Context, businessID string, window timewindow.Window) (context.Context, func(), error) {
	owner := uuid.NewString()
	var held []string

	lockCtx, cancel := context.WithTimeout(ctx, s.cfg.BookingLockTTL)
	expiresAt := s.now().UTC().Add(s.cfg.BookingLockTTL)

	release := func() {
		cancel()
		// Release even when the request was canceled.
		releaseCtx := context.WithoutCancel(ctx)
		for _, id := range held {
			if err := s.lockRepo.Release(releaseCtx, id, owner); err != nil {
				s.log.Warn("Failed to release booking lock", "lock_id", id, "error", err)
			}
		}
	}

	for _, day := range lockDays(window) {
		lock := &model.BookingLock{
			ID:        model.BusinessDayLockID(businessID, day),
			Owner:     owner,
			ExpiresAt: expiresAt,
		}
		if err := s.lockRepo.Acquire(ctx, lock); err != nil {
			release()
			if errors.Is(err, bookingserrors.ErrLockHeld) {
				metrics.IncLockContention()
				return nil, nil, apperrors.Conflict("Another booking for this business day is being committed. Please try again.")
			}
			return nil, nil, apperrors.Internal("Failed to acquire booking lock", err)
		}
		held = append(held, lock.ID)
	}
	return lockCtx, release, nil
}

// commit re-runs the conflict check against a snapshot read inside the
// transaction and calls write only when the proposal may proceed. It
// returns the warnings of the check and the business time zone.
func (s *bookingService) commit(ctx context.Context, businessID string, p engine.Proposal, write func(mongo.SessionContext) error) ([]engine.Conflict, string, error) {
	var warnings []engine.Conflict
	var tz string

	if budget := s.cfg.CommitTimeout(); budget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, budget)
		defer cancel()
	}

	err := s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		doc, err := s.loader.LoadSnapshot(sessCtx, businessID, timewindow.New(p.Start, p.End), p.CustomerID)
		if err != nil {
			if errors.Is(err, availabilityerrors.ErrBusinessNotFound) {
				return apperrors.NotFoundWithID("Business", businessID)
			}
			return apperrors.Internal("Failed to load business snapshot", err)
		}
		snap, err := engine.NewSnapshot(doc)
		if err != nil {
			return apperrors.Internal("Stored business data is inconsistent", err)
		}

		result := s.checker.Check(snap, p, s.now())
		availabilityservice.RecordResult(result)
		if !result.CanProceed {
			return apperrors.Rejected("Booking rejected", result.Conflicts)
		}

		if err := write(sessCtx); err != nil {
			return err
		}
		warnings = result.Warnings()
		tz = doc.Business.TimeZone
		return nil
	})
	if err != nil && !apperrors.IsAppError(err) {
		err = apperrors.Internal("Booking transaction failed", err)
	}
	return warnings, tz, err
}

// afterCommit drops cached listings of the touched days and announces the
// write. Both are best effort: the booking is already committed.
func (s *bookingService) afterCommit(ctx context.Context, event model.BookingEvent) {
	event.OccurredAt = s.now().UTC()
	ctx = context.WithoutCancel(ctx)

	for _, date := range event.AffectedDates() {
		if err := s.slots.Invalidate(ctx, event.BusinessID, date); err != nil {
			s.log.Warn("Failed to invalidate slot cache", "business_id", event.BusinessID, "date", date, "error", err)
		}
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.log.Error("Failed to publish booking event",
			"event_type", event.Type,
			"booking_id", event.BookingID,
			"error", err,
		)
	}
}

func mapLookupError(err error, id, message string) error {
	if errors.Is(err, bookingserrors.ErrNotFound) {
		return apperrors.NotFoundWithID("Booking", id)
	}
	if errors.Is(err, bookingserrors.ErrInvalidID) {
		return apperrors.InvalidInput("Invalid booking ID format")
	}
	return apperrors.Internal(message, err)
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return "ok"
	case apperrors.HasCode(err, apperrors.CodeBookingRejected):
		return "rejected"
	case apperrors.HasCode(err, apperrors.CodeConflict):
		return "contention"
	case apperrors.HasCode(err, apperrors.CodeNotFound):
		return "not_found"
	}
	return "error"
}
