package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	bookingserrors "gearbase/internal/bookings/errors"
	"gearbase/internal/bookings/repository"
	"gearbase/internal/bookings/validator"
	"gearbase/internal/events"
	"gearbase/pkg/config"
	apperrors "gearbase/pkg/errors"
	"gearbase/pkg/middleware"
	"gearbase/pkg/model"
	"gearbase/pkg/sanitizer"

	"go.mongodb.org/mongo-driver/mongo"
)

// AssetCatalog is the slice of the asset store the booking lifecycle needs:
// existence and availability of the assets being reserved.
type AssetCatalog interface {
	FindByIDs(ctx context.Context, orgID string, ids []string) ([]*model.Asset, error)
}

type BookingService interface {
	Create(ctx context.Context, scope middleware.Scope, booking *model.Booking) error
	GetByID(ctx context.Context, scope middleware.Scope, id string) (*model.Booking, error)
	GetAll(ctx context.Context, scope middleware.Scope, limit int, offset int64) ([]*model.Booking, int64, error)
	Update(ctx context.Context, scope middleware.Scope, id string, updates *model.BookingUpdate) error
	Transition(ctx context.Context, scope middleware.Scope, id string, target model.BookingStatus) (*model.Booking, error)
	Delete(ctx context.Context, scope middleware.Scope, id string) error
	CheckConflicts(ctx context.Context, scope middleware.Scope, query *model.ConflictQuery) (*model.ConflictReport, error)
}

type bookingService struct {
	repo      repository.BookingRepository
	lockRepo  repository.AssetLockRepository
	assets    AssetCatalog
	validator *validator.BookingValidator
	publisher events.Publisher
	cfg       *config.Config
}

func NewBookingService(
	repo repository.BookingRepository,
	lockRepo repository.AssetLockRepository,
	assets AssetCatalog,
	validator *validator.BookingValidator,
	publisher events.Publisher,
	cfg *config.Config,
) BookingService {
	return &bookingService{
		repo:      repo,
		lockRepo:  lockRepo,
		assets:    assets,
		validator: validator,
		publisher: publisher,
		cfg:       cfg,
	}
}

func (s *bookingService) Create(ctx context.Context, scope middleware.Scope, booking *model.Booking) error {
	if booking.Status == "" {
		booking.Status = model.StatusDraft
	}
	if booking.Status != model.StatusDraft {
		return apperrors.InvalidInput("Bookings are created as drafts; use the transition operation to reserve")
	}

	booking.ID = ""
	booking.OrganizationID = scope.OrganizationID
	booking.CreatedBy = scope.ActorID

	s.sanitize(booking)
	if err := s.validate(booking); err != nil {
		return err
	}

	if err := s.repo.Create(ctx, booking); err != nil {
		s.cfg.Log.Error("Failed to create booking", "error", err)
		return apperrors.Internal("Failed to create booking", err)
	}

	s.cfg.Log.Info("Booking created",
		"id", booking.ID,
		"organization_id", booking.OrganizationID,
		"asset_count", len(booking.AssetIDs),
	)
	return nil
}

func (s *bookingService) GetByID(ctx context.Context, scope middleware.Scope, id string) (*model.Booking, error) {
	return s.loadScoped(ctx, scope, id)
}

func (s *bookingService) GetAll(ctx context.Context, scope middleware.Scope, limit int, offset int64) ([]*model.Booking, int64, error) {
	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	var count int64
	var bookings []*model.Booking
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx, scope.OrganizationID)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count bookings", "error", errCount)
			errCount = apperrors.Internal("Failed to count bookings", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		bookings, errFind = s.repo.FindAll(ctx, scope.OrganizationID, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list bookings", "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve bookings", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return bookings, count, nil
}

func (s *bookingService) Update(ctx context.Context, scope middleware.Scope, id string, updates *model.BookingUpdate) error {
	existing, err := s.loadScoped(ctx, scope, id)
	if err != nil {
		return err
	}
	if existing.Status.Terminal() {
		return apperrors.Conflict(fmt.Sprintf("Cannot edit a %s booking", existing.Status))
	}

	if err := s.validator.ValidateUpdate(updates); err != nil {
		s.cfg.Log.Warn("Booking update validation failed", "id", id, "error", err)
		return apperrors.Validation("Invalid update input", map[string]any{"error": err.Error()})
	}

	merged := s.mergeUpdates(existing, updates)
	s.sanitize(merged)
	if err := s.validate(merged); err != nil {
		return err
	}

	// An edit that moves the window or swaps assets on an active booking
	// must pass the same conflict gate as the original reservation.
	if existing.Status.Active() && s.occupancyChanged(existing, merged) {
		return s.updateWithConflictGate(ctx, scope, id, merged)
	}

	if err := s.repo.Update(ctx, id, merged); err != nil {
		s.cfg.Log.Error("Failed to update booking", "id", id, "error", err)
		return apperrors.Internal("Failed to update booking", err)
	}

	s.cfg.Log.Info("Booking updated", "id", id)
	return nil
}

func (s *bookingService) updateWithConflictGate(ctx context.Context, scope middleware.Scope, id string, merged *model.Booking) error {
	release, err := s.acquireAssetLocks(ctx, merged.AssetIDs)
	if err != nil {
		return err
	}
	defer release()

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		report, err := s.detectConflicts(sessCtx, scope.OrganizationID, merged.AssetIDs, merged.StartTime, merged.EndTime, id)
		if err != nil {
			return err
		}
		if !report.Clear {
			return conflictError(report)
		}
		if err := s.repo.Update(sessCtx, id, merged); err != nil {
			return apperrors.Internal("Failed to update booking", err)
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to update active booking", "id", id, "error", err)
		return err
	}

	s.cfg.Log.Info("Booking updated", "id", id)
	return nil
}

func (s *bookingService) Transition(ctx context.Context, scope middleware.Scope, id string, target model.BookingStatus) (*model.Booking, error) {
	booking, err := s.loadScoped(ctx, scope, id)
	if err != nil {
		return nil, err
	}

	from := booking.Status
	if !canTransition(from, target) {
		appErr := apperrors.StateTransition(string(from), string(target))
		appErr.Details["allowed"] = TransitionTargets(from)
		return nil, appErr
	}

	switch target {
	case model.StatusReserved:
		if err := s.reserve(ctx, scope, booking); err != nil {
			return nil, err
		}
	case model.StatusCheckedOut:
		if err := s.guardCheckout(booking); err != nil {
			return nil, err
		}
		if err := s.persistStatus(ctx, booking, target); err != nil {
			return nil, err
		}
	default:
		if err := s.persistStatus(ctx, booking, target); err != nil {
			return nil, err
		}
	}

	s.cfg.Log.Info("Booking transitioned",
		"id", booking.ID,
		"from", from,
		"to", booking.Status,
	)
	s.publisher.BookingTransitioned(ctx, booking, from, scope.ActorID)
	return booking, nil
}

func (s *bookingService) Delete(ctx context.Context, scope middleware.Scope, id string) error {
	booking, err := s.loadScoped(ctx, scope, id)
	if err != nil {
		return err
	}

	// Deleting an already cancelled booking is a no-op, not an error.
	if booking.Status == model.StatusCancelled {
		return nil
	}
	if !canTransition(booking.Status, model.StatusCancelled) {
		appErr := apperrors.StateTransition(string(booking.Status), string(model.StatusCancelled))
		appErr.Details["allowed"] = TransitionTargets(booking.Status)
		return appErr
	}

	from := booking.Status
	if err := s.persistStatus(ctx, booking, model.StatusCancelled); err != nil {
		return err
	}

	s.cfg.Log.Info("Booking cancelled", "id", id, "from", from)
	s.publisher.BookingTransitioned(ctx, booking, from, scope.ActorID)
	return nil
}

func (s *bookingService) CheckConflicts(ctx context.Context, scope middleware.Scope, query *model.ConflictQuery) (*model.ConflictReport, error) {
	if err := s.validator.ValidateConflictQuery(query); err != nil {
		return nil, apperrors.Validation("Invalid conflict query", map[string]any{"error": err.Error()})
	}

	report, err := s.detectConflicts(ctx, scope.OrganizationID, query.AssetIDs, query.StartTime, query.EndTime, query.ExcludeBookingID)
	if err != nil {
		s.cfg.Log.Error("Failed to check conflicts", "error", err)
		return nil, err
	}
	return report, nil
}

// --- Lifecycle guards ---

// reserve runs the full reservation gate: asset availability, the backdating
// window, then a conflict re-check under per-asset locks inside a
// transaction. The re-check is what closes the race between two requests
// that both saw a clear window.
func (s *bookingService) reserve(ctx context.Context, scope middleware.Scope, booking *model.Booking) error {
	if len(booking.AssetIDs) == 0 {
		return apperrors.Validation("Cannot reserve a booking with no assets", nil)
	}

	earliest := time.Now().Add(-s.cfg.BackdateLeniency)
	if booking.StartTime.Before(earliest) {
		return apperrors.Validation("Cannot reserve a window that starts in the past", map[string]any{
			"start_time": booking.StartTime,
		})
	}

	if err := s.guardAssetAvailability(ctx, scope.OrganizationID, booking.AssetIDs); err != nil {
		return err
	}

	release, err := s.acquireAssetLocks(ctx, booking.AssetIDs)
	if err != nil {
		return err
	}
	defer release()

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		report, err := s.detectConflicts(sessCtx, scope.OrganizationID, booking.AssetIDs, booking.StartTime, booking.EndTime, booking.ID)
		if err != nil {
			return err
		}
		if !report.Clear {
			return conflictError(report)
		}
		if err := s.repo.UpdateStatus(sessCtx, booking.ID, model.StatusReserved); err != nil {
			return apperrors.Internal("Failed to reserve booking", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	booking.Status = model.StatusReserved
	return nil
}

func (s *bookingService) guardCheckout(booking *model.Booking) error {
	opens := booking.StartTime.Add(-s.cfg.CheckoutGrace)
	if time.Now().Before(opens) {
		return apperrors.Validation("Checkout is not open yet", map[string]any{
			"opens_at": opens,
		})
	}
	return nil
}

func (s *bookingService) guardAssetAvailability(ctx context.Context, orgID string, assetIDs []string) error {
	assets, err := s.assets.FindByIDs(ctx, orgID, assetIDs)
	if err != nil {
		return apperrors.Internal("Failed to load assets", err)
	}

	found := make(map[string]*model.Asset, len(assets))
	for _, a := range assets {
		found[a.ID] = a
	}

	var missing, unavailable []string
	for _, id := range assetIDs {
		asset, ok := found[id]
		if !ok {
			missing = append(missing, id)
			continue
		}
		if !asset.Available {
			unavailable = append(unavailable, id)
		}
	}

	if len(missing) > 0 {
		return apperrors.Validation("Unknown assets in booking", map[string]any{
			"asset_ids": missing,
		})
	}
	if len(unavailable) > 0 {
		return apperrors.ConflictWithDetails("Assets are not available for reservation", map[string]any{
			"asset_ids": unavailable,
		})
	}
	return nil
}

func (s *bookingService) persistStatus(ctx context.Context, booking *model.Booking, target model.BookingStatus) error {
	if err := s.repo.UpdateStatus(ctx, booking.ID, target); err != nil {
		s.cfg.Log.Error("Failed to persist booking status", "id", booking.ID, "target", target, "error", err)
		return apperrors.Internal("Failed to update booking status", err)
	}
	booking.Status = target
	return nil
}

// --- Conflict detection ---

func (s *bookingService) detectConflicts(ctx context.Context, orgID string, assetIDs []string, from, to time.Time, excludeID string) (*model.ConflictReport, error) {
	report := &model.ConflictReport{Clear: true}

	for _, assetID := range assetIDs {
		overlapping, err := s.repo.FindActiveOverlapping(ctx, orgID, assetID, from, to, excludeID)
		if err != nil {
			return nil, apperrors.Internal("Failed to check overlapping bookings", err)
		}

		verdict := model.AssetVerdict{
			AssetID: assetID,
			Clear:   len(overlapping) == 0,
		}
		for _, b := range overlapping {
			verdict.Collisions = append(verdict.Collisions, model.Collision{
				BookingID:   b.ID,
				BookingName: b.Name,
				StartTime:   b.StartTime,
				EndTime:     b.EndTime,
			})
		}
		if !verdict.Clear {
			report.Clear = false
		}
		report.Verdicts = append(report.Verdicts, verdict)
	}

	return report, nil
}

func conflictError(report *model.ConflictReport) error {
	return apperrors.ConflictWithDetails("Requested window collides with existing bookings", map[string]any{
		"verdicts": report.Conflicted(),
	})
}

// --- Advisory locks ---

// acquireAssetLocks takes one advisory lock per asset, always in sorted
// order so two requests contending on overlapping asset sets cannot
// deadlock. On failure every lock taken so far is released.
func (s *bookingService) acquireAssetLocks(ctx context.Context, assetIDs []string) (func(), error) {
	sorted := make([]string, len(assetIDs))
	copy(sorted, assetIDs)
	sort.Strings(sorted)

	var held []string
	release := func() {
		for _, lockID := range held {
			if err := s.lockRepo.Delete(ctx, lockID); err != nil {
				s.cfg.Log.Warn("Failed to release asset lock", "lock_id", lockID, "error", err)
			}
		}
	}

	for _, assetID := range sorted {
		lock := &model.AssetLock{
			ID:        fmt.Sprintf("asset_lock_%s", assetID),
			ExpiresAt: time.Now().Add(s.cfg.AssetLockTTL),
		}
		if _, err := s.lockRepo.Create(ctx, lock); err != nil {
			release()
			if mongo.IsDuplicateKeyError(err) {
				return nil, apperrors.Conflict("An asset in this booking is being reserved by another request. Please try again.")
			}
			return nil, apperrors.Internal("Failed to acquire asset lock", err)
		}
		held = append(held, lock.ID)
	}

	return release, nil
}

// --- Helpers ---

// loadScoped fetches the booking and enforces tenancy. A booking that exists
// but belongs to another organization comes back as Forbidden, distinct from
// NotFound, so an authorization failure is never disguised as a missing row.
func (s *bookingService) loadScoped(ctx context.Context, scope middleware.Scope, id string) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Booking", id)
		}
		if errors.Is(err, bookingserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid booking ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve booking", err)
	}

	if booking.OrganizationID != scope.OrganizationID {
		return nil, apperrors.Forbidden("Booking belongs to another organization")
	}

	return booking, nil
}

func (s *bookingService) sanitize(b *model.Booking) {
	b.Name = sanitizer.SanitizeName(b.Name)
	b.Tags = sanitizer.SanitizeTags(b.Tags)
}

func (s *bookingService) mergeUpdates(existing *model.Booking, updates *model.BookingUpdate) *model.Booking {
	merged := *existing

	if updates.Name != "" {
		merged.Name = updates.Name
	}
	if updates.CustodianID != "" {
		merged.CustodianID = updates.CustodianID
	}
	if updates.StartTime != nil {
		merged.StartTime = *updates.StartTime
	}
	if updates.EndTime != nil {
		merged.EndTime = *updates.EndTime
	}
	if updates.AssetIDs != nil {
		merged.AssetIDs = *updates.AssetIDs
	}
	if updates.Tags != nil {
		merged.Tags = *updates.Tags
	}

	return &merged
}

func (s *bookingService) occupancyChanged(existing, merged *model.Booking) bool {
	if !existing.StartTime.Equal(merged.StartTime) || !existing.EndTime.Equal(merged.EndTime) {
		return true
	}
	if len(existing.AssetIDs) != len(merged.AssetIDs) {
		return true
	}
	for i := range existing.AssetIDs {
		if existing.AssetIDs[i] != merged.AssetIDs[i] {
			return true
		}
	}
	return false
}

func (s *bookingService) validate(booking *model.Booking) error {
	if err := s.validator.Validate(booking); err != nil {
		s.cfg.Log.Warn("Booking validation failed", "error", err)
		return apperrors.Validation("Booking validation failed", map[string]any{"error": err.Error()})
	}
	return nil
}
