package service

import (
	"context"

	"gearbase/internal/bookings/repository"
	"gearbase/internal/bookings/validator"
	"gearbase/pkg/config"
	apperrors "gearbase/pkg/errors"
	"gearbase/pkg/middleware"
	"gearbase/pkg/model"

	"github.com/google/uuid"
)

// BookingLifecycle is the slice of the booking service a bulk run drives.
// Going through it, rather than the repository, keeps every per-item guard
// (state machine, conflict gate, tenancy) in force during bulk runs.
type BookingLifecycle interface {
	Transition(ctx context.Context, scope middleware.Scope, id string, target model.BookingStatus) (*model.Booking, error)
	Delete(ctx context.Context, scope middleware.Scope, id string) error
}

// BulkRequest names the operation and the selection it applies to.
type BulkRequest struct {
	Operation    model.BulkOperation `json:"operation"`
	TargetStatus model.BookingStatus `json:"target_status,omitempty"`
	Selection    model.Selection     `json:"selection"`
}

// ResolvedSelection is the concrete ID set a selection denotes right now.
// Truncated is set when the cap cut a select-all short of its full count.
type ResolvedSelection struct {
	IDs       []string `json:"ids"`
	Total     int64    `json:"total"`
	Truncated bool     `json:"truncated"`
}

type BulkService interface {
	Resolve(ctx context.Context, scope middleware.Scope, selection *model.Selection) (*ResolvedSelection, error)
	Execute(ctx context.Context, scope middleware.Scope, req *BulkRequest) (*model.BulkOutcome, error)
}

type bulkService struct {
	repo      repository.BookingRepository
	bookings  BookingLifecycle
	validator *validator.BookingValidator
	cfg       *config.Config
}

func NewBulkService(repo repository.BookingRepository, bookings BookingLifecycle, validator *validator.BookingValidator, cfg *config.Config) BulkService {
	return &bulkService{
		repo:      repo,
		bookings:  bookings,
		validator: validator,
		cfg:       cfg,
	}
}

// Resolve materializes a selection against the store as it is now. The result
// is a snapshot for display; Execute re-resolves from scratch, so a resolved
// ID list is never fed back in as the source of truth.
func (s *bulkService) Resolve(ctx context.Context, scope middleware.Scope, selection *model.Selection) (*ResolvedSelection, error) {
	if err := s.validateSelection(selection); err != nil {
		return nil, err
	}

	if selection.Explicit() {
		bookings, err := s.repo.FindByIDs(ctx, scope.OrganizationID, selection.IDs)
		if err != nil {
			s.cfg.Log.Error("Failed to resolve explicit selection", "error", err)
			return nil, apperrors.Internal("Failed to resolve selection", err)
		}
		ids := make([]string, 0, len(bookings))
		for _, b := range bookings {
			ids = append(ids, b.ID)
		}
		return &ResolvedSelection{IDs: ids, Total: int64(len(ids))}, nil
	}

	limit := int64(s.cfg.BulkMaxItems)
	if selection.TakeAll {
		limit = 0
	}

	ids, err := s.repo.FindIDsByFilter(ctx, scope.OrganizationID, selection.Filter, limit)
	if err != nil {
		s.cfg.Log.Error("Failed to resolve select-all", "error", err)
		return nil, apperrors.Internal("Failed to resolve selection", err)
	}

	total, err := s.repo.CountByFilter(ctx, scope.OrganizationID, selection.Filter)
	if err != nil {
		s.cfg.Log.Error("Failed to count select-all", "error", err)
		return nil, apperrors.Internal("Failed to resolve selection", err)
	}

	return &ResolvedSelection{
		IDs:       ids,
		Total:     total,
		Truncated: total > int64(len(ids)),
	}, nil
}

func (s *bulkService) Execute(ctx context.Context, scope middleware.Scope, req *BulkRequest) (*model.BulkOutcome, error) {
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}

	outcome := &model.BulkOutcome{
		OperationID: uuid.NewString(),
		Operation:   req.Operation,
	}

	if req.Operation == model.BulkExport {
		return s.export(ctx, scope, req, outcome)
	}

	// The selection is resolved fresh here, at execution time. IDs the
	// caller named that no longer resolve inside the organization become
	// per-item NOT_FOUND failures rather than silently vanishing.
	targets, ghosts, err := s.resolveTargets(ctx, scope, &req.Selection)
	if err != nil {
		return nil, err
	}

	outcome.Attempted = len(targets) + len(ghosts)
	for _, id := range ghosts {
		outcome.Failures = append(outcome.Failures, model.BulkFailure{
			ItemID:  id,
			Code:    apperrors.CodeNotFound,
			Message: "Booking not found in this organization",
		})
	}

	for i, id := range targets {
		if err := ctx.Err(); err != nil {
			s.abort(outcome, targets[i:])
			break
		}
		if err := s.applyOne(ctx, scope, req, id); err != nil {
			outcome.Failures = append(outcome.Failures, toFailure(id, err))
			continue
		}
		outcome.Succeeded++
	}

	outcome.Failed = len(outcome.Failures)
	s.cfg.Log.Info("Bulk operation finished",
		"operation_id", outcome.OperationID,
		"operation", outcome.Operation,
		"attempted", outcome.Attempted,
		"succeeded", outcome.Succeeded,
		"failed", outcome.Failed,
	)
	return outcome, nil
}

func (s *bulkService) applyOne(ctx context.Context, scope middleware.Scope, req *BulkRequest, id string) error {
	switch req.Operation {
	case model.BulkCancel:
		_, err := s.bookings.Transition(ctx, scope, id, model.StatusCancelled)
		return err
	case model.BulkDelete:
		return s.bookings.Delete(ctx, scope, id)
	case model.BulkStatusChange:
		_, err := s.bookings.Transition(ctx, scope, id, req.TargetStatus)
		return err
	}
	return apperrors.InvalidInput("Unsupported bulk operation")
}

func (s *bulkService) export(ctx context.Context, scope middleware.Scope, req *BulkRequest, outcome *model.BulkOutcome) (*model.BulkOutcome, error) {
	if req.Selection.Explicit() {
		bookings, err := s.repo.FindByIDs(ctx, scope.OrganizationID, req.Selection.IDs)
		if err != nil {
			s.cfg.Log.Error("Failed to export bookings", "error", err)
			return nil, apperrors.Internal("Failed to export bookings", err)
		}
		found := make(map[string]bool, len(bookings))
		for _, b := range bookings {
			found[b.ID] = true
		}
		outcome.Attempted = len(req.Selection.IDs)
		outcome.Items = bookings
		outcome.Succeeded = len(bookings)
		for _, id := range req.Selection.IDs {
			if !found[id] {
				outcome.Failures = append(outcome.Failures, model.BulkFailure{
					ItemID:  id,
					Code:    apperrors.CodeNotFound,
					Message: "Booking not found in this organization",
				})
			}
		}
		outcome.Failed = len(outcome.Failures)
		return outcome, nil
	}

	limit := int64(s.cfg.BulkMaxItems)
	if req.Selection.TakeAll {
		limit = 0
	}
	bookings, err := s.repo.FindByFilter(ctx, scope.OrganizationID, req.Selection.Filter, limit)
	if err != nil {
		s.cfg.Log.Error("Failed to export bookings", "error", err)
		return nil, apperrors.Internal("Failed to export bookings", err)
	}

	outcome.Attempted = len(bookings)
	outcome.Succeeded = len(bookings)
	outcome.Items = bookings
	return outcome, nil
}

// resolveTargets returns resolvable IDs plus, for explicit selections, the
// requested IDs that did not resolve.
func (s *bulkService) resolveTargets(ctx context.Context, scope middleware.Scope, selection *model.Selection) ([]string, []string, error) {
	resolved, err := s.Resolve(ctx, scope, selection)
	if err != nil {
		return nil, nil, err
	}

	if !selection.Explicit() {
		return resolved.IDs, nil, nil
	}

	found := make(map[string]bool, len(resolved.IDs))
	for _, id := range resolved.IDs {
		found[id] = true
	}

	// Explicit selections are ordered. Items run in the sequence the caller
	// listed them, not in whatever order the store returned; a repeated ID
	// runs once, at its first position.
	targets := make([]string, 0, len(resolved.IDs))
	seen := make(map[string]bool, len(selection.IDs))
	var ghosts []string
	for _, id := range selection.IDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		if found[id] {
			targets = append(targets, id)
		} else {
			ghosts = append(ghosts, id)
		}
	}
	return targets, ghosts, nil
}

func (s *bulkService) abort(outcome *model.BulkOutcome, remaining []string) {
	for _, id := range remaining {
		outcome.Failures = append(outcome.Failures, model.BulkFailure{
			ItemID:  id,
			Code:    apperrors.CodeTimeout,
			Message: "Aborted before this item was processed",
		})
	}
}

func (s *bulkService) validateRequest(req *BulkRequest) error {
	switch req.Operation {
	case model.BulkCancel, model.BulkDelete, model.BulkExport:
	case model.BulkStatusChange:
		if req.TargetStatus == "" {
			return apperrors.InvalidInput("target_status is required for status_change")
		}
	default:
		return apperrors.InvalidInput("Unknown bulk operation")
	}
	return s.validateSelection(&req.Selection)
}

// validateSelection rejects malformed input before anything touches the
// store, so a bad ID surfaces as a validation error instead of failing the
// whole run deep in the repository.
func (s *bulkService) validateSelection(selection *model.Selection) error {
	if selection == nil {
		return apperrors.InvalidInput("Selection is required")
	}
	if selection.All && len(selection.IDs) > 0 {
		return apperrors.InvalidInput("Selection cannot carry both ids and the all marker")
	}
	if !selection.All && len(selection.IDs) == 0 {
		return apperrors.InvalidInput("Selection must carry ids or the all marker")
	}
	if err := s.validator.ValidateSelection(selection); err != nil {
		s.cfg.Log.Warn("Selection validation failed", "error", err)
		return apperrors.Validation("Invalid selection", map[string]any{"error": err.Error()})
	}
	return nil
}

func toFailure(id string, err error) model.BulkFailure {
	appErr := apperrors.AsAppError(err)
	return model.BulkFailure{
		ItemID:  id,
		Code:    appErr.Code,
		Message: appErr.Message,
	}
}
