package service

import (
	"context"
	"errors"
	"sync"

	assetserrors "gearbase/internal/assets/errors"
	"gearbase/internal/assets/repository"
	"gearbase/internal/assets/validator"
	"gearbase/pkg/config"
	apperrors "gearbase/pkg/errors"
	"gearbase/pkg/middleware"
	"gearbase/pkg/model"
	"gearbase/pkg/sanitizer"
)

type AssetService interface {
	Create(ctx context.Context, scope middleware.Scope, asset *model.Asset) error
	GetByID(ctx context.Context, scope middleware.Scope, id string) (*model.Asset, error)
	GetAll(ctx context.Context, scope middleware.Scope, limit int, offset int64) ([]*model.Asset, int64, error)
	Update(ctx context.Context, scope middleware.Scope, id string, updates *model.AssetUpdate) error
	SetAvailability(ctx context.Context, scope middleware.Scope, id string, available bool) error
}

type assetService struct {
	repo      repository.AssetRepository
	validator *validator.AssetValidator
	cfg       *config.Config
}

func NewAssetService(repo repository.AssetRepository, validator *validator.AssetValidator, cfg *config.Config) AssetService {
	return &assetService{
		repo:      repo,
		validator: validator,
		cfg:       cfg,
	}
}

func (s *assetService) Create(ctx context.Context, scope middleware.Scope, asset *model.Asset) error {
	asset.ID = ""
	asset.OrganizationID = scope.OrganizationID
	// New assets are reservable until an operator disables them.
	asset.Available = true

	asset.Name = sanitizer.SanitizeName(asset.Name)
	asset.Tags = sanitizer.SanitizeTags(asset.Tags)

	if err := s.validator.Validate(asset); err != nil {
		s.cfg.Log.Warn("Asset validation failed", "error", err)
		return apperrors.Validation("Asset validation failed", map[string]any{"error": err.Error()})
	}

	if err := s.repo.Create(ctx, asset); err != nil {
		s.cfg.Log.Error("Failed to create asset", "error", err)
		return apperrors.Internal("Failed to create asset", err)
	}

	s.cfg.Log.Info("Asset created", "id", asset.ID, "organization_id", asset.OrganizationID)
	return nil
}

func (s *assetService) GetByID(ctx context.Context, scope middleware.Scope, id string) (*model.Asset, error) {
	return s.loadScoped(ctx, scope, id)
}

func (s *assetService) GetAll(ctx context.Context, scope middleware.Scope, limit int, offset int64) ([]*model.Asset, int64, error) {
	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	var count int64
	var assets []*model.Asset
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx, scope.OrganizationID)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count assets", "error", errCount)
			errCount = apperrors.Internal("Failed to count assets", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		assets, errFind = s.repo.FindAll(ctx, scope.OrganizationID, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list assets", "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve assets", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return assets, count, nil
}

func (s *assetService) Update(ctx context.Context, scope middleware.Scope, id string, updates *model.AssetUpdate) error {
	existing, err := s.loadScoped(ctx, scope, id)
	if err != nil {
		return err
	}

	if err := s.validator.ValidateUpdate(updates); err != nil {
		s.cfg.Log.Warn("Asset update validation failed", "id", id, "error", err)
		return apperrors.Validation("Invalid update input", map[string]any{"error": err.Error()})
	}

	merged := *existing
	if updates.Name != "" {
		merged.Name = sanitizer.SanitizeName(updates.Name)
	}
	if updates.Tags != nil {
		merged.Tags = sanitizer.SanitizeTags(*updates.Tags)
	}

	if err := s.repo.Update(ctx, id, &merged); err != nil {
		s.cfg.Log.Error("Failed to update asset", "id", id, "error", err)
		return apperrors.Internal("Failed to update asset", err)
	}

	s.cfg.Log.Info("Asset updated", "id", id)
	return nil
}

// SetAvailability flips the administrative flag. It does not touch existing
// bookings: disabling an asset only blocks future reservations.
func (s *assetService) SetAvailability(ctx context.Context, scope middleware.Scope, id string, available bool) error {
	if _, err := s.loadScoped(ctx, scope, id); err != nil {
		return err
	}

	if err := s.repo.SetAvailability(ctx, id, available); err != nil {
		s.cfg.Log.Error("Failed to set asset availability", "id", id, "error", err)
		return apperrors.Internal("Failed to set asset availability", err)
	}

	s.cfg.Log.Info("Asset availability changed", "id", id, "available", available)
	return nil
}

func (s *assetService) loadScoped(ctx context.Context, scope middleware.Scope, id string) (*model.Asset, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Asset ID cannot be empty")
	}

	asset, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, assetserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Asset", id)
		}
		if errors.Is(err, assetserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid asset ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve asset", err)
	}

	if asset.OrganizationID != scope.OrganizationID {
		return nil, apperrors.Forbidden("Asset belongs to another organization")
	}

	return asset, nil
}
