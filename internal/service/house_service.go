package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/estate-service/internal/domain"
	"github.com/spec-kit/estate-service/internal/events"
	"github.com/spec-kit/estate-service/internal/persistence"
	"github.com/spec-kit/estate-service/internal/repository"
	"github.com/spec-kit/estate-service/internal/storage"
	apperrors "github.com/spec-kit/estate-service/pkg/util/errorutil"
)

// HouseService coordinates listing workflows: ownership-guarded CRUD, image
// upload delegation and the cached public search.
type HouseService struct {
	houses     repository.HouseRepository
	images     storage.ImageStore
	cache      *persistence.SearchCache
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// HouseDependencies bundles collaborators for the house service.
type HouseDependencies struct {
	HouseRepo  repository.HouseRepository
	ImageStore storage.ImageStore
	Cache      *persistence.SearchCache
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// HouseCreateInput describes listing creation payload.
type HouseCreateInput struct {
	Address      string
	Price        float64
	Rooms        int
	Floors       int
	Bathrooms    int
	BathroomType string
	EstateType   string
	Area         float64
	About        string
	Features     []string
	Images       []ImageUpload
}

// HouseUpdateInput describes a partial update; nil fields keep prior values.
type HouseUpdateInput struct {
	Address      *string
	Price        *float64
	Rooms        *int
	Floors       *int
	Bathrooms    *int
	BathroomType *string
	EstateType   *string
	Area         *float64
	About        *string
	Features     []string
	Images       []ImageUpload
}

// ImageUpload carries raw image bytes for delegation to the object store.
type ImageUpload struct {
	Data        []byte
	ContentType string
}

// SearchResult bundles a page of listings with the total match count.
type SearchResult struct {
	Houses []domain.House `json:"houses"`
	Total  int            `json:"total"`
}

// NewHouseService constructs the service.
func NewHouseService(deps HouseDependencies) *HouseService {
	return &HouseService{
		houses:     deps.HouseRepo,
		images:     deps.ImageStore,
		cache:      deps.Cache,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
	}
}

// Create uploads images and persists a listing owned by the caller.
func (s *HouseService) Create(ctx context.Context, ownerID string, input HouseCreateInput) (*domain.House, error) {
	if err := validateEstateType(input.EstateType); err != nil {
		return nil, err
	}

	stored, err := s.uploadImages(ctx, input.Images)
	if err != nil {
		return nil, err
	}

	house := &domain.House{
		OwnerID:      ownerID,
		Address:      input.Address,
		Price:        input.Price,
		Rooms:        input.Rooms,
		Floors:       input.Floors,
		Bathrooms:    input.Bathrooms,
		BathroomType: input.BathroomType,
		EstateType:   input.EstateType,
		Area:         input.Area,
		About:        input.About,
		Features:     input.Features,
		Images:       stored,
	}
	if err := s.houses.Create(ctx, house); err != nil {
		s.discardImages(ctx, stored)
		return nil, err
	}

	s.publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventHouseCreated,
		HouseID:   house.ID,
		OwnerID:   ownerID,
		Timestamp: time.Now(),
		Payload: events.HouseCreatedPayload{
			Address:    house.Address,
			Price:      house.Price,
			EstateType: house.EstateType,
			ImageCount: len(house.Images),
		},
	})
	return house, nil
}

// Get returns a listing after the ownership check. Absence is reported before
// ownership, so a 404 never turns into a 403 for missing rows.
func (s *HouseService) Get(ctx context.Context, callerID, id string) (*domain.House, error) {
	return s.getOwned(ctx, callerID, id)
}

// ListOwn returns the caller's listings, newest first. Scoping happens at the
// query boundary.
func (s *HouseService) ListOwn(ctx context.Context, ownerID string) ([]domain.House, error) {
	return s.houses.ListByOwner(ctx, ownerID)
}

// Search runs the public filtered listing, served from the Redis cache when a
// fresh entry exists.
func (s *HouseService) Search(ctx context.Context, filter repository.HouseFilter) (*SearchResult, error) {
	fingerprint := searchFingerprint(filter)
	if payload, ok := s.cache.Get(ctx, fingerprint); ok {
		var cached SearchResult
		if err := json.Unmarshal([]byte(payload), &cached); err == nil {
			return &cached, nil
		}
	}

	houses, total, err := s.houses.Search(ctx, filter)
	if err != nil {
		return nil, err
	}
	result := &SearchResult{Houses: houses, Total: total}

	if encoded, err := json.Marshal(result); err == nil {
		s.cache.Set(ctx, fingerprint, string(encoded))
	}
	return result, nil
}

// Update applies a partial update to an owned listing. Replacement images are
// uploaded before anything is persisted, fields and image rows commit in one
// repository transaction, and the superseded objects are removed only once the
// commit succeeded. A failure at any step leaves the prior listing intact.
func (s *HouseService) Update(ctx context.Context, callerID, id string, input HouseUpdateInput) (*domain.House, error) {
	house, err := s.getOwned(ctx, callerID, id)
	if err != nil {
		return nil, err
	}
	if input.EstateType != nil {
		if err := validateEstateType(*input.EstateType); err != nil {
			return nil, err
		}
	}

	previous := house.Images
	replaceImages := len(input.Images) > 0
	if replaceImages {
		stored, err := s.uploadImages(ctx, input.Images)
		if err != nil {
			return nil, err
		}
		house.Images = stored
	}

	applyUpdate(house, input)
	if err := s.houses.Update(ctx, house, replaceImages); err != nil {
		if replaceImages {
			s.discardImages(ctx, house.Images)
		}
		return nil, err
	}
	if replaceImages {
		s.discardImages(ctx, previous)
	}

	s.publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventHouseUpdated,
		HouseID:   house.ID,
		OwnerID:   callerID,
		Timestamp: time.Now(),
	})
	return house, nil
}

// Delete removes an owned listing along with its stored images.
func (s *HouseService) Delete(ctx context.Context, callerID, id string) error {
	house, err := s.getOwned(ctx, callerID, id)
	if err != nil {
		return err
	}

	s.discardImages(ctx, house.Images)
	if err := s.houses.Delete(ctx, house.ID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("house", nil)
		}
		return err
	}

	s.publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventHouseDeleted,
		HouseID:   house.ID,
		OwnerID:   callerID,
		Timestamp: time.Now(),
		Payload:   events.HouseDeletedPayload{ImageCount: len(house.Images)},
	})
	return nil
}

// getOwned is the point-lookup ownership guard shared by get/update/delete.
func (s *HouseService) getOwned(ctx context.Context, callerID, id string) (*domain.House, error) {
	house, err := s.houses.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("house", nil)
		}
		return nil, err
	}
	if house.OwnerID != callerID {
		return nil, apperrors.NewForbidden("you do not own this house")
	}
	return house, nil
}

func (s *HouseService) uploadImages(ctx context.Context, uploads []ImageUpload) ([]domain.HouseImage, error) {
	stored := make([]domain.HouseImage, 0, len(uploads))
	for _, upload := range uploads {
		obj, err := s.images.Store(ctx, upload.Data, upload.ContentType)
		if err != nil {
			s.discardImages(ctx, stored)
			return nil, err
		}
		stored = append(stored, domain.HouseImage{URL: obj.URL, StorageKey: obj.Key})
	}
	return stored, nil
}

// discardImages is best-effort; an orphaned object is preferable to failing
// the request after the listing state already changed.
func (s *HouseService) discardImages(ctx context.Context, images []domain.HouseImage) {
	for _, img := range images {
		if img.StorageKey == "" {
			continue
		}
		if err := s.images.Delete(ctx, img.StorageKey); err != nil {
			s.logger.Warn("failed to delete stored image",
				zap.String("key", img.StorageKey), zap.Error(err))
		}
	}
}

func (s *HouseService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func applyUpdate(house *domain.House, input HouseUpdateInput) {
	if input.Address != nil {
		house.Address = *input.Address
	}
	if input.Price != nil {
		house.Price = *input.Price
	}
	if input.Rooms != nil {
		house.Rooms = *input.Rooms
	}
	if input.Floors != nil {
		house.Floors = *input.Floors
	}
	if input.Bathrooms != nil {
		house.Bathrooms = *input.Bathrooms
	}
	if input.BathroomType != nil {
		house.BathroomType = *input.BathroomType
	}
	if input.EstateType != nil {
		house.EstateType = *input.EstateType
	}
	if input.Area != nil {
		house.Area = *input.Area
	}
	if input.About != nil {
		house.About = *input.About
	}
	if input.Features != nil {
		house.Features = input.Features
	}
}

// validateEstateType accepts absent values; provided ones must be one of the
// supported kinds.
func validateEstateType(value string) error {
	if value == "" || domain.EstateType(value).Valid() {
		return nil
	}
	return apperrors.NewValidationError("unsupported estate type", map[string]any{"estateType": value})
}

// searchFingerprint keys the cache on the JSON-encoded filter so that an
// absent field and any literal value stay distinct.
func searchFingerprint(filter repository.HouseFilter) string {
	encoded, err := json.Marshal(filter)
	if err != nil {
		return ""
	}
	return string(encoded)
}
