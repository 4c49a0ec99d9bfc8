package service

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/estate-service/internal/domain"
	"github.com/spec-kit/estate-service/internal/events"
	"github.com/spec-kit/estate-service/internal/persistence"
	"github.com/spec-kit/estate-service/internal/repository"
	"github.com/spec-kit/estate-service/internal/storage"
)

type fakeHouseRepo struct {
	mu     sync.Mutex
	houses map[string]*domain.House
	seq    int
}

func newFakeHouseRepo() *fakeHouseRepo {
	return &fakeHouseRepo{houses: make(map[string]*domain.House)}
}

func (r *fakeHouseRepo) Create(_ context.Context, house *domain.House) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	house.ID = "house-" + strconv.Itoa(r.seq)
	for i := range house.Images {
		house.Images[i].HouseID = house.ID
	}
	clone := *house
	r.houses[house.ID] = &clone
	return nil
}

func (r *fakeHouseRepo) Update(_ context.Context, house *domain.House, replaceImages bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.houses[house.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	clone := *house
	if replaceImages {
		for i := range clone.Images {
			clone.Images[i].HouseID = house.ID
		}
	} else {
		clone.Images = stored.Images
	}
	r.houses[house.ID] = &clone
	return nil
}

func (r *fakeHouseRepo) GetByID(_ context.Context, id string) (*domain.House, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if h, ok := r.houses[id]; ok {
		clone := *h
		return &clone, nil
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeHouseRepo) ListByOwner(_ context.Context, ownerID string) ([]domain.House, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.House
	for _, h := range r.houses {
		if h.OwnerID == ownerID {
			out = append(out, *h)
		}
	}
	return out, nil
}

func (r *fakeHouseRepo) Search(_ context.Context, filter repository.HouseFilter) ([]domain.House, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.House
	for _, h := range r.houses {
		if filter.MinPrice != nil && h.Price < *filter.MinPrice {
			continue
		}
		if filter.MaxPrice != nil && h.Price > *filter.MaxPrice {
			continue
		}
		if filter.Rooms != nil && h.Rooms != *filter.Rooms {
			continue
		}
		out = append(out, *h)
	}
	return out, len(out), nil
}

func (r *fakeHouseRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.houses[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.houses, id)
	return nil
}

type fakeImageStore struct {
	mu       sync.Mutex
	seq      int
	objects  map[string][]byte
	storeErr error
}

func newFakeImageStore() *fakeImageStore {
	return &fakeImageStore{objects: make(map[string][]byte)}
}

func (s *fakeImageStore) Store(_ context.Context, data []byte, _ string) (storage.StoredImage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.storeErr != nil {
		return storage.StoredImage{}, s.storeErr
	}
	s.seq++
	key := "houses/test/" + strconv.Itoa(s.seq)
	s.objects[key] = data
	return storage.StoredImage{URL: "http://images.test/" + key, Key: key}, nil
}

func (s *fakeImageStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

func (s *fakeImageStore) failStores(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.storeErr = err
}

func (s *fakeImageStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}

func (s *fakeImageStore) has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[key]
	return ok
}

func newTestHouseService(repo *fakeHouseRepo, images *fakeImageStore) *HouseService {
	return NewHouseService(HouseDependencies{
		HouseRepo:  repo,
		ImageStore: images,
		Cache:      persistence.NewSearchCache(nil, 0, zap.NewNop()),
		Dispatcher: events.NewInMemoryDispatcher(),
		Logger:     zap.NewNop(),
	})
}

func createListing(t *testing.T, svc *HouseService, ownerID string) *domain.House {
	t.Helper()
	house, err := svc.Create(context.Background(), ownerID, HouseCreateInput{
		Address:    "12 Main St",
		Price:      250000,
		Rooms:      3,
		EstateType: "HOUSE",
		Features:   []string{"garden"},
		Images:     []ImageUpload{{Data: []byte("img-1"), ContentType: "image/jpeg"}},
	})
	require.NoError(t, err)
	return house
}

func TestCreate_BindsOwnerAndStoresImages(t *testing.T) {
	t.Parallel()

	repo := newFakeHouseRepo()
	images := newFakeImageStore()
	svc := newTestHouseService(repo, images)

	house := createListing(t, svc, "user-a")

	assert.Equal(t, "user-a", house.OwnerID)
	require.Len(t, house.Images, 1)
	assert.Equal(t, 1, images.count())
}

func TestGet_OwnershipGuard(t *testing.T) {
	t.Parallel()

	svc := newTestHouseService(newFakeHouseRepo(), newFakeImageStore())
	house := createListing(t, svc, "user-a")
	ctx := context.Background()

	got, err := svc.Get(ctx, "user-a", house.ID)
	require.NoError(t, err)
	assert.Equal(t, house.ID, got.ID)

	_, err = svc.Get(ctx, "user-b", house.ID)
	assert.Equal(t, "FORBIDDEN", errorCode(t, err))

	_, err = svc.Get(ctx, "user-a", "missing-id")
	assert.Equal(t, "NOT_FOUND", errorCode(t, err))
}

func TestUpdate_ForbiddenForNonOwner(t *testing.T) {
	t.Parallel()

	svc := newTestHouseService(newFakeHouseRepo(), newFakeImageStore())
	house := createListing(t, svc, "user-a")

	newAddr := "99 Other Rd"
	_, err := svc.Update(context.Background(), "user-b", house.ID, HouseUpdateInput{Address: &newAddr})
	assert.Equal(t, "FORBIDDEN", errorCode(t, err))
}

func TestUpdate_PartialKeepsPriorValues(t *testing.T) {
	t.Parallel()

	svc := newTestHouseService(newFakeHouseRepo(), newFakeImageStore())
	house := createListing(t, svc, "user-a")

	newPrice := 300000.0
	updated, err := svc.Update(context.Background(), "user-a", house.ID, HouseUpdateInput{Price: &newPrice})
	require.NoError(t, err)

	assert.Equal(t, newPrice, updated.Price)
	assert.Equal(t, house.Address, updated.Address)
	assert.Equal(t, house.Rooms, updated.Rooms)
	assert.Equal(t, "user-a", updated.OwnerID, "owner must never be reassigned")
}

func TestUpdate_ReplacesImages(t *testing.T) {
	t.Parallel()

	repo := newFakeHouseRepo()
	images := newFakeImageStore()
	svc := newTestHouseService(repo, images)
	house := createListing(t, svc, "user-a")
	oldKey := house.Images[0].StorageKey

	updated, err := svc.Update(context.Background(), "user-a", house.ID, HouseUpdateInput{
		Images: []ImageUpload{
			{Data: []byte("img-2"), ContentType: "image/png"},
			{Data: []byte("img-3"), ContentType: "image/png"},
		},
	})
	require.NoError(t, err)

	require.Len(t, updated.Images, 2)
	assert.Equal(t, 2, images.count())
	assert.False(t, images.has(oldKey), "replaced objects must be deleted from the store")
}

func TestUpdate_FailedImageUploadLeavesListingIntact(t *testing.T) {
	t.Parallel()

	repo := newFakeHouseRepo()
	images := newFakeImageStore()
	svc := newTestHouseService(repo, images)
	house := createListing(t, svc, "user-a")
	ctx := context.Background()

	images.failStores(errors.New("bucket unavailable"))

	newAddr := "99 Other Rd"
	_, err := svc.Update(ctx, "user-a", house.ID, HouseUpdateInput{
		Address: &newAddr,
		Images:  []ImageUpload{{Data: []byte("img-2"), ContentType: "image/png"}},
	})
	require.Error(t, err)

	stored, err := repo.GetByID(ctx, house.ID)
	require.NoError(t, err)
	assert.Equal(t, "12 Main St", stored.Address, "fields must not change when the upload fails")
	require.Len(t, stored.Images, 1)
	assert.Equal(t, house.Images[0].StorageKey, stored.Images[0].StorageKey)
	assert.True(t, images.has(house.Images[0].StorageKey), "original object must survive a failed update")
}

// failOnUpdateRepo simulates the transaction failing after the replacement
// images already reached the object store.
type failOnUpdateRepo struct {
	*fakeHouseRepo
}

func (r *failOnUpdateRepo) Update(context.Context, *domain.House, bool) error {
	return errors.New("connection reset")
}

func TestUpdate_FailedPersistDiscardsOnlyNewUploads(t *testing.T) {
	t.Parallel()

	repo := newFakeHouseRepo()
	images := newFakeImageStore()
	svc := newTestHouseService(repo, images)
	house := createListing(t, svc, "user-a")
	ctx := context.Background()

	failing := NewHouseService(HouseDependencies{
		HouseRepo:  &failOnUpdateRepo{repo},
		ImageStore: images,
		Cache:      persistence.NewSearchCache(nil, 0, zap.NewNop()),
		Dispatcher: events.NewInMemoryDispatcher(),
		Logger:     zap.NewNop(),
	})

	newAddr := "99 Other Rd"
	_, err := failing.Update(ctx, "user-a", house.ID, HouseUpdateInput{
		Address: &newAddr,
		Images:  []ImageUpload{{Data: []byte("img-2"), ContentType: "image/png"}},
	})
	require.Error(t, err)

	stored, err := repo.GetByID(ctx, house.ID)
	require.NoError(t, err)
	assert.Equal(t, "12 Main St", stored.Address)
	assert.Equal(t, 1, images.count(), "failed commit must discard the new uploads and keep the old object")
	assert.True(t, images.has(house.Images[0].StorageKey))
}

func TestCreate_RejectsUnknownEstateType(t *testing.T) {
	t.Parallel()

	svc := newTestHouseService(newFakeHouseRepo(), newFakeImageStore())

	_, err := svc.Create(context.Background(), "user-a", HouseCreateInput{
		Address:    "12 Main St",
		EstateType: "CASTLE",
	})
	assert.Equal(t, "VALIDATION_FAILED", errorCode(t, err))
}

func TestUpdate_RejectsUnknownEstateType(t *testing.T) {
	t.Parallel()

	svc := newTestHouseService(newFakeHouseRepo(), newFakeImageStore())
	house := createListing(t, svc, "user-a")

	bad := "CASTLE"
	_, err := svc.Update(context.Background(), "user-a", house.ID, HouseUpdateInput{EstateType: &bad})
	assert.Equal(t, "VALIDATION_FAILED", errorCode(t, err))
}

func TestDelete_OwnershipAndCleanup(t *testing.T) {
	t.Parallel()

	repo := newFakeHouseRepo()
	images := newFakeImageStore()
	svc := newTestHouseService(repo, images)
	house := createListing(t, svc, "user-a")
	ctx := context.Background()

	err := svc.Delete(ctx, "user-b", house.ID)
	assert.Equal(t, "FORBIDDEN", errorCode(t, err))

	require.NoError(t, svc.Delete(ctx, "user-a", house.ID))
	assert.Equal(t, 0, images.count())

	_, err = svc.Get(ctx, "user-a", house.ID)
	assert.Equal(t, "NOT_FOUND", errorCode(t, err))

	err = svc.Delete(ctx, "user-a", house.ID)
	assert.Equal(t, "NOT_FOUND", errorCode(t, err))
}

func TestListOwn_ScopedToOwner(t *testing.T) {
	t.Parallel()

	svc := newTestHouseService(newFakeHouseRepo(), newFakeImageStore())
	createListing(t, svc, "user-a")
	createListing(t, svc, "user-a")
	createListing(t, svc, "user-b")
	ctx := context.Background()

	own, err := svc.ListOwn(ctx, "user-a")
	require.NoError(t, err)
	assert.Len(t, own, 2)
	for _, h := range own {
		assert.Equal(t, "user-a", h.OwnerID)
	}
}

func TestSearch_FiltersApply(t *testing.T) {
	t.Parallel()

	svc := newTestHouseService(newFakeHouseRepo(), newFakeImageStore())
	createListing(t, svc, "user-a")
	ctx := context.Background()

	minPrice := 200000.0
	result, err := svc.Search(ctx, repository.HouseFilter{MinPrice: &minPrice, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Total)

	minPrice = 500000.0
	result, err = svc.Search(ctx, repository.HouseFilter{MinPrice: &minPrice, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Total)
}

func TestCreate_PublishesEvent(t *testing.T) {
	t.Parallel()

	dispatcher := events.NewInMemoryDispatcher()
	var received []events.Event
	var mu sync.Mutex
	dispatcher.Subscribe(events.EventHouseCreated, func(_ context.Context, e events.Event) error {
		mu.Lock()
		received = append(received, e)
		mu.Unlock()
		return nil
	})

	svc := NewHouseService(HouseDependencies{
		HouseRepo:  newFakeHouseRepo(),
		ImageStore: newFakeImageStore(),
		Cache:      persistence.NewSearchCache(nil, 0, zap.NewNop()),
		Dispatcher: dispatcher,
		Logger:     zap.NewNop(),
	})

	house := createListing(t, svc, "user-a")

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, received, 1)
	assert.Equal(t, house.ID, received[0].HouseID)
	assert.Equal(t, "user-a", received[0].OwnerID)
}

func TestSearchFingerprint_DistinguishesAbsentFromLiteral(t *testing.T) {
	t.Parallel()

	literal := "-"
	withLiteral := searchFingerprint(repository.HouseFilter{EstateType: &literal})
	absent := searchFingerprint(repository.HouseFilter{})
	assert.NotEqual(t, withLiteral, absent, "an absent filter field must not share a cache key with any literal value")

	assert.Equal(t,
		searchFingerprint(repository.HouseFilter{Limit: 10}),
		searchFingerprint(repository.HouseFilter{Limit: 10}),
	)
}
