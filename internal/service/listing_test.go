package service

import (
	"context"
	"mime/multipart"
	"sync"
	"testing"

	"bookmarket/internal/repository"
	"bookmarket/pkg/customerror"
	modelsListing "bookmarket/pkg/listing"
	"bookmarket/pkg/user"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubListingRepo struct {
	repository.ListingRepositoryI

	updated *modelsListing.Listing

	viewCounted bool
	viewTotal   int64
	viewErr     error

	setSoldErr error
}

func (s *stubListingRepo) UpdateListing(ctx context.Context, l *modelsListing.Listing, u *user.User) error {
	s.updated = l
	return nil
}

func (s *stubListingRepo) IncrementViews(ctx context.Context, id int64, viewerId uuid.UUID) (bool, int64, error) {
	return s.viewCounted, s.viewTotal, s.viewErr
}

func (s *stubListingRepo) SetSold(ctx context.Context, id int64, sold bool) error {
	return s.setSoldErr
}

func header(name string, size int64) *multipart.FileHeader {
	return &multipart.FileHeader{Filename: name, Size: size}
}

func TestValidateListingImages(t *testing.T) {
	assert.NoError(t, validateListingImages([]*multipart.FileHeader{header("a.jpg", 100)}))
	assert.NoError(t, validateListingImages([]*multipart.FileHeader{
		header("a.jpg", 100), header("b.jpeg", 100), header("c.png", 100), header("d.webp", 100),
	}))

	assert.Equal(t, customerror.ErrInvalidImages, validateListingImages(nil))
	assert.Equal(t, customerror.ErrInvalidImages, validateListingImages([]*multipart.FileHeader{
		header("a.jpg", 1), header("b.jpg", 1), header("c.jpg", 1), header("d.jpg", 1), header("e.jpg", 1),
	}))
	assert.Equal(t, customerror.ErrInvalidImages, validateListingImages([]*multipart.FileHeader{
		header("big.png", modelsListing.MaxImageSize+1),
	}))
	assert.Equal(t, customerror.ErrInvalidImages, validateListingImages([]*multipart.FileHeader{
		header("doc.pdf", 100),
	}))
	assert.Equal(t, customerror.ErrInvalidImages, validateListingImages([]*multipart.FileHeader{
		header("noext", 100),
	}))
}

func TestCreateListingRejectsBadPrice(t *testing.T) {
	service := NewListingService(&stubListingRepo{}, "localhost", "8080", "http://localhost")

	for _, price := range []float64{0, -5, modelsListing.MaxPrice + 1} {
		l := &modelsListing.Listing{Title: "book", Price: price, OwnerId: uuid.New()}
		_, err := service.CreateListing(l, []*multipart.FileHeader{header("a.jpg", 100)})
		assert.Equal(t, customerror.ErrInvalidPrice, err)
	}
}

func TestCreateListingRequiresImages(t *testing.T) {
	service := NewListingService(&stubListingRepo{}, "localhost", "8080", "http://localhost")

	l := &modelsListing.Listing{Title: "book", Price: 50, OwnerId: uuid.New()}
	_, err := service.CreateListing(l, nil)
	assert.Equal(t, customerror.ErrInvalidImages, err)
}

func TestEditListingKeepsAllImagesWhenUnspecified(t *testing.T) {
	repo := &stubListingRepo{}
	service := NewListingService(repo, "localhost", "8080", "http://localhost")

	current := &modelsListing.Listing{
		Id:         7,
		OwnerId:    uuid.New(),
		ImagePaths: []string{"media/a.jpg", "media/b.jpg"},
	}
	patch := &modelsListing.Listing{Title: "updated", Price: 10}

	err := service.EditListing(current, patch, nil, nil, &user.User{UUID: current.OwnerId})
	require.NoError(t, err)
	require.NotNil(t, repo.updated)
	assert.Equal(t, []string{"media/a.jpg", "media/b.jpg"}, repo.updated.ImagePaths)
	assert.Equal(t, int64(7), repo.updated.Id)
	assert.Equal(t, current.OwnerId, repo.updated.OwnerId)
}

func TestEditListingKeepsRequestedSubset(t *testing.T) {
	repo := &stubListingRepo{}
	service := NewListingService(repo, "localhost", "8080", "http://localhost")

	current := &modelsListing.Listing{
		Id:         7,
		OwnerId:    uuid.New(),
		ImagePaths: []string{"media/a.jpg", "media/b.jpg"},
	}
	patch := &modelsListing.Listing{Title: "updated", Price: 10}

	err := service.EditListing(current, patch, []string{"media/b.jpg"}, nil, &user.User{UUID: current.OwnerId})
	require.NoError(t, err)
	require.NotNil(t, repo.updated)
	assert.Equal(t, []string{"media/b.jpg"}, repo.updated.ImagePaths)
}

func TestEditListingRejectsForeignImagePath(t *testing.T) {
	repo := &stubListingRepo{}
	service := NewListingService(repo, "localhost", "8080", "http://localhost")

	current := &modelsListing.Listing{
		Id:         7,
		OwnerId:    uuid.New(),
		ImagePaths: []string{"media/a.jpg"},
	}
	patch := &modelsListing.Listing{Title: "updated", Price: 10}

	err := service.EditListing(current, patch, []string{"media/other.jpg"}, nil, &user.User{UUID: current.OwnerId})
	assert.Equal(t, customerror.ErrInvalidImages, err)
	assert.Nil(t, repo.updated)
}

func TestEditListingRejectsEmptyImageSet(t *testing.T) {
	repo := &stubListingRepo{}
	service := NewListingService(repo, "localhost", "8080", "http://localhost")

	current := &modelsListing.Listing{
		Id:         7,
		OwnerId:    uuid.New(),
		ImagePaths: []string{"media/a.jpg"},
	}
	patch := &modelsListing.Listing{Title: "updated", Price: 10}

	err := service.EditListing(current, patch, []string{}, nil, &user.User{UUID: current.OwnerId})
	assert.Equal(t, customerror.ErrInvalidImages, err)
	assert.Nil(t, repo.updated)
}

func TestViewPassesThroughCount(t *testing.T) {
	repo := &stubListingRepo{viewCounted: true, viewTotal: 5}
	service := NewListingService(repo, "localhost", "8080", "http://localhost")

	counted, views, err := service.View(1, uuid.New())
	require.NoError(t, err)
	assert.True(t, counted)
	assert.Equal(t, int64(5), views)
}

func TestViewOwnerNotCounted(t *testing.T) {
	repo := &stubListingRepo{viewCounted: false, viewTotal: 4}
	service := NewListingService(repo, "localhost", "8080", "http://localhost")

	counted, views, err := service.View(1, uuid.New())
	require.NoError(t, err)
	assert.False(t, counted)
	assert.Equal(t, int64(4), views)
}

// countingListingRepo mimics the storage contract for view counts: a
// single conditional increment that skips the owner.
type countingListingRepo struct {
	repository.ListingRepositoryI

	mu      sync.Mutex
	ownerId uuid.UUID
	views   int64
}

func (c *countingListingRepo) IncrementViews(ctx context.Context, id int64, viewerId uuid.UUID) (bool, int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if viewerId == c.ownerId {
		return false, c.views, nil
	}
	c.views++
	return true, c.views, nil
}

func TestViewConcurrentViewersLoseNoUpdates(t *testing.T) {
	repo := &countingListingRepo{ownerId: uuid.New(), views: 3}
	service := NewListingService(repo, "localhost", "8080", "http://localhost")

	const viewers = 50
	var wg sync.WaitGroup
	for i := 0; i < viewers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			counted, _, err := service.View(1, uuid.New())
			assert.NoError(t, err)
			assert.True(t, counted)
		}()
	}
	// Owner views race in alongside the viewers and must not count.
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			counted, _, err := service.View(1, repo.ownerId)
			assert.NoError(t, err)
			assert.False(t, counted)
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(3+viewers), repo.views)
}

func TestViewMissingListing(t *testing.T) {
	repo := &stubListingRepo{viewErr: pgx.ErrNoRows}
	service := NewListingService(repo, "localhost", "8080", "http://localhost")

	_, _, err := service.View(1, uuid.New())
	assert.Equal(t, pgx.ErrNoRows, err)
}

func TestSetSoldConflicts(t *testing.T) {
	repo := &stubListingRepo{setSoldErr: pgx.ErrNoRows}
	service := NewListingService(repo, "localhost", "8080", "http://localhost")

	assert.Equal(t, customerror.ErrAlreadySold, service.SetSold(1, true))
	assert.Equal(t, customerror.ErrNotSold, service.SetSold(1, false))

	repo.setSoldErr = nil
	assert.NoError(t, service.SetSold(1, true))
}
