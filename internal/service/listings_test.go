package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"

	"job_fetcher/internal/apperr"
	"job_fetcher/internal/domain"
	"job_fetcher/internal/service/mocks"
	"job_fetcher/testdata/utils"
)

type ListingServiceTestSuite struct {
	suite.Suite
	ctrl *gomock.Controller

	listings  *mocks.MockListingStore
	geocoder  *mocks.MockGeocoder
	txManager *mocks.MockTransactionManager

	service *ListingService
}

func (s *ListingServiceTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())

	s.listings = mocks.NewMockListingStore(s.ctrl)
	s.geocoder = mocks.NewMockGeocoder(s.ctrl)
	s.txManager = mocks.NewMockTransactionManager(s.ctrl)

	s.service = NewListingService(s.listings, s.geocoder, s.txManager, zap.NewNop())
}

func (s *ListingServiceTestSuite) TearDownTest() {
	s.ctrl.Finish()
}

func TestListingServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ListingServiceTestSuite))
}

func (s *ListingServiceTestSuite) TestList_ClampsPaging() {
	ctx := context.Background()

	expected := domain.ListQuery{Page: 1, PageSize: MaxPageSize, SortBy: domain.SortByScore}
	items := []domain.Listing{{ID: 1}, {ID: 2}}

	s.listings.EXPECT().List(ctx, expected).Return(items, nil)
	s.listings.EXPECT().Count(ctx, expected).Return(42, nil)

	page, err := s.service.List(ctx, domain.ListQuery{Page: -3, PageSize: 500})

	s.Require().NoError(err)
	s.Equal(items, page.Items)
	s.Equal(42, page.Total)
	s.Equal(1, page.Page)
	s.Equal(MaxPageSize, page.PageSize)
}

func (s *ListingServiceTestSuite) TestList_DefaultPageSize() {
	ctx := context.Background()

	expected := domain.ListQuery{Page: 2, PageSize: DefaultPageSize, SortBy: domain.SortByDate}

	s.listings.EXPECT().List(ctx, expected).Return(nil, nil)
	s.listings.EXPECT().Count(ctx, expected).Return(0, nil)

	page, err := s.service.List(ctx, domain.ListQuery{Page: 2, SortBy: domain.SortByDate})

	s.Require().NoError(err)
	s.Equal(DefaultPageSize, page.PageSize)
}

func (s *ListingServiceTestSuite) TestList_RejectsUnknownSort() {
	_, err := s.service.List(context.Background(), domain.ListQuery{SortBy: "salary"})

	s.Require().Error(err)
	s.True(apperr.Is(err, apperr.ErrTypeInvalidInput))
}

func (s *ListingServiceTestSuite) TestList_RejectsNonPositiveRadius() {
	_, err := s.service.List(context.Background(), domain.ListQuery{
		Location: &domain.LocationFilter{Latitude: 1, Longitude: 1},
	})

	s.Require().Error(err)
	s.True(apperr.Is(err, apperr.ErrTypeInvalidInput))
}

func (s *ListingServiceTestSuite) TestGet_MarksNewAsViewed() {
	ctx := context.Background()

	s.listings.EXPECT().GetByID(ctx, int64(5)).Return(&domain.Listing{ID: 5, Status: domain.StatusNew}, nil)
	s.listings.EXPECT().UpdateStatus(ctx, int64(5), domain.StatusViewed).Return(nil)

	listing, err := s.service.Get(ctx, 5)

	s.Require().NoError(err)
	s.Equal(domain.StatusViewed, listing.Status)
}

func (s *ListingServiceTestSuite) TestGet_KeepsAdvancedStatus() {
	ctx := context.Background()

	s.listings.EXPECT().GetByID(ctx, int64(5)).Return(&domain.Listing{ID: 5, Status: domain.StatusApplied}, nil)

	listing, err := s.service.Get(ctx, 5)

	s.Require().NoError(err)
	s.Equal(domain.StatusApplied, listing.Status)
}

func (s *ListingServiceTestSuite) TestGet_NotFound() {
	ctx := context.Background()

	s.listings.EXPECT().GetByID(ctx, int64(9)).Return(nil, apperr.NotFound("listing not found", nil))

	_, err := s.service.Get(ctx, 9)

	s.True(apperr.Is(err, apperr.ErrTypeNotFound))
}

func (s *ListingServiceTestSuite) TestUpdateStatus() {
	ctx := context.Background()

	s.listings.EXPECT().UpdateStatus(ctx, int64(3), domain.StatusDismissed).Return(nil)

	s.NoError(s.service.UpdateStatus(ctx, 3, domain.StatusDismissed))
}

func (s *ListingServiceTestSuite) TestDashboard() {
	ctx := context.Background()
	window := 72

	recent := domain.ListQuery{PostedWithinHours: &window}
	withStatus := func(status domain.Status) domain.ListQuery {
		q := recent
		q.Status = &status
		return q
	}

	s.listings.EXPECT().Count(ctx, recent).Return(10, nil)
	s.listings.EXPECT().Count(ctx, withStatus(domain.StatusNew)).Return(6, nil)
	s.listings.EXPECT().Count(ctx, withStatus(domain.StatusApplied)).Return(3, nil)
	s.listings.EXPECT().Count(ctx, withStatus(domain.StatusDismissed)).Return(1, nil)
	s.listings.EXPECT().AverageScore(ctx).Return(0.6123, nil)

	top := []domain.Listing{{ID: 1, RelevanceScore: 0.9}}
	latest := []domain.Listing{{ID: 2}}
	s.listings.EXPECT().List(ctx, domain.ListQuery{
		Page: 1, PageSize: 5, SortBy: domain.SortByScore, PostedWithinHours: &window,
	}).Return(top, nil)
	s.listings.EXPECT().List(ctx, domain.ListQuery{
		Page: 1, PageSize: 5, SortBy: domain.SortByDate, PostedWithinHours: &window,
	}).Return(latest, nil)

	dashboard, err := s.service.Dashboard(ctx)

	s.Require().NoError(err)
	s.Equal(domain.DashboardStats{Total: 10, New: 6, Applied: 3, Dismissed: 1, AverageScore: 0.6123}, dashboard.Stats)
	s.Equal(top, dashboard.Top)
	s.Equal(latest, dashboard.Recent)
}

func (s *ListingServiceTestSuite) TestDedup() {
	ctx := context.Background()

	s.txManager.EXPECT().WithTransaction(ctx, gomock.Any()).DoAndReturn(
		func(ctx context.Context, fn func(context.Context) error) error {
			return fn(ctx)
		},
	)
	s.listings.EXPECT().DeleteDuplicates(ctx).Return(domain.DedupResult{Removed: 3, Groups: 2}, nil)

	result, err := s.service.Dedup(ctx)

	s.Require().NoError(err)
	s.Equal(domain.DedupResult{Removed: 3, Groups: 2}, result)
}

func (s *ListingServiceTestSuite) TestDedup_Error() {
	ctx := context.Background()

	s.txManager.EXPECT().WithTransaction(ctx, gomock.Any()).Return(errors.New("tx aborted"))

	_, err := s.service.Dedup(ctx)

	s.Error(err)
}

func (s *ListingServiceTestSuite) TestBackfill() {
	ctx := context.Background()

	batch := []domain.Listing{
		{ID: 1, Location: "Remote", IsRemote: false},
		{ID: 2, Location: "Austin, TX"},
		{ID: 3, Location: "Denver, CO", Latitude: utils.Ptr(39.7), Longitude: utils.Ptr(-104.9)},
		{ID: 4, Location: ""},
	}

	s.listings.EXPECT().List(ctx, domain.ListQuery{Page: 1, PageSize: backfillPageSize}).Return(batch, nil)
	s.geocoder.EXPECT().Geocode(ctx, "Austin, TX").Return(&domain.GeocodeResult{Latitude: 30.27, Longitude: -97.74}, true)

	var saved []domain.Listing
	s.listings.EXPECT().Upsert(ctx, gomock.Any()).DoAndReturn(
		func(_ context.Context, listing domain.Listing) (domain.UpsertResult, error) {
			saved = append(saved, listing)
			return domain.UpsertResult{Listing: listing}, nil
		},
	).Times(4)

	result, err := s.service.Backfill(ctx)

	s.Require().NoError(err)
	s.Equal(domain.BackfillResult{Processed: 4, Reclassified: 1, Geocoded: 1}, result)
	s.Require().Len(saved, 4)
	s.True(saved[0].IsRemote)
	s.Require().True(saved[1].HasCoordinates())
	s.InDelta(30.27, *saved[1].Latitude, 1e-9)
}

func (s *ListingServiceTestSuite) TestGeocode() {
	ctx := context.Background()

	s.geocoder.EXPECT().Geocode(ctx, "Detroit, MI").Return(&domain.GeocodeResult{Latitude: 42.33, Longitude: -83.05}, true)
	s.geocoder.EXPECT().Geocode(ctx, "Nowhere").Return(nil, false)

	result, err := s.service.Geocode(ctx, "Detroit, MI")
	s.Require().NoError(err)
	s.InDelta(42.33, result.Latitude, 1e-9)

	_, err = s.service.Geocode(ctx, "Nowhere")
	s.True(apperr.Is(err, apperr.ErrTypeNotFound))

	_, err = s.service.Geocode(ctx, "  ")
	s.True(apperr.Is(err, apperr.ErrTypeInvalidInput))
}
