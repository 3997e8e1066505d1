package deceased

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-cemetery-registry/internal/store"
	"github.com/FACorreiaa/go-cemetery-registry/internal/types"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) FindActiveByID(ctx context.Context, id int64) (*types.Deceased, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Deceased), args.Error(1)
}

func (m *MockRepository) ExistsActivePersonalID(ctx context.Context, personalID string, excludeID int64) (bool, error) {
	args := m.Called(ctx, personalID, excludeID)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepository) Save(ctx context.Context, d *types.Deceased) (*types.Deceased, error) {
	args := m.Called(ctx, d)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Deceased), args.Error(1)
}

func (m *MockRepository) List(ctx context.Context, req store.PageRequest, search string) (store.Page[*types.Deceased], error) {
	args := m.Called(ctx, req, search)
	return args.Get(0).(store.Page[*types.Deceased]), args.Error(1)
}

func (m *MockRepository) SoftDelete(ctx context.Context, id int64) (*types.Deceased, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Deceased), args.Error(1)
}

func (m *MockRepository) SoftDeleteMany(ctx context.Context, ids []int64) []store.Result[*types.Deceased] {
	return m.Called(ctx, ids).Get(0).([]store.Result[*types.Deceased])
}

func (m *MockRepository) WithinTx(_ context.Context, fn func(repo Repository) error) error {
	return fn(m)
}

func setupServiceTest() (*ServiceImpl, *MockRepository) {
	repo := new(MockRepository)
	return NewService(repo, slog.New(slog.NewTextHandler(io.Discard, nil))), repo
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func validCreate() types.DeceasedCreateRequest {
	return types.DeceasedCreateRequest{
		PersonalID: "12345678901234",
		FullName:   "Karimov Anvar",
		BirthDate:  types.NewDate(day(1940, 3, 2)),
		DeathDate:  types.NewDate(day(2010, 11, 20)),
		Biography:  "Engineer",
	}
}

func TestValidPersonalID(t *testing.T) {
	assert.True(t, ValidPersonalID("00000000000000"))
	assert.False(t, ValidPersonalID("1234567890123"))
	assert.False(t, ValidPersonalID("123456789012345"))
	assert.False(t, ValidPersonalID("1234567890123a"))
	assert.False(t, ValidPersonalID(""))
}

func TestDeceasedServiceCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		service, repo := setupServiceTest()
		params := validCreate()
		repo.On("ExistsActivePersonalID", mock.Anything, params.PersonalID, int64(0)).Return(false, nil).Once()
		repo.On("Save", mock.Anything, mock.MatchedBy(func(d *types.Deceased) bool {
			return d.IsNew() && d.FullName == "Karimov Anvar" && d.BirthDate.Equal(day(1940, 3, 2))
		})).Return(&types.Deceased{
			Entity:     store.Entity{ID: 10},
			PersonalID: params.PersonalID,
			FullName:   params.FullName,
			BirthDate:  day(1940, 3, 2),
			DeathDate:  day(2010, 11, 20),
		}, nil).Once()

		resp, err := service.Create(ctx, params)
		require.NoError(t, err)
		assert.Equal(t, int64(10), resp.ID)
		repo.AssertExpectations(t)
	})

	t.Run("active personal id collides", func(t *testing.T) {
		service, repo := setupServiceTest()
		params := validCreate()
		repo.On("ExistsActivePersonalID", mock.Anything, params.PersonalID, int64(0)).Return(true, nil).Once()

		_, err := service.Create(ctx, params)
		assert.ErrorIs(t, err, types.ErrPersonalIDExists)
		repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("personal id of a deleted row is free", func(t *testing.T) {
		service, repo := setupServiceTest()
		params := validCreate()
		repo.On("ExistsActivePersonalID", mock.Anything, params.PersonalID, int64(0)).Return(false, nil).Once()
		repo.On("Save", mock.Anything, mock.MatchedBy(func(d *types.Deceased) bool { return d.IsNew() })).
			Return(&types.Deceased{Entity: store.Entity{ID: 11}}, nil).Once()

		resp, err := service.Create(ctx, params)
		require.NoError(t, err)
		assert.Equal(t, int64(11), resp.ID)
	})

	t.Run("wrong size personal id", func(t *testing.T) {
		service, repo := setupServiceTest()
		params := validCreate()
		params.PersonalID = "123"

		_, err := service.Create(ctx, params)
		assert.ErrorIs(t, err, types.ErrPersonalIDInvalid)
		repo.AssertNotCalled(t, "ExistsActivePersonalID", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("birth after death", func(t *testing.T) {
		service, _ := setupServiceTest()
		params := validCreate()
		params.BirthDate, params.DeathDate = params.DeathDate, params.BirthDate

		_, err := service.Create(ctx, params)
		assert.ErrorIs(t, err, types.ErrValidationFailed)
	})

	t.Run("missing death date", func(t *testing.T) {
		service, _ := setupServiceTest()
		params := validCreate()
		params.DeathDate = types.Date{}

		_, err := service.Create(ctx, params)
		assert.ErrorIs(t, err, types.ErrValidation)
	})
}

func TestDeceasedServiceUpdate(t *testing.T) {
	ctx := context.Background()
	current := func() *types.Deceased {
		return &types.Deceased{
			Entity:     store.Entity{ID: 3},
			PersonalID: "11111111111111",
			FullName:   "A",
			BirthDate:  day(1950, 1, 1),
			DeathDate:  day(2000, 1, 1),
		}
	}

	t.Run("new personal id is checked excluding self", func(t *testing.T) {
		service, repo := setupServiceTest()
		pid := "22222222222222"
		repo.On("FindActiveByID", mock.Anything, int64(3)).Return(current(), nil).Once()
		repo.On("ExistsActivePersonalID", mock.Anything, pid, int64(3)).Return(true, nil).Once()

		_, err := service.Update(ctx, 3, types.DeceasedUpdateRequest{PersonalID: &pid})
		assert.ErrorIs(t, err, types.ErrPersonalIDExists)
	})

	t.Run("partial update keeps other fields", func(t *testing.T) {
		service, repo := setupServiceTest()
		bio := "Poet"
		repo.On("FindActiveByID", mock.Anything, int64(3)).Return(current(), nil).Once()
		repo.On("Save", mock.Anything, mock.MatchedBy(func(d *types.Deceased) bool {
			return d.Biography == "Poet" && d.FullName == "A" && d.PersonalID == "11111111111111"
		})).Return(func() *types.Deceased { d := current(); d.Biography = bio; return d }(), nil).Once()

		resp, err := service.Update(ctx, 3, types.DeceasedUpdateRequest{Biography: &bio})
		require.NoError(t, err)
		assert.Equal(t, "Poet", resp.Biography)
		repo.AssertNotCalled(t, "ExistsActivePersonalID", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("moving death before birth is rejected", func(t *testing.T) {
		service, repo := setupServiceTest()
		death := types.NewDate(day(1940, 1, 1))
		repo.On("FindActiveByID", mock.Anything, int64(3)).Return(current(), nil).Once()

		_, err := service.Update(ctx, 3, types.DeceasedUpdateRequest{DeathDate: &death})
		assert.ErrorIs(t, err, types.ErrValidationFailed)
	})

	t.Run("deleted record", func(t *testing.T) {
		service, repo := setupServiceTest()
		repo.On("FindActiveByID", mock.Anything, int64(8)).Return(nil, types.ErrDeceasedNotFound).Once()

		_, err := service.Update(ctx, 8, types.DeceasedUpdateRequest{})
		assert.ErrorIs(t, err, types.ErrDeceasedNotFound)
	})
}

func TestDeceasedServiceDeleteMany(t *testing.T) {
	service, repo := setupServiceTest()
	repo.On("SoftDeleteMany", mock.Anything, []int64{4, 5, 6}).Return([]store.Result[*types.Deceased]{
		{ID: 4, Record: &types.Deceased{}},
		{ID: 5, Err: store.ErrNotFound},
		{ID: 6, Record: &types.Deceased{}},
	}).Once()

	resp := service.DeleteMany(context.Background(), []int64{4, 5, 6})
	assert.Equal(t, []int64{4, 6}, resp.Deleted)
	require.Len(t, resp.Failed, 1)
	assert.Equal(t, types.BatchFailure{ID: 5, Code: 107, Key: "DECEASED_NOT_FOUND"}, resp.Failed[0])
}
