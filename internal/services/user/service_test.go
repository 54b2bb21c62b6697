package user

import (
	"context"
	"errors"
	"testing"

	"bridgepay/internal/models"
	"bridgepay/internal/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type MockUserRepo struct {
	mock.Mock
}

func storedUser() *models.User {
	u := &models.User{Email: "alice@example.com", Role: models.RoleUser}
	u.ID = 1
	return u
}

func TestService_Register(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		repo := new(MockUserRepo)
		repo.On("GetByEmail", "alice@example.com").Return(nil, repositories.ErrUserNotFound)
		repo.On("Create", mock.AnythingOfType("*models.User")).Return(nil)

		s := NewService(repo, nil)
		created, err := s.Register(&models.CreateUserInput{
			Email:     "alice@example.com",
			Password:  "Sup3r-secret!",
			FirstName: "Alice",
			LastName:  "Smith",
		})
		require.NoError(t, err)

		assert.Equal(t, models.RoleUser, created.Role)
		assert.Equal(t, models.KYCPending, created.KYCStatus)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(created.Password), []byte("Sup3r-secret!")))
		repo.AssertExpectations(t)
	})

	t.Run("email already registered", func(t *testing.T) {
		repo := new(MockUserRepo)
		repo.On("GetByEmail", "alice@example.com").Return(storedUser(), nil)

		s := NewService(repo, nil)
		_, err := s.Register(&models.CreateUserInput{Email: "alice@example.com", Password: "Sup3r-secret!"})
		assert.ErrorIs(t, err, ErrEmailTaken)
		repo.AssertNotCalled(t, "Create", mock.Anything)
	})
}

func TestService_AcceptTerms(t *testing.T) {
	t.Run("first acceptance is stamped", func(t *testing.T) {
		repo := new(MockUserRepo)
		repo.On("GetByID", uint(1)).Return(storedUser(), nil)
		repo.On("Update", mock.MatchedBy(func(u *models.User) bool {
			return u.TermsAccepted && u.TermsAcceptedAt != nil
		})).Return(nil)

		s := NewService(repo, nil)
		updated, err := s.AcceptTerms(1)
		require.NoError(t, err)
		assert.True(t, updated.TermsAccepted)
	})

	t.Run("second acceptance refused", func(t *testing.T) {
		agreed := storedUser()
		agreed.TermsAccepted = true

		repo := new(MockUserRepo)
		repo.On("GetByID", uint(1)).Return(agreed, nil)

		s := NewService(repo, nil)
		_, err := s.AcceptTerms(1)
		assert.ErrorIs(t, err, ErrAlreadyAgreed)
		repo.AssertNotCalled(t, "Update", mock.Anything)
	})
}

func TestService_SetRole(t *testing.T) {
	ctx := context.Background()

	t.Run("promote bumps token version", func(t *testing.T) {
		repo := new(MockUserRepo)
		repo.On("UpdateRole", uint(2), models.RoleAdmin).Return(nil)
		repo.On("IncrementTokenVersion", uint(2)).Return(nil)

		s := NewService(repo, nil)
		require.NoError(t, s.SetRole(ctx, 2, 9, models.RoleAdmin))
		repo.AssertExpectations(t)
	})

	t.Run("self edit refused", func(t *testing.T) {
		repo := new(MockUserRepo)
		s := NewService(repo, nil)
		assert.ErrorIs(t, s.SetRole(ctx, 9, 9, models.RoleUser), ErrSelfRoleEdit)
		repo.AssertNotCalled(t, "UpdateRole", mock.Anything, mock.Anything)
	})

	t.Run("unknown role refused", func(t *testing.T) {
		repo := new(MockUserRepo)
		s := NewService(repo, nil)
		err := s.SetRole(ctx, 2, 9, "superuser")
		assert.Error(t, err)
		repo.AssertNotCalled(t, "UpdateRole", mock.Anything, mock.Anything)
	})

	t.Run("missing target", func(t *testing.T) {
		repo := new(MockUserRepo)
		repo.On("UpdateRole", uint(404), models.RoleAdmin).Return(repositories.ErrUserNotFound)

		s := NewService(repo, nil)
		assert.ErrorIs(t, s.SetRole(ctx, 404, 9, models.RoleAdmin), ErrUserNotFound)
	})
}

func TestService_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("removes user and owned rows", func(t *testing.T) {
		repo := new(MockUserRepo)
		repo.On("GetByID", uint(1)).Return(storedUser(), nil)
		repo.On("DeleteCascade", uint(1)).Return(nil)

		s := NewService(repo, nil)
		require.NoError(t, s.Delete(ctx, 1))
		repo.AssertExpectations(t)
	})

	t.Run("missing user", func(t *testing.T) {
		repo := new(MockUserRepo)
		repo.On("GetByID", uint(404)).Return(nil, repositories.ErrUserNotFound)

		s := NewService(repo, nil)
		assert.ErrorIs(t, s.Delete(ctx, 404), ErrUserNotFound)
		repo.AssertNotCalled(t, "DeleteCascade", mock.Anything)
	})

	t.Run("row vanished between lookup and delete", func(t *testing.T) {
		repo := new(MockUserRepo)
		repo.On("GetByID", uint(1)).Return(storedUser(), nil)
		repo.On("DeleteCascade", uint(1)).Return(repositories.ErrUserNotFound)

		s := NewService(repo, nil)
		assert.ErrorIs(t, s.Delete(ctx, 1), ErrUserNotFound)
	})

	t.Run("database failure surfaces", func(t *testing.T) {
		repo := new(MockUserRepo)
		repo.On("GetByID", uint(1)).Return(storedUser(), nil)
		repo.On("DeleteCascade", uint(1)).Return(errors.New("connection reset"))

		s := NewService(repo, nil)
		err := s.Delete(ctx, 1)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to delete user 1")
	})
}

// Mock implementation

func (m *MockUserRepo) Create(user *models.User) error {
	args := m.Called(user)
	return args.Error(0)
}

func (m *MockUserRepo) GetByID(id uint) (*models.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepo) GetByEmail(email string) (*models.User, error) {
	args := m.Called(email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepo) Update(user *models.User) error {
	args := m.Called(user)
	return args.Error(0)
}

func (m *MockUserRepo) UpdateKYCStatus(userID uint, status models.KYCStatus) error {
	args := m.Called(userID, status)
	return args.Error(0)
}

func (m *MockUserRepo) UpdateRole(userID uint, role string) error {
	args := m.Called(userID, role)
	return args.Error(0)
}

func (m *MockUserRepo) IncrementTokenVersion(userID uint) error {
	args := m.Called(userID)
	return args.Error(0)
}

func (m *MockUserRepo) List(offset, limit int) ([]models.User, int64, error) {
	args := m.Called(offset, limit)
	return args.Get(0).([]models.User), args.Get(1).(int64), args.Error(2)
}

func (m *MockUserRepo) ListByKYCStatus(status models.KYCStatus, offset, limit int) ([]models.User, int64, error) {
	args := m.Called(status, offset, limit)
	return args.Get(0).([]models.User), args.Get(1).(int64), args.Error(2)
}

func (m *MockUserRepo) DeleteCascade(userID uint) error {
	args := m.Called(userID)
	return args.Error(0)
}
