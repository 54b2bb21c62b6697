package user

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"bridgepay/internal/models"
	"bridgepay/internal/repositories"
	"bridgepay/internal/repositories/cache"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrEmailTaken    = errors.New("user with this email already exists")
	ErrSelfRoleEdit  = errors.New("admins cannot change their own role")
	ErrAlreadyAgreed = errors.New("terms already accepted")
)

type Service interface {
	Register(input *models.CreateUserInput) (*models.User, error)
	GetByID(id uint) (*models.User, error)
	UpdateProfile(userID uint, input *models.UpdateProfileInput) (*models.User, error)
	AcceptTerms(userID uint) (*models.User, error)

	// Admin operations
	List(offset, limit int) ([]models.User, int64, error)
	SetRole(ctx context.Context, targetID, adminID uint, role string) error
	Delete(ctx context.Context, targetID uint) error
}

type service struct {
	repo  repositories.UserRepository
	cache *cache.CacheService
}

// NewService creates a new user service.
func NewService(repo repositories.UserRepository, cacheSvc *cache.CacheService) Service {
	if repo == nil {
		panic("user repository is required")
	}
	return &service{repo: repo, cache: cacheSvc}
}

func (s *service) Register(input *models.CreateUserInput) (*models.User, error) {
	if existing, _ := s.repo.GetByEmail(input.Email); existing != nil {
		return nil, ErrEmailTaken
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.New("failed to hash password")
	}

	user := &models.User{
		Email:     input.Email,
		Password:  string(hashedPassword),
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Phone:     input.Phone,
		Role:      models.RoleUser,
		KYCStatus: models.KYCPending,
	}

	if err := s.repo.Create(user); err != nil {
		if errors.Is(err, repositories.ErrEmailTaken) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	return user, nil
}

func (s *service) GetByID(id uint) (*models.User, error) {
	user, err := s.repo.GetByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *service) UpdateProfile(userID uint, input *models.UpdateProfileInput) (*models.User, error) {
	user, err := s.GetByID(userID)
	if err != nil {
		return nil, err
	}

	if input.FirstName != nil {
		user.FirstName = *input.FirstName
	}
	if input.LastName != nil {
		user.LastName = *input.LastName
	}
	if input.Phone != nil {
		user.Phone = *input.Phone
	}
	if input.AvatarURL != nil {
		user.AvatarURL = *input.AvatarURL
	}

	if err := s.repo.Update(user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *service) AcceptTerms(userID uint) (*models.User, error) {
	user, err := s.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if user.TermsAccepted {
		return nil, ErrAlreadyAgreed
	}

	now := time.Now()
	user.TermsAccepted = true
	user.TermsAcceptedAt = &now

	if err := s.repo.Update(user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *service) List(offset, limit int) ([]models.User, int64, error) {
	return s.repo.List(offset, limit)
}

func (s *service) SetRole(ctx context.Context, targetID, adminID uint, role string) error {
	if role != models.RoleUser && role != models.RoleAdmin {
		return fmt.Errorf("unknown role %q", role)
	}
	if targetID == adminID {
		return ErrSelfRoleEdit
	}

	if err := s.repo.UpdateRole(targetID, role); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	// Role lives in token claims; bump the version so old tokens die.
	if err := s.repo.IncrementTokenVersion(targetID); err != nil {
		log.Printf("Failed to bump token version for user %d: %v", targetID, err)
	}
	return nil
}

// Delete removes a user together with their transactions and KYC documents.
// The repository applies all three hard deletes in one database transaction.
func (s *service) Delete(ctx context.Context, targetID uint) error {
	user, err := s.GetByID(targetID)
	if err != nil {
		return err
	}

	if err := s.repo.DeleteCascade(targetID); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to delete user %d: %w", targetID, err)
	}

	if s.cache != nil {
		if err := s.cache.InvalidateUser(ctx, user.ID, user.Email); err != nil {
			log.Printf("Failed to invalidate user cache %d: %v", user.ID, err)
		}
	}
	return nil
}
