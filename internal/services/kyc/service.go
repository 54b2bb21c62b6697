// Package kyc implements identity verification. Users submit one document
// batch which moves their profile to under_review; an admin decision updates
// every open document and the profile's aggregate status in a single
// database transaction, so the two can never disagree.
package kyc

import (
	"context"
	"errors"
	"fmt"
	"log"

	"bridgepay/internal/models"
	"bridgepay/internal/repositories"
	"bridgepay/internal/repositories/cache"
	"bridgepay/internal/validation"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrAlreadyUnderReview = errors.New("a submission is already under review")
	ErrAlreadyVerified    = errors.New("identity is already verified")
	ErrNothingToReview    = errors.New("user has no documents awaiting review")
	ErrInvalidSubmission  = errors.New("invalid KYC submission")
)

// DocumentUpload is one uploaded document in a submission batch.
type DocumentUpload struct {
	DocumentType models.DocumentType `json:"document_type"`
	FileURL      string              `json:"file_url"`
}

// Status is the verification view returned to the user.
type Status struct {
	KYCStatus models.KYCStatus     `json:"kyc_status"`
	Documents []models.KYCDocument `json:"documents"`
}

type Service interface {
	Submit(ctx context.Context, userID uint, uploads []DocumentUpload) (*Status, error)
	GetStatus(ctx context.Context, userID uint) (*Status, error)

	// Admin decisions; both writes are atomic.
	Approve(ctx context.Context, userID, adminID uint) error
	Reject(ctx context.Context, userID, adminID uint, reason string) error
}

type service struct {
	kycRepo  repositories.KYCRepository
	userRepo repositories.UserRepository
	cache    *cache.CacheService
}

// NewService creates a new KYC service.
func NewService(kycRepo repositories.KYCRepository, userRepo repositories.UserRepository, cacheSvc *cache.CacheService) Service {
	if kycRepo == nil {
		panic("kyc repository is required")
	}
	if userRepo == nil {
		panic("user repository is required")
	}
	return &service{
		kycRepo:  kycRepo,
		userRepo: userRepo,
		cache:    cacheSvc,
	}
}

func (s *service) Submit(ctx context.Context, userID uint, uploads []DocumentUpload) (*Status, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	switch {
	case user.KYCStatus == models.KYCUnderReview:
		return nil, ErrAlreadyUnderReview
	case user.KYCStatus == models.KYCVerified:
		return nil, ErrAlreadyVerified
	}

	docs := make([]models.KYCDocument, 0, len(uploads))
	for _, u := range uploads {
		docs = append(docs, models.KYCDocument{
			UserID:       userID,
			DocumentType: u.DocumentType,
			FileURL:      u.FileURL,
			Status:       models.DocumentStatusUnderReview,
		})
	}

	v := validation.New()
	v.KYCSubmission(docs)
	if !v.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidSubmission, v.First())
	}

	if err := s.kycRepo.CreateSubmission(userID, docs); err != nil {
		return nil, fmt.Errorf("failed to submit KYC documents: %w", err)
	}

	s.invalidateUser(ctx, user)

	return s.GetStatus(ctx, userID)
}

func (s *service) GetStatus(ctx context.Context, userID uint) (*Status, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	docs, err := s.kycRepo.GetByUser(userID)
	if err != nil {
		return nil, err
	}

	return &Status{KYCStatus: user.KYCStatus, Documents: docs}, nil
}

func (s *service) Approve(ctx context.Context, userID, adminID uint) error {
	return s.decide(ctx, userID, adminID, models.DocumentStatusApproved, models.KYCVerified, "")
}

func (s *service) Reject(ctx context.Context, userID, adminID uint, reason string) error {
	return s.decide(ctx, userID, adminID, models.DocumentStatusRejected, models.KYCRejected, reason)
}

// decide applies an admin decision to the document batch; the repository
// mirrors it onto the profile inside one database transaction.
func (s *service) decide(ctx context.Context, userID, adminID uint, docStatus string, profileStatus models.KYCStatus, notes string) error {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	updated, err := s.kycRepo.DecideForUser(userID, docStatus, adminID, notes, profileStatus)
	if err != nil {
		return err
	}
	if updated == 0 {
		return ErrNothingToReview
	}

	s.invalidateUser(ctx, user)
	return nil
}

func (s *service) invalidateUser(ctx context.Context, user *models.User) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateUser(ctx, user.ID, user.Email); err != nil {
		log.Printf("Failed to invalidate user cache %d: %v", user.ID, err)
	}
}
