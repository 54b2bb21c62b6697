package auth

import (
	"errors"
	"log"

	"bridgepay/internal/models"
	"bridgepay/internal/repositories"
	"bridgepay/internal/utils"
	"bridgepay/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

type Service interface {
	Login(email, password string) (*models.User, string, string, error)
	RefreshTokens(refreshToken string) (string, string, error)
	Logout(userID uint) error
	ChangePassword(userID uint, oldPassword, newPassword string) error
	GetUserTokenVersion(userID uint) (int, error)
	GetUserByID(userID uint) (*models.User, error)
}

type service struct {
	userRepo repositories.UserRepository
}

func NewService(userRepo repositories.UserRepository) Service {
	return &service{
		userRepo: userRepo,
	}
}

func (s *service) Login(email, password string) (*models.User, string, string, error) {
	user, err := s.userRepo.GetByEmail(email)
	if err != nil {
		log.Printf("Login failed: user not found for %s", email)
		return nil, "", "", ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		log.Printf("Login failed: incorrect password for user ID %d", user.ID)
		return nil, "", "", ErrInvalidCredentials
	}

	accessToken, refreshToken, err := utils.GenerateTokens(&models.UserClaims{
		UserID:       user.ID,
		Email:        user.Email,
		Role:         user.Role,
		TokenVersion: user.TokenVersion,
		Permissions:  models.GetDefaultPermissions(user.Role),
	})
	if err != nil {
		log.Println("Error generating tokens:", err)
		return nil, "", "", errors.New("error generating tokens")
	}

	return user, accessToken, refreshToken, nil
}

func (s *service) RefreshTokens(refreshToken string) (string, string, error) {
	_, claims, err := utils.ParseToken(refreshToken)
	if err != nil {
		return "", "", errors.New("invalid refresh token")
	}

	user, err := s.userRepo.GetByID(claims.UserID)
	if err != nil {
		return "", "", errors.New("user not found")
	}

	if user.TokenVersion != claims.TokenVersion {
		return "", "", errors.New("token version mismatch")
	}

	return utils.GenerateTokens(&models.UserClaims{
		UserID:       user.ID,
		Email:        user.Email,
		Role:         user.Role,
		TokenVersion: user.TokenVersion,
		Permissions:  models.GetDefaultPermissions(user.Role),
	})
}

func (s *service) Logout(userID uint) error {
	return s.userRepo.IncrementTokenVersion(userID)
}

func (s *service) ChangePassword(userID uint, oldPassword, newPassword string) error {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return errors.New("failed to get user")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(oldPassword)); err != nil {
		return errors.New("invalid old password")
	}

	v := validation.New()
	v.Password("password", newPassword)
	if !v.Valid() {
		return errors.New(v.First())
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return errors.New("failed to hash password")
	}

	user.Password = string(hashedPassword)
	user.TokenVersion++ // Invalidate existing tokens

	if err := s.userRepo.Update(user); err != nil {
		return errors.New("failed to update password")
	}

	return nil
}

func (s *service) GetUserTokenVersion(userID uint) (int, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return 0, err
	}
	return user.TokenVersion, nil
}

func (s *service) GetUserByID(userID uint) (*models.User, error) {
	return s.userRepo.GetByID(userID)
}
