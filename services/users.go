package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"photoshare/database"
	"photoshare/models"
	"photoshare/utils"
)

var validate = validator.New()

type UserService struct {
	store    database.UserStore
	secret   string
	tokenTTL time.Duration
}

func NewUserService(store database.UserStore, secret string, tokenTTL time.Duration) *UserService {
	return &UserService{store: store, secret: secret, tokenTTL: tokenTTL}
}

func (s *UserService) TokenTTL() time.Duration {
	return s.tokenTTL
}

func (s *UserService) Register(ctx context.Context, req models.UserRegistration) (*models.User, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	hash, err := utils.HashPass(req.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user := &models.User{
		ID:        uuid.NewString(),
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  hash,
		Role:      "user",
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, database.ErrConflict) {
			return nil, ErrUserExists
		}
		return nil, err
	}
	return user, nil
}

// Login checks the credentials and returns the user with a signed token.
func (s *UserService) Login(ctx context.Context, req models.UserLogin) (*models.User, string, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := validate.Struct(req); err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrValidation, err)
	}

	user, err := s.store.GetUserByEmail(ctx, req.Email)
	if errors.Is(err, database.ErrNotFound) {
		return nil, "", ErrInvalidCredentials
	}
	if err != nil {
		return nil, "", err
	}
	if err := utils.ComparePass(req.Password, user.Password); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := utils.SignedToken(user, s.secret, s.tokenTTL)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// UpdatePassword replaces the password after checking the current one.
func (s *UserService) UpdatePassword(ctx context.Context, userID string, req models.PasswordUpdate) error {
	if userID == "" {
		return ErrUnauthenticated
	}
	if err := validate.Struct(req); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}

	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if err := utils.ComparePass(req.CurrentPassword, user.Password); err != nil {
		return ErrInvalidCredentials
	}

	hash, err := utils.HashPass(req.NewPassword)
	if err != nil {
		return err
	}
	return s.store.UpdatePassword(ctx, userID, hash)
}

func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	return s.store.GetUser(ctx, id)
}
