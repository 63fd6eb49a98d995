// Package services implements the application use-cases on top of the
// repositories: account registration and login, and ownership-scoped todo CRUD.
package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dmitrijs2005/todokeeper/internal/common"
	"github.com/dmitrijs2005/todokeeper/internal/server/auth"
	"github.com/dmitrijs2005/todokeeper/internal/server/config"
	"github.com/dmitrijs2005/todokeeper/internal/server/models"
	"github.com/dmitrijs2005/todokeeper/internal/server/repositories/users"
)

// dummyPasswordHash is compared against when the username does not exist, so a
// login attempt costs one bcrypt verification whether or not the account is
// real. Hash of an unused throwaway value.
const dummyPasswordHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

type UserService struct {
	repo           users.Repository
	hasher         auth.Hasher
	jwtSecret      []byte
	accessTokenTTL time.Duration
}

func NewUserService(repo users.Repository, hasher auth.Hasher, cfg *config.Config) *UserService {
	return &UserService{
		repo:           repo,
		hasher:         hasher,
		jwtSecret:      []byte(cfg.JWTSecret),
		accessTokenTTL: cfg.AccessTokenTTL,
	}
}

// Register creates a new account. Username and password are required; a taken
// username yields common.ErrorAlreadyExists.
func (s *UserService) Register(ctx context.Context, username, password, email string) (*models.User, error) {

	if username == "" || password == "" {
		return nil, fmt.Errorf("%w: username and password are required", common.ErrorValidation)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
	}

	user, err = s.repo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	return user, nil
}

// Authenticate checks the credentials. An unknown username and a wrong
// password both yield the same common.ErrorUnauthorized.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {

	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			// burn a verification anyway so the two failure paths look alike
			s.hasher.Verify(password, dummyPasswordHash)
			return nil, common.ErrorUnauthorized
		}
		return nil, common.ErrorInternal
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, common.ErrorUnauthorized
	}

	return user, nil
}

// Login authenticates and issues an access token for the account.
func (s *UserService) Login(ctx context.Context, username, password string) (string, *models.User, error) {

	if username == "" || password == "" {
		return "", nil, fmt.Errorf("%w: username and password are required", common.ErrorValidation)
	}

	user, err := s.Authenticate(ctx, username, password)
	if err != nil {
		return "", nil, err
	}

	token, err := auth.GenerateToken(strconv.FormatInt(user.ID, 10), s.jwtSecret, s.accessTokenTTL)
	if err != nil {
		return "", nil, common.ErrorInternal
	}

	return token, user, nil
}
