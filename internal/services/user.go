package services

import (
	"context"

	"github.com/trailtrace/apiserver/types"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id int) (types.User, error)
	GetByEmail(ctx context.Context, email string) (types.User, error)
	Create(ctx context.Context, user types.User) (types.User, error)
	UpdateProfile(ctx context.Context, id int, update types.ProfileUpdate) error
	SetProfileImage(ctx context.Context, id int, imageURL string) error
}

// UserService encapsulates user use-cases.
type UserService struct {
	repo UserRepository
}

func NewUserService(repo UserRepository) *UserService {
	return &UserService{repo: repo}
}

func (s *UserService) GetByID(ctx context.Context, id int) (types.User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *UserService) GetByEmail(ctx context.Context, email string) (types.User, error) {
	return s.repo.GetByEmail(ctx, email)
}

func (s *UserService) Create(ctx context.Context, user types.User) (types.User, error) {
	return s.repo.Create(ctx, user)
}

// UpdateProfile applies the partial update and returns the refreshed user.
func (s *UserService) UpdateProfile(ctx context.Context, id int, update types.ProfileUpdate) (types.User, error) {
	if err := s.repo.UpdateProfile(ctx, id, update); err != nil {
		return types.User{}, err
	}
	return s.repo.GetByID(ctx, id)
}

func (s *UserService) SetProfileImage(ctx context.Context, id int, imageURL string) error {
	return s.repo.SetProfileImage(ctx, id, imageURL)
}
