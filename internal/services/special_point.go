package services

import (
	"context"

	"github.com/trailtrace/apiserver/types"
)

// SpecialPointRepository defines persistence operations for waypoints.
type SpecialPointRepository interface {
	List(ctx context.Context) ([]types.SpecialPoint, error)
	ListByTrail(ctx context.Context, trailID int) ([]types.SpecialPoint, error)
	Get(ctx context.Context, id int) (types.SpecialPoint, error)
	Create(ctx context.Context, point types.SpecialPoint) (types.SpecialPoint, error)
	CreateBatch(ctx context.Context, trailID int, points []types.SpecialPoint) error
	Update(ctx context.Context, point types.SpecialPoint) (types.SpecialPoint, error)
	Delete(ctx context.Context, id int) error
}

// SpecialPointService encapsulates waypoint use-cases.
type SpecialPointService struct {
	repo SpecialPointRepository
}

func NewSpecialPointService(repo SpecialPointRepository) *SpecialPointService {
	return &SpecialPointService{repo: repo}
}

func (s *SpecialPointService) List(ctx context.Context) ([]types.SpecialPoint, error) {
	return s.repo.List(ctx)
}

func (s *SpecialPointService) ListByTrail(ctx context.Context, trailID int) ([]types.SpecialPoint, error) {
	return s.repo.ListByTrail(ctx, trailID)
}

func (s *SpecialPointService) Get(ctx context.Context, id int) (types.SpecialPoint, error) {
	return s.repo.Get(ctx, id)
}

func (s *SpecialPointService) Create(ctx context.Context, point types.SpecialPoint) (types.SpecialPoint, error) {
	return s.repo.Create(ctx, point)
}

func (s *SpecialPointService) Update(ctx context.Context, point types.SpecialPoint) (types.SpecialPoint, error) {
	return s.repo.Update(ctx, point)
}

func (s *SpecialPointService) Delete(ctx context.Context, id int) error {
	return s.repo.Delete(ctx, id)
}
