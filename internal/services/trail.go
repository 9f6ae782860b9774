package services

import (
	"context"

	"github.com/trailtrace/apiserver/internal/logger"
	"github.com/trailtrace/apiserver/types"
	"go.uber.org/zap"
)

// TrailRepository defines persistence operations for trails.
type TrailRepository interface {
	List(ctx context.Context) ([]types.Trail, error)
	ListByUser(ctx context.Context, userID int) ([]types.Trail, error)
	Get(ctx context.Context, id int) (types.Trail, error)
	Create(ctx context.Context, trail types.Trail) (types.Trail, error)
	Update(ctx context.Context, trail types.Trail) (types.Trail, error)
	Delete(ctx context.Context, id int) error
}

// SpecialPointBatchWriter is the slice of the waypoint repository the trail
// service needs for nested creation.
type SpecialPointBatchWriter interface {
	CreateBatch(ctx context.Context, trailID int, points []types.SpecialPoint) error
}

// TrailService encapsulates trail use-cases.
type TrailService struct {
	repo   TrailRepository
	points SpecialPointBatchWriter
}

func NewTrailService(repo TrailRepository, points SpecialPointBatchWriter) *TrailService {
	return &TrailService{repo: repo, points: points}
}

func (s *TrailService) List(ctx context.Context) ([]types.Trail, error) {
	return s.repo.List(ctx)
}

func (s *TrailService) ListByUser(ctx context.Context, userID int) ([]types.Trail, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *TrailService) Get(ctx context.Context, id int) (types.Trail, error) {
	return s.repo.Get(ctx, id)
}

// Create persists the trail and, when the client supplied waypoints, bulk
// inserts them against the new trail id. The waypoint insert is
// fire-and-forget: a failure is logged and the created trail is returned
// anyway, so a trail can exist with fewer waypoints than the client sent.
func (s *TrailService) Create(ctx context.Context, trail types.Trail, points []types.SpecialPoint) (types.Trail, error) {
	created, err := s.repo.Create(ctx, trail)
	if err != nil {
		return types.Trail{}, err
	}

	if len(points) > 0 {
		if err := s.points.CreateBatch(ctx, created.ID, points); err != nil {
			logger.Get().Error("failed to insert special points for trail",
				zap.Int("trail_id", created.ID),
				zap.Int("points", len(points)),
				zap.Error(err),
			)
		}
	}

	return created, nil
}

func (s *TrailService) Update(ctx context.Context, trail types.Trail) (types.Trail, error) {
	return s.repo.Update(ctx, trail)
}

func (s *TrailService) Delete(ctx context.Context, id int) error {
	return s.repo.Delete(ctx, id)
}
