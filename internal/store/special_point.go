package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/trailtrace/apiserver/types"
)

// SpecialPointRepository handles persistence for trail waypoints.
type SpecialPointRepository struct {
	db *sql.DB
}

func NewSpecialPointRepository(db *sql.DB) *SpecialPointRepository {
	return &SpecialPointRepository{db: db}
}

func (r *SpecialPointRepository) List(ctx context.Context) ([]types.SpecialPoint, error) {
	const query = `SELECT id, trail_id, name, lat, lng FROM special_points`
	return r.queryPoints(ctx, query)
}

func (r *SpecialPointRepository) ListByTrail(ctx context.Context, trailID int) ([]types.SpecialPoint, error) {
	const query = `SELECT id, trail_id, name, lat, lng FROM special_points WHERE trail_id = $1`
	return r.queryPoints(ctx, query, trailID)
}

func (r *SpecialPointRepository) Get(ctx context.Context, id int) (types.SpecialPoint, error) {
	const query = `SELECT id, trail_id, name, lat, lng FROM special_points WHERE id = $1`
	var point types.SpecialPoint
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&point.ID,
		&point.TrailID,
		&point.Name,
		&point.Lat,
		&point.Lng,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.SpecialPoint{}, ErrNotFound
		}
		return types.SpecialPoint{}, err
	}
	return point, nil
}

func (r *SpecialPointRepository) Create(ctx context.Context, point types.SpecialPoint) (types.SpecialPoint, error) {
	const query = `
		INSERT INTO special_points (trail_id, name, lat, lng)
		VALUES ($1, $2, $3, $4)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		point.TrailID,
		point.Name,
		point.Lat,
		point.Lng,
	).Scan(&point.ID); err != nil {
		return types.SpecialPoint{}, err
	}
	return point, nil
}

// CreateBatch inserts all points for the given trail in a single statement.
func (r *SpecialPointRepository) CreateBatch(ctx context.Context, trailID int, points []types.SpecialPoint) error {
	if len(points) == 0 {
		return nil
	}

	var query strings.Builder
	query.WriteString(`INSERT INTO special_points (trail_id, name, lat, lng) VALUES `)
	args := make([]any, 0, len(points)*4)
	for i, point := range points {
		if i > 0 {
			query.WriteString(", ")
		}
		base := i * 4
		fmt.Fprintf(&query, "($%d, $%d, $%d, $%d)", base+1, base+2, base+3, base+4)
		args = append(args, trailID, point.Name, point.Lat, point.Lng)
	}

	_, err := r.db.ExecContext(ctx, query.String(), args...)
	return err
}

func (r *SpecialPointRepository) Update(ctx context.Context, point types.SpecialPoint) (types.SpecialPoint, error) {
	const query = `
		UPDATE special_points
		SET name = $1,
			lat = $2,
			lng = $3
		WHERE id = $4`
	result, err := r.db.ExecContext(ctx, query, point.Name, point.Lat, point.Lng, point.ID)
	if err != nil {
		return types.SpecialPoint{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.SpecialPoint{}, err
	}
	if affected == 0 {
		return types.SpecialPoint{}, ErrNotFound
	}
	return point, nil
}

func (r *SpecialPointRepository) Delete(ctx context.Context, id int) error {
	const query = `DELETE FROM special_points WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SpecialPointRepository) queryPoints(ctx context.Context, query string, args ...any) ([]types.SpecialPoint, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	points := make([]types.SpecialPoint, 0)
	for rows.Next() {
		var point types.SpecialPoint
		if err := rows.Scan(&point.ID, &point.TrailID, &point.Name, &point.Lat, &point.Lng); err != nil {
			return nil, err
		}
		points = append(points, point)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return points, nil
}
