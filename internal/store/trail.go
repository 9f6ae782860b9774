package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/trailtrace/apiserver/types"
)

// TrailRepository handles persistence for trails.
type TrailRepository struct {
	db *sql.DB
}

func NewTrailRepository(db *sql.DB) *TrailRepository {
	return &TrailRepository{db: db}
}

// List returns every trail joined with its creator's username, newest first.
func (r *TrailRepository) List(ctx context.Context) ([]types.Trail, error) {
	const query = `
		SELECT t.id, t.user_id, t.name, t.category, t.short_description,
		       t.start_lat, t.start_lng, t.end_lat, t.end_lng,
		       t.photo_url, t.video_url, t.trail_date, t.trail_time, t.created_at,
		       u.username AS creator_name
		FROM trails t
		JOIN users u ON t.user_id = u.id
		ORDER BY t.created_at DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	trails := make([]types.Trail, 0)
	for rows.Next() {
		var trail types.Trail
		if err := rows.Scan(
			&trail.ID,
			&trail.UserID,
			&trail.Name,
			&trail.Category,
			&trail.ShortDescription,
			&trail.StartLat,
			&trail.StartLng,
			&trail.EndLat,
			&trail.EndLng,
			&trail.PhotoURL,
			&trail.VideoURL,
			&trail.TrailDate,
			&trail.TrailTime,
			&trail.CreatedAt,
			&trail.CreatorName,
		); err != nil {
			return nil, err
		}
		trails = append(trails, trail)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return trails, nil
}

// ListByUser returns the trails owned by the given user, newest first.
func (r *TrailRepository) ListByUser(ctx context.Context, userID int) ([]types.Trail, error) {
	const query = `
		SELECT id, user_id, name, category, short_description,
		       start_lat, start_lng, end_lat, end_lng,
		       photo_url, video_url, trail_date, trail_time, created_at
		FROM trails
		WHERE user_id = $1
		ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	trails := make([]types.Trail, 0)
	for rows.Next() {
		trail, err := scanTrail(rows)
		if err != nil {
			return nil, err
		}
		trails = append(trails, trail)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return trails, nil
}

func (r *TrailRepository) Get(ctx context.Context, id int) (types.Trail, error) {
	const query = `
		SELECT id, user_id, name, category, short_description,
		       start_lat, start_lng, end_lat, end_lng,
		       photo_url, video_url, trail_date, trail_time, created_at
		FROM trails
		WHERE id = $1`
	var trail types.Trail
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&trail.ID,
		&trail.UserID,
		&trail.Name,
		&trail.Category,
		&trail.ShortDescription,
		&trail.StartLat,
		&trail.StartLng,
		&trail.EndLat,
		&trail.EndLng,
		&trail.PhotoURL,
		&trail.VideoURL,
		&trail.TrailDate,
		&trail.TrailTime,
		&trail.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Trail{}, ErrNotFound
		}
		return types.Trail{}, err
	}
	return trail, nil
}

func (r *TrailRepository) Create(ctx context.Context, trail types.Trail) (types.Trail, error) {
	trail.CreatedAt = time.Now()

	const query = `
		INSERT INTO trails (
			user_id, name, category, short_description,
			start_lat, start_lng, end_lat, end_lng,
			photo_url, video_url, trail_date, trail_time, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		trail.UserID,
		trail.Name,
		trail.Category,
		trail.ShortDescription,
		trail.StartLat,
		trail.StartLng,
		trail.EndLat,
		trail.EndLng,
		trail.PhotoURL,
		trail.VideoURL,
		trail.TrailDate,
		trail.TrailTime,
		trail.CreatedAt,
	).Scan(&trail.ID); err != nil {
		return types.Trail{}, err
	}
	return trail, nil
}

// Update overwrites every mutable field of the trail. Ownership is not
// re-assigned: user_id is left as inserted.
func (r *TrailRepository) Update(ctx context.Context, trail types.Trail) (types.Trail, error) {
	const query = `
		UPDATE trails
		SET name = $1,
			category = $2,
			short_description = $3,
			start_lat = $4,
			start_lng = $5,
			end_lat = $6,
			end_lng = $7,
			photo_url = $8,
			video_url = $9,
			trail_date = $10,
			trail_time = $11
		WHERE id = $12`
	result, err := r.db.ExecContext(
		ctx,
		query,
		trail.Name,
		trail.Category,
		trail.ShortDescription,
		trail.StartLat,
		trail.StartLng,
		trail.EndLat,
		trail.EndLng,
		trail.PhotoURL,
		trail.VideoURL,
		trail.TrailDate,
		trail.TrailTime,
		trail.ID,
	)
	if err != nil {
		return types.Trail{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.Trail{}, err
	}
	if affected == 0 {
		return types.Trail{}, ErrNotFound
	}
	return trail, nil
}

func (r *TrailRepository) Delete(ctx context.Context, id int) error {
	const query = `DELETE FROM trails WHERE id = $1`
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

func scanTrail(rows *sql.Rows) (types.Trail, error) {
	var trail types.Trail
	err := rows.Scan(
		&trail.ID,
		&trail.UserID,
		&trail.Name,
		&trail.Category,
		&trail.ShortDescription,
		&trail.StartLat,
		&trail.StartLng,
		&trail.EndLat,
		&trail.EndLng,
		&trail.PhotoURL,
		&trail.VideoURL,
		&trail.TrailDate,
		&trail.TrailTime,
		&trail.CreatedAt,
	)
	return trail, err
}
