package types

import "time"

// Trail represents a recorded trail shared by a user. Each trail is owned by
// exactly one user and may carry optional photo/video media and a set of
// special points along the route.
type Trail struct {
	// ID is the unique identifier of the trail.
	ID int `json:"id" db:"id"`

	// UserID identifies the owning user. Always taken from the
	// authenticated caller at creation, never from request input.
	UserID int `json:"user_id" db:"user_id"`

	// Name is the display name of the trail.
	Name string `json:"name" db:"name"`

	// Category is a free-form label such as "hiking" or "cycling".
	Category string `json:"category" db:"category"`

	// ShortDescription is a brief summary shown in list views.
	ShortDescription string `json:"short_description" db:"short_description"`

	// StartLat/StartLng and EndLat/EndLng are the trail endpoints.
	StartLat float64 `json:"start_lat" db:"start_lat"`
	StartLng float64 `json:"start_lng" db:"start_lng"`
	EndLat   float64 `json:"end_lat" db:"end_lat"`
	EndLng   float64 `json:"end_lng" db:"end_lng"`

	// PhotoURL and VideoURL are public paths of uploaded media. Nil when
	// the client attached no file.
	PhotoURL *string `json:"photo_url" db:"photo_url"`
	VideoURL *string `json:"video_url" db:"video_url"`

	// TrailDate and TrailTime are the date and time the trail was walked,
	// passed through verbatim as supplied by the mobile client.
	TrailDate string `json:"trail_date" db:"trail_date"`
	TrailTime string `json:"trail_time" db:"trail_time"`

	// CreatedAt is the timestamp at which the trail record was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// CreatorName is the owning user's username, populated only by the
	// list-all query which joins against users.
	CreatorName string `json:"creator_name,omitempty" db:"creator_name"`
}
