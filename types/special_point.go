package types

// SpecialPoint is a named waypoint on a trail.
type SpecialPoint struct {
	ID      int     `json:"id" db:"id"`
	TrailID int     `json:"trail_id" db:"trail_id"`
	Name    string  `json:"name" db:"name"`
	Lat     float64 `json:"lat" db:"lat"`
	Lng     float64 `json:"lng" db:"lng"`
}
