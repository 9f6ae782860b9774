package types

import "time"

// User represents an account in the system.
// It contains identity, profile, role, and audit metadata.
type User struct {
	// ID is the unique identifier of the user.
	ID int `json:"id" db:"id"`

	// Username is the unique login name chosen by the user.
	Username string `json:"username" db:"username"`

	// Email is the user's email address. Unique across all accounts.
	Email string `json:"email" db:"email"`

	// Bio is a free-form text the user writes about themselves. Optional.
	Bio string `json:"bio" db:"bio"`

	// ProfileImageURL is the public path of the user's profile image,
	// e.g. "/uploads/profiles/profile-....jpg". Optional.
	ProfileImageURL string `json:"profile_image_url" db:"profile_image_url"`

	// Role indicates the user's authorization level or role
	// within the system (e.g., "admin", "user").
	Role string `json:"role" db:"role"`

	// PasswordHash stores the hashed representation of the user's password.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-" db:"password_hash"`

	// CreatedAt is the timestamp when the user account was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the user account.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// PublicUser is the projection of a user returned alongside a login token.
type PublicUser struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

// Public returns the login projection of the user.
func (u User) Public() PublicUser {
	return PublicUser{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		Role:     u.Role,
	}
}

// Profile is the projection returned by the profile endpoints. It carries the
// fields safe to show to the owner plus the trails they created.
type Profile struct {
	ID              int     `json:"user_id"`
	Username        string  `json:"username"`
	Email           string  `json:"email"`
	ProfileImageURL string  `json:"profile_image_url"`
	Bio             string  `json:"bio"`
	Trails          []Trail `json:"trails,omitempty"`
}

// ProfileOf returns the profile projection of the user without trails.
func ProfileOf(u User) Profile {
	return Profile{
		ID:              u.ID,
		Username:        u.Username,
		Email:           u.Email,
		ProfileImageURL: u.ProfileImageURL,
		Bio:             u.Bio,
	}
}

// ProfileUpdate describes a partial profile mutation. A nil field means
// "leave unchanged"; at least one field must be set.
type ProfileUpdate struct {
	Username        *string
	Bio             *string
	ProfileImageURL *string
}

// Empty reports whether no field is set.
func (p ProfileUpdate) Empty() bool {
	return p.Username == nil && p.Bio == nil && p.ProfileImageURL == nil
}
