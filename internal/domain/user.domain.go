package domain

import "time"

// User is the provisioned identity/profile record. Email is the natural key
// for provisioning lookups and unique across all users; ID is generated
// server-side at first creation and immutable afterwards.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      *string   `json:"name,omitempty"`
	Phone     *string   `json:"phone,omitempty"`
	Bio       *string   `json:"bio,omitempty"`
	Location  *string   `json:"location,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserUpdate is a partial payload: nil fields are left untouched.
type UserUpdate struct {
	Name     *string `json:"name,omitempty"`
	Phone    *string `json:"phone,omitempty"`
	Bio      *string `json:"bio,omitempty"`
	Location *string `json:"location,omitempty"`
}

// ListFilter is a conjunction of exact-match filters; nil fields are ignored.
// Zero matches is an empty result, never an error.
type ListFilter struct {
	Name     *string
	Email    *string
	Phone    *string
	Location *string
	Offset   int
	Limit    int
}
